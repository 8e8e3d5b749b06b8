package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

const aqilasDefaultBaseURL = "https://api.aqilas.com"

// aqilasSender delivers SMS through the AQILAS HTTP API.
type aqilasSender struct {
	apiKey   string
	senderID string
	baseURL  string
	client   *http.Client
	log      *zap.Logger
}

func newAqilasSender(cfg Config, log *zap.Logger) *aqilasSender {
	baseURL := cfg.AqilasBaseURL
	if baseURL == "" {
		baseURL = aqilasDefaultBaseURL
	}
	return &aqilasSender{
		apiKey:   cfg.AqilasAPIKey,
		senderID: cfg.AqilasSenderID,
		baseURL:  baseURL,
		client:   defaultHTTPClient,
		log:      log,
	}
}

type aqilasRequest struct {
	To       string `json:"to"`
	Message  string `json:"message"`
	SenderID string `json:"sender_id"`
}

func (s *aqilasSender) Send(ctx context.Context, phone, message string) error {
	payload := aqilasRequest{
		To:       formatPhoneForAqilas(phone),
		Message:  message,
		SenderID: s.senderID,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v1/sms/send", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		s.log.Error("aqilas request failed", zap.String("phone", payload.To), zap.Error(err))
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s.log.Error("aqilas rejected sms",
			zap.String("phone", payload.To),
			zap.Int("status", resp.StatusCode))
		return fmt.Errorf("aqilas returned status %d", resp.StatusCode)
	}

	s.log.Info("sms sent via aqilas", zap.String("phone", payload.To))
	return nil
}

// formatPhoneForAqilas converts a number to the international format without
// a + that AQILAS expects, assuming Burkina Faso (226) for local numbers.
func formatPhoneForAqilas(phone string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)

	switch {
	case strings.HasPrefix(digits, "226"):
		return digits
	case strings.HasPrefix(digits, "0"):
		return "226" + digits[1:]
	case len(digits) == 8:
		return "226" + digits
	default:
		return digits
	}
}
