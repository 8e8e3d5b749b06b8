package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

const nexmoEndpoint = "https://rest.nexmo.com/sms/json"

// nexmoSender delivers SMS through the Nexmo (Vonage) API.
type nexmoSender struct {
	apiKey     string
	apiSecret  string
	fromNumber string
	client     *http.Client
	log        *zap.Logger
}

func newNexmoSender(cfg Config, log *zap.Logger) *nexmoSender {
	return &nexmoSender{
		apiKey:     cfg.NexmoAPIKey,
		apiSecret:  cfg.NexmoAPISecret,
		fromNumber: cfg.NexmoFromNumber,
		client:     defaultHTTPClient,
		log:        log,
	}
}

type nexmoRequest struct {
	APIKey    string `json:"api_key"`
	APISecret string `json:"api_secret"`
	To        string `json:"to"`
	From      string `json:"from"`
	Text      string `json:"text"`
}

type nexmoResponse struct {
	Messages []struct {
		Status    string `json:"status"`
		ErrorText string `json:"error-text"`
	} `json:"messages"`
}

func (s *nexmoSender) Send(ctx context.Context, phone, message string) error {
	payload := nexmoRequest{
		APIKey:    s.apiKey,
		APISecret: s.apiSecret,
		To:        phone,
		From:      s.fromNumber,
		Text:      message,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, nexmoEndpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		s.log.Error("nexmo request failed", zap.String("phone", phone), zap.Error(err))
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("nexmo returned status %d", resp.StatusCode)
	}

	var parsed nexmoResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return err
	}
	// Nexmo reports per-message status; "0" means accepted.
	for _, m := range parsed.Messages {
		if m.Status != "0" {
			s.log.Error("nexmo rejected sms",
				zap.String("phone", phone),
				zap.String("status", m.Status),
				zap.String("error", m.ErrorText))
			return fmt.Errorf("nexmo rejected message: %s", m.ErrorText)
		}
	}

	s.log.Info("sms sent via nexmo", zap.String("phone", phone))
	return nil
}
