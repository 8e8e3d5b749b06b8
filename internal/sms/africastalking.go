package sms

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

const africasTalkingEndpoint = "https://api.africastalking.com/version1/messaging"

// africasTalkingSender delivers SMS through the Africa's Talking API.
type africasTalkingSender struct {
	username string
	apiKey   string
	from     string
	client   *http.Client
	log      *zap.Logger
}

func newAfricasTalkingSender(cfg Config, log *zap.Logger) *africasTalkingSender {
	return &africasTalkingSender{
		username: cfg.AfricasTalkingUsername,
		apiKey:   cfg.AfricasTalkingAPIKey,
		from:     cfg.AfricasTalkingFrom,
		client:   defaultHTTPClient,
		log:      log,
	}
}

func (s *africasTalkingSender) Send(ctx context.Context, phone, message string) error {
	form := url.Values{}
	form.Set("username", s.username)
	form.Set("to", phone)
	form.Set("message", message)
	if s.from != "" {
		form.Set("from", s.from)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, africasTalkingEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("apiKey", s.apiKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		s.log.Error("africa's talking request failed", zap.String("phone", phone), zap.Error(err))
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s.log.Error("africa's talking rejected sms",
			zap.String("phone", phone),
			zap.Int("status", resp.StatusCode))
		return fmt.Errorf("africa's talking returned status %d", resp.StatusCode)
	}

	s.log.Info("sms sent via africa's talking", zap.String("phone", phone))
	return nil
}
