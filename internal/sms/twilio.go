package sms

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

// twilioSender delivers SMS through the Twilio Messages API.
type twilioSender struct {
	accountSID string
	authToken  string
	fromNumber string
	client     *http.Client
	log        *zap.Logger
}

func newTwilioSender(cfg Config, log *zap.Logger) *twilioSender {
	return &twilioSender{
		accountSID: cfg.TwilioAccountSID,
		authToken:  cfg.TwilioAuthToken,
		fromNumber: cfg.TwilioFromNumber,
		client:     defaultHTTPClient,
		log:        log,
	}
}

func (s *twilioSender) Send(ctx context.Context, phone, message string) error {
	endpoint := fmt.Sprintf("https://api.twilio.com/2010-04-01/Accounts/%s/Messages.json", s.accountSID)

	form := url.Values{}
	form.Set("To", phone)
	form.Set("From", s.fromNumber)
	form.Set("Body", message)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.SetBasicAuth(s.accountSID, s.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		s.log.Error("twilio request failed", zap.String("phone", phone), zap.Error(err))
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		s.log.Error("twilio rejected sms",
			zap.String("phone", phone),
			zap.Int("status", resp.StatusCode))
		return fmt.Errorf("twilio returned status %d", resp.StatusCode)
	}

	s.log.Info("sms sent via twilio", zap.String("phone", phone))
	return nil
}
