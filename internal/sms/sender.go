// Package sms abstracts outbound SMS delivery behind a single Sender
// interface. The concrete provider is chosen once at startup from
// configuration and injected wherever messages are sent.
package sms

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Sender delivers a text message to a phone number.
type Sender interface {
	Send(ctx context.Context, phone, message string) error
}

// Provider names accepted in configuration.
const (
	ProviderAqilas         = "aqilas"
	ProviderTwilio         = "twilio"
	ProviderNexmo          = "nexmo"
	ProviderAfricasTalking = "africas_talking"
	ProviderLog            = "log"
)

// Config selects and credentials an SMS provider.
type Config struct {
	Provider string

	AqilasAPIKey   string
	AqilasSenderID string
	AqilasBaseURL  string

	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string

	NexmoAPIKey     string
	NexmoAPISecret  string
	NexmoFromNumber string

	AfricasTalkingUsername string
	AfricasTalkingAPIKey   string
	AfricasTalkingFrom     string
}

var defaultHTTPClient = &http.Client{Timeout: 15 * time.Second}

// New builds the Sender named by cfg.Provider. An empty provider falls back
// to the log sender so development setups work without credentials.
func New(cfg Config, log *zap.Logger) (Sender, error) {
	switch cfg.Provider {
	case ProviderAqilas:
		if cfg.AqilasAPIKey == "" {
			return nil, fmt.Errorf("aqilas configuration is incomplete")
		}
		return newAqilasSender(cfg, log), nil
	case ProviderTwilio:
		if cfg.TwilioAccountSID == "" || cfg.TwilioAuthToken == "" || cfg.TwilioFromNumber == "" {
			return nil, fmt.Errorf("twilio configuration is incomplete")
		}
		return newTwilioSender(cfg, log), nil
	case ProviderNexmo:
		if cfg.NexmoAPIKey == "" || cfg.NexmoAPISecret == "" {
			return nil, fmt.Errorf("nexmo configuration is incomplete")
		}
		return newNexmoSender(cfg, log), nil
	case ProviderAfricasTalking:
		if cfg.AfricasTalkingUsername == "" || cfg.AfricasTalkingAPIKey == "" {
			return nil, fmt.Errorf("africa's talking configuration is incomplete")
		}
		return newAfricasTalkingSender(cfg, log), nil
	case ProviderLog, "":
		return NewLogSender(log), nil
	default:
		return nil, fmt.Errorf("unknown sms provider %q", cfg.Provider)
	}
}
