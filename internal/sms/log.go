package sms

import (
	"context"

	"go.uber.org/zap"
)

// LogSender writes messages to the log instead of sending them. It is the
// developer fallback when no provider is configured and always succeeds.
type LogSender struct {
	log *zap.Logger
}

// NewLogSender creates a LogSender.
func NewLogSender(log *zap.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(ctx context.Context, phone, message string) error {
	s.log.Info("sms would be sent",
		zap.String("phone", phone),
		zap.String("message", message),
		zap.String("provider", ProviderLog))
	return nil
}
