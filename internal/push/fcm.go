// Package push delivers in-app notifications through Firebase Cloud
// Messaging.
package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const fcmEndpoint = "https://fcm.googleapis.com/fcm/send"

// Gateway sends push messages to registered device tokens. Users without a
// token simply do not have the app installed, so sending to an empty token
// succeeds trivially.
type Gateway struct {
	serverKey string
	client    *http.Client
	log       *zap.Logger
}

// NewGateway creates a Gateway. An empty server key turns the gateway into a
// logging no-op for development.
func NewGateway(serverKey string, log *zap.Logger) *Gateway {
	return &Gateway{
		serverKey: serverKey,
		client:    &http.Client{Timeout: 15 * time.Second},
		log:       log,
	}
}

type fcmMessage struct {
	To           string            `json:"to"`
	Notification fcmNotification   `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
}

type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Icon  string `json:"icon"`
	Sound string `json:"sound"`
}

type fcmResponse struct {
	Success int `json:"success"`
	Failure int `json:"failure"`
}

// Send pushes a message to a device token.
func (g *Gateway) Send(ctx context.Context, token, title, body string, data map[string]string) error {
	if token == "" {
		g.log.Info("user has no push token, skipping push notification")
		return nil
	}
	if g.serverKey == "" {
		g.log.Warn("fcm server key not configured, simulating push notification",
			zap.String("title", title))
		return nil
	}

	payload := fcmMessage{
		To: token,
		Notification: fcmNotification{
			Title: title,
			Body:  body,
			Icon:  "ic_notification",
			Sound: "default",
		},
		Data: data,
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fcmEndpoint, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "key="+g.serverKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		g.log.Error("fcm request failed", zap.Error(err))
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		g.log.Error("fcm rejected push", zap.Int("status", resp.StatusCode))
		return fmt.Errorf("fcm returned status %d", resp.StatusCode)
	}

	var parsed fcmResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return err
	}
	if parsed.Success == 0 {
		g.log.Error("fcm reported no successful delivery", zap.Int("failure", parsed.Failure))
		return fmt.Errorf("fcm delivered to no devices")
	}

	return nil
}
