package models

import (
	"time"

	"github.com/google/uuid"
)

// Notification channels.
const (
	ChannelSMS = "sms"
	ChannelApp = "app"
)

// IsValidChannel reports whether channel is a known delivery medium.
func IsValidChannel(channel string) bool {
	return channel == ChannelSMS || channel == ChannelApp
}

// Notification is a message addressed to a declaration's owner over one
// channel. SentAt stays nil until asynchronous delivery succeeds.
type Notification struct {
	BaseModel
	DeclarationID uuid.UUID  `gorm:"type:uuid;index" json:"declaration_id"`
	AdminID       *uuid.UUID `gorm:"type:uuid" json:"admin_id"`
	Message       string     `json:"message"`
	Channel       string     `json:"channel"`
	SentAt        *time.Time `json:"sent_at"`
}

// IsSms reports whether the notification goes out by SMS.
func (n *Notification) IsSms() bool { return n.Channel == ChannelSMS }

// IsApp reports whether the notification goes out as a push message.
func (n *Notification) IsApp() bool { return n.Channel == ChannelApp }

// IsSent reports whether delivery has succeeded.
func (n *Notification) IsSent() bool { return n.SentAt != nil }

// IsPending reports whether the notification still awaits delivery.
func (n *Notification) IsPending() bool { return n.SentAt == nil }

// CanBeResent allows a resend when the notification is still pending or was
// sent more than an hour ago.
func (n *Notification) CanBeResent() bool {
	if n.IsPending() {
		return true
	}
	return time.Since(*n.SentAt) > time.Hour
}
