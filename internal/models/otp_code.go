package models

import (
	"fmt"
	"time"
)

// OtpCode is a one-time password sent by SMS to prove phone possession.
// A code is valid iff it has not been used and has not expired.
type OtpCode struct {
	BaseModel
	Phone     string    `gorm:"index" json:"phone"`
	Code      string    `json:"code"`
	Used      bool      `json:"used"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IsExpired reports whether the code's lifetime has elapsed.
func (o *OtpCode) IsExpired() bool {
	return !o.ExpiresAt.After(time.Now())
}

// IsValid reports whether the code can still be consumed.
func (o *OtpCode) IsValid() bool {
	return !o.Used && !o.IsExpired()
}

// RemainingTime returns the seconds left until expiry, or 0 once expired.
func (o *OtpCode) RemainingTime() int {
	if o.IsExpired() {
		return 0
	}
	return int(time.Until(o.ExpiresAt).Seconds())
}

// RemainingTimeFormatted renders the remaining validity for display.
func (o *OtpCode) RemainingTimeFormatted() string {
	seconds := o.RemainingTime()
	if seconds <= 0 {
		return "Expiré"
	}

	minutes := seconds / 60
	if minutes > 0 {
		return fmt.Sprintf("%d min %d sec", minutes, seconds%60)
	}
	return fmt.Sprintf("%d sec", seconds)
}
