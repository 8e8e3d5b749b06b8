package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"go.uber.org/zap"

	"github.com/example/stopvol/internal/metrics"
	"github.com/example/stopvol/internal/models"
	"github.com/example/stopvol/internal/sms"
	"github.com/example/stopvol/internal/store"
)

const (
	// maxOtpPerWindow caps requests per phone inside the rolling window.
	maxOtpPerWindow = 3
	// otpRateWindow is a rolling 60 minutes counted against creation times.
	otpRateWindow = time.Hour
	// otpTTL is how long an issued code stays valid.
	otpTTL = 10 * time.Minute

	otpCodeLength = 6
)

// OtpService issues, verifies and rate-limits one-time codes per phone
// number.
type OtpService struct {
	otps   store.OtpStore
	sender sms.Sender
	log    *zap.Logger
}

// NewOtpService constructs an OtpService.
func NewOtpService(otps store.OtpStore, sender sms.Sender, log *zap.Logger) *OtpService {
	return &OtpService{otps: otps, sender: sender, log: log}
}

// RequestCode validates the phone, enforces the hourly quota, persists a
// fresh code and sends it by SMS. A failed SMS send does not roll back the
// stored code; delivery problems are logged and the code stays usable.
func (s *OtpService) RequestCode(ctx context.Context, phone string) (*models.OtpCode, error) {
	if !sms.ValidatePhoneNumber(phone) {
		return nil, validationError("invalid phone number")
	}

	recent, err := s.otps.CountRecentByPhone(ctx, phone, otpRateWindow)
	if err != nil {
		return nil, err
	}
	if recent >= maxOtpPerWindow {
		return nil, fmt.Errorf("%w: maximum %d OTP requests per hour", ErrRateLimited, maxOtpPerWindow)
	}

	// A new code supersedes any still-valid one for the same phone.
	if err := s.otps.ExpireActiveByPhone(ctx, phone); err != nil {
		return nil, err
	}

	code, err := generateOtpCode(otpCodeLength)
	if err != nil {
		return nil, err
	}

	otp := &models.OtpCode{
		Phone:     phone,
		Code:      code,
		ExpiresAt: time.Now().Add(otpTTL),
	}
	if err := s.otps.Create(ctx, otp); err != nil {
		return nil, err
	}
	metrics.OtpRequests.Inc()

	message := fmt.Sprintf(
		"Votre code de vérification StopVol est: %s. Ce code expire dans %d minutes.",
		otp.Code, int(otpTTL.Minutes()))
	if err := s.sender.Send(ctx, otp.Phone, message); err != nil {
		s.log.Warn("otp sms delivery failed",
			zap.String("phone", otp.Phone),
			zap.Error(err))
	}

	return otp, nil
}

// VerifyCode consumes the newest record matching (phone, code). It returns
// false for unknown, expired or already-used codes. Consumption is atomic:
// concurrent verifications of the same code let exactly one caller through.
func (s *OtpService) VerifyCode(ctx context.Context, phone, code string) (bool, error) {
	record, err := s.otps.FindByPhoneAndCode(ctx, phone, code)
	if errors.Is(err, store.ErrNotFound) {
		metrics.OtpVerifications.WithLabelValues("unknown").Inc()
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if !record.IsValid() {
		metrics.OtpVerifications.WithLabelValues("invalid").Inc()
		return false, nil
	}

	ok, err := s.otps.Consume(ctx, record.ID)
	if err != nil {
		return false, err
	}
	if ok {
		metrics.OtpVerifications.WithLabelValues("ok").Inc()
	} else {
		metrics.OtpVerifications.WithLabelValues("invalid").Inc()
	}
	return ok, nil
}

// Resend issues a new code once the previous one has lapsed. It fails while
// the latest code is still valid or when no code was ever requested.
func (s *OtpService) Resend(ctx context.Context, phone string) (*models.OtpCode, error) {
	latest, err := s.otps.FindLatestByPhone(ctx, phone)
	if errors.Is(err, store.ErrNotFound) {
		return nil, invalidStateError("no OTP found for this phone number")
	}
	if err != nil {
		return nil, err
	}
	if latest.IsValid() {
		return nil, invalidStateError("current OTP is still valid")
	}

	return s.RequestCode(ctx, phone)
}

// ValidCode returns the newest still-valid code for a phone, or nil.
func (s *OtpService) ValidCode(ctx context.Context, phone string) (*models.OtpCode, error) {
	code, err := s.otps.FindValidByPhone(ctx, phone)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return code, nil
}

// RemainingValidity returns the seconds until the latest valid code expires,
// or 0 when none exists.
func (s *OtpService) RemainingValidity(ctx context.Context, phone string) (int, error) {
	code, err := s.ValidCode(ctx, phone)
	if err != nil {
		return 0, err
	}
	if code == nil {
		return 0, nil
	}
	return code.RemainingTime(), nil
}

// CanRequestNew reports whether a fresh code may be requested: no valid code
// outstanding and the hourly quota not exhausted.
func (s *OtpService) CanRequestNew(ctx context.Context, phone string) (bool, error) {
	code, err := s.ValidCode(ctx, phone)
	if err != nil {
		return false, err
	}
	if code != nil {
		return false, nil
	}

	recent, err := s.otps.CountRecentByPhone(ctx, phone, otpRateWindow)
	if err != nil {
		return false, err
	}
	return recent < maxOtpPerWindow, nil
}

// OtpStats summarizes the OTP state for one phone number.
type OtpStats struct {
	HasValidOtp            bool   `json:"has_valid_otp"`
	RemainingTime          int    `json:"remaining_time"`
	RemainingTimeFormatted string `json:"remaining_time_formatted"`
	RecentRequests         int64  `json:"recent_requests"`
	CanRequestNew          bool   `json:"can_request_new"`
	MaxRequestsPerHour     int    `json:"max_requests_per_hour"`
}

// Stats reports the current OTP state for a phone.
func (s *OtpService) Stats(ctx context.Context, phone string) (*OtpStats, error) {
	code, err := s.ValidCode(ctx, phone)
	if err != nil {
		return nil, err
	}

	recent, err := s.otps.CountRecentByPhone(ctx, phone, otpRateWindow)
	if err != nil {
		return nil, err
	}

	stats := &OtpStats{
		RecentRequests:         recent,
		RemainingTimeFormatted: "Aucun",
		MaxRequestsPerHour:     maxOtpPerWindow,
	}
	if code != nil {
		stats.HasValidOtp = true
		stats.RemainingTime = code.RemainingTime()
		stats.RemainingTimeFormatted = code.RemainingTimeFormatted()
	} else {
		stats.CanRequestNew = recent < maxOtpPerWindow
	}
	return stats, nil
}

// CleanupExpired deletes expired codes. Meant to run on a schedule.
func (s *OtpService) CleanupExpired(ctx context.Context) (int64, error) {
	return s.otps.DeleteExpired(ctx)
}

// CleanupUsed deletes consumed codes. Meant to run on a schedule.
func (s *OtpService) CleanupUsed(ctx context.Context) (int64, error) {
	return s.otps.DeleteUsed(ctx)
}

// generateOtpCode draws a uniformly random zero-padded numeric code.
func generateOtpCode(length int) (string, error) {
	limit := big.NewInt(1)
	for i := 0; i < length; i++ {
		limit.Mul(limit, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", length, n.Int64()), nil
}
