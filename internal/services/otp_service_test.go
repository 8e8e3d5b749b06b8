package services

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/stopvol/internal/store"
)

const testPhone = "+22670123456"

type fakeSmsSender struct {
	mu       sync.Mutex
	messages []string
	phones   []string
	err      error
}

func (f *fakeSmsSender) Send(ctx context.Context, phone, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.phones = append(f.phones, phone)
	f.messages = append(f.messages, message)
	return nil
}

func (f *fakeSmsSender) sent() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.messages)
}

func newOtpFixture() (*OtpService, *store.MemoryOtpStore, *fakeSmsSender) {
	otps := store.NewMemoryOtpStore()
	sender := &fakeSmsSender{}
	return NewOtpService(otps, sender, zap.NewNop()), otps, sender
}

func TestRequestCodeIssuesSixDigitCode(t *testing.T) {
	ctx := context.Background()
	svc, _, sender := newOtpFixture()

	otp, err := svc.RequestCode(ctx, testPhone)
	require.NoError(t, err)
	require.Regexp(t, regexp.MustCompile(`^\d{6}$`), otp.Code)
	require.True(t, otp.IsValid())

	require.Equal(t, 1, sender.sent())
	require.Contains(t, sender.messages[0], otp.Code)
	require.Equal(t, testPhone, sender.phones[0])
}

func TestRequestCodeRejectsInvalidPhone(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newOtpFixture()

	_, err := svc.RequestCode(ctx, "123")
	require.ErrorIs(t, err, ErrValidation)
}

func TestRequestCodeRateLimited(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newOtpFixture()

	for i := 0; i < 3; i++ {
		_, err := svc.RequestCode(ctx, testPhone)
		require.NoError(t, err)
	}

	_, err := svc.RequestCode(ctx, testPhone)
	require.ErrorIs(t, err, ErrRateLimited)

	// Another phone is unaffected.
	_, err = svc.RequestCode(ctx, "+22675000000")
	require.NoError(t, err)
}

func TestRequestCodeSupersedesPreviousCode(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newOtpFixture()

	first, err := svc.RequestCode(ctx, testPhone)
	require.NoError(t, err)

	second, err := svc.RequestCode(ctx, testPhone)
	require.NoError(t, err)

	if first.Code != second.Code {
		ok, err := svc.VerifyCode(ctx, testPhone, first.Code)
		require.NoError(t, err)
		require.False(t, ok, "superseded code must no longer verify")
	}

	ok, err := svc.VerifyCode(ctx, testPhone, second.Code)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestRequestCodeSurvivesSmsFailure(t *testing.T) {
	ctx := context.Background()
	otps := store.NewMemoryOtpStore()
	sender := &fakeSmsSender{err: errors.New("provider down")}
	svc := NewOtpService(otps, sender, zap.NewNop())

	otp, err := svc.RequestCode(ctx, testPhone)
	require.NoError(t, err)

	ok, err := svc.VerifyCode(ctx, testPhone, otp.Code)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestVerifyCodeConsumesExactlyOnce(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newOtpFixture()

	otp, err := svc.RequestCode(ctx, testPhone)
	require.NoError(t, err)

	ok, err := svc.VerifyCode(ctx, testPhone, otp.Code)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = svc.VerifyCode(ctx, testPhone, otp.Code)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestVerifyCodeUnknownAndExpired(t *testing.T) {
	ctx := context.Background()
	svc, otps, _ := newOtpFixture()

	ok, err := svc.VerifyCode(ctx, testPhone, "000000")
	require.NoError(t, err)
	require.False(t, ok)

	otp, err := svc.RequestCode(ctx, testPhone)
	require.NoError(t, err)

	otp.ExpiresAt = time.Now().Add(-time.Second)
	require.NoError(t, otps.Update(ctx, otp))

	ok, err = svc.VerifyCode(ctx, testPhone, otp.Code)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestOtpResendRules(t *testing.T) {
	ctx := context.Background()
	svc, otps, _ := newOtpFixture()

	_, err := svc.Resend(ctx, testPhone)
	require.ErrorIs(t, err, ErrInvalidState)

	otp, err := svc.RequestCode(ctx, testPhone)
	require.NoError(t, err)

	_, err = svc.Resend(ctx, testPhone)
	require.ErrorIs(t, err, ErrInvalidState, "still-valid code blocks resend")

	otp.ExpiresAt = time.Now().Add(-time.Second)
	require.NoError(t, otps.Update(ctx, otp))

	fresh, err := svc.Resend(ctx, testPhone)
	require.NoError(t, err)
	require.True(t, fresh.IsValid())
}

func TestRemainingValidityAndCanRequestNew(t *testing.T) {
	ctx := context.Background()
	svc, otps, _ := newOtpFixture()

	remaining, err := svc.RemainingValidity(ctx, testPhone)
	require.NoError(t, err)
	require.Zero(t, remaining)

	canRequest, err := svc.CanRequestNew(ctx, testPhone)
	require.NoError(t, err)
	require.True(t, canRequest)

	otp, err := svc.RequestCode(ctx, testPhone)
	require.NoError(t, err)

	remaining, err = svc.RemainingValidity(ctx, testPhone)
	require.NoError(t, err)
	require.Greater(t, remaining, 0)

	canRequest, err = svc.CanRequestNew(ctx, testPhone)
	require.NoError(t, err)
	require.False(t, canRequest, "a valid code is outstanding")

	otp.ExpiresAt = time.Now().Add(-time.Second)
	require.NoError(t, otps.Update(ctx, otp))

	canRequest, err = svc.CanRequestNew(ctx, testPhone)
	require.NoError(t, err)
	require.True(t, canRequest)
}

func TestOtpStats(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newOtpFixture()

	stats, err := svc.Stats(ctx, testPhone)
	require.NoError(t, err)
	require.False(t, stats.HasValidOtp)
	require.True(t, stats.CanRequestNew)
	require.Equal(t, "Aucun", stats.RemainingTimeFormatted)

	_, err = svc.RequestCode(ctx, testPhone)
	require.NoError(t, err)

	stats, err = svc.Stats(ctx, testPhone)
	require.NoError(t, err)
	require.True(t, stats.HasValidOtp)
	require.EqualValues(t, 1, stats.RecentRequests)
	require.Greater(t, stats.RemainingTime, 0)
}

func TestCleanupRemovesStaleCodes(t *testing.T) {
	ctx := context.Background()
	svc, otps, _ := newOtpFixture()

	expired, err := svc.RequestCode(ctx, testPhone)
	require.NoError(t, err)
	expired.ExpiresAt = time.Now().Add(-time.Minute)
	require.NoError(t, otps.Update(ctx, expired))

	used, err := svc.RequestCode(ctx, "+22675000000")
	require.NoError(t, err)
	ok, err := svc.VerifyCode(ctx, "+22675000000", used.Code)
	require.NoError(t, err)
	require.True(t, ok)

	deletedExpired, err := svc.CleanupExpired(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, deletedExpired)

	deletedUsed, err := svc.CleanupUsed(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, deletedUsed)
}
