package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/example/stopvol/internal/models"
)

func newOtp(phone, code string, expiresAt time.Time) *models.OtpCode {
	return &models.OtpCode{Phone: phone, Code: code, ExpiresAt: expiresAt}
}

func TestMemoryOtpStoreCreateAndFind(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryOtpStore()

	otp := newOtp("+22670123456", "123456", time.Now().Add(10*time.Minute))
	require.NoError(t, s.Create(ctx, otp))
	require.NotZero(t, otp.ID)

	found, err := s.FindByID(ctx, otp.ID)
	require.NoError(t, err)
	require.Equal(t, "123456", found.Code)

	_, err = s.FindByPhoneAndCode(ctx, "+22670123456", "000000")
	require.ErrorIs(t, err, ErrNotFound)

	found, err = s.FindByPhoneAndCode(ctx, "+22670123456", "123456")
	require.NoError(t, err)
	require.Equal(t, otp.ID, found.ID)
}

func TestMemoryOtpStoreFindNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryOtpStore()

	old := newOtp("+22670123456", "111111", time.Now().Add(10*time.Minute))
	old.CreatedAt = time.Now().Add(-time.Minute)
	require.NoError(t, s.Create(ctx, old))

	newer := newOtp("+22670123456", "222222", time.Now().Add(10*time.Minute))
	require.NoError(t, s.Create(ctx, newer))

	latest, err := s.FindLatestByPhone(ctx, "+22670123456")
	require.NoError(t, err)
	require.Equal(t, "222222", latest.Code)

	valid, err := s.FindValidByPhone(ctx, "+22670123456")
	require.NoError(t, err)
	require.Equal(t, "222222", valid.Code)
}

func TestMemoryOtpStoreCountRecentByPhone(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryOtpStore()

	recent := newOtp("+22670123456", "111111", time.Now().Add(10*time.Minute))
	require.NoError(t, s.Create(ctx, recent))

	stale := newOtp("+22670123456", "222222", time.Now().Add(10*time.Minute))
	stale.CreatedAt = time.Now().Add(-2 * time.Hour)
	require.NoError(t, s.Create(ctx, stale))

	other := newOtp("+22675000000", "333333", time.Now().Add(10*time.Minute))
	require.NoError(t, s.Create(ctx, other))

	count, err := s.CountRecentByPhone(ctx, "+22670123456", time.Hour)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
}

func TestMemoryOtpStoreExpireActiveByPhone(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryOtpStore()

	otp := newOtp("+22670123456", "123456", time.Now().Add(10*time.Minute))
	require.NoError(t, s.Create(ctx, otp))

	require.NoError(t, s.ExpireActiveByPhone(ctx, "+22670123456"))

	_, err := s.FindValidByPhone(ctx, "+22670123456")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryOtpStoreConsumeExactlyOnce(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryOtpStore()

	otp := newOtp("+22670123456", "123456", time.Now().Add(10*time.Minute))
	require.NoError(t, s.Create(ctx, otp))

	const attempts = 16
	results := make(chan bool, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := s.Consume(ctx, otp.ID)
			results <- ok && err == nil
		}()
	}
	wg.Wait()
	close(results)

	winners := 0
	for ok := range results {
		if ok {
			winners++
		}
	}
	require.Equal(t, 1, winners)
}

func TestMemoryOtpStoreCleanup(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryOtpStore()

	expired := newOtp("+22670123456", "111111", time.Now().Add(-time.Minute))
	require.NoError(t, s.Create(ctx, expired))

	used := newOtp("+22670123456", "222222", time.Now().Add(10*time.Minute))
	used.Used = true
	require.NoError(t, s.Create(ctx, used))

	live := newOtp("+22670123456", "333333", time.Now().Add(10*time.Minute))
	require.NoError(t, s.Create(ctx, live))

	deleted, err := s.DeleteExpired(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, deleted)

	deleted, err = s.DeleteUsed(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, deleted)

	remaining, err := s.FindValidByPhone(ctx, "+22670123456")
	require.NoError(t, err)
	require.Equal(t, "333333", remaining.Code)
}
