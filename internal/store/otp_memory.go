package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/stopvol/internal/models"
)

// MemoryOtpStore is an in-memory OtpStore used by tests and local runs.
type MemoryOtpStore struct {
	mu    sync.Mutex
	codes map[uuid.UUID]*models.OtpCode
}

// NewMemoryOtpStore creates an empty MemoryOtpStore.
func NewMemoryOtpStore() *MemoryOtpStore {
	return &MemoryOtpStore{codes: make(map[uuid.UUID]*models.OtpCode)}
}

func (s *MemoryOtpStore) Create(ctx context.Context, code *models.OtpCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if code.ID == uuid.Nil {
		code.ID = uuid.New()
	}
	if code.CreatedAt.IsZero() {
		code.CreatedAt = time.Now()
	}
	code.UpdatedAt = time.Now()

	clone := *code
	s.codes[code.ID] = &clone
	return nil
}

func (s *MemoryOtpStore) Update(ctx context.Context, code *models.OtpCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.codes[code.ID]; !ok {
		return ErrNotFound
	}
	code.UpdatedAt = time.Now()
	clone := *code
	s.codes[code.ID] = &clone
	return nil
}

func (s *MemoryOtpStore) FindByID(ctx context.Context, id uuid.UUID) (*models.OtpCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	code, ok := s.codes[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *code
	return &clone, nil
}

func (s *MemoryOtpStore) FindValidByPhone(ctx context.Context, phone string) (*models.OtpCode, error) {
	return s.findNewest(func(c *models.OtpCode) bool {
		return c.Phone == phone && !c.Used && c.ExpiresAt.After(time.Now())
	})
}

func (s *MemoryOtpStore) FindLatestByPhone(ctx context.Context, phone string) (*models.OtpCode, error) {
	return s.findNewest(func(c *models.OtpCode) bool {
		return c.Phone == phone
	})
}

func (s *MemoryOtpStore) FindByPhoneAndCode(ctx context.Context, phone, code string) (*models.OtpCode, error) {
	return s.findNewest(func(c *models.OtpCode) bool {
		return c.Phone == phone && c.Code == code
	})
}

func (s *MemoryOtpStore) CountRecentByPhone(ctx context.Context, phone string, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-window)
	var count int64
	for _, c := range s.codes {
		if c.Phone == phone && !c.CreatedAt.Before(cutoff) {
			count++
		}
	}
	return count, nil
}

func (s *MemoryOtpStore) ExpireActiveByPhone(ctx context.Context, phone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for _, c := range s.codes {
		if c.Phone == phone && !c.Used && c.ExpiresAt.After(now) {
			c.ExpiresAt = now
		}
	}
	return nil
}

func (s *MemoryOtpStore) Consume(ctx context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	code, ok := s.codes[id]
	if !ok {
		return false, ErrNotFound
	}
	if code.Used {
		return false, nil
	}
	code.Used = true
	code.UpdatedAt = time.Now()
	return true, nil
}

func (s *MemoryOtpStore) DeleteExpired(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	now := time.Now()
	for id, c := range s.codes {
		if c.ExpiresAt.Before(now) {
			delete(s.codes, id)
			deleted++
		}
	}
	return deleted, nil
}

func (s *MemoryOtpStore) DeleteUsed(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for id, c := range s.codes {
		if c.Used {
			delete(s.codes, id)
			deleted++
		}
	}
	return deleted, nil
}

func (s *MemoryOtpStore) findNewest(match func(*models.OtpCode) bool) (*models.OtpCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matches []*models.OtpCode
	for _, c := range s.codes {
		if match(c) {
			matches = append(matches, c)
		}
	}
	if len(matches) == 0 {
		return nil, ErrNotFound
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	clone := *matches[0]
	return &clone, nil
}
