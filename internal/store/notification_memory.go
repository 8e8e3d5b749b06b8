package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/stopvol/internal/models"
)

// MemoryNotificationStore is an in-memory NotificationStore used by tests.
type MemoryNotificationStore struct {
	mu            sync.Mutex
	notifications map[uuid.UUID]*models.Notification
}

// NewMemoryNotificationStore creates an empty MemoryNotificationStore.
func NewMemoryNotificationStore() *MemoryNotificationStore {
	return &MemoryNotificationStore{notifications: make(map[uuid.UUID]*models.Notification)}
}

func (s *MemoryNotificationStore) Create(ctx context.Context, notification *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if notification.ID == uuid.Nil {
		notification.ID = uuid.New()
	}
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now()
	}
	notification.UpdatedAt = time.Now()

	clone := *notification
	s.notifications[notification.ID] = &clone
	return nil
}

func (s *MemoryNotificationStore) Update(ctx context.Context, notification *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.notifications[notification.ID]; !ok {
		return ErrNotFound
	}
	notification.UpdatedAt = time.Now()
	clone := *notification
	s.notifications[notification.ID] = &clone
	return nil
}

func (s *MemoryNotificationStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	notification, ok := s.notifications[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *notification
	return &clone, nil
}

func (s *MemoryNotificationStore) FindByDeclaration(ctx context.Context, declarationID uuid.UUID) ([]models.Notification, error) {
	return s.filter(func(n *models.Notification) bool {
		return n.DeclarationID == declarationID
	}), nil
}

func (s *MemoryNotificationStore) FindByAdmin(ctx context.Context, adminID uuid.UUID) ([]models.Notification, error) {
	return s.filter(func(n *models.Notification) bool {
		return n.AdminID != nil && *n.AdminID == adminID
	}), nil
}

func (s *MemoryNotificationStore) FindPending(ctx context.Context) ([]models.Notification, error) {
	return s.filter(func(n *models.Notification) bool {
		return n.SentAt == nil
	}), nil
}

func (s *MemoryNotificationStore) FindPendingOlderThan(ctx context.Context, age time.Duration) ([]models.Notification, error) {
	cutoff := time.Now().Add(-age)
	return s.filter(func(n *models.Notification) bool {
		return n.SentAt == nil && n.CreatedAt.Before(cutoff)
	}), nil
}

func (s *MemoryNotificationStore) MarkSent(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	notification, ok := s.notifications[id]
	if !ok {
		return false, ErrNotFound
	}
	if notification.SentAt != nil {
		return false, nil
	}
	sentAt := at
	notification.SentAt = &sentAt
	notification.UpdatedAt = time.Now()
	return true, nil
}

func (s *MemoryNotificationStore) CountByChannel(ctx context.Context, channel string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	for _, n := range s.notifications {
		if n.Channel == channel {
			count++
		}
	}
	return count, nil
}

func (s *MemoryNotificationStore) CountPending(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	for _, n := range s.notifications {
		if n.SentAt == nil {
			count++
		}
	}
	return count, nil
}

func (s *MemoryNotificationStore) filter(match func(*models.Notification) bool) []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matches []models.Notification
	for _, n := range s.notifications {
		if match(n) {
			clone := *n
			matches = append(matches, clone)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	return matches
}
