package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/stopvol/internal/models"
)

// GormNotificationStore is the postgres-backed NotificationStore.
type GormNotificationStore struct {
	db *gorm.DB
}

// NewGormNotificationStore creates a GormNotificationStore.
func NewGormNotificationStore(db *gorm.DB) *GormNotificationStore {
	return &GormNotificationStore{db: db}
}

func (s *GormNotificationStore) Create(ctx context.Context, notification *models.Notification) error {
	return s.db.WithContext(ctx).Create(notification).Error
}

func (s *GormNotificationStore) Update(ctx context.Context, notification *models.Notification) error {
	return s.db.WithContext(ctx).Save(notification).Error
}

func (s *GormNotificationStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Notification, error) {
	var notification models.Notification
	err := s.db.WithContext(ctx).First(&notification, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &notification, nil
}

func (s *GormNotificationStore) FindByDeclaration(ctx context.Context, declarationID uuid.UUID) ([]models.Notification, error) {
	var notifications []models.Notification
	err := s.db.WithContext(ctx).
		Where("declaration_id = ?", declarationID).
		Order("created_at desc").
		Find(&notifications).Error
	return notifications, err
}

func (s *GormNotificationStore) FindByAdmin(ctx context.Context, adminID uuid.UUID) ([]models.Notification, error) {
	var notifications []models.Notification
	err := s.db.WithContext(ctx).
		Where("admin_id = ?", adminID).
		Order("created_at desc").
		Find(&notifications).Error
	return notifications, err
}

func (s *GormNotificationStore) FindPending(ctx context.Context) ([]models.Notification, error) {
	var notifications []models.Notification
	err := s.db.WithContext(ctx).
		Where("sent_at IS NULL").
		Order("created_at desc").
		Find(&notifications).Error
	return notifications, err
}

func (s *GormNotificationStore) FindPendingOlderThan(ctx context.Context, age time.Duration) ([]models.Notification, error) {
	var notifications []models.Notification
	err := s.db.WithContext(ctx).
		Where("sent_at IS NULL AND created_at < ?", time.Now().Add(-age)).
		Order("created_at desc").
		Find(&notifications).Error
	return notifications, err
}

func (s *GormNotificationStore) MarkSent(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	result := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND sent_at IS NULL", id).
		Update("sent_at", at)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (s *GormNotificationStore) CountByChannel(ctx context.Context, channel string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("channel = ?", channel).
		Count(&count).Error
	return count, err
}

func (s *GormNotificationStore) CountPending(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("sent_at IS NULL").
		Count(&count).Error
	return count, err
}
