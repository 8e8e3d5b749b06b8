package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/stopvol/internal/models"
)

// GormOtpStore is the postgres-backed OtpStore.
type GormOtpStore struct {
	db *gorm.DB
}

// NewGormOtpStore creates a GormOtpStore.
func NewGormOtpStore(db *gorm.DB) *GormOtpStore {
	return &GormOtpStore{db: db}
}

func (s *GormOtpStore) Create(ctx context.Context, code *models.OtpCode) error {
	return s.db.WithContext(ctx).Create(code).Error
}

func (s *GormOtpStore) Update(ctx context.Context, code *models.OtpCode) error {
	return s.db.WithContext(ctx).Save(code).Error
}

func (s *GormOtpStore) FindByID(ctx context.Context, id uuid.UUID) (*models.OtpCode, error) {
	var code models.OtpCode
	err := s.db.WithContext(ctx).First(&code, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &code, nil
}

func (s *GormOtpStore) FindValidByPhone(ctx context.Context, phone string) (*models.OtpCode, error) {
	var code models.OtpCode
	err := s.db.WithContext(ctx).
		Where("phone = ? AND used = false AND expires_at > ?", phone, time.Now()).
		Order("created_at desc").
		First(&code).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &code, nil
}

func (s *GormOtpStore) FindLatestByPhone(ctx context.Context, phone string) (*models.OtpCode, error) {
	var code models.OtpCode
	err := s.db.WithContext(ctx).
		Where("phone = ?", phone).
		Order("created_at desc").
		First(&code).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &code, nil
}

func (s *GormOtpStore) FindByPhoneAndCode(ctx context.Context, phone, code string) (*models.OtpCode, error) {
	var record models.OtpCode
	err := s.db.WithContext(ctx).
		Where("phone = ? AND code = ?", phone, code).
		Order("created_at desc").
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *GormOtpStore) CountRecentByPhone(ctx context.Context, phone string, window time.Duration) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.OtpCode{}).
		Where("phone = ? AND created_at >= ?", phone, time.Now().Add(-window)).
		Count(&count).Error
	return count, err
}

func (s *GormOtpStore) ExpireActiveByPhone(ctx context.Context, phone string) error {
	now := time.Now()
	return s.db.WithContext(ctx).Model(&models.OtpCode{}).
		Where("phone = ? AND used = false AND expires_at > ?", phone, now).
		Update("expires_at", now).Error
}

func (s *GormOtpStore) Consume(ctx context.Context, id uuid.UUID) (bool, error) {
	// Compare-and-set on used: only one concurrent verification may win.
	result := s.db.WithContext(ctx).Model(&models.OtpCode{}).
		Where("id = ? AND used = false", id).
		Update("used", true)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (s *GormOtpStore) DeleteExpired(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("expires_at < ?", time.Now()).
		Delete(&models.OtpCode{})
	return result.RowsAffected, result.Error
}

func (s *GormOtpStore) DeleteUsed(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("used = true").
		Delete(&models.OtpCode{})
	return result.RowsAffected, result.Error
}
