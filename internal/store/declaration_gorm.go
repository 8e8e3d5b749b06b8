package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/stopvol/internal/models"
)

// GormDeclarationStore is the postgres-backed DeclarationStore.
type GormDeclarationStore struct {
	db *gorm.DB
}

// NewGormDeclarationStore creates a GormDeclarationStore.
func NewGormDeclarationStore(db *gorm.DB) *GormDeclarationStore {
	return &GormDeclarationStore{db: db}
}

func (s *GormDeclarationStore) Create(ctx context.Context, declaration *models.Declaration) error {
	return s.db.WithContext(ctx).Create(declaration).Error
}

func (s *GormDeclarationStore) Update(ctx context.Context, declaration *models.Declaration) error {
	return s.db.WithContext(ctx).Save(declaration).Error
}

func (s *GormDeclarationStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Declaration, error) {
	var declaration models.Declaration
	err := s.db.WithContext(ctx).First(&declaration, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &declaration, nil
}

func (s *GormDeclarationStore) FindByUser(ctx context.Context, userID uuid.UUID) ([]models.Declaration, error) {
	var declarations []models.Declaration
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&declarations).Error
	return declarations, err
}

func (s *GormDeclarationStore) FindByStatus(ctx context.Context, status string) ([]models.Declaration, error) {
	var declarations []models.Declaration
	err := s.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at desc").
		Find(&declarations).Error
	return declarations, err
}

func (s *GormDeclarationStore) SearchByIdentifier(ctx context.Context, identifier string) ([]models.Declaration, error) {
	pattern := "%" + identifier + "%"
	var declarations []models.Declaration
	err := s.db.WithContext(ctx).
		Where("plate_number ILIKE ? OR chassis_number ILIKE ? OR card_number ILIKE ?",
			pattern, pattern, pattern).
		Order("created_at desc").
		Find(&declarations).Error
	return declarations, err
}

func (s *GormDeclarationStore) SearchByPlate(ctx context.Context, plate string) ([]models.Declaration, error) {
	var declarations []models.Declaration
	err := s.db.WithContext(ctx).
		Where("plate_number ILIKE ?", "%"+plate+"%").
		Order("created_at desc").
		Find(&declarations).Error
	return declarations, err
}

func (s *GormDeclarationStore) SearchByChassis(ctx context.Context, chassis string) ([]models.Declaration, error) {
	var declarations []models.Declaration
	err := s.db.WithContext(ctx).
		Where("chassis_number ILIKE ?", "%"+chassis+"%").
		Order("created_at desc").
		Find(&declarations).Error
	return declarations, err
}

func (s *GormDeclarationStore) List(ctx context.Context, limit, offset int) ([]models.Declaration, error) {
	var declarations []models.Declaration
	err := s.db.WithContext(ctx).
		Order("created_at desc").
		Limit(limit).
		Offset(offset).
		Find(&declarations).Error
	return declarations, err
}

func (s *GormDeclarationStore) CountByStatus(ctx context.Context, status string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Declaration{}).
		Where("status = ?", status).
		Count(&count).Error
	return count, err
}
