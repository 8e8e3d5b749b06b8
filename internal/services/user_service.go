package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/example/stopvol/internal/blob"
	"github.com/example/stopvol/internal/events"
	"github.com/example/stopvol/internal/models"
	"github.com/example/stopvol/internal/store"
)

// Document kinds accepted by UploadDocument.
const (
	DocumentProfilePicture = "profile_picture"
	DocumentIDCardFront    = "id_card_front"
	DocumentIDCardBack     = "id_card_back"
)

// UserService manages accounts and profile lifecycle: creation on first OTP
// verification, completion by the citizen, validation by an admin.
type UserService struct {
	users store.UserStore
	blobs blob.Store
	bus   *events.Bus
	log   *zap.Logger
}

// NewUserService constructs a UserService.
func NewUserService(users store.UserStore, blobs blob.Store, bus *events.Bus, log *zap.Logger) *UserService {
	return &UserService{users: users, blobs: blobs, bus: bus, log: log}
}

// FindOrCreateByPhone returns the account for a phone, creating a fresh
// citizen account with an incomplete profile for unseen numbers.
func (s *UserService) FindOrCreateByPhone(ctx context.Context, phone string) (*models.User, error) {
	user, err := s.users.FindByPhone(ctx, phone)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	user = &models.User{
		Phone:         phone,
		Role:          models.RoleCitizen,
		ProfileStatus: models.ProfileStatusIncomplete,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	s.log.Info("created account for new phone", zap.String("user_id", user.ID.String()))
	return user, nil
}

// VerifyPhone stamps the phone verification time.
func (s *UserService) VerifyPhone(ctx context.Context, user *models.User) error {
	now := time.Now()
	user.PhoneVerifiedAt = &now
	return s.users.Update(ctx, user)
}

// ProfileInput carries the profile fields a citizen fills in.
type ProfileInput struct {
	Name     string
	IDType   string
	City     string
	District string
	FcmToken string
}

// CompleteProfile stores the citizen's details and moves the profile to
// pending validation.
func (s *UserService) CompleteProfile(ctx context.Context, user *models.User, in ProfileInput) error {
	if in.Name == "" || in.City == "" || in.District == "" {
		return validationError("name, city and district are required")
	}

	user.Name = in.Name
	user.IDType = in.IDType
	user.City = in.City
	user.District = in.District
	if in.FcmToken != "" {
		user.FcmToken = in.FcmToken
	}
	user.ProfileStatus = models.ProfileStatusPendingValidation

	if err := s.users.Update(ctx, user); err != nil {
		return err
	}
	s.bus.Publish(events.UserProfileCompleted{User: user})
	return nil
}

// UpdateProfile changes mutable profile fields without touching the status.
func (s *UserService) UpdateProfile(ctx context.Context, user *models.User, in ProfileInput) error {
	if in.Name != "" {
		user.Name = in.Name
	}
	if in.IDType != "" {
		user.IDType = in.IDType
	}
	if in.City != "" {
		user.City = in.City
	}
	if in.District != "" {
		user.District = in.District
	}
	if in.FcmToken != "" {
		user.FcmToken = in.FcmToken
	}
	return s.users.Update(ctx, user)
}

// UploadDocument stores an identity document or profile picture and records
// its path on the user.
func (s *UserService) UploadDocument(ctx context.Context, user *models.User, kind string, data []byte, ext string) (string, error) {
	switch kind {
	case DocumentProfilePicture, DocumentIDCardFront, DocumentIDCardBack:
	default:
		return "", validationError("unknown document kind %q", kind)
	}

	dir := fmt.Sprintf("stopvol/%s/documents", user.ID)
	path, err := s.blobs.Save(data, dir, ext)
	if err != nil {
		return "", err
	}

	switch kind {
	case DocumentProfilePicture:
		user.ProfilePicture = path
	case DocumentIDCardFront:
		user.IDCardFront = path
	case DocumentIDCardBack:
		user.IDCardBack = path
	}

	if err := s.users.Update(ctx, user); err != nil {
		return "", err
	}
	return path, nil
}

// ValidateProfile is the administrative action approving a pending profile.
func (s *UserService) ValidateProfile(ctx context.Context, user *models.User) error {
	user.ProfileStatus = models.ProfileStatusValidated
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}
	s.log.Info("profile validated", zap.String("user_id", user.ID.String()))
	return nil
}
