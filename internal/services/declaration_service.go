package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/stopvol/internal/blob"
	"github.com/example/stopvol/internal/events"
	"github.com/example/stopvol/internal/metrics"
	"github.com/example/stopvol/internal/models"
	"github.com/example/stopvol/internal/store"
)

const theftDateLayout = "2006-01-02"

// PictureUpload is a picture file attached to a declaration.
type PictureUpload struct {
	Data []byte
	Ext  string
}

// CreateDeclarationInput carries the fields of a new declaration.
type CreateDeclarationInput struct {
	PlateNumber   string
	ChassisNumber string
	CardNumber    string
	Brand         string
	Model         string
	Color         string
	TheftDate     string
	TheftLocation string
	Pictures      []PictureUpload
}

// DeclarationService enforces creation preconditions, manages status
// transitions and owns identifier search semantics.
type DeclarationService struct {
	declarations store.DeclarationStore
	blobs        blob.Store
	bus          *events.Bus
	log          *zap.Logger
}

// NewDeclarationService constructs a DeclarationService.
func NewDeclarationService(declarations store.DeclarationStore, blobs blob.Store, bus *events.Bus, log *zap.Logger) *DeclarationService {
	return &DeclarationService{declarations: declarations, blobs: blobs, bus: bus, log: log}
}

// Create files a declaration for a user with a validated profile. At least
// one vehicle identifier is required, the plate number must satisfy the
// format contract, and the theft date cannot lie in the future. Pictures are
// stored before the record is persisted with status pending.
func (s *DeclarationService) Create(ctx context.Context, user *models.User, in CreateDeclarationInput) (*models.Declaration, error) {
	if !user.CanCreateDeclaration() {
		return nil, fmt.Errorf("%w: user profile must be validated to create a declaration", ErrPermissionDenied)
	}

	declaration := &models.Declaration{
		UserID:        user.ID,
		ChassisNumber: strings.ToUpper(strings.TrimSpace(in.ChassisNumber)),
		CardNumber:    strings.ToUpper(strings.TrimSpace(in.CardNumber)),
		Brand:         in.Brand,
		Model:         in.Model,
		Color:         in.Color,
		TheftLocation: in.TheftLocation,
		Status:        models.StatusPending,
	}

	if strings.TrimSpace(in.PlateNumber) != "" {
		plate, err := models.NewPlateNumber(in.PlateNumber)
		if err != nil {
			return nil, validationError("invalid plate number format: %v", err)
		}
		declaration.PlateNumber = plate.Value()
	}

	if declaration.PlateNumber == "" && declaration.ChassisNumber == "" && declaration.CardNumber == "" {
		return nil, validationError("at least one identifier (plate number, chassis number, or card number) is required")
	}

	theftDate, err := time.Parse(theftDateLayout, in.TheftDate)
	if err != nil {
		return nil, validationError("invalid theft date format")
	}
	if theftDate.After(endOfToday()) {
		return nil, validationError("theft date cannot be in the future")
	}
	declaration.TheftDate = theftDate

	dir := fmt.Sprintf("stopvol/%s/declarations", user.ID)
	for _, picture := range in.Pictures {
		path, err := s.blobs.Save(picture.Data, dir, picture.Ext)
		if err != nil {
			return nil, err
		}
		declaration.AddPicture(path)
	}

	if err := s.declarations.Create(ctx, declaration); err != nil {
		return nil, err
	}
	metrics.DeclarationsCreated.Inc()

	s.bus.Publish(events.DeclarationCreated{Declaration: declaration})
	return declaration, nil
}

// Get fetches a declaration by ID.
func (s *DeclarationService) Get(ctx context.Context, id uuid.UUID) (*models.Declaration, error) {
	declaration, err := s.declarations.FindByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: declaration %s", ErrNotFound, id)
	}
	return declaration, err
}

// UpdateStatus applies an admin-initiated status change. Any declared status
// may follow any other; found and closed run through their dedicated hooks.
func (s *DeclarationService) UpdateStatus(ctx context.Context, declaration *models.Declaration, status string) error {
	if !models.IsValidDeclarationStatus(status) {
		return validationError("invalid status: %s", status)
	}

	switch status {
	case models.StatusFound:
		declaration.MarkAsFound()
	case models.StatusClosed:
		declaration.MarkAsClosed()
	default:
		declaration.Status = status
	}

	if err := s.declarations.Update(ctx, declaration); err != nil {
		return err
	}
	s.log.Info("declaration status updated",
		zap.String("declaration_id", declaration.ID.String()),
		zap.String("status", status))
	return nil
}

// SearchByIdentifier matches an identifier as a case-insensitive substring of
// any vehicle identifier field, newest first.
func (s *DeclarationService) SearchByIdentifier(ctx context.Context, identifier string) ([]models.Declaration, error) {
	identifier = strings.ToUpper(strings.TrimSpace(identifier))
	if identifier == "" {
		return nil, validationError("search identifier cannot be empty")
	}
	return s.declarations.SearchByIdentifier(ctx, identifier)
}

// SearchByPlate scopes the identifier search to plate numbers.
func (s *DeclarationService) SearchByPlate(ctx context.Context, plateNumber string) ([]models.Declaration, error) {
	plate, err := models.NewPlateNumber(plateNumber)
	if err != nil {
		return nil, validationError("invalid plate number format: %v", err)
	}
	return s.declarations.SearchByPlate(ctx, plate.Value())
}

// SearchByChassis scopes the identifier search to chassis numbers.
func (s *DeclarationService) SearchByChassis(ctx context.Context, chassisNumber string) ([]models.Declaration, error) {
	chassisNumber = strings.ToUpper(strings.TrimSpace(chassisNumber))
	if chassisNumber == "" {
		return nil, validationError("chassis number cannot be empty")
	}
	return s.declarations.SearchByChassis(ctx, chassisNumber)
}

// UserDeclarations lists a user's declarations, newest first.
func (s *DeclarationService) UserDeclarations(ctx context.Context, userID uuid.UUID) ([]models.Declaration, error) {
	return s.declarations.FindByUser(ctx, userID)
}

// PendingDeclarations lists open, unresolved declarations.
func (s *DeclarationService) PendingDeclarations(ctx context.Context) ([]models.Declaration, error) {
	return s.declarations.FindByStatus(ctx, models.StatusPending)
}

// FoundDeclarations lists declarations of recovered vehicles.
func (s *DeclarationService) FoundDeclarations(ctx context.Context) ([]models.Declaration, error) {
	return s.declarations.FindByStatus(ctx, models.StatusFound)
}

// AddPicture stores a picture under the declaration's directory and appends
// its path.
func (s *DeclarationService) AddPicture(ctx context.Context, declaration *models.Declaration, picture PictureUpload) error {
	dir := fmt.Sprintf("stopvol/%s/declarations/%s", declaration.UserID, declaration.ID)
	path, err := s.blobs.Save(picture.Data, dir, picture.Ext)
	if err != nil {
		return err
	}
	declaration.AddPicture(path)
	return s.declarations.Update(ctx, declaration)
}

// RemovePicture drops a picture path and deletes the underlying blob.
// Removing a path that is absent from storage is a no-op.
func (s *DeclarationService) RemovePicture(ctx context.Context, declaration *models.Declaration, path string) error {
	if s.blobs.Exists(path) {
		if err := s.blobs.Delete(path); err != nil {
			return err
		}
	}
	declaration.RemovePicture(path)
	return s.declarations.Update(ctx, declaration)
}

// PictureURLs resolves the declaration's picture paths to public URLs.
func (s *DeclarationService) PictureURLs(declaration *models.Declaration) []string {
	urls := make([]string, 0, len(declaration.Pictures))
	for _, path := range declaration.Pictures {
		urls = append(urls, s.blobs.URL(path))
	}
	return urls
}

// endOfToday returns the last instant of the current day, so a theft date of
// today still passes validation.
func endOfToday() time.Time {
	now := time.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, 0, now.Location())
}
