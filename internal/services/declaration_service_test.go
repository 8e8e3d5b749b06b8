package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/example/stopvol/internal/blob"
	"github.com/example/stopvol/internal/events"
	"github.com/example/stopvol/internal/models"
	"github.com/example/stopvol/internal/store"
)

func newDeclarationFixture() (*DeclarationService, *store.MemoryDeclarationStore, *blob.MemoryStore, *events.Bus) {
	declarations := store.NewMemoryDeclarationStore()
	blobs := blob.NewMemoryStore()
	bus := events.NewBus()
	return NewDeclarationService(declarations, blobs, bus, zap.NewNop()), declarations, blobs, bus
}

func validatedUser() *models.User {
	user := &models.User{
		Phone:         "+22670123456",
		Name:          "Aminata Ouedraogo",
		Role:          models.RoleCitizen,
		City:          "Ouagadougou",
		District:      "Gounghin",
		ProfileStatus: models.ProfileStatusValidated,
	}
	user.ID = uuid.New()
	return user
}

func yesterday() string {
	return time.Now().AddDate(0, 0, -1).Format("2006-01-02")
}

func TestCreateDeclaration(t *testing.T) {
	ctx := context.Background()
	svc, _, blobs, bus := newDeclarationFixture()
	user := validatedUser()

	var created []any
	bus.Subscribe(func(event any) {
		if _, ok := event.(events.DeclarationCreated); ok {
			created = append(created, event)
		}
	})

	declaration, err := svc.Create(ctx, user, CreateDeclarationInput{
		PlateNumber:   " ab-1234 ",
		Brand:         "Yamaha",
		Model:         "Crypton",
		Color:         "rouge",
		TheftDate:     yesterday(),
		TheftLocation: "Marché de Gounghin",
		Pictures: []PictureUpload{
			{Data: []byte("jpegdata"), Ext: "jpg"},
			{Data: []byte("pngdata"), Ext: "png"},
		},
	})
	require.NoError(t, err)

	require.Equal(t, "AB-1234", declaration.PlateNumber)
	require.Equal(t, models.StatusPending, declaration.Status)
	require.Len(t, declaration.Pictures, 2)
	require.Equal(t, 2, blobs.Len())
	require.Len(t, created, 1)
}

func TestCreateDeclarationRequiresValidatedProfile(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newDeclarationFixture()

	user := validatedUser()
	user.ProfileStatus = models.ProfileStatusPendingValidation

	_, err := svc.Create(ctx, user, CreateDeclarationInput{
		PlateNumber: "AB-1234",
		TheftDate:   yesterday(),
	})
	require.ErrorIs(t, err, ErrPermissionDenied)
}

func TestCreateDeclarationRequiresIdentifier(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newDeclarationFixture()

	_, err := svc.Create(ctx, validatedUser(), CreateDeclarationInput{
		Brand:     "Yamaha",
		TheftDate: yesterday(),
	})
	require.ErrorIs(t, err, ErrValidation)
}

func TestCreateDeclarationCardNumberOnly(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newDeclarationFixture()

	declaration, err := svc.Create(ctx, validatedUser(), CreateDeclarationInput{
		CardNumber: "cg-55-66",
		TheftDate:  yesterday(),
	})
	require.NoError(t, err)
	require.Equal(t, "CG-55-66", declaration.CardNumber)
	require.False(t, declaration.HasPlateNumber())
}

func TestCreateDeclarationDateValidation(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newDeclarationFixture()
	user := validatedUser()

	_, err := svc.Create(ctx, user, CreateDeclarationInput{
		PlateNumber: "AB-1234",
		TheftDate:   "not-a-date",
	})
	require.ErrorIs(t, err, ErrValidation)

	tomorrow := time.Now().AddDate(0, 0, 1).Format("2006-01-02")
	_, err = svc.Create(ctx, user, CreateDeclarationInput{
		PlateNumber: "AB-1234",
		TheftDate:   tomorrow,
	})
	require.ErrorIs(t, err, ErrValidation)

	// A theft reported the day it happened is accepted.
	today := time.Now().Format("2006-01-02")
	_, err = svc.Create(ctx, user, CreateDeclarationInput{
		PlateNumber: "AB-1234",
		TheftDate:   today,
	})
	require.NoError(t, err)
}

func TestCreateDeclarationInvalidPlate(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newDeclarationFixture()

	_, err := svc.Create(ctx, validatedUser(), CreateDeclarationInput{
		PlateNumber: "AB_1234!",
		TheftDate:   yesterday(),
	})
	require.ErrorIs(t, err, ErrValidation)
}

func TestUpdateStatus(t *testing.T) {
	ctx := context.Background()
	svc, declarations, _, _ := newDeclarationFixture()

	declaration, err := svc.Create(ctx, validatedUser(), CreateDeclarationInput{
		PlateNumber: "AB-1234",
		TheftDate:   yesterday(),
	})
	require.NoError(t, err)

	require.NoError(t, svc.UpdateStatus(ctx, declaration, models.StatusFound))
	require.True(t, declaration.IsFound())

	stored, err := declarations.FindByID(ctx, declaration.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusFound, stored.Status)

	require.NoError(t, svc.UpdateStatus(ctx, declaration, models.StatusClosed))
	require.True(t, declaration.IsClosed())

	// Reopening a closed declaration is allowed.
	require.NoError(t, svc.UpdateStatus(ctx, declaration, models.StatusPending))
	require.True(t, declaration.IsPending())

	require.ErrorIs(t, svc.UpdateStatus(ctx, declaration, "stolen"), ErrValidation)
}

func TestSearchByIdentifier(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newDeclarationFixture()
	user := validatedUser()

	_, err := svc.Create(ctx, user, CreateDeclarationInput{
		PlateNumber: "AB-1234",
		TheftDate:   yesterday(),
	})
	require.NoError(t, err)

	_, err = svc.Create(ctx, user, CreateDeclarationInput{
		ChassisNumber: "vf1abcde12345678",
		TheftDate:     yesterday(),
	})
	require.NoError(t, err)

	results, err := svc.SearchByIdentifier(ctx, "ab-12")
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "AB-1234", results[0].PlateNumber)

	results, err = svc.SearchByIdentifier(ctx, "abcde123")
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "VF1ABCDE12345678", results[0].ChassisNumber)

	results, err = svc.SearchByPlate(ctx, "ab-1234")
	require.NoError(t, err)
	require.Len(t, results, 1)

	results, err = svc.SearchByChassis(ctx, "VF1ABCDE")
	require.NoError(t, err)
	require.Len(t, results, 1)

	_, err = svc.SearchByIdentifier(ctx, "   ")
	require.ErrorIs(t, err, ErrValidation)
}

func TestDeclarationPictures(t *testing.T) {
	ctx := context.Background()
	svc, _, blobs, _ := newDeclarationFixture()

	declaration, err := svc.Create(ctx, validatedUser(), CreateDeclarationInput{
		PlateNumber: "AB-1234",
		TheftDate:   yesterday(),
		Pictures:    []PictureUpload{{Data: []byte("one"), Ext: "jpg"}},
	})
	require.NoError(t, err)

	require.NoError(t, svc.AddPicture(ctx, declaration, PictureUpload{Data: []byte("two"), Ext: "jpg"}))
	require.Len(t, declaration.Pictures, 2)
	require.Equal(t, 2, blobs.Len())

	urls := svc.PictureURLs(declaration)
	require.Len(t, urls, 2)

	removed := declaration.Pictures[0]
	require.NoError(t, svc.RemovePicture(ctx, declaration, removed))
	require.Len(t, declaration.Pictures, 1)
	require.Equal(t, 1, blobs.Len())
	require.False(t, blobs.Exists(removed))

	// Removing a path that was never stored is a no-op.
	require.NoError(t, svc.RemovePicture(ctx, declaration, "ghost.jpg"))
}

func TestGetDeclarationNotFound(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newDeclarationFixture()

	_, err := svc.Get(ctx, uuid.New())
	require.ErrorIs(t, err, ErrNotFound)
}
