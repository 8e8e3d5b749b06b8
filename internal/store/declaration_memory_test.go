package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/example/stopvol/internal/models"
)

func TestMemoryDeclarationStoreSearch(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryDeclarationStore()

	byPlate := &models.Declaration{
		UserID:      uuid.New(),
		PlateNumber: "AB-1234",
		Status:      models.StatusPending,
	}
	require.NoError(t, s.Create(ctx, byPlate))

	byChassis := &models.Declaration{
		UserID:        uuid.New(),
		ChassisNumber: "VF1ABCDE12345678",
		Status:        models.StatusPending,
	}
	require.NoError(t, s.Create(ctx, byChassis))

	byCard := &models.Declaration{
		UserID:     uuid.New(),
		CardNumber: "CG-99-88",
		Status:     models.StatusFound,
	}
	require.NoError(t, s.Create(ctx, byCard))

	results, err := s.SearchByIdentifier(ctx, "ab-12")
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, byPlate.ID, results[0].ID)

	results, err = s.SearchByIdentifier(ctx, "99-88")
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, byCard.ID, results[0].ID)

	results, err = s.SearchByPlate(ctx, "AB-1234")
	require.NoError(t, err)
	require.Len(t, results, 1)

	results, err = s.SearchByChassis(ctx, "vf1abcde")
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, byChassis.ID, results[0].ID)

	results, err = s.SearchByIdentifier(ctx, "NOPE")
	require.NoError(t, err)
	require.Empty(t, results)
}

func TestMemoryDeclarationStoreFindByUserNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryDeclarationStore()
	userID := uuid.New()

	old := &models.Declaration{UserID: userID, PlateNumber: "AA-1111", Status: models.StatusPending}
	old.CreatedAt = time.Now().Add(-time.Hour)
	require.NoError(t, s.Create(ctx, old))

	recent := &models.Declaration{UserID: userID, PlateNumber: "BB-2222", Status: models.StatusPending}
	require.NoError(t, s.Create(ctx, recent))

	other := &models.Declaration{UserID: uuid.New(), PlateNumber: "CC-3333", Status: models.StatusPending}
	require.NoError(t, s.Create(ctx, other))

	results, err := s.FindByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, "BB-2222", results[0].PlateNumber)
	require.Equal(t, "AA-1111", results[1].PlateNumber)
}

func TestMemoryDeclarationStoreListAndCounts(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryDeclarationStore()

	for i := 0; i < 5; i++ {
		d := &models.Declaration{UserID: uuid.New(), CardNumber: "CARD", Status: models.StatusPending}
		d.CreatedAt = time.Now().Add(-time.Duration(i) * time.Minute)
		require.NoError(t, s.Create(ctx, d))
	}
	found := &models.Declaration{UserID: uuid.New(), CardNumber: "CARD", Status: models.StatusFound}
	require.NoError(t, s.Create(ctx, found))

	page, err := s.List(ctx, 4, 0)
	require.NoError(t, err)
	require.Len(t, page, 4)

	page, err = s.List(ctx, 4, 4)
	require.NoError(t, err)
	require.Len(t, page, 2)

	page, err = s.List(ctx, 4, 10)
	require.NoError(t, err)
	require.Empty(t, page)

	pending, err := s.CountByStatus(ctx, models.StatusPending)
	require.NoError(t, err)
	require.EqualValues(t, 5, pending)

	foundCount, err := s.CountByStatus(ctx, models.StatusFound)
	require.NoError(t, err)
	require.EqualValues(t, 1, foundCount)
}

func TestMemoryDeclarationStoreClonesPictures(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryDeclarationStore()

	d := &models.Declaration{UserID: uuid.New(), PlateNumber: "AB-1234", Status: models.StatusPending}
	d.AddPicture("a.jpg")
	require.NoError(t, s.Create(ctx, d))

	d.Pictures[0] = "mutated.jpg"

	stored, err := s.FindByID(ctx, d.ID)
	require.NoError(t, err)
	require.Equal(t, []string{"a.jpg"}, stored.Pictures)
}
