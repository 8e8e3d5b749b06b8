package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/stopvol/internal/models"
)

// MemoryDeclarationStore is an in-memory DeclarationStore used by tests.
type MemoryDeclarationStore struct {
	mu           sync.Mutex
	declarations map[uuid.UUID]*models.Declaration
}

// NewMemoryDeclarationStore creates an empty MemoryDeclarationStore.
func NewMemoryDeclarationStore() *MemoryDeclarationStore {
	return &MemoryDeclarationStore{declarations: make(map[uuid.UUID]*models.Declaration)}
}

func (s *MemoryDeclarationStore) Create(ctx context.Context, declaration *models.Declaration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if declaration.ID == uuid.Nil {
		declaration.ID = uuid.New()
	}
	if declaration.CreatedAt.IsZero() {
		declaration.CreatedAt = time.Now()
	}
	declaration.UpdatedAt = time.Now()

	clone := cloneDeclaration(declaration)
	s.declarations[declaration.ID] = clone
	return nil
}

func (s *MemoryDeclarationStore) Update(ctx context.Context, declaration *models.Declaration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.declarations[declaration.ID]; !ok {
		return ErrNotFound
	}
	declaration.UpdatedAt = time.Now()
	s.declarations[declaration.ID] = cloneDeclaration(declaration)
	return nil
}

func (s *MemoryDeclarationStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Declaration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	declaration, ok := s.declarations[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneDeclaration(declaration), nil
}

func (s *MemoryDeclarationStore) FindByUser(ctx context.Context, userID uuid.UUID) ([]models.Declaration, error) {
	return s.filter(func(d *models.Declaration) bool {
		return d.UserID == userID
	}), nil
}

func (s *MemoryDeclarationStore) FindByStatus(ctx context.Context, status string) ([]models.Declaration, error) {
	return s.filter(func(d *models.Declaration) bool {
		return d.Status == status
	}), nil
}

func (s *MemoryDeclarationStore) SearchByIdentifier(ctx context.Context, identifier string) ([]models.Declaration, error) {
	needle := strings.ToUpper(identifier)
	return s.filter(func(d *models.Declaration) bool {
		return containsFold(d.PlateNumber, needle) ||
			containsFold(d.ChassisNumber, needle) ||
			containsFold(d.CardNumber, needle)
	}), nil
}

func (s *MemoryDeclarationStore) SearchByPlate(ctx context.Context, plate string) ([]models.Declaration, error) {
	needle := strings.ToUpper(plate)
	return s.filter(func(d *models.Declaration) bool {
		return containsFold(d.PlateNumber, needle)
	}), nil
}

func (s *MemoryDeclarationStore) SearchByChassis(ctx context.Context, chassis string) ([]models.Declaration, error) {
	needle := strings.ToUpper(chassis)
	return s.filter(func(d *models.Declaration) bool {
		return containsFold(d.ChassisNumber, needle)
	}), nil
}

func (s *MemoryDeclarationStore) List(ctx context.Context, limit, offset int) ([]models.Declaration, error) {
	all := s.filter(func(*models.Declaration) bool { return true })
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (s *MemoryDeclarationStore) CountByStatus(ctx context.Context, status string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	for _, d := range s.declarations {
		if d.Status == status {
			count++
		}
	}
	return count, nil
}

// filter returns clones of matching declarations, newest first.
func (s *MemoryDeclarationStore) filter(match func(*models.Declaration) bool) []models.Declaration {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matches []models.Declaration
	for _, d := range s.declarations {
		if match(d) {
			matches = append(matches, *cloneDeclaration(d))
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	return matches
}

func cloneDeclaration(d *models.Declaration) *models.Declaration {
	clone := *d
	clone.Pictures = append([]string(nil), d.Pictures...)
	return &clone
}

func containsFold(haystack, upperNeedle string) bool {
	return strings.Contains(strings.ToUpper(haystack), upperNeedle)
}
