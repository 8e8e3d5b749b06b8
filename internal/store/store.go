// Package store holds the persistence interfaces for the domain records and
// their GORM (postgres) and in-memory implementations. Services depend on the
// interfaces only; the in-memory variants back the unit tests.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/example/stopvol/internal/models"
)

// ErrNotFound is returned when a lookup matches no record.
var ErrNotFound = errors.New("record not found")

// OtpStore persists one-time codes.
type OtpStore interface {
	Create(ctx context.Context, code *models.OtpCode) error
	Update(ctx context.Context, code *models.OtpCode) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.OtpCode, error)
	// FindValidByPhone returns the newest unused, unexpired code for a phone.
	FindValidByPhone(ctx context.Context, phone string) (*models.OtpCode, error)
	FindLatestByPhone(ctx context.Context, phone string) (*models.OtpCode, error)
	// FindByPhoneAndCode returns the newest record matching both fields.
	FindByPhoneAndCode(ctx context.Context, phone, code string) (*models.OtpCode, error)
	// CountRecentByPhone counts codes created for a phone within the trailing
	// window, regardless of their used/expired state.
	CountRecentByPhone(ctx context.Context, phone string, window time.Duration) (int64, error)
	// ExpireActiveByPhone expires every unused, unexpired code for a phone.
	ExpireActiveByPhone(ctx context.Context, phone string) error
	// Consume atomically marks a code used. It reports false when the code was
	// already consumed, so two concurrent verifications cannot both win.
	Consume(ctx context.Context, id uuid.UUID) (bool, error)
	DeleteExpired(ctx context.Context) (int64, error)
	DeleteUsed(ctx context.Context) (int64, error)
}

// UserStore persists user accounts.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByPhone(ctx context.Context, phone string) (*models.User, error)
}

// DeclarationStore persists stolen-vehicle declarations.
type DeclarationStore interface {
	Create(ctx context.Context, declaration *models.Declaration) error
	Update(ctx context.Context, declaration *models.Declaration) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Declaration, error)
	// FindByUser returns a user's declarations, newest first.
	FindByUser(ctx context.Context, userID uuid.UUID) ([]models.Declaration, error)
	FindByStatus(ctx context.Context, status string) ([]models.Declaration, error)
	// SearchByIdentifier matches identifier as a case-insensitive substring of
	// the plate, chassis or card number, newest first.
	SearchByIdentifier(ctx context.Context, identifier string) ([]models.Declaration, error)
	SearchByPlate(ctx context.Context, plate string) ([]models.Declaration, error)
	SearchByChassis(ctx context.Context, chassis string) ([]models.Declaration, error)
	List(ctx context.Context, limit, offset int) ([]models.Declaration, error)
	CountByStatus(ctx context.Context, status string) (int64, error)
}

// NotificationStore persists owner notifications.
type NotificationStore interface {
	Create(ctx context.Context, notification *models.Notification) error
	Update(ctx context.Context, notification *models.Notification) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Notification, error)
	FindByDeclaration(ctx context.Context, declarationID uuid.UUID) ([]models.Notification, error)
	FindByAdmin(ctx context.Context, adminID uuid.UUID) ([]models.Notification, error)
	FindPending(ctx context.Context) ([]models.Notification, error)
	// FindPendingOlderThan returns pending notifications created at least age
	// ago; these are treated as presumptively failed.
	FindPendingOlderThan(ctx context.Context, age time.Duration) ([]models.Notification, error)
	// MarkSent stamps sent_at when it is still unset and reports whether the
	// stamp was applied.
	MarkSent(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	CountByChannel(ctx context.Context, channel string) (int64, error)
	CountPending(ctx context.Context) (int64, error)
}
