package models

import (
	"time"

	"github.com/google/uuid"
)

// User roles.
const (
	RoleCitizen     = "citizen"
	RoleEntityAdmin = "entity_admin"
)

// Profile statuses. A profile starts incomplete, moves to pending_validation
// once the citizen has filled it in, and is switched to validated by an
// entity admin.
const (
	ProfileStatusIncomplete        = "incomplete"
	ProfileStatusPendingValidation = "pending_validation"
	ProfileStatusValidated         = "validated"
)

// User is an account identified by phone number. Citizens declare stolen
// vehicles; entity admins (police/gendarmerie staff) manage declarations.
type User struct {
	BaseModel
	Phone           string     `gorm:"uniqueIndex" json:"phone"`
	Name            string     `json:"name"`
	Role            string     `gorm:"default:citizen" json:"role"`
	EntityID        *uuid.UUID `gorm:"type:uuid" json:"entity_id"`
	ProfilePicture  string     `json:"profile_picture"`
	IDCardFront     string     `json:"id_card_front"`
	IDCardBack      string     `json:"id_card_back"`
	IDType          string     `json:"id_type"`
	City            string     `json:"city"`
	District        string     `json:"district"`
	ProfileStatus   string     `gorm:"default:incomplete" json:"profile_status"`
	FcmToken        string     `json:"-"`
	PhoneVerifiedAt *time.Time `json:"phone_verified_at"`
}

// IsProfileComplete reports whether every field required for validation is
// filled in.
func (u *User) IsProfileComplete() bool {
	return u.Name != "" &&
		u.ProfilePicture != "" &&
		u.IDCardFront != "" &&
		u.City != "" &&
		u.District != ""
}

// IsProfileValidated reports whether an admin has approved the profile.
func (u *User) IsProfileValidated() bool {
	return u.ProfileStatus == ProfileStatusValidated
}

// CanCreateDeclaration is true only for users with a validated profile.
func (u *User) CanCreateDeclaration() bool {
	return u.IsProfileValidated()
}

// IsAdmin reports whether the user belongs to a police/gendarmerie entity.
func (u *User) IsAdmin() bool {
	return u.Role == RoleEntityAdmin
}

// IsCitizen reports whether the user is a regular citizen account.
func (u *User) IsCitizen() bool {
	return u.Role == RoleCitizen
}
