package models

import (
	"time"

	"github.com/google/uuid"
)

// Declaration statuses. New declarations start pending; admins move them to
// found or closed. Transitions are not ordered: an admin may move a
// declaration between any two statuses.
const (
	StatusPending = "pending"
	StatusFound   = "found"
	StatusClosed  = "closed"
)

// DeclarationStatuses lists every valid declaration status.
var DeclarationStatuses = []string{StatusPending, StatusFound, StatusClosed}

// IsValidDeclarationStatus reports whether status is one of the declared
// statuses.
func IsValidDeclarationStatus(status string) bool {
	for _, s := range DeclarationStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// Declaration is a citizen's report of a stolen vehicle. At least one of
// PlateNumber, ChassisNumber or CardNumber is set.
type Declaration struct {
	BaseModel
	UserID        uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	User          *User     `json:"user,omitempty"`
	PlateNumber   string    `gorm:"index" json:"plate_number"`
	ChassisNumber string    `gorm:"index" json:"chassis_number"`
	CardNumber    string    `gorm:"index" json:"card_number"`
	Brand         string    `json:"brand"`
	Model         string    `json:"model"`
	Color         string    `json:"color"`
	Pictures      []string  `gorm:"serializer:json" json:"pictures"`
	TheftDate     time.Time `json:"theft_date"`
	TheftLocation string    `json:"theft_location"`
	Status        string    `gorm:"index;default:pending" json:"status"`
}

// IsPending reports whether the declaration is still open and unresolved.
func (d *Declaration) IsPending() bool { return d.Status == StatusPending }

// IsFound reports whether the vehicle has been recovered.
func (d *Declaration) IsFound() bool { return d.Status == StatusFound }

// IsClosed reports whether the case has been closed.
func (d *Declaration) IsClosed() bool { return d.Status == StatusClosed }

// MarkAsFound flags the vehicle as recovered.
func (d *Declaration) MarkAsFound() { d.Status = StatusFound }

// MarkAsClosed closes the case.
func (d *Declaration) MarkAsClosed() { d.Status = StatusClosed }

// HasPlateNumber reports whether a plate number was declared.
func (d *Declaration) HasPlateNumber() bool { return d.PlateNumber != "" }

// HasChassisNumber reports whether a chassis number was declared.
func (d *Declaration) HasChassisNumber() bool { return d.ChassisNumber != "" }

// SearchableIdentifiers returns the non-empty vehicle identifiers keyed by
// field name.
func (d *Declaration) SearchableIdentifiers() map[string]string {
	identifiers := make(map[string]string)
	if d.PlateNumber != "" {
		identifiers["plate_number"] = d.PlateNumber
	}
	if d.ChassisNumber != "" {
		identifiers["chassis_number"] = d.ChassisNumber
	}
	if d.CardNumber != "" {
		identifiers["card_number"] = d.CardNumber
	}
	return identifiers
}

// DefaultIdentifier picks the identifier used when addressing the owner in a
// notification message.
func (d *Declaration) DefaultIdentifier() string {
	switch {
	case d.PlateNumber != "":
		return d.PlateNumber
	case d.ChassisNumber != "":
		return d.ChassisNumber
	default:
		return "votre véhicule"
	}
}

// AddPicture appends a storage path to the ordered picture list.
func (d *Declaration) AddPicture(path string) {
	d.Pictures = append(d.Pictures, path)
}

// RemovePicture drops a storage path from the picture list. Removing a path
// that is not present is a no-op.
func (d *Declaration) RemovePicture(path string) {
	pictures := d.Pictures[:0]
	for _, p := range d.Pictures {
		if p != path {
			pictures = append(pictures, p)
		}
	}
	d.Pictures = pictures
}
