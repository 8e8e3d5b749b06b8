package models

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	plateNumberMinLength = 2
	plateNumberMaxLength = 15
)

var plateNumberPattern = regexp.MustCompile(`^[A-Z0-9\- ]+$`)

// PlateNumber is a validated, case-normalized vehicle plate number.
// Construction trims whitespace and uppercases, so equality is insensitive to
// case and surrounding whitespace.
type PlateNumber struct {
	value string
}

// NewPlateNumber validates and normalizes a raw plate number.
func NewPlateNumber(raw string) (PlateNumber, error) {
	value := strings.ToUpper(strings.TrimSpace(raw))

	if value == "" {
		return PlateNumber{}, fmt.Errorf("plate number cannot be empty")
	}
	if len(value) < plateNumberMinLength {
		return PlateNumber{}, fmt.Errorf("plate number is too short")
	}
	if len(value) > plateNumberMaxLength {
		return PlateNumber{}, fmt.Errorf("plate number is too long")
	}
	if !plateNumberPattern.MatchString(value) {
		return PlateNumber{}, fmt.Errorf("plate number contains invalid characters")
	}

	return PlateNumber{value: value}, nil
}

// Value returns the normalized plate number.
func (p PlateNumber) Value() string {
	return p.value
}

func (p PlateNumber) String() string {
	return p.value
}

// Equals compares two plate numbers by normalized value.
func (p PlateNumber) Equals(other PlateNumber) bool {
	return p.value == other.value
}
