package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewPlateNumberNormalizes(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"AB-123", "AB-123"},
		{" ab-123 ", "AB-123"},
		{"11 bj 4567", "11 BJ 4567"},
		{"xy", "XY"},
	}

	for _, tc := range cases {
		plate, err := NewPlateNumber(tc.raw)
		require.NoError(t, err, "raw %q", tc.raw)
		require.Equal(t, tc.want, plate.Value())
	}
}

func TestNewPlateNumberRejectsInvalid(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"whitespace only", "   "},
		{"too short", "A"},
		{"too long", "ABCDEFGHIJ123456"},
		{"underscore", "AB_123"},
		{"accents", "ÀB-123"},
		{"punctuation", "AB.123!"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewPlateNumber(tc.raw)
			require.Error(t, err)
		})
	}
}

func TestPlateNumberEquals(t *testing.T) {
	a, err := NewPlateNumber("ab-123")
	require.NoError(t, err)
	b, err := NewPlateNumber(" AB-123 ")
	require.NoError(t, err)
	c, err := NewPlateNumber("CD-456")
	require.NoError(t, err)

	require.True(t, a.Equals(b))
	require.False(t, a.Equals(c))
	require.Equal(t, "AB-123", a.String())
}
