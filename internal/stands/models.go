package stands

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// DefaultRadiusMeters is used for stands that do not carry their own radius
const DefaultRadiusMeters = 40.0

// Stand types
const (
	TypeContact = "contact"
	TypeRemote  = "remote"
)

// ErrInvalidStand is returned by Validate for unusable stand entries
var ErrInvalidStand = errors.New("invalid stand")

// Stand is a named parking position at an airport
type Stand struct {
	Name   string  `json:"name"`
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	Radius float64 `json:"radius"` // meters, 0 means the directory default
	Type   string  `json:"type"`   // contact or remote
}

// Store persists the per-airport stand lists
type Store interface {
	Load(ctx context.Context) (map[string][]Stand, error)
	Save(ctx context.Context, icao string, stands []Stand) error
}

// Normalize upper-cases the airport code used as a map key
func Normalize(icao string) string {
	return strings.ToUpper(strings.TrimSpace(icao))
}

// Validate checks a stand list before it is stored. Empty types become contact.
func Validate(list []Stand) error {
	seen := make(map[string]bool, len(list))
	for i := range list {
		s := &list[i]
		s.Name = strings.TrimSpace(s.Name)
		if s.Name == "" {
			return fmt.Errorf("%w: entry %d has no name", ErrInvalidStand, i)
		}
		if seen[s.Name] {
			return fmt.Errorf("%w: duplicate name %q", ErrInvalidStand, s.Name)
		}
		seen[s.Name] = true

		if s.Lat < -90 || s.Lat > 90 || s.Lon < -180 || s.Lon > 180 {
			return fmt.Errorf("%w: %s has coordinates out of range", ErrInvalidStand, s.Name)
		}
		if s.Radius < 0 {
			return fmt.Errorf("%w: %s has negative radius", ErrInvalidStand, s.Name)
		}

		switch strings.ToLower(s.Type) {
		case "":
			s.Type = TypeContact
		case TypeContact, TypeRemote:
			s.Type = strings.ToLower(s.Type)
		default:
			return fmt.Errorf("%w: %s has unknown type %q", ErrInvalidStand, s.Name, s.Type)
		}
	}
	return nil
}
