package profiles

import (
	"errors"
	"io"
)

// ErrNotFound is returned for a profile name the store does not hold
var ErrNotFound = errors.New("profile does not exist")

// Store describes persistent storage for pin profiles
type Store interface {
	Profile(name string) (Profile, error)
	ListProfiles() ([]string, error)
	PutProfile(name string, p Profile) error
	DeleteProfile(name string) error

	// DefaultProfile names the profile applied at connect, "" when unset
	DefaultProfile() (string, error)
	PutDefaultProfile(name string) error

	io.Closer
}
