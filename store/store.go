package store

import (
	"errors"

	"gorm.io/gorm"
)

// Sentinel errors returned by every repository in this package. Controllers
// map these onto HTTP statuses; anything else is treated as a transient
// store failure.
var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("uniqueness conflict")
)

// classify translates gorm errors into the package sentinels. Relies on
// gorm's TranslateError being enabled on the session so driver-specific
// duplicate-key errors arrive as gorm.ErrDuplicatedKey.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrConflict
	default:
		return err
	}
}
