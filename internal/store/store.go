// Package store holds the GORM implementations of the service store
// interfaces. Anything documented as transactional on the interface is
// wrapped in db.Transaction here so a failed step leaves no partial
// state behind.
package store

import (
	"errors"
	"fmt"

	"incubation-service/internal/apperr"

	"gorm.io/gorm"
)

// Store implements every store interface in internal/service against
// one *gorm.DB.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// notFound maps gorm's record-not-found to the domain sentinel.
func notFound(err error, what string, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s %d", apperr.ErrNotFound, what, id)
	}
	return err
}
