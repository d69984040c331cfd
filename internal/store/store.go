// Package store persists customer ledger records. Stores only look at the id,
// name and version of a record; the ledger itself is an opaque document.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/bartab/backend/internal/models"
)

var errClosed = errors.New("store is closed")

var (
	ErrNotFound           = errors.New("customer not found")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrVersionConflict    = errors.New("customer was modified concurrently")
)

// CustomerStore is durable keyed storage for customer records.
type CustomerStore interface {
	// Put upserts rec. If a record with the same id is stored with a different
	// version, Put fails with ErrVersionConflict. On success rec.Version is
	// incremented and rec.UpdatedAt is set.
	Put(ctx context.Context, rec *models.CustomerRecord) error

	// GetAll returns every record in no particular order.
	GetAll(ctx context.Context) ([]models.CustomerRecord, error)

	GetByID(ctx context.Context, id string) (*models.CustomerRecord, error)

	// Delete removes one record. Deleting a missing id is not an error.
	Delete(ctx context.Context, id string) error

	ClearAll(ctx context.Context) error

	Close() error
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, ErrStorageUnavailable, err)
}
