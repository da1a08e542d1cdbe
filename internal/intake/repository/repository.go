// Package repository stores application records. The engine only depends on the
// Repository interface; Memory, Postgres and Cached are the shipped adapters.
package repository

import (
	"context"
	"errors"

	"loan-intake/internal/models"
)

// ErrNotFound is returned by FindByID when no record has the identifier.
var ErrNotFound = errors.New("application not found")

// Repository persists whole application records. Implementations must not retain or
// share the pointers they are given or return.
type Repository interface {
	FindByID(ctx context.Context, id string) (*models.Application, error)
	Upsert(ctx context.Context, app *models.Application) error
	LoadAll(ctx context.Context) ([]*models.Application, error)
}
