// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/serhq/estimator/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Store defines the interface for estimate and account persistence.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
type Store interface {
	// SaveEstimate persists an estimate and its line items, replacing any
	// previous version. A missing ID or CreatedAt is populated by the store.
	SaveEstimate(ctx context.Context, estimate *models.Estimate) error

	// GetEstimate retrieves an estimate by ID, including all line items.
	// Returns ErrNotFound if it does not exist.
	GetEstimate(ctx context.Context, id string) (*models.Estimate, error)

	// ListEstimates returns all estimates, newest first, without line items.
	ListEstimates(ctx context.Context) ([]*models.Estimate, error)

	// DeleteEstimate removes an estimate and its line items.
	DeleteEstimate(ctx context.Context, id string) error

	// CreateUser inserts a new user account.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail retrieves a user by email. Returns nil, nil when no
	// such user exists.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByID retrieves a user by ID. Returns nil, nil when no such
	// user exists.
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// Close releases any resources held by the store.
	Close() error
}

// KV is a durable key to string-value map. The session gate reads its flags
// through this interface at point-of-use and writes whole values back;
// last-writer-wins is acceptable in the single-threaded event model.
//
// Two independently-lived scopes exist: a persistent scope that survives
// restarts (SQLite-backed) and a session scope cleared when the process
// ends (memory-backed).
type KV interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores value under key, overwriting any previous value.
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
