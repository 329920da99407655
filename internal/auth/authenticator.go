package auth

import (
	"context"

	"github.com/serhq/estimator/internal/models"
)

// Authenticator defines the interface for authentication implementations.
// This abstraction allows swapping between different auth methods (password,
// magic links, OAuth, etc.) without changing the handler code.
type Authenticator interface {
	// Register creates a new account with the given email and credential.
	// The display name seeds the business name on a fresh profile.
	// Returns the created user or an error if registration fails.
	Register(ctx context.Context, email, displayName, credential string) (*models.User, error)

	// Authenticate verifies the user's credentials and returns the user if
	// successful. Returns an error if authentication fails.
	Authenticate(ctx context.Context, email, credential string) (*models.User, error)

	// ValidateCredential checks if the credential meets the implementation's
	// requirements (length, format, etc.).
	ValidateCredential(credential string) error
}
