// Package auth provides account registration, credential checks and
// session tokens. A user's ID doubles as their member ID on trip rosters.
package auth

import (
	"context"

	"github.com/mmynk/tripledger/internal/models"
)

// Authenticator verifies credentials for an account.
type Authenticator interface {
	// Register creates an account. The credential format depends on the
	// implementation.
	Register(ctx context.Context, email, displayName, credential string) (*models.User, error)

	// Authenticate returns the account matching the credentials.
	Authenticate(ctx context.Context, email, credential string) (*models.User, error)

	// Lookup returns the account with the given ID, or ErrUnknownUser.
	Lookup(ctx context.Context, userID string) (*models.User, error)

	// ValidateCredential reports whether a credential is acceptable for registration.
	ValidateCredential(credential string) error
}
