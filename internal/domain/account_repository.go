package domain

import (
	"context"

	"github.com/oklog/ulid/v2"
)

// AccountRepository defines the interface for account data access.
//
// Lookups return ErrAccountNotFound when nothing matches. Save is guarded by
// Account.Version: it fails with ErrConcurrentUpdate when the stored record
// changed since it was read, and bumps the version on success.
type AccountRepository interface {
	// Create stores a new account
	Create(ctx context.Context, account *Account) error

	// FindByID finds an account by ID
	FindByID(ctx context.Context, id ulid.ULID) (*Account, error)

	// FindByEmail finds an account by normalized email
	FindByEmail(ctx context.Context, email string) (*Account, error)

	// FindByPhone finds an account by canonical phone
	FindByPhone(ctx context.Context, phone string) (*Account, error)

	// FindByEmailOrUsernameOrPhone resolves an ambiguous login identifier.
	// Matches are preferred in the order email, username, phone.
	FindByEmailOrUsernameOrPhone(ctx context.Context, emailOrUsername, phone string) (*Account, error)

	// ExistsByAnyOf checks whether any account uses one of the identities
	ExistsByAnyOf(ctx context.Context, email, username, phone string) (bool, error)

	// Save replaces the stored account if its version still matches
	Save(ctx context.Context, account *Account) error
}
