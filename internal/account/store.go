// Package account implements the account workflow: registration with
// email OTP verification, login, password reset/update and profile
// management. All durable state lives behind the Store interface.
package account

import (
	"context"
	"strings"

	"userhub/account-api/model"
)

// Store is the single source of truth for account records. FindByEmail
// and FindByID return ErrNotFound when no record matches. Callers pass
// emails through NormalizeEmail before hitting the store.
type Store interface {
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id string) (*model.User, error)
	Create(ctx context.Context, u *model.User) error
	Save(ctx context.Context, u *model.User) error
}

// NormalizeEmail lowercases and trims an address so that lookups are
// case-insensitive across the whole application
func NormalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}
