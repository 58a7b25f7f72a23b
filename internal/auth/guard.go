package auth

import (
	"context"
	"errors"

	"github.com/GoSim-25-26J-441/go-accounts-backend/internal/accounts/domain"
	"github.com/GoSim-25-26J-441/go-accounts-backend/internal/directory"
)

// Guard decides whether a caller may use the admin account operations.
// It returns domain.ErrForbidden when the caller is denied.
type Guard interface {
	Authorize(ctx context.Context, callerID string) error
}

// AdminGuard allows a caller only when the admin API is enabled and the
// caller is a known directory user flagged as admin.
type AdminGuard struct {
	users   directory.UserLookup
	enabled bool
}

func NewAdminGuard(users directory.UserLookup, enabled bool) *AdminGuard {
	return &AdminGuard{users: users, enabled: enabled}
}

func (g *AdminGuard) Authorize(ctx context.Context, callerID string) error {
	if !g.enabled || callerID == "" {
		return domain.ErrForbidden
	}

	user, err := g.users.LookupUser(ctx, callerID)
	if errors.Is(err, domain.ErrUserNotFound) {
		return domain.ErrForbidden
	}
	if err != nil {
		return err
	}
	if !user.IsAdmin {
		return domain.ErrForbidden
	}
	return nil
}

// AllowAll permits every caller. Use it only for development and tests.
type AllowAll struct{}

func (AllowAll) Authorize(context.Context, string) error { return nil }
