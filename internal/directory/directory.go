// Package directory defines the store of users and accounts consumed by the
// accounts service, together with an in-memory implementation.
package directory

import (
	"context"

	"github.com/GoSim-25-26J-441/go-accounts-backend/internal/accounts/domain"
)

// Directory holds users and accounts (projects). Implementations must apply
// each mutation atomically: concurrent readers see either the state before a
// mutation or after it, never a mix.
type Directory interface {
	AddUser(ctx context.Context, user domain.User) error
	LookupUser(ctx context.Context, id string) (*domain.User, error)
	// DeleteUser fails with domain.ErrManagerInUse while the user manages an account.
	DeleteUser(ctx context.Context, id string) error

	// CreateProject checks the manager before the id, so an unknown manager
	// yields domain.ErrBadManager even when the id is taken.
	CreateProject(ctx context.Context, id, manager, description string) (*domain.Account, error)
	GetProject(ctx context.Context, id string) (*domain.Account, error)
	// DeleteProject is a set removal; deleting an unknown id is not an error.
	DeleteProject(ctx context.Context, id string) error
	ModifyProject(ctx context.Context, id string, manager, description *string) (*domain.Account, error)
	ListProjects(ctx context.Context) ([]domain.Account, error)

	Ping(ctx context.Context) error
}

// UserLookup is the read side of a Directory needed for authorization.
type UserLookup interface {
	LookupUser(ctx context.Context, id string) (*domain.User, error)
}
