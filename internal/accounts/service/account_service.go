package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/GoSim-25-26J-441/go-accounts-backend/internal/accounts/domain"
	"github.com/GoSim-25-26J-441/go-accounts-backend/internal/auth"
	"github.com/GoSim-25-26J-441/go-accounts-backend/internal/directory"
	"github.com/GoSim-25-26J-441/go-accounts-backend/internal/logging"
)

// AccountService is the admin account controller. Every operation is checked
// by the guard before the directory is touched; directory errors are returned
// as-is without retries.
type AccountService struct {
	dir   directory.Directory
	guard auth.Guard
	log   *zap.Logger
}

// NewAccountService creates a new account service
func NewAccountService(dir directory.Directory, guard auth.Guard, log *zap.Logger) *AccountService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AccountService{
		dir:   dir,
		guard: guard,
		log:   log,
	}
}

// Get returns the account with the given id.
func (s *AccountService) Get(ctx context.Context, caller, id string) (*domain.Account, error) {
	if err := s.authorize(ctx, caller, id); err != nil {
		return nil, err
	}
	return s.dir.GetProject(ctx, id)
}

// Delete removes the account. Deleting an unknown id succeeds.
func (s *AccountService) Delete(ctx context.Context, caller, id string) error {
	if err := s.authorize(ctx, caller, id); err != nil {
		return err
	}
	if err := s.dir.DeleteProject(ctx, id); err != nil {
		return err
	}

	logging.For(ctx, s.log).Info("account deleted", zap.String("account_id", id), zap.String("caller", caller))
	return nil
}

// Create creates a new account named after its id.
func (s *AccountService) Create(ctx context.Context, caller, id string, req *domain.CreateAccountRequest) (*domain.Account, error) {
	if err := s.authorize(ctx, caller, id); err != nil {
		return nil, err
	}
	return s.create(ctx, caller, id, req.Manager, req.Description)
}

// Update changes the description and/or manager of an existing account.
func (s *AccountService) Update(ctx context.Context, caller, id string, req *domain.UpdateAccountRequest) (*domain.Account, error) {
	if err := s.authorize(ctx, caller, id); err != nil {
		return nil, err
	}
	return s.update(ctx, caller, id, req.Manager, req.Description)
}

// Upsert creates the account when id is free and updates it otherwise. The
// branch is picked by a directory lookup; created reports which one ran.
func (s *AccountService) Upsert(ctx context.Context, caller, id string, req *domain.UpsertAccountRequest) (acct *domain.Account, created bool, err error) {
	if err := s.authorize(ctx, caller, id); err != nil {
		return nil, false, err
	}

	_, err = s.dir.GetProject(ctx, id)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		var manager string
		if req.Manager != nil {
			manager = *req.Manager
		}
		acct, err = s.create(ctx, caller, id, manager, req.Description)
		return acct, err == nil, err
	case err != nil:
		return nil, false, err
	}

	acct, err = s.update(ctx, caller, id, req.Manager, req.Description)
	return acct, false, err
}

func (s *AccountService) create(ctx context.Context, caller, id, manager string, description *string) (*domain.Account, error) {
	manager = strings.TrimSpace(manager)
	if manager == "" {
		return nil, domain.ErrBadManager
	}
	var desc string
	if description != nil {
		desc = *description
	}

	acct, err := s.dir.CreateProject(ctx, id, manager, desc)
	if err != nil {
		return nil, err
	}

	logging.For(ctx, s.log).Info("account created",
		zap.String("account_id", id),
		zap.String("manager", manager),
		zap.String("caller", caller),
	)
	return acct, nil
}

func (s *AccountService) update(ctx context.Context, caller, id string, manager, description *string) (*domain.Account, error) {
	acct, err := s.dir.ModifyProject(ctx, id, manager, description)
	if err != nil {
		return nil, err
	}

	logging.For(ctx, s.log).Info("account updated",
		zap.String("account_id", id),
		zap.Bool("manager_changed", manager != nil),
		zap.Bool("description_changed", description != nil),
		zap.String("caller", caller),
	)
	return acct, nil
}

func (s *AccountService) authorize(ctx context.Context, caller, id string) error {
	if err := s.guard.Authorize(ctx, caller); err != nil {
		if errors.Is(err, domain.ErrForbidden) {
			logging.For(ctx, s.log).Warn("admin operation denied", zap.String("caller", caller), zap.String("account_id", id))
		}
		return err
	}
	if strings.TrimSpace(id) == "" {
		return domain.ErrInvalidAccountID
	}
	return nil
}
