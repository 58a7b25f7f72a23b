package domain

import "errors"

var (
	ErrForbidden        = errors.New("forbidden")
	ErrNotFound         = errors.New("account not found")
	ErrConflict         = errors.New("account already exists")
	ErrBadManager       = errors.New("manager does not exist")
	ErrInvalidAccountID = errors.New("account id is required")

	ErrUserNotFound = errors.New("user not found")
	ErrUserExists   = errors.New("user already exists")
	ErrManagerInUse = errors.New("user manages at least one account")
)
