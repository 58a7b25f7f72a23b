package domain

import "time"

// User is an identity held by the directory. ID is the identity other records refer to.
type User struct {
	ID        string    `json:"id" db:"id" yaml:"id"`
	AccessKey string    `json:"access_key" db:"access_key" yaml:"access_key"`
	SecretKey string    `json:"-" db:"secret_key" yaml:"secret_key"`
	IsAdmin   bool      `json:"is_admin" db:"is_admin" yaml:"admin"`
	CreatedAt time.Time `json:"created_at" db:"created_at" yaml:"-"`
}

// Account is a tenant account (a "project" in directory terms).
// Manager holds the managing user's ID and is resolved through the directory on use.
type Account struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Manager     string    `json:"manager" db:"manager_id"`
	CreatedAt   time.Time `json:"-" db:"created_at"`
	UpdatedAt   time.Time `json:"-" db:"updated_at"`
}

// CreateAccountRequest represents data needed to create a new account
type CreateAccountRequest struct {
	Description *string
	Manager     string
}

// UpdateAccountRequest represents data for updating an account.
// Nil fields are left unchanged.
type UpdateAccountRequest struct {
	Description *string
	Manager     *string
}

// UpsertAccountRequest is the body of a PUT on an account: it creates the
// account when the id is free and updates it otherwise.
type UpsertAccountRequest struct {
	Description *string
	Manager     *string
}
