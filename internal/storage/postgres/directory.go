package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/GoSim-25-26J-441/go-accounts-backend/internal/accounts/domain"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// Directory is a directory.Directory backed by PostgreSQL.
// Mutations run in transactions that lock the rows they depend on.
type Directory struct {
	db *sql.DB
}

// NewDirectory creates a PostgreSQL directory
func NewDirectory(db *sql.DB) *Directory {
	return &Directory{db: db}
}

// AddUser inserts a user; a duplicate id or access key yields domain.ErrUserExists.
func (d *Directory) AddUser(ctx context.Context, user domain.User) error {
	const q = `
INSERT INTO directory_users (id, access_key, secret_key, is_admin)
VALUES ($1, $2, $3, $4)
RETURNING created_at;
`
	err := d.db.QueryRowContext(ctx, q, user.ID, user.AccessKey, user.SecretKey, user.IsAdmin).Scan(&user.CreatedAt)
	if err != nil {
		if pgCode(err) == pgUniqueViolation {
			return domain.ErrUserExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// LookupUser retrieves a user by id
func (d *Directory) LookupUser(ctx context.Context, id string) (*domain.User, error) {
	const q = `
SELECT id, access_key, secret_key, is_admin, created_at
FROM directory_users
WHERE id = $1;
`
	var u domain.User
	err := d.db.QueryRowContext(ctx, q, id).Scan(&u.ID, &u.AccessKey, &u.SecretKey, &u.IsAdmin, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	return &u, nil
}

// DeleteUser removes a user. The manager_id foreign key refuses the delete
// while the user still manages an account.
func (d *Directory) DeleteUser(ctx context.Context, id string) error {
	const q = `DELETE FROM directory_users WHERE id = $1;`

	result, err := d.db.ExecContext(ctx, q, id)
	if err != nil {
		if pgCode(err) == pgForeignKeyViolation {
			return domain.ErrManagerInUse
		}
		return fmt.Errorf("delete user: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// CreateProject inserts an account named after its id.
func (d *Directory) CreateProject(ctx context.Context, id, manager, description string) (*domain.Account, error) {
	const q = `
INSERT INTO directory_projects (id, name, description, manager_id)
VALUES ($1, $1, $2, $3)
ON CONFLICT (id) DO NOTHING
RETURNING id, name, description, manager_id, created_at, updated_at;
`
	var p domain.Account
	err := d.withTx(ctx, func(tx *sql.Tx) error {
		if err := lockUser(ctx, tx, manager); err != nil {
			return err
		}

		err := tx.QueryRowContext(ctx, q, id, description, manager).
			Scan(&p.ID, &p.Name, &p.Description, &p.Manager, &p.CreatedAt, &p.UpdatedAt)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrConflict
		}
		if err != nil {
			return fmt.Errorf("insert project: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetProject retrieves an account by id
func (d *Directory) GetProject(ctx context.Context, id string) (*domain.Account, error) {
	const q = `
SELECT id, name, description, manager_id, created_at, updated_at
FROM directory_projects
WHERE id = $1;
`
	var p domain.Account
	err := d.db.QueryRowContext(ctx, q, id).
		Scan(&p.ID, &p.Name, &p.Description, &p.Manager, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get project: %w", err)
	}
	return &p, nil
}

// DeleteProject removes an account if present.
func (d *Directory) DeleteProject(ctx context.Context, id string) error {
	const q = `DELETE FROM directory_projects WHERE id = $1;`

	if _, err := d.db.ExecContext(ctx, q, id); err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	return nil
}

// ModifyProject reassigns the manager and/or replaces the description.
func (d *Directory) ModifyProject(ctx context.Context, id string, manager, description *string) (*domain.Account, error) {
	const selectQ = `
SELECT id, name, description, manager_id, created_at, updated_at
FROM directory_projects
WHERE id = $1
FOR UPDATE;
`
	const updateQ = `
UPDATE directory_projects
SET manager_id = $2, description = $3, updated_at = now()
WHERE id = $1
RETURNING updated_at;
`
	var p domain.Account
	err := d.withTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, selectQ, id).
			Scan(&p.ID, &p.Name, &p.Description, &p.Manager, &p.CreatedAt, &p.UpdatedAt)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("select project: %w", err)
		}

		if manager != nil {
			if err := lockUser(ctx, tx, *manager); err != nil {
				return err
			}
			p.Manager = *manager
		}
		if description != nil {
			p.Description = *description
		}

		if err := tx.QueryRowContext(ctx, updateQ, p.ID, p.Manager, p.Description).Scan(&p.UpdatedAt); err != nil {
			return fmt.Errorf("update project: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListProjects returns every account ordered by id.
func (d *Directory) ListProjects(ctx context.Context) ([]domain.Account, error) {
	const q = `
SELECT id, name, description, manager_id, created_at, updated_at
FROM directory_projects
ORDER BY id;
`
	rows, err := d.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Account, 0, 16)
	for rows.Next() {
		var p domain.Account
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Manager, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (d *Directory) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

func (d *Directory) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// lockUser takes a share lock on the user row so it cannot be deleted
// before the referencing project row is written.
func lockUser(ctx context.Context, tx *sql.Tx, id string) error {
	const q = `SELECT id FROM directory_users WHERE id = $1 FOR SHARE;`

	var got string
	err := tx.QueryRowContext(ctx, q, id).Scan(&got)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrBadManager
	}
	if err != nil {
		return fmt.Errorf("lock manager: %w", err)
	}
	return nil
}

func pgCode(err error) pq.ErrorCode {
	var pgErr *pq.Error
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
