package roles

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists role records.
type Repository interface {
	Insert(ctx context.Context, role *Role) error
	Update(ctx context.Context, role *Role) error
	Get(ctx context.Context, name string) (*Role, error)
	List(ctx context.Context) ([]Role, error)
	Delete(ctx context.Context, name string) error
}

// PGRepository stores roles in PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewPGRepository constructs a PGRepository.
func NewPGRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// Insert writes a new role.
func (r *PGRepository) Insert(ctx context.Context, role *Role) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO roles
(name, scope, description, is_system, is_exclusive, is_template, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		role.Name, string(role.Scope), role.Description, role.IsSystem,
		role.IsExclusive, role.IsTemplate, role.CreatedAt, role.UpdatedAt)
	return err
}

// Update rewrites the mutable fields of a role.
func (r *PGRepository) Update(ctx context.Context, role *Role) error {
	tag, err := r.pool.Exec(ctx, `UPDATE roles
SET scope = $1, description = $2, is_exclusive = $3, is_template = $4, updated_at = $5
WHERE name = $6`,
		string(role.Scope), role.Description, role.IsExclusive, role.IsTemplate,
		role.UpdatedAt, role.Name)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Get loads one role by name.
func (r *PGRepository) Get(ctx context.Context, name string) (*Role, error) {
	row := r.pool.QueryRow(ctx, `SELECT name, scope, description, is_system, is_exclusive, is_template, created_at, updated_at
FROM roles WHERE name = $1`, name)
	var role Role
	var scope string
	err := row.Scan(&role.Name, &scope, &role.Description, &role.IsSystem,
		&role.IsExclusive, &role.IsTemplate, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	role.Scope = roleScope(scope)
	return &role, nil
}

// List returns all roles ordered by name.
func (r *PGRepository) List(ctx context.Context) ([]Role, error) {
	rows, err := r.pool.Query(ctx, `SELECT name, scope, description, is_system, is_exclusive, is_template, created_at, updated_at
FROM roles ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Role
	for rows.Next() {
		var role Role
		var scope string
		if err := rows.Scan(&role.Name, &scope, &role.Description, &role.IsSystem,
			&role.IsExclusive, &role.IsTemplate, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, err
		}
		role.Scope = roleScope(scope)
		out = append(out, role)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes a role by name.
func (r *PGRepository) Delete(ctx context.Context, name string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM roles WHERE name = $1`, name)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
