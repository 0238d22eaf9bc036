package approval

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/haulpoint/haulpoint/internal/platform/db"
)

// Repository persists approval requests. Update must be conditional on the
// record version (check-and-set) and return ErrVersionConflict on a lost
// race; the engine relies on that atomicity contract. Requests are never
// hard-deleted: terminal records remain for audit.
type Repository interface {
	Insert(ctx context.Context, req *Request) error
	Update(ctx context.Context, req *Request) error
	Get(ctx context.Context, id string) (*Request, error)
	List(ctx context.Context) ([]Request, error)
	ListPendingBefore(ctx context.Context, cutoff int64) ([]Request, error)
}

// PGRepository stores requests in PostgreSQL with signoffs as jsonb.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewPGRepository constructs a PGRepository.
func NewPGRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// Insert writes a new request at version 1.
func (r *PGRepository) Insert(ctx context.Context, req *Request) error {
	signoffs, err := json.Marshal(req.Signoffs)
	if err != nil {
		return err
	}
	req.Version = 1
	_, err = r.pool.Exec(ctx, `INSERT INTO approval_requests
(id, op, tenant_id, target_id, initiator_user_id, status, signoffs, reason, version, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		req.ID, req.Op, req.TenantID, req.TargetID, req.InitiatorUserID,
		string(req.Status), signoffs, req.Reason, req.Version, req.CreatedAt, req.UpdatedAt)
	return err
}

// Update applies a check-and-set keyed on the version the engine loaded. The
// conditional write and the miss diagnosis run in one transaction so a lost
// race is never misreported as a missing row.
func (r *PGRepository) Update(ctx context.Context, req *Request) error {
	signoffs, err := json.Marshal(req.Signoffs)
	if err != nil {
		return err
	}
	err = db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `UPDATE approval_requests
SET status = $1, signoffs = $2, reason = $3, version = version + 1, updated_at = $4
WHERE id = $5 AND version = $6`,
			string(req.Status), signoffs, req.Reason, req.UpdatedAt, req.ID, req.Version)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			var exists bool
			if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM approval_requests WHERE id = $1)`, req.ID).Scan(&exists); err != nil {
				return err
			}
			if !exists {
				return ErrNotFound
			}
			return ErrVersionConflict
		}
		return nil
	})
	if err != nil {
		return err
	}
	req.Version++
	return nil
}

// Get loads one request by id.
func (r *PGRepository) Get(ctx context.Context, id string) (*Request, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, op, tenant_id, target_id, initiator_user_id, status, signoffs, reason, version, created_at, updated_at
FROM approval_requests WHERE id = $1`, id)
	return scanRequest(row)
}

// List returns every request, newest first.
func (r *PGRepository) List(ctx context.Context) ([]Request, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, op, tenant_id, target_id, initiator_user_id, status, signoffs, reason, version, created_at, updated_at
FROM approval_requests ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRequests(rows)
}

// ListPendingBefore returns PENDING requests created at or before the cutoff
// (unix seconds); the stale sweep cancels them.
func (r *PGRepository) ListPendingBefore(ctx context.Context, cutoff int64) ([]Request, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, op, tenant_id, target_id, initiator_user_id, status, signoffs, reason, version, created_at, updated_at
FROM approval_requests WHERE status = $1 AND created_at <= to_timestamp($2) ORDER BY created_at ASC`,
		string(StatusPending), cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRequests(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*Request, error) {
	var req Request
	var status string
	var signoffs []byte
	err := row.Scan(&req.ID, &req.Op, &req.TenantID, &req.TargetID, &req.InitiatorUserID,
		&status, &signoffs, &req.Reason, &req.Version, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	req.Status = Status(status)
	if len(signoffs) > 0 {
		if err := json.Unmarshal(signoffs, &req.Signoffs); err != nil {
			return nil, err
		}
	}
	return &req, nil
}

func collectRequests(rows pgx.Rows) ([]Request, error) {
	var out []Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *req)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
