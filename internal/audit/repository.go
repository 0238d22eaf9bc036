package audit

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PGSink writes facts into the audit_logs table.
type PGSink struct {
	pool *pgxpool.Pool
}

// NewPGSink constructs a PGSink.
func NewPGSink(pool *pgxpool.Pool) *PGSink {
	return &PGSink{pool: pool}
}

// Persist inserts the fact. Facts are append-only; there is no update path.
func (s *PGSink) Persist(ctx context.Context, fact Fact) error {
	if s == nil || s.pool == nil {
		return errors.New("audit: sink not initialised")
	}
	if fact.ActorID == "" || fact.Action == "" {
		return errors.New("audit: fact requires actor and action")
	}
	metaJSON, err := json.Marshal(fact.Meta)
	if err != nil {
		return err
	}
	// The emitter stamps OccurredAt on every recorded fact; a zero value can
	// only come from a caller bypassing it, so stamp here rather than ship a
	// year-1 timestamp.
	occurred := fact.OccurredAt
	if occurred.IsZero() {
		occurred = time.Now()
	}
	_, err = s.pool.Exec(ctx, `INSERT INTO audit_logs
(actor_id, actor_email, tenant_id, action, method, path, target_type, target_id, status, ip, user_agent, meta, duration_ms, occurred_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		fact.ActorID, fact.ActorEmail, fact.TenantID, fact.Action, fact.Method, fact.Path,
		fact.TargetType, fact.TargetID, fact.Status, fact.IP, fact.UserAgent, metaJSON,
		fact.DurationMS, occurred)
	return err
}
