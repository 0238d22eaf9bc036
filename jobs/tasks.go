// Package jobs runs background work over Asynq: durable audit persistence
// and the stale-approval sweep.
package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/haulpoint/haulpoint/internal/approval"
	"github.com/haulpoint/haulpoint/internal/audit"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskAuditRecord persists one audit fact.
	TaskAuditRecord = "audit:record"
	// TaskApprovalSweep cancels stale pending approval requests.
	TaskApprovalSweep = "approval:sweep"
)

// NewAuditRecordTask wraps a fact into an Asynq task.
func NewAuditRecordTask(fact audit.Fact) (*asynq.Task, error) {
	data, err := json.Marshal(fact)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAuditRecord, data), nil
}

// NewAuditRecordHandler returns the handler persisting audit facts through
// the given sink.
func NewAuditRecordHandler(sink audit.Sink) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var fact audit.Fact
		if err := json.Unmarshal(t.Payload(), &fact); err != nil {
			return asynq.SkipRetry
		}
		return sink.Persist(ctx, fact)
	}
}

type sweepPayload struct {
	MaxAgeSeconds int64 `json:"maxAgeSeconds"`
}

// NewApprovalSweepTask builds the periodic sweep task.
func NewApprovalSweepTask(maxAge time.Duration) (*asynq.Task, error) {
	data, err := json.Marshal(sweepPayload{MaxAgeSeconds: int64(maxAge.Seconds())})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskApprovalSweep, data), nil
}

// NewApprovalSweepHandler returns the handler cancelling stale pending
// requests through the engine.
func NewApprovalSweepHandler(engine *approval.Engine, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload sweepPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		maxAge := time.Duration(payload.MaxAgeSeconds) * time.Second
		if maxAge <= 0 {
			return asynq.SkipRetry
		}
		cancelled, err := engine.SweepStale(ctx, maxAge)
		if err != nil {
			if logger != nil {
				logger.Error("approval sweep failed", "error", err)
			}
			return err
		}
		if logger != nil && cancelled > 0 {
			logger.Info("approval sweep cancelled stale requests", "count", cancelled)
		}
		return nil
	}
}
