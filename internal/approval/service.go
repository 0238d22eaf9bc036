package approval

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/haulpoint/haulpoint/internal/audit"
)

// Recorder receives audit facts; satisfied by *audit.Emitter. Recording is
// fire-and-forget, so a failing audit store can never block an approval.
type Recorder interface {
	Record(fact audit.Fact)
}

// casRetries bounds the re-read/re-validate loop on version conflicts.
const casRetries = 3

// Engine is the four-eyes state machine. All mutation flows through Apply,
// Reject, and Cancel; reads never transition state.
type Engine struct {
	repo     Repository
	recorder Recorder
	logger   *slog.Logger
	quorum   int
	now      func() time.Time
	observe  func(action, status string)
}

// NewEngine constructs an Engine. A quorum below 2 falls back to the
// four-eyes default.
func NewEngine(repo Repository, recorder Recorder, logger *slog.Logger, quorum int) *Engine {
	if quorum < 2 {
		quorum = DefaultQuorum
	}
	return &Engine{
		repo:     repo,
		recorder: recorder,
		logger:   logger,
		quorum:   quorum,
		now:      time.Now,
	}
}

// WithNow overrides the clock for deterministic tests.
func (e *Engine) WithNow(now func() time.Time) {
	if now != nil {
		e.now = now
	}
}

// WithObserver installs a callback fired after every successful transition,
// with the action name and resulting status.
func (e *Engine) WithObserver(observe func(action, status string)) {
	e.observe = observe
}

// Quorum exposes the configured threshold.
func (e *Engine) Quorum() int {
	return e.quorum
}

// Start creates a new PENDING request.
func (e *Engine) Start(ctx context.Context, in StartInput) (*Request, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	now := e.now()
	req := &Request{
		ID:              uuid.NewString(),
		Op:              in.Op,
		TenantID:        in.TenantID,
		TargetID:        in.TargetID,
		InitiatorUserID: in.InitiatorUserID,
		Status:          StatusPending,
		Signoffs:        []Signoff{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := e.repo.Insert(ctx, req); err != nil {
		return nil, err
	}
	e.emit(req, in.InitiatorUserID, "approval.start", now)
	return req, nil
}

// Apply counts one approver toward the quorum. Re-applying by the same
// approver is an idempotent no-op; applying to a resolved request is a
// conflict; the initiator is always rejected.
func (e *Engine) Apply(ctx context.Context, id, approverID string) (*Request, error) {
	if approverID == "" {
		return nil, fmt.Errorf("%w: approver required", ErrInvalidInput)
	}
	return e.transition(ctx, id, func(req *Request) (bool, error) {
		if approverID == req.InitiatorUserID {
			return false, ErrSelfApproval
		}
		if req.HasSignoff(approverID) {
			// Client retry; the record is already in the desired state.
			return false, nil
		}
		req.Signoffs = append(req.Signoffs, Signoff{UserID: approverID, TS: e.now()})
		if len(req.Signoffs) >= e.quorum {
			req.Status = StatusApproved
		}
		return true, nil
	}, approverID, "approval.apply")
}

// Reject resolves the request as REJECTED. The independence rule applies:
// the initiator cannot resolve their own request.
func (e *Engine) Reject(ctx context.Context, id, approverID, reason string) (*Request, error) {
	if approverID == "" {
		return nil, fmt.Errorf("%w: approver required", ErrInvalidInput)
	}
	return e.transition(ctx, id, func(req *Request) (bool, error) {
		if approverID == req.InitiatorUserID {
			return false, ErrSelfApproval
		}
		req.Status = StatusRejected
		req.Reason = reason
		return true, nil
	}, approverID, "approval.reject")
}

// Cancel resolves the request as CANCELLED; only the initiator may do so.
func (e *Engine) Cancel(ctx context.Context, id, userID string) (*Request, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user required", ErrInvalidInput)
	}
	return e.transition(ctx, id, func(req *Request) (bool, error) {
		if userID != req.InitiatorUserID {
			return false, ErrNotInitiator
		}
		req.Status = StatusCancelled
		return true, nil
	}, userID, "approval.cancel")
}

// Get returns one request without transitioning state.
func (e *Engine) Get(ctx context.Context, id string) (*Request, error) {
	return e.repo.Get(ctx, id)
}

// List returns all requests without transitioning state.
func (e *Engine) List(ctx context.Context) ([]Request, error) {
	return e.repo.List(ctx)
}

// SweepStale cancels PENDING requests older than maxAge and returns how many
// were cancelled. Terminal requests are never touched.
func (e *Engine) SweepStale(ctx context.Context, maxAge time.Duration) (int, error) {
	cutoff := e.now().Add(-maxAge).Unix()
	stale, err := e.repo.ListPendingBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	cancelled := 0
	for i := range stale {
		req := stale[i]
		req.Status = StatusCancelled
		req.UpdatedAt = e.now()
		if err := e.repo.Update(ctx, &req); err != nil {
			// A concurrent resolution won the race; skip it.
			if errors.Is(err, ErrVersionConflict) || errors.Is(err, ErrNotFound) {
				continue
			}
			return cancelled, err
		}
		cancelled++
		e.emit(&req, "system", "approval.sweep", req.UpdatedAt)
	}
	return cancelled, nil
}

// transition runs one mutation under the optimistic-concurrency loop:
// re-read, re-validate, conditional write.
func (e *Engine) transition(ctx context.Context, id string, mutate func(*Request) (bool, error), actorID, action string) (*Request, error) {
	for attempt := 0; attempt < casRetries; attempt++ {
		req, err := e.repo.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if req.Terminal() {
			return nil, ErrAlreadyResolved
		}
		changed, err := mutate(req)
		if err != nil {
			return nil, err
		}
		if !changed {
			return req, nil
		}
		req.UpdatedAt = e.now()
		if err := e.repo.Update(ctx, req); err != nil {
			if errors.Is(err, ErrVersionConflict) {
				continue
			}
			return nil, err
		}
		e.emit(req, actorID, action, req.UpdatedAt)
		return req, nil
	}
	return nil, ErrVersionConflict
}

func (e *Engine) emit(req *Request, actorID, action string, started time.Time) {
	if e.observe != nil {
		e.observe(action, string(req.Status))
	}
	if e.recorder == nil {
		return
	}
	meta := map[string]any{
		"op":        req.Op,
		"target":    req.TargetID,
		"initiator": req.InitiatorUserID,
		"signoffs":  len(req.Signoffs),
	}
	if req.Reason != "" {
		meta["reason"] = req.Reason
	}
	e.recorder.Record(audit.Fact{
		ActorID:    actorID,
		TenantID:   req.TenantID,
		Action:     action,
		TargetType: "approval_request",
		TargetID:   req.ID,
		Status:     string(req.Status),
		StartedAt:  started,
		Meta:       meta,
	})
}
