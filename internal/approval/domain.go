// Package approval implements the dual-control (four-eyes) engine: protected
// operations consult it instead of executing directly, and only a quorum of
// independent approvers moves a request forward.
package approval

import (
	"errors"
	"fmt"
	"time"
)

// Status enumerates the request lifecycle. PENDING is the only non-terminal
// state; APPROVED, REJECTED, and CANCELLED permit no further mutation.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
	StatusCancelled Status = "CANCELLED"
)

// DefaultQuorum is the four-eyes threshold: two distinct non-initiating
// approvers.
const DefaultQuorum = 2

// Signoff is one approver's recorded consent.
type Signoff struct {
	UserID string    `json:"userId"`
	TS     time.Time `json:"ts"`
}

// Request is the central mutable entity of the engine. Version backs the
// optimistic-concurrency contract: two concurrent applies cannot both commit
// against the same version.
type Request struct {
	ID              string
	Op              string
	TenantID        string
	TargetID        string
	InitiatorUserID string
	Status          Status
	Signoffs        []Signoff
	Reason          string
	Version         int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Terminal reports whether the request has left PENDING.
func (r *Request) Terminal() bool {
	return r.Status != StatusPending
}

// HasSignoff reports whether the user already approved this request.
func (r *Request) HasSignoff(userID string) bool {
	for _, s := range r.Signoffs {
		if s.UserID == userID {
			return true
		}
	}
	return false
}

// StartInput bundles the parameters for creating a request.
type StartInput struct {
	Op              string
	TenantID        string
	TargetID        string
	InitiatorUserID string
}

// Validate ensures the input can produce a well-formed request.
func (in StartInput) Validate() error {
	if in.Op == "" {
		return fmt.Errorf("%w: operation key required", ErrInvalidInput)
	}
	if in.TenantID == "" {
		return fmt.Errorf("%w: tenant id required", ErrInvalidInput)
	}
	if in.InitiatorUserID == "" {
		return fmt.Errorf("%w: initiator required", ErrInvalidInput)
	}
	return nil
}

// ErrInvalidInput marks missing or malformed caller input.
var ErrInvalidInput = errors.New("approval: invalid input")

// ErrNotFound indicates no request exists for the given id.
var ErrNotFound = errors.New("approval: request not found")

// ErrAlreadyResolved is returned when mutating a request that has left
// PENDING. Callers must surface this conflict to the user.
var ErrAlreadyResolved = errors.New("approval: request already resolved")

// ErrSelfApproval is returned when the initiator tries to count toward their
// own quorum.
var ErrSelfApproval = errors.New("approval: initiator cannot approve own request")

// ErrNotInitiator is returned when someone other than the initiator tries to
// cancel a request.
var ErrNotInitiator = errors.New("approval: only the initiator may cancel")

// ErrVersionConflict signals a lost optimistic-concurrency race; the engine
// re-reads and re-validates on this error.
var ErrVersionConflict = errors.New("approval: version conflict")
