package approval

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepository keeps requests in process memory with the same version
// check-and-set contract as the PostgreSQL implementation. Suitable for
// tests and single-process deployments only.
type MemoryRepository struct {
	mu       sync.Mutex
	requests map[string]Request
}

// NewMemoryRepository constructs a MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{requests: make(map[string]Request)}
}

// Insert stores a new request at version 1.
func (r *MemoryRepository) Insert(ctx context.Context, req *Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	req.Version = 1
	r.requests[req.ID] = cloneRequest(*req)
	return nil
}

// Update applies the version check-and-set.
func (r *MemoryRepository) Update(ctx context.Context, req *Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.requests[req.ID]
	if !ok {
		return ErrNotFound
	}
	if current.Version != req.Version {
		return ErrVersionConflict
	}
	req.Version++
	r.requests[req.ID] = cloneRequest(*req)
	return nil
}

// Get loads one request by id.
func (r *MemoryRepository) Get(ctx context.Context, id string) (*Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := cloneRequest(req)
	return &copied, nil
}

// List returns every request, newest first.
func (r *MemoryRepository) List(ctx context.Context) ([]Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Request, 0, len(r.requests))
	for _, req := range r.requests {
		out = append(out, cloneRequest(req))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// ListPendingBefore returns PENDING requests created at or before the cutoff.
func (r *MemoryRepository) ListPendingBefore(ctx context.Context, cutoff int64) ([]Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Request
	for _, req := range r.requests {
		if req.Status == StatusPending && req.CreatedAt.Unix() <= cutoff {
			out = append(out, cloneRequest(req))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func cloneRequest(req Request) Request {
	req.Signoffs = append([]Signoff(nil), req.Signoffs...)
	return req
}
