package audit

import (
	"context"
	"sync"
	"testing"
	"time"
)

type captureSink struct {
	mu    sync.Mutex
	facts []Fact
	err   error
}

func (s *captureSink) Persist(ctx context.Context, fact Fact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.facts = append(s.facts, fact)
	return nil
}

func (s *captureSink) all() []Fact {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Fact(nil), s.facts...)
}

func TestEmitterRecordsRedactedFactWithDuration(t *testing.T) {
	sink := &captureSink{}
	emitter := NewEmitter(sink, nil, 8)
	started := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	emitter.WithNow(func() time.Time { return started.Add(150 * time.Millisecond) })

	emitter.Record(Fact{
		ActorID:   "user-A",
		Action:    "approval.start",
		Status:    "PENDING",
		StartedAt: started,
		Meta:      map[string]any{"password": "x", "op": "vehicle.decommission"},
	})
	emitter.Close()

	facts := sink.all()
	if len(facts) != 1 {
		t.Fatalf("expected 1 fact, got %d", len(facts))
	}
	got := facts[0]
	if got.Meta["password"] != RedactionMarker {
		t.Fatalf("expected password redacted before persist, got %v", got.Meta)
	}
	if got.Meta["op"] != "vehicle.decommission" {
		t.Fatalf("expected other meta preserved")
	}
	if got.DurationMS != 150 {
		t.Fatalf("expected 150ms duration, got %d", got.DurationMS)
	}
}

func TestEmitterStampsOccurredAt(t *testing.T) {
	sink := &captureSink{}
	emitter := NewEmitter(sink, nil, 8)
	now := time.Date(2026, 8, 28, 9, 30, 0, 0, time.UTC)
	emitter.WithNow(func() time.Time { return now })

	// Callers never set OccurredAt; the emitter stamps it so sinks always
	// receive a concrete timestamp.
	emitter.Record(Fact{ActorID: "user-A", Action: "role.update", Status: "OK"})
	emitter.Close()

	facts := sink.all()
	if len(facts) != 1 {
		t.Fatalf("expected 1 fact, got %d", len(facts))
	}
	if !facts[0].OccurredAt.Equal(now) {
		t.Fatalf("expected OccurredAt stamped to %v, got %v", now, facts[0].OccurredAt)
	}
}

func TestEmitterSinkFailureIsSwallowed(t *testing.T) {
	sink := &captureSink{err: context.DeadlineExceeded}
	emitter := NewEmitter(sink, nil, 8)
	// Must not panic or block the caller.
	emitter.Record(Fact{ActorID: "u1", Action: "scope.check", Status: "DENIED"})
	emitter.Close()
}

func TestEmitterFullQueueDropsInsteadOfBlocking(t *testing.T) {
	block := make(chan struct{})
	sink := &blockingSink{release: block}
	emitter := NewEmitter(sink, nil, 1)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			emitter.Record(Fact{ActorID: "u1", Action: "x", Status: "OK"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Record blocked on a full queue")
	}
	close(block)
	emitter.Close()
}

type blockingSink struct {
	release chan struct{}
}

func (s *blockingSink) Persist(ctx context.Context, fact Fact) error {
	<-s.release
	return nil
}
