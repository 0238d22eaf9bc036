package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Sink accepts facts for durable storage.
type Sink interface {
	Persist(ctx context.Context, fact Fact) error
}

// Emitter hands facts off to the sink asynchronously. Record never blocks
// and never fails the guarded operation: a full queue drops the fact with a
// local error log, and persistence failures are logged, not propagated.
type Emitter struct {
	sink   Sink
	logger *slog.Logger
	queue  chan Fact
	wg     sync.WaitGroup
	once   sync.Once
	now    func() time.Time
	onDrop func()
}

// NewEmitter constructs an Emitter and starts its worker.
func NewEmitter(sink Sink, logger *slog.Logger, buffer int) *Emitter {
	if buffer <= 0 {
		buffer = 256
	}
	e := &Emitter{
		sink:   sink,
		logger: logger,
		queue:  make(chan Fact, buffer),
		now:    time.Now,
	}
	e.wg.Add(1)
	go e.run()
	return e
}

// WithNow overrides the clock for deterministic tests.
func (e *Emitter) WithNow(now func() time.Time) {
	if now != nil {
		e.now = now
	}
}

// WithDropHook installs a callback fired when a fact is dropped.
func (e *Emitter) WithDropHook(hook func()) {
	e.onDrop = hook
}

// Record enqueues a fact. Metadata is redacted and the decision duration is
// computed here so no caller can leak secrets or forget timing.
func (e *Emitter) Record(fact Fact) {
	fact.Meta = Redact(fact.Meta)
	fact.OccurredAt = e.now()
	if !fact.StartedAt.IsZero() {
		fact.DurationMS = fact.OccurredAt.Sub(fact.StartedAt).Milliseconds()
	}
	select {
	case e.queue <- fact:
	default:
		if e.logger != nil {
			e.logger.Error("audit queue full, dropping fact",
				slog.String("action", fact.Action),
				slog.String("actor", fact.ActorID))
		}
		if e.onDrop != nil {
			e.onDrop()
		}
	}
}

// Close drains the queue and stops the worker.
func (e *Emitter) Close() {
	e.once.Do(func() {
		close(e.queue)
	})
	e.wg.Wait()
}

func (e *Emitter) run() {
	defer e.wg.Done()
	for fact := range e.queue {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := e.sink.Persist(ctx, fact); err != nil && e.logger != nil {
			e.logger.Error("persist audit fact",
				slog.String("action", fact.Action),
				slog.Any("error", err))
		}
		cancel()
	}
}
