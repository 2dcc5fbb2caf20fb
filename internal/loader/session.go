// Package loader coordinates a batch of asynchronous asset loads and signals once
// every one of them has settled.
package loader

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/semaphore"

	"github.com/zjrosen/lootbox/internal/log"
	"github.com/zjrosen/lootbox/internal/pubsub"
	"github.com/zjrosen/lootbox/internal/tracing"
)

var (
	ErrSessionSealed = errors.New("session is sealed")
	ErrSessionReused = errors.New("session already used")
)

// Progress is the payload published for every session lifecycle event.
type Progress struct {
	SessionID string
	Name      string
	Locator   string
	Err       error
	Report    *Report // set on session.settled only
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithBroker publishes lifecycle events to broker.
func WithBroker(broker pubsub.Publisher[Progress]) SessionOption {
	return func(s *Session) {
		s.broker = broker
	}
}

// WithTracer traces the session and each of its requests.
func WithTracer(tracer trace.Tracer) SessionOption {
	return func(s *Session) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// WithMaxInFlight bounds the number of requests running at once. n <= 0 means unbounded.
func WithMaxInFlight(n int64) SessionOption {
	return func(s *Session) {
		if n > 0 {
			s.sem = semaphore.NewWeighted(n)
		} else {
			s.sem = nil
		}
	}
}

// WithID overrides the generated session ID.
func WithID(id string) SessionOption {
	return func(s *Session) {
		s.id = id
	}
}

// Session tracks a set of submitted requests and fires once, after it is sealed
// and every request has settled. Completion callbacks never run concurrently.
type Session struct {
	id     string
	broker pubsub.Publisher[Progress]
	tracer trace.Tracer
	sem    *semaphore.Weighted

	// callbacks serializes completion callbacks and settlement.
	callbacks sync.Mutex

	mu        sync.Mutex
	claimed   bool
	sealed    bool
	fired     bool
	settled   bool
	pending   int
	total     int
	loaded    int
	failures  []Failure
	startedAt time.Time
	report    Report
	hooks     []func(Report)
	span      trace.Span

	done chan struct{}
}

// NewSession creates an unsealed session with a fresh ID.
func NewSession(opts ...SessionOption) *Session {
	s := &Session{
		id:     uuid.NewString(),
		tracer: noop.NewTracerProvider().Tracer(""),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID returns the session's identifier.
func (s *Session) ID() string { return s.id }

// Done is closed once the session has fired.
func (s *Session) Done() <-chan struct{} { return s.done }

// Pending returns the number of submitted requests that have not settled.
func (s *Session) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// Report returns the final report once fired, or a snapshot of progress so far.
func (s *Session) Report() Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.settled {
		return s.report
	}
	return s.snapshotLocked()
}

// OnLoad registers fn to run when the session fires. Registering after the
// session fired runs fn immediately.
func (s *Session) OnLoad(fn func(Report)) {
	s.mu.Lock()
	if !s.settled {
		s.hooks = append(s.hooks, fn)
		s.mu.Unlock()
		return
	}
	report := s.report
	s.mu.Unlock()
	fn(report)
}

// Seal stops further submissions. A sealed session with nothing pending fires
// immediately.
func (s *Session) Seal() {
	s.mu.Lock()
	if s.sealed {
		s.mu.Unlock()
		return
	}
	s.sealed = true
	s.startLocked(context.Background())
	s.span.AddEvent(tracing.EventSessionSealed)
	fire := s.pending == 0 && !s.fired
	if fire {
		s.fired = true
	}
	s.mu.Unlock()

	log.Debug(log.CatLoader, "Session sealed", "session", s.id, "fire", fire)
	if fire {
		s.fire()
	}
}

// claim marks the session as owned by a coordinator run.
func (s *Session) claim() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.claimed || s.sealed {
		return false
	}
	s.claimed = true
	return true
}

func (s *Session) startLocked(ctx context.Context) {
	if s.span != nil {
		return
	}
	s.startedAt = time.Now()
	_, s.span = s.tracer.Start(context.WithoutCancel(ctx), tracing.SpanLoadSession,
		trace.WithAttributes(tracing.AttrSessionID.String(s.id)))
}

func (s *Session) snapshotLocked() Report {
	return Report{
		SessionID: s.id,
		Total:     s.total,
		Loaded:    s.loaded,
		Failures:  slices.Clone(s.failures),
		StartedAt: s.startedAt,
	}
}

// Submit issues one request on s. load runs on its own goroutine; when it
// succeeds onLoad receives the value. onLoad calls are serialized across the
// session. A failed load settles the request and is recorded in the report.
func Submit[T any](ctx context.Context, s *Session, name, locator string, load func(context.Context) (T, error), onLoad func(T)) error {
	s.mu.Lock()
	if s.sealed {
		s.mu.Unlock()
		return ErrSessionSealed
	}
	s.startLocked(ctx)
	s.pending++
	s.total++
	parent := trace.ContextWithSpan(ctx, s.span)
	s.mu.Unlock()

	s.publish(pubsub.ItemStartedEvent, Progress{SessionID: s.id, Name: name, Locator: locator})

	go func() {
		reqCtx, span := s.tracer.Start(parent, tracing.SpanAssetLoad, trace.WithAttributes(
			tracing.AttrSessionID.String(s.id),
			tracing.AttrAssetName.String(name),
			tracing.AttrAssetLocator.String(locator),
		))

		value, err := acquireAndLoad(reqCtx, s.sem, load)
		tracing.RecordError(span, err)
		span.End()

		s.callbacks.Lock()
		defer s.callbacks.Unlock()
		if err == nil && onLoad != nil {
			onLoad(value)
		}
		s.settle(name, locator, err)
	}()
	return nil
}

func acquireAndLoad[T any](ctx context.Context, sem *semaphore.Weighted, load func(context.Context) (T, error)) (T, error) {
	if sem != nil {
		if err := sem.Acquire(ctx, 1); err != nil {
			var zero T
			return zero, err
		}
		defer sem.Release(1)
	}
	return load(ctx)
}

// settle records the outcome of one request. Callers hold s.callbacks.
func (s *Session) settle(name, locator string, err error) {
	s.mu.Lock()
	s.pending--
	if err != nil {
		s.failures = append(s.failures, Failure{Name: name, Locator: locator, Err: err})
	} else {
		s.loaded++
	}
	fire := s.sealed && s.pending == 0 && !s.fired
	if fire {
		s.fired = true
	}
	s.mu.Unlock()

	if err != nil {
		log.ErrorErr(log.CatLoader, "Asset failed to load", err, "session", s.id, "name", name, "locator", locator)
		s.publish(pubsub.ItemFailedEvent, Progress{SessionID: s.id, Name: name, Locator: locator, Err: err})
	} else {
		log.Debug(log.CatLoader, "Asset loaded", "session", s.id, "name", name)
		s.publish(pubsub.ItemLoadedEvent, Progress{SessionID: s.id, Name: name, Locator: locator})
	}

	if fire {
		s.fire()
	}
}

// fire runs exactly once per session.
func (s *Session) fire() {
	s.mu.Lock()
	report := s.snapshotLocked()
	report.FinishedAt = time.Now()
	s.report = report
	s.settled = true
	hooks := s.hooks
	s.hooks = nil
	span := s.span
	s.mu.Unlock()

	span.SetAttributes(
		tracing.AttrSessionTotal.Int(report.Total),
		tracing.AttrSessionFailed.Int(report.Failed()),
	)
	span.AddEvent(tracing.EventSessionSettled)
	tracing.RecordError(span, report.Err())
	span.End()

	log.Info(log.CatLoader, "Session settled",
		"session", s.id, "total", report.Total, "loaded", report.Loaded,
		"failed", report.Failed(), "duration", report.Duration())

	for _, hook := range hooks {
		hook(report)
	}
	s.publish(pubsub.SessionSettledEvent, Progress{SessionID: s.id, Report: &report})
	close(s.done)
}

func (s *Session) publish(eventType pubsub.EventType, p Progress) {
	if s.broker != nil {
		s.broker.Publish(eventType, p)
	}
}
