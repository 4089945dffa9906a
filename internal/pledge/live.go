package pledge

import (
	"context"
	"maps"
	"slices"
	"sync"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/csg33k/pledge-wall/internal/domain"
	"github.com/csg33k/pledge-wall/internal/feed"
	"github.com/csg33k/pledge-wall/internal/platform/logger"
	"github.com/csg33k/pledge-wall/internal/platform/metrics"
	"github.com/csg33k/pledge-wall/internal/platform/telemetry"
	"github.com/csg33k/pledge-wall/internal/ports"
)

// live keeps the latest result of fetch and refetches it whenever the change
// feed reports a matching event on the pledges table. It backs both the stats
// aggregator and the wall.
type live[T any] struct {
	name   string
	feed   ports.ChangeFeed
	filter feed.Filter
	fetch  func(context.Context) (T, error)

	log     *logger.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer

	mu        sync.Mutex
	snap      T
	loaded    bool
	seq       uint64 // refreshes started
	applied   uint64 // seq of the result currently in snap
	stopped   bool
	sub       *feed.Subscription
	cancel    context.CancelFunc
	observers map[uint64]func(T)
	nextObs   uint64
}

func newLive[T any](name string, f ports.ChangeFeed, filter feed.Filter, fetch func(context.Context) (T, error), o options) *live[T] {
	return &live[T]{
		name:      name,
		feed:      f,
		filter:    filter,
		fetch:     fetch,
		log:       o.log.With("service", name),
		metrics:   o.metrics,
		tracer:    telemetry.Tracer("pledge"),
		observers: make(map[uint64]func(T)),
	}
}

// refresh fetches once. A result is applied only if the view is running and
// no newer refresh has already landed; otherwise it is returned but dropped.
func (l *live[T]) refresh(ctx context.Context) (T, error) {
	l.mu.Lock()
	l.seq++
	seq := l.seq
	l.mu.Unlock()

	ctx, span := l.tracer.Start(ctx, l.name+".refresh")
	defer span.End()

	v, err := l.fetch(ctx)
	l.metrics.IncRefresh(l.name)
	if err != nil {
		l.metrics.IncStoreError("select")
		l.log.Warn("refresh failed", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "refresh failed")
		var zero T
		return zero, err
	}

	l.mu.Lock()
	if l.stopped || seq < l.applied {
		l.mu.Unlock()
		return v, nil
	}
	l.applied = seq
	l.snap = v
	l.loaded = true
	obs := slices.Collect(maps.Values(l.observers))
	l.mu.Unlock()

	for _, fn := range obs {
		fn(v)
	}
	return v, nil
}

// start subscribes and performs the initial refresh. Calling start on a
// running view is a no-op.
func (l *live[T]) start(ctx context.Context) {
	l.mu.Lock()
	if l.sub != nil {
		l.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.stopped = false
	l.sub = l.feed.Subscribe(domain.PledgeTable, l.filter, func(feed.Event) {
		_, _ = l.refresh(ctx)
	})
	l.mu.Unlock()

	_, _ = l.refresh(ctx)
}

// stop releases the subscription. A refresh still in flight completes but its
// result is discarded.
func (l *live[T]) stop() {
	l.mu.Lock()
	sub, cancel := l.sub, l.cancel
	l.sub, l.cancel = nil, nil
	l.stopped = true
	l.mu.Unlock()

	if sub != nil {
		l.feed.Unsubscribe(sub)
	}
	if cancel != nil {
		cancel()
	}
}

func (l *live[T]) snapshot() (T, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snap, l.loaded
}

// onUpdate registers fn to run after every applied refresh. fn runs on the
// refreshing goroutine and must not block. The returned func removes it.
func (l *live[T]) onUpdate(fn func(T)) func() {
	l.mu.Lock()
	l.nextObs++
	id := l.nextObs
	l.observers[id] = fn
	l.mu.Unlock()
	return func() {
		l.mu.Lock()
		delete(l.observers, id)
		l.mu.Unlock()
	}
}
