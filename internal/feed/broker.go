package feed

import (
	"context"
	"errors"
	"sync"

	"github.com/csg33k/pledge-wall/internal/platform/logger"
)

const defaultQueueSize = 64

var ErrClosed = errors.New("feed: broker closed")

// Subscription is the handle returned by Subscribe. Each subscription owns a
// goroutine and a bounded queue, so a slow subscriber never blocks others.
type Subscription struct {
	id     uint64
	table  string
	filter Filter
	fn     func(Event)
	queue  chan Event
	done   chan struct{}
	once   sync.Once
}

// Table returns the table the subscription listens on.
func (s *Subscription) Table() string { return s.table }

func (s *Subscription) stop() {
	s.once.Do(func() { close(s.done) })
}

type Broker struct {
	log       *logger.Logger
	queueSize int
	onPublish func(Event)

	mu     sync.RWMutex
	subs   map[uint64]*Subscription
	nextID uint64
	closed bool
	wg     sync.WaitGroup
}

type Option func(*Broker)

// WithQueueSize sets the per-subscription buffer.
func WithQueueSize(n int) Option {
	return func(b *Broker) {
		if n > 0 {
			b.queueSize = n
		}
	}
}

// WithPublishHook runs fn for every accepted event (metrics).
func WithPublishHook(fn func(Event)) Option {
	return func(b *Broker) { b.onPublish = fn }
}

func NewBroker(log *logger.Logger, opts ...Option) *Broker {
	if log == nil {
		log = logger.Nop()
	}
	b := &Broker{
		log:       log.With("service", "FeedBroker"),
		queueSize: defaultQueueSize,
		subs:      make(map[uint64]*Subscription),
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Subscribe registers fn for events on table that pass filter. fn runs on the
// subscription's own goroutine, never concurrently with itself. Subscribing
// to a closed broker returns a handle that never fires.
func (b *Broker) Subscribe(table string, filter Filter, fn func(Event)) *Subscription {
	sub := &Subscription{
		table:  table,
		filter: filter,
		fn:     fn,
		queue:  make(chan Event, b.queueSize),
		done:   make(chan struct{}),
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		sub.stop()
		return sub
	}
	b.nextID++
	sub.id = b.nextID
	b.subs[sub.id] = sub
	b.wg.Add(1)
	b.mu.Unlock()

	go b.deliver(sub)
	return sub
}

// Unsubscribe stops delivery to sub. It is idempotent. A callback already
// running when Unsubscribe is called finishes, but no further callback starts.
func (b *Broker) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	b.mu.Lock()
	delete(b.subs, sub.id)
	b.mu.Unlock()
	sub.stop()
}

// Publish fans ev out to every matching subscription. When a subscriber's
// queue is full the event is dropped for that subscriber only.
func (b *Broker) Publish(_ context.Context, ev Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}
	if b.onPublish != nil {
		b.onPublish(ev)
	}
	for _, sub := range b.subs {
		if sub.table != ev.Table || !sub.filter.Match(ev.Op) {
			continue
		}
		select {
		case <-sub.done:
		case sub.queue <- ev:
		default:
			b.log.Warn("subscriber queue full, dropping event", "table", ev.Table, "op", ev.Op, "subscription", sub.id)
		}
	}
	return nil
}

// Close stops every subscription and waits for their goroutines to exit.
func (b *Broker) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	for id, sub := range b.subs {
		sub.stop()
		delete(b.subs, id)
	}
	b.mu.Unlock()
	b.wg.Wait()
	return nil
}

func (b *Broker) deliver(sub *Subscription) {
	defer b.wg.Done()
	for {
		select {
		case <-sub.done:
			return
		case ev := <-sub.queue:
			// Unsubscribe may race with a queued event.
			select {
			case <-sub.done:
				return
			default:
			}
			b.call(sub, ev)
		}
	}
}

func (b *Broker) call(sub *Subscription, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("subscriber panicked", "table", ev.Table, "op", ev.Op, "panic", r)
		}
	}()
	sub.fn(ev)
}
