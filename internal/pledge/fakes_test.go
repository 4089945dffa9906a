package pledge_test

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/csg33k/pledge-wall/internal/domain"
	"github.com/csg33k/pledge-wall/internal/feed"
	"github.com/csg33k/pledge-wall/internal/ports"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// memStore is an in-memory PledgeStore. Setting gate makes Insert and Select
// wait until the gate is closed or the context ends.
type memStore struct {
	mu        sync.Mutex
	rows      []domain.Pledge
	inserted  []domain.Pledge
	queries   []ports.Query
	insertErr error
	selectErr error
	gate      chan struct{}
	waiting   chan struct{}
	clock     time.Time
}

func newMemStore(rows ...domain.Pledge) *memStore {
	return &memStore{
		rows:  rows,
		clock: time.Date(2026, time.March, 7, 9, 0, 0, 0, time.UTC),
	}
}

func (s *memStore) wait(ctx context.Context) error {
	s.mu.Lock()
	gate, waiting := s.gate, s.waiting
	s.mu.Unlock()
	if gate == nil {
		return nil
	}
	if waiting != nil {
		waiting <- struct{}{}
	}
	select {
	case <-gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *memStore) Insert(ctx context.Context, p *domain.Pledge) error {
	if err := s.wait(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return s.insertErr
	}
	s.clock = s.clock.Add(time.Second)
	p.ID = fmt.Sprintf("%08x-0000-4000-8000-000000000000", len(s.rows)+1)
	p.CreatedAt = s.clock
	s.inserted = append(s.inserted, *p)
	s.rows = append(s.rows, *p)
	return nil
}

func (s *memStore) Select(ctx context.Context, q ports.Query) ([]domain.Pledge, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, q)
	if s.selectErr != nil {
		return nil, s.selectErr
	}
	out := slices.Clone(s.rows)
	if q.OrderBy == ports.ColCreatedAt && q.Descending {
		slices.Reverse(out)
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (s *memStore) Get(_ context.Context, id string) (*domain.Pledge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.rows {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *memStore) Close() error { return nil }

func (s *memStore) add(p domain.Pledge) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, p)
}

func (s *memStore) insertCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inserted)
}

func (s *memStore) selectCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queries)
}

// block arms the gate and returns a channel that receives once per call
// that reaches it, plus the func that opens the gate.
func (s *memStore) block() (<-chan struct{}, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gate = make(chan struct{})
	s.waiting = make(chan struct{}, 16)
	gate := s.gate
	return s.waiting, func() {
		s.mu.Lock()
		s.gate, s.waiting = nil, nil
		s.mu.Unlock()
		close(gate)
	}
}

func newBroker(t *testing.T) *feed.Broker {
	t.Helper()
	b := feed.NewBroker(nil)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func publish(t *testing.T, b *feed.Broker, op feed.Op) {
	t.Helper()
	if err := b.Publish(context.Background(), feed.Event{Table: domain.PledgeTable, Op: op, At: time.Now()}); err != nil {
		t.Fatalf("publish: %v", err)
	}
}

func rowsOf(types ...domain.ProfileType) []domain.Pledge {
	out := make([]domain.Pledge, len(types))
	for i, pt := range types {
		out[i] = domain.Pledge{
			ID:              fmt.Sprintf("%08d-seed", i),
			Name:            fmt.Sprintf("seed %d", i),
			ProfileType:     pt,
			Commitments:     []string{"Eliminate single-use plastics"},
			CommitmentCount: 1,
			CreatedAt:       time.Date(2026, time.January, 1, 0, 0, i, 0, time.UTC),
		}
	}
	return out
}

func repeat(pt domain.ProfileType, n int) []domain.ProfileType {
	out := make([]domain.ProfileType, n)
	for i := range out {
		out[i] = pt
	}
	return out
}

func recv[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for update")
		var zero T
		return zero
	}
}
