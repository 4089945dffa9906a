package pledge

import (
	"context"

	"github.com/csg33k/pledge-wall/internal/domain"
	"github.com/csg33k/pledge-wall/internal/feed"
	"github.com/csg33k/pledge-wall/internal/ports"
)

// Aggregator keeps the live dashboard counters. Every insert, update or
// delete on the pledges table triggers one full recount; bursts are not
// coalesced.
type Aggregator struct {
	store ports.PledgeStore
	view  *live[domain.Stats]
}

func NewAggregator(store ports.PledgeStore, changes ports.ChangeFeed, opts ...Option) *Aggregator {
	a := &Aggregator{store: store}
	a.view = newLive("StatsAggregator", changes, feed.AnyOp, a.count, buildOptions(opts))
	return a
}

// count reads every row's profile_type. Unbounded, so cost grows with the
// table.
func (a *Aggregator) count(ctx context.Context) (domain.Stats, error) {
	rows, err := a.store.Select(ctx, ports.Query{Columns: []string{ports.ColProfileType}})
	if err != nil {
		return domain.Stats{}, err
	}
	types := make([]domain.ProfileType, len(rows))
	for i, r := range rows {
		types[i] = r.ProfileType
	}
	return domain.Tally(types), nil
}

// Refresh recounts now. On error the previous snapshot is kept.
func (a *Aggregator) Refresh(ctx context.Context) (domain.Stats, error) {
	return a.view.refresh(ctx)
}

// Start subscribes to pledge changes and performs the initial count.
func (a *Aggregator) Start(ctx context.Context) { a.view.start(ctx) }

// Stop unsubscribes. Counts finishing afterwards are discarded.
func (a *Aggregator) Stop() { a.view.stop() }

// Snapshot returns the latest counts; loaded is false until the first
// successful refresh.
func (a *Aggregator) Snapshot() (stats domain.Stats, loaded bool) {
	return a.view.snapshot()
}

// OnUpdate registers fn for every applied recount and returns its cancel func.
func (a *Aggregator) OnUpdate(fn func(domain.Stats)) (cancel func()) {
	return a.view.onUpdate(fn)
}
