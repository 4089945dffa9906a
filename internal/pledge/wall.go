package pledge

import (
	"context"

	"github.com/csg33k/pledge-wall/internal/certificate"
	"github.com/csg33k/pledge-wall/internal/domain"
	"github.com/csg33k/pledge-wall/internal/feed"
	"github.com/csg33k/pledge-wall/internal/ports"
)

// WallDateLayout formats the pledge date column, e.g. "Mar 7, 2026".
const WallDateLayout = "Jan 2, 2006"

// WallRow is one public row of the wall. Contact details never reach it.
type WallRow struct {
	ID      string
	ShortID string
	Name    string
	Date    string
	State   string
	Profile string
	Hearts  int
	Count   int
}

// Wall lists the most recent pledges and refetches on every insert.
type Wall struct {
	store ports.PledgeStore
	view  *live[[]domain.Pledge]
}

func NewWall(store ports.PledgeStore, changes ports.ChangeFeed, opts ...Option) *Wall {
	w := &Wall{store: store}
	w.view = newLive("PledgeWall", changes, feed.Only(feed.Insert), w.latest, buildOptions(opts))
	return w
}

func (w *Wall) latest(ctx context.Context) ([]domain.Pledge, error) {
	rows, err := w.store.Select(ctx, ports.Query{
		Columns:    ports.PublicColumns,
		OrderBy:    ports.ColCreatedAt,
		Descending: true,
		Limit:      domain.PageSize,
	})
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []domain.Pledge{}
	}
	return rows, nil
}

// Refresh refetches the latest page now. On error the previous rows are kept.
func (w *Wall) Refresh(ctx context.Context) ([]domain.Pledge, error) {
	return w.view.refresh(ctx)
}

// Start subscribes to inserts and performs the initial fetch.
func (w *Wall) Start(ctx context.Context) { w.view.start(ctx) }

// Stop unsubscribes. Fetches finishing afterwards are discarded.
func (w *Wall) Stop() { w.view.stop() }

// Snapshot returns the latest page; loaded is false until the first
// successful refresh.
func (w *Wall) Snapshot() (rows []domain.Pledge, loaded bool) {
	return w.view.snapshot()
}

// OnUpdate registers fn for every applied refetch and returns its cancel func.
func (w *Wall) OnUpdate(fn func([]domain.Pledge)) (cancel func()) {
	return w.view.onUpdate(fn)
}

// Rows maps stored pledges to display rows.
func Rows(pledges []domain.Pledge) []WallRow {
	out := make([]WallRow, len(pledges))
	for i, p := range pledges {
		state := p.State
		if state == "" {
			state = "N/A"
		}
		out[i] = WallRow{
			ID:      p.ID,
			ShortID: ShortID(p.ID),
			Name:    p.Name,
			Date:    p.CreatedAt.Format(WallDateLayout),
			State:   state,
			Profile: p.ProfileType.String(),
			Hearts:  certificate.HeartRating(p.CommitmentCount),
			Count:   p.CommitmentCount,
		}
	}
	return out
}

// ShortID is the first eight characters of id followed by "...".
func ShortID(id string) string {
	if len(id) > 8 {
		id = id[:8]
	}
	return id + "..."
}

// ShowFooter reports whether the "showing the latest 50" hint is displayed.
// A full page is taken to mean more rows exist, which is only an
// approximation: exactly 50 stored pledges also shows it.
func ShowFooter[T any](rows []T) bool {
	return len(rows) >= domain.PageSize
}
