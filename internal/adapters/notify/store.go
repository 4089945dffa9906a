// Package notify decorates a PledgeStore so that every successful insert is
// announced on a change-feed publisher. It stands in for the database trigger
// when the store cannot notify on its own.
package notify

import (
	"context"
	"time"

	"github.com/csg33k/pledge-wall/internal/domain"
	"github.com/csg33k/pledge-wall/internal/feed"
	"github.com/csg33k/pledge-wall/internal/platform/logger"
	"github.com/csg33k/pledge-wall/internal/ports"
)

type Store struct {
	ports.PledgeStore
	pub    feed.Publisher
	origin string
	log    *logger.Logger
}

// Wrap returns next with insert notifications published to pub. origin tags
// the events (the instance ID in multi-instance deployments).
func Wrap(next ports.PledgeStore, pub feed.Publisher, origin string, log *logger.Logger) *Store {
	if log == nil {
		log = logger.Nop()
	}
	return &Store{
		PledgeStore: next,
		pub:         pub,
		origin:      origin,
		log:         log.With("service", "NotifyStore"),
	}
}

// Insert forwards to the wrapped store. A publish failure is logged but does
// not fail the insert: the row is committed either way.
func (s *Store) Insert(ctx context.Context, p *domain.Pledge) error {
	if err := s.PledgeStore.Insert(ctx, p); err != nil {
		return err
	}
	ev := feed.Event{
		Table:  domain.PledgeTable,
		Op:     feed.Insert,
		ID:     p.ID,
		At:     time.Now().UTC(),
		Origin: s.origin,
	}
	if err := s.pub.Publish(ctx, ev); err != nil {
		s.log.Warn("publish insert event failed", "id", p.ID, "error", err)
	}
	return nil
}

var _ ports.PledgeStore = (*Store)(nil)
