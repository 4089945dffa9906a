package ports

import (
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/csg33k/pledge-wall/internal/certificate"
	"github.com/csg33k/pledge-wall/internal/domain"
	"github.com/csg33k/pledge-wall/internal/feed"
)

// Columns that may appear in a Query projection, filter or ordering.
const (
	ColID              = "id"
	ColName            = "name"
	ColEmail           = "email"
	ColMobile          = "mobile"
	ColState           = "state"
	ColProfileType     = "profile_type"
	ColCommitments     = "commitments"
	ColCommitmentCount = "commitment_count"
	ColCreatedAt       = "created_at"
)

// AllColumns is the full pledge row in schema order.
var AllColumns = []string{
	ColID, ColName, ColEmail, ColMobile, ColState,
	ColProfileType, ColCommitments, ColCommitmentCount, ColCreatedAt,
}

// PublicColumns never include contact details.
var PublicColumns = []string{
	ColID, ColName, ColState, ColProfileType, ColCommitmentCount, ColCreatedAt,
}

// Query is a select-with-projection request. Zero Limit means unbounded.
type Query struct {
	Columns    []string
	Filter     map[string]any
	OrderBy    string
	Descending bool
	Limit      int
}

// Validate rejects column names outside the pledge schema so adapters can
// interpolate them safely.
func (q Query) Validate() error {
	check := func(c string) error {
		if !slices.Contains(AllColumns, c) {
			return fmt.Errorf("unknown column %q", c)
		}
		return nil
	}
	for _, c := range q.Columns {
		if err := check(c); err != nil {
			return err
		}
	}
	for c := range q.Filter {
		if err := check(c); err != nil {
			return err
		}
	}
	if q.OrderBy != "" {
		if err := check(q.OrderBy); err != nil {
			return err
		}
	}
	if q.Limit < 0 {
		return fmt.Errorf("negative limit %d", q.Limit)
	}
	return nil
}

// Projection returns the requested columns, or every column when none were named.
func (q Query) Projection() []string {
	if len(q.Columns) == 0 {
		return AllColumns
	}
	return q.Columns
}

// PledgeStore defines persistence operations. Pledges are insert-only.
type PledgeStore interface {
	// Insert stores p atomically and fills in p.ID and p.CreatedAt.
	Insert(ctx context.Context, p *domain.Pledge) error
	Select(ctx context.Context, q Query) ([]domain.Pledge, error)
	Get(ctx context.Context, id string) (*domain.Pledge, error)
	Close() error
}

// ChangeFeed is the row-change notification channel.
type ChangeFeed interface {
	Subscribe(table string, filter feed.Filter, fn func(feed.Event)) *feed.Subscription
	Unsubscribe(sub *feed.Subscription)
}

// CertificateRenderer defines the certificate export port.
type CertificateRenderer interface {
	Render(ctx context.Context, c certificate.Certificate, w io.Writer) error
	ContentType() string
	Extension() string
}
