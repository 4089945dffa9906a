// Package feed is the in-process change-notification channel. Store adapters
// (or the Postgres/Redis bridges) publish row-change events; view models
// subscribe per table and refetch when something changes.
package feed

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Op is the kind of row change.
type Op string

const (
	Insert Op = "INSERT"
	Update Op = "UPDATE"
	Delete Op = "DELETE"
)

// ParseOp accepts the TG_OP spelling used by Postgres triggers.
func ParseOp(s string) (Op, error) {
	switch Op(strings.ToUpper(strings.TrimSpace(s))) {
	case Insert:
		return Insert, nil
	case Update:
		return Update, nil
	case Delete:
		return Delete, nil
	}
	return "", fmt.Errorf("unknown op %q", s)
}

// Filter selects which ops a subscription receives.
type Filter string

// AnyOp matches inserts, updates and deletes.
const AnyOp Filter = "*"

// Only matches a single op.
func Only(op Op) Filter { return Filter(op) }

// Match reports whether op passes the filter.
func (f Filter) Match(op Op) bool {
	return f == AnyOp || Filter(op) == f
}

// Event describes one row change.
type Event struct {
	Table  string    `json:"table"`
	Op     Op        `json:"op"`
	ID     string    `json:"id,omitempty"`
	At     time.Time `json:"at"`
	Origin string    `json:"origin,omitempty"`
}

// Publisher accepts change events.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}
