package domain

import (
	"slices"
	"strings"
	"time"
)

// PledgeTable is the store table (and change-feed topic) holding pledges.
const PledgeTable = "pledges"

// Target is the campaign goal the live dashboard measures against.
const Target = 1_000_000

// PageSize is the number of pledges shown on the public wall.
const PageSize = 50

// MaxHearts caps the "love for planet" rating shown for a pledge.
const MaxHearts = 5

// Pledge is one persisted commitment record. It is immutable once inserted;
// ID and CreatedAt are assigned by the store.
type Pledge struct {
	ID              string
	Name            string
	Email           string // never rendered publicly
	Mobile          string // never rendered publicly
	State           string
	ProfileType     ProfileType
	Commitments     []string
	CommitmentCount int // len(Commitments) at insert time, never recomputed
	CreatedAt       time.Time
}

// Draft is the unsaved form value held by the form controller.
type Draft struct {
	Name        string
	Email       string
	Mobile      string
	State       string
	ProfileType ProfileType
	Commitments []string
}

// NewDraft returns an empty draft with the default profile selected.
func NewDraft() Draft {
	return Draft{ProfileType: Student}
}

// Clone returns a copy that shares no memory with d.
func (d Draft) Clone() Draft {
	d.Commitments = slices.Clone(d.Commitments)
	return d
}

// HasCommitment reports whether item is currently selected.
func (d *Draft) HasCommitment(item string) bool {
	return slices.Contains(d.Commitments, item)
}

// ToggleCommitment adds item when absent and removes it when present.
func (d *Draft) ToggleCommitment(item string) {
	if i := slices.Index(d.Commitments, item); i >= 0 {
		d.Commitments = slices.Delete(d.Commitments, i, i+1)
		return
	}
	d.Commitments = append(d.Commitments, item)
}

// Pledge builds the insert payload for d. CommitmentCount is derived here and
// nowhere else.
func (d Draft) Pledge() *Pledge {
	c := d.Clone()
	return &Pledge{
		Name:            strings.TrimSpace(c.Name),
		Email:           strings.TrimSpace(c.Email),
		Mobile:          strings.TrimSpace(c.Mobile),
		State:           strings.TrimSpace(c.State),
		ProfileType:     c.ProfileType,
		Commitments:     c.Commitments,
		CommitmentCount: len(c.Commitments),
	}
}

// Draft converts a stored pledge back into the read-only snapshot used for
// certificates.
func (p *Pledge) Draft() Draft {
	return Draft{
		Name:        p.Name,
		Email:       p.Email,
		Mobile:      p.Mobile,
		State:       p.State,
		ProfileType: p.ProfileType,
		Commitments: slices.Clone(p.Commitments),
	}
}
