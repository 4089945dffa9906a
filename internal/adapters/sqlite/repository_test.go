package sqlite

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/csg33k/pledge-wall/internal/domain"
	"github.com/csg33k/pledge-wall/internal/ports"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	r, err := New(":memory:")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	if err := r.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	// Deterministic, strictly increasing timestamps.
	base := time.Date(2026, time.January, 1, 12, 0, 0, 0, time.UTC)
	n := 0
	r.now = func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	}
	return r
}

func samplePledge(name string, pt domain.ProfileType, commitments ...string) *domain.Pledge {
	d := domain.Draft{
		Name:        name,
		Email:       "someone@example.com",
		Mobile:      "555-0100",
		State:       "CA",
		ProfileType: pt,
		Commitments: commitments,
	}
	return d.Pledge()
}

func TestInsertAssignsIDAndCreatedAt(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	p := samplePledge("Ada Lovelace", domain.Student,
		"Compost organic waste regularly", "Cycle or walk for short distances")

	if err := r.Insert(ctx, p); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if p.ID == "" || p.CreatedAt.IsZero() {
		t.Fatalf("store did not assign id/created_at: %+v", p)
	}

	got, err := r.Get(ctx, p.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "Ada Lovelace" || got.ProfileType != domain.Student || got.CommitmentCount != 2 {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if len(got.Commitments) != 2 || got.Commitments[1] != "Cycle or walk for short distances" {
		t.Errorf("commitments = %v", got.Commitments)
	}
	if !got.CreatedAt.Equal(p.CreatedAt) {
		t.Errorf("created_at = %v want %v", got.CreatedAt, p.CreatedAt)
	}
}

func TestGetNotFound(t *testing.T) {
	r := newTestRepo(t)
	_, err := r.Get(context.Background(), "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestInsertRejectedByConstraints(t *testing.T) {
	r := newTestRepo(t)
	p := samplePledge("No Commitments", domain.Other)
	err := r.Insert(context.Background(), p)
	if !errors.Is(err, domain.ErrStore) {
		t.Fatalf("err = %v, want ErrStore", err)
	}
	if p.ID != "" {
		t.Error("failed insert must not assign an id")
	}
}

func TestSelectProjectionOrderLimit(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if err := r.Insert(ctx, samplePledge(fmt.Sprintf("p%d", i), domain.Student, "Eliminate single-use plastics")); err != nil {
			t.Fatal(err)
		}
	}

	rows, err := r.Select(ctx, ports.Query{
		Columns:    ports.PublicColumns,
		OrderBy:    ports.ColCreatedAt,
		Descending: true,
		Limit:      3,
	})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("len = %d want 3", len(rows))
	}
	for i, want := range []string{"p4", "p3", "p2"} {
		if rows[i].Name != want {
			t.Errorf("rows[%d] = %s want %s", i, rows[i].Name, want)
		}
		if rows[i].Email != "" || rows[i].Mobile != "" {
			t.Errorf("public projection leaked contact details: %+v", rows[i])
		}
	}
}

func TestSelectFilter(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()
	for _, pt := range []domain.ProfileType{domain.Student, domain.Other, domain.Student} {
		if err := r.Insert(ctx, samplePledge("x", pt, "Eliminate single-use plastics")); err != nil {
			t.Fatal(err)
		}
	}
	rows, err := r.Select(ctx, ports.Query{
		Columns: []string{ports.ColProfileType},
		Filter:  map[string]any{ports.ColProfileType: domain.Student},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("len = %d want 2", len(rows))
	}
}

func TestSelectRejectsUnknownColumn(t *testing.T) {
	r := newTestRepo(t)
	_, err := r.Select(context.Background(), ports.Query{Columns: []string{"name; DROP TABLE pledges"}})
	if !errors.Is(err, domain.ErrStore) {
		t.Fatalf("err = %v", err)
	}
}

func TestBuildSelect(t *testing.T) {
	q := ports.Query{
		Columns:    []string{ports.ColID, ports.ColName},
		Filter:     map[string]any{ports.ColState: "CA", ports.ColName: "Ada"},
		OrderBy:    ports.ColCreatedAt,
		Descending: true,
		Limit:      50,
	}
	sql, args := buildSelect(q)
	want := "SELECT id, name FROM pledges WHERE name = ? AND state = ? ORDER BY created_at DESC LIMIT 50"
	if sql != want {
		t.Errorf("sql =\n%s\nwant\n%s", sql, want)
	}
	if len(args) != 2 || args[0] != "Ada" || args[1] != "CA" {
		t.Errorf("args = %v", args)
	}
}
