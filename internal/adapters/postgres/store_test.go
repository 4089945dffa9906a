package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"

	"github.com/csg33k/pledge-wall/internal/domain"
	"github.com/csg33k/pledge-wall/internal/feed"
	"github.com/csg33k/pledge-wall/internal/ports"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewWithDialector(sqlite.Open(":memory:"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(context.Background()))

	base := time.Date(2026, time.February, 1, 9, 0, 0, 0, time.UTC)
	n := 0
	s.now = func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Minute)
	}
	return s
}

func draft(name string, pt domain.ProfileType, commitments ...string) *domain.Pledge {
	return domain.Draft{
		Name:        name,
		Email:       name + "@example.com",
		Mobile:      "555-0101",
		ProfileType: pt,
		Commitments: commitments,
	}.Pledge()
}

func TestStoreInsertAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := draft("Grace", domain.WorkingProfessional,
		"Use energy-efficient appliances", "Practice recycling and upcycling", "Eliminate single-use plastics")
	require.NoError(t, s.Insert(ctx, p))
	require.NotEmpty(t, p.ID)

	got, err := s.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Grace", got.Name)
	assert.Equal(t, domain.WorkingProfessional, got.ProfileType)
	assert.Equal(t, 3, got.CommitmentCount)
	assert.Equal(t, p.Commitments, got.Commitments)
	assert.True(t, got.CreatedAt.Equal(p.CreatedAt))
}

func TestStoreGetMissing(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Get(context.Background(), "00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStoreRejectsEmptyCommitments(t *testing.T) {
	s := newTestStore(t)
	p := draft("Nobody", domain.Other)
	err := s.Insert(context.Background(), p)
	assert.ErrorIs(t, err, domain.ErrStore)
	assert.Empty(t, p.ID)
}

func TestStoreSelectNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for i := 0; i < 4; i++ {
		require.NoError(t, s.Insert(ctx, draft(fmt.Sprintf("p%d", i), domain.Student, "Compost organic waste regularly")))
	}

	rows, err := s.Select(ctx, ports.Query{
		Columns:    ports.PublicColumns,
		OrderBy:    ports.ColCreatedAt,
		Descending: true,
		Limit:      2,
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "p3", rows[0].Name)
	assert.Equal(t, "p2", rows[1].Name)
	assert.Empty(t, rows[0].Email, "public projection must not carry contact details")
	assert.Equal(t, 1, rows[0].CommitmentCount)
}

func TestStoreSelectProfileFilter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for _, pt := range []domain.ProfileType{domain.Student, domain.Other, domain.Other} {
		require.NoError(t, s.Insert(ctx, draft("x", pt, "Switch to renewable energy sources")))
	}
	rows, err := s.Select(ctx, ports.Query{
		Columns: []string{ports.ColProfileType},
		Filter:  map[string]any{ports.ColProfileType: domain.Other},
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, r := range rows {
		assert.Equal(t, domain.Other, r.ProfileType)
	}
}

func TestStoreSelectUnknownColumn(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Select(context.Background(), ports.Query{OrderBy: "1; --"})
	assert.ErrorIs(t, err, domain.ErrStore)
}

func TestMapError(t *testing.T) {
	err := mapError("op", errors.New("boom"))
	assert.ErrorIs(t, err, domain.ErrStore)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
}

func TestParseNotification(t *testing.T) {
	at := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	ev, err := ParseNotification(`{"table":"pledges","op":"INSERT","id":"abc"}`, at)
	require.NoError(t, err)
	assert.Equal(t, feed.Event{Table: "pledges", Op: feed.Insert, ID: "abc", At: at, Origin: "postgres"}, ev)

	for _, bad := range []string{
		`not json`,
		`{"op":"INSERT"}`,
		`{"table":"pledges","op":"TRUNCATE"}`,
	} {
		_, err := ParseNotification(bad, at)
		assert.Error(t, err, bad)
	}
}
