package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/csg33k/pledge-wall/internal/domain"
	"github.com/csg33k/pledge-wall/internal/ports"
)

//go:embed schema.sql
var schema string

type Repository struct {
	db  *sql.DB
	now func() time.Time
}

// New opens the SQLite database. In deployments the schema is managed by
// dbmate (db/migrations/sqlite); Migrate applies the same DDL for local runs
// and tests.
func New(dsn string) (*Repository, error) {
	db, err := sql.Open("sqlite3", dsn+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}
	if strings.Contains(dsn, ":memory:") {
		// Every pooled connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}
	return &Repository{db: db, now: time.Now}, nil
}

// Migrate creates the pledges table when missing.
func (r *Repository) Migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, schema)
	return err
}

func (r *Repository) Close() error { return r.db.Close() }

// ── Pledges ───────────────────────────────────────────────────────────────────

func (r *Repository) Insert(ctx context.Context, p *domain.Pledge) error {
	commitments, err := json.Marshal(nonNil(p.Commitments))
	if err != nil {
		return fmt.Errorf("encode commitments: %w", err)
	}
	id := uuid.NewString()
	createdAt := r.now().UTC()
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO pledges (
			id, name, email, mobile, state,
			profile_type, commitments, commitment_count, created_at
		) VALUES (?,?,?,?,?,?,?,?,?)`,
		id, p.Name, p.Email, p.Mobile, p.State,
		p.ProfileType.String(), string(commitments), p.CommitmentCount, createdAt,
	)
	if err != nil {
		return fmt.Errorf("insert pledge: %w: %w", domain.ErrStore, err)
	}
	p.ID = id
	p.CreatedAt = createdAt
	return nil
}

func (r *Repository) Get(ctx context.Context, id string) (*domain.Pledge, error) {
	rows, err := r.Select(ctx, ports.Query{
		Filter: map[string]any{ports.ColID: id},
		Limit:  1,
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, domain.ErrNotFound
	}
	return &rows[0], nil
}

func (r *Repository) Select(ctx context.Context, q ports.Query) ([]domain.Pledge, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("select pledges: %w: %w", domain.ErrStore, err)
	}
	query, args := buildSelect(q)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select pledges: %w: %w", domain.ErrStore, err)
	}
	defer rows.Close()

	cols := q.Projection()
	var list []domain.Pledge
	for rows.Next() {
		var (
			p           domain.Pledge
			profileType string
			commitments string
		)
		dest := make([]any, len(cols))
		for i, c := range cols {
			switch c {
			case ports.ColID:
				dest[i] = &p.ID
			case ports.ColName:
				dest[i] = &p.Name
			case ports.ColEmail:
				dest[i] = &p.Email
			case ports.ColMobile:
				dest[i] = &p.Mobile
			case ports.ColState:
				dest[i] = &p.State
			case ports.ColProfileType:
				dest[i] = &profileType
			case ports.ColCommitments:
				dest[i] = &commitments
			case ports.ColCommitmentCount:
				dest[i] = &p.CommitmentCount
			case ports.ColCreatedAt:
				dest[i] = &p.CreatedAt
			}
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan pledge: %w: %w", domain.ErrStore, err)
		}
		if slices.Contains(cols, ports.ColProfileType) {
			if p.ProfileType, err = domain.ParseProfileType(profileType); err != nil {
				return nil, fmt.Errorf("scan pledge %s: %w: %w", p.ID, domain.ErrStore, err)
			}
		}
		if commitments != "" {
			if err := json.Unmarshal([]byte(commitments), &p.Commitments); err != nil {
				return nil, fmt.Errorf("decode commitments: %w: %w", domain.ErrStore, err)
			}
		}
		list = append(list, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("select pledges: %w: %w", domain.ErrStore, err)
	}
	return list, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// buildSelect renders q as SQL. Column names were validated against the
// schema, so interpolating them is safe; values are always bound.
func buildSelect(q ports.Query) (string, []any) {
	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(q.Projection(), ", "))
	b.WriteString(" FROM pledges")

	var args []any
	if len(q.Filter) > 0 {
		keys := make([]string, 0, len(q.Filter))
		for k := range q.Filter {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		conds := make([]string, len(keys))
		for i, k := range keys {
			conds[i] = k + " = ?"
			args = append(args, filterValue(q.Filter[k]))
		}
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(conds, " AND "))
	}
	if q.OrderBy != "" {
		b.WriteString(" ORDER BY ")
		b.WriteString(q.OrderBy)
		if q.Descending {
			b.WriteString(" DESC")
		}
	}
	if q.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", q.Limit)
	}
	return b.String(), args
}

func filterValue(v any) any {
	if pt, ok := v.(domain.ProfileType); ok {
		return pt.String()
	}
	return v
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

var _ ports.PledgeStore = (*Repository)(nil)
