// Package postgres is the production pledge store. Rows go through gorm; the
// change feed is fed by a pg_notify trigger that Listener relays to the
// in-process broker.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/csg33k/pledge-wall/internal/domain"
	"github.com/csg33k/pledge-wall/internal/platform/logger"
	"github.com/csg33k/pledge-wall/internal/ports"
)

// NotifyChannel is the pg_notify channel written by the pledges trigger.
const NotifyChannel = "pledges_changes"

type pledgeRow struct {
	ID              string    `gorm:"type:uuid;primaryKey"`
	Name            string    `gorm:"not null;check:name <> ''"`
	Email           string    `gorm:"not null;check:email <> ''"`
	Mobile          string    `gorm:"not null;check:mobile <> ''"`
	State           string    `gorm:"not null;default:''"`
	ProfileType     string    `gorm:"not null"`
	Commitments     []string  `gorm:"type:jsonb;serializer:json;not null"`
	CommitmentCount int       `gorm:"not null;check:commitment_count > 0"`
	CreatedAt       time.Time `gorm:"not null;index:pledges_created_at_idx,sort:desc"`
}

func (pledgeRow) TableName() string { return domain.PledgeTable }

func (r *pledgeRow) BeforeCreate(*gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

func (r *pledgeRow) toDomain() (domain.Pledge, error) {
	p := domain.Pledge{
		ID:              r.ID,
		Name:            r.Name,
		Email:           r.Email,
		Mobile:          r.Mobile,
		State:           r.State,
		Commitments:     r.Commitments,
		CommitmentCount: r.CommitmentCount,
		CreatedAt:       r.CreatedAt,
	}
	if r.ProfileType != "" {
		pt, err := domain.ParseProfileType(r.ProfileType)
		if err != nil {
			return p, err
		}
		p.ProfileType = pt
	}
	return p, nil
}

const triggerSQL = `
CREATE OR REPLACE FUNCTION notify_pledges_changes() RETURNS trigger AS $$
BEGIN
    PERFORM pg_notify('` + NotifyChannel + `', json_build_object(
        'table', TG_TABLE_NAME,
        'op', TG_OP,
        'id', COALESCE(NEW.id, OLD.id)
    )::text);
    RETURN NULL;
END;
$$ LANGUAGE plpgsql;

DROP TRIGGER IF EXISTS pledges_changes ON pledges;
CREATE TRIGGER pledges_changes
AFTER INSERT OR UPDATE OR DELETE ON pledges
FOR EACH ROW EXECUTE FUNCTION notify_pledges_changes();`

type Store struct {
	db  *gorm.DB
	log *logger.Logger
	now func() time.Time
}

// Open connects to Postgres at dsn.
func Open(dsn string, log *logger.Logger) (*Store, error) {
	return NewWithDialector(postgres.Open(dsn), log)
}

// NewWithDialector builds a store on any gorm dialector. Tests pass an
// in-memory SQLite dialector.
func NewWithDialector(d gorm.Dialector, logg *logger.Logger) (*Store, error) {
	if logg == nil {
		logg = logger.Nop()
	}
	gormLog := gormLogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(d, &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", d.Name(), err)
	}
	if d.Name() == "sqlite" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return &Store{db: db, log: logg.With("service", "PostgresStore"), now: time.Now}, nil
}

// Migrate creates the pledges table and, on Postgres, the NOTIFY trigger.
func (s *Store) Migrate(ctx context.Context) error {
	db := s.db.WithContext(ctx)
	if err := db.AutoMigrate(&pledgeRow{}); err != nil {
		return fmt.Errorf("auto-migrate pledges: %w", err)
	}
	if s.db.Dialector.Name() != "postgres" {
		return nil
	}
	if err := db.Exec(triggerSQL).Error; err != nil {
		return fmt.Errorf("install pledges trigger: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) Insert(ctx context.Context, p *domain.Pledge) error {
	commitments := p.Commitments
	if commitments == nil {
		commitments = []string{}
	}
	row := pledgeRow{
		Name:            p.Name,
		Email:           p.Email,
		Mobile:          p.Mobile,
		State:           p.State,
		ProfileType:     p.ProfileType.String(),
		Commitments:     commitments,
		CommitmentCount: p.CommitmentCount,
		CreatedAt:       s.now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		s.log.Warn("insert pledge failed", "error", err)
		return mapError("insert pledge", err)
	}
	p.ID = row.ID
	p.CreatedAt = row.CreatedAt
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*domain.Pledge, error) {
	var row pledgeRow
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, mapError("get pledge", err)
	}
	p, err := row.toDomain()
	if err != nil {
		return nil, mapError("get pledge", err)
	}
	return &p, nil
}

func (s *Store) Select(ctx context.Context, q ports.Query) ([]domain.Pledge, error) {
	if err := q.Validate(); err != nil {
		return nil, mapError("select pledges", err)
	}
	tx := s.db.WithContext(ctx).Model(&pledgeRow{}).Select(q.Projection())

	keys := make([]string, 0, len(q.Filter))
	for k := range q.Filter {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		tx = tx.Where(k+" = ?", filterValue(q.Filter[k]))
	}
	if q.OrderBy != "" {
		order := q.OrderBy
		if q.Descending {
			order += " DESC"
		}
		tx = tx.Order(order)
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}

	var rows []pledgeRow
	if err := tx.Find(&rows).Error; err != nil {
		return nil, mapError("select pledges", err)
	}
	out := make([]domain.Pledge, 0, len(rows))
	for i := range rows {
		p, err := rows[i].toDomain()
		if err != nil {
			return nil, mapError("select pledges", err)
		}
		out = append(out, p)
	}
	return out, nil
}

func filterValue(v any) any {
	if pt, ok := v.(domain.ProfileType); ok {
		return pt.String()
	}
	return v
}

// mapError folds driver failures into the domain sentinels.
func mapError(op string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch strings.TrimSpace(pgErr.Code) {
		case "23514":
			return fmt.Errorf("%s: %w: check violation %s: %w", op, domain.ErrStore, pgErr.ConstraintName, err)
		case "23505":
			return fmt.Errorf("%s: %w: duplicate key: %w", op, domain.ErrStore, err)
		}
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStore, err)
}

var _ ports.PledgeStore = (*Store)(nil)
