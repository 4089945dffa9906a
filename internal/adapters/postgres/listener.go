package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/csg33k/pledge-wall/internal/feed"
	"github.com/csg33k/pledge-wall/internal/platform/logger"
)

// Listener holds a dedicated connection in LISTEN mode and republishes every
// trigger notification on the in-process broker.
type Listener struct {
	dsn     string
	channel string
	pub     feed.Publisher
	log     *logger.Logger
	backoff time.Duration
	now     func() time.Time
}

func NewListener(dsn string, pub feed.Publisher, log *logger.Logger) *Listener {
	if log == nil {
		log = logger.Nop()
	}
	return &Listener{
		dsn:     dsn,
		channel: NotifyChannel,
		pub:     pub,
		log:     log.With("service", "PostgresListener"),
		backoff: 2 * time.Second,
		now:     time.Now,
	}
}

// Run listens until ctx is cancelled, reconnecting after connection loss.
// Notifications sent while disconnected are lost; subscribers catch up on
// their next refresh.
func (l *Listener) Run(ctx context.Context) error {
	for {
		err := l.listen(ctx)
		if ctx.Err() != nil {
			return nil
		}
		l.log.Warn("listener disconnected, retrying", "error", err, "backoff", l.backoff)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(l.backoff):
		}
	}
}

func (l *Listener) listen(ctx context.Context) error {
	conn, err := pgx.Connect(ctx, l.dsn)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{l.channel}.Sanitize()); err != nil {
		return fmt.Errorf("listen %s: %w", l.channel, err)
	}
	l.log.Info("listening for pledge changes", "channel", l.channel)

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return err
		}
		ev, err := ParseNotification(n.Payload, l.now())
		if err != nil {
			l.log.Warn("bad notification payload", "error", err, "payload", n.Payload)
			continue
		}
		if err := l.pub.Publish(ctx, ev); err != nil {
			return fmt.Errorf("publish: %w", err)
		}
	}
}

type notification struct {
	Table string `json:"table"`
	Op    string `json:"op"`
	ID    string `json:"id"`
}

// ParseNotification decodes the trigger payload
// {"table": "...", "op": "INSERT", "id": "..."} into a feed event.
func ParseNotification(payload string, at time.Time) (feed.Event, error) {
	var n notification
	if err := json.Unmarshal([]byte(payload), &n); err != nil {
		return feed.Event{}, fmt.Errorf("decode notification: %w", err)
	}
	if n.Table == "" {
		return feed.Event{}, fmt.Errorf("notification without table")
	}
	op, err := feed.ParseOp(n.Op)
	if err != nil {
		return feed.Event{}, err
	}
	return feed.Event{Table: n.Table, Op: op, ID: n.ID, At: at, Origin: "postgres"}, nil
}
