package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/csg33k/pledge-wall/internal/adapters/notify"
	"github.com/csg33k/pledge-wall/internal/adapters/pdf"
	"github.com/csg33k/pledge-wall/internal/adapters/postgres"
	"github.com/csg33k/pledge-wall/internal/adapters/raster"
	"github.com/csg33k/pledge-wall/internal/adapters/redisbus"
	"github.com/csg33k/pledge-wall/internal/config"
	"github.com/csg33k/pledge-wall/internal/feed"
	"github.com/csg33k/pledge-wall/internal/handlers"
	"github.com/csg33k/pledge-wall/internal/platform/logger"
	"github.com/csg33k/pledge-wall/internal/platform/metrics"
	"github.com/csg33k/pledge-wall/internal/platform/telemetry"
	"github.com/csg33k/pledge-wall/internal/pledge"
	"github.com/csg33k/pledge-wall/internal/ports"
)

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the pledge wall web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serveRun(cmd)
		},
	}
}

func serveRun(cmd *cobra.Command) error {
	cfg, log, err := commonRun()
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Init(ctx, log, telemetry.Config{
		Stdout:       cfg.TracingStdout,
		OTLPEndpoint: cfg.OTLPEndpoint,
		Insecure:     cfg.OTLPInsecure,
		Version:      Version,
	})
	if err != nil {
		log.Warn("tracing disabled", "error", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Warn("failed to flush traces", "error", err)
		}
	}()

	m := metrics.New()

	db, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()

	broker := feed.NewBroker(log, feed.WithPublishHook(func(ev feed.Event) {
		m.IncFeedEvent(ev.Table, string(ev.Op))
	}))
	defer broker.Close()

	g, gctx := errgroup.WithContext(ctx)

	s, err := wireFeed(gctx, g, cfg, log, db, broker)
	if err != nil {
		return err
	}

	opts := []pledge.Option{pledge.WithLogger(log), pledge.WithMetrics(m)}
	stats := pledge.NewAggregator(s, broker, opts...)
	wall := pledge.NewWall(s, broker, opts...)
	stats.Start(gctx)
	defer stats.Stop()
	wall.Start(gctx)
	defer wall.Stop()

	png, err := raster.New(raster.WithFontFiles(cfg.FontPath, cfg.FontBoldPath))
	if err != nil {
		return err
	}

	h := handlers.New(handlers.Deps{
		Store:         s,
		Stats:         stats,
		Wall:          wall,
		PNG:           png,
		PDF:           pdf.New(),
		Log:           log,
		Metrics:       m,
		SubmitTimeout: cfg.SubmitTimeout,
	})
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           h.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		log.Info("pledge wall running", "addr", "http://localhost"+cfg.Addr(), "driver", cfg.DBDriver, "feed", cfg.FeedMode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}

// wireFeed connects the configured change source to the in-process broker
// and returns the store the application should write through.
//
//	local:    inserts publish straight to the broker
//	postgres: a trigger NOTIFYs every insert; a listener relays it
//	redis:    inserts publish to a redis channel every instance forwards
func wireFeed(ctx context.Context, g *errgroup.Group, cfg *config.Config, log *logger.Logger, db ports.PledgeStore, broker *feed.Broker) (ports.PledgeStore, error) {
	switch cfg.FeedMode {
	case config.FeedPostgres:
		l := postgres.NewListener(cfg.DatabaseURL, broker, log)
		g.Go(func() error { return l.Run(ctx) })
		return db, nil
	case config.FeedRedis:
		bus, err := redisbus.New(cfg.RedisAddr, cfg.RedisChannel, log)
		if err != nil {
			return nil, err
		}
		if err := bus.StartForwarder(ctx, func(ev feed.Event) {
			if err := broker.Publish(ctx, ev); err != nil {
				log.Warn("failed to forward change event", "error", err)
			}
		}); err != nil {
			bus.Close()
			return nil, err
		}
		g.Go(func() error {
			<-ctx.Done()
			return bus.Close()
		})
		return notify.Wrap(db, bus, cfg.InstanceID, log), nil
	default:
		return notify.Wrap(db, broker, cfg.InstanceID, log), nil
	}
}
