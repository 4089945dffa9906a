package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/csg33k/pledge-wall/internal/adapters/postgres"
	"github.com/csg33k/pledge-wall/internal/adapters/sqlite"
	"github.com/csg33k/pledge-wall/internal/config"
	"github.com/csg33k/pledge-wall/internal/platform/logger"
	"github.com/csg33k/pledge-wall/internal/ports"
)

const programName = "pledgewall"

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "dev"

var configFile string

// store is a pledge store that can create its own schema.
type store interface {
	ports.PledgeStore
	Migrate(ctx context.Context) error
}

// commonRun loads configuration and builds the process logger.
func commonRun() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build logger: %w", err)
	}
	log = log.With("component", programName, "instance", cfg.InstanceID)
	if _, err := maxprocs.Set(maxprocs.Logger(func(format string, v ...interface{}) {
		log.Info(fmt.Sprintf(format, v...))
	})); err != nil {
		log.Warn("failed to set GOMAXPROCS", "error", err)
	}
	return cfg, log, nil
}

// openStore opens the configured database and applies the schema.
func openStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (store, error) {
	var (
		s   store
		err error
	)
	switch cfg.DBDriver {
	case config.DriverPostgres:
		s, err = postgres.Open(cfg.DatabaseURL, log)
	default:
		s, err = sqlite.New(cfg.DBPath)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := s.Migrate(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return s, nil
}

func main() {
	rootCmd := &cobra.Command{
		Use:           programName,
		Short:         "Climate action pledge wall",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serveRun(cmd)
		},
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "path to YAML config file")

	rootCmd.AddCommand(serveCommand())
	rootCmd.AddCommand(migrateCommand())
	rootCmd.AddCommand(certificateCommand())
	rootCmd.AddCommand(versionCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), programName, Version)
		},
	}
}

func migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the pledges table (and the change trigger on Postgres)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := commonRun()
			if err != nil {
				return err
			}
			defer log.Sync()
			s, err := openStore(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer s.Close()
			log.Info("database migrated", "driver", cfg.DBDriver)
			return nil
		},
	}
}
