package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/oddslock/oddslock/internal/builder"
	"github.com/oddslock/oddslock/internal/classifier"
	"github.com/oddslock/oddslock/internal/config"
	"github.com/oddslock/oddslock/internal/engine"
	"github.com/oddslock/oddslock/internal/metrics"
	"github.com/oddslock/oddslock/internal/persistence"
	"github.com/oddslock/oddslock/internal/persistence/postgres"
	"github.com/oddslock/oddslock/internal/replay"
	"github.com/oddslock/oddslock/internal/validator"
	"github.com/oddslock/oddslock/internal/version"
)

const appName = "OddsLock"

// gitCommit is stamped at build time via -ldflags.
var gitCommit = "unknown"

var configPath string

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	rootCmd := &cobra.Command{
		Use:     "oddslock",
		Short:   "Decision lock engine for sports betting markets",
		Version: version.EngineVersion,
		Long: appName + ` turns per-market simulation and odds signals into a single,
versioned, invariant-checked decision object. Re-running the same inputs
yields a byte-identical result; decisions that violate structural
integrity are blocked before they reach a consumer.`,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config (defaults compiled in)")

	rootCmd.AddCommand(newDecideCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newCacheCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

// runtime bundles the process-wide collaborators, constructed once and
// injected everywhere (no ambient globals).
type runtime struct {
	cfg     config.Config
	engine  *engine.Engine
	cache   *replay.Cache
	verman  *version.Manager
	audit   persistence.AuditRepo
	metrics *metrics.Registry
	close   func()
}

// buildRuntime assembles the dependency graph from config.
func buildRuntime(ctx context.Context) (*runtime, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	applyLogLevel(cfg.LogLevel)

	table := classifier.DefaultThresholds()
	if cfg.ThresholdsPath != "" {
		table, err = classifier.LoadThresholds(cfg.ThresholdsPath)
		if err != nil {
			return nil, err
		}
	}
	cls, err := classifier.New(table)
	if err != nil {
		return nil, err
	}

	var store replay.Store = replay.NewMemoryStore()
	if cfg.Redis.Addr != "" {
		store = replay.NewRedisStore(cfg.Redis.Addr, cfg.RedisTimeout())
	}
	cache := replay.NewCache(store, log.Logger)

	var (
		verStore version.Store = version.NewFileStore(cfg.StateDir)
		audit    persistence.AuditRepo
		closeFn  = func() {}
	)
	if cfg.Postgres.DSN != "" {
		db, err := sqlx.Open("postgres", cfg.Postgres.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres: %w", err)
		}
		verStore = postgres.NewVersionRepo(db, cfg.PostgresTimeout())
		audit = postgres.NewAuditRepo(db, cfg.PostgresTimeout())
		closeFn = func() { _ = db.Close() }
	}

	verman := version.NewManager(ctx, verStore, gitCommit, log.Logger)
	reg := metrics.NewRegistry()

	eng := engine.New(engine.Deps{
		Classifier: cls,
		Builder:    builder.New(),
		Validator:  validator.New(),
		Cache:      cache,
		Versions:   verman,
		Audit:      audit,
		Metrics:    reg,
		Log:        log.Logger,
	})

	return &runtime{
		cfg:     cfg,
		engine:  eng,
		cache:   cache,
		verman:  verman,
		audit:   audit,
		metrics: reg,
		close:   closeFn,
	}, nil
}

func applyLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
