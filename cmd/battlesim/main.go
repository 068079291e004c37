package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/udisondev/wasteland/internal/combatsim"
	"github.com/udisondev/wasteland/internal/config"
	"github.com/udisondev/wasteland/internal/db"
)

const ConfigPath = "config/wasteland.yaml"

// StatusInterval is how often performance diagnostics are logged during a run.
const StatusInterval = 5 * time.Second

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfgPath := ConfigPath
	if p := os.Getenv("WASTELAND_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	})))
	slog.Info("wasteland battle simulator starting",
		"config", cfgPath,
		"log_level", cfg.LogLevel,
		"encounters", cfg.Simulation.Encounters)

	var store combatsim.Store
	if cfg.Database.Enabled {
		database, err := db.New(ctx, cfg.Database.DSN())
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer database.Close()
		slog.Info("database connected")

		if err := db.RunMigrations(ctx, cfg.Database.DSN()); err != nil {
			return fmt.Errorf("running migrations: %w", err)
		}
		slog.Info("database migrations applied")

		store = combatsim.NewPostgresStore(
			db.NewPlayerRepository(database.Pool()),
			db.NewBattleRepository(database.Pool()),
		)
	}

	sim, err := combatsim.New(cfg, store)
	if err != nil {
		return fmt.Errorf("creating simulator: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	runCtx, stop := context.WithCancel(gctx)
	g.Go(func() error {
		defer stop()
		return sim.Run(runCtx)
	})
	g.Go(func() error {
		reportStatus(runCtx, sim, StatusInterval)
		return nil
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("simulation: %w", err)
	}

	sum := sim.Summary()
	slog.Info("simulation finished",
		"encounters", sum.Encounters,
		"victories", sum.Outcomes["victory"],
		"defeats", sum.Outcomes["defeat"],
		"retreats", sum.Outcomes["retreated"],
		"skipped", sum.Skipped,
		"experience", sum.Experience,
		"avgTurns", sum.AvgTurns())
	return nil
}

// reportStatus logs pool, cache and loader diagnostics until ctx is done.
func reportStatus(ctx context.Context, sim *combatsim.Simulator, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if sim.Perf().Initialized() {
				sim.Perf().LogStatus()
			}
		}
	}
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
