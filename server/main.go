package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/meikuraledutech/process"
	"github.com/meikuraledutech/process/config"
	"github.com/meikuraledutech/process/postgres"
	"github.com/meikuraledutech/process/shapes"
	"github.com/meikuraledutech/process/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger := cfg.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer closeStore()

	labels, err := shapes.NewCatalog(cfg.Locale, shapes.English)
	if err != nil {
		log.Fatalf("labels: %v", err)
	}

	app := newServer(store, labels, cfg.Serializer(), logger).routes()

	go func() {
		<-ctx.Done()
		logger.Info("Shutting down.")
		if err := app.ShutdownWithTimeout(cfg.ShutdownTimeout); err != nil {
			logger.Error("Shutdown failed.", "error", err)
		}
	}()

	logger.Info("Listening.", "addr", cfg.ListenAddr, "store", cfg.StoreDriver)
	if err := app.Listen(cfg.ListenAddr, fiber.ListenConfig{DisableStartupMessage: true}); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal(err)
	}
}

// openStore connects the configured store. The sqlite schema is created on
// start; postgres keeps it behind POST /schema.
func openStore(ctx context.Context, cfg *config.Config) (process.Store, func(), error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return postgres.New(pool), pool.Close, nil
	default:
		db, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		store := sqlite.New(db, cfg.Serializer())
		if err := store.CreateSchema(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return store, func() { db.Close() }, nil
	}
}
