package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/alexanderramin/crawl/internal/cli"
	"github.com/alexanderramin/crawl/internal/config"
	"github.com/alexanderramin/crawl/internal/db"
	"github.com/alexanderramin/crawl/internal/repository"
	"github.com/alexanderramin/crawl/internal/service"
	"github.com/alexanderramin/crawl/internal/watch"
	"github.com/mattn/go-isatty"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	if cfg.File != "" {
		logger.Debug("config loaded", "file", cfg.File, "backend", cfg.Backend)
	}

	var observers []service.UseCaseObserver
	if cfg.LogCalls {
		observers = append(observers, service.NewLogUseCaseObserver(
			slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})),
		))
	}

	// Wire the node store and its change sources
	var (
		store  repository.NodeStore
		events func(ctx context.Context) (<-chan watch.Event, error)
	)
	switch cfg.Backend {
	case config.BackendSQLite:
		database, err := db.OpenDB(cfg.Path)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()
		store = repository.NewSQLiteNodeStore(database, db.NewSQLiteUnitOfWork(database))
		events = func(ctx context.Context) (<-chan watch.Event, error) {
			return watch.Files(ctx, filepath.Dir(cfg.Path), watch.FileOptions{
				Match:  watch.SQLiteFiles(cfg.Path),
				Logger: logger,
			})
		}

	case config.BackendDiskv:
		store = repository.NewDiskvNodeStore(cfg.Path, logger)
		events = func(ctx context.Context) (<-chan watch.Event, error) {
			return watch.Files(ctx, cfg.Path, watch.FileOptions{
				Match:  watch.JSONFiles,
				Logger: logger,
			})
		}

	case config.BackendPostgres:
		pg, err := repository.NewPostgresNodeStore(ctx, cfg.DSN)
		if err != nil {
			return err
		}
		defer pg.Close()
		store = pg
		events = func(ctx context.Context) (<-chan watch.Event, error) {
			sources := []<-chan watch.Event{watch.Notifications(ctx, pg, logger)}
			if cfg.RefreshInterval > 0 {
				sources = append(sources, watch.Poll(ctx, pg, cfg.RefreshInterval, logger))
			}
			return watch.Merge(sources...), nil
		}

	default:
		return fmt.Errorf("unsupported backend %q", cfg.Backend)
	}

	// Wire services
	catalog := service.NewCatalogService(store, service.CatalogOptions{
		Debounce:         cfg.Debounce,
		WriteConcurrency: cfg.WriteConcurrency,
	}, observers...)

	app := &cli.App{
		Catalog:         catalog,
		Imports:         service.NewImportService(catalog, observers...),
		Watch:           events,
		RefreshInterval: cfg.RefreshInterval,
		Logger:          logger,
	}

	// Detect interactive terminal for confirmations.
	app.IsInteractive = func() bool {
		return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	}

	return cli.NewRootCmd(app).ExecuteContext(ctx)
}
