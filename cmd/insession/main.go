package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/alexanderramin/insession/internal/cli"
	"github.com/alexanderramin/insession/internal/config"
	"github.com/alexanderramin/insession/internal/db"
	"github.com/alexanderramin/insession/internal/repository"
	"github.com/alexanderramin/insession/internal/service"
	"github.com/alexanderramin/insession/internal/watcher"
	"github.com/mattn/go-isatty"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var database *sql.DB
	defer func() {
		if database != nil {
			database.Close()
		}
	}()

	app := &cli.App{}

	// Storage is opened only after flags and config are resolved.
	app.Connect = func(ctx context.Context, cfg config.Config) error {
		conn, err := db.OpenDB(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		database = conn

		kv := repository.NewSQLiteKeyValueRepo(conn, db.NewSQLiteUnitOfWork(conn))

		var opts []service.Option
		if cfg.LogTransitions {
			opts = append(opts, service.WithObserver(service.NewLogUseCaseObserver(os.Stderr)))
		}
		app.Sessions = service.Restore(ctx, kv, opts...)
		return nil
	}

	app.WatchChanges = func(ctx context.Context, cfg config.Config) (<-chan struct{}, error) {
		w, err := watcher.New(watcher.Config{
			DBPath:   cfg.DBPath,
			Debounce: cfg.WatchDebounce,
		})
		if err != nil {
			return nil, err
		}
		changes, err := w.Start()
		if err != nil {
			_ = w.Stop()
			return nil, err
		}
		go func() {
			<-ctx.Done()
			_ = w.Stop()
		}()
		return changes, nil
	}

	// Detect interactive terminal for the live-view default.
	app.IsInteractive = func() bool {
		return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	}

	return cli.NewRootCmd(app).Execute()
}
