package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	githubadapter "github.com/ericfisherdev/prcomment/internal/adapter/driven/github"
	sqliteadapter "github.com/ericfisherdev/prcomment/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/prcomment/internal/adapter/driving/cli"
	"github.com/ericfisherdev/prcomment/internal/application"
	"github.com/ericfisherdev/prcomment/internal/config"
	"github.com/ericfisherdev/prcomment/internal/domain/port/driven"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Build the command tree. Configuration is read only once a
	// subcommand runs, so --help works with a broken environment.
	var a app
	defer a.close()

	return cli.NewRootCommand(a.setup).ExecuteContext(ctx)
}

// app owns the resources opened by setup for the lifetime of one command.
type app struct {
	lockDB *sqliteadapter.DB
}

func (a *app) setup(ctx context.Context) (cli.Commenter, int, error) {
	// 1. Load configuration (fail fast on malformed env vars).
	cfg, err := config.Load()
	if err != nil {
		return nil, 0, err
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel})))
	slog.Debug("config loaded",
		"repository", cfg.RepoFullName,
		"number", cfg.Number,
		"is_pr", cfg.IsPR,
		"page_size", cfg.PageSize,
		"lock_db", cfg.LockDBPath,
	)
	if !cfg.HasTarget() {
		slog.Debug("no issue or pull request in the environment; commands need --number")
	}

	// 2. Create GitHub client.
	client, err := githubadapter.NewClient(cfg.GitHubToken, cfg.APIURL)
	if err != nil {
		return nil, 0, err
	}

	// 3. Open the optional lock database. Failures leave runs unserialized.
	var locker driven.TargetLocker
	if cfg.LockDBPath != "" {
		if err := a.openLockDB(ctx, cfg.LockDBPath); err != nil {
			slog.Warn("lock database unavailable, running without target lock", "path", cfg.LockDBPath, "error", err)
		} else {
			locker = sqliteadapter.NewLockRepo(a.lockDB)
		}
	}

	// 4. Wire the service.
	svc := application.NewCommentService(client, locker, application.ServiceConfig{
		RepoFullName: cfg.RepoFullName,
		Greeting:     cfg.Greeting,
		PageSize:     cfg.PageSize,
		LockTimeout:  cfg.LockTimeout,
	})

	return svc, cfg.Number, nil
}

func (a *app) openLockDB(ctx context.Context, path string) error {
	db, err := sqliteadapter.NewDB(ctx, path)
	if err != nil {
		return err
	}

	version, err := sqliteadapter.RunMigrations(db.Writer)
	if err != nil {
		_ = db.Close()
		return err
	}
	slog.Debug("lock database ready", "path", path, "schema_version", version)

	a.lockDB = db
	return nil
}

func (a *app) close() {
	if a.lockDB == nil {
		return
	}
	if err := a.lockDB.Close(); err != nil {
		slog.Error("error closing lock database", "error", err)
	}
}
