package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/erazemk/lostfound/internal/api"
	"github.com/erazemk/lostfound/internal/archive"
	"github.com/erazemk/lostfound/internal/auth"
	"github.com/erazemk/lostfound/internal/config"
	"github.com/erazemk/lostfound/internal/db"
	"github.com/erazemk/lostfound/internal/imaging"
	"github.com/erazemk/lostfound/internal/ratelimit"
	"github.com/erazemk/lostfound/internal/store"
	"github.com/erazemk/lostfound/internal/tracing"
)

const usage = `Usage: lostfound [flags] [command]

Commands:
  serve                   run the HTTP server (default)
  init                    create the database and admin account, then exit
  archive                 archive stale missing reports once, then exit
  delete-user <id>        soft-delete a user account

Flags:
  -d, -db <path>          SQLite database path (default: lostfound.sqlite3)
  -a, -addr <host:port>   listen address (default: :8080)
  -l, -log <path>         log file path (default: no file, stdout/stderr only)
  -h, -help               show this help and exit

Other settings are read from the environment or a .env file.
`

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	fs := flag.NewFlagSet("lostfound", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "")
	fs.StringVar(&cfg.DBPath, "d", cfg.DBPath, "")
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "")
	fs.StringVar(&cfg.Addr, "a", cfg.Addr, "")
	fs.StringVar(&cfg.LogPath, "log", cfg.LogPath, "")
	fs.StringVar(&cfg.LogPath, "l", cfg.LogPath, "")

	if err := fs.Parse(os.Args[1:]); err != nil {
		fmt.Fprint(os.Stdout, usage)
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(1)
	}

	closeLog, err := setupLogger(cfg.LogPath, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if closeLog != nil {
		defer closeLog()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	command := fs.Arg(0)
	switch command {
	case "", "serve":
		err = cmdServe(ctx, cfg)
	case "init":
		err = cmdInit(ctx, cfg, os.Stdout)
	case "archive":
		err = cmdArchive(ctx, cfg, os.Stdout)
	case "delete-user":
		if fs.NArg() != 2 {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(1)
		}
		err = cmdDeleteUser(ctx, cfg, fs.Arg(1), os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", command)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	if err != nil {
		slog.Error(command+" failed", "error", err)
		os.Exit(1)
	}
}

// openDatabase opens and migrates the database, then makes sure the admin
// secret, admin account and receipt signing key exist. A newly generated admin
// secret is printed to out once.
func openDatabase(ctx context.Context, cfg *config.Config, out io.Writer) (*sql.DB, string, error) {
	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return nil, "", fmt.Errorf("opening database: %w", err)
	}

	if err := db.Migrate(database); err != nil {
		database.Close()
		return nil, "", fmt.Errorf("migrating database: %w", err)
	}

	secret, err := auth.EnsureAdminSecret(ctx, database, cfg.AdminPassword)
	if err != nil {
		database.Close()
		return nil, "", fmt.Errorf("setting up admin secret: %w", err)
	}
	if secret != "" {
		printAdminSecret(out, secret)
	}

	if _, err := store.EnsureAdmin(ctx, database, cfg.AdminEmail); err != nil {
		database.Close()
		return nil, "", fmt.Errorf("creating admin account: %w", err)
	}

	receiptSecret, err := store.GetReceiptSecret(ctx, database)
	if err != nil {
		database.Close()
		return nil, "", fmt.Errorf("loading receipt secret: %w", err)
	}

	slog.Info("database ready", "path", cfg.DBPath)
	return database, receiptSecret, nil
}

// printAdminSecret prints a generated admin secret to out.
func printAdminSecret(out io.Writer, secret string) {
	fmt.Fprintln(out, "Admin secret generated:")
	fmt.Fprintf(out, "  %s\n", secret)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Save this secret, it is shown only once.")
	fmt.Fprintln(out, "Set ADMIN_PASSWORD to replace it.")
	fmt.Fprintln(out)
}

func cmdInit(ctx context.Context, cfg *config.Config, out io.Writer) error {
	database, _, err := openDatabase(ctx, cfg, out)
	if err != nil {
		return err
	}
	defer database.Close()

	fmt.Fprintf(out, "Database initialized: %s\n", cfg.DBPath)
	return nil
}

func cmdArchive(ctx context.Context, cfg *config.Config, out io.Writer) error {
	database, _, err := openDatabase(ctx, cfg, out)
	if err != nil {
		return err
	}
	defer database.Close()

	moved, err := archive.NewSweeper(database, cfg.ArchiveAfter).Run(ctx, archive.TriggerCLI)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Archived %d missing report(s).\n", moved)
	return nil
}

func cmdDeleteUser(ctx context.Context, cfg *config.Config, id string, out io.Writer) error {
	database, _, err := openDatabase(ctx, cfg, out)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := store.DeleteUser(ctx, database, id); err != nil {
		return fmt.Errorf("deleting user %s: %w", id, err)
	}
	slog.Info("user deleted", "user", id)
	fmt.Fprintf(out, "User %s deleted.\n", id)
	return nil
}

// newLimiter returns a Redis-backed login limiter when REDIS_URL is set and
// an in-memory one otherwise. The returned function releases it.
func newLimiter(ctx context.Context, cfg *config.Config) (ratelimit.Limiter, func(), error) {
	if cfg.RedisURL == "" {
		limiter := ratelimit.NewMemoryLimiter(cfg.LoginMaxAttempts, cfg.LoginWindow)
		return limiter, limiter.Stop, nil
	}

	rdb, err := ratelimit.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	slog.Info("login throttling backed by redis")
	return ratelimit.NewRedisLimiter(rdb, cfg.LoginMaxAttempts, cfg.LoginWindow), func() { rdb.Close() }, nil
}

func cmdServe(ctx context.Context, cfg *config.Config) error {
	database, receiptSecret, err := openDatabase(ctx, cfg, os.Stdout)
	if err != nil {
		return err
	}
	defer database.Close()

	limiter, closeLimiter, err := newLimiter(ctx, cfg)
	if err != nil {
		return fmt.Errorf("setting up login limiter: %w", err)
	}
	defer closeLimiter()

	shutdownTracing, err := tracing.Init(ctx, "lostfound", cfg.Environment)
	if err != nil {
		return fmt.Errorf("setting up tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			slog.Error("tracing shutdown failed", "error", err)
		}
	}()

	sweeper := archive.NewSweeper(database, cfg.ArchiveAfter)
	if cfg.ArchiveInterval > 0 {
		go sweeper.Start(ctx, cfg.ArchiveInterval)
	}

	router := api.NewRouter(api.Config{
		DB:            database,
		EmailDomain:   cfg.EmailDomain,
		AdminEmail:    cfg.AdminEmail,
		ReceiptSecret: receiptSecret,
		Limiter:       limiter,
		Sweeper:       sweeper,
		Images:        imaging.Processor{},
		AllowOrigins:  cfg.CORSAllowedOrigins,
	})

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           otelhttp.NewHandler(router, "lostfound"),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started",
		"addr", cfg.Addr,
		"environment", cfg.Environment,
		"email_domain", cfg.EmailDomain,
		"archive_after", cfg.ArchiveAfter,
	)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	slog.Info("server stopped, closing database")
	return nil
}
