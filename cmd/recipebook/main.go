package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dukerupert/recipebook/internal/backup"
	"github.com/dukerupert/recipebook/internal/config"
	"github.com/dukerupert/recipebook/internal/database"
	"github.com/dukerupert/recipebook/internal/logging"
	"github.com/dukerupert/recipebook/internal/server"
)

const usage = `usage: recipebook <command> [flags]

commands:
  serve              run the HTTP API (default)
  backup [-keep N]   snapshot the database, optionally pruning to the newest N
  backups            list stored snapshots
  restore <key>      replace the database with a stored snapshot
  reset [-skip-backup]
                     delete the database and recreate an empty schema
`

func main() {
	cfg := config.Load()
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	cmd, args := "serve", []string(nil)
	if len(os.Args) > 1 {
		cmd, args = os.Args[1], os.Args[2:]
	}

	var err error
	switch cmd {
	case "serve":
		err = serve(cfg, logger)
	case "backup":
		err = runBackup(cfg, logger, args)
	case "backups":
		err = listBackups(cfg, logger)
	case "restore":
		err = restore(cfg, logger, args)
	case "reset":
		err = reset(cfg, logger, args)
	case "help", "-h", "--help":
		fmt.Print(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n%s", cmd, usage)
		os.Exit(2)
	}
	if err != nil {
		logger.Error(cmd+" failed", "error", err)
		os.Exit(1)
	}
}

func serve(cfg *config.Config, logger *slog.Logger) error {
	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	srv, err := server.New(db, cfg, logger)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		// Image uploads can be large and are downscaled in-request.
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("recipebook listening", "addr", "http://localhost:"+cfg.Port, "db", cfg.DBPath)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-quit:
	}

	logger.Info("shutting down")
	srv.Hub().Shutdown()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func backupManager(cfg *config.Config, db *sql.DB, logger *slog.Logger) *backup.Manager {
	return backup.NewManager(backup.Config{
		DBPath:     cfg.DBPath,
		Dir:        cfg.Backup.Dir,
		Passphrase: cfg.Backup.Passphrase,
		S3: backup.S3Config{
			Endpoint:  cfg.Backup.S3Endpoint,
			Bucket:    cfg.Backup.S3Bucket,
			Region:    cfg.Backup.S3Region,
			AccessKey: cfg.Backup.S3Access,
			SecretKey: cfg.Backup.S3Secret,
		},
	}, db, logger.With("component", "backup"))
}

// snapshot backs up the database at cfg.DBPath and returns the stored key.
func snapshot(ctx context.Context, cfg *config.Config, logger *slog.Logger) (string, error) {
	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return "", fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	return backupManager(cfg, db, logger).Run(ctx)
}

func runBackup(cfg *config.Config, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("backup", flag.ExitOnError)
	keep := fs.Int("keep", 0, "after backing up, delete all but the newest N snapshots (0 keeps everything)")
	fs.Parse(args)

	ctx := context.Background()
	key, err := snapshot(ctx, cfg, logger)
	if err != nil {
		return err
	}
	fmt.Println(key)

	if *keep > 0 {
		n, err := backupManager(cfg, nil, logger).Prune(ctx, *keep)
		if err != nil {
			return fmt.Errorf("prune: %w", err)
		}
		logger.Info("old backups pruned", "removed", n, "kept", *keep)
	}
	return nil
}

func listBackups(cfg *config.Config, logger *slog.Logger) error {
	m := backupManager(cfg, nil, logger)
	keys, err := m.List(context.Background())
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		fmt.Fprintf(os.Stderr, "no backups in %s\n", m.Target())
		return nil
	}
	for _, k := range keys {
		fmt.Println(k)
	}
	return nil
}

func restore(cfg *config.Config, logger *slog.Logger, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("restore takes exactly one backup key")
	}
	return backupManager(cfg, nil, logger).Restore(context.Background(), args[0])
}

func reset(cfg *config.Config, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("reset", flag.ExitOnError)
	skipBackup := fs.Bool("skip-backup", false, "do not snapshot the database before deleting it")
	fs.Parse(args)

	if !*skipBackup {
		if _, err := os.Stat(cfg.DBPath); err == nil {
			key, err := snapshot(context.Background(), cfg, logger)
			if err != nil {
				return fmt.Errorf("pre-reset backup: %w", err)
			}
			logger.Info("pre-reset backup stored", "key", key)
		}
	}

	db, err := database.Reset(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()
	logger.Warn("database reset", "db", cfg.DBPath)
	return nil
}
