// Package backup snapshots the recipe database to S3-compatible storage or a
// local directory and restores it again.
package backup

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const (
	keyPrefix    = "recipes-"
	keyTimestamp = "2006-01-02T150405Z"
	encryptedExt = ".enc"
)

// Config holds backup settings. S3 is used when its bucket and credentials
// are set; otherwise snapshots go to Dir. A non-empty Passphrase encrypts
// new snapshots.
type Config struct {
	DBPath     string
	Dir        string
	Passphrase string
	S3         S3Config
}

// Manager takes and restores database snapshots.
type Manager struct {
	cfg    Config
	db     *sql.DB
	target target
	logger *slog.Logger
	now    func() time.Time
}

// NewManager picks the storage target from cfg. db is the live database and
// may be nil when the manager is only used to restore.
func NewManager(cfg Config, db *sql.DB, logger *slog.Logger) *Manager {
	var t target
	if cfg.S3.enabled() {
		t = &s3Target{client: newS3Client(cfg.S3), bucket: cfg.S3.Bucket}
	} else {
		t = &dirTarget{dir: cfg.Dir}
	}
	return &Manager{cfg: cfg, db: db, target: t, logger: logger, now: time.Now}
}

// Target describes where snapshots are stored.
func (m *Manager) Target() string {
	return m.target.String()
}

// Run snapshots the live database and returns the key it was stored under.
func (m *Manager) Run(ctx context.Context) (string, error) {
	if m.db == nil {
		return "", errors.New("backup: no database handle")
	}

	tmpDir, err := os.MkdirTemp("", "recipebook-backup-*")
	if err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)
	snapshot := filepath.Join(tmpDir, "snapshot.db")

	if _, err := m.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return "", fmt.Errorf("wal checkpoint: %w", err)
	}
	if _, err := m.db.ExecContext(ctx, "VACUUM INTO ?", snapshot); err != nil {
		return "", fmt.Errorf("snapshot database: %w", err)
	}

	data, err := os.ReadFile(snapshot)
	if err != nil {
		return "", fmt.Errorf("read snapshot: %w", err)
	}

	key := keyPrefix + m.now().UTC().Format(keyTimestamp) + ".db"
	if m.cfg.Passphrase != "" {
		if data, err = seal(data, m.cfg.Passphrase); err != nil {
			return "", fmt.Errorf("encrypt snapshot: %w", err)
		}
		key += encryptedExt
	}

	if err := m.target.put(ctx, key, data); err != nil {
		return "", err
	}
	m.logger.Info("backup stored", "key", key, "target", m.target.String(), "bytes", len(data))
	return key, nil
}

// List returns stored snapshot keys, oldest first.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.target.list(ctx)
}

// Prune deletes all but the newest keep snapshots and returns how many were
// removed.
func (m *Manager) Prune(ctx context.Context, keep int) (int, error) {
	if keep < 1 {
		return 0, fmt.Errorf("keep must be at least 1")
	}
	keys, err := m.target.list(ctx)
	if err != nil {
		return 0, err
	}
	if len(keys) <= keep {
		return 0, nil
	}

	removed := 0
	for _, key := range keys[:len(keys)-keep] {
		if err := m.target.remove(ctx, key); err != nil {
			m.logger.Warn("prune backup failed", "key", key, "error", err)
			continue
		}
		removed++
	}
	return removed, nil
}

// Restore replaces the database file with the snapshot stored under key. The
// database must not be open elsewhere while this runs.
func (m *Manager) Restore(ctx context.Context, key string) error {
	data, err := m.target.get(ctx, key)
	if err != nil {
		return err
	}
	if strings.HasSuffix(key, encryptedExt) {
		if m.cfg.Passphrase == "" {
			return fmt.Errorf("backup %s is encrypted: passphrase required", key)
		}
		if data, err = unseal(data, m.cfg.Passphrase); err != nil {
			return err
		}
	}

	dir := filepath.Dir(m.cfg.DBPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create database dir: %w", err)
	}
	// Staged next to the target so the final rename stays on one filesystem.
	staged, err := os.CreateTemp(dir, ".restore-*.db")
	if err != nil {
		return fmt.Errorf("create staging file: %w", err)
	}
	stagedPath := staged.Name()
	defer os.Remove(stagedPath)

	if _, err := staged.Write(data); err != nil {
		staged.Close()
		return fmt.Errorf("write staging file: %w", err)
	}
	if err := staged.Close(); err != nil {
		return fmt.Errorf("close staging file: %w", err)
	}

	if err := checkIntegrity(ctx, stagedPath); err != nil {
		return err
	}

	if err := os.Rename(stagedPath, m.cfg.DBPath); err != nil {
		return fmt.Errorf("replace database: %w", err)
	}
	os.Remove(m.cfg.DBPath + "-wal")
	os.Remove(m.cfg.DBPath + "-shm")

	m.logger.Info("backup restored", "key", key, "db", m.cfg.DBPath)
	return nil
}

func checkIntegrity(ctx context.Context, path string) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open restored db: %w", err)
	}
	defer db.Close()

	var result string
	if err := db.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("integrity check failed: %s", result)
	}
	return nil
}
