package database

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// sqliteFileDefaults apply to on-disk databases unless overridden through Options.
var sqliteFileDefaults = map[string]string{
	"_foreign_keys": "1",
	"_journal_mode": "WAL",
	"_busy_timeout": "5000",
	"_txlock":       "immediate",
}

func openSQLite(cfg Config) (*gorm.DB, error) {
	dsn, err := buildSQLiteDSN(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(sqlite.Open(dsn), gormConfig())
	if err != nil {
		return nil, err
	}

	// the DSN flag covers new connections; the pragma covers the one gorm already holds
	if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		return nil, fmt.Errorf("enable sqlite foreign keys: %w", err)
	}
	return db, nil
}

// buildSQLiteDSN returns cfg.DSN when set. An empty or ":memory:" path yields a
// private named in-memory database; any other path is created on disk with the
// file defaults merged under cfg.Options.
func buildSQLiteDSN(cfg Config) (string, error) {
	if dsn := strings.TrimSpace(cfg.DSN); dsn != "" {
		return dsn, nil
	}

	path := strings.TrimSpace(cfg.Path)
	if path == "" || strings.EqualFold(path, ":memory:") {
		query := url.Values{}
		query.Set("mode", "memory")
		query.Set("cache", "shared")
		query.Set("_foreign_keys", "1")
		for key, value := range cfg.Options {
			query.Set(key, value)
		}
		return fmt.Sprintf("file:volunteerhub-%s?%s", uuid.NewString(), query.Encode()), nil
	}

	if err := ensureDir(path); err != nil {
		return "", fmt.Errorf("create sqlite directory: %w", err)
	}

	query := url.Values{}
	for key, value := range sqliteFileDefaults {
		query.Set(key, value)
	}
	for key, value := range cfg.Options {
		query.Set(key, value)
	}
	return fmt.Sprintf("file:%s?%s", filepath.ToSlash(path), query.Encode()), nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
