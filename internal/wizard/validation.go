package wizard

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/lockplane/sqlrunner/internal/database"
)

const connectTimeout = 5 * time.Second

// ValidateEnvironmentName checks that name can be used in a .env.<name>
// file name and a toml table key.
func ValidateEnvironmentName(name string) error {
	if name == "" {
		return errors.New("environment name cannot be empty")
	}
	for _, ch := range name {
		isValid := (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') || ch == '_' || ch == '-'
		if !isValid {
			return errors.New("environment name must contain only letters, numbers, underscores, and hyphens")
		}
	}
	return nil
}

// Validate checks the connection inputs for env's driver.
func (env EnvironmentInput) Validate() error {
	if err := ValidateEnvironmentName(env.Name); err != nil {
		return err
	}

	switch env.Driver {
	case database.DatabaseTypeOracle:
		if env.User == "" {
			return errors.New("user cannot be empty")
		}
		if _, err := database.OracleURL(env.User, env.Password, env.OracleDSN); err != nil {
			return err
		}
	case database.DatabaseTypeSQLite:
		if env.FilePath == "" {
			return errors.New("database file cannot be empty")
		}
	default:
		if env.URL == "" {
			return errors.New("database URL cannot be empty")
		}
		if detected := database.DetectType(env.URL); detected != env.Driver {
			return errors.Errorf("URL does not look like a %s connection string", env.Driver)
		}
	}
	return nil
}

// ConnectionConfig returns the settings sqlrunner will use for env.
// Relative sqlite paths are resolved against dir.
func (env EnvironmentInput) ConnectionConfig(dir string) database.ConnectionConfig {
	cfg := database.ConnectionConfig{
		DatabaseType:   env.Driver,
		URL:            env.URL,
		User:           env.User,
		Password:       env.Password,
		OracleDSN:      env.OracleDSN,
		ConnectTimeout: connectTimeout,
	}
	if env.Driver == database.DatabaseTypeSQLite {
		cfg.URL = sqlitePath(dir, env.FilePath)
	}
	return cfg
}

// TestConnection opens a session with cfg and closes it again.
func TestConnection(ctx context.Context, cfg database.ConnectionConfig) error {
	if cfg.DatabaseType == database.DatabaseTypeSQLite {
		if err := ensureSQLiteFile(cfg.URL); err != nil {
			return err
		}
	}

	session, err := database.Open(ctx, cfg)
	if err != nil {
		return err
	}
	return session.Close()
}

func sqlitePath(dir, path string) string {
	if path == "" || path == ":memory:" || filepath.IsAbs(path) || strings.Contains(path, "://") {
		return path
	}
	return filepath.Join(dir, path)
}

// ensureSQLiteFile creates an empty database file, which SQLite accepts as
// a new database. Existing files are left alone.
func ensureSQLiteFile(path string) error {
	if path == ":memory:" {
		return nil
	}
	path = strings.TrimPrefix(path, "sqlite://")
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "failed to create directory %s", dir)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrapf(err, "failed to create sqlite database %s", path)
	}
	return f.Close()
}
