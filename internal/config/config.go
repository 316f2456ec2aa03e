package config

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
)

const (
	// FileName is the configuration file looked up from the working
	// directory upward.
	FileName = "sqlrunner.toml"

	defaultEnvironmentName = "local"
)

// EnvironmentConfig describes a single named environment from sqlrunner.toml.
type EnvironmentConfig struct {
	DatabaseURL     string   `toml:"database_url,omitempty"`
	Driver          string   `toml:"driver,omitempty"`
	User            string   `toml:"user,omitempty"`
	Password        string   `toml:"password,omitempty"`
	OracleDSN       string   `toml:"oracle_dsn,omitempty"`
	IgnorableErrors []string `toml:"ignorable_errors,omitempty"`
}

type Config struct {
	DefaultEnvironment string `toml:"default_environment,omitempty"`
	DatabaseURL        string `toml:"database_url,omitempty"`
	// IgnorableErrors replaces the built-in ignorable error codes.
	IgnorableErrors []string `toml:"ignorable_errors,omitempty"`
	// ErrorMatch is "code" (default) or "substring".
	ErrorMatch string `toml:"error_match,omitempty"`
	// StatementTimeout is a Go duration string such as "30s".
	StatementTimeout string                       `toml:"statement_timeout,omitempty"`
	Environments     map[string]EnvironmentConfig `toml:"environments,omitempty"`
	ConfigFilePath   string                       `toml:"-"`

	configDir string
}

// ConfigDir returns the directory holding the config file, or "" when no
// file was loaded.
func (c *Config) ConfigDir() string {
	if c == nil {
		return ""
	}
	if c.configDir == "" && c.ConfigFilePath != "" {
		return filepath.Dir(c.ConfigFilePath)
	}
	return c.configDir
}

// LoadConfig finds sqlrunner.toml in the working directory or its parents,
// stopping at the first project root. It returns an empty Config when no
// file is found.
func LoadConfig() (*Config, error) {
	startDir, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	dir := startDir
	for {
		// Check if sqlrunner.toml exists in current directory
		configPath := filepath.Join(dir, FileName)
		if _, err := os.Stat(configPath); err == nil {
			return LoadConfigFile(configPath)
		}

		// Check if we've reached a project boundary
		if isProjectRoot(dir) {
			break
		}

		// Move to parent directory
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			break
		}
		dir = parent
	}

	return &Config{}, nil
}

// LoadConfigFile reads the config file at path.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		var decodeErr *toml.DecodeError
		if errors.As(err, &decodeErr) {
			row, col := decodeErr.Position()
			return nil, errors.Errorf("failed to parse %s at line %d, column %d: %s", path, row, col, decodeErr.Error())
		}
		return nil, errors.Wrapf(err, "failed to parse %s", path)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}
	config.ConfigFilePath = absPath
	config.configDir = filepath.Dir(absPath)
	return &config, nil
}

// isProjectRoot checks if the directory is a project root based on common markers
func isProjectRoot(dir string) bool {
	for _, marker := range []string{".git", "go.mod", "package.json"} {
		if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
			return true
		}
	}
	return false
}
