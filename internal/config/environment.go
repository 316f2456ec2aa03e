package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// Variables read from .env.<name> files and the process environment.
const (
	envDatabaseURL = "DATABASE_URL"
	envDriver      = "DB_DRIVER"
	envUser        = "DB_USER"
	envPassword    = "DB_PASS"
	envOracleDSN   = "ORACLE_DSN"
)

// ResolvedEnvironment represents a fully-resolved environment with concrete values.
type ResolvedEnvironment struct {
	Name             string
	Driver           string
	DatabaseURL      string
	User             string
	Password         string
	OracleDSN        string
	IgnorableErrors  []string
	ErrorMatch       string
	StatementTimeout time.Duration
	DotenvPath       string
	FromConfig       bool
	FromDotenv       bool
}

// ResolveEnvironment resolves a named environment into concrete connection
// settings. Values from sqlrunner.toml are overridden by .env.<name>, which
// is overridden by the process environment.
func ResolveEnvironment(config *Config, name string) (*ResolvedEnvironment, error) {
	return resolveEnvironment(config, name, os.LookupEnv)
}

func resolveEnvironment(config *Config, name string, lookupEnv func(string) (string, bool)) (*ResolvedEnvironment, error) {
	envName := strings.TrimSpace(name)
	if envName == "" {
		if config != nil && config.DefaultEnvironment != "" {
			envName = config.DefaultEnvironment
		} else {
			envName = defaultEnvironmentName
		}
	}

	var (
		envConfig EnvironmentConfig
		envExists bool
	)
	if config != nil && config.Environments != nil {
		envConfig, envExists = config.Environments[envName]
	}

	resolved := &ResolvedEnvironment{
		Name:            envName,
		Driver:          envConfig.Driver,
		DatabaseURL:     envConfig.DatabaseURL,
		User:            envConfig.User,
		Password:        envConfig.Password,
		OracleDSN:       envConfig.OracleDSN,
		IgnorableErrors: envConfig.IgnorableErrors,
		FromConfig:      envExists,
	}

	if config != nil {
		if resolved.DatabaseURL == "" {
			resolved.DatabaseURL = config.DatabaseURL
		}
		if len(resolved.IgnorableErrors) == 0 {
			resolved.IgnorableErrors = config.IgnorableErrors
		}
		resolved.ErrorMatch = config.ErrorMatch
		if config.StatementTimeout != "" {
			timeout, err := time.ParseDuration(config.StatementTimeout)
			if err != nil {
				return nil, errors.Wrapf(err, "invalid statement_timeout %q", config.StatementTimeout)
			}
			resolved.StatementTimeout = timeout
		}
	}

	baseDir := config.ConfigDir()
	if baseDir == "" {
		if cwd, err := os.Getwd(); err == nil {
			baseDir = cwd
		}
	}
	resolved.DotenvPath = filepath.Join(baseDir, ".env."+envName)

	if info, err := os.Stat(resolved.DotenvPath); err == nil && !info.IsDir() {
		values, err := godotenv.Read(resolved.DotenvPath)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read %s", resolved.DotenvPath)
		}
		resolved.FromDotenv = true
		resolved.apply(func(key string) (string, bool) {
			v, ok := values[key]
			return v, ok
		})
	} else if err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "failed to access %s", resolved.DotenvPath)
	}

	resolved.apply(lookupEnv)

	if config != nil && len(config.Environments) > 0 && !envExists && !resolved.FromDotenv {
		return nil, errors.Errorf("environment %q not defined in %s and %s not found", envName, FileName, resolved.DotenvPath)
	}

	return resolved, nil
}

// apply overrides settings with the non-empty values lookup returns.
func (r *ResolvedEnvironment) apply(lookup func(string) (string, bool)) {
	for key, field := range map[string]*string{
		envDatabaseURL: &r.DatabaseURL,
		envDriver:      &r.Driver,
		envUser:        &r.User,
		envPassword:    &r.Password,
		envOracleDSN:   &r.OracleDSN,
	} {
		if value, ok := lookup(key); ok && value != "" {
			*field = value
		}
	}
}
