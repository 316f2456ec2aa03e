package wizard

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"

	"github.com/lockplane/sqlrunner/internal/config"
	"github.com/lockplane/sqlrunner/internal/database"
)

const configHeader = `# sqlrunner configuration
# Generated by: sqlrunner init
#
# Credentials live in .env.<environment> files, never in this file.

`

const gitignoreEntry = ".env.*"

// GenerateFiles writes env into sqlrunner.toml in dir, keeping any other
// environments already there, and its credentials into .env.<name>.
func GenerateFiles(dir string, env EnvironmentInput) (*Result, error) {
	result := &Result{ConfigPath: filepath.Join(dir, config.FileName)}

	cfg := &config.Config{ErrorMatch: "code"}
	if _, err := os.Stat(result.ConfigPath); err == nil {
		existing, err := config.LoadConfigFile(result.ConfigPath)
		if err != nil {
			return nil, err
		}
		cfg = existing
		result.ConfigUpdated = true
	}

	if err := writeConfig(result.ConfigPath, cfg, env); err != nil {
		return nil, err
	}

	result.EnvFile = filepath.Join(dir, ".env."+env.Name)
	if err := writeEnvFile(result.EnvFile, env); err != nil {
		return nil, err
	}

	updated, err := updateGitignore(filepath.Join(dir, ".gitignore"))
	if err != nil {
		return nil, err
	}
	result.GitignoreUpdated = updated

	return result, nil
}

func writeConfig(path string, cfg *config.Config, env EnvironmentInput) error {
	if cfg.Environments == nil {
		cfg.Environments = make(map[string]config.EnvironmentConfig)
	}

	// Connection details move to the .env file; ignorable errors stay.
	entry := cfg.Environments[env.Name]
	entry.Driver = string(env.Driver)
	entry.DatabaseURL = ""
	entry.Password = ""
	entry.User = env.User
	entry.OracleDSN = env.OracleDSN
	cfg.Environments[env.Name] = entry

	if cfg.DefaultEnvironment == "" {
		cfg.DefaultEnvironment = env.Name
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "failed to encode config")
	}
	if err := os.WriteFile(path, append([]byte(configHeader), data...), 0o644); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return nil
}

// envValues returns the variables config.ResolveEnvironment reads for env.
func envValues(env EnvironmentInput) map[string]string {
	values := map[string]string{}
	switch env.Driver {
	case database.DatabaseTypeOracle:
		values["DB_PASS"] = env.Password
	case database.DatabaseTypeSQLite:
		values["DATABASE_URL"] = env.FilePath
	default:
		values["DATABASE_URL"] = env.URL
	}
	return values
}

func writeEnvFile(path string, env EnvironmentInput) error {
	body, err := godotenv.Marshal(envValues(env))
	if err != nil {
		return errors.Wrap(err, "failed to encode environment file")
	}

	var b strings.Builder
	b.WriteString("# sqlrunner environment: " + env.Name + "\n")
	b.WriteString("# Do not commit this file, it contains credentials.\n")
	b.WriteString(body)
	b.WriteString("\n")

	if err := os.WriteFile(path, []byte(b.String()), 0o600); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return nil
}

// updateGitignore appends the .env.* pattern unless it is already listed.
func updateGitignore(path string) (bool, error) {
	content := ""
	if data, err := os.ReadFile(path); err == nil {
		content = string(data)
	} else if !os.IsNotExist(err) {
		return false, errors.Wrapf(err, "failed to read %s", path)
	}

	for _, line := range strings.Split(content, "\n") {
		if strings.TrimSpace(line) == gitignoreEntry {
			return false, nil
		}
	}

	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	content += "\n# sqlrunner environment files\n" + gitignoreEntry + "\n"

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return false, errors.Wrapf(err, "failed to write %s", path)
	}
	return true, nil
}
