package wizard

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/joho/godotenv"

	"github.com/lockplane/sqlrunner/internal/config"
	"github.com/lockplane/sqlrunner/internal/database"
)

func TestGenerateFilesOracle(t *testing.T) {
	t.Setenv("DB_PASS", "")
	dir := t.TempDir()
	env := EnvironmentInput{
		Name:      "local",
		Driver:    database.DatabaseTypeOracle,
		User:      "RETAIL_DW",
		Password:  "s3cret",
		OracleDSN: "localhost:1521/xepdb1",
	}

	result, err := GenerateFiles(dir, env)
	if err != nil {
		t.Fatalf("GenerateFiles returned error: %v", err)
	}
	if result.ConfigUpdated {
		t.Error("expected a new config file")
	}
	if !result.GitignoreUpdated {
		t.Error("expected .gitignore to be updated")
	}

	cfg, err := config.LoadConfigFile(result.ConfigPath)
	if err != nil {
		t.Fatalf("generated config does not load: %v", err)
	}
	if cfg.DefaultEnvironment != "local" || cfg.ErrorMatch != "code" {
		t.Errorf("unexpected top-level settings: %+v", cfg)
	}
	local := cfg.Environments["local"]
	if local.Driver != "oracle" || local.User != "RETAIL_DW" || local.OracleDSN != "localhost:1521/xepdb1" {
		t.Errorf("unexpected environment: %+v", local)
	}
	if local.Password != "" {
		t.Error("password must not be written to sqlrunner.toml")
	}

	values, err := godotenv.Read(result.EnvFile)
	if err != nil {
		t.Fatalf("generated env file does not load: %v", err)
	}
	if values["DB_PASS"] != "s3cret" {
		t.Errorf("expected DB_PASS in env file, got %v", values)
	}
	info, err := os.Stat(result.EnvFile)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("expected env file mode 0600, got %v", info.Mode().Perm())
	}

	resolved, err := config.ResolveEnvironment(cfg, "")
	if err != nil {
		t.Fatalf("ResolveEnvironment returned error: %v", err)
	}
	if resolved.Password != "s3cret" {
		t.Errorf("expected password from env file, got %q", resolved.Password)
	}
}

func TestGenerateFilesKeepsOtherEnvironments(t *testing.T) {
	dir := t.TempDir()
	existing := `default_environment = "ci"
ignorable_errors = ["ORA-00942"]

[environments.ci]
driver = "postgres"
database_url = "postgres://ci/app"

[environments.local]
driver = "oracle"
password = "old"
ignorable_errors = ["ORA-04043"]
`
	if err := os.WriteFile(filepath.Join(dir, config.FileName), []byte(existing), 0o600); err != nil {
		t.Fatal(err)
	}

	result, err := GenerateFiles(dir, EnvironmentInput{
		Name:     "local",
		Driver:   database.DatabaseTypeSQLite,
		FilePath: "data/app.db",
	})
	if err != nil {
		t.Fatalf("GenerateFiles returned error: %v", err)
	}
	if !result.ConfigUpdated {
		t.Error("expected the existing config to be updated")
	}

	cfg, err := config.LoadConfigFile(result.ConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DefaultEnvironment != "ci" {
		t.Errorf("expected default environment to stay ci, got %q", cfg.DefaultEnvironment)
	}
	if cfg.Environments["ci"].DatabaseURL != "postgres://ci/app" {
		t.Errorf("expected ci environment to be kept, got %+v", cfg.Environments["ci"])
	}
	local := cfg.Environments["local"]
	if local.Driver != "sqlite" || local.Password != "" {
		t.Errorf("expected local to be replaced, got %+v", local)
	}
	if len(local.IgnorableErrors) != 1 || local.IgnorableErrors[0] != "ORA-04043" {
		t.Errorf("expected ignorable errors to be kept, got %v", local.IgnorableErrors)
	}

	values, err := godotenv.Read(result.EnvFile)
	if err != nil {
		t.Fatal(err)
	}
	if values["DATABASE_URL"] != "data/app.db" {
		t.Errorf("expected DATABASE_URL in env file, got %v", values)
	}
}

func TestUpdateGitignore(t *testing.T) {
	tests := []struct {
		name        string
		existing    string
		wantUpdated bool
	}{
		{name: "missing file", existing: "", wantUpdated: true},
		{name: "other entries", existing: "bin/\n*.log", wantUpdated: true},
		{name: "already ignored", existing: "bin/\n.env.*\n", wantUpdated: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), ".gitignore")
			if tt.existing != "" {
				if err := os.WriteFile(path, []byte(tt.existing), 0o644); err != nil {
					t.Fatal(err)
				}
			}

			updated, err := updateGitignore(path)
			if err != nil {
				t.Fatalf("updateGitignore returned error: %v", err)
			}
			if updated != tt.wantUpdated {
				t.Errorf("expected updated=%v, got %v", tt.wantUpdated, updated)
			}

			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			if strings.Count(string(data), ".env.*") != 1 {
				t.Errorf("expected exactly one .env.* entry, got %q", data)
			}
			if tt.existing != "" && !strings.HasPrefix(string(data), tt.existing) {
				t.Errorf("existing entries were changed: %q", data)
			}
		})
	}
}
