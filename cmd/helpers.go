package cmd

import (
	"github.com/lockplane/sqlrunner/internal/config"
)

const exampleConfig = `# sqlrunner configuration
default_environment = "local"

# Errors suppressed while running scripts. Defaults to the built-in
# "does not exist" / "already exists" codes when omitted.
# ignorable_errors = ["ORA-00942", "ORA-02289", "ORA-04043", "ORA-00955"]

# "code" compares the driver error code, "substring" searches the message.
error_match = "code"

# statement_timeout = "5m"

[environments.local]
driver = "oracle"
user = "RETAIL_DW"
oracle_dsn = "localhost:1521/xepdb1"
# password is read from DB_PASS or .env.local
`

// loadConfig loads the file named by --config, or searches for one.
func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadConfigFile(configPath)
	}
	return config.LoadConfig()
}
