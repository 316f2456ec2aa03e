package cmd

import (
	"fmt"
	"os"

	"github.com/kyokomi/emoji"
	"github.com/spf13/cobra"

	"github.com/lockplane/sqlrunner/internal/log"
	"github.com/lockplane/sqlrunner/internal/runerr"
)

var (
	configPath string
	envName    string
	logLevel   string
	logFormat  string
)

var rootCmd = &cobra.Command{
	Use:   "sqlrunner",
	Short: "Run SQL and PL/SQL scripts one statement at a time",
	Long: `sqlrunner executes a script of SQL statements and PL/SQL blocks separated
by "/" lines against a database, reporting every failure before exiting.`,
	Version:       getVersion(),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return log.Setup(cmd.ErrOrStderr(), logLevel, logFormat)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to sqlrunner.toml (default: search from the working directory upward)")
	rootCmd.PersistentFlags().StringVarP(&envName, "env", "e", "", "Environment to use from sqlrunner.toml")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format: text or json")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}

// exitCode reports err and maps it to the process exit status. Statement
// failures were already reported while the script ran.
func exitCode(err error) int {
	reason, errType := runerr.GetRootCauseAndErrorType(err)
	switch errType {
	case runerr.ErrorTypeStatement:
	case runerr.ErrorTypeStructural:
		fmt.Fprintf(os.Stderr, "%s Fatal Error: %s\n", emoji.Sprint(":x:"), reason)
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return 1
}
