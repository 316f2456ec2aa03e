package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/lockplane/sqlrunner/internal/config"
	"github.com/lockplane/sqlrunner/internal/runerr"
	"github.com/lockplane/sqlrunner/internal/wizard"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a sqlrunner.toml",
	Long: `Create a sqlrunner.toml in the current directory.

In a terminal an interactive wizard asks for the database, tests the
connection and writes sqlrunner.toml plus a .env.<environment> file holding
the credentials. Other environments already in sqlrunner.toml are kept.

When stdin is not a terminal, or with --template, a commented starter file
is written instead.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().Bool("force", false, "Overwrite an existing sqlrunner.toml with the starter template")
	initCmd.Flags().Bool("template", false, "Write the starter template without running the wizard")
}

func runInit(cmd *cobra.Command, args []string) error {
	force, _ := cmd.Flags().GetBool("force")
	template, _ := cmd.Flags().GetBool("template")

	if template || !isTerminal(os.Stdin) {
		return writeTemplate(cmd.OutOrStdout(), config.FileName, force)
	}

	result, err := wizard.Run(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), ".")
	if err != nil {
		return runerr.NewStructural("init", err)
	}
	if result == nil {
		fmt.Fprintln(cmd.OutOrStdout(), "Setup cancelled, no files written.")
	}
	return nil
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func writeTemplate(out io.Writer, path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return runerr.NewStructural("init", errors.Errorf("%s already exists, use --force to overwrite", path))
	}
	if err := os.WriteFile(path, []byte(exampleConfig), 0o600); err != nil {
		return runerr.NewStructural("init", err)
	}

	fmt.Fprintf(out, "Wrote %s\n", path)
	return nil
}
