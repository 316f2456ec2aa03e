package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/lockplane/sqlrunner/internal/runerr"
	"github.com/lockplane/sqlrunner/internal/script"
)

var planCmd = &cobra.Command{
	Use:   "plan <script.sql>",
	Short: "Show how a script would be split and classified, without connecting",
	Long: `Split and classify a script and print every statement exactly as it
would be sent to the database, with its kind and starting line.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		content, err := os.ReadFile(args[0])
		if err != nil {
			return runerr.NewStructural("read script", err)
		}
		printPlan(cmd.OutOrStdout(), script.Parse(string(content)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(planCmd)
}

func printPlan(out io.Writer, statements []script.Statement) {
	for i, stmt := range statements {
		fmt.Fprintf(out, "-- [%d/%d] line %d, %s\n%s\n/\n", i+1, len(statements), stmt.Line, stmt.Kind, stmt.Text)
	}
	fmt.Fprintf(out, "-- %d statements\n", len(statements))
}
