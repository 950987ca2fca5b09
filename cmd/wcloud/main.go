package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version info set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wcloud",
		Short: "Live word cloud server",
		Long: `wcloud hosts live word cloud sessions. Audiences submit short answers to a
presenter's question and every connected screen receives the re-ranked cloud
as it changes.

Use "wcloud serve" to run the HTTP service, "wcloud db migrate" to prepare
the database and "wcloud session" to create or inspect sessions from a
terminal. Settings are read from wordcloud.yaml (see --config) and can be
overridden with WCLOUD_* environment variables or a .env file.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newDBCmd())
	cmd.AddCommand(newSessionCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "wcloud %s (commit: %s, built: %s)\n", Version, Commit, Date)
		},
	}
}

// execute runs the command tree and maps its outcome to a process exit code.
// cobra has already printed the error by the time it returns.
func execute(cmd *cobra.Command) int {
	if err := cmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func main() {
	os.Exit(execute(newRootCmd()))
}
