package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/zulandar/wordcloud/internal/aggregate"
	"github.com/zulandar/wordcloud/internal/config"
	"github.com/zulandar/wordcloud/internal/session"
	"golang.org/x/term"
)

func newSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Presenter tooling for sessions",
	}

	cmd.AddCommand(newSessionCreateCmd())
	cmd.AddCommand(newSessionListCmd())
	cmd.AddCommand(newSessionStatusCmd())
	cmd.AddCommand(newSessionRebuildCmd())
	return cmd
}

func sessionDefaults(cfg *config.Config) session.Defaults {
	return session.Defaults{
		MaxEntriesPerUser: cfg.SessionDefaults.MaxEntriesPerUser,
		CooldownMinutes:   cfg.SessionDefaults.CooldownMinutes,
		Theme:             cfg.SessionDefaults.Theme,
	}
}

func newSessionCreateCmd() *cobra.Command {
	var (
		configPath string
		opts       session.CreateOpts
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a draft session",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			s, err := session.Create(gormDB, opts, sessionDefaults(cfg))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created session %s (%s, %d entries, %dm cooldown)\n",
				s.ID, s.Status, s.MaxEntriesPerUser, s.CooldownMinutes)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to config file")
	cmd.Flags().StringVarP(&opts.Question, "question", "q", "", "question shown to participants (required)")
	cmd.Flags().StringVar(&opts.Description, "description", "", "optional description")
	cmd.Flags().StringVar(&opts.Theme, "theme", "", "display theme")
	cmd.Flags().IntVar(&opts.MaxEntriesPerUser, "max-entries", 0, "entries per participant before cooldown")
	cmd.Flags().IntVar(&opts.CooldownMinutes, "cooldown", 0, "cooldown length in minutes")
	cmd.Flags().IntVar(&opts.TimeLimitSec, "time-limit", 0, "seconds a live session stays open (0 = no limit)")
	cmd.Flags().BoolVar(&opts.GroupingEnabled, "grouping", false, "enable grouping of similar words")
	cmd.Flags().StringVar(&opts.CreatedBy, "created-by", "", "presenter name")
	cmd.MarkFlagRequired("question")
	return cmd
}

func newSessionListCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sessions with participation counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			list, err := session.List(gormDB)
			if err != nil {
				return err
			}
			writeSessionList(cmd.OutOrStdout(), list, isTerminal(cmd.OutOrStdout()))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to config file")
	return cmd
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// writeSessionList prints an aligned table for people and tab-separated
// rows without a header for pipes.
func writeSessionList(out io.Writer, list []session.Overview, table bool) {
	if !table {
		for _, s := range list {
			fmt.Fprintf(out, "%s\t%s\t%d\t%d\t%d\t%s\n",
				s.ID, s.Status, s.ParticipantCount, s.WordCount, s.TotalEntries, s.Question)
		}
		return
	}

	if len(list) == 0 {
		fmt.Fprintln(out, "No sessions.")
		return
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tPARTICIPANTS\tWORDS\tENTRIES\tQUESTION")
	for _, s := range list {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%s\n",
			s.ID, s.Status, s.ParticipantCount, s.WordCount, s.TotalEntries, truncate(s.Question, 48))
	}
	tw.Flush()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func newSessionStatusCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "status <session-id> [draft|live|closed]",
		Short: "Show or change a session's status",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(args) == 1 {
				s, err := session.Get(gormDB, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(out, s.Status)
				return nil
			}
			s, err := session.SetStatus(gormDB, args[0], strings.TrimSpace(args[1]))
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Session %s is now %s\n", s.ID, s.Status)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to config file")
	return cmd
}

func newSessionRebuildCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "rebuild <session-id>",
		Short: "Recompute a session's aggregate from its entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, gormDB, err := connectFromConfig(configPath)
			if err != nil {
				return err
			}
			if _, err := session.Get(gormDB, args[0]); err != nil {
				return err
			}
			n, err := aggregate.Rebuild(gormDB, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rebuilt %d clusters for session %s\n", n, args[0])
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to config file")
	return cmd
}
