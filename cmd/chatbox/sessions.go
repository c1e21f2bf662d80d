package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newSessionsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Manage persisted chat sessions",
	}
	cmd.AddCommand(
		newSessionsListCmd(a),
		newSessionsShowCmd(a),
		newSessionsDeleteCmd(a),
		newSessionsCleanupCmd(a),
	)
	return cmd
}

func newSessionsListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sessions, err := a.sessions.All()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(sessions) == 0 {
				fmt.Fprintln(out, "no sessions")
				return nil
			}
			for _, s := range sessions {
				kind := "chat"
				if s.Discussion {
					kind = "discussion"
				}
				fmt.Fprintf(out, "%s  %-10s  %3d msgs  %s  %s\n",
					s.ID, kind, len(s.Messages), s.Updated.Local().Format("2006-01-02 15:04"), s.Title)
			}
			return nil
		},
	}
}

func newSessionsShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <session-id>",
		Short: "Print a session transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := a.sessions.Get(args[0])
			if err != nil {
				return err
			}
			if sess == nil {
				return fmt.Errorf("session %s not found", args[0])
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s)\n", sess.Title, sess.ID)
			for _, m := range sess.Messages {
				speaker := string(m.Role)
				if m.AgentName != "" {
					speaker = m.AgentName
				}
				if m.Round > 0 {
					speaker = fmt.Sprintf("%s, round %d", speaker, m.Round)
				}
				fmt.Fprintf(out, "\n[%s] %s\n", speaker, m.Text())
			}
			return nil
		},
	}
}

func newSessionsDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <session-id>",
		Short: "Delete a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			removed, err := a.sessions.Delete(args[0])
			if err != nil {
				return err
			}
			if !removed {
				return fmt.Errorf("session %s not found", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), "deleted", args[0])
			return nil
		},
	}
}

func newSessionsCleanupCmd(a *app) *cobra.Command {
	var maxAge time.Duration

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete sessions not updated within the retention window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			removed, err := a.sessions.Cleanup(maxAge)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d session(s)\n", removed)
			return nil
		},
	}
	cmd.Flags().DurationVar(&maxAge, "max-age", 30*24*time.Hour, "retention window")
	return cmd
}
