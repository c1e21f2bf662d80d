package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/YMiemie-cy/Multi-Agent-Chatbox/discussion"
)

func newDiscussCmd(a *app) *cobra.Command {
	var (
		rounds  int
		agents  []string
		summary bool
		files   []string
	)

	cmd := &cobra.Command{
		Use:   "discuss <question>",
		Short: "Run a multi-round discussion between agents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			artifacts, err := loadArtifacts(files)
			if err != nil {
				return err
			}

			res, err := a.discussions.Run(cmd.Context(), discussion.Request{
				Question:       args[0],
				Rounds:         rounds,
				Agents:         agents,
				IncludeSummary: summary,
				Files:          artifacts,
			})
			if err != nil {
				return err
			}

			sess, err := a.sessions.Get(res.SessionID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if sess != nil {
				for _, m := range sess.Messages[1:] {
					label := m.AgentName
					if m.Round > 0 {
						label = fmt.Sprintf("%s (round %d)", m.AgentName, m.Round)
					}
					fmt.Fprintf(out, "\n--- %s ---\n%s\n", label, m.Text())
				}
			}
			fmt.Fprintf(out, "\nsession: %s (%d messages)\n", res.SessionID, res.TotalMessages)
			return nil
		},
	}

	cmd.Flags().IntVar(&rounds, "rounds", discussion.DefaultRounds, "number of discussion rounds")
	cmd.Flags().StringSliceVar(&agents, "agents", nil, "participating agents, in speaking order (at least two)")
	cmd.Flags().BoolVar(&summary, "summary", false, "generate a synthesized summary at the end")
	cmd.Flags().StringSliceVar(&files, "file", nil, "attach a text or image file (repeatable)")
	_ = cmd.MarkFlagRequired("agents")
	return cmd
}
