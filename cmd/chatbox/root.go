package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var cfgPath string
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "chatbox",
		Short:         "Multi-agent chatbox: chat with AI agents or run panel discussions",
		Long:          "chatbox talks to a panel of configurable AI agents: run single-agent chat turns, orchestrate multi-round discussions with an optional synthesized summary, and manage the persisted sessions and long-term memories.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.wire(cfgPath)
		},
	}
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to a config file (env CHATBOX_* overrides it)")

	rootCmd.AddCommand(
		newChatCmd(a),
		newDiscussCmd(a),
		newSessionsCmd(a),
		newMemoriesCmd(a),
		newHealthCmd(a),
	)
	return rootCmd
}
