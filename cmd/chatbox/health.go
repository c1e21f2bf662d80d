package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newHealthCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check model endpoint reachability",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			probe := a.registry.GetOrDefault("")
			ok := a.client.HealthCheck(cmd.Context(), probe.Provider, probe.Model)

			out := cmd.OutOrStdout()
			if !ok {
				fmt.Fprintln(out, "status: degraded (model endpoint unreachable)")
				return nil
			}
			fmt.Fprintln(out, "status: healthy")
			return nil
		},
	}
}
