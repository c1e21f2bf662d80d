package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/YMiemie-cy/Multi-Agent-Chatbox/core"
)

func newMemoriesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "memories",
		Short: "Manage long-term memories injected into model context",
	}
	cmd.AddCommand(
		newMemoriesListCmd(a),
		newMemoriesAddCmd(a),
		newMemoriesRmCmd(a),
	)
	return cmd
}

func newMemoriesListCmd(a *app) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List memories, most recently updated first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var (
				memories []core.Memory
				err      error
			)
			if category != "" {
				memories, err = a.memories.ByCategory(category)
			} else {
				memories, err = a.memories.All()
			}
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(memories) == 0 {
				fmt.Fprintln(out, "no memories")
				return nil
			}
			for _, m := range memories {
				label := m.Category
				if label == "" {
					label = "general"
				}
				fmt.Fprintf(out, "%s  [%s] importance=%d  %s\n", m.ID, label, m.Importance, m.Title)
				if len(m.Tags) > 0 {
					fmt.Fprintf(out, "    tags: %s\n", strings.Join(m.Tags, ", "))
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "only list memories in this category")
	return cmd
}

func newMemoriesAddCmd(a *app) *cobra.Command {
	var (
		title      string
		category   string
		tags       []string
		importance int
	)

	cmd := &cobra.Command{
		Use:   "add <content>",
		Short: "Create a memory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			created, err := a.memories.Create(core.Memory{
				Title:      title,
				Content:    args[0],
				Category:   category,
				Tags:       tags,
				Importance: importance,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s (importance %d)\n", created.ID, created.Importance)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "memory title (derived from content when empty)")
	cmd.Flags().StringVar(&category, "category", "", "memory category")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "tag (repeatable)")
	cmd.Flags().IntVar(&importance, "importance", core.DefaultImportance, "importance from 1 to 5")
	return cmd
}

func newMemoriesRmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <memory-id>",
		Short: "Delete a memory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			removed, err := a.memories.Delete(args[0])
			if err != nil {
				return err
			}
			if !removed {
				return fmt.Errorf("memory %s not found", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), "deleted", args[0])
			return nil
		},
	}
}
