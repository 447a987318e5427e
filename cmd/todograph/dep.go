package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDepCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dep",
		Short: "Manage task dependencies",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add TASK PREREQUISITE",
		Short: "Make TASK wait for PREREQUISITE",
		Long:  "Make TASK wait for PREREQUISITE. Refused when it would form a cycle.",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(flags, func(cmd *cobra.Command, a *app, args []string) error {
			succ, prereq, err := parseEdge(args)
			if err != nil {
				return err
			}
			if err := a.svc.AddDependency(cmd.Context(), succ, prereq); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Task #%d now depends on #%d\n", succ, prereq)
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "rm TASK PREREQUISITE",
		Short: "Remove a dependency",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(flags, func(cmd *cobra.Command, a *app, args []string) error {
			succ, prereq, err := parseEdge(args)
			if err != nil {
				return err
			}
			removed, err := a.svc.RemoveDependency(cmd.Context(), succ, prereq)
			if err != nil {
				return err
			}
			if !removed {
				fmt.Fprintf(cmd.OutOrStdout(), "Task #%d did not depend on #%d\n", succ, prereq)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Task #%d no longer depends on #%d\n", succ, prereq)
			return nil
		}),
	})

	return cmd
}

func parseEdge(args []string) (int64, int64, error) {
	succ, err := parseID(args[0])
	if err != nil {
		return 0, 0, err
	}
	prereq, err := parseID(args[1])
	if err != nil {
		return 0, 0, err
	}
	return succ, prereq, nil
}
