package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/aristath/todograph/internal/graph"
	"github.com/aristath/todograph/internal/service"
)

func newListCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks, newest first",
		Args:    cobra.NoArgs,
		RunE: withApp(flags, func(cmd *cobra.Command, a *app, args []string) error {
			tasks, err := a.svc.ListTasks(cmd.Context())
			if err != nil {
				return err
			}

			// A cyclic store still lists; only the markers are lost.
			analysis, _, err := a.svc.CriticalPath(cmd.Context())
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
			}

			renderTasks(cmd.OutOrStdout(), tasks, analysis, time.Now())
			return nil
		}),
	}
}

func newAddCmd(flags *rootFlags) *cobra.Command {
	var (
		due     string
		days    int
		depends []int64
	)

	cmd := &cobra.Command{
		Use:   "add TITLE",
		Short: "Create a task",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(flags, func(cmd *cobra.Command, a *app, args []string) error {
			in := service.NewTask{Title: args[0], Dependencies: depends}

			if due != "" {
				t, err := time.ParseInLocation(time.DateOnly, due, time.Local)
				if err != nil {
					return fmt.Errorf("%w: due date must be YYYY-MM-DD", service.ErrInvalid)
				}
				in.DueDate = &t
			}
			if cmd.Flags().Changed("days") {
				in.EstimatedDuration = &days
			}

			rec, err := a.svc.CreateTask(cmd.Context(), in)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created task #%d %s\n", rec.ID, rec.Title)
			if rec.Image != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Image: %s\n", rec.Image.URL)
			}
			return nil
		}),
	}

	cmd.Flags().StringVar(&due, "due", "", "Due date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&days, "days", 0, "Estimated duration in days")
	cmd.Flags().Int64SliceVar(&depends, "depends-on", nil, "IDs of tasks this task depends on")

	return cmd
}

func newRemoveCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "rm ID",
		Aliases: []string{"delete"},
		Short:   "Delete a task and its dependencies",
		Args:    cobra.ExactArgs(1),
		RunE: withApp(flags, func(cmd *cobra.Command, a *app, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.svc.DeleteTask(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted task #%d\n", id)
			return nil
		}),
	}
}

func newImageCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "image ID",
		Short: "Look up a new photo for a task",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(flags, func(cmd *cobra.Command, a *app, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			img, err := a.svc.RefreshImage(cmd.Context(), id)
			if err != nil {
				return err
			}
			if img == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "No image found")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Image: %s (%s)\n", img.URL, img.Alt)
			return nil
		}),
	}
}

func newPathCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show the critical path",
		Args:  cobra.NoArgs,
		RunE: withApp(flags, func(cmd *cobra.Command, a *app, args []string) error {
			analysis, snap, err := a.svc.CriticalPath(cmd.Context())
			if err != nil {
				return err
			}
			renderPath(cmd.OutOrStdout(), analysis, snap)
			return nil
		}),
	}
}

func newCheckCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify that stored dependencies contain no cycle",
		Args:  cobra.NoArgs,
		RunE: withApp(flags, func(cmd *cobra.Command, a *app, args []string) error {
			res, err := a.svc.Check(cmd.Context())
			if err != nil {
				return err
			}
			renderCheck(cmd.OutOrStdout(), res)
			if !res.Acyclic {
				return graph.ErrCycle
			}
			return nil
		}),
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q is not a task id", service.ErrInvalid, s)
	}
	return id, nil
}
