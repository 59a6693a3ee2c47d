package main

import (
	"errors"
	"fmt"
	"strconv"
	"text/tabwriter"

	"crmpush/internal/push"

	"github.com/spf13/cobra"
)

func newJobsCmd(a *app) *cobra.Command {
	jobs := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect and process push jobs",
	}
	jobs.AddCommand(newJobsShowCmd(a), newJobsListCmd(a), newJobsProcessCmd(a))
	return jobs
}

func parseID(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid job id %q", s)
	}
	return id, nil
}

func newJobsShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show one push job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			j, err := a.b.Jobs.GetJob(cmd.Context(), id)
			if err != nil {
				return err
			}

			fmt.Fprintf(a.out, "id:       %d\n", j.ID)
			fmt.Fprintf(a.out, "status:   %s\n", j.Status)
			fmt.Fprintf(a.out, "created:  %d\n", j.CreatedCount)
			fmt.Fprintf(a.out, "updated:  %d\n", j.UpdatedCount)
			if j.Error != nil {
				fmt.Fprintf(a.out, "error:    %s\n", *j.Error)
			}
			if len(j.RemoteIDs) > 0 {
				fmt.Fprintf(a.out, "hubspot:  %v\n", []string(j.RemoteIDs))
			}
			return nil
		},
	}
}

func newJobsListCmd(a *app) *cobra.Command {
	var (
		status string
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent push jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			st := push.JobStatus(status)
			if st != "" && !st.Valid() {
				return fmt.Errorf("unknown status %q", status)
			}
			list, err := a.b.Jobs.ListJobs(cmd.Context(), st, limit)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSTATUS\tCREATED\tUPDATED\tAT")
			for _, j := range list {
				fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%s\n", j.ID, j.Status, j.CreatedCount, j.UpdatedCount, j.CreatedAt.Format("2006-01-02 15:04:05"))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "pending, completed or failed")
	cmd.Flags().IntVar(&limit, "limit", push.DefaultListLimit, "maximum number of jobs")
	return cmd
}

func newJobsProcessCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "process ID",
		Short: "Synchronize a pending job now, in the foreground",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			res, err := a.b.Jobs.ProcessJob(cmd.Context(), id)
			if errors.Is(err, push.ErrJobNotPending) {
				return fmt.Errorf("job %d is not pending", id)
			}
			if errors.Is(err, push.ErrJobBusy) {
				return fmt.Errorf("job %d is being processed elsewhere", id)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "job %d completed: %d created, %d updated\n", id, res.Created, res.Updated)
			return nil
		},
	}
}
