package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"taskboard/pkg/activity"
)

func activityCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Show recent board activity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			taskID, _ := cmd.Flags().GetString("task")
			return e.withSession(cmd, func(s *session, out io.Writer) error {
				var (
					entries []activity.Entry
					err     error
				)
				if taskID != "" {
					entries, err = s.stores.Activity.ByTask(cmd.Context(), taskID, limit)
				} else {
					entries, err = s.stores.Activity.Recent(cmd.Context(), limit)
				}
				if err != nil {
					return err
				}
				if e.asJSON {
					return printJSON(out, entries)
				}
				if len(entries) == 0 {
					fmt.Fprintln(out, "No activity.")
					return nil
				}
				for _, en := range entries {
					fmt.Fprintf(out, "%s  %-15s %-10s %s\n",
						en.Timestamp.Format("2006-01-02 15:04:05"), en.Type, en.Actor, shortID(en.TaskID))
				}
				return nil
			})
		},
	}
	cmd.Flags().Int("limit", 20, "Max entries")
	cmd.Flags().String("task", "", "Only entries for this task id")
	return cmd
}

func verifyCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check the activity log hash chain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withSession(cmd, func(s *session, out io.Writer) error {
				n, err := s.stores.Activity.Count(cmd.Context())
				if err != nil {
					return err
				}
				if err := s.stores.Activity.VerifyChain(cmd.Context()); err != nil {
					return fmt.Errorf("chain broken: %w", err)
				}
				fmt.Fprintf(out, "Chain OK (%d entries)\n", n)
				return nil
			})
		},
	}
}
