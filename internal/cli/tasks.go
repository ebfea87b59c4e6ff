package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"taskboard/pkg/task"
)

// parseDue accepts a calendar date or an RFC 3339 timestamp.
func parseDue(raw string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: due date %q: want YYYY-MM-DD or RFC 3339", task.ErrInvalid, raw)
	}
	return t, nil
}

func addCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a task at the end of the project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			t := task.Task{Title: args[0]}
			t.Description, _ = flags.GetString("description")
			t.Owner, _ = flags.GetString("owner")
			t.ParentID, _ = flags.GetString("parent")
			t.DependsOn, _ = flags.GetStringSlice("depends-on")
			if v, _ := flags.GetString("priority"); v != "" {
				p, err := task.ParsePriority(v)
				if err != nil {
					return err
				}
				t.Priority = p
			}
			if v, _ := flags.GetString("due"); v != "" {
				due, err := parseDue(v)
				if err != nil {
					return err
				}
				t.DueDate = &due
			}

			return e.withSession(cmd, func(s *session, out io.Writer) error {
				t.ProjectID = s.cfg.Project
				created, err := s.board.Create(cmd.Context(), s.cfg.Actor, t)
				if err != nil {
					return err
				}
				if e.asJSON {
					return printJSON(out, created)
				}
				fmt.Fprintf(out, "Created %s %q\n", created.ID, created.Title)
				return nil
			})
		},
	}
	cmd.Flags().StringP("description", "d", "", "Longer description")
	cmd.Flags().String("priority", "", "urgent, high, medium or low (default medium)")
	cmd.Flags().String("owner", "", "Owner id")
	cmd.Flags().String("parent", "", "Parent task id, making this a subtask")
	cmd.Flags().StringSlice("depends-on", nil, "Ids of tasks that must be concluida first")
	cmd.Flags().String("due", "", "Due date (YYYY-MM-DD or RFC 3339)")
	return cmd
}

func updateCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Edit task fields; only the flags given are changed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := patchFromFlags(cmd)
			if err != nil {
				return err
			}
			return e.withSession(cmd, func(s *session, out io.Writer) error {
				t, err := s.board.Update(cmd.Context(), s.cfg.Actor, args[0], p)
				if err != nil {
					return err
				}
				if e.asJSON {
					return printJSON(out, t)
				}
				fmt.Fprintf(out, "Updated %s\n", t.ID)
				return nil
			})
		},
	}
	cmd.Flags().String("title", "", "New title")
	cmd.Flags().StringP("description", "d", "", "New description")
	cmd.Flags().String("priority", "", "New priority")
	cmd.Flags().String("owner", "", "New owner id")
	cmd.Flags().String("parent", "", "New parent id (empty to detach)")
	cmd.Flags().StringSlice("depends-on", nil, "Replace dependencies")
	cmd.Flags().String("due", "", "New due date (empty to clear)")
	return cmd
}

func patchFromFlags(cmd *cobra.Command) (task.Patch, error) {
	var p task.Patch
	flags := cmd.Flags()
	str := func(name string) *string {
		if !flags.Changed(name) {
			return nil
		}
		v, _ := flags.GetString(name)
		return &v
	}
	p.Title = str("title")
	p.Description = str("description")
	p.Owner = str("owner")
	p.ParentID = str("parent")
	if v := str("priority"); v != nil {
		pr, err := task.ParsePriority(*v)
		if err != nil {
			return p, err
		}
		p.Priority = &pr
	}
	if flags.Changed("depends-on") {
		deps, _ := flags.GetStringSlice("depends-on")
		p.DependsOn = &deps
	}
	if v := str("due"); v != nil {
		if *v == "" {
			p.ClearDueDate = true
		} else {
			due, err := parseDue(*v)
			if err != nil {
				return p, err
			}
			p.DueDate = &due
		}
	}
	return p, nil
}

func rmCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withSession(cmd, func(s *session, out io.Writer) error {
				if err := s.board.Delete(cmd.Context(), s.cfg.Actor, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(out, "Deleted %s\n", args[0])
				return nil
			})
		},
	}
}
