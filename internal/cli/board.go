package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"taskboard/pkg/task"
)

func listCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show the board as a list with subtasks under their parents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withSession(cmd, func(s *session, out io.Writer) error {
				f, err := s.filter(cmd)
				if err != nil {
					return err
				}
				items, err := s.board.List(cmd.Context(), f)
				if err != nil {
					return err
				}
				if e.asJSON {
					return printJSON(out, items)
				}
				printList(out, items)
				return nil
			})
		},
	}
	addFilterFlags(cmd)
	return cmd
}

func kanbanCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kanban",
		Short: "Show the board as status columns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withSession(cmd, func(s *session, out io.Writer) error {
				f, err := s.filter(cmd)
				if err != nil {
					return err
				}
				cols, err := s.board.Kanban(cmd.Context(), f)
				if err != nil {
					return err
				}
				if e.asJSON {
					return printJSON(out, cols)
				}
				printKanban(out, cols)
				return nil
			})
		},
	}
	addFilterFlags(cmd)
	return cmd
}

func blockedCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "blocked <id>",
		Short: "Explain whether a task is blocked by its dependencies",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withSession(cmd, func(s *session, out io.Writer) error {
				info, err := s.board.Blocked(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if e.asJSON {
					return printJSON(out, info)
				}
				if !info.Blocked {
					fmt.Fprintf(out, "%s is not blocked\n", info.TaskID)
					return nil
				}
				fmt.Fprintf(out, "%s is blocked by:\n", info.TaskID)
				for _, name := range info.Unresolved {
					fmt.Fprintf(out, "  - %s\n", name)
				}
				return nil
			})
		},
	}
}

func doctorCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Report dangling parent and dependency references",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withSession(cmd, func(s *session, out io.Writer) error {
				diags, err := s.board.Diagnostics(cmd.Context())
				if err != nil {
					return err
				}
				if e.asJSON {
					return printJSON(out, diags)
				}
				if len(diags) == 0 {
					fmt.Fprintln(out, "No problems found.")
					return nil
				}
				for _, d := range diags {
					fmt.Fprintln(out, d.String())
				}
				return nil
			})
		},
	}
}

func reorderCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "reorder <dragged-id> <target-id>",
		Short: "Swap the manual positions of two tasks",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withSession(cmd, func(s *session, out io.Writer) error {
				if err := s.board.Reorder(cmd.Context(), s.cfg.Actor, args[0], args[1]); err != nil {
					return err
				}
				fmt.Fprintf(out, "Swapped %s and %s\n", shortID(args[0]), shortID(args[1]))
				return nil
			})
		},
	}
}

func moveCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "move <id> <status>",
		Short: "Move a task to the end of another kanban column",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withSession(cmd, func(s *session, out io.Writer) error {
				f, err := s.filter(cmd)
				if err != nil {
					return err
				}
				to := task.Status(args[1])
				if err := s.board.Move(cmd.Context(), s.cfg.Actor, args[0], to, f); err != nil {
					return err
				}
				t, err := s.board.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Moved %s to %s (position %d)\n", shortID(t.ID), s.flow.LabelOf(t.Status), t.Position)
				return nil
			})
		},
	}
	addFilterFlags(cmd)
	return cmd
}
