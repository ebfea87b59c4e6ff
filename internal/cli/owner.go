package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func ownerCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "owner",
		Short: "Manage the people tasks are assigned to",
	}

	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Register an owner, or return the existing one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			email, _ := cmd.Flags().GetString("email")
			return e.withSession(cmd, func(s *session, out io.Writer) error {
				o, err := s.stores.Owners.Register(cmd.Context(), args[0], email)
				if err != nil {
					return err
				}
				if e.asJSON {
					return printJSON(out, o)
				}
				fmt.Fprintf(out, "%s  %s\n", o.ID, o.Name)
				return nil
			})
		},
	}
	add.Flags().String("email", "", "Email address")

	list := &cobra.Command{
		Use:   "list",
		Short: "List owners",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withSession(cmd, func(s *session, out io.Writer) error {
				owners, err := s.stores.Owners.List(cmd.Context())
				if err != nil {
					return err
				}
				if e.asJSON {
					return printJSON(out, owners)
				}
				for _, o := range owners {
					fmt.Fprintf(out, "%s  %-20s %s\n", o.ID, o.Name, o.Email)
				}
				return nil
			})
		},
	}

	cmd.AddCommand(add, list)
	return cmd
}
