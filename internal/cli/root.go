// Package cli implements the tb command: a terminal front end to the board.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"taskboard/internal/app"
	"taskboard/internal/config"
	"taskboard/internal/service"
	"taskboard/pkg/board"
	"taskboard/pkg/task"
	"taskboard/pkg/workflow"
)

// env carries global flags and the storage opener shared by every command.
type env struct {
	configPath string
	project    string
	actor      string
	asJSON     bool

	open func(ctx context.Context, cfg config.Config, log *slog.Logger) (*app.Stores, error)
}

// session is one command's view of the board.
type session struct {
	cfg    config.Config
	stores *app.Stores
	board  *service.Board
	flow   workflow.Table
	log    *slog.Logger
}

func (s *session) Close() { s.stores.Close() }

func (e *env) session(ctx context.Context) (*session, error) {
	cfg, err := config.Load(e.configPath)
	if err != nil {
		return nil, err
	}
	if e.project != "" {
		cfg.Project = e.project
	}
	if e.actor != "" {
		cfg.Actor = e.actor
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()}))

	stores, err := e.open(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	flow := workflow.Default()
	b := service.New(stores.Tasks, stores.Owners, stores.Activity, flow, log, service.Options{})
	return &session{cfg: cfg, stores: stores, board: b, flow: flow, log: log}, nil
}

// filter builds a board filter from the shared filter flags.
func (s *session) filter(cmd *cobra.Command) (board.Filter, error) {
	f := board.Filter{ProjectID: s.cfg.Project}
	f.Owner, _ = cmd.Flags().GetString("owner")
	f.Search, _ = cmd.Flags().GetString("search")
	if v, _ := cmd.Flags().GetString("status"); v != "" {
		st, err := task.ParseStatus(v)
		if err != nil {
			return f, err
		}
		f.Status = st
	}
	if v, _ := cmd.Flags().GetString("priority"); v != "" {
		p, err := task.ParsePriority(v)
		if err != nil {
			return f, err
		}
		f.Priority = p
	}
	return f, nil
}

func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().String("status", "", "Only tasks with this status")
	cmd.Flags().String("owner", "", "Only tasks owned by this id")
	cmd.Flags().String("priority", "", "Only tasks with this priority")
	cmd.Flags().StringP("search", "q", "", "Case-insensitive title/description search")
}

// NewRootCmd builds the tb command tree.
func NewRootCmd() *cobra.Command {
	e := &env{open: app.Open}
	return newRootCmd(e)
}

func newRootCmd(e *env) *cobra.Command {
	root := &cobra.Command{
		Use:   "tb",
		Short: "tb - task board",
		Long: `tb manages a project task board from the terminal.

It shares storage and configuration with the taskboard server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&e.configPath, "config", "c", "", "Path to a YAML config file")
	root.PersistentFlags().StringVarP(&e.project, "project", "p", "", "Project to work on (overrides TASKBOARD_PROJECT)")
	root.PersistentFlags().StringVar(&e.actor, "actor", "", "Actor recorded in the activity log")
	root.PersistentFlags().BoolVar(&e.asJSON, "json", false, "Print JSON instead of text")

	root.AddCommand(
		listCmd(e),
		kanbanCmd(e),
		blockedCmd(e),
		doctorCmd(e),
		addCmd(e),
		updateCmd(e),
		reorderCmd(e),
		moveCmd(e),
		rmCmd(e),
		activityCmd(e),
		verifyCmd(e),
		ownerCmd(e),
	)
	return root
}

// Execute runs the tb command.
func Execute(version string) error {
	root := NewRootCmd()
	root.Version = version
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

// withSession opens storage for the duration of fn.
func (e *env) withSession(cmd *cobra.Command, fn func(s *session, out io.Writer) error) error {
	s, err := e.session(cmd.Context())
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s, cmd.OutOrStdout())
}
