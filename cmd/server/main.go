package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"taskboard/internal/api"
	"taskboard/internal/app"
	"taskboard/internal/config"
	"taskboard/internal/service"
	"taskboard/internal/sweep"
	"taskboard/pkg/activity"
	"taskboard/pkg/workflow"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "config.yaml", "server configuration file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	log := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()}))

	if err := run(cfg, log); err != nil {
		log.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stores, err := app.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer stores.Close()

	bus := activity.NewBus(stores.Activity)
	flow := workflow.Default()
	board := service.New(stores.Tasks, stores.Owners, bus, flow, log, service.Options{
		EnforceTransitions: cfg.EnforceTransitions,
	})
	if err := board.Refresh(ctx); err != nil {
		return err
	}

	if cfg.OverdueInterval > 0 {
		sw := sweep.New(board, log, "sweeper")
		if _, err := sw.Schedule(cfg.OverdueInterval); err != nil {
			return err
		}
		sw.Start()
		defer sw.Stop()
	}

	server := &http.Server{
		Addr: cfg.Address,
		Handler: api.New(board, bus, flow, log, api.Options{
			Project: cfg.Project,
			Actor:   cfg.Actor,
			APIKey:  cfg.APIKey,
		}),
		ReadHeaderTimeout: 10 * time.Second,
		// cancels open activity streams on shutdown
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("taskboard listening", "address", cfg.Address, "driver", cfg.Driver)
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown requested")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
