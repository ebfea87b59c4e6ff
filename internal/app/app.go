// Package app wires storage for the configured driver. The server and the
// CLI share it.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"taskboard/internal/config"
	"taskboard/internal/db"
	"taskboard/pkg/activity"
	"taskboard/pkg/owner"
	"taskboard/pkg/task"
)

// Stores groups the backends for one driver.
type Stores struct {
	Tasks    task.Store
	Owners   owner.Store
	Activity activity.Store

	closers []func()
}

// Close releases database handles.
func (s *Stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// Open connects the stores for cfg.Driver and ensures their tables.
// Only the postgres driver persists owners and activity; the sqlite driver
// persists tasks and keeps the rest in memory.
func Open(ctx context.Context, cfg config.Config, log *slog.Logger) (*Stores, error) {
	s := &Stores{}

	switch cfg.Driver {
	case config.DriverPostgres:
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect: %w", err)
		}
		s.closers = append(s.closers, pool.Close)
		s.Tasks = task.NewPgStore(pool)
		s.Owners = owner.NewPgStore(pool)
		s.Activity = activity.NewPgStore(pool)

	case config.DriverSQLite:
		gdb, err := db.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		if sqlDB, err := gdb.DB(); err == nil {
			s.closers = append(s.closers, func() {
				if err := sqlDB.Close(); err != nil {
					log.Error("close sqlite", "error", err)
				}
			})
		}
		s.Tasks = task.NewSQLiteStore(gdb)
		s.Owners = owner.NewMemStore()
		s.Activity = activity.NewMemStore()

	default:
		s.Tasks = task.NewMemStore()
		s.Owners = owner.NewMemStore()
		s.Activity = activity.NewMemStore()
	}

	if err := s.Tasks.EnsureTable(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("ensure tasks table: %w", err)
	}
	if err := s.Owners.EnsureTable(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("ensure owners table: %w", err)
	}
	if err := s.Activity.EnsureTable(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("ensure activity table: %w", err)
	}

	log.Debug("stores ready", "driver", cfg.Driver)
	return s, nil
}
