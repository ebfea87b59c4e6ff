package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "driver: sqlite\nsqlite_path: /tmp/board.db\noverdue_interval: 5m\nlog_level: DEBUG\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Driver != DriverSQLite || cfg.SQLitePath != "/tmp/board.db" {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.OverdueInterval != 5*time.Minute {
		t.Errorf("OverdueInterval = %s", cfg.OverdueInterval)
	}
	if cfg.Address != ":8080" {
		t.Errorf("default address not applied: %q", cfg.Address)
	}
	if cfg.Level() != slog.LevelDebug {
		t.Errorf("Level = %v", cfg.Level())
	}
}

func TestLoadMissingFileFallsBackToEnv(t *testing.T) {
	t.Setenv("TASKBOARD_DRIVER", "memory")
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Driver != DriverMemory {
		t.Errorf("Driver = %q", cfg.Driver)
	}
}

func TestLoadRejectsPostgresWithoutURL(t *testing.T) {
	t.Setenv("TASKBOARD_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error without DATABASE_URL")
	}
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("TASKBOARD_DRIVER", "mongo")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}
