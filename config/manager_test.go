package config

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestManagerCreatesAndUpdates(t *testing.T) {
	dir := t.TempDir()
	mgr, err := NewManager(WithConfigDir(dir))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	path := filepath.Join(dir, "config.json")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file not created: %v", err)
	}

	cfg := mgr.Get()
	cfg.HoldDaysShort = 3
	cfg.HoldDaysLong = 15
	cfg.MaxToolResultChars = 2000
	cfg.QuickThinkLLM = "deepseek-chat-v2"

	data, _ := json.Marshal(cfg)
	if err := mgr.UpdateFromJSON(string(data)); err != nil {
		t.Fatalf("UpdateFromJSON: %v", err)
	}

	updated := mgr.Get()
	if updated.HoldDaysShort != 3 || updated.HoldDaysLong != 15 {
		t.Fatalf("hold days not updated: %d/%d", updated.HoldDaysShort, updated.HoldDaysLong)
	}
	if updated.QuickThinkLLM != "deepseek-chat-v2" {
		t.Fatalf("quick model not updated: %s", updated.QuickThinkLLM)
	}
}

func TestManagerRejectsInvalidUpdate(t *testing.T) {
	dir := t.TempDir()
	mgr, err := NewManager(WithConfigDir(dir))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	cfg := mgr.Get()
	cfg.HoldDaysShort = 20
	cfg.HoldDaysLong = 5

	if err := mgr.Update(cfg); err == nil {
		t.Fatalf("short hold period longer than long hold period must be rejected")
	}
	if got := mgr.Get(); got.HoldDaysShort == 20 {
		t.Fatalf("rejected update leaked into the active config")
	}
}

func TestManagerWatchReloads(t *testing.T) {
	dir := t.TempDir()
	mgr, err := NewManager(WithConfigDir(dir))
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan Config, 1)
	if err := mgr.Watch(ctx, func(cfg Config) {
		reloaded <- cfg
	}); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	cfg := mgr.Get()
	cfg.HoldDaysShort = 7
	cfg.HoldDaysLong = 20

	if err := writeConfigFile(mgr.Path(), cfg); err != nil {
		t.Fatalf("writeConfigFile: %v", err)
	}

	select {
	case got := <-reloaded:
		if got.HoldDaysShort != 7 || got.HoldDaysLong != 20 {
			t.Fatalf("reloaded config carries stale hold days: %d/%d", got.HoldDaysShort, got.HoldDaysLong)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("watcher did not fire on config change")
	}
}
