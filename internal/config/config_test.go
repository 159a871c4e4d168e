package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "master.ini")
	contents := `[master]
interface = eth1
cycle_period_us = 2000
socket_count = 8
process_image_size = 64

[al_state_timeouts]
PreOperational = 5000
Operational = 12000
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := Default()
	if err := LoadFile(path, &cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Interface != "eth1" {
		t.Fatalf("Interface = %q", cfg.Interface)
	}
	if cfg.CyclePeriod != 2*time.Millisecond {
		t.Fatalf("CyclePeriod = %v", cfg.CyclePeriod)
	}
	if cfg.SocketCount != 8 {
		t.Fatalf("SocketCount = %d", cfg.SocketCount)
	}
	if cfg.ProcessImageSize != 64 {
		t.Fatalf("ProcessImageSize = %d", cfg.ProcessImageSize)
	}
	if cfg.AlStateTimeouts["PreOperational"] != 5000 {
		t.Fatalf("AlStateTimeouts[PreOperational] = %d", cfg.AlStateTimeouts["PreOperational"])
	}
	if cfg.AlStateTimeouts["Operational"] != 12000 {
		t.Fatalf("AlStateTimeouts[Operational] = %d", cfg.AlStateTimeouts["Operational"])
	}
}

func TestParseLogLevelTrace(t *testing.T) {
	cfg := Default()
	cfg.LogLevel = "trace"
	lvl, err := cfg.ParseLogLevel()
	if err != nil {
		t.Fatal(err)
	}
	if lvl != -6 {
		t.Fatalf("trace level = %d, want -6", lvl)
	}
}
