// Package config loads cmd/ecatmaster's runtime configuration from an INI
// file, with command-line flags overriding whatever the file set, mirroring
// the layered file-then-flags configuration style this codebase's pack
// favors for CLI entry points.
package config

import (
	"flag"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"gopkg.in/ini.v1"

	"github.com/ecat-io/ethercat/diag"
)

// Config is the fully-resolved set of parameters cmd/ecatmaster needs to
// start a Master: which interface to bind, how fast to cycle, and how large
// a process image to reserve.
type Config struct {
	Interface        string
	CyclePeriod      time.Duration
	SocketCount      int
	ProcessImageSize int
	MetricsAddr      string
	LogLevel         string
	AlStateTimeouts  map[string]uint32
}

// Default returns the baseline Config used when no file and no flags
// override it.
func Default() Config {
	return Config{
		Interface:        "eth0",
		CyclePeriod:      time.Millisecond,
		SocketCount:      4,
		ProcessImageSize: 0,
		MetricsAddr:      "",
		LogLevel:         "info",
		AlStateTimeouts:  map[string]uint32{},
	}
}

// LoadFile reads section [master] and section [al_state_timeouts] from an
// INI file at path into Config, leaving fields the file doesn't set at
// their current value.
func LoadFile(path string, cfg *Config) error {
	f, err := ini.Load(path)
	if err != nil {
		return fmt.Errorf("config: loading %s: %w", path, err)
	}
	master := f.Section("master")
	if k := master.Key("interface"); k.String() != "" {
		cfg.Interface = k.String()
	}
	if k := master.Key("cycle_period_us"); k.String() != "" {
		us, err := k.Int64()
		if err != nil {
			return fmt.Errorf("config: cycle_period_us: %w", err)
		}
		cfg.CyclePeriod = time.Duration(us) * time.Microsecond
	}
	if k := master.Key("socket_count"); k.String() != "" {
		n, err := k.Int()
		if err != nil {
			return fmt.Errorf("config: socket_count: %w", err)
		}
		cfg.SocketCount = n
	}
	if k := master.Key("process_image_size"); k.String() != "" {
		n, err := k.Int()
		if err != nil {
			return fmt.Errorf("config: process_image_size: %w", err)
		}
		cfg.ProcessImageSize = n
	}
	if k := master.Key("metrics_addr"); k.String() != "" {
		cfg.MetricsAddr = k.String()
	}
	if k := master.Key("log_level"); k.String() != "" {
		cfg.LogLevel = k.String()
	}

	if f.HasSection("al_state_timeouts") {
		timeouts := f.Section("al_state_timeouts")
		for _, k := range timeouts.Keys() {
			ms, err := strconv.ParseUint(k.Value(), 10, 32)
			if err != nil {
				return fmt.Errorf("config: al_state_timeouts.%s: %w", k.Name(), err)
			}
			cfg.AlStateTimeouts[k.Name()] = uint32(ms)
		}
	}
	return nil
}

// BindFlags registers flags on fs that override cfg's current values when
// the command line sets them; call after LoadFile (if any) and before
// fs.Parse.
func BindFlags(fs *flag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.Interface, "interface", cfg.Interface, "network interface to bind the link driver to")
	fs.DurationVar(&cfg.CyclePeriod, "cycle-period", cfg.CyclePeriod, "target interval between process-data exchanges")
	fs.IntVar(&cfg.SocketCount, "sockets", cfg.SocketCount, "transport socket pool size")
	fs.IntVar(&cfg.ProcessImageSize, "process-image-size", cfg.ProcessImageSize, "size in bytes of the cyclic process-data image")
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "address to serve Prometheus metrics on; empty disables")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "one of trace, debug, info, warn, error")
}

// ParseLogLevel resolves cfg.LogLevel to a slog.Level, recognizing "trace"
// as diag.LevelTrace in addition to slog's own names.
func (cfg Config) ParseLogLevel() (slog.Level, error) {
	if strings.EqualFold(cfg.LogLevel, "trace") {
		return diag.LevelTrace, nil
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		return 0, fmt.Errorf("config: log_level: %w", err)
	}
	return lvl, nil
}
