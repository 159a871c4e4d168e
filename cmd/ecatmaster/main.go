// Command ecatmaster runs an EtherCAT master cycle against a network
// interface: it brings discovered slaves to Operational and exchanges
// process data at a fixed cycle period until interrupted.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ecat-io/ethercat"
	"github.com/ecat-io/ethercat/clock"
	"github.com/ecat-io/ethercat/diag"
	"github.com/ecat-io/ethercat/internal/config"
	"github.com/ecat-io/ethercat/link"
	"github.com/ecat-io/ethercat/link/rawsock"
	"github.com/ecat-io/ethercat/master"
)

func main() {
	if err := run(); err != nil {
		log.Fatalln("ecatmaster:", err)
	}
}

func run() error {
	cfg := config.Default()

	// Pre-scan for -config so the file's values seed the defaults that
	// BindFlags then registers; a later -interface etc. on the same
	// command line still wins since flag.Parse runs after.
	preScan := flag.NewFlagSet("ecatmaster", flag.ContinueOnError)
	preScan.SetOutput(io.Discard)
	flagFile := preScan.String("config", "", "path to an INI config file; flags below override its values")
	preScan.Parse(os.Args[1:])
	if *flagFile != "" {
		if err := config.LoadFile(*flagFile, &cfg); err != nil {
			return err
		}
	}

	fs := flag.NewFlagSet("ecatmaster", flag.ExitOnError)
	fs.String("config", *flagFile, "path to an INI config file; flags below override its values")
	config.BindFlags(fs, &cfg)
	fs.Parse(os.Args[1:])

	lvl, err := cfg.ParseLogLevel()
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))

	drv, err := rawsock.Open(cfg.Interface)
	if err != nil {
		return fmt.Errorf("opening interface %s: %w", cfg.Interface, err)
	}
	defer drv.Close()

	metrics := diag.NewMetrics("ecatmaster")
	if cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(metrics)
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server stopped", slog.String("err", err.Error()))
			}
		}()
		defer srv.Close()
	}

	m := master.New(drv, toMasterConfig(cfg), master.WithLogger(logger), master.WithMetrics(metrics))
	return runMaster(m, drv, cfg, logger)
}

func toMasterConfig(cfg config.Config) master.Config {
	return master.Config{
		InterfaceName:    cfg.Interface,
		CyclePeriod:      cfg.CyclePeriod,
		SocketCount:      cfg.SocketCount,
		ProcessImageSize: cfg.ProcessImageSize,
		AlStateTimeouts:  cfg.AlStateTimeouts,
	}
}

func runMaster(m *master.Master, drv link.Driver, cfg config.Config, logger *slog.Logger) error {
	logger.Info("initializing network")
	if err := m.Init(); err != nil {
		return fmt.Errorf("network init: %w", err)
	}
	logger.Info("network initialized", slog.Int("slaves", m.Network().NumSlaves()))
	if err := m.ConfigureSlaveSettings(); err != nil {
		return fmt.Errorf("configure slave settings: %w", err)
	}

	broadcast := ethercat.BroadcastSlaves(uint16(m.Network().NumSlaves()))
	for _, desired := range []ethercat.AlState{
		ethercat.AlStateInit,
		ethercat.AlStatePreOperational,
		ethercat.AlStateSafeOperational,
		ethercat.AlStateOperational,
	} {
		observed, err := m.ChangeAlState(broadcast, desired)
		if err != nil {
			return fmt.Errorf("AL state transition to %s: %w", desired, err)
		}
		logger.Info("AL state reached", slog.String("state", observed.String()))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(cfg.CyclePeriod)
	defer ticker.Stop()
	wall := clock.NewWall()
	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			return nil
		case <-ticker.C:
			if err := m.ProcessOneCycle(wall.Now()); err != nil {
				return fmt.Errorf("process cycle: %w", err)
			}
		}
	}
}
