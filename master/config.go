// Package master binds the socket layer, the network model, and the task
// set into the public operations an EtherCAT application drives: network
// initialization, AL-state transitions, SDO access, and the cyclic
// process-data exchange.
package master

import (
	"log/slog"
	"time"

	"github.com/ecat-io/ethercat/diag"
)

// Config is the small, explicit set of parameters a Master is constructed
// from.
type Config struct {
	// InterfaceName names the network interface a link driver should bind
	// to; unused by the master itself, kept here so cmd/ecatmaster can
	// build its Config from one place and pass it through unchanged.
	InterfaceName string
	// CyclePeriod is the target interval between process-data exchanges.
	CyclePeriod time.Duration
	// SocketCount sizes the transport's fixed socket pool.
	SocketCount int
	// ProcessImageSize is the size in bytes of the logical process-data
	// image exchanged by ProcessDataExchange.
	ProcessImageSize int
	// AlStateTimeouts overrides the default per-edge AL-state transition
	// budgets in milliseconds; a zero entry leaves the task's built-in
	// default budget in effect.
	AlStateTimeouts map[string]uint32
}

// DefaultConfig returns a Config suitable for a small segment: 4 sockets,
// a 1ms cycle period, no process image, no timeout overrides.
func DefaultConfig() Config {
	return Config{
		SocketCount:      4,
		CyclePeriod:      time.Millisecond,
		ProcessImageSize: 0,
	}
}

// Option configures a Master at construction time.
type Option func(*options)

type options struct {
	logger  *slog.Logger
	metrics *diag.Metrics
}

// WithLogger attaches a structured logger; if omitted, Master logs nowhere.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics attaches a Metrics collector the Master updates every cycle
// and on every task timeout; if omitted, no metrics are recorded.
func WithMetrics(m *diag.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

func newOptions(opts []Option) options {
	var o options
	for _, fn := range opts {
		fn(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	return o
}
