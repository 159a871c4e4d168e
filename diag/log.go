// Package diag carries the engine's structured logging and metrics: a thin
// slog wrapper adding MAC/station-address attribute helpers and a trace
// level below Debug, plus a Prometheus collector tracking cycle time, WKC
// mismatches, and task timeouts.
package diag

import (
	"context"
	"log/slog"

	"github.com/ecat-io/ethercat/internal"
)

// LevelTrace sits below slog.LevelDebug for the PDU-by-PDU chatter that is
// too verbose to enable even under -v.
const LevelTrace = internal.LevelTrace

// Enabled reports whether l would emit a record at lvl, tolerating a nil
// logger (treated as fully disabled) so callers never need a nil check
// before building attrs for a message that would be discarded anyway.
func Enabled(l *slog.Logger, lvl slog.Level) bool {
	return internal.LogEnabled(l, lvl)
}

// LogAttrs emits msg at level through l if non-nil, silently dropping the
// record otherwise.
func LogAttrs(l *slog.Logger, level slog.Level, msg string, attrs ...slog.Attr) {
	if l != nil {
		l.LogAttrs(context.Background(), level, msg, attrs...)
	}
}

// StationAddress returns a slog.Attr for a configured station address,
// logged as a plain uint64 to avoid allocating a formatted string on a path
// that may run once per cycle.
func StationAddress(key string, addr uint16) slog.Attr {
	return slog.Uint64(key, uint64(addr))
}

// HardwareAddress returns a slog.Attr for a 6-byte MAC address packed into
// a uint64, matching the non-allocating address-logging convention used
// throughout this codebase's ambient logging.
func HardwareAddress(key string, addr [6]byte) slog.Attr {
	return internal.SlogAddr6(key, &addr)
}
