// Package monitor exposes configuration options for the Monitor via a
// functional options API.
package monitor

import (
	"time"

	"go.uber.org/zap"
)

// ===== Options Pattern =====
type Option func(*Monitor)

func WithLogLevel(level LogLevel) Option {
	return func(m *Monitor) { m.logLevel = level }
}

// enable/disable internal logs
func WithInternalLogs(enabled bool) Option {
	return func(m *Monitor) { m.enableInternalLogs = enabled }
}

// WithLogger allows injecting a custom zap logger (useful in tests).
func WithLogger(l *zap.Logger) Option {
	return func(m *Monitor) {
		m.logger = l
		m.loggerExplicit = l != nil
	}
}

// LogConsole toggles the stdout sink.
func LogConsole(enabled bool) Option {
	return func(m *Monitor) { m.logConsoleOpt = &enabled }
}

// LogFile adds a file sink; repeatable.
func LogFile(path string) Option {
	return func(m *Monitor) { m.logFilesOpt = append(m.logFilesOpt, path) }
}

func DisableLogs() Option {
	return func(m *Monitor) { m.logDisableOpt = true }
}

// WithProber replaces the HTTP prober.
func WithProber(p Prober) Option {
	return func(m *Monitor) { m.prober = p }
}

// WithReporter replaces the Uptime Kuma reporter.
func WithReporter(r Reporter) Option {
	return func(m *Monitor) { m.reporter = r }
}

// WithPushTimeout bounds each push request of the default reporter.
func WithPushTimeout(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.pushTimeout = d
		}
	}
}

// WithResultRetention sets the max number of in-memory results kept per target.
func WithResultRetention(n int) Option {
	return func(m *Monitor) {
		if n > 0 {
			m.retention = n
		}
	}
}
