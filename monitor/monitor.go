// Package monitor implements the high-level Monitor public API.
package monitor

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	defaultPushTimeout = 10 * time.Second
	defaultRetention   = 10
)

type Monitor struct {
	cfg     ProbeConfig
	targets []ProxyTarget

	prober      Prober
	reporter    Reporter
	pushTimeout time.Duration
	sleep       func(ctx context.Context, d time.Duration) error

	logLevel           LogLevel
	enableInternalLogs bool
	logger             *zap.Logger
	loggerExplicit     bool // set when WithLogger used

	// logging configuration accumulated by options
	logConsoleOpt *bool
	logFilesOpt   []string
	logDisableOpt bool

	mu        sync.Mutex
	retention int
	results   map[string][]Result
}

// ===== Constructor =====
func New(cfg ProbeConfig, targets []ProxyTarget, opts ...Option) *Monitor {
	m := &Monitor{
		cfg:         cfg,
		targets:     append([]ProxyTarget(nil), targets...),
		pushTimeout: defaultPushTimeout,
		sleep:       sleepContext,
		logLevel:    LogInfo,
		retention:   defaultRetention,
		results:     make(map[string][]Result),
	}
	for _, opt := range opts {
		opt(m)
	}
	// Build logger after options applied unless explicitly provided
	if !m.loggerExplicit {
		m.logger = m.buildLoggerFromConfig()
	}
	if m.logger == nil {
		m.logger = defaultConsoleLogger()
	}
	if m.prober == nil {
		m.prober = NewHTTPProber(cfg)
	}
	if m.reporter == nil {
		m.reporter = NewKumaReporter(m.pushTimeout)
	}
	return m
}

func defaultConsoleLogger() *zap.Logger {
	l, err := zap.NewProduction()
	if err != nil {
		return zap.NewNop()
	}
	return l
}

func (m *Monitor) zapLevel() zapcore.Level {
	switch m.logLevel {
	case LogError:
		return zap.ErrorLevel
	case LogDebug:
		return zap.DebugLevel
	default:
		return zap.InfoLevel
	}
}

func (m *Monitor) buildLoggerFromConfig() *zap.Logger {
	if m.logDisableOpt || m.logLevel == LogNone {
		return zap.NewNop()
	}

	// Console stays on unless explicitly set to false
	console := true
	if m.logConsoleOpt != nil {
		console = *m.logConsoleOpt
	}

	var paths []string
	seen := map[string]struct{}{}
	if console {
		paths = append(paths, "stdout")
		seen["stdout"] = struct{}{}
	}
	for _, f := range m.logFilesOpt {
		if f == "" {
			continue
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		paths = append(paths, f)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(m.zapLevel())
	// every attempt and push must produce its own line
	cfg.Sampling = nil
	if len(paths) > 0 {
		cfg.OutputPaths = paths
	}
	l, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return l
}

// ===== Public API =====

// Run executes check cycles until ctx is cancelled. A single cycle is run
// when once is set or the configured interval is not positive.
func (m *Monitor) Run(ctx context.Context, once bool) error {
	for {
		m.logger.Info("Starting check cycle", zap.Int("targets", len(m.targets)))
		m.RunCycle(ctx)

		if once || m.cfg.Interval <= 0 {
			return nil
		}

		m.logger.Info("Sleeping", zap.Duration("interval", m.cfg.Interval))
		if err := m.sleep(ctx, m.cfg.Interval); err != nil {
			if errors.Is(err, context.Canceled) {
				m.ilog("Run loop stopped")
				return nil
			}
			return err
		}
	}
}

// Logger returns the logger the monitor writes to.
func (m *Monitor) Logger() *zap.Logger { return m.logger }

// ListTargets returns all configured targets.
func (m *Monitor) ListTargets() []ProxyTarget {
	return append([]ProxyTarget(nil), m.targets...)
}

// GetResults returns the last N results of a target, oldest first.
func (m *Monitor) GetResults(id string, limit int) []Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	res := m.results[id]
	if limit > 0 && len(res) > limit {
		res = res[len(res)-limit:]
	}
	return append([]Result(nil), res...)
}

// Latest returns the most recent result of a target.
func (m *Monitor) Latest(id string) (Result, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	res := m.results[id]
	if len(res) == 0 {
		return Result{}, false
	}
	return res[len(res)-1], true
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
