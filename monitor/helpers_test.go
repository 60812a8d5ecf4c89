package monitor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// scriptedProber returns a fixed sequence of outcomes per proxy; the last
// outcome repeats once the script is exhausted.
type scriptedProber struct {
	mu      sync.Mutex
	scripts map[string][]Outcome
	calls   map[string]int
	block   map[string]chan struct{}
}

func newScriptedProber(scripts map[string][]Outcome) *scriptedProber {
	return &scriptedProber{
		scripts: scripts,
		calls:   make(map[string]int),
		block:   make(map[string]chan struct{}),
	}
}

func (p *scriptedProber) Attempt(ctx context.Context, proxy string) Outcome {
	p.mu.Lock()
	i := p.calls[proxy]
	p.calls[proxy]++
	script := p.scripts[proxy]
	gate := p.block[proxy]
	p.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return HardError(ctx.Err().Error())
		}
	}
	if len(script) == 0 {
		return HardError("no script for " + proxy)
	}
	if i >= len(script) {
		return script[len(script)-1]
	}
	return script[i]
}

func (p *scriptedProber) Calls(proxy string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[proxy]
}

type sentReport struct {
	PushURL string
	Report  Report
}

type recordingReporter struct {
	mu    sync.Mutex
	sent  []sentReport
	fail  map[string]bool
	order chan string
}

func (r *recordingReporter) Send(_ context.Context, pushURL string, rep Report) error {
	r.mu.Lock()
	r.sent = append(r.sent, sentReport{PushURL: pushURL, Report: rep})
	fail := r.fail[pushURL]
	r.mu.Unlock()
	if r.order != nil {
		r.order <- pushURL
	}
	if fail {
		return errors.New("push endpoint unreachable")
	}
	return nil
}

func (r *recordingReporter) Sent() []sentReport {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]sentReport(nil), r.sent...)
}

func (r *recordingReporter) For(pushURL string) []sentReport {
	var out []sentReport
	for _, s := range r.Sent() {
		if s.PushURL == pushURL {
			out = append(out, s)
		}
	}
	return out
}

type testMonitor struct {
	*Monitor
	prober   *scriptedProber
	reporter *recordingReporter
	logs     *observer.ObservedLogs
	sleeps   *atomic.Int32
	delays   chan time.Duration
}

func newTestMonitor(t *testing.T, cfg ProbeConfig, targets []ProxyTarget, scripts map[string][]Outcome, opts ...Option) *testMonitor {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	prober := newScriptedProber(scripts)
	reporter := &recordingReporter{fail: map[string]bool{}}

	m := New(cfg, targets, append([]Option{
		WithLogger(zap.New(core)),
		WithProber(prober),
		WithReporter(reporter),
	}, opts...)...)
	tm := &testMonitor{
		Monitor:  m,
		prober:   prober,
		reporter: reporter,
		logs:     logs,
		sleeps:   &atomic.Int32{},
		delays:   make(chan time.Duration, 64),
	}
	m.sleep = func(ctx context.Context, d time.Duration) error {
		tm.sleeps.Add(1)
		select {
		case tm.delays <- d:
		default:
		}
		return ctx.Err()
	}
	return tm
}

func target(proxy, remark string) ProxyTarget {
	return ProxyTarget{ID: "id-" + proxy, Proxy: proxy, PushURL: "push-" + proxy, Remark: remark}
}

func probeConfig(retries int) ProbeConfig {
	return ProbeConfig{
		TestURL:        "http://probe.test/",
		ExpectedStatus: 200,
		Timeout:        time.Second,
		Retries:        retries,
		RetryDelay:     10 * time.Millisecond,
	}
}
