package monitor

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ===== Cycle fan-out and reporting =====

// RunCycle checks every target concurrently and pushes each terminal result.
// It returns once every target has been checked and reported; results are in
// target order.
func (m *Monitor) RunCycle(ctx context.Context) []Result {
	cycleID := uuid.NewString()
	m.ilog("Cycle %s dispatching %d targets", cycleID, len(m.targets))

	results := make([]Result, len(m.targets))
	var g errgroup.Group
	for i, t := range m.targets {
		i, t := i, t
		g.Go(func() error {
			results[i] = m.checkAndReport(ctx, cycleID, t)
			return nil
		})
	}
	_ = g.Wait()

	m.ilog("Cycle %s finished", cycleID)
	return results
}

func (m *Monitor) checkAndReport(ctx context.Context, cycleID string, t ProxyTarget) Result {
	res, attempts := m.CheckTarget(ctx, t)
	m.ilog("Target %s finished after %d attempt(s) with %s", t.DisplayID(), len(attempts), res.Status)

	report := res.Report()
	if err := m.reporter.Send(ctx, t.PushURL, report); err != nil {
		m.logger.Error("Push failed",
			zap.String("cycle_id", cycleID),
			zap.String("target", t.DisplayID()),
			zap.Error(err))
	} else {
		m.logger.Info("Push sent",
			zap.String("cycle_id", cycleID),
			zap.String("target", t.DisplayID()),
			zap.String("status", report.Status))
	}

	m.saveResult(res)
	return res
}

func (m *Monitor) saveResult(res Result) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := res.Target.ID
	m.results[id] = append(m.results[id], res)
	if len(m.results[id]) > m.retention {
		m.results[id] = m.results[id][len(m.results[id])-m.retention:]
	}
}

// ===== Internal Logging Helper =====
func (m *Monitor) ilog(format string, args ...interface{}) {
	if m.enableInternalLogs {
		m.logger.Debug(fmt.Sprintf("[INTERNAL] "+format, args...))
	}
}
