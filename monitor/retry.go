package monitor

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type retryState int

const (
	stateAttempting retryState = iota
	stateSucceeded
	stateExhausted
	stateErrored
)

// CheckTarget drives one target through its retry budget and returns the
// terminal result together with the log of every attempt made.
//
// A hard error ends the run immediately, a success ends it immediately and a
// soft failure is retried after RetryDelay until Retries attempts were made.
func (m *Monitor) CheckTarget(ctx context.Context, target ProxyTarget) (Result, []Attempt) {
	name := target.DisplayID()
	retries := m.cfg.Retries
	if retries < 1 {
		retries = 1
	}

	var (
		attempts []Attempt
		state    = stateAttempting
		n        = 1
		res      = Result{Target: target}
	)

	for state == stateAttempting {
		out := m.prober.Attempt(ctx, target.Proxy)
		attempts = append(attempts, Attempt{N: n, Outcome: out})

		switch out.Kind {
		case OutcomeHardError:
			m.logger.Error("Proxy error",
				zap.String("target", name),
				zap.String("error", out.Err))
			res.Status = StatusError
			res.Detail = out.Err
			state = stateErrored

		case OutcomeSuccess:
			m.logger.Info("Proxy OK",
				zap.String("target", name),
				zap.String("proxy", target.Proxy),
				zap.Int("attempt", n),
				zap.Int64("latency_ms", out.LatencyMS))
			res.Status = StatusUp
			res.LatencyMS = out.LatencyMS
			state = stateSucceeded

		case OutcomeSoftFailure:
			m.logger.Warn("Proxy failed",
				zap.String("target", name),
				zap.String("proxy", target.Proxy),
				zap.Int("attempt", n),
				zap.Int("retries", retries),
				zap.Int("status_code", out.StatusCode))
			if n >= retries {
				m.logger.Error("Proxy failed after retries",
					zap.String("target", name),
					zap.String("proxy", target.Proxy))
				res.Status = StatusFailed
				state = stateExhausted
				break
			}
			if err := m.sleep(ctx, m.cfg.RetryDelay); err != nil {
				m.logger.Error("Proxy error",
					zap.String("target", name),
					zap.String("error", err.Error()))
				res.Status = StatusError
				res.Detail = err.Error()
				state = stateErrored
				break
			}
			n++

		default:
			res.Status = StatusError
			res.Detail = "unknown probe outcome: " + out.Kind.String()
			state = stateErrored
		}
	}

	res.Attempts = len(attempts)
	res.CheckedAt = time.Now()
	return res, attempts
}
