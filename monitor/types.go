// Package monitor defines core types for the proxy monitor.
package monitor

import (
	"strconv"
	"strings"
	"time"
)

type LogLevel int

const (
	LogNone  LogLevel = iota // no logs
	LogError                 // only errors
	LogInfo                  // info + warnings + errors
	LogDebug                 // verbose
)

// ProxyTarget is one monitored proxy and the push monitor it reports to.
type ProxyTarget struct {
	ID      string `json:"id"`
	Proxy   string `json:"proxy"`
	PushURL string `json:"push_url"`
	Remark  string `json:"remark,omitempty"`
}

// DisplayID is the label used in logs and pushed messages.
func (t ProxyTarget) DisplayID() string {
	if strings.TrimSpace(t.Remark) != "" {
		return t.Remark
	}
	return t.Proxy
}

// ProbeConfig holds the cycle-wide probe parameters shared by all targets.
type ProbeConfig struct {
	TestURL        string
	ExpectedStatus int
	Timeout        time.Duration
	Retries        int
	RetryDelay     time.Duration
	// Interval <= 0 runs a single cycle.
	Interval time.Duration
}

type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeSoftFailure
	OutcomeHardError
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeSoftFailure:
		return "soft_failure"
	case OutcomeHardError:
		return "hard_error"
	}
	return "unknown"
}

// Outcome is the classified result of a single probe attempt.
type Outcome struct {
	Kind       OutcomeKind
	LatencyMS  int64 // set on success only
	StatusCode int   // 0 for transport errors
	Err        string
}

func Success(latencyMS int64) Outcome { return Outcome{Kind: OutcomeSuccess, LatencyMS: latencyMS} }

func SoftFailure(statusCode int) Outcome {
	return Outcome{Kind: OutcomeSoftFailure, StatusCode: statusCode}
}

func HardError(msg string) Outcome { return Outcome{Kind: OutcomeHardError, Err: msg} }

// Attempt is one entry of a target's attempt log.
type Attempt struct {
	N       int
	Outcome Outcome
}

type Status int

const (
	StatusUp Status = iota
	StatusFailed
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusUp:
		return "UP"
	case StatusFailed:
		return "FAILED"
	case StatusError:
		return "ERROR"
	}
	return "UNKNOWN"
}

func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Result is the single terminal classification of a target for one cycle.
type Result struct {
	Target    ProxyTarget `json:"target"`
	Status    Status      `json:"status"`
	LatencyMS int64       `json:"latency_ms"`
	Detail    string      `json:"detail,omitempty"`
	Attempts  int         `json:"attempts"`
	CheckedAt time.Time   `json:"checked_at"`
}

// Report is what gets pushed to the monitor endpoint.
type Report struct {
	Status  string // "up" or "down"
	Message string
	Ping    *int64
}

// Report builds the push payload for the result.
func (r Result) Report() Report {
	id := r.Target.DisplayID()
	switch r.Status {
	case StatusUp:
		ping := r.LatencyMS
		return Report{
			Status:  "up",
			Message: "OK : " + id + " : OK (" + strconv.FormatInt(ping, 10) + " ms)",
			Ping:    &ping,
		}
	case StatusFailed:
		return Report{Status: "down", Message: "FAILED : " + id + " : FAILED"}
	default:
		return Report{Status: "down", Message: "ERROR : " + id + " : " + r.Detail}
	}
}
