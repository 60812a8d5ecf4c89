package monitor

import (
	"context"
	"io"
	"net/http"
	"time"
)

const maxDrainBytes = 64 << 10

// Prober performs a single test request through a proxy.
type Prober interface {
	Attempt(ctx context.Context, proxy string) Outcome
}

// HTTPProber requests the configured test URL through the proxy with a
// fresh client per attempt.
type HTTPProber struct {
	testURL        string
	expectedStatus int
	timeout        time.Duration
}

func NewHTTPProber(cfg ProbeConfig) *HTTPProber {
	return &HTTPProber{
		testURL:        cfg.TestURL,
		expectedStatus: cfg.ExpectedStatus,
		timeout:        cfg.Timeout,
	}
}

func (p *HTTPProber) Attempt(ctx context.Context, proxy string) Outcome {
	transport, err := newTransport(proxy, p.timeout)
	if err != nil {
		return HardError(err.Error())
	}
	defer transport.CloseIdleConnections()

	client := &http.Client{
		Transport: transport,
		Timeout:   p.timeout,
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.testURL, nil)
	if err != nil {
		return HardError(err.Error())
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return HardError(err.Error())
	}
	latency := time.Since(start)
	defer resp.Body.Close()
	_, _ = io.CopyN(io.Discard, resp.Body, maxDrainBytes)

	if resp.StatusCode != p.expectedStatus {
		return SoftFailure(resp.StatusCode)
	}
	return Success(latency.Milliseconds())
}
