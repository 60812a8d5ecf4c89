package monitor

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Reporter pushes a terminal result to a push-based monitor endpoint.
type Reporter interface {
	Send(ctx context.Context, pushURL string, r Report) error
}

// KumaReporter speaks the Uptime Kuma push protocol: a GET on the push URL
// with status, msg and ping query parameters.
type KumaReporter struct {
	httpClient *http.Client
}

func NewKumaReporter(timeout time.Duration) *KumaReporter {
	return &KumaReporter{httpClient: &http.Client{Timeout: timeout}}
}

func (k *KumaReporter) Send(ctx context.Context, pushURL string, r Report) error {
	u, err := PushURL(pushURL, r)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create push request: %w", err)
	}
	resp, err := k.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBytes))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("push endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// PushURL merges the report into the query of pushURL. Parameters already
// present on the URL are overwritten.
func PushURL(pushURL string, r Report) (string, error) {
	u, err := url.Parse(pushURL)
	if err != nil {
		return "", fmt.Errorf("invalid push url: %w", err)
	}
	q := u.Query()
	q.Set("status", r.Status)
	q.Set("msg", r.Message)
	if r.Ping != nil {
		q.Set("ping", strconv.FormatInt(*r.Ping, 10))
	} else {
		q.Set("ping", "")
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
