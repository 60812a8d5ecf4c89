package monitor

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/proxy"
	"h12.io/socks"
)

// AllowedProxySchemes lists the proxy URL schemes a target may use.
var AllowedProxySchemes = map[string]struct{}{
	"http":    {},
	"https":   {},
	"socks4":  {},
	"socks5":  {},
	"socks5h": {},
}

func init() {
	proxy.RegisterDialerType("socks4", newSOCKS4Dialer)
}

// socks4Dialer adapts h12.io/socks to the x/net/proxy Dialer interface.
type socks4Dialer struct {
	dial func(network, addr string) (net.Conn, error)
}

func (d socks4Dialer) Dial(network, addr string) (net.Conn, error) {
	return d.dial(network, addr)
}

func newSOCKS4Dialer(u *url.URL, _ proxy.Dialer) (proxy.Dialer, error) {
	return socks4Dialer{dial: socks.Dial(u.String())}, nil
}

// newTransport returns a single-use transport routing through proxyURL.
func newTransport(proxyURL string, timeout time.Duration) (*http.Transport, error) {
	u, err := url.Parse(proxyURL)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy url: %w", err)
	}
	scheme := strings.ToLower(u.Scheme)
	if _, ok := AllowedProxySchemes[scheme]; !ok {
		return nil, fmt.Errorf("unsupported proxy scheme: %q", u.Scheme)
	}
	u.Scheme = scheme

	dialer := &net.Dialer{Timeout: timeout}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		DisableKeepAlives:     true,
		MaxIdleConns:          0,
		IdleConnTimeout:       0,
		TLSHandshakeTimeout:   timeout,
		ExpectContinueTimeout: 1 * time.Second,
	}

	switch scheme {
	case "http", "https":
		transport.Proxy = http.ProxyURL(u)
	case "socks4":
		q := u.Query()
		q.Set("timeout", timeout.String())
		u.RawQuery = q.Encode()
		fallthrough
	default:
		d, err := proxy.FromURL(u, dialer)
		if err != nil {
			return nil, fmt.Errorf("create %s dialer: %w", scheme, err)
		}
		transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			if scheme == "socks5" {
				// socks5 resolves locally, socks5h leaves it to the proxy
				resolved, err := resolveLocal(ctx, addr)
				if err != nil {
					return nil, err
				}
				addr = resolved
			}
			return dialContext(ctx, d, network, addr)
		}
	}
	return transport, nil
}

func resolveLocal(ctx context.Context, addr string) (string, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "", err
	}
	if net.ParseIP(host) != nil {
		return addr, nil
	}
	ips, err := net.DefaultResolver.LookupIPAddr(ctx, host)
	if err != nil {
		return "", err
	}
	if len(ips) == 0 {
		return "", fmt.Errorf("no addresses for host %s", host)
	}
	return net.JoinHostPort(ips[0].IP.String(), port), nil
}

func dialContext(ctx context.Context, d proxy.Dialer, network, addr string) (net.Conn, error) {
	if cd, ok := d.(proxy.ContextDialer); ok {
		return cd.DialContext(ctx, network, addr)
	}

	var (
		conn net.Conn
		err  error
		done = make(chan struct{})
	)
	go func() {
		conn, err = d.Dial(network, addr)
		close(done)
	}()
	select {
	case <-ctx.Done():
		go func() {
			<-done
			if conn != nil {
				conn.Close()
			}
		}()
		return nil, ctx.Err()
	case <-done:
		return conn, err
	}
}
