// Package httpclient provides the HTTP client used by source adapters.
//
// External sources are fetched from operator-supplied URLs, so the client
// guards against SSRF (scheme allowlist, private-IP blocking, redirect cap)
// and applies a shared politeness rate limit so scraping sources do not
// hammer their upstreams.
package httpclient

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/pyatni4ka/ProjectVay-sub001/errors"
)

const (
	defaultMaxRedirects = 10
	defaultUserAgent    = "vay-ingest/1.0 (+https://github.com/pyatni4ka/ProjectVay-sub001)"

	// maxResponseBytes caps a single fetched document. Bulk dumps go through
	// go-getter instead of this client, so 16 MiB is generous for pages and
	// JSON feeds.
	maxResponseBytes = 16 << 20
)

// Client wraps http.Client with SSRF protection and a politeness limiter.
type Client struct {
	http         *http.Client
	limiter      *rate.Limiter
	allowPrivate bool
}

// Options customizes the SSRF guard.
type Options struct {
	// AllowPrivate disables loopback/private-IP blocking. Only for tests
	// against local fixture servers.
	AllowPrivate bool
}

// New creates a guarded HTTP client. requestsPerSecond <= 0 disables rate
// limiting (used by tests against local fixtures).
func New(timeout time.Duration, requestsPerSecond float64) *Client {
	return NewWithOptions(timeout, requestsPerSecond, Options{})
}

// NewWithOptions creates a guarded HTTP client with explicit guard options.
func NewWithOptions(timeout time.Duration, requestsPerSecond float64, opts Options) *Client {
	c := &Client{allowPrivate: opts.AllowPrivate}
	if requestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
	}

	dialer := &net.Dialer{Timeout: 30 * time.Second, KeepAlive: 30 * time.Second}
	transport := &http.Transport{
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			host, _, err := net.SplitHostPort(addr)
			if err != nil {
				return nil, errors.Wrap(err, "invalid address")
			}
			ips, err := net.DefaultResolver.LookupIP(ctx, "ip", host)
			if err != nil {
				return nil, errors.Wrapf(err, "resolve host %q", host)
			}
			if !c.allowPrivate {
				for _, ip := range ips {
					if isForbiddenIP(ip) {
						return nil, errors.Newf("blocked IP address: %s", ip)
					}
				}
			}
			return dialer.DialContext(ctx, network, addr)
		},
		MaxIdleConns:        32,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	c.http = &http.Client{
		Timeout:   timeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= defaultMaxRedirects {
				return errors.Newf("stopped after %d redirects", defaultMaxRedirects)
			}
			if err := c.validateURL(req.URL); err != nil {
				return errors.Wrap(err, "redirect blocked")
			}
			return nil
		},
	}
	return c
}

// Get fetches rawURL and returns the response body, limited to
// maxResponseBytes. The politeness limiter is awaited before the request.
func (c *Client) Get(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.Wrapf(err, "parse url %q", rawURL)
	}
	if err := c.validateURL(u); err != nil {
		return nil, err
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, errors.Wrap(err, "rate limiter")
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "build request")
	}
	req.Header.Set("User-Agent", defaultUserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "fetch %s", u.Host)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf("fetch %s: unexpected status %d", u.Host, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return nil, errors.Wrapf(err, "read response from %s", u.Host)
	}
	if len(body) > maxResponseBytes {
		return nil, errors.Newf("response from %s exceeds %d bytes", u.Host, maxResponseBytes)
	}
	return body, nil
}

// validateURL rejects URLs an adapter must never follow.
func (c *Client) validateURL(u *url.URL) error {
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return errors.Newf("scheme %q not allowed", scheme)
	}
	if u.User != nil {
		// Credential injection or URL confusion: http://evil.com@localhost/
		return errors.New("URL must not carry userinfo")
	}
	if !c.allowPrivate {
		if ip := net.ParseIP(u.Hostname()); ip != nil && isForbiddenIP(ip) {
			return errors.Newf("blocked IP address: %s", ip)
		}
	}
	return nil
}

func isForbiddenIP(ip net.IP) bool {
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() || ip.IsUnspecified()
}
