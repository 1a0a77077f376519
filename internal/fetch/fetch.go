// Package fetch provides the single pooled HTTP client used by every
// component that talks to a notice board over HTTP (C1 in spec.md).
//
// The client is constructed once per process and reused, following the
// same pattern as the teacher's internal/linkresolver.WebFetcher: a
// shared *http.Client with a CheckRedirect hook, timeouts configured at
// construction time, and per-request headers applied at the call site.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"strings"
	"time"
)

// MaxRedirects bounds automatic redirect following.
const MaxRedirects = 5

// MaxBodyBytes is the hard cap on response bodies (~2 MiB).
const MaxBodyBytes = 2 * 1024 * 1024

var acceptedContentTypes = []string{
	"text/html",
	"application/xhtml+xml",
}

// Sentinel errors for the C1 upstream taxonomy (spec.md §4.1, §7).
var (
	ErrUpstreamNotModified          = errors.New("fetch: upstream not modified")
	ErrUpstreamUnexpectedContentType = errors.New("fetch: unexpected content type")
	ErrUpstreamBodyTooLarge          = errors.New("fetch: body too large")
)

// UpstreamHTTPError wraps a non-2xx upstream status code.
type UpstreamHTTPError struct {
	Status int
}

func (e *UpstreamHTTPError) Error() string {
	return fmt.Sprintf("fetch: upstream http %d", e.Status)
}

// Client is the process-wide fetcher. Construct one with New and share
// it across every component that issues HTTP requests.
type Client struct {
	http      *http.Client
	userAgent string
}

// Options configures a new Client.
type Options struct {
	UserAgent      string
	Timeout        time.Duration
	ConnectTimeout time.Duration
}

// New builds the process-wide HTTP client. Call this once per process.
func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 5 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "uRingCrawler/1.0"
	}

	dialer := &net.Dialer{Timeout: opts.ConnectTimeout}
	transport := &http.Transport{
		DialContext:         dialer.DialContext,
		TLSHandshakeTimeout: opts.ConnectTimeout,
	}

	return &Client{
		userAgent: opts.UserAgent,
		http: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= MaxRedirects {
					return fmt.Errorf("fetch: too many redirects (max %d)", MaxRedirects)
				}
				return nil
			},
		},
	}
}

// Fetch issues a GET request to rawURL and returns the response body,
// enforcing the upstream guards from spec.md §4.1.
func (c *Client) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch: build request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.1")
	req.Header.Set("Accept-Language", "ko-KR,ko;q=0.9,en;q=0.5")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		return nil, ErrUpstreamNotModified
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &UpstreamHTTPError{Status: resp.StatusCode}
	}

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		if !isAcceptedContentType(ct) {
			return nil, ErrUpstreamUnexpectedContentType
		}
	}

	if resp.ContentLength > MaxBodyBytes {
		return nil, ErrUpstreamBodyTooLarge
	}

	limited := io.LimitReader(resp.Body, MaxBodyBytes+1)
	body, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("fetch: read body: %w", err)
	}
	if len(body) > MaxBodyBytes {
		return nil, ErrUpstreamBodyTooLarge
	}

	return body, nil
}

func isAcceptedContentType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	}
	for _, accepted := range acceptedContentTypes {
		if mediaType == accepted {
			return true
		}
	}
	return false
}

// IsRetryable classifies an error from Fetch per spec.md §4.1: timeouts,
// connect errors, 5xx and 429 are retryable; everything else is fatal
// for that request.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var httpErr *UpstreamHTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Status == http.StatusTooManyRequests || httpErr.Status >= 500
	}

	// *url.Error and *net.OpError both satisfy net.Error, so connect
	// failures are recognised before the generic timeout check.
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	return false
}
