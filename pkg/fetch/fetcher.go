// Package fetch retrieves listing pages and file bodies over HTTP.
//
// A Fetcher owns a single reusable http.Client, the shared transfer handle
// of one plugin instance. Calls are issued sequentially: the host never
// overlaps a listing with a download, so the Fetcher does no locking of
// its own and callers must not issue a second request while one is
// outstanding.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/marmos91/hreffs/internal/logger"
	"github.com/marmos91/hreffs/internal/ratelimiter"
)

// Options controls how requests are issued.
type Options struct {
	// FollowRedirects makes the client follow 3xx responses
	FollowRedirects bool

	// MaxRedirects bounds the redirect chain when FollowRedirects is set.
	// A negative value means unlimited.
	MaxRedirects int

	// Timeout bounds listing and probe requests (0 = no timeout).
	// Downloads are never bounded by it.
	Timeout time.Duration

	// Verbose logs every request and response line at INFO level
	Verbose bool

	// FailOnError turns HTTP statuses >= 400 into a TransferError
	FailOnError bool

	// UserAgent overrides the default Go user agent when non-empty
	UserAgent string
}

// DefaultOptions mirrors the settings a fresh plugin instance starts with.
func DefaultOptions() Options {
	return Options{
		FollowRedirects: true,
		MaxRedirects:    3,
		Timeout:         30 * time.Second,
		FailOnError:     true,
	}
}

// Fetcher issues single-attempt HTTP transfers.
type Fetcher struct {
	client  *http.Client
	opts    Options
	limiter *ratelimiter.RateLimiter
}

// New creates a Fetcher with the given options and an unlimited probe rate.
func New(opts Options) *Fetcher {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          16,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	f := &Fetcher{
		client:  &http.Client{Transport: transport},
		limiter: ratelimiter.New(0, 0),
	}
	f.client.CheckRedirect = f.checkRedirect
	f.opts = opts
	return f
}

// Options returns the current transfer options.
func (f *Fetcher) Options() Options {
	return f.opts
}

// SetOptions replaces the transfer options. Settings may change between
// calls (through the "quote set" command), never during one.
func (f *Fetcher) SetOptions(opts Options) {
	f.opts = opts
}

// SetProbeLimiter installs the limiter that paces Probe requests.
func (f *Fetcher) SetProbeLimiter(l *ratelimiter.RateLimiter) {
	if l == nil {
		l = ratelimiter.New(0, 0)
	}
	f.limiter = l
}

func (f *Fetcher) checkRedirect(req *http.Request, via []*http.Request) error {
	if !f.opts.FollowRedirects {
		return http.ErrUseLastResponse
	}
	if f.opts.MaxRedirects >= 0 && len(via) > f.opts.MaxRedirects {
		return fmt.Errorf("%w (%d)", ErrTooManyRedirects, f.opts.MaxRedirects)
	}
	if f.opts.Verbose {
		logger.Info("< redirect to %s", req.URL)
	}
	return nil
}

// Page is a fetched listing document.
type Page struct {
	// URL is the final URL after redirects
	URL string

	// ContentType is the response Content-Type header
	ContentType string

	// StatusCode is the HTTP status of the final response
	StatusCode int

	// Body holds the raw response bytes
	Body []byte
}

// FetchPage retrieves rawURL with a single GET request, together with the
// response metadata the extractor needs to decode and resolve the
// document.
func (f *Fetcher) FetchPage(ctx context.Context, rawURL string) (*Page, error) {
	if f.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.opts.Timeout)
		defer cancel()
	}

	resp, err := f.do(ctx, http.MethodGet, rawURL)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransferError{Op: http.MethodGet, URL: rawURL, StatusCode: resp.StatusCode, Cause: err}
	}

	logger.Debug("Fetched %s: %d bytes", rawURL, len(body))
	return &Page{
		URL:         resp.Request.URL.String(),
		ContentType: resp.Header.Get("Content-Type"),
		StatusCode:  resp.StatusCode,
		Body:        body,
	}, nil
}

// do builds and sends a request, applying user agent, verbose logging and
// the fail-on-error policy. On success the caller owns resp.Body.
func (f *Fetcher) do(ctx context.Context, method, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, &TransferError{Op: method, URL: rawURL, Cause: err}
	}
	if f.opts.UserAgent != "" {
		req.Header.Set("User-Agent", f.opts.UserAgent)
	}

	if f.opts.Verbose {
		logger.Info("> %s %s", method, rawURL)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &TransferError{Op: method, URL: rawURL, Cause: err}
	}

	if f.opts.Verbose {
		logger.Info("< %s (content-length %d)", resp.Status, resp.ContentLength)
	}

	if f.opts.FailOnError && resp.StatusCode >= http.StatusBadRequest {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		_ = resp.Body.Close()
		return nil, &TransferError{
			Op:         method,
			URL:        rawURL,
			StatusCode: resp.StatusCode,
			Cause:      fmt.Errorf("%w: %s", ErrHTTPStatus, resp.Status),
		}
	}

	return resp, nil
}
