package fetch

import (
	"context"
	"io"
	"net/http"
	"time"
)

// ProbeResult carries the authoritative metadata a server reports for a
// resource without sending its body.
type ProbeResult struct {
	// ContentLength is the reported size, or -1 when absent
	ContentLength int64

	// LastModified is the reported modification time, zero when absent
	LastModified time.Time
}

// HasSize reports whether the server declared a length.
func (r ProbeResult) HasSize() bool {
	return r.ContentLength >= 0
}

// HasTime reports whether the server declared a modification time.
func (r ProbeResult) HasTime() bool {
	return !r.LastModified.IsZero()
}

// Probe issues a HEAD request for rawURL, paced by the probe limiter and
// bounded by the listing timeout.
func (f *Fetcher) Probe(ctx context.Context, rawURL string) (ProbeResult, error) {
	if !f.limiter.Unlimited() {
		if err := f.limiter.Wait(ctx); err != nil {
			return ProbeResult{ContentLength: -1}, &TransferError{Op: http.MethodHead, URL: rawURL, Cause: err}
		}
	}

	if f.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.opts.Timeout)
		defer cancel()
	}

	resp, err := f.do(ctx, http.MethodHead, rawURL)
	if err != nil {
		return ProbeResult{ContentLength: -1}, err
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	result := ProbeResult{ContentLength: resp.ContentLength}
	if lm := resp.Header.Get("Last-Modified"); lm != "" {
		if t, perr := http.ParseTime(lm); perr == nil {
			result.LastModified = t
		}
	}

	return result, nil
}
