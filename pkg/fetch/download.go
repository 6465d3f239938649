package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// chunkSize is the read granularity of Download and therefore the
// granularity of progress callbacks.
const chunkSize = 32 * 1024

// Progress is reported after every chunk written during Download.
type Progress struct {
	// Done is the number of bytes written so far
	Done int64

	// Total is the expected size, or 0 when unknown
	Total int64

	// Percent is Done*100/Total capped at 100, or 0 when Total is unknown
	Percent int
}

// ProgressFunc receives download progress. Returning true cancels the
// transfer: no further bytes are written and Download returns ErrUserAbort.
type ProgressFunc func(Progress) (cancel bool)

// Download streams the body of rawURL into sink.
//
// declaredTotal is the size the host believes the file has (0 if unknown);
// when it is unknown the response Content-Length is used instead. The
// listing timeout does not apply: downloads run until completion, error,
// cancellation of ctx, or cancellation through progress.
//
// Returns the number of bytes written. Errors:
//   - ErrUserAbort when progress requested cancellation or ctx was
//     cancelled
//   - an error wrapping ErrWrite when sink failed
//   - *TransferError for network or HTTP failures
func (f *Fetcher) Download(ctx context.Context, rawURL string, sink io.Writer, declaredTotal int64, progress ProgressFunc) (int64, error) {
	if progress == nil {
		progress = func(Progress) bool { return false }
	}

	resp, err := f.do(ctx, http.MethodGet, rawURL)
	if err != nil {
		if cancelled(ctx) {
			return 0, ErrUserAbort
		}
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	p := Progress{Total: declaredTotal}
	if p.Total <= 0 && resp.ContentLength > 0 {
		p.Total = resp.ContentLength
	}

	buf := make([]byte, chunkSize)
	for {
		n, rerr := resp.Body.Read(buf)
		if n > 0 {
			if _, werr := sink.Write(buf[:n]); werr != nil {
				return p.Done, fmt.Errorf("%w: %v", ErrWrite, werr)
			}
			p.Done += int64(n)
			p.Percent = percent(p.Done, p.Total)

			if progress(p) {
				return p.Done, ErrUserAbort
			}
		}
		if rerr != nil {
			if errors.Is(rerr, io.EOF) {
				return p.Done, nil
			}
			if cancelled(ctx) {
				return p.Done, ErrUserAbort
			}
			return p.Done, &TransferError{Op: http.MethodGet, URL: rawURL, StatusCode: resp.StatusCode, Cause: rerr}
		}
	}
}

// cancelled reports whether ctx was cancelled by its owner. An expired
// deadline is a transfer failure, not an abort.
func cancelled(ctx context.Context) bool {
	return errors.Is(ctx.Err(), context.Canceled)
}

func percent(done, total int64) int {
	if total <= 0 {
		return 0
	}
	pct := done * 100 / total
	if pct > 100 {
		pct = 100
	}
	return int(pct)
}
