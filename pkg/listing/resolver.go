// Package listing resolves HTML directory-listing pages into snapshots of
// synthetic file entries and pages through them find-first/find-next
// style.
//
// A resolution pass runs fetch, extraction and name de-duplication once
// and produces an immutable Snapshot. Sessions wrap a Snapshot with the
// sequential cursor a host enumerator drives.
package listing

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/marmos91/hreffs/internal/logger"
	"github.com/marmos91/hreffs/pkg/fetch"
)

// Fetcher is the transfer side a Resolver depends on.
type Fetcher interface {
	FetchPage(ctx context.Context, rawURL string) (*fetch.Page, error)
	Probe(ctx context.Context, rawURL string) (fetch.ProbeResult, error)
}

// ResolverOptions configures a Resolver.
type ResolverOptions struct {
	// Predicates classify containers and repair labels (DefaultPredicates
	// if zero)
	Predicates Predicates

	// Timeout bounds one resolution pass, fetch included (0 = unbounded).
	// It is normally the same value as the fetch timeout.
	Timeout time.Duration

	// Now is the clock used for FetchedAt and the deadline (time.Now if nil)
	Now func() time.Time
}

// Resolver builds Snapshots. It is owned by one plugin instance and used
// sequentially.
type Resolver struct {
	fetcher   Fetcher
	extractor *Extractor
	timeout   time.Duration
	now       func() time.Time
}

// NewResolver creates a Resolver on top of f.
func NewResolver(f Fetcher, opts ResolverOptions) *Resolver {
	if opts.Predicates.Container.exts == nil && opts.Predicates.Candidate.exts == nil {
		opts.Predicates = DefaultPredicates()
	}

	extractor := NewExtractor(opts.Predicates)
	if opts.Now != nil {
		extractor.Now = opts.Now
	}
	return &Resolver{
		fetcher:   f,
		extractor: extractor,
		timeout:   opts.Timeout,
		now:       extractor.Now,
	}
}

// SetTimeout changes the per-pass deadline.
func (r *Resolver) SetTimeout(d time.Duration) {
	r.timeout = d
}

// SetPredicates replaces the extension predicates.
func (r *Resolver) SetPredicates(p Predicates) {
	r.extractor.Predicates = p
}

// Resolve fetches baseURL and returns its Snapshot. An empty Snapshot is
// not an error here; Open turns it into ErrNotFound.
func (r *Resolver) Resolve(ctx context.Context, baseURL string) (*Snapshot, error) {
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}

	start := r.now()
	var deadline time.Time
	if r.timeout > 0 {
		deadline = start.Add(r.timeout)
	}

	page, err := r.fetcher.FetchPage(ctx, base.String())
	if err != nil {
		return nil, err
	}

	// Relative references resolve against where the page actually lives.
	docBase := base
	if page.URL != "" {
		if final, perr := url.Parse(page.URL); perr == nil && final.IsAbs() {
			docBase = final
		}
	}

	candidates, partial, err := r.extractor.Extract(page.Body, page.ContentType, docBase, deadline)
	if err != nil {
		return nil, err
	}

	entries := NewNameSet().Deduplicate(candidates)
	logger.Debug("Resolved %s: %d entries (partial=%v)", baseURL, len(entries), partial)

	return &Snapshot{
		BaseURL:   base.String(),
		FetchedAt: start,
		Partial:   partial,
		Entries:   entries,
	}, nil
}

// Open resolves baseURL and starts a Session over the result. probe turns
// on per-entry HEAD probing. Returns ErrNotFound when the page yielded no
// entries.
func (r *Resolver) Open(ctx context.Context, baseURL string, probe bool) (*Session, error) {
	snap, err := r.Resolve(ctx, baseURL)
	if err != nil {
		return nil, err
	}
	if snap.Len() == 0 {
		return nil, fmt.Errorf("%s: %w", baseURL, ErrNotFound)
	}

	var prober Prober
	if probe {
		prober = r.fetcher
	}
	return NewSession(ctx, snap, prober), nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, raw)
	}
	return u, nil
}
