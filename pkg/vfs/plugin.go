// Package vfs exposes a listing resolver as a host file-system plugin.
//
// The host enumerates the current listing URL with FindFirst/FindNext,
// downloads entries with GetFile, navigates with ExecuteFile and queries
// per-entry fields with ContentGetValue. Calls are serialized: a Plugin
// holds its lock for the whole of each operation, which also keeps the
// shared transfer handle free of overlapping requests.
package vfs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/marmos91/hreffs/internal/logger"
	"github.com/marmos91/hreffs/pkg/config"
	"github.com/marmos91/hreffs/pkg/fetch"
	"github.com/marmos91/hreffs/pkg/history"
	"github.com/marmos91/hreffs/pkg/listing"
	"github.com/marmos91/hreffs/pkg/store/destination"
	"github.com/marmos91/hreffs/pkg/store/snapshot"
)

// DefRootName is the name the host shows for the plugin root.
const DefRootName = "Hypertext REFerence"

var (
	// ErrNoURL is returned by FindFirst when no listing URL is set.
	ErrNoURL = errors.New("no listing URL set")

	// ErrInvalidHandle is returned for handles not issued by FindFirst or
	// already closed.
	ErrInvalidHandle = errors.New("invalid find handle")
)

// Handle identifies an enumeration opened by FindFirst.
type Handle int64

// InvalidHandle is returned by FindFirst on failure.
const InvalidHandle Handle = -1

// FindData is one entry as presented to the host.
type FindData struct {
	Name       string
	Size       uint64
	ModTime    time.Time
	Attributes uint32
}

// IsDir reports whether the host should treat the entry as a directory.
func (d FindData) IsDir() bool {
	return d.Attributes&AttrReparsePoint != 0
}

// Callbacks are the host functions the plugin calls back into.
type Callbacks struct {
	// Progress reports transfer progress in percent; returning true cancels
	Progress func(source, target string, percent int) (cancel bool)

	// Log shows a message in the host's log window
	Log func(msgType MessageType, text string)
}

// Deps are the collaborators a Plugin is built on.
type Deps struct {
	Fetcher     *fetch.Fetcher
	Snapshots   snapshot.Store
	Destination destination.Destination

	// Now is the clock used for missing modification times (time.Now if nil)
	Now func() time.Time
}

// Plugin is one plugin instance.
type Plugin struct {
	mu sync.Mutex

	cfg       *config.Config
	fetcher   *fetch.Fetcher
	resolver  *listing.Resolver
	snapshots snapshot.Store
	dest      destination.Destination
	history   *history.File
	now       func() time.Time
	callbacks Callbacks

	currentURL string
	previous   []string
	probe      bool

	snapshot   *listing.Snapshot
	sessions   map[Handle]*listing.Session
	nextHandle Handle
}

// New creates a Plugin from cfg and deps. Init must be called before use.
func New(cfg *config.Config, deps Deps) (*Plugin, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if deps.Fetcher == nil {
		return nil, fmt.Errorf("fetcher is required")
	}
	if deps.Snapshots == nil {
		return nil, fmt.Errorf("snapshot store is required")
	}
	if deps.Destination == nil {
		return nil, fmt.Errorf("destination is required")
	}

	now := deps.Now
	if now == nil {
		now = time.Now
	}

	return &Plugin{
		cfg:     cfg,
		fetcher: deps.Fetcher,
		resolver: listing.NewResolver(deps.Fetcher, listing.ResolverOptions{
			Predicates: config.Predicates(cfg),
			Timeout:    cfg.Transfer.Timeout,
			Now:        now,
		}),
		snapshots: deps.Snapshots,
		dest:      deps.Destination,
		history:   history.New(cfg.History.Path, cfg.History.MaxEntries),
		now:       now,
		probe:     cfg.Listing.ProbeSizes,
		sessions:  make(map[Handle]*listing.Session),
	}, nil
}

// Open builds a Plugin and its collaborators from cfg.
func Open(ctx context.Context, cfg *config.Config) (*Plugin, error) {
	fetcher := fetch.New(config.FetchOptions(cfg))
	fetcher.SetProbeLimiter(config.ProbeLimiter(cfg))

	snapshots, err := config.CreateSnapshotStore(ctx, &cfg.Snapshots)
	if err != nil {
		return nil, err
	}

	dest, err := config.CreateDestination(ctx, &cfg.Destination)
	if err != nil {
		_ = snapshots.Close()
		return nil, err
	}

	p, err := New(cfg, Deps{Fetcher: fetcher, Snapshots: snapshots, Destination: dest})
	if err != nil {
		_ = snapshots.Close()
		return nil, err
	}
	return p, nil
}

// SetDefaultParams places the history file next to the host's ini file.
// It must be called before Init to take effect on the start URL.
func (p *Plugin) SetDefaultParams(iniPath string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.history.Path = history.NextTo(iniPath)
	logger.Debug("History file: %s", p.history.Path)
}

// Init installs the host callbacks and loads the history file. The first
// remembered URL becomes the current URL; without one, the configured
// default URL is used.
func (p *Plugin) Init(cb Callbacks) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.callbacks = cb

	urls, err := p.history.Load()
	if err != nil {
		logger.Warn("Failed to load history from %s: %v", p.history.Path, err)
	}
	p.previous = urls
	p.currentURL = p.history.Current(p.cfg.Listing.DefaultURL)

	logger.Info("Plugin initialized: url=%s probe=%v history=%d", p.currentURL, p.probe, len(urls))
	return nil
}

// DefRootName returns the name of the plugin root.
func (p *Plugin) DefRootName() string {
	return DefRootName
}

// CurrentURL returns the listing URL FindFirst resolves.
func (p *Plugin) CurrentURL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.currentURL
}

// SetURL makes rawURL the current listing URL. The previous URL moves into
// the history.
func (p *Plugin) SetURL(rawURL string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.setURL(rawURL)
}

func (p *Plugin) setURL(rawURL string) {
	if rawURL == p.currentURL {
		return
	}
	if p.currentURL != "" {
		p.previous = append([]string{p.currentURL}, p.previous...)
	}
	p.currentURL = rawURL
	logger.Debug("Current URL: %s", rawURL)
}

// Probing reports whether enumerations probe each entry with HEAD.
func (p *Plugin) Probing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.probe
}

// Snapshot returns the listing most recently resolved by FindFirst, or
// nil.
func (p *Plugin) Snapshot() *listing.Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshot
}

// Visited returns the current URL followed by the previously visited ones,
// most recent first.
func (p *Plugin) Visited() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	seen := make(map[string]struct{}, len(p.previous)+1)
	var urls []string
	for _, u := range append([]string{p.currentURL}, p.previous...) {
		if _, dup := seen[u]; dup || u == "" {
			continue
		}
		seen[u] = struct{}{}
		urls = append(urls, u)
	}
	return urls
}

// Cached returns the listing URLs that have a stored snapshot.
func (p *Plugin) Cached(ctx context.Context) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshots.List(ctx)
}

// Forget removes rawURL from the history file and drops its stored
// snapshot. Forgetting the current URL moves back to the most recent
// previous URL, or to the configured default URL.
func (p *Plugin) Forget(ctx context.Context, rawURL string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var kept []string
	for _, u := range p.previous {
		if u != rawURL {
			kept = append(kept, u)
		}
	}
	p.previous = kept

	if p.currentURL == rawURL {
		p.snapshot = nil
		if len(p.previous) > 0 {
			p.currentURL, p.previous = p.previous[0], p.previous[1:]
		} else {
			p.currentURL = p.cfg.Listing.DefaultURL
		}
		logger.Debug("Current URL: %s", p.currentURL)
	}

	var errs []error
	if err := p.history.Remove(rawURL); err != nil {
		errs = append(errs, err)
	}
	if err := p.snapshots.Delete(ctx, rawURL); err != nil {
		errs = append(errs, fmt.Errorf("delete snapshot of %s: %w", rawURL, err))
	}
	return errors.Join(errs...)
}

// FindFirst resolves the current URL and yields its first entry. path is
// the host's directory path; the listing is flat, so it only shows up in
// logs. ctx also scopes the probes issued by FindNext on the returned
// handle.
func (p *Plugin) FindFirst(ctx context.Context, path string) (Handle, FindData, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.currentURL == "" {
		return InvalidHandle, FindData{}, ErrNoURL
	}
	logger.Debug("FindFirst %s -> %s", path, p.currentURL)

	session, err := p.resolver.Open(ctx, p.currentURL, p.probe)
	if err != nil {
		if !errors.Is(err, listing.ErrNotFound) {
			p.reportError(err)
		}
		return InvalidHandle, FindData{}, err
	}

	// A new enumeration replaces the plugin's snapshot.
	p.snapshot = session.Snapshot()
	if err := p.snapshots.Put(ctx, p.snapshot); err != nil {
		logger.Warn("Failed to store snapshot of %s: %v", p.currentURL, err)
	}
	if p.snapshot.Partial {
		p.log(MsgDetails, "Listing of "+p.currentURL+" is incomplete: timed out")
	}

	entry, err := session.First()
	if err != nil {
		_ = session.Close()
		return InvalidHandle, FindData{}, err
	}

	p.nextHandle++
	h := p.nextHandle
	p.sessions[h] = session

	return h, p.findData(entry), nil
}

// FindNext yields the next entry of h, or listing.ErrEndOfSequence.
func (p *Plugin) FindNext(h Handle) (FindData, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	session, ok := p.sessions[h]
	if !ok {
		return FindData{}, ErrInvalidHandle
	}

	entry, err := session.Next()
	if err != nil {
		return FindData{}, err
	}
	return p.findData(entry), nil
}

// FindClose releases h.
func (p *Plugin) FindClose(h Handle) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	session, ok := p.sessions[h]
	if !ok {
		return ErrInvalidHandle
	}
	delete(p.sessions, h)
	return session.Close()
}

func (p *Plugin) findData(e listing.Entry) FindData {
	fd := FindData{
		Name: e.Name,
		Size: e.SizeOrZero(),
	}
	if e.ModTime != nil {
		fd.ModTime = *e.ModTime
	} else {
		fd.ModTime = p.now()
	}
	if e.IsContainer {
		fd.Attributes |= AttrReparsePoint
	}
	return fd
}

// Finalize closes open enumerations, writes the history file and closes
// the snapshot store.
func (p *Plugin) Finalize() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	for h, s := range p.sessions {
		errs = append(errs, s.Close())
		delete(p.sessions, h)
	}

	if p.currentURL != "" {
		if err := p.history.Save(p.currentURL, p.previous); err != nil {
			errs = append(errs, err)
		}
	}

	if err := p.snapshots.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close snapshot store: %w", err))
	}

	return errors.Join(errs...)
}

// lookup finds an entry of the current listing by its display name. When
// nothing was enumerated in this instance yet, the stored snapshot of the
// current URL is used.
func (p *Plugin) lookup(ctx context.Context, name string) (listing.Entry, bool) {
	if p.snapshot == nil && p.currentURL != "" {
		snap, err := p.snapshots.Get(ctx, p.currentURL)
		if err != nil {
			if !errors.Is(err, snapshot.ErrNotFound) {
				logger.Warn("Failed to load stored snapshot of %s: %v", p.currentURL, err)
			}
			return listing.Entry{}, false
		}
		p.snapshot = snap
	}
	return p.snapshot.Lookup(name)
}

// reportError sends err to the host log and the structured log.
func (p *Plugin) reportError(err error) {
	logger.Error("%v", err)
	p.log(MsgImportantError, err.Error())
}

func (p *Plugin) log(msgType MessageType, text string) {
	if p.callbacks.Log != nil {
		p.callbacks.Log(msgType, text)
	}
}

func (p *Plugin) progress(source, target string, percent int) bool {
	if p.callbacks.Progress == nil {
		return false
	}
	return p.callbacks.Progress(source, target, percent)
}
