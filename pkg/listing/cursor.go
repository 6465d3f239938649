package listing

import (
	"context"

	"github.com/google/uuid"

	"github.com/marmos91/hreffs/internal/logger"
	"github.com/marmos91/hreffs/pkg/fetch"
)

// Prober fetches authoritative metadata for one entry.
type Prober interface {
	Probe(ctx context.Context, rawURL string) (fetch.ProbeResult, error)
}

// Session is one enumeration over a Snapshot.
//
// It is not safe for concurrent use; a host drives it from a single
// thread with First, then Next until ErrEndOfSequence, then Close.
type Session struct {
	// ID correlates the session's log lines
	ID string

	ctx      context.Context
	snapshot *Snapshot
	prober   Prober
	pos      int
	closed   bool
}

// NewSession creates a Session over snap. A nil prober disables probe
// mode.
//
// ctx scopes the whole enumeration, not the call that opened it: probes
// issued by later Next calls run under it. Cancelling ctx before Close
// leaves the remaining entries with their heuristic metadata.
func NewSession(ctx context.Context, snap *Snapshot, prober Prober) *Session {
	s := &Session{
		ID:       uuid.NewString(),
		ctx:      ctx,
		snapshot: snap,
		prober:   prober,
	}
	logger.Debug("Session %s opened on %s (%d entries, probe=%v)", s.ID, snap.BaseURL, snap.Len(), prober != nil)
	return s
}

// Snapshot returns the snapshot the session enumerates, including any
// probe results written back so far.
func (s *Session) Snapshot() *Snapshot {
	return s.snapshot
}

// Probing reports whether probe mode is on.
func (s *Session) Probing() bool {
	return s.prober != nil
}

// First rewinds the cursor and yields entry 0.
func (s *Session) First() (Entry, error) {
	if s.closed {
		return Entry{}, ErrSessionClosed
	}
	s.pos = 0
	return s.Next()
}

// Next yields the entry at the cursor and advances it. Returns
// ErrEndOfSequence once every entry has been yielded.
func (s *Session) Next() (Entry, error) {
	if s.closed {
		return Entry{}, ErrSessionClosed
	}
	if s.pos >= s.snapshot.Len() {
		return Entry{}, ErrEndOfSequence
	}

	i := s.pos
	s.pos++

	if s.prober != nil {
		s.probe(i)
	}
	return s.snapshot.Entries[i], nil
}

// probe overrides the heuristic metadata of entry i with what the server
// reports. A failed probe keeps the heuristic values.
func (s *Session) probe(i int) {
	e := &s.snapshot.Entries[i]

	res, err := s.prober.Probe(s.ctx, e.URL)
	if err != nil {
		logger.Debug("Session %s: probe %s failed: %v", s.ID, e.URL, err)
		return
	}

	if res.HasSize() {
		size := uint64(res.ContentLength)
		e.Size = &size
	}
	if res.HasTime() {
		t := res.LastModified.Local()
		e.ModTime = &t
	}
}

// Close ends the session. Further calls return ErrSessionClosed.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	logger.Debug("Session %s closed", s.ID)
	return nil
}
