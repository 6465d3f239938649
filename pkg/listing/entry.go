package listing

import (
	"time"
)

// ParentSentinel is the display name given to links that point at the
// parent directory ("..", "Parent Directory").
const ParentSentinel = "<Parent Directory>"

// Entry is one synthetic file or directory derived from an HTML link.
type Entry struct {
	// Name is the display name, unique within its Snapshot
	Name string `json:"name"`

	// URL is the absolute target, resolved against the page's base URL
	URL string `json:"url"`

	// Size is the size in bytes, nil when unknown
	Size *uint64 `json:"size,omitempty"`

	// ModTime is the modification time, nil when unknown
	ModTime *time.Time `json:"mod_time,omitempty"`

	// IsContainer marks traversable targets (sub-listings)
	IsContainer bool `json:"is_container"`

	// Extra is the raw text found next to the link, kept verbatim
	// (trimmed) whether or not size/date could be parsed from it
	Extra string `json:"extra,omitempty"`
}

// SizeOrZero returns the known size, or 0.
func (e Entry) SizeOrZero() uint64 {
	if e.Size == nil {
		return 0
	}
	return *e.Size
}

// Snapshot is the ordered result of one resolution pass over one URL.
//
// Entries keep document order. A Snapshot is owned by the session that
// built it and is replaced wholesale on re-navigation; it is never
// updated incrementally, except for probe results written back by the
// owning session.
type Snapshot struct {
	// BaseURL is the listing page the entries were resolved against
	BaseURL string `json:"base_url"`

	// FetchedAt is when the resolution pass started
	FetchedAt time.Time `json:"fetched_at"`

	// Partial is set when the extraction deadline cut the pass short
	Partial bool `json:"partial"`

	// Entries in document order
	Entries []Entry `json:"entries"`
}

// Len returns the number of entries.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Entries)
}

// Lookup returns the entry with the given display name.
func (s *Snapshot) Lookup(name string) (Entry, bool) {
	if s == nil {
		return Entry{}, false
	}
	for _, e := range s.Entries {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}
