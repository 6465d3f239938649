package listing

import (
	"fmt"
	"strings"

	"github.com/marmos91/hreffs/internal/logger"
)

// MaxCollisionAttempts bounds the "(n)" suffixes tried for one name.
const MaxCollisionAttempts = 4096

// NameSet hands out display names that are unique within one Snapshot.
type NameSet struct {
	used        map[string]struct{}
	maxAttempts int
}

// NewNameSet creates an empty NameSet.
func NewNameSet() *NameSet {
	return newNameSet(MaxCollisionAttempts)
}

func newNameSet(maxAttempts int) *NameSet {
	return &NameSet{
		used:        make(map[string]struct{}),
		maxAttempts: maxAttempts,
	}
}

// Assign reserves name, or the first free "base (n).ext" variant of it.
// Returns ErrNameSpaceExhausted when every variant up to the attempt bound
// is taken.
func (s *NameSet) Assign(name string) (string, error) {
	if !s.taken(name) {
		s.used[name] = struct{}{}
		return name, nil
	}

	base, ext := splitExt(name)
	for n := 1; n <= s.maxAttempts; n++ {
		candidate := fmt.Sprintf("%s (%d)%s", base, n, ext)
		if !s.taken(candidate) {
			s.used[candidate] = struct{}{}
			return candidate, nil
		}
	}

	return "", fmt.Errorf("%q: %w", name, ErrNameSpaceExhausted)
}

func (s *NameSet) taken(name string) bool {
	_, ok := s.used[name]
	return ok
}

// splitExt splits name at its last dot. A leading dot is part of the base,
// so ".profile" has no extension.
func splitExt(name string) (base, ext string) {
	i := strings.LastIndexByte(name, '.')
	if i <= 0 {
		return name, ""
	}
	return name[:i], name[i:]
}

// Deduplicate renames colliding entries in place, keeping document order.
// Entries whose name space is exhausted are logged and dropped.
func (s *NameSet) Deduplicate(entries []Entry) []Entry {
	kept := entries[:0]
	for _, e := range entries {
		name, err := s.Assign(e.Name)
		if err != nil {
			logger.Error("Dropping %s: %v", e.URL, err)
			continue
		}
		e.Name = name
		kept = append(kept, e)
	}
	return kept
}
