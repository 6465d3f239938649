package listing

import (
	"strings"
)

// DefaultContainerExtensions are the page-like extensions whose targets
// are treated as sub-listings.
var DefaultContainerExtensions = []string{".htm", ".html", ".php", ".xml"}

// DefaultCandidateExtensions are the extensions a listing's visible text
// is known to drop; when the link text lacks one of them, the href's
// extension is appended to the label.
var DefaultCandidateExtensions = []string{
	".htm", ".html", ".php", ".xml", ".zip", ".gz",
	".png", ".jpg", ".json", ".css", ".js",
}

// ExtensionSet matches extensions case-insensitively. Entries are
// normalised to lowercase with a leading dot.
type ExtensionSet struct {
	exts map[string]struct{}
}

// NewExtensionSet builds a set from extensions with or without dots.
func NewExtensionSet(exts []string) ExtensionSet {
	set := ExtensionSet{exts: make(map[string]struct{}, len(exts))}
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		set.exts[ext] = struct{}{}
	}
	return set
}

// Contains reports whether ext (including the dot) is in the set.
func (s ExtensionSet) Contains(ext string) bool {
	_, ok := s.exts[strings.ToLower(ext)]
	return ok
}

// Predicates holds the two extension heuristics. The container set
// decides traversal and the candidate set decides label repair; the two
// lists are configured separately and may disagree.
type Predicates struct {
	Container ExtensionSet
	Candidate ExtensionSet
}

// DefaultPredicates returns predicates built from the default lists.
func DefaultPredicates() Predicates {
	return Predicates{
		Container: NewExtensionSet(DefaultContainerExtensions),
		Candidate: NewExtensionSet(DefaultCandidateExtensions),
	}
}

// IsContainer reports whether target should be traversed rather than
// downloaded: it ends in "/" or carries a container extension.
func (p Predicates) IsContainer(target string) bool {
	if strings.HasSuffix(target, "/") {
		return true
	}
	return p.Container.Contains(lastDotSuffix(target))
}

// IsCandidate reports whether text should receive the href extension ext:
// ext is a candidate extension, text does not already contain it, and text
// is not a parent-directory marker.
func (p Predicates) IsCandidate(text, ext string) bool {
	if isParentMarker(text) {
		return false
	}
	return p.Candidate.Contains(ext) && !strings.Contains(strings.ToLower(text), strings.ToLower(ext))
}

// lastDotSuffix returns s from its last '.', or "" when s has no dot.
func lastDotSuffix(s string) string {
	i := strings.LastIndexByte(s, '.')
	if i < 0 {
		return ""
	}
	return s[i:]
}

func isParentMarker(s string) bool {
	return s == ".." || strings.EqualFold(s, "Parent Directory")
}
