package listing

import (
	"bytes"
	"net/url"
	"strings"
	"time"

	"github.com/antchfx/htmlquery"
	"github.com/antchfx/xpath"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"

	"github.com/marmos91/hreffs/internal/logger"
)

// hrefSelector matches every element carrying an href attribute, in
// document order.
var hrefSelector = xpath.MustCompile("//*[@href]")

// Extractor turns a listing page into candidate entries.
type Extractor struct {
	// Predicates classify containers and repair labels
	Predicates Predicates

	// Now is the clock checked against the deadline (time.Now if nil)
	Now func() time.Time
}

// NewExtractor creates an Extractor with the given predicates.
func NewExtractor(p Predicates) *Extractor {
	return &Extractor{Predicates: p, Now: time.Now}
}

// Extract parses body and returns one Entry per usable link, in document
// order and before name de-duplication.
//
// contentType is the response Content-Type, used to pick the charset.
// A zero deadline disables the time limit. When the deadline passes the
// entries collected so far are returned with partial set; this is not an
// error. Only a document that cannot be read at all yields a ParseError.
func (x *Extractor) Extract(body []byte, contentType string, base *url.URL, deadline time.Time) (entries []Entry, partial bool, err error) {
	reader, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return nil, false, &ParseError{URL: base.String(), Cause: err}
	}

	doc, err := htmlquery.Parse(reader)
	if err != nil {
		return nil, false, &ParseError{URL: base.String(), Cause: err}
	}

	now := x.Now
	if now == nil {
		now = time.Now
	}

	for _, node := range htmlquery.QuerySelectorAll(doc, hrefSelector) {
		if !deadline.IsZero() && !now().Before(deadline) {
			logger.Warn("Retrieving link list aborted: timed out (%s, %d entries kept)", base, len(entries))
			return entries, true, nil
		}

		entry, ok := x.entryFor(node, base)
		if !ok {
			continue
		}
		entries = append(entries, entry)
	}

	return entries, false, nil
}

// entryFor builds the Entry of one link element.
func (x *Extractor) entryFor(node *html.Node, base *url.URL) (Entry, bool) {
	href := htmlquery.SelectAttr(node, "href")
	if skipHref(href) {
		return Entry{}, false
	}

	name := x.Predicates.deriveLabel(strings.TrimSpace(htmlquery.InnerText(node)), href)
	if name == "" {
		return Entry{}, false
	}

	ref, err := parseHref(strings.TrimSpace(href))
	if err != nil {
		logger.Warn("Skipping unparseable href %q: %v", href, err)
		return Entry{}, false
	}
	target := base.ResolveReference(ref)

	entry := Entry{
		Name:        name,
		URL:         target.String(),
		IsContainer: x.Predicates.IsContainer(target.Path) || strings.HasSuffix(href, "/"),
	}

	if extra, ok := findExtra(node); ok {
		entry.Extra = strings.TrimSpace(extra)
		fi := ParseFileInfo(extra)
		entry.Size = fi.Size
		entry.ModTime = fi.ModTime
	}

	return entry, true
}

// skipHref filters in-page anchors and dynamic or templated links.
func skipHref(href string) bool {
	return href == "" ||
		strings.HasPrefix(href, "#") ||
		strings.ContainsAny(href, "{?")
}

// parseHref parses a link reference. Generated listings often carry a raw
// '%' in file names ("50%off.zip"); such a '%' not starting a valid escape
// is encoded as "%25" and the reference parsed again.
func parseHref(href string) (*url.URL, error) {
	ref, err := url.Parse(href)
	if err == nil {
		return ref, nil
	}

	fixed := escapeStrayPercent(href)
	if fixed == href {
		return nil, err
	}
	return url.Parse(fixed)
}

func escapeStrayPercent(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '%' && !(i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2])) {
			b.WriteString("%25")
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func isHex(c byte) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}
