package listing

import (
	"net/url"
	"path"
	"strings"
	"unicode"
)

// garbageReplacer turns scheme prefixes and characters a host cannot show
// in a file name into spaces.
var garbageReplacer = strings.NewReplacer(
	"https://", " ",
	"http://", " ",
	"ftp://", " ",
	`\`, " ",
	`"`, " ",
	"/", " ",
	"?", " ",
	"→", " ",
)

// SanitizeName turns link text or an href into a display name. It returns
// "" when nothing printable is left.
func SanitizeName(text string) string {
	name := strings.TrimSuffix(text, "/")
	if strings.Contains(name, "/") {
		name = path.Base(name)
	}

	name = garbageReplacer.Replace(name)
	name = strings.ToValidUTF8(name, "")
	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, name)
	name = strings.Join(strings.Fields(name), " ")

	if isParentMarker(name) {
		return ParentSentinel
	}
	return name
}

// labelFromHref derives a name from the reference itself. Percent-escapes
// are decoded when they are well formed.
func labelFromHref(href string) string {
	if unescaped, err := url.PathUnescape(href); err == nil {
		href = unescaped
	}
	return SanitizeName(href)
}

// deriveLabel picks the display name of a link from its visible text and
// href.
func (p Predicates) deriveLabel(text, href string) string {
	if text == "" {
		return labelFromHref(href)
	}

	if len(text) > 3 {
		if strings.HasSuffix(text, "..>") {
			return labelFromHref(href)
		}

		if ext := lastDotSuffix(href); ext != "" && p.IsCandidate(text, ext) {
			return SanitizeName(strings.TrimSuffix(text, "/") + ext)
		}
	}

	return SanitizeName(text)
}
