package listing

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// FileInfo is the metadata recovered from the text next to a link.
type FileInfo struct {
	Size    *uint64
	ModTime *time.Time
}

// Found reports whether anything was recovered.
func (fi FileInfo) Found() bool {
	return fi.Size != nil || fi.ModTime != nil
}

// fileInfoPattern is one fixed listing layout. Each capture group holds a
// token that is tried first as a size and then as a date in layout.
type fileInfoPattern struct {
	re     *regexp.Regexp
	layout string
}

// fileInfoPatterns are tried in order; the first one that yields a size or
// a date wins.
var fileInfoPatterns = []fileInfoPattern{
	// 14-Jun-2023 10:32   4.2K (Apache/nginx autoindex)
	{
		re:     regexp.MustCompile(`(\d{2}-\w{3}-\d{4}\s\d{2}:\d{2})\s+([\d.]*[-kKmMgGtT]?)`),
		layout: "02-Jan-2006 15:04",
	},
	// 2023-06-14 10:32   4.2K (Apache fancy index)
	{
		re:     regexp.MustCompile(`(\d{4}-\d{2}-\d{2}\s\d{2}:\d{2})\s+([\d.]*[-kKmMgGtT]?)`),
		layout: "2006-01-02 15:04",
	},
	// 4.2K   2023.06.14 10:32
	{
		re:     regexp.MustCompile(`([\d.]*[-kKmMgGtT]?)\s+(\d{4}\.\d{2}\.\d{2}\s\d{2}:\d{2})`),
		layout: "2006.01.02 15:04",
	},
	// 4-Jun-2023  9:05   4.2K (lighttpd-style padding)
	{
		re:     regexp.MustCompile(`(\d\d?-\w{3}-\d{4}\s{2}\d\d?:\d{2})\s+([\d.]*[-kKmMgGtT]?).*`),
		layout: "2-Jan-2006  15:04",
	},
}

var sizeToken = regexp.MustCompile(`^[\d.]+[kKmMgGtT]?$`)

// ParseFileInfo recovers size and modification time from free text such as
// "14-Jun-2023 10:32   4.2K". Unparseable tokens are simply absent; an
// empty FileInfo is a valid result.
func ParseFileInfo(text string) FileInfo {
	for _, p := range fileInfoPatterns {
		m := p.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}

		var fi FileInfo
		for _, token := range m[1:3] {
			if size, ok := parseSize(token); ok {
				fi.Size = &size
			} else if t, ok := parseDate(token, p.layout); ok {
				fi.ModTime = &t
			}
		}

		if fi.Found() {
			return fi
		}
	}

	return FileInfo{}
}

// parseSize converts "4.2K" style tokens to bytes using binary multiples.
func parseSize(token string) (uint64, bool) {
	if !sizeToken.MatchString(token) {
		return 0, false
	}

	number := token
	multiplier := 1.0

	switch token[len(token)-1] {
	case 'k', 'K':
		multiplier = 1024
	case 'm', 'M':
		multiplier = math.Pow(1024, 2)
	case 'g', 'G':
		multiplier = math.Pow(1024, 3)
	case 't', 'T':
		multiplier = math.Pow(1024, 4)
	}
	if multiplier != 1 {
		number = token[:len(token)-1]
	}

	value, err := strconv.ParseFloat(number, 64)
	if err != nil || value < 0 {
		return 0, false
	}

	return uint64(math.Round(value * multiplier)), true
}

// parseDate parses token with layout in local time.
func parseDate(token, layout string) (time.Time, bool) {
	t, err := time.ParseInLocation(layout, strings.TrimSpace(token), time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
