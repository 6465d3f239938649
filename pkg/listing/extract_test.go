package listing

import (
	"bytes"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/hreffs/internal/logger"
)

const autoindexPage = `<html><head><title>Index of /pub</title></head><body>
<h1>Index of /pub</h1><pre><a href="?C=N;O=D">Name</a>
<a href="/">Parent Directory</a>                             -
<a href="docs/">docs/</a>                      14-Jun-2023 10:32    -
<a href="file.iso">file.iso</a>                  14-Jun-2023 10:32  4.2K
<a href="#top">top</a>
<a href="{{tpl}}">tpl</a>
<a href="">empty</a>
</pre></body></html>`

const tablePage = `<html><body><table>
<tr><th>Name</th><th>Last modified</th><th>Size</th></tr>
<tr><td><a href="report.pdf">report.pdf</a></td><td align="right">2023-06-14 10:32  </td><td align="right">1.5M</td></tr>
<tr><td><a href="sub/">sub/</a></td><td align="right">2023-06-14 10:32  </td><td align="right">  - </td></tr>
<tr><td><a href="lonely.txt">lonely.txt</a></td><td>2023-06-14 10:32</td><td><img src="x.png"></td></tr>
</table></body></html>`

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

// ============================================================================
// Layout Tests
// ============================================================================

func TestExtractAutoindex(t *testing.T) {
	x := NewExtractor(DefaultPredicates())

	entries, partial, err := x.Extract([]byte(autoindexPage), "text/html", mustURL(t, "http://example.com/pub/"), time.Time{})
	require.NoError(t, err)
	assert.False(t, partial)
	require.Len(t, entries, 3)

	parent := entries[0]
	assert.Equal(t, ParentSentinel, parent.Name)
	assert.Equal(t, "http://example.com/", parent.URL)
	assert.True(t, parent.IsContainer)

	docs := entries[1]
	assert.Equal(t, "docs", docs.Name)
	assert.Equal(t, "http://example.com/pub/docs/", docs.URL)
	assert.True(t, docs.IsContainer)
	assert.Nil(t, docs.Size)
	require.NotNil(t, docs.ModTime)

	file := entries[2]
	assert.Equal(t, "file.iso", file.Name)
	assert.Equal(t, "http://example.com/pub/file.iso", file.URL)
	assert.False(t, file.IsContainer)
	assert.Equal(t, "14-Jun-2023 10:32  4.2K", file.Extra)
	require.NotNil(t, file.Size)
	assert.Equal(t, uint64(4301), *file.Size)
	require.NotNil(t, file.ModTime)
	assert.True(t, time.Date(2023, time.June, 14, 10, 32, 0, 0, time.Local).Equal(*file.ModTime))
}

func TestExtractTable(t *testing.T) {
	x := NewExtractor(DefaultPredicates())

	entries, _, err := x.Extract([]byte(tablePage), "text/html; charset=utf-8", mustURL(t, "https://mirror.example.org/iso/"), time.Time{})
	require.NoError(t, err)
	require.Len(t, entries, 3)

	report := entries[0]
	assert.Equal(t, "report.pdf", report.Name)
	assert.False(t, report.IsContainer)
	require.NotNil(t, report.Size)
	assert.Equal(t, uint64(1572864), *report.Size)
	require.NotNil(t, report.ModTime)

	sub := entries[1]
	assert.Equal(t, "sub", sub.Name)
	assert.True(t, sub.IsContainer)
	assert.Nil(t, sub.Size)
	require.NotNil(t, sub.ModTime)

	// Only the first following cell carries text.
	lonely := entries[2]
	assert.Equal(t, "2023-06-14 10:32", lonely.Extra)
	assert.Nil(t, lonely.ModTime)
	assert.Nil(t, lonely.Size)
}

func TestExtractUnparseableExtraKeepsEntry(t *testing.T) {
	page := `<pre><a href="a.bin">a.bin</a> invalid-token</pre>`

	entries, _, err := NewExtractor(DefaultPredicates()).Extract([]byte(page), "text/html", mustURL(t, "http://h/"), time.Time{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "invalid-token", entries[0].Extra)
	assert.Nil(t, entries[0].Size)
	assert.Nil(t, entries[0].ModTime)
}

func TestExtractToleratesMalformedMarkup(t *testing.T) {
	page := `<html><body><blink><p><a href="one.txt">one.txt<a href="two.txt">two.txt</p></div></foo>`

	entries, _, err := NewExtractor(DefaultPredicates()).Extract([]byte(page), "", mustURL(t, "http://h/x/"), time.Time{})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "one.txt", entries[0].Name)
	assert.Equal(t, "two.txt", entries[1].Name)
}

func TestExtractDecodesCharset(t *testing.T) {
	page := []byte("<pre><a href=\"cafe.txt\">caf\xe9.txt</a></pre>")

	entries, _, err := NewExtractor(DefaultPredicates()).Extract(page, "text/html; charset=iso-8859-1", mustURL(t, "http://h/"), time.Time{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "café.txt", entries[0].Name)
}

func TestExtractURLsAreAbsolute(t *testing.T) {
	page := `<a href="rel.txt">a</a><a href="../up.txt">b</a><a href="/root.txt">c</a>
<a href="//cdn.example.net/x.bin">d</a><a href="https://other.example/y.bin">e</a><link href="style.css">`

	entries, _, err := NewExtractor(DefaultPredicates()).Extract([]byte(page), "text/html", mustURL(t, "http://h/a/b/"), time.Time{})
	require.NoError(t, err)
	require.Len(t, entries, 6)

	for _, e := range entries {
		u, err := url.Parse(e.URL)
		require.NoError(t, err)
		assert.True(t, u.IsAbs(), "%s is not absolute", e.URL)
		assert.NotEmpty(t, u.Host, "%s has no host", e.URL)
	}
	assert.Equal(t, "http://h/a/up.txt", entries[1].URL)
	assert.Equal(t, "http://cdn.example.net/x.bin", entries[3].URL)
	assert.Equal(t, "style.css", entries[5].Name)
}

func TestExtractKeepsHrefWithRawPercent(t *testing.T) {
	page := `<pre><a href="50%off.zip">50%off.zip</a>   14-Jun-2023 10:32   4.2K
<a href="next.txt">next.txt</a></pre>`

	entries, _, err := NewExtractor(DefaultPredicates()).Extract([]byte(page), "text/html", mustURL(t, "http://h/pub/"), time.Time{})
	require.NoError(t, err)
	require.Len(t, entries, 2)

	e := entries[0]
	assert.Equal(t, "50%off.zip", e.Name)
	assert.Equal(t, "http://h/pub/50%25off.zip", e.URL)
	assert.False(t, e.IsContainer)
	assert.NotNil(t, e.Size)
	assert.NotNil(t, e.ModTime)
}

func TestEscapeStrayPercent(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain.txt", "plain.txt"},
		{"50%off.zip", "50%25off.zip"},
		{"a%20b.txt", "a%20b.txt"},
		{"a%20b%zz.txt", "a%20b%25zz.txt"},
		{"end%", "end%25"},
		{"end%4", "end%254"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, escapeStrayPercent(tt.in), "escapeStrayPercent(%q)", tt.in)
	}
}

// ============================================================================
// Deadline Tests
// ============================================================================

// tickingClock advances by step on every call.
func tickingClock(start time.Time, step time.Duration) func() time.Time {
	now := start
	return func() time.Time {
		t := now
		now = now.Add(step)
		return t
	}
}

func TestExtractDeadline(t *testing.T) {
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	t.Cleanup(func() { logger.SetOutput(os.Stdout) })

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	x := NewExtractor(DefaultPredicates())
	x.Now = tickingClock(start, 10*time.Second)

	// Checks happen at +0s, +10s, +20s; the fourth link sees +30s.
	entries, partial, err := x.Extract([]byte(autoindexPage), "text/html", mustURL(t, "http://example.com/pub/"), start.Add(30*time.Second))
	require.NoError(t, err)
	assert.True(t, partial)
	assert.Len(t, entries, 2)
	assert.Contains(t, buf.String(), "[WARN] Retrieving link list aborted: timed out")
}

func TestExtractZeroDeadlineDisablesLimit(t *testing.T) {
	x := NewExtractor(DefaultPredicates())
	x.Now = tickingClock(time.Now(), time.Hour)

	entries, partial, err := x.Extract([]byte(autoindexPage), "text/html", mustURL(t, "http://example.com/pub/"), time.Time{})
	require.NoError(t, err)
	assert.False(t, partial)
	assert.Len(t, entries, 3)
}
