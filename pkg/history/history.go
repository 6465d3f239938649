// Package history persists the list of previously visited listing URLs.
//
// The file is plain text with one URL per line, most recent first. The
// first line is the URL a new session starts from.
package history

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileName is the history file name placed next to the host settings.
const FileName = "history_href.txt"

// DefaultMaxEntries caps the number of remembered URLs.
const DefaultMaxEntries = 4096

// File is a history file on disk.
type File struct {
	// Path of the history file
	Path string

	// MaxEntries caps loaded and saved lists (DefaultMaxEntries if <= 0)
	MaxEntries int
}

// New creates a File for path.
func New(path string, maxEntries int) *File {
	return &File{Path: path, MaxEntries: maxEntries}
}

// NextTo returns the history path placed in the directory of iniPath.
func NextTo(iniPath string) string {
	return filepath.Join(filepath.Dir(iniPath), FileName)
}

func (f *File) limit() int {
	if f.MaxEntries <= 0 {
		return DefaultMaxEntries
	}
	return f.MaxEntries
}

// Load returns the remembered URLs, most recent first. Blank lines are
// skipped. A missing file yields an empty list.
func (f *File) Load() ([]string, error) {
	file, err := os.Open(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	defer func() { _ = file.Close() }()

	var urls []string
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)
	for scanner.Scan() && len(urls) < f.limit() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}

	return urls, nil
}

// Current returns the first remembered URL, or fallback when the file is
// missing or starts with a blank line.
func (f *File) Current(fallback string) string {
	file, err := os.Open(f.Path)
	if err != nil {
		return fallback
	}
	defer func() { _ = file.Close() }()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)
	if !scanner.Scan() {
		return fallback
	}
	if line := strings.TrimSpace(scanner.Text()); line != "" {
		return line
	}
	return fallback
}

// Save rewrites the file with current first, followed by every entry of
// previous that differs from it. Duplicates and blank entries are dropped.
func (f *File) Save(current string, previous []string) error {
	seen := make(map[string]struct{}, len(previous)+1)
	var b strings.Builder

	add := func(u string) {
		u = strings.TrimSpace(u)
		if u == "" || len(seen) >= f.limit() {
			return
		}
		if _, dup := seen[u]; dup {
			return
		}
		seen[u] = struct{}{}
		b.WriteString(u)
		b.WriteByte('\n')
	}

	add(current)
	for _, u := range previous {
		add(u)
	}

	if err := os.MkdirAll(filepath.Dir(f.Path), 0755); err != nil {
		return fmt.Errorf("create history directory: %w", err)
	}

	tmp := f.Path + ".tmp"
	if err := os.WriteFile(tmp, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	if err := os.Rename(tmp, f.Path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace history: %w", err)
	}

	return nil
}

// Remove drops url from the file, keeping the order of the rest.
func (f *File) Remove(url string) error {
	urls, err := f.Load()
	if err != nil {
		return err
	}

	kept := urls[:0]
	for _, u := range urls {
		if u != url {
			kept = append(kept, u)
		}
	}

	if len(kept) == 0 {
		return f.Save("", nil)
	}
	return f.Save(kept[0], kept[1:])
}
