package vfs

import (
	"context"
	"strings"
)

// Content fields in index order.
var contentFields = []string{"URL", "Extra"}

// ContentGetSupportedField names field i, or returns FieldNoMoreFields
// past the last one.
func (p *Plugin) ContentGetSupportedField(i int) (string, FieldType) {
	if i < 0 || i >= len(contentFields) {
		return "", FieldNoMoreFields
	}
	return contentFields[i], FieldString
}

// ContentGetValue returns field i of the entry name in the current
// listing.
func (p *Plugin) ContentGetValue(ctx context.Context, name string, i int) (string, FieldType) {
	if i < 0 || i >= len(contentFields) {
		return "", FieldNoSuchField
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	entry, ok := p.lookup(ctx, strings.TrimPrefix(name, "/"))
	if !ok {
		return "", FieldEmpty
	}

	var value string
	switch i {
	case 0:
		value = entry.URL
	case 1:
		value = entry.Extra
	}
	if value == "" {
		return "", FieldEmpty
	}
	return value, FieldString
}
