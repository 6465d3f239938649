package config

import (
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// Set changes one setting of a loaded configuration from its string form.
//
// key is the dotted config key ("transfer.timeout",
// "listing.candidate_extensions"). Only the sections a running instance
// can apply are settable: listing, transfer and probe. Lists are
// comma-separated and durations use time.ParseDuration syntax.
//
// The result is validated before it is committed; on error cfg is left
// unchanged.
func Set(cfg *Config, key, value string) error {
	section, field, ok := strings.Cut(strings.ToLower(strings.TrimSpace(key)), ".")
	if !ok || field == "" {
		return fmt.Errorf("invalid setting %q: expected <section>.<key>", key)
	}

	next := *cfg

	var target any
	switch section {
	case "listing":
		target = &next.Listing
	case "transfer":
		target = &next.Transfer
	case "probe":
		target = &next.Probe
	default:
		return fmt.Errorf("setting %q cannot be changed at runtime (settable: listing, transfer, probe)", key)
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		// Slices are rebuilt, never merged into the old backing array.
		ZeroFields: true,
		Result:     target,
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}

	if err := decoder.Decode(map[string]any{field: strings.TrimSpace(value)}); err != nil {
		return fmt.Errorf("invalid setting %q: %w", key, err)
	}

	if err := Validate(&next); err != nil {
		return err
	}

	*cfg = next
	return nil
}
