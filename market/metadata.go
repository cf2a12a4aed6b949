package market

import (
	"fmt"
	"time"

	"github.com/c360/feedbridge/errors"
)

// Subscription is one accumulated subscription request. Duplicates by
// (dataset, schema, symbol) are permitted and forwarded as separate entries;
// the upstream service deduplicates, not this layer.
type Subscription struct {
	// Dataset is the upstream dataset code, e.g. "GLBX.MDP3".
	Dataset string `json:"dataset"`
	// Schema selects the record layout.
	Schema Schema `json:"schema"`
	// Symbols is the case-sensitive raw symbol set. Must be non-empty.
	Symbols []string `json:"symbols"`
	// Start, when non-zero, requests intraday replay from that time
	// instead of joining live.
	Start time.Time `json:"start,omitempty"`
	// Snapshot requests an initial book snapshot before live data.
	Snapshot bool `json:"snapshot,omitempty"`
}

// Validate checks the subscription fields without touching the engine.
func (s Subscription) Validate() error {
	if s.Dataset == "" {
		return errors.WrapInvalid(
			fmt.Errorf("%w: dataset", errors.ErrMissingConfig),
			"market", "Validate", "validate subscription")
	}
	if !s.Schema.Valid() {
		return errors.WrapInvalid(
			fmt.Errorf("%w: %q", errors.ErrInvalidSchema, s.Schema),
			"market", "Validate", "validate subscription")
	}
	if len(s.Symbols) == 0 {
		return errors.WrapInvalid(errors.ErrEmptySymbols,
			"market", "Validate", "validate subscription")
	}
	for _, sym := range s.Symbols {
		if sym == "" {
			return errors.WrapInvalid(
				fmt.Errorf("%w: empty symbol", errors.ErrEmptySymbols),
				"market", "Validate", "validate subscription")
		}
	}
	if s.Snapshot && !s.Start.IsZero() {
		return errors.WrapInvalid(
			fmt.Errorf("%w: snapshot and replay are mutually exclusive", errors.ErrInvalidConfig),
			"market", "Validate", "validate subscription")
	}
	return nil
}

// Metadata describes a successfully started stream. It is delivered exactly
// once per stream, before any record or error.
type Metadata struct {
	// Version is the upstream protocol version.
	Version uint8 `json:"version"`
	// Dataset is the dataset the stream serves.
	Dataset string `json:"dataset"`
	// Schema is the stream schema; nil means a mixed-schema stream.
	Schema *Schema `json:"schema,omitempty"`
	// Symbols are the requested symbols the upstream fully resolved,
	// in upstream resolution order.
	Symbols []string `json:"symbols"`
	// Partial are symbols resolved for only part of the session.
	Partial []string `json:"partial"`
	// NotFound are requested symbols unknown to the dataset.
	NotFound []string `json:"not_found"`
	// TsOut reports whether the gateway appends send timestamps.
	TsOut bool `json:"ts_out"`
	// StartNs is the stream start time in nanoseconds since the epoch.
	StartNs int64 `json:"start"`
}

// Clone returns a deep copy that shares no memory with the receiver, so
// consumers can hold it past the delivery callback.
func (m *Metadata) Clone() *Metadata {
	if m == nil {
		return nil
	}
	out := *m
	if m.Schema != nil {
		schema := *m.Schema
		out.Schema = &schema
	}
	out.Symbols = append([]string(nil), m.Symbols...)
	out.Partial = append([]string(nil), m.Partial...)
	out.NotFound = append([]string(nil), m.NotFound...)
	return &out
}

// StartTime returns the stream start as a time.Time.
func (m *Metadata) StartTime() time.Time {
	return time.Unix(0, m.StartNs).UTC()
}

// Mixed reports whether the stream carries multiple schemas.
func (m *Metadata) Mixed() bool {
	return m.Schema == nil
}

// Validate checks the symbol partition invariant: every requested symbol
// appears in exactly one of Symbols, Partial, or NotFound, and no others do.
func (m *Metadata) Validate(requested []string) error {
	want := make(map[string]bool, len(requested))
	for _, s := range requested {
		want[s] = true
	}

	seen := make(map[string]string, len(requested))
	for _, group := range []struct {
		name    string
		symbols []string
	}{
		{"symbols", m.Symbols},
		{"partial", m.Partial},
		{"not_found", m.NotFound},
	} {
		for _, s := range group.symbols {
			if prev, dup := seen[s]; dup {
				return errors.WrapInvalid(
					fmt.Errorf("symbol %q appears in both %s and %s", s, prev, group.name),
					"Metadata", "Validate", "check symbol partition")
			}
			seen[s] = group.name
			if !want[s] {
				return errors.WrapInvalid(
					fmt.Errorf("symbol %q resolved but never requested", s),
					"Metadata", "Validate", "check symbol partition")
			}
		}
	}

	for s := range want {
		if _, ok := seen[s]; !ok {
			return errors.WrapInvalid(
				fmt.Errorf("requested symbol %q missing from metadata", s),
				"Metadata", "Validate", "check symbol partition")
		}
	}

	return nil
}
