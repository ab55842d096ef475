// Package id defines TypeID-based identifiers for ledger runs and snapshots.
//
// Operations and accounts are keyed by the numeric ids carried in the input
// (see package types). The identifiers here tag the work the engine does
// around them, so log lines and plugin callbacks from one ingest run or one
// export can be correlated. IDs are K-sortable (UUIDv7-based) and render as
// "prefix_suffix".
package id

import (
	"fmt"

	"go.jetify.com/typeid/v2"
)

// Prefix identifies the entity type encoded in a TypeID.
type Prefix string

const (
	PrefixRun      Prefix = "run"  // One pass of the ingest pipeline
	PrefixSnapshot Prefix = "snap" // One snapshot export
)

// ID wraps a TypeID. The zero value is Nil.
//
//nolint:recvcheck // Value receivers for read-only methods, pointer receiver for UnmarshalText.
type ID struct {
	inner typeid.TypeID
	valid bool
}

// Nil is the zero-value ID.
var Nil ID

// New generates a new ID with the given prefix.
// It panics if prefix is not a valid TypeID prefix (programming error).
func New(prefix Prefix) ID {
	tid, err := typeid.Generate(string(prefix))
	if err != nil {
		panic(fmt.Sprintf("id: invalid prefix %q: %v", prefix, err))
	}

	return ID{inner: tid, valid: true}
}

// Parse parses a TypeID string such as "run_01h2xcejqtf2nbrexx3vqjhp41".
func Parse(s string) (ID, error) {
	if s == "" {
		return Nil, fmt.Errorf("id: parse %q: empty string", s)
	}

	tid, err := typeid.Parse(s)
	if err != nil {
		return Nil, fmt.Errorf("id: parse %q: %w", s, err)
	}

	return ID{inner: tid, valid: true}, nil
}

// ParseWithPrefix parses s and checks that its prefix is expected.
func ParseWithPrefix(s string, expected Prefix) (ID, error) {
	parsed, err := Parse(s)
	if err != nil {
		return Nil, err
	}

	if parsed.Prefix() != expected {
		return Nil, fmt.Errorf("id: expected prefix %q, got %q", expected, parsed.Prefix())
	}

	return parsed, nil
}

// RunID identifies one ingest pipeline run (prefix: "run").
type RunID = ID

// SnapshotID identifies one snapshot export (prefix: "snap").
type SnapshotID = ID

// NewRunID generates a new run ID.
func NewRunID() RunID { return New(PrefixRun) }

// NewSnapshotID generates a new snapshot ID.
func NewSnapshotID() SnapshotID { return New(PrefixSnapshot) }

// ParseRunID parses s and validates the "run" prefix.
func ParseRunID(s string) (RunID, error) { return ParseWithPrefix(s, PrefixRun) }

// ParseSnapshotID parses s and validates the "snap" prefix.
func ParseSnapshotID(s string) (SnapshotID, error) { return ParseWithPrefix(s, PrefixSnapshot) }

// String returns the "prefix_suffix" form, or "" for Nil.
func (i ID) String() string {
	if !i.valid {
		return ""
	}

	return i.inner.String()
}

// Prefix returns the prefix component of this ID.
func (i ID) Prefix() Prefix {
	if !i.valid {
		return ""
	}

	return Prefix(i.inner.Prefix())
}

// IsNil reports whether this ID is the zero value.
func (i ID) IsNil() bool {
	return !i.valid
}

// MarshalText implements encoding.TextMarshaler.
func (i ID) MarshalText() ([]byte, error) {
	if !i.valid {
		return []byte{}, nil
	}

	return []byte(i.inner.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (i *ID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*i = Nil

		return nil
	}

	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}

	*i = parsed

	return nil
}
