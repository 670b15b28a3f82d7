// Package id defines opaque identifiers and the hashing/interning
// primitives built on top of them.
//
// UUID values are not RFC 4122 compliant. They are plain 64-bit
// random numbers, generated with enough entropy that collisions
// within a single process are vanishingly unlikely, and cheap to
// pack into the rest of the data model (map keys, stream fields,
// dense indices derived from a hash of the value).
package id

import (
	"crypto/rand"
	"encoding/binary"
	"strconv"

	"gopkg.in/yaml.v3"
)

// UUID identifies an asset, artifact or source file.
// The zero value is Nil and never denotes a live object.
type UUID uint64

// Nil is the reserved empty UUID.
const Nil UUID = 0

// Generate returns a new, random UUID.
// It never returns Nil.
func Generate() UUID {
	var b [8]byte
	for {
		if _, err := rand.Read(b[:]); err != nil {
			panic("id: crypto/rand unavailable: " + err.Error())
		}
		if u := UUID(binary.LittleEndian.Uint64(b[:])); u != Nil {
			return u
		}
	}
}

// String formats the UUID as a lowercase hex string without
// leading zeros.
func (u UUID) String() string {
	return strconv.FormatUint(uint64(u), 16)
}

// IsNil reports whether u is the Nil UUID.
func (u UUID) IsNil() bool { return u == Nil }

// Parse parses a hex string produced by UUID.String.
func Parse(s string) (UUID, error) {
	if s == "" {
		return Nil, nil
	}
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return Nil, err
	}
	return UUID(v), nil
}

// MarshalYAML renders the uuid as its hex string, or an empty
// string for Nil, so it round-trips through hand-editable meta
// documents the same way AssetId's tree encoding does.
func (u UUID) MarshalYAML() (any, error) {
	if u.IsNil() {
		return "", nil
	}
	return u.String(), nil
}

// UnmarshalYAML accepts the hex string form produced by
// MarshalYAML, including the empty string for Nil.
func (u *UUID) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	v, err := Parse(s)
	if err != nil {
		return err
	}
	*u = v
	return nil
}
