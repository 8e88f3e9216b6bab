package model

import (
	"bytes"
	"encoding/json"
)

// Patch carries the tri-state update semantics of optional tracker fields:
// untouched (field absent), cleared (explicit null), or replaced (value).
// The zero value is "untouched".
type Patch[T any] struct {
	set   bool
	value *T
}

// Replace builds a patch that sets the field to a value.
func Replace[T any](value T) Patch[T] {
	return Patch[T]{set: true, value: &value}
}

// Clear builds a patch that sets the field to null.
func Clear[T any]() Patch[T] {
	return Patch[T]{set: true}
}

// Set reports whether the field was present in the update at all.
func (p Patch[T]) Set() bool {
	return p.set
}

// Value returns the replacement value; nil means the field is cleared.
// Meaningless unless Set is true.
func (p Patch[T]) Value() *T {
	return p.value
}

// Apply resolves the patch against the current value.
func (p Patch[T]) Apply(current *T) *T {
	if !p.set {
		return current
	}
	return p.value
}

// UnmarshalJSON marks the field as present; an explicit null clears it.
func (p *Patch[T]) UnmarshalJSON(data []byte) error {
	p.set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		p.value = nil
		return nil
	}

	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	p.value = &value
	return nil
}

// MarshalJSON encodes the replacement value or null. Untouched patches should
// be skipped by the caller via Set.
func (p Patch[T]) MarshalJSON() ([]byte, error) {
	if p.value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(p.value)
}
