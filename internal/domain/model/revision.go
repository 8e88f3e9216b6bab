package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TrackerDataValue is the payload of a revision: the originally extracted
// value plus the ordered transformations applied by formatters.
type TrackerDataValue struct {
	Original json.RawMessage   `json:"original"`
	Mods     []json.RawMessage `json:"mods,omitempty"`
}

// NewTrackerDataValue wraps an extracted value with no transformations.
func NewTrackerDataValue(original json.RawMessage) TrackerDataValue {
	return TrackerDataValue{Original: original}
}

// Value returns the effective value: the last transformation, or the original
// when none were applied.
func (v TrackerDataValue) Value() json.RawMessage {
	if len(v.Mods) > 0 {
		return v.Mods[len(v.Mods)-1]
	}
	return v.Original
}

// AddMod appends a transformation produced by a formatter script.
func (v *TrackerDataValue) AddMod(mod json.RawMessage) {
	v.Mods = append(v.Mods, mod)
}

// TrackerRevision is an immutable snapshot of a tracker's extracted content.
type TrackerRevision struct {
	ID        uuid.UUID        `json:"id"         db:"id"`
	TrackerID uuid.UUID        `json:"tracker_id" db:"tracker_id"`
	Data      TrackerDataValue `json:"data"       db:"data"`
	// CreatedAt is stored in UTC with microsecond precision.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// CanonicalJSON re-encodes a JSON document deterministically: object keys are
// sorted, array order and number representation are preserved. Byte-wise
// equality of the result is the engine's change-detection rule.
func CanonicalJSON(raw json.RawMessage) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var value any
	if err := dec.Decode(&value); err != nil {
		return nil, fmt.Errorf("decode value: %w", err)
	}

	// encoding/json sorts map keys on marshal, which is exactly the
	// canonical form needed here.
	out, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode canonical value: %w", err)
	}
	return out, nil
}

// JSONEqual compares two JSON documents by canonical form.
func JSONEqual(a, b json.RawMessage) (bool, error) {
	ca, err := CanonicalJSON(a)
	if err != nil {
		return false, err
	}
	cb, err := CanonicalJSON(b)
	if err != nil {
		return false, err
	}
	return bytes.Equal(ca, cb), nil
}
