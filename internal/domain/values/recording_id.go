package values

import (
	"fmt"

	"github.com/google/uuid"
)

// RecordingID uniquely identifies a captured invocation sequence.
// Stable across store/export/replay round trips.
type RecordingID struct {
	value uuid.UUID
}

// NewRecordingID creates a new random recording ID.
func NewRecordingID() RecordingID {
	return RecordingID{value: uuid.New()}
}

// ParseRecordingID parses a string into a RecordingID.
func ParseRecordingID(s string) (RecordingID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return RecordingID{}, fmt.Errorf("invalid recording ID: %w", err)
	}
	return RecordingID{value: id}, nil
}

// MustParseRecordingID parses a string or panics (for tests only).
func MustParseRecordingID(s string) RecordingID {
	id, err := ParseRecordingID(s)
	if err != nil {
		panic(err)
	}
	return id
}

// String returns the string representation.
func (r RecordingID) String() string {
	return r.value.String()
}

// IsZero returns true if this is the zero value.
func (r RecordingID) IsZero() bool {
	return r.value == uuid.Nil
}

// Equals checks if two RecordingIDs are equal.
func (r RecordingID) Equals(other RecordingID) bool {
	return r.value == other.value
}

// MarshalJSON implements json.Marshaler.
func (r RecordingID) MarshalJSON() ([]byte, error) {
	return []byte(`"` + r.value.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *RecordingID) UnmarshalJSON(data []byte) error {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("invalid recording ID JSON: %s", data)
	}
	id, err := ParseRecordingID(string(data[1 : len(data)-1]))
	if err != nil {
		return err
	}
	*r = id
	return nil
}
