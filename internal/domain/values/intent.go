package values

import "fmt"

// Intent classifies what a mediated operation is trying to do to the
// target, collapsing the eight operation kinds into five intents. All
// observational kinds (read, has, enumerate, describe) share IntentRead.
type Intent string

const (
	// IntentRead covers read, has, enumerate and describe operations.
	IntentRead Intent = "read"
	// IntentWrite covers property writes.
	IntentWrite Intent = "write"
	// IntentDelete covers property deletions.
	IntentDelete Intent = "delete"
	// IntentCall covers method invocations.
	IntentCall Intent = "call"
	// IntentConstruct covers constructor invocations.
	IntentConstruct Intent = "construct"
)

// Validate returns an error if the intent value is invalid.
func (i Intent) Validate() error {
	switch i {
	case IntentRead, IntentWrite, IntentDelete, IntentCall, IntentConstruct:
		return nil
	default:
		return fmt.Errorf("invalid intent: %s", i)
	}
}

// String returns the string representation.
func (i Intent) String() string {
	return string(i)
}
