package operation

import "fmt"

// DecisionKind tags the variant of a Decision.
type DecisionKind int

const (
	// DecisionUndecided defers to the next handler, or to the default
	// operation when every handler defers.
	DecisionUndecided DecisionKind = iota
	// DecisionValue short-circuits a value-producing chain with a result.
	DecisionValue
	// DecisionAllow votes to let a boolean-gated operation proceed.
	DecisionAllow
	// DecisionDeny vetoes a boolean-gated operation.
	DecisionDeny
	// DecisionThrow aborts the chain and propagates an error.
	DecisionThrow
	// DecisionContribute adds keys to an enumeration without deciding it.
	DecisionContribute
)

// String returns a human-readable representation of the decision kind.
func (k DecisionKind) String() string {
	switch k {
	case DecisionUndecided:
		return "undecided"
	case DecisionValue:
		return "value"
	case DecisionAllow:
		return "allow"
	case DecisionDeny:
		return "deny"
	case DecisionThrow:
		return "throw"
	case DecisionContribute:
		return "contribute"
	default:
		return "unknown"
	}
}

// Decision is the tagged result a handler returns. The zero value is
// Undecided, so a handler that forgets to decide defers rather than
// denying (the boolean-coercion ambiguity this type exists to remove).
type Decision struct {
	kind   DecisionKind
	value  any
	keys   []string
	reason string
	err    error
}

// Undecided defers to the next handler or the default operation.
func Undecided() Decision {
	return Decision{kind: DecisionUndecided}
}

// WithValue short-circuits a value-producing chain with v as the result.
func WithValue(v any) Decision {
	return Decision{kind: DecisionValue, value: v}
}

// Allow votes to let a boolean-gated operation proceed.
func Allow() Decision {
	return Decision{kind: DecisionAllow}
}

// Deny vetoes a boolean-gated operation. The reason must be suitable for
// logging or display without inspecting internal state.
func Deny(reason string) Decision {
	return Decision{kind: DecisionDeny, reason: reason}
}

// Throw aborts the chain; err propagates unmodified to the caller.
func Throw(err error) Decision {
	if err == nil {
		err = fmt.Errorf("handler threw with nil error")
	}
	return Decision{kind: DecisionThrow, err: err}
}

// Contribute adds keys to the visible set of an enumerate operation.
// The chain continues; the kernel unions contributions in registration
// order, dropping duplicates.
func Contribute(keys ...string) Decision {
	return Decision{kind: DecisionContribute, keys: keys}
}

// Kind returns the variant tag.
func (d Decision) Kind() DecisionKind {
	return d.kind
}

// Value returns the result carried by a Value decision.
func (d Decision) Value() any {
	return d.value
}

// Keys returns the key contribution carried by a Contribute decision.
func (d Decision) Keys() []string {
	return d.keys
}

// Reason returns the human-readable denial reason.
func (d Decision) Reason() string {
	return d.reason
}

// Err returns the error carried by a Throw decision.
func (d Decision) Err() error {
	return d.err
}

// IsUndecided returns true if this decision defers.
func (d Decision) IsUndecided() bool {
	return d.kind == DecisionUndecided
}

// Definitive returns true if this decision stops the chain for its kind:
// Value, Deny and Throw short-circuit; Allow, Undecided and Contribute
// let later handlers run.
func (d Decision) Definitive() bool {
	switch d.kind {
	case DecisionValue, DecisionDeny, DecisionThrow:
		return true
	default:
		return false
	}
}
