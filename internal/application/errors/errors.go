// Package apperrors defines application-level error types.
package apperrors

import (
	"fmt"
)

// DeniedError indicates a handler vetoed a mediated operation. It is the
// deny-by-exception channel for value-producing kinds and the strict-mode
// surface for boolean-gated kinds.
type DeniedError struct {
	Kind   string // Operation kind that was denied
	Key    string // Property or method key, if property-scoped
	Reason string // Human-readable denial reason
}

func (e *DeniedError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("operation denied: %s: %s", e.Kind, e.Reason)
	}
	return fmt.Sprintf("operation denied: %s %q: %s", e.Kind, e.Key, e.Reason)
}

// NewDeniedError creates a new denied error.
func NewDeniedError(kind, key, reason string) *DeniedError {
	return &DeniedError{
		Kind:   kind,
		Key:    key,
		Reason: reason,
	}
}

// InvariantError indicates a named invariant rejected a write.
type InvariantError struct {
	Invariant string // Name of the violated invariant
	Key       string // Property being written
	Reason    string // Reason the predicate reported
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("invariant %q violated on write to %q: %s", e.Invariant, e.Key, e.Reason)
}

// NewInvariantError creates a new invariant violation error.
func NewInvariantError(invariant, key, reason string) *InvariantError {
	return &InvariantError{
		Invariant: invariant,
		Key:       key,
		Reason:    reason,
	}
}

// ScopeError indicates a strict context-slot read happened outside any
// activation.
type ScopeError struct {
	Slot string // Description of the slot that was read
}

func (e *ScopeError) Error() string {
	return fmt.Sprintf("no active scope for %s (strict read outside activation)", e.Slot)
}

// NewScopeError creates a new scope error.
func NewScopeError(slot string) *ScopeError {
	return &ScopeError{Slot: slot}
}

// ValidationError indicates policy or option validation failed.
type ValidationError struct {
	Field   string   // Field that failed validation
	Message string   // Error message
	Details []string // Additional details
}

func (e *ValidationError) Error() string {
	if len(e.Details) == 0 {
		return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s: %s (%d issues)", e.Field, e.Message, len(e.Details))
}

// NewValidationError creates a new validation error.
func NewValidationError(field, message string, details ...string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Details: details,
	}
}

// ConfigurationError indicates an invalid option or setup issue, raised
// synchronously at the call that supplied it.
type ConfigurationError struct {
	Cause   error
	Aspect  string
	Message string
}

func (e *ConfigurationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("configuration error (%s): %s: %v", e.Aspect, e.Message, e.Cause)
	}
	return fmt.Sprintf("configuration error (%s): %s", e.Aspect, e.Message)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Cause
}

// NewConfigurationError creates a new configuration error.
func NewConfigurationError(aspect, message string, cause error) *ConfigurationError {
	return &ConfigurationError{
		Aspect:  aspect,
		Message: message,
		Cause:   cause,
	}
}

// NotFoundError indicates a referenced resource (recording, property)
// does not exist.
type NotFoundError struct {
	Resource string // Resource type (e.g. "recording")
	ID       string // Identifier that was not found
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// NewNotFoundError creates a new not-found error.
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{
		Resource: resource,
		ID:       id,
	}
}
