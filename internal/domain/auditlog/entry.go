// Package auditlog provides the domain model for audit trails: the
// immutable Entry and the append-only Log that owns index assignment.
package auditlog

import (
	"time"

	"github.com/intercede-dev/intercede/internal/domain/operation"
	"github.com/intercede-dev/intercede/internal/domain/values"
)

// Entry is one recorded operation intent. Immutable once appended; the
// index is assigned by the owning Log at append time.
type Entry struct {
	Index         int            `json:"index"`
	Timestamp     *time.Time     `json:"timestamp,omitempty"`
	OperationKind operation.Kind `json:"operation_kind"`
	PropertyKey   string         `json:"property_key,omitempty"`
	Intent        values.Intent  `json:"intent"`
	Status        values.Status  `json:"status"`
	Level         values.Level   `json:"level"`
	Value         any            `json:"value,omitempty"`
	Result        any            `json:"result,omitempty"`
	Args          []any          `json:"args,omitempty"`
	Reason        string         `json:"reason,omitempty"`
	ErrorMessage  string         `json:"error_message,omitempty"`
	StackTrace    string         `json:"stack_trace,omitempty"`
}
