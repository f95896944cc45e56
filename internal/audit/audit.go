// Package audit implements the audit capability: slot-gated handlers
// for every operation kind that record an ordered, append-only log of
// operation intents, with filtering, level-based sink suppression and
// multi-format export.
//
// The capability logs intent, not outcome. Its handlers run wherever
// they were registered in the chain and cannot know whether a later
// capability will deny the operation, so every entry is recorded with
// status "allowed" and the handlers always defer, leaving the outcome
// to the rest of the chain.
package audit

import (
	"encoding/json"
	"fmt"
	"io"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	apperrors "github.com/intercede-dev/intercede/internal/application/errors"
	"github.com/intercede-dev/intercede/internal/domain/auditlog"
	"github.com/intercede-dev/intercede/internal/domain/operation"
	"github.com/intercede-dev/intercede/internal/domain/values"
	"github.com/intercede-dev/intercede/internal/dynscope"
	"github.com/intercede-dev/intercede/internal/infrastructure/output"
	"github.com/intercede-dev/intercede/internal/infrastructure/redaction"
	"github.com/intercede-dev/intercede/internal/kernel"
)

// Auditor is one audit capability instance: a context slot, a log, and
// one handler per operation kind. Inactive until Call enters its scope;
// operations outside any tracked Call are invisible to it.
type Auditor struct {
	slot *dynscope.Slot[struct{}]
	log  *auditlog.Log

	mu    sync.Mutex
	level values.Level

	sinkFormat    values.ExportFormat
	sink          Sink
	writer        io.Writer
	timestamps    bool
	stackTraces   bool
	filter        FilterFunc
	filterProgram *vm.Program
	redactor      *redaction.Redactor
	clock         func() time.Time
	factory       *output.FormatterFactory
}

// New creates an audit capability. Invalid options fail here.
func New(opts ...Option) (*Auditor, error) {
	o := defaultOptions()
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return nil, err
		}
	}

	return &Auditor{
		slot:          dynscope.NewSlot[struct{}]("audit capability"),
		log:           auditlog.NewLog(),
		level:         o.level,
		sinkFormat:    o.sinkFormat,
		sink:          o.sink,
		writer:        o.writer,
		timestamps:    o.timestamps,
		stackTraces:   o.stackTraces,
		filter:        o.filter,
		filterProgram: o.filterProgram,
		redactor:      o.redactor,
		clock:         o.clock,
		factory:       output.NewFormatterFactory(),
	}, nil
}

// Wrap builds a kernel around target, attaches a new auditor to it and
// returns both the auditor and the mediated handle.
func Wrap(target any, opts ...Option) (*Auditor, *kernel.Handle, error) {
	a, err := New(opts...)
	if err != nil {
		return nil, nil, err
	}
	k, err := kernel.New(target)
	if err != nil {
		return nil, nil, err
	}
	a.Attach(k)
	return a, k.Handle(), nil
}

// Attach registers this auditor's handler on every chain of k. The
// handler defers unconditionally, so capabilities registered after it
// retain full control over the outcome.
func (a *Auditor) Attach(k *kernel.Kernel) {
	h := a.handler()
	for _, kind := range operation.Kinds() {
		_ = k.On(kind, h)
	}
}

// Call activates the capability for the duration of body, enabling its
// handlers to append entries, and returns body's result. Nested calls
// are legal.
func (a *Auditor) Call(body func() error) error {
	return a.slot.Activate(struct{}{}, body)
}

// CallValue is Call for bodies that produce a value.
func CallValue[R any](a *Auditor, body func() (R, error)) (R, error) {
	return dynscope.Call(a.slot, struct{}{}, body)
}

// Active reports whether a Call is currently in progress.
func (a *Auditor) Active() bool {
	return a.slot.Active()
}

// GetLog returns an ordered snapshot of all stored entries.
func (a *Auditor) GetLog() []auditlog.Entry {
	return a.log.Snapshot()
}

// ClearLog empties the log and resets the index counter to zero.
func (a *Auditor) ClearLog() {
	a.log.Clear()
}

// SetLevel changes the sink suppression threshold. Unknown levels are a
// configuration error.
func (a *Auditor) SetLevel(level values.Level) error {
	if err := level.Validate(); err != nil {
		return apperrors.NewConfigurationError("audit", "invalid log level", err)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.level = level
	return nil
}

// Level returns the current sink suppression threshold.
func (a *Auditor) Level() values.Level {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.level
}

// Export serializes all stored entries in the requested format (json,
// csv or text). Anything else is an unsupported-format error.
func (a *Auditor) Export(format string) (string, error) {
	parsed, err := values.NewExportFormat(format)
	if err != nil {
		return "", apperrors.NewConfigurationError("audit", "export", err)
	}

	var sb strings.Builder
	formatter, err := a.factory.Create(parsed, &sb)
	if err != nil {
		return "", err
	}
	if err := formatter.Format(a.log.Snapshot()); err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}
	return sb.String(), nil
}

// handler returns the single handler registered on every chain. It
// defers immediately when the slot is not active so it never logs
// activity belonging to a different, unrelated call.
func (a *Auditor) handler() operation.Handler {
	return func(op *operation.Operation) operation.Decision {
		if !a.slot.Active() {
			return operation.Undecided()
		}
		a.record(op)
		return operation.Undecided()
	}
}

// record runs the append pipeline: filter, build, redact, store, then
// the level gate and sink emission. Filter rejection happens before
// index assignment, so rejected operations never consume an index.
func (a *Auditor) record(op *operation.Operation) {
	rec := IntentRecord{
		OperationKind: string(op.Kind),
		PropertyKey:   op.Key,
		Intent:        string(op.Kind.Intent()),
		Value:         op.Value,
		Args:          op.Args,
	}
	if !a.admit(rec) {
		return
	}

	entry := auditlog.Entry{
		OperationKind: op.Kind,
		PropertyKey:   op.Key,
		Intent:        op.Kind.Intent(),
		Status:        values.StatusAllowed,
		Level:         entryLevel(op.Kind),
		Value:         op.Value,
		Args:          op.Args,
	}
	if a.timestamps {
		ts := a.clock()
		entry.Timestamp = &ts
	}
	if a.stackTraces {
		entry.StackTrace = string(debug.Stack())
	}
	if a.redactor != nil {
		entry = a.redactor.ScrubEntry(entry)
	}

	stored := a.log.Append(entry)
	a.emit(stored)
}

// admit applies the configured filter predicate and filter expression;
// both must pass when both are set.
func (a *Auditor) admit(rec IntentRecord) bool {
	if a.filter != nil && !a.filter(rec) {
		return false
	}
	if a.filterProgram != nil {
		out, err := expr.Run(a.filterProgram, rec)
		if err != nil {
			// A failing filter cannot veto the operation, only the
			// recording; treat errors as rejection.
			return false
		}
		pass, ok := out.(bool)
		if !ok || !pass {
			return false
		}
	}
	return true
}

// emit writes a stored entry to the configured sinks unless the level
// gate suppresses it. Suppressed entries stay in the log.
func (a *Auditor) emit(entry auditlog.Entry) {
	if !entry.Level.AtLeast(a.Level()) {
		return
	}
	if a.sink != nil {
		a.sink(entry)
	}
	if a.writer != nil {
		var line string
		if a.sinkFormat == values.FormatText {
			line = output.FormatEntryLine(entry)
		} else {
			data, err := json.Marshal(entry)
			if err != nil {
				return
			}
			line = string(data)
		}
		_, _ = io.WriteString(a.writer, line+"\n")
	}
}

// entryLevel derives an entry's severity from the operation kind:
// observational kinds at debug, state-affecting kinds at info.
func entryLevel(kind operation.Kind) values.Level {
	if kind.Intent() == values.IntentRead {
		return values.LevelDebug
	}
	return values.LevelInfo
}
