package audit

import (
	"io"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	apperrors "github.com/intercede-dev/intercede/internal/application/errors"
	"github.com/intercede-dev/intercede/internal/domain/auditlog"
	"github.com/intercede-dev/intercede/internal/domain/values"
	"github.com/intercede-dev/intercede/internal/infrastructure/redaction"
)

// IntentRecord is the pre-entry view of an operation handed to filter
// predicates before an entry is built. Rejected operations are neither
// stored nor emitted and never consume an index.
type IntentRecord struct {
	OperationKind string `expr:"operation_kind"`
	PropertyKey   string `expr:"property_key"`
	Intent        string `expr:"intent"`
	Value         any    `expr:"value"`
	Args          []any  `expr:"args"`
}

// FilterFunc decides whether an operation intent is recorded.
type FilterFunc func(IntentRecord) bool

// Sink receives each stored entry that passes the level gate.
type Sink func(auditlog.Entry)

type options struct {
	level         values.Level
	sinkFormat    values.ExportFormat
	sink          Sink
	writer        io.Writer
	timestamps    bool
	stackTraces   bool
	filter        FilterFunc
	filterProgram *vm.Program
	redactor      *redaction.Redactor
	clock         func() time.Time
}

func defaultOptions() options {
	return options{
		level:      values.LevelInfo,
		sinkFormat: values.FormatJSON,
		timestamps: true,
		clock:      time.Now,
	}
}

// Option configures an Auditor at construction time. Construction-time
// validation is strict; errors are raised synchronously, never deferred
// to the first operation.
type Option func(*options) error

// WithLevel sets the sink suppression threshold. Entries below it are
// recorded but not emitted.
func WithLevel(level values.Level) Option {
	return func(o *options) error {
		if err := level.Validate(); err != nil {
			return apperrors.NewConfigurationError("audit", "invalid log level", err)
		}
		o.level = level
		return nil
	}
}

// WithFormat sets the sink line format: json or text. The stored entry
// shape is independent of this.
func WithFormat(format values.ExportFormat) Option {
	return func(o *options) error {
		if format != values.FormatJSON && format != values.FormatText {
			return apperrors.NewConfigurationError("audit", "sink format must be json or text", nil)
		}
		o.sinkFormat = format
		return nil
	}
}

// WithSink registers a callable receiving each emitted entry.
func WithSink(sink Sink) Option {
	return func(o *options) error {
		o.sink = sink
		return nil
	}
}

// WithWriter registers a writer receiving each emitted entry rendered
// in the configured sink format, one line per entry.
func WithWriter(w io.Writer) Option {
	return func(o *options) error {
		o.writer = w
		return nil
	}
}

// WithTimestamps controls whether entries carry a timestamp. On by
// default.
func WithTimestamps(enabled bool) Option {
	return func(o *options) error {
		o.timestamps = enabled
		return nil
	}
}

// WithStackTraces controls whether entries capture the recording call
// stack. Off by default.
func WithStackTraces(enabled bool) Option {
	return func(o *options) error {
		o.stackTraces = enabled
		return nil
	}
}

// WithFilter installs a predicate over operation intents. Operations it
// rejects are invisible to this capability.
func WithFilter(filter FilterFunc) Option {
	return func(o *options) error {
		o.filter = filter
		return nil
	}
}

// WithFilterExpr installs a filter expression compiled against the
// IntentRecord environment, e.g. `operation_kind == "write"` or
// `intent in ["write", "delete"]`.
func WithFilterExpr(src string) Option {
	return func(o *options) error {
		program, err := expr.Compile(src, expr.Env(IntentRecord{}), expr.AsBool())
		if err != nil {
			return apperrors.NewConfigurationError("audit", "invalid filter expression", err)
		}
		o.filterProgram = program
		return nil
	}
}

// WithRedactor scrubs secrets out of entries before they are stored or
// emitted.
func WithRedactor(r *redaction.Redactor) Option {
	return func(o *options) error {
		o.redactor = r
		return nil
	}
}

// WithClock overrides the timestamp source (for tests).
func WithClock(clock func() time.Time) Option {
	return func(o *options) error {
		if clock != nil {
			o.clock = clock
		}
		return nil
	}
}
