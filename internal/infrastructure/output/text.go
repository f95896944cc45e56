package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/intercede-dev/intercede/internal/domain/auditlog"
)

// TextFormatter formats audit entries one line per entry:
//
//	[2024-01-02T15:04:05Z] [0] write "balance" -> allowed
//	[1] read "secret" -> denied (no access) ERROR: access denied
//
// The bracketed timestamp is omitted when the entry carries none.
type TextFormatter struct {
	writer io.Writer
}

// NewTextFormatter creates a new text formatter.
func NewTextFormatter(w io.Writer) *TextFormatter {
	return &TextFormatter{writer: w}
}

// Format writes the entries as text lines.
func (f *TextFormatter) Format(entries []auditlog.Entry) error {
	for _, e := range entries {
		if _, err := io.WriteString(f.writer, FormatEntryLine(e)+"\n"); err != nil {
			return err
		}
	}
	return nil
}

// FormatEntryLine renders a single entry as its text line. Shared with
// the audit sink, which emits entries line by line as they append.
func FormatEntryLine(e auditlog.Entry) string {
	var b strings.Builder

	if e.Timestamp != nil {
		fmt.Fprintf(&b, "[%s] ", e.Timestamp.UTC().Format(time.RFC3339))
	}
	fmt.Fprintf(&b, "[%d] %s", e.Index, e.OperationKind)
	if e.PropertyKey != "" {
		fmt.Fprintf(&b, " %q", e.PropertyKey)
	}
	fmt.Fprintf(&b, " -> %s", e.Status)
	if e.Reason != "" {
		fmt.Fprintf(&b, " (%s)", e.Reason)
	}
	if e.ErrorMessage != "" {
		fmt.Fprintf(&b, " ERROR: %s", e.ErrorMessage)
	}
	return b.String()
}
