// Package output provides formatters for audit log export.
package output

import (
	"io"

	"github.com/intercede-dev/intercede/internal/domain/auditlog"
	"github.com/intercede-dev/intercede/internal/domain/values"
)

// Formatter serializes a snapshot of audit entries to a writer.
type Formatter interface {
	Format(entries []auditlog.Entry) error
}

// FormatterFactory creates formatters by export format.
type FormatterFactory struct{}

// NewFormatterFactory creates a new formatter factory.
func NewFormatterFactory() *FormatterFactory {
	return &FormatterFactory{}
}

// Create returns a formatter for the given format. Unknown formats are
// rejected by values.NewExportFormat before this switch is reached.
func (f *FormatterFactory) Create(format values.ExportFormat, writer io.Writer) (Formatter, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}
	switch format {
	case values.FormatJSON:
		return NewJSONFormatter(writer, true), nil
	case values.FormatCSV:
		return NewCSVFormatter(writer), nil
	default:
		return NewTextFormatter(writer), nil
	}
}

// SupportedFormats returns the list of available format names.
func (f *FormatterFactory) SupportedFormats() []values.ExportFormat {
	return values.SupportedFormats()
}
