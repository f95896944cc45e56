package values

import (
	"fmt"
	"strings"
)

// ExportFormat identifies a serialization format for audit log export.
type ExportFormat string

const (
	// FormatJSON is a pretty-printed JSON array of entries.
	FormatJSON ExportFormat = "json"
	// FormatCSV is one row per entry with a union-of-keys header.
	FormatCSV ExportFormat = "csv"
	// FormatText is one human-readable line per entry.
	FormatText ExportFormat = "text"
)

// SupportedFormats lists the formats Export accepts, in display order.
func SupportedFormats() []ExportFormat {
	return []ExportFormat{FormatJSON, FormatCSV, FormatText}
}

// NewExportFormat parses a string into an ExportFormat.
func NewExportFormat(s string) (ExportFormat, error) {
	switch ExportFormat(strings.ToLower(strings.TrimSpace(s))) {
	case FormatJSON:
		return FormatJSON, nil
	case FormatCSV:
		return FormatCSV, nil
	case FormatText:
		return FormatText, nil
	default:
		return "", fmt.Errorf("unsupported format: %q (supported: %v)", s, SupportedFormats())
	}
}

// Validate returns an error if the format value is invalid.
func (f ExportFormat) Validate() error {
	_, err := NewExportFormat(string(f))
	return err
}

// String returns the string representation.
func (f ExportFormat) String() string {
	return string(f)
}
