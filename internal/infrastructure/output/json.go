package output

import (
	"encoding/json"
	"io"

	"github.com/intercede-dev/intercede/internal/domain/auditlog"
)

// JSONFormatter formats audit entries as a JSON array.
type JSONFormatter struct {
	writer io.Writer
	indent bool
}

// NewJSONFormatter creates a new JSON formatter.
// If indent is true, the output is pretty-printed with 2-space indent.
func NewJSONFormatter(w io.Writer, indent bool) *JSONFormatter {
	return &JSONFormatter{
		writer: w,
		indent: indent,
	}
}

// Format writes the entries as a JSON array. An empty log is an empty
// array, never null, so the output always parses back to a slice.
func (f *JSONFormatter) Format(entries []auditlog.Entry) error {
	if entries == nil {
		entries = []auditlog.Entry{}
	}

	var data []byte
	var err error
	if f.indent {
		data, err = json.MarshalIndent(entries, "", "  ")
	} else {
		data, err = json.Marshal(entries)
	}
	if err != nil {
		return err
	}

	if _, err := f.writer.Write(data); err != nil {
		return err
	}
	_, err = f.writer.Write([]byte("\n"))
	return err
}
