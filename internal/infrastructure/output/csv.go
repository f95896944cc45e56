package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"

	"github.com/intercede-dev/intercede/internal/domain/auditlog"
)

// entryColumns is the full column vocabulary in entry-field order. The
// emitted header is the subset present in at least one entry, keeping
// first-seen order stable across exports.
var entryColumns = []string{
	"index",
	"timestamp",
	"operation_kind",
	"property_key",
	"intent",
	"status",
	"level",
	"value",
	"result",
	"args",
	"reason",
	"error_message",
	"stack_trace",
}

// CSVFormatter formats audit entries as RFC 4180 CSV: header row is the
// union of keys across all entries, one row per entry, object-valued
// fields JSON-stringified.
type CSVFormatter struct {
	writer io.Writer
}

// NewCSVFormatter creates a new CSV formatter.
func NewCSVFormatter(w io.Writer) *CSVFormatter {
	return &CSVFormatter{writer: w}
}

// Format writes the entries as CSV.
func (f *CSVFormatter) Format(entries []auditlog.Entry) error {
	rows := make([]map[string]any, 0, len(entries))
	present := make(map[string]bool, len(entryColumns))
	for _, e := range entries {
		row, err := entryAsMap(e)
		if err != nil {
			return err
		}
		for key := range row {
			present[key] = true
		}
		rows = append(rows, row)
	}

	header := make([]string, 0, len(present))
	for _, col := range entryColumns {
		if present[col] {
			header = append(header, col)
		}
	}

	w := csv.NewWriter(f.writer)
	if err := w.Write(header); err != nil {
		return err
	}
	for _, row := range rows {
		record := make([]string, len(header))
		for i, col := range header {
			record[i] = renderCell(row[col])
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// entryAsMap round-trips the entry through its JSON encoding so that
// omitempty fields drop out the same way they do in JSON export.
func entryAsMap(e auditlog.Entry) (map[string]any, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	var row map[string]any
	if err := json.Unmarshal(data, &row); err != nil {
		return nil, err
	}
	return row, nil
}

// renderCell stringifies one cell: scalars verbatim, composites as JSON.
func renderCell(v any) string {
	switch cell := v.(type) {
	case nil:
		return ""
	case string:
		return cell
	case float64:
		// json.Unmarshal produces float64 for all numbers; keep
		// integral values free of a trailing ".0".
		if cell == float64(int64(cell)) {
			return fmt.Sprintf("%d", int64(cell))
		}
		return fmt.Sprintf("%g", cell)
	case bool:
		return fmt.Sprintf("%t", cell)
	default:
		data, err := json.Marshal(cell)
		if err != nil {
			return fmt.Sprintf("%v", cell)
		}
		return string(data)
	}
}
