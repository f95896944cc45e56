package output

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intercede-dev/intercede/internal/domain/auditlog"
	"github.com/intercede-dev/intercede/internal/domain/operation"
	"github.com/intercede-dev/intercede/internal/domain/values"
)

func sampleEntries() []auditlog.Entry {
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return []auditlog.Entry{
		{
			Index:         0,
			Timestamp:     &ts,
			OperationKind: operation.KindRead,
			PropertyKey:   "name",
			Intent:        values.IntentRead,
			Status:        values.StatusAllowed,
			Level:         values.LevelDebug,
			Result:        "Alice",
		},
		{
			Index:         1,
			OperationKind: operation.KindWrite,
			PropertyKey:   "balance",
			Intent:        values.IntentWrite,
			Status:        values.StatusAllowed,
			Level:         values.LevelInfo,
			Value:         map[string]any{"amount": 50},
		},
		{
			Index:         2,
			OperationKind: operation.KindInvoke,
			PropertyKey:   "transfer",
			Intent:        values.IntentCall,
			Status:        values.StatusError,
			Level:         values.LevelError,
			Args:          []any{"savings", 100},
			Reason:        "insufficient funds",
			ErrorMessage:  "transfer aborted",
		},
	}
}

func Test_FormatterFactory_Create(t *testing.T) {
	factory := NewFormatterFactory()
	var sb strings.Builder

	for _, format := range values.SupportedFormats() {
		t.Run(string(format), func(t *testing.T) {
			f, err := factory.Create(format, &sb)
			require.NoError(t, err)
			assert.NotNil(t, f)
		})
	}

	_, err := factory.Create(values.ExportFormat("xml"), &sb)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported format")
}

func Test_JSONFormatter_RoundTrip(t *testing.T) {
	var sb strings.Builder
	entries := sampleEntries()

	require.NoError(t, NewJSONFormatter(&sb, true).Format(entries))

	var back []auditlog.Entry
	require.NoError(t, json.Unmarshal([]byte(sb.String()), &back))
	require.Len(t, back, len(entries))
	for i, e := range back {
		assert.Equal(t, entries[i].Index, e.Index)
		assert.Equal(t, entries[i].OperationKind, e.OperationKind)
		assert.Equal(t, entries[i].PropertyKey, e.PropertyKey)
		assert.Equal(t, entries[i].Status, e.Status)
	}
}

func Test_JSONFormatter_EmptyLogIsEmptyArray(t *testing.T) {
	var sb strings.Builder

	require.NoError(t, NewJSONFormatter(&sb, false).Format(nil))
	assert.Equal(t, "[]", strings.TrimSpace(sb.String()))
}

func Test_CSVFormatter_HeaderIsUnionOfKeys(t *testing.T) {
	var sb strings.Builder

	require.NoError(t, NewCSVFormatter(&sb).Format(sampleEntries()))

	lines := strings.Split(strings.TrimSpace(sb.String()), "\n")
	require.Len(t, lines, 4) // header + 3 rows

	header := lines[0]
	assert.Contains(t, header, "index")
	assert.Contains(t, header, "operation_kind")
	assert.Contains(t, header, "timestamp")     // present on entry 0 only
	assert.Contains(t, header, "error_message") // present on entry 2 only
	assert.NotContains(t, header, "stack_trace")
}

func Test_CSVFormatter_ObjectFieldsAreJSONStringified(t *testing.T) {
	var sb strings.Builder

	require.NoError(t, NewCSVFormatter(&sb).Format(sampleEntries()))

	// The write entry's value is a map, so the cell is JSON with its
	// quotes doubled per RFC 4180.
	assert.Contains(t, sb.String(), `"{""amount"":50}"`)
}

func Test_TextFormatter_LineShape(t *testing.T) {
	var sb strings.Builder

	require.NoError(t, NewTextFormatter(&sb).Format(sampleEntries()))

	lines := strings.Split(strings.TrimSpace(sb.String()), "\n")
	require.Len(t, lines, 3)

	assert.Equal(t, `[2024-03-01T12:00:00Z] [0] read "name" -> allowed`, lines[0])
	assert.Equal(t, `[1] write "balance" -> allowed`, lines[1])
	assert.Equal(t, `[2] invoke "transfer" -> error (insufficient funds) ERROR: transfer aborted`, lines[2])
}

func Test_SARIFFormatter_Format(t *testing.T) {
	var sb strings.Builder

	require.NoError(t, NewSARIFFormatter(&sb, "1.2.3").Format(sampleEntries()))

	var report map[string]any
	require.NoError(t, json.Unmarshal([]byte(sb.String()), &report))
	assert.Equal(t, "2.1.0", report["version"])

	runs, ok := report["runs"].([]any)
	require.True(t, ok)
	require.Len(t, runs, 1)

	run := runs[0].(map[string]any)
	results := run["results"].([]any)
	assert.Len(t, results, 3)
}
