package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Load_MissingFileUsesDefaults(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "debug", s.Audit.Level)
	assert.Equal(t, "text", s.Audit.Format)
	assert.True(t, s.Audit.TimestampsEnabled())
	assert.False(t, s.Audit.StackTraces)
}

func Test_Load_File(t *testing.T) {
	doc := `audit:
  level: info
  format: json
  timestamps: false
  stack_traces: true
redaction:
  patterns: ["SEC-[0-9]+"]
  keys: [password]
  hash_mode:
    enabled: true
    salt: pepper
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	s, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "info", s.Audit.Level)
	assert.Equal(t, "json", s.Audit.Format)
	assert.False(t, s.Audit.TimestampsEnabled())
	assert.True(t, s.Audit.StackTraces)
	assert.Equal(t, []string{"SEC-[0-9]+"}, s.Redaction.Patterns)
	assert.Equal(t, []string{"password"}, s.Redaction.Keys)
	assert.True(t, s.Redaction.HashMode.Enabled)
	assert.Equal(t, "pepper", s.Redaction.HashMode.Salt)
}

func Test_Load_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("audit:\n  format: csv\n"), 0o644))

	s, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "csv", s.Audit.Format)
	assert.Equal(t, "debug", s.Audit.Level)
	assert.True(t, s.Audit.TimestampsEnabled())
}

func Test_Load_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{{{"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
