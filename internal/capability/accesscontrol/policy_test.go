package accesscontrol

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validPolicyYAML = `version: 1.0.0
allow:
  read: [balance, owner]
  write: [owner]
  invoke: [deposit]
  construct: false
`

func Test_ParsePolicy_Valid(t *testing.T) {
	p, err := ParsePolicy([]byte(validPolicyYAML))
	require.NoError(t, err)

	assert.Equal(t, "1.0.0", p.Version)
	assert.Equal(t, []string{"balance", "owner"}, p.Allow.Read)
	assert.Equal(t, []string{"owner"}, p.Allow.Write)
	assert.Equal(t, []string{"deposit"}, p.Allow.Invoke)
	assert.False(t, p.Allow.Construct)
}

func Test_ParsePolicy_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "not yaml", doc: "{{{"},
		{name: "missing version", doc: "allow:\n  read: [a]\n"},
		{name: "missing allow", doc: "version: 1.0.0\n"},
		{name: "bad version format", doc: "version: one\nallow:\n  read: [a]\n"},
		{name: "unknown top-level field", doc: "version: 1.0.0\nallow: {}\nextra: true\n"},
		{name: "unknown allow field", doc: "version: 1.0.0\nallow:\n  execute: [a]\n"},
		{name: "empty key in set", doc: "version: 1.0.0\nallow:\n  read: [\"\"]\n"},
		{name: "non-string key", doc: "version: 1.0.0\nallow:\n  read: [42]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePolicy([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func Test_ParsePolicy_RequiresConstraint(t *testing.T) {
	// Engine version is "dev" in tests, which satisfies any constraint.
	doc := "version: 1.0.0\nrequires: \">= 0.1.0\"\nallow:\n  read: [\"*\"]\n"
	_, err := ParsePolicy([]byte(doc))
	assert.NoError(t, err)

	bad := "version: 1.0.0\nrequires: \"not-a-constraint ><\"\nallow: {}\n"
	_, err = ParsePolicy([]byte(bad))
	assert.Error(t, err)
}

func Test_LoadPolicy(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validPolicyYAML), 0o644))

	p, err := LoadPolicy(path)
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", p.Version)

	_, err = LoadPolicy(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
