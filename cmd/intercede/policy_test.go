package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempPolicy(t *testing.T, dir, name, doc string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	return path
}

func Test_runPolicyValidate(t *testing.T) {
	dir := t.TempDir()
	good := writeTempPolicy(t, dir, "good.yaml", "version: 1.0.0\nallow:\n  read: [\"*\"]\n")
	bad := writeTempPolicy(t, dir, "bad.yaml", "allow: {}\n")

	assert.NoError(t, runPolicyValidate(context.Background(), []string{good}))

	err := runPolicyValidate(context.Background(), []string{good, bad})
	assert.ErrorContains(t, err, "1 of 2")
}

func Test_runPolicyInit_NonInteractive(t *testing.T) {
	out := filepath.Join(t.TempDir(), "policy.yaml")
	opts := policyInitOptions{
		Output:        out,
		Read:          "balance, owner",
		Write:         "owner",
		Invoke:        "deposit",
		Construct:     true,
		NoInteractive: true,
	}
	require.NoError(t, runPolicyInit(opts))

	// The generated file round-trips through validation.
	require.NoError(t, runPolicyValidate(context.Background(), []string{out}))
}

func Test_splitKeys(t *testing.T) {
	assert.Nil(t, splitKeys(""))
	assert.Equal(t, []string{"a", "b"}, splitKeys("a, b"))
	assert.Equal(t, []string{"*"}, splitKeys("*"))
	assert.Equal(t, []string{"a"}, splitKeys("a,,  "))
}
