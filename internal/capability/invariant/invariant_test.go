package invariant

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/intercede-dev/intercede/internal/application/errors"
	"github.com/intercede-dev/intercede/internal/kernel"
)

func newGuardedMap(t *testing.T, c *Capability) *kernel.Handle {
	t.Helper()
	k, err := kernel.New(map[string]any{"balance": 100, "owner": "alice"})
	require.NoError(t, err)
	c.Attach(k)
	return k.Handle()
}

func Test_Capability_Rule_BlocksViolation(t *testing.T) {
	c := New().Rule("non-negative balance", func(tr Transition) error {
		if v, ok := tr.Value.(int); ok && v < 0 {
			return errors.New("balance must not go negative")
		}
		return nil
	}, "balance")
	h := newGuardedMap(t, c)

	err := c.Call(func() error {
		ok, err := h.Set("balance", 50)
		require.NoError(t, err)
		assert.True(t, ok)

		_, err = h.Set("balance", -1)
		var violation *apperrors.InvariantError
		require.ErrorAs(t, err, &violation)
		assert.Equal(t, "non-negative balance", violation.Invariant)
		assert.Equal(t, "balance", violation.Key)
		return nil
	})
	require.NoError(t, err)

	// The violating write never reached the target.
	assert.Equal(t, 50, h.Unwrap().(map[string]any)["balance"])
}

func Test_Capability_Rule_KeyScoped(t *testing.T) {
	c := New().Rule("balance only", func(tr Transition) error {
		return errors.New("always violated")
	}, "balance")
	h := newGuardedMap(t, c)

	err := c.Call(func() error {
		// Other keys are outside the rule's scope.
		ok, err := h.Set("owner", "bob")
		require.NoError(t, err)
		assert.True(t, ok)
		return nil
	})
	require.NoError(t, err)
}

func Test_Capability_RuleExpr(t *testing.T) {
	c := New()
	require.NoError(t, c.RuleExpr("non-negative balance", "value >= 0", "balance"))
	h := newGuardedMap(t, c)

	err := c.Call(func() error {
		ok, err := h.Set("balance", 10)
		require.NoError(t, err)
		assert.True(t, ok)

		_, err = h.Set("balance", -5)
		var violation *apperrors.InvariantError
		assert.ErrorAs(t, err, &violation)
		return nil
	})
	require.NoError(t, err)
}

func Test_Capability_RuleExpr_Invalid(t *testing.T) {
	err := New().RuleExpr("broken", "value >>> 1")
	var cfg *apperrors.ConfigurationError
	assert.ErrorAs(t, err, &cfg)
}

func Test_Capability_DeleteGuard(t *testing.T) {
	c := New()
	require.NoError(t, c.RuleExpr("owner is permanent", "!delete", "owner"))
	h := newGuardedMap(t, c)

	err := c.Call(func() error {
		_, err := h.Delete("owner")
		var violation *apperrors.InvariantError
		assert.ErrorAs(t, err, &violation)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", h.Unwrap().(map[string]any)["owner"])
}

func Test_Capability_CurrentValueInEnvironment(t *testing.T) {
	c := New()
	// A balance may only grow.
	require.NoError(t, c.RuleExpr("monotonic balance", "value >= current", "balance"))
	h := newGuardedMap(t, c)

	err := c.Call(func() error {
		ok, err := h.Set("balance", 150)
		require.NoError(t, err)
		assert.True(t, ok)

		_, err = h.Set("balance", 120)
		var violation *apperrors.InvariantError
		assert.ErrorAs(t, err, &violation)
		return nil
	})
	require.NoError(t, err)
}

func Test_Capability_InactiveDefers(t *testing.T) {
	c := New()
	require.NoError(t, c.RuleExpr("never", "false"))
	h := newGuardedMap(t, c)

	ok, err := h.Set("balance", -100)
	require.NoError(t, err)
	assert.True(t, ok)
}

func Test_Capability_FirstViolationWins(t *testing.T) {
	c := New().
		Rule("first", func(tr Transition) error { return errors.New("first reason") }).
		Rule("second", func(tr Transition) error { return errors.New("second reason") })
	h := newGuardedMap(t, c)

	err := c.Call(func() error {
		_, err := h.Set("balance", 0)
		var violation *apperrors.InvariantError
		require.ErrorAs(t, err, &violation)
		assert.Equal(t, "first", violation.Invariant)
		return nil
	})
	require.NoError(t, err)
}
