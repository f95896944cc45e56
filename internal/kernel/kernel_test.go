package kernel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/intercede-dev/intercede/internal/application/errors"
	"github.com/intercede-dev/intercede/internal/domain/operation"
)

type account struct {
	Name    string
	Balance int
}

func (a *account) Greet(who string) string {
	return "hello " + who + ", I am " + a.Name
}

func (a *account) Deposit(amount int) (int, error) {
	a.Balance += amount
	return a.Balance, nil
}

func Test_New_SupportedTargets(t *testing.T) {
	tests := []struct {
		name    string
		target  any
		wantErr bool
	}{
		{"map", map[string]any{"name": "Alice"}, false},
		{"struct pointer", &account{Name: "Alice"}, false},
		{"nil", nil, true},
		{"plain struct", account{}, true},
		{"int", 42, true},
		{"slice", []string{"a"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k, err := New(tt.target)
			if tt.wantErr {
				require.Error(t, err)

				var cfgErr *apperrors.ConfigurationError
				assert.ErrorAs(t, err, &cfgErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.target, k.Target())
			assert.NotNil(t, k.Handle())
		})
	}
}

func Test_New_ConstructorMustBeFunc(t *testing.T) {
	_, err := New(map[string]any{}, WithConstructor("not a func"))
	require.Error(t, err)

	_, err = New(map[string]any{}, WithConstructor(func(name string) *account {
		return &account{Name: name}
	}))
	assert.NoError(t, err)
}

func Test_Kernel_On_UnknownKind(t *testing.T) {
	k := MustNew(map[string]any{})

	err := k.On(operation.Kind("bogus"), func(*operation.Operation) operation.Decision {
		return operation.Undecided()
	})
	assert.Error(t, err)
}

func Test_Chain_RegistrationAccumulates(t *testing.T) {
	k := MustNew(map[string]any{})

	undecided := func(*operation.Operation) operation.Decision { return operation.Undecided() }
	k.OnRead(undecided)
	k.OnRead(undecided)
	k.OnRead(nil) // ignored

	c, err := k.Chain(operation.KindRead)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())
}

func Test_Handle_Unwrap(t *testing.T) {
	target := map[string]any{"name": "Alice"}
	k := MustNew(target)

	unwrapped, ok := k.Handle().Unwrap().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Alice", unwrapped["name"])
	assert.Same(t, k, k.Handle().Kernel())
}
