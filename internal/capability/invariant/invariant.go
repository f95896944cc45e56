// Package invariant implements the invariant capability: write and
// delete guards that reject state transitions violating a named rule.
// Violations surface as InvariantError, raised before the target is
// touched.
package invariant

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	apperrors "github.com/intercede-dev/intercede/internal/application/errors"
	"github.com/intercede-dev/intercede/internal/domain/operation"
	"github.com/intercede-dev/intercede/internal/dynscope"
	"github.com/intercede-dev/intercede/internal/kernel"
)

// Transition is the environment a rule is evaluated against: the key
// being written, the proposed value and the current value (nil for
// deletes and for keys that do not exist yet).
type Transition struct {
	Key     string `expr:"key"`
	Value   any    `expr:"value"`
	Current any    `expr:"current"`
	Delete  bool   `expr:"delete"`
}

// CheckFunc validates a transition. A non-nil error is the violation
// reason.
type CheckFunc func(t Transition) error

// Rule is a named invariant over a set of keys. An empty key set
// applies the rule to every key.
type Rule struct {
	Name  string
	Keys  []string
	Check CheckFunc
}

func (r Rule) appliesTo(key string) bool {
	if len(r.Keys) == 0 {
		return true
	}
	for _, k := range r.Keys {
		if k == key {
			return true
		}
	}
	return false
}

// Capability holds an ordered rule set and enforces it on write and
// delete operations while active.
type Capability struct {
	slot  *dynscope.Slot[struct{}]
	rules []Rule
}

// New creates an empty invariant capability.
func New() *Capability {
	return &Capability{
		slot: dynscope.NewSlot[struct{}]("invariant capability"),
	}
}

// Rule adds a predicate rule. Rules are checked in the order added;
// the first violation aborts the operation.
func (c *Capability) Rule(name string, check CheckFunc, keys ...string) *Capability {
	c.rules = append(c.rules, Rule{Name: name, Keys: keys, Check: check})
	return c
}

// RuleExpr adds a rule from a boolean expression over the transition
// environment, e.g. `value >= 0` or `key != "owner" || current == nil`.
// The rule is violated when the expression is false.
func (c *Capability) RuleExpr(name, src string, keys ...string) error {
	program, err := expr.Compile(src, expr.Env(Transition{}), expr.AsBool())
	if err != nil {
		return apperrors.NewConfigurationError("invariant", fmt.Sprintf("invalid rule expression %q", src), err)
	}
	c.rules = append(c.rules, Rule{Name: name, Keys: keys, Check: exprCheck(name, src, program)})
	return nil
}

func exprCheck(name, src string, program *vm.Program) CheckFunc {
	return func(t Transition) error {
		out, err := expr.Run(program, t)
		if err != nil {
			return fmt.Errorf("rule %s: %w", name, err)
		}
		if pass, ok := out.(bool); !ok || !pass {
			return fmt.Errorf("expression %q is false", src)
		}
		return nil
	}
}

// Attach registers the guard on the write and delete chains of k.
func (c *Capability) Attach(k *kernel.Kernel) {
	k.OnWrite(c.guard(false))
	k.OnDelete(c.guard(true))
}

// Call activates enforcement for the duration of body.
func (c *Capability) Call(body func() error) error {
	return c.slot.Activate(struct{}{}, body)
}

// CallValue is Call for bodies that produce a value.
func CallValue[R any](c *Capability, body func() (R, error)) (R, error) {
	return dynscope.Call(c.slot, struct{}{}, body)
}

// Active reports whether a Call is currently in progress.
func (c *Capability) Active() bool {
	return c.slot.Active()
}

func (c *Capability) guard(isDelete bool) operation.Handler {
	return func(op *operation.Operation) operation.Decision {
		if !c.slot.Active() {
			return operation.Undecided()
		}

		t := Transition{
			Key:     op.Key,
			Value:   op.Value,
			Current: currentValue(op.Target, op.Key),
			Delete:  isDelete,
		}
		for _, rule := range c.rules {
			if !rule.appliesTo(op.Key) {
				continue
			}
			if err := rule.Check(t); err != nil {
				return operation.Throw(apperrors.NewInvariantError(rule.Name, op.Key, err.Error()))
			}
		}
		return operation.Undecided()
	}
}

// currentValue reads the pre-transition value for map targets. Struct
// targets are left to rules that close over the target themselves.
func currentValue(target any, key string) any {
	if m, ok := target.(map[string]any); ok {
		return m[key]
	}
	return nil
}
