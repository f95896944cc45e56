package kernel

import (
	"fmt"

	apperrors "github.com/intercede-dev/intercede/internal/application/errors"
	"github.com/intercede-dev/intercede/internal/domain/operation"
)

// dispatchValue runs a value-producing chain (read, describe, invoke,
// construct). The first Value decision wins, a Throw propagates
// immediately, a Deny is folded into the uniform deny-by-exception
// channel since these kinds have no boolean outcome to carry it.
func (k *Kernel) dispatchValue(op *operation.Operation, fallback func() (any, error)) (any, error) {
	for _, h := range k.chains[op.Kind].snapshot() {
		d := h(op)
		switch d.Kind() {
		case operation.DecisionThrow:
			return nil, d.Err()
		case operation.DecisionValue:
			return d.Value(), nil
		case operation.DecisionDeny:
			return nil, apperrors.NewDeniedError(string(op.Kind), op.Key, d.Reason())
		case operation.DecisionUndecided, operation.DecisionAllow:
			continue
		default:
			return nil, invalidDecision(op, d)
		}
	}
	return fallback()
}

// dispatchBool runs a boolean-gated chain (write, has, delete). A Deny
// stops the chain without executing the operation; Allow and Undecided
// both continue. The strict option turns the silent false into a typed
// denial error, otherwise the caller's own error policy decides.
func (k *Kernel) dispatchBool(op *operation.Operation, fallback func() (bool, error)) (bool, error) {
	for _, h := range k.chains[op.Kind].snapshot() {
		d := h(op)
		switch d.Kind() {
		case operation.DecisionThrow:
			return false, d.Err()
		case operation.DecisionDeny:
			if k.strict {
				return false, apperrors.NewDeniedError(string(op.Kind), op.Key, d.Reason())
			}
			return false, nil
		case operation.DecisionAllow, operation.DecisionUndecided:
			continue
		default:
			return false, invalidDecision(op, d)
		}
	}
	return fallback()
}

// dispatchEnumerate runs the enumerate chain. Handlers may short-circuit
// with a full key set (Value) or contribute extra keys; the final
// visible set is the default keys followed by each handler's additions
// in registration order, duplicates dropped.
func (k *Kernel) dispatchEnumerate(op *operation.Operation) ([]string, error) {
	var contributed []string
	for _, h := range k.chains[operation.KindEnumerate].snapshot() {
		d := h(op)
		switch d.Kind() {
		case operation.DecisionThrow:
			return nil, d.Err()
		case operation.DecisionValue:
			keys, err := coerceKeys(d.Value())
			if err != nil {
				return nil, err
			}
			return keys, nil
		case operation.DecisionDeny:
			return nil, apperrors.NewDeniedError(string(op.Kind), op.Key, d.Reason())
		case operation.DecisionContribute:
			contributed = append(contributed, d.Keys()...)
		case operation.DecisionUndecided, operation.DecisionAllow:
			continue
		default:
			return nil, invalidDecision(op, d)
		}
	}

	defaults, err := defaultKeys(k.target)
	if err != nil {
		return nil, err
	}
	return dedupeKeys(defaults, contributed), nil
}

// dedupeKeys unions defaults and contributions, defaults first, keeping
// first occurrence order.
func dedupeKeys(defaults, contributed []string) []string {
	seen := make(map[string]struct{}, len(defaults)+len(contributed))
	out := make([]string, 0, len(defaults)+len(contributed))
	for _, key := range defaults {
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	for _, key := range contributed {
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	return out
}

func coerceKeys(v any) ([]string, error) {
	switch keys := v.(type) {
	case []string:
		return keys, nil
	case []any:
		out := make([]string, 0, len(keys))
		for _, k := range keys {
			s, ok := k.(string)
			if !ok {
				return nil, apperrors.NewConfigurationError("dispatch", fmt.Sprintf("enumerate value contains non-string key %T", k), nil)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, apperrors.NewConfigurationError("dispatch", fmt.Sprintf("enumerate value must be a key slice, got %T", v), nil)
	}
}

func invalidDecision(op *operation.Operation, d operation.Decision) error {
	return apperrors.NewConfigurationError(
		"dispatch",
		fmt.Sprintf("decision %s is not valid for %s operations", d.Kind(), op.Kind),
		nil,
	)
}
