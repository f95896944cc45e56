package accesscontrol

import (
	"fmt"

	apperrors "github.com/intercede-dev/intercede/internal/application/errors"
	"github.com/intercede-dev/intercede/internal/domain/operation"
	"github.com/intercede-dev/intercede/internal/dynscope"
	"github.com/intercede-dev/intercede/internal/kernel"
)

// Capability enforces a Policy over a mediated target. Like every
// capability it is slot-gated: outside an active Call its handlers
// defer, so unprotected access paths see the target unchanged.
type Capability struct {
	slot   *dynscope.Slot[struct{}]
	policy Policy

	read   map[string]bool
	write  map[string]bool
	invoke map[string]bool
}

// New creates a capability enforcing policy.
func New(policy Policy) (*Capability, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return &Capability{
		slot:   dynscope.NewSlot[struct{}]("access control capability"),
		policy: policy,
		read:   allowSet(policy.Allow.Read),
		write:  allowSet(policy.Allow.Write),
		invoke: allowSet(policy.Allow.Invoke),
	}, nil
}

// FromFile loads a policy file and builds a capability from it.
func FromFile(path string) (*Capability, error) {
	policy, err := LoadPolicy(path)
	if err != nil {
		return nil, err
	}
	return New(policy)
}

func allowSet(keys []string) map[string]bool {
	set := make(map[string]bool, len(keys))
	for _, k := range keys {
		set[k] = true
	}
	return set
}

// Policy returns the enforced policy document.
func (c *Capability) Policy() Policy {
	return c.policy
}

// Attach registers the enforcement handlers on every chain of k.
func (c *Capability) Attach(k *kernel.Kernel) {
	for _, kind := range operation.Kinds() {
		_ = k.On(kind, c.handler(kind))
	}
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

// handler returns the enforcement handler for one operation kind.
// Value-producing kinds raise on denial; write and delete deny
// silently so the kernel reports them as unsuccessful booleans.
func (c *Capability) handler(kind operation.Kind) operation.Handler {
	return func(op *operation.Operation) operation.Decision {
		if !c.slot.Active() {
			return operation.Undecided()
		}

		switch op.Kind {
		case operation.KindRead, operation.KindHas, operation.KindDescribe:
			if !c.allowed(c.read, op.Key) {
				if op.Kind == operation.KindHas {
					return operation.Deny(denyReason(op.Kind, op.Key))
				}
				return operation.Throw(apperrors.NewDeniedError(string(op.Kind), op.Key, denyReason(op.Kind, op.Key)))
			}
		case operation.KindEnumerate:
			// Enumeration reveals only the readable keys; it is never
			// denied outright.
			if c.read[Wildcard] {
				return operation.Undecided()
			}
			return operation.WithValue(c.policy.Allow.Read)
		case operation.KindWrite, operation.KindDelete:
			if !c.allowed(c.write, op.Key) {
				return operation.Deny(denyReason(op.Kind, op.Key))
			}
		case operation.KindInvoke:
			if !c.allowed(c.invoke, op.Key) {
				return operation.Throw(apperrors.NewDeniedError(string(op.Kind), op.Key, denyReason(op.Kind, op.Key)))
			}
		case operation.KindConstruct:
			if !c.policy.Allow.Construct {
				return operation.Throw(apperrors.NewDeniedError(string(op.Kind), op.Key, "construction is not permitted"))
			}
		}
		return operation.Undecided()
	}
}

func (c *Capability) allowed(set map[string]bool, key string) bool {
	return set[Wildcard] || set[key]
}

func denyReason(kind operation.Kind, key string) string {
	return fmt.Sprintf("policy does not permit %s of %q", kind, key)
}
