// Package kernel implements the interception kernel: per-operation
// handler chains over a wrapped target, the composition algorithm that
// folds their decisions into one outcome, and the mediated handle
// through which all operations flow.
//
// Composition contract: handlers run in registration order; the first
// definitive decision (Value, Deny, Throw) wins; a Throw propagates
// immediately and suppresses the default operation; if every handler
// defers, the kernel performs the default reflective operation on the
// target. Earliest-registered therefore has final say for denials, and
// a purely observational handler stays invisible by always deferring.
package kernel

import (
	"fmt"
	"sync"

	apperrors "github.com/intercede-dev/intercede/internal/application/errors"
	"github.com/intercede-dev/intercede/internal/domain/operation"
)

// Chain is the ordered collection of handlers for one operation kind.
// Registration order is preservation order; appends are allowed at any
// time, replacement never is.
type Chain struct {
	mu       sync.Mutex
	handlers []operation.Handler
}

// Register appends a handler to the chain.
func (c *Chain) Register(h operation.Handler) {
	if h == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers = append(c.handlers, h)
}

// Len returns the number of registered handlers.
func (c *Chain) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.handlers)
}

// snapshot returns the handlers registered at call time, so a dispatch
// in flight is unaffected by late registration.
func (c *Chain) snapshot() []operation.Handler {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]operation.Handler, len(c.handlers))
	copy(out, c.handlers)
	return out
}

// Kernel owns one chain per operation kind and the wrapped target. The
// target is referenced, never copied; all default operations act
// directly on it.
type Kernel struct {
	target      any
	constructor any
	strict      bool
	chains      map[operation.Kind]*Chain
	handle      *Handle
}

// Option configures a Kernel at construction time.
type Option func(*Kernel)

// WithStrictDenials makes boolean-gated denials surface as a typed
// *apperrors.DeniedError instead of a silent false outcome.
func WithStrictDenials() Option {
	return func(k *Kernel) { k.strict = true }
}

// WithConstructor supplies the function construct operations fall
// through to when no handler decides them. fn must be a func.
func WithConstructor(fn any) Option {
	return func(k *Kernel) { k.constructor = fn }
}

// New wraps target in a kernel. Supported targets are map[string]any
// and pointers to structs; anything else is a configuration error
// raised here, not deferred to the first operation.
func New(target any, opts ...Option) (*Kernel, error) {
	if err := checkMediable(target); err != nil {
		return nil, err
	}

	k := &Kernel{
		target: target,
		chains: make(map[operation.Kind]*Chain, len(operation.Kinds())),
	}
	for _, kind := range operation.Kinds() {
		k.chains[kind] = &Chain{}
	}
	for _, opt := range opts {
		opt(k)
	}
	if k.constructor != nil {
		if err := checkConstructor(k.constructor); err != nil {
			return nil, err
		}
	}
	k.handle = &Handle{kernel: k}
	return k, nil
}

// MustNew wraps target or panics (for tests only).
func MustNew(target any, opts ...Option) *Kernel {
	k, err := New(target, opts...)
	if err != nil {
		panic(err)
	}
	return k
}

// Target returns the underlying unwrapped target.
func (k *Kernel) Target() any {
	return k.target
}

// Handle returns the mediated handle. It behaves exactly like the
// unmediated target for any operation no handler decides otherwise.
func (k *Kernel) Handle() *Handle {
	return k.handle
}

// Chain returns the chain for the given kind.
func (k *Kernel) Chain(kind operation.Kind) (*Chain, error) {
	c, ok := k.chains[kind]
	if !ok {
		return nil, apperrors.NewConfigurationError("kernel", fmt.Sprintf("unknown operation kind %q", kind), nil)
	}
	return c, nil
}

// On registers a handler for the given operation kind. Handlers
// accumulate, never replace.
func (k *Kernel) On(kind operation.Kind, h operation.Handler) error {
	c, err := k.Chain(kind)
	if err != nil {
		return err
	}
	c.Register(h)
	return nil
}

// OnRead registers a handler for property reads.
func (k *Kernel) OnRead(h operation.Handler) { k.chains[operation.KindRead].Register(h) }

// OnWrite registers a handler for property writes.
func (k *Kernel) OnWrite(h operation.Handler) { k.chains[operation.KindWrite].Register(h) }

// OnHas registers a handler for existence checks.
func (k *Kernel) OnHas(h operation.Handler) { k.chains[operation.KindHas].Register(h) }

// OnDelete registers a handler for property deletions.
func (k *Kernel) OnDelete(h operation.Handler) { k.chains[operation.KindDelete].Register(h) }

// OnEnumerate registers a handler for key enumeration.
func (k *Kernel) OnEnumerate(h operation.Handler) { k.chains[operation.KindEnumerate].Register(h) }

// OnDescribe registers a handler for descriptor lookups.
func (k *Kernel) OnDescribe(h operation.Handler) { k.chains[operation.KindDescribe].Register(h) }

// OnInvoke registers a handler for method invocations.
func (k *Kernel) OnInvoke(h operation.Handler) { k.chains[operation.KindInvoke].Register(h) }

// OnConstruct registers a handler for constructor invocations.
func (k *Kernel) OnConstruct(h operation.Handler) { k.chains[operation.KindConstruct].Register(h) }

// newOperation builds the immutable operation value dispatch hands to
// every handler in the chain.
func (k *Kernel) newOperation(kind operation.Kind, key string, value any, args []any) *operation.Operation {
	return &operation.Operation{
		Kind:     kind,
		Key:      key,
		Value:    value,
		Args:     args,
		Target:   k.target,
		Receiver: k.handle,
	}
}
