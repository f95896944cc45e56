package kernel

import (
	"github.com/intercede-dev/intercede/internal/domain/operation"
)

// Handle is the mediated object callers interact with in place of the
// raw target. Every operation on it flows through the kernel's chains.
type Handle struct {
	kernel *Kernel
}

// Kernel returns the owning kernel, for capabilities that need to
// register handlers through a handle they were given.
func (h *Handle) Kernel() *Kernel {
	return h.kernel
}

// Unwrap returns the raw target. Operations on it bypass mediation.
func (h *Handle) Unwrap() any {
	return h.kernel.target
}

// Get reads a property through the read chain.
func (h *Handle) Get(key string) (any, error) {
	op := h.kernel.newOperation(operation.KindRead, key, nil, nil)
	return h.kernel.dispatchValue(op, func() (any, error) {
		return defaultRead(h.kernel.target, key)
	})
}

// Set writes a property through the write chain. The boolean reports
// whether the write took effect; a denial is false without error unless
// the kernel was built with WithStrictDenials.
func (h *Handle) Set(key string, value any) (bool, error) {
	op := h.kernel.newOperation(operation.KindWrite, key, value, nil)
	return h.kernel.dispatchBool(op, func() (bool, error) {
		if err := defaultWrite(h.kernel.target, key, value); err != nil {
			return false, err
		}
		return true, nil
	})
}

// Has checks property existence through the has chain.
func (h *Handle) Has(key string) (bool, error) {
	op := h.kernel.newOperation(operation.KindHas, key, nil, nil)
	return h.kernel.dispatchBool(op, func() (bool, error) {
		return defaultHas(h.kernel.target, key)
	})
}

// Delete removes a property through the delete chain. Same denial
// semantics as Set.
func (h *Handle) Delete(key string) (bool, error) {
	op := h.kernel.newOperation(operation.KindDelete, key, nil, nil)
	return h.kernel.dispatchBool(op, func() (bool, error) {
		return defaultDelete(h.kernel.target, key)
	})
}

// Keys enumerates visible keys through the enumerate chain: the default
// key set plus every handler's contributions, deduplicated.
func (h *Handle) Keys() ([]string, error) {
	op := h.kernel.newOperation(operation.KindEnumerate, "", nil, nil)
	return h.kernel.dispatchEnumerate(op)
}

// Describe looks up a property descriptor through the describe chain.
func (h *Handle) Describe(key string) (*Descriptor, error) {
	op := h.kernel.newOperation(operation.KindDescribe, key, nil, nil)
	v, err := h.kernel.dispatchValue(op, func() (any, error) {
		return defaultDescribe(h.kernel.target, key)
	})
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	if d, ok := v.(*Descriptor); ok {
		return d, nil
	}
	// A handler substituted a plain value; present it as a synthetic
	// descriptor rather than failing the lookup.
	return &Descriptor{Key: key, Exists: true, Writable: false, Source: "handler"}, nil
}

// Invoke calls a method through the invoke chain.
func (h *Handle) Invoke(name string, args ...any) (any, error) {
	op := h.kernel.newOperation(operation.KindInvoke, name, nil, args)
	return h.kernel.dispatchValue(op, func() (any, error) {
		return defaultInvoke(h.kernel.target, name, args)
	})
}

// Construct runs the construct chain, falling through to the configured
// constructor function.
func (h *Handle) Construct(args ...any) (any, error) {
	op := h.kernel.newOperation(operation.KindConstruct, "", nil, args)
	return h.kernel.dispatchValue(op, func() (any, error) {
		return defaultConstruct(h.kernel.constructor, args)
	})
}
