// Package tenancy implements per-tenant views over one shared target.
// A view is a structurally separate mediation layer: it owns its own
// kernel, hides keys, projects virtual properties and transforms
// values crossing the view boundary. Views never mutate the target's
// shape, so any number of them can coexist over the same object.
package tenancy

import (
	"sort"

	"github.com/intercede-dev/intercede/internal/domain/operation"
	"github.com/intercede-dev/intercede/internal/kernel"
)

// Transform rewrites a value crossing the view boundary. Read
// transforms apply on the way out, write transforms on the way in.
type Transform func(key string, value any) any

// ViewConfig describes one tenant's view of the target.
type ViewConfig struct {
	// Tenant names the view, for diagnostics only.
	Tenant string
	// Hidden keys behave as if they did not exist: reads yield nil,
	// existence checks fail and enumeration omits them. Writes and
	// deletes to hidden keys are denied.
	Hidden []string
	// Virtual properties exist only in this view. They shadow real
	// keys of the same name, are read-only, and appear in enumeration.
	Virtual map[string]any
	// ReadTransform rewrites values read through the view.
	ReadTransform Transform
	// WriteTransform rewrites values before they reach the target.
	WriteTransform Transform
}

// View is one tenant's mediated surface over the shared target.
type View struct {
	tenant string
	handle *kernel.Handle

	hidden  map[string]bool
	virtual map[string]any
	read    Transform
	write   Transform
}

// NewView builds a view of target from cfg. Each call creates an
// independent kernel, so views do not observe each other's handlers.
func NewView(target any, cfg ViewConfig) (*View, error) {
	k, err := kernel.New(target)
	if err != nil {
		return nil, err
	}

	v := &View{
		tenant:  cfg.Tenant,
		hidden:  make(map[string]bool, len(cfg.Hidden)),
		virtual: cfg.Virtual,
		read:    cfg.ReadTransform,
		write:   cfg.WriteTransform,
	}
	for _, key := range cfg.Hidden {
		v.hidden[key] = true
	}

	k.OnRead(v.onRead)
	k.OnWrite(v.onWrite)
	k.OnHas(v.onHas)
	k.OnDelete(v.onDelete)
	k.OnEnumerate(v.onEnumerate)
	v.handle = k.Handle()
	return v, nil
}

// Tenant returns the view's tenant identifier.
func (v *View) Tenant() string {
	return v.tenant
}

// Kernel returns the view's own kernel, for capabilities that attach
// per view.
func (v *View) Kernel() *kernel.Kernel {
	return v.handle.Kernel()
}

// Get reads a property through the view.
func (v *View) Get(key string) (any, error) {
	return v.handle.Get(key)
}

// Set writes a property through the view. The write transform applies
// before the view's kernel sees the value.
func (v *View) Set(key string, value any) (bool, error) {
	if v.write != nil && !v.hidden[key] {
		value = v.write(key, value)
	}
	return v.handle.Set(key, value)
}

// Has checks property existence through the view.
func (v *View) Has(key string) (bool, error) {
	return v.handle.Has(key)
}

// Delete removes a property through the view.
func (v *View) Delete(key string) (bool, error) {
	return v.handle.Delete(key)
}

// Keys enumerates the keys visible in this view: the target's keys
// minus the hidden set, plus the view's virtual keys.
func (v *View) Keys() ([]string, error) {
	return v.handle.Keys()
}

// Invoke calls a method through the view.
func (v *View) Invoke(name string, args ...any) (any, error) {
	return v.handle.Invoke(name, args...)
}

func (v *View) onRead(op *operation.Operation) operation.Decision {
	if v.hidden[op.Key] {
		return operation.WithValue(nil)
	}
	if val, ok := v.virtual[op.Key]; ok {
		return operation.WithValue(val)
	}
	if v.read != nil {
		raw, err := kernel.TargetRead(op.Target, op.Key)
		if err != nil {
			return operation.Throw(err)
		}
		return operation.WithValue(v.read(op.Key, raw))
	}
	return operation.Undecided()
}

func (v *View) onWrite(op *operation.Operation) operation.Decision {
	if v.hidden[op.Key] {
		return operation.Deny("key is not part of this view")
	}
	if _, ok := v.virtual[op.Key]; ok {
		return operation.Deny("virtual properties are read-only")
	}
	return operation.Undecided()
}

func (v *View) onHas(op *operation.Operation) operation.Decision {
	if v.hidden[op.Key] {
		return operation.Deny("key is not part of this view")
	}
	return operation.Undecided()
}

func (v *View) onDelete(op *operation.Operation) operation.Decision {
	if v.hidden[op.Key] || v.hasVirtual(op.Key) {
		return operation.Deny("key is not part of this view")
	}
	return operation.Undecided()
}

func (v *View) onEnumerate(op *operation.Operation) operation.Decision {
	base, err := kernel.TargetKeys(op.Target)
	if err != nil {
		return operation.Throw(err)
	}

	keys := make([]string, 0, len(base)+len(v.virtual))
	for _, k := range base {
		if !v.hidden[k] {
			keys = append(keys, k)
		}
	}
	virtuals := make([]string, 0, len(v.virtual))
	for k := range v.virtual {
		if !v.hidden[k] {
			virtuals = append(virtuals, k)
		}
	}
	sort.Strings(virtuals)
	for _, k := range virtuals {
		if !contains(keys, k) {
			keys = append(keys, k)
		}
	}
	return operation.WithValue(keys)
}

func (v *View) hasVirtual(key string) bool {
	_, ok := v.virtual[key]
	return ok
}

func contains(keys []string, key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}
