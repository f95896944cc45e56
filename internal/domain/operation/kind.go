// Package operation defines the domain types flowing through the
// interception kernel: the Operation describing one mediated action,
// the Kind taxonomy, and the tagged Decision handlers return.
package operation

import (
	"fmt"

	"github.com/intercede-dev/intercede/internal/domain/values"
)

// Kind identifies which mediated action an Operation describes.
type Kind string

const (
	// KindRead is a property read.
	KindRead Kind = "read"
	// KindWrite is a property write.
	KindWrite Kind = "write"
	// KindHas is a property existence check.
	KindHas Kind = "has"
	// KindDelete is a property deletion.
	KindDelete Kind = "delete"
	// KindEnumerate is a key enumeration.
	KindEnumerate Kind = "enumerate"
	// KindDescribe is a property descriptor lookup.
	KindDescribe Kind = "describe"
	// KindInvoke is a method invocation.
	KindInvoke Kind = "invoke"
	// KindConstruct is a constructor invocation.
	KindConstruct Kind = "construct"
)

// Kinds lists every operation kind in dispatch-table order.
func Kinds() []Kind {
	return []Kind{
		KindRead, KindWrite, KindHas, KindDelete,
		KindEnumerate, KindDescribe, KindInvoke, KindConstruct,
	}
}

// Validate returns an error if the kind value is invalid.
func (k Kind) Validate() error {
	switch k {
	case KindRead, KindWrite, KindHas, KindDelete,
		KindEnumerate, KindDescribe, KindInvoke, KindConstruct:
		return nil
	default:
		return fmt.Errorf("invalid operation kind: %s", k)
	}
}

// ValueProducing returns true for kinds whose chain short-circuits on the
// first Value decision (read, enumerate, describe, invoke, construct).
func (k Kind) ValueProducing() bool {
	switch k {
	case KindRead, KindEnumerate, KindDescribe, KindInvoke, KindConstruct:
		return true
	default:
		return false
	}
}

// BooleanGated returns true for kinds whose chain composes Allow/Deny
// votes into a boolean outcome (write, has, delete).
func (k Kind) BooleanGated() bool {
	switch k {
	case KindWrite, KindHas, KindDelete:
		return true
	default:
		return false
	}
}

// PropertyScoped returns true for kinds that carry a property key.
func (k Kind) PropertyScoped() bool {
	switch k {
	case KindEnumerate, KindConstruct:
		return false
	default:
		return true
	}
}

// Intent maps this kind onto the coarser audit intent taxonomy.
// Every observational kind collapses to IntentRead.
func (k Kind) Intent() values.Intent {
	switch k {
	case KindWrite:
		return values.IntentWrite
	case KindDelete:
		return values.IntentDelete
	case KindInvoke:
		return values.IntentCall
	case KindConstruct:
		return values.IntentConstruct
	default:
		return values.IntentRead
	}
}

// String returns the string representation.
func (k Kind) String() string {
	return string(k)
}
