package operation

// Operation describes one mediated action against a wrapped target.
//
// An Operation is immutable once dispatched: handlers read it and express
// transformations through the Decision they return, never by editing the
// Operation in place. The kernel reuses none of the slices it hands out.
type Operation struct {
	// Kind is the action being mediated.
	Kind Kind

	// Key is the property name, present for property-scoped kinds and for
	// invoke (the method name).
	Key string

	// Value is the incoming value for write operations.
	Value any

	// Args holds the argument list for invoke and construct operations.
	Args []any

	// Target is the underlying unwrapped object the kernel mediates.
	Target any

	// Receiver is the mediated handle through which the operation arrived.
	// Handlers that re-enter the kernel (e.g. the replayer) go through it.
	Receiver any
}

// Handler decides the outcome of operations of one kind. A handler that
// only observes returns Undecided and relies on side effects.
type Handler func(op *Operation) Decision
