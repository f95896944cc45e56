// Package txn implements transactional write tracking over a mediated
// target. While a transaction is active its handlers snapshot the
// pre-image of every written or deleted key; rolling back restores the
// snapshots in reverse order, committing discards them.
package txn

import (
	"fmt"
	"sync"

	apperrors "github.com/intercede-dev/intercede/internal/application/errors"
	"github.com/intercede-dev/intercede/internal/domain/operation"
	"github.com/intercede-dev/intercede/internal/dynscope"
	"github.com/intercede-dev/intercede/internal/kernel"
)

// change is the pre-image of one key, recorded once per key per
// transaction: the first touch wins, later writes to the same key
// restore to the original value.
type change struct {
	key     string
	existed bool
	prev    any
}

// Tx is one open transaction: the ordered pre-images of every key
// touched through the mediated handle while it was active.
type Tx struct {
	mu      sync.Mutex
	target  any
	changes []change
	touched map[string]bool
	done    bool
}

func (tx *Tx) snapshot(target any, key string) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if tx.done || tx.touched[key] {
		return nil
	}

	existed, err := kernel.TargetHas(target, key)
	if err != nil {
		return err
	}
	var prev any
	if existed {
		if prev, err = kernel.TargetRead(target, key); err != nil {
			return err
		}
	}
	tx.target = target
	tx.touched[key] = true
	tx.changes = append(tx.changes, change{key: key, existed: existed, prev: prev})
	return nil
}

// Rollback restores every touched key to its pre-transaction value, in
// reverse touch order. Keys that did not exist before are removed.
func (tx *Tx) Rollback() error {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if tx.done {
		return nil
	}
	tx.done = true

	for i := len(tx.changes) - 1; i >= 0; i-- {
		c := tx.changes[i]
		if c.existed {
			if err := kernel.TargetWrite(tx.target, c.key, c.prev); err != nil {
				return fmt.Errorf("rollback of %q failed: %w", c.key, err)
			}
			continue
		}
		if _, err := kernel.TargetDelete(tx.target, c.key); err != nil {
			return fmt.Errorf("rollback of %q failed: %w", c.key, err)
		}
	}
	tx.changes = nil
	return nil
}

// Commit keeps the written state and discards the pre-images.
func (tx *Tx) Commit() {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	tx.done = true
	tx.changes = nil
}

// Touched returns the keys with recorded pre-images, in touch order.
func (tx *Tx) Touched() []string {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	keys := make([]string, len(tx.changes))
	for i, c := range tx.changes {
		keys[i] = c.key
	}
	return keys
}

// Manager owns the transaction slot and the tracking handlers.
type Manager struct {
	slot *dynscope.Slot[*Tx]
}

// NewManager creates a transaction manager.
func NewManager() *Manager {
	return &Manager{
		slot: dynscope.NewSlot[*Tx]("transaction"),
	}
}

// Attach registers the pre-image tracker on the write and delete
// chains of k. The tracker observes and defers; it never vetoes.
func (m *Manager) Attach(k *kernel.Kernel) {
	k.OnWrite(m.track)
	k.OnDelete(m.track)
}

// Active reports whether a transaction is currently open.
func (m *Manager) Active() bool {
	return m.slot.Active()
}

// Current returns the open transaction, or a scope error when none is
// active.
func (m *Manager) Current() (*Tx, error) {
	return m.slot.Current()
}

// Transact runs body inside a fresh transaction. A nil return commits;
// an error rolls every tracked write back before the error is returned.
// Transactions nest: an inner rollback does not disturb keys only the
// outer transaction touched.
func (m *Manager) Transact(body func(tx *Tx) error) error {
	tx := &Tx{touched: make(map[string]bool)}
	err := m.slot.Activate(tx, func() error {
		return body(tx)
	})
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback also failed: %v)", err, rbErr)
		}
		return err
	}
	tx.Commit()
	return nil
}

func (m *Manager) track(op *operation.Operation) operation.Decision {
	tx, ok := m.slot.CurrentOrZero()
	if !ok {
		return operation.Undecided()
	}
	if err := tx.snapshot(op.Target, op.Key); err != nil {
		return operation.Throw(apperrors.NewConfigurationError("txn", fmt.Sprintf("cannot snapshot %q", op.Key), err))
	}
	return operation.Undecided()
}
