// Package doc provides the transactional document tree: an immutable
// snapshot per commit, copy-on-write drafts, and a dirty-node changeset
// emitted after every transaction for renderers and brokers to consume.
package doc

import (
	"fmt"
	"sync"

	"github.com/starford/ansuz/internal/block"
)

// ChangeKind classifies how a node was touched within a transaction.
type ChangeKind string

const (
	Created ChangeKind = "created"
	Updated ChangeKind = "updated"
	Removed ChangeKind = "removed"
)

// Changeset maps touched node keys to what happened to them.
type Changeset map[string]ChangeKind

// Store holds the latest committed snapshot of one document.
//
// Reads run against the committed snapshot. Writes go through Transact,
// which serializes transactions: each runs to completion, including any
// cascading fix-ups, before the next begins.
type Store struct {
	mu   sync.RWMutex
	root *block.Node
}

// NewStore creates a store around a committed root. The root must satisfy
// the document invariants.
func NewStore(root *block.Node) (*Store, error) {
	if err := block.ValidateRoot(root); err != nil {
		return nil, fmt.Errorf("doc: new store: %w", err)
	}
	return &Store{root: root}, nil
}

// Read runs fn against the latest committed snapshot. The tree passed to
// fn is shared and must not be mutated.
func (s *Store) Read(fn func(root *block.Node)) {
	s.mu.RLock()
	root := s.root
	s.mu.RUnlock()
	fn(root)
}

// Snapshot returns the latest committed root. Callers must treat it as
// immutable.
func (s *Store) Snapshot() *block.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.root
}

// Transact opens a draft, runs fn, and commits a new snapshot built by
// structural sharing: only the path from root to each touched node is
// copied. If fn returns an error nothing is committed.
func (s *Store) Transact(fn func(d *Draft) error) (Changeset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := &Draft{
		root:    s.root,
		cloned:  make(map[string]struct{}),
		changes: make(Changeset),
	}
	err := fn(d)
	d.done = true
	if err != nil {
		return nil, err
	}
	if err := block.ValidateRoot(d.root); err != nil {
		return nil, fmt.Errorf("doc: commit: %w", err)
	}
	s.root = d.root
	return d.changes, nil
}
