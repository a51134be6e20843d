package repository

import (
	"context"
	"math/rand"
	"sync"

	"github.com/okian/torque/pkg/metrics"
)

// Treap-based, in-memory Store implementation.
//
// Ordering: trust DESC, then vehicleID ASC (deterministic). The BST
// comparator treats "less" as "ranks earlier", so an in-order traversal
// yields the fleet from most to least trustworthy. The treap is
// size-augmented, making Rank an O(log n) order query.

// node is one treap node.
type node struct {
	id    string
	trust int
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less reports whether (aTrust, aID) ranks earlier than (bTrust, bID).
func less(aTrust int, aID string, bTrust int, bID string) bool {
	if aTrust != bTrust {
		return aTrust > bTrust // higher trust ranks earlier
	}
	return aID < bID // tie-breaker by id asc
}

func merge(a, b *node) *node {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case a.prio >= b.prio:
		a.right = merge(a.right, b)
		fix(a)
		return a
	default:
		b.left = merge(a, b.left)
		fix(b)
		return b
	}
}

// split partitions t into nodes ranking earlier than (trust, id) and the
// rest.
func split(t *node, trust int, id string) (left, right *node) {
	if t == nil {
		return nil, nil
	}
	if less(t.trust, t.id, trust, id) {
		l, r := split(t.right, trust, id)
		t.right = l
		fix(t)
		return t, r
	}
	l, r := split(t.left, trust, id)
	t.left = r
	fix(t)
	return l, t
}

// TreapStore implements Store with a mutex-guarded treap plus an id map
// for O(1) current-value lookups.
type TreapStore struct {
	mu   sync.RWMutex
	root *node
	byID map[string]int // vehicleID -> current trust
	rng  *rand.Rand
}

// NewTreapStore creates an empty fleet ranking store.
func NewTreapStore(_ context.Context) *TreapStore {
	return &TreapStore{
		byID: make(map[string]int),
		rng:  rand.New(rand.NewSource(rand.Int63())), //nolint:gosec // treap balance, not security
	}
}

// Update sets the current trust index for a vehicle.
func (s *TreapStore) Update(_ context.Context, vehicleID string, trust int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.byID[vehicleID]; ok {
		if old == trust {
			return nil
		}
		s.root = remove(s.root, old, vehicleID)
	}
	s.byID[vehicleID] = trust
	s.root = s.insert(s.root, &node{id: vehicleID, trust: trust, prio: s.rng.Uint64(), size: 1})
	metrics.UpdateFleetSize(len(s.byID))
	return nil
}

func (s *TreapStore) insert(t, n *node) *node {
	l, r := split(t, n.trust, n.id)
	return merge(merge(l, n), r)
}

func remove(t *node, trust int, id string) *node {
	if t == nil {
		return nil
	}
	if t.trust == trust && t.id == id {
		return merge(t.left, t.right)
	}
	if less(trust, id, t.trust, t.id) {
		t.left = remove(t.left, trust, id)
	} else {
		t.right = remove(t.right, trust, id)
	}
	fix(t)
	return t
}

// Rank returns the current rank and trust index for a vehicle.
func (s *TreapStore) Rank(_ context.Context, vehicleID string) (Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	trust, ok := s.byID[vehicleID]
	if !ok {
		return Entry{}, ErrNotFound
	}
	// Count nodes ranking strictly earlier.
	rank := 1
	t := s.root
	for t != nil {
		if less(t.trust, t.id, trust, vehicleID) {
			rank += nsize(t.left) + 1
			t = t.right
		} else {
			t = t.left
		}
	}
	return Entry{Rank: rank, VehicleID: vehicleID, Trust: trust}, nil
}

// TopN returns up to n entries ordered by trust desc.
func (s *TreapStore) TopN(_ context.Context, n int) ([]Entry, error) {
	if n <= 0 {
		return nil, ErrInvalidLimit
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry, 0, n)
	var walk func(t *node)
	walk = func(t *node) {
		if t == nil || len(out) >= n {
			return
		}
		walk(t.left)
		if len(out) < n {
			out = append(out, Entry{Rank: len(out) + 1, VehicleID: t.id, Trust: t.trust})
			walk(t.right)
		}
	}
	walk(s.root)
	return out, nil
}

// Count returns the number of vehicles tracked.
func (s *TreapStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}
