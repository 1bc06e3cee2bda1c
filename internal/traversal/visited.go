package traversal

import (
	"context"
	"sync"
)

// VisitedSet records which identities have been claimed by a traversal step.
// Claim must check and insert as one atomic operation: when two branches race
// for the same identity exactly one of them gets true.
type VisitedSet interface {
	Claim(ctx context.Context, identity string) (bool, error)
}

// VisitedSetFactory creates an empty set. The name is unique per scope
// instance ("global", "brand:<link>", "category:<link>").
type VisitedSetFactory func(name string) VisitedSet

type memorySet struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewMemorySet() VisitedSet {
	return &memorySet{seen: make(map[string]struct{})}
}

// MemorySetFactory ignores the name, every call returns a fresh in-process set.
func MemorySetFactory(string) VisitedSet {
	return NewMemorySet()
}

func (s *memorySet) Claim(_ context.Context, identity string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.seen[identity]; ok {
		return false, nil
	}
	s.seen[identity] = struct{}{}
	return true, nil
}
