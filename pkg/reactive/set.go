package reactive

// orderedSet is an insertion-ordered set. Iteration order decides the order
// in which observers are invalidated and effects are queued, so it must be
// deterministic.
type orderedSet[T comparable] struct {
	items []T
	index map[T]int
}

func (s *orderedSet[T]) add(v T) bool {
	if s.index == nil {
		s.index = make(map[T]int)
	}
	if _, ok := s.index[v]; ok {
		return false
	}
	s.index[v] = len(s.items)
	s.items = append(s.items, v)
	return true
}

func (s *orderedSet[T]) remove(v T) bool {
	i, ok := s.index[v]
	if !ok {
		return false
	}
	delete(s.index, v)
	copy(s.items[i:], s.items[i+1:])
	var zero T
	s.items[len(s.items)-1] = zero
	s.items = s.items[:len(s.items)-1]
	for j := i; j < len(s.items); j++ {
		s.index[s.items[j]] = j
	}
	return true
}

func (s *orderedSet[T]) has(v T) bool {
	_, ok := s.index[v]
	return ok
}

func (s *orderedSet[T]) len() int {
	return len(s.items)
}

func (s *orderedSet[T]) clear() {
	s.items = nil
	s.index = nil
}

// snapshot returns a copy that stays valid while the set is mutated.
func (s *orderedSet[T]) snapshot() []T {
	if len(s.items) == 0 {
		return nil
	}
	out := make([]T, len(s.items))
	copy(out, s.items)
	return out
}
