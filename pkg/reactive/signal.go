package reactive

// Signal is a mutable cell. Reading it from inside a computation subscribes
// that computation; setting it to a different value invalidates them.
type Signal[T any] struct {
	atom  Atom
	graph *Graph
	value T
	equal func(a, b T) bool
}

// SignalOption configures a Signal.
type SignalOption[T any] func(*Signal[T])

// WithEqual replaces the default equality used to detect changes.
func WithEqual[T any](fn func(a, b T) bool) SignalOption[T] {
	return func(s *Signal[T]) {
		s.equal = fn
	}
}

// NewSignal creates a signal holding initial.
func NewSignal[T any](g *Graph, initial T, opts ...SignalOption[T]) *Signal[T] {
	s := &Signal[T]{graph: g, value: initial, equal: defaultEquals[T]}
	s.atom.id = nextID()
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the value and subscribes the current computation.
func (s *Signal[T]) Get() T {
	s.graph.Read(&s.atom)
	return s.value
}

// Peek returns the value without subscribing.
func (s *Signal[T]) Peek() T {
	return s.value
}

// Set stores v. Observers are invalidated only when v differs from the
// current value.
func (s *Signal[T]) Set(v T) {
	if s.equal(s.value, v) {
		return
	}
	s.value = v
	s.graph.Write(&s.atom)
}

// Update sets the value to fn applied to the current value.
func (s *Signal[T]) Update(fn func(T) T) {
	s.Set(fn(s.value))
}

// Atom exposes the underlying atom.
func (s *Signal[T]) Atom() *Atom {
	return &s.atom
}
