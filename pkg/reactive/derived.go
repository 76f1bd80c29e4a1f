package reactive

// Derived is a lazily computed, cached value. It recomputes only when read
// after one of its sources changed, and its observers are invalidated only
// when the recomputed value differs from the previous one.
type Derived[T any] struct {
	c     Computation
	graph *Graph
}

// NewDerived creates a derived value computed by fn. Nothing runs until the
// first Get.
func NewDerived[T any](g *Graph, fn func() T, opts ...SignalOption[T]) *Derived[T] {
	cfg := Signal[T]{equal: defaultEquals[T]}
	for _, opt := range opts {
		opt(&cfg)
	}
	equal := cfg.equal

	d := &Derived[T]{graph: g}
	d.c = Computation{
		kind:  KindDerived,
		state: Stale,
		fn:    func() any { return fn() },
		equal: func(a, b any) bool {
			av, _ := a.(T)
			bv, _ := b.(T)
			return equal(av, bv)
		},
	}
	d.c.id = nextID()
	d.c.derived = &d.c
	return d
}

// Get returns the current value, recomputing it if needed, and subscribes
// the current computation.
func (d *Derived[T]) Get() T {
	d.graph.Update(&d.c)
	v, _ := d.c.value.(T)
	return v
}

// Computation exposes the underlying computation.
func (d *Derived[T]) Computation() *Computation {
	return &d.c
}
