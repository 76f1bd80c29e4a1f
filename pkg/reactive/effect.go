package reactive

// Effect is an eager computation. It runs once when created and again,
// during the next flush, whenever something it read changes.
type Effect struct {
	c     *Computation
	graph *Graph
}

// NewEffect creates and immediately runs an effect. An effect created while
// another effect runs belongs to it: it is disposed when its parent runs
// again or is disposed.
func NewEffect(g *Graph, fn func() Cleanup) *Effect {
	c := &Computation{
		kind:  KindEffect,
		state: Stale,
		body:  fn,
	}
	c.id = nextID()
	if p := g.current; p != nil && p.kind == KindEffect {
		c.parent = p
		p.children = append(p.children, c)
	}
	g.refresh(c)
	return &Effect{c: c, graph: g}
}

// Dispose stops the effect, runs its cleanup and disposes nested effects.
func (e *Effect) Dispose() {
	e.graph.Dispose(e.c)
}

// Computation exposes the underlying computation.
func (e *Effect) Computation() *Computation {
	return e.c
}
