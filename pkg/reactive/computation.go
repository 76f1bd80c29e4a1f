package reactive

// Kind tells how a computation is driven.
type Kind uint8

const (
	// KindEffect computations run eagerly when invalidated.
	KindEffect Kind = iota
	// KindDerived computations run lazily when read and cache their value.
	KindDerived
	// KindWatcher computations are effects whose sources are recorded by
	// Graph.Track around code that runs elsewhere.
	KindWatcher
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindEffect:
		return "effect"
	case KindDerived:
		return "derived"
	case KindWatcher:
		return "watcher"
	default:
		return "unknown"
	}
}

// Cleanup is returned by an effect body and runs before the body runs again
// or when the effect is disposed.
type Cleanup func()

// Computation is a function re-run when the atoms it read change. A derived
// computation is also an Atom that other computations can read.
type Computation struct {
	Atom

	kind  Kind
	state State

	// sources are the atoms read during the last run.
	sources orderedSet[*Atom]

	// fn computes the value of a derived computation.
	fn    func() any
	value any
	equal func(a, b any) bool

	// body is the effect function; cleanup is what its last run returned.
	body    func() Cleanup
	cleanup Cleanup

	// children are the effects created during the last run of this effect.
	parent   *Computation
	children []*Computation

	runs     int
	disposed bool
}

// NewWatcher creates an effect-flavored computation that does not run at
// creation. Its sources are recorded with Graph.Track; when one of them
// changes, body runs during the next flush.
func (g *Graph) NewWatcher(body func()) *Computation {
	c := &Computation{
		kind:  KindWatcher,
		state: Executed,
		body: func() Cleanup {
			body()
			return nil
		},
	}
	c.id = nextID()
	return c
}

// Kind returns how the computation is driven.
func (c *Computation) Kind() Kind {
	return c.kind
}

// State returns the freshness of the computation.
func (c *Computation) State() State {
	return c.state
}

// Sources returns how many atoms the last run read.
func (c *Computation) Sources() int {
	return c.sources.len()
}

// DependsOn reports whether the last run read a.
func (c *Computation) DependsOn(a *Atom) bool {
	return c.sources.has(a)
}

// Runs returns how many times the computation has run.
func (c *Computation) Runs() int {
	return c.runs
}

// Disposed reports whether the computation was disposed.
func (c *Computation) Disposed() bool {
	return c.disposed
}

func (c *Computation) runCleanup() {
	if c.cleanup == nil {
		return
	}
	cleanup := c.cleanup
	c.cleanup = nil
	cleanup()
}
