package reactive

import "errors"

// ErrFlushLimit is raised (as a panic value) when effects keep invalidating
// each other for more rounds than the graph allows in a single flush.
var ErrFlushLimit = errors.New("reactive: effect flush did not settle")

// DefaultMaxFlushRounds bounds how many times a single Flush may drain the
// effect queue before giving up.
const DefaultMaxFlushRounds = 1000

// State is the freshness of a computation.
type State uint8

const (
	// Executed means the cached result reflects the current sources.
	Executed State = iota
	// Stale means a direct source changed and the computation must run.
	Stale
	// Pending means an upstream derived computation may have changed.
	Pending
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Executed:
		return "executed"
	case Stale:
		return "stale"
	case Pending:
		return "pending"
	default:
		return "unknown"
	}
}

// Atom is an observable cell in the graph. It carries no value itself:
// containers such as Signal hold the value and report reads and writes.
type Atom struct {
	id        uint64
	observers orderedSet[*Computation]

	// derived is set when this atom is the readable side of a derived
	// computation.
	derived *Computation
}

// NewAtom returns a fresh atom with no observers.
func NewAtom() *Atom {
	return &Atom{id: nextID()}
}

// ID returns the unique identifier of the atom.
func (a *Atom) ID() uint64 {
	if a.id == 0 {
		a.id = nextID()
	}
	return a.id
}

// Observers returns how many computations currently observe the atom.
func (a *Atom) Observers() int {
	return a.observers.len()
}

// Option configures a Graph.
type Option func(*Graph)

// WithScheduler installs the batching window for effects. The graph calls
// schedule at most once per window; the callback flushes the queue.
// Without a scheduler, effects flush synchronously when the outermost write
// or Batch returns.
func WithScheduler(schedule func(func())) Option {
	return func(g *Graph) {
		g.schedule = schedule
	}
}

// WithMaxFlushRounds overrides DefaultMaxFlushRounds.
func WithMaxFlushRounds(n int) Option {
	return func(g *Graph) {
		if n > 0 {
			g.maxRounds = n
		}
	}
}

// Graph owns the dependency edges between atoms and computations, the
// computation currently running, and the queue of effects waiting for the
// next flush.
type Graph struct {
	current    *Computation
	queue      []*Computation
	batchDepth int
	flushing   bool
	scheduled  bool
	schedule   func(func())
	maxRounds  int
}

// NewGraph creates an empty graph.
func NewGraph(opts ...Option) *Graph {
	g := &Graph{maxRounds: DefaultMaxFlushRounds}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Current returns the computation currently running, or nil.
func (g *Graph) Current() *Computation {
	return g.current
}

// Read subscribes the running computation, if any, to the atom.
func (g *Graph) Read(a *Atom) {
	c := g.current
	if c == nil || c.disposed {
		return
	}
	if c.sources.add(a) {
		a.observers.add(c)
	}
}

// Write reports that the value behind the atom changed. Direct observers
// become Stale; computations downstream of a derived observer become
// Pending. Effects reached this way are queued for the next flush.
func (g *Graph) Write(a *Atom) {
	g.batchDepth++
	g.notify(a)
	g.batchDepth--
	g.afterWrite()
}

// Batch runs fn and delays the effect flush until fn returns, so that any
// number of writes inside it cost a single flush.
func (g *Graph) Batch(fn func()) {
	g.batchDepth++
	completed := false
	defer func() {
		g.batchDepth--
		if completed {
			g.afterWrite()
		}
	}()
	fn()
	completed = true
}

// Untracked runs fn without a current computation: reads inside it create
// no dependencies.
func (g *Graph) Untracked(fn func()) {
	prev := g.current
	g.current = nil
	defer func() { g.current = prev }()
	fn()
}

// Track runs fn with c installed as the current computation after dropping
// every source c had. Used by watchers whose body runs outside the graph
// (component render functions).
func (g *Graph) Track(c *Computation, fn func()) {
	g.removeSources(c)
	prev := g.current
	g.current = c
	defer func() { g.current = prev }()
	fn()
	c.state = Executed
}

// Update brings c up to date, subscribing the current computation to it
// when c is derived.
func (g *Graph) Update(c *Computation) {
	// The reader subscribes after the refresh so the recompute cannot
	// queue it.
	g.refresh(c)
	if c.kind == KindDerived {
		g.Read(&c.Atom)
	}
}

// Dispose unsubscribes c from all of its sources, runs its cleanup and
// recursively disposes the effects created during its last run.
func (g *Graph) Dispose(c *Computation) {
	prev := g.current
	g.current = nil
	defer func() { g.current = prev }()
	g.dispose(c)
}

// Flush runs every queued effect. Effects queued while flushing run in the
// same flush.
func (g *Graph) Flush() {
	if g.flushing {
		return
	}
	g.flushing = true
	defer func() { g.flushing = false }()

	for round := 0; len(g.queue) > 0; round++ {
		if round >= g.maxRounds {
			g.queue = nil
			panic(ErrFlushLimit)
		}
		batch := g.queue
		g.queue = nil
		g.runQueued(batch)
	}
}

// Pending returns how many effects are waiting for the next flush.
func (g *Graph) Pending() int {
	return len(g.queue)
}

func (g *Graph) runQueued(batch []*Computation) {
	i := 0
	defer func() {
		if r := recover(); r != nil {
			// keep the effects that never got their turn
			g.queue = append(batch[i+1:len(batch):len(batch)], g.queue...)
			panic(r)
		}
	}()
	for ; i < len(batch); i++ {
		if c := batch[i]; !c.disposed {
			g.refresh(c)
		}
	}
}

func (g *Graph) afterWrite() {
	if g.batchDepth > 0 || len(g.queue) == 0 {
		return
	}
	if g.schedule == nil {
		g.Flush()
		return
	}
	if !g.scheduled {
		g.scheduled = true
		g.schedule(func() {
			g.scheduled = false
			g.Flush()
		})
	}
}

// notify invalidates the observers of a without flushing.
func (g *Graph) notify(a *Atom) {
	for _, c := range a.observers.snapshot() {
		if c.state == Executed {
			if c.kind == KindDerived {
				g.markDownstream(c)
			} else {
				g.enqueue(c)
			}
		}
		c.state = Stale
	}
}

func (g *Graph) markDownstream(d *Computation) {
	for _, c := range d.observers.snapshot() {
		if c.state != Executed {
			continue
		}
		c.state = Pending
		if c.kind == KindDerived {
			g.markDownstream(c)
		} else {
			g.enqueue(c)
		}
	}
}

func (g *Graph) enqueue(c *Computation) {
	if c.disposed {
		return
	}
	g.queue = append(g.queue, c)
}

func (g *Graph) refresh(c *Computation) {
	if c.disposed {
		return
	}
	switch c.state {
	case Executed:
		return
	case Pending:
		g.resolveSources(c)
		if c.state != Stale {
			c.state = Executed
			return
		}
	}
	g.run(c)
}

// resolveSources brings the derived sources of c up to date. Any of them
// producing a new value turns c Stale.
func (g *Graph) resolveSources(c *Computation) {
	prev := g.current
	g.current = nil
	defer func() { g.current = prev }()
	for _, src := range c.sources.snapshot() {
		if src.derived == nil {
			continue
		}
		g.refresh(src.derived)
		if c.state == Stale {
			return
		}
	}
}

func (g *Graph) run(c *Computation) {
	g.removeSources(c)
	prev := g.current
	defer func() { g.current = prev }()

	if c.kind == KindDerived {
		g.current = c
		old, hadValue := c.value, c.runs > 0
		v := c.fn()
		c.value = v
		c.state = Executed
		c.runs++
		if hadValue && !c.equal(old, v) {
			g.batchDepth++
			g.notify(&c.Atom)
			g.batchDepth--
		}
		return
	}

	g.current = nil
	c.runCleanup()
	g.disposeChildren(c)

	// Executed before the body so that a write to something the body already
	// read queues it again. Writes made by the body flush once it returns.
	g.current = c
	c.state = Executed
	g.batchDepth++
	c.cleanup = func() Cleanup {
		defer func() { g.batchDepth-- }()
		return c.body()
	}()
	c.runs++
	g.current = prev
	g.afterWrite()
}

func (g *Graph) removeSources(c *Computation) {
	for _, src := range c.sources.items {
		src.observers.remove(c)
	}
	c.sources.clear()
}

func (g *Graph) dispose(c *Computation) {
	g.removeSources(c)
	c.runCleanup()
	g.disposeChildren(c)
	c.disposed = true
}

func (g *Graph) disposeChildren(c *Computation) {
	children := c.children
	c.children = nil
	for _, child := range children {
		child.state = Executed
		g.dispose(child)
	}
}
