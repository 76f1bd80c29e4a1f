package runtime

// NodeSnapshot describes one node of a live tree.
type NodeSnapshot struct {
	ID        uint64         `json:"id"`
	Component string         `json:"component"`
	Key       string         `json:"key,omitempty"`
	Status    string         `json:"status"`
	Fiber     *FiberSnapshot `json:"fiber,omitempty"`
	Children  []NodeSnapshot `json:"children,omitempty"`
}

// FiberSnapshot describes the in-flight work of a node.
type FiberSnapshot struct {
	Kind     string `json:"kind"`
	Rendered bool   `json:"rendered"`
	Deep     bool   `json:"deep,omitempty"`
	Counter  int    `json:"counter"`
	Locked   bool   `json:"locked,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Snapshot describes an App at one point in time.
type Snapshot struct {
	Root      *NodeSnapshot `json:"root,omitempty"`
	Pending   int           `json:"pending"`
	Delayed   int           `json:"delayed"`
	Frames    int           `json:"frames"`
	Destroyed bool          `json:"destroyed"`
	Error     string        `json:"error,omitempty"`
}

// Snapshot captures the tree and scheduler state. Call it on the loop.
func (a *App) Snapshot() Snapshot {
	s := Snapshot{
		Pending:   a.scheduler.Pending(),
		Delayed:   a.scheduler.Delayed(),
		Frames:    a.scheduler.Frames(),
		Destroyed: a.destroyed,
	}
	if a.err != nil {
		s.Error = a.err.Error()
	}
	if a.root != nil {
		root := snapshotNode(a.root)
		s.Root = &root
	}
	return s
}

func snapshotNode(n *Node) NodeSnapshot {
	ns := NodeSnapshot{
		ID:        n.id,
		Component: n.Name(),
		Key:       n.parentKey,
		Status:    n.status.String(),
	}
	if f := n.fiber; f != nil {
		fs := &FiberSnapshot{
			Kind:     f.kind.String(),
			Rendered: f.rendered,
			Deep:     f.deep,
		}
		if f.root != nil {
			fs.Counter = f.root.counter
			fs.Locked = f.root.locked
		}
		if f.err != nil {
			fs.Error = f.err.Error()
		}
		ns.Fiber = fs
	}
	for _, child := range n.children.list() {
		ns.Children = append(ns.Children, snapshotNode(child))
	}
	return ns
}
