package runtime

// childMap maps parent-assigned keys to child nodes, preserving insertion
// order so that destroy cascades and snapshots are deterministic.
type childMap struct {
	keys  []string
	nodes map[string]*Node
}

func newChildMap() *childMap {
	return &childMap{nodes: make(map[string]*Node)}
}

func (m *childMap) get(key string) *Node {
	if m == nil {
		return nil
	}
	return m.nodes[key]
}

func (m *childMap) has(key string) bool {
	if m == nil {
		return false
	}
	_, ok := m.nodes[key]
	return ok
}

func (m *childMap) set(key string, n *Node) {
	if _, ok := m.nodes[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.nodes[key] = n
}

func (m *childMap) delete(key string) {
	if _, ok := m.nodes[key]; !ok {
		return
	}
	delete(m.nodes, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

func (m *childMap) len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// list returns the children in insertion order.
func (m *childMap) list() []*Node {
	if m == nil {
		return nil
	}
	out := make([]*Node, 0, len(m.keys))
	for _, k := range m.keys {
		out = append(out, m.nodes[k])
	}
	return out
}
