package runtime

// HostNode is a node of the host tree. The runtime never inspects it; it
// only passes it between OutputNodes as an insertion anchor.
type HostNode any

// Target is a host container that output trees mount into.
type Target interface {
	// Attached reports whether the target is still part of a live host tree.
	Attached() bool

	// FirstChild returns the first host node inside the target, or nil.
	FirstChild() HostNode
}

// OutputNode is the retained output of a render. Implementations must be
// pointer types: the runtime compares them by identity.
type OutputNode interface {
	// Mount inserts the tree into parent before anchor, or at the end when
	// anchor is nil.
	Mount(parent Target, anchor HostNode)

	// Patch updates the mounted tree in place to match next. When
	// withBeforeRemove is set, subtrees that disappear get BeforeRemove
	// before they are removed.
	Patch(next OutputNode, withBeforeRemove bool)

	// BeforeRemove is called on a subtree about to be removed.
	BeforeRemove()

	// Remove detaches the tree from its parent.
	Remove()

	// FirstNode returns the first host node of the tree, or nil.
	FirstNode() HostNode
}

// hostNoder is implemented by output trees that can list their top-level
// host nodes.
type hostNoder interface {
	HostNodes() []HostNode
}

// Position is where a mounted tree goes inside its target.
type Position uint8

const (
	// LastChild appends after the existing children.
	LastChild Position = iota
	// FirstChild inserts before the existing children.
	FirstChild
)

// String returns the position name.
func (p Position) String() string {
	if p == FirstChild {
		return "first-child"
	}
	return "last-child"
}
