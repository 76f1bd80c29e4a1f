package vdom

import "github.com/vango-dev/loom/pkg/runtime"

// Block is the output of a component render: a VNode tree that can be
// mounted into a host Element and patched in place.
type Block struct {
	vnode  *VNode
	parent *Element
}

// NewBlock wraps a VNode tree as render output. A nil tree renders nothing.
func NewBlock(v *VNode) *Block {
	if v == nil {
		v = Fragment()
	}
	return &Block{vnode: v}
}

// VNode returns the tree currently held by the block.
func (b *Block) VNode() *VNode {
	return b.vnode
}

// Mount implements runtime.OutputNode. parent must be an *Element.
func (b *Block) Mount(parent runtime.Target, anchor runtime.HostNode) {
	el, ok := parent.(*Element)
	if !ok {
		panic("vdom: block mounted into a non-vdom target")
	}
	b.parent = el
	build(b.vnode, el, asElement(anchor))
}

// Patch implements runtime.OutputNode. next must be a *Block.
func (b *Block) Patch(next runtime.OutputNode, withBeforeRemove bool) {
	nb, ok := next.(*Block)
	if !ok || nb == b {
		return
	}
	reconcile(b.parent, b.vnode, nb.vnode, withBeforeRemove)
	b.vnode = nb.vnode
	nb.parent = b.parent
}

// BeforeRemove implements runtime.OutputNode.
func (b *Block) BeforeRemove() {
	beforeRemove(b.vnode)
}

// Remove implements runtime.OutputNode.
func (b *Block) Remove() {
	remove(b.vnode, false)
}

// FirstNode implements runtime.OutputNode.
func (b *Block) FirstNode() runtime.HostNode {
	return hostNode(firstHost(b.vnode))
}

// HostNodes returns the top-level host nodes of the block.
func (b *Block) HostNodes() []runtime.HostNode {
	hs := hosts(b.vnode)
	out := make([]runtime.HostNode, len(hs))
	for i, h := range hs {
		out[i] = h
	}
	return out
}
