package vdom

import "github.com/vango-dev/loom/pkg/runtime"

// testOutput is an embedded output tree that records what the parent
// block asks of it.
type testOutput struct {
	block         *Block
	patched       int
	beforeRemoved int
	removed       int
}

func newTestOutput(v *VNode) *testOutput {
	return &testOutput{block: NewBlock(v)}
}

func (o *testOutput) Mount(parent runtime.Target, anchor runtime.HostNode) {
	o.block.Mount(parent, anchor)
}

func (o *testOutput) Patch(runtime.OutputNode, bool) { o.patched++ }

func (o *testOutput) BeforeRemove() { o.beforeRemoved++ }

func (o *testOutput) Remove() {
	o.removed++
	o.block.Remove()
}

func (o *testOutput) FirstNode() runtime.HostNode { return o.block.FirstNode() }

type keyedOutput struct {
	testOutput
	key string
}

func (o *keyedOutput) Key() string { return o.key }

func mountBlock(doc *Document, v *VNode) *Block {
	b := NewBlock(v)
	b.Mount(doc.Body(), nil)
	doc.TakePatches()
	return b
}

func countOps(patches []Patch, op PatchOp) int {
	n := 0
	for _, p := range patches {
		if p.Op == op {
			n++
		}
	}
	return n
}
