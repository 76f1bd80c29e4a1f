package runtime

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/vango-dev/loom/pkg/async"
)

// testTarget is a flat host container.
type testTarget struct {
	attached bool
	nodes    []HostNode
}

func newTestTarget() *testTarget {
	return &testTarget{attached: true}
}

func (t *testTarget) Attached() bool {
	return t.attached
}

func (t *testTarget) FirstChild() HostNode {
	if len(t.nodes) == 0 {
		return nil
	}
	return t.nodes[0]
}

func (t *testTarget) insert(n, anchor HostNode) {
	idx := len(t.nodes)
	for i, x := range t.nodes {
		if x == anchor {
			idx = i
			break
		}
	}
	t.nodes = append(t.nodes, nil)
	copy(t.nodes[idx+1:], t.nodes[idx:])
	t.nodes[idx] = n
}

func (t *testTarget) remove(n HostNode) {
	for i, x := range t.nodes {
		if x == n {
			t.nodes = append(t.nodes[:i], t.nodes[i+1:]...)
			return
		}
	}
}

// testBlock is an OutputNode holding a label and positional children.
type testBlock struct {
	text     string
	children []OutputNode
	parent   *testTarget
	host     *testTarget
	patches  int
}

func block(text string, children ...OutputNode) *testBlock {
	return &testBlock{text: text, children: children}
}

func (b *testBlock) Mount(parent Target, anchor HostNode) {
	b.parent = parent.(*testTarget)
	b.parent.insert(b, anchor)
	b.host = newTestTarget()
	for _, c := range b.children {
		c.Mount(b.host, nil)
	}
}

func (b *testBlock) Patch(next OutputNode, withBeforeRemove bool) {
	nb := next.(*testBlock)
	b.patches++
	b.text = nb.text
	old := b.children
	for i, c := range nb.children {
		if i < len(old) {
			if old[i] == c {
				c.Patch(c, withBeforeRemove)
				continue
			}
			if withBeforeRemove {
				old[i].BeforeRemove()
			}
			old[i].Remove()
		}
		c.Mount(b.host, nil)
	}
	for i := len(nb.children); i < len(old); i++ {
		if withBeforeRemove {
			old[i].BeforeRemove()
		}
		old[i].Remove()
	}
	b.children = nb.children
}

func (b *testBlock) BeforeRemove() {
	for _, c := range b.children {
		c.BeforeRemove()
	}
}

func (b *testBlock) Remove() {
	if b.parent != nil {
		b.parent.remove(b)
	}
}

func (b *testBlock) FirstNode() HostNode {
	return b
}

func (b *testBlock) String() string {
	if len(b.children) == 0 {
		return b.text
	}
	parts := make([]string, 0, len(b.children))
	for _, c := range b.children {
		parts = append(parts, outputString(c))
	}
	return b.text + "[" + strings.Join(parts, ",") + "]"
}

func outputString(o OutputNode) string {
	switch v := o.(type) {
	case *testBlock:
		return v.String()
	case *Node:
		if v.output == nil {
			return "<nil>"
		}
		return outputString(v.output)
	default:
		return "?"
	}
}

type recordingObserver struct {
	NopObserver
	commits []CommitInfo
	drops   []DropReason
	errors  []error
	handled []bool
	renders []string
}

func (r *recordingObserver) FiberRendered(info RenderInfo) {
	r.renders = append(r.renders, info.Component)
}

func (r *recordingObserver) RootCompleted(info CommitInfo) {
	r.commits = append(r.commits, info)
}

func (r *recordingObserver) RootDropped(_ string, reason DropReason) {
	r.drops = append(r.drops, reason)
}

func (r *recordingObserver) ErrorRaised(_ string, err error, handled bool) {
	r.errors = append(r.errors, err)
	r.handled = append(r.handled, handled)
}

func (r *recordingObserver) patchCommits() int {
	n := 0
	for _, c := range r.commits {
		if !c.Mount && c.Err == nil {
			n++
		}
	}
	return n
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type harness struct {
	t        *testing.T
	loop     *async.Loop
	app      *App
	target   *testTarget
	observer *recordingObserver
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := DefaultConfig()
	cfg.SlowHookWarning = 0
	return newHarnessWithConfig(t, cfg)
}

func newHarnessWithConfig(t *testing.T, cfg *Config) *harness {
	t.Helper()
	loop := async.NewLoop(async.WithLogger(quietLogger()))
	rec := &recordingObserver{}
	if cfg.Logger == slog.Default() {
		cfg.Logger = quietLogger()
	}
	cfg.Observer = rec
	h := &harness{
		t:        t,
		loop:     loop,
		app:      New(loop, cfg),
		target:   newTestTarget(),
		observer: rec,
	}
	t.Cleanup(loop.Close)
	return h
}

func (h *harness) run() {
	h.t.Helper()
	if _, err := h.loop.RunUntilIdle(); err != nil {
		h.t.Fatalf("run loop: %v", err)
	}
}

// do runs fn as a loop task and drains the loop.
func (h *harness) do(fn func()) {
	h.t.Helper()
	if err := h.loop.Post(fn); err != nil {
		h.t.Fatalf("post: %v", err)
	}
	h.run()
}

func (h *harness) mount(def *Definition, props Props) *async.Future {
	h.t.Helper()
	var f *async.Future
	h.do(func() {
		f = h.app.Mount(def, props, h.target, LastChild)
	})
	return f
}

// committed renders the committed output of the root node.
func (h *harness) committed() string {
	root := h.app.Root()
	if root == nil || root.output == nil {
		return ""
	}
	return outputString(root.output)
}

// unrendered counts the fibers of a subtree that have not rendered.
func unrendered(f *Fiber) int {
	n := 0
	if !f.rendered {
		n++
	}
	for _, c := range f.children {
		n += unrendered(c)
	}
	return n
}

// checkCounter verifies that the root fiber of n counts exactly the
// fibers of its subtree still waiting to render.
func checkCounter(t *testing.T, n *Node) {
	t.Helper()
	f := n.fiber
	if f == nil || f.root == nil {
		t.Fatalf("expected %s to have work in flight", n.Name())
	}
	rf := f.root
	if got := unrendered(&rf.Fiber); got != rf.counter {
		t.Errorf("expected counter %d to match unrendered fibers, got %d", rf.counter, got)
	}
}
