package runtime

import (
	"errors"
	"fmt"
)

var errNoOutput = errors.New("render function returned no output")

// RenderFunc produces the output tree of a component.
type RenderFunc func(ctx *RenderContext) (OutputNode, error)

// SetupFunc runs once per node. It registers hooks on the node and returns
// the render function bound to that instance.
type SetupFunc func(n *Node) RenderFunc

// Definition describes a component. Definitions are compared by identity:
// a keyed child is reused only when its definition is the same pointer.
type Definition struct {
	name     string
	setup    SetupFunc
	defaults Props
}

// DefineOption configures a Definition.
type DefineOption func(*Definition)

// WithDefaultProps fills props missing from what the parent passes.
func WithDefaultProps(defaults Props) DefineOption {
	return func(d *Definition) {
		d.defaults = defaults
	}
}

// Define creates a component definition.
func Define(name string, setup SetupFunc, opts ...DefineOption) *Definition {
	d := &Definition{name: name, setup: setup}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Name returns the component name.
func (d *Definition) Name() string {
	return d.name
}

func (d *Definition) withDefaults(props Props) Props {
	if len(d.defaults) == 0 {
		return props
	}
	out := props.Clone()
	if out == nil {
		out = make(Props, len(d.defaults))
	}
	for k, v := range d.defaults {
		if _, ok := out[k]; !ok {
			out[k] = v
		}
	}
	return out
}

func (d *Definition) instantiate(n *Node) RenderFunc {
	render := d.setup(n)
	if render == nil {
		panic(fmt.Errorf("runtime: setup of %s returned a nil RenderFunc", d.name))
	}
	return render
}

// RenderContext is handed to a RenderFunc for the duration of one render.
type RenderContext struct {
	node  *Node
	fiber *Fiber
}

// Node returns the node being rendered.
func (c *RenderContext) Node() *Node {
	return c.node
}

// Props returns the props this render uses.
func (c *RenderContext) Props() Props {
	return c.node.renderProps
}

// Deep reports whether this render forces every child to update.
func (c *RenderContext) Deep() bool {
	return c.fiber.deep
}

// Child returns the child component stored under key, creating it if
// needed, and schedules its render as part of the current one. The result
// is meant to be embedded in the output tree being built.
func (c *RenderContext) Child(key string, def *Definition, props Props) OutputNode {
	parent := c.node
	parentFiber := c.fiber

	child := parent.children.get(key)
	if child != nil && (child.status == StatusDestroyed || child.def != def) {
		child = nil
	}

	if child != nil {
		if propsDiffer(child.props, props) || parentFiber.deep || child.forceNextRender {
			child.forceNextRender = false
			child.updateAndRender(props, parentFiber)
		}
	} else {
		child = newNode(parent.app, def, props, parent, key)
		parent.children.set(key, child)
		child.initiateRender(newChildFiber(child, parentFiber))
	}

	parentFiber.childrenMap.set(key, child)
	return child
}
