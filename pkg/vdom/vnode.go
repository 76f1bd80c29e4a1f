package vdom

import (
	"strings"

	"github.com/vango-dev/loom/pkg/runtime"
)

// VKind is the node type discriminator.
type VKind uint8

const (
	KindElement  VKind = iota // <div>, <button>, etc.
	KindText                  // Plain text node
	KindFragment              // Grouping without wrapper
	KindSlot                  // Embedded output tree, usually a child component
)

// String returns the string representation of the VKind.
func (k VKind) String() string {
	switch k {
	case KindElement:
		return "Element"
	case KindText:
		return "Text"
	case KindFragment:
		return "Fragment"
	case KindSlot:
		return "Slot"
	default:
		return "Unknown"
	}
}

// VNode is a node of a render output.
type VNode struct {
	Kind     VKind              // Node type
	Tag      string             // Element tag name (e.g., "div")
	Props    Props              // Attributes and event handlers
	Children []*VNode           // Child nodes
	Key      string             // Reconciliation key
	Text     string             // For KindText
	Slot     runtime.OutputNode // For KindSlot

	// el is the host node backing an element or text node once mounted,
	// or the placeholder of an empty fragment.
	el *Element
}

// Props holds attributes and event handlers.
type Props map[string]any

// IsInteractive returns true if this node has event handlers.
func (v *VNode) IsInteractive() bool {
	if v == nil || v.Kind != KindElement {
		return false
	}
	for key := range v.Props {
		if isEventHandler(key) {
			return true
		}
	}
	return false
}

// Host returns the host node backing v, or nil when v is not mounted.
func (v *VNode) Host() *Element {
	return v.el
}

// Attr represents a single attribute.
type Attr struct {
	Key   string
	Value any
}

// IsEmpty returns true if this is an empty/nil attribute.
func (a Attr) IsEmpty() bool {
	return a.Key == ""
}

// EventHandler represents an event handler.
type EventHandler struct {
	Event   string // "onclick", "oninput", etc.
	Handler any    // func() or func(string)
}

func isEventHandler(key string) bool {
	return len(key) > 2 && strings.EqualFold(key[:2], "on")
}
