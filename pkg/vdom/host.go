package vdom

import (
	"errors"
	"fmt"
	"html"
	"sort"
	"strings"

	"github.com/vango-dev/loom/pkg/runtime"
)

// ErrNoHandler is returned by Dispatch when the element has no handler for
// the event.
var ErrNoHandler = errors.New("vdom: no handler for event")

const textTag = "#text"

// Document is an in-memory host tree. Output trees mount into its elements
// and every mutation is recorded as a Patch.
//
// A Document is not safe for concurrent use; it belongs to the loop that
// runs the app rendering into it.
type Document struct {
	body    *Element
	hids    *HIDGenerator
	patches []Patch
}

// NewDocument creates a document with an empty body.
func NewDocument() *Document {
	d := &Document{hids: NewHIDGenerator()}
	d.body = d.newElement("body")
	return d
}

// Body returns the root element of the document.
func (d *Document) Body() *Element {
	return d.body
}

// CreateElement creates a detached element.
func (d *Document) CreateElement(tag string) *Element {
	return d.newElement(tag)
}

// CreateText creates a detached text node.
func (d *Document) CreateText(text string) *Element {
	e := d.newElement(textTag)
	e.text = text
	return e
}

// Patches returns the patches recorded since the last TakePatches.
func (d *Document) Patches() []Patch {
	return d.patches
}

// TakePatches returns and clears the recorded patches.
func (d *Document) TakePatches() []Patch {
	p := d.patches
	d.patches = nil
	return p
}

func (d *Document) newElement(tag string) *Element {
	return &Element{doc: d, hid: d.hids.Next(), tag: tag}
}

func (d *Document) record(p Patch) {
	d.patches = append(d.patches, p)
}

// Element is a host node: an element or a text node.
type Element struct {
	doc      *Document
	hid      string
	tag      string
	text     string
	attrs    map[string]string
	handlers map[string]any
	parent   *Element
	children []*Element
}

// HID returns the host ID of the node.
func (e *Element) HID() string { return e.hid }

// Tag returns the tag name, or "#text" for text nodes.
func (e *Element) Tag() string { return e.tag }

// IsText reports whether e is a text node.
func (e *Element) IsText() bool { return e.tag == textTag }

// Parent returns the parent element, or nil when detached.
func (e *Element) Parent() *Element { return e.parent }

// Children returns the child nodes.
func (e *Element) Children() []*Element { return e.children }

// Attached implements runtime.Target.
func (e *Element) Attached() bool {
	for x := e; x != nil; x = x.parent {
		if x == e.doc.body {
			return true
		}
	}
	return false
}

// FirstChild implements runtime.Target.
func (e *Element) FirstChild() runtime.HostNode {
	if len(e.children) == 0 {
		return nil
	}
	return e.children[0]
}

// NextSibling returns the node after e in its parent, or nil.
func (e *Element) NextSibling() *Element {
	if e.parent == nil {
		return nil
	}
	i := e.parent.indexOf(e)
	if i < 0 || i+1 >= len(e.parent.children) {
		return nil
	}
	return e.parent.children[i+1]
}

// InsertBefore inserts child before anchor, or at the end when anchor is
// nil. A child that already has a parent is moved.
func (e *Element) InsertBefore(child, anchor *Element) {
	op := PatchInsertNode
	if child.parent != nil {
		op = PatchMoveNode
		child.parent.detach(child)
	}
	i := len(e.children)
	if anchor != nil {
		if j := e.indexOf(anchor); j >= 0 {
			i = j
		}
	}
	e.children = append(e.children, nil)
	copy(e.children[i+1:], e.children[i:])
	e.children[i] = child
	child.parent = e

	value := child.tag
	if child.IsText() {
		value = child.text
	}
	e.doc.record(Patch{Op: op, HID: child.hid, ParentID: e.hid, Index: i, Value: value})
}

// AppendChild inserts child at the end.
func (e *Element) AppendChild(child *Element) {
	e.InsertBefore(child, nil)
}

// RemoveChild detaches child from e. It is a no-op when child belongs to
// another parent.
func (e *Element) RemoveChild(child *Element) {
	if child.parent != e {
		return
	}
	e.detach(child)
	e.doc.record(Patch{Op: PatchRemoveNode, HID: child.hid, ParentID: e.hid})
}

// Detach removes e from its parent, if any.
func (e *Element) Detach() {
	if e.parent != nil {
		e.parent.RemoveChild(e)
	}
}

// SetText replaces the content of a text node.
func (e *Element) SetText(text string) {
	if e.text == text {
		return
	}
	e.text = text
	e.doc.record(Patch{Op: PatchSetText, HID: e.hid, Value: text})
}

// Attr returns the value of an attribute.
func (e *Element) Attr(name string) (string, bool) {
	v, ok := e.attrs[name]
	return v, ok
}

// SetAttr sets an attribute.
func (e *Element) SetAttr(name, value string) {
	if old, ok := e.attrs[name]; ok && old == value {
		return
	}
	if e.attrs == nil {
		e.attrs = make(map[string]string)
	}
	e.attrs[name] = value
	e.doc.record(Patch{Op: PatchSetAttr, HID: e.hid, Key: name, Value: value})
}

// RemoveAttr removes an attribute.
func (e *Element) RemoveAttr(name string) {
	if _, ok := e.attrs[name]; !ok {
		return
	}
	delete(e.attrs, name)
	e.doc.record(Patch{Op: PatchRemoveAttr, HID: e.hid, Key: name})
}

func (e *Element) setHandler(event string, handler any) {
	if e.handlers == nil {
		e.handlers = make(map[string]any)
	}
	e.handlers[strings.ToLower(event)] = handler
}

func (e *Element) removeHandler(event string) {
	delete(e.handlers, strings.ToLower(event))
}

// Dispatch invokes the handler registered for event ("click", "input").
// value is passed to func(string) handlers.
func (e *Element) Dispatch(event, value string) error {
	h, ok := e.handlers["on"+strings.ToLower(event)]
	if !ok {
		return fmt.Errorf("%w: %s on <%s %s>", ErrNoHandler, event, e.tag, e.hid)
	}
	switch fn := h.(type) {
	case func():
		fn()
	case func(string):
		fn(value)
	default:
		return fmt.Errorf("vdom: unsupported handler type %T for %s", h, event)
	}
	return nil
}

// TextContent returns the concatenated text of e and its descendants.
func (e *Element) TextContent() string {
	if e.IsText() {
		return e.text
	}
	var sb strings.Builder
	for _, child := range e.children {
		sb.WriteString(child.TextContent())
	}
	return sb.String()
}

// InnerHTML serializes the children of e.
func (e *Element) InnerHTML() string {
	var sb strings.Builder
	for _, child := range e.children {
		child.writeHTML(&sb)
	}
	return sb.String()
}

// HTML serializes e and its descendants.
func (e *Element) HTML() string {
	var sb strings.Builder
	e.writeHTML(&sb)
	return sb.String()
}

func (e *Element) writeHTML(sb *strings.Builder) {
	if e.IsText() {
		sb.WriteString(html.EscapeString(e.text))
		return
	}
	sb.WriteByte('<')
	sb.WriteString(e.tag)
	names := make([]string, 0, len(e.attrs))
	for name := range e.attrs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		sb.WriteByte(' ')
		sb.WriteString(name)
		if v := e.attrs[name]; v != "" {
			sb.WriteString(`="`)
			sb.WriteString(html.EscapeString(v))
			sb.WriteByte('"')
		}
	}
	sb.WriteByte('>')
	if IsVoidElement(e.tag) {
		return
	}
	for _, child := range e.children {
		child.writeHTML(sb)
	}
	sb.WriteString("</")
	sb.WriteString(e.tag)
	sb.WriteByte('>')
}

func (e *Element) indexOf(child *Element) int {
	for i, c := range e.children {
		if c == child {
			return i
		}
	}
	return -1
}

func (e *Element) detach(child *Element) {
	if i := e.indexOf(child); i >= 0 {
		e.children = append(e.children[:i], e.children[i+1:]...)
	}
	child.parent = nil
}

// asElement converts a runtime host node back to an Element.
func asElement(h runtime.HostNode) *Element {
	e, _ := h.(*Element)
	return e
}

// hostNode converts an anchor to a runtime.HostNode, keeping nil untyped.
func hostNode(e *Element) runtime.HostNode {
	if e == nil {
		return nil
	}
	return e
}
