package vdom

import (
	"fmt"
	"strconv"

	"github.com/vango-dev/loom/pkg/runtime"
)

// build creates the host nodes for v and inserts them into parent before
// anchor. Every vnode owns at least one host node: an empty fragment keeps
// an empty text placeholder.
func build(v *VNode, parent, anchor *Element) {
	doc := parent.doc
	switch v.Kind {
	case KindText:
		v.el = doc.CreateText(v.Text)
		parent.InsertBefore(v.el, anchor)

	case KindElement:
		el := doc.CreateElement(v.Tag)
		v.el = el
		parent.InsertBefore(el, anchor)
		for key, value := range v.Props {
			if isEventHandler(key) {
				el.setHandler(key, value)
				continue
			}
			if s, ok := attrValue(value); ok {
				el.SetAttr(key, s)
			}
		}
		for _, child := range v.Children {
			build(child, el, nil)
		}

	case KindFragment:
		if len(v.Children) == 0 {
			v.el = doc.CreateText("")
			parent.InsertBefore(v.el, anchor)
			return
		}
		for _, child := range v.Children {
			build(child, parent, anchor)
		}

	case KindSlot:
		v.Slot.Mount(parent, hostNode(anchor))
	}
}

// reconcile updates the host nodes of old, which live in parent, to match
// next. next takes over the host nodes it shares with old.
func reconcile(parent *Element, old, next *VNode, withBeforeRemove bool) {
	if !sameNode(old, next) {
		anchor := firstHost(old)
		build(next, parent, anchor)
		remove(old, withBeforeRemove)
		return
	}

	switch next.Kind {
	case KindText:
		next.el = old.el
		next.el.SetText(next.Text)

	case KindElement:
		next.el = old.el
		diffProps(next.el, old.Props, next.Props)
		reconcileChildren(next.el, old.Children, next.Children, nil, withBeforeRemove)

	case KindFragment:
		switch {
		case len(old.Children) == 0 && len(next.Children) == 0:
			next.el = old.el
		case len(old.Children) == 0:
			for _, child := range next.Children {
				build(child, parent, old.el)
			}
			old.el.Detach()
		case len(next.Children) == 0:
			next.el = parent.doc.CreateText("")
			parent.InsertBefore(next.el, firstHost(old))
			for _, child := range old.Children {
				remove(child, withBeforeRemove)
			}
		default:
			reconcileChildren(parent, old.Children, next.Children, endAnchor(old), withBeforeRemove)
		}

	case KindSlot:
		if old.Slot == next.Slot {
			next.Slot.Patch(next.Slot, withBeforeRemove)
			return
		}
		next.Slot.Mount(parent, hostNode(firstHost(old)))
		remove(old, withBeforeRemove)
	}
}

// reconcileChildren updates the host nodes of old to match next. The
// children sit in parent just before end (nil for the end of parent).
func reconcileChildren(parent *Element, old, next []*VNode, end *Element, withBeforeRemove bool) {
	if hasKeys(old) && hasKeys(next) {
		reconcileKeyed(parent, old, next, end, withBeforeRemove)
		return
	}

	common := len(old)
	if len(next) < common {
		common = len(next)
	}
	for i := 0; i < common; i++ {
		reconcile(parent, old[i], next[i], withBeforeRemove)
	}
	for i := common; i < len(next); i++ {
		build(next[i], parent, end)
	}
	for i := common; i < len(old); i++ {
		remove(old[i], withBeforeRemove)
	}
}

// reconcileKeyed matches children by key. Unmatched old children are
// removed first; the new list is then walked backwards, patching or
// building each child and moving it in front of its successor.
func reconcileKeyed(parent *Element, old, next []*VNode, end *Element, withBeforeRemove bool) {
	oldByKey := make(map[string]int, len(old))
	for i, o := range old {
		if _, dup := oldByKey[o.Key]; !dup {
			oldByKey[o.Key] = i
		}
	}

	used := make([]bool, len(old))
	matched := make([]*VNode, len(next))
	for i, n := range next {
		if j, ok := oldByKey[n.Key]; ok && !used[j] {
			used[j] = true
			matched[i] = old[j]
		}
	}

	for j, o := range old {
		if !used[j] {
			remove(o, withBeforeRemove)
		}
	}

	anchor := end
	for i := len(next) - 1; i >= 0; i-- {
		n := next[i]
		if o := matched[i]; o != nil {
			reconcile(parent, o, n, withBeforeRemove)
			moveBefore(parent, n, anchor)
		} else {
			build(n, parent, anchor)
		}
		if first := firstHost(n); first != nil {
			anchor = first
		}
	}
}

// moveBefore moves the host nodes of v in front of anchor unless they are
// already there.
func moveBefore(parent *Element, v *VNode, anchor *Element) {
	hs := hosts(v)
	if len(hs) == 0 {
		return
	}
	if last := hs[len(hs)-1]; last.parent == parent && last.NextSibling() == anchor {
		return
	}
	for _, h := range hs {
		parent.InsertBefore(h, anchor)
	}
}

// remove detaches the host nodes of v. With withBeforeRemove, embedded
// output trees are told first.
func remove(v *VNode, withBeforeRemove bool) {
	switch v.Kind {
	case KindText:
		v.el.Detach()
	case KindElement:
		if withBeforeRemove {
			for _, child := range v.Children {
				beforeRemove(child)
			}
		}
		v.el.Detach()
	case KindFragment:
		if len(v.Children) == 0 {
			v.el.Detach()
			return
		}
		for _, child := range v.Children {
			remove(child, withBeforeRemove)
		}
	case KindSlot:
		if withBeforeRemove {
			v.Slot.BeforeRemove()
		}
		v.Slot.Remove()
	}
}

// beforeRemove notifies every embedded output tree below v.
func beforeRemove(v *VNode) {
	if v.Kind == KindSlot {
		v.Slot.BeforeRemove()
		return
	}
	for _, child := range v.Children {
		beforeRemove(child)
	}
}

// firstHost returns the first host node of v.
func firstHost(v *VNode) *Element {
	switch v.Kind {
	case KindFragment:
		if len(v.Children) == 0 {
			return v.el
		}
		return firstHost(v.Children[0])
	case KindSlot:
		return asElement(v.Slot.FirstNode())
	default:
		return v.el
	}
}

// hosts returns the top-level host nodes of v in order.
func hosts(v *VNode) []*Element {
	switch v.Kind {
	case KindFragment:
		if len(v.Children) == 0 {
			return []*Element{v.el}
		}
		var out []*Element
		for _, child := range v.Children {
			out = append(out, hosts(child)...)
		}
		return out
	case KindSlot:
		if hn, ok := v.Slot.(interface{ HostNodes() []runtime.HostNode }); ok {
			var out []*Element
			for _, h := range hn.HostNodes() {
				if e := asElement(h); e != nil {
					out = append(out, e)
				}
			}
			return out
		}
		if e := asElement(v.Slot.FirstNode()); e != nil {
			return []*Element{e}
		}
		return nil
	default:
		return []*Element{v.el}
	}
}

// endAnchor returns the host node right after the last host node of v.
func endAnchor(v *VNode) *Element {
	hs := hosts(v)
	if len(hs) == 0 {
		return nil
	}
	return hs[len(hs)-1].NextSibling()
}

// sameNode reports whether next can be patched over old instead of
// replacing it.
func sameNode(old, next *VNode) bool {
	if old.Kind != next.Kind || old.Key != next.Key {
		return false
	}
	if old.Kind == KindElement && old.Tag != next.Tag {
		return false
	}
	return true
}

// diffProps brings the attributes and handlers of el from old to next.
func diffProps(el *Element, old, next Props) {
	for key, value := range next {
		if isEventHandler(key) {
			el.setHandler(key, value)
			continue
		}
		if prev, had := old[key]; had && propsEqual(prev, value) {
			continue
		}
		if s, ok := attrValue(value); ok {
			el.SetAttr(key, s)
		} else {
			el.RemoveAttr(key)
		}
	}
	for key := range old {
		if _, ok := next[key]; ok {
			continue
		}
		if isEventHandler(key) {
			el.removeHandler(key)
		} else {
			el.RemoveAttr(key)
		}
	}
}

// hasKeys returns true if every child has a key.
func hasKeys(children []*VNode) bool {
	if len(children) == 0 {
		return false
	}
	for _, child := range children {
		if child.Key == "" {
			return false
		}
	}
	return true
}

// propsEqual compares two prop values for equality.
func propsEqual(a, b any) bool {
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case int:
		bv, ok := b.(int)
		return ok && av == bv
	case int64:
		bv, ok := b.(int64)
		return ok && av == bv
	case float64:
		bv, ok := b.(float64)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case nil:
		return b == nil
	default:
		return propToString(a) == propToString(b)
	}
}

// attrValue converts a prop to its attribute text. A false or nil prop
// means the attribute is absent; true renders as a bare attribute.
func attrValue(v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case bool:
		return "", val
	default:
		return propToString(v), true
	}
}

// propToString converts a prop value to string.
func propToString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		if val {
			return "true"
		}
		return "false"
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}
