// Package vdom provides the render output used by loom components.
//
// A component render returns a Block wrapping a VNode tree. The runtime
// mounts blocks into host Elements and patches them in place when a newer
// render commits. Host Elements live in a Document, an in-memory host tree
// that records every mutation as a Patch.
//
// # Core Types
//
// VNode represents elements, text, fragments and slots. A slot embeds
// another output tree, usually a child component created with
// RenderContext.Child. Props holds attributes and event handlers. Attr and
// EventHandler are used to build Props.
//
// # Element API
//
// Elements are created using variadic factory functions:
//
//	Div(Class("card"), ID("main"),
//	    H1(Text("Title")),
//	    Embed(ctx.Child("body", body, nil)),
//	    OnClick(handler),
//	)
//
// # Reconciliation
//
// Patching compares the committed tree with the next one and mutates the
// host nodes in place. Keyed reconciliation is used when every sibling has
// a key; otherwise children are matched by position. Embedded output trees
// patch themselves, and trees that disappear are told with BeforeRemove
// before their host nodes go.
//
// # Events
//
// Element.Dispatch invokes the handler registered with OnClick, OnInput or
// On. Handlers are func() or func(string).
package vdom
