package vdom

import (
	"fmt"
	"sync"
)

// HIDGenerator generates unique host IDs for host nodes.
type HIDGenerator struct {
	counter uint32
	mu      sync.Mutex
}

// NewHIDGenerator creates a new HIDGenerator.
func NewHIDGenerator() *HIDGenerator {
	return &HIDGenerator{}
}

// Next returns the next host ID (e.g., "h1", "h2", ...).
func (g *HIDGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counter++
	return fmt.Sprintf("h%d", g.counter)
}

// Current returns the current counter value without incrementing.
func (g *HIDGenerator) Current() uint32 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.counter
}

// FindByHID returns the attached host node with the given ID, or nil.
func (d *Document) FindByHID(hid string) *Element {
	return d.body.find(func(e *Element) bool { return e.hid == hid })
}

// GetElementByID returns the first attached element whose id attribute
// matches, or nil.
func (d *Document) GetElementByID(id string) *Element {
	return d.body.find(func(e *Element) bool {
		v, ok := e.attrs["id"]
		return ok && v == id
	})
}

func (e *Element) find(match func(*Element) bool) *Element {
	if match(e) {
		return e
	}
	for _, child := range e.children {
		if found := child.find(match); found != nil {
			return found
		}
	}
	return nil
}
