// Package selection tracks the one contact focused across the list, the
// conversation pane and the info panel.
package selection

import (
	"fmt"
	"sync"

	"github.com/pdxmph/leadbox/internal/crm"
	"github.com/pdxmph/leadbox/internal/directory"
)

// Directory is the part of the contact directory the coordinator needs
type Directory interface {
	Has(id string) bool
	Subscribe(fn func(directory.Event)) func()
}

// Selection is the observable state: the selected id, if any
type Selection struct {
	ID    string
	Valid bool
}

// Coordinator owns the current selection and notifies listeners when it changes
type Coordinator struct {
	dir Directory

	mu      sync.Mutex
	current Selection

	listenMu  sync.Mutex
	listeners []listener
	nextID    int

	unsubscribe func()
}

type listener struct {
	id int
	fn func(Selection)
}

// New creates a coordinator bound to dir. A directory reload that drops the
// selected contact clears the selection.
func New(dir Directory) *Coordinator {
	c := &Coordinator{dir: dir}
	c.unsubscribe = dir.Subscribe(func(ev directory.Event) {
		if ev.Kind == directory.EventLoaded {
			c.reconcile()
		}
	})
	return c
}

// Close detaches the coordinator from the directory
func (c *Coordinator) Close() {
	if c.unsubscribe != nil {
		c.unsubscribe()
	}
}

// Select focuses the contact with the given id. The contact need not be
// visible under the active filter, but it must exist in the directory.
func (c *Coordinator) Select(id string) error {
	if !c.dir.Has(id) {
		return fmt.Errorf("selecting contact: %w: %s", crm.ErrNotFound, id)
	}
	c.set(Selection{ID: id, Valid: true})
	return nil
}

// Clear removes the selection
func (c *Coordinator) Clear() {
	c.set(Selection{})
}

// Current returns the selected id
func (c *Coordinator) Current() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current.ID, c.current.Valid
}

// Subscribe registers fn to be called with the new selection after every
// change. The returned func removes the listener.
func (c *Coordinator) Subscribe(fn func(Selection)) func() {
	c.listenMu.Lock()
	defer c.listenMu.Unlock()

	id := c.nextID
	c.nextID++
	c.listeners = append(c.listeners, listener{id: id, fn: fn})

	return func() {
		c.listenMu.Lock()
		defer c.listenMu.Unlock()
		for i, l := range c.listeners {
			if l.id == id {
				c.listeners = append(c.listeners[:i], c.listeners[i+1:]...)
				return
			}
		}
	}
}

func (c *Coordinator) set(next Selection) {
	c.mu.Lock()
	if c.current == next {
		c.mu.Unlock()
		return
	}
	c.current = next
	c.mu.Unlock()

	c.listenMu.Lock()
	listeners := append([]listener(nil), c.listeners...)
	c.listenMu.Unlock()

	for _, l := range listeners {
		l.fn(next)
	}
}

func (c *Coordinator) reconcile() {
	id, ok := c.Current()
	if ok && !c.dir.Has(id) {
		c.Clear()
	}
}
