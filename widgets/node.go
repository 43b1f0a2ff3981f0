package widgets

import (
	"fmt"
	"sync"
)

// Node owns the ordered widget collection of one graph node. Widgets are
// created with the node and live until it is removed; everything else holds
// non-owning references looked up by name.
//
// The node's lock doubles as the lock of every widget it owns, so list
// changes and widget field mutation serialize on the same mutex.
type Node struct {
	title   string
	surface Surface

	mu       sync.Mutex
	widgets  []*Widget
	replaced map[string]bool
}

func NewNode(title string, surface Surface) *Node {
	return &Node{
		title:    title,
		surface:  surface,
		replaced: make(map[string]bool),
	}
}

func (n *Node) Title() string    { return n.title }
func (n *Node) Surface() Surface { return n.surface }

// AddWidget creates a widget and appends it to the node.
func (n *Node) AddWidget(name string, kind Kind, value string, options []string) *Widget {
	w := NewWidget(name, kind, value, options, n.surface)
	w.mu = &n.mu
	n.mu.Lock()
	n.widgets = append(n.widgets, w)
	n.mu.Unlock()
	return w
}

// Find returns the widget with the given name.
func (n *Node) Find(name string) (*Widget, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, w := range n.widgets {
		if w.name == name {
			return w, true
		}
	}
	return nil, false
}

// MustFind returns the named widget or an error naming the node, for wiring
// code that cannot proceed without it.
func (n *Node) MustFind(name string) (*Widget, error) {
	w, ok := n.Find(name)
	if !ok {
		return nil, fmt.Errorf("node %q has no widget named %q", n.title, name)
	}
	return w, nil
}

// IndexOf returns the position of the named widget, or -1.
func (n *Node) IndexOf(name string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.indexOf(name)
}

func (n *Node) indexOf(name string) int {
	for i, w := range n.widgets {
		if w.name == name {
			return i
		}
	}
	return -1
}

// Widgets returns the widgets in display/serialization order.
func (n *Node) Widgets() []*Widget {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]*Widget(nil), n.widgets...)
}

// remove and spliceAt are called with n.mu held.

func (n *Node) remove(index int) *Widget {
	w := n.widgets[index]
	n.widgets = append(n.widgets[:index], n.widgets[index+1:]...)
	return w
}

func (n *Node) spliceAt(index int, w *Widget) {
	n.widgets = append(n.widgets, nil)
	copy(n.widgets[index+1:], n.widgets[index:])
	n.widgets[index] = w
}
