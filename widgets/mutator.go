package widgets

import "fmt"

// Factory builds the replacement widget for a type swap. It receives the
// preserved name and the old widget's value as the seed value, which is what
// keeps previously saved graphs restoring correctly.
type Factory func(name, value string, surface Surface) *Widget

// ComboFactory returns a Factory producing an Enumerable widget whose option
// list starts as just the seed value.
func ComboFactory() Factory {
	return func(name, value string, surface Surface) *Widget {
		return NewWidget(name, Enumerable, value, []string{value}, surface)
	}
}

// TextFactory returns a Factory producing a FreeText widget.
func TextFactory() Factory {
	return func(name, value string, surface Surface) *Widget {
		return NewWidget(name, FreeText, value, nil, surface)
	}
}

// Replace swaps the named widget for a new implementation with a richer
// affordance (free text to combo, or back). The replacement keeps the
// widget's name, its position in the control list, and its current value.
//
// The swap happens at most once per node lifetime for a given slot: on
// re-entry the current widget is returned unchanged, which guards against
// the duplicate-replacement bug class on repeated node creation hooks.
func (n *Node) Replace(name string, factory Factory) (*Widget, error) {
	n.mu.Lock()
	index := n.indexOf(name)
	if index < 0 {
		n.mu.Unlock()
		return nil, fmt.Errorf("node %q has no widget named %q to replace", n.title, name)
	}
	if n.replaced[name] {
		w := n.widgets[index]
		n.mu.Unlock()
		return w, nil
	}

	// Read the seed value before removal. The node lock is also the
	// widget's field lock, so the direct read is safe here.
	seed := n.widgets[index].value

	n.remove(index)
	replacement := factory(name, seed, n.surface)
	replacement.mu = &n.mu
	n.spliceAt(index, replacement)
	n.replaced[name] = true
	n.mu.Unlock()

	if n.surface != nil {
		n.surface.MarkDirty()
	}
	return replacement, nil
}

// Replaced reports whether the named slot has already been swapped.
func (n *Node) Replaced(name string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.replaced[name]
}
