// Package widgets models the interactive controls of one graph node: typed
// values, ordered option lists for enumerable controls, enabled/visible
// flags, and a single change handler per widget. The hosting editor owns
// rendering; mutations here only mark the host surface dirty.
package widgets

import "sync"

// Kind identifies how a widget accepts input.
type Kind int

const (
	// Enumerable widgets hold one value out of an ordered option list.
	Enumerable Kind = iota
	// FreeText widgets hold an arbitrary string.
	FreeText
)

// Surface is the narrow view of the hosting editor a widget needs. MarkDirty
// is called on every mutation; RequestRepaint asks for an actual redraw and
// is issued by the controller, once per applied refresh.
type Surface interface {
	MarkDirty()
	RequestRepaint()
}

// ChangeHandler is invoked when the user edits a widget. Programmatic
// setters never invoke it.
type ChangeHandler func(value string)

// Widget is one interactive control. The name is unique per node and stable
// across type replacement.
//
// All mutable fields are guarded by mu. Widgets on the same node share the
// node's lock, so the host's edits and the controllers' asynchronous result
// applies are serialized against each other, including across sibling
// controllers driving different widgets of one node.
type Widget struct {
	name    string
	kind    Kind
	surface Surface

	mu      *sync.Mutex
	value   string
	options []string
	enabled bool
	visible bool
	handler ChangeHandler
}

// NewWidget creates an enabled, visible widget. Options only apply to
// Enumerable widgets. A standalone widget gets its own lock; AddWidget and
// Replace attach the owning node's lock instead.
func NewWidget(name string, kind Kind, value string, options []string, surface Surface) *Widget {
	w := &Widget{
		name:    name,
		kind:    kind,
		value:   value,
		enabled: true,
		visible: true,
		surface: surface,
		mu:      &sync.Mutex{},
	}
	if kind == Enumerable {
		w.options = append([]string(nil), options...)
	}
	return w
}

func (w *Widget) Name() string { return w.name }
func (w *Widget) Kind() Kind   { return w.kind }

func (w *Widget) Value() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.value
}

func (w *Widget) Enabled() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.enabled
}

func (w *Widget) Visible() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.visible
}

// Options returns a copy of the allowed option list.
func (w *Widget) Options() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.options...)
}

// HasOption reports whether v is in the current option list.
func (w *Widget) HasOption(v string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.hasOption(v)
}

func (w *Widget) hasOption(v string) bool {
	for _, option := range w.options {
		if option == v {
			return true
		}
	}
	return false
}

// SetValue sets the widget value programmatically. For Enumerable widgets a
// value outside the option list is silently ignored; callers validate first.
// The change handler is not invoked.
func (w *Widget) SetValue(v string) {
	w.mu.Lock()
	if w.kind == Enumerable && !w.hasOption(v) {
		w.mu.Unlock()
		return
	}
	w.value = v
	w.mu.Unlock()
	w.markDirty()
}

// SetOptions replaces the allowed option set. The current value is never
// reassigned implicitly; if it is absent from the new set the caller must
// set it explicitly.
func (w *Widget) SetOptions(options []string) {
	w.mu.Lock()
	w.options = append([]string(nil), options...)
	w.mu.Unlock()
	w.markDirty()
}

func (w *Widget) SetEnabled(enabled bool) {
	w.mu.Lock()
	w.enabled = enabled
	w.mu.Unlock()
	w.markDirty()
}

func (w *Widget) SetVisible(visible bool) {
	w.mu.Lock()
	w.visible = visible
	w.mu.Unlock()
	w.markDirty()
}

// OnChange registers the widget's change handler. Re-registering replaces the
// previous handler, it never stacks.
func (w *Widget) OnChange(handler ChangeHandler) {
	w.mu.Lock()
	w.handler = handler
	w.mu.Unlock()
}

// Edit simulates a user edit: the value is set (subject to the same option
// validation as SetValue) and the change handler fires. The handler runs
// outside the widget lock.
func (w *Widget) Edit(v string) {
	w.mu.Lock()
	if w.kind == Enumerable && !w.hasOption(v) {
		w.mu.Unlock()
		return
	}
	w.value = v
	handler := w.handler
	w.mu.Unlock()
	w.markDirty()
	if handler != nil {
		handler(v)
	}
}

// markDirty runs without the widget lock held, so the surface is free to
// take its own locks and read widget state back.
func (w *Widget) markDirty() {
	if w.surface != nil {
		w.surface.MarkDirty()
	}
}
