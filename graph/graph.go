// Package graph mirrors the widgets of supported nodes in a ComfyUI
// workflow into named widget sets the binding engine can drive, and writes
// applied values back into the graph's positional widget values.
package graph

import (
	"fmt"
	"sync"

	"nodesync/logger"
	"nodesync/widgets"

	"github.com/richinsley/comfy2go/client"
	"github.com/richinsley/comfy2go/graphapi"
)

type widgetSpec struct {
	name string
	kind widgets.Kind
}

// schemas maps supported node types to their widget layout, by position in
// the node's widget value list.
var schemas = map[string][]widgetSpec{
	"AnimeCharacterSelector": {
		{"characters_from", widgets.Enumerable},
		{"character", widgets.Enumerable},
	},
	"ImageLoaderEnhanced": {
		{"directory", widgets.Enumerable},
		{"mode", widgets.Enumerable},
		{"filename", widgets.Enumerable},
	},
	"BooruImageLoader": {
		{"website", widgets.Enumerable},
		{"mode", widgets.Enumerable},
		{"tags", widgets.FreeText},
		{"save_to", widgets.FreeText},
		{"page_number", widgets.FreeText},
		{"selected_image_url", widgets.Enumerable},
	},
	"LoraLoaderAndKeywords": {
		{"lora_name", widgets.Enumerable},
		{"lora_strength", widgets.FreeText},
		{"trigger_word", widgets.FreeText},
	},
}

// Bound is one workflow node mirrored into a named widget set.
type Bound struct {
	NodeType string
	Node     *widgets.Node
	source   *graphapi.GraphNode
	indexes  map[string]int
	writable map[string]bool
}

// Editor loads a workflow through comfy2go and maintains the two-way widget
// mirror. It implements widgets.Surface for the mirrored nodes: repaint
// requests flush changed values back into the graph.
type Editor struct {
	client *client.ComfyClient
	graph  *graphapi.Graph

	mu    sync.Mutex
	bound []*Bound
	dirty bool
}

// Load connects to the backend and mirrors all supported nodes of the
// workflow file.
func Load(addr string, port int, workflowFile string) (*Editor, error) {
	c := client.NewComfyClient(addr, port, nil)
	if !c.IsInitialized() {
		if err := c.Init(); err != nil {
			return nil, fmt.Errorf("error initializing client: %w", err)
		}
	}

	g, _, err := c.NewGraphFromJsonFile(workflowFile)
	if err != nil {
		return nil, fmt.Errorf("error loading graph JSON: %w", err)
	}

	e := &Editor{client: c, graph: g}
	for _, node := range g.Nodes {
		specs, supported := schemas[node.Type]
		if !supported {
			continue
		}
		values, ok := node.WidgetValues.([]interface{})
		if !ok {
			logger.Warn("Node has no positional widget values, skipping", "type", node.Type, "title", node.Title)
			continue
		}

		title := node.Title
		if title == "" {
			title = node.Type
		}
		mirror := widgets.NewNode(title, e)
		b := &Bound{
			NodeType: node.Type,
			Node:     mirror,
			source:   node,
			indexes:  make(map[string]int),
			writable: make(map[string]bool),
		}
		for i, spec := range specs {
			if i >= len(values) {
				break
			}
			value := fmt.Sprint(values[i])
			var options []string
			if spec.kind == widgets.Enumerable {
				options = []string{value}
			}
			mirror.AddWidget(spec.name, spec.kind, value, options)
			b.indexes[spec.name] = i
			_, isString := values[i].(string)
			b.writable[spec.name] = isString
		}
		e.bound = append(e.bound, b)
		logger.Debug("Mirrored node", "type", node.Type, "title", title, "widgets", len(b.indexes))
	}

	return e, nil
}

// Bound returns the mirrored nodes.
func (e *Editor) Bound() []*Bound {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*Bound(nil), e.bound...)
}

// Client exposes the underlying comfy2go client.
func (e *Editor) Client() *client.ComfyClient {
	return e.client
}

// MarkDirty implements widgets.Surface.
func (e *Editor) MarkDirty() {
	e.mu.Lock()
	e.dirty = true
	e.mu.Unlock()
}

// RequestRepaint implements widgets.Surface: the mirror's string values are
// written back into the graph nodes' widget value lists.
func (e *Editor) RequestRepaint() {
	e.Flush()
}

// Flush writes changed mirror values back into the workflow graph. Only
// slots that held strings to begin with are written; numeric widget values
// are never touched by the engine.
func (e *Editor) Flush() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.dirty {
		return
	}
	for _, b := range e.bound {
		values, ok := b.source.WidgetValues.([]interface{})
		if !ok {
			continue
		}
		for _, w := range b.Node.Widgets() {
			index, ok := b.indexes[w.Name()]
			if !ok || !b.writable[w.Name()] || index >= len(values) {
				continue
			}
			if current, _ := values[index].(string); current != w.Value() {
				values[index] = w.Value()
			}
		}
	}
	e.dirty = false
}
