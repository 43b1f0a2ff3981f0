package binding

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"nodesync/logger"
	"nodesync/widgets"

	"github.com/google/uuid"
	"github.com/hako/durafmt"
)

// Fetcher is one backend query: given the current input snapshot it returns
// a normalized Result. It never panics and never returns a naked error; all
// failure paths resolve to a Result variant at the remote boundary.
type Fetcher interface {
	Fetch(ctx context.Context, params Params) Result
}

// FetchFunc adapts a function to the Fetcher interface.
type FetchFunc func(ctx context.Context, params Params) Result

func (f FetchFunc) Fetch(ctx context.Context, params Params) Result {
	return f(ctx, params)
}

// Options tunes one controller instance.
type Options struct {
	// Debounce is the quiet period between a trigger and the fetch. Zero
	// refreshes immediately.
	Debounce time.Duration
	// Timeout bounds each fetch. Zero means DefaultTimeout.
	Timeout time.Duration
	// OnApplied runs after a Success result has been applied to the target,
	// outside the controller lock. value is the value that ended up selected.
	OnApplied func(res Result, value string)
	// OnSelected runs after the user picks a value on the target widget and
	// the selection has been recorded.
	OnSelected func(value string)
	// Disallowed reports whether the driving mode currently makes the target
	// widget meaningless (e.g. a "random" mode). It is consulted when a fetch
	// is issued and again when its result is applied, so a mode switch during
	// a slow fetch is never undone by the apply.
	Disallowed func() bool
}

// DefaultTimeout bounds a fetch when Options.Timeout is zero.
const DefaultTimeout = 25 * time.Second

// Controller keeps one dependent widget synchronized with one remote query
// driven by other widgets on the same node. One controller is constructed
// per node instance and torn down with it; there is no state shared across
// nodes.
//
// A trigger snapshots the driving values, stamps a new fetch token, shows
// the loading sentinel and fetches asynchronously. A result is applied iff
// its token is still the latest one issued; anything older is dropped
// unchanged. New triggers are always accepted while a fetch is in flight,
// the token check alone enforces causal order.
type Controller struct {
	name       string
	id         string
	fetcher    Fetcher
	target     *widgets.Widget
	snapshot   func() Params
	surface    widgets.Surface
	debouncer  *Debouncer
	timeout    time.Duration
	onApplied  func(Result, string)
	onSelected func(string)
	disallowed func() bool
	log        *slog.Logger

	mu     sync.Mutex
	token  uint64
	memory map[string]string // last user-confirmed value per widget name
	meta   map[string]string // meta of the last applied Success
	closed bool
}

// New constructs a controller for one dependent widget. snapshot must return
// a fresh Params for every call; it runs under the controller lock and must
// not block.
func New(name string, fetcher Fetcher, target *widgets.Widget, snapshot func() Params, surface widgets.Surface, opts Options) *Controller {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Controller{
		name:       name,
		id:         uuid.New().String(),
		fetcher:    fetcher,
		target:     target,
		snapshot:   snapshot,
		surface:    surface,
		debouncer:  NewDebouncer(opts.Debounce),
		timeout:    timeout,
		onApplied:  opts.OnApplied,
		onSelected: opts.OnSelected,
		disallowed: opts.Disallowed,
		memory:     make(map[string]string),
	}
	c.log = logger.Binding(name, c.id)

	// A value restored from a saved graph counts as the user's confirmed
	// selection, so the first refresh keeps it when it is still offered.
	if v := target.Value(); v != "" {
		c.memory[target.Name()] = v
	}

	// The controller owns the target's one change handler: a user pick is
	// the selection we must preserve across later refreshes.
	target.OnChange(func(value string) {
		c.mu.Lock()
		c.memory[c.target.Name()] = value
		c.mu.Unlock()
		if c.onSelected != nil {
			c.onSelected(value)
		}
	})

	return c
}

// BindTrigger makes edits to the given driving widget schedule a refresh.
// The widget's one change handler is replaced.
func (c *Controller) BindTrigger(w *widgets.Widget) {
	w.OnChange(func(string) {
		c.Trigger()
	})
}

// Trigger schedules a debounced refresh.
func (c *Controller) Trigger() {
	c.debouncer.Schedule(c.Refresh)
}

// Refresh starts a new fetch cycle immediately: snapshot, new token, loading
// sentinel, asynchronous fetch.
func (c *Controller) Refresh() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.token++
	token := c.token
	params := c.snapshot()
	c.target.SetOptions([]string{LoadingSentinel})
	c.target.SetValue(LoadingSentinel)
	if c.disallowed != nil && c.disallowed() {
		c.target.SetEnabled(false)
	}
	c.mu.Unlock()

	c.log.Debug("Issuing fetch", "token", token, "params", map[string]string(params))
	started := time.Now()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()
		res := c.fetcher.Fetch(ctx, params)
		c.apply(token, res, started)
	}()
}

// apply installs a fetch result, unless a newer fetch was issued meanwhile.
func (c *Controller) apply(token uint64, res Result, started time.Time) {
	elapsed := durafmt.Parse(time.Since(started).Truncate(time.Millisecond)).String()

	c.mu.Lock()
	if c.closed || token != c.token {
		c.mu.Unlock()
		c.log.Debug("Discarding stale result", "token", token, "elapsed", elapsed)
		return
	}

	var selected string
	switch res.Kind {
	case ResultSuccess:
		c.target.SetOptions(res.Options)
		remembered, ok := c.memory[c.target.Name()]
		if ok && c.target.HasOption(remembered) {
			// The user's prior explicit choice survives the refresh; set it
			// without firing the change handler.
			selected = remembered
		} else {
			selected = res.Options[0]
			c.memory[c.target.Name()] = selected
		}
		c.target.SetValue(selected)
		c.target.SetEnabled(c.disallowed == nil || !c.disallowed())
		c.meta = res.Meta
	case ResultEmpty, ResultError, ResultInfo:
		// One sentinel option, widget disabled. SelectionMemory is left
		// untouched so a later successful refresh can restore the user's
		// last good selection.
		c.target.SetOptions([]string{res.Message})
		c.target.SetValue(res.Message)
		c.target.SetEnabled(false)
	}
	c.mu.Unlock()

	switch res.Kind {
	case ResultSuccess:
		c.log.Debug("Applied refresh", "token", token, "options", len(res.Options), "value", selected, "elapsed", elapsed)
	case ResultError:
		c.log.Error("Fetch failed", "token", token, "message", res.Message, "elapsed", elapsed)
	default:
		c.log.Debug("Applied sentinel", "token", token, "message", res.Message, "elapsed", elapsed)
	}

	c.surface.RequestRepaint()

	if res.Kind == ResultSuccess && c.onApplied != nil {
		c.onApplied(res, selected)
	}
}

// Selection returns the remembered user selection for the target widget.
func (c *Controller) Selection() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.memory[c.target.Name()]
	return v, ok
}

// Meta returns a copy of the meta map from the last applied Success.
func (c *Controller) Meta() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	meta := make(map[string]string, len(c.meta))
	for k, v := range c.meta {
		meta[k] = v
	}
	return meta
}

// Target returns the dependent widget this controller manages.
func (c *Controller) Target() *widgets.Widget {
	return c.target
}

// Close tears the controller down with its node: pending debounced triggers
// are cancelled and any in-flight result will be dropped.
func (c *Controller) Close() {
	c.debouncer.Stop()
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}
