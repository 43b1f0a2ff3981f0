// Package binding implements the refresh cycle that keeps dependent widgets
// in step with slow, out-of-order remote option data: debounced triggers,
// token-stamped fetches, and race-free application of the newest result.
package binding

// Params is an immutable snapshot of the driving-widget values at the moment
// a fetch is issued. Created fresh per fetch attempt, never mutated after.
type Params map[string]string

// Get returns the named parameter or the empty string.
func (p Params) Get(key string) string {
	return p[key]
}

// ResultKind tags the outcome of one remote fetch.
type ResultKind int

const (
	// ResultSuccess carries a non-empty option list. Zero-row successes are
	// normalized to ResultEmpty at the remote boundary, so the controller
	// never sees an empty Success.
	ResultSuccess ResultKind = iota
	// ResultEmpty means the query was valid but matched nothing.
	ResultEmpty
	// ResultError covers network, protocol and semantic failures.
	ResultError
	// ResultInfo is the non-fatal cousin of ResultError, e.g. input that is
	// not yet sufficient to query. Same widget treatment, different logging.
	ResultInfo
)

// Result is the normalized outcome of one fetch. Exactly one of Options
// (Success) or Message (everything else) is meaningful.
type Result struct {
	Kind    ResultKind
	Options []string
	Meta    map[string]string
	Message string
}

// Success builds a successful result. Meta carries auxiliary fields needed
// by dependent computations (e.g. subfolder/type for a preview URL).
func Success(options []string, meta map[string]string) Result {
	return Result{Kind: ResultSuccess, Options: options, Meta: meta}
}

// Empty builds a no-rows result shown as a single placeholder option.
func Empty(placeholder string) Result {
	return Result{Kind: ResultEmpty, Message: placeholder}
}

// Error builds a failure result shown as a single sentinel option.
func Error(message string) Result {
	return Result{Kind: ResultError, Message: message}
}

// Info builds a deferred-input result shown as a single sentinel option.
func Info(message string) Result {
	return Result{Kind: ResultInfo, Message: message}
}

// Sentinel strings shown in place of real options during transitional or
// failure states.
const (
	LoadingSentinel = "Loading..."
	TimeoutSentinel = "Request Timeout"
)
