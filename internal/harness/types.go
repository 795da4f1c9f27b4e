package harness

import "fmt"

// Trace event kinds.
const (
	KindStep       = "step"
	KindDispatch   = "dispatch"
	KindTransition = "transition"
	KindListener   = "listener"
)

// TraceEvent is one observed event.
type TraceEvent struct {
	Seq  int64  `json:"seq"`
	Kind string `json:"kind"`

	// Action is the store action type (dispatch) or navigation action
	// (transition, listener).
	Action string `json:"action,omitempty"`

	// Path is the location's pathname+search+hash, or the step description
	// for step events.
	Path string `json:"path,omitempty"`

	// Key is the location key, when there is one.
	Key string `json:"key,omitempty"`
}

// Label renders the event as "kind path", the form trace_order matches.
func (e TraceEvent) Label() string {
	if e.Path == "" {
		return e.Kind
	}
	return e.Kind + " " + e.Path
}

// String implements fmt.Stringer.
func (e TraceEvent) String() string {
	return fmt.Sprintf("[%d] %s %s %s %s", e.Seq, e.Kind, e.Action, e.Path, e.Key)
}

// LocationSnapshot describes a location in a result.
type LocationSnapshot struct {
	Path   string `json:"path"`
	Action string `json:"action"`
	Key    string `json:"key,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	Pass bool `json:"pass"`

	// Session is the journal session the run recorded into.
	Session string `json:"session"`

	// Trace contains every observed event in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains step and assertion failures.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// HistoryLocation and StoreLocation are the final locations.
	HistoryLocation LocationSnapshot `json:"history_location"`
	StoreLocation   LocationSnapshot `json:"store_location"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Count returns the number of events of kind.
func (r *Result) Count(kind string) int {
	n := 0
	for _, e := range r.Trace {
		if e.Kind == kind {
			n++
		}
	}
	return n
}
