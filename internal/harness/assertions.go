package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/routesync/internal/routing"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, event := range e.Trace {
		fmt.Fprintf(&buf, "  %s\n", event)
	}

	return buf.String()
}

// EvaluateAssertions checks every assertion and returns the failure
// messages, in assertion order.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluate(result, a); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func evaluate(result *Result, a Assertion) error {
	switch a.Type {
	case AssertTransitions:
		return assertCount(result.Trace, a, result.Count(KindTransition))
	case AssertDispatches:
		return assertCount(result.Trace, a, countDispatches(result.Trace))
	case AssertListenerCalls:
		return assertCount(result.Trace, a, result.Count(KindListener))
	case AssertLocation:
		return assertLocation(result, a)
	case AssertTraceOrder:
		return assertTraceOrder(result.Trace, a)
	default:
		return fmt.Errorf("unknown assertion type: %s", a.Type)
	}
}

// countDispatches counts LOCATION_CHANGE actions that reached the reducer.
func countDispatches(trace []TraceEvent) int {
	n := 0
	for _, e := range trace {
		if e.Kind == KindDispatch && e.Action == routing.LocationChangeType {
			n++
		}
	}
	return n
}

func assertCount(trace []TraceEvent, a Assertion, actual int) error {
	if a.Count == nil || *a.Count == actual {
		return nil
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: fmt.Sprintf("%d", *a.Count),
		Actual:   fmt.Sprintf("%d", actual),
		Trace:    trace,
	}
}

// assertLocation checks that history and store both ended at the expected
// location.
func assertLocation(result *Result, a Assertion) error {
	want := a.Pathname + a.Search + a.Hash
	if result.HistoryLocation.Path == want && result.StoreLocation.Path == want {
		return nil
	}
	return &AssertionError{
		Type:     AssertLocation,
		Expected: fmt.Sprintf("history and store at %s", want),
		Actual:   fmt.Sprintf("history at %s, store at %s", result.HistoryLocation.Path, result.StoreLocation.Path),
		Trace:    result.Trace,
	}
}

// assertTraceOrder checks that events appear in the given relative order.
// Intervening events are allowed. An expected entry of just a kind matches
// any event of that kind.
func assertTraceOrder(trace []TraceEvent, a Assertion) error {
	next := 0
	for _, e := range trace {
		if next == len(a.Events) {
			break
		}
		if matchesEvent(e, a.Events[next]) {
			next++
		}
	}
	if next == len(a.Events) {
		return nil
	}
	return &AssertionError{
		Type:     AssertTraceOrder,
		Expected: fmt.Sprintf("events in order: %v", a.Events),
		Actual:   fmt.Sprintf("matched %d of %d, missing %q", next, len(a.Events), a.Events[next]),
		Trace:    trace,
	}
}

func matchesEvent(e TraceEvent, want string) bool {
	if !strings.Contains(want, " ") {
		return e.Kind == want
	}
	return e.Label() == want
}
