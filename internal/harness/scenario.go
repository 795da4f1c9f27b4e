package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"
)

// Scenario defines a navigation scenario: a starting history, a list of
// steps and assertions over the resulting trace and final location.
type Scenario struct {
	// Name uniquely identifies this scenario. Golden files are named after it.
	Name string `yaml:"name" json:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description" json:"description"`

	// Initial lists the pathnames on the history stack at start; the last
	// one is current. Defaults to ["/"].
	Initial []string `yaml:"initial,omitempty" json:"initial,omitempty"`

	// AdjustURLOnReplay toggles store-to-history sync. Defaults to true.
	AdjustURLOnReplay *bool `yaml:"adjust_url_on_replay,omitempty" json:"adjust_url_on_replay,omitempty"`

	// Session is an optional fixed journal session id.
	// If empty, defaults to "test-session-default".
	Session string `yaml:"session,omitempty" json:"session,omitempty"`

	// Steps run in order.
	Steps []Step `yaml:"steps" json:"steps"`

	// Assertions validate the final trace and location.
	// Supported types: transitions, dispatches, location, listener_calls, trace_order
	Assertions []Assertion `yaml:"assertions" json:"assertions"`
}

// Step is one operation. Exactly one field other than Path and N is set.
type Step struct {
	// Push pushes a pathname directly on the history.
	Push string `yaml:"push,omitempty" json:"push,omitempty"`

	// Replace replaces the current history entry.
	Replace string `yaml:"replace,omitempty" json:"replace,omitempty"`

	// Go moves the history by n entries.
	Go *int `yaml:"go,omitempty" json:"go,omitempty"`

	// Back and Forward are Go(-1) and Go(1).
	Back    bool `yaml:"back,omitempty" json:"back,omitempty"`
	Forward bool `yaml:"forward,omitempty" json:"forward,omitempty"`

	// Dispatch dispatches a LOCATION_CHANGE for a new location straight
	// into the store, as a store-originated change.
	Dispatch string `yaml:"dispatch,omitempty" json:"dispatch,omitempty"`

	// Travel time-travels the store to a journal seq.
	Travel *int64 `yaml:"travel,omitempty" json:"travel,omitempty"`

	// Call dispatches a history-method action (push, replace, go, goBack,
	// goForward) through the router middleware. Path and N are its
	// arguments.
	Call string `yaml:"call,omitempty" json:"call,omitempty"`
	Path string `yaml:"path,omitempty" json:"path,omitempty"`
	N    int    `yaml:"n,omitempty" json:"n,omitempty"`
}

// Op names the operation a step performs.
func (s Step) Op() string {
	var ops []string
	if s.Push != "" {
		ops = append(ops, "push")
	}
	if s.Replace != "" {
		ops = append(ops, "replace")
	}
	if s.Go != nil {
		ops = append(ops, "go")
	}
	if s.Back {
		ops = append(ops, "back")
	}
	if s.Forward {
		ops = append(ops, "forward")
	}
	if s.Dispatch != "" {
		ops = append(ops, "dispatch")
	}
	if s.Travel != nil {
		ops = append(ops, "travel")
	}
	if s.Call != "" {
		ops = append(ops, "call")
	}
	return strings.Join(ops, "+")
}

// Describe renders the step for traces, e.g. "push /a" or "travel 2".
func (s Step) Describe() string {
	switch s.Op() {
	case "push":
		return "push " + s.Push
	case "replace":
		return "replace " + s.Replace
	case "go":
		return fmt.Sprintf("go %d", *s.Go)
	case "back":
		return "back"
	case "forward":
		return "forward"
	case "dispatch":
		return "dispatch " + s.Dispatch
	case "travel":
		return fmt.Sprintf("travel %d", *s.Travel)
	case "call":
		switch s.Call {
		case "push", "replace":
			return fmt.Sprintf("call %s %s", s.Call, s.Path)
		case "go":
			return fmt.Sprintf("call go %d", s.N)
		default:
			return "call " + s.Call
		}
	default:
		return s.Op()
	}
}

// ParseStep parses the form Describe produces, e.g. "push /a",
// "go -2", "travel 3" or "call replace /b".
func ParseStep(line string) (Step, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Step{}, fmt.Errorf("empty step")
	}

	var step Step
	op, args := fields[0], fields[1:]
	switch op {
	case "push", "replace", "dispatch":
		if len(args) != 1 {
			return Step{}, fmt.Errorf("%s wants a path", op)
		}
		switch op {
		case "push":
			step.Push = args[0]
		case "replace":
			step.Replace = args[0]
		default:
			step.Dispatch = args[0]
		}
	case "go":
		if len(args) != 1 {
			return Step{}, fmt.Errorf("go wants a count")
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return Step{}, fmt.Errorf("go: %w", err)
		}
		step.Go = &n
	case "back", "forward":
		if len(args) != 0 {
			return Step{}, fmt.Errorf("%s takes no arguments", op)
		}
		step.Back = op == "back"
		step.Forward = op == "forward"
	case "travel":
		if len(args) != 1 {
			return Step{}, fmt.Errorf("travel wants a seq")
		}
		seq, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return Step{}, fmt.Errorf("travel: %w", err)
		}
		step.Travel = &seq
	case "call":
		if len(args) == 0 {
			return Step{}, fmt.Errorf("call wants a method")
		}
		step.Call = args[0]
		switch {
		case len(args) == 1:
		case len(args) == 2 && (step.Call == "push" || step.Call == "replace"):
			step.Path = args[1]
		case len(args) == 2 && step.Call == "go":
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return Step{}, fmt.Errorf("call go: %w", err)
			}
			step.N = n
		default:
			return Step{}, fmt.Errorf("call %s: unexpected arguments %v", step.Call, args[1:])
		}
	default:
		return Step{}, fmt.Errorf("unknown step %q%s", op, didYouMean(op, stepOps))
	}

	if err := validateStep(0, step); err != nil {
		return Step{}, err
	}
	return step, nil
}

// Assertion validates the trace or final location.
type Assertion struct {
	// Type specifies the assertion type:
	// - "transitions": number of transitions the engine issued
	// - "dispatches": number of LOCATION_CHANGE actions that reached the reducer
	// - "location": final history and store location
	// - "listener_calls": number of downstream listener calls
	// - "trace_order": events appear in this relative order
	Type string `yaml:"type" json:"type"`

	// Count is the expected number (transitions, dispatches, listener_calls).
	Count *int `yaml:"count,omitempty" json:"count,omitempty"`

	// Pathname, Search and Hash describe the expected location.
	Pathname string `yaml:"pathname,omitempty" json:"pathname,omitempty"`
	Search   string `yaml:"search,omitempty" json:"search,omitempty"`
	Hash     string `yaml:"hash,omitempty" json:"hash,omitempty"`

	// Events is the expected order (trace_order), each "kind" or
	// "kind path", e.g. "dispatch /a".
	Events []string `yaml:"events,omitempty" json:"events,omitempty"`
}

// Assertion type constants.
const (
	AssertTransitions   = "transitions"
	AssertDispatches    = "dispatches"
	AssertLocation      = "location"
	AssertListenerCalls = "listener_calls"
	AssertTraceOrder    = "trace_order"
)

// LoadScenario reads a scenario file, choosing YAML or CUE by extension.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario *Scenario
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue":
		scenario, err = ParseCUE(data, path)
	default:
		scenario, err = ParseYAML(data)
	}
	if err != nil {
		return nil, err
	}
	return scenario, nil
}

// ParseYAML parses and validates a YAML scenario.
func ParseYAML(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// ParseCUE evaluates a CUE scenario and decodes it. filename is only used
// in error positions.
func ParseCUE(data []byte, filename string) (*Scenario, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("failed to compile CUE: %w", err)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("failed to evaluate CUE: %w", err)
	}

	var scenario Scenario
	if err := v.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to decode CUE: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, p := range s.Initial {
		if !strings.HasPrefix(p, "/") {
			return fmt.Errorf("initial[%d]: pathname %q must start with /", i, p)
		}
	}

	for i, step := range s.Steps {
		if err := validateStep(i, step); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

func validateStep(index int, s Step) error {
	op := s.Op()
	switch {
	case op == "":
		return fmt.Errorf("steps[%d]: no operation", index)
	case strings.Contains(op, "+"):
		return fmt.Errorf("steps[%d]: exactly one operation allowed, got %s", index, op)
	}

	if op == "call" {
		switch s.Call {
		case "push", "replace":
			if s.Path == "" {
				return fmt.Errorf("steps[%d]: call %s requires path", index, s.Call)
			}
		case "go", "goBack", "goForward":
		default:
			return fmt.Errorf("steps[%d]: unknown call %q%s", index, s.Call, didYouMean(s.Call, callMethods))
		}
	} else if s.Path != "" || s.N != 0 {
		return fmt.Errorf("steps[%d]: path and n are only valid with call", index)
	}

	if s.Travel != nil && *s.Travel < 0 {
		return fmt.Errorf("steps[%d]: travel seq must be non-negative", index)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTransitions, AssertDispatches, AssertListenerCalls:
		if a.Count == nil {
			return fmt.Errorf("assertions[%d]: count is required for %s", index, a.Type)
		}
		if *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", index, a.Type)
		}
	case AssertLocation:
		if a.Pathname == "" {
			return fmt.Errorf("assertions[%d]: pathname is required for location", index)
		}
	case AssertTraceOrder:
		if len(a.Events) == 0 {
			return fmt.Errorf("assertions[%d]: events list is required for trace_order", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q%s", index, a.Type, didYouMean(a.Type, assertionTypes))
	}

	return nil
}
