package harness

import (
	"bytes"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/roach88/techshop/internal/i18n"
)

// Scenario defines a storefront acceptance scenario.
// A scenario drives a fresh shop through a flow of actions and asserts on
// the resulting trace and final state.
type Scenario struct {
	// Name uniquely identifies this scenario. Golden files are named after it.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Lang selects the display language for messages. Defaults to "en".
	Lang string `yaml:"lang,omitempty"`

	// Setup contains actions run before the main flow. Every setup action
	// must succeed; a failure aborts the run.
	Setup []ActionStep `yaml:"setup,omitempty"`

	// Flow contains the main test flow, invocations with expected results.
	Flow []FlowStep `yaml:"flow"`

	// Assertions validate the final trace and state.
	// Supported types: trace_contains, trace_order, trace_count, final_state
	Assertions []Assertion `yaml:"assertions"`
}

// ActionStep represents a single action invocation.
type ActionStep struct {
	// Action is the action name (e.g., "cart.add").
	Action string `yaml:"action"`

	// Args contains the action arguments as a map.
	Args map[string]interface{} `yaml:"args"`
}

// FlowStep represents a step in the main test flow.
type FlowStep struct {
	// Invoke is the action name to invoke.
	Invoke string `yaml:"invoke"`

	// Args contains the action arguments.
	Args map[string]interface{} `yaml:"args"`

	// Expect specifies the expected completion.
	// If nil, the step must complete with Success.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies expected completion behavior.
type ExpectClause struct {
	// Case is the expected outcome (e.g., "Success", "OutOfStock").
	Case string `yaml:"case"`

	// Result contains expected result field values.
	// This is a subset match: only specified fields are validated.
	Result map[string]interface{} `yaml:"result,omitempty"`
}

// Assertion validates trace or final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "trace_contains": Check action appears in trace with args
	// - "trace_order": Check actions appear in order
	// - "trace_count": Check action appears exactly N times
	// - "final_state": Check a state subject after the flow
	Type string `yaml:"type"`

	// Action is the action name (used by trace_contains, trace_count).
	Action string `yaml:"action,omitempty"`

	// Args are the expected action arguments (used by trace_contains).
	// Subset match: only specified fields are validated.
	Args map[string]interface{} `yaml:"args,omitempty"`

	// Case is the expected outcome of the matched invocation
	// (optional, used by trace_contains).
	Case string `yaml:"case,omitempty"`

	// Subject is the state subject (used by final_state): one of
	// cart, wishlist, checkout, orders, session.
	Subject string `yaml:"subject,omitempty"`

	// Where selects exactly one row of the subject (used by final_state).
	// Without it the subject summary is checked.
	Where map[string]interface{} `yaml:"where,omitempty"`

	// Expect contains expected field values (used by final_state).
	// Subset match: only specified fields are validated.
	Expect map[string]interface{} `yaml:"expect,omitempty"`

	// Count is the expected number of occurrences (used by trace_count).
	Count int `yaml:"count,omitempty"`

	// Actions is the expected action order (used by trace_order).
	Actions []string `yaml:"actions,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalState    = "final_state"
)

// Subjects lists the state subjects final_state can inspect.
var Subjects = []string{SubjectCart, SubjectWishlist, SubjectCheckout, SubjectOrders, SubjectSession}

// State subjects.
const (
	SubjectCart     = "cart"
	SubjectWishlist = "wishlist"
	SubjectCheckout = "checkout"
	SubjectOrders   = "orders"
	SubjectSession  = "session"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Reject unknown fields (catches typos like "assertion:" vs "assertions:")
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

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Lang != "" {
		if _, err := i18n.ParseLang(s.Lang); err != nil {
			return fmt.Errorf("lang: %w", err)
		}
	}

	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Setup {
		if step.Action == "" {
			return fmt.Errorf("setup[%d]: action is required", i)
		}
		if !KnownAction(step.Action) {
			return fmt.Errorf("setup[%d]: unknown action %q", i, step.Action)
		}
		if step.Args == nil {
			return fmt.Errorf("setup[%d]: args is required (use empty map if no args)", i)
		}
	}

	for i, step := range s.Flow {
		if step.Invoke == "" {
			return fmt.Errorf("flow[%d]: invoke is required", i)
		}
		if !KnownAction(step.Invoke) {
			return fmt.Errorf("flow[%d]: unknown action %q", i, step.Invoke)
		}
		if step.Args == nil {
			return fmt.Errorf("flow[%d]: args is required (use empty map if no args)", i)
		}
		if step.Expect != nil && step.Expect.Case == "" {
			return fmt.Errorf("flow[%d].expect: case is required", i)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.Action == "" {
			return fmt.Errorf("assertions[%d]: action is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Actions) == 0 {
			return fmt.Errorf("assertions[%d]: actions list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Action == "" {
			return fmt.Errorf("assertions[%d]: action is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertFinalState:
		if a.Subject == "" {
			return fmt.Errorf("assertions[%d]: subject is required for final_state", index)
		}
		if !slices.Contains(Subjects, a.Subject) {
			return fmt.Errorf("assertions[%d]: unknown subject %q (want one of %v)", index, a.Subject, Subjects)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}

