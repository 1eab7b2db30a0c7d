package harness

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
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

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for i, event := range e.Trace {
			switch event.Type {
			case EventInvocation:
				fmt.Fprintf(&buf, "  [%d] %s %v\n", i+1, event.ActionURI, event.Args)
			case EventCompletion:
				fmt.Fprintf(&buf, "  [%d]   -> %s\n", i+1, event.OutputCase)
			}
		}
	}

	return buf.String()
}

// assertTraceContains checks if the trace contains an invocation matching
// the specified action and args (subset match), and optionally whose
// completion has the specified case.
func assertTraceContains(trace []TraceEvent, assertion Assertion) error {
	for i, event := range trace {
		if event.Type != EventInvocation || event.ActionURI != assertion.Action {
			continue
		}
		if !matchArgs(event.Args, assertion.Args) {
			continue
		}
		if assertion.Case == "" {
			return nil
		}
		if i+1 < len(trace) && trace[i+1].OutputCase == assertion.Case {
			return nil
		}
	}

	expected := fmt.Sprintf("action %s with args %v", assertion.Action, assertion.Args)
	if assertion.Case != "" {
		expected += " completing with " + assertion.Case
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: expected,
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks if actions appear in the specified order.
// Actions don't need to be consecutive (intervening actions are allowed),
// and an action may be listed more than once.
func assertTraceOrder(trace []TraceEvent, assertion Assertion) error {
	pos := 0
	for _, want := range assertion.Actions {
		found := false
		for pos < len(trace) {
			event := trace[pos]
			pos++
			if event.Type == EventInvocation && event.ActionURI == want {
				found = true
				break
			}
		}
		if !found {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("actions in order: %v", assertion.Actions),
				Actual:   fmt.Sprintf("no %s after position %d", want, pos),
				Trace:    trace,
			}
		}
	}
	return nil
}

// assertTraceCount checks if the action appears exactly the specified number of times.
func assertTraceCount(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, event := range trace {
		if event.Type == EventInvocation && event.ActionURI == assertion.Action {
			count++
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", assertion.Count, assertion.Action),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}

	return nil
}

// assertFinalState checks a subject of the final state. Without a where
// clause the subject summary is checked; with one, exactly one row must
// match and that row is checked. Both use subset semantics.
func assertFinalState(state map[string]Snapshot, assertion Assertion) error {
	snap, ok := state[assertion.Subject]
	if !ok {
		return fmt.Errorf("final_state: unknown subject %q", assertion.Subject)
	}

	actual := snap.Summary
	if len(assertion.Where) > 0 {
		whereDesc := formatWhereClause(assertion.Where)
		var matched []map[string]interface{}
		for _, row := range snap.Rows {
			if matchArgs(row, assertion.Where) {
				matched = append(matched, row)
			}
		}
		switch len(matched) {
		case 0:
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("row in %s where %s", assertion.Subject, whereDesc),
				Actual:   "row not found",
			}
		case 1:
			actual = matched[0]
		default:
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("exactly one row in %s where %s", assertion.Subject, whereDesc),
				Actual:   fmt.Sprintf("%d rows matched (assertion is ambiguous)", len(matched)),
			}
		}
	}

	for _, key := range sortedKeys(assertion.Expect) {
		expectedValue := assertion.Expect[key]
		actualValue, exists := actual[key]
		if !exists {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("field %q to exist in %s", key, assertion.Subject),
				Actual:   fmt.Sprintf("fields present: %v", sortedKeys(actual)),
			}
		}

		if !stateValuesEqual(expectedValue, actualValue) {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: fmt.Sprintf("%s.%s = %v", assertion.Subject, key, expectedValue),
				Actual:   fmt.Sprintf("%s.%s = %v", assertion.Subject, key, actualValue),
			}
		}
	}

	return nil
}

// formatWhereClause creates a human-readable description of where conditions.
func formatWhereClause(where map[string]interface{}) string {
	if len(where) == 0 {
		return "(no conditions)"
	}
	keys := sortedKeys(where)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, where[k]))
	}
	return strings.Join(parts, " AND ")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// stateValuesEqual compares an expected value from YAML with an actual value.
// Scalars of different types compare by their printed form, so an unquoted
// YAML number matches a decimal string ("412.48") and an int matches an int64.
func stateValuesEqual(expected, actual interface{}) bool {
	if expected == nil || actual == nil {
		return expected == nil && actual == nil
	}
	if reflect.DeepEqual(expected, actual) {
		return true
	}
	if isScalar(expected) && isScalar(actual) {
		return fmt.Sprint(expected) == fmt.Sprint(actual)
	}
	return false
}

func isScalar(v interface{}) bool {
	switch v.(type) {
	case string, bool, int, int64, float64:
		return true
	default:
		return false
	}
}

// matchArgs checks if actual args contain all expected args (subset match).
// Extra keys in actual are ignored.
func matchArgs(actual interface{}, expected map[string]interface{}) bool {
	if len(expected) == 0 {
		return true
	}

	actualMap, ok := actual.(map[string]interface{})
	if !ok {
		return false
	}

	for key, expectedVal := range expected {
		actualVal, exists := actualMap[key]
		if !exists {
			return false
		}
		if !stateValuesEqual(expectedVal, actualVal) {
			return false
		}
	}
	return true
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, assertion)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, assertion)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, assertion)
		case AssertFinalState:
			err = assertFinalState(result.State, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
