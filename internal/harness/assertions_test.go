package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTrace() []TraceEvent {
	r := NewResult()
	r.AddInvocationTrace("cart.add", map[string]interface{}{"product": "prod_1", "quantity": 2}, 1)
	r.AddCompletionTrace(CaseSuccess, map[string]interface{}{"quantity": 2}, 2)
	r.AddInvocationTrace("cart.add", map[string]interface{}{"product": "prod_10", "quantity": 1}, 3)
	r.AddCompletionTrace(CaseOutOfStock, map[string]interface{}{"message": "out"}, 4)
	r.AddInvocationTrace("checkout.place", map[string]interface{}{}, 5)
	r.AddCompletionTrace(CaseSuccess, map[string]interface{}{"order_id": "TECHSHOP-000001"}, 6)
	return r.Trace
}

func TestAssertTraceContains(t *testing.T) {
	trace := sampleTrace()

	assert.NoError(t, assertTraceContains(trace, Assertion{Action: "cart.add"}))
	assert.NoError(t, assertTraceContains(trace, Assertion{
		Action: "cart.add",
		Args:   map[string]interface{}{"product": "prod_10"},
		Case:   CaseOutOfStock,
	}))

	err := assertTraceContains(trace, Assertion{
		Action: "cart.add",
		Args:   map[string]interface{}{"product": "prod_1"},
		Case:   CaseOutOfStock,
	})
	var aerr *AssertionError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, AssertTraceContains, aerr.Type)
	assert.Contains(t, aerr.Expected, "completing with OutOfStock")
	assert.Contains(t, err.Error(), "Full trace:")
	assert.Contains(t, err.Error(), "-> OutOfStock")

	assert.Error(t, assertTraceContains(trace, Assertion{Action: "wishlist.add"}))
}

func TestAssertTraceOrder(t *testing.T) {
	trace := sampleTrace()

	assert.NoError(t, assertTraceOrder(trace, Assertion{Actions: []string{"cart.add", "checkout.place"}}))
	assert.NoError(t, assertTraceOrder(trace, Assertion{Actions: []string{"cart.add", "cart.add", "checkout.place"}}))

	err := assertTraceOrder(trace, Assertion{Actions: []string{"checkout.place", "cart.add"}})
	var aerr *AssertionError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, AssertTraceOrder, aerr.Type)
	assert.Contains(t, aerr.Actual, "no cart.add after position 6")

	assert.Error(t, assertTraceOrder(trace, Assertion{Actions: []string{"cart.add", "cart.add", "cart.add"}}))
}

func TestAssertTraceCount(t *testing.T) {
	trace := sampleTrace()

	assert.NoError(t, assertTraceCount(trace, Assertion{Action: "cart.add", Count: 2}))
	assert.NoError(t, assertTraceCount(trace, Assertion{Action: "wishlist.add", Count: 0}))

	err := assertTraceCount(trace, Assertion{Action: "checkout.place", Count: 2})
	var aerr *AssertionError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, "2 occurrences of checkout.place", aerr.Expected)
	assert.Equal(t, "1 occurrences", aerr.Actual)
}

func sampleState() map[string]Snapshot {
	return map[string]Snapshot{
		SubjectCart: {
			Summary: map[string]interface{}{"item_count": 3, "total": "412.48", "empty": false},
			Rows: []map[string]interface{}{
				{"product": "prod_1", "quantity": 2},
				{"product": "prod_2", "quantity": 1},
			},
		},
		SubjectOrders: {
			Summary: map[string]interface{}{"count": 2},
			Rows: []map[string]interface{}{
				{"id": "TECHSHOP-000002", "status": "pending", "city": "Almaty"},
				{"id": "TECHSHOP-000001", "status": "pending", "city": "Almaty"},
			},
		},
	}
}

func TestAssertFinalState_Summary(t *testing.T) {
	state := sampleState()

	assert.NoError(t, assertFinalState(state, Assertion{
		Subject: SubjectCart,
		Expect:  map[string]interface{}{"item_count": 3, "total": "412.48", "empty": false},
	}))
	// An unquoted YAML number compares by its printed form.
	assert.NoError(t, assertFinalState(state, Assertion{
		Subject: SubjectCart,
		Expect:  map[string]interface{}{"total": 412.48},
	}))

	err := assertFinalState(state, Assertion{
		Subject: SubjectCart,
		Expect:  map[string]interface{}{"item_count": 4},
	})
	var aerr *AssertionError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, "cart.item_count = 4", aerr.Expected)
	assert.Equal(t, "cart.item_count = 3", aerr.Actual)

	err = assertFinalState(state, Assertion{
		Subject: SubjectCart,
		Expect:  map[string]interface{}{"discount": "0"},
	})
	require.ErrorAs(t, err, &aerr)
	assert.Contains(t, aerr.Expected, `field "discount" to exist`)

	assert.Error(t, assertFinalState(state, Assertion{
		Subject: SubjectSession,
		Expect:  map[string]interface{}{"signed_in": true},
	}))
}

func TestAssertFinalState_Where(t *testing.T) {
	state := sampleState()

	assert.NoError(t, assertFinalState(state, Assertion{
		Subject: SubjectCart,
		Where:   map[string]interface{}{"product": "prod_2"},
		Expect:  map[string]interface{}{"quantity": 1},
	}))

	err := assertFinalState(state, Assertion{
		Subject: SubjectOrders,
		Where:   map[string]interface{}{"status": "pending"},
		Expect:  map[string]interface{}{"city": "Almaty"},
	})
	var aerr *AssertionError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, "2 rows matched (assertion is ambiguous)", aerr.Actual)

	err = assertFinalState(state, Assertion{
		Subject: SubjectOrders,
		Where:   map[string]interface{}{"id": "TECHSHOP-000009"},
		Expect:  map[string]interface{}{"status": "pending"},
	})
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, "row not found", aerr.Actual)
	assert.Equal(t, "row in orders where id=TECHSHOP-000009", aerr.Expected)
}

func TestStateValuesEqual(t *testing.T) {
	tests := []struct {
		name     string
		expected interface{}
		actual   interface{}
		want     bool
	}{
		{"same string", "a", "a", true},
		{"int and int64", 3, int64(3), true},
		{"float and decimal string", 412.48, "412.48", true},
		{"float and padded string", 400.0, "400.00", false},
		{"bool", true, true, true},
		{"bool mismatch", true, false, false},
		{"nil both", nil, nil, true},
		{"nil one", nil, "x", false},
		{"slice", []interface{}{"a"}, []interface{}{"a"}, true},
		{"slice and scalar", []interface{}{"a"}, "a", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stateValuesEqual(tt.expected, tt.actual))
		})
	}
}

func TestEvaluateAssertions(t *testing.T) {
	result := NewResult()
	result.Trace = sampleTrace()
	result.State = sampleState()

	errs := EvaluateAssertions(result, []Assertion{
		{Type: AssertTraceCount, Action: "cart.add", Count: 2},
		{Type: AssertFinalState, Subject: SubjectOrders, Expect: map[string]interface{}{"count": 2}},
		{Type: AssertTraceCount, Action: "cart.add", Count: 5},
		{Type: "eventually"},
	})
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0], "trace_count")
	assert.Contains(t, errs[1], `unknown assertion type "eventually"`)
}
