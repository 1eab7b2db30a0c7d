// Package harness runs storefront scenarios against a real shop.
//
// Each scenario gets a fresh shop on an in-memory store with a
// deterministic clock and sequential order ids, so the same scenario always
// produces the same trace. Actions run through the same shop methods the
// CLI uses, including form validation, and their outcomes are recorded as
// invocation/completion pairs.
//
// What the harness does not cover:
//   - Persistence backends other than the in-memory store
//   - The placement delay (orders are placed immediately)
//   - Identity values that are random by nature (user ids, review ids)
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	lang: en
//	setup:
//	  - action: cart.add
//	    args: { product: prod_1, quantity: 2 }
//	flow:
//	  - invoke: checkout.enter
//	    args: { step: payment }
//	    expect:
//	      case: Success
//	      result: { step: shipping, redirected: true }
//	assertions:
//	  - type: trace_contains
//	    action: cart.add
//	    args: { product: prod_1 }
//	  - type: final_state
//	    subject: orders
//	    where: { id: TECHSHOP-000001 }
//	    expect: { status: pending, total: "412.48" }
//
// # Actions
//
// cart.add, cart.set_quantity, cart.remove, cart.clear, wishlist.add,
// wishlist.remove, wishlist.toggle, checkout.enter, checkout.shipping,
// checkout.payment, checkout.place, checkout.abandon, auth.sign_up,
// auth.sign_in, auth.sign_out, review.eligibility and review.submit.
//
// Failed actions complete with an output case named after the failure
// (OutOfStock, EmptyCart, Invalid, AuthError, NeedsPurchase, ...) and a
// translated message in the result.
//
// # Assertion Types
//
//   - trace_contains: Verifies an action appears in the trace with matching args
//   - trace_order: Verifies actions appear in specified order
//   - trace_count: Verifies an action appears exactly N times
//   - final_state: Verifies the summary, or one row, of a state subject
//     (cart, wishlist, checkout, orders, session)
//
// Decimal amounts are strings in results and state; quote them in YAML.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/checkout.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, msg := range result.Errors {
//	    log.Println(msg)
//	}
package harness
