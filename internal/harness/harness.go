package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/roach88/techshop/internal/i18n"
	"github.com/roach88/techshop/internal/identity"
	"github.com/roach88/techshop/internal/order"
	"github.com/roach88/techshop/internal/shop"
	"github.com/roach88/techshop/internal/storage"
	"github.com/roach88/techshop/internal/testutil"
)

// Harness is the test execution engine for one scenario.
type Harness struct {
	shop   *shop.Shop
	seq    int64
	logger *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Execution flow:
// 1. Create a fresh shop on an in-memory store
// 2. Execute setup steps (all must succeed)
// 3. Execute flow steps with expect validation
// 4. Capture the final state and evaluate assertions
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	lang := i18n.English
	if scenario.Lang != "" {
		l, err := i18n.ParseLang(scenario.Lang)
		if err != nil {
			return nil, err
		}
		lang = l
	}

	clock := testutil.NewDeterministicClock()
	policy := identity.DefaultPolicy()
	policy.BcryptCost = bcrypt.MinCost
	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in tests

	s := shop.New(ctx, storage.NewMemory(), shop.Options{
		Logger:   logger,
		Lang:     lang,
		Policy:   &policy,
		OrderIDs: testutil.NewSequenceGenerator(order.IDPrefix),
		Clock:    clock.Now,
	})
	defer s.Close()

	h := &Harness{shop: s, logger: logger}

	result := NewResult()
	if err := h.executeSetup(ctx, scenario.Setup, result); err != nil {
		return nil, fmt.Errorf("failed to execute setup: %w", err)
	}
	if err := h.executeFlow(ctx, scenario.Flow, result); err != nil {
		return nil, fmt.Errorf("failed to execute flow: %w", err)
	}

	result.State = Capture(s)
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(errMsg)
	}

	return result, nil
}

func (h *Harness) next() int64 {
	h.seq++
	return h.seq
}

// invoke runs one action and records its invocation and completion.
// Only malformed steps return an error; shop failures become output cases.
func (h *Harness) invoke(ctx context.Context, action string, a map[string]interface{}, result *Result) (string, map[string]interface{}, error) {
	fn, ok := actions[action]
	if !ok {
		return "", nil, fmt.Errorf("unknown action %q", action)
	}

	result.AddInvocationTrace(action, a, h.next())

	out, err := fn(ctx, h.shop, stepArgs(a))
	var argErr *argError
	if errors.As(err, &argErr) {
		return "", nil, fmt.Errorf("%s: %w", action, err)
	}

	outputCase := CaseSuccess
	if err != nil {
		outputCase, out = outcome(h.shop, action, err)
	}
	result.AddCompletionTrace(outputCase, out, h.next())

	h.logger.Info("step completed", "action", action, "output_case", outputCase)
	return outputCase, out, nil
}

// executeSetup runs all setup steps. Setup establishes state, so any
// outcome other than Success aborts the scenario.
func (h *Harness) executeSetup(ctx context.Context, setup []ActionStep, result *Result) error {
	for i, step := range setup {
		outputCase, out, err := h.invoke(ctx, step.Action, step.Args, result)
		if err != nil {
			return fmt.Errorf("setup step %d: %w", i, err)
		}
		if outputCase != CaseSuccess {
			return fmt.Errorf("setup step %d: %s completed with %s: %v", i, step.Action, outputCase, out["message"])
		}
	}
	return nil
}

// executeFlow runs all flow steps and validates expect clauses.
// A step without an expect clause must succeed.
func (h *Harness) executeFlow(ctx context.Context, flow []FlowStep, result *Result) error {
	for i, step := range flow {
		outputCase, out, err := h.invoke(ctx, step.Invoke, step.Args, result)
		if err != nil {
			return fmt.Errorf("flow step %d: %w", i, err)
		}

		wantCase := CaseSuccess
		var wantResult map[string]interface{}
		if step.Expect != nil {
			wantCase = step.Expect.Case
			wantResult = step.Expect.Result
		}

		if outputCase != wantCase {
			result.AddError(fmt.Sprintf("flow[%d] %s: expected case %q, got %q (%v)",
				i, step.Invoke, wantCase, outputCase, out["message"]))
			continue
		}
		for _, key := range sortedKeys(wantResult) {
			got, ok := out[key]
			if !ok {
				result.AddError(fmt.Sprintf("flow[%d] %s: result field %q missing", i, step.Invoke, key))
				continue
			}
			if !stateValuesEqual(wantResult[key], got) {
				result.AddError(fmt.Sprintf("flow[%d] %s: result field %q = %v, want %v",
					i, step.Invoke, key, got, wantResult[key]))
			}
		}
	}
	return nil
}
