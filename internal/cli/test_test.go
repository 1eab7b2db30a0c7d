package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const passingScenario = `name: wishlist_once
description: "Adding a product twice keeps one wishlist entry"
flow:
  - invoke: wishlist.add
    args: { product: prod_5 }
  - invoke: wishlist.add
    args: { product: prod_5 }
assertions:
  - type: trace_count
    action: wishlist.add
    count: 2
  - type: final_state
    subject: wishlist
    expect: { count: 1 }
`

const failingScenario = `name: cart_wrong_case
description: "Expects the wrong outcome for an out-of-stock product"
flow:
  - invoke: cart.add
    args: { product: prod_10, quantity: 1 }
    expect:
      case: Success
assertions:
  - type: trace_count
    action: cart.add
    count: 1
`

func writeScenario(t *testing.T, dir, file, body string) string {
	t.Helper()
	path := filepath.Join(dir, file)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func runTestCommand(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewTestCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestTestCommandRequiresDirectory(t *testing.T) {
	_, err := runTestCommand(t, "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestTestCommandMissingDirectory(t *testing.T) {
	_, err := runTestCommand(t, "text", filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, ExitCommandError, exitErr.Code)
	assert.Contains(t, exitErr.Error(), "scenarios directory not found")
}

func TestTestCommandInvalidFilter(t *testing.T) {
	_, err := runTestCommand(t, "text", t.TempDir(), "--filter", "[")

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, ExitCommandError, exitErr.Code)
}

func TestTestCommandEmptyScenariosDir(t *testing.T) {
	out, err := runTestCommand(t, "text", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "No scenarios found.\n", out)
}

func TestTestCommandEmptyScenariosDirJSON(t *testing.T) {
	out, err := runTestCommand(t, "json", t.TempDir())
	require.NoError(t, err)

	var response CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &response))
	assert.Equal(t, "ok", response.Status)
	data := response.Data.(map[string]interface{})
	assert.Equal(t, float64(0), data["total"])
}

func TestTestCommandPassingScenario(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "wishlist_once.yaml", passingScenario)

	out, err := runTestCommand(t, "text", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ wishlist_once\n")
	assert.Contains(t, out, "Test Summary: 1 passed, 0 failed, 1 total")
	assert.Contains(t, out, "✓ All scenarios passed")
}

func TestTestCommandShippedScenarios(t *testing.T) {
	out, err := runTestCommand(t, "text", filepath.Join("..", "harness", "testdata", "scenarios"))
	require.NoError(t, err, out)
	assert.Contains(t, out, "✓ cart_limits")
	assert.Contains(t, out, "✓ checkout_happy_path")
}

func TestTestCommandFailingScenario(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "wishlist_once.yaml", passingScenario)
	writeScenario(t, dir, "cart_wrong_case.yaml", failingScenario)

	out, err := runTestCommand(t, "text", dir)
	require.Error(t, err)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, ExitFailure, exitErr.Code)
	assert.Equal(t, CodeTestFailed, exitErr.Kind)
	assert.Contains(t, out, "✗ cart_wrong_case")
	assert.Contains(t, out, `expected case "Success", got "OutOfStock"`)
	assert.Contains(t, out, "Test Summary: 1 passed, 1 failed, 2 total")
}

func TestTestCommandFailingScenarioJSON(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "cart_wrong_case.yaml", failingScenario)

	out, err := runTestCommand(t, "json", dir)
	require.Error(t, err)
	assert.True(t, alreadyReported(err), "the JSON body already carries the error")

	var response CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &response))
	assert.Equal(t, "error", response.Status)
	require.NotNil(t, response.Error)
	assert.Equal(t, CodeTestFailed, response.Error.Code)
	assert.Equal(t, "1 scenario(s) failed", response.Error.Message)
}

func TestTestCommandMalformedScenario(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "broken.yaml", "name: broken\nflw: []\n")

	out, err := runTestCommand(t, "text", dir)
	require.Error(t, err)
	assert.Contains(t, out, "✗ broken.yaml")
	assert.Contains(t, out, "failed to load scenario")
}

func TestTestCommandUpdateAndCompareGolden(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "wishlist_once.yaml", passingScenario)

	out, err := runTestCommand(t, "text", dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ wishlist_once (golden updated)")

	goldenPath := filepath.Join(dir, "golden", "wishlist_once.golden")
	golden, err := os.ReadFile(goldenPath)
	require.NoError(t, err)
	assert.Contains(t, string(golden), `"wishlist.add"`)

	_, err = runTestCommand(t, "text", dir)
	require.NoError(t, err, "a fresh run matches the golden it just wrote")

	require.NoError(t, os.WriteFile(goldenPath, []byte("{}\n"), 0644))
	out, err = runTestCommand(t, "text", dir)
	require.Error(t, err)
	assert.Contains(t, out, "trace does not match golden file")
}

func TestTestCommandFilter(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "wishlist_once.yaml", passingScenario)
	writeScenario(t, dir, "cart_wrong_case.yaml", failingScenario)

	out, err := runTestCommand(t, "text", dir, "--filter", "wishlist_*")
	require.NoError(t, err)
	assert.Contains(t, out, "Test Summary: 1 passed, 0 failed, 1 total")
	assert.NotContains(t, out, "cart_wrong_case")
}

func TestTestHelpText(t *testing.T) {
	out, err := runTestCommand(t, "text", "--help")
	require.NoError(t, err)

	assert.Contains(t, out, "scenarios-dir")
	assert.Contains(t, out, "--update")
	assert.Contains(t, out, "--filter")
}

func TestFindScenarioFiles(t *testing.T) {
	tmpDir := t.TempDir()
	subDir := filepath.Join(tmpDir, "checkout")
	require.NoError(t, os.MkdirAll(subDir, 0755))

	for _, name := range []string{"cart-add.yaml", "cart-set.yml", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(tmpDir, name), nil, 0644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(subDir, "place.yaml"), nil, 0644))

	files, err := findScenarioFiles(tmpDir, "")
	require.NoError(t, err)
	assert.Len(t, files, 3)

	files, err = findScenarioFiles(tmpDir, "cart-*")
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestGoldenFilePath(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"/path/to/scenario.yaml", "/path/to/golden/scenario.golden"},
		{"/path/to/scenario.yml", "/path/to/golden/scenario.golden"},
		{"scenarios/test.yaml", "scenarios/golden/test.golden"},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, goldenFilePath(tc.input))
	}
}
