package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "techshop", cmd.Use)
	assert.Contains(t, cmd.Long, "storefront")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := [][]string{
		{"catalog", "list"}, {"catalog", "show"}, {"catalog", "categories"},
		{"cart", "show"}, {"cart", "add"}, {"cart", "set"}, {"cart", "remove"}, {"cart", "clear"},
		{"wishlist", "show"}, {"wishlist", "add"}, {"wishlist", "remove"},
		{"checkout", "status"}, {"checkout", "shipping"}, {"checkout", "payment"},
		{"checkout", "review"}, {"checkout", "place"}, {"checkout", "abandon"},
		{"orders", "list"}, {"orders", "show"}, {"orders", "export"},
		{"auth", "signup"}, {"auth", "signin"}, {"auth", "signout"}, {"auth", "whoami"},
		{"review", "list"}, {"review", "add"},
		{"test"},
	}

	for _, path := range commands {
		name := path[len(path)-1]
		t.Run(name, func(t *testing.T) {
			subCmd, _, err := cmd.Find(path)
			require.NoError(t, err, "Command %v should exist", path)
			require.NotNil(t, subCmd)
			assert.Equal(t, name, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	for _, name := range []string{"config", "db", "backend", "lang"} {
		flag := cmd.PersistentFlags().Lookup(name)
		require.NotNil(t, flag, name)
		assert.Equal(t, "", flag.DefValue, name)
	}
}

func TestCartAddFlags(t *testing.T) {
	cmd := NewRootCommand()
	addCmd, _, err := cmd.Find([]string{"cart", "add"})
	require.NoError(t, err)

	quantityFlag := addCmd.Flags().Lookup("quantity")
	require.NotNil(t, quantityFlag)
	assert.Equal(t, "n", quantityFlag.Shorthand)
	assert.Equal(t, "1", quantityFlag.DefValue)
}

func TestOrdersExportFlags(t *testing.T) {
	cmd := NewRootCommand()
	exportCmd, _, err := cmd.Find([]string{"orders", "export"})
	require.NoError(t, err)

	outputFlag := exportCmd.Flags().Lookup("output")
	require.NotNil(t, outputFlag)
	assert.Equal(t, "o", outputFlag.Shorthand)
}

func TestInvalidFormat(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := Execute(context.Background(), []string{"--format", "xml", "catalog", "categories"}, &stdout, &stderr)

	assert.Equal(t, ExitCommandError, code)
	assert.Contains(t, stderr.String(), `invalid format "xml"`)
	assert.Empty(t, stdout.String())
}

func TestUnknownCommandIsCommandError(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := Execute(context.Background(), []string{"basket"}, &stdout, &stderr)

	assert.Equal(t, ExitCommandError, code)
	assert.Contains(t, stderr.String(), "Error [E_COMMAND]")
	assert.Contains(t, stderr.String(), `unknown command "basket"`)
	assert.Empty(t, stdout.String())
}

func TestWrongArgumentCount(t *testing.T) {
	c := newShopCLI(t, "sqlite")
	res := c.run("cart", "set", "prod_1")

	assert.Equal(t, ExitCommandError, res.code)
	assert.Contains(t, res.stderr, "accepts 2 arg(s), received 1")
}
