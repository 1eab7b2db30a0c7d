package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Config  string // config file path
	DB      string // overrides storage.path
	Backend string // overrides storage.backend
	Lang    string // overrides locale
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the techshop CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "techshop",
		Short: "TechShop storefront",
		Long: `TechShop is a storefront you drive from the command line: browse the
catalog, fill a cart and a wishlist, check out, and review what you bought.

State is kept in a local store between invocations (SQLite by default).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "config file (default $TECHSHOP_CONFIG or ./techshop.yaml)")
	cmd.PersistentFlags().StringVar(&opts.DB, "db", "", "store path (overrides storage.path)")
	cmd.PersistentFlags().StringVar(&opts.Backend, "backend", "", "store backend: sqlite|bolt|memory (overrides storage.backend)")
	cmd.PersistentFlags().StringVar(&opts.Lang, "lang", "", "display language: ru|en|kk (overrides locale)")

	cmd.AddCommand(NewCatalogCommand(opts))
	cmd.AddCommand(NewCartCommand(opts))
	cmd.AddCommand(NewWishlistCommand(opts))
	cmd.AddCommand(NewCheckoutCommand(opts))
	cmd.AddCommand(NewOrdersCommand(opts))
	cmd.AddCommand(NewAuthCommand(opts))
	cmd.AddCommand(NewReviewCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// Execute runs the command tree with args and returns the process exit code.
// Errors are rendered on stderr, or on stdout as a JSON error response
// when --format json is in effect.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}
	if alreadyReported(err) {
		return GetExitCode(err)
	}
	// Anything not classified by a command comes from cobra itself:
	// unknown commands, bad flags, wrong argument counts.
	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		err = WrapExitError(ExitCommandError, "", err)
	}

	format, _ := cmd.PersistentFlags().GetString("format")
	if !isValidFormat(format) {
		format = "text"
	}
	out := &OutputFormatter{Format: format, Writer: stdout, ErrWriter: stderr}
	_ = out.Error(errorCode(err), errorMessage(err), nil)
	return GetExitCode(err)
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
