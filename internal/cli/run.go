package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/techshop/internal/config"
	"github.com/roach88/techshop/internal/shop"
)

// session is the state of one command invocation: the configured shop,
// its logger and the output formatter.
type session struct {
	shop   *shop.Shop
	out    *OutputFormatter
	in     io.Reader
	logger *slog.Logger

	logCloser io.Closer
}

// loadConfig resolves the config file and applies the flag overrides.
func loadConfig(opts *RootOptions) (config.Config, error) {
	path, explicit := config.Resolve(opts.Config)
	cfg, err := config.Load(path, explicit)
	if err != nil {
		return config.Config{}, err
	}
	if opts.Backend != "" {
		cfg.Storage.Backend = opts.Backend
	}
	if opts.DB != "" {
		cfg.Storage.Path = opts.DB
	}
	if opts.Lang != "" {
		cfg.Locale = opts.Lang
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// openSession loads the config, sets up logging and opens the shop.
func openSession(ctx context.Context, opts *RootOptions, cmd *cobra.Command) (*session, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	logger, closer, err := setupLogging(cfg.Log, opts.Verbose, cmd.ErrOrStderr())
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid log configuration", err)
	}

	logger.Debug("opening store", "backend", cfg.Storage.Backend, "path", cfg.Storage.Path)
	s, err := shop.Open(ctx, cfg, logger)
	if err != nil {
		_ = closer.Close()
		return nil, WrapExitError(ExitCommandError, "failed to open shop", err)
	}

	return &session{
		shop:   s,
		in:     cmd.InOrStdin(),
		logger: logger,
		out: &OutputFormatter{
			Format:    opts.Format,
			Writer:    cmd.OutOrStdout(),
			ErrWriter: cmd.ErrOrStderr(),
			Verbose:   opts.Verbose,
		},
		logCloser: closer,
	}, nil
}

func (s *session) close() {
	if err := s.shop.Close(); err != nil {
		s.logger.Error("error closing store", "error", err)
	}
	_ = s.logCloser.Close()
}

// fail converts a shop error into an ExitError carrying its kind and the
// translated message. signUp selects the registration wording for identity
// errors.
func (s *session) fail(err error, signUp bool) error {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return err
	}
	kind := shop.Kind(err)
	if kind == shop.KindError {
		s.logger.Error("command failed", "error", err)
	}
	return &ExitError{
		Code:    ExitFailure,
		Kind:    kind,
		Message: s.shop.MessageFor(err, signUp),
		Err:     err,
	}
}

// say renders a translated notice, or data in JSON mode.
func (s *session) say(data any, key string, params map[string]any) error {
	return s.out.Render(data, func(w io.Writer) error {
		_, err := fmt.Fprintln(w, s.shop.T.T(key, params))
		return err
	})
}

// withShop adapts fn into a cobra RunE that opens a session around it.
// Errors fn returns are mapped by session.fail.
func withShop(opts *RootOptions, fn func(ctx context.Context, s *session, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		s, err := openSession(ctx, opts, cmd)
		if err != nil {
			return err
		}
		defer s.close()

		if err := fn(ctx, s, args); err != nil {
			return s.fail(err, false)
		}
		return nil
	}
}
