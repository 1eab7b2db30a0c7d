package cli

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/techshop/internal/identity"
	"github.com/roach88/techshop/internal/validate"
)

// AuthOptions holds the credential flags shared by signup and signin.
type AuthOptions struct {
	*RootOptions
	Email           string
	Password        string
	ConfirmPassword string
	Name            string
	PasswordStdin   bool
}

// WhoAmI is the JSON payload of the auth commands.
type WhoAmI struct {
	SignedIn bool           `json:"signedIn"`
	User     *identity.User `json:"user,omitempty"`
}

// NewAuthCommand creates the auth command group.
func NewAuthCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Sign up, sign in and out",
		Long: `Manage the shopper session.

The session is stored with the rest of the shop state, so later commands
run as the signed-in shopper until signout.`,
	}

	cmd.AddCommand(newSignUpCommand(rootOpts))
	cmd.AddCommand(newSignInCommand(rootOpts))

	cmd.AddCommand(&cobra.Command{
		Use:   "signout",
		Short: "Sign out",
		Args:  cobra.NoArgs,
		RunE: withShop(rootOpts, func(ctx context.Context, s *session, args []string) error {
			if err := s.shop.SignOut(ctx); err != nil {
				return err
			}
			return s.say(WhoAmI{}, "auth.signed_out", nil)
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in shopper",
		Args:  cobra.NoArgs,
		RunE: withShop(rootOpts, func(ctx context.Context, s *session, args []string) error {
			u, ok := s.shop.Session.User()
			if !ok {
				return s.say(WhoAmI{}, "auth.anonymous", nil)
			}
			return s.say(WhoAmI{SignedIn: true, User: &u}, "auth.signed_in", map[string]any{"name": u.Name()})
		}),
	})

	return cmd
}

func newSignUpCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AuthOptions{RootOptions: rootOpts}
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: withShop(rootOpts, func(ctx context.Context, s *session, args []string) error {
			if err := opts.readPassword(s.in); err != nil {
				return err
			}
			confirm := opts.ConfirmPassword
			if confirm == "" {
				confirm = opts.Password
			}
			u, err := s.shop.SignUp(ctx, validate.Registration{
				Email:           opts.Email,
				Password:        opts.Password,
				ConfirmPassword: confirm,
				DisplayName:     opts.Name,
			})
			if err != nil {
				return s.fail(err, true)
			}
			return s.say(WhoAmI{SignedIn: true, User: &u}, "auth.signed_up", map[string]any{"name": u.Name()})
		}),
	}
	opts.bindCredentials(cmd)
	cmd.Flags().StringVar(&opts.ConfirmPassword, "confirm-password", "", "password confirmation (default: same as --password)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "display name")
	return cmd
}

func newSignInCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AuthOptions{RootOptions: rootOpts}
	cmd := &cobra.Command{
		Use:   "signin",
		Short: "Sign in with email and password",
		Args:  cobra.NoArgs,
		RunE: withShop(rootOpts, func(ctx context.Context, s *session, args []string) error {
			if err := opts.readPassword(s.in); err != nil {
				return err
			}
			u, err := s.shop.SignIn(ctx, opts.Email, opts.Password)
			if err != nil {
				return err
			}
			return s.say(WhoAmI{SignedIn: true, User: &u}, "auth.signed_in", map[string]any{"name": u.Name()})
		}),
	}
	opts.bindCredentials(cmd)
	return cmd
}

func (o *AuthOptions) bindCredentials(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.Email, "email", "", "account email")
	cmd.Flags().StringVar(&o.Password, "password", "", "account password")
	cmd.Flags().BoolVar(&o.PasswordStdin, "password-stdin", false, "read the password from the first line of stdin")
	cmd.MarkFlagsMutuallyExclusive("password", "password-stdin")
}

// readPassword fills Password from r when --password-stdin is set.
func (o *AuthOptions) readPassword(r io.Reader) error {
	if !o.PasswordStdin {
		return nil
	}
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return WrapExitError(ExitCommandError, "failed to read password from stdin", err)
	}
	o.Password = strings.TrimRight(line, "\r\n")
	return nil
}
