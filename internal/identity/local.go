package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/asaskevich/EventBus"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/roach88/techshop/internal/storage"
	"github.com/roach88/techshop/internal/validate"
)

// Policy tunes the local provider.
type Policy struct {
	MinPasswordLength int
	MaxFailedAttempts int
	Lockout           time.Duration
	AllowSignUp       bool
	BcryptCost        int
}

// DefaultPolicy returns the stock policy.
func DefaultPolicy() Policy {
	return Policy{
		MinPasswordLength: 6,
		MaxFailedAttempts: 5,
		Lockout:           15 * time.Minute,
		AllowSignUp:       true,
		BcryptCost:        bcrypt.DefaultCost,
	}
}

type account struct {
	UID            string    `json:"uid"`
	Email          string    `json:"email"`
	DisplayName    string    `json:"displayName,omitempty"`
	PasswordHash   []byte    `json:"passwordHash"`
	CreatedAt      time.Time `json:"createdAt"`
	FailedAttempts int       `json:"failedAttempts,omitempty"`
	LockedUntil    time.Time `json:"lockedUntil,omitempty"`
}

func (a account) user() User {
	return User{UID: a.UID, Email: a.Email, DisplayName: a.DisplayName}
}

// Local is a Provider backed by the shop's own store: accounts with bcrypt
// password hashes and a persisted session. Safe for concurrent use.
type Local struct {
	mu       sync.Mutex
	accounts map[string]account
	current  *User

	accountSlot *storage.Slot[map[string]account]
	sessionSlot *storage.Slot[User]
	bus         EventBus.Bus
	policy      Policy
	now         func() time.Time
	logger      *slog.Logger
}

// LocalOption configures a Local provider.
type LocalOption func(*Local)

// WithPolicy replaces DefaultPolicy.
func WithPolicy(p Policy) LocalOption {
	return func(l *Local) { l.policy = p }
}

// WithClock sets the time source used for lockouts.
func WithClock(now func() time.Time) LocalOption {
	return func(l *Local) { l.now = now }
}

// WithBus publishes session changes on bus instead of a private one.
func WithBus(bus EventBus.Bus) LocalOption {
	return func(l *Local) { l.bus = bus }
}

// NewLocal loads accounts and the persisted session from st.
// A stored session whose account no longer exists is dropped.
func NewLocal(ctx context.Context, st storage.Store, logger *slog.Logger, opts ...LocalOption) *Local {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Local{
		accountSlot: storage.NewSlot[map[string]account](st, storage.KeyAccounts, logger),
		sessionSlot: storage.NewSlot[User](st, storage.KeySession, logger),
		policy:      DefaultPolicy(),
		now:         time.Now,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.bus == nil {
		l.bus = EventBus.New()
	}

	l.accounts, _ = l.accountSlot.Load(ctx)
	if l.accounts == nil {
		l.accounts = map[string]account{}
	}
	if u, ok := l.sessionSlot.Load(ctx); ok {
		if acc, found := l.accounts[normalizeEmail(u.Email)]; found && acc.UID == u.UID {
			restored := acc.user()
			l.current = &restored
		} else {
			logger.Warn("dropping session for unknown account", "uid", u.UID)
		}
	}
	return l
}

// SignUp creates an account and signs it in.
func (l *Local) SignUp(ctx context.Context, email, password, displayName string) (User, error) {
	if !l.policy.AllowSignUp {
		return User{}, newError(CodeOperationNotAllowed, nil)
	}
	email = strings.TrimSpace(email)
	if err := validate.Default().Email(email); err != nil {
		return User{}, newError(CodeInvalidEmail, err)
	}
	if utf8.RuneCountInString(password) < l.policy.MinPasswordLength {
		return User{}, newError(CodeWeakPassword, fmt.Errorf("password shorter than %d characters", l.policy.MinPasswordLength))
	}

	key := normalizeEmail(email)

	l.mu.Lock()
	if _, taken := l.accounts[key]; taken {
		l.mu.Unlock()
		return User{}, newError(CodeEmailInUse, nil)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), l.policy.BcryptCost)
	if err != nil {
		l.mu.Unlock()
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return User{}, newError(CodeWeakPassword, err)
		}
		return User{}, newError(CodeInternal, err)
	}
	uid, err := uuid.NewV7()
	if err != nil {
		l.mu.Unlock()
		return User{}, newError(CodeInternal, err)
	}
	acc := account{
		UID:          uid.String(),
		Email:        email,
		DisplayName:  strings.TrimSpace(displayName),
		PasswordHash: hash,
		CreatedAt:    l.now().UTC(),
	}
	l.accounts[key] = acc
	if err := l.accountSlot.Save(ctx, l.accounts); err != nil {
		delete(l.accounts, key)
		l.mu.Unlock()
		return User{}, newError(CodeInternal, err)
	}
	l.mu.Unlock()

	l.logger.Info("account created", "uid", acc.UID)
	return l.startSession(ctx, acc.user())
}

// SignIn checks credentials. Unknown emails and wrong passwords both fail
// with CodeInvalidCredential. After Policy.MaxFailedAttempts consecutive
// failures the account is locked for Policy.Lockout and every attempt fails
// with CodeTooManyRequests.
func (l *Local) SignIn(ctx context.Context, email, password string) (User, error) {
	email = strings.TrimSpace(email)
	if err := validate.Default().Email(email); err != nil {
		return User{}, newError(CodeInvalidEmail, err)
	}
	key := normalizeEmail(email)

	l.mu.Lock()
	acc, ok := l.accounts[key]
	if !ok {
		l.mu.Unlock()
		return User{}, newError(CodeInvalidCredential, nil)
	}
	now := l.now()
	if now.Before(acc.LockedUntil) {
		l.mu.Unlock()
		return User{}, newError(CodeTooManyRequests, fmt.Errorf("locked until %s", acc.LockedUntil.UTC().Format(time.RFC3339)))
	}

	if err := bcrypt.CompareHashAndPassword(acc.PasswordHash, []byte(password)); err != nil {
		acc.FailedAttempts++
		if l.policy.MaxFailedAttempts > 0 && acc.FailedAttempts >= l.policy.MaxFailedAttempts {
			acc.FailedAttempts = 0
			acc.LockedUntil = now.Add(l.policy.Lockout).UTC()
			l.logger.Warn("account locked", "uid", acc.UID, "until", acc.LockedUntil)
		}
		l.accounts[key] = acc
		saveErr := l.accountSlot.Save(ctx, l.accounts)
		l.mu.Unlock()
		if saveErr != nil {
			l.logger.Warn("failed to record sign-in attempt", "uid", acc.UID, "error", saveErr)
		}
		return User{}, newError(CodeInvalidCredential, nil)
	}

	if acc.FailedAttempts > 0 || !acc.LockedUntil.IsZero() {
		acc.FailedAttempts = 0
		acc.LockedUntil = time.Time{}
		l.accounts[key] = acc
		if err := l.accountSlot.Save(ctx, l.accounts); err != nil {
			l.logger.Warn("failed to reset sign-in attempts", "uid", acc.UID, "error", err)
		}
	}
	l.mu.Unlock()

	return l.startSession(ctx, acc.user())
}

// SignOut ends the session. Signing out twice is a no-op.
func (l *Local) SignOut(ctx context.Context) error {
	l.mu.Lock()
	if l.current == nil {
		l.mu.Unlock()
		return nil
	}
	uid := l.current.UID
	l.current = nil
	err := l.sessionSlot.Clear(ctx)
	l.mu.Unlock()
	if err != nil {
		return newError(CodeInternal, err)
	}

	l.logger.Info("signed out", "uid", uid)
	l.bus.Publish(TopicAuthState, (*User)(nil))
	return nil
}

// CurrentUser returns the signed-in user.
func (l *Local) CurrentUser() (User, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.current == nil {
		return User{}, false
	}
	return *l.current, true
}

// OnAuthStateChanged implements Provider.
//
// Handlers are matched by function identity on unsubscribe, so two
// subscriptions made from the same function literal cannot be told apart.
func (l *Local) OnAuthStateChanged(fn func(*User)) func() {
	if err := l.bus.Subscribe(TopicAuthState, fn); err != nil {
		l.logger.Warn("auth state subscription failed", "error", err)
		return func() {}
	}
	if u, ok := l.CurrentUser(); ok {
		fn(&u)
	} else {
		fn(nil)
	}
	return func() {
		_ = l.bus.Unsubscribe(TopicAuthState, fn)
	}
}

func (l *Local) startSession(ctx context.Context, u User) (User, error) {
	l.mu.Lock()
	l.current = &u
	err := l.sessionSlot.Save(ctx, u)
	l.mu.Unlock()
	if err != nil {
		return User{}, newError(CodeInternal, err)
	}

	l.logger.Info("signed in", "uid", u.UID)
	published := u
	l.bus.Publish(TopicAuthState, &published)
	return u, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
