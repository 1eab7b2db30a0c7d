// Package identity is the authentication port and its local implementation.
//
// The rest of the shop only consumes the signed-in user's id and display name.
// Session changes are announced on an event bus; Session is the delegate that
// listens and exposes the current user id to the order history.
package identity

import (
	"context"
	"sync"
)

// TopicAuthState is the event bus topic for session changes.
// Handlers receive a *User, nil when signed out.
const TopicAuthState = "auth:state"

// User is the identity of a signed-in shopper.
type User struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName,omitempty"`
}

// Name is the display name, or the email when none was given.
func (u User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Email
}

// Provider is an email/password identity provider.
type Provider interface {
	SignUp(ctx context.Context, email, password, displayName string) (User, error)
	SignIn(ctx context.Context, email, password string) (User, error)
	SignOut(ctx context.Context) error
	CurrentUser() (User, bool)

	// OnAuthStateChanged calls fn with the current user immediately and after
	// every session change until the returned function is called.
	OnAuthStateChanged(fn func(*User)) (unsubscribe func())
}

// Session tracks the signed-in user of a provider.
type Session struct {
	mu          sync.RWMutex
	user        *User
	unsubscribe func()
}

// NewSession subscribes to p. Close releases the subscription.
func NewSession(p Provider) *Session {
	s := &Session{}
	s.unsubscribe = p.OnAuthStateChanged(s.set)
	return s
}

func (s *Session) set(u *User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u == nil {
		s.user = nil
		return
	}
	copied := *u
	s.user = &copied
}

// User returns the signed-in user.
func (s *Session) User() (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return User{}, false
	}
	return *s.user, true
}

// CurrentUserID is the signed-in user's id, "" when signed out.
func (s *Session) CurrentUserID() string {
	u, _ := s.User()
	return u.UID
}

// Close stops listening for session changes.
func (s *Session) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
}
