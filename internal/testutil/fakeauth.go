package testutil

import (
	"context"
	"sync"

	"golang.org/x/oauth2"

	"todo/internal/auth"
	"todo/internal/service"
)

// FakeAuth is an in-memory auth.Authenticator. Any password equal to
// Password signs in; SignUp succeeds for any email not in Taken.
type FakeAuth struct {
	mu      sync.Mutex
	session *auth.Session

	Password string
	Taken    map[string]bool

	SessionErr error
	SignIns    int
	SignOuts   int
}

// NewFakeAuth returns a signed-out FakeAuth accepting password "secret".
func NewFakeAuth() *FakeAuth {
	return &FakeAuth{Password: "secret", Taken: map[string]bool{}}
}

// NewSignedInAuth returns a FakeAuth already signed in as email.
func NewSignedInAuth(email string) *FakeAuth {
	a := NewFakeAuth()
	a.session = &auth.Session{UserID: "user-1", Email: email}
	return a
}

// Session implements auth.Authenticator.
func (a *FakeAuth) Session(ctx context.Context) (auth.Session, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.SessionErr != nil {
		return auth.Session{}, a.SessionErr
	}
	if a.session == nil {
		return auth.Session{}, auth.ErrNoSession
	}
	return *a.session, nil
}

// SignIn implements auth.Authenticator.
func (a *FakeAuth) SignIn(ctx context.Context, creds auth.Credentials) (auth.Session, error) {
	if err := creds.Validate(); err != nil {
		return auth.Session{}, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if creds.Password != a.Password {
		return auth.Session{}, service.NewAuthError("invalid email or password", nil)
	}
	a.session = &auth.Session{UserID: "user-1", Email: creds.Email}
	a.SignIns++
	return *a.session, nil
}

// SignUp implements auth.Authenticator.
func (a *FakeAuth) SignUp(ctx context.Context, creds auth.Credentials) (auth.Session, error) {
	if err := creds.Validate(); err != nil {
		return auth.Session{}, err
	}
	a.mu.Lock()
	taken := a.Taken[creds.Email]
	a.mu.Unlock()
	if taken {
		return auth.Session{}, service.NewValidationError("Email already registered", nil)
	}
	return a.SignIn(ctx, creds)
}

// SignOut implements auth.Authenticator.
func (a *FakeAuth) SignOut(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.session == nil {
		return auth.ErrNoSession
	}
	a.session = nil
	a.SignOuts++
	return nil
}

// TokenSource implements auth.Authenticator.
func (a *FakeAuth) TokenSource(ctx context.Context) oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "test-token", TokenType: "Bearer"})
}

var _ auth.Authenticator = (*FakeAuth)(nil)
