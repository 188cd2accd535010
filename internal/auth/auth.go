// Package auth is the client's gate to the external authentication
// provider. The rest of the client sees only the Authenticator interface:
// it reads the current session and obtains bearer tokens, and never
// handles password storage or token issuance itself.
package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"todo/internal/service"
)

var (
	// ErrNoSession is returned when nobody is signed in.
	ErrNoSession = errors.New("not signed in")

	// ErrSessionExpired is returned when the stored session can no longer
	// be refreshed.
	ErrSessionExpired = errors.New("session expired")
)

// Credentials are the email and password passed through to the provider.
type Credentials struct {
	Email    string
	Password string
}

// Validate checks that both fields are present.
func (c Credentials) Validate() error {
	details := map[string][]string{}
	if strings.TrimSpace(c.Email) == "" {
		details["email"] = []string{"Email is required"}
	}
	if c.Password == "" {
		details["password"] = []string{"Password is required"}
	}
	if len(details) > 0 {
		return service.NewValidationError("Email and password are required", details)
	}
	return nil
}

// Session describes the signed-in user.
type Session struct {
	UserID    string
	Email     string
	ExpiresAt time.Time
}

// Authenticator is the narrow interface the client depends on.
type Authenticator interface {
	// Session returns the current session, refreshing it if needed.
	// Returns ErrNoSession when signed out.
	Session(ctx context.Context) (Session, error)

	// SignIn authenticates with the provider and stores the session.
	SignIn(ctx context.Context, creds Credentials) (Session, error)

	// SignUp registers a new account and signs it in.
	SignUp(ctx context.Context, creds Credentials) (Session, error)

	// SignOut ends the session. Signing out while signed out is not an error.
	SignOut(ctx context.Context) error

	// TokenSource returns bearer tokens for the current session. Failures
	// are reported as service auth errors.
	TokenSource(ctx context.Context) oauth2.TokenSource
}

// errTokenSource is a TokenSource that always fails with err.
type errTokenSource struct{ err error }

func (s errTokenSource) Token() (*oauth2.Token, error) { return nil, s.err }

// persistingTokenSource saves refreshed tokens back to the token file.
type persistingTokenSource struct {
	base   oauth2.TokenSource
	file   *tokenFile
	saved  stored
	logger zerolog.Logger
}

func (s *persistingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, service.NewAuthError(ErrSessionExpired.Error(), err)
	}
	if tok.AccessToken != s.saved.AccessToken {
		next := s.saved
		next.Token = *tok
		if err := s.file.save(next); err != nil {
			// The token is still usable for this process.
			s.logger.Warn().Err(err).Msg("failed to save refreshed token")
		} else {
			s.saved = next
		}
	}
	return tok, nil
}
