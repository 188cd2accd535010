package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"todo/internal/config"
	"todo/internal/service"
)

// Provider endpoints, relative to the auth provider URL.
const (
	TokenEndpoint   = "/oauth/token"
	SignUpEndpoint  = "/sign-up"
	SignOutEndpoint = "/sign-out"

	// requestTimeout bounds every call to the auth provider.
	requestTimeout = 10 * time.Second
)

// Provider authenticates against an OAuth2 provider using the
// resource-owner password grant and keeps the session in token.json.
type Provider struct {
	oauth   *oauth2.Config
	authURL string
	file    *tokenFile
	client  *http.Client
	logger  zerolog.Logger
}

// ProviderOption configures a Provider.
type ProviderOption func(*Provider)

// WithHTTPClient sets the HTTP client used for provider calls.
func WithHTTPClient(c *http.Client) ProviderOption {
	return func(p *Provider) { p.client = c }
}

// WithLogger sets the provider logger.
func WithLogger(l zerolog.Logger) ProviderOption {
	return func(p *Provider) { p.logger = l }
}

// NewProvider creates a Provider for the auth URL and client ID in cfg.
func NewProvider(cfg *config.Config, opts ...ProviderOption) *Provider {
	p := &Provider{
		oauth: &oauth2.Config{
			ClientID: cfg.Env.ClientID,
			Endpoint: oauth2.Endpoint{
				TokenURL:  cfg.Env.AuthURL + TokenEndpoint,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		authURL: cfg.Env.AuthURL,
		file:    &tokenFile{path: cfg.TokenPath()},
		client:  http.DefaultClient,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Session implements Authenticator.
func (p *Provider) Session(ctx context.Context) (Session, error) {
	s, err := p.file.load()
	if err != nil {
		return Session{}, err
	}
	if s.Token.Valid() {
		return s.session(), nil
	}
	if s.RefreshToken == "" {
		return Session{}, ErrSessionExpired
	}

	ctx, cancel := context.WithTimeout(p.ctx(ctx), requestTimeout)
	defer cancel()

	tok, err := p.oauth.TokenSource(ctx, &s.Token).Token()
	if err != nil {
		p.logger.Debug().Err(err).Msg("token refresh failed")
		return Session{}, fmt.Errorf("%w: %v", ErrSessionExpired, err)
	}
	s.Token = *tok
	if err := p.file.save(s); err != nil {
		return Session{}, fmt.Errorf("failed to save token: %w", err)
	}
	return s.session(), nil
}

// SignIn implements Authenticator.
func (p *Provider) SignIn(ctx context.Context, creds Credentials) (Session, error) {
	if err := creds.Validate(); err != nil {
		return Session{}, err
	}
	email := strings.TrimSpace(creds.Email)

	ctx, cancel := context.WithTimeout(p.ctx(ctx), requestTimeout)
	defer cancel()

	tok, err := p.oauth.PasswordCredentialsToken(ctx, email, creds.Password)
	if err != nil {
		return Session{}, classifyTokenError(err)
	}

	s := stored{Token: *tok}
	s.UserID, s.Email = identityFromToken(tok)
	if s.Email == "" {
		s.Email = email
	}
	if err := p.file.save(s); err != nil {
		return Session{}, fmt.Errorf("failed to save token: %w", err)
	}

	p.logger.Debug().Str("user_id", s.UserID).Msg("signed in")
	return s.session(), nil
}

// SignUp implements Authenticator.
func (p *Provider) SignUp(ctx context.Context, creds Credentials) (Session, error) {
	if err := creds.Validate(); err != nil {
		return Session{}, err
	}

	body, err := json.Marshal(map[string]string{
		"email":     strings.TrimSpace(creds.Email),
		"password":  creds.Password,
		"client_id": p.oauth.ClientID,
	})
	if err != nil {
		return Session{}, err
	}

	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, p.authURL+SignUpEndpoint, bytes.NewReader(body))
	if err != nil {
		return Session{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return Session{}, service.NewNetworkError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return Session{}, providerError(resp)
	}

	return p.SignIn(ctx, creds)
}

// SignOut implements Authenticator. The provider is told to revoke the
// session on a best-effort basis; the local token is always removed.
func (p *Provider) SignOut(ctx context.Context) error {
	s, err := p.file.load()
	if errors.Is(err, ErrNoSession) {
		return ErrNoSession
	}
	if err == nil {
		p.revoke(ctx, s)
	}

	if _, err := p.file.remove(); err != nil {
		return fmt.Errorf("failed to remove token: %w", err)
	}
	return nil
}

func (p *Provider) revoke(ctx context.Context, s stored) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.authURL+SignOutEndpoint, nil)
	if err != nil {
		return
	}
	s.Token.SetAuthHeader(req)

	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.Debug().Err(err).Msg("sign-out request failed")
		return
	}
	resp.Body.Close()
}

// TokenSource implements Authenticator.
func (p *Provider) TokenSource(ctx context.Context) oauth2.TokenSource {
	s, err := p.file.load()
	if err != nil {
		return errTokenSource{err: service.NewAuthError(ErrNoSession.Error(), err)}
	}
	return &persistingTokenSource{
		base:   p.oauth.TokenSource(p.ctx(ctx), &s.Token),
		file:   p.file,
		saved:  s,
		logger: p.logger,
	}
}

func (p *Provider) ctx(ctx context.Context) context.Context {
	if p.client == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, p.client)
}

func (s stored) session() Session {
	return Session{UserID: s.UserID, Email: s.Email, ExpiresAt: s.Expiry}
}

// identityFromToken reads the user id and email from the access token's
// JWT claims, falling back to extra fields in the token response. The
// signature is not checked here; the API server verifies it.
func identityFromToken(tok *oauth2.Token) (userID, email string) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tok.AccessToken, claims); err == nil {
		userID, _ = claims.GetSubject()
		email, _ = claims["email"].(string)
	}
	if userID == "" {
		userID, _ = tok.Extra("user_id").(string)
	}
	if email == "" {
		email, _ = tok.Extra("email").(string)
	}
	return userID, email
}

func classifyTokenError(err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) && re.Response != nil {
		switch {
		case re.Response.StatusCode == http.StatusBadRequest, re.Response.StatusCode == http.StatusUnauthorized:
			return service.NewAuthError("invalid email or password", err)
		case re.Response.StatusCode >= 500:
			return service.NewServerError("auth provider error", err)
		}
		return service.NewAuthError("sign-in failed", err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return service.NewNetworkError(errors.New("request timed out"))
	}
	return service.NewNetworkError(err)
}

// providerError maps a failed provider response to a service error,
// reading the message from an error envelope when one is present.
func providerError(resp *http.Response) error {
	var env struct {
		Message string              `json:"message"`
		Details map[string][]string `json:"details"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	_ = json.Unmarshal(data, &env)

	msg := env.Message
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	switch {
	case resp.StatusCode == http.StatusBadRequest,
		resp.StatusCode == http.StatusConflict,
		resp.StatusCode == http.StatusUnprocessableEntity:
		return service.NewValidationError(msg, env.Details)
	case resp.StatusCode >= 500:
		return service.NewServerError(msg, nil)
	default:
		return service.NewAuthError(msg, nil)
	}
}

var _ Authenticator = (*Provider)(nil)
