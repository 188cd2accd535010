package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"todo/internal/config"
	"todo/internal/service"
)

const (
	// GoogleTasksScope is the OAuth scope for Google Tasks.
	GoogleTasksScope = "https://www.googleapis.com/auth/tasks"

	// OAuth callback timeout
	oauthCallbackTimeout = 5 * time.Minute

	// Token exchange timeout
	tokenExchangeTimeout = 30 * time.Second

	// Starting port for OAuth callback server
	oauthStartPort = 8085

	// Max port attempts
	oauthMaxPortAttempts = 5
)

// ErrNoOAuthClient is returned when oauth_client.json is missing.
var ErrNoOAuthClient = errors.New("oauth_client.json not found")

// GoogleProvider signs in with a Google account through the browser
// loopback flow. It backs the googletasks backend.
type GoogleProvider struct {
	cfg    *config.Config
	file   *tokenFile
	prompt io.Writer
	logger zerolog.Logger
}

// NewGoogleProvider creates a GoogleProvider. The authorization URL is
// printed to prompt during sign-in.
func NewGoogleProvider(cfg *config.Config, prompt io.Writer, logger zerolog.Logger) *GoogleProvider {
	return &GoogleProvider{
		cfg:    cfg,
		file:   &tokenFile{path: cfg.TokenPath()},
		prompt: prompt,
		logger: logger,
	}
}

func (g *GoogleProvider) oauthConfig() (*oauth2.Config, error) {
	clientJSON, err := os.ReadFile(g.cfg.OAuthClientPath())
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w in %s", ErrNoOAuthClient, g.cfg.Dir)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read oauth_client.json: %w", err)
	}
	oauthConfig, err := google.ConfigFromJSON(clientJSON, GoogleTasksScope)
	if err != nil {
		return nil, fmt.Errorf("invalid oauth_client.json: %w", err)
	}
	return oauthConfig, nil
}

// Session implements Authenticator. A session is valid when the stored
// token has a refresh token that Google still accepts.
func (g *GoogleProvider) Session(ctx context.Context) (Session, error) {
	s, err := g.file.load()
	if err != nil {
		return Session{}, err
	}
	if s.RefreshToken == "" {
		return Session{}, ErrSessionExpired
	}
	if s.Token.Valid() {
		return s.session(), nil
	}

	oauthConfig, err := g.oauthConfig()
	if err != nil {
		return Session{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	tok, err := oauthConfig.TokenSource(ctx, &s.Token).Token()
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrSessionExpired, err)
	}
	s.Token = *tok
	if err := g.file.save(s); err != nil {
		return Session{}, fmt.Errorf("failed to save token: %w", err)
	}
	return s.session(), nil
}

// SignIn implements Authenticator. Credentials are ignored; the user
// authenticates in the browser.
func (g *GoogleProvider) SignIn(ctx context.Context, _ Credentials) (Session, error) {
	oauthConfig, err := g.oauthConfig()
	if err != nil {
		return Session{}, service.NewAuthError("oauth client not configured", err)
	}

	port, listener, err := findAvailablePort()
	if err != nil {
		return Session{}, service.NewAuthError("could not bind to local port for OAuth callback", err)
	}
	defer listener.Close()

	oauthConfig.RedirectURL = fmt.Sprintf("http://localhost:%d/callback", port)

	verifier := oauth2.GenerateVerifier()
	authURL := oauthConfig.AuthCodeURL("state",
		oauth2.AccessTypeOffline,
		oauth2.S256ChallengeOption(verifier),
	)

	fmt.Fprintln(g.prompt, "Open this URL in your browser:")
	fmt.Fprintln(g.prompt, authURL)

	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "No code in callback", http.StatusBadRequest)
			errCh <- fmt.Errorf("no code in callback")
			return
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "<html><body><h1>Signed in</h1><p>You may close this window.</p></body></html>")
		codeCh <- code
	})

	server := &http.Server{Handler: mux}
	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	var code string
	select {
	case code = <-codeCh:
	case err := <-errCh:
		return Session{}, service.NewAuthError("sign-in failed", err)
	case <-time.After(oauthCallbackTimeout):
		return Session{}, service.NewAuthError("oauth callback timed out", nil)
	case <-ctx.Done():
		return Session{}, service.NewAuthError("cancelled", ctx.Err())
	}

	exchangeCtx, cancelExchange := context.WithTimeout(ctx, tokenExchangeTimeout)
	defer cancelExchange()

	tok, err := oauthConfig.Exchange(exchangeCtx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return Session{}, service.NewAuthError("failed to exchange code for token", err)
	}

	s := stored{Token: *tok}
	if err := g.file.save(s); err != nil {
		return Session{}, fmt.Errorf("failed to save token: %w", err)
	}
	g.logger.Debug().Msg("signed in with google")
	return s.session(), nil
}

// SignUp implements Authenticator. Google accounts are created with Google.
func (g *GoogleProvider) SignUp(ctx context.Context, _ Credentials) (Session, error) {
	return Session{}, service.NewValidationError("sign-up is not available for the googletasks backend; run: todo login", nil)
}

// SignOut implements Authenticator.
func (g *GoogleProvider) SignOut(ctx context.Context) error {
	existed, err := g.file.remove()
	if err != nil {
		return fmt.Errorf("failed to remove token: %w", err)
	}
	if !existed {
		return ErrNoSession
	}
	return nil
}

// TokenSource implements Authenticator.
func (g *GoogleProvider) TokenSource(ctx context.Context) oauth2.TokenSource {
	s, err := g.file.load()
	if err != nil {
		return errTokenSource{err: service.NewAuthError(ErrNoSession.Error(), err)}
	}
	oauthConfig, err := g.oauthConfig()
	if err != nil {
		return errTokenSource{err: service.NewAuthError(err.Error(), nil)}
	}
	return &persistingTokenSource{
		base:   oauthConfig.TokenSource(ctx, &s.Token),
		file:   g.file,
		saved:  s,
		logger: g.logger,
	}
}

// findAvailablePort tries to find an available port starting from oauthStartPort.
func findAvailablePort() (int, net.Listener, error) {
	for i := 0; i < oauthMaxPortAttempts; i++ {
		port := oauthStartPort + i
		listener, err := net.Listen("tcp", fmt.Sprintf("localhost:%d", port))
		if err == nil {
			return port, listener, nil
		}
	}
	return 0, nil, fmt.Errorf("no available port found")
}

var _ Authenticator = (*GoogleProvider)(nil)
