// Package config handles XDG configuration directory, file paths and the
// environment settings read once at startup.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	// AppName is the application directory name.
	AppName = "todo"

	// TokenFile is the stored session token filename.
	TokenFile = "token.json"

	// OAuthClientFile is the Google OAuth client credentials filename,
	// used only by the googletasks backend.
	OAuthClientFile = "oauth_client.json"

	// HistoryFile stores interactive shell history.
	HistoryFile = "history"
)

// Backend names accepted by TODO_BACKEND.
const (
	BackendREST        = "rest"
	BackendGoogleTasks = "googletasks"
)

// Env holds settings read from the environment.
type Env struct {
	APIURL     string        `env:"TODO_API_URL" env-default:"http://localhost:8080"`
	AuthURL    string        `env:"TODO_AUTH_URL" env-default:"http://localhost:9096"`
	ClientID   string        `env:"TODO_AUTH_CLIENT_ID" env-default:"todo-cli"`
	Backend    string        `env:"TODO_BACKEND" env-default:"rest"`
	APITimeout time.Duration `env:"TODO_API_TIMEOUT" env-default:"5s"`
}

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// Env is the environment configuration.
	Env Env

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output.
	Quiet bool
}

// New creates a new Config with the default or specified config directory
// and reads the environment.
// If configDir is empty, uses XDG_CONFIG_HOME/todo or $HOME/.config/todo.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}

	var env Env
	if err := cleanenv.ReadEnv(&env); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}
	if err := env.validate(); err != nil {
		return nil, err
	}

	return &Config{Dir: dir, Env: env}, nil
}

func (e *Env) validate() error {
	e.APIURL = strings.TrimRight(strings.TrimSpace(e.APIURL), "/")
	e.AuthURL = strings.TrimRight(strings.TrimSpace(e.AuthURL), "/")

	for name, raw := range map[string]string{"TODO_API_URL": e.APIURL, "TODO_AUTH_URL": e.AuthURL} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%s: invalid URL %q", name, raw)
		}
	}

	switch e.Backend {
	case BackendREST, BackendGoogleTasks:
	default:
		return fmt.Errorf("TODO_BACKEND: unknown backend %q (want rest or googletasks)", e.Backend)
	}

	if e.APITimeout <= 0 {
		return fmt.Errorf("TODO_API_TIMEOUT must be positive")
	}
	return nil
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home can't be determined
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// TokenPath returns the path to the stored session token file.
func (c *Config) TokenPath() string {
	return filepath.Join(c.Dir, TokenFile)
}

// OAuthClientPath returns the path to the Google OAuth client credentials file.
func (c *Config) OAuthClientPath() string {
	return filepath.Join(c.Dir, OAuthClientFile)
}

// HistoryPath returns the path to the shell history file.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.Dir, HistoryFile)
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}

// HasOAuthClient checks if the OAuth client credentials file exists.
func (c *Config) HasOAuthClient() bool {
	_, err := os.Stat(c.OAuthClientPath())
	return err == nil
}

// HasToken checks if the token file exists.
func (c *Config) HasToken() bool {
	_, err := os.Stat(c.TokenPath())
	return err == nil
}

// RemoveToken deletes the token file.
func (c *Config) RemoveToken() error {
	return os.Remove(c.TokenPath())
}
