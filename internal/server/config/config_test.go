package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

// unsetenv removes key for the duration of the test.
func unsetenv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	os.Unsetenv(key)
}

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SIGNING_KEY", "test-key")
	for _, key := range []string{
		"ENV", "HTTP_HOST", "HTTP_PORT", "HTTP_READ_TIMEOUT", "HTTP_WRITE_TIMEOUT",
		"HTTP_SHUTDOWN_TIMEOUT", "STORAGE", "POSTGRES_DSN", "SQLITE_PATH",
		"REDIS_URL", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "CACHE_TTL",
		"JWT_ISSUER", "CORS_ALLOW_ORIGINS",
	} {
		unsetenv(t, key)
	}
}

func TestRead_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := NewEnvReader().Read()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Env != EnvLocal {
		t.Errorf("expected env %q, got %q", EnvLocal, cfg.Env)
	}
	if cfg.Storage.Driver != StorageMemory {
		t.Errorf("expected storage %q, got %q", StorageMemory, cfg.Storage.Driver)
	}
	if cfg.HTTP.Addr() != ":8080" {
		t.Errorf("expected addr :8080, got %q", cfg.HTTP.Addr())
	}
	if cfg.HTTP.ShutdownTimeout.Duration() != 5*time.Second {
		t.Errorf("expected 5s shutdown timeout, got %v", cfg.HTTP.ShutdownTimeout.Duration())
	}
	if cfg.Redis.Enabled() {
		t.Error("expected redis cache disabled")
	}
	if len(cfg.CORS.AllowOrigins) != 1 || cfg.CORS.AllowOrigins[0] != "*" {
		t.Errorf("unexpected CORS origins %q", cfg.CORS.AllowOrigins)
	}
}

func TestRead_MissingSigningKey(t *testing.T) {
	setRequired(t)
	unsetenv(t, "JWT_SIGNING_KEY")

	if _, err := NewEnvReader().Read(); err == nil {
		t.Fatal("expected error without JWT_SIGNING_KEY")
	}
}

func TestRead_PostgresNeedsDSN(t *testing.T) {
	setRequired(t)
	t.Setenv("STORAGE", StoragePostgres)

	_, err := NewEnvReader().Read()
	if err == nil || !strings.Contains(err.Error(), "POSTGRES_DSN") {
		t.Fatalf("expected POSTGRES_DSN error, got %v", err)
	}
}

func TestRead_RedisURL(t *testing.T) {
	setRequired(t)
	t.Setenv("REDIS_URL", "redis://default:pw@cache:6380/2")
	t.Setenv("CACHE_TTL", "30")

	cfg, err := NewEnvReader().Read()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.Redis.Enabled() {
		t.Fatal("expected redis cache enabled")
	}
	opts, err := cfg.Redis.Options()
	if err != nil {
		t.Fatalf("options: %v", err)
	}
	if opts.Addr != "cache:6380" || opts.Username != "default" || opts.Password != "pw" || opts.DB != 2 {
		t.Errorf("unexpected redis options addr=%q user=%q db=%d", opts.Addr, opts.Username, opts.DB)
	}
	if opts.TLSConfig != nil {
		t.Error("expected plaintext for redis://")
	}
	if cfg.Redis.TTL.Duration() != 30*time.Second {
		t.Errorf("expected 30s ttl, got %v", cfg.Redis.TTL.Duration())
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{in: "10", want: 10 * time.Second},
		{in: "5m", want: 5 * time.Minute},
		{in: `"250ms"`, want: 250 * time.Millisecond},
		{in: "", wantErr: true},
		{in: "soon", wantErr: true},
	}

	for _, tt := range tests {
		got, err := parseDuration(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("%q: expected error", tt.in)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("%q: expected %v, got %v (%v)", tt.in, tt.want, got, err)
		}
	}
}

func TestRedisOptions_TLS(t *testing.T) {
	setRequired(t)
	t.Setenv("REDIS_URL", "rediss://cacheuser:pw@cache.example.com:6380/0")

	cfg, err := NewEnvReader().Read()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	opts, err := cfg.Redis.Options()
	if err != nil {
		t.Fatalf("options: %v", err)
	}
	if opts.TLSConfig == nil {
		t.Fatal("expected TLS for rediss://")
	}
	if opts.TLSConfig.ServerName != "cache.example.com" {
		t.Errorf("expected TLS server name cache.example.com, got %q", opts.TLSConfig.ServerName)
	}
	if opts.Username != "cacheuser" || opts.Addr != "cache.example.com:6380" {
		t.Errorf("unexpected redis options addr=%q user=%q", opts.Addr, opts.Username)
	}
}

func TestRedisOptions_Addr(t *testing.T) {
	setRequired(t)
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_DB", "3")

	cfg, err := NewEnvReader().Read()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	opts, err := cfg.Redis.Options()
	if err != nil {
		t.Fatalf("options: %v", err)
	}
	if opts.Addr != "localhost:6379" || opts.DB != 3 || opts.TLSConfig != nil {
		t.Errorf("unexpected redis options %+v", opts)
	}
}

func TestRead_InvalidRedisURL(t *testing.T) {
	for _, in := range []string{"http://cache:6379", "redis://cache:6379/x"} {
		t.Run(in, func(t *testing.T) {
			setRequired(t)
			t.Setenv("REDIS_URL", in)

			_, err := NewEnvReader().Read()
			if err == nil || !strings.Contains(err.Error(), "REDIS_URL") {
				t.Errorf("expected REDIS_URL error, got %v", err)
			}
		})
	}
}
