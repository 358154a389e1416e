// Package config loads application configuration from environment variables.
package config

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	env "github.com/allisson/go-env"
	"github.com/joho/godotenv"

	"github.com/ericfisherdev/qabox/internal/domain/model"
)

// secretKeyLen is the decoded size of QABOX_SECRET_KEY (AES-256).
const secretKeyLen = 32

// Config holds the application configuration loaded from environment variables.
type Config struct {
	BackendURL      string
	RequestTimeout  time.Duration
	StatePath       string
	SecretKey       []byte
	LogLevel        slog.Level
	ProxyListenAddr string

	namespace model.Namespace
}

// Namespace returns the protected namespace shared by the route guard and the
// request/response interceptors.
func (c *Config) Namespace() model.Namespace {
	return c.namespace
}

// Ephemeral reports whether session state lives only for the process lifetime.
func (c *Config) Ephemeral() bool {
	return c.StatePath == ""
}

// HasSecretKey reports whether stored credentials are encrypted at rest.
func (c *Config) HasSecretKey() bool {
	return len(c.SecretKey) > 0
}

// Load reads configuration from environment variables and returns a validated Config.
// A .env file in the working directory or any parent is loaded first; variables
// already set in the environment win.
// Variables with defaults: QABOX_BACKEND_URL (built from QABOX_BACKEND_HOST
// 127.0.0.1 and QABOX_BACKEND_PORT 18000), QABOX_ADMIN_ROUTE_PREFIX (/console-x7k9m),
// QABOX_API_BASE (/api), QABOX_STATE_PATH (qabox.db, empty for in-memory),
// QABOX_REQUEST_TIMEOUT (10s), QABOX_LOG_LEVEL (info),
// QABOX_PROXY_LISTEN_ADDR (0.0.0.0:5173). QABOX_SECRET_KEY is optional.
func Load() (*Config, error) {
	loadDotEnv()

	backendURL, err := backendURL()
	if err != nil {
		return nil, err
	}

	ns, err := model.NewNamespace(
		env.GetString("QABOX_ADMIN_ROUTE_PREFIX", model.DefaultAdminRoutePrefix),
		env.GetString("QABOX_API_BASE", model.DefaultAPIBase),
	)
	if err != nil {
		return nil, fmt.Errorf("QABOX_ADMIN_ROUTE_PREFIX/QABOX_API_BASE: %w", err)
	}

	timeoutRaw := env.GetString("QABOX_REQUEST_TIMEOUT", "10s")
	timeout, err := time.ParseDuration(timeoutRaw)
	if err != nil {
		return nil, fmt.Errorf("QABOX_REQUEST_TIMEOUT has invalid duration %q: %w", timeoutRaw, err)
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("QABOX_REQUEST_TIMEOUT must be positive, got %s", timeout)
	}

	statePath := "qabox.db"
	if v, ok := os.LookupEnv("QABOX_STATE_PATH"); ok {
		statePath = strings.TrimSpace(v)
	}

	secretKey, err := parseSecretKey(os.Getenv("QABOX_SECRET_KEY"))
	if err != nil {
		return nil, err
	}

	levelRaw := env.GetString("QABOX_LOG_LEVEL", "info")
	var level slog.Level
	if err := level.UnmarshalText([]byte(levelRaw)); err != nil {
		return nil, fmt.Errorf("QABOX_LOG_LEVEL has invalid level %q: %w", levelRaw, err)
	}

	proxyAddr := env.GetString("QABOX_PROXY_LISTEN_ADDR", "0.0.0.0:5173")
	if _, _, err := net.SplitHostPort(proxyAddr); err != nil {
		return nil, fmt.Errorf("QABOX_PROXY_LISTEN_ADDR %q: %w", proxyAddr, err)
	}

	return &Config{
		BackendURL:      backendURL,
		RequestTimeout:  timeout,
		StatePath:       statePath,
		SecretKey:       secretKey,
		LogLevel:        level,
		ProxyListenAddr: proxyAddr,
		namespace:       ns,
	}, nil
}

func backendURL() (string, error) {
	raw := env.GetString("QABOX_BACKEND_URL", "")
	if raw == "" {
		host := env.GetString("QABOX_BACKEND_HOST", "127.0.0.1")
		port := env.GetInt("QABOX_BACKEND_PORT", 18000)
		raw = "http://" + net.JoinHostPort(host, strconv.Itoa(port))
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("QABOX_BACKEND_URL %q: %w", raw, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("QABOX_BACKEND_URL %q must be an absolute http(s) URL", raw)
	}
	// Endpoint paths are matched against the namespace from the root, so the
	// backend must be served at the origin root.
	if strings.Trim(u.Path, "/") != "" || u.RawQuery != "" || u.Fragment != "" {
		return "", fmt.Errorf("QABOX_BACKEND_URL %q must not contain a path, query or fragment", raw)
	}
	return strings.TrimRight(u.String(), "/"), nil
}

// parseSecretKey decodes a hex-encoded 32-byte key. Empty means no encryption.
func parseSecretKey(raw string) ([]byte, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("QABOX_SECRET_KEY is not valid hex: %w", err)
	}
	if len(key) != secretKeyLen {
		return nil, fmt.Errorf("QABOX_SECRET_KEY must be %d hex characters, got %d", secretKeyLen*2, len(raw))
	}
	return key, nil
}

// loadDotEnv loads the nearest .env file found walking up from the working
// directory.
func loadDotEnv() {
	dir, err := os.Getwd()
	if err != nil {
		return
	}

	for {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
			return
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}
