package http

import (
	"os"
	"strconv"
	"time"
)

// Config holds configuration for the HTTP(S) backend.
type Config struct {
	// BaseURL, if set, is prefixed onto every relative path passed to
	// Backend methods.
	BaseURL string

	// User enables HTTP Basic auth (with Password, which may be empty)
	// when set and BearerToken is empty.
	User     string
	Password string

	// BearerToken, if set, is sent as "Authorization: Bearer <token>".
	BearerToken string

	// Timeout bounds each request. Default: 30s.
	Timeout time.Duration

	// InsecureSkipVerify disables TLS certificate verification. Dev/test
	// only.
	InsecureSkipVerify bool
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{Timeout: 30 * time.Second}
}

// ConfigFromEnv creates a Config from environment variables.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	if v := os.Getenv("STREAMIO_HTTP_USER"); v != "" {
		cfg.User = v
	}
	if v := os.Getenv("STREAMIO_HTTP_PASSWORD"); v != "" {
		cfg.Password = v
	}
	if v := os.Getenv("STREAMIO_HTTP_BEARER_TOKEN"); v != "" {
		cfg.BearerToken = v
	}
	if v := os.Getenv("STREAMIO_HTTP_TIMEOUT_SECONDS"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			cfg.Timeout = time.Duration(secs) * time.Second
		}
	}
	return cfg
}

// ConfigFromMap builds a Config from transport_params, recognizing "user",
// "password", "bearer_token", "timeout_seconds", and "insecure_skip_verify".
func ConfigFromMap(params map[string]any) Config {
	cfg := DefaultConfig()
	if v, ok := params["user"].(string); ok {
		cfg.User = v
	}
	if v, ok := params["password"].(string); ok {
		cfg.Password = v
	}
	if v, ok := params["bearer_token"].(string); ok {
		cfg.BearerToken = v
	}
	if v, ok := params["timeout_seconds"]; ok {
		switch t := v.(type) {
		case int:
			cfg.Timeout = time.Duration(t) * time.Second
		case int64:
			cfg.Timeout = time.Duration(t) * time.Second
		}
	}
	if v, ok := params["insecure_skip_verify"].(bool); ok {
		cfg.InsecureSkipVerify = v
	}
	return cfg
}
