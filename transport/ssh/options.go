package ssh

import (
	"errors"
	"os"
	"strconv"
)

// Errors specific to the SSH backend.
var (
	ErrHostRequired = errors.New("ssh: host is required")
	ErrUserRequired = errors.New("ssh: user is required")
)

// Config holds configuration for the SSH/SFTP backend.
type Config struct {
	// Host is the SSH server hostname or IP address (required).
	Host string

	// Port is the SSH port. Default: 22.
	Port int

	// User is the SSH username (required).
	User string

	// Password is the SSH password. Either Password or KeyFile must be
	// provided.
	Password string

	// KeyFile is the path to an SSH private key file. Either Password or
	// KeyFile must be provided.
	KeyFile string

	// KeyPassphrase is the passphrase for encrypted private keys.
	KeyPassphrase string

	// Root is the base directory on the remote server. All paths are
	// relative to this directory.
	Root string

	// KnownHostsFile is the path to the known_hosts file. If empty, host
	// key verification is disabled (insecure, dev/test only).
	KnownHostsFile string

	// Timeout is the connection timeout in seconds. Default: 30.
	Timeout int
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{Port: 22, Timeout: 30}
}

// ConfigFromEnv creates a Config from environment variables.
func ConfigFromEnv() Config {
	config := DefaultConfig()
	if v := os.Getenv("STREAMIO_SSH_HOST"); v != "" {
		config.Host = v
	}
	if v := os.Getenv("STREAMIO_SSH_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			config.Port = port
		}
	}
	if v := os.Getenv("STREAMIO_SSH_USER"); v != "" {
		config.User = v
	}
	if v := os.Getenv("STREAMIO_SSH_PASSWORD"); v != "" {
		config.Password = v
	}
	if v := os.Getenv("STREAMIO_SSH_KEY_FILE"); v != "" {
		config.KeyFile = v
	}
	if v := os.Getenv("STREAMIO_SSH_KEY_PASSPHRASE"); v != "" {
		config.KeyPassphrase = v
	}
	if v := os.Getenv("STREAMIO_SSH_ROOT"); v != "" {
		config.Root = v
	}
	if v := os.Getenv("STREAMIO_SSH_KNOWN_HOSTS"); v != "" {
		config.KnownHostsFile = v
	}
	if v := os.Getenv("STREAMIO_SSH_TIMEOUT"); v != "" {
		if timeout, err := strconv.Atoi(v); err == nil && timeout > 0 {
			config.Timeout = timeout
		}
	}
	return config
}

// ConfigFromMap builds a Config from a Location's fields plus
// transport_params, recognizing "password", "key_file", "key_passphrase",
// "root", "known_hosts", and "timeout". A password in the Location wins
// over the "password" param.
func ConfigFromMap(host string, port int, user, password string, params map[string]any) Config {
	config := DefaultConfig()
	config.Host = host
	config.User = user
	config.Password = password
	if port != 0 {
		config.Port = port
	}
	if v, ok := params["password"].(string); ok && config.Password == "" {
		config.Password = v
	}
	if v, ok := params["key_file"]; ok {
		if s, ok := v.(string); ok {
			config.KeyFile = s
		}
	}
	if v, ok := params["key_passphrase"]; ok {
		if s, ok := v.(string); ok {
			config.KeyPassphrase = s
		}
	}
	if v, ok := params["root"]; ok {
		if s, ok := v.(string); ok {
			config.Root = s
		}
	}
	if v, ok := params["known_hosts"]; ok {
		if s, ok := v.(string); ok {
			config.KnownHostsFile = s
		}
	}
	if v, ok := params["timeout"]; ok {
		switch t := v.(type) {
		case int:
			config.Timeout = t
		case int64:
			config.Timeout = int(t)
		}
	}
	return config
}

// Validate checks if the configuration is sufficient to dial.
func (c Config) Validate() error {
	if c.Host == "" {
		return ErrHostRequired
	}
	if c.User == "" {
		return ErrUserRequired
	}
	return nil
}
