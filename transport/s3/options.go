// Package s3 implements the Backend interface against Amazon S3 and
// S3-compatible object stores, including a hand-rolled seekable reader and
// multipart-upload writer.
package s3

import (
	"errors"
	"os"
	"strconv"
)

// ErrBucketRequired is returned by Validate when no bucket is configured.
var ErrBucketRequired = errors.New("s3: bucket is required")

// Config holds configuration for the S3 backend.
type Config struct {
	// Bucket is the S3 bucket name (required).
	Bucket string

	// Region is the AWS region. If empty, the SDK's default resolution
	// chain (env vars, shared config, IMDS) applies.
	Region string

	// Endpoint is a custom endpoint URL for S3-compatible services (MinIO,
	// R2, Wasabi, ...). Leave empty for AWS S3.
	Endpoint string

	// Prefix is prepended to every key.
	Prefix string

	// AccessKeyID, SecretAccessKey, SessionToken hold static credentials.
	// If empty, the SDK's default credential chain applies.
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string

	// UsePathStyle forces path-style addressing. Required for MinIO and
	// some other S3-compatible services.
	UsePathStyle bool

	// PartSize is the size in bytes of each multipart upload part.
	// Default: 5 MiB (S3's minimum part size).
	PartSize int64

	// MaxParts caps the number of parts a single multipart upload may use
	// before ErrLimitExceeded is returned. Default: 10000 (S3's hard cap).
	MaxParts int
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		PartSize: 5 * 1024 * 1024,
		MaxParts: 10000,
	}
}

// ConfigFromEnv creates a Config from environment variables.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	if v := os.Getenv("STREAMIO_S3_BUCKET"); v != "" {
		cfg.Bucket = v
	}
	if v := os.Getenv("AWS_REGION"); v != "" {
		cfg.Region = v
	} else if v := os.Getenv("AWS_DEFAULT_REGION"); v != "" {
		cfg.Region = v
	}
	if v := os.Getenv("STREAMIO_S3_ENDPOINT"); v != "" {
		cfg.Endpoint = v
	}
	if v := os.Getenv("STREAMIO_S3_PREFIX"); v != "" {
		cfg.Prefix = v
	}
	cfg.AccessKeyID = os.Getenv("AWS_ACCESS_KEY_ID")
	cfg.SecretAccessKey = os.Getenv("AWS_SECRET_ACCESS_KEY")
	cfg.SessionToken = os.Getenv("AWS_SESSION_TOKEN")
	if v := os.Getenv("STREAMIO_S3_USE_PATH_STYLE"); v == "true" || v == "1" {
		cfg.UsePathStyle = true
	}
	if v := os.Getenv("STREAMIO_S3_PART_SIZE"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			cfg.PartSize = n
		}
	}
	return cfg
}

// ConfigFromMap builds a Config from a Location-derived bucket plus
// transport_params, recognizing "region", "endpoint", "prefix",
// "access_key_id", "secret_access_key", "session_token", "use_path_style",
// and "part_size".
func ConfigFromMap(bucket string, params map[string]any) Config {
	cfg := DefaultConfig()
	cfg.Bucket = bucket
	if v, ok := params["region"].(string); ok {
		cfg.Region = v
	}
	if v, ok := params["endpoint"].(string); ok {
		cfg.Endpoint = v
	}
	if v, ok := params["prefix"].(string); ok {
		cfg.Prefix = v
	}
	if v, ok := params["access_key_id"].(string); ok {
		cfg.AccessKeyID = v
	}
	if v, ok := params["secret_access_key"].(string); ok {
		cfg.SecretAccessKey = v
	}
	if v, ok := params["session_token"].(string); ok {
		cfg.SessionToken = v
	}
	if v, ok := params["use_path_style"].(bool); ok {
		cfg.UsePathStyle = v
	}
	if v, ok := params["part_size"]; ok {
		switch n := v.(type) {
		case int:
			cfg.PartSize = int64(n)
		case int64:
			cfg.PartSize = n
		}
	}
	return cfg
}

// Validate checks if the configuration is sufficient to open a client.
func (c Config) Validate() error {
	if c.Bucket == "" {
		return ErrBucketRequired
	}
	return nil
}
