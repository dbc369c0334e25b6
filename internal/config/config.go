// Package config handles the connector configuration supplied by the host
// ingestion platform and the DocuSign private key material.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// DefaultPrivateKeyFile is the private key location used when the
// configuration carries neither an inline key nor an explicit path.
// Relative paths resolve against the connector's install directory.
const DefaultPrivateKeyFile = "./private_key"

// Configuration keys recognized by the connector.
const (
	KeyIntegrationKey = "integration_key"
	KeyUserID         = "user_id"
	KeyOAuthBaseURL   = "oauth_base_url"
	KeyBaseURL        = "base_url"
	KeyAccountID      = "account_id"
	KeyPrivateKey     = "private_key"
	KeyPrivateKeyPath = "private_key_path"
)

// requiredKeys must be present and non-empty after trimming.
var requiredKeys = []string{
	KeyIntegrationKey,
	KeyUserID,
	KeyOAuthBaseURL,
	KeyBaseURL,
	KeyAccountID,
}

// Config holds the validated connector configuration for one sync.
type Config struct {
	IntegrationKey string
	UserID         string
	OAuthBaseURL   string
	BaseURL        string
	AccountID      string
	PrivateKey     string
	PrivateKeyPath string
}

// ConfigError reports missing required configuration keys.
type ConfigError struct {
	Missing []string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return "missing required DocuSign configuration values: " + strings.Join(e.Missing, ", ")
}

// KeyNotFoundError reports a private key file that does not exist.
type KeyNotFoundError struct {
	Path string
}

// Error implements the error interface.
func (e *KeyNotFoundError) Error() string {
	return fmt.Sprintf("DocuSign private key file not found at %q", e.Path)
}

// FromMap validates and normalizes the flat string configuration the host
// passes into each sync. Values are trimmed; every missing required key is
// reported in a single *ConfigError.
func FromMap(m map[string]string) (*Config, error) {
	var missing []string
	for _, key := range requiredKeys {
		if strings.TrimSpace(m[key]) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, &ConfigError{Missing: missing}
	}

	return &Config{
		IntegrationKey: strings.TrimSpace(m[KeyIntegrationKey]),
		UserID:         strings.TrimSpace(m[KeyUserID]),
		OAuthBaseURL:   strings.TrimSpace(m[KeyOAuthBaseURL]),
		BaseURL:        strings.TrimSpace(m[KeyBaseURL]),
		AccountID:      strings.TrimSpace(m[KeyAccountID]),
		PrivateKey:     strings.TrimSpace(m[KeyPrivateKey]),
		PrivateKeyPath: strings.TrimSpace(m[KeyPrivateKeyPath]),
	}, nil
}

// PrivateKeyPEM returns the RS256 private key in PEM form. An inline
// private_key value wins; otherwise the key is read from private_key_path
// (default ./private_key), resolved relative to the install directory when
// not absolute.
func (c *Config) PrivateKeyPEM() (string, error) {
	if c.PrivateKey != "" {
		return c.PrivateKey, nil
	}

	path := c.PrivateKeyPath
	if path == "" {
		path = DefaultPrivateKeyFile
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(installDir(), path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", &KeyNotFoundError{Path: path}
		}
		return "", fmt.Errorf("failed to read private key file: %w", err)
	}
	return string(data), nil
}

// installDir returns the directory the connector binary runs from, falling
// back to the working directory.
func installDir() string {
	if exe, err := os.Executable(); err == nil {
		return filepath.Dir(exe)
	}
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	return dir
}

// LoadFile reads a configuration file (JSON or YAML) into the flat string
// map the connector consumes. Non-string values are stringified, mirroring
// the sanitization the ingestion platform applies before invoking the
// connector.
func LoadFile(path string) (map[string]string, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read configuration file: %w", err)
	}

	out := make(map[string]string)
	for key, value := range v.AllSettings() {
		out[key] = fmt.Sprintf("%v", value)
	}
	return out, nil
}
