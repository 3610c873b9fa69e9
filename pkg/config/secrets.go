package config

import (
	"fmt"
	"os"
	"strings"
)

// resolveSecrets fills credentials from their *_file settings. An inline
// value wins over a file.
func resolveSecrets(cfg *Config) error {
	if cfg.Notify.AccessToken != "" || cfg.Notify.AccessTokenFile == "" {
		return nil
	}

	token, err := readSecretFile(cfg.Notify.AccessTokenFile)
	if err != nil {
		return ValidationError{Errors: []FieldError{{
			Field:   "notify.access_token_file",
			Message: err.Error(),
		}}}
	}
	cfg.Notify.AccessToken = token
	return nil
}

// readSecretFile reads a secret from a regular file that only its owner
// can modify. Surrounding whitespace is trimmed.
func readSecretFile(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("secret file not found: %s", path)
		}
		return "", fmt.Errorf("failed to stat secret file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("secret path is not a regular file: %s", path)
	}
	if perm := info.Mode().Perm(); perm&0o022 != 0 {
		return "", fmt.Errorf("insecure permissions on %s: %o (must not be group or world writable)", path, perm)
	}

	// #nosec G304 - the path comes from trusted configuration
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read secret file: %w", err)
	}

	value := strings.TrimSpace(string(data))
	if value == "" {
		return "", fmt.Errorf("secret file is empty: %s", path)
	}
	return value, nil
}
