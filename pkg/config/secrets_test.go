package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestResolveSecrets tests reading the notification token from a file.
func TestResolveSecrets(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string, perm os.FileMode) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), perm); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
		if err := os.Chmod(path, perm); err != nil {
			t.Fatalf("Failed to chmod %s: %v", name, err)
		}
		return path
	}

	tests := []struct {
		name        string
		inline      string
		file        string
		expected    string
		errContains string
	}{
		{
			name:     "no file",
			expected: "",
		},
		{
			name:     "token from file is trimmed",
			file:     write("token", "  s3cret-token\n", 0600),
			expected: "s3cret-token",
		},
		{
			name:     "inline value wins",
			inline:   "inline-token",
			file:     write("other", "file-token", 0600),
			expected: "inline-token",
		},
		{
			name:        "missing file",
			file:        filepath.Join(dir, "missing"),
			errContains: "secret file not found",
		},
		{
			name:        "world writable",
			file:        write("loose", "token", 0666),
			errContains: "insecure permissions",
		},
		{
			name:        "empty file",
			file:        write("empty", "\n", 0600),
			errContains: "secret file is empty",
		},
		{
			name:        "directory",
			file:        dir,
			errContains: "not a regular file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Notify.AccessToken = tt.inline
			cfg.Notify.AccessTokenFile = tt.file

			err := resolveSecrets(cfg)
			if tt.errContains != "" {
				if err == nil || !strings.Contains(err.Error(), tt.errContains) {
					t.Fatalf("Expected error containing %q, got %v", tt.errContains, err)
				}
				if !strings.Contains(err.Error(), "notify.access_token_file") {
					t.Errorf("Expected error to name the field, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if cfg.Notify.AccessToken != tt.expected {
				t.Errorf("Expected token %q, got %q", tt.expected, cfg.Notify.AccessToken)
			}
		})
	}
}
