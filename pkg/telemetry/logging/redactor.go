package logging

import (
	"log/slog"
	"strings"
)

// DefaultSensitiveKeys are attribute keys whose values never reach the log.
var DefaultSensitiveKeys = []string{
	"access_token",
	"client_id",
	"password",
	"authorization",
	"secret",
}

// Redactor masks credential values in log attributes.
type Redactor struct {
	keys []string
}

// NewRedactor creates a Redactor for the default keys plus extra.
func NewRedactor(extra []string) *Redactor {
	keys := make([]string, 0, len(DefaultSensitiveKeys)+len(extra))
	keys = append(keys, DefaultSensitiveKeys...)
	for _, k := range extra {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			keys = append(keys, k)
		}
	}
	return &Redactor{keys: keys}
}

// ReplaceAttr is a slog.HandlerOptions.ReplaceAttr hook.
func (r *Redactor) ReplaceAttr(_ []string, a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		return a
	}
	if r.isSensitiveKey(a.Key) {
		return slog.String(a.Key, RedactValue(a.Value.String()))
	}
	return a
}

// isSensitiveKey checks if a key name indicates sensitive data.
func (r *Redactor) isSensitiveKey(key string) bool {
	lowerKey := strings.ToLower(key)
	for _, sensitive := range r.keys {
		if strings.Contains(lowerKey, sensitive) {
			return true
		}
	}
	return false
}

// RedactValue masks a secret, keeping only a short prefix of long values
// for identification.
func RedactValue(value string) string {
	if value == "" {
		return ""
	}
	if len(value) <= 8 {
		return "***"
	}
	return value[:4] + "***"
}
