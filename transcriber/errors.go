package transcriber

import (
	"fmt"
	"net/http"
	"unicode/utf8"
)

// Error is a failed transcription request. Status is zero for transport
// failures.
type Error struct {
	Provider string
	Status   int
	Body     string
	Err      error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.Status == 0:
		return fmt.Sprintf("%s: %v", e.Provider, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: HTTP %d: %v", e.Provider, e.Status, e.Err)
	}
	return fmt.Sprintf("%s API error %d: %s", e.Provider, e.Status, e.Body)
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether another attempt could succeed.
func (e *Error) Retryable() bool {
	return e.Status == 0 || e.Status == http.StatusTooManyRequests || e.Status >= 500
}

// ConfigError means the provider cannot be called with the current settings.
type ConfigError struct {
	Provider string
	Field    string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s is not configured", e.Provider, e.Field)
}

const maxBodySnippet = 512

func snippet(b []byte) string {
	if len(b) == 0 {
		return "<empty>"
	}
	if !utf8.Valid(b) {
		return fmt.Sprintf("<binary %d bytes>", len(b))
	}
	if len(b) > maxBodySnippet {
		return fmt.Sprintf("%s... (%d bytes)", b[:maxBodySnippet], len(b))
	}
	return string(b)
}
