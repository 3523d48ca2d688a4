// Package shared provides common utility functions used across multiple
// packages in the chem-datapackager codebase.
package shared

import (
	"fmt"
	"strings"
)

// HTTPStatusErrorWithBody creates a formatted error that includes the
// response body for non-2xx HTTP responses.
func HTTPStatusErrorWithBody(status int, url string, body string) error {
	return fmt.Errorf("status=%d url=%s response=%s", status, url, strings.TrimSpace(body))
}

// CommandError wraps a command execution error with its trimmed output
// for cleaner error messages.
func CommandError(output []byte, err error) error {
	return fmt.Errorf("%s: %w", strings.TrimSpace(string(output)), err)
}

// ContainsAny reports whether any of messages contains one of needles.
func ContainsAny(messages []string, needles ...string) bool {
	for _, message := range messages {
		for _, needle := range needles {
			if strings.Contains(message, needle) {
				return true
			}
		}
	}
	return false
}
