// Package security checks the environment entries pmdgate passes to PMD.
package security

import (
	"fmt"
	"strings"
)

// LoaderEnvVars change how the JVM launcher or its shell wrapper starts.
// Setting them from a checked-in config file would let the file run
// arbitrary code before PMD does.
var LoaderEnvVars = []string{
	"LD_PRELOAD",
	"LD_LIBRARY_PATH",
	"DYLD_INSERT_LIBRARIES",
	"DYLD_LIBRARY_PATH",
	"BASH_ENV",
	"ENV",
	"ZDOTDIR",
}

var dangerousValuePatterns = []string{
	"$(", "${", "`",
	"&&", "||", ";",
	"\n", "\r",
}

// CheckEnvironment validates KEY=VALUE entries configured for the analyzer
func CheckEnvironment(entries []string) error {
	for i, entry := range entries {
		key, value, ok := strings.Cut(entry, "=")
		if !ok || key == "" {
			return fmt.Errorf("environment entry %d: %q is not KEY=VALUE", i, entry)
		}
		if err := checkEntry(key, value); err != nil {
			return fmt.Errorf("environment entry %d: %w", i, err)
		}
	}
	return nil
}

func checkEntry(key, value string) error {
	for _, v := range LoaderEnvVars {
		if strings.EqualFold(key, v) {
			return fmt.Errorf("%s cannot be set from configuration", key)
		}
	}

	if strings.Contains(value, "\x00") {
		return fmt.Errorf("%s contains a null byte", key)
	}

	for _, pattern := range dangerousValuePatterns {
		if strings.Contains(value, pattern) {
			return fmt.Errorf("%s contains dangerous pattern %q", key, pattern)
		}
	}
	return nil
}

// RedactEnvironment masks the values of entries whose names look like
// secrets, for debug output
func RedactEnvironment(entries []string) []string {
	redacted := make([]string, len(entries))
	for i, entry := range entries {
		key, _, ok := strings.Cut(entry, "=")
		if ok && looksSensitive(key) {
			redacted[i] = key + "=****"
			continue
		}
		redacted[i] = entry
	}
	return redacted
}

func looksSensitive(key string) bool {
	upper := strings.ToUpper(key)
	for _, pattern := range []string{"PASSWORD", "SECRET", "TOKEN", "KEY", "AUTH", "CREDENTIAL", "PRIVATE"} {
		if strings.Contains(upper, pattern) {
			return true
		}
	}
	return false
}
