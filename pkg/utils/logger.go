package utils

import (
	"slices"
	"strings"
)

// ValidLogLevels are the levels accepted by the logger.
var ValidLogLevels = []string{"debug", "info", "warn", "error"}

// ValidateLogLevel reports whether level is known, ignoring case.
func ValidateLogLevel(level string) bool {
	return slices.Contains(ValidLogLevels, strings.ToLower(level))
}
