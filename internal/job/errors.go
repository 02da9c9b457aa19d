package job

import (
	"fmt"
	"strings"
)

// ConfigurationError represents one structured problem found while loading
// or validating a job config file. Grounded on the teacher's
// internal/config.ConfigurationError.
type ConfigurationError struct {
	Field   string // JSON path, e.g. "qa.threshold"
	Message string
	Value   any
}

// Error implements the error interface.
func (e ConfigurationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("field %q: %s", e.Field, e.Message)
}

// ConfigurationErrorCollection aggregates every problem found in a single
// pass over a job config, so the caller reports them all at once instead
// of failing on the first.
type ConfigurationErrorCollection struct {
	Errors []ConfigurationError
}

// Add appends a new error to the collection.
func (c *ConfigurationErrorCollection) Add(field, message string, value ...any) {
	var v any
	if len(value) > 0 {
		v = value[0]
	}
	c.Errors = append(c.Errors, ConfigurationError{Field: field, Message: message, Value: v})
}

// HasErrors reports whether any error was recorded.
func (c *ConfigurationErrorCollection) HasErrors() bool {
	return len(c.Errors) > 0
}

// Error implements the error interface for the collection.
func (c ConfigurationErrorCollection) Error() string {
	if len(c.Errors) == 0 {
		return "no configuration errors"
	}
	if len(c.Errors) == 1 {
		return c.Errors[0].Error()
	}
	return fmt.Sprintf("%d configuration errors: %s (and %d more)",
		len(c.Errors), c.Errors[0].Error(), len(c.Errors)-1)
}

// DetailedReport renders every error, one per line, for a human-readable
// stderr summary (spec.md §7: "a single human-readable summary to stderr").
func (c ConfigurationErrorCollection) DetailedReport() string {
	if len(c.Errors) == 0 {
		return "no configuration errors"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d configuration error(s):\n", len(c.Errors))
	for i, e := range c.Errors {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, e.Error())
	}
	return b.String()
}
