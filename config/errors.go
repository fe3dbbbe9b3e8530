package config

import "fmt"

// ValidationError reports a configuration value the service refuses to start
// with. Section and Field name the offending config path.
type ValidationError struct {
	Section string
	Field   string
	Reason  string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("config: %s: %s", e.Section, e.Reason)
	}
	return fmt.Sprintf("config: %s.%s: %s", e.Section, e.Field, e.Reason)
}

func invalid(section, field, format string, args ...any) *ValidationError {
	return &ValidationError{Section: section, Field: field, Reason: fmt.Sprintf(format, args...)}
}
