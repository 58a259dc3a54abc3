package incident

import "fmt"

// ConfigurationError reports an unusable model token, parameter vector or
// config value. It is fatal for the run it belongs to and is raised before
// any simulated work starts.
type ConfigurationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("configuration error: %s=%s: %s", e.Field, e.Value, e.Reason)
}

func invalid(field string, value any, reason string) *ConfigurationError {
	return &ConfigurationError{Field: field, Value: fmt.Sprint(value), Reason: reason}
}
