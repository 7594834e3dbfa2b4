package config

import "fmt"

// ValidationError reports a configuration value that was rejected before
// anything was written. It is kept apart from stage failures so callers can
// tell bad input from a broken host.
type ValidationError struct {
	Key    string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid %s: %s", e.Key, e.Reason)
	}
	return fmt.Sprintf("invalid %s=%q: %s", e.Key, e.Value, e.Reason)
}
