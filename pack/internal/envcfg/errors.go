package envcfg

import "fmt"

// ConfigValidationError is returned when an environment value would produce
// a broken artifact. It aborts planning before any target is derived.
type ConfigValidationError struct {
	Key    string
	Value  string
	Reason string
	Err    error
}

func (e *ConfigValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("config: %s=%q: %s: %v", e.Key, e.Value, e.Reason, e.Err)
	}
	return fmt.Sprintf("config: %s=%q: %s", e.Key, e.Value, e.Reason)
}

func (e *ConfigValidationError) Unwrap() error { return e.Err }
