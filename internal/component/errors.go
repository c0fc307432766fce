package component

import "fmt"

// ConfigurationError reports a malformed component configuration detected
// at tree-construction time.
type ConfigurationError struct {
	Component string
	Reason    string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("component %q: %s", e.Component, e.Reason)
}

// SchemaBuildError reports a failed schema assembly. Nothing is cached on
// failure; the same node can be read again after the cause is fixed.
type SchemaBuildError struct {
	Component string
	Err       error
}

func (e *SchemaBuildError) Error() string {
	return fmt.Sprintf("build schema for component %q: %v", e.Component, e.Err)
}

func (e *SchemaBuildError) Unwrap() error { return e.Err }
