package events

import "time"

// SchemaBuild is emitted after a component schema read completes,
// whether it hit the cache or assembled fresh.
type SchemaBuild struct {
	Component string
	Duration  time.Duration
	Err       error
}

// ContextBuild is emitted after a per-request context build completes.
type ContextBuild struct {
	Duration time.Duration
	Err      error
}
