package reqctx

import "fmt"

// BuildError reports a failed per-request context build. It aborts only the
// request it was built for.
type BuildError struct {
	// Middleware names the failing transform, when one failed.
	Middleware string
	// Namespace names the failing contribution factory, when one failed.
	Namespace string
	Err       error
}

func (e *BuildError) Error() string {
	switch {
	case e.Middleware != "":
		return fmt.Sprintf("context build: middleware %q: %v", e.Middleware, e.Err)
	case e.Namespace != "":
		return fmt.Sprintf("context build: namespace %q: %v", e.Namespace, e.Err)
	default:
		return fmt.Sprintf("context build: %v", e.Err)
	}
}

func (e *BuildError) Unwrap() error { return e.Err }
