// Package datasource shares stateful data-access objects across a component
// tree. One instance survives per declared key, chosen by override
// precedence; a lightweight binding rebinds each instance to the current
// request context without call sites passing it explicitly.
package datasource

import (
	"context"
	"fmt"

	"github.com/graphmod/graphmod/internal/reqctx"
)

// Source is a stateful data-access object declared by a component. The
// instance lives as long as its component, so internal state such as caches
// survives across requests. Bind returns a request-scoped facade whose
// methods forward to the instance with rc as their first argument.
type Source interface {
	Key() string
	Bind(rc *reqctx.Context) any
}

// Declaration is one data-source declaration found while walking the tree.
type Declaration struct {
	Source   Source
	Override bool
}

// Registry holds the one surviving instance per key for a whole tree.
type Registry struct {
	sources map[string]Source
}

// Resolve selects exactly one Source per key from declarations listed in
// depth-first pre-order (root first). An override beats every plain
// declaration; among overrides, and among plain declarations, the one
// nearest the root (first listed) wins.
func Resolve(decls []Declaration) (*Registry, error) {
	r := &Registry{sources: map[string]Source{}}
	claimed := map[string]bool{} // keys taken by an override
	for _, d := range decls {
		if d.Source == nil {
			return nil, fmt.Errorf("datasource: nil instance declared")
		}
		k := d.Source.Key()
		if k == "" {
			return nil, fmt.Errorf("datasource: instance %T declares an empty key", d.Source)
		}
		if !d.Override {
			continue
		}
		if !claimed[k] {
			r.sources[k] = d.Source
			claimed[k] = true
		}
	}
	for _, d := range decls {
		if d.Override {
			continue
		}
		k := d.Source.Key()
		if _, ok := r.sources[k]; !ok {
			r.sources[k] = d.Source
		}
	}
	return r, nil
}

// Get returns the underlying instance registered under key.
func (r *Registry) Get(key string) (Source, bool) {
	s, ok := r.sources[key]
	return s, ok
}

// Len returns the number of resolved instances.
func (r *Registry) Len() int { return len(r.sources) }

// Bind builds the per-request facades. The returned set is owned by the
// single request rc was built for.
func (r *Registry) Bind(rc *reqctx.Context) reqctx.SourceSet {
	b := binding{bound: make(map[string]any, len(r.sources))}
	for k, s := range r.sources {
		b.bound[k] = s.Bind(rc)
	}
	return b
}

type binding struct {
	bound map[string]any
}

func (b binding) Source(key string) (any, bool) {
	v, ok := b.bound[key]
	return v, ok
}

// From returns the request-bound facade registered under key, typed as T.
// It fails loudly when ctx carries no request context or no such source;
// it never substitutes an empty context.
func From[T any](ctx context.Context, key string) (T, error) {
	var zero T
	rc, ok := reqctx.FromContext(ctx)
	if !ok {
		return zero, &BindingError{Key: key, Reason: "no request context"}
	}
	set := rc.Sources()
	if set == nil {
		return zero, &BindingError{Key: key, Reason: "no data sources bound"}
	}
	v, ok := set.Source(key)
	if !ok {
		return zero, &BindingError{Key: key, Reason: "not registered"}
	}
	typed, ok := v.(T)
	if !ok {
		return zero, &BindingError{Key: key, Reason: fmt.Sprintf("bound facade is %T", v)}
	}
	return typed, nil
}

// BindingError reports a data-source access that could not be bound to a
// request context.
type BindingError struct {
	Key    string
	Reason string
}

func (e *BindingError) Error() string {
	return fmt.Sprintf("datasource %q: %s", e.Key, e.Reason)
}
