// Package reqctx builds the shared per-request context from the namespaced
// contributions of a component tree. A middleware chain pre-processes the
// raw request input before any contribution factory runs.
package reqctx

import (
	"context"
	"sync"
	"time"

	"github.com/graphmod/graphmod/internal/eventbus"
	"github.com/graphmod/graphmod/internal/events"
)

// Input is the raw request input handed to middleware and factories.
type Input map[string]any

// Transform maps the current request input to a new one.
type Transform func(ctx context.Context, input Input) (Input, error)

// Factory produces the value written under a contribution's namespace.
type Factory func(ctx context.Context, input Input) (any, error)

// Contribution is one component's namespaced context contribution.
type Contribution struct {
	Namespace string
	Factory   Factory
}

// SourceSet is the per-request collection of bound data sources.
type SourceSet interface {
	// Source returns the request-bound facade registered under key.
	Source(key string) (any, bool)
}

// SourcesKey is the fixed key under which the data-source bindings appear
// on the built context.
const SourcesKey = "dataSources"

// BindFunc produces the request-bound data sources for a freshly built
// context.
type BindFunc func(rc *Context) SourceSet

// Context is the shared per-request context object. A fresh one is built
// for every request and discarded afterwards; concurrent requests never
// share one.
type Context struct {
	Input   Input
	values  map[string]any
	sources SourceSet
}

// Value returns the value contributed under the namespace.
func (c *Context) Value(namespace string) any {
	if namespace == SourcesKey {
		return c.sources
	}
	return c.values[namespace]
}

// Sources returns the request-bound data sources, or nil when the tree
// declares none.
func (c *Context) Sources() SourceSet { return c.sources }

// Aggregator builds per-request contexts. Contributions are evaluated in
// the order given: descendants first, so a namespace written by a node
// nearer the root overwrites a descendant's value.
type Aggregator struct {
	contribs []Contribution
	bind     BindFunc

	mu         sync.RWMutex
	middleware []middleware
}

type middleware struct {
	name      string
	transform Transform
}

// NewAggregator builds an aggregator over the tree's contributions,
// post-order (root last). bind may be nil when no data sources exist.
func NewAggregator(contribs []Contribution, bind BindFunc) *Aggregator {
	return &Aggregator{contribs: contribs, bind: bind}
}

// Register appends a named middleware transform. Middleware runs in
// registration order over the raw input of every subsequent Build.
func (a *Aggregator) Register(name string, transform Transform) {
	a.mu.Lock()
	a.middleware = append(a.middleware, middleware{name: name, transform: transform})
	a.mu.Unlock()
}

// Build runs the middleware chain and every contribution factory against
// the transformed input, producing a fresh context. Any failure aborts the
// whole build; no partial context is returned.
func (a *Aggregator) Build(ctx context.Context, input Input) (*Context, error) {
	start := time.Now()
	rc, err := a.build(ctx, input)
	eventbus.Publish(ctx, events.ContextBuild{Duration: time.Since(start), Err: err})
	return rc, err
}

func (a *Aggregator) build(ctx context.Context, input Input) (*Context, error) {
	a.mu.RLock()
	chain := a.middleware
	a.mu.RUnlock()

	in := input
	for _, m := range chain {
		next, err := m.transform(ctx, in)
		if err != nil {
			return nil, &BuildError{Middleware: m.name, Err: err}
		}
		in = next
	}

	rc := &Context{Input: in, values: make(map[string]any, len(a.contribs))}
	if a.bind != nil {
		rc.sources = a.bind(rc)
	}
	for _, c := range a.contribs {
		v, err := c.Factory(ctx, in)
		if err != nil {
			return nil, &BuildError{Namespace: c.Namespace, Err: err}
		}
		rc.values[c.Namespace] = v
	}
	return rc, nil
}
