package component

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/graphmod/graphmod/internal/eventbus"
	"github.com/graphmod/graphmod/internal/events"
	"github.com/graphmod/graphmod/internal/federation"
	"github.com/graphmod/graphmod/internal/merge"
	"github.com/graphmod/graphmod/internal/schema"
)

// Merger combines a component's local declarations with the filtered views
// of its imports into one schema. With no views it builds a standalone
// schema from the local declarations alone.
type Merger interface {
	Merge(local schema.Declarations, imports []*schema.View) (*schema.Schema, error)
}

// FederationAssembler packages local declarations as a unit composable by
// an external federation gateway.
type FederationAssembler interface {
	Assemble(local schema.Declarations) (*schema.Schema, error)
}

type buildState struct {
	mu     sync.Mutex
	schema *schema.Schema
}

func (n *Node) cached() *schema.Schema {
	n.state.mu.Lock()
	defer n.state.mu.Unlock()
	return n.state.schema
}

// Schema returns the node's assembled schema, building and caching it on
// first read. Every subsequent read returns the identical object, even if
// local declarations are mutated afterwards. On failure nothing is cached.
func (n *Node) Schema() (*schema.Schema, error) {
	start := time.Now()
	s, err := n.assemble(map[*Node]bool{}, nil)
	eventbus.Publish(context.Background(), events.SchemaBuild{
		Component: n.name,
		Duration:  time.Since(start),
		Err:       err,
	})
	return s, err
}

// assemble is the recursive build step. The visiting set spans one build
// and detects cycles before a node's lock is re-entered; sharing the same
// node through several imports is fine since results memoize per node.
func (n *Node) assemble(visiting map[*Node]bool, path []string) (*schema.Schema, error) {
	if visiting[n] {
		return nil, &SchemaBuildError{
			Component: n.name,
			Err:       fmt.Errorf("import cycle: %s", strings.Join(append(path, n.name), " -> ")),
		}
	}
	n.state.mu.Lock()
	defer n.state.mu.Unlock()
	if n.state.schema != nil {
		return n.state.schema, nil
	}

	visiting[n] = true
	defer delete(visiting, n)

	s, err := n.build(visiting, append(path, n.name))
	if err != nil {
		return nil, err
	}
	n.state.schema = s
	return s, nil
}

func (n *Node) build(visiting map[*Node]bool, path []string) (*schema.Schema, error) {
	local := schema.Declarations{
		Name:       n.name,
		Types:      n.types,
		Resolvers:  n.resolvers,
		Directives: n.directives,
	}

	var (
		s   *schema.Schema
		err error
	)
	switch {
	case len(n.imports) > 0:
		views := make([]*schema.View, len(n.imports))
		for i, imp := range n.imports {
			sub, err := imp.Node.assemble(visiting, path)
			if err != nil {
				return nil, err
			}
			view, err := imp.exclusions.Apply(sub)
			if err != nil {
				return nil, &SchemaBuildError{Component: n.name, Err: err}
			}
			views[i] = view
		}
		s, err = n.mergerOrDefault().Merge(local, views)
	case n.federation:
		s, err = n.assemblerOrDefault().Assemble(local)
	default:
		s, err = n.mergerOrDefault().Merge(local, nil)
	}
	if err != nil {
		return nil, &SchemaBuildError{Component: n.name, Err: err}
	}
	s.Federation = n.federation

	if err := schema.ApplyDirectives(s); err != nil {
		return nil, &SchemaBuildError{Component: n.name, Err: err}
	}
	if n.mocks.Enabled() {
		if err := merge.ApplyMocks(s, n.mocks); err != nil {
			return nil, &SchemaBuildError{Component: n.name, Err: err}
		}
	}
	return s, nil
}

func (n *Node) mergerOrDefault() Merger {
	if n.merger != nil {
		return n.merger
	}
	return merge.Default()
}

func (n *Node) assemblerOrDefault() FederationAssembler {
	if n.assembler != nil {
		return n.assembler
	}
	return federation.Default()
}
