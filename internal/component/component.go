// Package component models the composable schema unit tree: each node holds
// local declarations and an ordered list of imports, and lazily assembles
// one cached schema for its whole subtree.
package component

import (
	"fmt"

	"github.com/graphmod/graphmod/internal/datasource"
	"github.com/graphmod/graphmod/internal/reqctx"
	"github.com/graphmod/graphmod/internal/schema"
)

// Import references an imported component together with the exclusion
// selectors applied at this aggregation boundary only.
type Import struct {
	Node    *Node
	Exclude []string

	exclusions schema.Exclusions
}

// Options is the tree-construction configuration for one component.
type Options struct {
	// Types is the ordered list of SDL documents declared locally.
	Types []string
	// Resolvers maps "Type.field" paths to resolver functions.
	Resolvers schema.ResolverMap
	// Directives maps directive names to schema visitors applied after
	// assembly.
	Directives schema.DirectiveMap
	// Mocks optionally overlays generated or per-type mock resolvers.
	Mocks schema.Mocks
	// Federation selects federated assembly and propagates eagerly to
	// every component reachable through Imports.
	Federation bool
	// Imports lists imported components: either a *Node or an Import.
	Imports []any
	// Context is the component's single namespaced context contribution.
	Context *reqctx.Contribution
	// Sources declares data-source instances owned by this component.
	Sources []datasource.Source
	// Overrides declares data-source instances replacing same-keyed
	// declarations anywhere deeper in this component's import subtree.
	Overrides []datasource.Source
	// Merger overrides the schema-merge capability. Defaults to the
	// built-in AST merger.
	Merger Merger
	// Assembler overrides the federation-assembly capability. Defaults to
	// the built-in subgraph assembler.
	Assembler FederationAssembler
}

// Node is a single component in the tree. All declarations are fixed at
// construction; only the cached schema is set later, exactly once.
type Node struct {
	name         string
	types        []string
	resolvers    schema.ResolverMap
	directives   schema.DirectiveMap
	mocks        schema.Mocks
	federation   bool
	imports      []Import
	contribution *reqctx.Contribution
	sources      []datasource.Source
	overrides    []datasource.Source
	merger       Merger
	assembler    FederationAssembler

	state buildState
}

// New validates and normalizes opts into a component node. Malformed
// imports and exclusion selectors fail with a ConfigurationError naming the
// component. When opts.Federation is set it is propagated over the whole
// import subtree before any schema can be built.
func New(name string, opts Options) (*Node, error) {
	if name == "" {
		return nil, &ConfigurationError{Component: name, Reason: "component name must not be empty"}
	}
	n := &Node{
		name:         name,
		types:        append([]string(nil), opts.Types...),
		resolvers:    opts.Resolvers,
		directives:   opts.Directives,
		mocks:        opts.Mocks,
		federation:   opts.Federation,
		contribution: opts.Context,
		sources:      append([]datasource.Source(nil), opts.Sources...),
		overrides:    append([]datasource.Source(nil), opts.Overrides...),
		merger:       opts.Merger,
		assembler:    opts.Assembler,
	}

	for i, raw := range opts.Imports {
		imp, err := normalizeImport(raw)
		if err != nil {
			return nil, &ConfigurationError{
				Component: name,
				Reason:    fmt.Sprintf("import %d: %v", i, err),
			}
		}
		n.imports = append(n.imports, imp)
	}

	if n.federation {
		if err := n.propagateFederation(map[*Node]bool{}); err != nil {
			return nil, err
		}
	}
	return n, nil
}

// normalizeImport accepts a bare *Node or an Import and rejects anything
// else.
func normalizeImport(raw any) (Import, error) {
	switch v := raw.(type) {
	case *Node:
		if v == nil {
			return Import{}, fmt.Errorf("nil component")
		}
		return Import{Node: v}, nil
	case Import:
		if v.Node == nil {
			return Import{}, fmt.Errorf("nil component")
		}
		excl, err := schema.ParseExclusions(v.Exclude)
		if err != nil {
			return Import{}, err
		}
		v.exclusions = excl
		return v, nil
	default:
		return Import{}, fmt.Errorf("unsupported import value %T: want *Node or Import", raw)
	}
}

// propagateFederation eagerly marks every reachable descendant as
// federated, so that import order can never leave one with a stale flag. A
// descendant whose schema was already assembled plainly cannot flip.
func (n *Node) propagateFederation(seen map[*Node]bool) error {
	if seen[n] {
		return nil
	}
	seen[n] = true
	for _, imp := range n.imports {
		child := imp.Node
		if !child.federation && child.cached() != nil {
			return &ConfigurationError{
				Component: n.name,
				Reason:    fmt.Sprintf("cannot federate %s: its schema is already assembled", child.name),
			}
		}
		child.federation = true
		if err := child.propagateFederation(seen); err != nil {
			return err
		}
	}
	return nil
}

// Name returns the component's identity.
func (n *Node) Name() string { return n.name }

// Federation reports whether the node assembles in federation mode.
func (n *Node) Federation() bool { return n.federation }

// Imports returns the node's normalized imports in declaration order.
func (n *Node) Imports() []Import { return n.imports }

// Contributions collects the tree's context contributions depth-first,
// descendants before ancestors, so that a namespace written nearer the root
// overwrites a descendant's value.
func (n *Node) Contributions() []reqctx.Contribution {
	var out []reqctx.Contribution
	n.walkPostOrder(map[*Node]bool{}, func(m *Node) {
		if m.contribution != nil {
			out = append(out, *m.contribution)
		}
	})
	return out
}

// SourceDeclarations lists the tree's data-source declarations in
// depth-first pre-order (root first), overrides before plain declarations
// at each node.
func (n *Node) SourceDeclarations() []datasource.Declaration {
	var out []datasource.Declaration
	n.walkPreOrder(map[*Node]bool{}, func(m *Node) {
		for _, s := range m.overrides {
			out = append(out, datasource.Declaration{Source: s, Override: true})
		}
		for _, s := range m.sources {
			out = append(out, datasource.Declaration{Source: s})
		}
	})
	return out
}

func (n *Node) walkPostOrder(seen map[*Node]bool, fn func(*Node)) {
	if seen[n] {
		return
	}
	seen[n] = true
	for _, imp := range n.imports {
		imp.Node.walkPostOrder(seen, fn)
	}
	fn(n)
}

func (n *Node) walkPreOrder(seen map[*Node]bool, fn func(*Node)) {
	if seen[n] {
		return
	}
	seen[n] = true
	fn(n)
	for _, imp := range n.imports {
		imp.Node.walkPreOrder(seen, fn)
	}
}

// ContextBuilder resolves the tree's data sources and returns the
// per-request context aggregator for it.
func (n *Node) ContextBuilder() (*reqctx.Aggregator, error) {
	reg, err := datasource.Resolve(n.SourceDeclarations())
	if err != nil {
		return nil, err
	}
	var bind reqctx.BindFunc
	if reg.Len() > 0 {
		bind = reg.Bind
	}
	return reqctx.NewAggregator(n.Contributions(), bind), nil
}
