// Package merge implements the default schema-merge capability on the
// gqlparser AST. Local declarations win over imported subschemas on name
// conflicts; conflicts between two sibling subschemas resolve
// first-import-wins, field-wise for object and interface types and
// wholesale for every other kind.
package merge

import (
	"fmt"

	"github.com/graphmod/graphmod/internal/language"
	"github.com/graphmod/graphmod/internal/schema"
)

// Merger is the built-in plain assembly implementation.
type Merger struct{}

var defaultMerger = &Merger{}

// Default returns the shared default merger.
func Default() *Merger { return defaultMerger }

// New returns a fresh merger.
func New() *Merger { return &Merger{} }

// Merge combines local declarations with the filtered views of the imports,
// renders the combined document, and re-validates it into one schema.
func (m *Merger) Merge(local schema.Declarations, imports []*schema.View) (*schema.Schema, error) {
	acc := newAccumulator()

	exts, err := acc.addLocal(local)
	if err != nil {
		return nil, err
	}
	for _, view := range imports {
		acc.addView(view)
	}
	if err := acc.applyExtensions(exts); err != nil {
		return nil, err
	}

	resolvers := make(schema.ResolverMap, len(local.Resolvers))
	for path, r := range local.Resolvers {
		resolvers[path] = r
	}
	directives := make(schema.DirectiveMap, len(local.Directives))
	for name, d := range local.Directives {
		directives[name] = d
	}
	for _, view := range imports {
		for path, r := range view.Resolvers {
			if _, ok := resolvers[path]; !ok {
				resolvers[path] = r
			}
		}
		for name, d := range view.Directives {
			if _, ok := directives[name]; !ok {
				directives[name] = d
			}
		}
	}

	sdl := language.RenderDocument(acc.document())
	ast, err := language.LoadSchema(&language.Source{Name: local.Name + ".graphql", Input: sdl})
	if err != nil {
		return nil, err
	}

	s := &schema.Schema{
		AST:        ast,
		SDL:        sdl,
		Resolvers:  resolvers,
		Directives: directives,
	}
	if err := validateResolverPaths(s); err != nil {
		return nil, err
	}
	return s, nil
}

// validateResolverPaths rejects resolvers declared for fields the merged
// schema does not have.
func validateResolverPaths(s *schema.Schema) error {
	for path := range s.Resolvers {
		typeName, fieldName, ok := splitPath(path)
		if !ok {
			return fmt.Errorf("resolver path %q: want Type.field", path)
		}
		def := s.AST.Types[typeName]
		if def == nil {
			return fmt.Errorf("resolver %s: type %s not found", path, typeName)
		}
		if def.Fields.ForName(fieldName) == nil {
			return fmt.Errorf("resolver %s: field %s not found on %s", path, fieldName, typeName)
		}
	}
	return nil
}

func splitPath(path string) (string, string, bool) {
	for i := 0; i < len(path); i++ {
		if path[i] == '.' {
			if i == 0 || i == len(path)-1 {
				return "", "", false
			}
			return path[:i], path[i+1:], true
		}
	}
	return "", "", false
}
