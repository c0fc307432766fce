package schema

import (
	"sort"

	"github.com/graphmod/graphmod/internal/language"
)

// View is a filtered projection of a schema used when it is merged into a
// parent. It owns copies of any definition whose field list was filtered, so
// applying a view never mutates the source schema. Built-in types are not
// part of a view; validation re-adds the prelude.
type View struct {
	Types         map[string]*language.Definition
	DirectiveDefs map[string]*language.DirectiveDefinition
	Resolvers     ResolverMap
	Directives    DirectiveMap
}

// TypeNames returns the view's type names in deterministic order.
func (v *View) TypeNames() []string {
	names := make([]string, 0, len(v.Types))
	for name := range v.Types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DirectiveDefNames returns the view's directive definition names in
// deterministic order.
func (v *View) DirectiveDefNames() []string {
	names := make([]string, 0, len(v.DirectiveDefs))
	for name := range v.DirectiveDefs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FullView projects a schema without filtering anything.
func FullView(s *Schema) *View {
	v := &View{
		Types:         make(map[string]*language.Definition, len(s.AST.Types)),
		DirectiveDefs: make(map[string]*language.DirectiveDefinition, len(s.AST.Directives)),
		Resolvers:     make(ResolverMap, len(s.Resolvers)),
		Directives:    make(DirectiveMap, len(s.Directives)),
	}
	for name, def := range s.AST.Types {
		if def.BuiltIn || isIntrospectionName(name) {
			continue
		}
		v.Types[name] = def
	}
	for name, def := range s.AST.Directives {
		if builtinDirectives[name] {
			continue
		}
		v.DirectiveDefs[name] = def
	}
	for path, r := range s.Resolvers {
		v.Resolvers[path] = r
	}
	for name, d := range s.Directives {
		v.Directives[name] = d
	}
	return v
}

func isIntrospectionName(name string) bool {
	return len(name) >= 2 && name[0] == '_' && name[1] == '_'
}

// Directives declared by the standard prelude; never carried into a view.
var builtinDirectives = map[string]bool{
	"skip":        true,
	"include":     true,
	"deprecated":  true,
	"specifiedBy": true,
	"oneOf":       true,
	"defer":       true,
}
