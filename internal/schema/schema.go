// Package schema defines the assembled-schema model shared by the
// composition engine: the validated schema with its resolver and directive
// maps, filtered views used at aggregation boundaries, and the exclusion
// selectors that produce them.
package schema

import (
	"context"
	"sort"

	"github.com/graphmod/graphmod/internal/language"
)

// Schema is a fully assembled, validated schema together with the behavior
// attached to it. After assembly it is immutable; views never mutate it.
type Schema struct {
	AST        *language.Schema
	SDL        string
	Resolvers  ResolverMap
	Directives DirectiveMap
	Federation bool
}

// Definition returns the named type definition, or nil.
func (s *Schema) Definition(name string) *language.Definition {
	return s.AST.Types[name]
}

// RootType returns the root object type definition for the operation,
// or nil when the schema declares none.
func (s *Schema) RootType(op language.Operation) *language.Definition {
	switch op {
	case language.Mutation:
		return s.AST.Mutation
	case language.Subscription:
		return s.AST.Subscription
	default:
		return s.AST.Query
	}
}

// Resolver returns the resolver registered for Type.field.
func (s *Schema) Resolver(typeName, fieldName string) (Resolver, bool) {
	r, ok := s.Resolvers[FieldPath(typeName, fieldName)]
	return r, ok
}

// FieldPath joins a type and field name into the resolver-map key form.
func FieldPath(typeName, fieldName string) string {
	return typeName + "." + fieldName
}

// Declarations carries a single component's own declarations into an
// assembly capability.
type Declarations struct {
	Name       string
	Types      []string
	Resolvers  ResolverMap
	Directives DirectiveMap
}

// Resolver resolves one field. The source is the parent value, args are the
// coerced field arguments, and info describes the call site.
type Resolver func(ctx context.Context, source any, args map[string]any, info ResolveInfo) (any, error)

// ResolverMap maps "Type.field" paths to resolvers.
type ResolverMap map[string]Resolver

// ResolveInfo describes the field being resolved.
type ResolveInfo struct {
	FieldName  string
	ParentType string
	Operation  language.Operation
	Args       map[string]any
	Path       []any
}

// Directive is a schema visitor invoked once for every location where the
// directive appears on the assembled schema.
type Directive func(loc DirectiveLocation) error

// DirectiveMap maps directive names to their implementations.
type DirectiveMap map[string]Directive

// DirectiveLocation is one use site of a directive. Field is nil for
// type-level uses.
type DirectiveLocation struct {
	Type      *language.Definition
	Field     *language.FieldDefinition
	Arguments map[string]any
}

// Mocks configures the optional mock overlay. All applies a generated
// default mock to every field lacking a resolver; ByType applies the given
// resolver to fields returning the named type. Existing resolvers are never
// replaced.
type Mocks struct {
	All    bool
	ByType map[string]Resolver
}

// Enabled reports whether any overlay is configured.
func (m Mocks) Enabled() bool { return m.All || len(m.ByType) > 0 }

// ApplyDirectives runs every registered directive implementation over the
// use sites found in the schema. Unregistered directives are left for the
// execution engine; registered ones failing abort with the first error.
func ApplyDirectives(s *Schema) error {
	if len(s.Directives) == 0 {
		return nil
	}
	names := make([]string, 0, len(s.AST.Types))
	for name := range s.AST.Types {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		def := s.AST.Types[name]
		if def.BuiltIn {
			continue
		}
		if err := visitDirectives(s, def, nil, def.Directives); err != nil {
			return err
		}
		for _, field := range def.Fields {
			if err := visitDirectives(s, def, field, field.Directives); err != nil {
				return err
			}
		}
	}
	return nil
}

func visitDirectives(s *Schema, def *language.Definition, field *language.FieldDefinition, uses language.DirectiveList) error {
	for _, use := range uses {
		impl, ok := s.Directives[use.Name]
		if !ok {
			continue
		}
		args := make(map[string]any, len(use.Arguments))
		for _, arg := range use.Arguments {
			v, err := arg.Value.Value(nil)
			if err != nil {
				return err
			}
			args[arg.Name] = v
		}
		if err := impl(DirectiveLocation{Type: def, Field: field, Arguments: args}); err != nil {
			return err
		}
	}
	return nil
}
