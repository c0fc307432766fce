package merge

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/graphmod/graphmod/internal/language"
	"github.com/graphmod/graphmod/internal/schema"
)

// ApplyMocks overlays mock resolvers onto an assembled schema. Fields that
// already have a resolver keep it. With Mocks.All every uncovered field
// gets a generated default by its return type; Mocks.ByType covers only
// fields returning the named types.
func ApplyMocks(s *schema.Schema, m schema.Mocks) error {
	for name := range m.ByType {
		if s.AST.Types[name] == nil {
			return fmt.Errorf("mock for unknown type %s", name)
		}
	}

	names := make([]string, 0, len(s.AST.Types))
	for name := range s.AST.Types {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		def := s.AST.Types[name]
		if def.BuiltIn || isIntrospectionField(name) {
			continue
		}
		if def.Kind != language.Object && def.Kind != language.Interface {
			continue
		}
		for _, f := range def.Fields {
			if isIntrospectionField(f.Name) {
				continue
			}
			path := schema.FieldPath(def.Name, f.Name)
			if _, ok := s.Resolvers[path]; ok {
				continue
			}
			if r, ok := m.ByType[f.Type.Name()]; ok {
				s.Resolvers[path] = r
				continue
			}
			if m.All {
				s.Resolvers[path] = defaultMock(s, f.Type)
			}
		}
	}
	return nil
}

func defaultMock(s *schema.Schema, t *language.Type) schema.Resolver {
	return func(ctx context.Context, source any, args map[string]any, info schema.ResolveInfo) (any, error) {
		return mockValue(s, t), nil
	}
}

// mockValue generates a stub by the innermost named type.
func mockValue(s *schema.Schema, t *language.Type) any {
	if t.NamedType == "" {
		return []any{}
	}
	switch t.NamedType {
	case "Int":
		return 42
	case "Float":
		return 3.14
	case "String":
		return "Hello World"
	case "Boolean":
		return true
	case "ID":
		return uuid.NewString()
	}
	def := s.AST.Types[t.NamedType]
	if def == nil {
		return nil
	}
	switch def.Kind {
	case language.Enum:
		if len(def.EnumValues) > 0 {
			return def.EnumValues[0].Name
		}
		return nil
	case language.Object, language.Interface, language.Union:
		return map[string]any{}
	default:
		return nil
	}
}
