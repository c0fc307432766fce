// Package federation implements the default federation-assembly capability:
// it packages a component's local declarations as a subgraph unit that an
// external gateway can compose, adding the service SDL machinery and, when
// entity types are declared with @key, the entity lookup surface.
package federation

import (
	"context"
	"fmt"
	"strings"

	"github.com/graphmod/graphmod/internal/language"
	"github.com/graphmod/graphmod/internal/merge"
	"github.com/graphmod/graphmod/internal/schema"
)

// Assembler is the built-in subgraph assembler.
type Assembler struct{}

var defaultAssembler = &Assembler{}

// Default returns the shared default assembler.
func Default() *Assembler { return defaultAssembler }

// New returns a fresh assembler.
func New() *Assembler { return &Assembler{} }

// Subgraph spec directives accepted in component SDL.
const directivesSDL = `
directive @key(fields: _FieldSet!) repeatable on OBJECT | INTERFACE
directive @external on FIELD_DEFINITION | OBJECT
directive @requires(fields: _FieldSet!) on FIELD_DEFINITION
directive @provides(fields: _FieldSet!) on FIELD_DEFINITION
directive @extends on OBJECT | INTERFACE
directive @shareable repeatable on OBJECT | FIELD_DEFINITION
scalar _FieldSet
`

const serviceSDL = `
scalar _Any
type _Service {
  sdl: String!
}
extend type Query {
  _service: _Service!
}
`

// Assemble builds the component's standalone schema with the federation
// machinery woven in. The original SDL, as authored, is what _service.sdl
// exposes to the gateway.
func (a *Assembler) Assemble(local schema.Declarations) (*schema.Schema, error) {
	entities, err := entityTypes(local)
	if err != nil {
		return nil, err
	}

	docs := make([]string, 0, len(local.Types)+2)
	docs = append(docs, local.Types...)
	extra := directivesSDL + serviceSDL
	if len(entities) > 0 {
		extra += fmt.Sprintf(`
union _Entity = %s
extend type Query {
  _entities(representations: [_Any!]!): [_Entity]!
}
`, strings.Join(entities, " | "))
	}
	docs = append(docs, extra)

	unit := local
	unit.Types = docs
	s, err := merge.Default().Merge(unit, nil)
	if err != nil {
		return nil, err
	}

	authored := strings.Join(local.Types, "\n")
	if _, ok := s.Resolvers[schema.FieldPath("Query", "_service")]; !ok {
		s.Resolvers[schema.FieldPath("Query", "_service")] = serviceResolver(authored)
	}
	if len(entities) > 0 {
		if _, ok := s.Resolvers[schema.FieldPath("Query", "_entities")]; !ok {
			s.Resolvers[schema.FieldPath("Query", "_entities")] = entitiesResolver()
		}
	}
	return s, nil
}

// entityTypes scans the authored SDL for object types carrying @key.
func entityTypes(local schema.Declarations) ([]string, error) {
	var names []string
	seen := map[string]bool{}
	for i, src := range local.Types {
		doc, err := language.ParseSchema(fmt.Sprintf("%s[%d].graphql", local.Name, i), src)
		if err != nil {
			return nil, err
		}
		collect := func(defs language.DefinitionList) {
			for _, def := range defs {
				if def.Kind != language.Object || seen[def.Name] {
					continue
				}
				if def.Directives.ForName("key") != nil {
					seen[def.Name] = true
					names = append(names, def.Name)
				}
			}
		}
		collect(doc.Definitions)
		collect(doc.Extensions)
	}
	return names, nil
}

func serviceResolver(sdl string) schema.Resolver {
	return func(ctx context.Context, source any, args map[string]any, info schema.ResolveInfo) (any, error) {
		return map[string]any{"sdl": sdl}, nil
	}
}

// entitiesResolver hands the representations straight back; resolving them
// into concrete entities is the execution engine's job via the component's
// own resolvers.
func entitiesResolver() schema.Resolver {
	return func(ctx context.Context, source any, args map[string]any, info schema.ResolveInfo) (any, error) {
		reps, _ := args["representations"].([]any)
		return reps, nil
	}
}
