package schema_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/graphmod/graphmod/internal/merge"
	"github.com/graphmod/graphmod/internal/schema"
)

func TestFullViewProjectsDeclaredNamesOnly(t *testing.T) {
	s := buildSchema(t, shopSDL)
	v := schema.FullView(s)

	want := []string{"Mutation", "Product", "Query"}
	if diff := cmp.Diff(want, v.TypeNames()); diff != "" {
		t.Fatalf("view type names mismatch (-want +got):\n%s", diff)
	}
	require.Empty(t, v.DirectiveDefNames())
}

func TestFullViewCarriesDirectiveDefinitions(t *testing.T) {
	s := buildSchema(t, `
directive @tag(name: String!) on FIELD_DEFINITION
type Query { a: Int @tag(name: "x") }
`)
	v := schema.FullView(s)

	if diff := cmp.Diff([]string{"tag"}, v.DirectiveDefNames()); diff != "" {
		t.Fatalf("directive names mismatch (-want +got):\n%s", diff)
	}
}

func TestFullViewSharesResolverEntriesWithoutAliasing(t *testing.T) {
	s, err := merge.Default().Merge(schema.Declarations{
		Name:  "test",
		Types: []string{shopSDL},
		Resolvers: schema.ResolverMap{
			"Query.products": func(ctx context.Context, source any, args map[string]any, info schema.ResolveInfo) (any, error) {
				return nil, nil
			},
		},
	}, nil)
	require.NoError(t, err)

	v := schema.FullView(s)
	require.Len(t, v.Resolvers, 1)

	// Mutating the view's map must not touch the source schema.
	delete(v.Resolvers, "Query.products")
	require.Len(t, s.Resolvers, 1)
}
