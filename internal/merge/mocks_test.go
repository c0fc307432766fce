package merge_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/graphmod/graphmod/internal/merge"
	"github.com/graphmod/graphmod/internal/schema"
)

const storeSDL = `
type Query {
  product: Product
  count: Int
}
type Product {
  id: ID!
  name: String
  price: Float
  inStock: Boolean
  status: Status
}
enum Status { ACTIVE RETIRED }
`

func call(t *testing.T, s *schema.Schema, path string) any {
	t.Helper()
	r, ok := s.Resolvers[path]
	require.True(t, ok, "no resolver at %s", path)
	v, err := r(context.Background(), nil, nil, schema.ResolveInfo{})
	require.NoError(t, err)
	return v
}

func TestApplyMocksAllCoversUnresolvedFields(t *testing.T) {
	s, err := merge.Default().Merge(schema.Declarations{
		Name:  "store",
		Types: []string{storeSDL},
		Resolvers: schema.ResolverMap{
			"Product.name": nopResolver("The Real Name"),
		},
	}, nil)
	require.NoError(t, err)

	require.NoError(t, merge.ApplyMocks(s, schema.Mocks{All: true}))

	require.Equal(t, "The Real Name", call(t, s, "Product.name"))
	require.Equal(t, 42, call(t, s, "Query.count"))
	require.Equal(t, 3.14, call(t, s, "Product.price"))
	require.Equal(t, true, call(t, s, "Product.inStock"))
	require.Equal(t, "ACTIVE", call(t, s, "Product.status"))
	require.NotEmpty(t, call(t, s, "Product.id"))
	require.IsType(t, map[string]any{}, call(t, s, "Query.product"))
}

func TestApplyMocksByReturnType(t *testing.T) {
	s, err := merge.Default().Merge(schema.Declarations{
		Name:  "store",
		Types: []string{storeSDL},
	}, nil)
	require.NoError(t, err)

	err = merge.ApplyMocks(s, schema.Mocks{ByType: map[string]schema.Resolver{
		"Product": nopResolver(map[string]any{"id": "p1"}),
	}})
	require.NoError(t, err)

	require.Contains(t, s.Resolvers, "Query.product")
	require.NotContains(t, s.Resolvers, "Query.count")
}

func TestApplyMocksUnknownTypeFails(t *testing.T) {
	s, err := merge.Default().Merge(schema.Declarations{
		Name:  "store",
		Types: []string{storeSDL},
	}, nil)
	require.NoError(t, err)

	err = merge.ApplyMocks(s, schema.Mocks{ByType: map[string]schema.Resolver{
		"Ghost": nopResolver(nil),
	}})
	require.Error(t, err)
}
