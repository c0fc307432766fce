package delegate_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/graphmod/graphmod/internal/component"
	"github.com/graphmod/graphmod/internal/delegate"
	"github.com/graphmod/graphmod/internal/language"
	"github.com/graphmod/graphmod/internal/schema"
)

func usersComponent(t *testing.T) *component.Node {
	t.Helper()
	n, err := component.New("users", component.Options{
		Types: []string{`
type Query { user(id: ID!, verbose: Boolean): String }
type Mutation { addUser(name: String!): String }
`},
		Resolvers: schema.ResolverMap{
			"Query.user": func(ctx context.Context, source any, args map[string]any, info schema.ResolveInfo) (any, error) {
				return fmt.Sprintf("user:%v verbose:%v", args["id"], args["verbose"]), nil
			},
			"Mutation.addUser": func(ctx context.Context, source any, args map[string]any, info schema.ResolveInfo) (any, error) {
				return fmt.Sprintf("added:%v", args["name"]), nil
			},
		},
	})
	require.NoError(t, err)
	return n
}

func TestDelegateInvokesTargetResolver(t *testing.T) {
	users := usersComponent(t)

	result, err := delegate.Delegate(users, delegate.Options{
		Ctx:       context.Background(),
		FieldName: "user",
		Args:      map[string]any{"id": "7", "verbose": true},
	})
	require.NoError(t, err)
	require.Equal(t, "user:7 verbose:true", result)
}

func TestDelegateFallsBackToCallerInfo(t *testing.T) {
	users := usersComponent(t)

	result, err := delegate.Delegate(users, delegate.Options{
		Ctx: context.Background(),
		Info: schema.ResolveInfo{
			FieldName: "addUser",
			Operation: language.Mutation,
			Args:      map[string]any{"name": "ada"},
		},
	})
	require.NoError(t, err)
	require.Equal(t, "added:ada", result)
}

func TestDelegateArgsOverrideCallerArgs(t *testing.T) {
	users := usersComponent(t)

	result, err := delegate.Delegate(users, delegate.Options{
		Ctx:       context.Background(),
		FieldName: "user",
		Info:      schema.ResolveInfo{Args: map[string]any{"id": "1", "verbose": false}},
		Args:      map[string]any{"id": "2"},
	})
	require.NoError(t, err)
	require.Equal(t, "user:2 verbose:false", result)
}

func TestDelegateReachesBoundaryExcludedField(t *testing.T) {
	users := usersComponent(t)
	gateway, err := component.New("gateway", component.Options{
		Types: []string{`type Query { health: Boolean }`},
		Imports: []any{component.Import{
			Node:    users,
			Exclude: []string{"Mutation.*"},
		}},
	})
	require.NoError(t, err)

	gs, err := gateway.Schema()
	require.NoError(t, err)
	require.Nil(t, gs.Definition("Mutation"))

	// The aggregation boundary hides Mutation from the gateway's schema but
	// the target component still serves it to a delegating caller.
	result, err := delegate.Delegate(users, delegate.Options{
		Ctx:       context.Background(),
		Operation: language.Mutation,
		FieldName: "addUser",
		Args:      map[string]any{"name": "ada"},
	})
	require.NoError(t, err)
	require.Equal(t, "added:ada", result)
}

func TestDelegateAppliesTransforms(t *testing.T) {
	users := usersComponent(t)

	result, err := delegate.Delegate(users, delegate.Options{
		Ctx:       context.Background(),
		FieldName: "user",
		Transforms: []delegate.ResultTransform{
			func(v any) (any, error) { return fmt.Sprintf("[%v]", v), nil },
		},
	})
	require.NoError(t, err)
	require.Equal(t, "[user:<nil> verbose:<nil>]", result)
}

func TestDelegateTransformFailure(t *testing.T) {
	users := usersComponent(t)
	boom := errors.New("bad shape")

	_, err := delegate.Delegate(users, delegate.Options{
		Ctx:       context.Background(),
		FieldName: "user",
		Transforms: []delegate.ResultTransform{
			func(v any) (any, error) { return nil, boom },
		},
	})
	require.ErrorIs(t, err, boom)
}

func TestDelegateRejectsBadCalls(t *testing.T) {
	users := usersComponent(t)

	_, err := delegate.Delegate(users, delegate.Options{FieldName: "user"})
	require.ErrorContains(t, err, "context is required")

	_, err = delegate.Delegate(users, delegate.Options{Ctx: context.Background()})
	require.ErrorContains(t, err, "field name is required")

	_, err = delegate.Delegate(users, delegate.Options{Ctx: context.Background(), FieldName: "ghost"})
	require.ErrorContains(t, err, "no field ghost")

	_, err = delegate.Delegate(users, delegate.Options{
		Ctx:       context.Background(),
		Operation: language.Subscription,
		FieldName: "user",
	})
	require.ErrorContains(t, err, "no subscription root type")
}
