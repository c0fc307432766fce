package datasource_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/graphmod/graphmod/internal/datasource"
	"github.com/graphmod/graphmod/internal/reqctx"
)

// counter keeps per-instance state across requests while every request gets
// its own facade.
type counter struct {
	key  string
	hits int
}

type counterFacade struct {
	rc *reqctx.Context
	c  *counter
}

func (c *counter) Key() string { return c.key }

func (c *counter) Bind(rc *reqctx.Context) any {
	return &counterFacade{rc: rc, c: c}
}

func (f *counterFacade) Hit() int {
	f.c.hits++
	return f.c.hits
}

func decls(override bool, sources ...datasource.Source) []datasource.Declaration {
	out := make([]datasource.Declaration, len(sources))
	for i, s := range sources {
		out[i] = datasource.Declaration{Source: s, Override: override}
	}
	return out
}

func TestResolveFirstDeclarationWins(t *testing.T) {
	first := &counter{key: "db"}
	second := &counter{key: "db"}
	reg, err := datasource.Resolve(decls(false, first, second))
	require.NoError(t, err)
	require.Equal(t, 1, reg.Len())

	got, ok := reg.Get("db")
	require.True(t, ok)
	require.Same(t, first, got.(*counter))
}

func TestResolveOverrideBeatsEarlierPlain(t *testing.T) {
	plain := &counter{key: "db"}
	override := &counter{key: "db"}
	all := append(decls(false, plain), decls(true, override)...)

	reg, err := datasource.Resolve(all)
	require.NoError(t, err)
	require.Equal(t, 1, reg.Len())

	got, _ := reg.Get("db")
	require.Same(t, override, got.(*counter))
}

func TestResolveFirstOverrideWins(t *testing.T) {
	a := &counter{key: "db"}
	b := &counter{key: "db"}
	reg, err := datasource.Resolve(decls(true, a, b))
	require.NoError(t, err)

	got, _ := reg.Get("db")
	require.Same(t, a, got.(*counter))
}

func TestResolveRejectsBadDeclarations(t *testing.T) {
	_, err := datasource.Resolve([]datasource.Declaration{{Source: nil}})
	require.Error(t, err)

	_, err = datasource.Resolve(decls(false, &counter{key: ""}))
	require.Error(t, err)
}

func TestBindForwardsRequestContext(t *testing.T) {
	src := &counter{key: "db"}
	reg, err := datasource.Resolve(decls(false, src))
	require.NoError(t, err)

	rc := &reqctx.Context{Input: reqctx.Input{}}
	set := reg.Bind(rc)
	v, ok := set.Source("db")
	require.True(t, ok)

	facade := v.(*counterFacade)
	require.Same(t, rc, facade.rc)
	require.Same(t, src, facade.c)
}

func TestInstanceStateSurvivesAcrossRequests(t *testing.T) {
	src := &counter{key: "db"}
	reg, err := datasource.Resolve(decls(false, src))
	require.NoError(t, err)

	agg := reqctx.NewAggregator(nil, reg.Bind)

	for want := 1; want <= 3; want++ {
		rc, err := agg.Build(context.Background(), reqctx.Input{})
		require.NoError(t, err)
		ctx := reqctx.WithContext(context.Background(), rc)

		facade, err := datasource.From[*counterFacade](ctx, "db")
		require.NoError(t, err)
		require.Equal(t, want, facade.Hit())
	}
}

func TestFromFailsLoudly(t *testing.T) {
	// Plain context, never built for a request.
	_, err := datasource.From[*counterFacade](context.Background(), "db")
	var bindErr *datasource.BindingError
	require.ErrorAs(t, err, &bindErr)
	require.Equal(t, "db", bindErr.Key)
	require.Equal(t, "no request context", bindErr.Reason)

	// Request context without any bound sources.
	ctx := reqctx.WithContext(context.Background(), &reqctx.Context{})
	_, err = datasource.From[*counterFacade](ctx, "db")
	require.ErrorAs(t, err, &bindErr)
	require.Equal(t, "no data sources bound", bindErr.Reason)

	// Bound sources, unknown key.
	reg, err := datasource.Resolve(decls(false, &counter{key: "db"}))
	require.NoError(t, err)
	agg := reqctx.NewAggregator(nil, reg.Bind)
	rc, err := agg.Build(context.Background(), reqctx.Input{})
	require.NoError(t, err)
	ctx = reqctx.WithContext(context.Background(), rc)
	_, err = datasource.From[*counterFacade](ctx, "cache")
	require.ErrorAs(t, err, &bindErr)
	require.Equal(t, "not registered", bindErr.Reason)

	// Known key, wrong facade type.
	_, err = datasource.From[string](ctx, "db")
	require.ErrorAs(t, err, &bindErr)
	require.Contains(t, bindErr.Reason, "counterFacade")
}
