package reqctx_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/graphmod/graphmod/internal/reqctx"
)

func constant(v any) reqctx.Factory {
	return func(ctx context.Context, input reqctx.Input) (any, error) {
		return v, nil
	}
}

func TestBuildEvaluatesContributionsInOrder(t *testing.T) {
	agg := reqctx.NewAggregator([]reqctx.Contribution{
		{Namespace: "auth", Factory: constant("leaf")},
		{Namespace: "db", Factory: constant("pool")},
		{Namespace: "auth", Factory: constant("root")},
	}, nil)

	rc, err := agg.Build(context.Background(), reqctx.Input{})
	require.NoError(t, err)
	require.Equal(t, "root", rc.Value("auth"))
	require.Equal(t, "pool", rc.Value("db"))
	require.Nil(t, rc.Value("missing"))
}

func TestBuildFactoriesSeeTransformedInput(t *testing.T) {
	agg := reqctx.NewAggregator([]reqctx.Contribution{
		{Namespace: "echo", Factory: func(ctx context.Context, input reqctx.Input) (any, error) {
			return input["b"], nil
		}},
	}, nil)
	agg.Register("rename", func(ctx context.Context, input reqctx.Input) (reqctx.Input, error) {
		return reqctx.Input{"b": input["a"]}, nil
	})

	rc, err := agg.Build(context.Background(), reqctx.Input{"a": 1})
	require.NoError(t, err)
	require.Equal(t, 1, rc.Value("echo"))
	require.Equal(t, reqctx.Input{"b": 1}, rc.Input)
}

func TestBuildMiddlewareRunsInRegistrationOrder(t *testing.T) {
	agg := reqctx.NewAggregator(nil, nil)
	appendStep := func(step string) reqctx.Transform {
		return func(ctx context.Context, input reqctx.Input) (reqctx.Input, error) {
			input["trace"] = fmt.Sprintf("%v>%s", input["trace"], step)
			return input, nil
		}
	}
	agg.Register("first", appendStep("first"))
	agg.Register("second", appendStep("second"))

	rc, err := agg.Build(context.Background(), reqctx.Input{"trace": "start"})
	require.NoError(t, err)
	require.Equal(t, "start>first>second", rc.Input["trace"])
}

func TestBuildMiddlewareFailureAborts(t *testing.T) {
	boom := errors.New("no token")
	ran := false
	agg := reqctx.NewAggregator([]reqctx.Contribution{
		{Namespace: "auth", Factory: func(ctx context.Context, input reqctx.Input) (any, error) {
			ran = true
			return nil, nil
		}},
	}, nil)
	agg.Register("authz", func(ctx context.Context, input reqctx.Input) (reqctx.Input, error) {
		return nil, boom
	})

	rc, err := agg.Build(context.Background(), reqctx.Input{})
	require.Nil(t, rc)
	require.False(t, ran)

	var buildErr *reqctx.BuildError
	require.ErrorAs(t, err, &buildErr)
	require.Equal(t, "authz", buildErr.Middleware)
	require.ErrorIs(t, err, boom)
}

func TestBuildFactoryFailureAborts(t *testing.T) {
	boom := errors.New("db down")
	agg := reqctx.NewAggregator([]reqctx.Contribution{
		{Namespace: "db", Factory: func(ctx context.Context, input reqctx.Input) (any, error) {
			return nil, boom
		}},
	}, nil)

	rc, err := agg.Build(context.Background(), reqctx.Input{})
	require.Nil(t, rc)

	var buildErr *reqctx.BuildError
	require.ErrorAs(t, err, &buildErr)
	require.Equal(t, "db", buildErr.Namespace)
	require.ErrorIs(t, err, boom)
}

func TestBuildBindsSources(t *testing.T) {
	agg := reqctx.NewAggregator(nil, func(rc *reqctx.Context) reqctx.SourceSet {
		return staticSet{"db": "bound"}
	})

	rc, err := agg.Build(context.Background(), reqctx.Input{})
	require.NoError(t, err)
	require.NotNil(t, rc.Sources())
	require.Equal(t, rc.Sources(), rc.Value(reqctx.SourcesKey))
	v, ok := rc.Sources().Source("db")
	require.True(t, ok)
	require.Equal(t, "bound", v)
}

func TestConcurrentBuildsAreIsolated(t *testing.T) {
	agg := reqctx.NewAggregator([]reqctx.Contribution{
		{Namespace: "id", Factory: func(ctx context.Context, input reqctx.Input) (any, error) {
			return input["id"], nil
		}},
	}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rc, err := agg.Build(context.Background(), reqctx.Input{"id": i})
			if err != nil {
				t.Error(err)
				return
			}
			if rc.Value("id") != i {
				t.Errorf("context leaked across requests: got %v, want %d", rc.Value("id"), i)
			}
		}(i)
	}
	wg.Wait()
}

func TestWithContextRoundTrip(t *testing.T) {
	rc := &reqctx.Context{Input: reqctx.Input{}}
	ctx := reqctx.WithContext(context.Background(), rc)
	got, ok := reqctx.FromContext(ctx)
	require.True(t, ok)
	require.Same(t, rc, got)

	_, ok = reqctx.FromContext(context.Background())
	require.False(t, ok)
}

type staticSet map[string]any

func (s staticSet) Source(key string) (any, bool) {
	v, ok := s[key]
	return v, ok
}
