package manifest_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/graphmod/graphmod/internal/manifest"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadBuildsTreeFromFilesAndInlineSDL(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "users.graphql", `
type Query { user(id: ID!): User }
type User { id: ID! name: String }
`)
	path := writeFile(t, dir, "graphmod.yaml", `
components:
  gateway:
    sdl:
      - "type Query { health: Boolean }"
    imports:
      - users
  users:
    types:
      - users.graphql
`)

	root, err := manifest.Load(path)
	require.NoError(t, err)
	require.Equal(t, "gateway", root.Name())

	s, err := root.Schema()
	require.NoError(t, err)
	require.NotNil(t, s.AST.Query.Fields.ForName("health"))
	require.NotNil(t, s.AST.Query.Fields.ForName("user"))
	require.NotNil(t, s.Definition("User"))
}

func TestLoadImportWithExclusions(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "graphmod.yaml", `
entry: gateway
components:
  gateway:
    sdl:
      - "type Query { health: Boolean }"
    imports:
      - component: users
        exclude: ["Mutation.*"]
  users:
    sdl:
      - "type Query { user: String } type Mutation { addUser: String }"
`)

	root, err := manifest.Load(path)
	require.NoError(t, err)

	s, err := root.Schema()
	require.NoError(t, err)
	require.Nil(t, s.Definition("Mutation"))
	require.NotNil(t, s.AST.Query.Fields.ForName("user"))
}

func TestLoadMocksOverlay(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "graphmod.yaml", `
components:
  api:
    mocks: true
    sdl:
      - "type Query { answer: Int }"
`)

	root, err := manifest.Load(path)
	require.NoError(t, err)

	s, err := root.Schema()
	require.NoError(t, err)
	_, ok := s.Resolver("Query", "answer")
	require.True(t, ok)
}

func TestBuildErrors(t *testing.T) {
	t.Run("no components", func(t *testing.T) {
		_, err := manifest.Build(&manifest.File{}, ".")
		require.ErrorContains(t, err, "no components")
	})

	t.Run("unknown entry", func(t *testing.T) {
		_, err := manifest.Build(&manifest.File{
			Entry:      "ghost",
			Components: map[string]manifest.Component{"api": {SDL: []string{"type Query { a: Int }"}}},
		}, ".")
		require.ErrorContains(t, err, `entry component "ghost"`)
	})

	t.Run("ambiguous entry", func(t *testing.T) {
		_, err := manifest.Build(&manifest.File{
			Components: map[string]manifest.Component{
				"a": {SDL: []string{"type Query { a: Int }"}},
				"b": {SDL: []string{"type Query { b: Int }"}},
			},
		}, ".")
		require.ErrorContains(t, err, "cannot infer entry")
	})

	t.Run("undeclared import", func(t *testing.T) {
		_, err := manifest.Build(&manifest.File{
			Components: map[string]manifest.Component{
				"api": {SDL: []string{"type Query { a: Int }"}, Imports: []manifest.Import{{Component: "ghost"}}},
			},
		}, ".")
		require.ErrorContains(t, err, `"ghost" not declared`)
	})

	t.Run("import cycle", func(t *testing.T) {
		_, err := manifest.Build(&manifest.File{
			Entry: "a",
			Components: map[string]manifest.Component{
				"a": {SDL: []string{"type Query { a: Int }"}, Imports: []manifest.Import{{Component: "b"}}},
				"b": {SDL: []string{"type Query { b: Int }"}, Imports: []manifest.Import{{Component: "a"}}},
			},
		}, ".")
		require.ErrorContains(t, err, "cycle")
	})

	t.Run("missing sdl file", func(t *testing.T) {
		_, err := manifest.Build(&manifest.File{
			Components: map[string]manifest.Component{
				"api": {Types: []string{"missing.graphql"}},
			},
		}, t.TempDir())
		require.Error(t, err)
	})
}
