// Package manifest builds a component tree from a YAML description, for
// CLI composition of SDL-only trees (no resolvers or data sources).
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/graphmod/graphmod/internal/component"
	"github.com/graphmod/graphmod/internal/schema"
)

// File is the root of a manifest document.
type File struct {
	// Entry names the root component. It may be omitted when exactly one
	// component is imported by no other.
	Entry      string               `yaml:"entry"`
	Components map[string]Component `yaml:"components"`
}

// Component describes one component's declarations.
type Component struct {
	// Types lists SDL file paths, relative to the manifest file.
	Types []string `yaml:"types"`
	// SDL lists inline SDL documents, appended after Types.
	SDL        []string `yaml:"sdl"`
	Federation bool     `yaml:"federation"`
	Mocks      bool     `yaml:"mocks"`
	Imports    []Import `yaml:"imports"`
}

// Import references another manifest component, optionally with exclusion
// selectors. It unmarshals from either a bare component name or a mapping.
type Import struct {
	Component string   `yaml:"component"`
	Exclude   []string `yaml:"exclude"`
}

func (i *Import) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		return node.Decode(&i.Component)
	}
	type plain Import
	return node.Decode((*plain)(i))
}

// Load reads the manifest at path and constructs its component tree,
// returning the entry node.
func Load(path string) (*component.Node, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	return Build(&f, filepath.Dir(path))
}

// Build constructs the component tree described by f. SDL file paths
// resolve relative to dir.
func Build(f *File, dir string) (*component.Node, error) {
	if len(f.Components) == 0 {
		return nil, fmt.Errorf("manifest declares no components")
	}
	entry, err := entryName(f)
	if err != nil {
		return nil, err
	}
	b := &builder{file: f, dir: dir, built: map[string]*component.Node{}, building: map[string]bool{}}
	return b.node(entry)
}

func entryName(f *File) (string, error) {
	if f.Entry != "" {
		if _, ok := f.Components[f.Entry]; !ok {
			return "", fmt.Errorf("entry component %q not declared", f.Entry)
		}
		return f.Entry, nil
	}
	imported := map[string]bool{}
	for _, c := range f.Components {
		for _, imp := range c.Imports {
			imported[imp.Component] = true
		}
	}
	var roots []string
	for name := range f.Components {
		if !imported[name] {
			roots = append(roots, name)
		}
	}
	if len(roots) != 1 {
		return "", fmt.Errorf("cannot infer entry component (found %d roots); set 'entry'", len(roots))
	}
	return roots[0], nil
}

type builder struct {
	file     *File
	dir      string
	built    map[string]*component.Node
	building map[string]bool
}

func (b *builder) node(name string) (*component.Node, error) {
	if n, ok := b.built[name]; ok {
		return n, nil
	}
	if b.building[name] {
		return nil, fmt.Errorf("manifest import cycle through %q", name)
	}
	c, ok := b.file.Components[name]
	if !ok {
		return nil, fmt.Errorf("component %q not declared", name)
	}
	b.building[name] = true
	defer delete(b.building, name)

	var docs []string
	for _, p := range c.Types {
		raw, err := os.ReadFile(filepath.Join(b.dir, p))
		if err != nil {
			return nil, fmt.Errorf("component %q: %w", name, err)
		}
		docs = append(docs, string(raw))
	}
	docs = append(docs, c.SDL...)

	var imports []any
	for _, imp := range c.Imports {
		child, err := b.node(imp.Component)
		if err != nil {
			return nil, err
		}
		imports = append(imports, component.Import{Node: child, Exclude: imp.Exclude})
	}

	n, err := component.New(name, component.Options{
		Types:      docs,
		Federation: c.Federation,
		Mocks:      schema.Mocks{All: c.Mocks},
		Imports:    imports,
	})
	if err != nil {
		return nil, err
	}
	b.built[name] = n
	return n, nil
}
