package merge

import (
	"fmt"

	"github.com/graphmod/graphmod/internal/language"
	"github.com/graphmod/graphmod/internal/schema"
)

// accumulator folds type and directive definitions together in a
// deterministic order while preserving first-wins precedence.
type accumulator struct {
	order    []string
	defs     map[string]*language.Definition
	owned    map[string]bool // defs we copied and may mutate
	dirOrder []string
	dirDefs  map[string]*language.DirectiveDefinition
}

func newAccumulator() *accumulator {
	return &accumulator{
		defs:    map[string]*language.Definition{},
		owned:   map[string]bool{},
		dirDefs: map[string]*language.DirectiveDefinition{},
	}
}

// addLocal parses and folds the component's own SDL documents. Extensions
// are returned so they can be applied after the imports, letting a local
// `extend type` target an imported type.
func (a *accumulator) addLocal(local schema.Declarations) ([]*language.Definition, error) {
	var exts []*language.Definition
	for i, src := range local.Types {
		doc, err := language.ParseSchema(fmt.Sprintf("%s[%d].graphql", local.Name, i), src)
		if err != nil {
			return nil, err
		}
		for _, def := range doc.Definitions {
			if _, ok := a.defs[def.Name]; ok {
				return nil, fmt.Errorf("type %s declared twice in component %s", def.Name, local.Name)
			}
			a.put(def.Name, def)
		}
		exts = append(exts, doc.Extensions...)
		for _, dd := range doc.Directives {
			if _, ok := a.dirDefs[dd.Name]; ok {
				return nil, fmt.Errorf("directive @%s declared twice in component %s", dd.Name, local.Name)
			}
			a.putDirective(dd.Name, dd)
		}
	}
	return exts, nil
}

// addView folds one import's filtered view. Types present already keep
// their earlier definition; object and interface types additionally adopt
// any fields they do not have yet.
func (a *accumulator) addView(view *schema.View) {
	for _, name := range view.TypeNames() {
		def := view.Types[name]
		existing, ok := a.defs[name]
		if !ok {
			a.put(name, def)
			continue
		}
		if !mergeableKind(existing.Kind) || existing.Kind != def.Kind {
			continue // first wins wholesale
		}
		for _, f := range def.Fields {
			if existing.Fields.ForName(f.Name) == nil {
				a.appendField(name, f)
			}
		}
	}
	for _, name := range view.DirectiveDefNames() {
		if _, ok := a.dirDefs[name]; !ok {
			a.putDirective(name, view.DirectiveDefs[name])
		}
	}
}

// applyExtensions folds local `extend` definitions over the merged result.
// Extension fields are local declarations, so they replace same-named
// imported fields. Extending an unknown type declares it.
func (a *accumulator) applyExtensions(exts []*language.Definition) error {
	for _, ext := range exts {
		existing, ok := a.defs[ext.Name]
		if !ok {
			a.put(ext.Name, ext)
			continue
		}
		if existing.Kind != ext.Kind {
			return fmt.Errorf("extend %s: kind %s does not match %s", ext.Name, ext.Kind, existing.Kind)
		}
		for _, f := range ext.Fields {
			a.replaceOrAppendField(ext.Name, f)
		}
		for _, iface := range ext.Interfaces {
			a.appendInterface(ext.Name, iface)
		}
	}
	return nil
}

// put records a definition without copying; copies happen lazily on first
// mutation so imported views are never written through.
func (a *accumulator) put(name string, def *language.Definition) {
	a.order = append(a.order, name)
	a.defs[name] = def
}

func (a *accumulator) putDirective(name string, def *language.DirectiveDefinition) {
	a.dirOrder = append(a.dirOrder, name)
	a.dirDefs[name] = def
}

// own returns a privately mutable copy of the named definition.
func (a *accumulator) own(name string) *language.Definition {
	def := a.defs[name]
	if a.owned[name] {
		return def
	}
	clone := *def
	clone.Fields = append(language.FieldList(nil), def.Fields...)
	clone.Interfaces = append([]string(nil), def.Interfaces...)
	a.defs[name] = &clone
	a.owned[name] = true
	return &clone
}

func (a *accumulator) appendField(name string, f *language.FieldDefinition) {
	def := a.own(name)
	def.Fields = append(def.Fields, f)
}

func (a *accumulator) replaceOrAppendField(name string, f *language.FieldDefinition) {
	def := a.own(name)
	for i, existing := range def.Fields {
		if existing.Name == f.Name {
			def.Fields[i] = f
			return
		}
	}
	def.Fields = append(def.Fields, f)
}

func (a *accumulator) appendInterface(name, iface string) {
	def := a.own(name)
	for _, existing := range def.Interfaces {
		if existing == iface {
			return
		}
	}
	def.Interfaces = append(def.Interfaces, iface)
}

// document assembles the folded definitions into a renderable document.
func (a *accumulator) document() *language.SchemaDocument {
	doc := &language.SchemaDocument{}
	for _, name := range a.order {
		doc.Definitions = append(doc.Definitions, stripIntrospectionFields(a.defs[name]))
	}
	for _, name := range a.dirOrder {
		doc.Directives = append(doc.Directives, a.dirDefs[name])
	}
	return doc
}

// stripIntrospectionFields drops validator-injected __ fields so the
// rendered document round-trips through validation.
func stripIntrospectionFields(def *language.Definition) *language.Definition {
	dirty := false
	for _, f := range def.Fields {
		if isIntrospectionField(f.Name) {
			dirty = true
			break
		}
	}
	if !dirty {
		return def
	}
	clone := *def
	clone.Fields = make(language.FieldList, 0, len(def.Fields))
	for _, f := range def.Fields {
		if isIntrospectionField(f.Name) {
			continue
		}
		clone.Fields = append(clone.Fields, f)
	}
	return &clone
}

func isIntrospectionField(name string) bool {
	return len(name) >= 2 && name[0] == '_' && name[1] == '_'
}

func mergeableKind(k language.DefinitionKind) bool {
	return k == language.Object || k == language.Interface
}
