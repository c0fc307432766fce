package schema

import (
	"fmt"
	"strings"

	"github.com/graphmod/graphmod/internal/language"
)

// Exclusions is a set of Type.field and Type.* selectors removed from a
// schema's aggregate view. Selectors compose as a union of removals.
type Exclusions struct {
	wholeTypes map[string]bool
	fields     map[string]map[string]bool
}

// ParseExclusions parses selector strings of the form "Type.field" or
// "Type.*". Anything else is rejected.
func ParseExclusions(selectors []string) (Exclusions, error) {
	e := Exclusions{
		wholeTypes: map[string]bool{},
		fields:     map[string]map[string]bool{},
	}
	for _, sel := range selectors {
		typeName, fieldName, ok := strings.Cut(sel, ".")
		if !ok || typeName == "" || fieldName == "" || strings.Contains(fieldName, ".") {
			return Exclusions{}, fmt.Errorf("invalid exclusion selector %q: want Type.field or Type.*", sel)
		}
		if fieldName == "*" {
			e.wholeTypes[typeName] = true
			continue
		}
		if e.fields[typeName] == nil {
			e.fields[typeName] = map[string]bool{}
		}
		e.fields[typeName][fieldName] = true
	}
	return e, nil
}

// IsEmpty reports whether the set removes nothing.
func (e Exclusions) IsEmpty() bool {
	return len(e.wholeTypes) == 0 && len(e.fields) == 0
}

// Apply projects s through the exclusion set. The source schema is never
// mutated: definitions losing fields are copied, and a type whose fields are
// all removed is omitted from the view entirely. A selector naming a type or
// field the schema does not have is an error.
func (e Exclusions) Apply(s *Schema) (*View, error) {
	v := FullView(s)
	if e.IsEmpty() {
		return v, nil
	}

	for typeName := range e.wholeTypes {
		if _, ok := v.Types[typeName]; !ok {
			return nil, fmt.Errorf("exclusion %s.*: type %s not found", typeName, typeName)
		}
		delete(v.Types, typeName)
		e.dropResolvers(v, typeName)
	}

	for typeName, excluded := range e.fields {
		def, ok := v.Types[typeName]
		if !ok {
			if e.wholeTypes[typeName] {
				continue // already removed wholesale
			}
			return nil, fmt.Errorf("exclusion on type %s: type not found", typeName)
		}
		kept := make(language.FieldList, 0, len(def.Fields))
		seen := map[string]bool{}
		for _, f := range def.Fields {
			if excluded[f.Name] {
				seen[f.Name] = true
				delete(v.Resolvers, FieldPath(typeName, f.Name))
				continue
			}
			kept = append(kept, f)
		}
		for name := range excluded {
			if !seen[name] {
				return nil, fmt.Errorf("exclusion %s.%s: field not found", typeName, name)
			}
		}
		if len(kept) == 0 && (def.Kind == language.Object || def.Kind == language.Interface) {
			delete(v.Types, typeName)
			e.dropResolvers(v, typeName)
			continue
		}
		filtered := *def
		filtered.Fields = kept
		v.Types[typeName] = &filtered
	}
	return v, nil
}

func (e Exclusions) dropResolvers(v *View, typeName string) {
	prefix := typeName + "."
	for path := range v.Resolvers {
		if strings.HasPrefix(path, prefix) {
			delete(v.Resolvers, path)
		}
	}
}
