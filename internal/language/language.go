package language

import (
	"strings"

	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/formatter"
	"github.com/vektah/gqlparser/v2/parser"
)

// ParseSchema parses a single SDL document without resolving type references.
func ParseSchema(name, source string) (*SchemaDocument, error) {
	doc, err := parser.ParseSchema(&ast.Source{Name: name, Input: source})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// LoadSchema parses and validates the given SDL sources into one schema,
// including the standard prelude (built-in scalars and directives).
func LoadSchema(sources ...*Source) (*Schema, error) {
	return gqlparser.LoadSchema(sources...)
}

// ParseQuery parses an executable document.
func ParseQuery(source string) (*QueryDocument, error) {
	doc, err := parser.ParseQuery(&ast.Source{Input: source})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Render formats a validated schema back to SDL. Built-in types and
// directives are omitted.
func Render(s *Schema) string {
	var sb strings.Builder
	formatter.NewFormatter(&sb).FormatSchema(s)
	return sb.String()
}

// RenderDocument formats an unvalidated schema document to SDL.
func RenderDocument(doc *SchemaDocument) string {
	var sb strings.Builder
	formatter.NewFormatter(&sb).FormatSchemaDocument(doc)
	return sb.String()
}
