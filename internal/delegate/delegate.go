// Package delegate forwards a resolver's execution to a root field of
// another component's assembled schema. Delegation reads the target's own,
// unfiltered schema: exclusions applied at some other aggregation boundary
// never hide a field from a delegating caller.
package delegate

import (
	"context"
	"fmt"

	"github.com/graphmod/graphmod/internal/component"
	"github.com/graphmod/graphmod/internal/language"
	"github.com/graphmod/graphmod/internal/schema"
)

// ResultTransform post-processes a delegated result.
type ResultTransform func(any) (any, error)

// Options configures a delegated call. Ctx and Info are required; operation
// and field name fall back to the caller's info when not supplied. Args
// entries override the caller's original arguments on key collision.
type Options struct {
	Operation  language.Operation
	FieldName  string
	Ctx        context.Context
	Info       schema.ResolveInfo
	Args       map[string]any
	Transforms []ResultTransform
}

// Delegate invokes the target root field's resolver with the caller's
// context and merged arguments.
func Delegate(target *component.Node, opts Options) (any, error) {
	if opts.Ctx == nil {
		return nil, fmt.Errorf("delegate to %s: context is required", target.Name())
	}
	fieldName := opts.FieldName
	if fieldName == "" {
		fieldName = opts.Info.FieldName
	}
	if fieldName == "" {
		return nil, fmt.Errorf("delegate to %s: field name is required", target.Name())
	}
	op := opts.Operation
	if op == "" {
		op = opts.Info.Operation
	}
	if op == "" {
		op = language.Query
	}

	s, err := target.Schema()
	if err != nil {
		return nil, err
	}
	root := s.RootType(op)
	if root == nil {
		return nil, fmt.Errorf("delegate to %s: no %s root type", target.Name(), op)
	}
	if root.Fields.ForName(fieldName) == nil {
		return nil, fmt.Errorf("delegate to %s: no field %s on %s", target.Name(), fieldName, root.Name)
	}
	resolver, ok := s.Resolver(root.Name, fieldName)
	if !ok {
		return nil, fmt.Errorf("delegate to %s: no resolver for %s.%s", target.Name(), root.Name, fieldName)
	}

	args := make(map[string]any, len(opts.Info.Args)+len(opts.Args))
	for k, v := range opts.Info.Args {
		args[k] = v
	}
	for k, v := range opts.Args {
		args[k] = v
	}

	info := schema.ResolveInfo{
		FieldName:  fieldName,
		ParentType: root.Name,
		Operation:  op,
		Args:       args,
		Path:       append(append([]any(nil), opts.Info.Path...), fieldName),
	}
	result, err := resolver(opts.Ctx, nil, args, info)
	if err != nil {
		return nil, err
	}
	for _, t := range opts.Transforms {
		result, err = t(result)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}
