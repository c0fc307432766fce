package main

import (
	"context"
	"fmt"

	"github.com/graphmod/graphmod/internal/language"
	"github.com/graphmod/graphmod/internal/schema"
	"github.com/graphmod/graphmod/internal/server"
)

// rootEngine is a demo execution engine: it resolves the top-level fields of
// the requested operation and returns their raw values, without walking
// nested selection sets. A production deployment plugs a full GraphQL
// executor into server.Engine instead.
type rootEngine struct{}

func (rootEngine) Execute(ctx context.Context, s *schema.Schema, req server.ExecutionRequest) *server.ExecutionResult {
	op := req.Document.Operations.ForName(req.OperationName)
	if op == nil {
		return errResult("operation %q not found", req.OperationName)
	}
	root := s.RootType(op.Operation)
	if root == nil {
		return errResult("schema has no %s root type", op.Operation)
	}

	data := map[string]any{}
	var errs []*language.Error
	for _, sel := range op.SelectionSet {
		f, ok := sel.(*language.Field)
		if !ok {
			continue
		}
		resolver, ok := s.Resolver(root.Name, f.Name)
		if !ok {
			errs = append(errs, &language.Error{Message: fmt.Sprintf("no resolver for %s.%s", root.Name, f.Name)})
			data[f.Alias] = nil
			continue
		}
		args, err := fieldArgs(f, req.Variables)
		if err != nil {
			errs = append(errs, &language.Error{Message: err.Error()})
			data[f.Alias] = nil
			continue
		}
		v, err := resolver(ctx, nil, args, schema.ResolveInfo{
			FieldName:  f.Name,
			ParentType: root.Name,
			Operation:  op.Operation,
			Args:       args,
			Path:       []any{f.Alias},
		})
		if err != nil {
			errs = append(errs, &language.Error{Message: err.Error(), Path: language.Path{language.PathName(f.Alias)}})
			data[f.Alias] = nil
			continue
		}
		data[f.Alias] = v
	}
	return &server.ExecutionResult{Data: data, Errors: errs}
}

func fieldArgs(f *language.Field, vars map[string]any) (map[string]any, error) {
	args := make(map[string]any, len(f.Arguments))
	for _, arg := range f.Arguments {
		v, err := arg.Value.Value(vars)
		if err != nil {
			return nil, fmt.Errorf("argument %s: %w", arg.Name, err)
		}
		args[arg.Name] = v
	}
	return args, nil
}

func errResult(format string, a ...any) *server.ExecutionResult {
	return &server.ExecutionResult{Errors: []*language.Error{{Message: fmt.Sprintf(format, a...)}}}
}
