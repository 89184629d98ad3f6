package graphql

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/99designs/gqlgen/graphql"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
)

// object resolves the fields of a schema object type. Resolvers return a
// graphql.Marshaler for leaves, an object for nested types, []any for lists
// and an untyped nil for null.
type object interface {
	resolve(ctx context.Context, field string, args arguments) (any, error)
}

// executor runs query documents against a schema. Fields are resolved in
// document order on the calling goroutine.
type executor struct {
	schema *ast.Schema
}

func newExecutor(schema *ast.Schema) *executor {
	return &executor{schema: schema}
}

// execution holds the state of a single operation
type execution struct {
	schema *ast.Schema
	doc    *ast.QueryDocument
	vars   map[string]any
	errs   gqlerror.List
}

// collectedField is a response key with the merged selections of every field sharing it
type collectedField struct {
	key        string
	field      *ast.Field
	selections ast.SelectionSet
}

// execute parses, validates and runs the operation named in params against root
func (e *executor) execute(ctx context.Context, params *graphql.RawParams, root object) *graphql.Response {
	doc, errs := gqlparser.LoadQuery(e.schema, params.Query)
	if len(errs) > 0 {
		return &graphql.Response{Errors: errs}
	}

	op := doc.Operations.ForName(params.OperationName)
	if op == nil {
		if params.OperationName == "" {
			return &graphql.Response{Errors: gqlerror.List{requestError("an operation name is required when the document has several operations")}}
		}
		return &graphql.Response{Errors: gqlerror.List{requestError("operation %s not found", params.OperationName)}}
	}
	if op.Operation != ast.Query {
		return &graphql.Response{Errors: gqlerror.List{requestError("%s operations are not served", op.Operation)}}
	}

	vars, err := coerceVariables(op, params.Variables)
	if err != nil {
		return &graphql.Response{Errors: gqlerror.List{err}}
	}

	ex := &execution{schema: e.schema, doc: doc, vars: vars}
	resp := &graphql.Response{Data: json.RawMessage("null")}
	if data, ok := ex.selectionSet(ctx, e.schema.Query, root, op.SelectionSet, nil); ok {
		var buf bytes.Buffer
		data.MarshalGQL(&buf)
		resp.Data = buf.Bytes()
	}
	resp.Errors = ex.errs
	return resp
}

// coerceVariables applies the declared defaults and rejects missing non-null variables
func coerceVariables(op *ast.OperationDefinition, raw map[string]any) (map[string]any, *gqlerror.Error) {
	vars := make(map[string]any, len(op.VariableDefinitions))
	for _, def := range op.VariableDefinitions {
		value, present := raw[def.Variable]
		if !present && def.DefaultValue != nil {
			v, err := def.DefaultValue.Value(nil)
			if err != nil {
				return nil, requestError("variable $%s: %s", def.Variable, err)
			}
			value, present = v, true
		}
		if def.Type.NonNull && (!present || value == nil) {
			return nil, requestError("variable $%s of type %s must be provided", def.Variable, def.Type.String())
		}
		if present {
			vars[def.Variable] = value
		}
	}
	return vars, nil
}

func (e *execution) selectionSet(ctx context.Context, def *ast.Definition, obj object, set ast.SelectionSet, path ast.Path) (graphql.Marshaler, bool) {
	fields := e.collectFields(def, set, nil, make(map[string]bool))
	out := &orderedObject{}
	for _, f := range fields {
		fieldPath := append(slices.Clone(path), ast.PathName(f.key))
		if f.field.Name == "__typename" {
			out.add(f.key, graphql.MarshalString(def.Name))
			continue
		}

		value, ok := e.field(ctx, obj, f, fieldPath)
		if !ok {
			return nil, false
		}
		out.add(f.key, value)
	}
	return out, true
}

// collectFields flattens fragments into response keys in document order
func (e *execution) collectFields(def *ast.Definition, set ast.SelectionSet, fields []*collectedField, visited map[string]bool) []*collectedField {
	for _, sel := range set {
		switch sel := sel.(type) {
		case *ast.Field:
			if !e.included(sel.Directives) {
				continue
			}
			key := sel.Alias
			if key == "" {
				key = sel.Name
			}
			if i := slices.IndexFunc(fields, func(f *collectedField) bool { return f.key == key }); i >= 0 {
				fields[i].selections = append(fields[i].selections, sel.SelectionSet...)
				continue
			}
			fields = append(fields, &collectedField{key: key, field: sel, selections: slices.Clone(sel.SelectionSet)})

		case *ast.InlineFragment:
			if !e.included(sel.Directives) || !applies(def, sel.TypeCondition) {
				continue
			}
			fields = e.collectFields(def, sel.SelectionSet, fields, visited)

		case *ast.FragmentSpread:
			if !e.included(sel.Directives) || visited[sel.Name] {
				continue
			}
			visited[sel.Name] = true
			fragment := sel.Definition
			if fragment == nil {
				fragment = e.doc.Fragments.ForName(sel.Name)
			}
			if fragment == nil || !applies(def, fragment.TypeCondition) {
				continue
			}
			fields = e.collectFields(def, fragment.SelectionSet, fields, visited)
		}
	}
	return fields
}

func applies(def *ast.Definition, condition string) bool {
	return condition == "" || condition == def.Name
}

// included evaluates @skip and @include
func (e *execution) included(directives ast.DirectiveList) bool {
	if d := directives.ForName("skip"); d != nil {
		if skip, _ := d.ArgumentMap(e.vars)["if"].(bool); skip {
			return false
		}
	}
	if d := directives.ForName("include"); d != nil {
		if include, _ := d.ArgumentMap(e.vars)["if"].(bool); !include {
			return false
		}
	}
	return true
}

// field resolves and completes one response key. A false result means the
// value was null for a non-null type and the parent must become null.
func (e *execution) field(ctx context.Context, obj object, f *collectedField, path ast.Path) (graphql.Marshaler, bool) {
	if f.field.Definition == nil {
		e.errs = append(e.errs, presentError(ctx, requestError("field %s is not defined", f.field.Name), path))
		return nil, false
	}

	typ := f.field.Definition.Type
	value, err := e.resolve(ctx, obj, f.field)
	if err != nil {
		e.errs = append(e.errs, presentError(ctx, err, path))
		return nullable(typ)
	}
	return e.complete(ctx, typ, value, f.selections, path)
}

func (e *execution) resolve(ctx context.Context, obj object, field *ast.Field) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			value, err = nil, recoverFunc(ctx, r)
		}
	}()

	if strings.HasPrefix(field.Name, "__") {
		return nil, requestError("introspection field %s is not served", field.Name)
	}
	return obj.resolve(ctx, field.Name, arguments(field.ArgumentMap(e.vars)))
}

func (e *execution) complete(ctx context.Context, typ *ast.Type, value any, set ast.SelectionSet, path ast.Path) (graphql.Marshaler, bool) {
	if value == nil {
		if typ.NonNull {
			e.errs = append(e.errs, &gqlerror.Error{Message: "must not be null", Path: path})
			return nil, false
		}
		return graphql.Null, true
	}

	if typ.Elem != nil {
		items, ok := value.([]any)
		if !ok {
			e.errs = append(e.errs, handleInternalError(ctx, fmt.Errorf("list field resolved to %T", value), path))
			return nullable(typ)
		}
		list := make(graphql.Array, 0, len(items))
		for i, item := range items {
			m, ok := e.complete(ctx, typ.Elem, item, set, append(slices.Clone(path), ast.PathIndex(i)))
			if !ok {
				return nullable(typ)
			}
			list = append(list, m)
		}
		return list, true
	}

	switch v := value.(type) {
	case graphql.Marshaler:
		return v, true
	case object:
		m, ok := e.selectionSet(ctx, e.schema.Types[typ.NamedType], v, set, path)
		if !ok {
			return nullable(typ)
		}
		return m, true
	default:
		e.errs = append(e.errs, handleInternalError(ctx, fmt.Errorf("field of type %s resolved to %T", typ.String(), value), path))
		return nullable(typ)
	}
}

func nullable(typ *ast.Type) (graphql.Marshaler, bool) {
	if typ.NonNull {
		return nil, false
	}
	return graphql.Null, true
}

// orderedObject writes its keys in insertion order
type orderedObject struct {
	keys   []string
	values []graphql.Marshaler
}

func (o *orderedObject) add(key string, value graphql.Marshaler) {
	o.keys = append(o.keys, key)
	o.values = append(o.values, value)
}

func (o *orderedObject) MarshalGQL(w io.Writer) {
	_, _ = io.WriteString(w, "{")
	for i, key := range o.keys {
		if i > 0 {
			_, _ = io.WriteString(w, ",")
		}
		graphql.MarshalString(key).MarshalGQL(w)
		_, _ = io.WriteString(w, ":")
		o.values[i].MarshalGQL(w)
	}
	_, _ = io.WriteString(w, "}")
}

// arguments are the coerced field arguments keyed by name
type arguments map[string]any

func (a arguments) uint64Arg(name string) (uint64, error) {
	var u Uint64
	if err := u.UnmarshalGQL(a[name]); err != nil {
		return 0, argumentError(name, err)
	}
	return uint64(u), nil
}

// optionalUint64Arg returns nil when the argument is absent or null
func (a arguments) optionalUint64Arg(name string) (*uint64, error) {
	if a[name] == nil {
		return nil, nil
	}
	v, err := a.uint64Arg(name)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (a arguments) intArg(name string) (int, error) {
	var i Int
	if err := i.UnmarshalGQL(a[name]); err != nil {
		return 0, argumentError(name, err)
	}
	return int(i), nil
}

func (a arguments) stringArg(name string) (string, error) {
	s, ok := a[name].(string)
	if !ok {
		return "", argumentError(name, fmt.Errorf("expected a string, got %T", a[name]))
	}
	return s, nil
}

// listArg returns the items of a list argument; a single value is a list of one
func (a arguments) listArg(name string) []any {
	switch v := a[name].(type) {
	case nil:
		return nil
	case []any:
		return v
	default:
		return []any{v}
	}
}
