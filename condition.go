package cyphercompiler

import (
	"regexp"
	"sort"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"

	"github.com/shyptr/cyphercompiler/errors"
)

// connectionSuffix recognizes the relay-style "…Connection" field name
// pattern (glossary: Connection). Shared by the filter analyzer's
// node/edge recognition and the emitter's "closest enclosing node"
// backward scan, so the two never drift on the definition.
var connectionSuffix = regexp.MustCompile(`Connection$`)

func isConnectionField(name string) bool {
	return connectionSuffix.MatchString(name)
}

// Condition is the filter DSL's internal representation (§3). It is a
// single tagged-variant record rather than a class hierarchy: the
// WHERE-clause synthesizer branches on the flags explicitly instead of
// dispatching dynamically (§9 design note).
//
// A leaf has Nested == nil and carries Property/Operator/Value. A
// group (produced from one operand of an OR) has IsGroup = true and a
// non-empty Nested. An OR has IsOr = true and every entry of Nested is
// a group. A condition produced by recursing into an object-typed
// field (including the synthetic node/edge unwrapping for
// connections) carries IsRelationship = true and a non-empty Nested
// whose entries carry ParentType set to the related type.
//
// IsRelationship is informational: the WHERE synthesizer in
// compiler_where.go identifies relationship conditions structurally (non-empty
// Nested and neither a group nor an OR), matching §4.4.7 step 1
// verbatim, rather than trusting this flag — see DESIGN.md for why.
type Condition struct {
	ParentType         *ast.Definition
	ParentPropertyName string
	Property           string
	Operator           Operator
	IsOr               bool
	IsGroup            bool
	IsRelationship     bool
	Value              string
	Nested             []*Condition
}

func isRelationshipCondition(c *Condition) bool {
	return c != nil && len(c.Nested) > 0 && !c.IsGroup && !c.IsOr
}

// resolveFieldOperator implements the "<field>[_<OPERATOR>]"
// recognition rule from §4.2, disambiguating an underscored field
// name (e.g. "tenant_id") from a genuine operator suffix by checking
// which reading names a real field on parentType. See splitFieldKey's
// doc comment for the two-step rationale.
func resolveFieldOperator(parentType *ast.Definition, key string) (string, Operator, error) {
	field, op := splitFieldKey(key)
	if fieldDefinition(parentType, field) != nil {
		return field, op, nil
	}
	if idx := strings.LastIndex(key, "_"); idx > 0 {
		candidateField := key[:idx]
		candidateOpText := strings.ToUpper(key[idx+1:])
		if fieldDefinition(parentType, candidateField) != nil {
			for _, s := range operatorSuffixes {
				if s.suffix == candidateOpText {
					return candidateField, s.op, nil
				}
			}
			return "", "", errors.New("unknown filter operator %q", key[idx+1:])
		}
	}
	parentName := "<nil>"
	if parentType != nil {
		parentName = parentType.Name
	}
	return "", "", errors.New("field %q not found on type %s", field, parentName)
}

// ConditionsFromAST builds condition trees from a query-document
// `where` value node (§4.2 AST path).
func ConditionsFromAST(schema *ast.Schema, value *ast.Value, vars map[string]interface{},
	parentType *ast.Definition, parentProperty string) ([]*Condition, error) {
	if value == nil {
		return nil, nil
	}
	if value.Kind == ast.Variable {
		raw, err := value.Value(vars)
		if err != nil {
			return nil, errors.Wrap(err, "resolving $%s", value.Raw)
		}
		return ConditionsFromRuntime(schema, raw, parentType, parentProperty)
	}
	if value.Kind != ast.ObjectValue {
		return nil, errors.New("where value must be an object")
	}
	var out []*Condition
	for _, child := range value.Children {
		conds, err := astField(schema, child.Name, child.Value, vars, parentType, parentProperty)
		if err != nil {
			return nil, err
		}
		out = append(out, conds...)
	}
	return out, nil
}

func astField(schema *ast.Schema, name string, val *ast.Value, vars map[string]interface{},
	parentType *ast.Definition, parentProperty string) ([]*Condition, error) {
	switch {
	case name == "AND":
		return astAndConditions(schema, val, vars, parentType, parentProperty)
	case name == "OR":
		cond, err := astOrCondition(schema, val, vars, parentType, parentProperty)
		if err != nil {
			return nil, err
		}
		return []*Condition{cond}, nil
	case (name == "node" || name == "edge") && isConnectionField(parentProperty):
		return astConnectionField(schema, name, val, vars, parentType, parentProperty)
	default:
		return astGenericField(schema, name, val, vars, parentType, parentProperty)
	}
}

func astAndConditions(schema *ast.Schema, val *ast.Value, vars map[string]interface{},
	parentType *ast.Definition, parentProperty string) ([]*Condition, error) {
	if val.Kind == ast.ListValue {
		var out []*Condition
		for _, c := range val.Children {
			conds, err := ConditionsFromAST(schema, c.Value, vars, parentType, parentProperty)
			if err != nil {
				return nil, err
			}
			out = append(out, conds...)
		}
		return out, nil
	}
	return ConditionsFromAST(schema, val, vars, parentType, parentProperty)
}

func astOrCondition(schema *ast.Schema, val *ast.Value, vars map[string]interface{},
	parentType *ast.Definition, parentProperty string) (*Condition, error) {
	if val.Kind != ast.ListValue {
		return nil, errors.New("OR value must be a list")
	}
	groups := make([]*Condition, 0, len(val.Children))
	for _, c := range val.Children {
		nested, err := ConditionsFromAST(schema, c.Value, vars, parentType, parentProperty)
		if err != nil {
			return nil, err
		}
		groups = append(groups, &Condition{ParentType: parentType, ParentPropertyName: parentProperty, IsGroup: true, Nested: nested})
	}
	return &Condition{ParentType: parentType, ParentPropertyName: parentProperty, IsOr: true, Nested: groups}, nil
}

func astConnectionField(schema *ast.Schema, name string, val *ast.Value, vars map[string]interface{},
	parentType *ast.Definition, parentProperty string) ([]*Condition, error) {
	var targetType *ast.Definition
	if name == "node" {
		targetType = connectionNodeType(schema, parentType)
	} else {
		targetType = connectionEdgeType(schema, parentType)
	}
	nested, err := ConditionsFromAST(schema, val, vars, targetType, name)
	if err != nil {
		return nil, err
	}
	return []*Condition{{
		ParentType: parentType, ParentPropertyName: parentProperty,
		Property: name, IsRelationship: true, Nested: nested,
	}}, nil
}

func astGenericField(schema *ast.Schema, name string, val *ast.Value, vars map[string]interface{},
	parentType *ast.Definition, parentProperty string) ([]*Condition, error) {
	field, op, err := resolveFieldOperator(parentType, name)
	if err != nil {
		return nil, err
	}
	targetType := fieldTargetType(schema, parentType, field)
	if targetType != nil && !isScalarLike(targetType) {
		nested, err := ConditionsFromAST(schema, val, vars, targetType, field)
		if err != nil {
			return nil, err
		}
		return []*Condition{{
			ParentType: parentType, ParentPropertyName: parentProperty,
			Property: field, Operator: op, IsRelationship: true, Nested: nested,
		}}, nil
	}
	lit, err := serializeASTLiteral(val, vars)
	if err != nil {
		return nil, err
	}
	return []*Condition{{
		ParentType: parentType, ParentPropertyName: parentProperty,
		Property: field, Operator: op, Value: lit,
	}}, nil
}

// ConditionsFromRuntime builds condition trees from a deserialized
// variable value (§4.2 runtime path). Object key order in Go maps is
// randomized, so keys are visited in sorted order to keep emission
// byte-stable (Invariant 1, §8) — the AST path gets this for free from
// document order.
func ConditionsFromRuntime(schema *ast.Schema, value interface{},
	parentType *ast.Definition, parentProperty string) ([]*Condition, error) {
	if value == nil {
		return nil, nil
	}
	m, ok := value.(map[string]interface{})
	if !ok {
		return nil, errors.New("where value must be an object")
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var out []*Condition
	for _, k := range keys {
		conds, err := runtimeField(schema, k, m[k], parentType, parentProperty)
		if err != nil {
			return nil, err
		}
		out = append(out, conds...)
	}
	return out, nil
}

func runtimeField(schema *ast.Schema, name string, val interface{},
	parentType *ast.Definition, parentProperty string) ([]*Condition, error) {
	switch {
	case name == "AND":
		return runtimeAndConditions(schema, val, parentType, parentProperty)
	case name == "OR":
		cond, err := runtimeOrCondition(schema, val, parentType, parentProperty)
		if err != nil {
			return nil, err
		}
		return []*Condition{cond}, nil
	case (name == "node" || name == "edge") && isConnectionField(parentProperty):
		return runtimeConnectionField(schema, name, val, parentType, parentProperty)
	default:
		return runtimeGenericField(schema, name, val, parentType, parentProperty)
	}
}

func runtimeAndConditions(schema *ast.Schema, val interface{},
	parentType *ast.Definition, parentProperty string) ([]*Condition, error) {
	if list, ok := val.([]interface{}); ok {
		var out []*Condition
		for _, item := range list {
			conds, err := ConditionsFromRuntime(schema, item, parentType, parentProperty)
			if err != nil {
				return nil, err
			}
			out = append(out, conds...)
		}
		return out, nil
	}
	return ConditionsFromRuntime(schema, val, parentType, parentProperty)
}

func runtimeOrCondition(schema *ast.Schema, val interface{},
	parentType *ast.Definition, parentProperty string) (*Condition, error) {
	list, ok := val.([]interface{})
	if !ok {
		return nil, errors.New("OR value must be a list")
	}
	groups := make([]*Condition, 0, len(list))
	for _, item := range list {
		nested, err := ConditionsFromRuntime(schema, item, parentType, parentProperty)
		if err != nil {
			return nil, err
		}
		groups = append(groups, &Condition{ParentType: parentType, ParentPropertyName: parentProperty, IsGroup: true, Nested: nested})
	}
	return &Condition{ParentType: parentType, ParentPropertyName: parentProperty, IsOr: true, Nested: groups}, nil
}

func runtimeConnectionField(schema *ast.Schema, name string, val interface{},
	parentType *ast.Definition, parentProperty string) ([]*Condition, error) {
	var targetType *ast.Definition
	if name == "node" {
		targetType = connectionNodeType(schema, parentType)
	} else {
		targetType = connectionEdgeType(schema, parentType)
	}
	nested, err := ConditionsFromRuntime(schema, val, targetType, name)
	if err != nil {
		return nil, err
	}
	return []*Condition{{
		ParentType: parentType, ParentPropertyName: parentProperty,
		Property: name, IsRelationship: true, Nested: nested,
	}}, nil
}

func runtimeGenericField(schema *ast.Schema, name string, val interface{},
	parentType *ast.Definition, parentProperty string) ([]*Condition, error) {
	field, op, err := resolveFieldOperator(parentType, name)
	if err != nil {
		return nil, err
	}
	targetType := fieldTargetType(schema, parentType, field)
	if targetType != nil && !isScalarLike(targetType) {
		nested, err := ConditionsFromRuntime(schema, val, targetType, field)
		if err != nil {
			return nil, err
		}
		return []*Condition{{
			ParentType: parentType, ParentPropertyName: parentProperty,
			Property: field, Operator: op, IsRelationship: true, Nested: nested,
		}}, nil
	}
	lit, err := serializeRuntimeLiteral(val)
	if err != nil {
		return nil, err
	}
	return []*Condition{{
		ParentType: parentType, ParentPropertyName: parentProperty,
		Property: field, Operator: op, Value: lit,
	}}, nil
}
