package cyphercompiler

import (
	"github.com/vektah/gqlparser/v2/ast"
)

// ConditionBuilder is the argument-rewriter hook the tenant extension
// composes with instead of subclassing the base filter builder (§9
// design note: "Prefer composition ... the tenant layer supplies a
// rewriter that AND-nests the tenant predicate").
type ConditionBuilder interface {
	BuildAST(schema *ast.Schema, value *ast.Value, vars map[string]interface{},
		parentType *ast.Definition, parentProperty string) ([]*Condition, error)
	BuildRuntime(schema *ast.Schema, value interface{},
		parentType *ast.Definition, parentProperty string) ([]*Condition, error)
}

// baseConditionBuilder is the plain filter DSL analyzer of §4.2, with
// no tenant scoping.
type baseConditionBuilder struct{}

func (baseConditionBuilder) BuildAST(schema *ast.Schema, value *ast.Value, vars map[string]interface{},
	parentType *ast.Definition, parentProperty string) ([]*Condition, error) {
	return ConditionsFromAST(schema, value, vars, parentType, parentProperty)
}

func (baseConditionBuilder) BuildRuntime(schema *ast.Schema, value interface{},
	parentType *ast.Definition, parentProperty string) ([]*Condition, error) {
	return ConditionsFromRuntime(schema, value, parentType, parentProperty)
}

// DefaultConditionBuilder builds condition trees with no tenant
// scoping.
var DefaultConditionBuilder ConditionBuilder = baseConditionBuilder{}

// TenantKind distinguishes a type's tenant discriminator shape.
type TenantKind int

const (
	TenantNone TenantKind = iota
	TenantScalar
	TenantList
)

func tenantKindOf(t *ast.Definition) TenantKind {
	if t == nil {
		return TenantNone
	}
	if t.Fields.ForName("tenantId") != nil {
		return TenantScalar
	}
	if t.Fields.ForName("tenantIds") != nil {
		return TenantList
	}
	return TenantNone
}

// tenantDenyList lists fields exempt from tenant injection even when
// their target type carries a tenant discriminator.
//
// "sentBy" is listed twice in the source specification (§9: "The
// deny-list includes sentBy twice; one is redundant"). It's preserved
// here verbatim rather than silently deduplicated, per the exercise's
// instruction not to guess intent on flagged possibly-buggy behavior.
// A map-backed set makes the duplicate behaviorally inert either way.
var tenantDenyListEntries = []string{
	"sentBy",
	"includedIn",
	"updatedBy",
	"proposedBy",
	"creator",
	"mappingInstances",
	"sentBy",
}

func newTenantDenyList() map[string]bool {
	deny := make(map[string]bool, len(tenantDenyListEntries))
	for _, name := range tenantDenyListEntries {
		deny[name] = true
	}
	return deny
}

// TenantConditionBuilder wraps a base ConditionBuilder and injects a
// tenant-scoping predicate into any eligible field's condition list
// (§4.2 "Tenant extension").
type TenantConditionBuilder struct {
	Base     ConditionBuilder
	denyList map[string]bool
}

// NewTenantConditionBuilder wraps base with tenant scoping, using the
// standard deny-list.
func NewTenantConditionBuilder(base ConditionBuilder) *TenantConditionBuilder {
	if base == nil {
		base = DefaultConditionBuilder
	}
	return &TenantConditionBuilder{Base: base, denyList: newTenantDenyList()}
}

func (t *TenantConditionBuilder) BuildAST(schema *ast.Schema, value *ast.Value, vars map[string]interface{},
	parentType *ast.Definition, parentProperty string) ([]*Condition, error) {
	base, err := t.Base.BuildAST(schema, value, vars, parentType, parentProperty)
	if err != nil {
		return nil, err
	}
	return t.injected(schema, parentType, parentProperty, base), nil
}

func (t *TenantConditionBuilder) BuildRuntime(schema *ast.Schema, value interface{},
	parentType *ast.Definition, parentProperty string) ([]*Condition, error) {
	base, err := t.Base.BuildRuntime(schema, value, parentType, parentProperty)
	if err != nil {
		return nil, err
	}
	return t.injected(schema, parentType, parentProperty, base), nil
}

// injected appends the tenant predicate to base (preserving base as
// the first, i.e. leading, operand of the implicit AND that sibling
// Condition entries already represent), or returns base unchanged if
// the field is not tenant-eligible.
func (t *TenantConditionBuilder) injected(schema *ast.Schema, targetType *ast.Definition,
	fieldName string, base []*Condition) []*Condition {
	kind, checkType, isConn, ok := t.eligible(schema, targetType, fieldName)
	if !ok {
		return base
	}
	tenantCond := tenantCondition(checkType, kind)
	if isConn {
		tenantCond = &Condition{
			ParentType: targetType, ParentPropertyName: fieldName,
			Property: "node", IsRelationship: true,
			Nested: []*Condition{tenantCond},
		}
	}
	return append(base, tenantCond)
}

func (t *TenantConditionBuilder) eligible(schema *ast.Schema, targetType *ast.Definition,
	fieldName string) (kind TenantKind, checkType *ast.Definition, isConn bool, ok bool) {
	if targetType == nil {
		return TenantNone, nil, false, false
	}
	if targetType.Name == "FlexEntity" {
		return TenantNone, nil, false, false
	}
	if t.denyList[fieldName] {
		return TenantNone, nil, false, false
	}
	checkType = targetType
	isConn = isConnectionField(fieldName)
	if isConn {
		checkType = connectionNodeType(schema, targetType)
	}
	kind = tenantKindOf(checkType)
	if kind == TenantNone {
		return TenantNone, nil, false, false
	}
	return kind, checkType, isConn, true
}

func tenantCondition(checkType *ast.Definition, kind TenantKind) *Condition {
	if kind == TenantList {
		return &Condition{
			ParentType: checkType, ParentPropertyName: "node",
			Property: "tenantIds", Operator: OpIncludes, Value: "$cypherParams.tenantId",
		}
	}
	return &Condition{
		ParentType: checkType, ParentPropertyName: "node",
		Property: "tenantId", Operator: OpEquals, Value: "$cypherParams.tenantId",
	}
}
