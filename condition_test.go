package cyphercompiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vektah/gqlparser/v2/ast"
)

func strVal(s string) *ast.Value { return &ast.Value{Kind: ast.StringValue, Raw: s} }

func objVal(fields ...*ast.ChildValue) *ast.Value {
	return &ast.Value{Kind: ast.ObjectValue, Children: ast.ChildValueList(fields)}
}

func field(name string, v *ast.Value) *ast.ChildValue {
	return &ast.ChildValue{Name: name, Value: v}
}

func listVal(items ...*ast.Value) *ast.Value {
	children := make(ast.ChildValueList, 0, len(items))
	for _, item := range items {
		children = append(children, &ast.ChildValue{Value: item})
	}
	return &ast.Value{Kind: ast.ListValue, Children: children}
}

func TestConditionsFromAST(t *testing.T) {
	schema := testSchema(t)
	agreement := schema.Types["Agreement"]

	t.Run("a bare field defaults to EQUALS", func(t *testing.T) {
		val := objVal(field("title", strVal("NDA")))
		conds, err := ConditionsFromAST(schema, val, nil, agreement, "agreement")
		require.NoError(t, err)
		require.Len(t, conds, 1)
		assert.Equal(t, "title", conds[0].Property)
		assert.Equal(t, OpEquals, conds[0].Operator)
		assert.Equal(t, "'NDA'", conds[0].Value)
	})

	t.Run("an operator suffix is split off", func(t *testing.T) {
		val := objVal(field("title_CONTAINS", strVal("NDA")))
		conds, err := ConditionsFromAST(schema, val, nil, agreement, "agreement")
		require.NoError(t, err)
		require.Len(t, conds, 1)
		assert.Equal(t, "title", conds[0].Property)
		assert.Equal(t, OpContains, conds[0].Operator)
	})

	t.Run("OR groups its operands and ANDs within each group", func(t *testing.T) {
		val := objVal(field("OR", listVal(
			objVal(field("title", strVal("NDA"))),
			objVal(field("title", strVal("MSA"))),
		)))
		conds, err := ConditionsFromAST(schema, val, nil, agreement, "agreement")
		require.NoError(t, err)
		require.Len(t, conds, 1)
		assert.True(t, conds[0].IsOr)
		require.Len(t, conds[0].Nested, 2)
		assert.True(t, conds[0].Nested[0].IsGroup)
	})

	t.Run("a nested object-typed field recurses and is tagged relationship", func(t *testing.T) {
		val := objVal(field("counterparty", objVal(field("name", strVal("Acme")))))
		conds, err := ConditionsFromAST(schema, val, nil, agreement, "agreement")
		require.NoError(t, err)
		require.Len(t, conds, 1)
		assert.True(t, conds[0].IsRelationship)
		assert.True(t, isRelationshipCondition(conds[0]))
		require.Len(t, conds[0].Nested, 1)
		assert.Equal(t, "name", conds[0].Nested[0].Property)
	})

	t.Run("an unknown field name that isn't a known operator suffix is fatal", func(t *testing.T) {
		val := objVal(field("bogusField", strVal("x")))
		_, err := ConditionsFromAST(schema, val, nil, agreement, "agreement")
		assert.Error(t, err)
	})

	t.Run("a field-looking operator suffix that isn't in the table is fatal", func(t *testing.T) {
		val := objVal(field("title_FROBNICATES", strVal("x")))
		_, err := ConditionsFromAST(schema, val, nil, agreement, "agreement")
		assert.Error(t, err)
	})
}

func TestConditionsFromRuntime(t *testing.T) {
	schema := testSchema(t)
	agreement := schema.Types["Agreement"]

	t.Run("object keys are visited in sorted order for byte-stable output", func(t *testing.T) {
		conds, err := ConditionsFromRuntime(schema, map[string]interface{}{
			"title_CONTAINS": "z",
			"title":          "a",
		}, agreement, "agreement")
		require.NoError(t, err)
		require.Len(t, conds, 2)
		// "title" sorts before "title_CONTAINS" lexicographically.
		assert.Equal(t, OpEquals, conds[0].Operator)
		assert.Equal(t, OpContains, conds[1].Operator)
	})
}
