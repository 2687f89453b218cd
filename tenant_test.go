package cyphercompiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTenantConditionBuilder(t *testing.T) {
	schema := testSchema(t)
	agreement := schema.Types["Agreement"]
	counterparty := schema.Types["Counterparty"]
	clause := schema.Types["Clause"]

	t.Run("scalar tenantId field gets an EQUALS predicate", func(t *testing.T) {
		builder := NewTenantConditionBuilder(DefaultConditionBuilder)
		conds, err := builder.BuildAST(schema, nil, nil, agreement, "agreement")
		require.NoError(t, err)
		require.Len(t, conds, 1)
		assert.Equal(t, "tenantId", conds[0].Property)
		assert.Equal(t, OpEquals, conds[0].Operator)
		assert.Equal(t, "$cypherParams.tenantId", conds[0].Value)
	})

	t.Run("list tenantIds field gets an INCLUDES predicate", func(t *testing.T) {
		builder := NewTenantConditionBuilder(DefaultConditionBuilder)
		conds, err := builder.BuildAST(schema, nil, nil, clause, "clauses")
		require.NoError(t, err)
		require.Len(t, conds, 1)
		assert.Equal(t, "tenantIds", conds[0].Property)
		assert.Equal(t, OpIncludes, conds[0].Operator)
	})

	t.Run("a deny-listed field is left untouched", func(t *testing.T) {
		builder := NewTenantConditionBuilder(DefaultConditionBuilder)
		conds, err := builder.BuildAST(schema, nil, nil, agreement, "sentBy")
		require.NoError(t, err)
		assert.Empty(t, conds)
	})

	t.Run("a type with no tenant discriminator is left untouched", func(t *testing.T) {
		builder := NewTenantConditionBuilder(DefaultConditionBuilder)
		conds, err := builder.BuildAST(schema, nil, nil, schema.Types["Query"], "somethingElse")
		require.NoError(t, err)
		assert.Empty(t, conds)
	})

	t.Run("injection preserves the base where as the leading operand", func(t *testing.T) {
		base := objVal(field("name", strVal("Acme")))
		builder := NewTenantConditionBuilder(DefaultConditionBuilder)
		conds, err := builder.BuildAST(schema, base, nil, counterparty, "counterparty")
		require.NoError(t, err)
		require.Len(t, conds, 2)
		assert.Equal(t, "name", conds[0].Property)
		assert.Equal(t, "tenantId", conds[1].Property)
	})

	t.Run("the deny-list's duplicated sentBy entry is behaviorally inert", func(t *testing.T) {
		deny := newTenantDenyList()
		assert.True(t, deny["sentBy"])
		assert.Len(t, tenantDenyListEntries, 7)
	})
}
