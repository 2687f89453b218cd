package cyphercompiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderPredicate(t *testing.T) {
	c := &Compiler{}
	cases := []struct {
		name string
		cond *Condition
		want string
	}{
		{"equals", &Condition{Property: "title", Operator: OpEquals, Value: "'NDA'"}, "x.title = 'NDA'"},
		{"not", &Condition{Property: "title", Operator: OpNot, Value: "'NDA'"}, "x.title <> 'NDA'"},
		{"gt", &Condition{Property: "amount", Operator: OpGT, Value: "100"}, "x.amount > 100"},
		{"in", &Condition{Property: "status", Operator: OpIn, Value: "['A','B']"}, "x.status IN ['A','B']"},
		{"not_in", &Condition{Property: "status", Operator: OpNotIn, Value: "['A']"}, "NOT x.status IN ['A']"},
		{"contains", &Condition{Property: "title", Operator: OpContains, Value: "'NDA'"}, "x.title CONTAINS 'NDA'"},
		{"includes reverses operand order", &Condition{Property: "tenantIds", Operator: OpIncludes, Value: "$t"}, "$t IN x.tenantIds"},
		{"matches", &Condition{Property: "title", Operator: OpMatches, Value: "'^A.*'"}, "x.title =~ '^A.*'"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, c.renderPredicate(tc.cond, "x"))
		})
	}
}

func TestRenderConditionsAndOr(t *testing.T) {
	c := &Compiler{}

	t.Run("siblings are ANDed", func(t *testing.T) {
		conds := []*Condition{
			{Property: "title", Operator: OpEquals, Value: "'NDA'"},
			{Property: "status", Operator: OpEquals, Value: "'ACTIVE'"},
		}
		assert.Equal(t, "x.title = 'NDA' AND x.status = 'ACTIVE'", c.renderConditions(conds, "x"))
	})

	t.Run("an OR node ORs its groups", func(t *testing.T) {
		or := &Condition{
			IsOr: true,
			Nested: []*Condition{
				{IsGroup: true, Nested: []*Condition{{Property: "title", Operator: OpEquals, Value: "'NDA'"}}},
				{IsGroup: true, Nested: []*Condition{{Property: "title", Operator: OpEquals, Value: "'MSA'"}}},
			},
		}
		assert.Equal(t, "(x.title = 'NDA') OR (x.title = 'MSA')", c.renderCondition(or, "x")[1:len(c.renderCondition(or, "x"))-1])
	})
}

func TestRenderRelationshipConditionUsesFastExistentialForPureEquality(t *testing.T) {
	schema := testSchema(t)
	idx := testDirectives(t, schema)
	c := &Compiler{schema: schema, directives: idx}

	agreement := schema.Types["Agreement"]
	cond := &Condition{
		ParentType: agreement, Property: "counterparty", IsRelationship: true,
		Nested: []*Condition{{Property: "name", Operator: OpEquals, Value: "'Acme'"}},
	}

	text := c.renderCondition(cond, "agreement0")
	assert.Equal(t, "exists((agreement0)-[rel_counterparty1:HAS_COUNTERPARTY]->(agreement0_1:Counterparty {name: 'Acme'}))", text)
	assert.NotContains(t, text, "WHERE")
}

func TestRenderRelationshipConditionUsesSlowExistentialForOperatorPredicates(t *testing.T) {
	schema := testSchema(t)
	idx := testDirectives(t, schema)
	c := &Compiler{schema: schema, directives: idx}

	agreement := schema.Types["Agreement"]
	cond := &Condition{
		ParentType: agreement, Property: "counterparty", IsRelationship: true,
		Nested: []*Condition{{Property: "name", Operator: OpIn, Value: "['Acme','Globex']"}},
	}

	text := c.renderCondition(cond, "agreement0")
	assert.Contains(t, text, "exists { MATCH (agreement0)-[rel_counterparty1:HAS_COUNTERPARTY]->(agreement0_1:Counterparty) WHERE")
	assert.Contains(t, text, "agreement0_1.name IN ['Acme','Globex']")
	assert.NotContains(t, text, "{name:")
}

func TestConditionQualifiesFastRejectsOperatorsOrsAndNestedRelationships(t *testing.T) {
	assert.True(t, conditionQualifiesFast(&Condition{Operator: OpEquals}))
	assert.False(t, conditionQualifiesFast(&Condition{Operator: OpGT}))
	assert.False(t, conditionQualifiesFast(&Condition{IsOr: true}))
	assert.False(t, conditionQualifiesFast(&Condition{IsRelationship: true, Nested: []*Condition{{Operator: OpEquals}}}))
	assert.True(t, conditionQualifiesFast(&Condition{IsGroup: true, Nested: []*Condition{{Operator: OpEquals}}}))
	assert.False(t, conditionQualifiesFast(&Condition{IsGroup: true, Nested: []*Condition{{Operator: OpGT}}}))
}
