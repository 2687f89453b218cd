package cyphercompiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vektah/gqlparser/v2"
)

const testQuery = `
query {
  agreement(
    options: { sort: [{ field: "title", direction: "DESC" }], skip: 0, limit: 5 }
  ) {
    id
    title
    counterparty {
      id
      name
    }
    clauses {
      id
      text
    }
  }
}
`

func TestCompileEndToEnd(t *testing.T) {
	schema := testSchema(t)
	directives := testDirectives(t, schema)
	doc, err := gqlparser.LoadQuery(schema, testQuery)
	require.Empty(t, err)

	compiler := NewCompiler(schema, directives, nil)
	cypher, cerr := compiler.Compile(doc, "", "agreement")
	require.NoError(t, cerr)

	t.Run("the root field's cypher directive anchors the subquery", func(t *testing.T) {
		assert.Contains(t, cypher, "MATCH (agreement0:Agreement) RETURN agreement0")
		assert.Contains(t, cypher, "WITH agreement0")
	})

	t.Run("scalar fields project as dotted property access", func(t *testing.T) {
		assert.Contains(t, cypher, "id: agreement0.id")
		assert.Contains(t, cypher, "title: agreement0.title")
	})

	t.Run("a relationship field opens a list comprehension with a bound rel var and a labeled target", func(t *testing.T) {
		assert.Contains(t, cypher, "(agreement0)-[rel_counterparty1:HAS_COUNTERPARTY]->(counterparty1:Counterparty)")
		assert.Contains(t, cypher, "id: counterparty1.id")
		assert.Contains(t, cypher, "name: counterparty1.name")
	})

	t.Run("a list-typed relationship is not wrapped in head()", func(t *testing.T) {
		assert.Contains(t, cypher, "[(agreement0)-[rel_clauses1:HAS_CLAUSE]->(clause1:Clause) |")
		assert.NotContains(t, cypher, "head([(agreement0)-[rel_clauses1:HAS_CLAUSE]")
	})

	t.Run("a singular relationship is wrapped in head()", func(t *testing.T) {
		assert.Contains(t, cypher, "head([(agreement0)-[rel_counterparty1:HAS_COUNTERPARTY]->(counterparty1:Counterparty) | counterparty1")
	})

	t.Run("options render sort, skip (even at zero) and limit", func(t *testing.T) {
		assert.Contains(t, cypher, "ORDER BY agreement0.title DESC")
		assert.Contains(t, cypher, "SKIP 0")
		assert.Contains(t, cypher, "LIMIT 5")
	})

	t.Run("the result is aliased to the root field's response key", func(t *testing.T) {
		assert.Contains(t, cypher, "AS agreement")
	})
}

func TestCompileRootFieldWithoutCypherDirective(t *testing.T) {
	schema := testSchema(t)
	directives := testDirectives(t, schema)
	doc, err := gqlparser.LoadQuery(schema, `
query {
  baseAgreements(where: { status: "RUNNING_TEST" }, options: { skip: 0, limit: 5 }) {
    id
    title
  }
}
`)
	require.Empty(t, err)

	compiler := NewCompiler(schema, directives, nil)
	cypher, cerr := compiler.Compile(doc, "", "baseAgreements")
	require.NoError(t, cerr)

	t.Run("matches on the target label with an inline equality property map", func(t *testing.T) {
		assert.Contains(t, cypher, "MATCH (agreement0:Agreement {status: 'RUNNING_TEST'})")
	})

	t.Run("returns the root variable aliased to the response key", func(t *testing.T) {
		assert.Contains(t, cypher, "RETURN agreement0")
		assert.Contains(t, cypher, "AS baseAgreements")
	})

	t.Run("options still render", func(t *testing.T) {
		assert.Contains(t, cypher, "SKIP 0")
		assert.Contains(t, cypher, "LIMIT 5")
	})
}

func TestCompileRootFieldWithoutCypherDirectiveUsesWhereForOperators(t *testing.T) {
	schema := testSchema(t)
	directives := testDirectives(t, schema)
	doc, err := gqlparser.LoadQuery(schema, `query { baseAgreements(where: { version_GTE: 1 }) { id } }`)
	require.Empty(t, err)

	compiler := NewCompiler(schema, directives, nil)
	cypher, cerr := compiler.Compile(doc, "", "baseAgreements")
	require.NoError(t, cerr)

	assert.Contains(t, cypher, "MATCH (agreement0:Agreement)")
	assert.Contains(t, cypher, "WHERE agreement0.version >= 1")
}

func TestCompileOmitsZeroLimit(t *testing.T) {
	schema := testSchema(t)
	directives := testDirectives(t, schema)
	doc, err := gqlparser.LoadQuery(schema, `query { agreement(options: { limit: 0 }) { id } }`)
	require.Empty(t, err)

	compiler := NewCompiler(schema, directives, nil)
	cypher, cerr := compiler.Compile(doc, "", "agreement")
	require.NoError(t, cerr)

	assert.NotContains(t, cypher, "LIMIT")
}

func TestCompileWithTenantScoping(t *testing.T) {
	schema := testSchema(t)
	directives := testDirectives(t, schema)
	doc, err := gqlparser.LoadQuery(schema, `query { agreement { id counterparty { id } } }`)
	require.Empty(t, err)

	compiler := NewTenantCompiler(schema, directives, map[string]interface{}{})
	cypher, cerr := compiler.Compile(doc, "", "agreement")
	require.NoError(t, cerr)

	t.Run("the relationship's comprehension pattern carries the tenant predicate inline", func(t *testing.T) {
		assert.Contains(t, cypher, "(counterparty1:Counterparty {tenantId: $cypherParams.tenantId})")
	})
}

func TestCompileViaFunctionalOptions(t *testing.T) {
	schema := testSchema(t)
	directives := testDirectives(t, schema)
	doc, err := gqlparser.LoadQuery(schema, `query { agreement { counterparty { id } } }`)
	require.Empty(t, err)

	compiler := New(schema, directives, nil, WithTenantScoping())
	cypher, cerr := compiler.Compile(doc, "", "agreement")
	require.NoError(t, cerr)
	assert.Contains(t, cypher, "$cypherParams.tenantId")
}
