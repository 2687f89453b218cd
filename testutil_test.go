package cyphercompiler

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
)

const testSDL = `
directive @cypher(statement: String!) on FIELD_DEFINITION
directive @relationship(type: String!, direction: String!) on FIELD_DEFINITION

type Query {
  agreement(where: AgreementWhere, options: AgreementOptions): Agreement @cypher(statement: "MATCH (this:Agreement) RETURN this")
  baseAgreements(where: AgreementWhere, options: AgreementOptions): [Agreement!]!
}

type Agreement {
  id: ID!
  title: String!
  status: String
  version: Int
  tenantId: String
  sentBy: String
  counterparty(where: CounterpartyWhere): Counterparty @relationship(type: "HAS_COUNTERPARTY", direction: OUT)
  clauses: [Clause!]! @relationship(type: "HAS_CLAUSE", direction: OUT)
}

type Counterparty {
  id: ID!
  name: String!
  tenantId: String
}

type Clause {
  id: ID!
  text: String!
  tenantIds: [String!]
}

input AgreementWhere {
  AND: [AgreementWhere!]
  OR: [AgreementWhere!]
  title: String
  title_CONTAINS: String
  status: String
  version: Int
  version_GTE: Int
  version_LTE: Int
  version_IN: [Int!]
  counterparty: CounterpartyWhere
}

input CounterpartyWhere {
  name: String
  name_IN: [String!]
}

input AgreementOptions {
  sort: [AgreementSort!]
  skip: Int
  limit: Int
}

input AgreementSort {
  field: String!
  direction: String
}
`

func testSchema(t *testing.T) *ast.Schema {
	t.Helper()
	schema, err := gqlparser.LoadSchema(&ast.Source{Name: "test.graphql", Input: testSDL})
	require.NoError(t, err)
	return schema
}

func testDirectives(t *testing.T, schema *ast.Schema) *DirectiveIndex {
	t.Helper()
	idx, err := BuildDirectiveIndex(schema)
	require.NoError(t, err)
	return idx
}
