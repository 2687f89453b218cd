package cyphercompiler

import (
	"unicode"

	"github.com/vektah/gqlparser/v2/ast"
)

// unwrapNamed strips List and NonNull wrappers from a schema type,
// returning the underlying named type's name.
func unwrapNamed(t *ast.Type) string {
	for t != nil && t.NamedType == "" && t.Elem != nil {
		t = t.Elem
	}
	if t == nil {
		return ""
	}
	return t.NamedType
}

// isListType reports whether t is a list type. gqlparser folds
// non-null into a flag on the same node rather than a wrapper layer,
// so unwrapping nullability (§4.4.1's "Set this frame's list-
// comprehension flag" step) is just checking the outer node.
func isListType(t *ast.Type) bool {
	return t != nil && t.NamedType == "" && t.Elem != nil
}

// resolveType looks up the object/interface/enum/scalar definition
// that a field's (possibly wrapped) type ultimately names.
func resolveType(schema *ast.Schema, t *ast.Type) *ast.Definition {
	name := unwrapNamed(t)
	if name == "" {
		return nil
	}
	return schema.Types[name]
}

// isScalarLike reports whether a definition is a leaf type for
// selection purposes (scalar or enum): such fields never carry a
// nested selection set.
func isScalarLike(def *ast.Definition) bool {
	if def == nil {
		return true
	}
	return def.Kind == ast.Scalar || def.Kind == ast.Enum
}

// fieldTargetType returns the schema type a given field on parentType
// resolves to, or nil if the field doesn't exist.
func fieldTargetType(schema *ast.Schema, parentType *ast.Definition, fieldName string) *ast.Definition {
	if parentType == nil {
		return nil
	}
	fd := parentType.Fields.ForName(fieldName)
	if fd == nil {
		return nil
	}
	return resolveType(schema, fd.Type)
}

// fieldDefinition looks up the FieldDefinition for fieldName on
// parentType, or nil.
func fieldDefinition(parentType *ast.Definition, fieldName string) *ast.FieldDefinition {
	if parentType == nil {
		return nil
	}
	return parentType.Fields.ForName(fieldName)
}

// camelCase lower-cases the leading run of capitals, e.g.
// "Agreement" -> "agreement", "ID" -> "id".
// Used to derive pattern-variable prefixes from type names.
func camelCase(name string) string {
	if name == "" {
		return name
	}
	r := []rune(name)
	for i := 0; i < len(r) && unicode.IsUpper(r[i]); i++ {
		r[i] = unicode.ToLower(r[i])
	}
	return string(r)
}

// connectionNodeType unwraps a relay-style Connection type down to
// its element node type via edges -> node, or nil if connType isn't
// shaped like a connection.
func connectionNodeType(schema *ast.Schema, connType *ast.Definition) *ast.Definition {
	if connType == nil {
		return nil
	}
	edgeType := fieldTargetType(schema, connType, "edges")
	if edgeType == nil {
		return nil
	}
	return fieldTargetType(schema, edgeType, "node")
}

// connectionEdgeType unwraps a relay-style Connection type down to
// its edge type via edges.
func connectionEdgeType(schema *ast.Schema, connType *ast.Definition) *ast.Definition {
	if connType == nil {
		return nil
	}
	return fieldTargetType(schema, connType, "edges")
}

