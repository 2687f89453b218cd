package cyphercompiler

import (
	"strings"

	"github.com/vektah/gqlparser/v2/ast"

	"github.com/shyptr/cyphercompiler/errors"
)

// RelationDirection is the direction argument of an @relationship
// directive: IN yields a "<-[...]-" pattern, OUT yields "-[...]->".
type RelationDirection string

const (
	DirectionIn  RelationDirection = "IN"
	DirectionOut RelationDirection = "OUT"
)

// CypherDirective is the resolved form of @cypher(statement: "...").
type CypherDirective struct {
	Statement string
}

// RelationshipDirective is the resolved form of
// @relationship(type: ..., direction: ...).
type RelationshipDirective struct {
	Type      string
	Direction RelationDirection
}

// DirectiveIndex is the schema directive index (§4.1): a static
// TypeName.FieldName -> directives lookup built once from the schema.
// It is safe for concurrent read access by any number of compilers.
type DirectiveIndex struct {
	cypher       map[string]*CypherDirective
	relationship map[string]*RelationshipDirective
}

func directiveKey(typeName, fieldName string) string {
	return typeName + "." + fieldName
}

// BuildDirectiveIndex walks every object and interface definition in
// schema and records the (at most one each) @cypher and @relationship
// directive attached to each of their fields. Missing keys resolve to
// "not present" via the ok return of Cypher/Relationship, never an
// error: an unannotated field is a completely ordinary state.
func BuildDirectiveIndex(schema *ast.Schema) (*DirectiveIndex, error) {
	idx := &DirectiveIndex{
		cypher:       make(map[string]*CypherDirective),
		relationship: make(map[string]*RelationshipDirective),
	}
	for _, def := range schema.Types {
		if def.Kind != ast.Object && def.Kind != ast.Interface {
			continue
		}
		for _, field := range def.Fields {
			key := directiveKey(def.Name, field.Name)
			if d := field.Directives.ForName("cypher"); d != nil {
				cd, err := parseCypherDirective(d)
				if err != nil {
					return nil, errors.Wrap(err, "invalid @cypher directive on %s", key)
				}
				idx.cypher[key] = cd
			}
			if d := field.Directives.ForName("relationship"); d != nil {
				rd, err := parseRelationshipDirective(d)
				if err != nil {
					return nil, errors.Wrap(err, "invalid @relationship directive on %s", key)
				}
				idx.relationship[key] = rd
			}
		}
	}
	return idx, nil
}

func parseCypherDirective(d *ast.Directive) (*CypherDirective, error) {
	stmtVal := d.Arguments.ForName("statement")
	if stmtVal == nil {
		return nil, errors.New("@cypher requires a statement argument")
	}
	stmt, err := stmtVal.Value.Value(nil)
	if err != nil {
		return nil, err
	}
	s, ok := stmt.(string)
	if !ok {
		return nil, errors.New("@cypher statement argument must be a string")
	}
	return &CypherDirective{Statement: s}, nil
}

func parseRelationshipDirective(d *ast.Directive) (*RelationshipDirective, error) {
	typeVal := d.Arguments.ForName("type")
	dirVal := d.Arguments.ForName("direction")
	if typeVal == nil || dirVal == nil {
		return nil, errors.New("@relationship requires type and direction arguments")
	}
	typeRaw, err := typeVal.Value.Value(nil)
	if err != nil {
		return nil, err
	}
	dirRaw, err := dirVal.Value.Value(nil)
	if err != nil {
		return nil, err
	}
	typeName, ok := typeRaw.(string)
	if !ok {
		return nil, errors.New("@relationship type argument must be an enum/string value")
	}
	dirName, ok := dirRaw.(string)
	if !ok {
		return nil, errors.New("@relationship direction argument must be a string")
	}
	direction := RelationDirection(strings.ToUpper(dirName))
	if direction != DirectionIn && direction != DirectionOut {
		return nil, errors.New("@relationship direction must be IN or OUT, got %q", dirName)
	}
	return &RelationshipDirective{Type: typeName, Direction: direction}, nil
}

// Cypher returns the @cypher directive attached to TypeName.FieldName,
// if any.
func (idx *DirectiveIndex) Cypher(typeName, fieldName string) (*CypherDirective, bool) {
	d, ok := idx.cypher[directiveKey(typeName, fieldName)]
	return d, ok
}

// Relationship returns the @relationship directive attached to
// TypeName.FieldName, if any.
func (idx *DirectiveIndex) Relationship(typeName, fieldName string) (*RelationshipDirective, bool) {
	d, ok := idx.relationship[directiveKey(typeName, fieldName)]
	return d, ok
}
