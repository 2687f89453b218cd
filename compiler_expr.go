package cyphercompiler

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
)

// thisToken matches the literal "this" keyword @cypher statements use
// to refer to their own anchoring node, following the neo4j-graphql
// convention; the compiler substitutes it with the real pattern
// variable before emitting the statement.
var thisToken = regexp.MustCompile(`\bthis\b`)

func substituteThis(statement, varName string) string {
	return thisToken.ReplaceAllString(statement, varName)
}

// VisitField dispatches on the directive(s) attached to the field
// being entered (§4.4.1): a root field opens the top-level expression
// (§4.4.2), anchored on its @cypher statement when it has one and on a
// MATCH over its target label otherwise; a non-root @cypher field opens a
// node matching expression (§4.4.3) anchored on the enclosing node; an
// @relationship field opens a list comprehension over the pattern the
// directive describes (§4.4.4); a plain scalar/enum field is a leaf
// projected straight onto the token buffer; a field named "node"
// re-binds the enclosing node variable; anything else is an
// embedded object field with no directive of its own, projected by
// folding its children's projection into this field's alias.
func (c *Compiler) VisitField(field *ast.Field) (bool, error) {
	name := field.Name
	alias := name
	if field.Alias != "" {
		alias = field.Alias
	}

	if name == "__typename" {
		c.emitLeaf(alias, quoteCypherString(c.currentType().Name))
		return true, nil
	}

	parentType := c.currentType()
	fd := fieldDefinition(parentType, name)
	if fd == nil {
		return false, c.fieldError(field, "field %q not found on type %s", name, parentType.Name)
	}
	targetType := resolveType(c.schema, fd.Type)
	cypherDir, hasCypher := c.directives.Cypher(parentType.Name, name)
	relDir, hasRel := c.directives.Relationship(parentType.Name, name)
	flag := flagSingle
	if isListType(fd.Type) {
		flag = flagList
	}

	parentLevel := c.level

	switch {
	case hasRel:
		c.level++
		c.pushFrame(fd, field, targetType, flag, kindRelationship)
		if err := c.openRelationshipComprehension(field, alias, relDir, parentLevel); err != nil {
			return false, err
		}
		return false, nil

	case hasCypher:
		c.level++
		kind := kindCypherNested
		if c.level == 0 {
			kind = kindCypherRoot
		}
		c.pushFrame(fd, field, targetType, flag, kind)
		if kind == kindCypherRoot {
			c.rootVar = camelCase(targetType.Name) + "0"
			if err := c.openRootMatch(field, alias, cypherDir); err != nil {
				return false, err
			}
		} else {
			enclosingVar := c.closestEnclosingNodeVar(len(c.fieldPath) - 2)
			c.openNestedCypherMatch(alias, cypherDir, enclosingVar, parentLevel, flag)
		}
		return false, nil

	case isScalarLike(targetType) || targetType == nil:
		c.emitScalarLeaf(alias, name)
		return true, nil

	case parentLevel == -1:
		c.level++
		c.pushFrame(fd, field, targetType, flag, kindPlainRoot)
		c.rootVar = camelCase(targetType.Name) + "0"
		if err := c.openRootMatchPlain(field, alias, targetType); err != nil {
			return false, err
		}
		return false, nil

	case name == "node":
		c.level++
		nodeVar := c.closestEnclosingNodeVar(len(c.fieldPath) - 1)
		c.pushFrame(fd, field, targetType, flag, kindConnectionNode)
		head := c.tokens.push(parentLevel)
		head.emit(alias + ": " + nodeVar + " ")
		c.headTokens = append(c.headTokens, head)
		c.suffixes = append(c.suffixes, "")
		return false, nil

	default:
		c.level++
		c.pushFrame(fd, field, targetType, flag, kindPlainObject)
		head := c.tokens.push(parentLevel)
		head.emit(alias + ": ")
		c.headTokens = append(c.headTokens, head)
		c.suffixes = append(c.suffixes, "")
		return false, nil
	}
}

// VisitEndField pops the frame VisitField pushed, if any. The actual
// text-closing work happens in VisitEndSelectionSet, which runs first
// and still has access to the child-level tokens this field's
// selection set produced.
func (c *Compiler) VisitEndField(field *ast.Field) error {
	if len(c.fieldNodePath) == 0 || c.fieldNodePath[len(c.fieldNodePath)-1] != field {
		return nil
	}
	c.popFrame()
	return nil
}

// emitLeaf appends a "alias: value" token at the level of the
// currently open selection set.
func (c *Compiler) emitLeaf(alias, value string) {
	t := c.tokens.push(c.level)
	t.emit(alias + ": " + value)
}

// emitScalarLeaf projects a scalar/enum field as "alias: var.prop".
// If the leaf sits inside one or more plain (directive-less) object
// fields, those fields have no pattern variable of their own, so their
// names become intermediate path segments off the nearest real bound
// node instead: "alias: var.embedded.prop".
func (c *Compiler) emitScalarLeaf(alias, propName string) {
	idx := len(c.fieldPath) - 1
	var segments []string
	for idx >= 0 && c.kindPath[idx] == kindPlainObject {
		segments = append(segments, c.fieldPath[idx].Name)
		idx--
	}
	var path string
	if idx >= 0 && c.kindPath[idx] == kindConnectionNode {
		// A "node" frame is a re-binding to the relationship
		// comprehension's own target variable, not a nested map
		// property, so its own name never becomes a path segment.
		path = c.closestEnclosingNodeVar(idx - 1)
	} else {
		path = c.nodeVarAtIndex(idx)
	}
	for i := len(segments) - 1; i >= 0; i-- {
		path += "." + segments[i]
	}
	c.emitLeaf(alias, path+"."+propName)
}

// openRootMatch opens the top-level expression (§4.4.2). The root
// field's own @cypher statement supplies the anchoring pattern,
// emitted directly into the main buffer as a subquery; the projection
// built from its selection set is attached once that set closes, via
// the ordinary head-token mechanism, and drains into place after the
// buffer's CALL block at Compile's final join (§4.4.10).
func (c *Compiler) openRootMatch(field *ast.Field, alias string, dir *CypherDirective) error {
	statement := substituteThis(dir.Statement, c.rootVar)
	c.buffer = append(c.buffer, "CALL {", statement, "} WITH "+c.rootVar)
	options, err := c.renderOptions(field, c.rootVar)
	if err != nil {
		return err
	}
	head := c.tokens.push(-1)
	head.emit("RETURN " + c.rootVar + " ")
	suffix := " AS " + alias
	if options != "" {
		suffix = " " + options + suffix
	}
	c.headTokens = append(c.headTokens, head)
	c.suffixes = append(c.suffixes, suffix)
	return nil
}

// openRootMatchPlain opens the "otherwise" branch of the top-level
// expression (§4.4.2): a root field with neither a cypher nor a
// relationship directive builds its condition trees from its own
// `where` argument and matches directly on the node label, folding
// pure-equality leaves into the pattern's inline property map and
// pushing everything else into a WHERE clause.
func (c *Compiler) openRootMatchPlain(field *ast.Field, alias string, targetType *ast.Definition) error {
	conds, err := c.buildConditionsForField(field, targetType)
	if err != nil {
		return err
	}
	inline, rest := partitionInlineConditions(conds)

	pattern := "(" + c.rootVar + ":" + targetType.Name
	if inlineText := renderInlinePattern(inline); inlineText != "" {
		pattern += " " + inlineText
	}
	pattern += ")"

	match := "MATCH " + pattern
	if where := c.renderConditions(rest, c.rootVar); where != "" {
		match += " WHERE " + where
	}
	c.buffer = append(c.buffer, match)

	options, err := c.renderOptions(field, c.rootVar)
	if err != nil {
		return err
	}
	head := c.tokens.push(-1)
	head.emit("RETURN " + c.rootVar + " ")
	suffix := " AS " + alias
	if options != "" {
		suffix = " " + options + suffix
	}
	c.headTokens = append(c.headTokens, head)
	c.suffixes = append(c.suffixes, suffix)
	return nil
}

// partitionInlineConditions splits leaf equality conditions on scalar
// properties (eligible for an inline node/relationship property map,
// §4.4.3) from everything else (operators, groups, OR, nested
// relationships), which must render as WHERE predicates instead.
func partitionInlineConditions(conds []*Condition) (inline, rest []*Condition) {
	for _, cond := range conds {
		if isInlineEligible(cond) {
			inline = append(inline, cond)
		} else {
			rest = append(rest, cond)
		}
	}
	return inline, rest
}

func isInlineEligible(cond *Condition) bool {
	return !cond.IsOr && !cond.IsGroup && !isRelationshipCondition(cond) && cond.Operator == OpEquals
}

// renderInlinePattern renders a "{k: v, ...}" property map from leaf
// conditions, flattening AND-groups (the only structure that can
// still legally appear in an already-inline-eligible list).
func renderInlinePattern(conds []*Condition) string {
	parts := flattenInlineParts(conds)
	if len(parts) == 0 {
		return ""
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func flattenInlineParts(conds []*Condition) []string {
	var parts []string
	for _, cond := range conds {
		if cond.IsGroup {
			parts = append(parts, flattenInlineParts(cond.Nested)...)
			continue
		}
		parts = append(parts, cond.Property+": "+cond.Value)
	}
	return parts
}

// unwrapConnectionNodeType resolves the real graph-node type behind a
// relationship field's declared GraphQL type (§4.4.4: "the target is
// obtained by unwrapping connection→edges→node if present"). The
// declared type may already be an edge type (has its own "node"
// field, when the directive sits on an "edges" field directly) or a
// connection type (reached via edges→node); a plain relationship
// field (neither shape) is already the target type.
func unwrapConnectionNodeType(schema *ast.Schema, t *ast.Definition) *ast.Definition {
	if t == nil {
		return t
	}
	if nodeField := fieldDefinition(t, "node"); nodeField != nil {
		if nt := resolveType(schema, nodeField.Type); nt != nil {
			return nt
		}
		return t
	}
	if nt := connectionNodeType(schema, t); nt != nil {
		return nt
	}
	return t
}

// openNestedCypherMatch opens a node matching expression (§4.4.3): a
// non-root @cypher field is rendered as a list comprehension over its
// own statement (the statement is expected to reference the enclosing
// node variable, matching the neo4j-graphql-js @cypher convention),
// collapsed to a single value via head() unless the field is itself
// list-typed.
func (c *Compiler) openNestedCypherMatch(alias string, dir *CypherDirective, enclosingVar string, parentLevel int, flag listFlag) {
	level := len(c.fieldPath) - 1
	varName := camelCase(c.currentType().Name) + strconv.Itoa(level)
	statement := substituteThis(dir.Statement, enclosingVar)
	opener := alias + ": [" + varName + " IN (" + statement + ") | " + varName
	suffix := "]"
	if flag != flagList {
		opener = alias + ": head([" + varName + " IN (" + statement + ") | " + varName
		suffix = "])"
	}
	head := c.tokens.push(parentLevel)
	head.emit(opener)
	c.headTokens = append(c.headTokens, head)
	c.suffixes = append(c.suffixes, suffix)
}

// openRelationshipComprehension opens a relationship-based list
// comprehension (§4.4.4): "[(src)-[rel_field<lvl>:TYPE]->(var:Target) |
// var {...}]" for a list field, or the head() of the same
// comprehension for a singular one. The source node is the closest
// enclosing node two frames back, or three when this field's parent
// is the "edges" sub-field of a connection (§9 design note). When the
// field being rendered is itself "edges", the comprehension yields
// the bound relationship variable instead of the node, so edge
// properties and the unwrapped "node" field can both project off it.
func (c *Compiler) openRelationshipComprehension(field *ast.Field, alias string, dir *RelationshipDirective, parentLevel int) error {
	cur := len(c.fieldPath) - 1
	back := 2
	if cur-1 >= 0 && c.fieldNodePath[cur-1].Name == "edges" {
		back = 3
	}
	srcVar := c.closestEnclosingNodeVar(cur - back)
	declaredType := c.currentType()
	nodeType := unwrapConnectionNodeType(c.schema, declaredType)
	varName := camelCase(declaredType.Name) + strconv.Itoa(cur)
	relVar := "rel_" + field.Name + strconv.Itoa(cur)

	conds, err := c.buildConditionsForField(field, declaredType)
	if err != nil {
		return err
	}
	inline, rest := partitionInlineConditions(conds)

	nodeSeg := varName + ":" + nodeType.Name
	if inlineText := renderInlinePattern(inline); inlineText != "" {
		nodeSeg += " " + inlineText
	}

	pattern := "(" + srcVar + ")-[" + relVar + ":" + dir.Type + "]->(" + nodeSeg + ")"
	if dir.Direction == DirectionIn {
		pattern = "(" + srcVar + ")<-[" + relVar + ":" + dir.Type + "]-(" + nodeSeg + ")"
	}
	if where := c.renderConditions(rest, varName); where != "" {
		pattern += " WHERE " + where
	}

	yieldExpr := varName
	if field.Name == "edges" {
		yieldExpr = relVar
	}

	flag := c.flagPath[len(c.flagPath)-1]
	opener := alias + ": [" + pattern + " | " + yieldExpr
	suffix := "]"
	if flag != flagList {
		opener = alias + ": head([" + pattern + " | " + yieldExpr
		suffix = "])"
	}
	head := c.tokens.push(parentLevel)
	head.emit(opener)
	c.headTokens = append(c.headTokens, head)
	c.suffixes = append(c.suffixes, suffix)
	return nil
}
