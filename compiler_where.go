package cyphercompiler

import (
	"strconv"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
)

// buildConditionsForField implements §4.4.7's entry point: read the
// field's `where` argument (if any) and run it through the condition
// builder (plain or tenant-wrapping, depending on how the compiler
// was constructed). Returns the unrendered tree so callers can split
// inline-eligible leaves (§4.4.3) from the rest before rendering.
func (c *Compiler) buildConditionsForField(field *ast.Field, targetType *ast.Definition) ([]*Condition, error) {
	// The condition builder is always invoked, even with no `where`
	// argument at all: the tenant extension needs the chance to inject
	// its predicate on every eligible field regardless of whether the
	// caller supplied a filter of their own.
	var arg *ast.Value
	if a := field.Arguments.ForName("where"); a != nil {
		arg = a.Value
	}
	conds, err := c.conditions.BuildAST(c.schema, arg, c.variables, targetType, field.Name)
	if err != nil {
		return nil, c.wrapFieldError(field, err, "building where clause for %q", field.Name)
	}
	return conds, nil
}

// renderConditions AND-joins a list of sibling conditions (§4.4.7
// step 2: conditions at the same level of the tree are implicitly
// ANDed).
func (c *Compiler) renderConditions(conds []*Condition, varName string) string {
	parts := make([]string, 0, len(conds))
	for _, cond := range conds {
		if text := c.renderCondition(cond, varName); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " AND ")
}

// renderCondition implements §4.4.7 step 1: an OR node joins its
// groups with OR; a relationship condition (identified structurally,
// see isRelationshipCondition in condition.go) becomes an existential
// predicate over a nested pattern; everything else is a single
// property predicate (§4.4.8).
func (c *Compiler) renderCondition(cond *Condition, varName string) string {
	switch {
	case cond.IsOr:
		groupTexts := make([]string, 0, len(cond.Nested))
		for _, g := range cond.Nested {
			if text := c.renderConditions(g.Nested, varName); text != "" {
				groupTexts = append(groupTexts, "("+text+")")
			}
		}
		if len(groupTexts) == 0 {
			return ""
		}
		return "(" + strings.Join(groupTexts, " OR ") + ")"
	case isRelationshipCondition(cond):
		return c.renderRelationshipCondition(cond, varName)
	default:
		return c.renderPredicate(cond, varName)
	}
}

// renderRelationshipCondition implements §4.4.7 step 4's fast/slow
// existential dichotomy. A bound relationship variable
// (rel_<property><index>, §4.4.8) carries edge-property predicates;
// a bound node variable carries node-property predicates. When the
// whole chain qualifies as fast (testable property #3: no operator,
// no OR, no nested relationship anywhere in it) the predicates fold
// into inline property maps on the pattern itself and no WHERE is
// needed; otherwise the pattern binds bare variables and the
// predicates render as a WHERE inside an existential subquery.
//
// A "node"/"edge" connection unwrap has no relationship directive of
// its own — the directive lives on the connection field one level up.
// Inside a connection condition its Nested list is split into
// node-side and edge-side predicates by splitConnectionConditions; a
// "node"/"edge" condition that reaches this function on its own has
// its Nested predicates rendered directly against varName.
func (c *Compiler) renderRelationshipCondition(cond *Condition, varName string) string {
	if cond.Property == "node" || cond.Property == "edge" {
		return c.renderConditions(cond.Nested, varName)
	}
	rel, ok := c.directives.Relationship(cond.ParentType.Name, cond.Property)
	if !ok {
		return c.renderConditions(cond.Nested, varName)
	}

	nodeConds, edgeConds := splitConnectionConditions(cond)

	targetType := fieldTargetType(c.schema, cond.ParentType, cond.Property)
	if isConnectionField(cond.Property) {
		targetType = connectionNodeType(c.schema, targetType)
	}

	c.existential++
	idx := strconv.Itoa(c.existential)
	relVar := "rel_" + cond.Property + idx
	nodeVar := varName + "_" + idx

	relSeg := relVar + ":" + rel.Type
	nodeSeg := nodeVar
	if targetType != nil {
		nodeSeg += ":" + targetType.Name
	}

	fast := conditionsQualifyFast(nodeConds) && conditionsQualifyFast(edgeConds)
	if fast {
		if inlineText := renderInlinePattern(edgeConds); inlineText != "" {
			relSeg += " " + inlineText
		}
		if inlineText := renderInlinePattern(nodeConds); inlineText != "" {
			nodeSeg += " " + inlineText
		}
		return "exists(" + renderRelPattern(varName, relSeg, nodeSeg, rel.Direction) + ")"
	}

	pattern := renderRelPattern(varName, relSeg, nodeSeg, rel.Direction)
	preds := make([]string, 0, 2)
	if text := c.renderConditions(nodeConds, nodeVar); text != "" {
		preds = append(preds, text)
	}
	if text := c.renderConditions(edgeConds, relVar); text != "" {
		preds = append(preds, text)
	}
	if len(preds) == 0 {
		return "exists(" + pattern + ")"
	}
	return "exists { MATCH " + pattern + " WHERE " + strings.Join(preds, " AND ") + " }"
}

// splitConnectionConditions separates a relationship condition's
// Nested list into node-side and edge-side predicates. A connection
// field's Nested holds at most one "node" wrapper and one "edge"
// wrapper (§4.2); a plain (non-connection) relationship's Nested is
// entirely node-side, since it has no edge-property concept.
func splitConnectionConditions(cond *Condition) (nodeConds, edgeConds []*Condition) {
	if !isConnectionField(cond.Property) {
		return cond.Nested, nil
	}
	for _, n := range cond.Nested {
		switch n.Property {
		case "node":
			nodeConds = n.Nested
		case "edge":
			edgeConds = n.Nested
		}
	}
	return nodeConds, edgeConds
}

// renderRelPattern renders a relationship pattern in the declared
// direction (§4.4.4).
func renderRelPattern(srcVar, relSeg, nodeSeg string, dir RelationDirection) string {
	if dir == DirectionIn {
		return "(" + srcVar + ")<-[" + relSeg + "]-(" + nodeSeg + ")"
	}
	return "(" + srcVar + ")-[" + relSeg + "]->(" + nodeSeg + ")"
}

// conditionsQualifyFast reports whether every condition in conds can
// render as an inline property map rather than a WHERE predicate
// (§4.4.7 step 4 / testable property #3).
func conditionsQualifyFast(conds []*Condition) bool {
	for _, c := range conds {
		if !conditionQualifiesFast(c) {
			return false
		}
	}
	return true
}

func conditionQualifiesFast(cond *Condition) bool {
	switch {
	case cond.IsOr:
		return false
	case cond.IsGroup:
		return conditionsQualifyFast(cond.Nested)
	case isRelationshipCondition(cond):
		return false
	default:
		return cond.Operator == OpEquals
	}
}

// renderPredicate implements §4.4.8's operator table. INCLUDES
// reverses the usual left/right order ("value IN var.prop") because
// it tests whether a scalar the caller supplied appears in a list
// property, not the other way around.
func (c *Compiler) renderPredicate(cond *Condition, varName string) string {
	lhs := varName + "." + cond.Property
	switch cond.Operator {
	case OpNot:
		return lhs + " <> " + cond.Value
	case OpGT:
		return lhs + " > " + cond.Value
	case OpGTE:
		return lhs + " >= " + cond.Value
	case OpLT:
		return lhs + " < " + cond.Value
	case OpLTE:
		return lhs + " <= " + cond.Value
	case OpIn:
		return lhs + " IN " + cond.Value
	case OpNotIn:
		return "NOT " + lhs + " IN " + cond.Value
	case OpContains:
		return lhs + " CONTAINS " + cond.Value
	case OpNotContains:
		return "NOT " + lhs + " CONTAINS " + cond.Value
	case OpEndsWith:
		return lhs + " ENDS WITH " + cond.Value
	case OpNotEndsWith:
		return "NOT " + lhs + " ENDS WITH " + cond.Value
	case OpMatches:
		return lhs + " =~ " + cond.Value
	case OpIncludes:
		return cond.Value + " IN " + lhs
	default: // OpEquals
		return lhs + " = " + cond.Value
	}
}
