package cyphercompiler

import (
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
)

// renderOptions implements §4.4.9: translate a field's `options`
// argument ({sort, skip, limit}) into an ORDER BY / SKIP / LIMIT
// suffix. Two asymmetric, documented-as-possibly-buggy behaviors are
// preserved verbatim rather than fixed (§9): a limit of 0 is treated
// as falsy and never emitted, while a skip of 0 is emitted because
// its presence in the argument, not its truthiness, is what gates it.
func (c *Compiler) renderOptions(field *ast.Field, varName string) (string, error) {
	arg := field.Arguments.ForName("options")
	if arg == nil || arg.Value == nil || arg.Value.Kind != ast.ObjectValue {
		return "", nil
	}
	obj := arg.Value

	var clauses []string
	if sortVal := obj.Children.ForName("sort"); sortVal != nil {
		orderBy := c.renderSort(sortVal, varName)
		if orderBy != "" {
			clauses = append(clauses, orderBy)
		}
	}
	if skipVal := obj.Children.ForName("skip"); skipVal != nil {
		clauses = append(clauses, "SKIP "+skipVal.Raw)
	}
	if limitVal := obj.Children.ForName("limit"); limitVal != nil && limitVal.Raw != "0" {
		clauses = append(clauses, "LIMIT "+limitVal.Raw)
	}
	return strings.Join(clauses, " "), nil
}

func (c *Compiler) renderSort(sortVal *ast.Value, varName string) string {
	if sortVal.Kind != ast.ListValue {
		return ""
	}
	parts := make([]string, 0, len(sortVal.Children))
	for _, child := range sortVal.Children {
		entry := child.Value
		if entry == nil || entry.Kind != ast.ObjectValue {
			continue
		}
		fieldVal := entry.Children.ForName("field")
		if fieldVal == nil {
			continue
		}
		dir := "ASC"
		if dirVal := entry.Children.ForName("direction"); dirVal != nil && strings.EqualFold(dirVal.Raw, "DESC") {
			dir = "DESC"
		}
		parts = append(parts, varName+"."+fieldVal.Raw+" "+dir)
	}
	if len(parts) == 0 {
		return ""
	}
	return "ORDER BY " + strings.Join(parts, ", ")
}
