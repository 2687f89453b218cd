package cyphercompiler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"

	"github.com/shyptr/cyphercompiler/errors"
)

// Operator is a comparison/inclusion operator recognized by the
// filter DSL's `<field>_<OP>` suffix (§3, §4.4.8).
type Operator string

const (
	OpEquals       Operator = "EQUALS"
	OpNot          Operator = "NOT"
	OpGT           Operator = "GT"
	OpGTE          Operator = "GTE"
	OpLT           Operator = "LT"
	OpLTE          Operator = "LTE"
	OpIn           Operator = "IN"
	OpNotIn        Operator = "NOT_IN"
	OpContains     Operator = "CONTAINS"
	OpNotContains  Operator = "NOT_CONTAINS"
	OpEndsWith     Operator = "ENDS_WITH"
	OpNotEndsWith  Operator = "NOT_ENDS_WITH"
	OpMatches      Operator = "MATCHES"
	OpIncludes     Operator = "INCLUDES"
)

// operatorSuffixes is ordered most-specific-first so that, say,
// "NOT_IN" is matched before the bare "IN" or "NOT" suffixes, and
// "GTE"/"LTE" before "GT"/"LT".
var operatorSuffixes = []struct {
	suffix string
	op     Operator
}{
	{"NOT_IN", OpNotIn},
	{"NOT_CONTAINS", OpNotContains},
	{"NOT_ENDS_WITH", OpNotEndsWith},
	{"ENDS_WITH", OpEndsWith},
	{"CONTAINS", OpContains},
	{"MATCHES", OpMatches},
	{"INCLUDES", OpIncludes},
	{"GTE", OpGTE},
	{"LTE", OpLTE},
	{"GT", OpGT},
	{"LT", OpLT},
	{"IN", OpIn},
	{"NOT", OpNot},
}

// splitFieldKey implements the "<field>[_<OPERATOR>]" recognition
// rule: split on the operator suffix if the key ends with one of the
// known suffixes (tried longest/most-specific first), else treat the
// whole key as a field name with the default EQUALS operator.
//
// A key that merely contains an underscore ("tenant_id") is not
// itself ambiguous here: it only becomes the "unknown operator" fatal
// of §7 once the caller discovers that "tenant_id" isn't a field on
// the parent type either, at which point it re-splits on the last
// underscore to recover the offending operator text (see
// resolveFieldOperator in condition.go). That two-step resolution is
// this module's answer to the open question of telling an
// underscored field name apart from a bad operator suffix.
func splitFieldKey(key string) (field string, op Operator) {
	for _, s := range operatorSuffixes {
		suffix := "_" + s.suffix
		if strings.HasSuffix(key, suffix) {
			candidate := strings.TrimSuffix(key, suffix)
			if candidate != "" {
				return candidate, s.op
			}
		}
	}
	return key, OpEquals
}

// quoteCypherString single-quotes a Cypher string literal, escaping
// embedded single quotes and backslashes.
func quoteCypherString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return "'" + s + "'"
}

// serializeASTLiteral turns a query-document value node into its
// pre-serialized Cypher literal text, per the value serialization
// rules in §4.2. vars is passed down to nested list elements but is
// not otherwise consulted: $name references in the query are
// preserved as Cypher parameters, not inlined.
func serializeASTLiteral(v *ast.Value, vars map[string]interface{}) (string, error) {
	if v == nil {
		return "null", nil
	}
	switch v.Kind {
	case ast.Variable:
		return "$" + v.Raw, nil
	case ast.IntValue, ast.FloatValue, ast.BooleanValue:
		return v.Raw, nil
	case ast.NullValue:
		return "null", nil
	case ast.StringValue, ast.BlockValue, ast.EnumValue:
		return quoteCypherString(v.Raw), nil
	case ast.ListValue:
		parts := make([]string, 0, len(v.Children))
		for _, c := range v.Children {
			part, err := serializeASTLiteral(c.Value, vars)
			if err != nil {
				return "", err
			}
			parts = append(parts, part)
		}
		return "[" + strings.Join(parts, ",") + "]", nil
	case ast.ObjectValue:
		if lit, ok := dateShapedAST(v); ok {
			return quoteCypherString(lit), nil
		}
		return "null", nil
	default:
		return "null", nil
	}
}

// dateShapedAST recognizes the {year, month, day} object-literal
// heuristic from an AST object value and, if it matches, returns the
// normalized yyyy-MM-dd text (unquoted).
func dateShapedAST(v *ast.Value) (string, bool) {
	year := v.Children.ForName("year")
	month := v.Children.ForName("month")
	day := v.Children.ForName("day")
	if year == nil || month == nil || day == nil {
		return "", false
	}
	if month.Kind != ast.IntValue {
		return "", false
	}
	y, err1 := strconv.Atoi(year.Raw)
	m, err2 := strconv.Atoi(month.Raw)
	d, err3 := strconv.Atoi(day.Raw)
	if err1 != nil || err2 != nil || err3 != nil {
		return "", false
	}
	return fmt.Sprintf("%04d-%02d-%02d", y, m, d), true
}

// serializeRuntimeLiteral serializes a deserialized variable value
// (a query variable's runtime value) the same way serializeASTLiteral serializes
// a query-document literal.
func serializeRuntimeLiteral(v interface{}) (string, error) {
	switch val := v.(type) {
	case nil:
		return "null", nil
	case bool:
		return strconv.FormatBool(val), nil
	case int:
		return strconv.Itoa(val), nil
	case int32:
		return strconv.FormatInt(int64(val), 10), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case float32:
		return strconv.FormatFloat(float64(val), 'g', -1, 32), nil
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64), nil
	case string:
		return quoteCypherString(val), nil
	case []interface{}:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			part, err := serializeRuntimeLiteral(item)
			if err != nil {
				return "", err
			}
			parts = append(parts, part)
		}
		return "[" + strings.Join(parts, ",") + "]", nil
	case map[string]interface{}:
		if lit, ok := dateShapedRuntime(val); ok {
			return quoteCypherString(lit), nil
		}
		return "null", nil
	default:
		return "", errors.New("unsupported literal value of type %T", v)
	}
}

// dateShapedRuntime recognizes {year, month int, day} runtime shapes.
func dateShapedRuntime(m map[string]interface{}) (string, bool) {
	yearRaw, ok := m["year"]
	if !ok {
		return "", false
	}
	monthRaw, ok := m["month"]
	if !ok {
		return "", false
	}
	dayRaw, ok := m["day"]
	if !ok {
		return "", false
	}
	month, ok := toInt(monthRaw)
	if !ok {
		return "", false
	}
	year, ok := toInt(yearRaw)
	if !ok {
		return "", false
	}
	day, ok := toInt(dayRaw)
	if !ok {
		return "", false
	}
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day), true
}

func toInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
