package cyphercompiler

import (
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/shyptr/cyphercompiler/errors"
)

var compilerLog = logrus.WithField("component", "cyphercompiler")

// listFlag is the per-frame list-comprehension flag (§3): whether the
// directive-driven object field currently being emitted projects a
// single value or a list. It is decided once in VisitField, where it
// selects the comprehension's opener (head(...) or not) and closing
// suffix; the frame is simply popped when the field closes.
type listFlag int

const (
	flagNone listFlag = iota
	flagSingle
	flagList
)

// fieldKind records which field shape a pushed frame represents.
// emitScalarLeaf reads it to tell directive-less object frames and
// connection "node" frames apart from frames that bind a pattern
// variable of their own.
type fieldKind int

const (
	kindCypherRoot fieldKind = iota
	kindCypherNested
	kindRelationship
	kindPlainObject
	kindPlainRoot
	kindConnectionNode
)

// Compiler holds the state of one query compilation. Its per-field
// state (§3: fieldPath/fieldNodePath/listComprehensionFlagPath) is
// kept in lockstep as parallel slices rather than a single slice-of-structs so
// each component of the state can be read or mutated independently,
// matching how §3 documents them as independent stacks.
type Compiler struct {
	schema     *ast.Schema
	directives *DirectiveIndex
	conditions ConditionBuilder
	variables  map[string]interface{}

	typePath      []*ast.Definition
	fieldPath     []*ast.FieldDefinition
	fieldNodePath []*ast.Field
	flagPath      []listFlag
	kindPath      []fieldKind

	level  int
	buffer []string
	tokens tokenBuffer

	// headTokens/suffixes track, per currently-open non-leaf field, the
	// token that opened its expression and the literal text that
	// closes it once its selection set's projection is known
	// (VisitEndSelectionSet, §4.4.6).
	headTokens []*Token
	suffixes   []string

	rootVar     string
	existential int // counter feeding the "_<index>" existential-chain suffix (§9)
}

// NewCompiler constructs a compiler for one query compilation (§6.1).
// A compiler instance is single-use: it becomes invalid once Compile
// returns.
func NewCompiler(schema *ast.Schema, directives *DirectiveIndex, variables map[string]interface{}) *Compiler {
	if variables == nil {
		variables = map[string]interface{}{}
	}
	return &Compiler{
		schema:     schema,
		directives: directives,
		conditions: DefaultConditionBuilder,
		variables:  variables,
		typePath:   []*ast.Definition{schema.Query},
		level:      -1,
	}
}

// NewTenantCompiler constructs a compiler that injects a tenant
// predicate into eligible fields' where arguments (§4.2 tenant
// extension). cypherParams (the $cypherParams runtime parameter) must
// carry a tenantId for the generated Cypher to resolve.
func NewTenantCompiler(schema *ast.Schema, directives *DirectiveIndex, variables map[string]interface{}) *Compiler {
	c := NewCompiler(schema, directives, variables)
	c.conditions = NewTenantConditionBuilder(DefaultConditionBuilder)
	return c
}

// Compile walks operationName's rootFieldName selection and returns
// the single Cypher string it compiles to (§6.1, §4.4.10).
func (c *Compiler) Compile(doc *ast.QueryDocument, operationName, rootFieldName string) (string, error) {
	log := compilerLog.WithField("root_field", rootFieldName)
	log.Debug("compiling query")
	if err := Walk(doc, operationName, rootFieldName, c); err != nil {
		log.WithError(err).Error("compilation failed")
		return "", err
	}
	cypher := c.finish()
	log.WithField("length", len(cypher)).Debug("compiled query")
	return cypher, nil
}

// finish implements §4.4.10: flush remaining tokens into the main
// buffer and join everything with single spaces.
func (c *Compiler) finish() string {
	c.buffer = append(c.buffer, c.tokens.drain()...)
	return strings.Join(c.buffer, " ")
}

func (c *Compiler) currentType() *ast.Definition {
	return c.typePath[len(c.typePath)-1]
}

func (c *Compiler) currentFrame() (*ast.FieldDefinition, *ast.Field, listFlag) {
	n := len(c.fieldPath)
	if n == 0 {
		return nil, nil, flagNone
	}
	return c.fieldPath[n-1], c.fieldNodePath[n-1], c.flagPath[n-1]
}

func (c *Compiler) pushFrame(fd *ast.FieldDefinition, node *ast.Field, target *ast.Definition, flag listFlag, kind fieldKind) {
	c.fieldPath = append(c.fieldPath, fd)
	c.fieldNodePath = append(c.fieldNodePath, node)
	c.flagPath = append(c.flagPath, flag)
	c.kindPath = append(c.kindPath, kind)
	c.typePath = append(c.typePath, target)
}

func (c *Compiler) popFrame() (listFlag, fieldKind) {
	n := len(c.fieldPath)
	flag, kind := c.flagPath[n-1], c.kindPath[n-1]
	c.fieldPath = c.fieldPath[:n-1]
	c.fieldNodePath = c.fieldNodePath[:n-1]
	c.flagPath = c.flagPath[:n-1]
	c.kindPath = c.kindPath[:n-1]
	c.typePath = c.typePath[:len(c.typePath)-1]
	c.level--
	return flag, kind
}

func (c *Compiler) setFlag(flag listFlag) {
	c.flagPath[len(c.flagPath)-1] = flag
}

// nodeVarAtIndex returns the pattern variable of the field pushed at
// fieldPath[idx] ("<camelType><level>"). fieldPath[0] is the root
// field itself, at level 0, so level == idx; idx < 0 (no frame at all,
// i.e. the ambient root context) also resolves to the root variable.
func (c *Compiler) nodeVarAtIndex(idx int) string {
	if idx <= 0 {
		return c.rootVar
	}
	typ := c.typePath[idx+1]
	return camelCase(typ.Name) + strconv.Itoa(idx)
}

// closestEnclosingNodeIndex scans fieldPath backward from fromIdx
// (inclusive) for the most recent frame whose field is neither named
// "node" nor connection-suffixed (§9 design note).
func (c *Compiler) closestEnclosingNodeIndex(fromIdx int) int {
	for i := fromIdx; i >= 0; i-- {
		name := c.fieldNodePath[i].Name
		if name == "node" || isConnectionField(name) {
			continue
		}
		return i
	}
	return -1
}

func (c *Compiler) closestEnclosingNodeVar(fromIdx int) string {
	return c.nodeVarAtIndex(c.closestEnclosingNodeIndex(fromIdx))
}

func (c *Compiler) fieldError(field *ast.Field, format string, args ...interface{}) error {
	err := errors.New(format, args...)
	return err.WithPath(c.pathWith(field))
}

func (c *Compiler) wrapFieldError(field *ast.Field, cause error, format string, args ...interface{}) error {
	err := errors.Wrap(cause, format, args...)
	return err.WithPath(c.pathWith(field))
}

func (c *Compiler) pathWith(field *ast.Field) []string {
	path := make([]string, 0, len(c.fieldNodePath)+1)
	for _, f := range c.fieldNodePath {
		path = append(path, f.Name)
	}
	if field != nil {
		path = append(path, field.Name)
	}
	return path
}

// --- Visitor implementation: inline fragments -------------------------------
//
// Inline fragments open no pattern or projection scope of their own
// (§4.4.6: "a fragment or inline-fragment parent does nothing on
// close"), and both hooks are no-ops: the current type is not narrowed
// to the fragment's type condition, so the fragment's fields are
// looked up on the enclosing field's type and project directly into
// the enclosing field's token.

func (c *Compiler) VisitInlineFragment(frag *ast.InlineFragment) error {
	return nil
}

func (c *Compiler) VisitEndInlineFragment(frag *ast.InlineFragment) error {
	return nil
}
