package cyphercompiler

import (
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/shyptr/cyphercompiler/errors"
)

// ParentKind is the kind of node that owns a selection set, passed to
// Visitor.VisitSelectionSet/VisitEndSelectionSet so the emitter can
// tell a real field scope from a fragment fold-through (§4.4.6: a
// fragment or inline-fragment parent does nothing on close; tokens
// fold into the enclosing field instead).
type ParentKind int

const (
	ParentOperation ParentKind = iota
	ParentField
	ParentInlineFragment
	ParentFragmentDefinition
)

// Visitor is implemented by the Cypher Emitter (§4.4) and driven by
// Walk (§4.3). VisitField returning handled=true stops the driver from
// descending into that field's selection set. The Cypher Emitter
// returns it for the __typename system field and for scalar/enum leaf
// fields. An object-typed field with neither a cypher nor a
// relationship directive is not handled this way: the driver descends
// into it and its leaves project as dotted paths off the nearest bound
// node; it is never emitted as null.
type Visitor interface {
	VisitField(field *ast.Field) (handled bool, err error)
	VisitEndField(field *ast.Field) error
	VisitInlineFragment(frag *ast.InlineFragment) error
	VisitEndInlineFragment(frag *ast.InlineFragment) error
	VisitSelectionSet(parent ParentKind) error
	VisitEndSelectionSet(parent ParentKind) error
}

// Walk drives visitor v depth-first over the single root field named
// rootFieldName within the named operation (or the sole operation, if
// the document has just one and operationName is empty) — "only one
// top-level field is compiled per call" (§4.3).
func Walk(doc *ast.QueryDocument, operationName, rootFieldName string, v Visitor) error {
	op, err := findOperation(doc, operationName)
	if err != nil {
		return err
	}
	fragments := indexFragments(doc.Fragments)
	for _, sel := range op.SelectionSet {
		field, ok := sel.(*ast.Field)
		if !ok {
			continue
		}
		name := field.Alias
		if name == "" {
			name = field.Name
		}
		if name != rootFieldName {
			continue
		}
		if err := walkField(field, fragments, v); err != nil {
			return err
		}
	}
	return nil
}

func findOperation(doc *ast.QueryDocument, operationName string) (*ast.OperationDefinition, error) {
	if doc == nil || len(doc.Operations) == 0 {
		return nil, errors.New("no operations in query document")
	}
	if operationName == "" {
		if len(doc.Operations) > 1 {
			return nil, errors.New("more than one operation in query document and no operation name given")
		}
		return doc.Operations[0], nil
	}
	op := doc.Operations.ForName(operationName)
	if op == nil {
		return nil, errors.New("no operation named %q", operationName)
	}
	return op, nil
}

func indexFragments(defs ast.FragmentDefinitionList) map[string]*ast.FragmentDefinition {
	out := make(map[string]*ast.FragmentDefinition, len(defs))
	for _, f := range defs {
		out[f.Name] = f
	}
	return out
}

func walkField(field *ast.Field, fragments map[string]*ast.FragmentDefinition, v Visitor) error {
	handled, err := v.VisitField(field)
	if err != nil {
		return err
	}
	if !handled && len(field.SelectionSet) > 0 {
		if err := walkSelectionSet(field.SelectionSet, fragments, v, ParentField); err != nil {
			return err
		}
	}
	return v.VisitEndField(field)
}

func walkSelectionSet(set ast.SelectionSet, fragments map[string]*ast.FragmentDefinition,
	v Visitor, parent ParentKind) error {
	if err := v.VisitSelectionSet(parent); err != nil {
		return err
	}
	for _, sel := range set {
		switch s := sel.(type) {
		case *ast.Field:
			if err := walkField(s, fragments, v); err != nil {
				return err
			}
		case *ast.InlineFragment:
			if s.TypeCondition == "" {
				return errors.New("inline fragment missing a type condition")
			}
			if err := v.VisitInlineFragment(s); err != nil {
				return err
			}
			if err := walkSelectionSet(s.SelectionSet, fragments, v, ParentInlineFragment); err != nil {
				return err
			}
			if err := v.VisitEndInlineFragment(s); err != nil {
				return err
			}
		case *ast.FragmentSpread:
			frag, ok := fragments[s.Name]
			if !ok {
				return errors.New("unknown fragment %q", s.Name)
			}
			if err := walkSelectionSet(frag.SelectionSet, fragments, v, ParentFragmentDefinition); err != nil {
				return err
			}
		}
	}
	return v.VisitEndSelectionSet(parent)
}
