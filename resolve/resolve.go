// Package resolve wraps a compiled Cypher string into a resolver
// callable a GraphQL field resolver can return directly, mirroring the
// teacher's FieldResolve shape (context, source, args -> result, err).
// It imports the root cyphercompiler package, never the other way
// around: the compiler has no notion of how its output gets executed.
package resolve

import (
	"context"

	"github.com/vektah/gqlparser/v2/ast"

	"github.com/shyptr/cyphercompiler"
)

// GraphDriver runs a compiled Cypher statement against a graph
// database and streams back records. Implementations wrap a real
// driver (e.g. neo4j-go-driver); this package defines only the shape
// the compiler's output is executed through.
type GraphDriver interface {
	Run(ctx context.Context, cypher string, params map[string]interface{}) (RecordStream, error)
}

// RecordStream iterates the rows a GraphDriver's query produced.
type RecordStream interface {
	Next(ctx context.Context) (map[string]interface{}, bool, error)
	Close() error
}

// ResultTransformer reshapes a raw record into whatever shape the
// GraphQL layer expects for a given field (e.g. unwrapping a single
// top-level alias column into its value).
type ResultTransformer func(record map[string]interface{}) (interface{}, error)

// FieldResolve matches the teacher's resolver function signature
// (definitions.go's FieldResolve), so a Resolver can be dropped in
// wherever the schema builder expects a field resolve function.
type FieldResolve func(ctx context.Context, source, args interface{}) (interface{}, error)

// Resolver binds a compiler configuration to a driver and produces
// FieldResolve functions for individual root fields.
type Resolver struct {
	Schema     *ast.Schema
	Directives *cyphercompiler.DirectiveIndex
	Driver     GraphDriver
	Options    []cyphercompiler.CompilerOption
}

// For returns a FieldResolve that compiles rootFieldName's selection
// out of doc, using args (when it is a map[string]interface{}) as the
// query variables, runs it through Driver with those same variables
// as parameters, and hands each record to transform.
func (r *Resolver) For(doc *ast.QueryDocument, operationName, rootFieldName string, transform ResultTransformer) FieldResolve {
	return func(ctx context.Context, source, args interface{}) (interface{}, error) {
		variables, _ := args.(map[string]interface{})
		compiler := cyphercompiler.New(r.Schema, r.Directives, variables, r.Options...)
		cypher, err := compiler.Compile(doc, operationName, rootFieldName)
		if err != nil {
			return nil, err
		}
		stream, err := r.Driver.Run(ctx, cypher, variables)
		if err != nil {
			return nil, err
		}
		defer stream.Close()

		var out []interface{}
		for {
			rec, ok, err := stream.Next(ctx)
			if err != nil {
				return nil, err
			}
			if !ok {
				break
			}
			value, err := transform(rec)
			if err != nil {
				return nil, err
			}
			out = append(out, value)
		}
		return out, nil
	}
}
