// Command cyphercompile compiles a single GraphQL query document
// field against a schema into Cypher, printing the result to stdout.
// There's no CLI framework anywhere in the example pack this module
// was grounded on, so this uses the standard library's flag package
// rather than importing one just for this one entry point.
package main

import (
	"encoding/json"
	"flag"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"

	"github.com/shyptr/cyphercompiler"
)

func main() {
	schemaPath := flag.String("schema", "", "path to a GraphQL SDL file")
	queryPath := flag.String("query", "", "path to a GraphQL query document")
	operation := flag.String("operation", "", "operation name (required if the document has more than one)")
	rootField := flag.String("field", "", "top-level field to compile")
	varsPath := flag.String("variables", "", "path to a JSON file of query variables")
	tenant := flag.Bool("tenant", false, "enable tenant scoping")
	tenantID := flag.String("tenant-id", "", "tenantId to bind as $cypherParams.tenantId")
	flag.Parse()

	log := logrus.WithField("component", "cyphercompile")

	if *schemaPath == "" || *queryPath == "" || *rootField == "" {
		log.Error("schema, query, and field are required")
		flag.Usage()
		os.Exit(2)
	}

	schemaSrc, err := os.ReadFile(*schemaPath)
	if err != nil {
		log.WithError(err).Fatal("reading schema file")
	}
	querySrc, err := os.ReadFile(*queryPath)
	if err != nil {
		log.WithError(err).Fatal("reading query file")
	}

	schema, err := gqlparser.LoadSchema(&ast.Source{Name: *schemaPath, Input: string(schemaSrc)})
	if err != nil {
		log.WithError(err).Fatal("parsing schema")
	}
	doc, err := gqlparser.LoadQuery(schema, string(querySrc))
	if err != nil {
		log.WithError(err).Fatal("parsing query")
	}

	directives, err := cyphercompiler.BuildDirectiveIndex(schema)
	if err != nil {
		log.WithError(err).Fatal("building directive index")
	}

	variables := map[string]interface{}{}
	if *varsPath != "" {
		raw, err := os.ReadFile(*varsPath)
		if err != nil {
			log.WithError(err).Fatal("reading variables file")
		}
		if err := json.Unmarshal(raw, &variables); err != nil {
			log.WithError(err).Fatal("parsing variables file")
		}
	}
	if *tenant && *tenantID != "" {
		params, _ := variables["cypherParams"].(map[string]interface{})
		if params == nil {
			params = map[string]interface{}{}
		}
		params["tenantId"] = *tenantID
		variables["cypherParams"] = params
	}

	var opts []cyphercompiler.CompilerOption
	if *tenant {
		opts = append(opts, cyphercompiler.WithTenantScoping())
	}
	compiler := cyphercompiler.New(schema, directives, variables, opts...)

	cypher, err := compiler.Compile(doc, *operation, *rootField)
	if err != nil {
		log.WithError(err).Fatal("compiling query")
	}
	os.Stdout.WriteString(cypher + "\n")
}
