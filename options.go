package cyphercompiler

import "github.com/vektah/gqlparser/v2/ast"

// CompilerOption configures a Compiler at construction time, following
// the functional-options pattern the teacher's schema builder uses for
// field configuration (options.go's Option func(*options)).
type CompilerOption func(*compilerOptions)

type compilerOptions struct {
	tenantScoping bool
	denyList      []string
}

// WithTenantScoping enables the tenant extension (§4.2): every
// eligible field gets an injected tenantId/tenantIds predicate scoped
// to $cypherParams.tenantId.
func WithTenantScoping() CompilerOption {
	return func(o *compilerOptions) {
		o.tenantScoping = true
	}
}

// WithTenantDenyList overrides the default tenant deny-list entirely
// with a non-empty list; with no fields the default list stays in
// place. Has no effect unless WithTenantScoping is also given.
func WithTenantDenyList(fields ...string) CompilerOption {
	return func(o *compilerOptions) {
		o.denyList = fields
	}
}

// New constructs a Compiler from a schema, its directive index, and
// runtime variables, applying opts in order. This is the normal
// construction path; NewCompiler/NewTenantCompiler remain available
// for callers that don't need the options form.
func New(schema *ast.Schema, directives *DirectiveIndex, variables map[string]interface{}, opts ...CompilerOption) *Compiler {
	resolved := &compilerOptions{}
	for _, opt := range opts {
		opt(resolved)
	}
	c := NewCompiler(schema, directives, variables)
	if resolved.tenantScoping {
		base := DefaultConditionBuilder
		tenant := NewTenantConditionBuilder(base)
		if len(resolved.denyList) > 0 {
			deny := make(map[string]bool, len(resolved.denyList))
			for _, f := range resolved.denyList {
				deny[f] = true
			}
			tenant.denyList = deny
		}
		c.conditions = tenant
	}
	return c
}
