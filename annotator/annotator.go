// Package annotator walks a generated OpenAPI schema and applies the rule
// table to the validation constraints resolved for the schema's type. The
// pass is best-effort: every failure is logged and swallowed so that one
// misconfigured type or rule never blocks schema generation for the rest.
package annotator

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/validoc/validoc/logger"
	"github.com/validoc/validoc/rules"
)

// Validator exposes the constraint metadata of one type's validation rule
// set. ConstraintsFor must match property names case-insensitively.
// UnconditionalIncludes returns nested validators attached without a runtime
// guard; conditionally included validators are never surfaced since their
// applicability cannot be decided at generation time.
type Validator interface {
	ConstraintsFor(property string) []rules.Constraint
	UnconditionalIncludes() []Validator
}

// Resolver locates the validator for a type. Returning a nil Validator
// means the type has none; both nil and an error are non-fatal for the
// annotation pass.
type Resolver interface {
	Resolve(t reflect.Type) (Validator, error)
}

// Config carries the construction-time options of an Annotator.
type Config struct {
	// Resolver locates validators per type. Optional: without one the
	// annotator warns once and leaves schemas untouched.
	Resolver Resolver
	// Logger receives warnings. Defaults to a no-op sink.
	Logger logger.Logger
	// Rules are merged over the default table by name: same-name rules
	// replace defaults in place, new names are appended.
	Rules []rules.Rule
	// DisabledRules removes rules by name after the override step.
	DisabledRules []string
}

// Annotator applies validation constraints to generated schemas. The rule
// table is fixed at construction; Apply holds no state between invocations
// and is safe for concurrent use across distinct schemas.
type Annotator struct {
	table    []rules.Rule
	resolver Resolver
	log      logger.Logger

	noResolverOnce sync.Once
}

// New builds an Annotator from the given configuration.
func New(cfg Config) *Annotator {
	log := cfg.Logger
	if log == nil {
		log = logger.Noop()
	}
	table := rules.Override(rules.Defaults(), cfg.Rules)
	table = rules.Without(table, cfg.DisabledRules...)
	return &Annotator{table: table, resolver: cfg.Resolver, log: log}
}

// Apply resolves the validator for target and mutates schema in place:
// required flags, length and numeric bounds, patterns, and an accumulated
// per-property description. Constraints of unconditionally included child
// validators are flattened onto the same schema. Apply never fails; problems
// are logged as warnings and the schema keeps whatever was applied so far.
func (a *Annotator) Apply(schema *openapi3.Schema, target reflect.Type) {
	if schema == nil || target == nil {
		return
	}
	if a.resolver == nil {
		a.noResolverOnce.Do(func() {
			a.log.Warn().Msg("no validator resolver configured, schemas keep their base types only")
		})
		return
	}

	validator, err := a.resolver.Resolve(target)
	if err != nil {
		a.log.Warn().Err(err).Str("type", target.String()).Msg("validator resolution failed")
		return
	}
	if validator == nil {
		a.log.Warn().Str("type", target.String()).Msg("no validator found for type")
		return
	}

	visited := make(map[uintptr]struct{})
	a.annotate(schema, target.String(), validator, visited)
}

// annotate runs the per-property rule pass and then descends into
// unconditional includes. The visited set breaks cycles in the include
// graph; acyclic graphs never hit it.
func (a *Annotator) annotate(schema *openapi3.Schema, typeName string, v Validator, visited map[uintptr]struct{}) {
	if !markVisited(visited, v) {
		return
	}
	a.applyRules(schema, typeName, v)
	a.applyIncludes(schema, typeName, v, visited)
}

// applyRules evaluates every rule against every constraint of every schema
// property. Rule failures are isolated: a failing application is logged with
// rule and property names and the pass continues.
func (a *Annotator) applyRules(schema *openapi3.Schema, typeName string, v Validator) {
	for _, property := range propertyKeys(schema) {
		for _, constraint := range v.ConstraintsFor(property) {
			for i := range a.table {
				rule := &a.table[i]
				if rule.Matches == nil || !rule.Matches(&constraint) {
					continue
				}
				ctx := &rules.Context{
					Schema:     schema,
					TypeName:   typeName,
					Property:   property,
					Constraint: &constraint,
				}
				if err := applyRule(rule, ctx); err != nil {
					a.log.Warn().Err(err).
						Str("type", typeName).
						Str("rule", rule.Name).
						Str("property", property).
						Msg("rule application failed")
				}
			}
		}
	}
}

// applyRule invokes a single rule, converting a panic into an error so one
// bad rule cannot abort the pass.
func applyRule(rule *rules.Rule, ctx *rules.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("rule panicked: %v", r)
		}
	}()
	if rule.Apply == nil {
		return nil
	}
	return rule.Apply(ctx)
}

// applyIncludes flattens the constraints of unconditionally included child
// validators onto the same schema. A failure while walking a branch is
// logged once and abandons that branch; mutations applied so far remain.
func (a *Annotator) applyIncludes(schema *openapi3.Schema, typeName string, v Validator, visited map[uintptr]struct{}) {
	defer func() {
		if r := recover(); r != nil {
			a.log.Warn().
				Str("type", typeName).
				Interface("cause", r).
				Msg("included validator traversal failed")
		}
	}()

	for _, child := range v.UnconditionalIncludes() {
		if child == nil {
			continue
		}
		a.annotate(schema, typeName, child, visited)
	}
}

// markVisited records the validator in the visited set and reports whether
// it should be processed. Identity is the underlying pointer when the
// dynamic type carries one; value-typed validators are not tracked.
func markVisited(visited map[uintptr]struct{}, v Validator) bool {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		key := rv.Pointer()
		if _, seen := visited[key]; seen {
			return false
		}
		visited[key] = struct{}{}
	}
	return true
}

// propertyKeys returns the schema's property names in a stable order so
// annotation output is deterministic.
func propertyKeys(schema *openapi3.Schema) []string {
	keys := make([]string, 0, len(schema.Properties))
	for key := range schema.Properties {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
