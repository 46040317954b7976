// Package declare offers a programmatic way to compose validators for the
// annotator: per-property constraints, included child validators, and
// conditionally included ones guarded by a predicate. A Registry maps Go
// types to declared validators and acts as the annotator's resolver.
package declare

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/validoc/validoc/annotator"
	"github.com/validoc/validoc/rules"
)

// Validator is a composed set of per-property constraints. Methods return
// the validator itself so declarations chain.
type Validator struct {
	fields   map[string][]rules.Constraint
	includes []include
}

type include struct {
	validator annotator.Validator
	when      func() bool
}

// New creates an empty validator.
func New() *Validator {
	return &Validator{fields: make(map[string][]rules.Constraint)}
}

// Field attaches constraints to a property. Repeated calls for the same
// property accumulate.
func (v *Validator) Field(name string, constraints ...rules.Constraint) *Validator {
	key := strings.ToLower(name)
	v.fields[key] = append(v.fields[key], constraints...)
	return v
}

// Include attaches a child validator unconditionally: its constraints are
// flattened onto the including type's schema.
func (v *Validator) Include(child annotator.Validator) *Validator {
	v.includes = append(v.includes, include{validator: child})
	return v
}

// IncludeWhen attaches a child validator guarded by a runtime predicate.
// Guarded includes never contribute to schema annotation since their
// applicability is unknown at generation time.
func (v *Validator) IncludeWhen(when func() bool, child annotator.Validator) *Validator {
	v.includes = append(v.includes, include{validator: child, when: when})
	return v
}

// ConstraintsFor returns the constraints declared for the property,
// matching case-insensitively.
func (v *Validator) ConstraintsFor(property string) []rules.Constraint {
	return v.fields[strings.ToLower(property)]
}

// UnconditionalIncludes returns the included validators that carry no guard.
func (v *Validator) UnconditionalIncludes() []annotator.Validator {
	var out []annotator.Validator
	for _, inc := range v.includes {
		if inc.when == nil {
			out = append(out, inc.validator)
		}
	}
	return out
}

// Registry maps types to their declared validators and implements
// annotator.Resolver.
type Registry struct {
	validators map[reflect.Type]annotator.Validator
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{validators: make(map[reflect.Type]annotator.Validator)}
}

// Register associates a validator with the type of sample. A pointer sample
// registers its element type, so Register(&User{}, v) and Register(User{}, v)
// are equivalent.
func (r *Registry) Register(sample any, v annotator.Validator) *Registry {
	t := reflect.TypeOf(sample)
	if t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	r.validators[t] = v
	return r
}

// Resolve returns the validator registered for t, dereferencing pointer
// types. Unknown types fail resolution.
func (r *Registry) Resolve(t reflect.Type) (annotator.Validator, error) {
	if t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	v, ok := r.validators[t]
	if !ok {
		return nil, fmt.Errorf("declare: no validator registered for %s", t)
	}
	return v, nil
}
