// Package rules defines the constraint model and the named rule table that
// maps validation constraints to OpenAPI schema mutations. The table is open:
// hosts can replace or extend the default rules by name at construction time.
package rules

import (
	"strconv"

	"github.com/getkin/kin-openapi/openapi3"
)

// Kind classifies a validation constraint. The zero value is KindOther so
// that an unclassified constraint always falls through to the catch-all rule.
type Kind int

const (
	// KindOther marks constraints with no dedicated schema mapping.
	KindOther Kind = iota
	// KindNotNull marks presence constraints (value must be set).
	KindNotNull
	// KindNotEmpty marks presence constraints that also forbid empty values.
	KindNotEmpty
	// KindLength marks string length bounds.
	KindLength
	// KindRegex marks pattern constraints.
	KindRegex
	// KindComparison marks ordering comparisons against a fixed value.
	KindComparison
	// KindBetween marks numeric range constraints.
	KindBetween
)

// CompareOp identifies the operator of a comparison constraint.
type CompareOp int

const (
	GreaterThan CompareOp = iota
	GreaterOrEqual
	LessThan
	LessOrEqual
)

// Constraint is the read-only description of a single validation rule
// attached to a property. Only the fields relevant to its Kind are set.
type Constraint struct {
	Kind Kind

	// Length constraints. Max <= 0 means no upper bound. Exact marks an
	// exact-length constraint (Min == Max).
	Min   int
	Max   int
	Exact bool

	// Regex constraints.
	Pattern string

	// Comparison constraints. Value may be any numeric type or a numeric
	// string; non-numeric values never contribute schema bounds.
	Op    CompareOp
	Value any

	// Between constraints. Exclusive selects the open-interval variant.
	From      any
	To        any
	Exclusive bool

	// Message is the human-readable template appended to the property
	// description. Empty selects the per-kind default template.
	Message string
}

// NotNull describes a presence constraint.
func NotNull() Constraint {
	return Constraint{Kind: KindNotNull}
}

// NotEmpty describes a presence constraint that also forbids empty values.
func NotEmpty() Constraint {
	return Constraint{Kind: KindNotEmpty}
}

// Length describes a string length bound. A non-positive max leaves the
// upper bound open.
func Length(minLen, maxLen int) Constraint {
	return Constraint{Kind: KindLength, Min: minLen, Max: maxLen}
}

// MinLengthOnly describes a lower-bound-only length constraint.
func MinLengthOnly(minLen int) Constraint {
	return Constraint{Kind: KindLength, Min: minLen}
}

// ExactLength describes an exact string length.
func ExactLength(length int) Constraint {
	return Constraint{Kind: KindLength, Min: length, Max: length, Exact: true}
}

// Pattern describes a regular expression constraint. The expression is
// carried into the schema verbatim.
func Pattern(expr string) Constraint {
	return Constraint{Kind: KindRegex, Pattern: expr}
}

// Comparison describes an ordering comparison against a fixed value.
func Comparison(op CompareOp, value any) Constraint {
	return Constraint{Kind: KindComparison, Op: op, Value: value}
}

// Between describes an inclusive numeric range.
func Between(from, to any) Constraint {
	return Constraint{Kind: KindBetween, From: from, To: to}
}

// ExclusiveBetween describes an exclusive numeric range.
func ExclusiveBetween(from, to any) Constraint {
	return Constraint{Kind: KindBetween, From: from, To: to, Exclusive: true}
}

// Note describes an unclassified constraint whose only effect is the given
// description message.
func Note(message string) Constraint {
	return Constraint{Kind: KindOther, Message: message}
}

// WithMessage returns a copy of the constraint with a custom message template.
func (c Constraint) WithMessage(message string) Constraint {
	c.Message = message
	return c
}

// Context carries everything a rule needs to mutate one property of one
// schema. A fresh Context is built per (property, constraint, rule)
// evaluation and never retained.
type Context struct {
	Schema     *openapi3.Schema
	TypeName   string
	Property   string
	Constraint *Constraint
}

// PropertySchema returns the schema fragment for the context's property, or
// nil when the property is not part of the schema. Rules must only mutate
// existing properties and never introduce new keys.
func (c *Context) PropertySchema() *openapi3.Schema {
	if c == nil || c.Schema == nil {
		return nil
	}
	ref, ok := c.Schema.Properties[c.Property]
	if !ok || ref == nil {
		return nil
	}
	return ref.Value
}

// numericValue converts a constraint value to float64. Numeric strings are
// parsed; everything else reports false.
func numericValue(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
