package rules

import (
	"slices"
)

// Rule pairs a constraint predicate with a schema mutation. Rules are
// identified by Name; hosts override defaults by supplying a rule with the
// same name.
type Rule struct {
	Name    string
	Matches func(c *Constraint) bool
	Apply   func(ctx *Context) error
}

// Default rule names, usable as override keys.
const (
	RuleNotListed  = "NotListed"
	RuleRequired   = "Required"
	RuleNotEmpty   = "NotEmpty"
	RuleLength     = "Length"
	RulePattern    = "Pattern"
	RuleComparison = "Comparison"
	RuleBetween    = "Between"
)

// Defaults returns the built-in rule table in evaluation order. Predicates
// are not mutually exclusive: every matching rule applies, in table order.
func Defaults() []Rule {
	return []Rule{
		{
			Name: RuleNotListed,
			Matches: func(c *Constraint) bool {
				return c.Kind == KindOther
			},
			Apply: func(ctx *Context) error {
				AddMessage(ctx)
				return nil
			},
		},
		{
			Name: RuleRequired,
			Matches: func(c *Constraint) bool {
				return c.Kind == KindNotNull || c.Kind == KindNotEmpty
			},
			Apply: applyRequired,
		},
		{
			Name: RuleNotEmpty,
			Matches: func(c *Constraint) bool {
				return c.Kind == KindNotEmpty
			},
			Apply: applyNotEmpty,
		},
		{
			Name: RuleLength,
			Matches: func(c *Constraint) bool {
				return c.Kind == KindLength
			},
			Apply: applyLength,
		},
		{
			Name: RulePattern,
			Matches: func(c *Constraint) bool {
				return c.Kind == KindRegex
			},
			Apply: applyPattern,
		},
		{
			Name: RuleComparison,
			Matches: func(c *Constraint) bool {
				return c.Kind == KindComparison
			},
			Apply: applyComparison,
		},
		{
			Name: RuleBetween,
			Matches: func(c *Constraint) bool {
				return c.Kind == KindBetween
			},
			Apply: applyBetween,
		},
	}
}

// Override merges override rules into the default table. An override whose
// name matches an existing rule replaces it in place, preserving evaluation
// order; unknown names are appended at the end.
func Override(defaults, overrides []Rule) []Rule {
	table := slices.Clone(defaults)
	for _, override := range overrides {
		replaced := false
		for i := range table {
			if table[i].Name == override.Name {
				table[i] = override
				replaced = true
				break
			}
		}
		if !replaced {
			table = append(table, override)
		}
	}
	return table
}

// Without returns the table with the named rules removed. Unknown names are
// ignored.
func Without(table []Rule, names ...string) []Rule {
	if len(names) == 0 {
		return slices.Clone(table)
	}
	out := make([]Rule, 0, len(table))
	for _, r := range table {
		if !slices.Contains(names, r.Name) {
			out = append(out, r)
		}
	}
	return out
}

// applyRequired adds the property to the schema's required set. Re-applying
// to an already-required property is a no-op, including its description, so
// repeated passes and inherited presence constraints stay idempotent.
func applyRequired(ctx *Context) error {
	if ctx.PropertySchema() == nil {
		return nil
	}
	if slices.Contains(ctx.Schema.Required, ctx.Property) {
		return nil
	}
	ctx.Schema.Required = append(ctx.Schema.Required, ctx.Property)
	AddMessage(ctx)
	return nil
}

func applyNotEmpty(ctx *Context) error {
	prop := ctx.PropertySchema()
	if prop == nil {
		return nil
	}
	if prop.MinLength < 1 {
		prop.MinLength = 1
	}
	AddMessage(ctx)
	return nil
}

// applyLength sets string length bounds. The minimum is only written for
// exact or minimum-only constraints, or when no minimum has been set yet, so
// a weaker combined bound never overwrites a tighter existing one.
func applyLength(ctx *Context) error {
	prop := ctx.PropertySchema()
	if prop == nil {
		return nil
	}
	c := ctx.Constraint
	if c.Max > 0 {
		maxLen := uint64(c.Max)
		prop.MaxLength = &maxLen
	}
	if c.Min > 0 && (c.Exact || c.Max <= 0 || prop.MinLength == 0) {
		prop.MinLength = uint64(c.Min)
	}
	AddMessage(ctx)
	return nil
}

func applyPattern(ctx *Context) error {
	prop := ctx.PropertySchema()
	if prop == nil {
		return nil
	}
	prop.Pattern = ctx.Constraint.Pattern
	AddMessage(ctx)
	return nil
}

// applyComparison maps ordering comparisons to numeric bounds. Strict
// operators additionally set the exclusive flag. Non-numeric comparison
// values contribute no bounds but still produce a description.
func applyComparison(ctx *Context) error {
	prop := ctx.PropertySchema()
	if prop == nil {
		return nil
	}
	if value, ok := numericValue(ctx.Constraint.Value); ok {
		switch ctx.Constraint.Op {
		case GreaterThan:
			prop.Min = &value
			prop.ExclusiveMin = true
		case GreaterOrEqual:
			prop.Min = &value
		case LessThan:
			prop.Max = &value
			prop.ExclusiveMax = true
		case LessOrEqual:
			prop.Max = &value
		}
	}
	AddMessage(ctx)
	return nil
}

func applyBetween(ctx *Context) error {
	prop := ctx.PropertySchema()
	if prop == nil {
		return nil
	}
	c := ctx.Constraint
	if from, ok := numericValue(c.From); ok {
		prop.Min = &from
	}
	if to, ok := numericValue(c.To); ok {
		prop.Max = &to
	}
	if c.Exclusive {
		prop.ExclusiveMin = true
		prop.ExclusiveMax = true
	}
	AddMessage(ctx)
	return nil
}
