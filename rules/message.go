package rules

import (
	"strconv"
	"strings"
	"unicode"
)

// SectionTitle is written once per property, before the first appended rule
// message.
const SectionTitle = "Validation rules:"

// totalLengthMarker replaces the {TotalLength} placeholder; the concrete
// value only exists at validation time, never during schema generation.
const totalLengthMarker = "total length"

// AddMessage appends the constraint's human-readable message to the property
// description. It must run after the calling rule's mutation: bound
// placeholders are substituted from the current state of the property schema.
// The fully substituted message is skipped when already present, so repeated
// passes never duplicate text.
func AddMessage(ctx *Context) {
	prop := ctx.PropertySchema()
	if prop == nil || ctx.Constraint == nil {
		return
	}

	template := ctx.Constraint.Message
	if template == "" {
		template = defaultTemplate(ctx.Constraint)
	}
	if template == "" {
		return
	}

	message := substitute(template, ctx)
	if message == "" || strings.Contains(prop.Description, message) {
		return
	}

	if !strings.Contains(prop.Description, SectionTitle) {
		if prop.Description != "" {
			prop.Description += "\n\n"
		}
		prop.Description += SectionTitle
	}
	prop.Description += "\n* " + message
}

// defaultTemplate picks a message template for constraints that carry none.
// Unclassified constraints have no default: without a message they stay
// silent.
func defaultTemplate(c *Constraint) string {
	switch c.Kind {
	case KindNotNull:
		return "'{PropertyName}' is required."
	case KindNotEmpty:
		return "'{PropertyName}' must not be empty."
	case KindLength:
		switch {
		case c.Exact:
			return "'{PropertyName}' must be exactly {MinLength} characters long."
		case c.Min > 0 && c.Max > 0:
			return "'{PropertyName}' must be between {MinLength} and {MaxLength} characters."
		case c.Min > 0:
			return "'{PropertyName}' must be at least {MinLength} characters."
		case c.Max > 0:
			return "'{PropertyName}' must be at most {MaxLength} characters."
		default:
			return ""
		}
	case KindRegex:
		return "'{PropertyName}' is not in the correct format."
	case KindComparison:
		switch c.Op {
		case GreaterThan:
			return "'{PropertyName}' must be greater than {Minimum}."
		case GreaterOrEqual:
			return "'{PropertyName}' must be greater than or equal to {Minimum}."
		case LessThan:
			return "'{PropertyName}' must be less than {Maximum}."
		case LessOrEqual:
			return "'{PropertyName}' must be less than or equal to {Maximum}."
		default:
			return ""
		}
	case KindBetween:
		if c.Exclusive {
			return "'{PropertyName}' must be between {Minimum} and {Maximum} (exclusive)."
		}
		return "'{PropertyName}' must be between {Minimum} and {Maximum}."
	default:
		return ""
	}
}

// substitute replaces the well-known placeholders. Bounds are read from the
// property schema, not the constraint, so they reflect the mutation that was
// just applied.
func substitute(template string, ctx *Context) string {
	prop := ctx.PropertySchema()
	if prop == nil {
		return ""
	}

	replacements := []string{
		"{PropertyName}", DisplayName(ctx.Property),
		"{MinLength}", strconv.FormatUint(prop.MinLength, 10),
		"{MaxLength}", formatUintPtr(prop.MaxLength),
		"{Minimum}", formatFloatPtr(prop.Min),
		"{Maximum}", formatFloatPtr(prop.Max),
		"{TotalLength}", totalLengthMarker,
	}
	return strings.NewReplacer(replacements...).Replace(template)
}

// DisplayName derives a readable property name: the key is split on
// capitalization boundaries and the first word is capitalized, so
// "firstName" becomes "First Name" and "email" becomes "Email".
func DisplayName(property string) string {
	words := splitCamel(property)
	if len(words) == 0 {
		return property
	}
	first := []rune(words[0])
	first[0] = unicode.ToUpper(first[0])
	words[0] = string(first)
	return strings.Join(words, " ")
}

func splitCamel(s string) []string {
	var words []string
	runes := []rune(s)
	start := 0
	for i := 1; i < len(runes); i++ {
		prev, cur := runes[i-1], runes[i]
		boundary := unicode.IsUpper(cur) &&
			(!unicode.IsUpper(prev) ||
				(i+1 < len(runes) && unicode.IsLower(runes[i+1])))
		if boundary {
			words = append(words, string(runes[start:i]))
			start = i
		}
	}
	if start < len(runes) {
		words = append(words, string(runes[start:]))
	}
	return words
}

func formatUintPtr(v *uint64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatUint(*v, 10)
}

func formatFloatPtr(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
