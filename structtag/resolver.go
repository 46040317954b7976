// Package structtag derives validators from `validate` struct tags. It is a
// concrete resolver for the annotator: given a request or response struct
// type, it parses the validation tags of its exported fields into the
// constraint model so the rule table can mirror them onto the generated
// schema. Tag validation itself stays with the runtime validator; this
// package only reads metadata.
package structtag

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/validoc/validoc/annotator"
	"github.com/validoc/validoc/rules"
)

const trueValue = "true"

// Resolver implements annotator.Resolver over struct tags.
type Resolver struct{}

// NewResolver creates a struct-tag resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// Resolve builds a validator for the given struct type. Pointer types are
// dereferenced; non-struct types have no tag metadata and fail resolution.
func (r *Resolver) Resolve(t reflect.Type) (annotator.Validator, error) {
	if t == nil {
		return nil, fmt.Errorf("structtag: nil type")
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("structtag: %s is not a struct type", t)
	}
	visited := make(map[reflect.Type]bool)
	return build(t, visited), nil
}

// Validator holds the constraints parsed from one struct type. Property
// lookup is case-insensitive; embedded structs surface as unconditional
// includes so their constraints land on the same flat property set.
type Validator struct {
	constraints map[string][]rules.Constraint
	includes    []annotator.Validator
}

// ConstraintsFor returns the constraints attached to the property,
// matching its name case-insensitively.
func (v *Validator) ConstraintsFor(property string) []rules.Constraint {
	return v.constraints[strings.ToLower(property)]
}

// UnconditionalIncludes returns validators of embedded structs that are not
// guarded by omitempty.
func (v *Validator) UnconditionalIncludes() []annotator.Validator {
	return v.includes
}

func build(t reflect.Type, visited map[reflect.Type]bool) *Validator {
	visited[t] = true
	v := &Validator{constraints: make(map[string][]rules.Constraint)}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		tags := parseValidateTag(field.Tag.Get("validate"))

		if child, ok := embeddedStruct(field); ok {
			// An omitempty guard makes the include conditional; its
			// applicability is unknowable at generation time, so it
			// contributes nothing. Already-visited types would recurse
			// forever and are skipped as well.
			if _, conditional := tags["omitempty"]; !conditional && !visited[child] {
				v.includes = append(v.includes, build(child, visited))
			}
			continue
		}

		name := propertyName(field)
		if name == "" {
			continue
		}
		if cs := fieldConstraints(field.Type, tags); len(cs) > 0 {
			key := strings.ToLower(name)
			v.constraints[key] = append(v.constraints[key], cs...)
		}
	}
	return v
}

// embeddedStruct reports the struct type of an anonymous field. time.Time is
// a leaf value, not a validator source.
func embeddedStruct(field reflect.StructField) (reflect.Type, bool) {
	if !field.Anonymous {
		return nil, false
	}
	ft := field.Type
	if ft.Kind() == reflect.Pointer {
		ft = ft.Elem()
	}
	if ft.Kind() != reflect.Struct || ft == reflect.TypeOf(time.Time{}) {
		return nil, false
	}
	return ft, true
}

// propertyName picks the schema property name: the json tag when present,
// the Go field name otherwise. Fields excluded from JSON have no schema
// property and are skipped.
func propertyName(field reflect.StructField) string {
	jsonTag := field.Tag.Get("json")
	if jsonTag == "" {
		return field.Name
	}
	name := strings.Split(jsonTag, ",")[0]
	switch name {
	case "-":
		return ""
	case "":
		return field.Name
	}
	return name
}

// parseValidateTag splits a validate tag into its constraint map. Flags like
// "required" map to "true"; key=value pairs keep their value.
func parseValidateTag(tag string) map[string]string {
	constraints := make(map[string]string)
	for _, part := range strings.Split(tag, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if !strings.Contains(part, "=") {
			constraints[part] = trueValue
			continue
		}
		kv := strings.SplitN(part, "=", 2)
		key := strings.TrimSpace(kv[0])
		value := strings.Trim(strings.TrimSpace(kv[1]), `"`)
		constraints[key] = value
	}
	return constraints
}

// fieldConstraints classifies the parsed tag entries against the field's
// base type. String bounds become length constraints, numeric bounds become
// comparisons or ranges, and anything unclassified is kept as a described
// note so the catch-all rule can still document it.
func fieldConstraints(ft reflect.Type, tags map[string]string) []rules.Constraint {
	if ft.Kind() == reflect.Pointer {
		ft = ft.Elem()
	}
	isString := ft.Kind() == reflect.String
	isNumeric := isNumericKind(ft.Kind())

	var out []rules.Constraint
	handled := map[string]bool{"omitempty": true}

	if _, ok := tags["required"]; ok {
		out = append(out, rules.NotNull())
		handled["required"] = true
	}

	minVal, hasMin := tags["min"]
	maxVal, hasMax := tags["max"]
	switch {
	case isString:
		if exact, ok := tags["len"]; ok {
			if n, err := strconv.Atoi(exact); err == nil {
				out = append(out, rules.ExactLength(n))
			}
			handled["len"] = true
		}
		minLen, minErr := strconv.Atoi(minVal)
		maxLen, maxErr := strconv.Atoi(maxVal)
		switch {
		case hasMin && hasMax && minErr == nil && maxErr == nil:
			out = append(out, rules.Length(minLen, maxLen))
		case hasMin && minErr == nil:
			out = append(out, rules.MinLengthOnly(minLen))
		case hasMax && maxErr == nil:
			out = append(out, rules.Length(0, maxLen))
		}
		handled["min"], handled["max"] = true, true
	case isNumeric:
		minNum, minErr := strconv.ParseFloat(minVal, 64)
		maxNum, maxErr := strconv.ParseFloat(maxVal, 64)
		switch {
		case hasMin && hasMax && minErr == nil && maxErr == nil:
			out = append(out, rules.Between(minNum, maxNum))
		case hasMin && minErr == nil:
			out = append(out, rules.Comparison(rules.GreaterOrEqual, minNum))
		case hasMax && maxErr == nil:
			out = append(out, rules.Comparison(rules.LessOrEqual, maxNum))
		}
		handled["min"], handled["max"] = true, true
	}

	if isNumeric {
		comparisons := []struct {
			key string
			op  rules.CompareOp
		}{
			{"gt", rules.GreaterThan},
			{"gte", rules.GreaterOrEqual},
			{"lt", rules.LessThan},
			{"lte", rules.LessOrEqual},
		}
		for _, cmp := range comparisons {
			value, ok := tags[cmp.key]
			if !ok {
				continue
			}
			handled[cmp.key] = true
			if num, err := strconv.ParseFloat(value, 64); err == nil {
				out = append(out, rules.Comparison(cmp.op, num))
			}
		}
	}

	if pattern, ok := tags["regexp"]; ok && pattern != "" {
		out = append(out, rules.Pattern(pattern))
		handled["regexp"] = true
	}

	// Remaining tags (email, uuid, oneof, ...) have no schema mapping but
	// still deserve a line in the description.
	var rest []string
	for key := range tags {
		if !handled[key] {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)
	for _, key := range rest {
		out = append(out, rules.Note(noteMessage(key, tags[key])))
	}

	return out
}

func noteMessage(key, value string) string {
	if value == trueValue {
		return fmt.Sprintf("'{PropertyName}' must satisfy rule '%s'.", key)
	}
	return fmt.Sprintf("'{PropertyName}' must satisfy rule '%s=%s'.", key, value)
}

func isNumericKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}
