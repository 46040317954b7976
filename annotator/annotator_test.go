package annotator_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/validoc/validoc/annotator"
	"github.com/validoc/validoc/declare"
	"github.com/validoc/validoc/logger"
	"github.com/validoc/validoc/rules"
)

type createUser struct {
	Name  string
	Email string
}

func newSchema(properties ...string) *openapi3.Schema {
	schema := openapi3.NewObjectSchema()
	schema.Properties = openapi3.Schemas{}
	for _, p := range properties {
		schema.Properties[p] = openapi3.NewStringSchema().NewRef()
	}
	return schema
}

func newRegistry(v annotator.Validator) *declare.Registry {
	return declare.NewRegistry().Register(createUser{}, v)
}

func marshalSchema(t *testing.T, schema *openapi3.Schema) string {
	t.Helper()
	out, err := json.Marshal(schema)
	require.NoError(t, err)
	return string(out)
}

func TestApplyEndToEnd(t *testing.T) {
	validator := declare.New().
		Field("name", rules.NotNull(), rules.Length(2, 50))

	a := annotator.New(annotator.Config{Resolver: newRegistry(validator)})

	schema := newSchema("name")
	a.Apply(schema, reflect.TypeOf(createUser{}))

	assert.Equal(t, []string{"name"}, schema.Required)

	prop := schema.Properties["name"].Value
	assert.Equal(t, uint64(2), prop.MinLength)
	require.NotNil(t, prop.MaxLength)
	assert.Equal(t, uint64(50), *prop.MaxLength)
	assert.Contains(t, prop.Description, "'Name' is required.")
	assert.Contains(t, prop.Description, "'Name' must be between 2 and 50 characters.")
	assert.Equal(t, 1, strings.Count(prop.Description, rules.SectionTitle))
}

func TestApplyIsIdempotent(t *testing.T) {
	validator := declare.New().
		Field("name", rules.NotEmpty(), rules.Length(2, 50), rules.Pattern("^[a-z]+$")).
		Field("email", rules.NotNull(), rules.Note("'{PropertyName}' must satisfy rule 'email'."))

	a := annotator.New(annotator.Config{Resolver: newRegistry(validator)})

	schema := newSchema("name", "email")
	a.Apply(schema, reflect.TypeOf(createUser{}))
	once := marshalSchema(t, schema)

	a.Apply(schema, reflect.TypeOf(createUser{}))
	twice := marshalSchema(t, schema)

	assert.JSONEq(t, once, twice)
	assert.Equal(t, []string{"email", "name"}, schema.Required, "properties annotated in sorted order")
}

func TestApplyMatchesPropertiesCaseInsensitively(t *testing.T) {
	validator := declare.New().Field("Email", rules.NotNull())

	a := annotator.New(annotator.Config{Resolver: newRegistry(validator)})

	schema := newSchema("email")
	a.Apply(schema, reflect.TypeOf(createUser{}))

	assert.Equal(t, []string{"email"}, schema.Required)
}

func TestApplyFlattensUnconditionalIncludes(t *testing.T) {
	child := declare.New().Field("name", rules.Length(2, 50))
	guarded := declare.New().Field("name", rules.Pattern("^never$"))
	parent := declare.New().
		Field("name", rules.NotNull()).
		Include(child).
		IncludeWhen(func() bool { return true }, guarded)

	a := annotator.New(annotator.Config{Resolver: newRegistry(parent)})

	schema := newSchema("name")
	a.Apply(schema, reflect.TypeOf(createUser{}))

	prop := schema.Properties["name"].Value
	assert.Equal(t, []string{"name"}, schema.Required, "parent constraint applied")
	require.NotNil(t, prop.MaxLength)
	assert.Equal(t, uint64(50), *prop.MaxLength, "included constraint applied")
	assert.Empty(t, prop.Pattern, "conditionally included constraint skipped")
}

func TestApplyTerminatesOnIncludeCycles(t *testing.T) {
	first := declare.New().Field("name", rules.NotNull())
	second := declare.New().Field("name", rules.Length(2, 50))
	first.Include(second)
	second.Include(first)

	a := annotator.New(annotator.Config{Resolver: newRegistry(first)})

	schema := newSchema("name")
	a.Apply(schema, reflect.TypeOf(createUser{}))

	prop := schema.Properties["name"].Value
	assert.Equal(t, []string{"name"}, schema.Required)
	assert.Equal(t, uint64(2), prop.MinLength)
}

func TestApplyIsolatesRuleFailures(t *testing.T) {
	validator := declare.New().
		Field("email", rules.NotNull()).
		Field("name", rules.NotNull())

	var buf bytes.Buffer
	boom := rules.Rule{
		Name:    "Boom",
		Matches: func(_ *rules.Constraint) bool { return true },
		Apply: func(ctx *rules.Context) error {
			if ctx.Property == "email" {
				panic("bad rule")
			}
			return errors.New("soft failure")
		},
	}

	a := annotator.New(annotator.Config{
		Resolver: newRegistry(validator),
		Logger:   logger.NewWithOutput("warn", false, &buf),
		Rules:    []rules.Rule{boom},
	})

	schema := newSchema("name", "email")
	a.Apply(schema, reflect.TypeOf(createUser{}))

	// Default rules still ran for every property despite the failing rule.
	assert.ElementsMatch(t, []string{"name", "email"}, schema.Required)

	logs := buf.String()
	assert.Contains(t, logs, "Boom")
	assert.Contains(t, logs, "email")
	assert.Contains(t, logs, "name")
	assert.Contains(t, logs, "rule application failed")
}

func TestApplyWithoutResolverWarnsOnce(t *testing.T) {
	var buf bytes.Buffer
	a := annotator.New(annotator.Config{Logger: logger.NewWithOutput("warn", false, &buf)})

	schema := newSchema("name")
	a.Apply(schema, reflect.TypeOf(createUser{}))
	a.Apply(schema, reflect.TypeOf(createUser{}))

	assert.Empty(t, schema.Required)
	assert.Equal(t, 1, strings.Count(buf.String(), "no validator resolver configured"))
}

func TestApplyResolutionFailureLeavesSchemaUntouched(t *testing.T) {
	var buf bytes.Buffer
	a := annotator.New(annotator.Config{
		Resolver: declare.NewRegistry(),
		Logger:   logger.NewWithOutput("warn", false, &buf),
	})

	schema := newSchema("name")
	before := marshalSchema(t, schema)
	a.Apply(schema, reflect.TypeOf(createUser{}))

	assert.JSONEq(t, before, marshalSchema(t, schema))
	assert.Contains(t, buf.String(), "createUser")
}

type nilResolver struct{}

func (nilResolver) Resolve(_ reflect.Type) (annotator.Validator, error) {
	return nil, nil
}

func TestApplyNilValidatorLeavesSchemaUntouched(t *testing.T) {
	var buf bytes.Buffer
	a := annotator.New(annotator.Config{
		Resolver: nilResolver{},
		Logger:   logger.NewWithOutput("warn", false, &buf),
	})

	schema := newSchema("name")
	a.Apply(schema, reflect.TypeOf(createUser{}))

	assert.Empty(t, schema.Required)
	assert.Contains(t, buf.String(), "no validator found for type")
}

func TestApplyDisabledRules(t *testing.T) {
	validator := declare.New().Field("name", rules.NotEmpty())

	a := annotator.New(annotator.Config{
		Resolver:      newRegistry(validator),
		DisabledRules: []string{rules.RuleNotEmpty},
	})

	schema := newSchema("name")
	a.Apply(schema, reflect.TypeOf(createUser{}))

	assert.Equal(t, []string{"name"}, schema.Required, "required rule still applies")
	assert.Zero(t, schema.Properties["name"].Value.MinLength, "disabled rule does not")
}

func TestApplyNilInputs(t *testing.T) {
	a := annotator.New(annotator.Config{})
	assert.NotPanics(t, func() {
		a.Apply(nil, reflect.TypeOf(createUser{}))
		a.Apply(newSchema("name"), nil)
	})
}
