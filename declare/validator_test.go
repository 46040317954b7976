package declare

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/validoc/validoc/rules"
)

type order struct{}

type invoice struct{}

func TestFieldAccumulatesConstraints(t *testing.T) {
	v := New().
		Field("name", rules.NotNull()).
		Field("name", rules.Length(2, 50))

	assert.Equal(t,
		[]rules.Constraint{rules.NotNull(), rules.Length(2, 50)},
		v.ConstraintsFor("name"))
}

func TestConstraintsForIsCaseInsensitive(t *testing.T) {
	v := New().Field("Email", rules.NotEmpty())

	assert.Equal(t, v.ConstraintsFor("email"), v.ConstraintsFor("EMAIL"))
	assert.NotEmpty(t, v.ConstraintsFor("eMail"))
	assert.Empty(t, v.ConstraintsFor("phone"))
}

func TestUnconditionalIncludesSkipGuardedChildren(t *testing.T) {
	always := New().Field("a", rules.NotNull())
	guarded := New().Field("b", rules.NotNull())

	v := New().
		Include(always).
		IncludeWhen(func() bool { return true }, guarded)

	includes := v.UnconditionalIncludes()
	require.Len(t, includes, 1)
	assert.Same(t, always, includes[0])
}

func TestRegistryResolve(t *testing.T) {
	v := New().Field("total", rules.Comparison(rules.GreaterThan, 0))
	registry := NewRegistry().Register(order{}, v)

	resolved, err := registry.Resolve(reflect.TypeOf(order{}))
	require.NoError(t, err)
	assert.Same(t, v, resolved)

	// Pointer registration and lookup hit the same entry.
	resolved, err = registry.Resolve(reflect.TypeOf(&order{}))
	require.NoError(t, err)
	assert.Same(t, v, resolved)
}

func TestRegistryResolveUnknownType(t *testing.T) {
	registry := NewRegistry().Register(order{}, New())

	_, err := registry.Resolve(reflect.TypeOf(invoice{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invoice")
}

func TestRegisterPointerSample(t *testing.T) {
	v := New()
	registry := NewRegistry().Register(&invoice{}, v)

	resolved, err := registry.Resolve(reflect.TypeOf(invoice{}))
	require.NoError(t, err)
	assert.Same(t, v, resolved)
}
