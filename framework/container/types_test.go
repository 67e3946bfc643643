package container_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-autowire/framework/container"
)

func TestTypes_ProvideRejectsBadShapes(t *testing.T) {
	types := container.NewTypes()
	for name, fn := range map[string]any{
		"not a func":     42,
		"nil":            nil,
		"no result":      func() {},
		"three results":  func() (*Bar, int, error) { return nil, 0, nil },
		"second not err": func() (*Bar, int) { return nil, 0 },
		"unnamed result": func() []string { return nil },
	} {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, types.Provide(fn), container.ErrReflection)
		})
	}
}

func TestTypes_ProvideDuplicate(t *testing.T) {
	types := container.NewTypes()
	require.NoError(t, types.Provide(NewBar))
	assert.ErrorIs(t, types.Provide(func() *Bar { return &Bar{} }), container.ErrDuplicateConstructor)
	assert.ErrorIs(t, types.Declare(Bar{}), container.ErrDuplicateConstructor)
}

func TestTypes_Params(t *testing.T) {
	types := container.NewTypes()
	require.NoError(t, types.Provide(NewReport))
	require.NoError(t, types.Declare((*Clock)(nil)))

	params, err := types.Params(container.NameOf[*Report]())
	require.NoError(t, err)
	assert.Equal(t, []reflect.Type{
		reflect.TypeOf(""),
		reflect.TypeOf(&Bar{}),
		reflect.TypeOf(0),
	}, params)

	params, err = types.Params(container.NameOf[*Clock]())
	require.NoError(t, err)
	assert.Empty(t, params)

	_, err = types.Params("acme.Nope")
	assert.ErrorIs(t, err, container.ErrReflection)
}

func TestTypes_DeclareRejectsInterfacesAndUnnamed(t *testing.T) {
	types := container.NewTypes()
	assert.ErrorIs(t, types.Declare((*ILogger)(nil)), container.ErrReflection)
	assert.ErrorIs(t, types.Declare([]int{}), container.ErrReflection)
	assert.ErrorIs(t, types.Declare(nil), container.ErrReflection)
}

func TestTypes_BuildConvertsArguments(t *testing.T) {
	types := container.NewTypes()
	require.NoError(t, types.Provide(NewReport))

	v, err := types.Build(container.NameOf[*Report](), map[int]any{0: "Title", 2: 4.0, 9: "ignored"})
	require.NoError(t, err)
	assert.Equal(t, &Report{Title: "Title", Pages: 4}, v)

	_, err = types.Build(container.NameOf[*Report](), map[int]any{2: "four"})
	assert.ErrorIs(t, err, container.ErrConstruction)
}

func TestTypes_NamesAndHas(t *testing.T) {
	types := container.NewTypes()
	require.NoError(t, types.Provide(NewFoo))
	require.NoError(t, types.Provide(NewBar))

	assert.True(t, types.Has(container.NameOf[*Foo]()))
	assert.False(t, types.Has("acme.Nope"))
	assert.Equal(t, []string{
		container.Normalize(container.NameOf[*Bar]()),
		container.Normalize(container.NameOf[*Foo]()),
	}, types.Names())
}
