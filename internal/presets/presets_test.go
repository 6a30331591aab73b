package presets

import (
	"context"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rodigy/internal/model"
	"rodigy/internal/registry"
	"rodigy/internal/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	backend := storage.NewMemoryStore()
	require.NoError(t, backend.Init(context.Background()))
	return NewStore(backend, registry.Builtin(), nil)
}

func TestDefaultsLoadBundledPresets(t *testing.T) {
	assert.Equal(t, []string{"a2grad", "adabelief", "adabound"}, DefaultOptimizers())

	set, ok, err := Defaults("adabelief")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"low_memory", "consumer", "high_memory"}, set.Names())

	low, _ := set.Get("low_memory")
	assert.Equal(t, 1e-4, low["lr"])
	assert.Equal(t, []any{0.9, 0.999}, low["betas"])
	assert.Equal(t, false, low["rectify"])

	_, ok, err = Defaults("lion")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetReturnsDefaultsUntilMutated(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	set, err := store.Get(ctx, "AdaBound")
	require.NoError(t, err)
	assert.Equal(t, 3, set.Len())

	empty, err := store.Get(ctx, "lion")
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Len())

	require.NoError(t, store.Remove(ctx, "adabound", "consumer"))
	set, err = store.Get(ctx, "adabound")
	require.NoError(t, err)
	assert.Equal(t, []string{"low_memory", "high_memory"}, set.Names())
}

func TestUnknownOptimizer(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Get(context.Background(), "nope")
	require.ErrorIs(t, err, ErrUnknownOptimizer)
}

func TestAddThenResolveRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	resolver := NewResolver(store)

	require.NoError(t, store.Add(ctx, "a2grad", "custom", model.Params{"beta": 7, "lips": 2}))

	params, err := resolver.Resolve(ctx, ByName("a2grad"), "custom")
	require.NoError(t, err)
	assert.Equal(t, model.Params{"beta": 7.0, "lips": 2.0}, params)

	err = store.Add(ctx, "a2grad", "custom", model.Params{"beta": 1})
	require.ErrorIs(t, err, ErrConfigurationExists)

	err = store.Add(ctx, "a2grad", "  ", model.Params{"beta": 1})
	require.ErrorIs(t, err, ErrMalformedConfiguration)

	err = store.Add(ctx, "a2grad", "nested", model.Params{"beta": map[string]any{"x": 1}})
	require.ErrorIs(t, err, ErrMalformedConfiguration)
}

func TestSetMergesAndIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	resolver := NewResolver(store)

	updates := model.NewConfigurationSet()
	updates.Put("low_memory", model.Params{"lr": 3e-4})
	require.NoError(t, store.Set(ctx, "adabelief", updates))

	params, err := resolver.Resolve(ctx, ByName("adabelief"), "low_memory")
	require.NoError(t, err)
	assert.Equal(t, 3e-4, params["lr"])
	assert.Equal(t, 0.01, params["weight_decay"])

	partial := model.NewConfigurationSet()
	partial.Put("consumer", model.Params{"lr": 9.0})
	partial.Put("missing", model.Params{"lr": 9.0})
	require.ErrorIs(t, store.Set(ctx, "adabelief", partial), ErrConfigurationNotFound)

	consumer, err := resolver.Resolve(ctx, ByName("adabelief"), "consumer")
	require.NoError(t, err)
	assert.Equal(t, 1e-4, consumer["lr"], "failed Set must not apply earlier updates")
}

func TestConfigNamesAreTrimmedEverywhere(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	resolver := NewResolver(store)

	require.NoError(t, store.Add(ctx, "adam", " spaced ", model.Params{"lr": 1e-3}))

	params, err := resolver.Resolve(ctx, ByName("adam"), "spaced  ")
	require.NoError(t, err)
	assert.Equal(t, 1e-3, params["lr"])

	updates := model.NewConfigurationSet()
	updates.Put("  spaced", model.Params{"lr": 2e-3})
	require.NoError(t, store.Set(ctx, "adam", updates))

	set, err := store.Get(ctx, "adam")
	require.NoError(t, err)
	assert.Equal(t, []string{"spaced"}, set.Names())
	stored, _ := set.Get("spaced")
	assert.Equal(t, 2e-3, stored["lr"])

	require.NoError(t, store.Remove(ctx, "adam", " spaced "))
	_, err = resolver.Resolve(ctx, ByName("adam"), "spaced")
	require.ErrorIs(t, err, ErrConfigurationNotFound)

	require.ErrorIs(t, store.Remove(ctx, "adam", " "), ErrMalformedConfiguration)
	_, err = resolver.Resolve(ctx, ByName("adam"), "")
	require.ErrorIs(t, err, ErrMalformedConfiguration)
}

func TestRemoveMissing(t *testing.T) {
	store := newTestStore(t)
	require.ErrorIs(t, store.Remove(context.Background(), "adam", "ghost"), ErrConfigurationNotFound)
}

func TestResolveReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	resolver := NewResolver(store)

	first, err := resolver.Resolve(ctx, ByName("adabelief"), "high_memory")
	require.NoError(t, err)
	first["lr"] = 123.0
	first["betas"].([]any)[0] = 0.0

	second, err := resolver.Resolve(ctx, ByName("adabelief"), "high_memory")
	require.NoError(t, err)
	assert.Equal(t, 5e-5, second["lr"])
	assert.Equal(t, []any{0.9, 0.999}, second["betas"])
}

func TestResolveReferenceForms(t *testing.T) {
	ctx := context.Background()
	resolver := NewResolver(newTestStore(t))

	byType, err := resolver.Resolve(ctx, ByType(reflect.TypeOf(registry.A2Grad{})), "consumer")
	require.NoError(t, err)
	assert.Equal(t, "inc", byType["variant"])

	byValue, err := resolver.Resolve(ctx, ByValue(&registry.AdaBound{}), "low_memory")
	require.NoError(t, err)
	assert.Equal(t, 0.01, byValue["final_lr"])

	type Mystery struct{}
	_, err = resolver.Resolve(ctx, ByValue(Mystery{}), "low_memory")
	require.ErrorIs(t, err, ErrUnknownOptimizer)

	inline := model.NewConfigurationSet()
	inline.Put("mine", model.Params{"lr": float32(0.5)})
	params, err := resolver.Resolve(ctx, Inline(inline), "mine")
	require.NoError(t, err)
	assert.Equal(t, model.Params{"lr": 0.5}, params)

	_, err = resolver.Resolve(ctx, Inline(inline), "other")
	require.ErrorIs(t, err, ErrConfigurationNotFound)

	_, err = resolver.Resolve(ctx, Ref{}, "mine")
	require.ErrorIs(t, err, ErrUnsupportedReference)
	_, err = resolver.Resolve(ctx, ByValue(nil), "mine")
	require.ErrorIs(t, err, ErrUnsupportedReference)
}

func TestResolveUnknownConfig(t *testing.T) {
	resolver := NewResolver(newTestStore(t))
	_, err := resolver.Resolve(context.Background(), ByName("a2grad"), "turbo")
	require.ErrorIs(t, err, ErrConfigurationNotFound)
}
