package wrapper

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rodigy/internal/history"
	"rodigy/internal/model"
	"rodigy/internal/presets"
	"rodigy/internal/registry"
	"rodigy/internal/storage"
)

var modelParams = []model.Parameter{{Name: "linear.weight", Data: []float64{0.5, -0.5}}}

type fixture struct {
	wrapper *Wrapper
	store   *presets.Store
	history *history.Manager
	logs    *bytes.Buffer
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	backend := storage.NewMemoryStore()
	require.NoError(t, backend.Init(context.Background()))

	logs := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	reg := registry.Builtin()
	store := presets.NewStore(backend, reg, logger)
	hist := history.NewManager(backend,
		history.WithClock(func() time.Time { return time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC) }),
		history.WithLogger(logger),
	)
	return fixture{
		wrapper: New(reg, presets.NewResolver(store), hist, logger),
		store:   store,
		history: hist,
		logs:    logs,
	}
}

func TestConstructOverridesPresetLearningRate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	opt, err := f.wrapper.Construct(ctx, Request{
		Params:     modelParams,
		Optimizer:  "adabelief",
		ConfigName: "low_memory",
		Overrides:  model.Params{"lr": 2e-4},
	})
	require.NoError(t, err)
	require.IsType(t, &registry.AdaBelief{}, opt)

	hyper := opt.Hyperparameters()
	assert.Equal(t, 2e-4, hyper["lr"])
	assert.Equal(t, 0.01, hyper["weight_decay"])
	assert.Equal(t, 1e-8, hyper["eps"])
	assert.Equal(t, false, hyper["rectify"])
	assert.NotContains(t, hyper, ReservedPresetKey)

	entries, err := f.history.Show(ctx, "adabelief", nil)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	entry := entries[0]
	assert.Equal(t, "low_memory", entry.Config())
	assert.Equal(t, 2e-4, entry.Parameters["lr"])
	assert.NotContains(t, entry.Parameters, ReservedPresetKey)
	assert.True(t, strings.HasSuffix(entry.Caller.File, "wrapper_test.go"), entry.Caller.File)

	logs := f.logs.String()
	assert.Contains(t, logs, "optimizer details")
	assert.Contains(t, logs, "learning_rate=0.0002")
	assert.NotContains(t, logs, "level=WARN")
}

func TestConstructWithoutPreset(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	caller := model.CallerInfo{File: "train.go", Line: 42, Function: "main.train"}

	opt, err := f.wrapper.Construct(ctx, Request{Params: modelParams, Optimizer: "a2grad", Caller: &caller})
	require.NoError(t, err)
	assert.Equal(t, "uni", opt.Hyperparameters()["variant"])
	assert.Contains(t, f.logs.String(), "learning_rate=N/A")

	entries, err := f.history.Show(ctx, "a2grad", nil)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Nil(t, entries[0].ConfigName)
	assert.Equal(t, caller, entries[0].Caller)
}

func TestConstructFailureIsWrappedAndRecorded(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.wrapper.Construct(ctx, Request{
		Params:     modelParams,
		Optimizer:  "a2grad",
		ConfigName: "consumer",
		Overrides:  model.Params{"lr": 1e-3},
	})
	require.ErrorIs(t, err, ErrExternalConstruction)
	require.ErrorIs(t, err, registry.ErrInvalidArguments)

	var cerr *ConstructionError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "a2grad", cerr.Optimizer)
	assert.Equal(t, "consumer", cerr.ConfigName)

	entries, err := f.history.Show(ctx, "a2grad", nil)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "attempt must be recorded even when construction fails")
}

func TestConstructEmptyParametersFails(t *testing.T) {
	f := newFixture(t)
	_, err := f.wrapper.Construct(context.Background(), Request{Optimizer: "adam"})
	require.ErrorIs(t, err, ErrExternalConstruction)
	require.ErrorIs(t, err, registry.ErrEmptyParameters)
}

func TestConstructResolutionFailuresSkipHistory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.wrapper.Construct(ctx, Request{Params: modelParams, Optimizer: "nonexistent"})
	require.ErrorIs(t, err, registry.ErrUnknownOptimizer)

	_, err = f.wrapper.Construct(ctx, Request{Params: modelParams, Optimizer: "adam", ConfigName: "missing"})
	require.ErrorIs(t, err, presets.ErrConfigurationNotFound)

	_, err = f.wrapper.Construct(ctx, Request{Params: modelParams, Optimizer: "adam", Overrides: model.Params{"betas": map[string]any{}}})
	require.ErrorIs(t, err, model.ErrMalformedConfiguration)

	entries, err := f.history.Show(ctx, "adam", nil)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestConstructInlinePresetsAndMismatchWarning(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	inline := model.NewConfigurationSet()
	inline.Put("borrowed", model.Params{"optimizer": "adam", "lr": 0.05})

	opt, err := f.wrapper.Construct(ctx, Request{
		Params:     modelParams,
		Optimizer:  "lion",
		ConfigName: "borrowed",
		Presets:    inline,
	})
	require.NoError(t, err)
	assert.Equal(t, 0.05, opt.Hyperparameters()["lr"])
	assert.Contains(t, f.logs.String(), "preset was written for a different optimizer")
}

func TestConstructUsesStoredPreset(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	require.NoError(t, f.store.Add(ctx, "a2grad", "custom", model.Params{"beta": 7, "lips": 2}))
	opt, err := f.wrapper.Construct(ctx, Request{Params: modelParams, Optimizer: "A2Grad", ConfigName: "custom"})
	require.NoError(t, err)

	hyper := opt.Hyperparameters()
	assert.Equal(t, 7.0, hyper["beta"])
	assert.Equal(t, 2.0, hyper["lips"])
	assert.Equal(t, 0.5, hyper["rho"])
}
