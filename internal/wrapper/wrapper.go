package wrapper

import (
	"context"
	"fmt"
	"log/slog"

	"rodigy/internal/history"
	"rodigy/internal/model"
	"rodigy/internal/optimid"
	"rodigy/internal/presets"
	"rodigy/internal/registry"
)

// ReservedPresetKey names the optimizer a preset was written for. It is
// metadata and never passed to a constructor.
const ReservedPresetKey = "optimizer"

type Request struct {
	// Params is the model parameter collection handed to the constructor.
	Params    []model.Parameter
	Optimizer string
	// ConfigName selects a preset; empty means no preset.
	ConfigName string
	// Presets, when set, is searched for ConfigName instead of the store.
	Presets   *model.ConfigurationSet
	Overrides model.Params
	// Caller is recorded in history. When nil the caller of Construct is used.
	Caller *model.CallerInfo
}

// Wrapper resolves presets, records the attempt and builds the optimizer.
// It keeps no state between calls.
type Wrapper struct {
	registry *registry.Registry
	resolver *presets.Resolver
	history  *history.Manager
	logger   *slog.Logger
}

func New(reg *registry.Registry, resolver *presets.Resolver, hist *history.Manager, logger *slog.Logger) *Wrapper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Wrapper{registry: reg, resolver: resolver, history: hist, logger: logger}
}

func (w *Wrapper) Construct(ctx context.Context, req Request) (registry.Optimizer, error) {
	caller := history.CallerAt(1)
	if req.Caller != nil {
		caller = *req.Caller
	}

	spec, err := w.registry.Resolve(req.Optimizer)
	if err != nil {
		return nil, err
	}

	w.logger.Debug("loading configuration", "optimizer", spec.Name, "config", req.ConfigName)
	final, err := w.finalParams(ctx, spec, req)
	if err != nil {
		return nil, err
	}

	var configName *string
	if req.ConfigName != "" {
		configName = model.StringPtr(req.ConfigName)
	}
	if _, err := w.history.Record(ctx, spec.Name, configName, final, caller); err != nil {
		return nil, err
	}

	opt, err := spec.Constructor(req.Params, final)
	if err != nil {
		w.logger.Error("optimizer construction failed", "optimizer", spec.Name, "config", req.ConfigName, "error", err)
		return nil, &ConstructionError{Optimizer: spec.Name, ConfigName: req.ConfigName, Err: err}
	}

	w.logDetails(spec, req.ConfigName, opt.Hyperparameters())
	w.logger.Info("optimizer initialized", "optimizer", spec.Name, "config", req.ConfigName)
	return opt, nil
}

func (w *Wrapper) finalParams(ctx context.Context, spec registry.Spec, req Request) (model.Params, error) {
	base := model.Params{}
	if req.ConfigName != "" {
		ref := presets.ByName(spec.Name)
		if req.Presets != nil {
			ref = presets.Inline(req.Presets)
		}
		resolved, err := w.resolver.Resolve(ctx, ref, req.ConfigName)
		if err != nil {
			return nil, err
		}
		base = resolved
	}

	overrides, err := model.NormalizeParams(req.Overrides)
	if err != nil {
		return nil, fmt.Errorf("overrides: %w", err)
	}
	final := base.Merge(overrides)

	if declared, ok := final[ReservedPresetKey]; ok {
		delete(final, ReservedPresetKey)
		if name, isString := declared.(string); !isString || optimid.Normalize(name) != spec.Name {
			w.logger.Warn("preset was written for a different optimizer",
				"optimizer", spec.Name, "config", req.ConfigName, "declared", declared)
		}
	}
	return final, nil
}

func (w *Wrapper) logDetails(spec registry.Spec, configName string, hyper model.Params) {
	if configName == "" {
		configName = "none"
	}
	var lr any = "N/A"
	if spec.AcceptsLR() {
		lr = hyper["lr"]
	}
	rest := hyper.Clone()
	delete(rest, "lr")

	w.logger.Info("optimizer details",
		slog.String("optimizer", spec.Name),
		slog.String("config", configName),
		slog.Any("learning_rate", lr),
		slog.Any("params", rest),
	)
}
