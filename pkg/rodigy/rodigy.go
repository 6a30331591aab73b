// Package rodigy builds optimizers from named presets and keeps a usage
// history of every construction.
package rodigy

import (
	"context"
	"log/slog"
	"path/filepath"
	"reflect"
	"time"

	"rodigy/internal/docs"
	"rodigy/internal/history"
	"rodigy/internal/model"
	"rodigy/internal/presets"
	"rodigy/internal/registry"
	"rodigy/internal/storage"
	"rodigy/internal/wrapper"
)

const Version = "0.1.0"

const defaultDataDir = ".rodigy"

type (
	Params            = model.Params
	Parameter         = model.Parameter
	ConfigurationSet  = model.ConfigurationSet
	HistoryEntry      = model.HistoryEntry
	CallerInfo        = model.CallerInfo
	Optimizer         = registry.Optimizer
	Ref               = presets.Ref
	TTL               = history.TTL
	ConstructionError = wrapper.ConstructionError
)

var (
	ErrUnknownOptimizer       = registry.ErrUnknownOptimizer
	ErrConfigurationNotFound  = presets.ErrConfigurationNotFound
	ErrConfigurationExists    = presets.ErrConfigurationExists
	ErrUnsupportedReference   = presets.ErrUnsupportedReference
	ErrMalformedConfiguration = model.ErrMalformedConfiguration
	ErrInvalidTTL             = history.ErrInvalidTTL
	ErrExternalConstruction   = wrapper.ErrExternalConstruction
	ErrVersionMismatch        = storage.ErrVersionMismatch
	ErrDocumentationNotFound  = docs.ErrNotFound
)

func ByName(name string) Ref { return presets.ByName(name) }
func ByType(t reflect.Type) Ref { return presets.ByType(t) }
func ByValue(v any) Ref { return presets.ByValue(v) }
func Inline(set *ConfigurationSet) Ref { return presets.Inline(set) }
func NewConfigurationSet() *ConfigurationSet { return model.NewConfigurationSet() }
func ParseTTL(token string) (TTL, error) { return history.ParseTTL(token) }
func NormalizeParams(raw map[string]any) (Params, error) { return model.NormalizeParams(raw) }

type Options struct {
	// StoreKind is memory, file or sqlite. Defaults to file.
	StoreKind string
	DataDir   string
	DBPath    string
	Logger    *slog.Logger
	// Now overrides the clock used to stamp history entries.
	Now func() time.Time
}

type Client struct {
	store    storage.Store
	registry *registry.Registry
	presets  *presets.Store
	resolver *presets.Resolver
	history  *history.Manager
	wrapper  *wrapper.Wrapper
	logger   *slog.Logger
}

type OptimizerInfo struct {
	Name       string `json:"name"`
	Summary    string `json:"summary"`
	AcceptsLR  bool   `json:"accepts_lr"`
	HasDocs    bool   `json:"has_docs"`
	HasPresets bool   `json:"has_presets"`
}

type ConstructRequest struct {
	Params     []Parameter
	Optimizer  string
	ConfigName string
	Presets    *ConfigurationSet
	Overrides  Params
	// Caller defaults to the function calling Construct.
	Caller *CallerInfo
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dataDir := opts.DataDir
	if dataDir == "" {
		dataDir = defaultDataDir
	}
	dbPath := opts.DBPath
	if dbPath == "" && storeKind == storage.KindSQLite {
		dbPath = filepath.Join(dataDir, "rodigy.db")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	store, err := storage.NewStore(storeKind, dataDir, dbPath)
	if err != nil {
		return nil, err
	}

	histOpts := []history.Option{history.WithLogger(logger)}
	if opts.Now != nil {
		histOpts = append(histOpts, history.WithClock(opts.Now))
	}

	reg := registry.Builtin()
	presetStore := presets.NewStore(store, reg, logger)
	resolver := presets.NewResolver(presetStore)
	hist := history.NewManager(store, histOpts...)
	return &Client{
		store:    store,
		registry: reg,
		presets:  presetStore,
		resolver: resolver,
		history:  hist,
		wrapper:  wrapper.New(reg, resolver, hist, logger),
		logger:   logger,
	}, nil
}

func (c *Client) Init(ctx context.Context) error {
	return c.store.Init(ctx)
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

// Optimizers lists every registered optimizer in name order.
func (c *Client) Optimizers() []OptimizerInfo {
	withPresets := make(map[string]bool)
	for _, name := range presets.DefaultOptimizers() {
		withPresets[name] = true
	}

	names := c.registry.List()
	out := make([]OptimizerInfo, 0, len(names))
	for _, name := range names {
		spec, _ := c.registry.Lookup(name)
		out = append(out, OptimizerInfo{
			Name:       spec.Name,
			Summary:    spec.Summary,
			AcceptsLR:  spec.AcceptsLR(),
			HasDocs:    docs.Has(spec.Name),
			HasPresets: withPresets[spec.Name],
		})
	}
	return out
}

// Doc returns the canonical optimizer name and its markdown page.
func (c *Client) Doc(optimizer string) (string, []byte, error) {
	spec, err := c.registry.Resolve(optimizer)
	if err != nil {
		return "", nil, err
	}
	page, err := docs.Page(spec.Name)
	if err != nil {
		return spec.Name, nil, err
	}
	return spec.Name, page, nil
}

func (c *Client) Configurations(ctx context.Context, optimizer string) (*ConfigurationSet, error) {
	return c.presets.Get(ctx, optimizer)
}

func (c *Client) AddConfiguration(ctx context.Context, optimizer, name string, params Params) error {
	return c.presets.Add(ctx, optimizer, name, params)
}

func (c *Client) SetConfigurations(ctx context.Context, optimizer string, updates *ConfigurationSet) error {
	return c.presets.Set(ctx, optimizer, updates)
}

func (c *Client) RemoveConfiguration(ctx context.Context, optimizer, name string) error {
	return c.presets.Remove(ctx, optimizer, name)
}

// GetConfig resolves a single named configuration from ref.
func (c *Client) GetConfig(ctx context.Context, ref Ref, configName string) (Params, error) {
	return c.resolver.Resolve(ctx, ref, configName)
}

func (c *Client) Construct(ctx context.Context, req ConstructRequest) (Optimizer, error) {
	caller := history.CallerAt(1)
	if req.Caller != nil {
		caller = *req.Caller
	}
	return c.wrapper.Construct(ctx, wrapper.Request{
		Params:     req.Params,
		Optimizer:  req.Optimizer,
		ConfigName: req.ConfigName,
		Presets:    req.Presets,
		Overrides:  req.Overrides,
		Caller:     &caller,
	})
}

func (c *Client) canonical(optimizer string) (string, error) {
	spec, err := c.registry.Resolve(optimizer)
	if err != nil {
		return "", err
	}
	return spec.Name, nil
}

// History returns the optimizer's entries, restricted to ttl when non-nil.
func (c *Client) History(ctx context.Context, optimizer string, ttl *TTL) ([]HistoryEntry, error) {
	name, err := c.canonical(optimizer)
	if err != nil {
		return nil, err
	}
	return c.history.Show(ctx, name, ttl)
}

func (c *Client) PruneHistory(ctx context.Context, optimizer string, ttl TTL) (int, error) {
	name, err := c.canonical(optimizer)
	if err != nil {
		return 0, err
	}
	return c.history.Prune(ctx, name, ttl)
}

// ClearHistory removes the optimizer's log. Names the registry does not know
// are cleared under their normalized form, so clearing never fails on a name.
func (c *Client) ClearHistory(ctx context.Context, optimizer string) error {
	name, err := c.canonical(optimizer)
	if err != nil {
		name = optimizer
	}
	return c.history.Clear(ctx, name)
}
