package rodigy

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

var params = []Parameter{{Name: "w", Data: []float64{1, 2, 3}}}

func newTestClient(t *testing.T, kind string, now func() time.Time) *Client {
	t.Helper()
	client, err := New(Options{StoreKind: kind, DataDir: t.TempDir(), Now: now})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if err := client.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Close()
	})
	return client
}

func TestClientConstructRecordsHistory(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t, "file", nil)

	opt, err := client.Construct(ctx, ConstructRequest{
		Params:     params,
		Optimizer:  "adabelief",
		ConfigName: "low_memory",
		Overrides:  Params{"lr": 2e-4},
	})
	if err != nil {
		t.Fatalf("construct: %v", err)
	}
	if lr := opt.Hyperparameters()["lr"]; lr != 2e-4 {
		t.Fatalf("unexpected lr: %v", lr)
	}

	entries, err := client.History(ctx, "AdaBelief", nil)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(entries))
	}
	if !strings.HasSuffix(entries[0].Caller.File, "rodigy_test.go") {
		t.Fatalf("caller should be the test, got %+v", entries[0].Caller)
	}
	if !strings.HasSuffix(entries[0].Caller.Function, "TestClientConstructRecordsHistory") {
		t.Fatalf("unexpected caller function: %s", entries[0].Caller.Function)
	}
}

func TestClientConfigurationLifecycle(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t, "memory", nil)

	if err := client.AddConfiguration(ctx, "a2grad", "custom", Params{"beta": 7, "lips": 2}); err != nil {
		t.Fatalf("add: %v", err)
	}
	got, err := client.GetConfig(ctx, ByName("a2grad"), "custom")
	if err != nil {
		t.Fatalf("get config: %v", err)
	}
	if len(got) != 2 || got["beta"] != 7.0 || got["lips"] != 2.0 {
		t.Fatalf("unexpected config: %+v", got)
	}

	if err := client.AddConfiguration(ctx, "a2grad", "custom", Params{}); !errors.Is(err, ErrConfigurationExists) {
		t.Fatalf("expected ErrConfigurationExists, got: %v", err)
	}

	updates := NewConfigurationSet()
	updates.Put("custom", Params{"lips": 3})
	if err := client.SetConfigurations(ctx, "a2grad", updates); err != nil {
		t.Fatalf("set: %v", err)
	}
	set, err := client.Configurations(ctx, "a2grad")
	if err != nil {
		t.Fatalf("configurations: %v", err)
	}
	custom, _ := set.Get("custom")
	if custom["lips"] != 3.0 || custom["beta"] != 7.0 {
		t.Fatalf("unexpected merged config: %+v", custom)
	}

	if err := client.RemoveConfiguration(ctx, "a2grad", "custom"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := client.RemoveConfiguration(ctx, "a2grad", "custom"); !errors.Is(err, ErrConfigurationNotFound) {
		t.Fatalf("expected ErrConfigurationNotFound, got: %v", err)
	}
}

func TestClientHistoryTTL(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	client := newTestClient(t, "memory", func() time.Time { return now })

	if _, err := client.Construct(ctx, ConstructRequest{Params: params, Optimizer: "lion"}); err != nil {
		t.Fatalf("construct: %v", err)
	}
	now = now.Add(72 * time.Hour)

	ttl, err := ParseTTL("1d")
	if err != nil {
		t.Fatalf("parse ttl: %v", err)
	}
	recent, err := client.History(ctx, "lion", &ttl)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(recent) != 0 {
		t.Fatalf("expected expired entries to be hidden, got %d", len(recent))
	}

	removed, err := client.PruneHistory(ctx, "lion", ttl)
	if err != nil || removed != 1 {
		t.Fatalf("prune removed=%d err=%v", removed, err)
	}
	if err := client.ClearHistory(ctx, "lion"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := client.History(ctx, "nope", nil); !errors.Is(err, ErrUnknownOptimizer) {
		t.Fatalf("expected ErrUnknownOptimizer, got: %v", err)
	}
}

func TestClientOptimizersAndDocs(t *testing.T) {
	client := newTestClient(t, "memory", nil)

	infos := client.Optimizers()
	var adabelief *OptimizerInfo
	for i := range infos {
		if infos[i].Name == "adabelief" {
			adabelief = &infos[i]
		}
	}
	if adabelief == nil || !adabelief.HasDocs || !adabelief.HasPresets || !adabelief.AcceptsLR {
		t.Fatalf("unexpected adabelief info: %+v", adabelief)
	}

	name, page, err := client.Doc("Ada-Belief")
	if err != nil {
		t.Fatalf("doc: %v", err)
	}
	if name != "adabelief" || !strings.Contains(string(page), "# AdaBelief") {
		t.Fatalf("unexpected doc %s: %q", name, page)
	}
	if _, _, err := client.Doc("sgd"); !errors.Is(err, ErrDocumentationNotFound) {
		t.Fatalf("expected ErrDocumentationNotFound, got: %v", err)
	}
}

func TestClientConstructionErrorType(t *testing.T) {
	client := newTestClient(t, "memory", nil)
	_, err := client.Construct(context.Background(), ConstructRequest{
		Params:    params,
		Optimizer: "a2grad",
		Overrides: Params{"lr": 0.1},
	})
	var cerr *ConstructionError
	if !errors.As(err, &cerr) || !errors.Is(err, ErrExternalConstruction) {
		t.Fatalf("expected construction error, got: %v", err)
	}
}
