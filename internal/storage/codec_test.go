package storage

import (
	"errors"
	"testing"
	"time"

	"rodigy/internal/model"
)

func TestConfigurationCodecRoundTrip(t *testing.T) {
	set := model.NewConfigurationSet()
	set.Put("z_last", model.Params{"lr": 1e-3})
	set.Put("a_first", model.Params{"lr": 2e-4, "rectify": true})

	data, err := EncodeConfigurations("adabelief", set)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	record, err := DecodeConfigurations(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if record.SchemaVersion != CurrentSchemaVersion || record.CodecVersion != CurrentCodecVersion {
		t.Fatalf("unexpected versions: %+v", record.VersionedRecord)
	}
	names := record.Configurations.Names()
	if len(names) != 2 || names[0] != "z_last" {
		t.Fatalf("insertion order lost: %v", names)
	}
}

func TestHistoryCodecNormalizesParameters(t *testing.T) {
	entries := []model.HistoryEntry{{
		ID:         "e1",
		Timestamp:  time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC),
		Optimizer:  "adam",
		Parameters: model.Params{"betas": []any{0.9, 0.999}, "amsgrad": false},
		Caller:     model.CallerInfo{File: "train.go", Line: 12, Function: "main.train"},
	}}
	data, err := EncodeHistory("adam", entries)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	record, err := DecodeHistory(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	got := record.Entries[0]
	betas, ok := got.Parameters["betas"].([]any)
	if !ok || len(betas) != 2 || betas[1] != 0.999 {
		t.Fatalf("unexpected betas: %#v", got.Parameters["betas"])
	}
	if got.ConfigName != nil || got.Caller.Line != 12 {
		t.Fatalf("unexpected entry: %+v", got)
	}
}

func TestDecodeRejectsVersionMismatch(t *testing.T) {
	_, err := DecodeHistory([]byte(`{"schema_version":1,"codec_version":7,"optimizer":"adam","entries":[]}`))
	if !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected ErrVersionMismatch, got: %v", err)
	}
}

func TestNewStoreKinds(t *testing.T) {
	dir := t.TempDir()
	if _, err := NewStore("memory", dir, ""); err != nil {
		t.Fatalf("memory: %v", err)
	}
	store, err := NewStore(DefaultStoreKind(), dir, "")
	if err != nil {
		t.Fatalf("default: %v", err)
	}
	if _, ok := store.(*FileStore); !ok {
		t.Fatalf("expected file store by default, got %T", store)
	}
	if _, err := NewStore("postgres", dir, ""); err == nil {
		t.Fatal("expected unsupported backend error")
	}
	if err := CloseIfSupported(store); err != nil {
		t.Fatalf("close: %v", err)
	}
}
