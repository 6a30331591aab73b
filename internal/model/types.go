package model

import "time"

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// Parameter is one trainable tensor handed to an optimizer constructor.
// The wrapper never looks inside it.
type Parameter struct {
	Name string    `json:"name"`
	Data []float64 `json:"data,omitempty"`
}

// CallerInfo identifies the call site that constructed an optimizer.
type CallerInfo struct {
	File     string `json:"file"`
	Line     int    `json:"line"`
	Function string `json:"function"`
}

const UnknownCaller = "unknown"

// UnknownCallerInfo is recorded when the call stack cannot be inspected.
func UnknownCallerInfo() CallerInfo {
	return CallerInfo{File: UnknownCaller, Line: 0, Function: UnknownCaller}
}

type HistoryEntry struct {
	ID         string     `json:"id"`
	Timestamp  time.Time  `json:"timestamp"`
	Optimizer  string     `json:"optimizer"`
	ConfigName *string    `json:"config_name"`
	Parameters Params     `json:"parameters"`
	Caller     CallerInfo `json:"caller"`
}

// Config returns the configuration name or "" when no preset was used.
func (e HistoryEntry) Config() string {
	if e.ConfigName == nil {
		return ""
	}
	return *e.ConfigName
}

// Clone returns a copy that shares no mutable state with e.
func (e HistoryEntry) Clone() HistoryEntry {
	out := e
	if e.ConfigName != nil {
		name := *e.ConfigName
		out.ConfigName = &name
	}
	out.Parameters = e.Parameters.Clone()
	return out
}

// ConfigurationRecord is the persisted unit of the configuration store: every
// preset of one optimizer.
type ConfigurationRecord struct {
	VersionedRecord
	Optimizer      string            `json:"optimizer"`
	Configurations *ConfigurationSet `json:"configurations"`
}

// HistoryRecord is the persisted unit of the history store.
type HistoryRecord struct {
	VersionedRecord
	Optimizer string         `json:"optimizer"`
	Entries   []HistoryEntry `json:"entries"`
}

func CloneEntries(entries []HistoryEntry) []HistoryEntry {
	if entries == nil {
		return nil
	}
	out := make([]HistoryEntry, len(entries))
	for i, entry := range entries {
		out[i] = entry.Clone()
	}
	return out
}

// StringPtr is a convenience for optional configuration names.
func StringPtr(s string) *string {
	return &s
}
