package storage

import (
	"encoding/json"
	"errors"
	"fmt"

	"rodigy/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

func currentVersion() model.VersionedRecord {
	return model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion}
}

func EncodeConfigurations(optimizer string, set *model.ConfigurationSet) ([]byte, error) {
	if set == nil {
		set = model.NewConfigurationSet()
	}
	return json.MarshalIndent(model.ConfigurationRecord{
		VersionedRecord: currentVersion(),
		Optimizer:       optimizer,
		Configurations:  set,
	}, "", "  ")
}

func DecodeConfigurations(data []byte) (model.ConfigurationRecord, error) {
	var record model.ConfigurationRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return model.ConfigurationRecord{}, err
	}
	if err := checkVersion(record.VersionedRecord); err != nil {
		return model.ConfigurationRecord{}, err
	}
	if record.Configurations == nil {
		record.Configurations = model.NewConfigurationSet()
	}
	return record, nil
}

func EncodeHistory(optimizer string, entries []model.HistoryEntry) ([]byte, error) {
	if entries == nil {
		entries = []model.HistoryEntry{}
	}
	return json.MarshalIndent(model.HistoryRecord{
		VersionedRecord: currentVersion(),
		Optimizer:       optimizer,
		Entries:         entries,
	}, "", "  ")
}

func DecodeHistory(data []byte) (model.HistoryRecord, error) {
	var record model.HistoryRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return model.HistoryRecord{}, err
	}
	if err := checkVersion(record.VersionedRecord); err != nil {
		return model.HistoryRecord{}, err
	}
	for i, entry := range record.Entries {
		params, err := model.NormalizeParams(entry.Parameters)
		if err != nil {
			return model.HistoryRecord{}, fmt.Errorf("history entry %d: %w", i, err)
		}
		record.Entries[i].Parameters = params
	}
	return record, nil
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return fmt.Errorf("%w: schema=%d codec=%d", ErrVersionMismatch, v.SchemaVersion, v.CodecVersion)
	}
	return nil
}
