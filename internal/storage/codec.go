package storage

import (
	"encoding/json"
	"errors"

	"github.com/NASA-Tensegrity-Robotics-Toolkit/DTRLdev/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

func EncodeParamSet(s model.ParamSet) ([]byte, error) {
	stamp(&s.VersionedRecord)
	return json.Marshal(s)
}

func DecodeParamSet(data []byte) (model.ParamSet, error) {
	var set model.ParamSet
	if err := json.Unmarshal(data, &set); err != nil {
		return model.ParamSet{}, err
	}
	if err := checkVersion(set.VersionedRecord); err != nil {
		return model.ParamSet{}, err
	}
	return set, nil
}

func EncodeRunSummary(s model.RunSummary) ([]byte, error) {
	stamp(&s.VersionedRecord)
	return json.Marshal(s)
}

func DecodeRunSummary(data []byte) (model.RunSummary, error) {
	var summary model.RunSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return model.RunSummary{}, err
	}
	if err := checkVersion(summary.VersionedRecord); err != nil {
		return model.RunSummary{}, err
	}
	return summary, nil
}

func EncodeTrace(t model.RunTrace) ([]byte, error) {
	stamp(&t.VersionedRecord)
	return json.Marshal(t)
}

func DecodeTrace(data []byte) (model.RunTrace, error) {
	var trace model.RunTrace
	if err := json.Unmarshal(data, &trace); err != nil {
		return model.RunTrace{}, err
	}
	if err := checkVersion(trace.VersionedRecord); err != nil {
		return model.RunTrace{}, err
	}
	return trace, nil
}

func stamp(r *model.VersionedRecord) {
	if r.SchemaVersion == 0 {
		r.SchemaVersion = CurrentSchemaVersion
	}
	if r.CodecVersion == 0 {
		r.CodecVersion = CurrentCodecVersion
	}
}

func checkVersion(r model.VersionedRecord) error {
	if r.SchemaVersion > CurrentSchemaVersion || r.CodecVersion > CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}
