package params

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/NASA-Tensegrity-Robotics-Toolkit/DTRLdev/internal/cpg"
	"github.com/NASA-Tensegrity-Robotics-Toolkit/DTRLdev/internal/model"
)

// Source supplies a learned parameter set at controller setup. Loading
// is the only point in the controller lifecycle allowed to block on
// I/O.
type Source interface {
	Load(ctx context.Context) (model.ParamSet, error)
}

// StaticSource serves a parameter set already in memory.
type StaticSource struct {
	Set model.ParamSet
}

func (s StaticSource) Load(_ context.Context) (model.ParamSet, error) {
	return s.Set, nil
}

// FileSource loads a JSON parameter-set file.
type FileSource struct {
	Path string
}

func (s FileSource) Load(ctx context.Context) (model.ParamSet, error) {
	if err := ctx.Err(); err != nil {
		return model.ParamSet{}, err
	}
	return LoadFile(s.Path)
}

// LoadFile reads and validates a JSON parameter-set file. A missing id
// defaults to the file name without extension.
func LoadFile(path string) (model.ParamSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.ParamSet{}, fmt.Errorf("read param file: %w", err)
	}
	var set model.ParamSet
	if err := json.Unmarshal(data, &set); err != nil {
		return model.ParamSet{}, fmt.Errorf("%w: parse %s: %v", cpg.ErrConfig, path, err)
	}
	if set.SchemaVersion == 0 {
		set.SchemaVersion = SupportedSchemaVersion
	}
	if set.CodecVersion == 0 {
		set.CodecVersion = SupportedCodecVersion
	}
	if set.SchemaVersion > SupportedSchemaVersion || set.CodecVersion > SupportedCodecVersion {
		return model.ParamSet{}, fmt.Errorf("%w: param file %s declares unsupported version schema=%d codec=%d",
			cpg.ErrConfig, path, set.SchemaVersion, set.CodecVersion)
	}
	if set.ID == "" {
		base := filepath.Base(path)
		set.ID = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if _, _, err := Decode(set); err != nil {
		return model.ParamSet{}, err
	}
	return set, nil
}
