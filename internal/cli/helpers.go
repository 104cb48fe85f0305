package cli

import (
	"fmt"
	"os"

	"github.com/adx-tools/adx/internal/codec"
	"github.com/adx-tools/adx/pkg/types"
)

// decodeMode maps the lenient flag (or config default) onto a codec mode.
func decodeMode(lenient bool) codec.Mode {
	if lenient || cfg.Lenient {
		return codec.Lenient
	}
	return codec.Strict
}

// readModel loads and decodes an interchange file.
func readModel(path string, mode codec.Mode) (*types.RecordModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	model, err := codec.Decode(data, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return model, nil
}

// writeModel canonically encodes a model and writes it to path.
func writeModel(path string, model *types.RecordModel) error {
	data, err := codec.Encode(model)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
