package core

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ModelFileName is the model file picked up from a data directory when no
// model is given explicitly.
const ModelFileName = "massdecomp.yaml"

// ParseModel decodes and validates a YAML model definition.
func ParseModel(data []byte) (*Model, error) {
	var model Model
	if err := yaml.Unmarshal(data, &model); err != nil {
		return nil, fmt.Errorf("failed to parse model YAML: %w", err)
	}
	if err := model.Validate(); err != nil {
		return nil, err
	}
	return &model, nil
}

// LoadModel reads a model definition from a YAML file.
func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model: %w", err)
	}
	model, err := ParseModel(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return model, nil
}

// SaveModel writes a model definition as YAML.
func SaveModel(model *Model, path string) error {
	data, err := yaml.Marshal(model)
	if err != nil {
		return fmt.Errorf("failed to marshal model: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write model: %w", err)
	}
	return nil
}

// FindModelFile looks for ModelFileName next to the given data file.
func FindModelFile(dataPath string) (string, bool) {
	candidate := filepath.Join(filepath.Dir(dataPath), ModelFileName)
	info, err := os.Stat(candidate)
	if err != nil || info.IsDir() {
		return "", false
	}
	return candidate, true
}

// AppendToFileName inserts suffix before the last extension of path,
// e.g. "run.txt" + "_proc" -> "run_proc.txt". A path without an extension
// gets the suffix appended.
func AppendToFileName(path, suffix string) string {
	dir, base := filepath.Split(path)
	iDot := strings.LastIndex(base, ".")
	if iDot == -1 {
		iDot = len(base)
	}
	return dir + base[:iDot] + suffix + base[iDot:]
}
