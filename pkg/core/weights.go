package core

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// LoadWeightsCSV reads peak weight overrides from a CSV stream
// (format: peak,weight with a header line).
func LoadWeightsCSV(r io.Reader) (map[string]float64, error) {
	scanner := bufio.NewScanner(r)

	// Skip header line
	scanner.Scan()

	weights := make(map[string]float64)
	lineNum := 1
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, ",")
		if len(parts) < 2 {
			return nil, fmt.Errorf("line %d: expected 2 fields (peak,weight), got %d", lineNum, len(parts))
		}

		peak := strings.TrimSpace(parts[0])
		weightStr := strings.TrimSpace(parts[1])

		w, err := strconv.ParseFloat(weightStr, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid weight value '%s': %w", lineNum, weightStr, err)
		}
		if w < 0 {
			return nil, fmt.Errorf("line %d: weight for %s must be non-negative", lineNum, peak)
		}

		weights[peak] = w
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading CSV: %w", err)
	}

	return weights, nil
}

// LoadWeightsFile is LoadWeightsCSV for a file path.
func LoadWeightsFile(path string) (map[string]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open weights file: %w", err)
	}
	defer f.Close()

	return LoadWeightsCSV(f)
}

// MergeWeights returns base with every entry of override applied on top.
func MergeWeights(base, override map[string]float64) map[string]float64 {
	merged := make(map[string]float64, len(base)+len(override))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range override {
		merged[k] = v
	}
	return merged
}
