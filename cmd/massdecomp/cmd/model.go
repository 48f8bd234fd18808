package cmd

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/ChrisMcGann/MassDecomposer/pkg/core"
)

// loadModel resolves the model for a run whose first input is dataPath and
// applies weight and separator overrides from the command line.
func loadModel(dataPath string) (*core.Model, error) {
	var model *core.Model

	switch path, found := core.FindModelFile(dataPath); {
	case modelFile != "":
		m, err := core.LoadModel(modelFile)
		if err != nil {
			return nil, err
		}
		log.Info().Str("model", modelFile).Msg("using model file")
		model = m
	case found:
		m, err := core.LoadModel(path)
		if err != nil {
			return nil, err
		}
		log.Info().Str("model", path).Msg("using model in data directory")
		model = m
	default:
		log.Warn().Msgf("%s not found in data directory, using built-in default model", core.ModelFileName)
		model = core.DefaultModel()
	}

	if weightsFile != "" {
		weights, err := core.LoadWeightsFile(weightsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load weights: %w", err)
		}
		log.Info().Int("weights", len(weights)).Str("file", weightsFile).Msg("loaded weight overrides")
		model.Weights = core.MergeWeights(model.Weights, weights)
	}

	if decimalSeparator != "" {
		model.DecimalSeparator = decimalSeparator
	}

	if err := model.Validate(); err != nil {
		return nil, err
	}

	return model, nil
}
