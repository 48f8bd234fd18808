package core

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModelValidation(t *testing.T) {
	tests := []struct {
		name    string
		model   *Model
		wantErr bool
	}{
		{
			name:    "default model",
			model:   DefaultModel(),
			wantErr: false,
		},
		{
			name:    "no molecules",
			model:   &Model{},
			wantErr: true,
		},
		{
			name: "missing name",
			model: &Model{Molecules: []Molecule{
				{Peaks: map[string]float64{"p1": 1}},
			}},
			wantErr: true,
		},
		{
			name: "duplicate molecule",
			model: &Model{Molecules: []Molecule{
				{Name: "A", Peaks: map[string]float64{"p1": 1}},
				{Name: "A", Peaks: map[string]float64{"p2": 1}},
			}},
			wantErr: true,
		},
		{
			name: "molecule without peaks",
			model: &Model{Molecules: []Molecule{
				{Name: "A"},
			}},
			wantErr: true,
		},
		{
			name: "contribution above one",
			model: &Model{Molecules: []Molecule{
				{Name: "A", Peaks: map[string]float64{"p1": 1.5}},
			}},
			wantErr: true,
		},
		{
			name: "NaN contribution",
			model: &Model{Molecules: []Molecule{
				{Name: "A", Peaks: map[string]float64{"p1": math.NaN()}},
			}},
			wantErr: true,
		},
		{
			name: "negative weight",
			model: &Model{
				Molecules: []Molecule{{Name: "A", Peaks: map[string]float64{"p1": 1}}},
				Weights:   map[string]float64{"p1": -1},
			},
			wantErr: true,
		},
		{
			name: "bad separator",
			model: &Model{
				Molecules:        []Molecule{{Name: "A", Peaks: map[string]float64{"p1": 1}}},
				DecimalSeparator: ";",
			},
			wantErr: true,
		},
		{
			name: "comma separator",
			model: &Model{
				Molecules:        []Molecule{{Name: "A", Peaks: map[string]float64{"p1": 1}}},
				DecimalSeparator: ",",
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.model.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.Error(t, err)
			assert.True(t, errors.As(err, &verr))
		})
	}
}

func TestMoleculeNamesKeepOrder(t *testing.T) {
	assert.Equal(t,
		[]string{"NO", "CO", "N2O", "N2", "CO2nat", "CO2iso"},
		DefaultModel().MoleculeNames())
}

func TestPeakNamesSorted(t *testing.T) {
	m := Molecule{Name: "X", Peaks: map[string]float64{"m30": 0.1, "m28": 0.2, "m29": 0.3}}
	assert.Equal(t, []string{"m28", "m29", "m30"}, m.PeakNames())
}

func TestSeparator(t *testing.T) {
	assert.Equal(t, byte('.'), (&Model{}).Separator())
	assert.Equal(t, byte(','), (&Model{DecimalSeparator: ","}).Separator())
}
