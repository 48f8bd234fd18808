package core

// DefaultModel returns the built-in NO/CO/N2O/N2/CO2 isotopologue model,
// used when no model file is found.
func DefaultModel() *Model {
	return &Model{
		DecimalSeparator: ".",
		Molecules: []Molecule{
			{Name: "NO", Peaks: map[string]float64{
				"m29Int": 0.021892103,
				"m30Int": 0.072973677,
				"m31Int": 0.905134219,
			}},
			{Name: "CO", Peaks: map[string]float64{
				"m28Int": 0.436291522,
				"m29Int": 0.498264750,
				"m30Int": 0.058254834,
				"m31Int": 0.007188894,
			}},
			{Name: "N2O", Peaks: map[string]float64{
				"m28Int": 0.150168492,
				"m29Int": 0.049915754,
				"m30Int": 0.125526537,
				"m31Int": 0.119208088,
				"m44Int": 0.01137321,
				"m45Int": 0.055181129,
				"m46Int": 0.621314238,
				"m47Int": 0.017481045,
			}},
			{Name: "N2", Peaks: map[string]float64{
				"m28Int": 0.0025,
				"m29Int": 0.095,
				"m30Int": 0.9025,
			}},
			{Name: "CO2nat", Peaks: map[string]float64{
				"m44Int": 1.0,
			}},
			// 18O kept low: T-induced isotopic exchange with ZnO
			{Name: "CO2iso", Peaks: map[string]float64{
				"m44Int": 0.359838915,
				"m45Int": 0.51355651,
				"m46Int": 0.004914336,
				"m47Int": 0.007013664,
			}},
		},
		Weights: map[string]float64{
			"m28Int": 0.1,
		},
	}
}
