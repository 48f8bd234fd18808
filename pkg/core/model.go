// Package core provides the molecule model definition used by the decomposer,
// together with its validation and loading logic.
package core

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Molecule is one source molecule and the fraction of its signal that lands
// on each named peak.
type Molecule struct {
	Name  string             `yaml:"name"`
	Peaks map[string]float64 `yaml:"peaks"`
}

// Model is the declarative decomposition model. The order of Molecules defines
// the column order of the contribution matrix and of the solved abundances.
type Model struct {
	Molecules []Molecule `yaml:"molecules"`

	// Optional per-peak weight overrides; unlisted peaks weigh 1.0.
	Weights map[string]float64 `yaml:"weights,omitempty"`

	// Decimal separator used for written numbers ("." or ",").
	DecimalSeparator string `yaml:"decimal_separator,omitempty"`
}

// ValidationError represents an error found during model validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error in %s: %s", e.Field, e.Message)
}

// Validate checks that a model can be compiled.
func (m *Model) Validate() error {
	var errs []string

	if len(m.Molecules) == 0 {
		errs = append(errs, "at least one molecule is required")
	}

	seen := make(map[string]bool, len(m.Molecules))
	for i, molec := range m.Molecules {
		if strings.TrimSpace(molec.Name) == "" {
			errs = append(errs, fmt.Sprintf("molecule %d has no name", i))
		} else if seen[molec.Name] {
			errs = append(errs, fmt.Sprintf("molecule %q is defined more than once", molec.Name))
		}
		seen[molec.Name] = true

		if len(molec.Peaks) == 0 {
			errs = append(errs, fmt.Sprintf("molecule %q has no peaks", molec.Name))
		}
		for _, peak := range molec.PeakNames() {
			frac := molec.Peaks[peak]
			if peak == "" {
				errs = append(errs, fmt.Sprintf("molecule %q has an empty peak name", molec.Name))
			}
			if math.IsNaN(frac) || math.IsInf(frac, 0) {
				errs = append(errs, fmt.Sprintf("molecule %q peak %s has invalid contribution", molec.Name, peak))
			} else if frac < 0 || frac > 1 {
				errs = append(errs, fmt.Sprintf("molecule %q peak %s contribution %g outside [0,1]", molec.Name, peak, frac))
			}
		}
	}

	for _, peak := range sortedKeys(m.Weights) {
		w := m.Weights[peak]
		if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
			errs = append(errs, fmt.Sprintf("weight for %s must be a non-negative number, got %g", peak, w))
		}
	}

	switch m.DecimalSeparator {
	case "", ".", ",":
	default:
		errs = append(errs, fmt.Sprintf("decimal separator must be '.' or ',', got %q", m.DecimalSeparator))
	}

	if len(errs) > 0 {
		return &ValidationError{
			Field:   "Model",
			Message: strings.Join(errs, "; "),
		}
	}

	return nil
}

// MoleculeNames returns molecule names in model order.
func (m *Model) MoleculeNames() []string {
	names := make([]string, len(m.Molecules))
	for i, molec := range m.Molecules {
		names[i] = molec.Name
	}
	return names
}

// Separator returns the configured decimal separator, defaulting to '.'.
func (m *Model) Separator() byte {
	if m.DecimalSeparator == "" {
		return '.'
	}
	return m.DecimalSeparator[0]
}

// PeakNames returns the peaks the molecule contributes to, sorted by name.
func (m Molecule) PeakNames() []string {
	return sortedKeys(m.Peaks)
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
