package decompose

import "sort"

// DefaultWeight applies to every peak without an override.
const DefaultWeight = 1.0

// MakeWeights expands sparse per-peak overrides into a vector aligned with
// header. Overrides naming a peak absent from the header are ignored and
// returned, sorted, so callers can warn about them.
func MakeWeights(header []string, overrides map[string]float64) ([]float64, []string) {
	weights := make([]float64, len(header))
	index := make(map[string]int, len(header))
	for i, peak := range header {
		weights[i] = DefaultWeight
		if _, ok := index[peak]; !ok {
			index[peak] = i
		}
	}

	var unmatched []string
	for peak, w := range overrides {
		i, ok := index[peak]
		if !ok {
			unmatched = append(unmatched, peak)
			continue
		}
		weights[i] = w
	}
	sort.Strings(unmatched)

	return weights, unmatched
}
