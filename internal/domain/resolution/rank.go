package resolution

import "sort"

// Rank orders suggestions best-first: confidence descending, impact
// ascending (low preferred), auto-applicable first, then estimated cost
// ascending when both carry one. The sort is stable, so repeated calls on
// the same input produce identical output.
func Rank(suggestions []Suggestion) []Suggestion {
	ranked := make([]Suggestion, len(suggestions))
	copy(ranked, suggestions)

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		if a.Impact.weight() != b.Impact.weight() {
			return a.Impact.weight() < b.Impact.weight()
		}
		if a.AutoApplicable != b.AutoApplicable {
			return a.AutoApplicable
		}
		if a.EstimatedCost != nil && b.EstimatedCost != nil {
			return *a.EstimatedCost < *b.EstimatedCost
		}
		return false
	})
	return ranked
}
