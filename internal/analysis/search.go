package analysis

import (
	"slices"
	"strings"

	"github.com/rewired-gh/vtanalysis/internal/models"
)

// FilterHits keeps the hits of f whose search fields (see SearchKeys) contain
// term, ignoring case. An empty term or an unshaped analysis returns f itself.
// The returned record shares hits with f.
func FilterHits(f models.Formatted, term string) models.Formatted {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" || f == nil {
		return f
	}

	keys := SearchKeys(f.AnalysisWorkflow())

	switch v := f.(type) {
	case *models.FormattedPathoscope:
		out := *v
		out.Results.Hits = filterBy(v.Results.Hits, keys, term, func(h models.FormattedPathoscopeHit) map[string][]string {
			return map[string][]string{"name": {h.Name}, "abbreviation": {h.Abbreviation}}
		})
		return &out
	case *models.FormattedNuVs:
		out := *v
		out.Results.Hits = filterBy(v.Results.Hits, keys, term, func(h models.FormattedNuVsHit) map[string][]string {
			return map[string][]string{"families": h.Families, "names": h.Names}
		})
		return &out
	case *models.FormattedAODP:
		out := *v
		out.Results = filterBy(v.Results, keys, term, func(r models.FormattedAODPResult) map[string][]string {
			return map[string][]string{"name": {r.Name}}
		})
		return &out
	default:
		return f
	}
}

func filterBy[T any](hits []T, keys []string, term string, fields func(T) map[string][]string) []T {
	matched := make([]T, 0, len(hits))
	for _, hit := range hits {
		values := fields(hit)
		if slices.ContainsFunc(keys, func(key string) bool {
			return slices.ContainsFunc(values[key], func(v string) bool {
				return strings.Contains(strings.ToLower(v), term)
			})
		}) {
			matched = append(matched, hit)
		}
	}
	return matched
}
