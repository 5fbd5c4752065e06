package analysis

import (
	"maps"
	"slices"

	"github.com/rewired-gh/vtanalysis/internal/models"
)

// noFamily is the placeholder family the HMM annotations use for unclassified hits.
const noFamily = "None"

// FormatNuVs shapes a NuVs analysis.
func FormatNuVs(raw *models.RawAnalysis) (models.Formatted, error) {
	var results models.NuVsResults
	if err := decodeResults(raw, &results); err != nil {
		return nil, err
	}

	hits := make([]models.FormattedNuVsHit, len(results.Hits))
	maxSequenceLength := 0
	for i, hit := range results.Hits {
		hits[i] = models.FormattedNuVsHit{
			NuVsHit:           hit,
			ID:                hit.Index,
			AnnotatedOrfCount: CalculateAnnotatedOrfCount(hit.Orfs),
			E:                 MinimumE(hit.Orfs),
			Families:          ExtractFamilies(hit.Orfs),
			Names:             ExtractNames(hit.Orfs),
		}
		maxSequenceLength = max(maxSequenceLength, len(hit.Sequence))
	}

	return &models.FormattedNuVs{
		Cache:             raw.Cache,
		CreatedAt:         raw.CreatedAt,
		ID:                raw.ID,
		Ready:             raw.Ready,
		Results:           models.FormattedNuVsResults{Hits: hits},
		User:              raw.User,
		Workflow:          raw.Workflow,
		MaxSequenceLength: maxSequenceLength,
	}, nil
}

// CalculateAnnotatedOrfCount counts the ORFs with at least one hit.
func CalculateAnnotatedOrfCount(orfs []models.NuVsOrf) int {
	count := 0
	for _, orf := range orfs {
		if len(orf.Hits) > 0 {
			count++
		}
	}
	return count
}

// MinimumE returns the smallest full E-value among all hits of all ORFs, or nil
// if there are none.
func MinimumE(orfs []models.NuVsOrf) *float64 {
	var minimum *float64
	for _, orf := range orfs {
		for _, hit := range orf.Hits {
			if minimum == nil || hit.FullE < *minimum {
				e := hit.FullE
				minimum = &e
			}
		}
	}
	return minimum
}

// ExtractFamilies lists the distinct virus families annotated on any hit,
// excluding the "None" placeholder. Families of one hit are taken in name order.
func ExtractFamilies(orfs []models.NuVsOrf) []string {
	families := []string{}
	for _, orf := range orfs {
		for _, hit := range orf.Hits {
			for _, family := range slices.Sorted(maps.Keys(hit.Families)) {
				if family != noFamily && !slices.Contains(families, family) {
					families = append(families, family)
				}
			}
		}
	}
	return families
}

// ExtractNames lists the distinct protein names annotated on any hit.
func ExtractNames(orfs []models.NuVsOrf) []string {
	names := []string{}
	for _, orf := range orfs {
		for _, hit := range orf.Hits {
			for _, name := range hit.Names {
				if !slices.Contains(names, name) {
					names = append(names, name)
				}
			}
		}
	}
	return names
}
