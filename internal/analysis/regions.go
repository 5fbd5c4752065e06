package analysis

import (
	"cmp"
	"slices"

	"github.com/rewired-gh/vtanalysis/internal/models"
)

// DeriveTrustworthyRegions returns the gaps between untrustworthy ranges over a
// sequence of the given length, starting at position 1 and ending at length.
// Ranges are walked in the order given and must already be ascending.
func DeriveTrustworthyRegions(length int, untrustworthy []models.Range) []models.Range {
	trustworthy := make([]models.Range, 0, len(untrustworthy)+1)

	start := 1
	for _, r := range untrustworthy {
		trustworthy = append(trustworthy, models.Range{start, r.Start()})
		start = r.End()
	}

	return append(trustworthy, models.Range{start, length})
}

// CombineUntrustworthyRegions unions the untrustworthy ranges reported by several
// sources into the smallest sorted set of non-overlapping ranges. Ranges that
// touch (next start equal to current end) are merged. The input is not modified.
func CombineUntrustworthyRegions(sources [][]models.Range) []models.Range {
	var all []models.Range
	for _, ranges := range sources {
		all = append(all, ranges...)
	}

	if len(all) == 0 {
		return []models.Range{}
	}

	slices.SortStableFunc(all, func(a, b models.Range) int {
		return cmp.Compare(a.Start(), b.Start())
	})

	combined := []models.Range{all[0]}
	for _, r := range all[1:] {
		last := &combined[len(combined)-1]
		if r.Start() <= last.End() {
			last[1] = max(last.End(), r.End())
			continue
		}
		combined = append(combined, r)
	}

	return combined
}
