package analysis

import (
	"math"
	"slices"

	"github.com/rewired-gh/vtanalysis/internal/models"
)

// FillAlign expands (position, depth) breakpoints into a dense array of the given
// length where the index is the position and the value is the depth. Each
// position carries the depth of the closest breakpoint at or before it; positions
// before the first breakpoint are 0.
func FillAlign(align [][2]int, length int) []int {
	if length < 0 {
		length = 0
	}
	filled := make([]int, length)
	if len(align) == 0 {
		return filled
	}

	coords := make(map[int]int, len(align))
	for _, pair := range align {
		coords[pair[0]] = pair[1]
	}

	prev := 0
	for i := range filled {
		if depth, ok := coords[i]; ok {
			prev = depth
		}
		filled[i] = prev
	}
	return filled
}

// ConvertRLEToCoverage expands run-length encoded depth: lengths[i] positions
// of depth values[i].
func ConvertRLEToCoverage(lengths, values []int) []int {
	total := 0
	for _, l := range lengths {
		total += l
	}

	coverage := make([]int, 0, total)
	for i, l := range lengths {
		for range l {
			coverage = append(coverage, values[i])
		}
	}
	return coverage
}

// Median returns the median of values. For an even count it is the mean of the
// two middle values rounded half up. The median of no values is 0.
func Median(values []int) int {
	if len(values) == 0 {
		return 0
	}

	sorted := slices.Clone(values)
	slices.Sort(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return int(math.Floor(float64(sorted[mid-1]+sorted[mid])/2 + 0.5))
}

// MaxSequences combines depth arrays position-wise, keeping the largest depth
// seen at each position. The result is as long as the longest input; shorter
// arrays do not take part beyond their end.
func MaxSequences(sequences [][]int) []int {
	length := 0
	for _, s := range sequences {
		length = max(length, len(s))
	}

	combined := make([]int, length)
	for i := range combined {
		first := true
		for _, s := range sequences {
			if i >= len(s) {
				continue
			}
			if first || s[i] > combined[i] {
				combined[i] = s[i]
				first = false
			}
		}
	}
	return combined
}

// MergeCoverage builds a representative coverage for an OTU. The n-th sequence
// of every isolate is merged with MaxSequences into the n-th slot of the result.
func MergeCoverage(isolates []models.FormattedPathoscopeIsolate) [][]int {
	var slots [][][]int
	for _, isolate := range isolates {
		for i, sequence := range isolate.Sequences {
			if i >= len(slots) {
				slots = append(slots, nil)
			}
			slots[i] = append(slots[i], sequence.Filled)
		}
	}

	merged := make([][]int, len(slots))
	for i, slot := range slots {
		merged[i] = MaxSequences(slot)
	}
	return merged
}
