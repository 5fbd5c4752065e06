package analysis

import (
	"cmp"
	"slices"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/rewired-gh/vtanalysis/internal/models"
)

// UnnamedIsolate is the display name of isolates without a usable source.
const UnnamedIsolate = "Unnamed Isolate"

var (
	upperCaser = cases.Upper(language.English)
	lowerCaser = cases.Lower(language.English)
)

// FormatIsolateName joins an isolate's source type and name, eg. "Isolate Q47".
// Only the first letter of the source type is upper case.
func FormatIsolateName(sourceType, sourceName string) string {
	sourceType = strings.TrimSpace(sourceType)
	sourceName = strings.TrimSpace(sourceName)
	if sourceType == "" || strings.EqualFold(sourceType, "unknown") || sourceName == "" {
		return UnnamedIsolate
	}
	return capitalize(sourceType) + " " + sourceName
}

func capitalize(s string) string {
	_, size := utf8.DecodeRuneInString(s)
	return upperCaser.String(s[:size]) + lowerCaser.String(s[size:])
}

// FormatPathoscope shapes a pathoscope analysis. An analysis without hits is
// returned unchanged as *models.Unformatted.
func FormatPathoscope(raw *models.RawAnalysis) (models.Formatted, error) {
	var results models.PathoscopeResults
	if err := decodeResults(raw, &results); err != nil {
		return nil, err
	}

	if len(results.Hits) == 0 {
		return &models.Unformatted{Raw: raw}, nil
	}

	hits := make([]models.FormattedPathoscopeHit, len(results.Hits))
	for i, otu := range results.Hits {
		hits[i] = formatPathoscopeHit(otu, results.ReadCount)
	}

	return &models.FormattedPathoscope{
		CreatedAt: raw.CreatedAt,
		ID:        raw.ID,
		Index:     raw.Index,
		Reference: raw.Reference,
		Ready:     raw.Ready,
		Results: models.FormattedPathoscopeResults{
			Hits:            hits,
			ReadCount:       results.ReadCount,
			SubtractedCount: results.SubtractedCount,
		},
		Subtractions: raw.Subtractions,
		User:         raw.User,
		Workflow:     raw.Workflow,
	}, nil
}

func formatPathoscopeHit(otu models.PathoscopeHit, readCount int) models.FormattedPathoscopeHit {
	isolates := make([]models.FormattedPathoscopeIsolate, len(otu.Isolates))
	isolateNames := make([]string, 0, len(otu.Isolates))

	var (
		pi              float64
		coverage        float64
		maxGenomeLength int
		maxDepth        int
	)

	for i, isolate := range otu.Isolates {
		formatted := formatPathoscopeIsolate(isolate, readCount)
		isolates[i] = formatted

		if formatted.Name != UnnamedIsolate && !slices.Contains(isolateNames, formatted.Name) {
			isolateNames = append(isolateNames, formatted.Name)
		}

		pi += formatted.Pi
		coverage = max(coverage, formatted.Coverage)
		maxGenomeLength = max(maxGenomeLength, formatted.GenomeLength())
		maxDepth = max(maxDepth, formatted.MaxDepth)
	}

	filled := MergeCoverage(isolates)

	// Highest coverage first. Ties end up in reverse input order.
	slices.SortStableFunc(isolates, func(a, b models.FormattedPathoscopeIsolate) int {
		return cmp.Compare(a.Coverage, b.Coverage)
	})
	slices.Reverse(isolates)

	return models.FormattedPathoscopeHit{
		ID:              otu.ID,
		Name:            otu.Name,
		Abbreviation:    otu.Abbreviation,
		Version:         otu.Version,
		Isolates:        isolates,
		Filled:          filled,
		Pi:              pi,
		Coverage:        coverage,
		Depth:           Median(slices.Concat(filled...)),
		IsolateNames:    isolateNames,
		MaxGenomeLength: maxGenomeLength,
		MaxDepth:        maxDepth,
		Reads:           pi * float64(readCount),
	}
}

func formatPathoscopeIsolate(isolate models.PathoscopeIsolate, readCount int) models.FormattedPathoscopeIsolate {
	sequences := make([]models.FormattedPathoscopeSequence, len(isolate.Sequences))
	for i, sequence := range isolate.Sequences {
		sequences[i] = formatPathoscopeSequence(sequence, readCount)
	}
	slices.SortStableFunc(sequences, func(a, b models.FormattedPathoscopeSequence) int {
		return cmp.Compare(a.Length, b.Length)
	})

	filled := make([][]int, len(sequences))
	var pi float64
	for i, sequence := range sequences {
		filled[i] = sequence.Filled
		pi += sequence.Pi
	}

	combined := slices.Concat(filled...)

	// Coverage is the share of non-zero positions over the concatenated
	// sequences. A genome with no positions has zero coverage.
	var coverage float64
	maxDepth := 0
	if len(combined) > 0 {
		covered := 0
		for _, depth := range combined {
			if depth != 0 {
				covered++
			}
		}
		coverage = float64(covered) / float64(len(combined))
		maxDepth = slices.Max(combined)
	}

	return models.FormattedPathoscopeIsolate{
		ID:         isolate.ID,
		Default:    isolate.Default,
		SourceType: isolate.SourceType,
		SourceName: isolate.SourceName,
		Name:       FormatIsolateName(isolate.SourceType, isolate.SourceName),
		Sequences:  sequences,
		Filled:     filled,
		Coverage:   coverage,
		Depth:      Median(combined),
		Pi:         pi,
		MaxDepth:   maxDepth,
	}
}

func formatPathoscopeSequence(sequence models.PathoscopeSequence, readCount int) models.FormattedPathoscopeSequence {
	return models.FormattedPathoscopeSequence{
		PathoscopeSequence: sequence,
		Filled:             FillAlign(sequence.Align, sequence.Length),
		Reads:              sequence.Pi * float64(readCount),
	}
}
