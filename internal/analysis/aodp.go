package analysis

import (
	"slices"

	"github.com/rewired-gh/vtanalysis/internal/models"
)

// FormatAODP shapes an AODP analysis, rolling hit identities up from sequences
// to isolates to results.
func FormatAODP(raw *models.RawAnalysis) (models.Formatted, error) {
	var results []models.AODPResult
	if err := decodeResults(raw, &results); err != nil {
		return nil, err
	}

	formatted := make([]models.FormattedAODPResult, len(results))
	for i, result := range results {
		formatted[i] = formatAODPResult(result)
	}

	return &models.FormattedAODP{
		ID:           raw.ID,
		Workflow:     raw.Workflow,
		CreatedAt:    raw.CreatedAt,
		User:         raw.User,
		Ready:        raw.Ready,
		Cache:        raw.Cache,
		Index:        raw.Index,
		Reference:    raw.Reference,
		Sample:       raw.Sample,
		Subtractions: raw.Subtractions,
		Results:      formatted,
		Source:       raw.Source,
	}, nil
}

func formatAODPResult(result models.AODPResult) models.FormattedAODPResult {
	isolates := make([]models.FormattedAODPIsolate, len(result.Isolates))
	identities := []float64{}

	for i, isolate := range result.Isolates {
		sequences := make([]models.FormattedAODPSequence, len(isolate.Sequences))
		isolateIdentities := []float64{}

		for j, sequence := range isolate.Sequences {
			sequenceIdentities := make([]float64, len(sequence.Hits))
			for k, hit := range sequence.Hits {
				sequenceIdentities[k] = hit.Identity
			}
			sequences[j] = models.FormattedAODPSequence{
				AODPSequence: sequence,
				Identities:   sequenceIdentities,
			}
			isolateIdentities = append(isolateIdentities, sequenceIdentities...)
		}

		isolates[i] = models.FormattedAODPIsolate{
			AODPIsolate: isolate,
			Sequences:   sequences,
			Identities:  isolateIdentities,
		}
		identities = append(identities, isolateIdentities...)
	}

	var identity *float64
	if len(identities) > 0 {
		best := slices.Max(identities)
		identity = &best
	}

	return models.FormattedAODPResult{
		AODPResult: result,
		Isolates:   isolates,
		Identities: identities,
		Identity:   identity,
	}
}
