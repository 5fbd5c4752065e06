// Package analysis turns raw analysis documents into render-ready records.
//
// Format dispatches on the analysis workflow:
//
//	pathoscope, pathoscope_bowtie  FormatPathoscope
//	nuvs                           FormatNuVs
//	aodp                           FormatAODP
//	anything else                  *models.Unformatted (pass-through)
//
// All functions in this package are pure. They never modify their arguments and
// may be called concurrently. Input is trusted to follow the platform's schema;
// the only error reported is results JSON that cannot be decoded.
package analysis

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rewired-gh/vtanalysis/internal/models"
)

// ErrMalformedResults is wrapped by errors returned when an analysis' results
// do not match the schema of its workflow.
var ErrMalformedResults = errors.New("malformed analysis results")

// Format shapes raw according to its workflow. A nil raw yields a nil result.
func Format(raw *models.RawAnalysis) (models.Formatted, error) {
	if raw == nil {
		return nil, nil
	}

	switch raw.Workflow {
	case models.WorkflowPathoscope, models.WorkflowPathoscopeBowtie:
		return FormatPathoscope(raw)
	case models.WorkflowNuVs:
		return FormatNuVs(raw)
	case models.WorkflowAODP:
		return FormatAODP(raw)
	default:
		return &models.Unformatted{Raw: raw}, nil
	}
}

// decodeResults unmarshals the workflow results of raw into v. Absent results
// leave v at its zero value.
func decodeResults(raw *models.RawAnalysis, v any) error {
	if len(raw.Results) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw.Results, v); err != nil {
		return fmt.Errorf("%w: %s analysis %s: %v", ErrMalformedResults, raw.Workflow, raw.ID, err)
	}
	return nil
}
