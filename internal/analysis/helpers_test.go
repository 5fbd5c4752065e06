package analysis

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/rewired-gh/vtanalysis/internal/models"
)

func newRawAnalysis(t *testing.T, workflow models.Workflow, results any) *models.RawAnalysis {
	t.Helper()

	var encoded json.RawMessage
	if results != nil {
		data, err := json.Marshal(results)
		if err != nil {
			t.Fatalf("failed to marshal results: %v", err)
		}
		encoded = data
	}

	return &models.RawAnalysis{
		ID:        "analysis-1",
		Workflow:  workflow,
		CreatedAt: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		User:      models.UserNested{ID: "bob", Handle: "bob"},
		Ready:     true,
		Cache:     &models.CacheNested{ID: "cache-1"},
		Index:     &models.IndexNested{ID: "index-1", Version: 3},
		Reference: &models.ReferenceNested{ID: "ref-1", Name: "Plant Viruses", DataType: "genome"},
		Sample:    &models.SampleNested{ID: "sample-1", Name: "Field 12"},
		Subtractions: []models.SubtractionNested{
			{ID: "sub-1", Name: "Arabidopsis"},
		},
		Results: encoded,
	}
}

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
