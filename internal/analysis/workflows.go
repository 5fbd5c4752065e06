package analysis

import (
	"slices"

	"github.com/rewired-gh/vtanalysis/internal/models"
)

var supportedWorkflows = []models.Workflow{
	models.WorkflowPathoscopeBowtie,
	models.WorkflowNuVs,
	models.WorkflowAODP,
	models.WorkflowIimi,
}

// CheckSupportedWorkflow reports whether results of the workflow can be viewed.
func CheckSupportedWorkflow(workflow models.Workflow) bool {
	return slices.Contains(supportedWorkflows, workflow)
}

// SearchKeys returns the hit fields a fuzzy search should match for the workflow.
func SearchKeys(workflow models.Workflow) []string {
	switch {
	case workflow.IsPathoscope():
		return []string{"name", "abbreviation"}
	case workflow == models.WorkflowNuVs:
		return []string{"families", "names"}
	case workflow == models.WorkflowAODP:
		return []string{"name"}
	default:
		return nil
	}
}
