package models

import (
	"errors"
	"time"
)

// Metric names used in HitSummary.
const (
	MetricPi       = "pi"
	MetricE        = "e"
	MetricIdentity = "identity"
)

// HitSummary is one ranked hit of a ready analysis.
type HitSummary struct {
	Name   string  `json:"name"`
	Metric string  `json:"metric"`
	Value  float64 `json:"value"`
}

// Report summarizes a ready analysis for notification.
type Report struct {
	ID         string       `json:"id"`
	AnalysisID string       `json:"analysis_id"`
	Workflow   Workflow     `json:"workflow"`
	SampleName string       `json:"sample_name,omitempty"`
	TotalHits  int          `json:"total_hits"`
	TopHits    []HitSummary `json:"top_hits"`
	CreatedAt  time.Time    `json:"created_at"`
	ReportedAt time.Time    `json:"reported_at"`
}

// Validate checks that all report fields are valid
func (r *Report) Validate() error {
	if r.ID == "" {
		return errors.New("report ID must not be empty")
	}
	if r.AnalysisID == "" {
		return errors.New("analysis ID must not be empty")
	}
	if r.Workflow == "" {
		return errors.New("workflow must not be empty")
	}
	if len(r.TopHits) > r.TotalHits {
		return errors.New("top hits must not exceed total hits")
	}
	for _, h := range r.TopHits {
		switch h.Metric {
		case MetricPi, MetricE, MetricIdentity:
		default:
			return errors.New("hit metric must be one of: pi, e, identity")
		}
	}
	if r.ReportedAt.After(time.Now()) {
		return errors.New("reported at must not be in the future")
	}
	return nil
}
