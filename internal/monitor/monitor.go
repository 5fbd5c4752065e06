// Package monitor watches analyses until they are ready and reports on them.
//
// Each poll fetches every watched analysis that has not been reported yet,
// formats it, memoizes ready results, and turns each newly ready analysis into
// a Report listing its top hits:
//
//	pathoscope  hits ranked by abundance (pi), highest first
//	nuvs        hits ranked by minimum E-value, lowest first
//	aodp        results ranked by best identity, highest first
//
// Analyses of other workflows are reported with no hits.
package monitor

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/rewired-gh/vtanalysis/internal/analysis"
	"github.com/rewired-gh/vtanalysis/internal/logger"
	"github.com/rewired-gh/vtanalysis/internal/models"
	"github.com/rewired-gh/vtanalysis/internal/storage"
)

// Fetcher retrieves raw analysis documents.
type Fetcher interface {
	FetchAnalysis(ctx context.Context, id string) (*models.RawAnalysis, error)
}

// Monitor handles analysis polling and report generation
type Monitor struct {
	fetcher     Fetcher
	storage     *storage.Storage
	concurrency int
	topK        int
}

// New creates a new Monitor instance
func New(f Fetcher, s *storage.Storage, concurrency, topK int) *Monitor {
	if concurrency < 1 {
		concurrency = 1
	}
	if topK < 1 {
		topK = 1
	}
	return &Monitor{
		fetcher:     f,
		storage:     s,
		concurrency: concurrency,
		topK:        topK,
	}
}

// PollError represents a per-analysis error during polling
type PollError struct {
	AnalysisID string
	Err        error
}

func (e PollError) Error() string {
	return fmt.Sprintf("poll error for analysis %s: %v", e.AnalysisID, e.Err)
}

func (e PollError) Unwrap() error {
	return e.Err
}

type pollResult struct {
	report *models.Report
	err    error
}

// Pending returns the IDs that have not been reported yet, without duplicates,
// in the order given.
func (m *Monitor) Pending(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	pending := make([]string, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true

		if m.storage.Notified(id) {
			logger.Debug("Analysis %s already reported, skipping", id)
			continue
		}
		pending = append(pending, id)
	}
	return pending
}

// Poll checks the pending analyses among ids and returns a report for each one
// that became ready. Failures for single analyses are returned as PollErrors;
// the error result is only set when ctx is done.
func (m *Monitor) Poll(ctx context.Context, ids []string) ([]models.Report, []PollError, error) {
	pending := m.Pending(ids)
	results := make([]pollResult, len(pending))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.concurrency)

	for i, id := range pending {
		g.Go(func() error {
			report, err := m.check(gctx, id)
			results[i] = pollResult{report: report, err: err}
			return nil
		})
	}

	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	var (
		reports []models.Report
		errs    []PollError
	)
	for i, r := range results {
		if r.err != nil {
			errs = append(errs, PollError{AnalysisID: pending[i], Err: r.err})
			continue
		}
		if r.report != nil {
			reports = append(reports, *r.report)
		}
	}

	return reports, errs, nil
}

// check returns a report for the analysis if it is ready, or nil if it is not.
func (m *Monitor) check(ctx context.Context, id string) (*models.Report, error) {
	if entry, ok := m.storage.Get(id); ok {
		logger.Debug("Analysis %s served from memo", id)
		report := Summarize(entry.Formatted, m.topK)
		report.SampleName = entry.SampleName
		return &report, nil
	}

	raw, err := m.fetcher.FetchAnalysis(ctx, id)
	if err != nil {
		return nil, err
	}

	if !raw.Ready {
		logger.Debug("Analysis %s (%s) not ready yet", id, raw.Workflow)
		return nil, nil
	}

	formatted, err := analysis.Format(raw)
	if err != nil {
		return nil, err
	}

	var sampleName string
	if raw.Sample != nil {
		sampleName = raw.Sample.Name
	}
	m.storage.Put(formatted, sampleName)

	report := Summarize(formatted, m.topK)
	report.SampleName = sampleName
	return &report, nil
}

// RecordNotified marks the analyses of the given reports as reported and
// persists the notified set.
func (m *Monitor) RecordNotified(reports []models.Report) error {
	for _, r := range reports {
		m.storage.MarkNotified(r.AnalysisID)
	}
	if err := m.storage.Save(); err != nil {
		return fmt.Errorf("failed to save notified analyses: %w", err)
	}
	return nil
}

// MemoSize returns the number of memoized analyses.
func (m *Monitor) MemoSize() int {
	return m.storage.Len()
}

// Summarize builds a report listing the top K hits of a formatted analysis.
func Summarize(f models.Formatted, topK int) models.Report {
	report := models.Report{
		ID:         uuid.New().String(),
		AnalysisID: f.AnalysisID(),
		Workflow:   f.AnalysisWorkflow(),
		ReportedAt: time.Now(),
	}

	var hits []models.HitSummary

	switch v := f.(type) {
	case *models.FormattedPathoscope:
		report.CreatedAt = v.CreatedAt
		for _, hit := range v.Results.Hits {
			hits = append(hits, models.HitSummary{Name: hit.Name, Metric: models.MetricPi, Value: hit.Pi})
		}
		slices.SortStableFunc(hits, func(a, b models.HitSummary) int { return cmp.Compare(b.Value, a.Value) })
		report.TotalHits = len(v.Results.Hits)

	case *models.FormattedNuVs:
		report.CreatedAt = v.CreatedAt
		for _, hit := range v.Results.Hits {
			if hit.E == nil {
				continue
			}
			hits = append(hits, models.HitSummary{Name: nuvsHitName(hit), Metric: models.MetricE, Value: *hit.E})
		}
		slices.SortStableFunc(hits, func(a, b models.HitSummary) int { return cmp.Compare(a.Value, b.Value) })
		report.TotalHits = len(v.Results.Hits)

	case *models.FormattedAODP:
		report.CreatedAt = v.CreatedAt
		for _, result := range v.Results {
			if result.Identity == nil {
				continue
			}
			hits = append(hits, models.HitSummary{Name: result.Name, Metric: models.MetricIdentity, Value: *result.Identity})
		}
		slices.SortStableFunc(hits, func(a, b models.HitSummary) int { return cmp.Compare(b.Value, a.Value) })
		report.TotalHits = len(v.Results)

	case *models.Unformatted:
		report.CreatedAt = v.Raw.CreatedAt
	}

	if len(hits) > topK {
		hits = hits[:topK]
	}
	report.TopHits = hits

	return report
}

func nuvsHitName(hit models.FormattedNuVsHit) string {
	if len(hit.Names) > 0 {
		return hit.Names[0]
	}
	if len(hit.Families) > 0 {
		return hit.Families[0]
	}
	return fmt.Sprintf("Sequence %d", hit.ID)
}
