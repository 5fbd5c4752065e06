package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rewired-gh/vtanalysis/internal/models"
	"github.com/rewired-gh/vtanalysis/internal/storage"
)

type fakeFetcher struct {
	mu       sync.Mutex
	analyses map[string]*models.RawAnalysis
	errs     map[string]error
	calls    map[string]int
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		analyses: make(map[string]*models.RawAnalysis),
		errs:     make(map[string]error),
		calls:    make(map[string]int),
	}
}

func (f *fakeFetcher) FetchAnalysis(ctx context.Context, id string) (*models.RawAnalysis, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls[id]++
	if err, ok := f.errs[id]; ok {
		return nil, err
	}
	a, ok := f.analyses[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return a, nil
}

func (f *fakeFetcher) callCount(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[id]
}

func mustStorage(t *testing.T) *storage.Storage {
	t.Helper()
	s, err := storage.New(10, filepath.Join(t.TempDir(), "notified.json"))
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	return s
}

func rawAnalysis(t *testing.T, id string, workflow models.Workflow, ready bool, results any) *models.RawAnalysis {
	t.Helper()
	data, err := json.Marshal(results)
	if err != nil {
		t.Fatalf("Failed to marshal results: %v", err)
	}
	return &models.RawAnalysis{
		ID:        id,
		Workflow:  workflow,
		CreatedAt: time.Now().Add(-time.Hour),
		Ready:     ready,
		Sample:    &models.SampleNested{ID: "s1", Name: "Field 12"},
		Results:   data,
	}
}

func pathoscopeResults() models.PathoscopeResults {
	hit := func(name string, pi float64) models.PathoscopeHit {
		return models.PathoscopeHit{
			ID:   name,
			Name: name,
			Isolates: []models.PathoscopeIsolate{{
				ID:         name + "-iso",
				SourceType: "isolate",
				SourceName: "1",
				Sequences:  []models.PathoscopeSequence{{ID: name + "-seq", Length: 3, Align: [][2]int{{0, 1}}, Pi: pi}},
			}},
		}
	}
	return models.PathoscopeResults{
		ReadCount: 100,
		Hits:      []models.PathoscopeHit{hit("Low", 0.1), hit("High", 0.6), hit("Mid", 0.3)},
	}
}

func TestPoll_ReportsReadyAnalyses(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.analyses["ready"] = rawAnalysis(t, "ready", models.WorkflowPathoscopeBowtie, true, pathoscopeResults())
	fetcher.analyses["pending"] = rawAnalysis(t, "pending", models.WorkflowNuVs, false, models.NuVsResults{})

	s := mustStorage(t)
	m := New(fetcher, s, 2, 2)

	reports, errs, err := m.Poll(context.Background(), []string{"ready", "pending"})
	if err != nil {
		t.Fatalf("Poll failed: %v", err)
	}
	if len(errs) != 0 {
		t.Fatalf("Expected no poll errors, got %v", errs)
	}
	if len(reports) != 1 {
		t.Fatalf("Expected 1 report, got %d", len(reports))
	}

	report := reports[0]
	if report.AnalysisID != "ready" || report.SampleName != "Field 12" {
		t.Errorf("Unexpected report: %+v", report)
	}
	if report.TotalHits != 3 || len(report.TopHits) != 2 {
		t.Errorf("Expected 2 of 3 hits, got %d of %d", len(report.TopHits), report.TotalHits)
	}
	if report.TopHits[0].Name != "High" || report.TopHits[1].Name != "Mid" {
		t.Errorf("Expected hits ranked by pi, got %+v", report.TopHits)
	}
	if err := report.Validate(); err != nil {
		t.Errorf("Report should be valid: %v", err)
	}

	if _, ok := s.Get("ready"); !ok {
		t.Error("Expected ready analysis to be memoized")
	}
	if _, ok := s.Get("pending"); ok {
		t.Error("Pending analysis must not be memoized")
	}
}

func TestPoll_NotifiesOnce(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.analyses["a1"] = rawAnalysis(t, "a1", models.WorkflowNuVs, true, models.NuVsResults{})

	m := New(fetcher, mustStorage(t), 1, 5)

	reports, _, err := m.Poll(context.Background(), []string{"a1"})
	if err != nil || len(reports) != 1 {
		t.Fatalf("Expected 1 report, got %d (err %v)", len(reports), err)
	}
	if err := m.RecordNotified(reports); err != nil {
		t.Fatalf("RecordNotified failed: %v", err)
	}

	reports, _, err = m.Poll(context.Background(), []string{"a1"})
	if err != nil {
		t.Fatalf("Poll failed: %v", err)
	}
	if len(reports) != 0 {
		t.Errorf("Expected no reports after notification, got %d", len(reports))
	}
	if calls := fetcher.callCount("a1"); calls != 1 {
		t.Errorf("Expected 1 fetch, got %d", calls)
	}
}

func TestPoll_UsesMemoUntilNotified(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.analyses["a1"] = rawAnalysis(t, "a1", models.WorkflowAODP, true, []models.AODPResult{})

	m := New(fetcher, mustStorage(t), 1, 5)

	for i := 0; i < 2; i++ {
		reports, _, err := m.Poll(context.Background(), []string{"a1"})
		if err != nil || len(reports) != 1 {
			t.Fatalf("Poll %d: expected 1 report, got %d (err %v)", i, len(reports), err)
		}
	}
	if calls := fetcher.callCount("a1"); calls != 1 {
		t.Errorf("Expected memoized analysis to be fetched once, got %d", calls)
	}
}

func TestPoll_MemoKeepsSampleName(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.analyses["p1"] = rawAnalysis(t, "p1", models.WorkflowPathoscopeBowtie, true, pathoscopeResults())

	m := New(fetcher, mustStorage(t), 1, 5)

	// The first delivery failed, so nothing was recorded as notified.
	for i := 0; i < 2; i++ {
		reports, _, err := m.Poll(context.Background(), []string{"p1"})
		if err != nil || len(reports) != 1 {
			t.Fatalf("Poll %d: expected 1 report, got %d (err %v)", i, len(reports), err)
		}
		if reports[0].SampleName != "Field 12" {
			t.Errorf("Poll %d: expected sample name Field 12, got %q", i, reports[0].SampleName)
		}
	}
	if calls := fetcher.callCount("p1"); calls != 1 {
		t.Errorf("Expected the second poll to use the memo, got %d fetches", calls)
	}
}

func TestPoll_DeduplicatesIDs(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.analyses["a1"] = rawAnalysis(t, "a1", models.WorkflowNuVs, true, models.NuVsResults{})

	m := New(fetcher, mustStorage(t), 2, 5)

	reports, errs, err := m.Poll(context.Background(), []string{"a2x", "a1", "a1"})
	if err != nil {
		t.Fatalf("Poll failed: %v", err)
	}
	if len(reports) != 1 || reports[0].AnalysisID != "a1" {
		t.Errorf("Expected a single report for a1, got %+v", reports)
	}
	if len(errs) != 1 || errs[0].AnalysisID != "a2x" {
		t.Errorf("Expected one error for a2x, got %v", errs)
	}
	if calls := fetcher.callCount("a1"); calls != 1 {
		t.Errorf("Expected a1 to be fetched once, got %d", calls)
	}
}

func TestPending(t *testing.T) {
	s := mustStorage(t)
	s.MarkNotified("done")
	m := New(newFakeFetcher(), s, 1, 5)

	got := m.Pending([]string{"b", "done", "a", "b", "done", "c"})
	want := []string{"b", "a", "c"}
	if len(got) != len(want) {
		t.Fatalf("Pending() = %v, expected %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Pending()[%d] = %q, expected %q", i, got[i], want[i])
		}
	}
}

func TestRecordNotified_SurvivesRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notified.json")
	fetcher := newFakeFetcher()
	fetcher.analyses["a1"] = rawAnalysis(t, "a1", models.WorkflowNuVs, true, models.NuVsResults{})

	first, err := storage.New(10, path)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	m := New(fetcher, first, 1, 5)
	reports, _, err := m.Poll(context.Background(), []string{"a1"})
	if err != nil || len(reports) != 1 {
		t.Fatalf("Expected 1 report, got %d (err %v)", len(reports), err)
	}
	if err := m.RecordNotified(reports); err != nil {
		t.Fatalf("RecordNotified failed: %v", err)
	}

	second, err := storage.New(10, path)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	if err := second.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	restarted := New(fetcher, second, 1, 5)

	reports, _, err = restarted.Poll(context.Background(), []string{"a1"})
	if err != nil {
		t.Fatalf("Poll failed: %v", err)
	}
	if len(reports) != 0 {
		t.Errorf("Expected no reports after restart, got %d", len(reports))
	}
	if calls := fetcher.callCount("a1"); calls != 1 {
		t.Errorf("Expected no fetch after restart, got %d fetches", calls)
	}
}

func TestPoll_CollectsErrors(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.errs["broken"] = errors.New("boom")
	malformed := rawAnalysis(t, "malformed", models.WorkflowNuVs, true, nil)
	malformed.Results = json.RawMessage(`"not an object"`)
	fetcher.analyses["malformed"] = malformed
	fetcher.analyses["ok"] = rawAnalysis(t, "ok", models.WorkflowIimi, true, map[string]any{})

	m := New(fetcher, mustStorage(t), 3, 5)

	reports, errs, err := m.Poll(context.Background(), []string{"broken", "malformed", "ok"})
	if err != nil {
		t.Fatalf("Poll failed: %v", err)
	}
	if len(reports) != 1 || reports[0].AnalysisID != "ok" {
		t.Errorf("Expected a report for ok, got %+v", reports)
	}
	if len(errs) != 2 {
		t.Fatalf("Expected 2 poll errors, got %d", len(errs))
	}
	if errs[0].AnalysisID != "broken" || errs[1].AnalysisID != "malformed" {
		t.Errorf("Unexpected poll errors: %v", errs)
	}
}

func TestPoll_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := New(newFakeFetcher(), mustStorage(t), 1, 5)
	if _, _, err := m.Poll(ctx, []string{"a1"}); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestSummarize_NuVs(t *testing.T) {
	e := func(v float64) *float64 { return &v }
	f := &models.FormattedNuVs{
		ID:       "n1",
		Workflow: models.WorkflowNuVs,
		Results: models.FormattedNuVsResults{Hits: []models.FormattedNuVsHit{
			{ID: 1, E: e(0.5), Names: []string{"RdRp"}},
			{ID: 2},
			{ID: 3, E: e(1e-10), Families: []string{"Potyviridae"}},
			{ID: 4, E: e(0.01)},
		}},
	}

	report := Summarize(f, 5)
	if report.TotalHits != 4 || len(report.TopHits) != 3 {
		t.Fatalf("Expected 3 of 4 hits, got %d of %d", len(report.TopHits), report.TotalHits)
	}

	names := []string{report.TopHits[0].Name, report.TopHits[1].Name, report.TopHits[2].Name}
	expected := []string{"Potyviridae", "Sequence 4", "RdRp"}
	for i := range expected {
		if names[i] != expected[i] {
			t.Errorf("Hit %d: expected %q, got %q", i, expected[i], names[i])
		}
	}
}

func TestSummarize_AODP(t *testing.T) {
	id := func(v float64) *float64 { return &v }
	f := &models.FormattedAODP{
		ID:       "x1",
		Workflow: models.WorkflowAODP,
		Results: []models.FormattedAODPResult{
			{AODPResult: models.AODPResult{Name: "A"}, Identity: id(0.91)},
			{AODPResult: models.AODPResult{Name: "B"}},
			{AODPResult: models.AODPResult{Name: "C"}, Identity: id(0.99)},
		},
	}

	report := Summarize(f, 1)
	if len(report.TopHits) != 1 || report.TopHits[0].Name != "C" || report.TopHits[0].Metric != models.MetricIdentity {
		t.Errorf("Unexpected top hits: %+v", report.TopHits)
	}
	if report.ID == "" {
		t.Error("Expected report ID to be set")
	}
}
