package models

import (
	"encoding/json"
	"time"
)

// Formatted is a render-ready analysis. The concrete type tells which shaping
// was applied; use a type switch to handle each variant.
type Formatted interface {
	AnalysisID() string
	AnalysisWorkflow() Workflow
	IsReady() bool

	formatted()
}

// FormattedPathoscopeSequence is a pathoscope sequence with its dense depth array.
type FormattedPathoscopeSequence struct {
	PathoscopeSequence
	Filled []int   `json:"filled"`
	Reads  float64 `json:"reads"`
}

// FormattedPathoscopeIsolate carries the aggregate statistics of an isolate's sequences.
// Sequences are sorted by length ascending and Filled is parallel to them.
type FormattedPathoscopeIsolate struct {
	ID         string                        `json:"id"`
	Default    bool                          `json:"default"`
	SourceType string                        `json:"source_type"`
	SourceName string                        `json:"source_name"`
	Name       string                        `json:"name"`
	Sequences  []FormattedPathoscopeSequence `json:"sequences"`
	Filled     [][]int                       `json:"filled"`
	Coverage   float64                       `json:"coverage"`
	Depth      int                           `json:"depth"`
	Pi         float64                       `json:"pi"`
	MaxDepth   int                           `json:"maxDepth"`
}

// GenomeLength is the number of positions across all of the isolate's sequences.
func (i *FormattedPathoscopeIsolate) GenomeLength() int {
	n := 0
	for _, f := range i.Filled {
		n += len(f)
	}
	return n
}

// FormattedPathoscopeHit is an OTU with statistics rolled up from its isolates.
// Isolates are sorted by coverage descending.
type FormattedPathoscopeHit struct {
	ID              string                       `json:"id"`
	Name            string                       `json:"name"`
	Abbreviation    string                       `json:"abbreviation"`
	Version         int                          `json:"version"`
	Isolates        []FormattedPathoscopeIsolate `json:"isolates"`
	Filled          [][]int                      `json:"filled"`
	Pi              float64                      `json:"pi"`
	Coverage        float64                      `json:"coverage"`
	Depth           int                          `json:"depth"`
	IsolateNames    []string                     `json:"isolateNames"`
	MaxGenomeLength int                          `json:"maxGenomeLength"`
	MaxDepth        int                          `json:"maxDepth"`
	Reads           float64                      `json:"reads"`
}

// FormattedPathoscopeResults holds the shaped hits and global read counts.
type FormattedPathoscopeResults struct {
	Hits            []FormattedPathoscopeHit `json:"hits"`
	ReadCount       int                      `json:"readCount"`
	SubtractedCount int                      `json:"subtractedCount"`
}

// FormattedPathoscope is a shaped pathoscope analysis. Only the listed document
// fields survive shaping.
type FormattedPathoscope struct {
	CreatedAt    time.Time                  `json:"created_at"`
	ID           string                     `json:"id"`
	Index        *IndexNested               `json:"index,omitempty"`
	Reference    *ReferenceNested           `json:"reference,omitempty"`
	Ready        bool                       `json:"ready"`
	Results      FormattedPathoscopeResults `json:"results"`
	Subtractions []SubtractionNested        `json:"subtractions,omitempty"`
	User         UserNested                 `json:"user"`
	Workflow     Workflow                   `json:"workflow"`
}

func (f *FormattedPathoscope) AnalysisID() string         { return f.ID }
func (f *FormattedPathoscope) AnalysisWorkflow() Workflow { return f.Workflow }
func (f *FormattedPathoscope) IsReady() bool              { return f.Ready }
func (*FormattedPathoscope) formatted()                   {}

// FormattedNuVsHit is a NuVs contig with its ORF annotations summarized.
// E is nil when no ORF has a hit.
type FormattedNuVsHit struct {
	NuVsHit
	ID                int      `json:"id"`
	AnnotatedOrfCount int      `json:"annotatedOrfCount"`
	E                 *float64 `json:"e,omitempty"`
	Families          []string `json:"families"`
	Names             []string `json:"names"`
}

// FormattedNuVsResults holds the shaped NuVs hits.
type FormattedNuVsResults struct {
	Hits []FormattedNuVsHit `json:"hits"`
}

// FormattedNuVs is a shaped NuVs analysis.
type FormattedNuVs struct {
	Cache             *CacheNested         `json:"cache,omitempty"`
	CreatedAt         time.Time            `json:"created_at"`
	ID                string               `json:"id"`
	Ready             bool                 `json:"ready"`
	Results           FormattedNuVsResults `json:"results"`
	User              UserNested           `json:"user"`
	Workflow          Workflow             `json:"workflow"`
	MaxSequenceLength int                  `json:"maxSequenceLength"`
}

func (f *FormattedNuVs) AnalysisID() string         { return f.ID }
func (f *FormattedNuVs) AnalysisWorkflow() Workflow { return f.Workflow }
func (f *FormattedNuVs) IsReady() bool              { return f.Ready }
func (*FormattedNuVs) formatted()                   {}

// FormattedAODPSequence lists the identities of every hit against a sequence.
type FormattedAODPSequence struct {
	AODPSequence
	Identities []float64 `json:"identities"`
}

func (q FormattedAODPSequence) MarshalJSON() ([]byte, error) {
	base, err := q.AODPSequence.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return overlay(base, struct {
		Identities []float64 `json:"identities"`
	}{q.Identities})
}

func (q *FormattedAODPSequence) UnmarshalJSON(data []byte) error {
	if err := q.AODPSequence.UnmarshalJSON(data); err != nil {
		return err
	}
	var rollup struct {
		Identities []float64 `json:"identities"`
	}
	if err := json.Unmarshal(data, &rollup); err != nil {
		return err
	}
	q.Identities = rollup.Identities
	return nil
}

// FormattedAODPIsolate rolls up the identities of its sequences. Sequences
// shadows the raw sequences of the embedded isolate.
type FormattedAODPIsolate struct {
	AODPIsolate
	Sequences  []FormattedAODPSequence `json:"sequences"`
	Identities []float64               `json:"identities"`
}

type aodpIsolateRollup struct {
	Sequences  []FormattedAODPSequence `json:"sequences"`
	Identities []float64               `json:"identities"`
}

func (i FormattedAODPIsolate) MarshalJSON() ([]byte, error) {
	base, err := i.AODPIsolate.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return overlay(base, aodpIsolateRollup{Sequences: i.Sequences, Identities: i.Identities})
}

func (i *FormattedAODPIsolate) UnmarshalJSON(data []byte) error {
	if err := i.AODPIsolate.UnmarshalJSON(data); err != nil {
		return err
	}
	var rollup aodpIsolateRollup
	if err := json.Unmarshal(data, &rollup); err != nil {
		return err
	}
	i.Sequences, i.Identities = rollup.Sequences, rollup.Identities
	return nil
}

// FormattedAODPResult rolls up the identities of its isolates. Identity is the
// best identity found, or nil when there were no hits.
type FormattedAODPResult struct {
	AODPResult
	Isolates   []FormattedAODPIsolate `json:"isolates"`
	Identities []float64              `json:"identities"`
	Identity   *float64               `json:"identity,omitempty"`
}

type aodpResultRollup struct {
	Isolates   []FormattedAODPIsolate `json:"isolates"`
	Identities []float64              `json:"identities"`
	Identity   *float64               `json:"identity,omitempty"`
}

func (r FormattedAODPResult) MarshalJSON() ([]byte, error) {
	base, err := r.AODPResult.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return overlay(base, aodpResultRollup{Isolates: r.Isolates, Identities: r.Identities, Identity: r.Identity})
}

func (r *FormattedAODPResult) UnmarshalJSON(data []byte) error {
	if err := r.AODPResult.UnmarshalJSON(data); err != nil {
		return err
	}
	var rollup aodpResultRollup
	if err := json.Unmarshal(data, &rollup); err != nil {
		return err
	}
	r.Isolates, r.Identities, r.Identity = rollup.Isolates, rollup.Identities, rollup.Identity
	return nil
}

// FormattedAODP is a shaped AODP analysis. All document fields are kept,
// including those in Source that are not modelled.
type FormattedAODP struct {
	ID           string                `json:"id"`
	Workflow     Workflow              `json:"workflow"`
	CreatedAt    time.Time             `json:"created_at"`
	User         UserNested            `json:"user"`
	Ready        bool                  `json:"ready"`
	Cache        *CacheNested          `json:"cache,omitempty"`
	Index        *IndexNested          `json:"index,omitempty"`
	Reference    *ReferenceNested      `json:"reference,omitempty"`
	Sample       *SampleNested         `json:"sample,omitempty"`
	Subtractions []SubtractionNested   `json:"subtractions,omitempty"`
	Results      []FormattedAODPResult `json:"results"`

	Source json.RawMessage `json:"-"`
}

func (f *FormattedAODP) MarshalJSON() ([]byte, error) {
	type plain FormattedAODP
	return overlay(f.Source, (*plain)(f))
}

func (f *FormattedAODP) AnalysisID() string         { return f.ID }
func (f *FormattedAODP) AnalysisWorkflow() Workflow { return f.Workflow }
func (f *FormattedAODP) IsReady() bool              { return f.Ready }
func (*FormattedAODP) formatted()                   {}

// Unformatted passes a raw analysis through without shaping. It is returned for
// workflows with no formatter and for pathoscope analyses without hits.
type Unformatted struct {
	Raw *RawAnalysis
}

func (u *Unformatted) AnalysisID() string         { return u.Raw.ID }
func (u *Unformatted) AnalysisWorkflow() Workflow { return u.Raw.Workflow }
func (u *Unformatted) IsReady() bool              { return u.Raw.Ready }
func (*Unformatted) formatted()                   {}

// MarshalJSON writes the document the raw analysis was decoded from with every
// member intact. A raw analysis built in code is encoded from its fields.
func (u *Unformatted) MarshalJSON() ([]byte, error) {
	if len(u.Raw.Source) > 0 {
		return u.Raw.Source, nil
	}
	return json.Marshal(u.Raw)
}
