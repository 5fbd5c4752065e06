// Package models defines the records exchanged with the analysis platform and the
// render-ready records produced from them.
//
// Raw records mirror the JSON returned by the platform's analysis endpoints. The
// workflow-specific part of a raw analysis (its results) is kept as undecoded JSON
// until a formatter for that workflow decodes it.
//
// Formatted records are a closed set of variants behind the Formatted interface:
// FormattedPathoscope, FormattedNuVs, FormattedAODP and Unformatted. Unformatted
// carries a raw record through untouched for workflows that have no shaping.
package models

import (
	"encoding/json"
	"errors"
	"time"
)

// Workflow identifies the analysis pipeline that produced a result.
type Workflow string

const (
	WorkflowPathoscope       Workflow = "pathoscope"
	WorkflowPathoscopeBowtie Workflow = "pathoscope_bowtie"
	WorkflowNuVs             Workflow = "nuvs"
	WorkflowAODP             Workflow = "aodp"
	WorkflowIimi             Workflow = "iimi"
)

// IsPathoscope reports whether w is one of the pathoscope variants.
func (w Workflow) IsPathoscope() bool {
	return w == WorkflowPathoscope || w == WorkflowPathoscopeBowtie
}

// UserNested is the minimal user record embedded in other documents.
type UserNested struct {
	ID     string `json:"id"`
	Handle string `json:"handle"`
}

// CacheNested references the sample cache an analysis was run against.
type CacheNested struct {
	ID  string `json:"id"`
	Key string `json:"key,omitempty"`
}

// IndexNested references the reference index used by an analysis.
type IndexNested struct {
	ID      string `json:"id"`
	Version int    `json:"version"`
}

// ReferenceNested references the reference an analysis was run against.
type ReferenceNested struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	DataType string `json:"data_type,omitempty"`
}

// SampleNested references the sample an analysis belongs to.
type SampleNested struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// SubtractionNested references a host subtraction applied to an analysis.
type SubtractionNested struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RawAnalysis is an analysis document as returned by /api/analyses/{id}.
// Results is decoded by the formatter matching Workflow. Source holds the
// document it was decoded from, members this type does not model included.
type RawAnalysis struct {
	ID           string              `json:"id"`
	Workflow     Workflow            `json:"workflow"`
	CreatedAt    time.Time           `json:"created_at"`
	User         UserNested          `json:"user"`
	Ready        bool                `json:"ready"`
	Cache        *CacheNested        `json:"cache,omitempty"`
	Index        *IndexNested        `json:"index,omitempty"`
	Reference    *ReferenceNested    `json:"reference,omitempty"`
	Sample       *SampleNested       `json:"sample,omitempty"`
	Subtractions []SubtractionNested `json:"subtractions,omitempty"`
	Results      json.RawMessage     `json:"results,omitempty"`

	Source json.RawMessage `json:"-"`
}

func (a *RawAnalysis) UnmarshalJSON(data []byte) error {
	type plain RawAnalysis
	if err := json.Unmarshal(data, (*plain)(a)); err != nil {
		return err
	}
	a.Source = keep(data)
	return nil
}

// Validate checks the identity fields every analysis document must carry.
func (a *RawAnalysis) Validate() error {
	if a.ID == "" {
		return errors.New("analysis ID must not be empty")
	}
	if a.Workflow == "" {
		return errors.New("analysis workflow must not be empty")
	}
	if a.CreatedAt.IsZero() {
		return errors.New("analysis created_at must be set")
	}
	return nil
}

// PathoscopeResults is the results payload of a pathoscope analysis.
type PathoscopeResults struct {
	Hits            []PathoscopeHit `json:"hits"`
	ReadCount       int             `json:"read_count"`
	SubtractedCount int             `json:"subtracted_count"`
}

// PathoscopeHit is one OTU detected by pathoscope.
type PathoscopeHit struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	Abbreviation string              `json:"abbreviation"`
	Version      int                 `json:"version"`
	Isolates     []PathoscopeIsolate `json:"isolates"`
}

// PathoscopeIsolate is an isolate of a detected OTU.
type PathoscopeIsolate struct {
	ID         string               `json:"id"`
	Default    bool                 `json:"default"`
	SourceType string               `json:"source_type"`
	SourceName string               `json:"source_name"`
	Sequences  []PathoscopeSequence `json:"sequences"`
}

// PathoscopeSequence is a reference sequence with its compressed depth profile.
// Align holds (position, depth) breakpoints; Pi is the relative abundance.
type PathoscopeSequence struct {
	ID         string   `json:"id"`
	Accession  string   `json:"accession,omitempty"`
	Definition string   `json:"definition,omitempty"`
	Length     int      `json:"length"`
	Align      [][2]int `json:"align"`
	Pi         float64  `json:"pi"`
}

// NuVsResults is the results payload of a NuVs analysis.
type NuVsResults struct {
	Hits []NuVsHit `json:"hits"`
}

// NuVsHit is an assembled contig with its predicted ORFs.
type NuVsHit struct {
	Index    int             `json:"index"`
	Sequence string          `json:"sequence"`
	Orfs     []NuVsOrf       `json:"orfs"`
	Blast    json.RawMessage `json:"blast,omitempty"`
}

// NuVsOrf is an open reading frame and its HMM hits.
type NuVsOrf struct {
	Index  int          `json:"index"`
	Frame  int          `json:"frame"`
	Strand int          `json:"strand"`
	Pos    [2]int       `json:"pos"`
	Nuc    string       `json:"nuc,omitempty"`
	Pro    string       `json:"pro,omitempty"`
	Hits   []NuVsOrfHit `json:"hits"`
}

// NuVsOrfHit is an HMM match against an ORF.
type NuVsOrfHit struct {
	Hit      string         `json:"hit"`
	Cluster  int            `json:"cluster"`
	FullE    float64        `json:"full_e"`
	BestE    float64        `json:"best_e"`
	Score    float64        `json:"full_score"`
	Families map[string]int `json:"families"`
	Names    []string       `json:"names"`
}

// AODPResult is one OTU matched by AODP. Members not modelled here are kept
// in Source and written back out when the result is encoded.
type AODPResult struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Abbreviation string        `json:"abbreviation,omitempty"`
	Isolates     []AODPIsolate `json:"isolates"`

	Source json.RawMessage `json:"-"`
}

func (r *AODPResult) UnmarshalJSON(data []byte) error {
	type plain AODPResult
	if err := json.Unmarshal(data, (*plain)(r)); err != nil {
		return err
	}
	r.Source = keep(data)
	return nil
}

func (r AODPResult) MarshalJSON() ([]byte, error) {
	type plain AODPResult
	return overlay(r.Source, plain(r))
}

// AODPIsolate is an isolate of an AODP match.
type AODPIsolate struct {
	ID         string         `json:"id"`
	SourceType string         `json:"source_type,omitempty"`
	SourceName string         `json:"source_name,omitempty"`
	Sequences  []AODPSequence `json:"sequences"`

	Source json.RawMessage `json:"-"`
}

func (i *AODPIsolate) UnmarshalJSON(data []byte) error {
	type plain AODPIsolate
	if err := json.Unmarshal(data, (*plain)(i)); err != nil {
		return err
	}
	i.Source = keep(data)
	return nil
}

func (i AODPIsolate) MarshalJSON() ([]byte, error) {
	type plain AODPIsolate
	return overlay(i.Source, plain(i))
}

// AODPSequence is a reference sequence and the read hits against it.
type AODPSequence struct {
	ID        string    `json:"id"`
	Accession string    `json:"accession,omitempty"`
	Length    int       `json:"length,omitempty"`
	Hits      []AODPHit `json:"hits"`

	Source json.RawMessage `json:"-"`
}

func (q *AODPSequence) UnmarshalJSON(data []byte) error {
	type plain AODPSequence
	if err := json.Unmarshal(data, (*plain)(q)); err != nil {
		return err
	}
	q.Source = keep(data)
	return nil
}

func (q AODPSequence) MarshalJSON() ([]byte, error) {
	type plain AODPSequence
	return overlay(q.Source, plain(q))
}

// AODPHit is one oligonucleotide match with its identity.
type AODPHit struct {
	Identity    float64 `json:"identity"`
	MinIdentity float64 `json:"min_identity,omitempty"`
	ReadCount   int     `json:"read_count,omitempty"`

	Source json.RawMessage `json:"-"`
}

func (h *AODPHit) UnmarshalJSON(data []byte) error {
	type plain AODPHit
	if err := json.Unmarshal(data, (*plain)(h)); err != nil {
		return err
	}
	h.Source = keep(data)
	return nil
}

func (h AODPHit) MarshalJSON() ([]byte, error) {
	type plain AODPHit
	return overlay(h.Source, plain(h))
}
