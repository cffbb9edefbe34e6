package services

import (
	"encoding/json"
	"io"
	"time"

	"github.com/fieo/orgregistry/modules/registry/domain/entities"
	"github.com/fieo/orgregistry/modules/registry/domain/schema"
)

// Skip is one rejected source row.
type Skip struct {
	Line   int        `json:"line"`
	Key    string     `json:"key,omitempty"`
	Reason SkipReason `json:"reason"`
	Fields []string   `json:"fields,omitempty"`
	Detail string     `json:"detail,omitempty"`
}

// StageReport is the outcome of one kind's ingestion.
type StageReport struct {
	Kind              schema.Kind `json:"kind"`
	Source            string      `json:"source,omitempty"`
	Status            StageStatus `json:"status"`
	Error             string      `json:"error,omitempty"`
	Rows              int         `json:"rows"`
	Created           int         `json:"created"`
	Updated           int         `json:"updated"`
	Unchanged         int         `json:"unchanged"`
	Malformed         int         `json:"malformed"`
	DanglingReference int         `json:"dangling_reference"`
	Duplicate         int         `json:"duplicate"`
	Skips             []Skip      `json:"skips"`
	SkipsTruncated    bool        `json:"skips_truncated,omitempty"`
	DurationMS        int64       `json:"duration_ms"`

	maxSkips int
}

func newStageReport(kind schema.Kind, maxSkips int) *StageReport {
	return &StageReport{Kind: kind, Status: StatusNotRun, Skips: []Skip{}, maxSkips: maxSkips}
}

// skip counts s under its reason. The detailed list is capped, the counts are not.
func (r *StageReport) skip(s Skip) {
	switch s.Reason {
	case ReasonMalformed:
		r.Malformed++
	case ReasonDanglingReference:
		r.DanglingReference++
	case ReasonDuplicate:
		r.Duplicate++
	}
	if len(r.Skips) < r.maxSkips {
		r.Skips = append(r.Skips, s)
	} else {
		r.SkipsTruncated = true
	}
}

func (r *StageReport) addUpsert(res entities.UpsertResult) {
	r.Created += res.Created
	r.Updated += res.Updated
	r.Unchanged += res.Unchanged
}

func (r *StageReport) fail(status StageStatus, err error) {
	r.Status = status
	if err != nil {
		r.Error = err.Error()
	}
}

// Skipped is the number of rows not written.
func (r *StageReport) Skipped() int { return r.Malformed + r.DanglingReference + r.Duplicate }

// Outcomes returns the row counters keyed by outcome name.
func (r *StageReport) Outcomes() map[string]int {
	return map[string]int{
		"created":            r.Created,
		"updated":            r.Updated,
		"unchanged":          r.Unchanged,
		"malformed":          r.Malformed,
		"dangling_reference": r.DanglingReference,
		"duplicate":          r.Duplicate,
	}
}

// LinkReport is the outcome of resolving one self-referential field.
type LinkReport struct {
	Field      string      `json:"field"`
	Status     StageStatus `json:"status"`
	Error      string      `json:"error,omitempty"`
	Resolved   int         `json:"resolved"`
	Unresolved int         `json:"unresolved"`
	Cleared    int         `json:"cleared"`
	Changed    int         `json:"changed"`
}

func (r *LinkReport) Outcomes() map[string]int {
	return map[string]int{
		"resolved":   r.Resolved,
		"unresolved": r.Unresolved,
		"cleared":    r.Cleared,
		"changed":    r.Changed,
	}
}

// GrantReport is the outcome of one access rule.
type GrantReport struct {
	Role     string      `json:"role"`
	Status   StageStatus `json:"status"`
	Eligible int         `json:"eligible"`
	Granted  int         `json:"granted"`
}

// Report is the structured result of a run.
type Report struct {
	RunID      string         `json:"run_id"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Stages     []*StageReport `json:"stages"`
	Links      []*LinkReport  `json:"links"`
	Grants     []*GrantReport `json:"grants"`
	Error      string         `json:"error,omitempty"`
}

func newReport(runID string, started time.Time, maxSkips int) *Report {
	r := &Report{
		RunID:     runID,
		StartedAt: started,
		Stages:    make([]*StageReport, 0, len(schema.Order)),
		Links:     []*LinkReport{},
		Grants:    []*GrantReport{},
	}
	for _, kind := range schema.Order {
		r.Stages = append(r.Stages, newStageReport(kind, maxSkips))
	}
	return r
}

// Stage returns the report of kind, nil when the kind is unknown.
func (r *Report) Stage(kind schema.Kind) *StageReport {
	for _, s := range r.Stages {
		if s.Kind == kind {
			return s
		}
	}
	return nil
}

// SchemaFailed reports whether any kind failed its required-column mapping.
func (r *Report) SchemaFailed() bool {
	for _, s := range r.Stages {
		if s.Status == StatusSchemaError {
			return true
		}
	}
	return false
}

// RowsSkipped is the number of rows left out across every kind.
func (r *Report) RowsSkipped() int {
	n := 0
	for _, s := range r.Stages {
		n += s.Skipped()
	}
	return n
}

// GrantsByRole sums new grants per role.
func (r *Report) GrantsByRole() map[string]int {
	out := make(map[string]int, len(r.Grants))
	for _, g := range r.Grants {
		out[g.Role] += g.Granted
	}
	return out
}

func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(r)
}
