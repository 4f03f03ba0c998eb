package models

import (
	"strings"
	"time"
)

// Bulk import CSV columns
const (
	ColName     = "nombre"
	ColSurname  = "apellido"
	ColEmail    = "email"
	ColIDNumber = "cedula"
	ColPhone    = "telefono"
	ColRoleID   = "rolid"
	ColPassword = "password"
)

// ImportColumns is the expected header, in file order
var ImportColumns = []string{ColName, ColSurname, ColEmail, ColIDNumber, ColPhone, ColRoleID, ColPassword}

// RequiredImportColumns must be present and non-empty for a row to be submitted
var RequiredImportColumns = []string{ColName, ColSurname, ColEmail, ColIDNumber, ColRoleID, ColPassword}

// ImportRow is one data line of a bulk import file, keyed by header name
type ImportRow struct {
	Line   int
	Values map[string]string
}

// Get returns the trimmed value of column col
func (r ImportRow) Get(col string) string {
	return strings.TrimSpace(r.Values[col])
}

// Raw returns the value of column col exactly as written
func (r ImportRow) Raw(col string) string {
	return r.Values[col]
}

// Valid reports whether every required column is non-empty
func (r ImportRow) Valid(required []string) bool {
	for _, col := range required {
		if r.Get(col) == "" {
			return false
		}
	}
	return true
}

// ImportFailure is a row rejected by the user store
type ImportFailure struct {
	Line    int    `json:"line"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

// Reason formats the failure as "email: message"
func (f ImportFailure) Reason() string {
	return f.Email + ": " + f.Message
}

// ImportOutcome summarises one bulk import batch.
// Skipped counts rows dropped before submission; they are never
// part of Accepted or Rejected.
type ImportOutcome struct {
	RunID    string          `json:"runId,omitempty"`
	Accepted int             `json:"accepted"`
	Rejected int             `json:"rejected"`
	Skipped  int             `json:"skipped"`
	Failures []ImportFailure `json:"failures"`
	Reasons  []string        `json:"reasons"`
}

// Submitted returns the number of rows sent to the store
func (o *ImportOutcome) Submitted() int {
	return o.Accepted + o.Rejected
}

// RecordFailure counts a rejected row
func (o *ImportOutcome) RecordFailure(f ImportFailure) {
	o.Rejected++
	o.Failures = append(o.Failures, f)
	o.Reasons = append(o.Reasons, f.Reason())
}

// ImportRunStatus is the terminal state of an import run
type ImportRunStatus string

const (
	ImportRunCompleted ImportRunStatus = "completed"
	ImportRunCancelled ImportRunStatus = "cancelled"
)

// ImportRun is the persisted record of an executed batch
type ImportRun struct {
	ID             string          `json:"id" db:"id"`
	IdempotencyKey string          `json:"idempotencyKey,omitempty" db:"idempotency_key"`
	FileName       string          `json:"fileName" db:"file_name"`
	Status         ImportRunStatus `json:"status" db:"status"`
	AcceptedCount  int             `json:"accepted" db:"accepted_count"`
	RejectedCount  int             `json:"rejected" db:"rejected_count"`
	SkippedCount   int             `json:"skipped" db:"skipped_count"`
	DurationMs     int64           `json:"durationMs" db:"duration_ms"`
	StartedAt      time.Time       `json:"startedAt" db:"started_at"`
	CompletedAt    time.Time       `json:"completedAt" db:"completed_at"`
}

// ImportRunResponse is the API view of a run with its first failures
type ImportRunResponse struct {
	ImportRun
	Failures    []ImportFailure `json:"failures,omitempty"`
	ErrorReport string          `json:"errorReportUrl,omitempty"`
}

// Outcome rebuilds the batch outcome from a stored run and its failures
func (r *ImportRun) Outcome(failures []ImportFailure) *ImportOutcome {
	out := &ImportOutcome{
		RunID:    r.ID,
		Accepted: r.AcceptedCount,
		Skipped:  r.SkippedCount,
		Failures: []ImportFailure{},
		Reasons:  []string{},
	}
	for _, f := range failures {
		out.RecordFailure(f)
	}
	// the stored count wins if failures were truncated
	out.Rejected = r.RejectedCount
	return out
}
