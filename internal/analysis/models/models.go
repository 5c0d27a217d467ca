// Package models defines risk analysis results and the async jobs that
// produce them.
package models

import (
	"time"

	id "lexdraft/pkg/domain"
)

// RiskLevel grades a clause.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

func (r RiskLevel) Valid() bool {
	switch r {
	case RiskLow, RiskMedium, RiskHigh:
		return true
	}
	return false
}

// Result is one clause's risk assessment. Model records which provider
// produced it, so cached results stay attributable.
type Result struct {
	ClauseID      id.ClauseID `json:"clause_id"`
	RiskLevel     RiskLevel   `json:"risk_level"`
	Issues        []string    `json:"issues"`
	SuggestedText string      `json:"suggested_text,omitempty"`
	Rationale     string      `json:"rationale"`
	Model         string      `json:"model"`
	CreatedAt     time.Time   `json:"created_at"`
}

// JobState tracks an analysis job through the queue.
type JobState string

const (
	JobPending JobState = "pending"
	JobRunning JobState = "running"
	JobDone    JobState = "done"
	JobFailed  JobState = "failed"
)

// Job is one queued clause analysis. Failed jobs keep the error for
// operators; Result is set only in state done.
type Job struct {
	ID         id.AnalysisID `json:"id"`
	TenantID   id.TenantID   `json:"tenant_id"`
	DocumentID id.DocumentID `json:"document_id"`
	VersionID  id.VersionID  `json:"version_id"`
	ClauseID   id.ClauseID   `json:"clause_id"`
	State      JobState      `json:"state"`
	Error      string        `json:"error,omitempty"`
	Result     *Result       `json:"result,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// NewJob queues an analysis for one clause.
func NewJob(tenantID id.TenantID, documentID id.DocumentID, versionID id.VersionID, clauseID id.ClauseID, now time.Time) *Job {
	return &Job{
		ID:         id.NewAnalysisID(),
		TenantID:   tenantID,
		DocumentID: documentID,
		VersionID:  versionID,
		ClauseID:   clauseID,
		State:      JobPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}
