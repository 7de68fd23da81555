// Package model contains domain models passed between layers.
package model

import "strings"

// Status is the review state of an intern, as stored by the backend.
type Status string

const (
	StatusPending  Status = "Pending"
	StatusApproved Status = "Approve"
	StatusRejected Status = "Rejected"
)

// Statuses lists the statuses in display order.
var Statuses = []Status{StatusPending, StatusApproved, StatusRejected}

// ParseStatus accepts the backend spelling plus "approved", case-insensitively.
func ParseStatus(s string) (Status, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending":
		return StatusPending, true
	case "approve", "approved":
		return StatusApproved, true
	case "rejected", "reject":
		return StatusRejected, true
	}
	return "", false
}

// SubScores holds the six performance sub-metrics. Any of them may be absent.
type SubScores struct {
	TaskCompletion    *float64 `json:"task_completion,omitempty" validate:"omitempty,gte=0,lte=100"`
	TaskQuality       *float64 `json:"task_quality,omitempty" validate:"omitempty,gte=0,lte=100"`
	DeadlineAdherence *float64 `json:"deadline_adherence,omitempty" validate:"omitempty,gte=0,lte=100"`
	Attendance        *float64 `json:"attendance,omitempty" validate:"omitempty,gte=0,lte=100"`
	MentorFeedback    *float64 `json:"mentor_feedback,omitempty" validate:"omitempty,gte=0,lte=100"`
	Communication     *float64 `json:"communication,omitempty" validate:"omitempty,gte=0,lte=100"`
}

// Values returns the sub-metrics in a fixed order.
func (s SubScores) Values() []*float64 {
	return []*float64{
		s.TaskCompletion,
		s.TaskQuality,
		s.DeadlineAdherence,
		s.Attendance,
		s.MentorFeedback,
		s.Communication,
	}
}

// Intern is the backend's intern record. The dashboard only holds
// short-lived copies of it.
type Intern struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	Department      string     `json:"department"`
	Course          string     `json:"course,omitempty"`
	Mentor          string     `json:"mentor,omitempty"`
	Score           *float64   `json:"score,omitempty"`
	Scores          *SubScores `json:"scores,omitempty"`
	Status          Status     `json:"status"`
	IsActive        bool       `json:"is_active"`
	ComplianceIssue bool       `json:"compliance_issue"`
	DisciplineIssue bool       `json:"discipline_issue"`
	LORGenerated    bool       `json:"lor_generated"`
	LORSent         bool       `json:"lor_sent"`
}

// HasIssues reports whether a compliance or discipline flag is raised.
func (i *Intern) HasIssues() bool {
	return i.ComplianceIssue || i.DisciplineIssue
}

// InternInput is the create/update form sent to the backend.
type InternInput struct {
	Name            string     `json:"name" validate:"required,max=120"`
	Email           string     `json:"email" validate:"required,email"`
	Department      string     `json:"department" validate:"required,max=80"`
	Course          string     `json:"course,omitempty" validate:"max=120"`
	Mentor          string     `json:"mentor,omitempty" validate:"max=120"`
	Score           *float64   `json:"score,omitempty" validate:"omitempty,gte=0,lte=100"`
	Scores          *SubScores `json:"scores,omitempty"`
	Status          Status     `json:"status,omitempty" validate:"omitempty,oneof=Pending Approve Rejected"`
	IsActive        *bool      `json:"is_active,omitempty"`
	ComplianceIssue *bool      `json:"compliance_issue,omitempty"`
	DisciplineIssue *bool      `json:"discipline_issue,omitempty"`
}

// Float returns a pointer to v. Handy for optional scores.
func Float(v float64) *float64 { return &v }
