package model

import (
	"strings"
	"time"
)

// OpportunityStage represents the sales stage of an opportunity.
type OpportunityStage string

const (
	StageIdentified OpportunityStage = "identified"
	StageQualified  OpportunityStage = "qualified"
	StageInProgress OpportunityStage = "in-progress"
	StageClosed     OpportunityStage = "closed"
)

// Opportunity is a synthesized sales artifact owned by one client. For
// batch-originated opportunities InsightID points at the newest submission
// in the window, not all five.
type Opportunity struct {
	ID            string           `json:"id"`
	ClientID      string           `json:"client_id"`
	InsightID     string           `json:"insight_id,omitempty"`
	Title         string           `json:"title"`
	Description   string           `json:"description,omitempty"`
	ValueEstimate string           `json:"value_estimate,omitempty"`
	Stage         OpportunityStage `json:"stage"`
	CreatedAt     time.Time        `json:"created_at"`
}

// TaskStatus represents the progress state of a follow-up task.
type TaskStatus string

const (
	TaskStatusOpen       TaskStatus = "open"
	TaskStatusInProgress TaskStatus = "in-progress"
	TaskStatusDone       TaskStatus = "done"
)

// TaskPriority represents task urgency.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

// Task is an actionable follow-up belonging to one opportunity.
type Task struct {
	ID            string       `json:"id"`
	AssignedTo    string       `json:"assigned_to,omitempty"`
	InsightID     string       `json:"insight_id,omitempty"`
	OpportunityID string       `json:"opportunity_id"`
	Title         string       `json:"title"`
	Description   string       `json:"description,omitempty"`
	Status        TaskStatus   `json:"status"`
	Priority      TaskPriority `json:"priority"`
	DueDate       *time.Time   `json:"due_date,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
}

// OpportunityProposal is the model's proposed opportunity in a synthesis
// response.
type OpportunityProposal struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	ValueEstimate string `json:"valueEstimate"`
}

// TaskProposal is one proposed follow-up task in a synthesis response.
type TaskProposal struct {
	Title          string `json:"title"`
	Description    string `json:"description"`
	AssignedToTeam string `json:"assignedToTeam"`
	Priority       string `json:"priority"`
	DueDate        string `json:"dueDate"` // YYYY-MM-DD
}

// SynthesisProposal is the full shape expected from a synthesis-mode model
// call: exactly one opportunity and between one and five tasks.
type SynthesisProposal struct {
	Opportunity OpportunityProposal `json:"opportunity"`
	Tasks       []TaskProposal      `json:"tasks"`
}

// MaxTasksPerBatch caps how many tasks a single synthesis may create.
const MaxTasksPerBatch = 5

// NormalizePriority maps a model-supplied priority onto the declared set,
// defaulting to medium.
func NormalizePriority(s string) TaskPriority {
	switch TaskPriority(strings.ToLower(strings.TrimSpace(s))) {
	case PriorityLow:
		return PriorityLow
	case PriorityHigh:
		return PriorityHigh
	default:
		return PriorityMedium
	}
}

// ParseDueDate parses an ISO date from a task proposal. Unparseable dates
// degrade to nil rather than failing the task.
func ParseDueDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil
	}
	return &t
}
