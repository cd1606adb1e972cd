package model

import (
	"strings"
	"time"
)

// InsightStatus represents the lifecycle state of an insight.
type InsightStatus string

const (
	InsightStatusPending  InsightStatus = "pending"
	InsightStatusApproved InsightStatus = "approved"
	InsightStatusRejected InsightStatus = "rejected"
)

// TimeHorizon buckets when an insight is expected to become actionable.
type TimeHorizon string

const (
	Horizon0To3   TimeHorizon = "0-3 months"
	Horizon3To6   TimeHorizon = "3-6 months"
	Horizon6To12  TimeHorizon = "6-12 months"
	Horizon12Plus TimeHorizon = "12+ months"
)

// BudgetSignal grades how strongly an insight indicates available budget.
type BudgetSignal string

const (
	BudgetLow    BudgetSignal = "low"
	BudgetMedium BudgetSignal = "medium"
	BudgetHigh   BudgetSignal = "high"
)

// Insight is a free-text field observation about a client, enriched with
// structured fields by the model at creation time.
type Insight struct {
	ID                string        `json:"id"`
	AuthorID          string        `json:"author_id"`
	ClientID          string        `json:"client_id"`
	ProjectID         string        `json:"project_id,omitempty"`
	StakeholderID     string        `json:"stakeholder_id,omitempty"`
	RawText           string        `json:"raw_text"`
	Summary           string        `json:"summary,omitempty"`
	Themes            string        `json:"themes,omitempty"` // comma-joined
	TimeHorizon       TimeHorizon   `json:"time_horizon,omitempty"`
	BudgetSignal      BudgetSignal  `json:"budget_signal,omitempty"`
	CompetitorMention string        `json:"competitor_mention,omitempty"`
	Status            InsightStatus `json:"status"`
	CreatedAt         time.Time     `json:"created_at"`
}

// InsightEnrichment is the structured result the model must produce for a
// raw insight submission.
type InsightEnrichment struct {
	Summary               string       `json:"summary"`
	Themes                string       `json:"themes"`
	TimeHorizon           TimeHorizon  `json:"timeHorizon"`
	BudgetSignal          BudgetSignal `json:"budgetSignal"`
	CompetitorMention     string       `json:"competitorMention,omitempty"`
	SelectedProjectID     string       `json:"selectedProjectId,omitempty"`
	SelectedStakeholderID string       `json:"selectedStakeholderId,omitempty"`
}

var validHorizons = map[TimeHorizon]bool{
	Horizon0To3:   true,
	Horizon3To6:   true,
	Horizon6To12:  true,
	Horizon12Plus: true,
}

var validBudgetSignals = map[BudgetSignal]bool{
	BudgetLow:    true,
	BudgetMedium: true,
	BudgetHigh:   true,
}

// NormalizeTimeHorizon trims and lowercases a model-supplied horizon and
// reports whether it lands in the declared set.
func NormalizeTimeHorizon(s string) (TimeHorizon, bool) {
	h := TimeHorizon(strings.ToLower(strings.TrimSpace(s)))
	return h, validHorizons[h]
}

// NormalizeBudgetSignal trims and lowercases a model-supplied budget signal
// and reports whether it lands in the declared set.
func NormalizeBudgetSignal(s string) (BudgetSignal, bool) {
	b := BudgetSignal(strings.ToLower(strings.TrimSpace(s)))
	return b, validBudgetSignals[b]
}
