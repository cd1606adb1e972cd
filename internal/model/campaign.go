package model

import "time"

// CampaignStatus represents the lifecycle state of a campaign.
type CampaignStatus string

const (
	CampaignStatusActive CampaignStatus = "active"
	CampaignStatusClosed CampaignStatus = "closed"
)

// Campaign is a pull-style request for field input on a topic. Its
// ResponseCount mirrors the client-level approved-insights counter: it is
// the trigger arithmetic for campaign-batch synthesis.
type Campaign struct {
	ID            string         `json:"id"`
	CreatedBy     string         `json:"created_by"`
	Topic         string         `json:"topic"`
	Description   string         `json:"description,omitempty"`
	Questions     []string       `json:"questions,omitempty"`
	Status        CampaignStatus `json:"status"`
	ResponseCount int            `json:"response_count"`
	CreatedAt     time.Time      `json:"created_at"`
}

// CampaignResponse is a raw answer to a campaign. Responses carry no
// approval gate; enrichment happens once at submission.
type CampaignResponse struct {
	ID          string    `json:"id"`
	CampaignID  string    `json:"campaign_id"`
	UserID      string    `json:"user_id"`
	ClientID    string    `json:"client_id"`
	RawResponse string    `json:"raw_response"`
	Summary     string    `json:"summary,omitempty"`
	Themes      string    `json:"themes,omitempty"` // comma-joined
	CreatedAt   time.Time `json:"created_at"`
}

// ResponseEnrichment is the structured result the model must produce for a
// campaign response. Responses get a lighter treatment than insights:
// summary and themes only.
type ResponseEnrichment struct {
	Summary string `json:"summary"`
	Themes  string `json:"themes"`
}
