package model

import "time"

// Client is the aggregate root for all insight and opportunity activity.
// ApprovedInsightsCount is the single source of truth for batch-trigger
// arithmetic; it only ever moves forward, by exactly one, inside the same
// transaction as the approval that caused it.
type Client struct {
	ID                    string    `json:"id"`
	Name                  string    `json:"name"`
	Industry              string    `json:"industry,omitempty"`
	Description           string    `json:"description,omitempty"`
	ApprovedInsightsCount int       `json:"approved_insights_count"`
	CreatedAt             time.Time `json:"created_at"`
}

// Stakeholder is a named contact at a client.
type Stakeholder struct {
	ID        string    `json:"id"`
	ClientID  string    `json:"client_id"`
	Name      string    `json:"name"`
	Role      string    `json:"role,omitempty"`
	Email     string    `json:"email,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Project is an engagement with a client.
type Project struct {
	ID          string    `json:"id"`
	ClientID    string    `json:"client_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status"` // active, paused, done
	CreatedAt   time.Time `json:"created_at"`
}
