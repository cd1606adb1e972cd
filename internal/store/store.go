package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/insight-pipeline/internal/model"
)

// ErrNotPending is returned by ApproveInsight when the guarded status
// update matches no row: the insight was already approved, possibly by a
// concurrent request that won the race.
var ErrNotPending = eris.New("store: insight not pending")

// Store defines the persistence interface for the intelligence pipeline.
//
// The approval-path methods (ApproveInsight, CreateApprovedInsight,
// IncrementResponseCount) carry the only ordering requirement in the
// system: the counter update is an atomic increment-and-return executed
// inside the store, never a read-modify-write across round trips.
type Store interface {
	// Users
	GetUser(ctx context.Context, id string) (*model.User, error)
	ListUsersByIDs(ctx context.Context, ids []string) ([]model.User, error)
	FirstUserInTeam(ctx context.Context, team string) (*model.User, error)

	// Clients and reference data
	GetClient(ctx context.Context, id string) (*model.Client, error)
	SearchClientsByName(ctx context.Context, needle string) ([]model.Client, error)
	ListStakeholdersByClient(ctx context.Context, clientID string) ([]model.Stakeholder, error)
	SearchStakeholdersByName(ctx context.Context, needle string) ([]model.Stakeholder, error)
	ListProjectsByClient(ctx context.Context, clientID string) ([]model.Project, error)
	SearchProjectsByName(ctx context.Context, needle string) ([]model.Project, error)

	// Insights
	CreateInsight(ctx context.Context, ins model.Insight) (*model.Insight, error)
	// CreateApprovedInsight inserts an already-approved insight and bumps
	// the owning client's counter in one transaction, returning the new
	// count alongside the stored row.
	CreateApprovedInsight(ctx context.Context, ins model.Insight) (*model.Insight, int, error)
	GetInsight(ctx context.Context, id string) (*model.Insight, error)
	// ApproveInsight flips a pending insight to approved and bumps the
	// client counter in one transaction, returning the new count. A repeat
	// approval finds no pending row and fails instead of double counting.
	ApproveInsight(ctx context.Context, insightID, clientID string) (int, error)
	ListRecentApprovedInsights(ctx context.Context, clientID string, limit int) ([]model.Insight, error)

	// Campaigns
	CreateCampaign(ctx context.Context, c model.Campaign) (*model.Campaign, error)
	GetCampaign(ctx context.Context, id string) (*model.Campaign, error)
	AddCampaignAudience(ctx context.Context, campaignID string, userIDs []string) error
	CreateResponse(ctx context.Context, r model.CampaignResponse) (*model.CampaignResponse, error)
	IncrementResponseCount(ctx context.Context, campaignID string) (int, error)
	ListRecentResponses(ctx context.Context, campaignID string, limit int) ([]model.CampaignResponse, error)

	// Opportunities and tasks
	CreateOpportunity(ctx context.Context, o model.Opportunity) (*model.Opportunity, error)
	CreateTask(ctx context.Context, t model.Task) (*model.Task, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
