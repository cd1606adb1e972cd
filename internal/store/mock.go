package store

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/insight-pipeline/internal/model"
)

// MockStore implements Store for tests in dependent packages.
type MockStore struct {
	mock.Mock
}

var _ Store = (*MockStore)(nil)

func (m *MockStore) GetUser(ctx context.Context, id string) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockStore) ListUsersByIDs(ctx context.Context, ids []string) ([]model.User, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.User), args.Error(1)
}

func (m *MockStore) FirstUserInTeam(ctx context.Context, team string) (*model.User, error) {
	args := m.Called(ctx, team)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockStore) GetClient(ctx context.Context, id string) (*model.Client, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Client), args.Error(1)
}

func (m *MockStore) SearchClientsByName(ctx context.Context, needle string) ([]model.Client, error) {
	args := m.Called(ctx, needle)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Client), args.Error(1)
}

func (m *MockStore) ListStakeholdersByClient(ctx context.Context, clientID string) ([]model.Stakeholder, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Stakeholder), args.Error(1)
}

func (m *MockStore) SearchStakeholdersByName(ctx context.Context, needle string) ([]model.Stakeholder, error) {
	args := m.Called(ctx, needle)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Stakeholder), args.Error(1)
}

func (m *MockStore) ListProjectsByClient(ctx context.Context, clientID string) ([]model.Project, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Project), args.Error(1)
}

func (m *MockStore) SearchProjectsByName(ctx context.Context, needle string) ([]model.Project, error) {
	args := m.Called(ctx, needle)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Project), args.Error(1)
}

func (m *MockStore) CreateInsight(ctx context.Context, ins model.Insight) (*model.Insight, error) {
	args := m.Called(ctx, ins)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Insight), args.Error(1)
}

func (m *MockStore) CreateApprovedInsight(ctx context.Context, ins model.Insight) (*model.Insight, int, error) {
	args := m.Called(ctx, ins)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).(*model.Insight), args.Int(1), args.Error(2)
}

func (m *MockStore) GetInsight(ctx context.Context, id string) (*model.Insight, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Insight), args.Error(1)
}

func (m *MockStore) ApproveInsight(ctx context.Context, insightID, clientID string) (int, error) {
	args := m.Called(ctx, insightID, clientID)
	return args.Int(0), args.Error(1)
}

func (m *MockStore) ListRecentApprovedInsights(ctx context.Context, clientID string, limit int) ([]model.Insight, error) {
	args := m.Called(ctx, clientID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Insight), args.Error(1)
}

func (m *MockStore) CreateCampaign(ctx context.Context, c model.Campaign) (*model.Campaign, error) {
	args := m.Called(ctx, c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Campaign), args.Error(1)
}

func (m *MockStore) GetCampaign(ctx context.Context, id string) (*model.Campaign, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Campaign), args.Error(1)
}

func (m *MockStore) AddCampaignAudience(ctx context.Context, campaignID string, userIDs []string) error {
	args := m.Called(ctx, campaignID, userIDs)
	return args.Error(0)
}

func (m *MockStore) CreateResponse(ctx context.Context, r model.CampaignResponse) (*model.CampaignResponse, error) {
	args := m.Called(ctx, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CampaignResponse), args.Error(1)
}

func (m *MockStore) IncrementResponseCount(ctx context.Context, campaignID string) (int, error) {
	args := m.Called(ctx, campaignID)
	return args.Int(0), args.Error(1)
}

func (m *MockStore) ListRecentResponses(ctx context.Context, campaignID string, limit int) ([]model.CampaignResponse, error) {
	args := m.Called(ctx, campaignID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.CampaignResponse), args.Error(1)
}

func (m *MockStore) CreateOpportunity(ctx context.Context, o model.Opportunity) (*model.Opportunity, error) {
	args := m.Called(ctx, o)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Opportunity), args.Error(1)
}

func (m *MockStore) CreateTask(ctx context.Context, t model.Task) (*model.Task, error) {
	args := m.Called(ctx, t)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Task), args.Error(1)
}

func (m *MockStore) Migrate(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockStore) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
