package store

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/insight-pipeline/internal/model"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func seedUserAndClient(t *testing.T, s *SQLiteStore) {
	t.Helper()
	_, err := s.db.Exec(
		`INSERT INTO app_users (id, email, full_name, role, team) VALUES ('u-1', 'ana@example.com', 'Ana Ruiz', 'consultant', 'consulting')`)
	require.NoError(t, err)
	_, err = s.db.Exec(
		`INSERT INTO clients (id, name, industry) VALUES ('c-1', 'Acme Industrial', 'manufacturing')`)
	require.NoError(t, err)
}

func TestSQLiteApprovalFlow(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()
	seedUserAndClient(t, s)

	stored, err := s.CreateInsight(ctx, model.Insight{
		AuthorID:     "u-1",
		ClientID:     "c-1",
		RawText:      "client asked about a pilot",
		Summary:      "Pilot interest",
		Themes:       "pilot, budget",
		TimeHorizon:  model.Horizon0To3,
		BudgetSignal: model.BudgetHigh,
		Status:       model.InsightStatusPending,
	})
	require.NoError(t, err)
	require.NotEmpty(t, stored.ID)

	got, err := s.GetInsight(ctx, stored.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, model.InsightStatusPending, got.Status)
	assert.Equal(t, model.Horizon0To3, got.TimeHorizon)
	assert.Equal(t, model.BudgetHigh, got.BudgetSignal)

	newCount, err := s.ApproveInsight(ctx, stored.ID, "c-1")
	require.NoError(t, err)
	assert.Equal(t, 1, newCount)

	// Repeat approval must not double-count
	_, err = s.ApproveInsight(ctx, stored.ID, "c-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotPending)

	client, err := s.GetClient(ctx, "c-1")
	require.NoError(t, err)
	assert.Equal(t, 1, client.ApprovedInsightsCount)
}

func TestSQLiteConcurrentApprovals(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()
	seedUserAndClient(t, s)

	const n = 8
	ids := make([]string, n)
	for i := range ids {
		stored, err := s.CreateInsight(ctx, model.Insight{
			AuthorID: "u-1",
			ClientID: "c-1",
			RawText:  "note",
			Status:   model.InsightStatusPending,
		})
		require.NoError(t, err)
		ids[i] = stored.ID
	}

	// Interleaved approvals must each observe a distinct post-increment
	// count and land on exactly n in total.
	counts := make(chan int, n)
	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(insightID string) {
			defer wg.Done()
			newCount, err := s.ApproveInsight(ctx, insightID, "c-1")
			assert.NoError(t, err)
			counts <- newCount
		}(id)
	}
	wg.Wait()
	close(counts)

	seen := make(map[int]bool, n)
	for c := range counts {
		assert.False(t, seen[c], "duplicate count %d", c)
		seen[c] = true
	}
	assert.Len(t, seen, n)

	client, err := s.GetClient(ctx, "c-1")
	require.NoError(t, err)
	assert.Equal(t, n, client.ApprovedInsightsCount)
}

func TestSQLiteCreateApprovedInsight(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()
	seedUserAndClient(t, s)

	for want := 1; want <= 3; want++ {
		_, newCount, err := s.CreateApprovedInsight(ctx, model.Insight{
			AuthorID: "u-1",
			ClientID: "c-1",
			RawText:  "approved at creation",
		})
		require.NoError(t, err)
		assert.Equal(t, want, newCount)
	}
}

func TestSQLiteListRecentApprovedInsights(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()
	seedUserAndClient(t, s)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		_, err := s.db.Exec(
			`INSERT INTO insights (id, author_id, client_id, raw_text, status, created_at) VALUES (?, 'u-1', 'c-1', ?, 'approved', ?)`,
			string(rune('a'+i)), "text", base.Add(time.Duration(i)*time.Minute),
		)
		require.NoError(t, err)
	}
	// A pending insight must stay out of the window
	_, err := s.db.Exec(
		`INSERT INTO insights (id, author_id, client_id, raw_text, status, created_at) VALUES ('p', 'u-1', 'c-1', 'text', 'pending', ?)`,
		base.Add(time.Hour),
	)
	require.NoError(t, err)

	window, err := s.ListRecentApprovedInsights(ctx, "c-1", 5)
	require.NoError(t, err)
	require.Len(t, window, 5)
	assert.Equal(t, "g", window[0].ID)
	assert.Equal(t, "c", window[4].ID)
}

func TestSQLiteCampaignFlow(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()
	seedUserAndClient(t, s)

	campaign, err := s.CreateCampaign(ctx, model.Campaign{
		CreatedBy:   "u-1",
		Topic:       "AI readiness",
		Description: "Ask every client about AI budgets",
		Questions:   []string{"Any AI budget this year?", "Who owns the decision?"},
	})
	require.NoError(t, err)
	assert.Equal(t, model.CampaignStatusActive, campaign.Status)

	require.NoError(t, s.AddCampaignAudience(ctx, campaign.ID, []string{"u-1"}))

	got, err := s.GetCampaign(ctx, campaign.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []string{"Any AI budget this year?", "Who owns the decision?"}, got.Questions)
	assert.Zero(t, got.ResponseCount)

	resp, err := s.CreateResponse(ctx, model.CampaignResponse{
		CampaignID:  campaign.ID,
		UserID:      "u-1",
		ClientID:    "c-1",
		RawResponse: "two clients mentioned AI budgets",
		Summary:     "Budget interest",
		Themes:      "ai, budget",
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.ID)

	n, err := s.IncrementResponseCount(ctx, campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = s.IncrementResponseCount(ctx, campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	recent, err := s.ListRecentResponses(ctx, campaign.ID, 5)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "c-1", recent[0].ClientID)
}

func TestSQLiteGetCampaign_NoQuestions(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()
	seedUserAndClient(t, s)

	campaign, err := s.CreateCampaign(ctx, model.Campaign{CreatedBy: "u-1", Topic: "open feedback"})
	require.NoError(t, err)

	got, err := s.GetCampaign(ctx, campaign.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Nil(t, got.Questions)
}

func TestSQLiteOpportunityAndTask(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()
	seedUserAndClient(t, s)

	opp, err := s.CreateOpportunity(ctx, model.Opportunity{
		ClientID:    "c-1",
		Title:       "Pilot engagement",
		Description: "Scoped pilot for Q2",
	})
	require.NoError(t, err)
	assert.Equal(t, model.StageIdentified, opp.Stage)

	due := time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)
	task, err := s.CreateTask(ctx, model.Task{
		OpportunityID: opp.ID,
		AssignedTo:    "u-1",
		Title:         "Schedule scoping call",
		DueDate:       &due,
	})
	require.NoError(t, err)
	assert.Equal(t, model.TaskStatusOpen, task.Status)
	assert.Equal(t, model.PriorityMedium, task.Priority)

	noDue, err := s.CreateTask(ctx, model.Task{
		OpportunityID: opp.ID,
		Title:         "Follow-up",
	})
	require.NoError(t, err)
	assert.Nil(t, noDue.DueDate)
}

func TestSQLiteLookups(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()
	seedUserAndClient(t, s)

	_, err := s.db.Exec(
		`INSERT INTO app_users (id, email, full_name, role, team, created_at) VALUES ('u-2', 'bo@example.com', 'Bo Lindqvist', 'leader', 'sales', datetime('now', '+1 minute'))`)
	require.NoError(t, err)
	_, err = s.db.Exec(
		`INSERT INTO stakeholders (id, client_id, name, role) VALUES ('s-1', 'c-1', 'Dana Fox', 'CTO')`)
	require.NoError(t, err)
	_, err = s.db.Exec(
		`INSERT INTO projects (id, client_id, name) VALUES ('p-1', 'c-1', 'ERP migration')`)
	require.NoError(t, err)

	missing, err := s.GetUser(ctx, "ghost")
	require.NoError(t, err)
	assert.Nil(t, missing)

	users, err := s.ListUsersByIDs(ctx, []string{"u-1", "u-2"})
	require.NoError(t, err)
	assert.Len(t, users, 2)

	first, err := s.FirstUserInTeam(ctx, "sales")
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, "u-2", first.ID)

	none, err := s.FirstUserInTeam(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, none)

	clients, err := s.SearchClientsByName(ctx, "Acme")
	require.NoError(t, err)
	require.Len(t, clients, 1)
	assert.Equal(t, "c-1", clients[0].ID)

	stakeholders, err := s.SearchStakeholdersByName(ctx, "Dana")
	require.NoError(t, err)
	assert.Len(t, stakeholders, 1)

	projects, err := s.SearchProjectsByName(ctx, "ERP")
	require.NoError(t, err)
	assert.Len(t, projects, 1)

	byClient, err := s.ListStakeholdersByClient(ctx, "c-1")
	require.NoError(t, err)
	assert.Len(t, byClient, 1)
}
