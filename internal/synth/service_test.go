package synth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/insight-pipeline/internal/enrich"
	"github.com/sells-group/insight-pipeline/internal/model"
	"github.com/sells-group/insight-pipeline/internal/store"
	"github.com/sells-group/insight-pipeline/pkg/anthropic"
)

const testModel = "claude-sonnet-4-5-20250929"

var testNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *anthropic.MockClient, *store.MockStore) {
	t.Helper()
	mc := new(anthropic.MockClient)
	ms := new(store.MockStore)
	svc := New(mc, ms, testModel)
	svc.now = func() time.Time { return testNow }
	return svc, mc, ms
}

func insightWindow() []model.Insight {
	return []model.Insight{
		{ID: "i-5", AuthorID: "u-1", ClientID: "c1", RawText: "newest item", Summary: "Urgent budget talk.", BudgetSignal: model.BudgetHigh},
		{ID: "i-4", AuthorID: "u-2", ClientID: "c1", RawText: "older item"},
		{ID: "i-3", AuthorID: "u-1", ClientID: "c1", RawText: "oldest item"},
	}
}

func expectInsightHydration(ms *store.MockStore) {
	ms.On("ListRecentApprovedInsights", mock.Anything, "c1", batchWindowSize).Return(insightWindow(), nil)
	ms.On("GetClient", mock.Anything, "c1").Return(&model.Client{ID: "c1", Name: "Client X"}, nil)
	ms.On("ListUsersByIDs", mock.Anything, []string{"u-1", "u-2"}).Return([]model.User{
		{ID: "u-1", FullName: "Ade Okafor"},
		{ID: "u-2", FullName: "Mei Lin"},
	}, nil)
	ms.On("ListStakeholdersByClient", mock.Anything, "c1").Return([]model.Stakeholder{}, nil)
	ms.On("ListProjectsByClient", mock.Anything, "c1").Return([]model.Project{}, nil)
}

const goodProposal = `{
	"opportunity": {"title": "Q1 Pilot Engagement", "description": "Pilot for Client X", "valueEstimate": "$50k"},
	"tasks": [
		{"title": "Scope the pilot", "description": "Draft SOW", "assignedToTeam": "consulting", "priority": "high", "dueDate": "2026-03-12"},
		{"title": "", "description": null, "assignedToTeam": "nosuchteam", "priority": "urgent!!", "dueDate": "not-a-date"}
	]
}`

func TestSynthesizeInsightBatch(t *testing.T) {
	svc, mc, ms := newTestService(t)
	expectInsightHydration(ms)

	mc.On("CreateMessage", mock.Anything, mock.MatchedBy(func(req anthropic.MessageRequest) bool {
		// The prompt carries today's date and the urgency band instructions.
		return strings.Contains(req.Messages[0].Content, "2026-03-02") &&
			strings.Contains(req.System[0].Text, "7-14 days")
	})).Return(anthropic.TextResponse("```json\n"+goodProposal+"\n```"), nil)

	ms.On("FirstUserInTeam", mock.Anything, "consulting").Return(&model.User{ID: "u-9"}, nil)
	ms.On("FirstUserInTeam", mock.Anything, "nosuchteam").Return(nil, nil)

	ms.On("CreateOpportunity", mock.Anything, mock.MatchedBy(func(o model.Opportunity) bool {
		return o.ClientID == "c1" && o.InsightID == "i-5" &&
			o.Title == "Q1 Pilot Engagement" && o.Stage == model.StageIdentified
	})).Return(&model.Opportunity{ID: "opp-1", ClientID: "c1"}, nil)

	due := time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC)
	ms.On("CreateTask", mock.Anything, mock.MatchedBy(func(task model.Task) bool {
		return task.Title == "Scope the pilot" && task.AssignedTo == "u-9" &&
			task.Priority == model.PriorityHigh && task.DueDate != nil && task.DueDate.Equal(due)
	})).Return(&model.Task{ID: "t-1"}, nil)
	// Malformed second task gets defaults: title Follow-up, medium priority,
	// nil due date, assignee falls back to the newest item's author.
	ms.On("CreateTask", mock.Anything, mock.MatchedBy(func(task model.Task) bool {
		return task.Title == "Follow-up" && task.AssignedTo == "u-1" &&
			task.Priority == model.PriorityMedium && task.DueDate == nil
	})).Return(&model.Task{ID: "t-2"}, nil)

	res, err := svc.SynthesizeInsightBatch(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "opp-1", res.OpportunityID)
	assert.Equal(t, []string{"t-1", "t-2"}, res.TaskIDs)

	mc.AssertExpectations(t)
	ms.AssertExpectations(t)
}

func TestSynthesizeInsightBatch_UnparsableOutputIsAtomic(t *testing.T) {
	svc, mc, ms := newTestService(t)
	expectInsightHydration(ms)

	mc.On("CreateMessage", mock.Anything, mock.Anything).Return(anthropic.TextResponse(
		"I cannot produce a proposal right now."), nil)

	_, err := svc.SynthesizeInsightBatch(context.Background(), "c1")
	require.Error(t, err)
	var enrichErr *enrich.Error
	require.True(t, errors.As(err, &enrichErr))
	ms.AssertNotCalled(t, "CreateOpportunity", mock.Anything, mock.Anything)
	ms.AssertNotCalled(t, "CreateTask", mock.Anything, mock.Anything)
}

func TestSynthesizeInsightBatch_ClampsTasksToFive(t *testing.T) {
	svc, mc, ms := newTestService(t)
	expectInsightHydration(ms)

	var tasks []string
	for i := 0; i < 7; i++ {
		tasks = append(tasks, `{"title": "T", "assignedToTeam": "", "priority": "low", "dueDate": "2026-03-20"}`)
	}
	proposal := `{"opportunity": {"title": "Opp"}, "tasks": [` + strings.Join(tasks, ",") + `]}`
	mc.On("CreateMessage", mock.Anything, mock.Anything).Return(anthropic.TextResponse(proposal), nil)

	ms.On("CreateOpportunity", mock.Anything, mock.Anything).Return(&model.Opportunity{ID: "opp-1"}, nil)
	ms.On("CreateTask", mock.Anything, mock.Anything).Return(&model.Task{ID: "t"}, nil).Times(model.MaxTasksPerBatch)

	res, err := svc.SynthesizeInsightBatch(context.Background(), "c1")
	require.NoError(t, err)
	assert.Len(t, res.TaskIDs, model.MaxTasksPerBatch)
	ms.AssertExpectations(t)
}

func TestSynthesizeInsightBatch_NoTasksGetsDefaultFollowUp(t *testing.T) {
	svc, mc, ms := newTestService(t)
	expectInsightHydration(ms)

	mc.On("CreateMessage", mock.Anything, mock.Anything).Return(anthropic.TextResponse(
		`{"opportunity": {"title": "Opp"}, "tasks": []}`), nil)

	ms.On("CreateOpportunity", mock.Anything, mock.Anything).Return(&model.Opportunity{ID: "opp-1"}, nil)
	ms.On("CreateTask", mock.Anything, mock.MatchedBy(func(task model.Task) bool {
		return task.Title == "Follow-up" && task.AssignedTo == "u-1"
	})).Return(&model.Task{ID: "t-1"}, nil)

	res, err := svc.SynthesizeInsightBatch(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, []string{"t-1"}, res.TaskIDs)
}

func TestSynthesizeInsightBatch_TaskFailureKeepsOpportunity(t *testing.T) {
	svc, mc, ms := newTestService(t)
	expectInsightHydration(ms)

	mc.On("CreateMessage", mock.Anything, mock.Anything).Return(anthropic.TextResponse(
		`{"opportunity": {"title": "Opp"}, "tasks": [
			{"title": "A", "priority": "low", "dueDate": "2026-03-20"},
			{"title": "B", "priority": "low", "dueDate": "2026-03-21"}
		]}`), nil)

	ms.On("CreateOpportunity", mock.Anything, mock.Anything).Return(&model.Opportunity{ID: "opp-1"}, nil)
	ms.On("CreateTask", mock.Anything, mock.MatchedBy(func(task model.Task) bool {
		return task.Title == "A"
	})).Return(nil, errors.New("constraint violation"))
	ms.On("CreateTask", mock.Anything, mock.MatchedBy(func(task model.Task) bool {
		return task.Title == "B"
	})).Return(&model.Task{ID: "t-b"}, nil)

	res, err := svc.SynthesizeInsightBatch(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "opp-1", res.OpportunityID)
	assert.Equal(t, []string{"t-b"}, res.TaskIDs)
}

func TestSynthesizeResponseBatch(t *testing.T) {
	svc, mc, ms := newTestService(t)

	ms.On("ListRecentResponses", mock.Anything, "camp-1", batchWindowSize).Return([]model.CampaignResponse{
		{ID: "r-2", CampaignID: "camp-1", UserID: "u-3", ClientID: "c1", RawResponse: "newest answer", Summary: "S2"},
		{ID: "r-1", CampaignID: "camp-1", UserID: "u-4", ClientID: "c1", RawResponse: "older answer"},
	}, nil)
	ms.On("GetCampaign", mock.Anything, "camp-1").Return(&model.Campaign{ID: "camp-1", Topic: "AI readiness"}, nil)
	ms.On("GetClient", mock.Anything, "c1").Return(&model.Client{ID: "c1", Name: "Client X"}, nil)

	mc.On("CreateMessage", mock.Anything, mock.MatchedBy(func(req anthropic.MessageRequest) bool {
		return strings.Contains(req.Messages[0].Content, "AI readiness")
	})).Return(anthropic.TextResponse(
		`{"opportunity": {"title": "Readiness Assessment"}, "tasks": [
			{"title": "Book discovery call", "priority": "medium", "dueDate": "2026-03-20"}
		]}`), nil)

	// Opportunity is campaign-originated: no insight link.
	ms.On("CreateOpportunity", mock.Anything, mock.MatchedBy(func(o model.Opportunity) bool {
		return o.ClientID == "c1" && o.InsightID == ""
	})).Return(&model.Opportunity{ID: "opp-2"}, nil)
	ms.On("CreateTask", mock.Anything, mock.MatchedBy(func(task model.Task) bool {
		return task.InsightID == "" && task.AssignedTo == "u-3"
	})).Return(&model.Task{ID: "t-1"}, nil)

	res, err := svc.SynthesizeResponseBatch(context.Background(), "camp-1", "c1")
	require.NoError(t, err)
	assert.Equal(t, "opp-2", res.OpportunityID)
	ms.AssertExpectations(t)
}

func TestSynthesizeResponseBatch_MissingClientID(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.SynthesizeResponseBatch(context.Background(), "camp-1", "")
	require.Error(t, err)
}
