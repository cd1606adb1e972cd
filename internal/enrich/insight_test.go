package enrich

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/insight-pipeline/internal/model"
	"github.com/sells-group/insight-pipeline/internal/store"
	"github.com/sells-group/insight-pipeline/pkg/anthropic"
)

const testModel = "claude-sonnet-4-5-20250929"

func newTestInsightEnricher(t *testing.T) (*InsightEnricher, *anthropic.MockClient, *store.MockStore) {
	t.Helper()
	mc := new(anthropic.MockClient)
	ms := new(store.MockStore)
	return NewInsightEnricher(mc, ms, testModel), mc, ms
}

func expectClientContext(ms *store.MockStore, clientID string) {
	ms.On("GetClient", mock.Anything, clientID).Return(&model.Client{
		ID:       clientID,
		Name:     "Client X",
		Industry: "Manufacturing",
	}, nil)
	ms.On("ListStakeholdersByClient", mock.Anything, clientID).Return([]model.Stakeholder{
		{ID: "st-1", ClientID: clientID, Name: "Dana Reyes", Role: "CTO"},
	}, nil)
	ms.On("ListProjectsByClient", mock.Anything, clientID).Return([]model.Project{
		{ID: "p-1", ClientID: clientID, Name: "Pilot Program", Status: "active"},
	}, nil)
}

func TestInsightEnricher_QuarterPilotScenario(t *testing.T) {
	e, mc, ms := newTestInsightEnricher(t)
	expectClientContext(ms, "c1")

	mc.On("CreateMessage", mock.Anything, mock.Anything).Return(anthropic.TextResponse(
		"```json\n"+
			`{"summary": "Client X wants a Q1 pilot with confirmed high budget.",`+
			`"themes": ["pilot", "budget"],`+
			`"timeHorizon": "0-3 months",`+
			`"budgetSignal": "high",`+
			`"competitorMention": null,`+
			`"selectedProjectId": "p-1",`+
			`"selectedStakeholderId": null}`+
			"\n```"), nil)

	out, err := e.Enrich(context.Background(), "c1", "Client X wants a Q1 pilot, budget confirmed high")
	require.NoError(t, err)
	assert.NotEmpty(t, out.Summary)
	assert.Contains(t, out.Themes, "pilot")
	assert.Equal(t, model.BudgetHigh, out.BudgetSignal)
	assert.Contains(t, []model.TimeHorizon{model.Horizon0To3, model.Horizon3To6}, out.TimeHorizon)
	assert.Equal(t, "p-1", out.SelectedProjectID)
	assert.Empty(t, out.SelectedStakeholderID)

	mc.AssertExpectations(t)
	ms.AssertExpectations(t)
}

func TestInsightEnricher_ThemesAsString(t *testing.T) {
	e, mc, ms := newTestInsightEnricher(t)
	expectClientContext(ms, "c1")

	mc.On("CreateMessage", mock.Anything, mock.Anything).Return(anthropic.TextResponse(
		`{"summary": "S.", "themes": "pilot, budget", "timeHorizon": "3-6 months", "budgetSignal": "medium"}`), nil)

	out, err := e.Enrich(context.Background(), "c1", "raw")
	require.NoError(t, err)
	assert.Equal(t, "pilot, budget", out.Themes)
}

func TestInsightEnricher_NormalizesEnums(t *testing.T) {
	e, mc, ms := newTestInsightEnricher(t)
	expectClientContext(ms, "c1")

	mc.On("CreateMessage", mock.Anything, mock.Anything).Return(anthropic.TextResponse(
		`{"summary": "S.", "themes": [], "timeHorizon": " 0-3 Months ", "budgetSignal": "HIGH"}`), nil)

	out, err := e.Enrich(context.Background(), "c1", "raw")
	require.NoError(t, err)
	assert.Equal(t, model.Horizon0To3, out.TimeHorizon)
	assert.Equal(t, model.BudgetHigh, out.BudgetSignal)
}

func TestInsightEnricher_InvalidHorizonFails(t *testing.T) {
	e, mc, ms := newTestInsightEnricher(t)
	expectClientContext(ms, "c1")

	mc.On("CreateMessage", mock.Anything, mock.Anything).Return(anthropic.TextResponse(
		`{"summary": "S.", "themes": [], "timeHorizon": "someday", "budgetSignal": "high"}`), nil)

	_, err := e.Enrich(context.Background(), "c1", "raw")
	require.Error(t, err)
	var enrichErr *Error
	require.True(t, errors.As(err, &enrichErr))
	assert.Contains(t, enrichErr.Output, "someday")
}

func TestInsightEnricher_NonJSONFails(t *testing.T) {
	e, mc, ms := newTestInsightEnricher(t)
	expectClientContext(ms, "c1")

	mc.On("CreateMessage", mock.Anything, mock.Anything).Return(anthropic.TextResponse(
		"I could not find any structured data."), nil)

	_, err := e.Enrich(context.Background(), "c1", "raw")
	require.Error(t, err)
	var enrichErr *Error
	require.True(t, errors.As(err, &enrichErr))
}

func TestInsightEnricher_ModelErrorFails(t *testing.T) {
	e, mc, ms := newTestInsightEnricher(t)
	expectClientContext(ms, "c1")

	mc.On("CreateMessage", mock.Anything, mock.Anything).Return(nil, errors.New("api down"))

	_, err := e.Enrich(context.Background(), "c1", "raw")
	require.Error(t, err)
	var enrichErr *Error
	require.True(t, errors.As(err, &enrichErr))
}

func TestInsightEnricher_EmptyResponseFails(t *testing.T) {
	e, mc, ms := newTestInsightEnricher(t)
	expectClientContext(ms, "c1")

	mc.On("CreateMessage", mock.Anything, mock.Anything).Return(&anthropic.MessageResponse{}, nil)

	_, err := e.Enrich(context.Background(), "c1", "raw")
	require.Error(t, err)
	var enrichErr *Error
	require.True(t, errors.As(err, &enrichErr))
}

func TestDecodeThemes(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{"list", `["a", " b "]`, "a, b", false},
		{"string", `"a, b"`, "a, b", false},
		{"null", `null`, "", false},
		{"number", `42`, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeThemes([]byte(tt.raw))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
