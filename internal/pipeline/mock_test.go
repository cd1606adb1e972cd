package pipeline

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/insight-pipeline/internal/model"
	"github.com/sells-group/insight-pipeline/internal/synth"
)

type mockInsightEnricher struct {
	mock.Mock
}

func (m *mockInsightEnricher) Enrich(ctx context.Context, clientID, rawText string) (*model.InsightEnrichment, error) {
	args := m.Called(ctx, clientID, rawText)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.InsightEnrichment), args.Error(1)
}

type mockResponseEnricher struct {
	mock.Mock
}

func (m *mockResponseEnricher) Enrich(ctx context.Context, rawText string) (*model.ResponseEnrichment, error) {
	args := m.Called(ctx, rawText)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ResponseEnrichment), args.Error(1)
}

type mockSynthesizer struct {
	mock.Mock
}

func (m *mockSynthesizer) SynthesizeInsightBatch(ctx context.Context, clientID string) (*synth.Result, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*synth.Result), args.Error(1)
}

func (m *mockSynthesizer) SynthesizeResponseBatch(ctx context.Context, campaignID, clientID string) (*synth.Result, error) {
	args := m.Called(ctx, campaignID, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*synth.Result), args.Error(1)
}
