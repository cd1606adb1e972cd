package pipeline

import (
	"context"
	"errors"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/insight-pipeline/internal/model"
	"github.com/sells-group/insight-pipeline/internal/store"
	"github.com/sells-group/insight-pipeline/internal/synth"
)

// DefaultBatchThreshold is how many approved items accumulate before a
// synthesis batch fires.
const DefaultBatchThreshold = 5

// ErrNotPermitted is returned when the actor may not approve an insight
// they did not author.
var ErrNotPermitted = eris.New("pipeline: actor not permitted to approve")

// InsightEnricher turns a raw insight into structured fields.
type InsightEnricher interface {
	Enrich(ctx context.Context, clientID, rawText string) (*model.InsightEnrichment, error)
}

// ResponseEnricher turns a raw campaign response into structured fields.
type ResponseEnricher interface {
	Enrich(ctx context.Context, rawText string) (*model.ResponseEnrichment, error)
}

// Synthesizer produces an opportunity plus tasks from a batch window.
type Synthesizer interface {
	SynthesizeInsightBatch(ctx context.Context, clientID string) (*synth.Result, error)
	SynthesizeResponseBatch(ctx context.Context, campaignID, clientID string) (*synth.Result, error)
}

// Service wires enrichment, the approval counter, and batch synthesis into
// the pipeline entry points. The actor is passed explicitly into every
// entry point; there is no ambient request state.
type Service struct {
	store          store.Store
	insights       InsightEnricher
	responses      ResponseEnricher
	synth          Synthesizer
	batchThreshold int
	autoApprove    bool
}

// Options tunes pipeline behavior.
type Options struct {
	// BatchThreshold overrides the synthesis trigger count. Zero means
	// DefaultBatchThreshold.
	BatchThreshold int
	// AutoApprove makes insight creation insert directly as approved,
	// counting toward the batch trigger at creation time.
	AutoApprove bool
}

// New creates the pipeline service.
func New(s store.Store, ie InsightEnricher, re ResponseEnricher, sy Synthesizer, opts Options) *Service {
	threshold := opts.BatchThreshold
	if threshold <= 0 {
		threshold = DefaultBatchThreshold
	}
	return &Service{
		store:          s,
		insights:       ie,
		responses:      re,
		synth:          sy,
		batchThreshold: threshold,
		autoApprove:    opts.AutoApprove,
	}
}

// CreateInsightInput is one raw insight submission.
type CreateInsightInput struct {
	ClientID      string `json:"clientId"`
	RawText       string `json:"rawText"`
	ProjectID     string `json:"projectId,omitempty"`
	StakeholderID string `json:"stakeholderId,omitempty"`
}

// CreateInsightResult reports the stored insight and, in auto-approve
// mode, the counter state and any synthesis output.
type CreateInsightResult struct {
	Insight        *model.Insight `json:"insight"`
	BatchTriggered bool           `json:"batchTriggered"`
	NewCount       int            `json:"newCount,omitempty"`
	OpportunityID  string         `json:"opportunityId,omitempty"`
	TaskIDs        []string       `json:"taskIds,omitempty"`
}

// CreateInsight enriches and persists one raw insight. Enrichment is
// mandatory: any model failure aborts the operation and no row is written.
func (s *Service) CreateInsight(ctx context.Context, actor model.Actor, in CreateInsightInput) (*CreateInsightResult, error) {
	if strings.TrimSpace(in.RawText) == "" {
		return nil, &ValidationError{Field: "rawText"}
	}
	if in.ClientID == "" {
		return nil, &ValidationError{Field: "clientId"}
	}

	client, err := s.store.GetClient(ctx, in.ClientID)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: load client")
	}
	if client == nil {
		return nil, &NotFoundError{Kind: "client", ID: in.ClientID}
	}

	enr, err := s.insights.Enrich(ctx, in.ClientID, in.RawText)
	if err != nil {
		return nil, err
	}

	// Enrichment may backfill project and stakeholder links the request
	// omitted.
	projectID := in.ProjectID
	if projectID == "" {
		projectID = enr.SelectedProjectID
	}
	stakeholderID := in.StakeholderID
	if stakeholderID == "" {
		stakeholderID = enr.SelectedStakeholderID
	}

	ins := model.Insight{
		AuthorID:          actor.ID,
		ClientID:          in.ClientID,
		ProjectID:         projectID,
		StakeholderID:     stakeholderID,
		RawText:           in.RawText,
		Summary:           enr.Summary,
		Themes:            enr.Themes,
		TimeHorizon:       enr.TimeHorizon,
		BudgetSignal:      enr.BudgetSignal,
		CompetitorMention: enr.CompetitorMention,
		Status:            model.InsightStatusPending,
	}

	if !s.autoApprove {
		stored, err := s.store.CreateInsight(ctx, ins)
		if err != nil {
			return nil, eris.Wrap(err, "pipeline: insert insight")
		}
		return &CreateInsightResult{Insight: stored}, nil
	}

	stored, newCount, err := s.store.CreateApprovedInsight(ctx, ins)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: insert approved insight")
	}

	result := &CreateInsightResult{Insight: stored, NewCount: newCount}
	if s.shouldTrigger(newCount) {
		result.BatchTriggered = true
		if syn := s.runInsightSynthesis(ctx, in.ClientID, newCount); syn != nil {
			result.OpportunityID = syn.OpportunityID
			result.TaskIDs = syn.TaskIDs
		}
	}
	return result, nil
}

// ApprovalResult mirrors the approve entry point contract.
type ApprovalResult struct {
	Approved       bool     `json:"approved"`
	BatchTriggered bool     `json:"batchTriggered"`
	NewCount       int      `json:"newCount"`
	OpportunityID  string   `json:"opportunityId,omitempty"`
	TaskIDs        []string `json:"taskIds,omitempty"`
}

// ApproveInsight transitions a pending insight to approved, bumps the
// client counter atomically, and fires synthesis when the new count
// crosses a multiple of the threshold. Synthesis failure is logged and
// swallowed; the committed approval stands.
func (s *Service) ApproveInsight(ctx context.Context, actor model.Actor, insightID string) (*ApprovalResult, error) {
	if insightID == "" {
		return nil, &ValidationError{Field: "insightId"}
	}

	ins, err := s.store.GetInsight(ctx, insightID)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: load insight")
	}
	if ins == nil {
		return nil, &NotFoundError{Kind: "insight", ID: insightID}
	}
	if !actor.CanApprove(ins.AuthorID) {
		return nil, ErrNotPermitted
	}
	if ins.Status != model.InsightStatusPending {
		return nil, &ValidationError{Field: "status"}
	}

	newCount, err := s.store.ApproveInsight(ctx, insightID, ins.ClientID)
	if err != nil {
		// A concurrent approval can win between the read above and the
		// guarded update; report it the same way as the sequential case.
		if errors.Is(err, store.ErrNotPending) {
			return nil, &ValidationError{Field: "status"}
		}
		return nil, eris.Wrap(err, "pipeline: approve insight")
	}

	result := &ApprovalResult{Approved: true, NewCount: newCount}
	if s.shouldTrigger(newCount) {
		result.BatchTriggered = true
		if syn := s.runInsightSynthesis(ctx, ins.ClientID, newCount); syn != nil {
			result.OpportunityID = syn.OpportunityID
			result.TaskIDs = syn.TaskIDs
		}
	}
	return result, nil
}

// CreateCampaignInput is a new pull-style request for field input.
type CreateCampaignInput struct {
	Topic       string   `json:"topic"`
	Description string   `json:"description,omitempty"`
	Questions   []string `json:"questions,omitempty"`
	Audience    []string `json:"audience,omitempty"`
}

// CreateCampaign persists a campaign and its audience list.
func (s *Service) CreateCampaign(ctx context.Context, actor model.Actor, in CreateCampaignInput) (*model.Campaign, error) {
	if strings.TrimSpace(in.Topic) == "" {
		return nil, &ValidationError{Field: "topic"}
	}

	campaign, err := s.store.CreateCampaign(ctx, model.Campaign{
		CreatedBy:   actor.ID,
		Topic:       in.Topic,
		Description: in.Description,
		Questions:   in.Questions,
	})
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: insert campaign")
	}

	if len(in.Audience) > 0 {
		if err := s.store.AddCampaignAudience(ctx, campaign.ID, in.Audience); err != nil {
			return nil, eris.Wrap(err, "pipeline: insert campaign audience")
		}
	}
	return campaign, nil
}

// SubmitResponseInput is one raw campaign response.
type SubmitResponseInput struct {
	ClientID string `json:"clientId,omitempty"`
	RawText  string `json:"rawText"`
}

// SubmitResponseResult reports the stored response, the campaign counter,
// and any synthesis output.
type SubmitResponseResult struct {
	Response       *model.CampaignResponse `json:"response"`
	BatchTriggered bool                    `json:"batchTriggered"`
	NewCount       int                     `json:"newCount"`
	OpportunityID  string                  `json:"opportunityId,omitempty"`
	TaskIDs        []string                `json:"taskIds,omitempty"`
}

// SubmitResponse enriches and persists a campaign response, bumps the
// campaign counter atomically, and fires best-effort synthesis at the
// threshold. Responses have no approval gate.
func (s *Service) SubmitResponse(ctx context.Context, actor model.Actor, campaignID string, in SubmitResponseInput) (*SubmitResponseResult, error) {
	if strings.TrimSpace(in.RawText) == "" {
		return nil, &ValidationError{Field: "rawText"}
	}

	campaign, err := s.store.GetCampaign(ctx, campaignID)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: load campaign")
	}
	if campaign == nil {
		return nil, &NotFoundError{Kind: "campaign", ID: campaignID}
	}
	if in.ClientID != "" {
		client, err := s.store.GetClient(ctx, in.ClientID)
		if err != nil {
			return nil, eris.Wrap(err, "pipeline: load client")
		}
		if client == nil {
			return nil, &NotFoundError{Kind: "client", ID: in.ClientID}
		}
	}

	enr, err := s.responses.Enrich(ctx, in.RawText)
	if err != nil {
		return nil, err
	}

	stored, err := s.store.CreateResponse(ctx, model.CampaignResponse{
		CampaignID:  campaignID,
		UserID:      actor.ID,
		ClientID:    in.ClientID,
		RawResponse: in.RawText,
		Summary:     enr.Summary,
		Themes:      enr.Themes,
	})
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: insert response")
	}

	newCount, err := s.store.IncrementResponseCount(ctx, campaignID)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: increment response count")
	}

	result := &SubmitResponseResult{Response: stored, NewCount: newCount}
	if s.shouldTrigger(newCount) {
		result.BatchTriggered = true
		if in.ClientID == "" {
			zap.L().Warn("pipeline: response batch triggered without client, skipping synthesis",
				zap.String("campaign_id", campaignID),
				zap.Int("new_count", newCount),
			)
			return result, nil
		}
		syn, err := s.synth.SynthesizeResponseBatch(ctx, campaignID, in.ClientID)
		if err != nil {
			zap.L().Warn("pipeline: response synthesis failed, submission stands",
				zap.String("campaign_id", campaignID),
				zap.Int("new_count", newCount),
				zap.Error(err),
			)
			return result, nil
		}
		result.OpportunityID = syn.OpportunityID
		result.TaskIDs = syn.TaskIDs
	}
	return result, nil
}

// shouldTrigger reports whether the post-increment count crosses a
// synthesis boundary. It never fires at zero.
func (s *Service) shouldTrigger(newCount int) bool {
	return newCount > 0 && newCount%s.batchThreshold == 0
}

// runInsightSynthesis runs post-approval synthesis best-effort: a failure
// is logged and the nil result tells the caller nothing was created.
func (s *Service) runInsightSynthesis(ctx context.Context, clientID string, newCount int) *synth.Result {
	syn, err := s.synth.SynthesizeInsightBatch(ctx, clientID)
	if err != nil {
		zap.L().Warn("pipeline: insight synthesis failed, approval stands",
			zap.String("client_id", clientID),
			zap.Int("new_count", newCount),
			zap.Error(err),
		)
		return nil
	}
	return syn
}
