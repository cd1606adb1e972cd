package synth

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/insight-pipeline/internal/enrich"
	"github.com/sells-group/insight-pipeline/internal/model"
	"github.com/sells-group/insight-pipeline/internal/store"
	"github.com/sells-group/insight-pipeline/pkg/anthropic"
)

// batchWindowSize is how many recent approved items feed one synthesis.
const batchWindowSize = 5

// synthMaxTokens bounds a single synthesis completion.
const synthMaxTokens = 2048

const synthSystemText = `You are a senior consultant turning field intelligence into a sales opportunity.
You will receive a batch of recent items about one client. Rules:
- Ignore items that are noise or irrelevant to a sale.
- If ANY item signals urgency, treat the whole batch as urgent.
- Resolve conflicting themes by majority across the batch.
- Due dates: urgent batch 7-14 days from today, normal 14-30 days, long-term follow-ups 30-45 days. Never propose a date in the past.
Return a single valid JSON object with exactly this shape:
{"opportunity": {"title": "<title>", "description": "<description>", "valueEstimate": "<estimate or null>"},
 "tasks": [{"title": "<title>", "description": "<description or null>", "assignedToTeam": "<sales|consulting|practice|ops>", "priority": "<low|medium|high>", "dueDate": "<YYYY-MM-DD>"}]}
Propose exactly one opportunity and between 1 and 5 tasks. Return the JSON object only, no prose.`

const synthPrompt = `Today's date: %s

%s

Batch items (newest first):
%s

Synthesize one opportunity and follow-up tasks. Return a single valid JSON object.`

// Result reports what a synthesis run created.
type Result struct {
	OpportunityID string   `json:"opportunity_id"`
	TaskIDs       []string `json:"task_ids"`
}

// Service synthesizes a window of recent approved submissions into one
// opportunity with follow-up tasks.
type Service struct {
	ai    anthropic.Client
	store store.Store
	teams *TeamResolver
	model string
	now   func() time.Time
}

// New creates a batch synthesis service.
func New(ai anthropic.Client, s store.Store, modelID string) *Service {
	return &Service{
		ai:    ai,
		store: s,
		teams: NewTeamResolver(s),
		model: modelID,
		now:   time.Now,
	}
}

// insightContext is the hydrated surrounding state for an insight batch.
type insightContext struct {
	client       *model.Client
	authors      map[string]model.User
	stakeholders []model.Stakeholder
	projects     []model.Project
}

// SynthesizeInsightBatch re-derives the client's most recent approved
// window and produces one opportunity plus tasks. The window is re-queried
// at trigger time rather than snapshotted at increment; under rapid
// concurrent approvals windows can overlap.
func (s *Service) SynthesizeInsightBatch(ctx context.Context, clientID string) (*Result, error) {
	window, err := s.store.ListRecentApprovedInsights(ctx, clientID, batchWindowSize)
	if err != nil {
		return nil, eris.Wrap(err, "synth: load insight window")
	}
	if len(window) == 0 {
		return nil, eris.Errorf("synth: no approved insights for client %s", clientID)
	}

	hydrated, err := s.hydrateInsightContext(ctx, clientID, window)
	if err != nil {
		return nil, err
	}

	proposal, err := s.propose(ctx, s.buildInsightContextBlock(hydrated), s.buildInsightItemsBlock(window, hydrated))
	if err != nil {
		return nil, err
	}

	newest := window[0]
	return s.persist(ctx, proposal, clientID, newest.ID, newest.AuthorID)
}

// SynthesizeResponseBatch is the campaign-flow counterpart: the window is
// the campaign's most recent responses, and the opportunity belongs to the
// client referenced by the triggering response.
func (s *Service) SynthesizeResponseBatch(ctx context.Context, campaignID, clientID string) (*Result, error) {
	if clientID == "" {
		return nil, eris.Errorf("synth: campaign %s response has no client", campaignID)
	}

	window, err := s.store.ListRecentResponses(ctx, campaignID, batchWindowSize)
	if err != nil {
		return nil, eris.Wrap(err, "synth: load response window")
	}
	if len(window) == 0 {
		return nil, eris.Errorf("synth: no responses for campaign %s", campaignID)
	}

	var campaign *model.Campaign
	var client *model.Client
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		campaign, err = s.store.GetCampaign(gctx, campaignID)
		return eris.Wrap(err, "synth: load campaign")
	})
	g.Go(func() error {
		var err error
		client, err = s.store.GetClient(gctx, clientID)
		return eris.Wrap(err, "synth: load client")
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if campaign == nil {
		return nil, eris.Errorf("synth: campaign not found: %s", campaignID)
	}
	if client == nil {
		return nil, eris.Errorf("synth: client not found: %s", clientID)
	}

	var ctxBlock strings.Builder
	fmt.Fprintf(&ctxBlock, "Campaign topic: %s\n", campaign.Topic)
	if campaign.Description != "" {
		ctxBlock.WriteString(campaign.Description + "\n")
	}
	fmt.Fprintf(&ctxBlock, "Client: %s", client.Name)
	if client.Industry != "" {
		fmt.Fprintf(&ctxBlock, " (%s)", client.Industry)
	}
	ctxBlock.WriteString("\n")

	var items strings.Builder
	for i, r := range window {
		fmt.Fprintf(&items, "%d. %s\n", i+1, r.RawResponse)
		if r.Summary != "" {
			fmt.Fprintf(&items, "   Summary: %s\n", r.Summary)
		}
		if r.Themes != "" {
			fmt.Fprintf(&items, "   Themes: %s\n", r.Themes)
		}
	}

	proposal, err := s.propose(ctx, ctxBlock.String(), items.String())
	if err != nil {
		return nil, err
	}

	// Campaign-originated opportunities carry no insight link.
	newest := window[0]
	return s.persist(ctx, proposal, clientID, "", newest.UserID)
}

// hydrateInsightContext loads the client row, the window's distinct
// authors, and the client's stakeholders and projects concurrently.
func (s *Service) hydrateInsightContext(ctx context.Context, clientID string, window []model.Insight) (*insightContext, error) {
	seen := make(map[string]bool)
	var authorIDs []string
	for _, ins := range window {
		if !seen[ins.AuthorID] {
			seen[ins.AuthorID] = true
			authorIDs = append(authorIDs, ins.AuthorID)
		}
	}

	hydrated := &insightContext{authors: make(map[string]model.User)}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		client, err := s.store.GetClient(gctx, clientID)
		if err != nil {
			return eris.Wrap(err, "synth: load client")
		}
		if client == nil {
			return eris.Errorf("synth: client not found: %s", clientID)
		}
		hydrated.client = client
		return nil
	})
	g.Go(func() error {
		users, err := s.store.ListUsersByIDs(gctx, authorIDs)
		if err != nil {
			return eris.Wrap(err, "synth: load authors")
		}
		for _, u := range users {
			hydrated.authors[u.ID] = u
		}
		return nil
	})
	g.Go(func() error {
		stakeholders, err := s.store.ListStakeholdersByClient(gctx, clientID)
		if err != nil {
			return eris.Wrap(err, "synth: load stakeholders")
		}
		hydrated.stakeholders = stakeholders
		return nil
	})
	g.Go(func() error {
		projects, err := s.store.ListProjectsByClient(gctx, clientID)
		if err != nil {
			return eris.Wrap(err, "synth: load projects")
		}
		hydrated.projects = projects
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return hydrated, nil
}

func (s *Service) buildInsightContextBlock(h *insightContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Client: %s", h.client.Name)
	if h.client.Industry != "" {
		fmt.Fprintf(&b, " (%s)", h.client.Industry)
	}
	b.WriteString("\n")
	if h.client.Description != "" {
		b.WriteString(h.client.Description + "\n")
	}
	if len(h.stakeholders) > 0 {
		b.WriteString("Stakeholders:\n")
		for _, st := range h.stakeholders {
			fmt.Fprintf(&b, "- %s", st.Name)
			if st.Role != "" {
				fmt.Fprintf(&b, ", %s", st.Role)
			}
			b.WriteString("\n")
		}
	}
	if len(h.projects) > 0 {
		b.WriteString("Projects:\n")
		for _, p := range h.projects {
			fmt.Fprintf(&b, "- %s [%s]\n", p.Name, p.Status)
		}
	}
	return b.String()
}

func (s *Service) buildInsightItemsBlock(window []model.Insight, h *insightContext) string {
	var b strings.Builder
	for i, ins := range window {
		author := ins.AuthorID
		if u, ok := h.authors[ins.AuthorID]; ok {
			author = u.FullName
		}
		fmt.Fprintf(&b, "%d. %s (by %s)\n", i+1, ins.RawText, author)
		if ins.Summary != "" {
			fmt.Fprintf(&b, "   Summary: %s\n", ins.Summary)
		}
		if ins.Themes != "" {
			fmt.Fprintf(&b, "   Themes: %s\n", ins.Themes)
		}
		if ins.TimeHorizon != "" {
			fmt.Fprintf(&b, "   Time horizon: %s\n", ins.TimeHorizon)
		}
		if ins.BudgetSignal != "" {
			fmt.Fprintf(&b, "   Budget signal: %s\n", ins.BudgetSignal)
		}
		if ins.CompetitorMention != "" {
			fmt.Fprintf(&b, "   Competitor: %s\n", ins.CompetitorMention)
		}
	}
	return b.String()
}

// propose makes the synthesis-mode model call and strictly parses the
// proposal. Entirely unparsable output fails here, before any row is
// written.
func (s *Service) propose(ctx context.Context, contextBlock, itemsBlock string) (*model.SynthesisProposal, error) {
	resp, err := s.ai.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     s.model,
		MaxTokens: synthMaxTokens,
		System:    []anthropic.SystemBlock{{Text: synthSystemText}},
		Messages: []anthropic.Message{
			{Role: "user", Content: fmt.Sprintf(synthPrompt, s.now().UTC().Format("2006-01-02"), contextBlock, itemsBlock)},
		},
	})
	if err != nil {
		return nil, &enrich.Error{Err: eris.Wrap(err, "synth: model call")}
	}
	resp.Usage.LogCost(s.model, "synthesize_batch")

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return nil, &enrich.Error{Err: eris.New("synth: empty model response")}
	}

	cleaned := enrich.CleanJSON(text)
	zap.L().Debug("model output", zap.String("phase", "synthesize_batch"), zap.String("cleaned", cleaned))

	var proposal model.SynthesisProposal
	if err := json.Unmarshal([]byte(cleaned), &proposal); err != nil {
		return nil, &enrich.Error{Output: cleaned, Err: eris.Wrap(err, "synth: parse proposal")}
	}
	return &proposal, nil
}

// persist writes the opportunity, then each task independently. A task
// insert failure is logged and skipped; it never rolls back the
// opportunity or the other tasks.
func (s *Service) persist(ctx context.Context, proposal *model.SynthesisProposal, clientID, insightID, fallbackUserID string) (*Result, error) {
	title := strings.TrimSpace(proposal.Opportunity.Title)
	if title == "" {
		title = "New opportunity"
	}
	opp, err := s.store.CreateOpportunity(ctx, model.Opportunity{
		ClientID:      clientID,
		InsightID:     insightID,
		Title:         title,
		Description:   strings.TrimSpace(proposal.Opportunity.Description),
		ValueEstimate: strings.TrimSpace(proposal.Opportunity.ValueEstimate),
		Stage:         model.StageIdentified,
	})
	if err != nil {
		return nil, eris.Wrap(err, "synth: insert opportunity")
	}

	tasks := proposal.Tasks
	if len(tasks) > model.MaxTasksPerBatch {
		zap.L().Warn("synth: clamping task proposals",
			zap.Int("proposed", len(tasks)),
			zap.Int("max", model.MaxTasksPerBatch),
		)
		tasks = tasks[:model.MaxTasksPerBatch]
	}
	if len(tasks) == 0 {
		// A proposal with no tasks still owes the batch one follow-up.
		tasks = []model.TaskProposal{{}}
	}

	result := &Result{OpportunityID: opp.ID}
	for i, tp := range tasks {
		taskTitle := strings.TrimSpace(tp.Title)
		if taskTitle == "" {
			taskTitle = "Follow-up"
		}
		task, err := s.store.CreateTask(ctx, model.Task{
			AssignedTo:    s.teams.Resolve(ctx, tp.AssignedToTeam, fallbackUserID),
			InsightID:     insightID,
			OpportunityID: opp.ID,
			Title:         taskTitle,
			Description:   strings.TrimSpace(tp.Description),
			Status:        model.TaskStatusOpen,
			Priority:      model.NormalizePriority(tp.Priority),
			DueDate:       model.ParseDueDate(tp.DueDate),
		})
		if err != nil {
			zap.L().Warn("synth: task insert failed",
				zap.String("opportunity_id", opp.ID),
				zap.Int("task_index", i),
				zap.Error(err),
			)
			continue
		}
		result.TaskIDs = append(result.TaskIDs, task.ID)
	}
	return result, nil
}
