package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/insight-pipeline/internal/model"
	"github.com/sells-group/insight-pipeline/internal/store"
	"github.com/sells-group/insight-pipeline/pkg/anthropic"
)

const insightSystemText = `You are an analyst structuring field intelligence for a consulting firm.
Given a raw insight about a client, return a single valid JSON object with exactly these keys:
{"summary": "<1-2 sentence summary>", "themes": ["<theme>", ...], "timeHorizon": "<0-3 months|3-6 months|6-12 months|12+ months>", "budgetSignal": "<low|medium|high>", "competitorMention": "<competitor name or null>", "selectedProjectId": "<project id from context or null>", "selectedStakeholderId": "<stakeholder id from context or null>"}
Only choose selectedProjectId and selectedStakeholderId from the ids listed in the client context. Return the JSON object only, no prose.`

const insightPrompt = `Client context:
%s

Raw insight:
%s

Extract the structured fields. Return a single valid JSON object.`

// enrichMaxTokens bounds a single enrichment completion.
const enrichMaxTokens = 1024

// InsightEnricher turns one raw insight submission into structured
// enrichment fields using the client's reference data as authoritative
// context.
type InsightEnricher struct {
	ai    anthropic.Client
	store store.Store
	model string
}

// NewInsightEnricher creates an insight enrichment service.
func NewInsightEnricher(ai anthropic.Client, s store.Store, modelID string) *InsightEnricher {
	return &InsightEnricher{ai: ai, store: s, model: modelID}
}

// rawInsightEnrichment is the tolerant decode target for model output.
// Themes may arrive as a JSON list or a comma-joined string.
type rawInsightEnrichment struct {
	Summary               string          `json:"summary"`
	Themes                json.RawMessage `json:"themes"`
	TimeHorizon           string          `json:"timeHorizon"`
	BudgetSignal          string          `json:"budgetSignal"`
	CompetitorMention     *string         `json:"competitorMention"`
	SelectedProjectID     *string         `json:"selectedProjectId"`
	SelectedStakeholderID *string         `json:"selectedStakeholderId"`
}

// Enrich calls the model with the raw text plus the client's stakeholders
// and projects, and validates the structured result. Any model failure or
// shape deviation returns *Error; nothing is persisted here.
func (e *InsightEnricher) Enrich(ctx context.Context, clientID, rawText string) (*model.InsightEnrichment, error) {
	clientCtx, err := e.buildClientContext(ctx, clientID)
	if err != nil {
		return nil, err
	}

	// The client context block is cached: repeat submissions for the same
	// client within the TTL pay for it once.
	resp, err := e.ai.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     e.model,
		MaxTokens: enrichMaxTokens,
		System:    anthropic.BuildCachedSystemBlocks(insightSystemText + "\n\n" + clientCtx),
		Messages: []anthropic.Message{
			{Role: "user", Content: fmt.Sprintf(insightPrompt, clientCtx, rawText)},
		},
	})
	if err != nil {
		return nil, &Error{Err: eris.Wrap(err, "enrich: insight model call")}
	}
	resp.Usage.LogCost(e.model, "enrich_insight")

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return nil, &Error{Err: eris.New("enrich: empty model response")}
	}

	cleaned := CleanJSON(text)
	zap.L().Debug("model output", zap.String("phase", "enrich_insight"), zap.String("cleaned", cleaned))

	var raw rawInsightEnrichment
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return nil, &Error{Output: cleaned, Err: eris.Wrap(err, "enrich: parse insight enrichment")}
	}
	if strings.TrimSpace(raw.Summary) == "" {
		return nil, &Error{Output: cleaned, Err: eris.New("enrich: missing summary")}
	}

	horizon, ok := model.NormalizeTimeHorizon(raw.TimeHorizon)
	if !ok {
		return nil, &Error{Output: cleaned, Err: eris.Errorf("enrich: invalid time horizon %q", raw.TimeHorizon)}
	}
	budget, ok := model.NormalizeBudgetSignal(raw.BudgetSignal)
	if !ok {
		return nil, &Error{Output: cleaned, Err: eris.Errorf("enrich: invalid budget signal %q", raw.BudgetSignal)}
	}

	themes, err := decodeThemes(raw.Themes)
	if err != nil {
		return nil, &Error{Output: cleaned, Err: err}
	}

	out := &model.InsightEnrichment{
		Summary:      strings.TrimSpace(raw.Summary),
		Themes:       themes,
		TimeHorizon:  horizon,
		BudgetSignal: budget,
	}
	if raw.CompetitorMention != nil {
		out.CompetitorMention = strings.TrimSpace(*raw.CompetitorMention)
	}
	if raw.SelectedProjectID != nil {
		out.SelectedProjectID = strings.TrimSpace(*raw.SelectedProjectID)
	}
	if raw.SelectedStakeholderID != nil {
		out.SelectedStakeholderID = strings.TrimSpace(*raw.SelectedStakeholderID)
	}
	return out, nil
}

// buildClientContext renders the client row plus its stakeholders and
// projects into the authoritative context block for the prompt.
func (e *InsightEnricher) buildClientContext(ctx context.Context, clientID string) (string, error) {
	client, err := e.store.GetClient(ctx, clientID)
	if err != nil {
		return "", eris.Wrap(err, "enrich: load client")
	}
	if client == nil {
		return "", eris.Errorf("enrich: client not found: %s", clientID)
	}

	stakeholders, err := e.store.ListStakeholdersByClient(ctx, clientID)
	if err != nil {
		return "", eris.Wrap(err, "enrich: load stakeholders")
	}
	projects, err := e.store.ListProjectsByClient(ctx, clientID)
	if err != nil {
		return "", eris.Wrap(err, "enrich: load projects")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Client: %s", client.Name)
	if client.Industry != "" {
		fmt.Fprintf(&b, " (%s)", client.Industry)
	}
	b.WriteString("\n")
	if client.Description != "" {
		b.WriteString(client.Description + "\n")
	}
	if len(stakeholders) > 0 {
		b.WriteString("Stakeholders:\n")
		for _, s := range stakeholders {
			fmt.Fprintf(&b, "- %s", s.Name)
			if s.Role != "" {
				fmt.Fprintf(&b, ", %s", s.Role)
			}
			fmt.Fprintf(&b, " (id: %s)\n", s.ID)
		}
	}
	if len(projects) > 0 {
		b.WriteString("Projects:\n")
		for _, p := range projects {
			fmt.Fprintf(&b, "- %s [%s] (id: %s)\n", p.Name, p.Status, p.ID)
		}
	}
	return b.String(), nil
}

// decodeThemes accepts either a JSON string array or a plain string and
// returns a comma-joined value. Absent themes decode to "".
func decodeThemes(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		for i := range list {
			list[i] = strings.TrimSpace(list[i])
		}
		return strings.Join(list, ", "), nil
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return strings.TrimSpace(single), nil
	}
	return "", eris.Errorf("enrich: themes is neither list nor string: %s", string(raw))
}
