package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/insight-pipeline/internal/model"
	"github.com/sells-group/insight-pipeline/pkg/anthropic"
)

const responseSystemText = `You are an analyst structuring survey answers for a consulting firm.
Given a raw campaign response, return a single valid JSON object with exactly these keys:
{"summary": "<1-2 sentence summary>", "themes": ["<theme>", ...]}
Return the JSON object only, no prose.`

const responsePrompt = `%sRaw response:
%s

Extract the structured fields. Return a single valid JSON object.`

// ResponseEnricher turns a raw campaign response into summary and themes.
// Campaign responses carry no known client, so fuzzy name matches stand in
// as weak disambiguation hints.
type ResponseEnricher struct {
	ai       anthropic.Client
	resolver *Resolver
	model    string
}

// NewResponseEnricher creates a campaign response enrichment service.
func NewResponseEnricher(ai anthropic.Client, resolver *Resolver, modelID string) *ResponseEnricher {
	return &ResponseEnricher{ai: ai, resolver: resolver, model: modelID}
}

type rawResponseEnrichment struct {
	Summary string          `json:"summary"`
	Themes  json.RawMessage `json:"themes"`
}

// Enrich calls the model with the raw text plus fuzzy reference hints and
// validates the structured result.
func (e *ResponseEnricher) Enrich(ctx context.Context, rawText string) (*model.ResponseEnrichment, error) {
	hints := ""
	refs, err := e.resolver.Resolve(ctx, rawText)
	if err != nil {
		return nil, err
	}
	if h := refs.Hints(); h != "" {
		hints = "Reference hints (low confidence):\n" + h + "\n"
	}

	resp, err := e.ai.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     e.model,
		MaxTokens: enrichMaxTokens,
		System:    []anthropic.SystemBlock{{Text: responseSystemText}},
		Messages: []anthropic.Message{
			{Role: "user", Content: fmt.Sprintf(responsePrompt, hints, rawText)},
		},
	})
	if err != nil {
		return nil, &Error{Err: eris.Wrap(err, "enrich: response model call")}
	}
	resp.Usage.LogCost(e.model, "enrich_response")

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return nil, &Error{Err: eris.New("enrich: empty model response")}
	}

	cleaned := CleanJSON(text)
	zap.L().Debug("model output", zap.String("phase", "enrich_response"), zap.String("cleaned", cleaned))

	var raw rawResponseEnrichment
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return nil, &Error{Output: cleaned, Err: eris.Wrap(err, "enrich: parse response enrichment")}
	}
	if strings.TrimSpace(raw.Summary) == "" {
		return nil, &Error{Output: cleaned, Err: eris.New("enrich: missing summary")}
	}

	themes, err := decodeThemes(raw.Themes)
	if err != nil {
		return nil, &Error{Output: cleaned, Err: err}
	}

	return &model.ResponseEnrichment{
		Summary: strings.TrimSpace(raw.Summary),
		Themes:  themes,
	}, nil
}
