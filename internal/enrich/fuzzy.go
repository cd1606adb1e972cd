package enrich

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/insight-pipeline/internal/model"
	"github.com/sells-group/insight-pipeline/internal/store"
)

// referencePrefixLen caps how much of the raw text is used for fuzzy
// reference lookups. A short prefix keeps the wildcard queries cheap and
// is usually where a submission names its subject.
const referencePrefixLen = 20

// References holds candidate entity matches for a raw submission. The list
// is a flat, unranked set of low-precision hints for the model, never an
// authoritative resolution.
type References struct {
	Clients      []model.Client
	Stakeholders []model.Stakeholder
	Projects     []model.Project
}

// Empty reports whether no candidates were found.
func (r *References) Empty() bool {
	return len(r.Clients) == 0 && len(r.Stakeholders) == 0 && len(r.Projects) == 0
}

// Hints renders the candidate lists as a compact prompt context block.
// Returns "" when there are no candidates.
func (r *References) Hints() string {
	if r.Empty() {
		return ""
	}
	var b strings.Builder
	if len(r.Clients) > 0 {
		b.WriteString("Possible clients:\n")
		for _, c := range r.Clients {
			fmt.Fprintf(&b, "- %s (id: %s)\n", c.Name, c.ID)
		}
	}
	if len(r.Stakeholders) > 0 {
		b.WriteString("Possible stakeholders:\n")
		for _, s := range r.Stakeholders {
			fmt.Fprintf(&b, "- %s (id: %s, client: %s)\n", s.Name, s.ID, s.ClientID)
		}
	}
	if len(r.Projects) > 0 {
		b.WriteString("Possible projects:\n")
		for _, p := range r.Projects {
			fmt.Fprintf(&b, "- %s (id: %s, client: %s)\n", p.Name, p.ID, p.ClientID)
		}
	}
	return b.String()
}

// Resolver finds candidate clients, stakeholders, and projects whose names
// match a prefix of the raw submission text.
type Resolver struct {
	store store.Store
}

// NewResolver creates a fuzzy reference resolver backed by the store.
func NewResolver(s store.Store) *Resolver {
	return &Resolver{store: s}
}

// Resolve derives a short prefix from rawText and collects case-insensitive
// substring matches across clients, stakeholders, and projects. Empty
// results are valid; only store failures propagate.
func (r *Resolver) Resolve(ctx context.Context, rawText string) (*References, error) {
	prefix := strings.TrimSpace(rawText)
	// Cap by runes, not bytes, so a multibyte character at the boundary is
	// never split into an invalid UTF-8 needle.
	if runes := []rune(prefix); len(runes) > referencePrefixLen {
		prefix = string(runes[:referencePrefixLen])
	}
	if prefix == "" {
		return &References{}, nil
	}

	clients, err := r.store.SearchClientsByName(ctx, prefix)
	if err != nil {
		return nil, eris.Wrap(err, "enrich: fuzzy client lookup")
	}
	stakeholders, err := r.store.SearchStakeholdersByName(ctx, prefix)
	if err != nil {
		return nil, eris.Wrap(err, "enrich: fuzzy stakeholder lookup")
	}
	projects, err := r.store.SearchProjectsByName(ctx, prefix)
	if err != nil {
		return nil, eris.Wrap(err, "enrich: fuzzy project lookup")
	}

	return &References{
		Clients:      clients,
		Stakeholders: stakeholders,
		Projects:     projects,
	}, nil
}
