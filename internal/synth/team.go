package synth

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/insight-pipeline/internal/store"
)

// TeamResolver maps a model-suggested assignment team onto a concrete
// user. Resolution never fails: an unknown team, an empty team, or a
// lookup error all degrade to the fallback user.
type TeamResolver struct {
	store store.Store
}

// NewTeamResolver creates a team-to-user resolver backed by the store.
func NewTeamResolver(s store.Store) *TeamResolver {
	return &TeamResolver{store: s}
}

// Resolve returns the id of the first user whose team attribute matches
// the normalized team label, or fallbackUserID when there is no match.
// First-match semantics are intentional; there is no tie-break beyond
// insertion order.
func (r *TeamResolver) Resolve(ctx context.Context, team, fallbackUserID string) string {
	team = strings.ToLower(strings.TrimSpace(team))
	if team == "" {
		return fallbackUserID
	}
	u, err := r.store.FirstUserInTeam(ctx, team)
	if err != nil {
		zap.L().Warn("synth: team lookup failed, using fallback",
			zap.String("team", team),
			zap.Error(err),
		)
		return fallbackUserID
	}
	if u == nil {
		return fallbackUserID
	}
	return u.ID
}
