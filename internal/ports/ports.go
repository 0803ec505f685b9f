// Package ports collects the interfaces the core consumes but does not
// implement: card catalog lookup, match/tournament/deck persistence, AI
// action generation, wall-clock access, and logging (§6). Concrete
// adapters live outside this package (internal/store/sqlite,
// internal/catalog/memory) so the core stays free of I/O.
package ports

import (
	"context"
	"time"

	"github.com/pokettcg/rules-engine/internal/action"
	"github.com/pokettcg/rules-engine/internal/card"
	"github.com/pokettcg/rules-engine/internal/match"
)

// CardCatalog resolves immutable card definitions by id.
type CardCatalog interface {
	Get(ctx context.Context, cardID string) (card.Card, error)
	GetMany(ctx context.Context, cardIDs []string) (map[string]card.Card, error)
}

// MatchRepository persists and loads Match aggregates.
type MatchRepository interface {
	FindByID(ctx context.Context, matchID string) (*match.Match, error)
	Save(ctx context.Context, m *match.Match) (*match.Match, error)
}

// Tournament carries the subset of tournament configuration the core
// needs: deck rules, prize count, and start-game rules.
type Tournament struct {
	ID                string
	PrizeCount        int
	RequireBasicInHand bool
	RequireEnergyInHand bool
}

// TournamentRepository resolves tournament configuration by id.
type TournamentRepository interface {
	FindByID(ctx context.Context, tournamentID string) (*Tournament, error)
}

// Deck is the minimal deck shape the core needs: an ordered list of
// card ids to shuffle into a player's deck zone. Deck legality (set
// bans, copy limits) is validated by an external collaborator before
// the core ever sees a Deck.
type Deck struct {
	ID      string
	CardIDs []string
}

// DeckRepository resolves decks by id.
type DeckRepository interface {
	FindByID(ctx context.Context, deckID string) (*Deck, error)
}

// AiActionGenerator produces the next action for an AI-controlled
// player, in the same shape a human driver would produce.
type AiActionGenerator interface {
	Generate(ctx context.Context, m *match.Match, playerID string, identifier match.PlayerIdentifier) (action.Request, error)
}

// Clock supplies wall-clock time for ActionSummary.timestamp and
// Match.EndedAt. Never consulted for RNG seeding.
type Clock interface {
	Now() time.Time
}

// Logger is the subset of github.com/decred/slog.Logger the engine
// calls; a slog.Logger satisfies this directly.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}
