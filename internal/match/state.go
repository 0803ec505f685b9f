// Package match defines the top-level value objects — PlayerState,
// GameState, Match — and the match state machine (§3, §4.1).
package match

import (
	"time"

	"github.com/pokettcg/rules-engine/internal/action"
	"github.com/pokettcg/rules-engine/internal/card"
	"github.com/pokettcg/rules-engine/internal/coinflip"
)

// PlayerIdentifier distinguishes the two match seats.
type PlayerIdentifier string

const (
	Player1 PlayerIdentifier = "PLAYER1"
	Player2 PlayerIdentifier = "PLAYER2"
)

// Other returns the opposing identifier.
func (p PlayerIdentifier) Other() PlayerIdentifier {
	if p == Player1 {
		return Player2
	}
	return Player1
}

// MaxBenchSize is the hard cap on bench length (§3 PlayerState).
const MaxBenchSize = 5

// PlayerState holds one player's zones and per-turn flags.
type PlayerState struct {
	Deck                      []string
	Hand                      []string
	Active                    *card.Instance
	Bench                     []card.Instance
	PrizeCards                []string
	DiscardPile               []string
	HasAttachedEnergyThisTurn bool
	ShuffleCounter            int
}

func (p PlayerState) clone() PlayerState {
	out := p
	out.Deck = append([]string{}, p.Deck...)
	out.Hand = append([]string{}, p.Hand...)
	out.Bench = append([]card.Instance{}, p.Bench...)
	out.PrizeCards = append([]string{}, p.PrizeCards...)
	out.DiscardPile = append([]string{}, p.DiscardPile...)
	if p.Active != nil {
		a := *p.Active
		out.Active = &a
	}
	return out
}

// AllInPlay returns every CardInstance this player has in play (active
// then bench, in bench order).
func (p PlayerState) AllInPlay() []card.Instance {
	var out []card.Instance
	if p.Active != nil {
		out = append(out, *p.Active)
	}
	out = append(out, p.Bench...)
	return out
}

// CompactBench re-indexes bench positions to BENCH_0..BENCH_{n-1} after
// a removal, per the bench-compaction invariant.
func (p PlayerState) CompactBench() PlayerState {
	out := p.clone()
	for i := range out.Bench {
		out.Bench[i] = out.Bench[i].WithPosition(card.BenchPosition(i))
	}
	return out
}

// RemoveBenchAt removes the bench Pokémon at index i and compacts.
func (p PlayerState) RemoveBenchAt(i int) PlayerState {
	out := p.clone()
	out.Bench = append(out.Bench[:i:i], out.Bench[i+1:]...)
	return out.CompactBench()
}

// AbilityUsage tracks, per player, which ability card_ids have been
// used this turn (cleared when that player's turn ends).
type AbilityUsage map[PlayerIdentifier]map[string]bool

// PendingPrizeSelection queues a prize obligation created by a
// knockout, ordered attacker-first per §9.3.
type PendingPrizeSelection struct {
	Player PlayerIdentifier
	Source string // "ATTACK" or "STATUS_EFFECT"
}

// GameState is the in-progress game snapshot (§3 GameState).
type GameState struct {
	Players                map[PlayerIdentifier]PlayerState
	TurnNumber             int
	Phase                  TurnPhase
	CurrentPlayer          PlayerIdentifier
	LastAction             *action.Summary
	ActionHistory          []action.Summary
	CoinFlipState          *coinflip.State
	AbilityUsageThisTurn   AbilityUsage
	PendingPrizeSelections []PendingPrizeSelection
}

// NewGameState creates an empty snapshot (no cards in any zone) at
// turn 1, DRAW phase, with first as the current player.
func NewGameState(first PlayerIdentifier) *GameState {
	return &GameState{
		Players: map[PlayerIdentifier]PlayerState{
			Player1: {},
			Player2: {},
		},
		TurnNumber:           1,
		Phase:                PhaseDraw,
		CurrentPlayer:        first,
		AbilityUsageThisTurn: AbilityUsage{Player1: map[string]bool{}, Player2: map[string]bool{}},
	}
}

func (g GameState) clone() *GameState {
	players := make(map[PlayerIdentifier]PlayerState, len(g.Players))
	for k, v := range g.Players {
		players[k] = v.clone()
	}
	history := append([]action.Summary{}, g.ActionHistory...)
	usage := make(AbilityUsage, len(g.AbilityUsageThisTurn))
	for k, v := range g.AbilityUsageThisTurn {
		m := make(map[string]bool, len(v))
		for ck, cv := range v {
			m[ck] = cv
		}
		usage[k] = m
	}
	out := &GameState{
		Players:              players,
		TurnNumber:           g.TurnNumber,
		Phase:                g.Phase,
		CurrentPlayer:        g.CurrentPlayer,
		ActionHistory:        history,
		AbilityUsageThisTurn: usage,
		PendingPrizeSelections: append([]PendingPrizeSelection{}, g.PendingPrizeSelections...),
	}
	if len(history) > 0 {
		out.LastAction = &history[len(history)-1]
	}
	if g.CoinFlipState != nil {
		cf := *g.CoinFlipState
		out.CoinFlipState = &cf
	}
	return out
}

// WithPlayer returns a copy of g with player p's state replaced.
func (g GameState) WithPlayer(p PlayerIdentifier, ps PlayerState) *GameState {
	out := g.clone()
	out.Players[p] = ps
	return out
}

// WithAction appends a recorded action and sets LastAction, keeping
// the invariant "LastAction always equals the final ActionHistory
// entry".
func (g GameState) WithAction(s action.Summary) *GameState {
	out := g.clone()
	out.ActionHistory = append(out.ActionHistory, s)
	out.LastAction = &out.ActionHistory[len(out.ActionHistory)-1]
	return out
}

// WithPhase returns a copy in a new TurnPhase.
func (g GameState) WithPhase(p TurnPhase) *GameState {
	out := g.clone()
	out.Phase = p
	return out
}

// WithCoinFlipState returns a copy with the coin-flip slot replaced
// (nil clears it).
func (g GameState) WithCoinFlipState(s *coinflip.State) *GameState {
	out := g.clone()
	out.CoinFlipState = s
	return out
}

// WithPendingPrizeSelections returns a copy with the prize-selection
// queue replaced.
func (g GameState) WithPendingPrizeSelections(q []PendingPrizeSelection) *GameState {
	out := g.clone()
	out.PendingPrizeSelections = q
	return out
}

// EndTurn returns the GameState for the start of the next turn:
// current player swaps, turn_number increments, phase resets to DRAW,
// both players' energy-attach flags clear, and the ending player's
// ability usage clears (§4.3 End turn).
func (g GameState) EndTurn(s action.Summary) *GameState {
	out := g.WithAction(s)
	ending := out.CurrentPlayer
	next := ending.Other()
	for id, ps := range out.Players {
		ps.HasAttachedEnergyThisTurn = false
		out.Players[id] = ps
	}
	out.AbilityUsageThisTurn[ending] = map[string]bool{}
	out.CurrentPlayer = next
	out.TurnNumber++
	out.Phase = PhaseDraw
	return out
}

// MatchResult captures how a concluded match ended.
type MatchResult string

const (
	ResultWin  MatchResult = "WIN"
	ResultLoss MatchResult = "LOSS"
)

// WinCondition is the closed set of ways a match can be won.
type WinCondition string

const (
	WinAllPrizesTaken   WinCondition = "ALL_PRIZES_TAKEN"
	WinOpponentNoPokemon WinCondition = "OPPONENT_NO_POKEMON"
	WinDeckOut          WinCondition = "DECK_OUT"
	WinConcession       WinCondition = "CONCESSION"
)

// SetupGates tracks the per-player boolean gates that advance the
// coarse setup phases (§3 Match).
type SetupGates struct {
	Approved            bool
	DrewValidHand       bool
	SetPrizeCards       bool
	SetActivePokemon    bool
	ConfirmedFirstPlayer bool
	ReadyToStart        bool
}

// Match is the top-level aggregate (§3 Match).
type Match struct {
	MatchID           string
	TournamentID      string
	State             State
	Player1ID         string
	Player2ID         string
	Player1DeckID     string
	Player2DeckID     string
	Gates             map[PlayerIdentifier]*SetupGates
	FirstPlayer       *PlayerIdentifier
	CurrentPlayer     *PlayerIdentifier
	GameState         *GameState
	WinnerID          string
	Result            MatchResult
	WinCondition      WinCondition
	EndedAt           *time.Time
	CancellationReason string
	Version           int64
}

// NewMatch creates a CREATED match.
func NewMatch(matchID, tournamentID string) *Match {
	return &Match{
		MatchID:      matchID,
		TournamentID: tournamentID,
		State:        StateCreated,
		Gates: map[PlayerIdentifier]*SetupGates{
			Player1: {},
			Player2: {},
		},
	}
}

// IdentifierFor resolves which seat playerID occupies, or false if the
// player is not in this match (§7 NotInMatch).
func (m *Match) IdentifierFor(playerID string) (PlayerIdentifier, bool) {
	switch playerID {
	case m.Player1ID:
		return Player1, true
	case m.Player2ID:
		return Player2, true
	default:
		return "", false
	}
}

// Clone returns a deep copy so handlers can return a new Match without
// mutating the one the caller holds (design note: replace mutable
// Match methods with a single immutable record + functional updates).
func (m *Match) Clone() *Match {
	out := *m
	gates := make(map[PlayerIdentifier]*SetupGates, len(m.Gates))
	for k, v := range m.Gates {
		g := *v
		gates[k] = &g
	}
	out.Gates = gates
	if m.GameState != nil {
		out.GameState = m.GameState.clone()
	}
	return &out
}
