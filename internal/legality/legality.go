// Package legality implements the legality oracle: given a match and a
// viewer, filter the raw available-action set down to what that viewer
// may actually do right now (§4.6).
package legality

import (
	"github.com/pokettcg/rules-engine/internal/action"
	"github.com/pokettcg/rules-engine/internal/match"
)

// AvailableActions returns the set of actions permitted for viewer in
// m's current state.
func AvailableActions(m *match.Match, viewer match.PlayerIdentifier) match.ActionSet {
	if match.IsTerminal(m.State) {
		return match.ActionSet{}
	}

	raw := match.AvailableActions(m.State, phaseOf(m), m.GameState)

	// Setup gates: once a viewer has completed their commitment for
	// this state, only CONCEDE remains for them.
	if gateSatisfied(m, viewer) {
		return onlyConcede(raw)
	}

	if m.State == match.StatePlayerTurn {
		return filterTurnPerspective(m, viewer, raw)
	}

	return raw
}

func phaseOf(m *match.Match) match.TurnPhase {
	if m.GameState == nil {
		return match.PhaseDraw
	}
	return m.GameState.Phase
}

func onlyConcede(raw match.ActionSet) match.ActionSet {
	out := match.ActionSet{}
	if raw[action.Concede] {
		out[action.Concede] = true
	}
	return out
}

// gateSatisfied reports whether viewer has already completed the
// per-state commitment gate (drew valid hand, set prizes, approved,
// confirmed first player) for m's current coarse state.
func gateSatisfied(m *match.Match, viewer match.PlayerIdentifier) bool {
	g := m.Gates[viewer]
	if g == nil {
		return false
	}
	switch m.State {
	case match.StateMatchApproval:
		return g.Approved
	case match.StateDrawingCards:
		return g.DrewValidHand
	case match.StateSetPrizeCards:
		return g.SetPrizeCards
	case match.StateSelectActivePokemon:
		return g.SetActivePokemon
	case match.StateFirstPlayerSelection:
		return g.ConfirmedFirstPlayer
	case match.StateSelectBenchPokemon:
		return g.ReadyToStart
	default:
		return false
	}
}

// filterTurnPerspective applies the in-PLAYER_TURN viewer rules: the
// non-current player only sees CONCEDE plus cross-player actions
// (approving an ATTACK coin flip, or selecting their own pending
// active Pokémon after a knockout) (§4.6 "not-your-turn").
func filterTurnPerspective(m *match.Match, viewer match.PlayerIdentifier, raw match.ActionSet) match.ActionSet {
	gs := m.GameState
	if gs == nil {
		return onlyConcede(raw)
	}

	if viewer == gs.CurrentPlayer {
		return withPrizeOwnerCheck(gs, viewer, raw)
	}

	out := match.ActionSet{action.Concede: true}
	if gs.CoinFlipState != nil && gs.CoinFlipState.Context == "ATTACK" && gs.CoinFlipState.Status == "READY_TO_FLIP" {
		out[action.GenerateCoinFlip] = true
	}
	if gs.Phase == match.PhaseSelectActivePokemon {
		out[action.SetActivePokemon] = true
	}
	if headOfQueueIs(gs, viewer) {
		out[action.SelectPrize] = true
	}
	return out
}

// headOfQueueIs reports whether viewer owns the front entry of
// PendingPrizeSelections. Only the head of the queue may select a
// prize at a time (§4.3): double-knockout ties are resolved
// attacker-first by queue order, so both players seeing SELECT_PRIZE
// simultaneously would let the trailing player jump the attacker's
// turn.
func headOfQueueIs(gs *match.GameState, viewer match.PlayerIdentifier) bool {
	return len(gs.PendingPrizeSelections) > 0 && gs.PendingPrizeSelections[0].Player == viewer
}

func withPrizeOwnerCheck(gs *match.GameState, viewer match.PlayerIdentifier, raw match.ActionSet) match.ActionSet {
	out := match.ActionSet{}
	for k := range raw {
		out[k] = true
	}
	if k := action.SelectPrize; out[k] {
		if !headOfQueueIs(gs, viewer) {
			delete(out, k)
		}
	}
	return out
}
