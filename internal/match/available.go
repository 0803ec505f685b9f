package match

import "github.com/pokettcg/rules-engine/internal/action"

// ActionSet is a small set of ActionKind.
type ActionSet map[action.Kind]bool

func setOf(kinds ...action.Kind) ActionSet {
	s := make(ActionSet, len(kinds))
	for _, k := range kinds {
		s[k] = true
	}
	return s
}

// AvailableActions returns the raw (not-yet-viewer-filtered) set of
// legal actions for the given match state, turn phase, and in-progress
// game state, encoding the ordering rules from §4.1:
//   - ATTACH_ENERGY only if the current player hasn't attached yet.
//   - ATTACK legal at most once per turn and forces phase END.
//   - RETREAT at most once per turn.
//   - SELECT_PRIZE required before END_TURN after a knockout.
//   - DRAW_CARD mandatory before END_TURN in the DRAW phase.
func AvailableActions(s State, phase TurnPhase, gs *GameState) ActionSet {
	switch s {
	case StateCreated, StateWaitingForPlayers:
		return setOf(action.Concede)
	case StateDeckValidation:
		return setOf(action.Concede)
	case StateMatchApproval:
		return setOf(action.ApproveMatch, action.Concede)
	case StateDrawingCards:
		return setOf(action.DrawInitialCards, action.Concede)
	case StateSetPrizeCards:
		return setOf(action.SetPrizeCards, action.Concede)
	case StateSelectActivePokemon:
		return setOf(action.SetActivePokemon, action.Concede)
	case StateSelectBenchPokemon:
		return setOf(action.PlayPokemon, action.CompleteInitialSetup, action.Concede)
	case StateFirstPlayerSelection:
		return setOf(action.ConfirmFirstPlayer, action.Concede)
	case StatePlayerTurn:
		return availableForTurn(phase, gs)
	case StateBetweenTurns:
		return setOf(action.Concede)
	default:
		return setOf()
	}
}

func availableForTurn(phase TurnPhase, gs *GameState) ActionSet {
	switch phase {
	case PhaseDraw:
		return setOf(action.DrawCard, action.Concede)
	case PhaseMain:
		acts := setOf(
			action.PlayPokemon, action.EvolvePokemon, action.PlayTrainer,
			action.UseAbility, action.Retreat, action.Attack, action.EndTurn,
			action.Concede,
		)
		if gs != nil && gs.Players[gs.CurrentPlayer].HasAttachedEnergyThisTurn {
			delete(acts, action.AttachEnergy)
		} else {
			acts[action.AttachEnergy] = true
		}
		if hasRetreatedThisTurn(gs) {
			delete(acts, action.Retreat)
		}
		if hasAttackedThisTurn(gs) {
			delete(acts, action.Attack)
		}
		return acts
	case PhaseAttack:
		acts := setOf(action.Concede)
		if gs != nil && gs.CoinFlipState != nil && gs.CoinFlipState.Status == "READY_TO_FLIP" {
			acts[action.GenerateCoinFlip] = true
		}
		return acts
	case PhaseSelectActivePokemon:
		return setOf(action.SetActivePokemon, action.Concede)
	case PhaseEnd:
		acts := setOf(action.EndTurn, action.Concede)
		if gs != nil && len(gs.PendingPrizeSelections) > 0 {
			delete(acts, action.EndTurn)
			acts[action.SelectPrize] = true
		}
		return acts
	default:
		return setOf(action.Concede)
	}
}

func hasRetreatedThisTurn(gs *GameState) bool {
	return countSinceTurnStart(gs, action.Retreat) > 0
}

func hasAttackedThisTurn(gs *GameState) bool {
	return countSinceTurnStart(gs, action.Attack) > 0
}

// countSinceTurnStart scans ActionHistory back to the last END_TURN,
// counting occurrences of kind — the fallback scan used for
// once-per-turn checks (§4.3 Evolve Pokémon constraint 1 uses the same
// idiom for evolved_at fallback).
func countSinceTurnStart(gs *GameState, kind action.Kind) int {
	if gs == nil {
		return 0
	}
	n := 0
	for i := len(gs.ActionHistory) - 1; i >= 0; i-- {
		entry := gs.ActionHistory[i]
		if entry.ActionType == action.EndTurn {
			break
		}
		if entry.ActionType == kind {
			n++
		}
	}
	return n
}
