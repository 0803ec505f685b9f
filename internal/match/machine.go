package match

import "github.com/pokettcg/rules-engine/internal/turn"

// State is the closed set of coarse match phases (§3 MatchState).
type State string

const (
	StateCreated             State = "CREATED"
	StateWaitingForPlayers   State = "WAITING_FOR_PLAYERS"
	StateDeckValidation      State = "DECK_VALIDATION"
	StateMatchApproval       State = "MATCH_APPROVAL"
	StateDrawingCards        State = "DRAWING_CARDS"
	StateSetPrizeCards       State = "SET_PRIZE_CARDS"
	StateSelectActivePokemon State = "SELECT_ACTIVE_POKEMON"
	StateSelectBenchPokemon  State = "SELECT_BENCH_POKEMON"
	StateFirstPlayerSelection State = "FIRST_PLAYER_SELECTION"
	// Legacy states, retained only for deserializing previously stored
	// matches (§9.1); the transition table below never
	// produces or accepts them as a live state.
	StateInitialSetupLegacy  State = "INITIAL_SETUP"
	StatePreGameSetupLegacy  State = "PRE_GAME_SETUP"
	StatePlayerTurn          State = "PLAYER_TURN"
	StateBetweenTurns        State = "BETWEEN_TURNS"
	StateMatchEnded          State = "MATCH_ENDED"
	StateCancelled           State = "CANCELLED"
)

// legalSuccessors encodes the non-enumerated-pairs-are-rejected
// transition table from §4.1. CONCEDE is handled separately
// (legal from any non-terminal state, transitions straight to
// MATCH_ENDED) rather than listed per-row here.
var legalSuccessors = map[State]map[State]bool{
	StateCreated:              {StateWaitingForPlayers: true},
	StateWaitingForPlayers:    {StateDeckValidation: true},
	StateDeckValidation:       {StateMatchApproval: true, StateCancelled: true},
	StateMatchApproval:        {StateDrawingCards: true},
	StateDrawingCards:         {StateSetPrizeCards: true},
	StateSetPrizeCards:        {StateSelectActivePokemon: true},
	StateSelectActivePokemon:  {StateSelectBenchPokemon: true},
	StateSelectBenchPokemon:   {StateFirstPlayerSelection: true},
	StateFirstPlayerSelection: {StatePlayerTurn: true},
	StatePlayerTurn:           {StateBetweenTurns: true, StateMatchEnded: true},
	StateBetweenTurns:         {StatePlayerTurn: true, StateMatchEnded: true},
}

// IsTerminal reports whether no further transitions are legal from s.
func IsTerminal(s State) bool {
	return s == StateMatchEnded || s == StateCancelled
}

// CanTransition reports whether to is a legal successor of from, or a
// concession (always legal from a non-terminal state).
func CanTransition(from, to State) bool {
	if to == StateMatchEnded && !IsTerminal(from) {
		return true // concession path
	}
	return legalSuccessors[from][to]
}

// TurnPhase is re-exported from internal/turn so callers of this
// package don't need a second import for the common case.
type TurnPhase = turn.Phase

const (
	PhaseDraw                = turn.Draw
	PhaseMain                = turn.Main
	PhaseAttack              = turn.Attack
	PhaseSelectActivePokemon = turn.SelectActivePokemon
	PhaseEnd                 = turn.End
)
