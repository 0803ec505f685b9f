// Package turn defines TurnPhase — the sub-phases within
// PLAYER_TURN — and the phase-sequencing rule that keeps a single
// turn's phase history a legal prefix (§4.1, §8 invariant 4).
package turn

// Phase is the closed set of turn sub-phases (§3 TurnPhase).
type Phase string

const (
	Draw                Phase = "DRAW"
	Main                Phase = "MAIN_PHASE"
	Attack               Phase = "ATTACK"
	SelectActivePokemon Phase = "SELECT_ACTIVE_POKEMON"
	End                  Phase = "END"
)

// legalNext encodes "DRAW -> MAIN_PHASE -> (ATTACK -> END | END)
// possibly interleaved with SELECT_ACTIVE_POKEMON". ATTACK -> MAIN_PHASE
// is also legal: an ASLEEP/CONFUSED status-check flip that doesn't
// clear the status (or clears it into a self-damage-only result)
// aborts the attack and returns the turn to MAIN_PHASE rather than
// completing it. DRAW -> SELECT_ACTIVE_POKEMON covers the between-turn
// status tick knocking out the incoming player's active Pokémon before
// they've taken any DRAW-phase action.
var legalNext = map[Phase]map[Phase]bool{
	Draw:                {Main: true, SelectActivePokemon: true},
	Main:                {Attack: true, End: true, SelectActivePokemon: true},
	Attack:              {Main: true, End: true, SelectActivePokemon: true},
	End:                 {Draw: true, SelectActivePokemon: true}, // Draw: next turn begins
	SelectActivePokemon: {End: true, Main: true},
}

// CanAdvance reports whether to is a legal next sub-phase from from.
func CanAdvance(from, to Phase) bool {
	return from == to || legalNext[from][to]
}
