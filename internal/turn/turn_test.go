package turn

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestCanAdvance_LegalSequence covers the phase-monotonicity invariant
// from §8: a turn's phase history must be a legal prefix of
// DRAW -> MAIN_PHASE -> (ATTACK -> END | END), possibly interleaved
// with SELECT_ACTIVE_POKEMON.
func TestCanAdvance_LegalSequence(t *testing.T) {
	assert.True(t, CanAdvance(Draw, Main))
	assert.True(t, CanAdvance(Main, Attack))
	assert.True(t, CanAdvance(Attack, End))
	assert.True(t, CanAdvance(Main, End))
}

func TestCanAdvance_SamePhaseIsAlwaysLegal(t *testing.T) {
	for _, p := range []Phase{Draw, Main, Attack, SelectActivePokemon, End} {
		assert.True(t, CanAdvance(p, p))
	}
}

func TestCanAdvance_SelectActivePokemonInterleaves(t *testing.T) {
	assert.True(t, CanAdvance(Main, SelectActivePokemon))
	assert.True(t, CanAdvance(Attack, SelectActivePokemon))
	assert.True(t, CanAdvance(Draw, SelectActivePokemon))
	assert.True(t, CanAdvance(SelectActivePokemon, Main))
	assert.True(t, CanAdvance(SelectActivePokemon, End))
}

func TestCanAdvance_EndBeginsNextTurnAtDraw(t *testing.T) {
	assert.True(t, CanAdvance(End, Draw))
}

func TestCanAdvance_RejectsSkippingDrawAndMain(t *testing.T) {
	assert.False(t, CanAdvance(Draw, Attack))
	assert.False(t, CanAdvance(Draw, End))
}

func TestCanAdvance_RejectsGoingBackwardsWithinATurn(t *testing.T) {
	assert.False(t, CanAdvance(Main, Draw))
	assert.False(t, CanAdvance(End, Attack))
}

// TestCanAdvance_AttackAbortReturnsToMain covers the status-check
// flip that doesn't complete an attack (ASLEEP stays asleep, or
// CONFUSED deals self-damage): the turn returns to MAIN_PHASE instead
// of finishing at END.
func TestCanAdvance_AttackAbortReturnsToMain(t *testing.T) {
	assert.True(t, CanAdvance(Attack, Main))
}
