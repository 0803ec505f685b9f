package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition_LegalChain(t *testing.T) {
	chain := []State{
		StateCreated, StateWaitingForPlayers, StateDeckValidation, StateMatchApproval,
		StateDrawingCards, StateSetPrizeCards, StateSelectActivePokemon, StateSelectBenchPokemon,
		StateFirstPlayerSelection, StatePlayerTurn,
	}
	for i := 0; i < len(chain)-1; i++ {
		assert.True(t, CanTransition(chain[i], chain[i+1]), "%s -> %s should be legal", chain[i], chain[i+1])
	}
}

func TestCanTransition_RejectsSkippedStates(t *testing.T) {
	assert.False(t, CanTransition(StateCreated, StateMatchApproval))
	assert.False(t, CanTransition(StateDrawingCards, StateSelectBenchPokemon))
}

func TestCanTransition_ConcessionAlwaysLegalFromNonTerminal(t *testing.T) {
	for _, s := range []State{StateCreated, StateMatchApproval, StatePlayerTurn, StateBetweenTurns} {
		assert.True(t, CanTransition(s, StateMatchEnded), "concede from %s should be legal", s)
	}
}

func TestCanTransition_NoTransitionsOutOfTerminalStates(t *testing.T) {
	assert.False(t, CanTransition(StateMatchEnded, StateMatchEnded))
	assert.False(t, CanTransition(StateCancelled, StatePlayerTurn))
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, IsTerminal(StateMatchEnded))
	assert.True(t, IsTerminal(StateCancelled))
	assert.False(t, IsTerminal(StatePlayerTurn))
}

func TestPlayerTurn_BetweenTurnsLoop(t *testing.T) {
	assert.True(t, CanTransition(StatePlayerTurn, StateBetweenTurns))
	assert.True(t, CanTransition(StateBetweenTurns, StatePlayerTurn))
	assert.True(t, CanTransition(StatePlayerTurn, StateMatchEnded))
	assert.True(t, CanTransition(StateBetweenTurns, StateMatchEnded))
}
