package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pokettcg/rules-engine/internal/action"
)

func TestAvailableActions_SetupStates(t *testing.T) {
	assert.Equal(t, ActionSet{action.ApproveMatch: true, action.Concede: true}, AvailableActions(StateMatchApproval, PhaseDraw, nil))
	assert.Equal(t, ActionSet{action.DrawInitialCards: true, action.Concede: true}, AvailableActions(StateDrawingCards, PhaseDraw, nil))
	assert.Equal(t, ActionSet{action.ConfirmFirstPlayer: true, action.Concede: true}, AvailableActions(StateFirstPlayerSelection, PhaseDraw, nil))
}

func TestAvailableActions_DrawPhaseOnlyOffersDrawCard(t *testing.T) {
	gs := NewGameState(Player1)
	got := AvailableActions(StatePlayerTurn, PhaseDraw, gs)
	assert.Equal(t, ActionSet{action.DrawCard: true, action.Concede: true}, got)
}

// TestAvailableActions_AttachEnergyOncePerTurn covers the once-per-turn
// invariant from §8.
func TestAvailableActions_AttachEnergyOncePerTurn(t *testing.T) {
	gs := NewGameState(Player1)
	got := AvailableActions(StatePlayerTurn, PhaseMain, gs)
	assert.True(t, got[action.AttachEnergy], "energy not yet attached this turn should be available")

	ps := gs.Players[Player1]
	ps.HasAttachedEnergyThisTurn = true
	gs.Players[Player1] = ps
	got = AvailableActions(StatePlayerTurn, PhaseMain, gs)
	assert.False(t, got[action.AttachEnergy], "energy already attached this turn should not be offered again")
}

func TestAvailableActions_AttackOncePerTurn(t *testing.T) {
	gs := NewGameState(Player1)
	gs.ActionHistory = []action.Summary{{ActionType: action.Attack}}
	got := AvailableActions(StatePlayerTurn, PhaseMain, gs)
	assert.False(t, got[action.Attack])
}

func TestAvailableActions_RetreatOncePerTurn(t *testing.T) {
	gs := NewGameState(Player1)
	gs.ActionHistory = []action.Summary{{ActionType: action.Retreat}}
	got := AvailableActions(StatePlayerTurn, PhaseMain, gs)
	assert.False(t, got[action.Retreat])
}

func TestAvailableActions_OncePerTurnCountResetsAfterEndTurn(t *testing.T) {
	gs := NewGameState(Player1)
	gs.ActionHistory = []action.Summary{
		{ActionType: action.Attack},
		{ActionType: action.EndTurn},
	}
	got := AvailableActions(StatePlayerTurn, PhaseMain, gs)
	assert.True(t, got[action.Attack], "attack count should reset once a prior END_TURN is seen")
}

// TestAvailableActions_PendingPrizeBlocksEndTurn covers "SELECT_PRIZE
// required before END_TURN after a knockout" from §4.1.
func TestAvailableActions_PendingPrizeBlocksEndTurn(t *testing.T) {
	gs := NewGameState(Player1)
	gs.PendingPrizeSelections = []PendingPrizeSelection{{Player: Player1, Source: "ATTACK"}}
	got := AvailableActions(StatePlayerTurn, PhaseEnd, gs)
	require.False(t, got[action.EndTurn])
	assert.True(t, got[action.SelectPrize])
}

func TestAvailableActions_EndPhaseNoPendingPrizeAllowsEndTurn(t *testing.T) {
	gs := NewGameState(Player1)
	got := AvailableActions(StatePlayerTurn, PhaseEnd, gs)
	assert.True(t, got[action.EndTurn])
	assert.False(t, got[action.SelectPrize])
}

func TestAvailableActions_AttackPhaseWithoutCoinFlipOffersNoGenerate(t *testing.T) {
	got := AvailableActions(StatePlayerTurn, PhaseAttack, nil)
	assert.False(t, got[action.GenerateCoinFlip])
}

func TestAvailableActions_TerminalStatesOfferNothingBeyondDefault(t *testing.T) {
	got := AvailableActions(StateMatchEnded, PhaseDraw, nil)
	assert.Empty(t, got)
}
