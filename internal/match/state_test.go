package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pokettcg/rules-engine/internal/action"
	"github.com/pokettcg/rules-engine/internal/card"
)

func TestPlayerIdentifier_Other(t *testing.T) {
	assert.Equal(t, Player2, Player1.Other())
	assert.Equal(t, Player1, Player2.Other())
}

// TestCompactBench_ReindexesAfterRemoval covers the bench-compaction
// invariant from §8: bench positions are always BENCH_0..n-1
// with no gaps after a removal.
func TestCompactBench_ReindexesAfterRemoval(t *testing.T) {
	ps := PlayerState{
		Bench: []card.Instance{
			card.NewInBench("i0", "c0", 60, card.BenchPosition(0)),
			card.NewInBench("i1", "c1", 60, card.BenchPosition(1)),
			card.NewInBench("i2", "c2", 60, card.BenchPosition(2)),
		},
	}
	out := ps.RemoveBenchAt(1)
	require.Len(t, out.Bench, 2)
	assert.Equal(t, "i0", out.Bench[0].InstanceID)
	assert.Equal(t, "i2", out.Bench[1].InstanceID)
	assert.Equal(t, card.BenchPosition(0), out.Bench[0].Position)
	assert.Equal(t, card.BenchPosition(1), out.Bench[1].Position)
}

func TestRemoveBenchAt_DoesNotMutateOriginal(t *testing.T) {
	ps := PlayerState{
		Bench: []card.Instance{
			card.NewInBench("i0", "c0", 60, card.BenchPosition(0)),
			card.NewInBench("i1", "c1", 60, card.BenchPosition(1)),
		},
	}
	_ = ps.RemoveBenchAt(0)
	require.Len(t, ps.Bench, 2)
	assert.Equal(t, "i0", ps.Bench[0].InstanceID)
}

func TestAllInPlay_ActiveFirstThenBench(t *testing.T) {
	active := card.NewInBench("active-1", "c0", 60, card.PositionActive)
	ps := PlayerState{
		Active: &active,
		Bench:  []card.Instance{card.NewInBench("bench-1", "c1", 60, card.BenchPosition(0))},
	}
	all := ps.AllInPlay()
	require.Len(t, all, 2)
	assert.Equal(t, "active-1", all[0].InstanceID)
	assert.Equal(t, "bench-1", all[1].InstanceID)
}

func TestGameState_WithAction_KeepsLastActionInSync(t *testing.T) {
	gs := NewGameState(Player1)
	s1 := action.Summary{ActionID: "a1", ActionType: action.DrawCard}
	g1 := gs.WithAction(s1)
	require.NotNil(t, g1.LastAction)
	assert.Equal(t, "a1", g1.LastAction.ActionID)

	s2 := action.Summary{ActionID: "a2", ActionType: action.EndTurn}
	g2 := g1.WithAction(s2)
	require.Len(t, g2.ActionHistory, 2)
	assert.Equal(t, "a2", g2.LastAction.ActionID)
	// original must be untouched
	assert.Len(t, g1.ActionHistory, 1)
}

func TestGameState_EndTurn_SwapsPlayerAndClearsPerTurnFlags(t *testing.T) {
	gs := NewGameState(Player1)
	p1 := gs.Players[Player1]
	p1.HasAttachedEnergyThisTurn = true
	gs.Players[Player1] = p1
	gs.AbilityUsageThisTurn[Player1]["ability-card"] = true

	next := gs.EndTurn(action.Summary{ActionID: "end-1", ActionType: action.EndTurn})

	assert.Equal(t, Player2, next.CurrentPlayer)
	assert.Equal(t, 2, next.TurnNumber)
	assert.Equal(t, PhaseDraw, next.Phase)
	assert.False(t, next.Players[Player1].HasAttachedEnergyThisTurn)
	assert.Empty(t, next.AbilityUsageThisTurn[Player1])
}

func TestGameState_Clone_IsDeep(t *testing.T) {
	gs := NewGameState(Player1)
	p1 := gs.Players[Player1]
	p1.Hand = []string{"card-a", "card-b"}
	gs.Players[Player1] = p1

	clone := gs.clone()
	clonedPlayer := clone.Players[Player1]
	clonedPlayer.Hand = append(clonedPlayer.Hand, "card-c")
	clone.Players[Player1] = clonedPlayer

	assert.Len(t, gs.Players[Player1].Hand, 2, "mutating the clone must not affect the original")
	assert.Len(t, clone.Players[Player1].Hand, 3)
}

// TestMatch_Clone_DeepCopiesGates covers the card-conservation-adjacent
// invariant that cloning a Match never lets two clones alias the same
// underlying slice or map.
func TestMatch_Clone_DeepCopiesGates(t *testing.T) {
	m := NewMatch("match-1", "tournament-1")
	clone := m.Clone()
	clone.Gates[Player1].Approved = true

	assert.False(t, m.Gates[Player1].Approved, "mutating the clone's gates must not affect the original")
}

func TestMatch_IdentifierFor(t *testing.T) {
	m := NewMatch("match-1", "")
	m.Player1ID = "alice"
	m.Player2ID = "bob"

	id, ok := m.IdentifierFor("alice")
	require.True(t, ok)
	assert.Equal(t, Player1, id)

	id, ok = m.IdentifierFor("bob")
	require.True(t, ok)
	assert.Equal(t, Player2, id)

	_, ok = m.IdentifierFor("carol")
	assert.False(t, ok)
}

// TestWinConditions_AreDistinct is a cheap guard against the closed set
// of WinCondition values accidentally colliding.
func TestWinConditions_AreDistinct(t *testing.T) {
	conds := []WinCondition{WinAllPrizesTaken, WinOpponentNoPokemon, WinDeckOut, WinConcession}
	seen := map[WinCondition]bool{}
	for _, c := range conds {
		assert.False(t, seen[c], "duplicate win condition %s", c)
		seen[c] = true
	}
}
