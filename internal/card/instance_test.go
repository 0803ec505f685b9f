package card

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInBench_StartsAtFullHPWithNoStatus(t *testing.T) {
	inst := NewInBench("instance-1", "card-1", 90, PositionActive)
	assert.Equal(t, 90, inst.CurrentHP)
	assert.Equal(t, 90, inst.MaxHP)
	assert.Empty(t, inst.StatusEffects)
	assert.Equal(t, 0, inst.Damage())
}

func TestWithDamage_ClampsAtZero(t *testing.T) {
	inst := NewInBench("i1", "c1", 50, PositionActive)
	out := inst.WithDamage(1000)
	assert.Equal(t, 0, out.CurrentHP)
	assert.True(t, out.IsKnockedOut())
}

func TestWithDamage_DoesNotMutateReceiver(t *testing.T) {
	inst := NewInBench("i1", "c1", 50, PositionActive)
	_ = inst.WithDamage(10)
	assert.Equal(t, 50, inst.CurrentHP, "WithDamage must return a copy, not mutate in place")
}

func TestWithHeal_ClampsAtMaxHP(t *testing.T) {
	inst := NewInBench("i1", "c1", 50, PositionActive).WithDamage(40)
	out := inst.WithHeal(1000)
	assert.Equal(t, 50, out.CurrentHP)
}

func TestWithStatus_SetAndClear(t *testing.T) {
	inst := NewInBench("i1", "c1", 50, PositionActive)
	inst = inst.WithStatus(StatusPoisoned, true)
	assert.True(t, inst.HasStatus(StatusPoisoned))

	inst = inst.WithStatus(StatusPoisoned, false)
	assert.False(t, inst.HasStatus(StatusPoisoned))
}

func TestClearAllStatus(t *testing.T) {
	inst := NewInBench("i1", "c1", 50, PositionActive)
	inst = inst.WithStatus(StatusPoisoned, true).WithStatus(StatusConfused, true)
	inst = inst.ClearAllStatus()
	assert.False(t, inst.HasStatus(StatusPoisoned))
	assert.False(t, inst.HasStatus(StatusConfused))
}

func TestPoisonDamage_DefaultsToTen(t *testing.T) {
	inst := NewInBench("i1", "c1", 50, PositionActive)
	assert.Equal(t, 10, inst.PoisonDamage())

	inst.PoisonDamageAmount = 20
	assert.Equal(t, 20, inst.PoisonDamage())
}

// TestEvolve_PreservesInstanceIdentityAndDamage covers the
// instance-stability invariant from §8: evolving a Pokémon
// keeps its instance_id, attached energy, and absolute damage taken,
// while clearing status and advancing the evolution chain.
func TestEvolve_PreservesInstanceIdentityAndDamage(t *testing.T) {
	inst := NewInBench("instance-1", "charmander", 60, PositionActive)
	inst = inst.WithDamage(20).WithStatus(StatusBurned, true).WithAttachedEnergy("fire-1")

	evolved := inst.Evolve("charmeleon", 90, 4)

	assert.Equal(t, "instance-1", evolved.InstanceID, "instance_id must survive evolution")
	assert.Equal(t, "charmeleon", evolved.CardID)
	assert.Equal(t, []string{"charmander"}, evolved.EvolutionChain)
	assert.Equal(t, []string{"fire-1"}, evolved.AttachedEnergy, "attached energy must survive evolution")
	assert.Equal(t, 20, evolved.Damage(), "absolute damage taken must survive evolution")
	assert.Equal(t, 70, evolved.CurrentHP)
	assert.False(t, evolved.HasStatus(StatusBurned), "status effects must clear on evolution")
	assert.Equal(t, 4, evolved.EvolvedAtTurn)
}

func TestEvolve_DamageNeverExceedsNewMaxHP(t *testing.T) {
	inst := NewInBench("i1", "c1", 60, PositionActive).WithDamage(55)
	evolved := inst.Evolve("c2", 50, 1)
	assert.Equal(t, 0, evolved.CurrentHP)
}

func TestEvolve_ChainAccumulatesAcrossMultipleEvolutions(t *testing.T) {
	inst := NewInBench("i1", "c1", 60, PositionActive)
	inst = inst.Evolve("c2", 90, 2)
	inst = inst.Evolve("c3", 140, 6)
	assert.Equal(t, []string{"c1", "c2"}, inst.EvolutionChain)
}

func TestWithoutEnergyAt_RemovesOnlyRequestedIndices(t *testing.T) {
	inst := NewInBench("i1", "c1", 60, PositionActive)
	inst = inst.WithAttachedEnergy("e0").WithAttachedEnergy("e1").WithAttachedEnergy("e2")

	out, removed := inst.WithoutEnergyAt([]int{1})
	require.Equal(t, []string{"e1"}, removed)
	assert.Equal(t, []string{"e0", "e2"}, out.AttachedEnergy)
}

func TestBenchPositionRoundTrip(t *testing.T) {
	pos := BenchPosition(3)
	idx, ok := BenchIndex(pos)
	require.True(t, ok)
	assert.Equal(t, 3, idx)

	_, ok = BenchIndex(PositionActive)
	assert.False(t, ok)
}
