package rng

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestGenerateFlip_Deterministic covers the replay invariant from
// §8: the same (matchID, turn, actionID, flipIndex) tuple
// always produces the same flip.
func TestGenerateFlip_Deterministic(t *testing.T) {
	f1 := GenerateFlip("match-1", 3, "action-9", 0)
	f2 := GenerateFlip("match-1", 3, "action-9", 0)
	assert.Equal(t, f1, f2)
}

func TestGenerateFlip_DifferentActionDifferentResult(t *testing.T) {
	seenHeads := map[bool]bool{}
	for i := 0; i < 20; i++ {
		f := GenerateFlip("match-1", 1, "action-"+string(rune('a'+i)), 0)
		seenHeads[f.Heads] = true
	}
	// With 20 distinct action ids we expect to see both outcomes at
	// least once; a constant result would indicate the seed isn't
	// actually varying with actionID.
	assert.Len(t, seenHeads, 2)
}

func TestGenerateFixed_IndicesAreSequential(t *testing.T) {
	flips := GenerateFixed("match-2", 1, "action-1", 4)
	require.Len(t, flips, 4)
	for i, f := range flips {
		assert.Equal(t, i, f.FlipIndex)
	}
}

func TestGenerateUntilTails_StopsAtFirstTails(t *testing.T) {
	flips := GenerateUntilTails("match-3", 1, "action-flip", 0)
	require.NotEmpty(t, flips)
	for _, f := range flips[:len(flips)-1] {
		assert.True(t, f.Heads)
	}
	last := flips[len(flips)-1]
	if len(flips) < UntilTailsSafetyCap {
		assert.False(t, last.Heads)
	}
}

func TestGenerateUntilTails_RespectsSafetyCap(t *testing.T) {
	flips := GenerateUntilTails("match-3", 1, "action-flip", 0)
	assert.LessOrEqual(t, len(flips), UntilTailsSafetyCap)
}

func TestHeadsCount(t *testing.T) {
	flips := []Flip{{Heads: true}, {Heads: false}, {Heads: true}, {Heads: true}}
	assert.Equal(t, 3, HeadsCount(flips))
}

func TestShuffle_DeterministicForSameSeed(t *testing.T) {
	ids := []string{"a", "b", "c", "d", "e"}
	s1 := Shuffle(ids, 42)
	s2 := Shuffle(ids, 42)
	assert.Equal(t, s1, s2)
}

func TestShuffle_DoesNotMutateInput(t *testing.T) {
	ids := []string{"a", "b", "c"}
	original := append([]string{}, ids...)
	_ = Shuffle(ids, 7)
	assert.Equal(t, original, ids)
}

func TestShuffle_KeepsSameElements(t *testing.T) {
	ids := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	shuffled := ShuffleSeed("m", "PLAYER1", 0)
	out := Shuffle(ids, shuffled)
	assert.ElementsMatch(t, ids, out)
}

func TestShuffleSeed_VariesWithShuffleCounter(t *testing.T) {
	s1 := ShuffleSeed("match-1", "PLAYER1", 0)
	s2 := ShuffleSeed("match-1", "PLAYER1", 1)
	assert.NotEqual(t, s1, s2)
}
