// Package rng implements the engine's deterministic coin flip and deck
// shuffle. Every random decision the engine makes is reproducible from
// identity alone (§4.4, §6 "deterministic invariants"): replaying
// the same action history against the same match id always produces
// bit-identical results.
package rng

import (
	"hash/fnv"
	"math/rand"
	"strconv"
)

// FlipSeed derives the seed for a single coin flip from
// (matchID, turn, actionID, flipIndex). Binding the seed to the
// action_id (assigned once, at flip-state creation) is what makes the
// flip non-manipulable: neither player can retry it under a new seed.
func FlipSeed(matchID string, turn int, actionID string, flipIndex int) int64 {
	return stableSeed(matchID, strconv.Itoa(turn), actionID, strconv.Itoa(flipIndex))
}

// ShuffleSeed derives the seed for a deck shuffle from
// (matchID, playerIdentifier, shuffleCounter). The opening-hand
// reshuffle increments shuffleCounter so each redraw attempt gets a
// fresh, still-deterministic seed.
func ShuffleSeed(matchID string, playerIdentifier string, shuffleCounter int) int64 {
	return stableSeed(matchID, playerIdentifier, strconv.Itoa(shuffleCounter))
}

func stableSeed(parts ...string) int64 {
	h := fnv.New64a()
	for _, p := range parts {
		_, _ = h.Write([]byte(p))
		_, _ = h.Write([]byte{0})
	}
	return int64(h.Sum64())
}

// Flip is a single deterministic coin flip result.
type Flip struct {
	FlipIndex int
	Heads     bool
	Seed      int64
}

// GenerateFlip produces one deterministic flip for the given identity
// tuple.
func GenerateFlip(matchID string, turn int, actionID string, flipIndex int) Flip {
	seed := FlipSeed(matchID, turn, actionID, flipIndex)
	r := rand.New(rand.NewSource(seed))
	return Flip{FlipIndex: flipIndex, Heads: r.Intn(2) == 0, Seed: seed}
}

// GenerateFixed produces n flips for a FIXED coin-flip configuration.
func GenerateFixed(matchID string, turn int, actionID string, n int) []Flip {
	flips := make([]Flip, 0, n)
	for i := 0; i < n; i++ {
		flips = append(flips, GenerateFlip(matchID, turn, actionID, i))
	}
	return flips
}

// UntilTailsSafetyCap bounds "flip a coin until tails" sequences.
const UntilTailsSafetyCap = 64

// GenerateUntilTails flips until the first tails or the safety cap is
// hit, per §4.4/§4.3 "generate until a tails appears or a safety cap is
// hit".
func GenerateUntilTails(matchID string, turn int, actionID string, cap int) []Flip {
	if cap <= 0 || cap > UntilTailsSafetyCap {
		cap = UntilTailsSafetyCap
	}
	var flips []Flip
	for i := 0; i < cap; i++ {
		f := GenerateFlip(matchID, turn, actionID, i)
		flips = append(flips, f)
		if !f.Heads {
			break
		}
	}
	return flips
}

// HeadsCount counts heads results among flips.
func HeadsCount(flips []Flip) int {
	n := 0
	for _, f := range flips {
		if f.Heads {
			n++
		}
	}
	return n
}

// Shuffle performs a deterministic Fisher-Yates shuffle of ids, seeded
// by seed.
func Shuffle(ids []string, seed int64) []string {
	out := append([]string{}, ids...)
	r := rand.New(rand.NewSource(seed))
	r.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// OpeningHandRedrawCap bounds how many times the shuffler re-draws to
// satisfy opening-hand composition rules before giving up and keeping
// the last hand (with a warning logged by the caller).
const OpeningHandRedrawCap = 100
