// Package coinflip implements CoinFlipState and the approval-gated
// resolver (§3 CoinFlipState, §4.3 GENERATE_COIN_FLIP). ATTACK
// context flips require both players to approve before any flip is
// generated, preventing either player from privately computing the
// outcome; every other context generates on the first approval by the
// controlling player.
package coinflip

import (
	"github.com/pokettcg/rules-engine/internal/card"
	"github.com/pokettcg/rules-engine/internal/rng"
)

// Status is READY_TO_FLIP until results are generated, then RESOLVED.
type Status string

const (
	StatusReadyToFlip Status = "READY_TO_FLIP"
	StatusResolved    Status = "RESOLVED"
)

// Context is the closed set of situations that request a coin flip.
type Context string

const (
	ContextAttack      Context = "ATTACK"
	ContextStatusCheck Context = "STATUS_CHECK"
	ContextAbility     Context = "ABILITY"
	ContextTrainer     Context = "TRAINER"
)

// Result is one resolved flip.
type Result struct {
	FlipIndex int
	Heads     bool
	Seed      int64
}

// State is the CoinFlipState value object from §3.
type State struct {
	Status              Status
	Context             Context
	Configuration       card.CoinFlipConfiguration
	Results             []Result
	AttackIndex         *int
	PokemonInstanceID   string
	StatusEffect        string
	ActionID            string
	Player1HasApproved  bool
	Player2HasApproved  bool
}

// NewPending creates a READY_TO_FLIP state awaiting approval.
func NewPending(ctx Context, cfg card.CoinFlipConfiguration, actionID string) State {
	return State{Status: StatusReadyToFlip, Context: ctx, Configuration: cfg, ActionID: actionID}
}

// Approve records one player's approval. It returns the updated state
// and whether the approval just satisfied the generation gate (both
// approved for ATTACK; the first approval for every other context).
func (s State) Approve(isPlayer1 bool) (State, bool) {
	out := s
	if isPlayer1 {
		out.Player1HasApproved = true
	} else {
		out.Player2HasApproved = true
	}
	if out.Status == StatusResolved {
		return out, false
	}
	if out.Context == ContextAttack {
		return out, out.Player1HasApproved && out.Player2HasApproved
	}
	return out, true
}

// Resolve generates the configured number of flips deterministically
// and marks the state RESOLVED, per §4.4. attachedEnergyCount is used
// only for VARIABLE configurations.
func (s State) Resolve(matchID string, turn int, attachedEnergyCount int) State {
	out := s
	var flips []rng.Flip
	switch s.Configuration.Kind {
	case card.FlipCountFixed:
		flips = rng.GenerateFixed(matchID, turn, s.ActionID, s.Configuration.N)
	case card.FlipCountUntilTails:
		flips = rng.GenerateUntilTails(matchID, turn, s.ActionID, s.Configuration.N)
	case card.FlipCountVariable:
		flips = rng.GenerateFixed(matchID, turn, s.ActionID, attachedEnergyCount)
	default:
		flips = rng.GenerateFixed(matchID, turn, s.ActionID, 1)
	}
	results := make([]Result, 0, len(flips))
	for _, f := range flips {
		results = append(results, Result{FlipIndex: f.FlipIndex, Heads: f.Heads, Seed: f.Seed})
	}
	out.Results = results
	out.Status = StatusResolved
	return out
}

// HeadsCount counts heads among the resolved results.
func (s State) HeadsCount() int {
	n := 0
	for _, r := range s.Results {
		if r.Heads {
			n++
		}
	}
	return n
}

// AnyHeads reports whether at least one flip landed heads.
func (s State) AnyHeads() bool {
	return s.HeadsCount() > 0
}

// AllTails reports whether every flip landed tails (false if no
// results yet).
func (s State) AllTails() bool {
	return len(s.Results) > 0 && s.HeadsCount() == 0
}
