// Package effects implements the effect condition evaluator and the
// metadata-driven trainer/ability effect executor (§4 Effect
// condition evaluator, Trainer effect executor, Ability effect
// executor). Effects are data (card.Effect variants), dispatched
// through one exhaustive switch rather than per-effect service
// classes, per the design note.
package effects

import (
	"github.com/pokettcg/rules-engine/internal/card"
	"github.com/pokettcg/rules-engine/internal/match"
)

// Evaluate reports whether condition c holds for actor in gs. The
// condition type definitions live on card (card.Condition) since card
// definitions need to carry them; this package only interprets them
// against live match state.
func Evaluate(gs *match.GameState, actor match.PlayerIdentifier, c card.Condition) bool {
	ps := gs.Players[actor]
	opp := gs.Players[actor.Other()]
	switch c.Kind {
	case card.ConditionEnergyAttached:
		if ps.Active == nil {
			return false
		}
		return len(ps.Active.AttachedEnergy) >= c.Amount
	case card.ConditionCoinFlipHeads:
		return gs.CoinFlipState != nil && gs.CoinFlipState.AnyHeads()
	case card.ConditionOpponentType:
		return opp.Active != nil // presence check only; c.Type is not compared
	case card.ConditionBenchHasSpace:
		return len(ps.Bench) < match.MaxBenchSize
	case card.ConditionHandSize:
		return len(ps.Hand) >= c.Amount
	default:
		return false
	}
}

// EvaluateAll reports whether every condition holds (guards are
// conjunctive).
func EvaluateAll(gs *match.GameState, actor match.PlayerIdentifier, conds []card.Condition) bool {
	for _, c := range conds {
		if !Evaluate(gs, actor, c) {
			return false
		}
	}
	return true
}
