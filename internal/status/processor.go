// Package status implements the between-turn status effect processor:
// poison/burn/paralysis ticks run once per turn, before legality
// checks for the new turn (§4.5).
package status

import (
	"fmt"

	"github.com/pokettcg/rules-engine/internal/card"
	"github.com/pokettcg/rules-engine/internal/match"
	"github.com/pokettcg/rules-engine/internal/rng"
)

const burnDamage = 20

// Outcome summarizes what the status pass did, for the caller
// (internal/dispatch) to fold into prize-selection and win-condition
// flow.
type Outcome struct {
	GameState       *match.GameState
	Knockouts       []Knockout
}

// Knockout records one Pokémon knocked out by a status tick.
type Knockout struct {
	Owner      match.PlayerIdentifier
	InstanceID string
}

// Process runs one between-turn pass over every Pokémon in play for
// both players, per §4.5:
//   - POISONED: poison_damage_amount self-damage (default 10).
//   - BURNED: one coin flip per affected Pokémon; tails deals 20.
//   - ASLEEP: left in place; the wake-up coin flip happens when the
//     owner next tries to ATTACK.
//   - PARALYZED: cleared unconditionally (§9.2).
//   - CONFUSED: persists, handled at attack time.
//   - Damage prevention/reduction effects whose expires_at_turn equals
//     the new turn number are cleared.
func Process(gs *match.GameState, matchID string) Outcome {
	out := gs
	var knockouts []Knockout

	for _, owner := range []match.PlayerIdentifier{match.Player1, match.Player2} {
		ps := out.Players[owner]
		if ps.Active != nil {
			updated, ko := tick(matchID, out.TurnNumber, *ps.Active)
			ps.Active = &updated
			if ko {
				knockouts = append(knockouts, Knockout{Owner: owner, InstanceID: updated.InstanceID})
			}
		}
		for i := range ps.Bench {
			updated, ko := tick(matchID, out.TurnNumber, ps.Bench[i])
			ps.Bench[i] = updated
			if ko {
				knockouts = append(knockouts, Knockout{Owner: owner, InstanceID: updated.InstanceID})
			}
		}
		out = out.WithPlayer(owner, ps)
	}

	return Outcome{GameState: out, Knockouts: knockouts}
}

// tick applies one between-turn pass to a single Pokémon and reports
// whether it was knocked out.
func tick(matchID string, turn int, inst card.Instance) (card.Instance, bool) {
	if inst.HasStatus(card.StatusPoisoned) {
		inst = inst.WithDamage(inst.PoisonDamage())
	}
	if inst.HasStatus(card.StatusBurned) {
		actionID := fmt.Sprintf("status-burn:%s", inst.InstanceID)
		flip := rng.GenerateFlip(matchID, turn, actionID, 0)
		if !flip.Heads {
			inst = inst.WithDamage(burnDamage)
		}
	}
	if inst.HasStatus(card.StatusParalyzed) {
		inst = inst.WithStatus(card.StatusParalyzed, false)
	}
	inst = inst.ClearExpiredPrevention(turn)
	// ASLEEP wake-up is attempted when the owner next tries to ATTACK
	// (handled in internal/dispatch's attack handler, which creates the
	// STATUS_CHECK coin-flip state per §4.3); nothing to do here
	// beyond leaving the status in place.
	return inst, inst.IsKnockedOut()
}
