package dispatch

import (
	"github.com/pokettcg/rules-engine/internal/action"
	"github.com/pokettcg/rules-engine/internal/card"
	"github.com/pokettcg/rules-engine/internal/effects"
	"github.com/pokettcg/rules-engine/internal/engineerr"
	"github.com/pokettcg/rules-engine/internal/match"
	"github.com/pokettcg/rules-engine/internal/status"
)

// handleDrawCard draws one card for the current player and advances
// the turn phase from DRAW to MAIN_PHASE (§4.3 Draw card).
func (d *Dispatcher) handleDrawCard(c *ctx, m *match.Match, req action.Request) (*match.Match, error) {
	gs := m.GameState
	ps := gs.Players[c.actor]
	if len(ps.Deck) == 0 {
		return d.finishMatch(c, m, m.GameState.WithAction(c.summary(req)), c.actor.Other(), match.WinDeckOut)
	}
	ps.Hand = append(append([]string{}, ps.Hand...), ps.Deck[0])
	ps.Deck = append([]string{}, ps.Deck[1:]...)
	gs = gs.WithPlayer(c.actor, ps).WithAction(c.summary(req))
	gs, err := advancePhase(gs, match.PhaseMain)
	if err != nil {
		return nil, err
	}
	m.GameState = gs
	return m, nil
}

// handleAttachEnergy attaches one energy card from hand to a Pokémon
// already in play (§4.3 Attach energy: at most once per turn).
func (d *Dispatcher) handleAttachEnergy(c *ctx, m *match.Match, req action.Request) (*match.Match, error) {
	gs := m.GameState
	ps := gs.Players[c.actor]
	if ps.HasAttachedEnergyThisTurn {
		return nil, engineerr.New(engineerr.PreconditionFailed, "energy already attached this turn")
	}
	energyCardID, err := stringData(req, "energy_card_id")
	if err != nil {
		return nil, err
	}
	target, err := stringData(req, "target")
	if err != nil {
		return nil, err
	}
	cd, ok := c.cards[energyCardID]
	if !ok || cd.Kind != card.KindEnergy {
		return nil, engineerr.New(engineerr.InvalidActionData, "card %s is not an energy card", energyCardID)
	}
	sel := effects.Selection{HandCardID: energyCardID, Target: target}
	newGS, err := effects.Apply(gs, card.Effect{Kind: card.EffectAttachEnergy}, effects.Context{Cards: c.cards, Actor: c.actor, Sel: sel})
	if err != nil {
		return nil, err
	}
	updated := newGS.Players[c.actor]
	updated.HasAttachedEnergyThisTurn = true
	m.GameState = newGS.WithPlayer(c.actor, updated).WithAction(c.summary(req))
	return m, nil
}

// handleEvolvePokemon evolves a Pokémon already in play into its next
// stage, preserving instance_id, attached energy, and absolute damage
// while clearing status (§4.3 Evolve Pokémon). A Pokémon evolves at
// most once per turn; a Pokémon that entered play this turn is not
// blocked from evolving.
func (d *Dispatcher) handleEvolvePokemon(c *ctx, m *match.Match, req action.Request) (*match.Match, error) {
	evoCardID, err := stringData(req, "evolution_card_id")
	if err != nil {
		return nil, err
	}
	target, err := stringData(req, "target")
	if err != nil {
		return nil, err
	}
	evoCard, ok := c.cards[evoCardID]
	if !ok || evoCard.Kind != card.KindPokemon {
		return nil, engineerr.New(engineerr.InvalidActionData, "card %s is not a Pokémon", evoCardID)
	}

	gs := m.GameState
	ps := gs.Players[c.actor]
	inst, idx, err := instanceAt(ps, target)
	if err != nil {
		return nil, err
	}
	base, ok := c.cards[inst.CardID]
	if !ok {
		return nil, engineerr.New(engineerr.Internal, "card %s not in catalog", inst.CardID)
	}
	if evoCard.EvolvesFrom != base.Name {
		return nil, engineerr.New(engineerr.InvalidActionData, "%s does not evolve from %s", evoCard.Name, base.Name)
	}
	if inst.EvolvedAtTurn == gs.TurnNumber {
		return nil, engineerr.New(engineerr.PreconditionFailed, "this Pokémon already evolved this turn")
	}
	// EvolvedAtTurn is the only per-instance turn record: its zero value
	// means never evolved, so a Pokémon played this turn passes the
	// check above. The turn it entered play is not tracked.
	ps.Hand = removeOne(ps.Hand, evoCardID)
	evolved := inst.Evolve(evoCardID, evoCard.HP, gs.TurnNumber)
	ps = placeAt(ps, idx, evolved)
	m.GameState = gs.WithPlayer(c.actor, ps).WithAction(c.summary(req))
	return m, nil
}

func instanceAt(ps match.PlayerState, target string) (card.Instance, int, error) {
	if target == "" || target == string(card.PositionActive) {
		if ps.Active == nil {
			return card.Instance{}, 0, engineerr.New(engineerr.PreconditionFailed, "no active Pokémon")
		}
		return *ps.Active, -1, nil
	}
	idx, ok := card.BenchIndex(card.Position(target))
	if !ok || idx >= len(ps.Bench) {
		return card.Instance{}, 0, engineerr.New(engineerr.InvalidActionData, "invalid target %q", target)
	}
	return ps.Bench[idx], idx, nil
}

func placeAt(ps match.PlayerState, idx int, inst card.Instance) match.PlayerState {
	if idx < 0 {
		ps.Active = &inst
		return ps
	}
	ps.Bench[idx] = inst
	return ps
}

func removeOne(ss []string, v string) []string {
	out := append([]string{}, ss...)
	for i, s := range out {
		if s == v {
			return append(out[:i:i], out[i+1:]...)
		}
	}
	return out
}

// handlePlayTrainer runs a Trainer card's ordered effect list through
// internal/effects, discarding the card afterward (§4.3 Play
// trainer). DISCARD_HAND effects are applied first so a discarded card
// becomes a legal retrieval target for a later SEARCH effect in the
// same list.
func (d *Dispatcher) handlePlayTrainer(c *ctx, m *match.Match, req action.Request) (*match.Match, error) {
	cardID, err := stringData(req, "card_id")
	if err != nil {
		return nil, err
	}
	cd, ok := c.cards[cardID]
	if !ok || cd.Kind != card.KindTrainer {
		return nil, engineerr.New(engineerr.InvalidActionData, "card %s is not a Trainer", cardID)
	}
	gs := m.GameState
	ps := gs.Players[c.actor]
	idx := indexOfStr(ps.Hand, cardID)
	if idx < 0 {
		return nil, engineerr.New(engineerr.PreconditionFailed, "card %s not in hand", cardID)
	}
	ps.Hand = removeOne(ps.Hand, cardID)
	gs = gs.WithPlayer(c.actor, ps)

	sel := effects.Selection{
		HandCardID:      cardID,
		SelectedCardIDs: stringSliceData(req, "selected_card_ids"),
		Target:          dataString(req, "target"),
		PokemonCardID:   dataString(req, "pokemon_card_id"),
	}
	effectCtx := effects.Context{Cards: c.cards, Actor: c.actor, NextInstanceID: c.newInstanceID, Sel: sel}

	ordered := orderedTrainerEffects(cd.TrainerEffects)
	for _, eff := range ordered {
		gs, err = effects.Apply(gs, eff, effectCtx)
		if err != nil {
			return nil, err
		}
	}

	discardPS := gs.Players[c.actor]
	discardPS.DiscardPile = append(append([]string{}, discardPS.DiscardPile...), cardID)
	m.GameState = gs.WithPlayer(c.actor, discardPS).WithAction(c.summary(req))
	return m, nil
}

// orderedTrainerEffects puts DISCARD effects first, per §4.3.
func orderedTrainerEffects(effs []card.Effect) []card.Effect {
	var discards, rest []card.Effect
	for _, e := range effs {
		if e.Kind == card.EffectDiscard {
			discards = append(discards, e)
		} else {
			rest = append(rest, e)
		}
	}
	return append(discards, rest...)
}

func dataString(req action.Request, key string) string {
	v, _ := req.Data[key].(string)
	return v
}

// handleUseAbility runs an ACTIVATED ability's effect list, enforcing
// the once-per-turn gate for FrequencyOncePerTurn abilities (§4.3
// Use ability).
func (d *Dispatcher) handleUseAbility(c *ctx, m *match.Match, req action.Request) (*match.Match, error) {
	cardID, err := stringData(req, "card_id")
	if err != nil {
		return nil, err
	}
	instanceID, err := stringData(req, "pokemon_instance_id")
	if err != nil {
		return nil, err
	}
	cd, ok := c.cards[cardID]
	if !ok || cd.Ability == nil {
		return nil, engineerr.New(engineerr.InvalidActionData, "card %s has no ability", cardID)
	}
	if cd.Ability.Trigger != card.AbilityActivated {
		return nil, engineerr.New(engineerr.ActionNotPermitted, "ability %s is not activated", cd.Ability.Name)
	}
	gs := m.GameState
	usage := gs.AbilityUsageThisTurn[c.actor]
	if cd.Ability.Frequency == card.FrequencyOncePerTurn && usage[cardID] {
		return nil, engineerr.New(engineerr.PreconditionFailed, "ability %s already used this turn", cd.Ability.Name)
	}
	if !ownsInstance(gs.Players[c.actor], instanceID, cardID) {
		return nil, engineerr.New(engineerr.PreconditionFailed, "pokemon %s not found in play for %s", instanceID, c.actor)
	}

	sel := effects.Selection{
		SelectedCardIDs: stringSliceData(req, "selected_card_ids"),
		Target:          dataString(req, "target_pokemon"),
	}
	effectCtx := effects.Context{Cards: c.cards, Actor: c.actor, NextInstanceID: c.newInstanceID, Sel: sel}
	for _, eff := range cd.Ability.Effects {
		gs, err = effects.Apply(gs, eff, effectCtx)
		if err != nil {
			return nil, err
		}
	}

	newUsage := map[string]bool{}
	for k, v := range usage {
		newUsage[k] = v
	}
	newUsage[cardID] = true
	gs.AbilityUsageThisTurn[c.actor] = newUsage
	m.GameState = gs.WithAction(c.summary(req))
	return m, nil
}

func ownsInstance(ps match.PlayerState, instanceID, cardID string) bool {
	for _, inst := range ps.AllInPlay() {
		if inst.InstanceID == instanceID && inst.CardID == cardID {
			return true
		}
	}
	return false
}

// handleRetreat swaps the active Pokémon for a bench Pokémon, paying
// the active's retreat cost in attached energy (§4.3 Retreat: at
// most once per turn).
func (d *Dispatcher) handleRetreat(c *ctx, m *match.Match, req action.Request) (*match.Match, error) {
	benchIndex, err := intData(req, "bench_index")
	if err != nil {
		return nil, err
	}
	gs := m.GameState
	ps := gs.Players[c.actor]
	if ps.Active == nil {
		return nil, engineerr.New(engineerr.PreconditionFailed, "no active Pokémon to retreat")
	}
	if ps.Active.HasStatus(card.StatusAsleep) || ps.Active.HasStatus(card.StatusParalyzed) {
		return nil, engineerr.New(engineerr.ActionNotPermitted, "active Pokémon cannot retreat while asleep or paralyzed")
	}
	if benchIndex < 0 || benchIndex >= len(ps.Bench) {
		return nil, engineerr.New(engineerr.InvalidActionData, "invalid bench index %d", benchIndex)
	}
	activeCard, ok := c.cards[ps.Active.CardID]
	if !ok {
		return nil, engineerr.New(engineerr.Internal, "card %s not in catalog", ps.Active.CardID)
	}
	energyIndices := energyIndicesFor(req, activeCard.RetreatCost, len(ps.Active.AttachedEnergy))
	if len(energyIndices) < activeCard.RetreatCost {
		return nil, engineerr.New(engineerr.PreconditionFailed, "not enough energy to pay retreat cost %d", activeCard.RetreatCost)
	}

	paid, _ := ps.Active.WithoutEnergyAt(energyIndices)
	retreating := paid.ClearAllStatus().WithPosition(card.BenchPosition(benchIndex))
	incoming := ps.Bench[benchIndex].WithPosition(card.PositionActive)

	newBench := append([]card.Instance{}, ps.Bench...)
	newBench[benchIndex] = retreating
	ps.Bench = newBench
	ps.Active = &incoming
	ps = ps.CompactBench()
	m.GameState = gs.WithPlayer(c.actor, ps).WithAction(c.summary(req))
	return m, nil
}

func energyIndicesFor(req action.Request, cost int, attached int) []int {
	ids := stringSliceData(req, "energy_ids")
	if len(ids) > 0 {
		out := make([]int, 0, len(ids))
		for i := range ids {
			if i >= attached {
				break
			}
			out = append(out, i)
		}
		return out
	}
	n := cost
	if n > attached {
		n = attached
	}
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// handleEndTurn runs the between-turn status processor, resolves any
// resulting knockouts into the prize-selection queue, and advances to
// the next player's turn (§4.3 End turn, §4.5 status processing).
func (d *Dispatcher) handleEndTurn(c *ctx, m *match.Match, req action.Request) (*match.Match, error) {
	if len(m.GameState.PendingPrizeSelections) > 0 {
		return nil, engineerr.New(engineerr.PreconditionFailed, "pending prize selections must be resolved first")
	}
	gs := m.GameState.EndTurn(c.summary(req))
	out := status.Process(gs, c.matchID)
	// No attack triggered this pass, so there is no attacker to favor
	// in a simultaneous-knockout tie; the incoming player (whose turn
	// is starting) is as good a deterministic tiebreak as any other.
	return d.enqueueKnockoutsAndContinueWithSource(c, m, out.GameState, "STATUS_EFFECT", out.GameState.CurrentPlayer)
}
