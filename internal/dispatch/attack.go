package dispatch

import (
	"github.com/pokettcg/rules-engine/internal/action"
	"github.com/pokettcg/rules-engine/internal/attacktext"
	"github.com/pokettcg/rules-engine/internal/card"
	"github.com/pokettcg/rules-engine/internal/coinflip"
	"github.com/pokettcg/rules-engine/internal/damage"
	"github.com/pokettcg/rules-engine/internal/engineerr"
	"github.com/pokettcg/rules-engine/internal/match"
)

// handleAttack resolves an ATTACK action per §4.3: validate the
// attacker can act, pay no additional cost (energy was paid at attach
// time), and either resolve damage immediately or park the attack
// behind a CoinFlipState when the Pokémon is ASLEEP/CONFUSED or the
// attack's text requires flips.
func (d *Dispatcher) handleAttack(c *ctx, m *match.Match, req action.Request) (*match.Match, error) {
	attackIndex, err := intData(req, "attack_index")
	if err != nil {
		return nil, err
	}
	gs := m.GameState
	ps := gs.Players[c.actor]
	if ps.Active == nil {
		return nil, engineerr.New(engineerr.PreconditionFailed, "no active Pokémon")
	}
	if ps.Active.HasStatus(card.StatusParalyzed) {
		return nil, engineerr.New(engineerr.PreconditionFailed, "cannot attack while Paralyzed")
	}

	if ps.Active.HasStatus(card.StatusAsleep) || ps.Active.HasStatus(card.StatusConfused) {
		return d.gateStatusCheckedAttack(c, m, gs, req, ps.Active, attackIndex)
	}

	gs = gs.WithAction(c.summary(req))
	return d.executeAttack(c, m, gs, c.actor, attackIndex)
}

const confusionSelfDamage = 30

// gateStatusCheckedAttack implements the ASLEEP/CONFUSED attack gates
// from §4.3: both require a resolved STATUS_CHECK coin flip bound
// to this Pokémon before the attack may proceed. If no matching flip is
// pending yet, one is created and the attempt is parked in PhaseAttack
// awaiting GENERATE_COIN_FLIP (S2); once that flip resolves,
// handleGenerateCoinFlip finishes the attack (or applies confusion
// self-damage) directly — a second ATTACK call is never required. If a
// flip is already pending but unresolved, the attempt is rejected.
func (d *Dispatcher) gateStatusCheckedAttack(c *ctx, m *match.Match, gs *match.GameState, req action.Request, active *card.Instance, attackIndex int) (*match.Match, error) {
	status := card.StatusConfused
	label := "Confused"
	if active.HasStatus(card.StatusAsleep) {
		status = card.StatusAsleep
		label = "Asleep"
	}

	cf := gs.CoinFlipState
	pending := cf != nil && cf.Context == coinflip.ContextStatusCheck &&
		cf.PokemonInstanceID == active.InstanceID && cf.StatusEffect == string(status)
	if pending {
		return nil, engineerr.New(engineerr.PreconditionFailed,
			"cannot attack while %s. Flip a coin to check %s first.", label, label)
	}

	idx := attackIndex
	created := coinflip.NewPending(coinflip.ContextStatusCheck, card.CoinFlipConfiguration{Kind: card.FlipCountFixed, N: 1}, c.actionID)
	created.PokemonInstanceID = active.InstanceID
	created.StatusEffect = string(status)
	created.AttackIndex = &idx
	gs = gs.WithCoinFlipState(&created).WithAction(c.summary(req))
	gs, err := advancePhase(gs, match.PhaseAttack)
	if err != nil {
		return nil, err
	}
	m.GameState = gs
	return m, nil
}

// finishStatusCheckedAttack applies the outcome of a resolved
// ASLEEP/CONFUSED STATUS_CHECK flip, called from handleGenerateCoinFlip
// once both its approval gate and the underlying coin flip have
// resolved. Heads clears the status and completes the attack using the
// attack index recorded when the flip was created; ASLEEP tails simply
// keeps the Pokémon asleep (no damage); CONFUSED tails deals 30
// self-damage and may knock the attacker out (S2).
func (d *Dispatcher) finishStatusCheckedAttack(c *ctx, m *match.Match, gs *match.GameState, cf coinflip.State) (*match.Match, error) {
	attacker := gs.CurrentPlayer
	ps := gs.Players[attacker]
	if ps.Active == nil || ps.Active.InstanceID != cf.PokemonInstanceID {
		return nil, engineerr.New(engineerr.Internal, "status-check coin flip resolved for a Pokémon no longer in play")
	}
	status := card.Status(cf.StatusEffect)

	if cf.AnyHeads() {
		updated := ps.Active.WithStatus(status, false)
		ps.Active = &updated
		gs = gs.WithPlayer(attacker, ps).WithCoinFlipState(nil)
		gs, err := advancePhase(gs, match.PhaseMain)
		if err != nil {
			return nil, err
		}
		m.GameState = gs
		if cf.AttackIndex == nil {
			return nil, engineerr.New(engineerr.Internal, "status-check coin flip missing its attack index")
		}
		return d.executeAttack(c, m, gs, attacker, *cf.AttackIndex)
	}

	if status == card.StatusConfused {
		damaged := ps.Active.WithDamage(confusionSelfDamage)
		ps.Active = &damaged
	}
	gs = gs.WithPlayer(attacker, ps).WithCoinFlipState(nil)
	gs, err := advancePhase(gs, match.PhaseMain)
	if err != nil {
		return nil, err
	}
	m.GameState = gs
	return d.enqueueKnockoutsAndContinue(c, m, gs, attacker)
}

// executeAttack runs the body of an ATTACK once any ASLEEP/CONFUSED
// gate has cleared: validate the attack index and energy cost, resolve
// damage immediately, or park behind a CoinFlipState when the attack
// text requires coin flips. attacker is threaded explicitly because
// this may run from handleGenerateCoinFlip on behalf of whichever
// player's turn it is, not necessarily the request's caller.
func (d *Dispatcher) executeAttack(c *ctx, m *match.Match, gs *match.GameState, attacker match.PlayerIdentifier, attackIndex int) (*match.Match, error) {
	ps := gs.Players[attacker]
	opp := gs.Players[attacker.Other()]
	if ps.Active == nil {
		return nil, engineerr.New(engineerr.PreconditionFailed, "no active Pokémon")
	}
	attackerCard, ok := c.cards[ps.Active.CardID]
	if !ok || attackIndex < 0 || attackIndex >= len(attackerCard.Attacks) {
		return nil, engineerr.New(engineerr.InvalidActionData, "invalid attack index %d", attackIndex)
	}
	atk := attackerCard.Attacks[attackIndex]
	if !energyCostSatisfied(atk.Cost, ps.Active.AttachedEnergy, c.cards) {
		return nil, engineerr.New(engineerr.PreconditionFailed, "attack %s is not fully paid for", atk.Name)
	}
	if opp.Active == nil {
		return nil, engineerr.New(engineerr.PreconditionFailed, "opponent has no active Pokémon to attack")
	}
	defenderCard, ok := c.cards[opp.Active.CardID]
	if !ok {
		return nil, engineerr.New(engineerr.Internal, "card %s not in catalog", opp.Active.CardID)
	}

	if attacktext.RequiresCoinFlips(atk.Semantics) {
		cf := coinflip.NewPending(coinflip.ContextAttack, *atk.Semantics.Flips, c.actionID)
		idx := attackIndex
		cf.AttackIndex = &idx
		gs = gs.WithCoinFlipState(&cf)
		gs, err := advancePhase(gs, match.PhaseAttack)
		if err != nil {
			return nil, err
		}
		m.GameState = gs
		return m, nil
	}

	borrowed := *c
	borrowed.actor = attacker
	gs, err := d.resolveAttackDamage(&borrowed, gs, atk, 0, attackerCard.PokemonType, defenderCard)
	if err != nil {
		return nil, err
	}
	m.GameState = gs
	gs, err = advancePhase(gs, match.PhaseEnd)
	if err != nil {
		return nil, err
	}
	return d.enqueueKnockoutsAndContinue(c, m, gs, attacker)
}

func energyCostSatisfied(cost card.EnergyCost, attached []string, cards map[string]card.Card) bool {
	byType := map[card.EnergyType]int{}
	total := 0
	for _, id := range attached {
		if cd, ok := cards[id]; ok && cd.Kind == card.KindEnergy {
			for _, t := range cd.Provisions() {
				byType[t]++
			}
			total++
		}
	}
	need := 0
	for t, n := range cost.Types {
		if byType[t] < n {
			return false
		}
		need += n
	}
	return total-need >= cost.Colorless
}

// resolveAttackDamage runs the damage pipeline and applies its result
// (plus any secondary bench damage, self damage, status infliction,
// and energy discard) to the game state.
func (d *Dispatcher) resolveAttackDamage(c *ctx, gs *match.GameState, atk card.Attack, headsCount int, attackerType card.EnergyType, defenderCard card.Card) (*match.GameState, error) {
	attacker := c.actor
	defender := attacker.Other()
	ps := gs.Players[attacker]
	ops := gs.Players[defender]

	attachedTypes := make([]card.EnergyType, 0, len(ps.Active.AttachedEnergy))
	for _, id := range ps.Active.AttachedEnergy {
		if cd, ok := c.cards[id]; ok {
			attachedTypes = append(attachedTypes, cd.Provisions()...)
		}
	}
	defStatus := map[card.Status]bool{}
	for s := range ops.Active.StatusEffects {
		defStatus[s] = true
	}
	var activePrevention *damage.Prevention
	if p := ops.Active.ActivePrevention; p != nil {
		activePrevention = &damage.Prevention{CoversType: p.CoversType, ReducesBy: p.ReducesBy, ExpiresAtTurn: p.ExpiresAtTurn}
	}

	result := damage.Compute(damage.Input{
		Semantics:        atk.Semantics,
		AttackerType:     attackerType,
		AttackerEnergy:   attachedTypes,
		Defender:         defenderCard,
		DefenderStatus:   defStatus,
		HeadsCount:       headsCount,
		CurrentTurn:      gs.TurnNumber,
		ActivePrevention: activePrevention,
	})

	defenderInst := ops.Active.WithDamage(result.Damage)
	ops.Active = &defenderInst

	if atk.Semantics.SelfDamage > 0 {
		selfInst := ps.Active.WithDamage(atk.Semantics.SelfDamage)
		ps.Active = &selfInst
	}
	if atk.Semantics.DiscardEnergy > 0 && len(defenderInst.AttachedEnergy) > 0 {
		n := atk.Semantics.DiscardEnergy
		if n > len(defenderInst.AttachedEnergy) {
			n = len(defenderInst.AttachedEnergy)
		}
		idxs := make([]int, n)
		for i := range idxs {
			idxs[i] = i
		}
		stripped, _ := defenderInst.WithoutEnergyAt(idxs)
		ops.Active = &stripped
	}
	if result.Damage > 0 {
		for _, inf := range atk.Semantics.Inflicts {
			if inf.RequiresFlip && headsCount == 0 {
				continue
			}
			updated := ops.Active.WithStatus(card.Status(inf.Status), true)
			ops.Active = &updated
		}
	}
	if bd := atk.Semantics.BenchDamage; bd != nil {
		for i, b := range ops.Bench {
			if bd.Target != "ALL" {
				if bc, ok := c.cards[b.CardID]; !ok || bc.Name != bd.Target {
					continue
				}
			}
			ops.Bench[i] = b.WithDamage(bd.Amount)
		}
	}

	gs = gs.WithPlayer(attacker, ps).WithPlayer(defender, ops)
	return gs, nil
}

// handleGenerateCoinFlip records the requesting player's approval and,
// once the gate is satisfied, resolves the pending CoinFlipState and
// applies whatever it was blocking (§4.3/§4.4 GENERATE_COIN_FLIP).
func (d *Dispatcher) handleGenerateCoinFlip(c *ctx, m *match.Match, req action.Request) (*match.Match, error) {
	gs := m.GameState
	if gs.CoinFlipState == nil {
		return nil, engineerr.New(engineerr.PreconditionFailed, "no coin flip is pending")
	}
	cf, ready := gs.CoinFlipState.Approve(c.actor == match.Player1)
	if !ready {
		m.GameState = gs.WithCoinFlipState(&cf).WithAction(c.summary(req))
		return m, nil
	}

	attachedEnergyCount := 0
	if ps := gs.Players[gs.CurrentPlayer]; ps.Active != nil {
		attachedEnergyCount = len(ps.Active.AttachedEnergy)
	}
	cf = cf.Resolve(c.matchID, gs.TurnNumber, attachedEnergyCount)
	gs = gs.WithCoinFlipState(&cf).WithAction(c.summary(req))

	switch cf.Context {
	case coinflip.ContextAttack:
		attacker := gs.CurrentPlayer
		ps := gs.Players[attacker]
		opp := gs.Players[attacker.Other()]
		if ps.Active == nil || opp.Active == nil || cf.AttackIndex == nil {
			return nil, engineerr.New(engineerr.Internal, "attack coin flip resolved without an attacker/defender")
		}
		attackerCard, ok := c.cards[ps.Active.CardID]
		if !ok || *cf.AttackIndex >= len(attackerCard.Attacks) {
			return nil, engineerr.New(engineerr.Internal, "attack index out of range on coin flip resolution")
		}
		defenderCard, ok := c.cards[opp.Active.CardID]
		if !ok {
			return nil, engineerr.New(engineerr.Internal, "card %s not in catalog", opp.Active.CardID)
		}
		atk := attackerCard.Attacks[*cf.AttackIndex]
		var err error
		gs, err = d.resolveAttackDamageAs(attacker, c, gs, atk, cf.HeadsCount(), attackerCard.PokemonType, defenderCard)
		if err != nil {
			return nil, err
		}
		gs = gs.WithCoinFlipState(nil)
		gs, err = advancePhase(gs, match.PhaseEnd)
		if err != nil {
			return nil, err
		}
		m.GameState = gs
		return d.enqueueKnockoutsAndContinue(c, m, gs, attacker)
	case coinflip.ContextStatusCheck:
		return d.finishStatusCheckedAttack(c, m, gs, cf)
	default:
		gs = gs.WithCoinFlipState(nil)
	}
	m.GameState = gs
	return m, nil
}

// resolveAttackDamageAs is resolveAttackDamage with an explicit actor,
// used when resolving a coin flip created by an earlier ATTACK action
// (the dispatcher's ctx.actor is the requester, who may be the
// defender approving the flip rather than the attacker).
func (d *Dispatcher) resolveAttackDamageAs(attacker match.PlayerIdentifier, c *ctx, gs *match.GameState, atk card.Attack, headsCount int, attackerType card.EnergyType, defenderCard card.Card) (*match.GameState, error) {
	borrowed := *c
	borrowed.actor = attacker
	return d.resolveAttackDamage(&borrowed, gs, atk, headsCount, attackerType, defenderCard)
}

// enqueueKnockoutsAndContinue scans both players' in-play Pokémon for
// knockouts already produced by damage application (attack, self
// damage, bench damage, or the between-turn status tick the caller ran
// beforehand), queues the resulting prize selections (attacker's
// knockouts first, per §9.3), removes the knocked-out
// instances from play, and checks win conditions before returning.
// This never re-runs the status tick itself — that only happens once,
// in handleEndTurn, so poison/burn damage is never double-applied
// within the same turn.
func (d *Dispatcher) enqueueKnockoutsAndContinue(c *ctx, m *match.Match, gs *match.GameState, attacker match.PlayerIdentifier) (*match.Match, error) {
	return d.enqueueKnockoutsAndContinueWithSource(c, m, gs, "ATTACK", attacker)
}

// enqueueKnockoutsAndContinueWithSource is enqueueKnockoutsAndContinue
// with an explicit PendingPrizeSelection.Source tag, so handleEndTurn
// can attribute status-tick knockouts as STATUS_EFFECT (§4.5)
// while attack-path callers keep the default ATTACK tag. first names
// the player whose prize entitlements (from knockouts on the other
// player's side) are queued first, so a simultaneous double
// knockout resolves attacker-first per §4.1/§9.3: that means scanning
// the attacker's own Pokémon for knockouts *last*, since a knockout on
// owner's side queues a prize for owner.Other().
func (d *Dispatcher) enqueueKnockoutsAndContinueWithSource(c *ctx, m *match.Match, gs *match.GameState, source string, first match.PlayerIdentifier) (*match.Match, error) {
	var queue []match.PendingPrizeSelection
	queue = append(queue, gs.PendingPrizeSelections...)

	for _, owner := range []match.PlayerIdentifier{first.Other(), first} {
		ps := gs.Players[owner]
		if ps.Active != nil && ps.Active.IsKnockedOut() {
			queue = append(queue, match.PendingPrizeSelection{Player: owner.Other(), Source: source})
			gs = removeKnockedOutInstance(gs, owner, ps.Active.InstanceID)
		}
		ps = gs.Players[owner]
		for i := 0; i < len(ps.Bench); {
			if ps.Bench[i].IsKnockedOut() {
				queue = append(queue, match.PendingPrizeSelection{Player: owner.Other(), Source: source})
				gs = removeKnockedOutInstance(gs, owner, ps.Bench[i].InstanceID)
				ps = gs.Players[owner]
				continue
			}
			i++
		}
	}

	gs = gs.WithPendingPrizeSelections(queue)
	m.GameState = gs

	if _, winner, cond, ok := checkWinConditions(gs, first); ok {
		return d.finishMatch(c, m, gs, winner, cond)
	}

	if len(queue) > 0 {
		next, err := advancePhase(gs, match.PhaseSelectActivePokemon)
		if err != nil {
			return nil, err
		}
		m.GameState = next
	}
	return m, nil
}

func removeKnockedOutInstance(gs *match.GameState, owner match.PlayerIdentifier, instanceID string) *match.GameState {
	ps := gs.Players[owner]
	if ps.Active != nil && ps.Active.InstanceID == instanceID {
		ps.Active = nil
	} else {
		for i, b := range ps.Bench {
			if b.InstanceID == instanceID {
				ps = ps.RemoveBenchAt(i)
				break
			}
		}
	}
	return gs.WithPlayer(owner, ps)
}

// checkWinConditions reports the first satisfied win condition, if
// any (§4.1/§3 WinCondition: ALL_PRIZES_TAKEN, OPPONENT_NO_POKEMON).
// first's win is checked ahead of first.Other()'s in both passes, so a
// simultaneous race (both players reaching zero prize cards, or both
// losing their last Pokémon, in the same resolution) is resolved in
// first's favor — the attacker in an attack-path call, per §4.1's
// "attacker wins simultaneous empty-prize races" tiebreak.
func checkWinConditions(gs *match.GameState, first match.PlayerIdentifier) (match.MatchResult, match.PlayerIdentifier, match.WinCondition, bool) {
	for _, p := range []match.PlayerIdentifier{first, first.Other()} {
		ps := gs.Players[p]
		if len(ps.PrizeCards) == 0 && ps.Active != nil && cardsEverSet(ps) {
			return match.ResultWin, p, match.WinAllPrizesTaken, true
		}
	}
	for _, p := range []match.PlayerIdentifier{first.Other(), first} {
		ps := gs.Players[p]
		if ps.Active == nil && len(ps.Bench) == 0 {
			return match.ResultWin, p.Other(), match.WinOpponentNoPokemon, true
		}
	}
	return "", "", "", false
}

// cardsEverSet guards against the zero-value all-zero GameState (before
// SET_PRIZE_CARDS has run) being mistaken for an ALL_PRIZES_TAKEN win.
func cardsEverSet(ps match.PlayerState) bool {
	return len(ps.Deck) > 0 || len(ps.Hand) > 0 || ps.Active != nil || len(ps.Bench) > 0 || len(ps.DiscardPile) > 0
}

// handleSelectPrize resolves one queued prize obligation: the
// specified player takes one prize card into hand, per §4.3
// Select prize. Double-knockout ties are resolved attacker-first by
// the queue's insertion order (§9.3).
func (d *Dispatcher) handleSelectPrize(c *ctx, m *match.Match, req action.Request) (*match.Match, error) {
	prizeIndex, err := intData(req, "prize_index")
	if err != nil {
		return nil, err
	}
	gs := m.GameState
	pos := -1
	for i, p := range gs.PendingPrizeSelections {
		if p.Player == c.actor {
			pos = i
			break
		}
	}
	if pos < 0 {
		return nil, engineerr.New(engineerr.PreconditionFailed, "%s has no pending prize selection", c.actor)
	}
	ps := gs.Players[c.actor]
	if prizeIndex < 0 || prizeIndex >= len(ps.PrizeCards) {
		return nil, engineerr.New(engineerr.InvalidActionData, "invalid prize index %d", prizeIndex)
	}
	taken := ps.PrizeCards[prizeIndex]
	ps.PrizeCards = append(append([]string{}, ps.PrizeCards[:prizeIndex]...), ps.PrizeCards[prizeIndex+1:]...)
	ps.Hand = append(append([]string{}, ps.Hand...), taken)
	gs = gs.WithPlayer(c.actor, ps)

	queue := append(append([]match.PendingPrizeSelection{}, gs.PendingPrizeSelections[:pos]...), gs.PendingPrizeSelections[pos+1:]...)
	gs = gs.WithPendingPrizeSelections(queue).WithAction(c.summary(req))
	m.GameState = gs

	if _, winner, cond, ok := checkWinConditions(gs, c.actor); ok {
		return d.finishMatch(c, m, gs, winner, cond)
	}

	if len(queue) == 0 {
		var anyBenchless bool
		for _, p := range []match.PlayerIdentifier{match.Player1, match.Player2} {
			if gs.Players[p].Active == nil {
				anyBenchless = true
			}
		}
		var to match.TurnPhase
		if anyBenchless {
			to = match.PhaseSelectActivePokemon
		} else {
			to = match.PhaseEnd
		}
		next, err := advancePhase(gs, to)
		if err != nil {
			return nil, err
		}
		m.GameState = next
	}
	return m, nil
}

// finishMatch records the terminal MATCH_ENDED state.
func (d *Dispatcher) finishMatch(c *ctx, m *match.Match, gs *match.GameState, winner match.PlayerIdentifier, cond match.WinCondition) (*match.Match, error) {
	m.GameState = gs
	m.State = match.StateMatchEnded
	m.WinnerID = playerID(m, winner)
	m.Result = match.ResultWin
	m.WinCondition = cond
	now := c.now
	m.EndedAt = &now
	return m, nil
}
