package effects

import (
	"github.com/pokettcg/rules-engine/internal/card"
	"github.com/pokettcg/rules-engine/internal/engineerr"
	"github.com/pokettcg/rules-engine/internal/match"
)

// Selection carries the action_data fields an effect may need: which
// hand/deck/discard cards were selected, which card to put into play,
// which Pokémon to target. Callers pass the action_data fields through
// without checking them against the effect list; each apply function
// checks only the fields it uses.
type Selection struct {
	HandCardID      string
	SelectedCardIDs []string
	Target          string // "ACTIVE" or "BENCH_i"
	PokemonCardID   string
}

// Context threads everything Apply needs through a chain of effects.
type Context struct {
	Cards  map[string]card.Card
	Actor  match.PlayerIdentifier
	NextInstanceID func() string
	Sel    Selection
}

// Apply executes one effect against gs and returns the resulting
// state. Effects are ordered by the caller (§4.3 Play trainer:
// "DISCARD_HAND first so the discarded card becomes a legal retrieval
// target").
func Apply(gs *match.GameState, effect card.Effect, ctx Context) (*match.GameState, error) {
	if len(effect.Conditions) > 0 && !EvaluateAll(gs, ctx.Actor, effect.Conditions) {
		return gs, nil
	}
	switch effect.Kind {
	case card.EffectHeal:
		return applyHeal(gs, effect, ctx)
	case card.EffectDraw:
		return applyDraw(gs, effect, ctx)
	case card.EffectSearch:
		return applySearch(gs, effect, ctx)
	case card.EffectDiscard:
		return applyDiscard(gs, effect, ctx)
	case card.EffectPutIntoPlay:
		return applyPutIntoPlay(gs, effect, ctx)
	case card.EffectAttachEnergy:
		return applyAttachEnergy(gs, effect, ctx)
	case card.EffectShuffleIntoDeck:
		return applyShuffleIntoDeck(gs, effect, ctx)
	case card.EffectSwitchActive:
		return applySwitchActive(gs, effect, ctx)
	case card.EffectPreventDamage:
		return applyPreventDamage(gs, effect, ctx)
	case card.EffectCureStatus:
		return applyCureStatus(gs, effect, ctx)
	default:
		return nil, engineerr.New(engineerr.Internal, "unhandled effect kind %q", effect.Kind)
	}
}

func applyHeal(gs *match.GameState, effect card.Effect, ctx Context) (*match.GameState, error) {
	ps := gs.Players[ctx.Actor]
	target, idx, err := resolveTarget(ps, ctx.Sel.Target)
	if err != nil {
		return nil, err
	}
	healed := target.WithHeal(effect.Amount)
	ps = placeTarget(ps, idx, healed)
	return gs.WithPlayer(ctx.Actor, ps), nil
}

// applyPreventDamage grants the target Pokémon a damage-prevention
// window through the end of the opponent's next turn (§4.3 damage
// pipeline step 5), cleared by internal/status once expires_at_turn is
// reached (§4.5). effect.CardFilter names the covered energy type,
// or "" for every type; effect.Amount is the reduction, 0 meaning a
// full block.
func applyPreventDamage(gs *match.GameState, effect card.Effect, ctx Context) (*match.GameState, error) {
	ps := gs.Players[ctx.Actor]
	target, idx, err := resolveTarget(ps, ctx.Sel.Target)
	if err != nil {
		return nil, err
	}
	prevented := target.WithPrevention(card.DamagePrevention{
		CoversType:    card.EnergyType(effect.CardFilter),
		ReducesBy:     effect.Amount,
		ExpiresAtTurn: gs.TurnNumber + 1,
	})
	ps = placeTarget(ps, idx, prevented)
	return gs.WithPlayer(ctx.Actor, ps), nil
}

func applyDraw(gs *match.GameState, effect card.Effect, ctx Context) (*match.GameState, error) {
	ps := gs.Players[ctx.Actor]
	n := effect.Amount
	if n > len(ps.Deck) {
		n = len(ps.Deck)
	}
	ps.Hand = append(append([]string{}, ps.Hand...), ps.Deck[:n]...)
	ps.Deck = append([]string{}, ps.Deck[n:]...)
	return gs.WithPlayer(ctx.Actor, ps), nil
}

func applySearch(gs *match.GameState, effect card.Effect, ctx Context) (*match.GameState, error) {
	ps := gs.Players[ctx.Actor]
	deck := append([]string{}, ps.Deck...)
	hand := append([]string{}, ps.Hand...)
	for _, id := range ctx.Sel.SelectedCardIDs {
		i := indexOf(deck, id)
		if i < 0 {
			return nil, engineerr.New(engineerr.InvalidActionData, "selected card %s not in deck", id)
		}
		deck = append(deck[:i], deck[i+1:]...)
		hand = append(hand, id)
	}
	ps.Deck, ps.Hand = deck, hand
	return gs.WithPlayer(ctx.Actor, ps), nil
}

func applyDiscard(gs *match.GameState, effect card.Effect, ctx Context) (*match.GameState, error) {
	ps := gs.Players[ctx.Actor]
	hand := append([]string{}, ps.Hand...)
	discard := append([]string{}, ps.DiscardPile...)
	ids := ctx.Sel.SelectedCardIDs
	if effect.Source == card.ZoneHand && len(ids) == 0 && ctx.Sel.HandCardID != "" {
		ids = []string{ctx.Sel.HandCardID}
	}
	for _, id := range ids {
		i := indexOf(hand, id)
		if i < 0 {
			return nil, engineerr.New(engineerr.InvalidActionData, "selected card %s not in hand", id)
		}
		hand = append(hand[:i], hand[i+1:]...)
		discard = append(discard, id)
	}
	ps.Hand, ps.DiscardPile = hand, discard
	return gs.WithPlayer(ctx.Actor, ps), nil
}

func applyPutIntoPlay(gs *match.GameState, effect card.Effect, ctx Context) (*match.GameState, error) {
	ps := gs.Players[ctx.Actor]
	cardID := ctx.Sel.PokemonCardID
	if cardID == "" {
		cardID = ctx.Sel.HandCardID
	}
	def, ok := ctx.Cards[cardID]
	if !ok {
		return nil, engineerr.New(engineerr.NotFound, "card %s not in catalog", cardID)
	}
	if len(ps.Bench) >= match.MaxBenchSize {
		return nil, engineerr.New(engineerr.PreconditionFailed, "bench is full")
	}
	hand := append([]string{}, ps.Hand...)
	i := indexOf(hand, cardID)
	if i < 0 {
		return nil, engineerr.New(engineerr.PreconditionFailed, "card %s not in hand", cardID)
	}
	hand = append(hand[:i], hand[i+1:]...)
	inst := card.NewInBench(ctx.NextInstanceID(), cardID, def.HP, card.BenchPosition(len(ps.Bench)))
	ps.Bench = append(ps.Bench, inst)
	ps.Hand = hand
	return gs.WithPlayer(ctx.Actor, ps), nil
}

func applyAttachEnergy(gs *match.GameState, effect card.Effect, ctx Context) (*match.GameState, error) {
	ps := gs.Players[ctx.Actor]
	target, idx, err := resolveTarget(ps, ctx.Sel.Target)
	if err != nil {
		return nil, err
	}
	energyID := ctx.Sel.HandCardID
	hand := append([]string{}, ps.Hand...)
	i := indexOf(hand, energyID)
	if i < 0 {
		return nil, engineerr.New(engineerr.PreconditionFailed, "energy %s not available", energyID)
	}
	hand = append(hand[:i], hand[i+1:]...)
	ps.Hand = hand
	ps = placeTarget(ps, idx, target.WithAttachedEnergy(energyID))
	return gs.WithPlayer(ctx.Actor, ps), nil
}

func applyShuffleIntoDeck(gs *match.GameState, effect card.Effect, ctx Context) (*match.GameState, error) {
	ps := gs.Players[ctx.Actor]
	hand := append([]string{}, ps.Hand...)
	deck := append([]string{}, ps.Deck...)
	for _, id := range ctx.Sel.SelectedCardIDs {
		i := indexOf(hand, id)
		if i < 0 {
			continue
		}
		hand = append(hand[:i], hand[i+1:]...)
		deck = append(deck, id)
	}
	ps.Hand, ps.Deck = hand, deck
	return gs.WithPlayer(ctx.Actor, ps), nil
}

func applySwitchActive(gs *match.GameState, effect card.Effect, ctx Context) (*match.GameState, error) {
	ps := gs.Players[ctx.Actor]
	idx, ok := card.BenchIndex(card.Position(ctx.Sel.Target))
	if !ok || idx >= len(ps.Bench) {
		return nil, engineerr.New(engineerr.InvalidActionData, "invalid switch target %q", ctx.Sel.Target)
	}
	newActive := ps.Bench[idx].WithPosition(card.PositionActive)
	if ps.Active != nil {
		ps.Bench[idx] = ps.Active.WithPosition(card.BenchPosition(idx))
	} else {
		ps = ps.RemoveBenchAt(idx)
	}
	ps.Active = &newActive
	return gs.WithPlayer(ctx.Actor, ps), nil
}

func applyCureStatus(gs *match.GameState, effect card.Effect, ctx Context) (*match.GameState, error) {
	ps := gs.Players[ctx.Actor]
	target, idx, err := resolveTarget(ps, ctx.Sel.Target)
	if err != nil {
		return nil, err
	}
	ps = placeTarget(ps, idx, target.ClearAllStatus())
	return gs.WithPlayer(ctx.Actor, ps), nil
}

// resolveTarget returns the CardInstance at target ("ACTIVE" or
// "BENCH_i") and an index usable with placeTarget (-1 for active).
func resolveTarget(ps match.PlayerState, target string) (card.Instance, int, error) {
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

func placeTarget(ps match.PlayerState, idx int, inst card.Instance) match.PlayerState {
	if idx < 0 {
		ps.Active = &inst
		return ps
	}
	ps.Bench[idx] = inst
	return ps
}

func indexOf(ss []string, v string) int {
	for i, s := range ss {
		if s == v {
			return i
		}
	}
	return -1
}
