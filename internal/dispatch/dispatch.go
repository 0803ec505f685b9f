// Package dispatch implements the engine's single execution entry
// point: validate an action request against the legality oracle, run
// the matching handler, and persist the result. Handlers are grouped
// the same way a service layer splits gameplay RPCs from
// lobby/table-lifecycle RPCs: setup.go holds the pre-game
// state-machine handlers, turn.go the in-turn handlers, and attack.go
// the attack/coin-flip/prize-selection handlers.
package dispatch

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pokettcg/rules-engine/internal/action"
	"github.com/pokettcg/rules-engine/internal/card"
	"github.com/pokettcg/rules-engine/internal/engineerr"
	"github.com/pokettcg/rules-engine/internal/legality"
	"github.com/pokettcg/rules-engine/internal/match"
	"github.com/pokettcg/rules-engine/internal/ports"
	"github.com/pokettcg/rules-engine/internal/turn"
)

// Dispatcher wires the ports together and serializes every action
// against a given match, the way a table registry is guarded by a
// per-table lock obtained before any table mutation runs.
type Dispatcher struct {
	catalog ports.CardCatalog
	matches ports.MatchRepository
	clock   ports.Clock
	log     ports.Logger

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// New creates a Dispatcher.
func New(catalog ports.CardCatalog, matches ports.MatchRepository, clock ports.Clock, log ports.Logger) *Dispatcher {
	return &Dispatcher{
		catalog: catalog,
		matches: matches,
		clock:   clock,
		log:     log,
		locks:   make(map[string]*sync.Mutex),
	}
}

func (d *Dispatcher) lockFor(matchID string) *sync.Mutex {
	d.locksMu.Lock()
	defer d.locksMu.Unlock()
	m, ok := d.locks[matchID]
	if !ok {
		m = &sync.Mutex{}
		d.locks[matchID] = m
	}
	return m
}

// ctx carries everything a handler needs, built fresh for every
// Execute call.
type ctx struct {
	d        *Dispatcher
	matchID  string
	actor    match.PlayerIdentifier
	cards    map[string]card.Card
	now      time.Time
	actionID string
}

// newInstanceID mints a fresh CardInstance id (§3: instance_id is
// opaque and engine-assigned).
func (c *ctx) newInstanceID() string {
	return uuid.NewString()
}

func (c *ctx) summary(req action.Request) action.Summary {
	return action.Summary{
		ActionID:   c.actionID,
		PlayerID:   req.PlayerID,
		ActionType: req.Kind,
		Timestamp:  c.now,
		Data:       req.Data,
	}
}

// Execute runs the six-step pipeline from §4.2: load, resolve
// identifier, check legality, batch-load cards, dispatch, persist.
func (d *Dispatcher) Execute(goCtx context.Context, req action.Request) (*match.Match, match.ActionSet, error) {
	mu := d.lockFor(req.MatchID)
	mu.Lock()
	defer mu.Unlock()

	m, err := d.matches.FindByID(goCtx, req.MatchID)
	if err != nil {
		return nil, nil, err
	}

	actor, ok := m.IdentifierFor(req.PlayerID)
	if !ok {
		return nil, nil, engineerr.New(engineerr.NotInMatch, "player %s is not in match %s", req.PlayerID, req.MatchID)
	}

	// DRAW_PRIZE is the legacy alias of SELECT_PRIZE with prize_index 0.
	if req.Kind == action.DrawPrize {
		req.Kind = action.SelectPrize
		req.Data = map[string]any{"prize_index": 0}
	}

	allowed := legality.AvailableActions(m, actor)
	if req.Kind != action.Concede && !allowed[req.Kind] {
		d.log.Infof("match %s: rejected %s from %s: not permitted", req.MatchID, req.Kind, actor)
		return nil, nil, engineerr.New(engineerr.ActionNotPermitted, "action %s is not permitted for %s right now", req.Kind, actor)
	}

	cards, err := d.resolveCards(goCtx, m, req)
	if err != nil {
		return nil, nil, err
	}

	c := &ctx{d: d, matchID: req.MatchID, actor: actor, cards: cards, now: d.clock.Now(), actionID: uuid.NewString()}

	next, err := d.handle(c, m, req)
	if err != nil {
		d.log.Infof("match %s: rejected %s from %s: %v", req.MatchID, req.Kind, actor, err)
		return nil, nil, err
	}
	d.log.Debugf("match %s: dispatched %s from %s", req.MatchID, req.Kind, actor)

	saved, err := d.matches.Save(goCtx, next)
	if err != nil {
		return nil, nil, err
	}

	viewerActions := legality.AvailableActions(saved, actor)
	return saved, viewerActions, nil
}

// handle dispatches req to the handler for req.Kind. Every handler
// receives a cloned Match so the caller's copy is never mutated in
// place, per the immutable-match design note.
func (d *Dispatcher) handle(c *ctx, m *match.Match, req action.Request) (*match.Match, error) {
	next := m.Clone()
	switch req.Kind {
	case action.Concede:
		return d.handleConcede(c, next, req)
	case action.ApproveMatch:
		return d.handleApproveMatch(c, next, req)
	case action.DrawInitialCards:
		return d.handleDrawInitialCards(c, next, req)
	case action.SetPrizeCards:
		return d.handleSetPrizeCards(c, next, req)
	case action.SetActivePokemon:
		return d.handleSetActivePokemon(c, next, req)
	case action.PlayPokemon:
		return d.handlePlayPokemon(c, next, req)
	case action.CompleteInitialSetup:
		return d.handleCompleteInitialSetup(c, next, req)
	case action.ConfirmFirstPlayer:
		return d.handleConfirmFirstPlayer(c, next, req)
	case action.DrawCard:
		return d.handleDrawCard(c, next, req)
	case action.AttachEnergy:
		return d.handleAttachEnergy(c, next, req)
	case action.EvolvePokemon:
		return d.handleEvolvePokemon(c, next, req)
	case action.PlayTrainer:
		return d.handlePlayTrainer(c, next, req)
	case action.UseAbility:
		return d.handleUseAbility(c, next, req)
	case action.Retreat:
		return d.handleRetreat(c, next, req)
	case action.Attack:
		return d.handleAttack(c, next, req)
	case action.GenerateCoinFlip:
		return d.handleGenerateCoinFlip(c, next, req)
	case action.SelectPrize, action.DrawPrize:
		return d.handleSelectPrize(c, next, req)
	case action.EndTurn:
		return d.handleEndTurn(c, next, req)
	default:
		return nil, engineerr.New(engineerr.InvalidActionData, "unknown action kind %q", req.Kind)
	}
}

// resolveCards batch-loads every card_id an action request references,
// so handlers never call the catalog one id at a time (§4.2 step
// 3: "batch load referenced cards").
func (d *Dispatcher) resolveCards(goCtx context.Context, m *match.Match, req action.Request) (map[string]card.Card, error) {
	ids := referencedCardIDs(m, req)
	if len(ids) == 0 {
		return map[string]card.Card{}, nil
	}
	return d.catalog.GetMany(goCtx, ids)
}

func referencedCardIDs(m *match.Match, req action.Request) []string {
	seen := map[string]bool{}
	add := func(id string) {
		if id != "" {
			seen[id] = true
		}
	}
	switch req.Kind {
	case action.PlayPokemon:
		if v, ok := req.Data["card_id"].(string); ok {
			add(v)
		}
	case action.EvolvePokemon:
		if v, ok := req.Data["evolution_card_id"].(string); ok {
			add(v)
		}
	case action.AttachEnergy:
		if v, ok := req.Data["energy_card_id"].(string); ok {
			add(v)
		}
	case action.PlayTrainer:
		if v, ok := req.Data["card_id"].(string); ok {
			add(v)
		}
		if v, ok := req.Data["pokemon_card_id"].(string); ok {
			add(v)
		}
	case action.UseAbility:
		if v, ok := req.Data["card_id"].(string); ok {
			add(v)
		}
	case action.DrawInitialCards:
		if actor, ok := m.IdentifierFor(req.PlayerID); ok && m.GameState != nil {
			for _, id := range m.GameState.Players[actor].Deck {
				add(id)
			}
		}
	}
	if m.GameState != nil {
		for _, ps := range m.GameState.Players {
			for _, inst := range ps.AllInPlay() {
				add(inst.CardID)
			}
		}
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	return out
}

// advanceState performs a checked coarse-state transition, erroring
// out (rather than silently no-opping) if the transition is not in the
// table §4.1 describes.
func advanceState(m *match.Match, to match.State) error {
	if !match.CanTransition(m.State, to) {
		return engineerr.New(engineerr.Internal, "illegal state transition %s -> %s", m.State, to)
	}
	m.State = to
	return nil
}

// advancePhase performs a checked in-turn phase transition, erroring
// out (rather than silently no-opping) if gs.Phase -> to is not a
// legal sub-phase move per turn.CanAdvance's §4.1 sequencing table.
func advancePhase(gs *match.GameState, to match.TurnPhase) (*match.GameState, error) {
	if !turn.CanAdvance(gs.Phase, to) {
		return nil, engineerr.New(engineerr.Internal, "illegal turn phase transition %s -> %s", gs.Phase, to)
	}
	return gs.WithPhase(to), nil
}

func stringData(req action.Request, key string) (string, error) {
	v, ok := req.Data[key]
	if !ok {
		return "", engineerr.New(engineerr.InvalidActionData, "missing %q", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", engineerr.New(engineerr.InvalidActionData, "%q must be a string", key)
	}
	return s, nil
}

func intData(req action.Request, key string) (int, error) {
	v, ok := req.Data[key]
	if !ok {
		return 0, engineerr.New(engineerr.InvalidActionData, "missing %q", key)
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case float64:
		return int(n), nil
	default:
		return 0, engineerr.New(engineerr.InvalidActionData, "%q must be a number", key)
	}
}

func stringSliceData(req action.Request, key string) []string {
	v, ok := req.Data[key]
	if !ok {
		return nil
	}
	switch s := v.(type) {
	case []string:
		return s
	case []any:
		out := make([]string, 0, len(s))
		for _, e := range s {
			if str, ok := e.(string); ok {
				out = append(out, str)
			}
		}
		return out
	default:
		return nil
	}
}
