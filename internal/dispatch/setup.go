package dispatch

import (
	"github.com/pokettcg/rules-engine/internal/action"
	"github.com/pokettcg/rules-engine/internal/card"
	"github.com/pokettcg/rules-engine/internal/engineerr"
	"github.com/pokettcg/rules-engine/internal/match"
	"github.com/pokettcg/rules-engine/internal/rng"
)

// handleConcede ends the match immediately in favor of the other
// player, legal from any non-terminal state (§4.1 CONCEDE row).
func (d *Dispatcher) handleConcede(c *ctx, m *match.Match, req action.Request) (*match.Match, error) {
	if match.IsTerminal(m.State) {
		return nil, engineerr.New(engineerr.ActionNotPermitted, "match %s has already ended", m.MatchID)
	}
	winner := c.actor.Other()
	m.State = match.StateMatchEnded
	m.WinnerID = playerID(m, winner)
	m.Result = match.ResultWin
	m.WinCondition = match.WinConcession
	now := c.now
	m.EndedAt = &now
	if m.GameState != nil {
		m.GameState = m.GameState.WithAction(c.summary(req))
	}
	return m, nil
}

func playerID(m *match.Match, p match.PlayerIdentifier) string {
	if p == match.Player1 {
		return m.Player1ID
	}
	return m.Player2ID
}

// handleApproveMatch records one player's approval; once both have
// approved, the match advances to DRAWING_CARDS (§4.1 row 3).
func (d *Dispatcher) handleApproveMatch(c *ctx, m *match.Match, req action.Request) (*match.Match, error) {
	m.Gates[c.actor].Approved = true
	if m.Gates[match.Player1].Approved && m.Gates[match.Player2].Approved {
		if err := advanceState(m, match.StateDrawingCards); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// handleDrawInitialCards shuffles the player's deck deterministically
// and deals the opening hand, re-shuffling (bounded by
// rng.OpeningHandRedrawCap) until the hand contains at least one Basic
// Pokémon, per §4.3 Draw initial cards.
func (d *Dispatcher) handleDrawInitialCards(c *ctx, m *match.Match, req action.Request) (*match.Match, error) {
	if m.GameState == nil {
		m.GameState = match.NewGameState(match.Player1)
	}
	ps := m.GameState.Players[c.actor]
	if len(ps.Deck) == 0 {
		return nil, engineerr.New(engineerr.PreconditionFailed, "deck for %s is empty", c.actor)
	}

	attempt := ps.ShuffleCounter
	var hand, deck []string
	for ; attempt < ps.ShuffleCounter+rng.OpeningHandRedrawCap; attempt++ {
		seed := rng.ShuffleSeed(c.matchID, string(c.actor), attempt)
		shuffled := rng.Shuffle(ps.Deck, seed)
		n := 7
		if n > len(shuffled) {
			n = len(shuffled)
		}
		candidate := shuffled[:n]
		if handHasBasic(candidate, c.cards) {
			hand, deck = candidate, shuffled[n:]
			break
		}
	}
	if hand == nil {
		d.log.Warnf("match %s: %s opening hand redraw exhausted safety cap, keeping last draw", c.matchID, c.actor)
		attempt--
		seed := rng.ShuffleSeed(c.matchID, string(c.actor), attempt)
		shuffled := rng.Shuffle(ps.Deck, seed)
		n := 7
		if n > len(shuffled) {
			n = len(shuffled)
		}
		hand, deck = shuffled[:n], shuffled[n:]
	}
	ps.Hand = hand
	ps.Deck = deck
	ps.ShuffleCounter = attempt + 1
	m.GameState = m.GameState.WithPlayer(c.actor, ps).WithAction(c.summary(req))

	m.Gates[c.actor].DrewValidHand = true
	if allGatesSet(m, func(g *match.SetupGates) bool { return g.DrewValidHand }) {
		if err := advanceState(m, match.StateSetPrizeCards); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func handHasBasic(cardIDs []string, cards map[string]card.Card) bool {
	for _, id := range cardIDs {
		if cd, ok := cards[id]; ok && cd.Kind == card.KindPokemon && cd.Stage == card.StageBasic {
			return true
		}
	}
	return false
}

func allGatesSet(m *match.Match, pred func(*match.SetupGates) bool) bool {
	return pred(m.Gates[match.Player1]) && pred(m.Gates[match.Player2])
}

// handleSetPrizeCards moves the top prizeCount cards of the player's
// deck face down into the prize pile (§4.3 Set prize cards).
func (d *Dispatcher) handleSetPrizeCards(c *ctx, m *match.Match, req action.Request) (*match.Match, error) {
	prizeCount, err := d.prizeCountFor(m)
	if err != nil {
		return nil, err
	}
	ps := m.GameState.Players[c.actor]
	if prizeCount > len(ps.Deck) {
		return nil, engineerr.New(engineerr.PreconditionFailed, "deck has fewer than %d cards left for prizes", prizeCount)
	}
	ps.PrizeCards = append([]string{}, ps.Deck[:prizeCount]...)
	ps.Deck = append([]string{}, ps.Deck[prizeCount:]...)
	m.GameState = m.GameState.WithPlayer(c.actor, ps).WithAction(c.summary(req))

	m.Gates[c.actor].SetPrizeCards = true
	if allGatesSet(m, func(g *match.SetupGates) bool { return g.SetPrizeCards }) {
		if err := advanceState(m, match.StateSelectActivePokemon); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// prizeCountFor returns a fixed count of 6 prizes; the tournament
// configuration is not consulted.
func (d *Dispatcher) prizeCountFor(m *match.Match) (int, error) {
	return 6, nil
}

// handleSetActivePokemon moves a Basic Pokémon from hand to the
// player's active slot (§4.3 Set active Pokémon).
func (d *Dispatcher) handleSetActivePokemon(c *ctx, m *match.Match, req action.Request) (*match.Match, error) {
	cardID, err := stringData(req, "card_id")
	if err != nil {
		return nil, err
	}
	cd, ok := c.cards[cardID]
	if !ok || cd.Kind != card.KindPokemon || cd.Stage != card.StageBasic {
		return nil, engineerr.New(engineerr.InvalidActionData, "card %s is not a Basic Pokémon", cardID)
	}
	ps := m.GameState.Players[c.actor]
	idx := indexOfStr(ps.Hand, cardID)
	if idx < 0 {
		return nil, engineerr.New(engineerr.PreconditionFailed, "card %s not in hand", cardID)
	}
	ps.Hand = append(append([]string{}, ps.Hand[:idx]...), ps.Hand[idx+1:]...)
	inst := card.NewInBench(c.newInstanceID(), cardID, cd.HP, card.PositionActive)
	ps.Active = &inst
	m.GameState = m.GameState.WithPlayer(c.actor, ps).WithAction(c.summary(req))

	m.Gates[c.actor].SetActivePokemon = true
	if allGatesSet(m, func(g *match.SetupGates) bool { return g.SetActivePokemon }) {
		if err := advanceState(m, match.StateSelectBenchPokemon); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func indexOfStr(ss []string, v string) int {
	for i, s := range ss {
		if s == v {
			return i
		}
	}
	return -1
}

// handlePlayPokemon, in SELECT_BENCH_POKEMON, places a Basic Pokémon on
// the bench; in PLAYER_TURN/MAIN_PHASE, it does the same during normal
// play (§4.3 Play Pokémon covers both).
func (d *Dispatcher) handlePlayPokemon(c *ctx, m *match.Match, req action.Request) (*match.Match, error) {
	cardID, err := stringData(req, "card_id")
	if err != nil {
		return nil, err
	}
	cd, ok := c.cards[cardID]
	if !ok || cd.Kind != card.KindPokemon || cd.Stage != card.StageBasic {
		return nil, engineerr.New(engineerr.InvalidActionData, "card %s is not a Basic Pokémon", cardID)
	}
	ps := m.GameState.Players[c.actor]
	if len(ps.Bench) >= match.MaxBenchSize {
		return nil, engineerr.New(engineerr.PreconditionFailed, "bench is full")
	}
	idx := indexOfStr(ps.Hand, cardID)
	if idx < 0 {
		return nil, engineerr.New(engineerr.PreconditionFailed, "card %s not in hand", cardID)
	}
	ps.Hand = append(append([]string{}, ps.Hand[:idx]...), ps.Hand[idx+1:]...)
	inst := card.NewInBench(c.newInstanceID(), cardID, cd.HP, card.BenchPosition(len(ps.Bench)))
	ps.Bench = append(ps.Bench, inst)
	m.GameState = m.GameState.WithPlayer(c.actor, ps).WithAction(c.summary(req))
	return m, nil
}

// handleCompleteInitialSetup marks the player ready; once both are
// ready the match moves to first-player selection (§4.3).
func (d *Dispatcher) handleCompleteInitialSetup(c *ctx, m *match.Match, req action.Request) (*match.Match, error) {
	m.Gates[c.actor].ReadyToStart = true
	if m.GameState != nil {
		m.GameState = m.GameState.WithAction(c.summary(req))
	}
	if allGatesSet(m, func(g *match.SetupGates) bool { return g.ReadyToStart }) {
		if err := advanceState(m, match.StateFirstPlayerSelection); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// handleConfirmFirstPlayer records one player's confirmation of the
// (deterministically, coin-flip-derived) first player; once both
// confirm, play begins (§4.3 Confirm first player).
func (d *Dispatcher) handleConfirmFirstPlayer(c *ctx, m *match.Match, req action.Request) (*match.Match, error) {
	if m.FirstPlayer == nil {
		first := firstPlayerFor(c.matchID)
		m.FirstPlayer = &first
		m.CurrentPlayer = &first
	}
	m.Gates[c.actor].ConfirmedFirstPlayer = true
	if m.GameState != nil {
		m.GameState = m.GameState.WithAction(c.summary(req))
	}
	if allGatesSet(m, func(g *match.SetupGates) bool { return g.ConfirmedFirstPlayer }) {
		if err := advanceState(m, match.StatePlayerTurn); err != nil {
			return nil, err
		}
		if m.GameState == nil {
			m.GameState = match.NewGameState(*m.FirstPlayer)
		} else {
			gs := m.GameState.WithPhase(match.PhaseDraw)
			gs.CurrentPlayer = *m.FirstPlayer
			m.GameState = gs
		}
	}
	return m, nil
}

// firstPlayerFor derives the deterministic coin flip that picks who
// goes first, seeded by match identity alone (§4.4).
func firstPlayerFor(matchID string) match.PlayerIdentifier {
	flip := rng.GenerateFlip(matchID, 0, "first-player", 0)
	if flip.Heads {
		return match.Player1
	}
	return match.Player2
}
