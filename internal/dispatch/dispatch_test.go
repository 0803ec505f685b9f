package dispatch

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pokettcg/rules-engine/internal/action"
	"github.com/pokettcg/rules-engine/internal/card"
	"github.com/pokettcg/rules-engine/internal/catalog/memory"
	"github.com/pokettcg/rules-engine/internal/match"
)

// memRepo is a minimal in-memory ports.MatchRepository, standing in
// for internal/store/sqlite in tests the way a service layer's tests
// swap a real backing store for an in-memory one.
type memRepo struct {
	mu sync.Mutex
	m  map[string]*match.Match
}

func newMemRepo() *memRepo { return &memRepo{m: map[string]*match.Match{}} }

func (r *memRepo) FindByID(ctx context.Context, matchID string) (*match.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.m[matchID]
	if !ok {
		return nil, assertNotFound{matchID}
	}
	return m.Clone(), nil
}

func (r *memRepo) Save(ctx context.Context, m *match.Match) (*match.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m[m.MatchID] = m.Clone()
	return m, nil
}

type assertNotFound struct{ id string }

func (e assertNotFound) Error() string { return "match not found: " + e.id }

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type noopLogger struct{}

func (noopLogger) Debugf(string, ...interface{}) {}
func (noopLogger) Infof(string, ...interface{})  {}
func (noopLogger) Warnf(string, ...interface{})  {}
func (noopLogger) Errorf(string, ...interface{}) {}

const (
	basicA = "basic-a"
	basicB = "basic-b"
)

func testCatalog() *memory.Catalog {
	return memory.New(
		card.Card{ID: basicA, Kind: card.KindPokemon, Name: "Basic A", Stage: card.StageBasic, HP: 60, PokemonType: card.EnergyFire},
		card.Card{ID: basicB, Kind: card.KindPokemon, Name: "Basic B", Stage: card.StageBasic, HP: 60, PokemonType: card.EnergyWater},
	)
}

// deckOf builds a deck of n copies of one Basic Pokémon so the
// opening-hand-redraw loop always succeeds on the first shuffle.
func deckOf(basic string, n int) []string {
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, basic)
	}
	return out
}

func newTestDispatcher() (*Dispatcher, *memRepo) {
	repo := newMemRepo()
	d := New(testCatalog(), repo, fixedClock{t: time.Unix(0, 0)}, noopLogger{})
	return d, repo
}

func seedMatch(t *testing.T, repo *memRepo) *match.Match {
	t.Helper()
	m := match.NewMatch("match-1", "tournament-1")
	m.Player1ID = "alice"
	m.Player2ID = "bob"
	m.State = match.StateMatchApproval
	saved, err := repo.Save(context.Background(), m)
	require.NoError(t, err)
	return saved
}

// TestExecute_SetupPipelineAdvancesThroughApproval exercises the
// six-step Execute pipeline against the earliest legal action: both
// players approving a freshly created match moves it to DRAWING_CARDS.
func TestExecute_SetupPipelineAdvancesThroughApproval(t *testing.T) {
	d, repo := newTestDispatcher()
	seedMatch(t, repo)

	_, _, err := d.Execute(context.Background(), action.Request{MatchID: "match-1", PlayerID: "alice", Kind: action.ApproveMatch})
	require.NoError(t, err)

	m, avail, err := d.Execute(context.Background(), action.Request{MatchID: "match-1", PlayerID: "bob", Kind: action.ApproveMatch})
	require.NoError(t, err)
	assert.Equal(t, match.StateDrawingCards, m.State)
	assert.True(t, avail[action.DrawInitialCards])
}

func TestExecute_RejectsActionNotInLegalSet(t *testing.T) {
	d, repo := newTestDispatcher()
	seedMatch(t, repo)

	_, _, err := d.Execute(context.Background(), action.Request{MatchID: "match-1", PlayerID: "alice", Kind: action.Attack})
	assert.Error(t, err)
}

func TestExecute_RejectsUnknownPlayer(t *testing.T) {
	d, repo := newTestDispatcher()
	seedMatch(t, repo)

	_, _, err := d.Execute(context.Background(), action.Request{MatchID: "match-1", PlayerID: "mallory", Kind: action.ApproveMatch})
	assert.Error(t, err)
}

// TestExecute_ConcedeIsAlwaysLegal covers "CONCEDE legal from any
// non-terminal state" independent of the raw legality set.
func TestExecute_ConcedeIsAlwaysLegal(t *testing.T) {
	d, repo := newTestDispatcher()
	seedMatch(t, repo)

	m, _, err := d.Execute(context.Background(), action.Request{MatchID: "match-1", PlayerID: "alice", Kind: action.Concede})
	require.NoError(t, err)
	assert.Equal(t, match.StateMatchEnded, m.State)
	assert.Equal(t, "bob", m.WinnerID)
	assert.Equal(t, match.WinConcession, m.WinCondition)
}

func TestExecute_ConcedeTwiceIsRejected(t *testing.T) {
	d, repo := newTestDispatcher()
	seedMatch(t, repo)

	_, _, err := d.Execute(context.Background(), action.Request{MatchID: "match-1", PlayerID: "alice", Kind: action.Concede})
	require.NoError(t, err)

	_, _, err = d.Execute(context.Background(), action.Request{MatchID: "match-1", PlayerID: "bob", Kind: action.Concede})
	assert.Error(t, err, "a match that has already ended cannot be conceded again")
}

// TestDrawInitialCards_DealsSevenAndGatesAdvanceTogether walks both
// players through DRAW_INITIAL_CARDS and confirms the coarse state
// only advances once both gates are set.
func TestDrawInitialCards_DealsSevenAndGatesAdvanceTogether(t *testing.T) {
	d, repo := newTestDispatcher()
	m := seedMatch(t, repo)
	m.State = match.StateDrawingCards
	m.GameState = match.NewGameState(match.Player1)
	ps1 := m.GameState.Players[match.Player1]
	ps1.Deck = deckOf(basicA, 20)
	m.GameState.Players[match.Player1] = ps1
	ps2 := m.GameState.Players[match.Player2]
	ps2.Deck = deckOf(basicB, 20)
	m.GameState.Players[match.Player2] = ps2
	_, err := repo.Save(context.Background(), m)
	require.NoError(t, err)

	got, _, err := d.Execute(context.Background(), action.Request{MatchID: "match-1", PlayerID: "alice", Kind: action.DrawInitialCards})
	require.NoError(t, err)
	assert.Equal(t, match.StateDrawingCards, got.State, "state should not advance until both players have drawn")
	assert.Len(t, got.GameState.Players[match.Player1].Hand, 7)

	got, avail, err := d.Execute(context.Background(), action.Request{MatchID: "match-1", PlayerID: "bob", Kind: action.DrawInitialCards})
	require.NoError(t, err)
	assert.Equal(t, match.StateSetPrizeCards, got.State)
	assert.True(t, avail[action.SetPrizeCards])
}

// TestFullPregameSetup_AdvancesToPlayerTurn walks both players through
// every coarse setup state in order (§4.1 row-by-row), from
// MATCH_APPROVAL to the first PLAYER_TURN.
func TestFullPregameSetup_AdvancesToPlayerTurn(t *testing.T) {
	d, repo := newTestDispatcher()
	m := seedMatch(t, repo)
	m.GameState = match.NewGameState(match.Player1)
	ps1 := m.GameState.Players[match.Player1]
	ps1.Deck = deckOf(basicA, 20)
	m.GameState.Players[match.Player1] = ps1
	ps2 := m.GameState.Players[match.Player2]
	ps2.Deck = deckOf(basicB, 20)
	m.GameState.Players[match.Player2] = ps2
	_, err := repo.Save(context.Background(), m)
	require.NoError(t, err)

	exec := func(playerID string, kind action.Kind, data map[string]any) *match.Match {
		t.Helper()
		got, _, err := d.Execute(context.Background(), action.Request{MatchID: "match-1", PlayerID: playerID, Kind: kind, Data: data})
		require.NoError(t, err)
		return got
	}

	exec("alice", action.ApproveMatch, nil)
	got := exec("bob", action.ApproveMatch, nil)
	require.Equal(t, match.StateDrawingCards, got.State)

	exec("alice", action.DrawInitialCards, nil)
	got = exec("bob", action.DrawInitialCards, nil)
	require.Equal(t, match.StateSetPrizeCards, got.State)

	exec("alice", action.SetPrizeCards, nil)
	got = exec("bob", action.SetPrizeCards, nil)
	require.Equal(t, match.StateSelectActivePokemon, got.State)
	assert.Len(t, got.GameState.Players[match.Player1].PrizeCards, 6)

	exec("alice", action.SetActivePokemon, map[string]any{"card_id": basicA})
	got = exec("bob", action.SetActivePokemon, map[string]any{"card_id": basicB})
	require.Equal(t, match.StateSelectBenchPokemon, got.State)
	require.NotNil(t, got.GameState.Players[match.Player1].Active)

	exec("alice", action.CompleteInitialSetup, nil)
	got = exec("bob", action.CompleteInitialSetup, nil)
	require.Equal(t, match.StateFirstPlayerSelection, got.State)

	exec("alice", action.ConfirmFirstPlayer, nil)
	got = exec("bob", action.ConfirmFirstPlayer, nil)
	require.Equal(t, match.StatePlayerTurn, got.State)
	require.NotNil(t, got.FirstPlayer)
	assert.Equal(t, *got.FirstPlayer, got.GameState.CurrentPlayer)
	assert.Equal(t, 1, got.GameState.TurnNumber)
}

// TestEvolvePokemon_PreservesInstanceIDThroughDispatch is the
// dispatch-level half of the instance-stability invariant: the
// instance the player sees after EVOLVE_POKEMON is the same
// instance_id it started with.
func TestEvolvePokemon_PreservesInstanceIDThroughDispatch(t *testing.T) {
	d, repo := newTestDispatcher()
	cat := testCatalog()
	cat.Put(card.Card{ID: "stage1-a", Kind: card.KindPokemon, Name: "Stage1 A", Stage: card.StageStage1, HP: 90, EvolvesFrom: "Basic A"})
	d.catalog = cat

	m := seedMatch(t, repo)
	m.State = match.StatePlayerTurn
	first := match.Player1
	m.FirstPlayer = &first
	m.CurrentPlayer = &first
	m.GameState = match.NewGameState(match.Player1)
	m.GameState.Phase = match.PhaseMain
	m.GameState.TurnNumber = 2
	ps := m.GameState.Players[match.Player1]
	active := card.NewInBench("active-instance-1", basicA, 60, card.PositionActive)
	ps.Active = &active
	ps.Hand = []string{"stage1-a"}
	m.GameState.Players[match.Player1] = ps
	_, err := repo.Save(context.Background(), m)
	require.NoError(t, err)

	got, _, err := d.Execute(context.Background(), action.Request{
		MatchID: "match-1", PlayerID: "alice", Kind: action.EvolvePokemon,
		Data: map[string]any{"evolution_card_id": "stage1-a", "target": "ACTIVE"},
	})
	require.NoError(t, err)
	evolved := got.GameState.Players[match.Player1].Active
	require.NotNil(t, evolved)
	assert.Equal(t, "active-instance-1", evolved.InstanceID)
	assert.Equal(t, "stage1-a", evolved.CardID)
}
