// Command matchctl is a small flag-driven CLI for creating matches and
// driving them through the dispatcher from a terminal, grounded on a
// plain subcommand-over-flags CLI shape (minus any RPC transport,
// which this engine does not implement).
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/decred/slog"
	"github.com/google/uuid"

	"github.com/pokettcg/rules-engine/internal/action"
	"github.com/pokettcg/rules-engine/internal/card"
	"github.com/pokettcg/rules-engine/internal/catalog/memory"
	"github.com/pokettcg/rules-engine/internal/dispatch"
	"github.com/pokettcg/rules-engine/internal/engineerr"
	"github.com/pokettcg/rules-engine/internal/match"
	"github.com/pokettcg/rules-engine/internal/ports"
	"github.com/pokettcg/rules-engine/internal/store/sqlite"
)

var (
	dbPath      = flag.String("db", "matchctl.sqlite3", "path to the sqlite match store")
	catalogPath = flag.String("catalog", "", "path to a JSON array of card definitions")
	matchID     = flag.String("match-id", "", "match id (required for all commands but 'new')")
	playerID    = flag.String("player-id", "", "acting player id")
	dataFlag    = flag.String("data", "{}", "JSON action_data payload for 'act'")
)

type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now() }

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [global flags] <command> [args]\n", os.Args[0])
		fmt.Fprintln(os.Stderr, "Commands:")
		fmt.Fprintln(os.Stderr, "  new --tournament-id ID --player1 ID --player2 ID   Create a match, prints match id")
		fmt.Fprintln(os.Stderr, "  act KIND                                           Execute one action (uses --match-id, --player-id, --data)")
		fmt.Fprintln(os.Stderr, "  state                                              Print the stored match (uses --match-id)")
		fmt.Fprintln(os.Stderr, "\nGlobal flags:")
		flag.CommandLine.SetOutput(os.Stderr)
		flag.PrintDefaults()
	}
	flag.CommandLine.SetOutput(io.Discard)
	flag.Parse()
	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	backend := slog.NewBackend(os.Stderr)
	log := backend.Logger("MATCHCTL")

	store, err := sqlite.Open(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open store: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	cat, err := loadCatalog(*catalogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load catalog: %v\n", err)
		os.Exit(1)
	}

	d := dispatch.New(cat, store.Matches(), wallClock{}, log)

	switch cmd := flag.Arg(0); cmd {
	case "new":
		runNew(store)
	case "act":
		runAct(d, flag.Arg(1))
	case "state":
		runState(store)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", cmd)
		flag.Usage()
		os.Exit(2)
	}
}

func loadCatalog(path string) (ports.CardCatalog, error) {
	cat := memory.New()
	if path == "" {
		return cat, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var cards []card.Card
	if err := json.NewDecoder(f).Decode(&cards); err != nil {
		return nil, err
	}
	for _, cd := range cards {
		cat.Put(cd)
	}
	return cat, nil
}

func runNew(store *sqlite.Store) {
	fs := flag.NewFlagSet("new", flag.ExitOnError)
	tournamentID := fs.String("tournament-id", "", "tournament id")
	player1 := fs.String("player1", "", "player 1 id")
	player2 := fs.String("player2", "", "player 2 id")
	fs.Parse(flag.Args()[1:])

	m := match.NewMatch(uuid.NewString(), *tournamentID)
	m.Player1ID = *player1
	m.Player2ID = *player2
	m.State = match.StateMatchApproval
	saved, err := store.Matches().Save(context.Background(), m)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create match: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(saved.MatchID)
}

func runAct(d *dispatch.Dispatcher, kind string) {
	if *matchID == "" || *playerID == "" {
		fmt.Fprintln(os.Stderr, "act requires --match-id and --player-id")
		os.Exit(2)
	}
	var data map[string]any
	if err := json.Unmarshal([]byte(*dataFlag), &data); err != nil {
		fmt.Fprintf(os.Stderr, "invalid --data JSON: %v\n", err)
		os.Exit(2)
	}
	req := action.Request{MatchID: *matchID, PlayerID: *playerID, Kind: action.Kind(kind), Data: data}
	m, avail, err := d.Execute(context.Background(), req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "execute %s: %v\n", kind, err)
		os.Exit(exitCodeFor(err))
	}
	printMatchAndActions(m, avail)
}

// exitCodeFor maps an engine error's Kind to a distinct process exit
// code, so scripts driving matchctl can branch on failure category
// without scraping stderr text.
func exitCodeFor(err error) int {
	switch {
	case errors.Is(err, engineerr.KindOnly(engineerr.NotFound)):
		return 3
	case errors.Is(err, engineerr.KindOnly(engineerr.ActionNotPermitted)),
		errors.Is(err, engineerr.KindOnly(engineerr.PreconditionFailed)):
		return 4
	case errors.Is(err, engineerr.KindOnly(engineerr.InvalidActionData)):
		return 2
	default:
		return 1
	}
}

func runState(store *sqlite.Store) {
	if *matchID == "" {
		fmt.Fprintln(os.Stderr, "state requires --match-id")
		os.Exit(2)
	}
	m, err := store.Matches().FindByID(context.Background(), *matchID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load match: %v\n", err)
		os.Exit(1)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(m)
}

func printMatchAndActions(m *match.Match, avail match.ActionSet) {
	kinds := make([]action.Kind, 0, len(avail))
	for k := range avail {
		kinds = append(kinds, k)
	}
	out := struct {
		Match            *match.Match  `json:"match"`
		AvailableActions []action.Kind `json:"available_actions"`
	}{m, kinds}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(out)
}
