// Package sqlite implements ports.MatchRepository, ports.DeckRepository,
// and ports.TournamentRepository over github.com/mattn/go-sqlite3,
// storing nested match state as JSON columns the way a table/deck
// store keeps nested state (§6 persistence ports are "assumed"; this
// is one concrete, replaceable adapter).
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pokettcg/rules-engine/internal/engineerr"
	"github.com/pokettcg/rules-engine/internal/match"
	"github.com/pokettcg/rules-engine/internal/ports"
)

// Store owns the connection and the migration. The three port
// interfaces are exposed through per-aggregate views, since Go does
// not allow one type to host two FindByID methods with different
// return types.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) a sqlite database at path and
// ensures the schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS matches (
	match_id TEXT PRIMARY KEY,
	version  INTEGER NOT NULL DEFAULT 1,
	data     TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS decks (
	deck_id TEXT PRIMARY KEY,
	data    TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS tournaments (
	tournament_id TEXT PRIMARY KEY,
	data          TEXT NOT NULL
);
`)
	return err
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Matches returns the ports.MatchRepository view onto this store.
func (s *Store) Matches() *MatchStore { return &MatchStore{db: s.db} }

// Decks returns the ports.DeckRepository view onto this store.
func (s *Store) Decks() *DeckStore { return &DeckStore{db: s.db} }

// Tournaments returns the ports.TournamentRepository view onto this
// store.
func (s *Store) Tournaments() *TournamentStore { return &TournamentStore{db: s.db} }

// MatchStore implements ports.MatchRepository.
type MatchStore struct {
	db *sql.DB
}

// FindByID implements ports.MatchRepository.
func (s *MatchStore) FindByID(ctx context.Context, matchID string) (*match.Match, error) {
	row := s.db.QueryRowContext(ctx, `SELECT version, data FROM matches WHERE match_id = ?`, matchID)
	var version int64
	var data string
	if err := row.Scan(&version, &data); err != nil {
		if err == sql.ErrNoRows {
			return nil, engineerr.New(engineerr.NotFound, "match %s not found", matchID)
		}
		return nil, fmt.Errorf("load match %s: %w", matchID, err)
	}
	var m match.Match
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		return nil, fmt.Errorf("decode match %s: %w", matchID, err)
	}
	m.Version = version
	return &m, nil
}

// Save implements ports.MatchRepository. It performs an optimistic
// compare-and-swap on the version column: a Save against a stale
// version returns engineerr.Conflict, mirroring a SaveSnapshot-style
// call but with an explicit version instead of last-writer-wins.
func (s *MatchStore) Save(ctx context.Context, m *match.Match) (*match.Match, error) {
	out := m.Clone()

	if out.Version == 0 {
		out.Version = 1
		data, err := json.Marshal(out)
		if err != nil {
			return nil, fmt.Errorf("encode match %s: %w", out.MatchID, err)
		}
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO matches (match_id, version, data) VALUES (?, ?, ?)`,
			out.MatchID, out.Version, string(data))
		if err != nil {
			return nil, fmt.Errorf("insert match %s: %w", out.MatchID, err)
		}
		return out, nil
	}

	prevVersion := out.Version
	out.Version++
	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("encode match %s: %w", out.MatchID, err)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE matches SET version = ?, data = ? WHERE match_id = ? AND version = ?`,
		out.Version, string(data), out.MatchID, prevVersion)
	if err != nil {
		return nil, fmt.Errorf("update match %s: %w", out.MatchID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update match %s: %w", out.MatchID, err)
	}
	if n == 0 {
		return nil, engineerr.New(engineerr.Conflict, "match %s was modified concurrently", out.MatchID)
	}
	return out, nil
}

// DeckStore implements ports.DeckRepository, plus a Save helper for
// seeding decks (the core only ever reads decks through FindByID).
type DeckStore struct {
	db *sql.DB
}

// FindByID implements ports.DeckRepository.
func (s *DeckStore) FindByID(ctx context.Context, deckID string) (*ports.Deck, error) {
	row := s.db.QueryRowContext(ctx, `SELECT data FROM decks WHERE deck_id = ?`, deckID)
	var data string
	if err := row.Scan(&data); err != nil {
		if err == sql.ErrNoRows {
			return nil, engineerr.New(engineerr.NotFound, "deck %s not found", deckID)
		}
		return nil, fmt.Errorf("load deck %s: %w", deckID, err)
	}
	var d ports.Deck
	if err := json.Unmarshal([]byte(data), &d); err != nil {
		return nil, fmt.Errorf("decode deck %s: %w", deckID, err)
	}
	return &d, nil
}

// Save persists a deck.
func (s *DeckStore) Save(ctx context.Context, d *ports.Deck) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode deck %s: %w", d.ID, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO decks (deck_id, data) VALUES (?, ?) ON CONFLICT(deck_id) DO UPDATE SET data = excluded.data`,
		d.ID, string(data))
	return err
}

// TournamentStore implements ports.TournamentRepository, plus a Save
// helper for seeding tournament configurations.
type TournamentStore struct {
	db *sql.DB
}

// FindByID implements ports.TournamentRepository.
func (s *TournamentStore) FindByID(ctx context.Context, tournamentID string) (*ports.Tournament, error) {
	row := s.db.QueryRowContext(ctx, `SELECT data FROM tournaments WHERE tournament_id = ?`, tournamentID)
	var data string
	if err := row.Scan(&data); err != nil {
		if err == sql.ErrNoRows {
			return nil, engineerr.New(engineerr.NotFound, "tournament %s not found", tournamentID)
		}
		return nil, fmt.Errorf("load tournament %s: %w", tournamentID, err)
	}
	var t ports.Tournament
	if err := json.Unmarshal([]byte(data), &t); err != nil {
		return nil, fmt.Errorf("decode tournament %s: %w", tournamentID, err)
	}
	return &t, nil
}

// Save persists a tournament configuration.
func (s *TournamentStore) Save(ctx context.Context, t *ports.Tournament) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encode tournament %s: %w", t.ID, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO tournaments (tournament_id, data) VALUES (?, ?) ON CONFLICT(tournament_id) DO UPDATE SET data = excluded.data`,
		t.ID, string(data))
	return err
}
