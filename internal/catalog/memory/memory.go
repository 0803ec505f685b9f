// Package memory provides an in-memory ports.CardCatalog backed by a
// map literal, for tests and cmd/matchctl. A production deployment
// would swap this for a catalog backed by the set-release database;
// the core only ever depends on the ports.CardCatalog interface.
package memory

import (
	"context"
	"sync"

	"github.com/pokettcg/rules-engine/internal/card"
	"github.com/pokettcg/rules-engine/internal/engineerr"
)

// Catalog is a thread-safe in-memory CardCatalog.
type Catalog struct {
	mu    sync.RWMutex
	cards map[string]card.Card
}

// New creates a Catalog pre-loaded with cards.
func New(cards ...card.Card) *Catalog {
	c := &Catalog{cards: make(map[string]card.Card, len(cards))}
	for _, cd := range cards {
		c.cards[cd.ID] = cd
	}
	return c
}

// Put adds or replaces a card definition.
func (c *Catalog) Put(cd card.Card) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cards[cd.ID] = cd
}

// Get implements ports.CardCatalog.
func (c *Catalog) Get(ctx context.Context, cardID string) (card.Card, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cd, ok := c.cards[cardID]
	if !ok {
		return card.Card{}, engineerr.New(engineerr.NotFound, "card %s not found", cardID)
	}
	return cd, nil
}

// GetMany implements ports.CardCatalog.
func (c *Catalog) GetMany(ctx context.Context, cardIDs []string) (map[string]card.Card, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]card.Card, len(cardIDs))
	for _, id := range cardIDs {
		cd, ok := c.cards[id]
		if !ok {
			return nil, engineerr.New(engineerr.NotFound, "card %s not found", id)
		}
		out[id] = cd
	}
	return out, nil
}
