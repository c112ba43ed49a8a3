// Package inmem provides the in-memory agent directory. The directory
// is ephemeral on purpose: agents re-register on startup, so a restart
// of the daemon rebuilds the roster without shared storage.
package inmem

import (
	"strings"
	"sync"

	"github.com/openagora/agora/internal/domain/card"
	"github.com/openagora/agora/internal/port/directory"
)

// Directory stores agent cards keyed by name, preserving first
// registration order. Re-registering a name replaces the card in
// place; the agent keeps its original position in listings.
type Directory struct {
	mu    sync.RWMutex
	cards map[string]card.Card
	order []string
}

// NewDirectory creates an empty directory.
func NewDirectory() *Directory {
	return &Directory{cards: make(map[string]card.Card)}
}

// Register upserts a card under its name. The stored copy is a clone;
// later mutations of the caller's card do not leak into the directory.
func (d *Directory) Register(c card.Card) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.cards[c.Name]; !exists {
		d.order = append(d.order, c.Name)
	}
	d.cards[c.Name] = c.Clone()
	return nil
}

// List returns all cards in registration order.
func (d *Directory) List() []card.Card {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]card.Card, 0, len(d.order))
	for _, name := range d.order {
		out = append(out, d.cards[name].Clone())
	}
	return out
}

// FindBySkillTag returns the first registered card advertising the
// tag. Matching is case-insensitive.
func (d *Directory) FindBySkillTag(tag string) (card.Card, bool) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return card.Card{}, false
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, name := range d.order {
		c := d.cards[name]
		if c.HasSkillTag(tag) {
			return c.Clone(), true
		}
	}
	return card.Card{}, false
}

// FindByName returns the card registered under the exact name.
func (d *Directory) FindByName(name string) (card.Card, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	c, ok := d.cards[name]
	if !ok {
		return card.Card{}, false
	}
	return c.Clone(), true
}

// Len returns the number of registered agents.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.cards)
}

var _ directory.Directory = (*Directory)(nil)
