// Package directory defines the agent directory port (interface).
package directory

import "github.com/openagora/agora/internal/domain/card"

// Directory is the authoritative roster of known agents. It is always
// an explicit dependency: implementations are constructed by the
// composition root and injected, never reached through package state.
//
// Registration is an upsert keyed by card name: re-registering a name
// replaces the stored card (last write wins). There is no removal; a
// stale agent is superseded by registering a fresh card under the same
// name.
type Directory interface {
	// Register validates nothing beyond storage concerns; callers are
	// expected to have validated the card. Returns an error only when
	// the card cannot be stored.
	Register(c card.Card) error

	// List returns a point-in-time snapshot of all cards, in stable
	// registration order. The returned cards are clones; mutating them
	// does not affect the directory.
	List() []card.Card

	// FindBySkillTag returns the first card (in registration order)
	// advertising the tag, and whether one was found. An empty
	// directory or an unmatched tag is a normal miss, not an error.
	FindBySkillTag(tag string) (card.Card, bool)

	// FindByName returns the card registered under the exact name.
	FindByName(name string) (card.Card, bool)
}
