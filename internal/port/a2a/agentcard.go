package a2a

import "github.com/openagora/agora/internal/domain/card"

// BuildCard assembles the card an agent host serves about itself.
// Blank version defaults to "0.1.0"; skills missing an ID inherit a
// lowercased form of their name so hand-written configs stay terse.
func BuildCard(name, description, endpoint, version string, skills []card.Skill) card.Card {
	if version == "" {
		version = "0.1.0"
	}
	out := make([]card.Skill, len(skills))
	for i, s := range skills {
		if s.ID == "" {
			s.ID = card.SlugID(s.Name)
		}
		out[i] = s
	}
	return card.Card{
		Name:        name,
		Description: description,
		Endpoint:    endpoint,
		Version:     version,
		Skills:      out,
	}
}
