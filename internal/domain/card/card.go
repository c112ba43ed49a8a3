// Package card defines the agent card: the self-describing manifest an
// agent publishes at its well-known path and registers with the directory.
package card

import (
	"fmt"
	"strings"

	"github.com/openagora/agora/internal/domain"
)

// Card describes an agent: identity, invocation endpoint, and the
// skills it advertises. The struct is also the wire shape served at
// /.well-known/agent-card.json.
type Card struct {
	Name         string       `json:"name" yaml:"name"`
	Description  string       `json:"description" yaml:"description"`
	Endpoint     string       `json:"endpoint" yaml:"endpoint"`
	Version      string       `json:"version,omitempty" yaml:"version,omitempty"`
	Skills       []Skill      `json:"skills" yaml:"skills"`
	Capabilities Capabilities `json:"capabilities" yaml:"capabilities"`
}

// Skill is one advertised capability of an agent. Tags drive
// skill-based lookup in the directory.
type Skill struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Tags        []string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// Capabilities holds the optional protocol feature flags of an agent.
type Capabilities struct {
	Streaming         bool `json:"streaming" yaml:"streaming"`
	PushNotifications bool `json:"push_notifications,omitempty" yaml:"push_notifications,omitempty"`
}

// Validate checks the card for required fields. The directory rejects
// invalid cards at registration time.
func (c *Card) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: name is required", domain.ErrInvalidCard)
	}
	if strings.TrimSpace(c.Endpoint) == "" {
		return fmt.Errorf("%w: endpoint is required", domain.ErrInvalidCard)
	}
	for i := range c.Skills {
		if c.Skills[i].ID == "" {
			return fmt.Errorf("%w: skill %d has no id", domain.ErrInvalidCard, i)
		}
	}
	return nil
}

// Clone returns a deep copy. Directory snapshots hand out clones so
// callers never alias registry-owned memory.
func (c Card) Clone() Card {
	out := c
	if c.Skills != nil {
		out.Skills = make([]Skill, len(c.Skills))
		for i, s := range c.Skills {
			out.Skills[i] = s
			if s.Tags != nil {
				out.Skills[i].Tags = append([]string(nil), s.Tags...)
			}
		}
	}
	return out
}

// HasSkillTag reports whether any skill carries the given tag.
// Matching is case-insensitive.
func (c *Card) HasSkillTag(tag string) bool {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if tag == "" {
		return false
	}
	for i := range c.Skills {
		for _, t := range c.Skills[i].Tags {
			if strings.ToLower(t) == tag {
				return true
			}
		}
	}
	return false
}

// SlugID derives a skill ID from a display name: lowercased, spaces
// collapsed to single hyphens.
func SlugID(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "-")
}

// SkillTags returns the deduplicated, lowercased union of all skill
// tags on the card, in first-seen order.
func (c *Card) SkillTags() []string {
	seen := make(map[string]struct{})
	var tags []string
	for i := range c.Skills {
		for _, t := range c.Skills[i].Tags {
			lt := strings.ToLower(t)
			if _, ok := seen[lt]; ok {
				continue
			}
			seen[lt] = struct{}{}
			tags = append(tags, lt)
		}
	}
	return tags
}
