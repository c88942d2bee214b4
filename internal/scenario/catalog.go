// Package scenario holds the fixed list of workplace situations players respond to.
package scenario

import (
	"math/rand"
	"strings"

	"github.com/workplay/officegame/internal/game"
)

var defaultScenarios = []game.Scenario{
	{
		Title:  "The New Team Member",
		Prompt: "A shy new colleague sits alone at lunch every day. How do you help them feel welcome without being pushy?",
	},
	{
		Title:  "The Blame Game",
		Prompt: "A project failed and team members are pointing fingers at each other. As a team member, how do you help move forward constructively?",
	},
	{
		Title:  "The Difficult Client",
		Prompt: "A client is consistently rude and dismissive during meetings. How do you maintain professionalism while addressing the situation?",
	},
	{
		Title:  "The Overworked Colleague",
		Prompt: "You notice a teammate is staying very late every day and seems stressed. How do you offer support without overstepping boundaries?",
	},
	{
		Title:  "The Communication Breakdown",
		Prompt: "Two departments are not sharing important information, causing project delays. How do you facilitate better communication?",
	},
	{
		Title:  "The Late Arrival",
		Prompt: "You are late for work and your boss is angry. What would you do?",
	},
	{
		Title:  "The Credit Stealer",
		Prompt: "A coworker takes credit for your idea in a team meeting. How do you handle this professionally?",
	},
	{
		Title:  "The Tech Meltdown",
		Prompt: "Your computer crashes the morning of a big presentation, taking your work with it. The presentation is in 2 hours. What do you do?",
	},
}

// Catalog is an immutable, ordered scenario list.
type Catalog struct {
	scenarios []game.Scenario
	intn      func(n int) int
}

// Default returns the built-in catalog.
func Default() *Catalog {
	return New(defaultScenarios)
}

// New builds a catalog from the given scenarios. Entries without a title or
// prompt are skipped.
func New(scenarios []game.Scenario) *Catalog {
	c := &Catalog{intn: rand.Intn}
	for _, s := range scenarios {
		if strings.TrimSpace(s.Title) == "" || strings.TrimSpace(s.Prompt) == "" {
			continue
		}
		c.scenarios = append(c.scenarios, s)
	}
	return c
}

// All returns a copy of the catalog in order.
func (c *Catalog) All() []game.Scenario {
	return append([]game.Scenario(nil), c.scenarios...)
}

func (c *Catalog) Len() int { return len(c.scenarios) }

// Random draws a scenario uniformly. An empty catalog yields the zero Scenario.
func (c *Catalog) Random() game.Scenario {
	if len(c.scenarios) == 0 {
		return game.Scenario{}
	}
	return c.scenarios[c.intn(len(c.scenarios))]
}

// ByTitle looks a scenario up by its exact title, ignoring surrounding space and case.
func (c *Catalog) ByTitle(title string) (game.Scenario, bool) {
	title = strings.TrimSpace(title)
	for _, s := range c.scenarios {
		if strings.EqualFold(s.Title, title) {
			return s, true
		}
	}
	return game.Scenario{}, false
}
