package models

import (
	"sort"
	"time"
)

// AbilityScores holds the six core ability scores.
type AbilityScores struct {
	STR int `json:"STR"`
	DEX int `json:"DEX"`
	CON int `json:"CON"`
	INT int `json:"INT"`
	WIS int `json:"WIS"`
	CHA int `json:"CHA"`
}

// DefaultAbilityScores returns scores of 10 across the board.
func DefaultAbilityScores() AbilityScores {
	return AbilityScores{STR: 10, DEX: 10, CON: 10, INT: 10, WIS: 10, CHA: 10}
}

// Character is a player or NPC character sheet. The name is the identity key
// within a roster.
type Character struct {
	Name             string          `json:"name"`
	Race             string          `json:"race"`
	Class            string          `json:"class"`
	Level            int             `json:"level"`
	MaxHP            int             `json:"max_hp"`
	CurrentHP        int             `json:"current_hp"`
	ArmorClass       int             `json:"armor_class"`
	Abilities        AbilityScores   `json:"abilities"`
	ProficiencyBonus int             `json:"proficiency_bonus"`
	Skills           map[string]bool `json:"skills"`
	Inventory        []string        `json:"inventory"`
	Conditions       []string        `json:"conditions"`
}

// PartyRoster maps character name to character sheet, independent of any
// single adventure.
type PartyRoster struct {
	Characters  map[string]Character `json:"characters"`
	LastUpdated time.Time            `json:"last_updated"`
}

// NewPartyRoster returns an empty roster.
func NewPartyRoster() *PartyRoster {
	return &PartyRoster{Characters: map[string]Character{}}
}

// Names returns the roster's character names in insertion-independent sorted order.
func (r *PartyRoster) Names() []string {
	names := make([]string, 0, len(r.Characters))
	for name := range r.Characters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Members returns the character sheets ordered by name.
func (r *PartyRoster) Members() []Character {
	members := make([]Character, 0, len(r.Characters))
	for _, name := range r.Names() {
		members = append(members, r.Characters[name])
	}
	return members
}
