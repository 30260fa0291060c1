// Package save implements the JSON hand-off written after a battle, so
// an outer game layer can carry the party's state forward.
package save

import (
	"encoding/json"

	"github.com/nathoo/crestfall/engine"
	"github.com/nathoo/crestfall/engine/content"
	"github.com/nathoo/crestfall/types"
)

// MemberState is one party member's post-battle condition.
type MemberState struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	Level      int                `json:"level"`
	Experience int                `json:"experience"`
	Stats      types.StatSnapshot `json:"stats"`
}

// SaveData is the JSON-serializable hand-off format.
type SaveData struct {
	Version     string         `json:"version"`
	Game        string         `json:"game"`
	Outcome     string         `json:"outcome"` // "victory", "defeat", "fled"
	Rounds      int            `json:"rounds"`
	Members     []MemberState  `json:"members"`
	Gold        int            `json:"gold"`
	Inventory   map[string]int `json:"inventory"`
	Experience  int            `json:"experience_gained"`
	LootItemIDs []string       `json:"loot"`
	RNGSeed     int64          `json:"rng_seed"`
	RNGPosition int64          `json:"rng_position"`
}

// Save serializes a finished (or fled) battle to JSON bytes.
func Save(b *engine.Battle, defs *content.Defs) ([]byte, error) {
	seed, pos := b.RNGState()
	data := SaveData{
		Version:     defs.Game.Version,
		Game:        defs.Game.Title,
		Outcome:     b.Outcome(),
		Rounds:      b.Round(),
		Gold:        b.Party().Gold(),
		Inventory:   b.Party().Inventory(),
		RNGSeed:     seed,
		RNGPosition: pos,
	}
	for _, m := range b.Party().Members() {
		data.Members = append(data.Members, MemberState{
			ID:         m.Key(),
			Name:       m.Name(),
			Level:      m.Level(),
			Experience: m.Experience(),
			Stats:      m.Stats().Snapshot(),
		})
	}
	if res := b.Rewards(); res != nil {
		data.Experience = res.Experience
		data.LootItemIDs = res.Loot
	}
	if data.LootItemIDs == nil {
		data.LootItemIDs = []string{}
	}
	if data.Inventory == nil {
		data.Inventory = map[string]int{}
	}
	return json.MarshalIndent(data, "", "  ")
}

// Load deserializes JSON bytes into SaveData.
func Load(data []byte) (*SaveData, error) {
	var sd SaveData
	if err := json.Unmarshal(data, &sd); err != nil {
		return nil, err
	}
	// Ensure collections are never nil after load.
	if sd.Inventory == nil {
		sd.Inventory = map[string]int{}
	}
	if sd.Members == nil {
		sd.Members = []MemberState{}
	}
	if sd.LootItemIDs == nil {
		sd.LootItemIDs = []string{}
	}
	return &sd, nil
}
