// Package content holds the immutable, runtime-ready game definitions a
// battle operates on. Formulas arrive here already compiled; the loader
// validates everything before a Defs is handed to the engine.
package content

import (
	"fmt"

	"github.com/nathoo/crestfall/engine/battler"
	"github.com/nathoo/crestfall/engine/effect"
	"github.com/nathoo/crestfall/types"
)

// Skill is a runtime-ready skill with its effect compiled.
type Skill struct {
	ID     string
	Name   string
	MPCost int
	Scope  string // "enemy" or "ally"
	Kind   string // "attack", "magic", "summon"
	Effect *effect.SkillEffect
}

// Hostile reports whether the skill targets the opposing side.
func (s *Skill) Hostile() bool {
	return s.Scope != "ally"
}

// Item is a runtime-ready consumable with its effect compiled.
type Item struct {
	ID     string
	Name   string
	Scope  string
	Effect *effect.SkillEffect
}

// Hostile reports whether the item targets the opposing side.
func (i *Item) Hostile() bool {
	return i.Scope == "enemy"
}

// Defs is the full set of loaded definitions. Immutable for the
// battle's duration.
type Defs struct {
	Game       types.GameDef
	Skills     map[string]*Skill
	Items      map[string]*Item
	Equipment  map[string]types.EquipmentDef
	Enemies    map[string]types.EnemyDef
	Characters map[string]types.CharacterDef
	Troops     map[string]types.TroopDef
	Party      types.PartyDef
}

// AttackSkill returns the skill behind the basic Attack command.
func (d *Defs) AttackSkill() (*Skill, error) {
	id := d.Game.AttackSkill
	if id == "" {
		id = "attack"
	}
	s, ok := d.Skills[id]
	if !ok {
		return nil, fmt.Errorf("attack skill %q not defined", id)
	}
	return s, nil
}

// AssembleParty instantiates the starting party: characters in formation
// order with their initial equipment applied.
func (d *Defs) AssembleParty() (*battler.Party, error) {
	var members []*battler.Character
	for _, id := range d.Party.Members {
		def, ok := d.Characters[id]
		if !ok {
			return nil, fmt.Errorf("party member %q not defined", id)
		}
		c := battler.NewCharacter(def)
		for _, eqID := range def.Equipment {
			eq, ok := d.Equipment[eqID]
			if !ok {
				return nil, fmt.Errorf("character %q equipment %q not defined", id, eqID)
			}
			if err := c.Equip(eq); err != nil {
				return nil, fmt.Errorf("character %q: %w", id, err)
			}
		}
		members = append(members, c)
	}
	if len(members) == 0 {
		return nil, fmt.Errorf("party has no members")
	}
	return battler.NewParty(members, d.Party.Gold, d.Party.Inventory), nil
}

// AssembleTroop instantiates an encounter. Duplicate enemy definitions
// get ordinal keys ("slime_1", "slime_2") and lettered display names.
func (d *Defs) AssembleTroop(troopID string) (*battler.Troop, error) {
	def, ok := d.Troops[troopID]
	if !ok {
		return nil, fmt.Errorf("troop %q not defined", troopID)
	}
	if len(def.Enemies) == 0 {
		return nil, fmt.Errorf("troop %q has no enemies", troopID)
	}

	counts := map[string]int{}
	for _, id := range def.Enemies {
		counts[id]++
	}

	seen := map[string]int{}
	var enemies []*battler.Enemy
	for _, id := range def.Enemies {
		edef, ok := d.Enemies[id]
		if !ok {
			return nil, fmt.Errorf("troop %q enemy %q not defined", troopID, id)
		}
		seen[id]++
		key := fmt.Sprintf("%s_%d", id, seen[id])
		if counts[id] > 1 {
			// Letter suffix distinguishes duplicates in the log: "Slime A".
			edef.Name = fmt.Sprintf("%s %c", edef.Name, 'A'+seen[id]-1)
		}
		enemies = append(enemies, battler.NewEnemy(key, edef))
	}
	return battler.NewTroop(enemies), nil
}
