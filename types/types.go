// Package types defines the shared data structures for the Crestfall engine.
// This package contains only type definitions — no logic, no methods.
package types

// StatValues is a raw set of battler attributes as authored in content.
// Values are clamped into their legal ranges when loaded into a StatBlock.
type StatValues struct {
	MaxHP        int
	MaxMP        int
	Attack       int
	Defence      int
	MagicAttack  int
	MagicDefence int
	Speed        int
	Grace        int
	Evasion      int
}

// GrowthValues describes per-level stat gains for a character.
type GrowthValues struct {
	MaxHP        int
	MaxMP        int
	Attack       int
	Defence      int
	MagicAttack  int
	MagicDefence int
	Speed        int
	Grace        int
	Evasion      int
}

// EffectDef is the authored form of a skill effect before formula compilation.
type EffectDef struct {
	Kind     string // "hp_damage", "hp_drain", "hp_recover", "mp_damage", "mp_drain", "mp_recover"
	Formula  string // expression over user/target stat accessors
	Element  string // optional elemental tag
	Variance float64
	Critical bool
}

// SkillDef is an authored skill.
type SkillDef struct {
	ID     string
	Name   string
	MPCost int
	Scope  string // "enemy" or "ally"
	Kind   string // "attack", "magic", "summon"
	Effect EffectDef
}

// ItemDef is an authored consumable item.
type ItemDef struct {
	ID     string
	Name   string
	Scope  string // "enemy" or "ally"
	Effect EffectDef
}

// EquipmentDef is an authored piece of equipment.
type EquipmentDef struct {
	ID    string
	Name  string
	Slot  string // "weapon" or "armor"
	Bonus StatValues
}

// ConditionDef is the authored form of an enemy action condition.
type ConditionDef struct {
	Kind       string  // "always", "hp", "turn", "party_level", "status"
	HPMin      float64 // hp: own HP fraction lower bound
	HPMax      float64 // hp: own HP fraction upper bound
	TurnA      int     // turn: fires when turn == a + n*b
	TurnB      int
	PartyLevel int    // party_level: opposing party average level floor
	Status     string // status: named tag that must be active
}

// PatternDef pairs a condition with a skill and a selection weight.
type PatternDef struct {
	SkillID   string
	Rating    int
	Condition ConditionDef
}

// DropDef is one entry in an enemy's drop table.
type DropDef struct {
	ItemID string
	Rate   float64 // [0,1]
}

// RewardsDef is the payout an enemy contributes on defeat.
type RewardsDef struct {
	Experience int
	Gold       int
	Drops      []DropDef
}

// EnemyDef is an authored enemy.
type EnemyDef struct {
	ID       string
	Name     string
	Level    int
	Stats    StatValues
	Statuses []string // innate tags, e.g. "undead"
	Patterns []PatternDef
	Rewards  RewardsDef
}

// CharacterDef is an authored player character.
type CharacterDef struct {
	ID        string
	Name      string
	Level     int // starting level
	Stats     StatValues
	Growth    GrowthValues
	Skills    []string // known skill IDs
	Equipment []string // initially equipped equipment IDs
}

// PartyDef is the authored starting party.
type PartyDef struct {
	Members   []string // character IDs in formation order
	Gold      int
	Inventory map[string]int // item ID → count
}

// TroopDef is an authored encounter.
type TroopDef struct {
	ID      string
	Enemies []string // enemy IDs; duplicates allowed
}

// GameDef holds game metadata and battle tuning.
type GameDef struct {
	Title        string
	Author       string
	Version      string
	Intro        string
	IntroSeconds float64 // Start-state duration before Run
	Troop        string  // encounter launched by default
	AttackSkill  string  // skill used by the basic Attack command
}

// StatSnapshot is a plain-data view of a StatBlock for display and hand-off.
type StatSnapshot struct {
	HP           int `json:"hp"`
	MaxHP        int `json:"max_hp"`
	MP           int `json:"mp"`
	MaxMP        int `json:"max_mp"`
	Attack       int `json:"attack"`
	Defence      int `json:"defence"`
	MagicAttack  int `json:"magic_attack"`
	MagicDefence int `json:"magic_defence"`
	Speed        int `json:"speed"`
	Grace        int `json:"grace"`
	Evasion      int `json:"evasion"`
}
