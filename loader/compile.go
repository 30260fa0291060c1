// Package loader loads Lua battle content into Go structs at startup.
// The Lua VM is discarded after loading — zero Lua at runtime.
package loader

import (
	"fmt"
	"sort"

	"github.com/nathoo/crestfall/engine/content"
	"github.com/nathoo/crestfall/engine/effect"
	"github.com/nathoo/crestfall/types"
	lua "github.com/yuin/gopher-lua"
)

// rawDef holds a keyed definition table before compilation.
type rawDef struct {
	id    string
	table *lua.LTable
}

// getString returns a string field from a Lua table, or "" if missing.
func getString(tbl *lua.LTable, key string) string {
	v := tbl.RawGetString(key)
	if s, ok := v.(lua.LString); ok {
		return string(s)
	}
	return ""
}

// getBool returns a bool field from a Lua table, or the default if missing.
func getBool(tbl *lua.LTable, key string, def bool) bool {
	v := tbl.RawGetString(key)
	if b, ok := v.(lua.LBool); ok {
		return bool(b)
	}
	return def
}

// getNumber returns a numeric field from a Lua table, or 0 if missing.
func getNumber(tbl *lua.LTable, key string) float64 {
	v := tbl.RawGetString(key)
	if n, ok := v.(lua.LNumber); ok {
		return float64(n)
	}
	return 0
}

// getInt returns an int field from a Lua table, or 0 if missing.
func getInt(tbl *lua.LTable, key string) int {
	return int(getNumber(tbl, key))
}

// getTable returns a table field from a Lua table, or nil if missing.
func getTable(tbl *lua.LTable, key string) *lua.LTable {
	v := tbl.RawGetString(key)
	if t, ok := v.(*lua.LTable); ok {
		return t
	}
	return nil
}

// tableToStringSlice converts a Lua array of strings.
func tableToStringSlice(tbl *lua.LTable) []string {
	if tbl == nil {
		return nil
	}
	var out []string
	for i := 1; i <= tbl.MaxN(); i++ {
		if s, ok := tbl.RawGetInt(i).(lua.LString); ok {
			out = append(out, string(s))
		}
	}
	return out
}

// tableToIntMap converts a Lua table to a map[string]int.
func tableToIntMap(tbl *lua.LTable) map[string]int {
	if tbl == nil {
		return nil
	}
	m := map[string]int{}
	tbl.ForEach(func(k, v lua.LValue) {
		if ks, ok := k.(lua.LString); ok {
			if n, ok := v.(lua.LNumber); ok {
				m[string(ks)] = int(n)
			}
		}
	})
	return m
}

// compile converts all collected Lua data into a Defs struct.
func compile(coll *collector) (*content.Defs, error) {
	defs := &content.Defs{
		Skills:     map[string]*content.Skill{},
		Items:      map[string]*content.Item{},
		Equipment:  map[string]types.EquipmentDef{},
		Enemies:    map[string]types.EnemyDef{},
		Characters: map[string]types.CharacterDef{},
		Troops:     map[string]types.TroopDef{},
	}

	if coll.game == nil {
		return nil, fmt.Errorf("no Game{} definition found")
	}
	defs.Game = compileGame(coll.game)

	for _, raw := range coll.skills {
		s, err := compileSkill(raw)
		if err != nil {
			return nil, fmt.Errorf("compiling skill %s: %w", raw.id, err)
		}
		defs.Skills[s.ID] = s
	}

	for _, raw := range coll.items {
		it, err := compileItem(raw)
		if err != nil {
			return nil, fmt.Errorf("compiling item %s: %w", raw.id, err)
		}
		defs.Items[it.ID] = it
	}

	for _, raw := range coll.equipment {
		defs.Equipment[raw.id] = compileEquipment(raw)
	}

	for _, raw := range coll.enemies {
		defs.Enemies[raw.id] = compileEnemy(raw)
	}

	for _, raw := range coll.characters {
		defs.Characters[raw.id] = compileCharacter(raw)
	}

	for _, raw := range coll.troops {
		defs.Troops[raw.id] = types.TroopDef{
			ID:      raw.id,
			Enemies: tableToStringSlice(getTable(raw.table, "enemies")),
		}
	}

	if coll.party == nil {
		return nil, fmt.Errorf("no Party{} definition found")
	}
	defs.Party = types.PartyDef{
		Members:   tableToStringSlice(getTable(coll.party, "members")),
		Gold:      getInt(coll.party, "gold"),
		Inventory: tableToIntMap(getTable(coll.party, "inventory")),
	}

	return defs, nil
}

func compileGame(tbl *lua.LTable) types.GameDef {
	return types.GameDef{
		Title:        getString(tbl, "title"),
		Author:       getString(tbl, "author"),
		Version:      getString(tbl, "version"),
		Intro:        getString(tbl, "intro"),
		IntroSeconds: getNumber(tbl, "intro_seconds"),
		Troop:        getString(tbl, "troop"),
		AttackSkill:  getString(tbl, "attack_skill"),
	}
}

// compileEffectDef reads the effect table and compiles its formula.
func compileEffectDef(tbl *lua.LTable) (types.EffectDef, *effect.SkillEffect, error) {
	if tbl == nil {
		return types.EffectDef{}, nil, fmt.Errorf("missing effect table")
	}
	def := types.EffectDef{
		Kind:     getString(tbl, "kind"),
		Formula:  getString(tbl, "formula"),
		Element:  getString(tbl, "element"),
		Variance: getNumber(tbl, "variance"),
		Critical: getBool(tbl, "critical", false),
	}
	eff, err := effect.Compile(def)
	if err != nil {
		return def, nil, err
	}
	return def, eff, nil
}

func compileSkill(raw rawDef) (*content.Skill, error) {
	tbl := raw.table
	_, eff, err := compileEffectDef(getTable(tbl, "effect"))
	if err != nil {
		return nil, err
	}
	scope := getString(tbl, "scope")
	if scope == "" {
		scope = "enemy"
	}
	kind := getString(tbl, "kind")
	if kind == "" {
		kind = "attack"
	}
	return &content.Skill{
		ID:     raw.id,
		Name:   getString(tbl, "name"),
		MPCost: getInt(tbl, "mp_cost"),
		Scope:  scope,
		Kind:   kind,
		Effect: eff,
	}, nil
}

func compileItem(raw rawDef) (*content.Item, error) {
	tbl := raw.table
	_, eff, err := compileEffectDef(getTable(tbl, "effect"))
	if err != nil {
		return nil, err
	}
	scope := getString(tbl, "scope")
	if scope == "" {
		scope = "ally"
	}
	return &content.Item{
		ID:     raw.id,
		Name:   getString(tbl, "name"),
		Scope:  scope,
		Effect: eff,
	}, nil
}

func compileEquipment(raw rawDef) types.EquipmentDef {
	tbl := raw.table
	return types.EquipmentDef{
		ID:    raw.id,
		Name:  getString(tbl, "name"),
		Slot:  getString(tbl, "slot"),
		Bonus: compileStats(getTable(tbl, "bonus")),
	}
}

func compileStats(tbl *lua.LTable) types.StatValues {
	if tbl == nil {
		return types.StatValues{}
	}
	return types.StatValues{
		MaxHP:        getInt(tbl, "max_hp"),
		MaxMP:        getInt(tbl, "max_mp"),
		Attack:       getInt(tbl, "attack"),
		Defence:      getInt(tbl, "defence"),
		MagicAttack:  getInt(tbl, "magic_attack"),
		MagicDefence: getInt(tbl, "magic_defence"),
		Speed:        getInt(tbl, "speed"),
		Grace:        getInt(tbl, "grace"),
		Evasion:      getInt(tbl, "evasion"),
	}
}

func compileGrowth(tbl *lua.LTable) types.GrowthValues {
	if tbl == nil {
		return types.GrowthValues{}
	}
	return types.GrowthValues{
		MaxHP:        getInt(tbl, "max_hp"),
		MaxMP:        getInt(tbl, "max_mp"),
		Attack:       getInt(tbl, "attack"),
		Defence:      getInt(tbl, "defence"),
		MagicAttack:  getInt(tbl, "magic_attack"),
		MagicDefence: getInt(tbl, "magic_defence"),
		Speed:        getInt(tbl, "speed"),
		Grace:        getInt(tbl, "grace"),
		Evasion:      getInt(tbl, "evasion"),
	}
}

func compileEnemy(raw rawDef) types.EnemyDef {
	tbl := raw.table
	def := types.EnemyDef{
		ID:       raw.id,
		Name:     getString(tbl, "name"),
		Level:    getInt(tbl, "level"),
		Stats:    compileStats(getTable(tbl, "stats")),
		Statuses: tableToStringSlice(getTable(tbl, "statuses")),
	}

	if patterns := getTable(tbl, "patterns"); patterns != nil {
		for i := 1; i <= patterns.MaxN(); i++ {
			if p, ok := patterns.RawGetInt(i).(*lua.LTable); ok {
				def.Patterns = append(def.Patterns, compilePattern(p))
			}
		}
	}

	if rewards := getTable(tbl, "rewards"); rewards != nil {
		def.Rewards = types.RewardsDef{
			Experience: getInt(rewards, "experience"),
			Gold:       getInt(rewards, "gold"),
		}
		if drops := getTable(rewards, "drops"); drops != nil {
			for i := 1; i <= drops.MaxN(); i++ {
				if d, ok := drops.RawGetInt(i).(*lua.LTable); ok {
					def.Rewards.Drops = append(def.Rewards.Drops, types.DropDef{
						ItemID: getString(d, "item"),
						Rate:   getNumber(d, "rate"),
					})
				}
			}
		}
	}

	return def
}

func compilePattern(tbl *lua.LTable) types.PatternDef {
	p := types.PatternDef{
		SkillID: getString(tbl, "skill"),
		Rating:  getInt(tbl, "rating"),
	}
	if cond := getTable(tbl, "condition"); cond != nil {
		p.Condition = types.ConditionDef{
			Kind:       getString(cond, "kind"),
			HPMin:      getNumber(cond, "hp_min"),
			HPMax:      getNumber(cond, "hp_max"),
			TurnA:      getInt(cond, "turn_a"),
			TurnB:      getInt(cond, "turn_b"),
			PartyLevel: getInt(cond, "party_level"),
			Status:     getString(cond, "status"),
		}
	} else {
		p.Condition = types.ConditionDef{Kind: "always"}
	}
	return p
}

func compileCharacter(raw rawDef) types.CharacterDef {
	tbl := raw.table
	level := getInt(tbl, "level")
	if level < 1 {
		level = 1
	}
	return types.CharacterDef{
		ID:        raw.id,
		Name:      getString(tbl, "name"),
		Level:     level,
		Stats:     compileStats(getTable(tbl, "stats")),
		Growth:    compileGrowth(getTable(tbl, "growth")),
		Skills:    tableToStringSlice(getTable(tbl, "skills")),
		Equipment: tableToStringSlice(getTable(tbl, "equipment")),
	}
}

// sortedLuaFiles returns .lua files with game.lua first and the rest
// sorted alphabetically.
func sortedLuaFiles(files []string) []string {
	var gameFile string
	var others []string
	for _, f := range files {
		if f == "game.lua" {
			gameFile = f
		} else {
			others = append(others, f)
		}
	}
	sort.Strings(others)
	if gameFile != "" {
		return append([]string{gameFile}, others...)
	}
	return others
}
