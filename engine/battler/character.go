package battler

import (
	"fmt"

	"github.com/nathoo/crestfall/types"
)

// MaxLevel is the character level cap.
const MaxLevel = 99

// ExperienceForLevel returns the total experience required to reach the
// given level. Level 1 requires none; the curve is quadratic so later
// levels cost progressively more.
func ExperienceForLevel(level int) int {
	if level <= 1 {
		return 0
	}
	if level > MaxLevel {
		level = MaxLevel
	}
	n := level - 1
	return 50 * n * n
}

// LevelForExperience returns the level reached with the given total
// experience.
func LevelForExperience(exp int) int {
	level := 1
	for level < MaxLevel && exp >= ExperienceForLevel(level+1) {
		level++
	}
	return level
}

// Character is a player-controlled battler. Its level is derived from
// accumulated experience, never stored directly; stats recompute from the
// growth curve whenever the level changes.
type Character struct {
	key        string
	name       string
	base       types.StatValues
	growth     types.GrowthValues
	skills     []string
	experience int
	stats      *StatBlock
	equipment  map[string]types.EquipmentDef // slot → equipped piece
}

// NewCharacter builds a character at the definition's starting level with
// full HP/MP and nothing equipped.
func NewCharacter(def types.CharacterDef) *Character {
	c := &Character{
		key:        def.ID,
		name:       def.Name,
		base:       def.Stats,
		growth:     def.Growth,
		skills:     append([]string(nil), def.Skills...),
		experience: ExperienceForLevel(def.Level),
		equipment:  map[string]types.EquipmentDef{},
	}
	c.stats = NewStatBlock(c.statsForLevel(c.Level()))
	return c
}

func (c *Character) Key() string       { return c.key }
func (c *Character) Name() string      { return c.name }
func (c *Character) Stats() *StatBlock { return c.stats }

// Level is derived from the experience threshold table.
func (c *Character) Level() int {
	return LevelForExperience(c.experience)
}

// Experience returns total accumulated experience.
func (c *Character) Experience() int {
	return c.experience
}

func (c *Character) IsKnockedOut() bool {
	return c.stats.HP() <= 0
}

func (c *Character) HasStatus(tag string) bool {
	return false
}

func (c *Character) CanUseItem() bool {
	return !c.IsKnockedOut()
}

// CanEquip reports whether the piece fits one of the character's slots.
func (c *Character) CanEquip(eq types.EquipmentDef) bool {
	return eq.Slot == "weapon" || eq.Slot == "armor"
}

// Equip places the piece in its slot, replacing any previous piece, and
// recomputes stats.
func (c *Character) Equip(eq types.EquipmentDef) error {
	if !c.CanEquip(eq) {
		return fmt.Errorf("%s cannot equip %s (slot %q)", c.name, eq.Name, eq.Slot)
	}
	c.equipment[eq.Slot] = eq
	c.recalc()
	return nil
}

// Equipped returns the piece in the given slot, if any.
func (c *Character) Equipped(slot string) (types.EquipmentDef, bool) {
	eq, ok := c.equipment[slot]
	return eq, ok
}

// Skills returns the character's known skill IDs.
func (c *Character) Skills() []string {
	return c.skills
}

// GainExperience adds experience and returns how many levels were gained.
// Max HP/MP gains carry over into current HP/MP so a level-up is felt
// immediately.
func (c *Character) GainExperience(exp int) int {
	if exp < 0 {
		exp = 0
	}
	before := c.Level()
	c.experience += exp
	after := c.Level()
	if after != before {
		c.recalc()
	}
	return after - before
}

// statsForLevel computes base-plus-growth values for a level, before
// equipment bonuses.
func (c *Character) statsForLevel(level int) types.StatValues {
	n := level - 1
	return types.StatValues{
		MaxHP:        c.base.MaxHP + c.growth.MaxHP*n,
		MaxMP:        c.base.MaxMP + c.growth.MaxMP*n,
		Attack:       c.base.Attack + c.growth.Attack*n,
		Defence:      c.base.Defence + c.growth.Defence*n,
		MagicAttack:  c.base.MagicAttack + c.growth.MagicAttack*n,
		MagicDefence: c.base.MagicDefence + c.growth.MagicDefence*n,
		Speed:        c.base.Speed + c.growth.Speed*n,
		Grace:        c.base.Grace + c.growth.Grace*n,
		Evasion:      c.base.Evasion + c.growth.Evasion*n,
	}
}

// recalc rebuilds the stat block from level and equipment, raising current
// HP/MP by any increase in their maximums.
func (c *Character) recalc() {
	v := c.statsForLevel(c.Level())
	for _, eq := range c.equipment {
		v.MaxHP += eq.Bonus.MaxHP
		v.MaxMP += eq.Bonus.MaxMP
		v.Attack += eq.Bonus.Attack
		v.Defence += eq.Bonus.Defence
		v.MagicAttack += eq.Bonus.MagicAttack
		v.MagicDefence += eq.Bonus.MagicDefence
		v.Speed += eq.Bonus.Speed
		v.Grace += eq.Bonus.Grace
		v.Evasion += eq.Bonus.Evasion
	}

	prevHP, prevMaxHP := c.stats.HP(), c.stats.MaxHP()
	prevMP, prevMaxMP := c.stats.MP(), c.stats.MaxMP()

	c.stats.SetMaxHP(v.MaxHP)
	c.stats.SetMaxMP(v.MaxMP)
	c.stats.SetAttack(v.Attack)
	c.stats.SetDefence(v.Defence)
	c.stats.SetMagicAttack(v.MagicAttack)
	c.stats.SetMagicDefence(v.MagicDefence)
	c.stats.SetSpeed(v.Speed)
	c.stats.SetGrace(v.Grace)
	c.stats.SetEvasion(v.Evasion)

	c.stats.SetHP(prevHP + (c.stats.MaxHP() - prevMaxHP))
	c.stats.SetMP(prevMP + (c.stats.MaxMP() - prevMaxMP))
}
