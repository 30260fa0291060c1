package battler

import (
	"fmt"

	"github.com/nathoo/crestfall/types"
)

// Enemy is a troop-controlled battler with fixed stats, a declarative
// action pattern list, and a rewards payout consumed on defeat.
type Enemy struct {
	key      string
	name     string
	level    int
	stats    *StatBlock
	statuses map[string]bool
	patterns []types.PatternDef
	rewards  types.RewardsDef
}

// NewEnemy instantiates an enemy from its definition. key must be unique
// within the battle (troop assembly appends an ordinal for duplicates).
func NewEnemy(key string, def types.EnemyDef) *Enemy {
	statuses := map[string]bool{}
	for _, tag := range def.Statuses {
		statuses[tag] = true
	}
	return &Enemy{
		key:      key,
		name:     def.Name,
		level:    def.Level,
		stats:    NewStatBlock(def.Stats),
		statuses: statuses,
		patterns: append([]types.PatternDef(nil), def.Patterns...),
		rewards:  def.Rewards,
	}
}

func (e *Enemy) Key() string       { return e.key }
func (e *Enemy) Name() string      { return e.name }
func (e *Enemy) Level() int        { return e.level }
func (e *Enemy) Stats() *StatBlock { return e.stats }

func (e *Enemy) IsKnockedOut() bool {
	return e.stats.HP() <= 0
}

func (e *Enemy) HasStatus(tag string) bool {
	return e.statuses[tag]
}

func (e *Enemy) CanUseItem() bool {
	return false
}

func (e *Enemy) CanEquip(eq types.EquipmentDef) bool {
	return false
}

func (e *Enemy) Equip(eq types.EquipmentDef) error {
	return fmt.Errorf("%s cannot equip %s", e.name, eq.Name)
}

// Patterns returns the enemy's action pattern list in declaration order.
func (e *Enemy) Patterns() []types.PatternDef {
	return e.patterns
}

// Rewards returns the payout this enemy contributes when defeated.
func (e *Enemy) Rewards() types.RewardsDef {
	return e.rewards
}
