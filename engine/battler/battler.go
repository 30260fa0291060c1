// Package battler implements the combat participant model: stat blocks,
// player characters, enemies, and the party/troop groupings battles
// operate on.
package battler

import (
	"github.com/nathoo/crestfall/engine/formula"
	"github.com/nathoo/crestfall/types"
)

// Battler is any combat participant. The knockout predicate is uniform
// across variants: knocked out means current HP has reached zero.
type Battler interface {
	// Key uniquely identifies the battler within one battle.
	Key() string
	Name() string
	Level() int
	Stats() *StatBlock
	IsKnockedOut() bool
	HasStatus(tag string) bool

	// Capability set. Enemies trivially reject items and equipment.
	CanUseItem() bool
	CanEquip(eq types.EquipmentDef) bool
	Equip(eq types.EquipmentDef) error
}

// statSource adapts a Battler to the formula evaluator, adding the
// level pseudo-stat on top of the StatBlock fields.
type statSource struct {
	b Battler
}

func (s statSource) StatValue(name string) (float64, bool) {
	if name == "level" {
		return float64(s.b.Level()), true
	}
	v, ok := s.b.Stats().Lookup(name)
	return float64(v), ok
}

// FormulaSource exposes a battler's stats to formula evaluation.
func FormulaSource(b Battler) formula.Source {
	return statSource{b: b}
}

// HPFraction returns current HP as a fraction of max HP, 0 when max is 0.
func HPFraction(b Battler) float64 {
	s := b.Stats()
	if s.MaxHP() == 0 {
		return 0
	}
	return float64(s.HP()) / float64(s.MaxHP())
}
