package battler

import "github.com/nathoo/crestfall/types"

// Stat caps. Every write saturates into its field's range — combat formulas
// may overshoot freely and the clamp absorbs it. Setters never fail.
const (
	HPCap   = 9999
	StatCap = 99
)

// StatBlock owns a battler's numeric attributes. Current HP/MP additionally
// clamp against their max values, which themselves clamp against the caps.
type StatBlock struct {
	hp, maxHP    int
	mp, maxMP    int
	attack       int
	defence      int
	magicAttack  int
	magicDefence int
	speed        int
	grace        int
	evasion      int
}

// NewStatBlock builds a StatBlock from authored values, with current HP/MP
// filled to their maximums.
func NewStatBlock(v types.StatValues) *StatBlock {
	s := &StatBlock{}
	s.SetMaxHP(v.MaxHP)
	s.SetMaxMP(v.MaxMP)
	s.SetHP(s.maxHP)
	s.SetMP(s.maxMP)
	s.SetAttack(v.Attack)
	s.SetDefence(v.Defence)
	s.SetMagicAttack(v.MagicAttack)
	s.SetMagicDefence(v.MagicDefence)
	s.SetSpeed(v.Speed)
	s.SetGrace(v.Grace)
	s.SetEvasion(v.Evasion)
	return s
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (s *StatBlock) HP() int    { return s.hp }
func (s *StatBlock) MaxHP() int { return s.maxHP }
func (s *StatBlock) MP() int    { return s.mp }
func (s *StatBlock) MaxMP() int { return s.maxMP }

func (s *StatBlock) SetHP(v int) { s.hp = clamp(v, 0, s.maxHP) }
func (s *StatBlock) SetMP(v int) { s.mp = clamp(v, 0, s.maxMP) }

// SetMaxHP clamps the maximum and pulls current HP down if it now exceeds it.
func (s *StatBlock) SetMaxHP(v int) {
	s.maxHP = clamp(v, 0, HPCap)
	s.hp = clamp(s.hp, 0, s.maxHP)
}

func (s *StatBlock) SetMaxMP(v int) {
	s.maxMP = clamp(v, 0, StatCap)
	s.mp = clamp(s.mp, 0, s.maxMP)
}

func (s *StatBlock) Attack() int       { return s.attack }
func (s *StatBlock) Defence() int      { return s.defence }
func (s *StatBlock) MagicAttack() int  { return s.magicAttack }
func (s *StatBlock) MagicDefence() int { return s.magicDefence }
func (s *StatBlock) Speed() int        { return s.speed }
func (s *StatBlock) Grace() int        { return s.grace }
func (s *StatBlock) Evasion() int      { return s.evasion }

func (s *StatBlock) SetAttack(v int)       { s.attack = clamp(v, 0, StatCap) }
func (s *StatBlock) SetDefence(v int)      { s.defence = clamp(v, 0, StatCap) }
func (s *StatBlock) SetMagicAttack(v int)  { s.magicAttack = clamp(v, 0, StatCap) }
func (s *StatBlock) SetMagicDefence(v int) { s.magicDefence = clamp(v, 0, StatCap) }
func (s *StatBlock) SetSpeed(v int)        { s.speed = clamp(v, 0, StatCap) }
func (s *StatBlock) SetGrace(v int)        { s.grace = clamp(v, 0, StatCap) }
func (s *StatBlock) SetEvasion(v int)      { s.evasion = clamp(v, 0, StatCap) }

// Lookup exposes fields by formula accessor name.
func (s *StatBlock) Lookup(name string) (int, bool) {
	switch name {
	case "hp":
		return s.hp, true
	case "maxhp":
		return s.maxHP, true
	case "mp":
		return s.mp, true
	case "maxmp":
		return s.maxMP, true
	case "atk":
		return s.attack, true
	case "def":
		return s.defence, true
	case "mat":
		return s.magicAttack, true
	case "mdf":
		return s.magicDefence, true
	case "spd":
		return s.speed, true
	case "grc":
		return s.grace, true
	case "eva":
		return s.evasion, true
	default:
		return 0, false
	}
}

// Snapshot returns a plain-data copy for display and persistence hand-off.
func (s *StatBlock) Snapshot() types.StatSnapshot {
	return types.StatSnapshot{
		HP:           s.hp,
		MaxHP:        s.maxHP,
		MP:           s.mp,
		MaxMP:        s.maxMP,
		Attack:       s.attack,
		Defence:      s.defence,
		MagicAttack:  s.magicAttack,
		MagicDefence: s.magicDefence,
		Speed:        s.speed,
		Grace:        s.grace,
		Evasion:      s.evasion,
	}
}
