// Package effect implements formula-driven skill effects: the six
// damage/drain/recover variants a skill or item can carry, with variance,
// critical hits, and evasion applied at the point of use.
package effect

import (
	"fmt"
	"math"

	"github.com/nathoo/crestfall/engine/battler"
	"github.com/nathoo/crestfall/engine/dice"
	"github.com/nathoo/crestfall/engine/formula"
	"github.com/nathoo/crestfall/types"
)

// Kind identifies what an effect does to its target.
type Kind int

const (
	HPDamage Kind = iota
	HPDrain
	HPRecover
	MPDamage
	MPDrain
	MPRecover
)

var kindNames = map[Kind]string{
	HPDamage:  "hp_damage",
	HPDrain:   "hp_drain",
	HPRecover: "hp_recover",
	MPDamage:  "mp_damage",
	MPDrain:   "mp_drain",
	MPRecover: "mp_recover",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// KindFromString parses an authored effect kind.
func KindFromString(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown effect kind %q", s)
}

// hostile reports whether the kind removes from its target.
func (k Kind) hostile() bool {
	return k == HPDamage || k == HPDrain || k == MPDamage || k == MPDrain
}

// drains reports whether the kind feeds the removed amount back to the user.
func (k Kind) drains() bool {
	return k == HPDrain || k == MPDrain
}

// SkillEffect is a stateless, reusable numeric effect. The formula is
// compiled once at load time; variance is clamped to [0,1] at construction.
type SkillEffect struct {
	kind     Kind
	expr     *formula.Expr
	element  string
	variance float64
	critical bool
}

// New builds an effect from an already-compiled formula.
func New(kind Kind, expr *formula.Expr, element string, variance float64, critical bool) *SkillEffect {
	if variance < 0 {
		variance = 0
	}
	if variance > 1 {
		variance = 1
	}
	return &SkillEffect{
		kind:     kind,
		expr:     expr,
		element:  element,
		variance: variance,
		critical: critical,
	}
}

// Compile builds an effect from its authored definition.
func Compile(def types.EffectDef) (*SkillEffect, error) {
	kind, err := KindFromString(def.Kind)
	if err != nil {
		return nil, err
	}
	expr, err := formula.Compile(def.Formula)
	if err != nil {
		return nil, err
	}
	return New(kind, expr, def.Element, def.Variance, def.Critical), nil
}

func (e *SkillEffect) Kind() Kind        { return e.kind }
func (e *SkillEffect) Element() string   { return e.element }
func (e *SkillEffect) Variance() float64 { return e.variance }

// Outcome describes one application for battle-log rendering.
type Outcome struct {
	Kind     Kind
	Element  string
	Amount   int  // change applied to the target's stat
	Drained  int  // change applied back to the user (drain kinds)
	Missed   bool // evaded; nothing applied
	Critical bool // critical roll succeeded
	NoEffect bool // target (or drain user) already knocked out
}

// Value evaluates the formula and applies variance: with base B and
// variance v the result is uniform in [floor(B*(1-v)), floor(B*(1+v))].
// A negative base inverts the bounds; they are swapped, not reversed as
// arguments, so the result stays uniform over the same interval.
func (e *SkillEffect) Value(user, target battler.Battler, rng *dice.RNG) (int, error) {
	base, err := e.expr.Eval(battler.FormulaSource(user), battler.FormulaSource(target))
	if err != nil {
		return 0, err
	}
	lo := int(math.Floor(base * (1 - e.variance)))
	hi := int(math.Floor(base * (1 + e.variance)))
	if lo > hi {
		lo, hi = hi, lo
	}
	return rng.Between(lo, hi), nil
}

// Apply runs the effect against the target's StatBlock (and the user's,
// for drains). Hostile effects are no-ops when the target — or for drains
// the user — is already knocked out, which prevents negative-HP pile-on.
func (e *SkillEffect) Apply(user, target battler.Battler, rng *dice.RNG) (Outcome, error) {
	return e.ApplyScaled(user, target, rng, 1)
}

// ApplyScaled is Apply with a multiplier on the rolled amount, floored.
// Guarding halves incoming damage through scale 0.5.
func (e *SkillEffect) ApplyScaled(user, target battler.Battler, rng *dice.RNG, scale float64) (Outcome, error) {
	out := Outcome{Kind: e.kind, Element: e.element}

	if e.kind.hostile() && target.IsKnockedOut() {
		out.NoEffect = true
		return out, nil
	}
	if e.kind.drains() && user.IsKnockedOut() {
		out.NoEffect = true
		return out, nil
	}

	// Plain HP damage can be evaded; drains and MP effects cannot.
	if e.kind == HPDamage {
		if eva := target.Stats().Evasion(); eva > 0 && rng.Float() < float64(eva)/100 {
			out.Missed = true
			return out, nil
		}
	}

	amount, err := e.Value(user, target, rng)
	if err != nil {
		return out, err
	}

	if e.critical {
		if grc := user.Stats().Grace(); grc > 0 && rng.Float() < float64(grc)/100 {
			amount *= 2
			out.Critical = true
		}
	}

	if scale != 1 {
		amount = int(math.Floor(float64(amount) * scale))
	}

	ts := target.Stats()
	us := user.Stats()

	switch e.kind {
	case HPDamage:
		before := ts.HP()
		ts.SetHP(before - amount)
		out.Amount = before - ts.HP()

	case HPDrain:
		before := ts.HP()
		ts.SetHP(before - amount)
		out.Amount = before - ts.HP()
		healed := us.HP()
		us.SetHP(healed + out.Amount)
		out.Drained = us.HP() - healed

	case HPRecover:
		before := ts.HP()
		ts.SetHP(before + amount)
		out.Amount = ts.HP() - before

	case MPDamage:
		before := ts.MP()
		ts.SetMP(before - amount)
		out.Amount = before - ts.MP()

	case MPDrain:
		before := ts.MP()
		ts.SetMP(before - amount)
		out.Amount = before - ts.MP()
		gained := us.MP()
		us.SetMP(gained + out.Amount)
		out.Drained = us.MP() - gained

	case MPRecover:
		before := ts.MP()
		ts.SetMP(before + amount)
		out.Amount = ts.MP() - before
	}

	return out, nil
}
