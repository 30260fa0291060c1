package effect

import (
	"math"
	"testing"

	"github.com/nathoo/crestfall/engine/battler"
	"github.com/nathoo/crestfall/engine/dice"
	"github.com/nathoo/crestfall/engine/formula"
	"github.com/nathoo/crestfall/types"
)

func attacker() *battler.Enemy {
	return battler.NewEnemy("attacker", types.EnemyDef{
		ID: "attacker", Name: "Attacker", Level: 5,
		Stats: types.StatValues{MaxHP: 100, MaxMP: 30, Attack: 20, MagicAttack: 10, Defence: 5},
	})
}

func defender() *battler.Enemy {
	return battler.NewEnemy("defender", types.EnemyDef{
		ID: "defender", Name: "Defender", Level: 5,
		Stats: types.StatValues{MaxHP: 100, MaxMP: 30, Defence: 4, MagicDefence: 2},
	})
}

func compile(t *testing.T, def types.EffectDef) *SkillEffect {
	t.Helper()
	e, err := Compile(def)
	if err != nil {
		t.Fatalf("compile effect: %v", err)
	}
	return e
}

func TestKindFromString(t *testing.T) {
	for _, name := range []string{
		"hp_damage", "hp_drain", "hp_recover",
		"mp_damage", "mp_drain", "mp_recover",
	} {
		k, err := KindFromString(name)
		if err != nil {
			t.Errorf("KindFromString(%q): %v", name, err)
		}
		if k.String() != name {
			t.Errorf("round trip %q → %q", name, k.String())
		}
	}
	if _, err := KindFromString("hp_explode"); err == nil {
		t.Error("unknown kind should fail")
	}
}

func TestValue_VarianceBounds(t *testing.T) {
	// base = 20*4 - 4*2 = 72, variance 0.2 → [floor(57.6), floor(86.4)] = [57, 86].
	e := compile(t, types.EffectDef{
		Kind: "hp_damage", Formula: "user.atk * 4 - target.def * 2", Variance: 0.2,
	})
	rng := dice.New(42)
	u, d := attacker(), defender()
	lo, hi := 57, 86
	for i := 0; i < 1000; i++ {
		v, err := e.Value(u, d, rng)
		if err != nil {
			t.Fatalf("value: %v", err)
		}
		if v < lo || v > hi {
			t.Fatalf("iteration %d: value %d outside [%d, %d]", i, v, lo, hi)
		}
	}
}

func TestValue_ZeroVariance(t *testing.T) {
	e := compile(t, types.EffectDef{Kind: "hp_damage", Formula: "50", Variance: 0})
	rng := dice.New(1)
	for i := 0; i < 20; i++ {
		v, err := e.Value(attacker(), defender(), rng)
		if err != nil {
			t.Fatalf("value: %v", err)
		}
		if v != 50 {
			t.Fatalf("value = %d, want exactly 50", v)
		}
	}
}

func TestValue_NegativeBaseSwapsBounds(t *testing.T) {
	// base = -10, variance 0.5 → raw bounds floor(-5) and floor(-15): swapped
	// to [-15, -5].
	e := compile(t, types.EffectDef{Kind: "hp_damage", Formula: "0 - 10", Variance: 0.5})
	rng := dice.New(9)
	for i := 0; i < 500; i++ {
		v, err := e.Value(attacker(), defender(), rng)
		if err != nil {
			t.Fatalf("value: %v", err)
		}
		if v < -15 || v > -5 {
			t.Fatalf("value %d outside [-15, -5]", v)
		}
	}
}

func TestVarianceClamped(t *testing.T) {
	expr, err := formula.Compile("10")
	if err != nil {
		t.Fatal(err)
	}
	e := New(HPDamage, expr, "", 3.5, false)
	if e.Variance() != 1 {
		t.Errorf("variance = %v, want clamped 1", e.Variance())
	}
	e = New(HPDamage, expr, "", -0.5, false)
	if e.Variance() != 0 {
		t.Errorf("variance = %v, want clamped 0", e.Variance())
	}
}

func TestApply_HPDamage(t *testing.T) {
	e := compile(t, types.EffectDef{Kind: "hp_damage", Formula: "30", Variance: 0})
	rng := dice.New(5)
	u, d := attacker(), defender()
	out, err := e.Apply(u, d, rng)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if out.Amount != 30 {
		t.Errorf("amount = %d, want 30", out.Amount)
	}
	if d.Stats().HP() != 70 {
		t.Errorf("target HP = %d, want 70", d.Stats().HP())
	}
}

func TestApply_OverkillClampsToZero(t *testing.T) {
	e := compile(t, types.EffectDef{Kind: "hp_damage", Formula: "9000", Variance: 0})
	rng := dice.New(5)
	d := defender()
	out, err := e.Apply(attacker(), d, rng)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if d.Stats().HP() != 0 {
		t.Errorf("target HP = %d, want 0", d.Stats().HP())
	}
	// Reported amount is what was actually lost.
	if out.Amount != 100 {
		t.Errorf("amount = %d, want 100", out.Amount)
	}
}

func TestApply_NoOpOnKnockedOutTarget(t *testing.T) {
	for _, kind := range []string{"hp_damage", "hp_drain", "mp_damage", "mp_drain"} {
		e := compile(t, types.EffectDef{Kind: kind, Formula: "30", Variance: 0.2})
		rng := dice.New(5)
		u, d := attacker(), defender()
		d.Stats().SetHP(0)
		d.Stats().SetMP(10)
		before := d.Stats().Snapshot()

		out, err := e.Apply(u, d, rng)
		if err != nil {
			t.Fatalf("%s apply: %v", kind, err)
		}
		if !out.NoEffect {
			t.Errorf("%s: expected NoEffect against knocked-out target", kind)
		}
		if d.Stats().Snapshot() != before {
			t.Errorf("%s: knocked-out target's stats changed", kind)
		}
	}
}

func TestApply_DrainNoOpWhenUserKnockedOut(t *testing.T) {
	e := compile(t, types.EffectDef{Kind: "hp_drain", Formula: "30", Variance: 0})
	rng := dice.New(5)
	u, d := attacker(), defender()
	u.Stats().SetHP(0)
	before := d.Stats().HP()

	out, err := e.Apply(u, d, rng)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !out.NoEffect {
		t.Error("expected NoEffect when the draining user is knocked out")
	}
	if d.Stats().HP() != before {
		t.Error("target HP changed by a no-op drain")
	}
}

func TestApply_HPDrain(t *testing.T) {
	e := compile(t, types.EffectDef{Kind: "hp_drain", Formula: "40", Variance: 0})
	rng := dice.New(5)
	u, d := attacker(), defender()
	u.Stats().SetHP(50)
	out, err := e.Apply(u, d, rng)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if out.Amount != 40 || out.Drained != 40 {
		t.Errorf("amount = %d, drained = %d, want 40/40", out.Amount, out.Drained)
	}
	if u.Stats().HP() != 90 {
		t.Errorf("user HP = %d, want 90", u.Stats().HP())
	}
	if d.Stats().HP() != 60 {
		t.Errorf("target HP = %d, want 60", d.Stats().HP())
	}
}

func TestApply_DrainCappedByTargetLoss(t *testing.T) {
	// Target has only 10 HP left; drain the actual loss, not the formula value.
	e := compile(t, types.EffectDef{Kind: "hp_drain", Formula: "40", Variance: 0})
	rng := dice.New(5)
	u, d := attacker(), defender()
	u.Stats().SetHP(50)
	d.Stats().SetHP(10)
	out, err := e.Apply(u, d, rng)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if out.Amount != 10 || out.Drained != 10 {
		t.Errorf("amount = %d, drained = %d, want 10/10", out.Amount, out.Drained)
	}
	if u.Stats().HP() != 60 {
		t.Errorf("user HP = %d, want 60", u.Stats().HP())
	}
}

func TestApply_HPRecover(t *testing.T) {
	e := compile(t, types.EffectDef{Kind: "hp_recover", Formula: "25", Variance: 0})
	rng := dice.New(5)
	u, d := attacker(), defender()
	d.Stats().SetHP(60)
	out, err := e.Apply(u, d, rng)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if out.Amount != 25 || d.Stats().HP() != 85 {
		t.Errorf("amount = %d, HP = %d, want 25/85", out.Amount, d.Stats().HP())
	}

	// Recovery saturates at max HP.
	out, err = e.Apply(u, d, rng)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if d.Stats().HP() != 100 {
		t.Errorf("HP = %d, want 100", d.Stats().HP())
	}
	if out.Amount != 15 {
		t.Errorf("amount = %d, want 15", out.Amount)
	}
}

func TestApply_MPDamageAndRecover(t *testing.T) {
	dmg := compile(t, types.EffectDef{Kind: "mp_damage", Formula: "12", Variance: 0})
	rec := compile(t, types.EffectDef{Kind: "mp_recover", Formula: "5", Variance: 0})
	rng := dice.New(5)
	u, d := attacker(), defender()

	if _, err := dmg.Apply(u, d, rng); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if d.Stats().MP() != 18 {
		t.Errorf("MP = %d, want 18", d.Stats().MP())
	}
	if _, err := rec.Apply(u, d, rng); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if d.Stats().MP() != 23 {
		t.Errorf("MP = %d, want 23", d.Stats().MP())
	}
}

func TestApply_EvasionMiss(t *testing.T) {
	e := compile(t, types.EffectDef{Kind: "hp_damage", Formula: "30", Variance: 0})
	u := attacker()
	d := battler.NewEnemy("dodger", types.EnemyDef{
		ID: "dodger", Name: "Dodger",
		Stats: types.StatValues{MaxHP: 100, Evasion: 99},
	})
	rng := dice.New(42)
	misses := 0
	for i := 0; i < 200; i++ {
		d.Stats().SetHP(100)
		out, err := e.Apply(u, d, rng)
		if err != nil {
			t.Fatalf("apply: %v", err)
		}
		if out.Missed {
			misses++
			if d.Stats().HP() != 100 {
				t.Fatal("missed attack must not change HP")
			}
		}
	}
	if misses < 150 {
		t.Errorf("99 evasion missed only %d/200 times", misses)
	}
}

func TestApply_CriticalDoubles(t *testing.T) {
	e := compile(t, types.EffectDef{Kind: "hp_damage", Formula: "10", Variance: 0, Critical: true})
	u := battler.NewEnemy("crit", types.EnemyDef{
		ID: "crit", Name: "Crit",
		Stats: types.StatValues{MaxHP: 100, Grace: 99},
	})
	d := defender()
	rng := dice.New(42)
	crits := 0
	for i := 0; i < 200; i++ {
		d.Stats().SetHP(100)
		out, err := e.Apply(u, d, rng)
		if err != nil {
			t.Fatalf("apply: %v", err)
		}
		if out.Critical {
			crits++
			if out.Amount != 20 {
				t.Fatalf("critical amount = %d, want 20", out.Amount)
			}
		} else if out.Amount != 10 {
			t.Fatalf("normal amount = %d, want 10", out.Amount)
		}
	}
	if crits < 150 {
		t.Errorf("99 grace crit only %d/200 times", crits)
	}
}

func TestApply_MalformedFormulaAtEval(t *testing.T) {
	// Compiles fine, fails at eval: division by a stat that is zero.
	e := compile(t, types.EffectDef{Kind: "hp_damage", Formula: "100 / target.mat"})
	d := battler.NewEnemy("zero", types.EnemyDef{
		ID: "zero", Name: "Zero", Stats: types.StatValues{MaxHP: 50},
	})
	if _, err := e.Apply(attacker(), d, dice.New(1)); err == nil {
		t.Error("expected eval error for division by zero")
	}
}

func TestCompile_BadDefinitions(t *testing.T) {
	if _, err := Compile(types.EffectDef{Kind: "bogus", Formula: "1"}); err == nil {
		t.Error("bad kind should fail")
	}
	if _, err := Compile(types.EffectDef{Kind: "hp_damage", Formula: "1 +"}); err == nil {
		t.Error("bad formula should fail")
	}
}

func TestValue_DistributionWithinFloorBounds(t *testing.T) {
	// Property check straight from the variance contract.
	base, v := 72.0, 0.35
	e := compile(t, types.EffectDef{Kind: "hp_damage", Formula: "72", Variance: v})
	lo := int(math.Floor(base * (1 - v)))
	hi := int(math.Floor(base * (1 + v)))
	rng := dice.New(777)
	for i := 0; i < 1000; i++ {
		got, err := e.Value(attacker(), defender(), rng)
		if err != nil {
			t.Fatalf("value: %v", err)
		}
		if got < lo || got > hi {
			t.Fatalf("value %d outside [%d, %d]", got, lo, hi)
		}
	}
}
