package battler

import (
	"testing"

	"github.com/nathoo/crestfall/types"
)

func heroDef() types.CharacterDef {
	return types.CharacterDef{
		ID:    "hero",
		Name:  "Hero",
		Level: 3,
		Stats: types.StatValues{
			MaxHP: 100, MaxMP: 20,
			Attack: 10, Defence: 6, MagicAttack: 4, MagicDefence: 5,
			Speed: 8, Grace: 3, Evasion: 2,
		},
		Growth: types.GrowthValues{
			MaxHP: 20, MaxMP: 4, Attack: 2, Defence: 1,
			MagicAttack: 1, MagicDefence: 1, Speed: 1,
		},
		Skills: []string{"fire"},
	}
}

func slimeDef() types.EnemyDef {
	return types.EnemyDef{
		ID: "slime", Name: "Slime", Level: 2,
		Stats:    types.StatValues{MaxHP: 30, Attack: 5, Defence: 2, Speed: 4},
		Statuses: []string{"undead"},
		Rewards:  types.RewardsDef{Experience: 25, Gold: 10},
	}
}

func TestExperienceThresholds(t *testing.T) {
	if ExperienceForLevel(1) != 0 {
		t.Errorf("level 1 threshold = %d, want 0", ExperienceForLevel(1))
	}
	for level := 2; level <= MaxLevel; level++ {
		if ExperienceForLevel(level) <= ExperienceForLevel(level-1) {
			t.Fatalf("threshold not strictly increasing at level %d", level)
		}
	}
}

func TestLevelForExperience_RoundTrip(t *testing.T) {
	for _, level := range []int{1, 2, 5, 10, 50, 99} {
		exp := ExperienceForLevel(level)
		if got := LevelForExperience(exp); got != level {
			t.Errorf("LevelForExperience(%d) = %d, want %d", exp, got, level)
		}
		// One point short of the next threshold stays at this level.
		if level < MaxLevel {
			if got := LevelForExperience(ExperienceForLevel(level+1) - 1); got != level {
				t.Errorf("one short of level %d: got %d, want %d", level+1, got, level)
			}
		}
	}
}

func TestCharacter_LevelDerivedFromExperience(t *testing.T) {
	c := NewCharacter(heroDef())
	if c.Level() != 3 {
		t.Fatalf("starting level = %d, want 3", c.Level())
	}
	// Growth applied for two level-ups above base.
	if c.Stats().MaxHP() != 140 {
		t.Errorf("MaxHP at level 3 = %d, want 140", c.Stats().MaxHP())
	}
	if c.Stats().Attack() != 14 {
		t.Errorf("Attack at level 3 = %d, want 14", c.Stats().Attack())
	}
}

func TestCharacter_GainExperience_LevelUp(t *testing.T) {
	c := NewCharacter(heroDef())
	need := ExperienceForLevel(4) - c.Experience()
	gained := c.GainExperience(need)
	if gained != 1 {
		t.Fatalf("levels gained = %d, want 1", gained)
	}
	if c.Level() != 4 {
		t.Fatalf("level = %d, want 4", c.Level())
	}
	// Current HP rises by the max-HP increase.
	if c.Stats().HP() != c.Stats().MaxHP() {
		t.Errorf("HP = %d, want full %d after level-up at full health",
			c.Stats().HP(), c.Stats().MaxHP())
	}
}

func TestCharacter_GainExperience_NoLevel(t *testing.T) {
	c := NewCharacter(heroDef())
	if gained := c.GainExperience(1); gained != 0 {
		t.Errorf("levels gained = %d, want 0", gained)
	}
	if gained := c.GainExperience(-100); gained != 0 {
		t.Errorf("negative experience should be ignored, gained %d levels", gained)
	}
}

func TestCharacter_KnockoutPredicate(t *testing.T) {
	c := NewCharacter(heroDef())
	if c.IsKnockedOut() {
		t.Fatal("fresh character should not be knocked out")
	}
	c.Stats().SetHP(0)
	if !c.IsKnockedOut() {
		t.Error("character at 0 HP should be knocked out")
	}
	c.Stats().SetHP(1)
	if c.IsKnockedOut() {
		t.Error("character at 1 HP should not be knocked out")
	}
}

func TestCharacter_Equip(t *testing.T) {
	c := NewCharacter(heroDef())
	sword := types.EquipmentDef{
		ID: "iron_sword", Name: "Iron Sword", Slot: "weapon",
		Bonus: types.StatValues{Attack: 5},
	}
	if !c.CanEquip(sword) {
		t.Fatal("character should be able to equip a weapon")
	}
	before := c.Stats().Attack()
	if err := c.Equip(sword); err != nil {
		t.Fatalf("equip: %v", err)
	}
	if c.Stats().Attack() != before+5 {
		t.Errorf("Attack = %d, want %d", c.Stats().Attack(), before+5)
	}

	// Replacing the slot swaps the bonus rather than stacking it.
	axe := types.EquipmentDef{
		ID: "axe", Name: "Axe", Slot: "weapon",
		Bonus: types.StatValues{Attack: 8},
	}
	if err := c.Equip(axe); err != nil {
		t.Fatalf("equip: %v", err)
	}
	if c.Stats().Attack() != before+8 {
		t.Errorf("Attack after swap = %d, want %d", c.Stats().Attack(), before+8)
	}

	bad := types.EquipmentDef{ID: "crown", Name: "Crown", Slot: "hat"}
	if c.CanEquip(bad) {
		t.Error("unknown slot should not be equippable")
	}
	if err := c.Equip(bad); err == nil {
		t.Error("equipping an unknown slot should fail")
	}
}

func TestEnemy_Capabilities(t *testing.T) {
	e := NewEnemy("slime_1", slimeDef())
	if e.CanUseItem() {
		t.Error("enemies cannot use items")
	}
	sword := types.EquipmentDef{ID: "iron_sword", Name: "Iron Sword", Slot: "weapon"}
	if e.CanEquip(sword) {
		t.Error("enemies cannot equip")
	}
	if err := e.Equip(sword); err == nil {
		t.Error("enemy Equip should fail")
	}
	if !e.HasStatus("undead") {
		t.Error("expected undead status")
	}
	if e.HasStatus("poison") {
		t.Error("unexpected poison status")
	}
}

func TestEnemy_KnockoutPredicate(t *testing.T) {
	e := NewEnemy("slime_1", slimeDef())
	if e.IsKnockedOut() {
		t.Fatal("fresh enemy should not be knocked out")
	}
	e.Stats().SetHP(0)
	if !e.IsKnockedOut() {
		t.Error("enemy at 0 HP should be knocked out")
	}
}

func TestFormulaSource_Level(t *testing.T) {
	c := NewCharacter(heroDef())
	src := FormulaSource(c)
	v, ok := src.StatValue("level")
	if !ok || v != 3 {
		t.Errorf("level = %v (ok=%v), want 3", v, ok)
	}
	v, ok = src.StatValue("atk")
	if !ok || v != float64(c.Stats().Attack()) {
		t.Errorf("atk = %v (ok=%v)", v, ok)
	}
	if _, ok := src.StatValue("luck"); ok {
		t.Error("unknown stat should not resolve")
	}
}

func TestHPFraction(t *testing.T) {
	e := NewEnemy("slime_1", slimeDef())
	e.Stats().SetHP(15)
	if f := HPFraction(e); f != 0.5 {
		t.Errorf("HPFraction = %v, want 0.5", f)
	}
}
