package formula

import (
	"math"
	"testing"
)

// statMap is a test Source backed by a map.
type statMap map[string]float64

func (m statMap) StatValue(name string) (float64, bool) {
	v, ok := m[name]
	return v, ok
}

func testUser() statMap {
	return statMap{
		"hp": 120, "maxhp": 150, "mp": 30, "maxmp": 40,
		"atk": 12, "def": 8, "mat": 15, "mdf": 6,
		"spd": 10, "grc": 5, "eva": 3, "level": 7,
	}
}

func testTarget() statMap {
	return statMap{
		"hp": 80, "maxhp": 100, "mp": 10, "maxmp": 20,
		"atk": 9, "def": 4, "mat": 2, "mdf": 3,
		"spd": 6, "grc": 1, "eva": 2, "level": 5,
	}
}

func mustEval(t *testing.T, src string) float64 {
	t.Helper()
	expr, err := Compile(src)
	if err != nil {
		t.Fatalf("compile %q: %v", src, err)
	}
	v, err := expr.Eval(testUser(), testTarget())
	if err != nil {
		t.Fatalf("eval %q: %v", src, err)
	}
	return v
}

func TestEval_Arithmetic(t *testing.T) {
	tests := []struct {
		src  string
		want float64
	}{
		{"1 + 2", 3},
		{"10 - 4", 6},
		{"3 * 4", 12},
		{"10 / 4", 2.5},
		{"10 % 3", 1},
		{"2 + 3 * 4", 14},
		{"(2 + 3) * 4", 20},
		{"-5 + 3", -2},
		{"--4", 4},
		{"2.5 * 2", 5},
	}
	for _, tt := range tests {
		if got := mustEval(t, tt.src); got != tt.want {
			t.Errorf("%q = %v, want %v", tt.src, got, tt.want)
		}
	}
}

func TestEval_StatAccessors(t *testing.T) {
	tests := []struct {
		src  string
		want float64
	}{
		{"user.atk", 12},
		{"target.def", 4},
		{"user.atk * 4 - target.def * 2", 40},
		{"user.mat * 2 - target.mdf", 27},
		{"user.maxhp - user.hp", 30},
		{"user.level + target.level", 12},
	}
	for _, tt := range tests {
		if got := mustEval(t, tt.src); got != tt.want {
			t.Errorf("%q = %v, want %v", tt.src, got, tt.want)
		}
	}
}

func TestEval_Comparisons(t *testing.T) {
	tests := []struct {
		src  string
		want float64
	}{
		{"user.atk > target.atk", 1},
		{"user.atk < target.atk", 0},
		{"user.hp >= 120", 1},
		{"user.hp <= 100", 0},
		{"user.level == 7", 1},
		{"user.level != 7", 0},
		// Comparison as a multiplier: bonus damage when user outspeeds.
		{"10 + 5 * (user.spd > target.spd)", 15},
	}
	for _, tt := range tests {
		if got := mustEval(t, tt.src); got != tt.want {
			t.Errorf("%q = %v, want %v", tt.src, got, tt.want)
		}
	}
}

func TestEval_Builtins(t *testing.T) {
	tests := []struct {
		src  string
		want float64
	}{
		{"min(3, 7)", 3},
		{"max(3, 7)", 7},
		{"floor(7.9)", 7},
		{"max(1, user.atk - target.def)", 8},
		{"floor(user.hp / 7)", 17},
	}
	for _, tt := range tests {
		if got := mustEval(t, tt.src); got != tt.want {
			t.Errorf("%q = %v, want %v", tt.src, got, tt.want)
		}
	}
}

func TestCompile_Errors(t *testing.T) {
	bad := []string{
		"",
		"user.",
		"user.unknown",
		"self.atk",
		"1 +",
		"(1 + 2",
		"1 ** 2",
		"foo(1)",
		"user.atk = 5",
		"1 ! 2",
		"os", // bare identifier — no general code access
	}
	for _, src := range bad {
		if _, err := Compile(src); err == nil {
			t.Errorf("Compile(%q) should fail", src)
		}
	}
}

func TestEval_DivisionByZero(t *testing.T) {
	expr, err := Compile("user.atk / (user.level - 7)")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if _, err := expr.Eval(testUser(), testTarget()); err == nil {
		t.Error("expected division-by-zero error")
	}
}

func TestEval_MissingStat(t *testing.T) {
	expr, err := Compile("user.atk")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if _, err := expr.Eval(statMap{}, testTarget()); err == nil {
		t.Error("expected missing-stat error")
	}
}

func TestEval_NegativeResult(t *testing.T) {
	// Weak attacker against strong defence goes negative; the evaluator
	// reports the raw value and leaves clamping to the caller.
	if got := mustEval(t, "target.mat * 4 - user.mdf * 2"); got != -4 {
		t.Errorf("got %v, want -4", got)
	}
}

func TestExpr_String(t *testing.T) {
	src := "user.atk * 4 - target.def * 2"
	expr, err := Compile(src)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if expr.String() != src {
		t.Errorf("String() = %q, want %q", expr.String(), src)
	}
}

func TestEval_Deterministic(t *testing.T) {
	expr, err := Compile("floor(user.atk * 1.5) + max(0, user.spd - target.spd)")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	first, err := expr.Eval(testUser(), testTarget())
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	for i := 0; i < 50; i++ {
		v, err := expr.Eval(testUser(), testTarget())
		if err != nil {
			t.Fatalf("eval: %v", err)
		}
		if v != first {
			t.Fatalf("iteration %d: %v != %v", i, v, first)
		}
	}
	if math.IsNaN(first) {
		t.Error("unexpected NaN")
	}
}
