// Package pattern implements declarative enemy action selection: each
// enemy carries a list of (condition, skill, rating) patterns, and its
// turn draws from whichever patterns the current battle context unlocks.
package pattern

import (
	"fmt"

	"github.com/nathoo/crestfall/engine/dice"
	"github.com/nathoo/crestfall/types"
)

// Context is the battle state a condition is evaluated against.
type Context struct {
	HPFraction float64 // acting battler's current/max HP
	Turn       int     // elapsed round count, starting at 1
	PartyLevel int     // opposing party's average level
	HasStatus  func(tag string) bool
}

// Holds reports whether a single condition is satisfied by the context.
func Holds(c types.ConditionDef, ctx Context) bool {
	switch c.Kind {
	case "always", "":
		return true

	case "hp":
		return ctx.HPFraction >= c.HPMin && ctx.HPFraction <= c.HPMax

	case "turn":
		// Fires on turn a, then every b turns after (RPG-style a + n*b).
		if c.TurnB <= 0 {
			return ctx.Turn == c.TurnA
		}
		return ctx.Turn >= c.TurnA && (ctx.Turn-c.TurnA)%c.TurnB == 0

	case "party_level":
		return ctx.PartyLevel >= c.PartyLevel

	case "status":
		return ctx.HasStatus != nil && ctx.HasStatus(c.Status)

	default:
		return false
	}
}

// Select picks one pattern for the acting battler: every pattern whose
// condition currently holds joins a candidate set weighted by rating, and
// one is drawn at random. When nothing holds, the lowest-rating pattern
// is treated as always valid. Patterns whose skill is unusable right now
// (e.g. not enough MP) can be pre-filtered via usable; pass nil to allow
// all.
func Select(patterns []types.PatternDef, ctx Context, usable func(skillID string) bool, rng *dice.RNG) (types.PatternDef, error) {
	if len(patterns) == 0 {
		return types.PatternDef{}, fmt.Errorf("no action patterns configured")
	}

	var candidates []types.PatternDef
	for _, p := range patterns {
		if usable != nil && !usable(p.SkillID) {
			continue
		}
		if Holds(p.Condition, ctx) {
			candidates = append(candidates, p)
		}
	}

	if len(candidates) == 0 {
		return fallback(patterns, usable)
	}

	weights := make([]int, len(candidates))
	for i, p := range candidates {
		w := p.Rating
		if w < 1 {
			w = 1
		}
		weights[i] = w
	}
	return candidates[rng.WeightedSelect(weights)], nil
}

// fallback returns the lowest-rating pattern, preferring usable ones.
// Declaration order breaks rating ties.
func fallback(patterns []types.PatternDef, usable func(skillID string) bool) (types.PatternDef, error) {
	best := -1
	for i, p := range patterns {
		if usable != nil && !usable(p.SkillID) {
			continue
		}
		if best == -1 || p.Rating < patterns[best].Rating {
			best = i
		}
	}
	if best == -1 {
		return types.PatternDef{}, fmt.Errorf("no usable action pattern")
	}
	return patterns[best], nil
}
