package loader

import (
	"fmt"
	"os"
	"strings"

	"github.com/nathoo/crestfall/engine/content"
	"github.com/nathoo/crestfall/types"
)

// ValidationError collects all validation errors and warnings.
type ValidationError struct {
	Errors   []string
	Warnings []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed with %d error(s):\n  %s",
		len(e.Errors), strings.Join(e.Errors, "\n  "))
}

var validScopes = map[string]bool{
	"enemy": true,
	"ally":  true,
}

var validSkillKinds = map[string]bool{
	"attack": true,
	"magic":  true,
	"summon": true,
}

var validSlots = map[string]bool{
	"weapon": true,
	"armor":  true,
}

var validConditionKinds = map[string]bool{
	"always":      true,
	"hp":          true,
	"turn":        true,
	"party_level": true,
	"status":      true,
}

// validate checks the compiled defs for referential integrity and
// consistency. All problems are reported at once.
func validate(defs *content.Defs) error {
	ve := &ValidationError{}

	if defs.Game.Title == "" {
		ve.Errors = append(ve.Errors, "Game.title is required")
	}

	// Default troop exists.
	if defs.Game.Troop == "" {
		ve.Errors = append(ve.Errors, "Game.troop is required")
	} else if _, ok := defs.Troops[defs.Game.Troop]; !ok {
		ve.Errors = append(ve.Errors, fmt.Sprintf(
			"game troop %q not found in defined troops", defs.Game.Troop))
	}

	// The basic Attack command needs a skill behind it.
	if s, err := defs.AttackSkill(); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	} else if !s.Hostile() {
		ve.Errors = append(ve.Errors, fmt.Sprintf(
			"attack skill %q must target enemies", s.ID))
	}

	for id, s := range defs.Skills {
		if !validScopes[s.Scope] {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"skill %q has unknown scope %q", id, s.Scope))
		}
		if !validSkillKinds[s.Kind] {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"skill %q has unknown kind %q", id, s.Kind))
		}
		if s.MPCost < 0 {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"skill %q has negative MP cost", id))
		}
	}

	for id, it := range defs.Items {
		if !validScopes[it.Scope] {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"item %q has unknown scope %q", id, it.Scope))
		}
	}

	for id, eq := range defs.Equipment {
		if !validSlots[eq.Slot] {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"equipment %q has unknown slot %q", id, eq.Slot))
		}
	}

	for id, e := range defs.Enemies {
		if len(e.Patterns) == 0 {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"enemy %q has no action patterns", id))
		}
		for _, p := range e.Patterns {
			if _, ok := defs.Skills[p.SkillID]; !ok {
				ve.Errors = append(ve.Errors, fmt.Sprintf(
					"enemy %q pattern references undefined skill %q", id, p.SkillID))
			}
			validateCondition(id, p.Condition, ve)
		}
		for _, d := range e.Rewards.Drops {
			if _, ok := defs.Items[d.ItemID]; !ok {
				ve.Errors = append(ve.Errors, fmt.Sprintf(
					"enemy %q drop references undefined item %q", id, d.ItemID))
			}
			if d.Rate < 0 || d.Rate > 1 {
				ve.Warnings = append(ve.Warnings, fmt.Sprintf(
					"enemy %q drop rate %v outside [0,1]", id, d.Rate))
			}
		}
		if e.Rewards.Experience < 0 || e.Rewards.Gold < 0 {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"enemy %q has negative rewards", id))
		}
	}

	for id, c := range defs.Characters {
		for _, sid := range c.Skills {
			if _, ok := defs.Skills[sid]; !ok {
				ve.Errors = append(ve.Errors, fmt.Sprintf(
					"character %q knows undefined skill %q", id, sid))
			}
		}
		for _, eid := range c.Equipment {
			if _, ok := defs.Equipment[eid]; !ok {
				ve.Errors = append(ve.Errors, fmt.Sprintf(
					"character %q equips undefined equipment %q", id, eid))
			}
		}
	}

	for id, tr := range defs.Troops {
		if len(tr.Enemies) == 0 {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"troop %q has no enemies", id))
		}
		for _, eid := range tr.Enemies {
			if _, ok := defs.Enemies[eid]; !ok {
				ve.Errors = append(ve.Errors, fmt.Sprintf(
					"troop %q references undefined enemy %q", id, eid))
			}
		}
	}

	if len(defs.Party.Members) == 0 {
		ve.Errors = append(ve.Errors, "party has no members")
	}
	for _, cid := range defs.Party.Members {
		if _, ok := defs.Characters[cid]; !ok {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"party member %q is not a defined character", cid))
		}
	}
	for iid := range defs.Party.Inventory {
		if _, ok := defs.Items[iid]; !ok {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"party inventory references undefined item %q", iid))
		}
	}

	// Print warnings to stderr.
	for _, w := range ve.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func validateCondition(enemyID string, c types.ConditionDef, ve *ValidationError) {
	if !validConditionKinds[c.Kind] {
		ve.Errors = append(ve.Errors, fmt.Sprintf(
			"enemy %q pattern has unknown condition kind %q", enemyID, c.Kind))
		return
	}
	switch c.Kind {
	case "hp":
		if c.HPMin < 0 || c.HPMax > 1 || c.HPMin > c.HPMax {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"enemy %q hp condition bounds [%v, %v] invalid", enemyID, c.HPMin, c.HPMax))
		}
	case "turn":
		if c.TurnA < 0 || c.TurnB < 0 {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"enemy %q turn condition (%d, %d) invalid", enemyID, c.TurnA, c.TurnB))
		}
	case "status":
		if c.Status == "" {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"enemy %q status condition missing tag", enemyID))
		}
	}
}
