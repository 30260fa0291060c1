// Package reward resolves the experience, gold, and loot payout once a
// battle is won. It runs exactly once, on the Win transition.
package reward

import (
	"github.com/nathoo/crestfall/engine/battler"
	"github.com/nathoo/crestfall/engine/dice"
)

// LevelUp records one member's level change from awarded experience.
type LevelUp struct {
	Member string
	From   int
	To     int
}

// Result is the resolved payout, already applied to the party.
type Result struct {
	Experience int
	Gold       int
	Loot       []string // item IDs awarded, one entry per drop
	LevelUps   []LevelUp
}

// Resolve sums experience and gold across the defeated enemies, awards
// both to the party (gold saturates at the balance cap), rolls each
// enemy's drop table, and hands awarded items to the party inventory.
//
// Loot policy per enemy: walk the drop table in declaration order and
// award the first entry whose rate beats a uniform [0,1] draw. If no
// entry matches and the table is non-empty, award a uniformly random
// pick from the table — a configured table never yields nothing.
func Resolve(troop *battler.Troop, party *battler.Party, rng *dice.RNG) Result {
	var res Result

	defeated := troop.Defeated()
	for _, e := range defeated {
		r := e.Rewards()
		res.Experience += r.Experience
		res.Gold += r.Gold
	}

	party.AddGold(res.Gold)

	// Surviving members each receive the full experience sum.
	for _, m := range party.Members() {
		if m.IsKnockedOut() {
			continue
		}
		from := m.Level()
		if gained := m.GainExperience(res.Experience); gained > 0 {
			res.LevelUps = append(res.LevelUps, LevelUp{
				Member: m.Key(),
				From:   from,
				To:     m.Level(),
			})
		}
	}

	for _, e := range defeated {
		drops := e.Rewards().Drops
		if len(drops) == 0 {
			continue
		}
		awarded := ""
		for _, d := range drops {
			if rng.Float() <= d.Rate {
				awarded = d.ItemID
				break
			}
		}
		if awarded == "" {
			awarded = drops[rng.Between(0, len(drops)-1)].ItemID
		}
		party.AddItem(awarded, 1)
		res.Loot = append(res.Loot, awarded)
	}

	return res
}
