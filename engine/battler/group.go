package battler

import "fmt"

// MaxGold is the party balance cap. AddGold saturates into [0, MaxGold].
const MaxGold = 9999999

// Party is the ordered player roster plus shared gold and inventory.
type Party struct {
	members   []*Character
	gold      int
	inventory map[string]int // item ID → count
}

// NewParty assembles a party from characters in formation order.
func NewParty(members []*Character, gold int, inventory map[string]int) *Party {
	inv := map[string]int{}
	for id, n := range inventory {
		if n > 0 {
			inv[id] = n
		}
	}
	p := &Party{members: members, inventory: inv}
	p.AddGold(gold)
	return p
}

// Members returns the party roster in formation order.
func (p *Party) Members() []*Character {
	return p.members
}

// Battlers returns the roster as the Battler interface, for turn ordering.
func (p *Party) Battlers() []Battler {
	out := make([]Battler, len(p.members))
	for i, m := range p.members {
		out[i] = m
	}
	return out
}

// Member finds a party member by key.
func (p *Party) Member(key string) (*Character, bool) {
	for _, m := range p.members {
		if m.Key() == key {
			return m, true
		}
	}
	return nil, false
}

// IsDefeated reports whether every member is knocked out.
func (p *Party) IsDefeated() bool {
	for _, m := range p.members {
		if !m.IsKnockedOut() {
			return false
		}
	}
	return true
}

// AverageLevel returns the mean member level, 0 for an empty party.
func (p *Party) AverageLevel() int {
	if len(p.members) == 0 {
		return 0
	}
	sum := 0
	for _, m := range p.members {
		sum += m.Level()
	}
	return sum / len(p.members)
}

// Gold returns the current balance.
func (p *Party) Gold() int {
	return p.gold
}

// AddGold adjusts the balance, saturating into [0, MaxGold]. Negative
// amounts spend.
func (p *Party) AddGold(amount int) {
	p.gold = clamp(p.gold+amount, 0, MaxGold)
}

// Inventory returns the live item counts. Callers must not hold the map
// across mutations.
func (p *Party) Inventory() map[string]int {
	return p.inventory
}

// HasItem reports whether at least one of the item is held.
func (p *Party) HasItem(itemID string) bool {
	return p.inventory[itemID] > 0
}

// AddItem adds n of the item to the inventory.
func (p *Party) AddItem(itemID string, n int) {
	if n <= 0 {
		return
	}
	p.inventory[itemID] += n
}

// ConsumeItem removes one of the item, failing when none is held.
func (p *Party) ConsumeItem(itemID string) error {
	if p.inventory[itemID] <= 0 {
		return fmt.Errorf("no %s in inventory", itemID)
	}
	p.inventory[itemID]--
	if p.inventory[itemID] == 0 {
		delete(p.inventory, itemID)
	}
	return nil
}

// Troop is the ordered enemy roster for one encounter.
type Troop struct {
	enemies []*Enemy
}

// NewTroop assembles a troop in declaration order.
func NewTroop(enemies []*Enemy) *Troop {
	return &Troop{enemies: enemies}
}

// Enemies returns the roster in declaration order.
func (t *Troop) Enemies() []*Enemy {
	return t.enemies
}

// Battlers returns the roster as the Battler interface, for turn ordering.
func (t *Troop) Battlers() []Battler {
	out := make([]Battler, len(t.enemies))
	for i, e := range t.enemies {
		out[i] = e
	}
	return out
}

// Enemy finds a troop member by key.
func (t *Troop) Enemy(key string) (*Enemy, bool) {
	for _, e := range t.enemies {
		if e.Key() == key {
			return e, true
		}
	}
	return nil, false
}

// IsDefeated reports whether every enemy is knocked out.
func (t *Troop) IsDefeated() bool {
	for _, e := range t.enemies {
		if !e.IsKnockedOut() {
			return false
		}
	}
	return true
}

// Defeated returns the knocked-out enemies in declaration order.
func (t *Troop) Defeated() []*Enemy {
	var out []*Enemy
	for _, e := range t.enemies {
		if e.IsKnockedOut() {
			out = append(out, e)
		}
	}
	return out
}
