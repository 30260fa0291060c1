// Package engine runs a battle from its opening screen to its outcome.
// A Battle is advanced by polling: the front end calls Advance on every
// tick, collects log lines, and answers prompts through Submit. The
// engine itself never blocks and never reads the clock.
package engine

import (
	"fmt"
	"sort"
	"time"

	"github.com/nathoo/crestfall/engine/battler"
	"github.com/nathoo/crestfall/engine/content"
	"github.com/nathoo/crestfall/engine/dice"
	"github.com/nathoo/crestfall/engine/effect"
	"github.com/nathoo/crestfall/engine/pattern"
	"github.com/nathoo/crestfall/engine/reward"
	"github.com/nathoo/crestfall/engine/turn"
)

// ScenePhase is the battle's outer state.
type ScenePhase int

const (
	SceneStart ScenePhase = iota // intro screen, time-boxed
	SceneRun                     // rounds in progress
	ScenePause                   // frozen; no turn state changes
	SceneWin                     // troop defeated, rewards pending
	SceneLose                    // party defeated
	SceneEnd                     // terminal
)

var sceneNames = map[ScenePhase]string{
	SceneStart: "start",
	SceneRun:   "run",
	ScenePause: "pause",
	SceneWin:   "win",
	SceneLose:  "lose",
	SceneEnd:   "end",
}

func (s ScenePhase) String() string {
	if name, ok := sceneNames[s]; ok {
		return name
	}
	return fmt.Sprintf("scene(%d)", int(s))
}

// turnPhase is the inner per-round state.
type turnPhase int

const (
	phaseInit    turnPhase = iota // rebuild turn order, clear transients
	phaseAction                   // collect one action per living battler
	phaseResolve                  // apply collected actions in order
)

// CommandKind labels a player battle command.
type CommandKind int

const (
	CommandAttack CommandKind = iota
	CommandSkill
	CommandItem
	CommandGuard
)

// Command is a player's answer to a prompt.
type Command struct {
	Kind      CommandKind
	SkillID   string
	ItemID    string
	TargetKey string
}

// Prompt is what the front end needs to build the command menu for the
// character whose turn is waiting.
type Prompt struct {
	Actor   *battler.Character
	Skills  []*content.Skill // known skills, MP affordability checked at Submit
	Items   []*content.Item  // items in inventory, sorted by ID
	Targets []battler.Battler
	Allies  []battler.Battler // includes knocked-out members, for revival items
}

// pendingAction is one collected action awaiting the resolve phase.
type pendingAction struct {
	user    battler.Battler
	target  battler.Battler
	skill   *content.Skill
	item    *content.Item
	hostile bool
	mpCost  int
	verb    string // "attacks", "casts Fire at", "uses Potion on"
	guard   bool
}

// Battle is one encounter. Not safe for concurrent use.
type Battle struct {
	defs  *content.Defs
	party *battler.Party
	troop *battler.Troop
	rng   *dice.RNG

	scene     ScenePhase
	phase     turnPhase
	startedAt time.Time
	round     int

	queue    *turn.Queue
	current  *turn.Turn
	pending  []pendingAction
	prompt   *Prompt
	guarding map[string]bool

	rewards *reward.Result
	outcome string
	out     []string
	aborted bool
	fatal   error
}

// New starts a battle in the Start scene. The same seed always produces
// the same battle given the same commands.
func New(defs *content.Defs, party *battler.Party, troop *battler.Troop, seed int64) *Battle {
	return &Battle{
		defs:  defs,
		party: party,
		troop: troop,
		rng:   dice.New(seed),
		scene: SceneStart,
	}
}

func (b *Battle) Scene() ScenePhase { return b.scene }

func (b *Battle) Round() int { return b.round }

func (b *Battle) Done() bool { return b.scene == SceneEnd }

func (b *Battle) Party() *battler.Party { return b.party }

func (b *Battle) Troop() *battler.Troop { return b.troop }

// Prompt returns the pending player prompt, or nil if no input is due.
func (b *Battle) Prompt() *Prompt { return b.prompt }

// Rewards returns the resolved payout after a win, nil before.
func (b *Battle) Rewards() *reward.Result { return b.rewards }

// Outcome is "victory", "defeat", or "fled" once decided, "" before.
func (b *Battle) Outcome() string { return b.outcome }

// TurnOrder lists the battlers still due to act this round, the waiting
// actor first.
func (b *Battle) TurnOrder() []turn.Turn {
	if b.queue == nil {
		return nil
	}
	rest := b.queue.Remaining()
	if b.current == nil {
		return rest
	}
	return append([]turn.Turn{*b.current}, rest...)
}

// RNGState exposes the generator's seed and draw position for hand-off.
func (b *Battle) RNGState() (seed int64, position int64) {
	return b.rng.Seed(), b.rng.Position()
}

// TogglePause freezes or resumes the battle. Ignored outside Run/Pause.
func (b *Battle) TogglePause() {
	switch b.scene {
	case SceneRun:
		b.scene = ScenePause
	case ScenePause:
		b.scene = SceneRun
	}
}

// Abort requests an early exit. The next Advance flees the battle
// unless the outcome is already decided.
func (b *Battle) Abort() {
	b.aborted = true
}

// Advance runs one tick. It returns the log lines produced by this tick;
// a non-nil error is fatal and ends the battle.
func (b *Battle) Advance(now time.Time) ([]string, error) {
	if b.fatal != nil {
		return nil, b.fatal
	}
	b.out = nil

	if b.aborted && b.scene != SceneWin && b.scene != SceneLose && b.scene != SceneEnd {
		b.logf("The party flees the battle.")
		b.outcome = "fled"
		b.scene = SceneEnd
		return b.drain(), nil
	}

	switch b.scene {
	case SceneStart:
		if b.startedAt.IsZero() {
			b.startedAt = now
			if b.defs.Game.Title != "" {
				b.logf("%s", b.defs.Game.Title)
			}
			if b.defs.Game.Intro != "" {
				b.logf("%s", b.defs.Game.Intro)
			}
			for _, e := range b.troop.Enemies() {
				b.logf("%s draws near!", e.Name())
			}
		}
		box := time.Duration(b.defs.Game.IntroSeconds * float64(time.Second))
		if now.Sub(b.startedAt) >= box {
			b.scene = SceneRun
			b.phase = phaseInit
		}

	case SceneRun:
		if err := b.runTurn(); err != nil {
			b.fatal = err
			b.scene = SceneEnd
			return b.drain(), err
		}

	case ScenePause:
		// Frozen. Turn state is untouched until resumed.

	case SceneWin:
		b.settleRewards()
		b.outcome = "victory"
		b.scene = SceneEnd

	case SceneLose:
		b.logf("The party has fallen...")
		b.outcome = "defeat"
		b.scene = SceneEnd

	case SceneEnd:
	}

	return b.drain(), nil
}

func (b *Battle) logf(format string, args ...any) {
	b.out = append(b.out, fmt.Sprintf(format, args...))
}

func (b *Battle) drain() []string {
	lines := b.out
	b.out = nil
	return lines
}

// runTurn drives the per-round machine. It returns with the battle
// either waiting on a prompt, or one round further along.
func (b *Battle) runTurn() error {
	for {
		switch b.phase {
		case phaseInit:
			b.round++
			b.guarding = map[string]bool{}
			b.pending = b.pending[:0]
			b.current = nil
			b.queue = turn.ComputeOrder(b.party.Battlers(), b.troop.Battlers())
			b.logf("-- Round %d --", b.round)
			b.phase = phaseAction

		case phaseAction:
			for {
				if b.current == nil {
					t, ok := b.queue.Next()
					if !ok {
						break
					}
					b.current = &t
				}
				actor := b.current.Battler
				if actor.IsKnockedOut() {
					b.current = nil
					continue
				}
				switch a := actor.(type) {
				case *battler.Enemy:
					if err := b.enemyAction(a); err != nil {
						return err
					}
					b.current = nil
				case *battler.Character:
					if b.prompt == nil {
						b.prompt = b.buildPrompt(a)
					}
					// Waiting; Submit queues the action and clears current.
					return nil
				default:
					return fmt.Errorf("unknown battler type %T", actor)
				}
			}
			b.phase = phaseResolve

		case phaseResolve:
			for _, a := range b.pending {
				if b.scene != SceneRun {
					break
				}
				if err := b.resolveAction(a); err != nil {
					return err
				}
				if b.troop.IsDefeated() {
					b.scene = SceneWin
				} else if b.party.IsDefeated() {
					b.scene = SceneLose
				}
			}
			b.pending = b.pending[:0]
			b.phase = phaseInit
			return nil
		}
	}
}

// buildPrompt assembles the menu data for a character's turn.
func (b *Battle) buildPrompt(c *battler.Character) *Prompt {
	p := &Prompt{Actor: c}
	for _, id := range c.Skills() {
		if s, ok := b.defs.Skills[id]; ok {
			p.Skills = append(p.Skills, s)
		}
	}
	var itemIDs []string
	for id, n := range b.party.Inventory() {
		if n > 0 {
			itemIDs = append(itemIDs, id)
		}
	}
	sort.Strings(itemIDs)
	for _, id := range itemIDs {
		if it, ok := b.defs.Items[id]; ok {
			p.Items = append(p.Items, it)
		}
	}
	for _, e := range b.troop.Enemies() {
		if !e.IsKnockedOut() {
			p.Targets = append(p.Targets, e)
		}
	}
	p.Allies = b.party.Battlers()
	return p
}

// Submit answers the pending prompt. The command is validated against
// the current battle state; a valid command is queued for the resolve
// phase and play continues on the next Advance.
func (b *Battle) Submit(cmd Command) error {
	if b.scene != SceneRun || b.prompt == nil {
		return fmt.Errorf("no command pending")
	}
	actor := b.prompt.Actor
	a := pendingAction{user: actor}

	switch cmd.Kind {
	case CommandGuard:
		a.guard = true

	case CommandAttack:
		skill, err := b.defs.AttackSkill()
		if err != nil {
			return err
		}
		t, err := b.enemyTarget(cmd.TargetKey)
		if err != nil {
			return err
		}
		a.target = t
		a.skill = skill
		a.hostile = true
		a.verb = "attacks"

	case CommandSkill:
		skill, ok := b.defs.Skills[cmd.SkillID]
		if !ok {
			return fmt.Errorf("unknown skill %q", cmd.SkillID)
		}
		if !knowsSkill(actor, cmd.SkillID) {
			return fmt.Errorf("%s does not know %s", actor.Name(), skill.Name)
		}
		if actor.Stats().MP() < skill.MPCost {
			return fmt.Errorf("not enough MP for %s", skill.Name)
		}
		t, err := b.scopedTarget(skill.Hostile(), cmd.TargetKey)
		if err != nil {
			return err
		}
		a.target = t
		a.skill = skill
		a.hostile = skill.Hostile()
		a.mpCost = skill.MPCost
		a.verb = fmt.Sprintf("casts %s at", skill.Name)
		if skill.Kind != "magic" {
			a.verb = fmt.Sprintf("uses %s on", skill.Name)
		}

	case CommandItem:
		if !actor.CanUseItem() {
			return fmt.Errorf("%s cannot use items", actor.Name())
		}
		item, ok := b.defs.Items[cmd.ItemID]
		if !ok {
			return fmt.Errorf("unknown item %q", cmd.ItemID)
		}
		if !b.party.HasItem(cmd.ItemID) {
			return fmt.Errorf("no %s in inventory", item.Name)
		}
		t, err := b.scopedTarget(item.Hostile(), cmd.TargetKey)
		if err != nil {
			return err
		}
		// Spent when declared, so two members cannot pledge the same
		// last item in one round.
		if err := b.party.ConsumeItem(cmd.ItemID); err != nil {
			return err
		}
		a.target = t
		a.item = item
		a.hostile = item.Hostile()
		a.verb = fmt.Sprintf("uses %s on", item.Name)

	default:
		return fmt.Errorf("unknown command kind %d", cmd.Kind)
	}

	b.pending = append(b.pending, a)
	b.prompt = nil
	b.current = nil
	return nil
}

func knowsSkill(c *battler.Character, id string) bool {
	for _, s := range c.Skills() {
		if s == id {
			return true
		}
	}
	return false
}

func (b *Battle) enemyTarget(key string) (battler.Battler, error) {
	e, ok := b.troop.Enemy(key)
	if !ok {
		return nil, fmt.Errorf("no such enemy %q", key)
	}
	if e.IsKnockedOut() {
		return nil, fmt.Errorf("%s is already defeated", e.Name())
	}
	return e, nil
}

func (b *Battle) scopedTarget(hostile bool, key string) (battler.Battler, error) {
	if hostile {
		return b.enemyTarget(key)
	}
	c, ok := b.party.Member(key)
	if !ok {
		return nil, fmt.Errorf("no such party member %q", key)
	}
	return c, nil
}

// enemyAction picks the enemy's skill from its patterns and queues it.
func (b *Battle) enemyAction(e *battler.Enemy) error {
	ctx := pattern.Context{
		HPFraction: battler.HPFraction(e),
		Turn:       b.round,
		PartyLevel: b.party.AverageLevel(),
		HasStatus:  e.HasStatus,
	}
	usable := func(id string) bool {
		s, ok := b.defs.Skills[id]
		return ok && s.MPCost <= e.Stats().MP()
	}
	p, err := pattern.Select(e.Patterns(), ctx, usable, b.rng)
	if err != nil {
		// Every pattern gated out this round. The enemy skips.
		b.logf("%s hesitates.", e.Name())
		return nil
	}
	skill := b.defs.Skills[p.SkillID]

	var pool []battler.Battler
	if skill.Hostile() {
		pool = living(b.party.Battlers())
	} else {
		pool = living(b.troop.Battlers())
	}
	if len(pool) == 0 {
		return nil
	}
	target := pool[b.rng.Between(0, len(pool)-1)]

	verb := fmt.Sprintf("uses %s on", skill.Name)
	if skill.Kind == "attack" {
		verb = "attacks"
	} else if skill.Kind == "magic" {
		verb = fmt.Sprintf("casts %s at", skill.Name)
	}

	b.pending = append(b.pending, pendingAction{
		user:    e,
		target:  target,
		skill:   skill,
		hostile: skill.Hostile(),
		mpCost:  skill.MPCost,
		verb:    verb,
	})
	return nil
}

func living(bs []battler.Battler) []battler.Battler {
	var out []battler.Battler
	for _, b := range bs {
		if !b.IsKnockedOut() {
			out = append(out, b)
		}
	}
	return out
}

// resolveAction applies one collected action. Actors struck down before
// acting lose their action; hostile actions against a fallen target are
// redirected to the first living battler on the same side.
func (b *Battle) resolveAction(a pendingAction) error {
	user := a.user
	if user.IsKnockedOut() {
		return nil
	}

	if a.guard {
		b.guarding[user.Key()] = true
		b.logf("%s guards.", user.Name())
		return nil
	}

	if a.mpCost > 0 {
		s := user.Stats()
		if s.MP() < a.mpCost {
			b.logf("%s has no MP left to act.", user.Name())
			return nil
		}
		s.SetMP(s.MP() - a.mpCost)
	}

	target := a.target
	if a.hostile && target.IsKnockedOut() {
		var pool []battler.Battler
		if _, isEnemy := user.(*battler.Enemy); isEnemy {
			pool = living(b.party.Battlers())
		} else {
			pool = living(b.troop.Battlers())
		}
		if len(pool) == 0 {
			return nil
		}
		target = pool[0]
	}

	var eff *effect.SkillEffect
	if a.item != nil {
		eff = a.item.Effect
	} else {
		eff = a.skill.Effect
	}

	scale := 1.0
	if a.hostile && b.guarding[target.Key()] {
		scale = 0.5
	}

	out, err := eff.ApplyScaled(user, target, b.rng, scale)
	if err != nil {
		return fmt.Errorf("%s acting on %s: %w", user.Name(), target.Name(), err)
	}

	head := fmt.Sprintf("%s %s %s", user.Name(), a.verb, target.Name())
	switch {
	case out.NoEffect:
		b.logf("%s, but nothing happens.", head)
	case out.Missed:
		b.logf("%s, but %s evades!", head, target.Name())
	default:
		b.logf("%s.", head)
		if out.Critical {
			b.logf("A critical hit!")
		}
		b.describeOutcome(user, target, out)
		if a.hostile && target.IsKnockedOut() {
			if _, isEnemy := target.(*battler.Enemy); isEnemy {
				b.logf("%s is defeated!", target.Name())
			} else {
				b.logf("%s falls!", target.Name())
			}
		}
	}
	return nil
}

func (b *Battle) describeOutcome(user, target battler.Battler, out effect.Outcome) {
	switch out.Kind {
	case effect.HPDamage:
		b.logf("%s takes %d damage.", target.Name(), out.Amount)
	case effect.HPDrain:
		b.logf("%s loses %d HP. %s absorbs %d.", target.Name(), out.Amount, user.Name(), out.Drained)
	case effect.HPRecover:
		b.logf("%s recovers %d HP.", target.Name(), out.Amount)
	case effect.MPDamage:
		b.logf("%s loses %d MP.", target.Name(), out.Amount)
	case effect.MPDrain:
		b.logf("%s loses %d MP. %s absorbs %d.", target.Name(), out.Amount, user.Name(), out.Drained)
	case effect.MPRecover:
		b.logf("%s recovers %d MP.", target.Name(), out.Amount)
	}
}

// settleRewards resolves the payout once, on the Win tick.
func (b *Battle) settleRewards() {
	if b.rewards != nil {
		return
	}
	res := reward.Resolve(b.troop, b.party, b.rng)
	b.rewards = &res

	b.logf("Victory!")
	b.logf("The party gains %d experience and %d gold.", res.Experience, res.Gold)
	for _, lu := range res.LevelUps {
		name := lu.Member
		if m, ok := b.party.Member(lu.Member); ok {
			name = m.Name()
		}
		b.logf("%s rises to level %d!", name, lu.To)
	}
	for _, id := range res.Loot {
		name := id
		if it, ok := b.defs.Items[id]; ok {
			name = it.Name
		}
		b.logf("Found %s!", name)
	}
}
