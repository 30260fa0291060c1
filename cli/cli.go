// Package cli provides terminal I/O, output formatting, and meta-command
// dispatch for running battles without the TUI.
package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nathoo/crestfall/engine"
	"github.com/nathoo/crestfall/engine/battler"
	"github.com/nathoo/crestfall/engine/content"
	"github.com/nathoo/crestfall/engine/save"
)

// CLI handles terminal interaction with the player.
type CLI struct {
	Battle    *engine.Battle
	Defs      *content.Defs
	In        io.Reader
	Out       io.Writer
	SaveDir   string
	Trace     bool
	EchoInput bool             // echo each input line after the prompt (for script playback)
	Now       func() time.Time // injectable clock
}

// New creates a CLI wired to the given battle.
func New(b *engine.Battle, defs *content.Defs) *CLI {
	home, _ := os.UserHomeDir()
	saveDir := filepath.Join(home, ".crestfall", "saves")
	return &CLI{
		Battle:  b,
		Defs:    defs,
		In:      os.Stdin,
		Out:     os.Stdout,
		SaveDir: saveDir,
		Now:     time.Now,
	}
}

// Run plays the battle to its end: advance → print → prompt → submit.
// The intro timebox is skipped; plain mode has no title screen to hold.
func (c *CLI) Run() error {
	lines, err := c.Battle.Advance(c.Now())
	c.printLines(lines)
	if err != nil {
		return err
	}
	if c.Battle.Scene() == engine.SceneStart {
		intro := time.Duration(c.Defs.Game.IntroSeconds * float64(time.Second))
		lines, err = c.Battle.Advance(c.Now().Add(intro))
		c.printLines(lines)
		if err != nil {
			return err
		}
	}

	scanner := bufio.NewScanner(c.In)
	for !c.Battle.Done() {
		lines, err := c.Battle.Advance(c.Now())
		c.printLines(lines)
		if err != nil {
			return err
		}
		if c.Trace && len(lines) > 0 {
			c.printTrace()
		}

		p := c.Battle.Prompt()
		if p == nil {
			continue
		}
		c.showPrompt(p)

		if !c.readCommand(scanner, p) {
			// Input exhausted; flee so the battle still settles.
			c.Battle.Abort()
		}
	}
	return nil
}

// readCommand loops until a command is accepted. Returns false when the
// input runs out.
func (c *CLI) readCommand(scanner *bufio.Scanner, p *engine.Prompt) bool {
	for {
		c.print("> ")
		if !scanner.Scan() {
			return false
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		// Skip comment lines (for script files).
		if strings.HasPrefix(input, "#") {
			continue
		}
		if c.EchoInput {
			c.printLine(input)
		}

		// Meta-commands start with '/'.
		if strings.HasPrefix(input, "/") {
			if c.handleMeta(input) {
				c.Battle.Abort()
				return true
			}
			continue
		}

		cmd, err := c.parseCommand(input, p)
		if err != nil {
			c.printSystem(err.Error())
			continue
		}
		if err := c.Battle.Submit(cmd); err != nil {
			c.printSystem(err.Error())
			continue
		}
		return true
	}
}

// parseCommand turns a line like "skill fire slime_1" into a Command.
// A missing target defaults to the first legal one.
func (c *CLI) parseCommand(input string, p *engine.Prompt) (engine.Command, error) {
	fields := strings.Fields(strings.ToLower(input))
	verb := fields[0]

	switch verb {
	case "attack", "a":
		target, err := pickTarget(fields, 1, p.Targets)
		if err != nil {
			return engine.Command{}, err
		}
		return engine.Command{Kind: engine.CommandAttack, TargetKey: target}, nil

	case "skill", "s":
		if len(fields) < 2 {
			return engine.Command{}, fmt.Errorf("usage: skill <name> [target]")
		}
		id := fields[1]
		pool := p.Targets
		if s, ok := c.Defs.Skills[id]; ok && !s.Hostile() {
			pool = p.Allies
		}
		target, err := pickTarget(fields, 2, pool)
		if err != nil {
			return engine.Command{}, err
		}
		return engine.Command{Kind: engine.CommandSkill, SkillID: id, TargetKey: target}, nil

	case "item", "i":
		if len(fields) < 2 {
			return engine.Command{}, fmt.Errorf("usage: item <name> [target]")
		}
		id := fields[1]
		pool := p.Allies
		if it, ok := c.Defs.Items[id]; ok && it.Hostile() {
			pool = p.Targets
		}
		target, err := pickTarget(fields, 2, pool)
		if err != nil {
			return engine.Command{}, err
		}
		return engine.Command{Kind: engine.CommandItem, ItemID: id, TargetKey: target}, nil

	case "guard", "g":
		return engine.Command{Kind: engine.CommandGuard}, nil

	default:
		return engine.Command{}, fmt.Errorf("unknown command %q; try attack, skill, item, guard, or /help", verb)
	}
}

// pickTarget resolves fields[idx] as a target key, defaulting to the
// first battler in the pool.
func pickTarget(fields []string, idx int, pool []battler.Battler) (string, error) {
	if len(fields) > idx {
		return fields[idx], nil
	}
	for _, b := range pool {
		if !b.IsKnockedOut() {
			return b.Key(), nil
		}
	}
	return "", fmt.Errorf("no valid target")
}

// handleMeta dispatches meta-commands. Returns true if the battle
// should be abandoned.
func (c *CLI) handleMeta(input string) bool {
	parts := strings.Fields(input)
	cmd := parts[0]
	var arg string
	if len(parts) > 1 {
		arg = parts[1]
	}

	switch cmd {
	case "/quit", "/exit":
		c.printSystem("Goodbye.")
		return true

	case "/save":
		c.cmdSave(arg)

	case "/help":
		c.cmdHelp()

	case "/status":
		c.cmdStatus()

	case "/trace":
		c.Trace = !c.Trace
		if c.Trace {
			c.printSystem("Trace output enabled.")
		} else {
			c.printSystem("Trace output disabled.")
		}

	default:
		c.printSystem(fmt.Sprintf("Unknown command: %s. Type /help for available commands.", cmd))
	}

	return false
}

func (c *CLI) cmdSave(name string) {
	if name == "" {
		name = "quicksave"
	}

	data, err := save.Save(c.Battle, c.Defs)
	if err != nil {
		c.printSystem(fmt.Sprintf("Save failed: %v", err))
		return
	}

	if err := os.MkdirAll(c.SaveDir, 0o755); err != nil {
		c.printSystem(fmt.Sprintf("Save failed: %v", err))
		return
	}

	path := filepath.Join(c.SaveDir, name+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		c.printSystem(fmt.Sprintf("Save failed: %v", err))
		return
	}

	c.printSystem(fmt.Sprintf("Battle saved to %s.", name))
}

func (c *CLI) cmdHelp() {
	help := []string{
		"System:",
		"  /save [name]  — Save battle state (default: quicksave)",
		"  /quit         — Abandon the battle",
		"  /help         — Show this help",
		"  /status       — Show everyone's HP and MP",
		"  /trace        — Toggle trace output",
		"",
		"Battle commands:",
		"  attack [target] (a)       — Basic attack",
		"  skill <name> [target] (s) — Use a skill",
		"  item <name> [target] (i)  — Use an item",
		"  guard (g)                 — Halve damage this round",
	}
	for _, line := range help {
		c.printLine(line)
	}
}

func (c *CLI) cmdStatus() {
	for _, m := range c.Battle.Party().Members() {
		s := m.Stats()
		c.printSystem(fmt.Sprintf("%s  Lv%d  HP %d/%d  MP %d/%d",
			m.Name(), m.Level(), s.HP(), s.MaxHP(), s.MP(), s.MaxMP()))
	}
	for _, e := range c.Battle.Troop().Enemies() {
		s := e.Stats()
		state := fmt.Sprintf("HP %d/%d", s.HP(), s.MaxHP())
		if e.IsKnockedOut() {
			state = "defeated"
		}
		c.printSystem(fmt.Sprintf("%s (%s)  %s", e.Name(), e.Key(), state))
	}
}

func (c *CLI) printTrace() {
	seed, pos := c.Battle.RNGState()
	c.printSystem(fmt.Sprintf("[trace] scene=%s round=%d rng=%d:%d",
		c.Battle.Scene(), c.Battle.Round(), seed, pos))
	if order := c.Battle.TurnOrder(); len(order) > 0 {
		var keys []string
		for _, t := range order {
			keys = append(keys, t.Battler.Key())
		}
		c.printSystem("[trace] due: " + strings.Join(keys, ", "))
	}
}

// showPrompt prints whose turn it is and what they can do.
func (c *CLI) showPrompt(p *engine.Prompt) {
	s := p.Actor.Stats()
	c.printLine(fmt.Sprintf("%s's turn  (HP %d/%d  MP %d/%d)",
		p.Actor.Name(), s.HP(), s.MaxHP(), s.MP(), s.MaxMP()))

	if len(p.Skills) > 0 {
		var names []string
		for _, sk := range p.Skills {
			names = append(names, fmt.Sprintf("%s (%d MP)", sk.ID, sk.MPCost))
		}
		c.printLine("  skills: " + strings.Join(names, ", "))
	}
	if len(p.Items) > 0 {
		var names []string
		for _, it := range p.Items {
			names = append(names, it.ID)
		}
		c.printLine("  items: " + strings.Join(names, ", "))
	}
	var targets []string
	for _, tgt := range p.Targets {
		targets = append(targets, fmt.Sprintf("%s (%s)", tgt.Key(), tgt.Name()))
	}
	c.printLine("  targets: " + strings.Join(targets, ", "))
}

func (c *CLI) printLines(lines []string) {
	for _, line := range lines {
		c.printLine(line)
	}
}

func (c *CLI) printLine(text string) {
	fmt.Fprintln(c.Out, text)
}

func (c *CLI) print(text string) {
	fmt.Fprint(c.Out, text)
}

func (c *CLI) printSystem(text string) {
	fmt.Fprintf(c.Out, "[%s]\n", text)
}
