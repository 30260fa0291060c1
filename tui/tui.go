package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nathoo/crestfall/engine"
	"github.com/nathoo/crestfall/engine/battler"
	"github.com/nathoo/crestfall/engine/content"
	"github.com/nathoo/crestfall/engine/save"
)

// tickInterval is the battle poll rate.
const tickInterval = 100 * time.Millisecond

// rawLine stores an unstyled log line with its classification,
// so we can re-wrap and re-style when the terminal is resized.
type rawLine struct {
	text     string
	kind     lineKind
	isInput  bool // true for echoed player input
	isSystem bool // true for system messages
}

// Model is the Bubble Tea model for the battle TUI.
type Model struct {
	battle *engine.Battle
	defs   *content.Defs

	viewport viewport.Model
	input    textinput.Model
	history  *History

	rawLines []rawLine

	width      int
	height     int
	ready      bool
	paused     bool
	finished   bool
	quitting   bool
	saveDir    string
	lastPrompt *engine.Prompt
}

// tickMsg drives the battle forward.
type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// New creates a TUI model wired to the given battle.
func New(b *engine.Battle, defs *content.Defs) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Focus()
	ti.CharLimit = 256
	ti.PromptStyle = styleInputPrompt

	home, _ := os.UserHomeDir()
	return Model{
		battle:  b,
		defs:    defs,
		input:   ti,
		history: NewHistory(100),
		saveDir: filepath.Join(home, ".crestfall", "saves"),
	}
}

// Run starts the Bubble Tea program.
func Run(b *engine.Battle, defs *content.Defs) error {
	m := New(b, defs)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}

// Init starts the tick loop.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, tick())
}

// Update handles messages (ticks, key presses, window resize).
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		vpHeight := m.height - 2 // 1 status bar + 1 input line
		if vpHeight < 1 {
			vpHeight = 1
		}

		if !m.ready {
			m.viewport = viewport.New(m.width, vpHeight)
			m.viewport.KeyMap = viewportKeyMap()
			m.ready = true
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = vpHeight
		}

		m.refreshViewport()

	case tickMsg:
		return m.handleTick(time.Time(msg))

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.quitting = true
			return m, tea.Quit

		case "enter":
			return m.handleEnter()

		case "up":
			if prev, ok := m.history.Prev(); ok {
				m.input.SetValue(prev)
				m.input.CursorEnd()
			}
			return m, nil

		case "down":
			if next, ok := m.history.Next(); ok {
				m.input.SetValue(next)
				m.input.CursorEnd()
			} else {
				m.input.SetValue("")
				m.history.ResetCursor()
			}
			return m, nil

		case "pgup", "pgdown":
			var vpCmd tea.Cmd
			m.viewport, vpCmd = m.viewport.Update(msg)
			return m, vpCmd
		}
	}

	var inputCmd tea.Cmd
	m.input, inputCmd = m.input.Update(msg)
	cmds = append(cmds, inputCmd)

	return m, tea.Batch(cmds...)
}

// handleTick advances the battle one poll and reschedules the tick.
func (m Model) handleTick(now time.Time) (tea.Model, tea.Cmd) {
	if m.finished {
		return m, nil
	}

	lines, err := m.battle.Advance(now)
	if len(lines) > 0 {
		m = m.appendLog(lines)
	}
	if err != nil {
		m = m.appendSystem(fmt.Sprintf("Battle error: %v", err))
		m.finished = true
		return m, nil
	}

	if p := m.battle.Prompt(); p != nil && p != m.lastPrompt {
		m.lastPrompt = p
		m = m.appendLog(m.promptLines(p))
	}

	if m.battle.Done() {
		m.finished = true
		m = m.appendSystem("The battle is over. Press Ctrl+C to exit.")
		return m, nil
	}
	return m, tick()
}

// promptLines describes whose turn it is and what they can do.
func (m Model) promptLines(p *engine.Prompt) []string {
	lines := []string{fmt.Sprintf("%s's turn", p.Actor.Name())}
	if len(p.Skills) > 0 {
		var names []string
		for _, s := range p.Skills {
			names = append(names, fmt.Sprintf("%s (%d MP)", s.ID, s.MPCost))
		}
		lines = append(lines, "  skills: "+strings.Join(names, ", "))
	}
	if len(p.Items) > 0 {
		var names []string
		for _, it := range p.Items {
			names = append(names, it.ID)
		}
		lines = append(lines, "  items: "+strings.Join(names, ", "))
	}
	var targets []string
	for _, tgt := range p.Targets {
		targets = append(targets, fmt.Sprintf("%s (%s)", tgt.Key(), tgt.Name()))
	}
	lines = append(lines, "  targets: "+strings.Join(targets, ", "))
	return lines
}

// handleEnter processes the submitted input line.
func (m Model) handleEnter() (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.input.Value())
	m.input.SetValue("")

	if input == "" {
		return m, nil
	}

	m.history.Push(input)
	m.history.ResetCursor()

	// Meta-commands.
	if strings.HasPrefix(input, "/") {
		output, quit := m.handleMeta(input)
		m = m.appendInput(input)
		for _, line := range output {
			m = m.appendSystem(line)
		}
		if quit {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	}

	p := m.battle.Prompt()
	if p == nil {
		m = m.appendSystem("It is not your turn.")
		return m, nil
	}

	cmd, err := m.parseCommand(input, p)
	if err == nil {
		err = m.battle.Submit(cmd)
	}
	m = m.appendInput(input)
	if err != nil {
		m = m.appendSystem(err.Error())
		return m, nil
	}
	m.lastPrompt = nil
	return m, nil
}

// parseCommand turns a line like "skill fire slime_1" into a Command.
// A missing target defaults to the first legal one.
func (m Model) parseCommand(input string, p *engine.Prompt) (engine.Command, error) {
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
		if s, ok := m.defs.Skills[id]; ok && !s.Hostile() {
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
		if it, ok := m.defs.Items[id]; ok && it.Hostile() {
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
// first living battler in the pool.
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

// handleMeta dispatches meta-commands. Returns output lines and quit flag.
func (m *Model) handleMeta(input string) ([]string, bool) {
	parts := strings.Fields(input)
	cmd := parts[0]
	var arg string
	if len(parts) > 1 {
		arg = parts[1]
	}

	switch cmd {
	case "/quit", "/exit":
		m.battle.Abort()
		return []string{"Abandoning the battle..."}, false

	case "/pause":
		m.battle.TogglePause()
		m.paused = m.battle.Scene() == engine.ScenePause
		if m.paused {
			return []string{"Paused."}, false
		}
		return []string{"Resumed."}, false

	case "/save":
		return m.cmdSave(arg), false

	case "/help":
		return m.cmdHelp(), false

	default:
		return []string{fmt.Sprintf("Unknown command: %s. Type /help for available commands.", cmd)}, false
	}
}

func (m *Model) cmdSave(name string) []string {
	if name == "" {
		name = "quicksave"
	}

	data, err := save.Save(m.battle, m.defs)
	if err != nil {
		return []string{fmt.Sprintf("Save failed: %v", err)}
	}

	if err := os.MkdirAll(m.saveDir, 0o755); err != nil {
		return []string{fmt.Sprintf("Save failed: %v", err)}
	}

	path := filepath.Join(m.saveDir, name+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return []string{fmt.Sprintf("Save failed: %v", err)}
	}

	return []string{fmt.Sprintf("Battle saved to %s.", name)}
}

func (m *Model) cmdHelp() []string {
	return []string{
		"System:",
		"  /save [name]  — Save battle state (default: quicksave)",
		"  /pause        — Pause or resume the battle",
		"  /quit         — Abandon the battle",
		"  /help         — Show this help",
		"",
		"Battle commands:",
		"  attack [target] (a)       — Basic attack",
		"  skill <name> [target] (s) — Use a skill",
		"  item <name> [target] (i)  — Use an item",
		"  guard (g)                 — Halve damage this round",
		"",
		"Navigation: PgUp/PgDn to scroll, Up/Down for command history",
	}
}

// appendLog adds battle-log lines and refreshes the viewport.
func (m Model) appendLog(lines []string) Model {
	for _, line := range lines {
		m.rawLines = append(m.rawLines, rawLine{text: line, kind: classifyLine(line)})
	}
	m.refreshViewport()
	return m
}

func (m Model) appendInput(input string) Model {
	m.rawLines = append(m.rawLines, rawLine{text: "> " + input, isInput: true})
	m.refreshViewport()
	return m
}

func (m Model) appendSystem(text string) Model {
	m.rawLines = append(m.rawLines, rawLine{text: text, isSystem: true})
	m.refreshViewport()
	return m
}

// refreshViewport re-wraps and re-styles all raw lines at the current
// width and updates the viewport content.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}

	width := m.width
	if width < 10 {
		width = 10
	}

	var styled []string
	for _, rl := range m.rawLines {
		if rl.text == "" {
			styled = append(styled, "")
			continue
		}

		wrapped := wordWrap(rl.text, width)

		switch {
		case rl.isInput:
			styled = append(styled, stylePlayerInput.Render(wrapped))
		case rl.isSystem:
			styled = append(styled, styledSystemMsg(wrapped))
		default:
			styled = append(styled, renderLineKind(wrapped, rl.kind))
		}
	}

	m.viewport.SetContent(strings.Join(styled, "\n"))
	m.viewport.GotoBottom()
}

// wordWrap wraps text to fit within the given width, breaking at word
// boundaries.
func wordWrap(text string, width int) string {
	if width <= 0 || len(text) <= width {
		return text
	}

	var result strings.Builder
	words := strings.Fields(text)
	lineLen := 0

	for i, word := range words {
		wLen := len(word)

		if i == 0 {
			result.WriteString(word)
			lineLen = wLen
			continue
		}

		if lineLen+1+wLen > width {
			result.WriteString("\n")
			result.WriteString(word)
			lineLen = wLen
		} else {
			result.WriteString(" ")
			result.WriteString(word)
			lineLen += 1 + wLen
		}
	}

	return result.String()
}

// View renders the full TUI layout: viewport + status bar + input.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Loading..."
	}

	return m.viewport.View() + "\n" + m.renderStatusBar() + "\n" + m.input.View()
}

// viewportKeyMap returns a viewport keymap with Up/Down disabled
// (we use those for input history).
func viewportKeyMap() viewport.KeyMap {
	return viewport.KeyMap{
		PageDown:     key.NewBinding(key.WithKeys("pgdown")),
		PageUp:       key.NewBinding(key.WithKeys("pgup")),
		HalfPageDown: key.NewBinding(key.WithKeys("ctrl+d")),
		HalfPageUp:   key.NewBinding(key.WithKeys("ctrl+u")),
		Up:           key.NewBinding(key.WithDisabled()),
		Down:         key.NewBinding(key.WithDisabled()),
	}
}
