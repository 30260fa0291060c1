package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// hpBar renders a fixed-width HP gauge: "████░░░░". Turns red below 25%.
func hpBar(cur, max, width int) string {
	if max <= 0 || width <= 0 {
		return ""
	}
	filled := cur * width / max
	if filled < 0 {
		filled = 0
	}
	if cur > 0 && filled == 0 {
		filled = 1
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	if cur*4 < max {
		return styleHPBarLow.Render(bar)
	}
	return styleHPBarFull.Render(bar)
}

// renderStatusBar produces a full-width inverted status line showing
// each party member's HP and MP, the round, and enemies still standing.
func (m Model) renderStatusBar() string {
	var parts []string
	for _, mem := range m.battle.Party().Members() {
		s := mem.Stats()
		part := fmt.Sprintf("%s %s %d/%d", mem.Name(), hpBar(s.HP(), s.MaxHP(), 8), s.HP(), s.MaxHP())
		if s.MaxMP() > 0 {
			part += fmt.Sprintf(" MP %d/%d", s.MP(), s.MaxMP())
		}
		if mem.IsKnockedOut() {
			part = fmt.Sprintf("%s KO", mem.Name())
		}
		parts = append(parts, part)
	}
	left := " " + strings.Join(parts, " | ")

	alive := 0
	for _, e := range m.battle.Troop().Enemies() {
		if !e.IsKnockedOut() {
			alive++
		}
	}
	right := fmt.Sprintf("Foes: %d | Round %d ", alive, m.battle.Round())
	if m.paused {
		right = "PAUSED | " + right
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	bar := left + strings.Repeat(" ", gap) + right
	return styleStatusBar.Width(m.width).Render(bar)
}
