package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles used throughout the TUI.
var (
	styleStatusBar = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Bold(true)

	styleInputPrompt = lipgloss.NewStyle().
				Foreground(lipgloss.Color("34"))

	styleNarration = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	styleRound = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")).
			Bold(true)

	styleDamage = lipgloss.NewStyle().
			Foreground(lipgloss.Color("203"))

	styleRecover = lipgloss.NewStyle().
			Foreground(lipgloss.Color("78"))

	styleDefeat = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	styleVictory = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220")).
			Bold(true)

	stylePromptInfo = lipgloss.NewStyle().
			Foreground(lipgloss.Color("117"))

	styleSystem = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	stylePlayerInput = lipgloss.NewStyle().
				Foreground(lipgloss.Color("34"))

	styleHPBarFull = lipgloss.NewStyle().
			Foreground(lipgloss.Color("78"))

	styleHPBarLow = lipgloss.NewStyle().
			Foreground(lipgloss.Color("203"))
)

// lineKind identifies the type of a battle-log line for styling.
type lineKind int

const (
	kindNarration lineKind = iota
	kindRound
	kindDamage
	kindRecover
	kindDefeat
	kindVictory
	kindPromptInfo
)

// classifyLine determines what kind of log line this is.
func classifyLine(line string) lineKind {
	switch {
	case strings.HasPrefix(line, "-- Round"):
		return kindRound
	case strings.HasPrefix(line, "Victory!"),
		strings.Contains(line, "rises to level"),
		strings.HasPrefix(line, "Found "):
		return kindVictory
	case strings.Contains(line, "is defeated!"),
		strings.Contains(line, "falls!"),
		strings.Contains(line, "has fallen"):
		return kindDefeat
	// Drain lines mention both "loses" and "absorbs"; they hurt their
	// subject, so the damage check comes first.
	case strings.Contains(line, "damage"),
		strings.Contains(line, "loses"),
		strings.HasPrefix(line, "A critical hit!"):
		return kindDamage
	case strings.Contains(line, "recovers"),
		strings.Contains(line, "absorbs"):
		return kindRecover
	case strings.HasSuffix(line, "'s turn"),
		strings.HasPrefix(line, "  skills:"),
		strings.HasPrefix(line, "  items:"),
		strings.HasPrefix(line, "  targets:"):
		return kindPromptInfo
	default:
		return kindNarration
	}
}

// renderLineKind applies the style for a given lineKind.
func renderLineKind(line string, kind lineKind) string {
	switch kind {
	case kindRound:
		return styleRound.Render(line)
	case kindDamage:
		return styleDamage.Render(line)
	case kindRecover:
		return styleRecover.Render(line)
	case kindDefeat:
		return styleDefeat.Render(line)
	case kindVictory:
		return styleVictory.Render(line)
	case kindPromptInfo:
		return stylePromptInfo.Render(line)
	default:
		return styleNarration.Render(line)
	}
}

// styledSystemMsg renders a system message in gray with brackets.
func styledSystemMsg(text string) string {
	return styleSystem.Render("[" + text + "]")
}
