package client

import (
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/lox/clockpatience/internal/deck"
	"github.com/lox/clockpatience/internal/game"
)

// Styles controls how a Session renders its output
type Styles struct {
	Prompt    lipgloss.Style
	Info      lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
	Error     lipgloss.Style
	RedCard   lipgloss.Style
	BlackCard lipgloss.Style
	Marker    lipgloss.Style
}

// NewStyles returns the colour scheme used by the play command for output
// written to w. Colours are dropped when w is not a terminal.
func NewStyles(w io.Writer) Styles {
	r := lipgloss.NewRenderer(w)
	return Styles{
		Prompt:    r.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true),
		Info:      r.NewStyle().Foreground(lipgloss.Color("#626262")),
		Success:   r.NewStyle().Foreground(lipgloss.Color("#96CEB4")).Bold(true),
		Warning:   r.NewStyle().Foreground(lipgloss.Color("#FFEAA7")).Bold(true),
		Error:     r.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true),
		RedCard:   r.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true),
		BlackCard: r.NewStyle().Bold(true),
		Marker:    r.NewStyle().Foreground(lipgloss.Color("#FFD700")).Bold(true),
	}
}

// Card renders a card in its suit colour
func (s Styles) Card(c deck.Card) string {
	if c.Suit.IsRed() {
		return s.RedCard.Render(c.Pretty())
	}
	return s.BlackCard.Render(c.Pretty())
}

// Status renders a game status, highlighting the terminal outcomes
func (s Styles) Status(status game.Status) string {
	switch status {
	case game.StatusWon:
		return s.Success.Render(status.String())
	case game.StatusLost:
		return s.Error.Render(status.String())
	default:
		return s.Info.Render(status.String())
	}
}
