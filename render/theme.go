package render

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/jrsteele09/citypulse/complaints"
)

// Color palette
const (
	ColorPrimary   = lipgloss.Color("39")  // Blue - headers, titles
	ColorMuted     = lipgloss.Color("240") // Gray - labels, borders
	ColorText      = lipgloss.Color("255")
	ColorSuccess   = lipgloss.Color("42")
	ColorWarning   = lipgloss.Color("214")
	ColorError     = lipgloss.Color("196")
	ColorRejected  = lipgloss.Color("203")
	ColorDetailKey = lipgloss.Color("245")
	ColorBorder    = lipgloss.Color("63")
)

var (
	Header = lipgloss.NewStyle().
		Foreground(ColorPrimary).
		Bold(true)

	Text = lipgloss.NewStyle().
		Foreground(ColorText)

	Muted = lipgloss.NewStyle().
		Foreground(ColorMuted)

	Success = lipgloss.NewStyle().
		Foreground(ColorSuccess).
		Bold(true)

	Error = lipgloss.NewStyle().
		Foreground(ColorError)

	DetailKey = lipgloss.NewStyle().
			Foreground(ColorDetailKey).
			Width(14)

	DetailBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(1, 2)

	Card = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorMuted).
		Padding(0, 1)
)

// StatusStyle colours a complaint status badge.
func StatusStyle(s complaints.Status) lipgloss.Style {
	style := lipgloss.NewStyle().Bold(true)
	switch s {
	case complaints.StatusSubmitted:
		return style.Foreground(ColorPrimary)
	case complaints.StatusInProgress:
		return style.Foreground(ColorWarning)
	case complaints.StatusResolved:
		return style.Foreground(ColorSuccess)
	case complaints.StatusRejected:
		return style.Foreground(ColorRejected)
	default:
		return style.Foreground(ColorMuted)
	}
}

func SeverityStyle(s complaints.Severity) lipgloss.Style {
	switch s {
	case complaints.SeverityUrgent:
		return lipgloss.NewStyle().Foreground(ColorError).Bold(true)
	case complaints.SeverityHigh:
		return lipgloss.NewStyle().Foreground(ColorWarning)
	default:
		return Text
	}
}
