package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/hemma/internal/constants"
)

type styles struct {
	title     lipgloss.Style
	activeTab lipgloss.Style
	tab       lipgloss.Style
	category  lipgloss.Style
	done      lipgloss.Style
	pending   lipgloss.Style
	cursor    lipgloss.Style
	muted     lipgloss.Style
	danger    lipgloss.Style
	doc       lipgloss.Style
}

func newStyles(theme string) styles {
	accent, text, muted := lipgloss.Color("214"), lipgloss.Color("252"), lipgloss.Color("240")
	tabBg := lipgloss.Color("236")
	if theme == constants.ThemeLight {
		accent, text, muted = lipgloss.Color("130"), lipgloss.Color("235"), lipgloss.Color("245")
		tabBg = lipgloss.Color("254")
	}

	return styles{
		title: lipgloss.NewStyle().Foreground(accent).Bold(true),
		activeTab: lipgloss.NewStyle().
			Foreground(accent).
			Background(tabBg).
			Padding(0, 1).
			Bold(true),
		tab:      lipgloss.NewStyle().Foreground(muted).Padding(0, 1),
		category: lipgloss.NewStyle().Foreground(accent).Bold(true).MarginTop(1),
		done:     lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		pending:  lipgloss.NewStyle().Foreground(text),
		cursor:   lipgloss.NewStyle().Foreground(accent).Bold(true),
		muted:    lipgloss.NewStyle().Foreground(muted).Italic(true),
		danger:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		doc:      lipgloss.NewStyle().Padding(1, 2),
	}
}
