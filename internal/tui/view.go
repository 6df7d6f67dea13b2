package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/hemma/internal/constants"
	"github.com/julianstephens/hemma/internal/models"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.state {
	case StateToday:
		content = m.viewToday()
	case StateStats:
		content = m.viewStats()
	case StateHabits:
		content = m.categories.View()
	case StateForm:
		content = "\n" + m.pending.form.View()
	}

	return m.styles.doc.Render(lipgloss.JoinVertical(
		lipgloss.Left,
		m.viewTabs(),
		m.viewHeader(),
		content,
		m.viewStatus(),
		m.help.View(m.keys),
	))
}

func (m Model) viewTabs() string {
	active := m.state
	if m.state == StateForm {
		active = m.pending.returnTo
	}
	tabs := make([]string, 0, len(tabTitles))
	for i, title := range tabTitles {
		if SessionState(i) == active {
			tabs = append(tabs, m.styles.activeTab.Render(title))
		} else {
			tabs = append(tabs, m.styles.tab.Render(title))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) viewHeader() string {
	cats := m.app.Habits.Categories()
	stats := m.app.Tracker.Stats(cats)
	title := m.styles.title.Render(fmt.Sprintf("Day %d / %d", stats.CurrentDay+1, constants.TotalDays))
	line := fmt.Sprintf("%s   %d/%d done   %d XP today   streak %d",
		title, stats.CompletedHabits, stats.TotalHabits, stats.TodayXP, stats.Streak)
	return "\n" + line + "\n" + m.progress.ViewAs(min(stats.TodayProgress, 1))
}

func (m Model) viewToday() string {
	if len(m.rows) == 0 {
		return m.styles.muted.Render("\nNo habits yet. Add one with 'hemma habits add'.")
	}

	var b strings.Builder
	category := ""
	for i, r := range m.rows {
		if r.category != category {
			category = r.category
			b.WriteString(m.styles.category.Render(category))
			b.WriteString("\n")
		}
		b.WriteString(m.renderRow(i, r))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderRow(i int, r row) string {
	value := m.app.Tracker.Value(r.habit.ID)

	mark := "○"
	style := m.styles.pending
	if value.IsCompleted() {
		mark = "✓"
		style = m.styles.done
	}
	text := fmt.Sprintf("%s %s", mark, r.habit.Label)
	if r.habit.Type == models.HabitTypeNumber {
		text = fmt.Sprintf("%s %s: %d", mark, r.habit.Label, value.Count)
	}

	prefix := "  "
	if i == m.cursor {
		prefix = m.styles.cursor.Render("> ")
	}
	return prefix + style.Render(text)
}

func (m Model) viewStats() string {
	cats := m.app.Habits.Categories()
	stats := m.app.Tracker.Stats(cats)
	state := m.app.Tracker.State()

	var b strings.Builder
	b.WriteString("\n")
	fmt.Fprintf(&b, "Total XP: %d\n", stats.TotalXP)
	fmt.Fprintf(&b, "Streak:   %d day(s)\n\n", stats.Streak)

	for _, cat := range cats {
		mark := "○"
		if stats.BlockCompletion[cat.ID] {
			mark = "✓"
		}
		fmt.Fprintf(&b, "%s %s\n", mark, cat.Name)
	}

	b.WriteString("\n")
	for day := 0; day < constants.TotalDays; day++ {
		n := state[day].CompletedCount()
		cell := m.styles.muted.Render("·")
		if n > 0 {
			cell = m.styles.done.Render("■")
		}
		if day == stats.CurrentDay {
			cell = m.styles.cursor.Render("◆")
		}
		b.WriteString(cell)
	}
	b.WriteString("\n")
	return b.String()
}

func (m Model) viewStatus() string {
	account := "offline (not signed in)"
	if u := m.app.Session.User(); u != nil {
		account = "signed in as " + u.Email
	}
	line := m.styles.muted.Render(account)
	if m.status != "" {
		style := m.styles.muted
		if strings.HasPrefix(m.status, "Sync failed") {
			style = m.styles.danger
		}
		line += "  " + style.Render(m.status)
	}
	return "\n" + line + "\n"
}
