package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	perrors "github.com/julianstephens/skillpulse/internal/errors"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var content string

	switch m.state {
	case StateSkills:
		content = docStyle.Render(m.skillList.View())
	case StateFocus:
		content = m.viewFocus()
	case StateAchievements:
		content = m.viewAchievements()
	case StateAddSkill:
		content = docStyle.Render(m.form.View())
	case StateConfirmDelete:
		content = m.viewConfirmDelete()
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.viewTabs(),
		m.viewSummary(),
		content,
		m.viewStatus(),
		m.help.View(m),
	)
}

func (m Model) viewTabs() string {
	var tabs []string
	for i, title := range []string{"Skills", "Focus", "Achievements"} {
		if m.state == SessionState(i) {
			tabs = append(tabs, activeTabStyle.Render(title))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(title))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) viewSummary() string {
	sum := m.snapshot.Summary
	name := "friend"
	if u := m.snapshot.User; u != nil && u.Name != "" {
		name = u.Name
	}
	p := sum.Personality
	return headerStyle.Render(fmt.Sprintf("%s · %s Lv %d (%d/%d GP) · growth %.2f%% · today +%d GP",
		name, p.Title, p.Level, int(p.CurrentPoints), int(p.RequiredPoints), sum.GrowthPercent, sum.DailyGP))
}

func (m Model) viewStatus() string {
	if m.err != nil {
		if perrors.Guidance(m.err) {
			return statusStyle.Render(perrors.Format(m.err))
		}
		return errorStyle.Render(perrors.Format(m.err))
	}
	if m.status != "" {
		return statusStyle.Render(m.status)
	}
	return ""
}

func (m Model) viewFocus() string {
	var lines []string
	if t := m.timer.Timer; m.timer.Active && t != nil {
		clock := clockStyle
		label := "Focusing on"
		if t.IsPaused {
			clock = pausedStyle
			label = "Paused"
		}
		lines = append(lines,
			fmt.Sprintf("%s %s", label, t.SkillName),
			"",
			clock.Render(formatClock(t.RemainingSeconds)),
		)
	} else {
		lines = append(lines,
			"No focus session.",
			mutedStyle.Render("Pick a skill on the Skills tab and press 't'."),
		)
	}
	lines = append(lines, "", mutedStyle.Render(fmt.Sprintf("Next session: %d min", m.focusMinutes)))
	return docStyle.Render(strings.Join(lines, "\n"))
}

func (m Model) viewAchievements() string {
	if len(m.achievements) == 0 {
		return docStyle.Render(mutedStyle.Render("No achievements today yet."))
	}
	var b strings.Builder
	for _, a := range m.achievements {
		fmt.Fprintf(&b, "%s\n  %s\n", achieveStyle.Render(a.Title), a.Description)
	}
	return docStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func (m Model) viewConfirmDelete() string {
	return lipgloss.Place(m.width, m.height-headerHeight,
		lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center,
			dangerStyle.Render(fmt.Sprintf("Delete %s and its history?", m.skillToDelete.Name)),
			"",
			"[y] Yes",
			"[n] No",
		),
	)
}

func formatClock(sec int) string {
	if sec < 0 {
		sec = 0
	}
	return fmt.Sprintf("%02d:%02d", sec/60, sec%60)
}
