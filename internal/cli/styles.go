package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/skillpulse/internal/models"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
)

// progressBar renders fraction (0..1) as a fixed-width bar.
func progressBar(fraction float64, width int) string {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	filled := int(fraction*float64(width) + 0.5)
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func skillLine(s models.EnrichedSkill) string {
	mark := mutedStyle.Render("○")
	if s.DoneToday {
		mark = doneStyle.Render("●")
	}
	name := s.Name
	if s.Emoji != "" {
		name = s.Emoji + " " + name
	}
	return fmt.Sprintf("%s %-24s Lv %-3d %s %5.2f%%  %s",
		mark,
		name,
		s.Level.Level,
		progressBar(s.Level.Progress(), 12),
		s.CumulativeGrowth,
		mutedStyle.Render(fmt.Sprintf("7d:%d 30d:%d  %s", s.ActionDaysLast7, s.ActionDaysLast30, shortID(s.ID))),
	)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatSeconds(sec int) string {
	if sec < 0 {
		sec = 0
	}
	return fmt.Sprintf("%02d:%02d", sec/60, sec%60)
}
