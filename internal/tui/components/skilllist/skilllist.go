package skilllist

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/skillpulse/internal/models"
)

type AddSkillMsg struct{}

type CheckSkillMsg struct {
	ID string
}

type DeleteSkillMsg struct {
	ID   string
	Name string
}

type StartTimerMsg struct {
	ID string
}

type Item struct {
	Skill models.EnrichedSkill
}

func (i Item) Title() string {
	name := i.Skill.Name
	if i.Skill.Emoji != "" {
		name = i.Skill.Emoji + " " + name
	}
	if i.Skill.DoneToday {
		name += " ✓"
	}
	return name
}

func (i Item) Description() string {
	desc := fmt.Sprintf("Lv %d | %.2f%% | %d/%d GP | 7d %d",
		i.Skill.Level.Level,
		i.Skill.CumulativeGrowth,
		int(i.Skill.Level.CurrentPoints),
		int(i.Skill.Level.RequiredPoints),
		i.Skill.ActionDaysLast7,
	)
	if i.Skill.Category != "" {
		desc += " | " + i.Skill.Category
	}
	return desc
}

func (i Item) FilterValue() string { return i.Skill.Name }

type KeyMap struct {
	Add    key.Binding
	Check  key.Binding
	Focus  key.Binding
	Delete key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Add: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add"),
		),
		Check: key.NewBinding(
			key.WithKeys("c", " "),
			key.WithHelp("c/space", "check"),
		),
		Focus: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "focus"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
	}
}

type Model struct {
	list list.Model
	keys KeyMap
}

func New(skills []models.EnrichedSkill, width, height int) Model {
	l := list.New(items(skills), list.NewDefaultDelegate(), width, height)
	l.Title = "Skills"
	l.SetShowTitle(false)
	l.SetShowHelp(false)

	keys := DefaultKeyMap()
	l.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{keys.Add, keys.Check, keys.Focus, keys.Delete}
	}
	l.AdditionalFullHelpKeys = func() []key.Binding {
		return []key.Binding{keys.Add, keys.Check, keys.Focus, keys.Delete}
	}

	return Model{list: l, keys: keys}
}

func items(skills []models.EnrichedSkill) []list.Item {
	out := make([]list.Item, len(skills))
	for i, s := range skills {
		out[i] = Item{Skill: s}
	}
	return out
}

// SetSkills replaces the items and keeps the cursor in range.
func (m *Model) SetSkills(skills []models.EnrichedSkill) {
	idx := m.list.Index()
	m.list.SetItems(items(skills))
	if idx >= len(skills) && len(skills) > 0 {
		m.list.Select(len(skills) - 1)
	}
}

// Selected returns the highlighted skill.
func (m Model) Selected() (models.EnrichedSkill, bool) {
	i, ok := m.list.SelectedItem().(Item)
	return i.Skill, ok
}

// Filtering reports whether the filter input has focus.
func (m Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.Filtering() {
			break
		}
		switch {
		case key.Matches(msg, m.keys.Add):
			return m, func() tea.Msg { return AddSkillMsg{} }
		case key.Matches(msg, m.keys.Check):
			if s, ok := m.Selected(); ok {
				return m, func() tea.Msg { return CheckSkillMsg{ID: s.ID} }
			}
			return m, nil
		case key.Matches(msg, m.keys.Focus):
			if s, ok := m.Selected(); ok {
				return m, func() tea.Msg { return StartTimerMsg{ID: s.ID} }
			}
			return m, nil
		case key.Matches(msg, m.keys.Delete):
			if s, ok := m.Selected(); ok {
				return m, func() tea.Msg { return DeleteSkillMsg{ID: s.ID, Name: s.Name} }
			}
			return m, nil
		}
	}

	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if len(m.list.Items()) == 0 && !m.Filtering() {
		return "\n  No skills yet.\n  Press 'a' to add one."
	}
	return m.list.View()
}

func (m *Model) SetSize(width, height int) {
	m.list.SetSize(width, height)
}
