package tui

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/skillpulse/internal/engine"
	perrors "github.com/julianstephens/skillpulse/internal/errors"
	"github.com/julianstephens/skillpulse/internal/tui/components/skilllist"
	"github.com/julianstephens/skillpulse/internal/validation"
)

// headerHeight is the rows used by tabs, the summary line and the status line.
const headerHeight = 6

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.skillList.SetSize(msg.Width-4, msg.Height-headerHeight-2)
		return m, nil

	case refreshedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.snapshot = msg.state
		m.timer = msg.timer
		m.achievements = msg.achievements
		m.skillList.SetSkills(msg.state.Skills)
		return m, nil

	case timerMsg:
		if msg.err == nil {
			wasActive := m.timer.Active
			m.timer = msg.timer
			// A session that ended in the background has credited a check.
			if wasActive && !msg.timer.Active {
				return m, m.refresh()
			}
		}
		return m, nil

	case resultMsg:
		m.err = msg.err
		m.status = msg.status
		return m, m.refresh()

	case tickMsg:
		return m, tea.Batch(tick(), m.fetchTimer())
	}

	switch m.state {
	case StateAddSkill:
		return m.updateAddSkill(msg)
	case StateConfirmDelete:
		return m.updateConfirmDelete(msg)
	}

	switch msg := msg.(type) {
	case skilllist.AddSkillMsg:
		m.skillForm = &SkillFormModel{}
		m.form = NewSkillForm(m.skillForm)
		m.previousState = m.state
		m.state = StateAddSkill
		return m, m.form.Init()

	case skilllist.CheckSkillMsg:
		return m, m.run(engine.CmdCheckSkill, skillPayload(msg.ID), "Checked in")

	case skilllist.StartTimerMsg:
		m.state = StateFocus
		payload := map[string]any{"skillId": msg.ID, "durationInSeconds": m.focusMinutes * 60}
		return m, m.run(engine.CmdStartTimer, payload, fmt.Sprintf("Focus started for %d minutes", m.focusMinutes))

	case skilllist.DeleteSkillMsg:
		m.skillToDelete = msg
		m.previousState = m.state
		m.state = StateConfirmDelete
		return m, nil

	case tea.KeyMsg:
		if m.state == StateSkills && m.skillList.Filtering() {
			break
		}
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Tab):
			m.state = (m.state + 1) % tabCount
			return m, nil
		case key.Matches(msg, m.keys.ShiftTab):
			m.state = (m.state - 1 + tabCount) % tabCount
			return m, nil
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		case key.Matches(msg, m.keys.Refresh):
			m.status, m.err = "", nil
			return m, m.refresh()
		}
		if m.state == StateFocus {
			return m.updateFocus(msg)
		}
	}

	if m.state == StateSkills {
		var cmd tea.Cmd
		m.skillList, cmd = m.skillList.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) updateFocus(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var id string
	if m.timer.Timer != nil {
		id = m.timer.Timer.SkillID
	}
	switch {
	case key.Matches(msg, m.keys.Longer):
		if m.focusMinutes+5 <= maxFocusMinutes {
			m.focusMinutes += 5
		}
		return m, nil
	case key.Matches(msg, m.keys.Shorter):
		if m.focusMinutes > 5 {
			m.focusMinutes -= 5
		}
		return m, nil
	}
	if id == "" {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.Pause):
		return m, m.run(engine.CmdPauseTimer, skillPayload(id), "Paused")
	case key.Matches(msg, m.keys.Resume):
		return m, m.run(engine.CmdResumeTimer, skillPayload(id), "Resumed")
	case key.Matches(msg, m.keys.Finish):
		return m, m.run(engine.CmdFinishTimerEarly, skillPayload(id), "Session finished and checked in")
	case key.Matches(msg, m.keys.Cancel):
		return m, m.run(engine.CmdCancelTimer, skillPayload(id), "Session cancelled")
	}
	return m, nil
}

func (m Model) updateAddSkill(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	if msg, ok := msg.(tea.KeyMsg); ok && msg.Type == tea.KeyEsc {
		m.state = m.previousState
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}
	cmds = append(cmds, cmd)

	switch m.form.State {
	case huh.StateCompleted:
		in := engine.NewSkill{Name: m.skillForm.Name, Emoji: m.skillForm.Emoji, Category: m.skillForm.Category}
		cmds = append(cmds, m.run(engine.CmdAddSkill, in, "Added "+m.skillForm.Name))
		m.state = m.previousState
	case huh.StateAborted:
		m.state = m.previousState
	}
	return m, tea.Batch(cmds...)
}

func (m Model) updateConfirmDelete(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "y", "Y":
			target := m.skillToDelete
			m.skillToDelete = skilllist.DeleteSkillMsg{}
			m.state = m.previousState
			return m, m.run(engine.CmdDeleteSkill, skillPayload(target.ID), "Deleted "+target.Name)
		case "n", "N", "esc":
			m.skillToDelete = skilllist.DeleteSkillMsg{}
			m.state = m.previousState
		}
	}
	return m, nil
}

// NewSkillForm creates the add-skill form.
func NewSkillForm(fm *SkillFormModel) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Skill Name").
				Value(&fm.Name).
				Validate(func(s string) error {
					if _, err := validation.SkillName(s); err != nil {
						_, msg := perrors.Split(err)
						return errors.New(msg)
					}
					return nil
				}),
			huh.NewInput().
				Title("Emoji").
				Placeholder("optional").
				Value(&fm.Emoji),
			huh.NewInput().
				Title("Category").
				Placeholder("optional").
				Value(&fm.Category),
		),
	).WithTheme(huh.ThemeDracula())
}
