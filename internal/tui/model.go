package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/skillpulse/internal/engine"
	"github.com/julianstephens/skillpulse/internal/models"
	"github.com/julianstephens/skillpulse/internal/tui/components/skilllist"
)

type SessionState int

const (
	StateSkills SessionState = iota
	StateFocus
	StateAchievements
	StateAddSkill
	StateConfirmDelete
)

// tabCount is the number of states reachable with tab.
const tabCount = 3

const (
	defaultFocusMinutes = 25
	maxFocusMinutes     = 180
	callTimeout         = 10 * time.Second
)

// Backend is what the dashboard talks to: an in-process processor or the
// daemon client.
type Backend interface {
	engine.Caller
	Achievements(ctx context.Context) ([]models.Achievement, error)
}

type SkillFormModel struct {
	Name     string
	Emoji    string
	Category string
}

type Model struct {
	backend       Backend
	state         SessionState
	previousState SessionState
	keys          KeyMap
	help          help.Model
	skillList     skilllist.Model
	form          *huh.Form
	skillForm     *SkillFormModel
	skillToDelete skilllist.DeleteSkillMsg

	snapshot     models.State
	timer        models.TimerStatus
	achievements []models.Achievement
	focusMinutes int

	status   string
	err      error
	quitting bool
	width    int
	height   int
}

func NewModel(backend Backend) Model {
	return Model{
		backend:      backend,
		state:        StateSkills,
		keys:         DefaultKeyMap(),
		help:         help.New(),
		skillList:    skilllist.New(nil, 0, 0),
		focusMinutes: defaultFocusMinutes,
	}
}

func (m Model) ShortHelp() []key.Binding {
	keys := []key.Binding{m.keys.Tab, m.keys.Quit, m.keys.Help}
	switch m.state {
	case StateSkills:
		keys = append(keys, m.keys.Add, m.keys.Check, m.keys.Focus)
	case StateFocus:
		keys = append(keys, m.keys.Pause, m.keys.Resume, m.keys.Finish, m.keys.Cancel)
	}
	return keys
}

func (m Model) FullHelp() [][]key.Binding {
	global := []key.Binding{m.keys.Tab, m.keys.ShiftTab, m.keys.Quit, m.keys.Help, m.keys.Refresh}
	navigation := []key.Binding{m.keys.Up, m.keys.Down}

	var actions []key.Binding
	switch m.state {
	case StateSkills:
		actions = []key.Binding{m.keys.Add, m.keys.Check, m.keys.Focus, m.keys.Delete}
	case StateFocus:
		actions = []key.Binding{m.keys.Pause, m.keys.Resume, m.keys.Finish, m.keys.Cancel, m.keys.Longer, m.keys.Shorter}
	}

	return [][]key.Binding{global, navigation, actions}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.refresh(), tick())
}

// Run starts the dashboard in the alternate screen.
func Run(backend Backend) error {
	_, err := tea.NewProgram(NewModel(backend), tea.WithAltScreen()).Run()
	return err
}
