package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/skillpulse/internal/engine"
	"github.com/julianstephens/skillpulse/internal/models"
)

type refreshedMsg struct {
	state        models.State
	timer        models.TimerStatus
	achievements []models.Achievement
	err          error
}

type timerMsg struct {
	timer models.TimerStatus
	err   error
}

type resultMsg struct {
	status string
	err    error
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) refresh() tea.Cmd {
	b := m.backend
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()

		var msg refreshedMsg
		if msg.err = b.Call(ctx, engine.CmdGetState, nil, &msg.state); msg.err != nil {
			return msg
		}
		if msg.err = b.Call(ctx, engine.CmdGetTimerStatus, nil, &msg.timer); msg.err != nil {
			return msg
		}
		msg.achievements, msg.err = b.Achievements(ctx)
		return msg
	}
}

func (m Model) fetchTimer() tea.Cmd {
	b := m.backend
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()
		var msg timerMsg
		msg.err = b.Call(ctx, engine.CmdGetTimerStatus, nil, &msg.timer)
		return msg
	}
}

// run sends one command and reports status on success.
func (m Model) run(cmdType string, payload any, status string) tea.Cmd {
	b := m.backend
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()
		if err := b.Call(ctx, cmdType, payload, nil); err != nil {
			return resultMsg{err: err}
		}
		return resultMsg{status: status}
	}
}

func skillPayload(id string) map[string]string {
	return map[string]string{"skillId": id}
}
