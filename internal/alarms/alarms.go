// Package alarms provides named one-shot and periodic wake-ups that fire at or
// after their scheduled time.
package alarms

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/julianstephens/skillpulse/internal/constants"
	"github.com/julianstephens/skillpulse/internal/logger"
	"github.com/julianstephens/skillpulse/internal/utils"
)

// Alarm is a registered wake-up. Period is zero for one-shot alarms.
type Alarm struct {
	Name   string        `json:"name"`
	When   time.Time     `json:"scheduledTime"`
	Period time.Duration `json:"period"`
}

// Periodic reports whether the alarm repeats.
func (a Alarm) Periodic() bool {
	return a.Period > 0
}

// Handler receives fired alarms.
type Handler func(ctx context.Context, a Alarm)

// Scheduler registers named alarms. Creating an alarm with an existing name
// replaces it.
type Scheduler interface {
	Create(name string, when time.Time, period time.Duration)
	Get(name string) (Alarm, bool)
	Clear(name string) bool
	ClearAll()
	List() []Alarm
}

type entry struct {
	alarm Alarm
	timer *time.Timer
	gen   uint64
}

// Manager is an in-process Scheduler backed by time.AfterFunc.
type Manager struct {
	mu      sync.Mutex
	alarms  map[string]*entry
	gen     uint64
	handler Handler
	now     func() time.Time
	timeout time.Duration
	closed  bool
}

type Option func(*Manager)

// WithClock overrides the time source used to compute timer delays.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithHandlerTimeout bounds the context passed to the handler.
func WithHandlerTimeout(d time.Duration) Option {
	return func(m *Manager) { m.timeout = d }
}

func NewManager(handler Handler, opts ...Option) *Manager {
	m := &Manager{
		alarms:  make(map[string]*entry),
		handler: handler,
		now:     time.Now,
		timeout: constants.AlarmHandlerTimeout,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SetHandler replaces the handler used for subsequent fires.
func (m *Manager) SetHandler(h Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handler = h
}

func (m *Manager) Create(name string, when time.Time, period time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	if old, ok := m.alarms[name]; ok {
		old.timer.Stop()
	}
	m.gen++
	e := &entry{alarm: Alarm{Name: name, When: when, Period: period}, gen: m.gen}
	e.timer = time.AfterFunc(when.Sub(m.now()), func() { m.fire(name, e.gen) })
	m.alarms[name] = e
	logger.Debug("Alarm scheduled", "name", name, "when", when, "period", period)
}

func (m *Manager) Get(name string) (Alarm, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.alarms[name]
	if !ok {
		return Alarm{}, false
	}
	return e.alarm, true
}

func (m *Manager) Clear(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.alarms[name]
	if !ok {
		return false
	}
	e.timer.Stop()
	delete(m.alarms, name)
	return true
}

func (m *Manager) ClearAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for name, e := range m.alarms {
		e.timer.Stop()
		delete(m.alarms, name)
	}
}

func (m *Manager) List() []Alarm {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Alarm, 0, len(m.alarms))
	for _, e := range m.alarms {
		out = append(out, e.alarm)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Close stops every timer. Later Create calls are ignored.
func (m *Manager) Close() {
	m.ClearAll()
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
}

// Fire runs the handler for a registered alarm immediately, advancing it as if
// its timer had elapsed. It reports false when no such alarm exists.
func (m *Manager) Fire(name string) bool {
	m.mu.Lock()
	e, ok := m.alarms[name]
	m.mu.Unlock()
	if !ok {
		return false
	}
	m.fire(name, e.gen)
	return true
}

func (m *Manager) fire(name string, gen uint64) {
	m.mu.Lock()
	e, ok := m.alarms[name]
	if !ok || e.gen != gen {
		// Cleared or replaced after the timer was armed.
		m.mu.Unlock()
		return
	}
	fired := e.alarm
	if fired.Periodic() {
		next := fired.When.Add(fired.Period)
		now := m.now()
		for !next.After(now) {
			next = next.Add(fired.Period)
		}
		e.timer.Stop()
		e.alarm.When = next
		e.timer = time.AfterFunc(next.Sub(now), func() { m.fire(name, gen) })
	} else {
		e.timer.Stop()
		delete(m.alarms, name)
	}
	handler := m.handler
	m.mu.Unlock()

	if handler == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()
	handler(ctx, fired)
}

// EnsureDailyReset registers the daily-reset alarm at the next 00:05 in loc
// unless it already exists. It reports whether an alarm was created.
func EnsureDailyReset(s Scheduler, now time.Time, loc *time.Location) bool {
	if _, ok := s.Get(constants.AlarmDailyReset); ok {
		return false
	}
	s.Create(constants.AlarmDailyReset, utils.NextDailyReset(now, loc), constants.DailyResetPeriod)
	logger.Info("Daily reset scheduled", "next", utils.NextDailyReset(now, loc))
	return true
}

// FocusTimerName is the completion alarm name for a skill's focus session.
func FocusTimerName(skillID string) string {
	return constants.AlarmFocusTimerPrefix + skillID
}

// RearmName is the cooldown wake-up name for a skill.
func RearmName(skillID string) string {
	return constants.AlarmRearmPrefix + skillID
}

// SkillIDFrom extracts the skill id from a prefixed alarm name.
func SkillIDFrom(name, prefix string) (string, bool) {
	id, ok := strings.CutPrefix(name, prefix)
	return id, ok && id != ""
}
