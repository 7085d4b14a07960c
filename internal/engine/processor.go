// Package engine executes skillpulse commands against the state repository.
// Every command validates its input, reads a snapshot, computes the new state
// and writes it back. Commands are not serialized against each other.
package engine

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/skillpulse/internal/alarms"
	"github.com/julianstephens/skillpulse/internal/eventbus"
	"github.com/julianstephens/skillpulse/internal/logger"
	"github.com/julianstephens/skillpulse/internal/notifier"
	"github.com/julianstephens/skillpulse/internal/state"
	"github.com/julianstephens/skillpulse/internal/storage"
)

// Processor runs commands. It is safe for concurrent use.
type Processor struct {
	repo        *storage.Repository
	assembler   *state.Assembler
	alarms      alarms.Scheduler
	notifier    notifier.Notifier
	badge       notifier.Badge
	events      eventbus.Publisher
	now         func() time.Time
	newSkillID  func() string
	newUserID   func() string
	beforeReset func(ctx context.Context) error
}

type Option func(*Processor)

func WithClock(now func() time.Time) Option {
	return func(p *Processor) { p.now = now }
}

func WithAlarms(s alarms.Scheduler) Option {
	return func(p *Processor) { p.alarms = s }
}

func WithNotifier(n notifier.Notifier) Option {
	return func(p *Processor) { p.notifier = n }
}

func WithBadge(b notifier.Badge) Option {
	return func(p *Processor) { p.badge = b }
}

func WithEvents(e eventbus.Publisher) Option {
	return func(p *Processor) { p.events = e }
}

// WithIDs overrides skill and user id generation.
func WithIDs(skill, user func() string) Option {
	return func(p *Processor) {
		if skill != nil {
			p.newSkillID = skill
		}
		if user != nil {
			p.newUserID = user
		}
	}
}

// WithResetHook runs fn before RESET_ACCOUNT clears the store. A failing hook
// is logged and does not block the reset.
func WithResetHook(fn func(ctx context.Context) error) Option {
	return func(p *Processor) { p.beforeReset = fn }
}

// NewProcessor builds a processor that computes calendar days in loc.
func NewProcessor(repo *storage.Repository, loc *time.Location, opts ...Option) *Processor {
	p := &Processor{
		repo:       repo,
		assembler:  state.NewAssembler(loc),
		notifier:   notifier.Nop{},
		badge:      notifier.NewMemoryBadge(nil),
		now:        time.Now,
		newSkillID: uuid.NewString,
		newUserID:  newLocalUserID,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.alarms == nil {
		p.alarms = alarms.NewManager(nil)
	}
	return p
}

func (p *Processor) Repository() *storage.Repository {
	return p.repo
}

func (p *Processor) Alarms() alarms.Scheduler {
	return p.alarms
}

func (p *Processor) Badge() notifier.Badge {
	return p.badge
}

func (p *Processor) Location() *time.Location {
	return p.assembler.Location()
}

// Now returns the processor's current time.
func (p *Processor) Now() time.Time {
	return p.now()
}

func (p *Processor) publish(eventType string, data map[string]any) {
	if p.events == nil {
		return
	}
	p.events.Publish(eventbus.Event{Type: eventType, Timestamp: p.now().UnixMilli(), Data: data})
}

// StateChanged publishes STATE_UPDATED tagged with the command or job that
// caused it.
func (p *Processor) StateChanged(command string) {
	p.publish(eventbus.StateUpdated, map[string]any{"command": command})
}

// notify is fire-and-forget. Failures are logged, never returned.
func (p *Processor) notify(ctx context.Context, text string) {
	if err := p.notifier.Notify(ctx, text); err != nil {
		logger.Debug("Notification not delivered", "error", err)
	}
}

func newLocalUserID() string {
	return "local_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
