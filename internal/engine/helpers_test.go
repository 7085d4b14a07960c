package engine

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/julianstephens/skillpulse/internal/alarms"
	"github.com/julianstephens/skillpulse/internal/eventbus"
	"github.com/julianstephens/skillpulse/internal/models"
	"github.com/julianstephens/skillpulse/internal/notifier"
	"github.com/julianstephens/skillpulse/internal/storage"
	"github.com/julianstephens/skillpulse/internal/storage/memory"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	proc   *Processor
	store  *memory.Store
	repo   *storage.Repository
	alarms *alarms.Manager
	notes  *notifier.Recorder
	badge  *notifier.MemoryBadge
	hub    *eventbus.Hub
	clock  *fakeClock
}

// start is 08:00 UTC so three checks four hours apart stay on one day.
var start = time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		store: memory.New(),
		notes: &notifier.Recorder{},
		badge: notifier.NewMemoryBadge(nil),
		hub:   eventbus.NewHub(),
		clock: &fakeClock{now: start},
	}
	f.repo = storage.NewRepository(f.store)
	f.alarms = alarms.NewManager(nil, alarms.WithClock(f.clock.Now))
	t.Cleanup(f.alarms.Close)

	all := append([]Option{
		WithClock(f.clock.Now),
		WithAlarms(f.alarms),
		WithNotifier(f.notes),
		WithBadge(f.badge),
		WithEvents(f.hub),
	}, opts...)
	f.proc = NewProcessor(f.repo, time.UTC, all...)
	return f
}

func (f *fixture) addSkill(t *testing.T, name string) models.Skill {
	t.Helper()
	s, err := f.proc.AddSkill(context.Background(), NewSkill{Name: name})
	if err != nil {
		t.Fatalf("AddSkill(%q) error = %v", name, err)
	}
	return s
}

func (f *fixture) skill(t *testing.T, id string) models.Skill {
	t.Helper()
	skills, err := f.proc.readSkills(context.Background())
	if err != nil {
		t.Fatalf("readSkills() error = %v", err)
	}
	for _, s := range skills {
		if s.ID == id {
			return s
		}
	}
	t.Fatalf("skill %s not stored", id)
	return models.Skill{}
}

func (f *fixture) dispatch(t *testing.T, cmdType string, payload any) Response {
	t.Helper()
	req, err := NewRequest(cmdType, payload)
	if err != nil {
		t.Fatal(err)
	}
	return f.proc.Dispatch(context.Background(), req)
}

// resultAs re-decodes a successful response's result into v.
func resultAs(t *testing.T, resp Response, v any) {
	t.Helper()
	if !resp.OK {
		t.Fatalf("response failed: %s: %s", resp.Code, resp.Error)
	}
	b, err := json.Marshal(resp.Result)
	if err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		t.Fatal(err)
	}
}

func near(a, b float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < 1e-9
}
