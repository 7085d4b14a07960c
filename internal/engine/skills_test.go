package engine

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/julianstephens/skillpulse/internal/alarms"
	"github.com/julianstephens/skillpulse/internal/constants"
	perrors "github.com/julianstephens/skillpulse/internal/errors"
	"github.com/julianstephens/skillpulse/internal/eventbus"
	"github.com/julianstephens/skillpulse/internal/growth"
	"github.com/julianstephens/skillpulse/internal/models"
	"github.com/julianstephens/skillpulse/internal/storage"
	"github.com/julianstephens/skillpulse/internal/storage/memory"
)

func TestAddSkill(t *testing.T) {
	f := newFixture(t, WithIDs(func() string { return "skill-1" }, nil))
	ctx := context.Background()

	s, err := f.proc.AddSkill(ctx, NewSkill{Name: "  Piano "})
	if err != nil {
		t.Fatalf("AddSkill() error = %v", err)
	}
	want := models.Skill{
		ID:        "skill-1",
		Name:      "Piano",
		Emoji:     constants.DefaultSkillEmoji,
		Category:  constants.DefaultSkillCategory,
		CreatedAt: start.UnixMilli(),
	}
	if s.ID != want.ID || s.Name != want.Name || s.Emoji != want.Emoji || s.Category != want.Category || s.CreatedAt != want.CreatedAt {
		t.Errorf("AddSkill() = %+v, want %+v", s, want)
	}
	if s.FirstCheckAt != nil || s.LastCheckAt != nil || s.TotalChecks != 0 || s.CumulativeGrowth != 0 || s.RearmAt != 0 {
		t.Errorf("new skill has non-zero progress: %+v", s)
	}

	custom, err := f.proc.AddSkill(ctx, NewSkill{Name: "Run", Emoji: "🏃", Category: "Health"})
	if err != nil {
		t.Fatal(err)
	}
	if custom.Emoji != "🏃" || custom.Category != "Health" {
		t.Errorf("custom = %+v", custom)
	}

	skills, _ := f.proc.readSkills(ctx)
	if len(skills) != 2 || skills[0].Name != "Piano" || skills[1].Name != "Run" {
		t.Errorf("stored skills = %+v", skills)
	}
}

func TestAddSkillValidation(t *testing.T) {
	f := newFixture(t)
	for _, name := range []string{"", "   ", strings.Repeat("x", 81)} {
		_, err := f.proc.AddSkill(context.Background(), NewSkill{Name: name})
		if !perrors.HasCode(err, perrors.CodeValidation) {
			t.Errorf("AddSkill(%q) error = %v, want VALIDATION", name, err)
		}
	}
	if f.store.Len() != 0 {
		t.Errorf("rejected adds wrote %d keys", f.store.Len())
	}
}

func TestCheckSkillFirstCheck(t *testing.T) {
	f := newFixture(t)
	s := f.addSkill(t, "Piano")

	st, err := f.proc.CheckSkill(context.Background(), s.ID)
	if err != nil {
		t.Fatalf("CheckSkill() error = %v", err)
	}

	got := f.skill(t, s.ID)
	if !near(got.CumulativeGrowth, 0.1) {
		t.Errorf("cumulativeGrowth = %v, want 0.1", got.CumulativeGrowth)
	}
	if got.TotalChecks != 1 || got.ChecksTodayCount != 1 {
		t.Errorf("counters = %d/%d, want 1/1", got.TotalChecks, got.ChecksTodayCount)
	}
	nowMs := start.UnixMilli()
	if got.RearmAt != nowMs+4*time.Hour.Milliseconds() {
		t.Errorf("rearmAt = %d, want now+4h", got.RearmAt)
	}
	if got.FirstCheckAt == nil || *got.FirstCheckAt != nowMs || got.LastCheckAt == nil || *got.LastCheckAt != nowMs {
		t.Errorf("timestamps = %v/%v", got.FirstCheckAt, got.LastCheckAt)
	}

	if len(st.Skills) != 1 || !st.Skills[0].DoneToday {
		t.Errorf("returned state skills = %+v", st.Skills)
	}
	if st.Summary.DailyGP != 10 {
		t.Errorf("dailyGP = %d, want 10", st.Summary.DailyGP)
	}

	a, ok := f.alarms.Get(alarms.RearmName(s.ID))
	if !ok || a.When.UnixMilli() != got.RearmAt {
		t.Errorf("rearm alarm = %+v (registered %v)", a, ok)
	}
}

func TestCheckSkillSecondCheckPenalty(t *testing.T) {
	f := newFixture(t)
	s := f.addSkill(t, "Piano")
	ctx := context.Background()

	if _, err := f.proc.CheckSkill(ctx, s.ID); err != nil {
		t.Fatal(err)
	}
	first := f.skill(t, s.ID).CumulativeGrowth

	f.clock.Advance(4 * time.Hour)
	if _, err := f.proc.CheckSkill(ctx, s.ID); err != nil {
		t.Fatalf("second CheckSkill() error = %v", err)
	}
	got := f.skill(t, s.ID)

	// Today is marked after the first check, so the second sees 1/7 momentum
	// and earns half of that rate.
	momentum := 1.0 / 7.0
	rate := growth.GrowthRate(constants.BaseRate, momentum) * 0.5
	want := growth.ApplyCompounding(first, rate)
	if !near(got.CumulativeGrowth, want) {
		t.Errorf("cumulativeGrowth = %v, want %v", got.CumulativeGrowth, want)
	}
	if got.ChecksTodayCount != 2 || got.TotalChecks != 2 {
		t.Errorf("counters = %d/%d, want 2/2", got.TotalChecks, got.ChecksTodayCount)
	}
	if *got.FirstCheckAt != start.UnixMilli() {
		t.Error("firstCheckAt changed on second check")
	}
}

func TestCheckSkillDailyCap(t *testing.T) {
	f := newFixture(t)
	s := f.addSkill(t, "Piano")
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := f.proc.CheckSkill(ctx, s.ID); err != nil {
			t.Fatalf("check %d error = %v", i+1, err)
		}
		f.clock.Advance(4 * time.Hour)
	}
	before := f.skill(t, s.ID)

	_, err := f.proc.CheckSkill(ctx, s.ID)
	if !perrors.HasCode(err, perrors.CodeDailyCap) {
		t.Fatalf("third check error = %v, want DAILY_CAP", err)
	}
	after := f.skill(t, s.ID)
	if after.CumulativeGrowth != before.CumulativeGrowth || after.TotalChecks != before.TotalChecks {
		t.Errorf("daily cap changed the skill: %+v -> %+v", before, after)
	}
}

func TestCheckSkillAfterMissedReset(t *testing.T) {
	f := newFixture(t)
	s := f.addSkill(t, "Piano")
	ctx := context.Background()

	if _, err := f.proc.CheckSkill(ctx, s.ID); err != nil {
		t.Fatal(err)
	}
	f.clock.Advance(5 * time.Hour)
	if _, err := f.proc.CheckSkill(ctx, s.ID); err != nil {
		t.Fatal(err)
	}

	// 09:00 the next day; no daily reset ran overnight.
	f.clock.Advance(20 * time.Hour)
	if _, err := f.proc.CheckSkill(ctx, s.ID); err != nil {
		t.Fatalf("first check of a new day error = %v", err)
	}
	got := f.skill(t, s.ID)
	if got.ChecksTodayCount != 1 || got.TotalChecks != 3 {
		t.Errorf("counters = today %d total %d, want 1 and 3", got.ChecksTodayCount, got.TotalChecks)
	}

	f.clock.Advance(5 * time.Hour)
	if _, err := f.proc.CheckSkill(ctx, s.ID); err != nil {
		t.Fatalf("second check of a new day error = %v", err)
	}
	f.clock.Advance(5 * time.Hour)
	if _, err := f.proc.CheckSkill(ctx, s.ID); !perrors.HasCode(err, perrors.CodeDailyCap) {
		t.Errorf("third check error = %v, want DAILY_CAP", err)
	}
}

func TestCheckSkillRearm(t *testing.T) {
	f := newFixture(t)
	s := f.addSkill(t, "Piano")
	ctx := context.Background()

	if _, err := f.proc.CheckSkill(ctx, s.ID); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		advance time.Duration
		hours   string
	}{
		{0, "4 more hour(s)"},
		{90 * time.Minute, "3 more hour(s)"},
		{2*time.Hour + 29*time.Minute, "1 more hour(s)"},
	}
	for _, tt := range tests {
		f.clock.Advance(tt.advance)
		_, err := f.proc.CheckSkill(ctx, s.ID)
		if !perrors.HasCode(err, perrors.CodeRearm) {
			t.Fatalf("error = %v, want REARM", err)
		}
		if !strings.Contains(err.Error(), tt.hours) {
			t.Errorf("error = %q, want %q", err.Error(), tt.hours)
		}
	}

	f.clock.Advance(time.Minute)
	if _, err := f.proc.CheckSkill(ctx, s.ID); err != nil {
		t.Errorf("check after cooldown error = %v", err)
	}
}

func TestCheckSkillNotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.proc.CheckSkill(context.Background(), "missing")
	if !perrors.HasCode(err, perrors.CodeNotFound) {
		t.Errorf("error = %v, want NOT_FOUND", err)
	}
	_, err = f.proc.CheckSkill(context.Background(), "")
	if !perrors.HasCode(err, perrors.CodeValidation) {
		t.Errorf("error = %v, want VALIDATION", err)
	}
}

func TestCheckSkillPartialWrite(t *testing.T) {
	f := newFixture(t)
	s := f.addSkill(t, "Piano")
	logKey := constants.DayLogKey(s.ID)
	f.store.FailOn(logKey, errors.New("disk full"))

	_, err := f.proc.CheckSkill(context.Background(), s.ID)
	if perrors.CodeOf(err) != perrors.CodeInternal {
		t.Fatalf("error = %v, want ERROR", err)
	}
	if !strings.Contains(err.Error(), logKey) {
		t.Errorf("error %q does not name %s", err.Error(), logKey)
	}

	// The skill list was written; the log was not.
	if got := f.skill(t, s.ID); got.TotalChecks != 1 {
		t.Errorf("totalChecks = %d, want 1 after partial write", got.TotalChecks)
	}
	snap, _ := f.repo.Read(context.Background(), logKey)
	if snap.Has(logKey) {
		t.Error("day log should not have been written")
	}
	if _, ok := f.alarms.Get(alarms.RearmName(s.ID)); ok {
		t.Error("rearm alarm scheduled despite failed write")
	}
}

// gatedStore holds the first n reads of the skill list until all n have
// arrived, forcing concurrent commands to read the same snapshot.
type gatedStore struct {
	*memory.Store
	mu      sync.Mutex
	pending int
	release chan struct{}
}

func (g *gatedStore) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := g.Store.Get(ctx, key)
	if key != constants.KeySkills {
		return v, err
	}
	g.mu.Lock()
	if g.pending > 0 {
		g.pending--
		if g.pending == 0 {
			close(g.release)
		}
		g.mu.Unlock()
		<-g.release
		return v, err
	}
	g.mu.Unlock()
	return v, err
}

func TestConcurrentChecksLoseAnUpdate(t *testing.T) {
	base := memory.New()
	gated := &gatedStore{Store: base, release: make(chan struct{})}
	clock := &fakeClock{now: start}
	mgr := alarms.NewManager(nil, alarms.WithClock(clock.Now))
	defer mgr.Close()
	proc := NewProcessor(storage.NewRepository(gated), time.UTC, WithClock(clock.Now), WithAlarms(mgr))

	ctx := context.Background()
	s, err := proc.AddSkill(ctx, NewSkill{Name: "Piano"})
	if err != nil {
		t.Fatal(err)
	}

	gated.mu.Lock()
	gated.pending = 2
	gated.mu.Unlock()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = proc.CheckSkill(ctx, s.ID)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("check %d error = %v", i, err)
		}
	}
	skills, _ := proc.readSkills(ctx)
	if skills[0].TotalChecks != 1 {
		t.Errorf("totalChecks = %d; both checks read the same snapshot so one increment is lost", skills[0].TotalChecks)
	}
}

func TestUpdateSkill(t *testing.T) {
	f := newFixture(t)
	s := f.addSkill(t, "Piano")
	ctx := context.Background()

	name := "  Grand Piano "
	emoji := "🎹"
	updated, err := f.proc.UpdateSkill(ctx, s.ID, models.SkillPatch{Name: &name, Emoji: &emoji})
	if err != nil {
		t.Fatalf("UpdateSkill() error = %v", err)
	}
	if updated.Name != "Grand Piano" || updated.Emoji != "🎹" || updated.Category != constants.DefaultSkillCategory {
		t.Errorf("updated = %+v", updated)
	}

	empty := ""
	if _, err := f.proc.UpdateSkill(ctx, s.ID, models.SkillPatch{Name: &empty}); !perrors.HasCode(err, perrors.CodeValidation) {
		t.Errorf("empty name error = %v, want VALIDATION", err)
	}
	if _, err := f.proc.UpdateSkill(ctx, "nope", models.SkillPatch{Emoji: &emoji}); !perrors.HasCode(err, perrors.CodeNotFound) {
		t.Errorf("missing skill error = %v, want NOT_FOUND", err)
	}
}

func TestUpdateSkillIgnoresComputedFields(t *testing.T) {
	f := newFixture(t)
	s := f.addSkill(t, "Piano")

	resp := f.dispatch(t, CmdUpdateSkill, map[string]any{
		"skillId": s.ID,
		"patch": map[string]any{
			"name":             "Keys",
			"cumulativeGrowth": 999,
			"totalChecks":      50,
			"rearmAt":          1,
			"id":               "hijack",
		},
	})
	var got models.Skill
	resultAs(t, resp, &got)

	stored := f.skill(t, s.ID)
	if stored.Name != "Keys" || got.Name != "Keys" {
		t.Errorf("name = %q/%q, want Keys", stored.Name, got.Name)
	}
	if stored.CumulativeGrowth != 0 || stored.TotalChecks != 0 || stored.RearmAt != 0 {
		t.Errorf("computed fields changed: %+v", stored)
	}
}

func TestDeleteSkill(t *testing.T) {
	f := newFixture(t)
	keep := f.addSkill(t, "Keep")
	drop := f.addSkill(t, "Drop")
	ctx := context.Background()
	if _, err := f.proc.CheckSkill(ctx, drop.ID); err != nil {
		t.Fatal(err)
	}

	if err := f.proc.DeleteSkill(ctx, drop.ID); err != nil {
		t.Fatalf("DeleteSkill() error = %v", err)
	}
	skills, _ := f.proc.readSkills(ctx)
	if len(skills) != 1 || skills[0].ID != keep.ID {
		t.Errorf("skills = %+v", skills)
	}
	snap, _ := f.repo.ReadAll(ctx)
	if snap.Has(constants.DayLogKey(drop.ID)) {
		t.Error("day log not removed")
	}
	if _, ok := f.alarms.Get(alarms.RearmName(drop.ID)); ok {
		t.Error("rearm alarm not cleared")
	}

	if err := f.proc.DeleteSkill(ctx, drop.ID); !perrors.HasCode(err, perrors.CodeNotFound) {
		t.Errorf("second delete error = %v, want NOT_FOUND", err)
	}
}

func TestSetName(t *testing.T) {
	n := 0
	f := newFixture(t, WithIDs(nil, func() string {
		n++
		return "local_" + strings.Repeat(string(rune('0'+n)), 8)
	}))
	ctx := context.Background()

	name, err := f.proc.SetName(ctx, "  Sam ")
	if err != nil || name != "Sam" {
		t.Fatalf("SetName() = %q, %v", name, err)
	}
	st, _ := f.proc.GetState(ctx)
	first := st.User
	if first == nil || first.Name != "Sam" || first.Mode != models.UserModeLocal || first.ID != "local_11111111" {
		t.Errorf("user = %+v", first)
	}

	if _, err := f.proc.SetName(ctx, ""); err != nil {
		t.Fatal(err)
	}
	st, _ = f.proc.GetState(ctx)
	if st.User.Name != "" || st.User.ID == first.ID {
		t.Errorf("user after clear = %+v; a rename always mints a new identity", st.User)
	}
}

func TestDefaultUserID(t *testing.T) {
	id := newLocalUserID()
	if !strings.HasPrefix(id, "local_") || len(id) != len("local_")+8 {
		t.Errorf("newLocalUserID() = %q", id)
	}
}

func TestResetAccount(t *testing.T) {
	hookCalls := 0
	f := newFixture(t, WithResetHook(func(context.Context) error {
		hookCalls++
		return errors.New("backup failed")
	}))
	ctx := context.Background()

	s := f.addSkill(t, "Piano")
	if _, err := f.proc.CheckSkill(ctx, s.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := f.proc.StartTimer(ctx, s.ID, 600); err != nil {
		t.Fatal(err)
	}

	if err := f.proc.ResetAccount(ctx); err != nil {
		t.Fatalf("ResetAccount() error = %v", err)
	}
	if hookCalls != 1 {
		t.Errorf("reset hook called %d times", hookCalls)
	}

	st, err := f.proc.GetState(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(st.Skills) != 0 || !st.Meta.Welcome || st.Meta.Version != 1 {
		t.Errorf("state after reset = %+v", st)
	}
	if st.User == nil || st.User.Mode != models.UserModeLocal || st.User.Name != "" {
		t.Errorf("user after reset = %+v", st.User)
	}
	snap, _ := f.repo.ReadAll(ctx)
	if snap.Has(constants.KeyFocusTimer) || snap.Has(constants.DayLogKey(s.ID)) {
		t.Errorf("keys after reset = %v", snap.Keys())
	}

	list := f.alarms.List()
	if len(list) != 1 || list[0].Name != constants.AlarmDailyReset {
		t.Errorf("alarms after reset = %+v", list)
	}
	if f.badge.Text() != "" {
		t.Errorf("badge = %q after reset", f.badge.Text())
	}
}

func TestQuotaExceeded(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var err error
	for i := 0; i < 200 && err == nil; i++ {
		_, err = f.proc.AddSkill(ctx, NewSkill{Name: strings.Repeat("n", 60)})
	}
	if !perrors.HasCode(err, perrors.CodeQuotaExceeded) {
		t.Fatalf("error = %v, want QUOTA_EXCEEDED", err)
	}

	raw, _ := f.store.Get(ctx, constants.KeySkills)
	if len(raw) > constants.ItemSafeSize {
		t.Errorf("stored skills are %d bytes, over the ceiling", len(raw))
	}
}

func TestCheckSkillOversizedLogWritesNothing(t *testing.T) {
	f := newFixture(t)
	s := f.addSkill(t, "Piano")
	ctx := context.Background()

	// 465 past days encode to 6987 bytes; one more entry crosses the ceiling.
	l := models.NewDayLog()
	day := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 465; i++ {
		l.Mark(day.AddDate(0, 0, i).Format(constants.DateFormat))
	}
	logKey := constants.DayLogKey(s.ID)
	if err := f.repo.WriteItem(ctx, logKey, l); err != nil {
		t.Fatalf("seeding day log: %v", err)
	}
	before := f.store.Writes()

	_, err := f.proc.CheckSkill(ctx, s.ID)
	if !perrors.HasCode(err, perrors.CodeQuotaExceeded) {
		t.Fatalf("error = %v, want QUOTA_EXCEEDED", err)
	}
	if got := f.store.Writes(); got != before {
		t.Errorf("writes = %d, want %d", got, before)
	}
	got := f.skill(t, s.ID)
	if got.TotalChecks != 0 || got.CumulativeGrowth != 0 {
		t.Errorf("skill credited despite rejection: %+v", got)
	}
	if _, ok := f.alarms.Get(alarms.RearmName(s.ID)); ok {
		t.Error("rearm alarm scheduled despite rejection")
	}
}

func TestMutationsPublishStateUpdated(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sub := f.hub.Subscribe(ctx, 8)

	f.addSkill(t, "Piano")

	select {
	case evt := <-sub:
		if evt.Type != eventbus.StateUpdated || evt.Data["command"] != CmdAddSkill {
			t.Errorf("event = %+v", evt)
		}
	case <-time.After(time.Second):
		t.Fatal("no event published")
	}
}
