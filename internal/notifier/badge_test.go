package notifier

import (
	"context"
	"errors"
	"testing"
)

func TestMinutesBadge(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{0, ""},
		{-5, ""},
		{30, "1m"},
		{60, "1m"},
		{599, "9m"},
		{1500, "25m"},
	}
	for _, tt := range tests {
		if got := MinutesBadge(tt.seconds); got != tt.want {
			t.Errorf("MinutesBadge(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
	if got := PausedBadge(20); got != "||1m" {
		t.Errorf("PausedBadge(20) = %q, want ||1m", got)
	}
	if got := PausedBadge(600); got != "||10m" {
		t.Errorf("PausedBadge(600) = %q, want ||10m", got)
	}
}

func TestMemoryBadge(t *testing.T) {
	var changes []string
	b := NewMemoryBadge(func(s string) { changes = append(changes, s) })

	b.Set("5m")
	b.Set("5m")
	b.Set("4m")
	b.Clear()

	if b.Text() != "" {
		t.Errorf("Text() = %q after Clear", b.Text())
	}
	want := []string{"5m", "4m", ""}
	if len(changes) != len(want) {
		t.Fatalf("changes = %v, want %v", changes, want)
	}
	for i := range want {
		if changes[i] != want[i] {
			t.Errorf("changes[%d] = %q, want %q", i, changes[i], want[i])
		}
	}
}

func TestRecorder(t *testing.T) {
	r := &Recorder{}
	_ = r.Notify(context.Background(), "a")
	r.Err = errors.New("down")
	if err := r.Notify(context.Background(), "b"); err == nil {
		t.Error("expected configured error")
	}
	if got := r.Messages(); len(got) != 2 || got[1] != "b" {
		t.Errorf("Messages() = %v", got)
	}
}
