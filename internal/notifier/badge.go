package notifier

import (
	"context"
	"fmt"
	"sync"
)

// Badge is the short status indicator shown next to the app (remaining focus
// minutes, or a paused marker).
type Badge interface {
	Set(text string)
	Clear()
	Text() string
}

// MinutesBadge renders remaining seconds as whole minutes, never below 1m
// while time remains. Zero or negative input yields an empty badge.
func MinutesBadge(remainingSeconds int) string {
	if remainingSeconds <= 0 {
		return ""
	}
	return fmt.Sprintf("%dm", max(1, remainingSeconds/60))
}

// PausedBadge marks a paused session with its remaining minutes.
func PausedBadge(remainingSeconds int) string {
	return fmt.Sprintf("||%dm", max(1, remainingSeconds/60))
}

// MemoryBadge keeps the badge text in process. The daemon exposes it over
// HTTP for tray and status-bar clients.
type MemoryBadge struct {
	mu       sync.RWMutex
	text     string
	onChange func(string)
}

// NewMemoryBadge returns an empty badge. onChange, if set, is called after
// every change with the new text.
func NewMemoryBadge(onChange func(string)) *MemoryBadge {
	return &MemoryBadge{onChange: onChange}
}

func (b *MemoryBadge) Set(text string) {
	b.mu.Lock()
	changed := b.text != text
	b.text = text
	b.mu.Unlock()
	if changed && b.onChange != nil {
		b.onChange(text)
	}
}

func (b *MemoryBadge) Clear() {
	b.Set("")
}

func (b *MemoryBadge) Text() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.text
}

// Recorder captures notifications in memory.
type Recorder struct {
	mu       sync.Mutex
	messages []string
	Err      error
}

func (r *Recorder) Notify(_ context.Context, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, text)
	return r.Err
}

// Messages returns a copy of everything passed to Notify.
func (r *Recorder) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.messages...)
}
