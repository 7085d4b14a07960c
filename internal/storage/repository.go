package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/julianstephens/skillpulse/internal/constants"
	perrors "github.com/julianstephens/skillpulse/internal/errors"
	"github.com/julianstephens/skillpulse/internal/logger"
)

// Repository owns typed, size-checked access to a Provider.
type Repository struct {
	provider Provider
	limit    int

	// takeMu serializes TakeAndClear so a value is handed to one caller only.
	takeMu sync.Mutex
}

// NewRepository wraps p with the default per-item ceiling.
func NewRepository(p Provider) *Repository {
	return &Repository{provider: p, limit: constants.ItemSafeSize}
}

// Provider returns the wrapped backing store.
func (r *Repository) Provider() Provider {
	return r.provider
}

// ReadAll returns every persisted item in one round trip.
func (r *Repository) ReadAll(ctx context.Context) (Snapshot, error) {
	items, err := r.provider.GetAll(ctx)
	if err != nil {
		return Snapshot{}, perrors.Wrap(perrors.CodeInternal, err, "read state")
	}
	snap := Snapshot{items: make(map[string]json.RawMessage, len(items))}
	for k, v := range items {
		snap.items[k] = v
	}
	return snap, nil
}

// Read returns a snapshot holding only keys. Missing keys are simply absent.
func (r *Repository) Read(ctx context.Context, keys ...string) (Snapshot, error) {
	snap := Snapshot{items: make(map[string]json.RawMessage, len(keys))}
	for _, k := range keys {
		v, err := r.provider.Get(ctx, k)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return Snapshot{}, perrors.Wrap(perrors.CodeInternal, err, fmt.Sprintf("read %s", k))
		}
		snap.items[k] = v
	}
	return snap, nil
}

// Encode serializes value and enforces the per-item ceiling.
func (r *Repository) Encode(key string, value any) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, perrors.Wrap(perrors.CodeInternal, err, fmt.Sprintf("encode %s", key))
	}
	if len(data) > r.limit {
		return nil, perrors.QuotaExceeded(key, len(data), r.limit)
	}
	return data, nil
}

// WriteItem stores value under key. Oversized values are rejected with
// QUOTA_EXCEEDED and the stored item is left untouched.
func (r *Repository) WriteItem(ctx context.Context, key string, value any) error {
	data, err := r.Encode(key, value)
	if err != nil {
		logger.Warn("Rejected write", "key", key, "error", err)
		return err
	}
	if err := r.provider.Set(ctx, key, data); err != nil {
		return perrors.Wrap(perrors.CodeInternal, err, fmt.Sprintf("write %s", key))
	}
	return nil
}

// Entry is one key of a joint write.
type Entry struct {
	Key   string
	Value any
}

// WriteResult reports the outcome of every key in a joint write.
type WriteResult struct {
	Written []string
	Failed  map[string]error
}

// OK reports whether every key was written.
func (w WriteResult) OK() bool {
	return len(w.Failed) == 0
}

// Err summarizes the failures, or returns nil. A single failure is returned
// as-is so its code survives; several are folded into one ERROR naming the
// keys, unless one of them is a quota rejection.
func (w WriteResult) Err() error {
	if len(w.Failed) == 0 {
		return nil
	}
	keys := make([]string, 0, len(w.Failed))
	for k := range w.Failed {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) == 1 {
		return w.Failed[keys[0]]
	}
	for _, k := range keys {
		if perrors.HasCode(w.Failed[k], perrors.CodeQuotaExceeded) {
			return w.Failed[k]
		}
	}
	return perrors.Newf(perrors.CodeInternal, "partial write: failed keys %s (written: %s)",
		strings.Join(keys, ", "), strings.Join(w.Written, ", "))
}

// WriteMany writes entries in order and keeps going after a failure. It is
// not atomic across keys: a failed entry leaves earlier entries committed.
func (r *Repository) WriteMany(ctx context.Context, entries ...Entry) WriteResult {
	res := WriteResult{}
	for _, e := range entries {
		if err := r.WriteItem(ctx, e.Key, e.Value); err != nil {
			if res.Failed == nil {
				res.Failed = make(map[string]error)
			}
			res.Failed[e.Key] = err
			continue
		}
		res.Written = append(res.Written, e.Key)
	}
	if !res.OK() && len(res.Written) > 0 {
		logger.Error("Joint write left keys inconsistent", "written", res.Written, "failed", len(res.Failed))
	}
	return res
}

// RemoveKeys deletes keys. Absent keys are ignored.
func (r *Repository) RemoveKeys(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := r.provider.Remove(ctx, keys...); err != nil {
		return perrors.Wrap(perrors.CodeInternal, err, fmt.Sprintf("remove %s", strings.Join(keys, ", ")))
	}
	return nil
}

// ClearAll deletes every item.
func (r *Repository) ClearAll(ctx context.Context) error {
	if err := r.provider.Clear(ctx); err != nil {
		return perrors.Wrap(perrors.CodeInternal, err, "clear store")
	}
	return nil
}

// TakeAndClear reads key and removes it before returning, so within this
// process no later caller sees the value. When match is non-nil and rejects
// the stored value, nothing is removed and ok is false. A missing or null
// value also yields ok == false.
func (r *Repository) TakeAndClear(ctx context.Context, key string, match func(json.RawMessage) bool) (value json.RawMessage, ok bool, err error) {
	r.takeMu.Lock()
	defer r.takeMu.Unlock()

	raw, err := r.provider.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, perrors.Wrap(perrors.CodeInternal, err, fmt.Sprintf("read %s", key))
	}
	if isNull(raw) {
		return nil, false, nil
	}
	if match != nil && !match(raw) {
		return nil, false, nil
	}
	if err := r.provider.Remove(ctx, key); err != nil {
		return nil, false, perrors.Wrap(perrors.CodeInternal, err, fmt.Sprintf("remove %s", key))
	}
	return raw, true, nil
}

func isNull(raw []byte) bool {
	s := strings.TrimSpace(string(raw))
	return s == "" || s == "null"
}
