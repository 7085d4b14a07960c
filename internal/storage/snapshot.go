package storage

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/julianstephens/skillpulse/internal/constants"
	"github.com/julianstephens/skillpulse/internal/models"
)

// Snapshot is a point-in-time copy of persisted items with typed accessors.
type Snapshot struct {
	items map[string]json.RawMessage
}

// NewSnapshot builds a snapshot from raw items. Mostly useful in tests.
func NewSnapshot(items map[string]json.RawMessage) Snapshot {
	if items == nil {
		items = map[string]json.RawMessage{}
	}
	return Snapshot{items: items}
}

// Keys returns the stored keys in lexical order.
func (s Snapshot) Keys() []string {
	keys := make([]string, 0, len(s.items))
	for k := range s.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Has reports whether key is present with a non-null value.
func (s Snapshot) Has(key string) bool {
	raw, ok := s.items[key]
	return ok && !isNull(raw)
}

// Raw returns the stored document for key.
func (s Snapshot) Raw(key string) (json.RawMessage, bool) {
	raw, ok := s.items[key]
	return raw, ok
}

// Decode unmarshals key into v. It reports false when the key is absent or null.
func (s Snapshot) Decode(key string, v any) (bool, error) {
	raw, ok := s.items[key]
	if !ok || isNull(raw) {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (s Snapshot) User() (*models.User, error) {
	var u models.User
	ok, err := s.Decode(constants.KeyUser, &u)
	if err != nil || !ok {
		return nil, err
	}
	return &u, nil
}

func (s Snapshot) Skills() ([]models.Skill, error) {
	var skills []models.Skill
	if _, err := s.Decode(constants.KeySkills, &skills); err != nil {
		return nil, err
	}
	if skills == nil {
		skills = []models.Skill{}
	}
	return skills, nil
}

// DayLog returns the skill's log, or an empty one when none is stored.
func (s Snapshot) DayLog(skillID string) (models.DayLog, error) {
	l := models.NewDayLog()
	if _, err := s.Decode(constants.DayLogKey(skillID), &l); err != nil {
		return models.NewDayLog(), err
	}
	if l.ByDate == nil {
		l.ByDate = map[string]float64{}
	}
	return l, nil
}

// DayLogs returns the log of every skill, keyed by skill id.
func (s Snapshot) DayLogs(skills []models.Skill) (map[string]models.DayLog, error) {
	out := make(map[string]models.DayLog, len(skills))
	for _, sk := range skills {
		l, err := s.DayLog(sk.ID)
		if err != nil {
			return nil, err
		}
		out[sk.ID] = l
	}
	return out, nil
}

// OrphanDayLogs lists day-log keys whose skill no longer exists.
func (s Snapshot) OrphanDayLogs(skills []models.Skill) []string {
	known := make(map[string]bool, len(skills))
	for _, sk := range skills {
		known[sk.ID] = true
	}
	var out []string
	for _, k := range s.Keys() {
		if id, ok := strings.CutPrefix(k, constants.DayLogPrefix); ok && !known[id] {
			out = append(out, k)
		}
	}
	return out
}

// FocusTimer returns the active timer, or nil when the slot is empty.
func (s Snapshot) FocusTimer() (*models.FocusTimer, error) {
	var t models.FocusTimer
	ok, err := s.Decode(constants.KeyFocusTimer, &t)
	if err != nil || !ok {
		return nil, err
	}
	return &t, nil
}

func (s Snapshot) Meta() (models.Meta, error) {
	var m models.Meta
	_, err := s.Decode(constants.KeyMeta, &m)
	return m, err
}
