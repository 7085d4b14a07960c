package validation

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/julianstephens/skillpulse/internal/constants"
	perrors "github.com/julianstephens/skillpulse/internal/errors"
	"github.com/julianstephens/skillpulse/internal/models"
	"github.com/julianstephens/skillpulse/internal/storage"
)

// SkillName trims raw and checks it is 1..80 characters long.
func SkillName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", perrors.Validation("Skill name cannot be empty")
	}
	if utf8.RuneCountInString(name) > constants.MaxSkillNameLength {
		return "", perrors.Validation("Skill name too long (max %d characters)", constants.MaxSkillNameLength)
	}
	return name, nil
}

// FocusDuration checks a focus session length in seconds.
func FocusDuration(seconds int) error {
	if seconds <= 0 || seconds > constants.MaxFocusDurationSeconds {
		return perrors.Validation("Duration must be between 1 second and 3 hours")
	}
	return nil
}

// ConflictType represents the type of integrity problem found in stored state
type ConflictType string

const (
	ConflictDuplicateSkillID   ConflictType = "duplicate_skill_id"
	ConflictInvalidSkillName   ConflictType = "invalid_skill_name"
	ConflictCounterOutOfRange  ConflictType = "counter_out_of_range"
	ConflictInvalidGrowth      ConflictType = "invalid_growth"
	ConflictOrphanDayLog       ConflictType = "orphan_day_log"
	ConflictInvalidDayKey      ConflictType = "invalid_day_key"
	ConflictTimerUnknownSkill  ConflictType = "timer_unknown_skill"
	ConflictUnreadableDocument ConflictType = "unreadable_document"
)

// Conflict represents a detected problem
type Conflict struct {
	Type        ConflictType
	Description string
	Items       []string // Skill names involved
	SkillIDs    []string
	Keys        []string // Persisted keys involved (for auto-fixing)
}

// ValidationResult contains all detected conflicts
type ValidationResult struct {
	Conflicts []Conflict
}

// FixAction represents an action taken during auto-fix
type FixAction struct {
	Action         string
	SourceConflict Conflict
}

// HasConflicts returns true if there are any conflicts
func (vr *ValidationResult) HasConflicts() bool {
	return len(vr.Conflicts) > 0
}

// FormatReport returns a human-readable report of all conflicts
func (vr *ValidationResult) FormatReport() string {
	if !vr.HasConflicts() {
		return "No conflicts detected."
	}

	var report strings.Builder
	report.WriteString("Conflicts detected:\n")
	for _, conflict := range vr.Conflicts {
		fmt.Fprintf(&report, "- %s\n", conflict.Description)
	}
	return report.String()
}

// Validator checks persisted state for inconsistencies that commands never
// produce on their own (hand edits, partial writes, old data).
type Validator struct{}

func New() *Validator {
	return &Validator{}
}

// ValidateSnapshot inspects every stored document.
func (v *Validator) ValidateSnapshot(snap storage.Snapshot) ValidationResult {
	result := ValidationResult{Conflicts: []Conflict{}}

	skills, err := snap.Skills()
	if err != nil {
		result.Conflicts = append(result.Conflicts, Conflict{
			Type:        ConflictUnreadableDocument,
			Description: fmt.Sprintf("Skill list cannot be read: %v", err),
			Keys:        []string{constants.KeySkills},
		})
		return result
	}
	result.Conflicts = append(result.Conflicts, v.ValidateSkills(skills)...)

	for _, s := range skills {
		l, err := snap.DayLog(s.ID)
		key := constants.DayLogKey(s.ID)
		if err != nil {
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictUnreadableDocument,
				Description: fmt.Sprintf("Day log of \"%s\" cannot be read: %v", s.Name, err),
				Items:       []string{s.Name},
				SkillIDs:    []string{s.ID},
				Keys:        []string{key},
			})
			continue
		}
		var bad []string
		for day := range l.ByDate {
			if !isValidDayKey(day) {
				bad = append(bad, day)
			}
		}
		if len(bad) > 0 {
			sort.Strings(bad)
			result.Conflicts = append(result.Conflicts, Conflict{
				Type:        ConflictInvalidDayKey,
				Description: fmt.Sprintf("Day log of \"%s\" has invalid dates: %v", s.Name, bad),
				Items:       []string{s.Name},
				SkillIDs:    []string{s.ID},
				Keys:        []string{key},
			})
		}
	}

	if orphans := snap.OrphanDayLogs(skills); len(orphans) > 0 {
		result.Conflicts = append(result.Conflicts, Conflict{
			Type:        ConflictOrphanDayLog,
			Description: fmt.Sprintf("Day logs without a skill: %v", orphans),
			Keys:        orphans,
		})
	}

	timer, err := snap.FocusTimer()
	switch {
	case err != nil:
		result.Conflicts = append(result.Conflicts, Conflict{
			Type:        ConflictUnreadableDocument,
			Description: fmt.Sprintf("Focus timer cannot be read: %v", err),
			Keys:        []string{constants.KeyFocusTimer},
		})
	case timer != nil && !containsSkill(skills, timer.SkillID):
		result.Conflicts = append(result.Conflicts, Conflict{
			Type:        ConflictTimerUnknownSkill,
			Description: fmt.Sprintf("Focus timer refers to unknown skill %s (%s)", timer.SkillID, timer.SkillName),
			SkillIDs:    []string{timer.SkillID},
			Keys:        []string{constants.KeyFocusTimer},
		})
	}

	return result
}

// ValidateSkills checks skill records in isolation.
func (v *Validator) ValidateSkills(skills []models.Skill) []Conflict {
	var conflicts []Conflict

	seen := make(map[string][]string)
	for _, s := range skills {
		seen[s.ID] = append(seen[s.ID], s.Name)
	}
	for _, s := range skills {
		names, ok := seen[s.ID]
		if !ok {
			continue
		}
		if len(names) > 1 {
			conflicts = append(conflicts, Conflict{
				Type:        ConflictDuplicateSkillID,
				Description: fmt.Sprintf("Skill id %s is used %d times (%v)", s.ID, len(names), names),
				Items:       names,
				SkillIDs:    []string{s.ID},
			})
		}
		delete(seen, s.ID)
	}

	for _, s := range skills {
		if _, err := SkillName(s.Name); err != nil || strings.TrimSpace(s.Name) != s.Name {
			conflicts = append(conflicts, Conflict{
				Type:        ConflictInvalidSkillName,
				Description: fmt.Sprintf("Skill %s has an invalid name: %q", s.ID, s.Name),
				Items:       []string{s.Name},
				SkillIDs:    []string{s.ID},
			})
		}
		if s.ChecksTodayCount < 0 || s.ChecksTodayCount > constants.MaxChecksPerDay || s.TotalChecks < 0 {
			conflicts = append(conflicts, Conflict{
				Type:        ConflictCounterOutOfRange,
				Description: fmt.Sprintf("Skill \"%s\" has counters out of range (today %d, total %d)", s.Name, s.ChecksTodayCount, s.TotalChecks),
				Items:       []string{s.Name},
				SkillIDs:    []string{s.ID},
			})
		}
		if s.CumulativeGrowth < 0 || math.IsNaN(s.CumulativeGrowth) || math.IsInf(s.CumulativeGrowth, 0) {
			conflicts = append(conflicts, Conflict{
				Type:        ConflictInvalidGrowth,
				Description: fmt.Sprintf("Skill \"%s\" has invalid cumulative growth %v", s.Name, s.CumulativeGrowth),
				Items:       []string{s.Name},
				SkillIDs:    []string{s.ID},
			})
		}
	}
	return conflicts
}

// AutoFixOrphans removes orphaned day logs and a focus timer that points at a
// deleted skill. Returns a slice of FixActions describing what was fixed.
func AutoFixOrphans(conflicts []Conflict, removeFunc func(keys ...string) error) []FixAction {
	actions := []FixAction{}
	for _, conflict := range conflicts {
		if conflict.Type != ConflictOrphanDayLog && conflict.Type != ConflictTimerUnknownSkill {
			continue
		}
		if len(conflict.Keys) == 0 {
			continue
		}
		if err := removeFunc(conflict.Keys...); err != nil {
			actions = append(actions, FixAction{
				Action:         fmt.Sprintf("Failed to remove %v: %v", conflict.Keys, err),
				SourceConflict: conflict,
			})
			continue
		}
		actions = append(actions, FixAction{
			Action:         fmt.Sprintf("Removed %v", conflict.Keys),
			SourceConflict: conflict,
		})
	}
	return actions
}

func isValidDayKey(day string) bool {
	if len(day) != len(constants.DateFormat) {
		return false
	}
	_, err := time.Parse(constants.DateFormat, day)
	return err == nil
}

func containsSkill(skills []models.Skill, id string) bool {
	for _, s := range skills {
		if s.ID == id {
			return true
		}
	}
	return false
}
