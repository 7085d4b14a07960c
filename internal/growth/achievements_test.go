package growth

import (
	"testing"

	"github.com/julianstephens/skillpulse/internal/models"
)

func TestSortSkills(t *testing.T) {
	skills := []models.Skill{
		{ID: "a", CumulativeGrowth: 1, CreatedAt: 30},
		{ID: "b", CumulativeGrowth: 5, CreatedAt: 20},
		{ID: "c", CumulativeGrowth: 1, CreatedAt: 10},
	}
	got := SortSkills(skills)
	want := []string{"b", "c", "a"}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("SortSkills() order = %v, want %v", skillIDs(got), want)
		}
	}
	if skills[0].ID != "a" {
		t.Error("SortSkills() must not reorder its input")
	}
}

func TestAchievements(t *testing.T) {
	today := "2024-03-10"

	t.Run("hit day", func(t *testing.T) {
		var skills []models.Skill
		logs := map[string]models.DayLog{}
		for _, id := range []string{"s1", "s2", "s3", "s4", "s5"} {
			skills = append(skills, models.Skill{ID: id, Name: id})
			logs[id] = *logOf(today)
		}
		got := Achievements(skills, logs, today)
		if !hasAchievement(got, "hit_day") {
			t.Errorf("Achievements() = %v, want hit_day", achievementIDs(got))
		}
	})

	t.Run("four skills is not a hit day", func(t *testing.T) {
		var skills []models.Skill
		logs := map[string]models.DayLog{}
		for _, id := range []string{"s1", "s2", "s3", "s4"} {
			skills = append(skills, models.Skill{ID: id})
			logs[id] = *logOf(today)
		}
		if hasAchievement(Achievements(skills, logs, today), "hit_day") {
			t.Error("hit_day awarded for four skills")
		}
	})

	t.Run("streak", func(t *testing.T) {
		skills := []models.Skill{{ID: "p", Name: "Piano"}}
		logs := map[string]models.DayLog{"p": *logOf("2024-03-08", "2024-03-09", today)}
		got := Achievements(skills, logs, today)
		if !hasAchievement(got, "streak_3_p") {
			t.Errorf("Achievements() = %v, want streak_3_p", achievementIDs(got))
		}
		if hasAchievement(got, "comeback_p") {
			t.Error("comeback awarded during a streak")
		}
	})

	t.Run("no streak without today", func(t *testing.T) {
		skills := []models.Skill{{ID: "p"}}
		logs := map[string]models.DayLog{"p": *logOf("2024-03-07", "2024-03-08", "2024-03-09")}
		if got := Achievements(skills, logs, today); len(got) != 0 {
			t.Errorf("Achievements() = %v, want none", achievementIDs(got))
		}
	})

	t.Run("comeback", func(t *testing.T) {
		skills := []models.Skill{{ID: "p", Name: "Piano"}}
		logs := map[string]models.DayLog{"p": *logOf("2024-03-03", today)}
		if got := Achievements(skills, logs, today); !hasAchievement(got, "comeback_p") {
			t.Errorf("Achievements() = %v, want comeback_p", achievementIDs(got))
		}

		logs["p"] = *logOf("2024-03-04", today)
		if got := Achievements(skills, logs, today); hasAchievement(got, "comeback_p") {
			t.Error("comeback awarded for a six day gap")
		}
	})

	t.Run("personal record", func(t *testing.T) {
		skills := []models.Skill{{ID: "r", Name: "Run"}}
		logs := map[string]models.DayLog{"r": {ByDate: map[string]float64{"2024-03-09": 3, today: 5}}}
		got := Achievements(skills, logs, today)
		if !hasAchievement(got, "personal_record_r") {
			t.Fatalf("Achievements() = %v, want personal_record_r", achievementIDs(got))
		}

		logs["r"] = models.DayLog{ByDate: map[string]float64{"2024-03-09": 5, today: 5}}
		if hasAchievement(Achievements(skills, logs, today), "personal_record_r") {
			t.Error("personal record awarded without improvement")
		}
	})
}

func hasAchievement(list []models.Achievement, id string) bool {
	for _, a := range list {
		if a.ID == id {
			return true
		}
	}
	return false
}

func skillIDs(skills []models.Skill) []string {
	out := make([]string, len(skills))
	for i, s := range skills {
		out[i] = s.ID
	}
	return out
}

func achievementIDs(list []models.Achievement) []string {
	out := make([]string, len(list))
	for i, a := range list {
		out[i] = a.ID
	}
	return out
}
