package growth

import (
	"math"

	"github.com/julianstephens/skillpulse/internal/constants"
	"github.com/julianstephens/skillpulse/internal/models"
)

// Curve is an exponential leveling curve: level L (L >= 1) costs
// floor(Base * Multiplier^(L-1)) points on top of every lower level.
type Curve struct {
	Base       float64
	Multiplier float64
}

var (
	SkillCurve       = Curve{Base: constants.SkillLevelBaseGP, Multiplier: constants.SkillLevelMultiplier}
	PersonalityCurve = Curve{Base: constants.PersonalityLevelBaseGP, Multiplier: constants.PersonalityLevelMultiplier}
)

// Cost returns the points needed to go from level-1 to level.
func (c Curve) Cost(level int) float64 {
	if level <= 0 {
		return 0
	}
	return math.Floor(c.Base * math.Pow(c.Multiplier, float64(level-1)))
}

// TotalPointsNeeded returns the cumulative points required to reach level.
func (c Curve) TotalPointsNeeded(level int) float64 {
	total := 0.0
	for l := 1; l <= level; l++ {
		total += c.Cost(l)
	}
	return total
}

// Level places points on the curve.
func (c Curve) Level(points float64) models.LevelInfo {
	if points < 0 || math.IsNaN(points) {
		points = 0
	}
	level := 0
	threshold := 0.0
	for level < constants.MaxLevel {
		next := threshold + c.Cost(level+1)
		if next > points {
			break
		}
		threshold = next
		level++
	}
	return models.LevelInfo{
		Level:          level,
		CurrentPoints:  points - threshold,
		RequiredPoints: c.Cost(level + 1),
		TotalPoints:    points,
	}
}

// TotalPointsNeeded returns the cumulative GP required for a skill level.
func TotalPointsNeeded(level int) float64 {
	return SkillCurve.TotalPointsNeeded(level)
}

// SkillLevel places a skill's cumulative growth on the skill curve.
func SkillLevel(cumulativeGrowth float64) models.LevelInfo {
	return SkillCurve.Level(GP(cumulativeGrowth))
}

// PersonalityLevel places the Personality Growth Index on the personality
// curve and attaches its title.
func PersonalityLevel(index float64) models.LevelInfo {
	info := PersonalityCurve.Level(index)
	info.Title = Title(info.Level)
	return info
}

var titles = []struct {
	min   int
	title string
}{
	{70, "Mythic"},
	{60, "Legend"},
	{50, "Grandmaster"},
	{40, "Master"},
	{30, "Expert"},
	{20, "Virtuoso"},
	{10, "Adept"},
}

// Title maps a personality level to its display title.
func Title(level int) string {
	for _, t := range titles {
		if level >= t.min {
			return t.title
		}
	}
	return "Enthusiast"
}
