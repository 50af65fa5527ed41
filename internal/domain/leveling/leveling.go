// Package leveling derives a user's level and badge tier from XP.
package leveling

import "math"

// XPPerLevelUnit scales the square-root curve: level n starts at
// 100*(n-1)^2 XP.
const XPPerLevelUnit = 100

// Badge tiers, highest first.
const (
	BadgeExpert       = "Expert"
	BadgeAdvanced     = "Advanced"
	BadgeIntermediate = "Intermediate"
	BadgeBeginner     = "Beginner"
	BadgeNewcomer     = "Newcomer"
)

// Level returns max(1, floor(sqrt(xp/100)) + 1). Negative xp is treated as 0.
func Level(xp int) int {
	if xp <= 0 {
		return 1
	}
	lvl := int(math.Sqrt(float64(xp)/XPPerLevelUnit)) + 1
	// guard against float rounding just below a perfect square
	for XPPerLevelUnit*lvl*lvl <= xp {
		lvl++
	}
	for lvl > 1 && XPPerLevelUnit*(lvl-1)*(lvl-1) > xp {
		lvl--
	}
	return lvl
}

// Badge maps a level to its display tier.
func Badge(level int) string {
	switch {
	case level >= 20:
		return BadgeExpert
	case level >= 15:
		return BadgeAdvanced
	case level >= 10:
		return BadgeIntermediate
	case level >= 5:
		return BadgeBeginner
	default:
		return BadgeNewcomer
	}
}

// ClampXP applies amount to xp without letting the total go negative.
func ClampXP(xp, amount int) int {
	next := xp + amount
	if next < 0 {
		return 0
	}
	return next
}
