package models

import (
	"fmt"
	"time"
)

// GameRules describes the number pool of a game: how many main and
// bonus numbers are drawn and from which ranges.
type GameRules struct {
	GameType   GameType
	Family     GameFamily
	MainCount  int
	MainMax    int
	BonusCount int
	BonusMax   int
}

var gameRules = map[GameType]GameRules{
	GameLotto:         {GameType: GameLotto, Family: FamilyLotto, MainCount: 6, MainMax: 52, BonusCount: 1, BonusMax: 52},
	GameLottoPlus1:    {GameType: GameLottoPlus1, Family: FamilyLotto, MainCount: 6, MainMax: 52, BonusCount: 1, BonusMax: 52},
	GameLottoPlus2:    {GameType: GameLottoPlus2, Family: FamilyLotto, MainCount: 6, MainMax: 52, BonusCount: 1, BonusMax: 52},
	GamePowerball:     {GameType: GamePowerball, Family: FamilyPowerball, MainCount: 5, MainMax: 50, BonusCount: 1, BonusMax: 20},
	GamePowerballPlus: {GameType: GamePowerballPlus, Family: FamilyPowerball, MainCount: 5, MainMax: 50, BonusCount: 1, BonusMax: 20},
	GameDailyLotto:    {GameType: GameDailyLotto, Family: FamilyDaily, MainCount: 5, MainMax: 36, BonusCount: 0, BonusMax: 0},
}

// RulesFor returns the pool rules for a game type.
func RulesFor(gt GameType) (GameRules, error) {
	rules, ok := gameRules[gt]
	if !ok {
		return GameRules{}, fmt.Errorf("unknown game type %q", gt)
	}
	return rules, nil
}

// Validate reports whether the rules can produce a valid draw at all.
// A game asking for more distinct numbers than its range holds is a
// configuration error, never a runtime condition.
func (r GameRules) Validate() error {
	if r.MainCount <= 0 || r.MainMax <= 0 {
		return fmt.Errorf("game %s: main count %d and range %d must be positive", r.GameType, r.MainCount, r.MainMax)
	}
	if r.MainCount > r.MainMax {
		return fmt.Errorf("game %s: cannot draw %d distinct numbers from range 1-%d", r.GameType, r.MainCount, r.MainMax)
	}
	if r.BonusCount > 0 && r.BonusCount > r.BonusMax {
		return fmt.Errorf("game %s: cannot draw %d distinct bonus numbers from range 1-%d", r.GameType, r.BonusCount, r.BonusMax)
	}
	return nil
}

// FamilyMembers returns every game that shares a number pool with gt,
// excluding gt itself. DAILY_LOTTO has no siblings.
func FamilyMembers(gt GameType) []GameType {
	rules, ok := gameRules[gt]
	if !ok {
		return nil
	}
	var siblings []GameType
	for _, other := range AllGameTypes {
		if other == gt {
			continue
		}
		if gameRules[other].Family == rules.Family {
			siblings = append(siblings, other)
		}
	}
	return siblings
}

// drawWeekdays is the official draw schedule: LOTTO games run
// Wednesday and Saturday, POWERBALL games Tuesday and Friday, and
// DAILY_LOTTO every evening.
var drawWeekdays = map[GameFamily][]time.Weekday{
	FamilyLotto:     {time.Wednesday, time.Saturday},
	FamilyPowerball: {time.Tuesday, time.Friday},
	FamilyDaily:     {time.Sunday, time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday},
}

// NextDrawDate returns the first scheduled draw date strictly after
// the given date.
func NextDrawDate(gt GameType, after time.Time) time.Time {
	rules, ok := gameRules[gt]
	if !ok {
		return after.AddDate(0, 0, 1)
	}
	days := drawWeekdays[rules.Family]
	d := after.AddDate(0, 0, 1)
	for i := 0; i < 7; i++ {
		for _, wd := range days {
			if d.Weekday() == wd {
				return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location())
			}
		}
		d = d.AddDate(0, 0, 1)
	}
	return after.AddDate(0, 0, 1)
}
