package validation

import (
	"github.com/lottoza/predictor/models"
)

// NoPrize is the tier for unmatched combinations.
const NoPrize = "No Prize"

type matchKey struct {
	main  int
	bonus bool
}

// Official division tables per game family. Combinations absent from
// a table pay nothing.
var lottoDivisions = map[matchKey]string{
	{6, false}: "Division 1",
	{6, true}:  "Division 1",
	{5, true}:  "Division 2",
	{5, false}: "Division 3",
	{4, true}:  "Division 4",
	{4, false}: "Division 5",
	{3, true}:  "Division 6",
	{3, false}: "Division 7",
	{2, true}:  "Division 8",
}

var powerballDivisions = map[matchKey]string{
	{5, true}:  "Division 1",
	{5, false}: "Division 2",
	{4, true}:  "Division 3",
	{4, false}: "Division 4",
	{3, true}:  "Division 5",
	{3, false}: "Division 6",
	{2, true}:  "Division 7",
	{1, true}:  "Division 8",
	{0, true}:  "Division 9",
}

var dailyLottoDivisions = map[matchKey]string{
	{5, false}: "Division 1",
	{4, false}: "Division 2",
	{3, false}: "Division 3",
	{2, false}: "Division 4",
}

// PrizeTier maps a match outcome to its named division for the
// game's family.
func PrizeTier(gameType models.GameType, mainMatches, bonusMatches int) string {
	rules, err := models.RulesFor(gameType)
	if err != nil {
		return NoPrize
	}

	key := matchKey{main: mainMatches, bonus: bonusMatches > 0}
	var table map[matchKey]string
	switch rules.Family {
	case models.FamilyLotto:
		table = lottoDivisions
	case models.FamilyPowerball:
		table = powerballDivisions
	case models.FamilyDaily:
		key.bonus = false
		table = dailyLottoDivisions
	default:
		return NoPrize
	}

	if tier, ok := table[key]; ok {
		return tier
	}
	return NoPrize
}
