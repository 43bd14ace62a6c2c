package history

import (
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/lottoza/predictor/models"
)

// RawDraw is a draw row as stored: number lists are still text in
// whatever encoding the ingestion pipeline used at the time.
type RawDraw struct {
	ID           int64
	GameType     models.GameType
	DrawNumber   int
	DrawDate     time.Time
	MainNumbers  string
	BonusNumbers string
}

// DrawSource provides read-only access to stored draws. The ingestion
// pipeline owns the rows and guarantees (game_type, draw_number)
// uniqueness; the engine does not re-check authenticity.
type DrawSource interface {
	DrawsSince(gameType models.GameType, since time.Time) ([]RawDraw, error)
}

// Accessor reads historical draws for a game within a lookback
// window and normalizes them into canonical DrawResult values.
type Accessor struct {
	source DrawSource
	cap    int
	now    func() time.Time
	logger zerolog.Logger
}

// NewAccessor creates an accessor that caps history at historyCap
// draws to bound downstream feature computation.
func NewAccessor(source DrawSource, historyCap int) *Accessor {
	if historyCap <= 0 {
		historyCap = 100
	}
	return &Accessor{
		source: source,
		cap:    historyCap,
		now:    time.Now,
		logger: log.With().Str("component", "history").Logger(),
	}
}

// FetchHistory returns up to the cap of draws within lookbackDays,
// most recent first. Malformed rows are skipped with a warning; an
// empty result is not an error — callers fall back to random
// candidate generation when no history exists.
func (a *Accessor) FetchHistory(gameType models.GameType, lookbackDays int) ([]models.DrawResult, error) {
	rules, err := models.RulesFor(gameType)
	if err != nil {
		return nil, err
	}

	since := a.now().AddDate(0, 0, -lookbackDays)
	raws, err := a.source.DrawsSince(gameType, since)
	if err != nil {
		return nil, err
	}

	draws := make([]models.DrawResult, 0, len(raws))
	for _, raw := range raws {
		draw, err := a.normalize(raw, rules)
		if err != nil {
			a.logger.Warn().
				Str("game_type", string(gameType)).
				Int("draw_number", raw.DrawNumber).
				Err(err).
				Msg("Skipping malformed draw record")
			continue
		}
		draws = append(draws, draw)
	}

	sort.SliceStable(draws, func(i, j int) bool {
		return draws[i].DrawDate.After(draws[j].DrawDate)
	})

	if len(draws) > a.cap {
		draws = draws[:a.cap]
	}
	return draws, nil
}

func (a *Accessor) normalize(raw RawDraw, rules models.GameRules) (models.DrawResult, error) {
	main, err := ParseNumberList(raw.MainNumbers)
	if err != nil {
		return models.DrawResult{}, err
	}
	if err := validateNumbers(main, rules.MainMax); err != nil {
		return models.DrawResult{}, err
	}

	var bonus []int
	if rules.BonusCount > 0 && raw.BonusNumbers != "" {
		bonus, err = ParseNumberList(raw.BonusNumbers)
		if err != nil {
			return models.DrawResult{}, err
		}
		if err := validateNumbers(bonus, rules.BonusMax); err != nil {
			return models.DrawResult{}, err
		}
	}

	return models.DrawResult{
		ID:           raw.ID,
		GameType:     raw.GameType,
		DrawNumber:   raw.DrawNumber,
		DrawDate:     raw.DrawDate,
		MainNumbers:  main,
		BonusNumbers: bonus,
	}, nil
}
