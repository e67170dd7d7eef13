package repository

import (
	"slices"

	"github.com/okian/bolao/internal/domain/model"
)

func cloneGoals(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneRound(r model.Round) model.Round {
	r.Matches = slices.Clone(r.Matches)
	for i := range r.Matches {
		r.Matches[i].OfficialHomeScore = cloneGoals(r.Matches[i].OfficialHomeScore)
		r.Matches[i].OfficialAwayScore = cloneGoals(r.Matches[i].OfficialAwayScore)
	}
	return r
}

func cloneCard(c model.BettingCard) model.BettingCard {
	c.Predictions = slices.Clone(c.Predictions)
	for i := range c.Predictions {
		c.Predictions[i].PredictedHomeScore = cloneGoals(c.Predictions[i].PredictedHomeScore)
		c.Predictions[i].PredictedAwayScore = cloneGoals(c.Predictions[i].PredictedAwayScore)
	}
	return c
}
