package service

import (
	"context"
	"fmt"

	"github.com/okian/bolao/internal/domain/model"
	"github.com/okian/bolao/pkg/logger"
)

// OpenCard creates an empty betting card for owner in an open round.
// A participant may hold several cards in the same round.
func (s *Service) OpenCard(ctx context.Context, roundID, ownerID model.ID) (model.BettingCard, error) {
	c, err := s.openCard(ctx, roundID, ownerID)
	s.observe("open_card", err)
	return c, err
}

func (s *Service) openCard(ctx context.Context, roundID, ownerID model.ID) (model.BettingCard, error) {
	store, err := s.repo()
	if err != nil {
		return model.BettingCard{}, err
	}
	if ownerID.Empty() {
		return model.BettingCard{}, ErrInvalidOwner
	}
	r, err := store.Round(ctx, roundID)
	if err != nil {
		return model.BettingCard{}, err
	}
	if !r.Open() {
		return model.BettingCard{}, fmt.Errorf("%w: %s", ErrRoundClosed, r.ID)
	}

	now := s.now().UTC()
	c := model.BettingCard{
		ID:          model.ID(s.newID()),
		OwnerID:     ownerID,
		RoundID:     r.ID,
		Predictions: []model.Prediction{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := store.SaveCard(ctx, c); err != nil {
		return model.BettingCard{}, err
	}
	s.log().Info(ctx, "card opened",
		logger.String("card", c.ID.String()),
		logger.String("round", r.ID.String()),
		logger.String("owner", ownerID.String()),
	)
	return c, nil
}

// SubmitPredictions merges predictions into the owner's card while its round
// is open. Every prediction must name a match of the round and carry both
// non-negative scores; otherwise nothing is saved. The card keeps one
// prediction per match, in the round's match order.
func (s *Service) SubmitPredictions(ctx context.Context, cardID, ownerID model.ID, predictions []model.Prediction) (model.BettingCard, error) {
	c, err := s.submitPredictions(ctx, cardID, ownerID, predictions)
	s.observe("submit_predictions", err)
	return c, err
}

func (s *Service) submitPredictions(ctx context.Context, cardID, ownerID model.ID, predictions []model.Prediction) (model.BettingCard, error) {
	store, err := s.repo()
	if err != nil {
		return model.BettingCard{}, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	c, err := store.Card(ctx, cardID)
	if err != nil {
		return model.BettingCard{}, err
	}
	if c.OwnerID != ownerID {
		return model.BettingCard{}, ErrForbidden
	}
	r, err := store.Round(ctx, c.RoundID)
	if err != nil {
		return model.BettingCard{}, err
	}
	if !r.Open() {
		return model.BettingCard{}, fmt.Errorf("%w: %s", ErrRoundClosed, r.ID)
	}

	byMatch := make(map[model.ID]model.Prediction, len(c.Predictions)+len(predictions))
	for _, p := range c.Predictions {
		byMatch[p.MatchID] = p
	}
	submitted := make(map[model.ID]struct{}, len(predictions))
	for i, p := range predictions {
		if err := validatePrediction(r, p); err != nil {
			return model.BettingCard{}, fmt.Errorf("prediction %d: %w", i, err)
		}
		if _, dup := submitted[p.MatchID]; dup {
			return model.BettingCard{}, fmt.Errorf("%w: prediction %d repeats match %s", ErrInvalidPrediction, i, p.MatchID)
		}
		submitted[p.MatchID] = struct{}{}
		byMatch[p.MatchID] = p
	}

	merged := make([]model.Prediction, 0, len(byMatch))
	for _, m := range r.Matches {
		if p, ok := byMatch[m.ID]; ok {
			merged = append(merged, p)
		}
	}
	c.Predictions = merged
	c.UpdatedAt = s.now().UTC()

	if err := store.SaveCard(ctx, c); err != nil {
		return model.BettingCard{}, err
	}
	s.log().Debug(ctx, "predictions saved",
		logger.String("card", c.ID.String()),
		logger.Int("submitted", len(predictions)),
		logger.Int("total", len(c.Predictions)),
	)
	return c, nil
}

func validatePrediction(r model.Round, p model.Prediction) error {
	if p.MatchID.Empty() {
		return fmt.Errorf("%w: missing match id", ErrInvalidPrediction)
	}
	if _, ok := r.Match(p.MatchID); !ok {
		return fmt.Errorf("%w: %w: %q", ErrInvalidPrediction, ErrUnknownMatch, p.MatchID)
	}
	if _, ok := p.Predicted(); !ok {
		return fmt.Errorf("%w: match %s needs both non-negative scores", ErrInvalidPrediction, p.MatchID)
	}
	return nil
}
