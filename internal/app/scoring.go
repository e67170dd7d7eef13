package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/bolao/internal/domain/envelope"
	"github.com/okian/bolao/internal/domain/model"
	"github.com/okian/bolao/internal/domain/scoring"
	"github.com/okian/bolao/pkg/logger"
	"github.com/okian/bolao/pkg/metrics"
)

// CardScore is a betting card scored against the current state of its round.
type CardScore struct {
	CardID  model.ID `json:"cardId"`
	OwnerID model.ID `json:"ownerId"`
	RoundID model.ID `json:"roundId"`
	scoring.RoundScore
}

// decodeList normalizes a raw collection payload and decodes its elements.
// Elements that do not decode are dropped and logged; only invalid JSON
// fails the call. A lone object counts as a one-element list.
func decodeList[T any](ctx context.Context, s *Service, what string, data []byte) ([]T, error) {
	shape, err := envelope.Classify(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidPayload, what, err)
	}
	metrics.RecordEnvelopeShape(shape.String())

	items, err := envelope.Decode[T](data, envelope.WithForceSequence())
	if err != nil {
		if !errors.Is(err, envelope.ErrMalformedItem) {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidPayload, what, err)
		}
		n := envelope.CountMalformed(err)
		for range n {
			metrics.RecordMalformedEntry(what)
		}
		s.log().Warn(ctx, "dropped malformed entries",
			logger.String("kind", what),
			logger.Int("count", n),
			logger.Error(err),
		)
	}
	return items, nil
}

// ScoreRaw scores raw match and prediction payloads without touching the
// store. Each payload may be a plain list, a $id/$values wrapper or null.
func (s *Service) ScoreRaw(ctx context.Context, matchesJSON, predictionsJSON []byte) (scoring.RoundScore, error) {
	matches, err := decodeList[model.Match](ctx, s, scoring.KindMatch, matchesJSON)
	if err != nil {
		s.observe("score_raw", err)
		return scoring.RoundScore{}, err
	}
	predictions, err := decodeList[model.Prediction](ctx, s, scoring.KindPrediction, predictionsJSON)
	if err != nil {
		s.observe("score_raw", err)
		return scoring.RoundScore{}, err
	}

	res := s.score(ctx, matches, predictions)
	s.observe("score_raw", nil)
	return res, nil
}

// score runs the engine and records what it saw.
func (s *Service) score(ctx context.Context, matches []model.Match, predictions []model.Prediction) scoring.RoundScore {
	start := time.Now()
	res := s.engine.ScoreRound(matches, predictions)
	metrics.RecordScoringLatency(float64(time.Since(start).Microseconds()) / 1000)
	metrics.RecordRoundScored()
	s.roundsScored.Add(1)

	for _, sm := range res.Matches {
		metrics.RecordMatchScored(string(sm.Outcome))
	}
	for _, sk := range res.Skipped {
		metrics.RecordMalformedEntry(sk.Kind)
		s.log().Debug(ctx, "skipped entry", logger.String("reason", sk.Reason))
	}
	return res
}

// ScoreCard recomputes a card's points from the current round state.
func (s *Service) ScoreCard(ctx context.Context, cardID model.ID) (CardScore, error) {
	out, err := s.scoreCard(ctx, cardID)
	s.observe("score_card", err)
	return out, err
}

func (s *Service) scoreCard(ctx context.Context, cardID model.ID) (CardScore, error) {
	store, err := s.repo()
	if err != nil {
		return CardScore{}, err
	}
	card, err := store.Card(ctx, cardID)
	if err != nil {
		return CardScore{}, err
	}
	round, err := store.Round(ctx, card.RoundID)
	if err != nil {
		return CardScore{}, err
	}
	return CardScore{
		CardID:     card.ID,
		OwnerID:    card.OwnerID,
		RoundID:    card.RoundID,
		RoundScore: s.score(ctx, round.Matches, card.Predictions),
	}, nil
}
