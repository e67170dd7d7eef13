package service

import (
	"context"
	"fmt"

	"github.com/okian/bolao/internal/domain/model"
	"github.com/okian/bolao/internal/domain/ranking"
	"github.com/okian/bolao/internal/domain/types"
	"github.com/okian/bolao/pkg/logger"
)

// RoundInput describes a round to create.
type RoundInput struct {
	ChampionshipID model.ID      `json:"championshipId"`
	Name           string        `json:"name"`
	Matches        []model.Match `json:"matches"`
}

func validateMatches(matches []model.Match) error {
	seen := make(map[model.ID]struct{}, len(matches))
	for i, m := range matches {
		if m.ID.Empty() {
			return fmt.Errorf("%w: match %d has no id", ErrInvalidRound, i)
		}
		if _, dup := seen[m.ID]; dup {
			return fmt.Errorf("%w: match %s listed twice", ErrInvalidRound, m.ID)
		}
		seen[m.ID] = struct{}{}
	}
	return nil
}

// CreateRound stores a new open round with a generated id.
func (s *Service) CreateRound(ctx context.Context, in RoundInput) (model.Round, error) {
	r, err := s.createRound(ctx, in)
	s.observe("create_round", err)
	return r, err
}

func (s *Service) createRound(ctx context.Context, in RoundInput) (model.Round, error) {
	store, err := s.repo()
	if err != nil {
		return model.Round{}, err
	}
	if err := validateMatches(in.Matches); err != nil {
		return model.Round{}, err
	}
	matches := in.Matches
	if matches == nil {
		matches = []model.Match{}
	}
	r := model.Round{
		ID:             model.ID(s.newID()),
		ChampionshipID: in.ChampionshipID,
		Name:           in.Name,
		Status:         model.RoundOpen,
		Matches:        matches,
	}
	if err := store.SaveRound(ctx, r); err != nil {
		return model.Round{}, err
	}
	s.log().Info(ctx, "round created",
		logger.String("round", r.ID.String()),
		logger.Int("matches", len(r.Matches)),
	)
	return r, nil
}

// Round returns a stored round.
func (s *Service) Round(ctx context.Context, id model.ID) (model.Round, error) {
	store, err := s.repo()
	if err != nil {
		return model.Round{}, err
	}
	return store.Round(ctx, id)
}

// UpdateResults applies official scores and statuses to the round's matches.
// Results are accepted after the round closes. Only the fields an update
// carries change; scores go back to unknown only through ClearResult.
func (s *Service) UpdateResults(ctx context.Context, roundID model.ID, updates []model.ResultUpdate) (model.Round, error) {
	r, err := s.updateResults(ctx, roundID, updates)
	s.observe("update_results", err)
	return r, err
}

func (s *Service) updateResults(ctx context.Context, roundID model.ID, updates []model.ResultUpdate) (model.Round, error) {
	store, err := s.repo()
	if err != nil {
		return model.Round{}, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	r, err := store.Round(ctx, roundID)
	if err != nil {
		return model.Round{}, err
	}
	index := make(map[model.ID]int, len(r.Matches))
	for i, m := range r.Matches {
		index[m.ID] = i
	}
	for _, u := range updates {
		i, ok := index[u.ID]
		if !ok {
			return model.Round{}, fmt.Errorf("%w: %q", ErrUnknownMatch, u.ID)
		}
		m := &r.Matches[i]
		if u.ClearResult {
			m.OfficialHomeScore, m.OfficialAwayScore = nil, nil
		}
		if u.OfficialHomeScore != nil {
			m.OfficialHomeScore = u.OfficialHomeScore
		}
		if u.OfficialAwayScore != nil {
			m.OfficialAwayScore = u.OfficialAwayScore
		}
		if u.Status != "" {
			m.Status = u.Status
		}
		if u.KickoffDate != "" {
			m.KickoffDate, m.KickoffTime = u.KickoffDate, u.KickoffTime
		}
	}
	if err := store.SaveRound(ctx, r); err != nil {
		return model.Round{}, err
	}
	s.log().Info(ctx, "results updated",
		logger.String("round", r.ID.String()),
		logger.Int("updates", len(updates)),
	)
	return r, nil
}

// CloseRound stops prediction edits. Closing a closed round is a no-op.
func (s *Service) CloseRound(ctx context.Context, id model.ID) (model.Round, error) {
	r, err := s.closeRound(ctx, id)
	s.observe("close_round", err)
	return r, err
}

func (s *Service) closeRound(ctx context.Context, id model.ID) (model.Round, error) {
	store, err := s.repo()
	if err != nil {
		return model.Round{}, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	r, err := store.Round(ctx, id)
	if err != nil {
		return model.Round{}, err
	}
	if !r.Open() {
		return r, nil
	}
	r.Status = model.RoundClosed
	if err := store.SaveRound(ctx, r); err != nil {
		return model.Round{}, err
	}
	s.log().Info(ctx, "round closed", logger.String("round", r.ID.String()))
	return r, nil
}

// Standings ranks every card of the round by current points.
func (s *Service) Standings(ctx context.Context, roundID model.ID) ([]types.Standing, error) {
	out, err := s.standings(ctx, roundID)
	s.observe("standings", err)
	return out, err
}

func (s *Service) standings(ctx context.Context, roundID model.ID) ([]types.Standing, error) {
	store, err := s.repo()
	if err != nil {
		return nil, err
	}
	r, err := store.Round(ctx, roundID)
	if err != nil {
		return nil, err
	}
	cards, err := store.CardsByRound(ctx, roundID)
	if err != nil {
		return nil, err
	}
	results := make([]ranking.CardResult, 0, len(cards))
	for _, c := range cards {
		results = append(results, ranking.CardResult{
			CardID:  c.ID.String(),
			OwnerID: c.OwnerID.String(),
			Score:   s.score(ctx, r.Matches, c.Predictions),
		})
	}
	return ranking.Rank(results), nil
}
