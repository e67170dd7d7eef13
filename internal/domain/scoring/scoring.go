// Package scoring computes per-match points and round totals for betting
// cards.
//
// The engine is a pure projection over matches and predictions: it holds no
// state besides its point rule, so one Engine can be shared by any number of
// goroutines and re-running it on the same input yields the same output.
package scoring

import (
	"fmt"
	"slices"
	"strings"

	"github.com/okian/bolao/internal/domain/model"
)

// Kinds of entries reported in RoundScore.Skipped.
const (
	KindMatch      = "match"
	KindPrediction = "prediction"
)

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithRule sets the point values. A zero Rule is ignored.
func WithRule(r Rule) Option {
	return func(e *Engine) {
		if r != (Rule{}) {
			e.rule = r
		}
	}
}

// Skip describes an entry left out of the round because it was malformed.
type Skip struct {
	Kind   string   `json:"kind"`
	Index  int      `json:"index"`
	ID     model.ID `json:"id,omitempty"`
	Reason string   `json:"reason"`
	Err    error    `json:"-"`
}

// RoundScore is the scored view of one betting card over one round.
type RoundScore struct {
	Matches     []model.ScoredMatch `json:"scoredMatches"`
	TotalPoints int                 `json:"totalPoints"`
	Pending     int                 `json:"pending"`
	ExactHits   int                 `json:"exactHits"`
	Skipped     []Skip              `json:"skipped,omitempty"`
}

// Engine scores rounds with a fixed point rule.
type Engine struct {
	rule Rule
}

// NewEngine creates an engine using DefaultRule unless overridden.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{rule: DefaultRule()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Rule returns the engine's point values.
func (e *Engine) Rule() Rule { return e.rule }

// ScoreMatch scores a single match against an optional prediction.
func (e *Engine) ScoreMatch(m model.Match, p *model.Prediction) model.ScoredMatch {
	sm := model.ScoredMatch{Match: m, Prediction: p}

	official, known := m.Official()
	if !known {
		sm.Outcome = model.OutcomePending
		return sm
	}
	sm.OfficialResultKnown = true

	if p == nil {
		sm.Outcome = model.OutcomeNoPrediction
		return sm
	}
	predicted, complete := p.Predicted()
	if !complete {
		sm.Outcome = model.OutcomeNoPrediction
		return sm
	}

	sm.Points, sm.Outcome = e.rule.Points(official, predicted)
	return sm
}

// ScoreRound pairs every match with the card's prediction for it, scores the
// pairs and returns them in kickoff order.
//
// Matches with an empty id or an unparseable kickoff and predictions with an
// empty match id are left out and listed in Skipped; they never abort the
// rest of the round. When several predictions target the same match the first
// one is used. TotalPoints only counts matches whose official result is known.
func (e *Engine) ScoreRound(matches []model.Match, predictions []model.Prediction) RoundScore {
	var skipped []Skip

	byMatch := make(map[model.ID]model.Prediction, len(predictions))
	for i, p := range predictions {
		if p.MatchID.Empty() {
			skipped = append(skipped, newSkip(KindPrediction, i, "", ErrMissingID))
			continue
		}
		if _, seen := byMatch[p.MatchID]; seen {
			skipped = append(skipped, newSkip(KindPrediction, i, p.MatchID, ErrDuplicatePrediction))
			continue
		}
		byMatch[p.MatchID] = p
	}

	scored := make([]model.ScoredMatch, 0, len(matches))
	for i, m := range matches {
		if m.ID.Empty() {
			skipped = append(skipped, newSkip(KindMatch, i, "", ErrMissingID))
			continue
		}
		kickoff, err := ParseKickoff(m.KickoffDate, m.KickoffTime)
		if err != nil {
			skipped = append(skipped, newSkip(KindMatch, i, m.ID, err))
			continue
		}

		var pred *model.Prediction
		if p, ok := byMatch[m.ID]; ok {
			pred = &p
		}
		sm := e.ScoreMatch(m, pred)
		sm.Kickoff = kickoff.Key
		scored = append(scored, sm)
	}

	slices.SortStableFunc(scored, func(a, b model.ScoredMatch) int {
		return strings.Compare(a.Kickoff, b.Kickoff)
	})

	out := RoundScore{Matches: scored, Skipped: skipped}
	for _, sm := range scored {
		if !sm.OfficialResultKnown {
			out.Pending++
			continue
		}
		out.TotalPoints += sm.Points
		if sm.Outcome == model.OutcomeExact {
			out.ExactHits++
		}
	}
	return out
}

func newSkip(kind string, index int, id model.ID, err error) Skip {
	return Skip{
		Kind:   kind,
		Index:  index,
		ID:     id,
		Reason: fmt.Sprintf("%s %d: %v", kind, index, err),
		Err:    err,
	}
}

// ScoreRound scores with a default engine.
func ScoreRound(matches []model.Match, predictions []model.Prediction) RoundScore {
	return NewEngine().ScoreRound(matches, predictions)
}
