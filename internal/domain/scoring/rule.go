package scoring

import "github.com/okian/bolao/internal/domain/model"

// Default point values.
const (
	defaultExactPoints          = 7
	defaultDrawPoints           = 4
	defaultWinnerAndScorePoints = 4
	defaultWinnerPoints         = 3
)

// Rule holds the points awarded by each step of the decision list.
type Rule struct {
	Exact          int `koanf:"exact" json:"exact"`
	Draw           int `koanf:"draw" json:"draw"`
	WinnerAndScore int `koanf:"winner_and_score" json:"winnerAndScore"`
	Winner         int `koanf:"winner" json:"winner"`
}

// DefaultRule is the 7-4-4-3 rule used by the pool.
func DefaultRule() Rule {
	return Rule{
		Exact:          defaultExactPoints,
		Draw:           defaultDrawPoints,
		WinnerAndScore: defaultWinnerAndScorePoints,
		Winner:         defaultWinnerPoints,
	}
}

// Points evaluates a complete prediction against a known official result.
// The steps are tried top to bottom and the first match wins:
//
//  1. exact scoreline
//  2. official draw predicted as a draw
//  3. correct winner with one side's score exact
//  4. correct winner only
//  5. nothing
func (r Rule) Points(official, predicted model.Score) (int, model.Outcome) {
	switch {
	case official == predicted:
		return r.Exact, model.OutcomeExact
	case official.IsDraw() && predicted.IsDraw():
		return r.Draw, model.OutcomeDraw
	case !official.IsDraw() && official.Winner() == predicted.Winner():
		if official.Home == predicted.Home || official.Away == predicted.Away {
			return r.WinnerAndScore, model.OutcomeWinnerAndScore
		}
		return r.Winner, model.OutcomeWinner
	default:
		return 0, model.OutcomeMiss
	}
}

// Points applies DefaultRule.
func Points(official, predicted model.Score) (int, model.Outcome) {
	return DefaultRule().Points(official, predicted)
}
