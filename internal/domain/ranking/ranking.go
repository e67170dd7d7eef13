// Package ranking orders the betting cards of a round into standings.
//
// Ordering: total points DESC, exact hits DESC, then owner id ASC and card id
// ASC so equal cards always come out in the same order. Ranks follow
// competition style: cards with equal points and exact hits share a rank and
// the next rank skips (1, 1, 3).
package ranking

import (
	"cmp"
	"slices"

	"github.com/okian/bolao/internal/domain/scoring"
	"github.com/okian/bolao/internal/domain/types"
)

// CardResult is a scored card waiting to be ranked.
type CardResult struct {
	CardID  string
	OwnerID string
	Score   scoring.RoundScore
}

func compare(a, b CardResult) int {
	if c := cmp.Compare(b.Score.TotalPoints, a.Score.TotalPoints); c != 0 {
		return c
	}
	if c := cmp.Compare(b.Score.ExactHits, a.Score.ExactHits); c != 0 {
		return c
	}
	if c := cmp.Compare(a.OwnerID, b.OwnerID); c != 0 {
		return c
	}
	return cmp.Compare(a.CardID, b.CardID)
}

func tied(a, b CardResult) bool {
	return a.Score.TotalPoints == b.Score.TotalPoints && a.Score.ExactHits == b.Score.ExactHits
}

// Rank returns standings for results. The input slice is not modified.
func Rank(results []CardResult) []types.Standing {
	sorted := slices.Clone(results)
	slices.SortFunc(sorted, compare)

	out := make([]types.Standing, 0, len(sorted))
	rank := 0
	for i, r := range sorted {
		if i == 0 || !tied(sorted[i-1], r) {
			rank = i + 1
		}
		out = append(out, types.Standing{
			Rank:        rank,
			CardID:      r.CardID,
			OwnerID:     r.OwnerID,
			TotalPoints: r.Score.TotalPoints,
			ExactHits:   r.Score.ExactHits,
			Pending:     r.Score.Pending,
		})
	}
	return out
}
