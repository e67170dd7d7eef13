package model

import "time"

// Outcome classifies how a prediction fared against the official result.
type Outcome string

const (
	OutcomeExact          Outcome = "exact"
	OutcomeDraw           Outcome = "draw"
	OutcomeWinnerAndScore Outcome = "winner_and_score"
	OutcomeWinner         Outcome = "winner"
	OutcomeMiss           Outcome = "miss"
	OutcomePending        Outcome = "pending"
	OutcomeNoPrediction   Outcome = "no_prediction"
)

// ScoredMatch is a match paired with the card's prediction and the points it
// earned. It is derived on every read and never stored.
type ScoredMatch struct {
	Match
	Prediction          *Prediction `json:"prediction"`
	Points              int         `json:"points"`
	OfficialResultKnown bool        `json:"officialResultKnown"`
	Outcome             Outcome     `json:"outcome"`
	Kickoff             string      `json:"kickoff"`
}

// BettingCard is one participant's set of predictions for a round.
type BettingCard struct {
	ID          ID           `json:"id" bson:"_id"`
	OwnerID     ID           `json:"ownerId" bson:"ownerid"`
	RoundID     ID           `json:"roundId" bson:"roundid"`
	Predictions []Prediction `json:"predictions" bson:"predictions"`
	CreatedAt   time.Time    `json:"createdAt" bson:"createdat"`
	UpdatedAt   time.Time    `json:"updatedAt" bson:"updatedat"`
}

// RoundStatus tells whether a round still accepts prediction edits.
type RoundStatus string

const (
	RoundOpen   RoundStatus = "open"
	RoundClosed RoundStatus = "closed"
)

// Round is a batch of matches open for predictions within a championship.
type Round struct {
	ID             ID          `json:"id" bson:"_id"`
	ChampionshipID ID          `json:"championshipId" bson:"championshipid"`
	Name           string      `json:"name" bson:"name"`
	Status         RoundStatus `json:"status" bson:"status"`
	Matches        []Match     `json:"matches" bson:"matches"`
}

// Open reports whether the round accepts prediction edits.
func (r Round) Open() bool { return r.Status != RoundClosed }

// Match returns the match with the given id.
func (r Round) Match(id ID) (Match, bool) {
	for _, m := range r.Matches {
		if m.ID == id {
			return m, true
		}
	}
	return Match{}, false
}
