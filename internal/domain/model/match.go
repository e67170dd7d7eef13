// Package model contains domain models passed between layers.
package model

import (
	"encoding/json"
	"strings"
)

// MatchStatus is the lifecycle state of a match.
type MatchStatus string

const (
	StatusScheduled  MatchStatus = "scheduled"
	StatusInProgress MatchStatus = "in_progress"
	StatusFinished   MatchStatus = "finished"
	StatusCancelled  MatchStatus = "cancelled"
)

// ParseMatchStatus maps the backend's status labels onto MatchStatus.
// Unknown labels fall back to scheduled.
func ParseMatchStatus(s string) MatchStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "finished", "final", "ended", "encerrado", "finalizado":
		return StatusFinished
	case "in_progress", "in progress", "live", "em andamento", "andamento":
		return StatusInProgress
	case "cancelled", "canceled", "cancelado":
		return StatusCancelled
	default:
		return StatusScheduled
	}
}

// UnmarshalJSON normalizes free-form status labels.
func (s *MatchStatus) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		// Non-string statuses (numbers, null) are treated as unknown.
		*s = StatusScheduled
		return nil //nolint:nilerr // unknown status degrades to scheduled
	}
	*s = ParseMatchStatus(raw)
	return nil
}

// Score is a home/away scoreline.
type Score struct {
	Home int `json:"home" bson:"home"`
	Away int `json:"away" bson:"away"`
}

// IsDraw reports whether both sides scored the same.
func (s Score) IsDraw() bool { return s.Home == s.Away }

// Winner returns 1 for a home win, -1 for an away win and 0 for a draw.
func (s Score) Winner() int {
	switch {
	case s.Home > s.Away:
		return 1
	case s.Home < s.Away:
		return -1
	default:
		return 0
	}
}

// Match is a single game within a round.
type Match struct {
	ID                ID          `json:"id" bson:"id"`
	HomeTeamName      string      `json:"homeTeamName" bson:"hometeamname"`
	AwayTeamName      string      `json:"awayTeamName" bson:"awayteamname"`
	OfficialHomeScore *int        `json:"officialHomeScore" bson:"officialhomescore"`
	OfficialAwayScore *int        `json:"officialAwayScore" bson:"officialawayscore"`
	KickoffDate       string      `json:"kickoffDate" bson:"kickoffdate"`
	KickoffTime       string      `json:"kickoffTime" bson:"kickofftime"`
	Status            MatchStatus `json:"status" bson:"status"`
}

// ResultUpdate carries official data for one match. A score left out keeps
// the stored value; ClearResult wipes both sides before the rest applies.
type ResultUpdate struct {
	Match
	ClearResult bool `json:"clearResult"`
}

// Official returns the official scoreline and whether both sides are known.
func (m Match) Official() (Score, bool) {
	if m.OfficialHomeScore == nil || m.OfficialAwayScore == nil {
		return Score{}, false
	}
	return Score{Home: *m.OfficialHomeScore, Away: *m.OfficialAwayScore}, true
}

// Prediction is a participant's guess for one match.
type Prediction struct {
	MatchID            ID   `json:"matchId" bson:"matchid"`
	PredictedHomeScore *int `json:"predictedHomeScore" bson:"predictedhomescore"`
	PredictedAwayScore *int `json:"predictedAwayScore" bson:"predictedawayscore"`
}

// Predicted returns the predicted scoreline and whether it is complete.
// Negative scores are never complete.
func (p Prediction) Predicted() (Score, bool) {
	if p.PredictedHomeScore == nil || p.PredictedAwayScore == nil {
		return Score{}, false
	}
	if *p.PredictedHomeScore < 0 || *p.PredictedAwayScore < 0 {
		return Score{}, false
	}
	return Score{Home: *p.PredictedHomeScore, Away: *p.PredictedAwayScore}, true
}

// Goals returns a pointer to n. It keeps literals readable when building
// matches and predictions.
func Goals(n int) *int { return &n }
