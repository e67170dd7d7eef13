// Package types contains read shapes shared by the app and API layers.
package types

// Standing is one betting card's place in a round.
type Standing struct {
	Rank        int    `json:"rank"`
	CardID      string `json:"cardId"`
	OwnerID     string `json:"ownerId"`
	TotalPoints int    `json:"totalPoints"`
	ExactHits   int    `json:"exactHits"`
	Pending     int    `json:"pending"`
}
