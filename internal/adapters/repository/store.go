// Package repository persists rounds and betting cards.
package repository

import (
	"context"

	"github.com/okian/bolao/internal/domain/model"
)

// Collection names, shared by the metrics labels and the Mongo store.
const (
	CollectionRounds = "rounds"
	CollectionCards  = "betting_cards"
)

// Counts is the number of stored records per collection.
type Counts struct {
	Rounds int `json:"rounds"`
	Cards  int `json:"cards"`
}

// Store provides read/write access to rounds and betting cards.
// Scored values are never stored; callers recompute them on read.
type Store interface {
	// SaveRound inserts or replaces a round by id.
	SaveRound(ctx context.Context, r model.Round) error
	// Round returns ErrNotFound if the round is unknown.
	Round(ctx context.Context, id model.ID) (model.Round, error)

	// SaveCard inserts or replaces a card by id.
	SaveCard(ctx context.Context, c model.BettingCard) error
	// Card returns ErrNotFound if the card is unknown.
	Card(ctx context.Context, id model.ID) (model.BettingCard, error)
	// CardsByRound returns the round's cards ordered by creation time, then id.
	CardsByRound(ctx context.Context, roundID model.ID) ([]model.BettingCard, error)

	Count(ctx context.Context) (Counts, error)
	Close(ctx context.Context) error
}
