package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/okian/bolao/internal/domain/model"
	"github.com/okian/bolao/pkg/metrics"
)

const (
	defaultDatabase     = "bolao"
	defaultMongoTimeout = 10 * time.Second
)

// MongoStore keeps rounds and cards in MongoDB, one document per record
// keyed by _id. Cards carry their round id so a round's cards are one
// indexed query away.
type MongoStore struct {
	client   *mongo.Client
	database string
	timeout  time.Duration
	rounds   *mongo.Collection
	cards    *mongo.Collection
}

var _ Store = (*MongoStore)(nil)

// NewMongoStore connects to uri, checks the connection and ensures the card
// index exists.
func NewMongoStore(ctx context.Context, uri string, opts ...MongoOption) (*MongoStore, error) {
	s := &MongoStore{database: defaultDatabase, timeout: defaultMongoTimeout}
	for _, opt := range opts {
		opt(s)
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetTimeout(s.timeout))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	db := client.Database(s.database)
	s.client = client
	s.rounds = db.Collection(CollectionRounds)
	s.cards = db.Collection(CollectionCards)

	_, err = s.cards.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "roundid", Value: 1}, {Key: "createdat", Value: 1}},
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo index: %w", err)
	}
	return s, nil
}

func (s *MongoStore) SaveRound(ctx context.Context, r model.Round) error {
	defer observeWrite(time.Now())
	if r.ID.Empty() {
		return ErrInvalidID
	}
	_, err := s.rounds.ReplaceOne(ctx, bson.M{"_id": r.ID}, r, options.Replace().SetUpsert(true))
	if err != nil {
		metrics.RecordErrorByComponent("repository", "write")
		return fmt.Errorf("save round %s: %w", r.ID, err)
	}
	return nil
}

func (s *MongoStore) Round(ctx context.Context, id model.ID) (model.Round, error) {
	defer observeRead(time.Now())
	var r model.Round
	if err := s.rounds.FindOne(ctx, bson.M{"_id": id}).Decode(&r); err != nil {
		return model.Round{}, notFound("round", id, err)
	}
	return r, nil
}

func (s *MongoStore) SaveCard(ctx context.Context, c model.BettingCard) error {
	defer observeWrite(time.Now())
	if c.ID.Empty() || c.RoundID.Empty() {
		return ErrInvalidID
	}
	_, err := s.cards.ReplaceOne(ctx, bson.M{"_id": c.ID}, c, options.Replace().SetUpsert(true))
	if err != nil {
		metrics.RecordErrorByComponent("repository", "write")
		return fmt.Errorf("save card %s: %w", c.ID, err)
	}
	return nil
}

func (s *MongoStore) Card(ctx context.Context, id model.ID) (model.BettingCard, error) {
	defer observeRead(time.Now())
	var c model.BettingCard
	if err := s.cards.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return model.BettingCard{}, notFound("card", id, err)
	}
	return c, nil
}

func (s *MongoStore) CardsByRound(ctx context.Context, roundID model.ID) ([]model.BettingCard, error) {
	defer observeRead(time.Now())
	opts := options.Find().SetSort(bson.D{{Key: "createdat", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.cards.Find(ctx, bson.M{"roundid": roundID}, opts)
	if err != nil {
		metrics.RecordErrorByComponent("repository", "read")
		return nil, fmt.Errorf("cards of round %s: %w", roundID, err)
	}
	out := make([]model.BettingCard, 0)
	if err := cur.All(ctx, &out); err != nil {
		metrics.RecordErrorByComponent("repository", "read")
		return nil, fmt.Errorf("decode cards of round %s: %w", roundID, err)
	}
	return out, nil
}

func (s *MongoStore) Count(ctx context.Context) (Counts, error) {
	rounds, err := s.rounds.CountDocuments(ctx, bson.D{})
	if err != nil {
		return Counts{}, fmt.Errorf("count rounds: %w", err)
	}
	cards, err := s.cards.CountDocuments(ctx, bson.D{})
	if err != nil {
		return Counts{}, fmt.Errorf("count cards: %w", err)
	}
	metrics.UpdateStoreRecords(CollectionRounds, int(rounds))
	metrics.UpdateStoreRecords(CollectionCards, int(cards))
	return Counts{Rounds: int(rounds), Cards: int(cards)}, nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	if err := s.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("mongo disconnect: %w", err)
	}
	return nil
}

// Drop removes the store's database. Used by integration tests.
func (s *MongoStore) Drop(ctx context.Context) error {
	return s.client.Database(s.database).Drop(ctx)
}

func notFound(kind string, id model.ID, err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		metrics.RecordErrorByComponent("repository", "not_found")
		return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	metrics.RecordErrorByComponent("repository", "read")
	return fmt.Errorf("find %s %s: %w", kind, id, err)
}
