package repositories

import (
	"context"
	"errors"

	"github.com/tickersocial/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrQuoteNotCached is returned when no cached quote exists for a ticker
var ErrQuoteNotCached = errors.New("quote not cached")

// MarketRepository defines the interface for the market quote cache
type MarketRepository interface {
	GetQuote(ctx context.Context, ticker string) (*models.MarketQuote, error)
	SaveQuote(ctx context.Context, quote *models.MarketQuote) error
}

// MongoMarketRepository implements MarketRepository for MongoDB
type MongoMarketRepository struct {
	collection *mongo.Collection
}

// NewMongoMarketRepository creates a new MongoMarketRepository
func NewMongoMarketRepository(db *mongo.Database) *MongoMarketRepository {
	return &MongoMarketRepository{collection: db.Collection("market_quotes")}
}

// GetQuote retrieves the cached quote for a ticker from MongoDB
func (r *MongoMarketRepository) GetQuote(ctx context.Context, ticker string) (*models.MarketQuote, error) {
	var quote models.MarketQuote
	err := r.collection.FindOne(ctx, bson.M{"ticker": ticker}).Decode(&quote)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrQuoteNotCached
		}
		return nil, err
	}
	return &quote, nil
}

// SaveQuote upserts the cached quote for a ticker in MongoDB
func (r *MongoMarketRepository) SaveQuote(ctx context.Context, quote *models.MarketQuote) error {
	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, bson.M{"ticker": quote.Ticker}, quote, opts)
	return err
}
