package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/calcproject/freightcalc/internal/core/domain"
)

const collectionQuoteHistory = "quote_history"

// QuoteHistoryRepository persists aggregation outcomes in MongoDB.
type QuoteHistoryRepository struct {
	col *mongo.Collection
}

func NewQuoteHistoryRepository(db *mongo.Database) *QuoteHistoryRepository {
	return &QuoteHistoryRepository{col: db.Collection(collectionQuoteHistory)}
}

// quoteDoc is the stored shape of a domain.QuoteRecord; the ObjectID maps to
// the domain's string ID at the boundary.
type quoteDoc struct {
	ID        primitive.ObjectID     `bson:"_id,omitempty"`
	Request   domain.ShipmentRequest `bson:"request"`
	Quotes    []domain.Quote         `bson:"quotes"`
	CreatedAt time.Time              `bson:"created_at"`
}

// Save inserts one aggregation record.
func (r *QuoteHistoryRepository) Save(ctx context.Context, rec *domain.QuoteRecord) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := quoteDoc{
		Request:   rec.Request,
		Quotes:    rec.Quotes,
		CreatedAt: rec.CreatedAt,
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert quote record: %w", err)
	}
	return nil
}

// Recent returns up to limit records, newest first.
func (r *QuoteHistoryRepository) Recent(ctx context.Context, limit int) ([]*domain.QuoteRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find quote records: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []quoteDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode quote records: %w", err)
	}

	records := make([]*domain.QuoteRecord, len(docs))
	for i, doc := range docs {
		records[i] = &domain.QuoteRecord{
			ID:        doc.ID.Hex(),
			Request:   doc.Request,
			Quotes:    doc.Quotes,
			CreatedAt: doc.CreatedAt,
		}
	}
	return records, nil
}
