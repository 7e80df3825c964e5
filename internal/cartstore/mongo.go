package cartstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bank-spn/manus-pos/internal/cart"
	"github.com/bank-spn/manus-pos/internal/domain"
)

var ErrCartNotFound = errors.New("saved cart not found")

// SavedLine is the persisted form of a ledger line. Prices are stored as
// decimal strings because the wire decimal type does not survive the
// default BSON codec.
type SavedLine struct {
	ProductID int64  `bson:"product_id"`
	NameTH    string `bson:"name_th"`
	NameEN    string `bson:"name_en"`
	Price     string `bson:"price"`
	Qty       int    `bson:"qty"`
}

// SavedCart is a terminal session's cart state: ledger lines plus the
// table and language selection, keyed by terminal id so a restarted
// terminal picks up where it left off.
type SavedCart struct {
	TerminalID string      `bson:"terminal_id"`
	Lines      []SavedLine `bson:"lines"`
	TableID    *int64      `bson:"table_id,omitempty"`
	Language   string      `bson:"language"`
	CreatedAt  time.Time   `bson:"created_at"`
	UpdatedAt  time.Time   `bson:"updated_at"`
}

// Store defines cart persistence operations.
// Consumers define this interface, not the MongoDB implementation.
type Store interface {
	Load(ctx context.Context, terminalID string) (*SavedCart, error)
	Save(ctx context.Context, saved *SavedCart) error
	Delete(ctx context.Context, terminalID string) error
}

func ConnectMongoDB(ctx context.Context, uri, database string) (*mongo.Database, error) {
	clientOpts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(100).
		SetMinPoolSize(10)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client.Database(database), nil
}

type mongoStore struct {
	collection *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *mongoStore {
	return &mongoStore{collection: db.Collection("saved_carts")}
}

func (m *mongoStore) Load(ctx context.Context, terminalID string) (*SavedCart, error) {
	var saved SavedCart

	filter := bson.M{"terminal_id": terminalID}
	err := m.collection.FindOne(ctx, filter).Decode(&saved)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to load saved cart: %w", err)
	}

	return &saved, nil
}

func (m *mongoStore) Save(ctx context.Context, saved *SavedCart) error {
	now := time.Now()
	if saved.CreatedAt.IsZero() {
		saved.CreatedAt = now
	}
	saved.UpdatedAt = now

	filter := bson.M{"terminal_id": saved.TerminalID}
	update := bson.M{"$set": saved}
	opts := options.Update().SetUpsert(true)

	_, err := m.collection.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}

	return nil
}

func (m *mongoStore) Delete(ctx context.Context, terminalID string) error {
	filter := bson.M{"terminal_id": terminalID}

	result, err := m.collection.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to delete saved cart: %w", err)
	}

	if result.DeletedCount == 0 {
		return ErrCartNotFound
	}

	return nil
}

func (m *mongoStore) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "terminal_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "updated_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(7 * 24 * 60 * 60), // abandoned carts expire after a week
		},
	}

	_, err := m.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	return nil
}

// ToSavedLines converts live ledger lines into their persisted form.
func ToSavedLines(lines []cart.Line) []SavedLine {
	out := make([]SavedLine, len(lines))
	for i, line := range lines {
		out[i] = SavedLine{
			ProductID: line.Product.ID,
			NameTH:    line.Product.Name.TH,
			NameEN:    line.Product.Name.EN,
			Price:     line.Product.Price.String(),
			Qty:       line.Qty,
		}
	}
	return out
}

// FromSavedLines rebuilds ledger lines from their persisted form. Lines
// whose stored price no longer parses are dropped rather than restored
// with a zero price.
func FromSavedLines(saved []SavedLine) []cart.Line {
	var out []cart.Line
	for _, s := range saved {
		price, err := decimal.NewFromString(s.Price)
		if err != nil {
			continue
		}
		out = append(out, cart.Line{
			Product: domain.Product{
				ID:    s.ProductID,
				Name:  domain.MultiLang{TH: s.NameTH, EN: s.NameEN},
				Price: price,
			},
			Qty: s.Qty,
		})
	}
	return out
}
