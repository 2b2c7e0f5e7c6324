package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mongo is a Gateway where each table is a collection. Rows keep their
// string "id" field; Mongo's own _id is never exposed.
type Mongo struct {
	db  *mongo.Database
	now func() time.Time
}

func NewMongo(db *mongo.Database) *Mongo {
	return &Mongo{db: db, now: time.Now}
}

// EnsureIndexes creates a unique index on "id" for each collection.
func (m *Mongo) EnsureIndexes(ctx context.Context, tables ...string) error {
	for _, t := range tables {
		if err := checkIdent(t); err != nil {
			return err
		}
		idx := mongo.IndexModel{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)}
		if _, err := m.db.Collection(t).Indexes().CreateOne(ctx, idx); err != nil {
			return fmt.Errorf("index %s: %w", t, err)
		}
	}
	return nil
}

func (m *Mongo) Insert(ctx context.Context, table string, rec Record) (string, error) {
	if err := checkRecord(table, rec); err != nil {
		return "", err
	}
	row, id := withID(rec)
	if _, err := m.db.Collection(table).InsertOne(ctx, bson.M(row)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", fmt.Errorf("%w: id %s", ErrDuplicate, id)
		}
		return "", fmt.Errorf("insert into %s: %w", table, err)
	}
	return id, nil
}

func (m *Mongo) Update(ctx context.Context, table, id string, fields Record) (bool, error) {
	if err := checkRecord(table, fields); err != nil {
		return false, err
	}
	set := bson.M(clone(fields))
	delete(set, "id")
	set["updated_at"] = m.now().UTC()
	res, err := m.db.Collection(table).UpdateOne(ctx, bson.M{"id": id}, bson.M{"$set": set})
	if err != nil {
		return false, fmt.Errorf("update %s: %w", table, err)
	}
	return res.MatchedCount > 0, nil
}

func (m *Mongo) Delete(ctx context.Context, table, id string) (bool, error) {
	if err := checkIdent(table); err != nil {
		return false, err
	}
	res, err := m.db.Collection(table).DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return false, fmt.Errorf("delete from %s: %w", table, err)
	}
	return res.DeletedCount > 0, nil
}

func (m *Mongo) QueryOne(ctx context.Context, table, column string, value any) (Record, error) {
	if err := checkIdent(table, column); err != nil {
		return nil, err
	}
	var doc bson.M
	err := m.db.Collection(table).FindOne(ctx, bson.M{column: value}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	return fromBSON(doc), nil
}

func (m *Mongo) List(ctx context.Context, table string, opts ListOptions) ([]Record, error) {
	opts = opts.normalize()
	if err := checkIdent(table, opts.OrderBy); err != nil {
		return nil, err
	}
	find := options.Find().
		SetSort(bson.D{{Key: opts.OrderBy, Value: -1}}).
		SetLimit(int64(opts.Limit))
	cur, err := m.db.Collection(table).Find(ctx, bson.M{}, find)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", table, err)
	}
	defer cur.Close(ctx)
	var docs []bson.M
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("list %s: %w", table, err)
	}
	out := make([]Record, len(docs))
	for i, d := range docs {
		out[i] = fromBSON(d)
	}
	return out, nil
}

func (m *Mongo) Ping(ctx context.Context) error {
	return m.db.Client().Ping(ctx, nil)
}

// fromBSON drops _id and converts BSON datetimes back to time.Time.
func fromBSON(doc bson.M) Record {
	out := make(Record, len(doc))
	for k, v := range doc {
		if k == "_id" {
			continue
		}
		if dt, ok := v.(primitive.DateTime); ok {
			v = dt.Time().UTC()
		}
		out[k] = v
	}
	return out
}
