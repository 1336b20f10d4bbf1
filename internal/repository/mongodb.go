package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"smart-pantry-api/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// MongoStore implements Store using MongoDB.
type MongoStore struct {
	client     *mongo.Client
	db         *mongo.Database
	categories *mongo.Collection
	items      *mongo.Collection
}

type categoryDocument struct {
	ID        string    `bson:"_id"`
	Name      string    `bson:"name"`
	NameLower string    `bson:"name_lower"`
	CreatedAt time.Time `bson:"created_at"`
}

type itemDocument struct {
	ID             string     `bson:"_id"`
	Name           string     `bson:"name"`
	Quantity       int        `bson:"quantity"`
	CategoryID     string     `bson:"category_id"`
	ExpirationDate *time.Time `bson:"expiration_date,omitempty"`
	CreatedAt      time.Time  `bson:"created_at"`
	UpdatedAt      time.Time  `bson:"updated_at"`
}

func toItemDocument(item model.PantryItem) itemDocument {
	doc := itemDocument{
		ID:         item.ID,
		Name:       item.Name,
		Quantity:   item.Quantity,
		CategoryID: item.CategoryID,
		CreatedAt:  item.CreatedAt.UTC(),
		UpdatedAt:  item.UpdatedAt.UTC(),
	}
	if item.ExpirationDate != nil {
		t := item.ExpirationDate.UTC()
		doc.ExpirationDate = &t
	}
	return doc
}

func (d itemDocument) toModel() model.PantryItem {
	item := model.PantryItem{
		ID:         d.ID,
		Name:       d.Name,
		Quantity:   d.Quantity,
		CategoryID: d.CategoryID,
		CreatedAt:  d.CreatedAt.UTC(),
		UpdatedAt:  d.UpdatedAt.UTC(),
	}
	if d.ExpirationDate != nil {
		t := d.ExpirationDate.UTC()
		item.ExpirationDate = &t
	}
	return item
}

// NewMongoStore connects to MongoDB and ensures indexes.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	clientOpts := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(50).
		SetMinPoolSize(5).
		SetMaxConnIdleTime(5 * time.Minute).
		SetRetryWrites(true)

	client, err := mongo.Connect(connectCtx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	db := client.Database(database)
	s := &MongoStore{
		client:     client,
		db:         db,
		categories: db.Collection("categories"),
		items:      db.Collection("pantry_items"),
	}

	if _, err := s.categories.Indexes().CreateOne(connectCtx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name_lower", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to create category index: %w", err)
	}
	if _, err := s.items.Indexes().CreateMany(connectCtx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "expiration_date", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: 1}}},
	}); err != nil {
		zap.L().Warn("failed to create item indexes", zap.Error(err))
	}

	zap.L().Info("mongodb store initialized", zap.String("database", database))
	return s, nil
}

// CreateOrGetCategory inserts cat; on a duplicate key it returns the existing category.
func (s *MongoStore) CreateOrGetCategory(ctx context.Context, cat model.Category) (model.Category, bool, error) {
	_, err := s.categories.InsertOne(ctx, categoryDocument{
		ID:        cat.ID,
		Name:      cat.Name,
		NameLower: model.FoldName(cat.Name),
		CreatedAt: time.Now().UTC(),
	})
	if err == nil {
		return cat, true, nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return model.Category{}, false, fmt.Errorf("failed to create category: %w", err)
	}

	var doc categoryDocument
	err = s.categories.FindOne(ctx, bson.M{"name_lower": model.FoldName(cat.Name)}).Decode(&doc)
	if err != nil {
		return model.Category{}, false, fmt.Errorf("failed to fetch conflicting category: %w", err)
	}
	return model.Category{ID: doc.ID, Name: doc.Name}, false, nil
}

// GetCategory returns a category by id.
func (s *MongoStore) GetCategory(ctx context.Context, id string) (*model.Category, error) {
	var doc categoryDocument
	err := s.categories.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return &model.Category{ID: doc.ID, Name: doc.Name}, nil
}

// FindCategoriesByNames matches on the stored lower-cased name in one query.
func (s *MongoStore) FindCategoriesByNames(ctx context.Context, names []string) ([]model.Category, error) {
	if len(names) == 0 {
		return []model.Category{}, nil
	}
	lowered := make([]string, len(names))
	for i, n := range names {
		lowered[i] = model.FoldName(n)
	}
	return s.findCategories(ctx, bson.M{"name_lower": bson.M{"$in": lowered}}, nil)
}

// ListCategories returns all categories ordered by name.
func (s *MongoStore) ListCategories(ctx context.Context) ([]model.Category, error) {
	return s.findCategories(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name_lower", Value: 1}}))
}

func (s *MongoStore) findCategories(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]model.Category, error) {
	cursor, err := s.categories.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find categories: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []categoryDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode categories: %w", err)
	}
	out := make([]model.Category, len(docs))
	for i, d := range docs {
		out[i] = model.Category{ID: d.ID, Name: d.Name}
	}
	return out, nil
}

// CreateItem inserts one item.
func (s *MongoStore) CreateItem(ctx context.Context, item model.PantryItem) error {
	if _, err := s.items.InsertOne(ctx, toItemDocument(item)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("failed to create item %s: %w", item.ID, ErrDuplicate)
		}
		return fmt.Errorf("failed to create item: %w", err)
	}
	return nil
}

// BulkInsertItems inserts all items with one ordered InsertMany.
// Without a replica-set transaction, rows before a failing row stay written.
func (s *MongoStore) BulkInsertItems(ctx context.Context, items []model.PantryItem) error {
	if len(items) == 0 {
		return nil
	}
	docs := make([]interface{}, len(items))
	for i, item := range items {
		docs[i] = toItemDocument(item)
	}

	if _, err := s.items.InsertMany(ctx, docs, options.InsertMany().SetOrdered(true)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			err = fmt.Errorf("%w: %v", ErrDuplicate, err)
		}
		return fmt.Errorf("failed to insert items: %w", err)
	}
	zap.L().Debug("mongodb bulk insert", zap.Int("items", len(items)))
	return nil
}

// GetItem returns one item with its category.
func (s *MongoStore) GetItem(ctx context.Context, id string) (*model.PantryItem, error) {
	var doc itemDocument
	err := s.items.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}

	items := []model.PantryItem{doc.toModel()}
	if err := s.attachCategories(ctx, items); err != nil {
		return nil, err
	}
	return &items[0], nil
}

// ListItems returns items with their categories.
func (s *MongoStore) ListItems(ctx context.Context, filter ItemFilter) ([]model.PantryItem, error) {
	query := bson.M{}
	if filter.ExpiringBefore != nil {
		query["expiration_date"] = bson.M{"$ne": nil, "$lte": filter.ExpiringBefore.UTC()}
	}
	sort := bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}
	if filter.Order == OrderByExpiration {
		sort = bson.D{{Key: "expiration_date", Value: 1}, {Key: "_id", Value: 1}}
	}

	cursor, err := s.items.Find(ctx, query, options.Find().SetSort(sort))
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []itemDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode items: %w", err)
	}

	items := make([]model.PantryItem, len(docs))
	for i, d := range docs {
		items[i] = d.toModel()
	}
	if err := s.attachCategories(ctx, items); err != nil {
		return nil, err
	}
	return items, nil
}

// attachCategories loads the categories referenced by items in one query.
func (s *MongoStore) attachCategories(ctx context.Context, items []model.PantryItem) error {
	if len(items) == 0 {
		return nil
	}
	ids := make([]string, 0, len(items))
	seen := make(map[string]struct{})
	for _, item := range items {
		if _, ok := seen[item.CategoryID]; !ok {
			seen[item.CategoryID] = struct{}{}
			ids = append(ids, item.CategoryID)
		}
	}

	cats, err := s.findCategories(ctx, bson.M{"_id": bson.M{"$in": ids}}, nil)
	if err != nil {
		return err
	}
	byID := make(map[string]model.Category, len(cats))
	for _, c := range cats {
		byID[c.ID] = c
	}
	for i := range items {
		if c, ok := byID[items[i].CategoryID]; ok {
			items[i].Category = &c
		}
	}
	return nil
}

// UpdateItem overwrites the mutable fields of an item.
func (s *MongoStore) UpdateItem(ctx context.Context, item model.PantryItem) error {
	set := bson.M{
		"name":        item.Name,
		"quantity":    item.Quantity,
		"category_id": item.CategoryID,
		"updated_at":  item.UpdatedAt.UTC(),
	}
	update := bson.M{"$set": set}
	if item.ExpirationDate != nil {
		set["expiration_date"] = item.ExpirationDate.UTC()
	} else {
		update["$unset"] = bson.M{"expiration_date": ""}
	}

	res, err := s.items.UpdateOne(ctx, bson.M{"_id": item.ID}, update)
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteExpiredBefore removes items that expired before cutoff.
func (s *MongoStore) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.items.DeleteMany(ctx, bson.M{"expiration_date": bson.M{"$lt": cutoff.UTC()}})
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired items: %w", err)
	}
	return res.DeletedCount, nil
}

// Ping verifies the connection.
func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Stats returns document counts and collection size.
func (s *MongoStore) Stats(ctx context.Context) (map[string]interface{}, error) {
	stats := make(map[string]interface{})
	stats["driver"] = "mongodb"

	items, err := s.items.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	categories, err := s.categories.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	stats["total_items"] = items
	stats["total_categories"] = categories

	var collStats bson.M
	if err := s.db.RunCommand(ctx, bson.D{{Key: "collStats", Value: s.items.Name()}}).Decode(&collStats); err == nil {
		switch size := collStats["size"].(type) {
		case int64:
			stats["db_size_bytes"] = size
		case int32:
			stats["db_size_bytes"] = int64(size)
		}
	}

	return stats, nil
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// Ensure MongoStore implements Store
var _ Store = (*MongoStore)(nil)
