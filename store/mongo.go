package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"cultivos/apperr"
	"cultivos/models"
)

var (
	_ Users = (*Mongo)(nil)
	_ Farms = (*Mongo)(nil)
	_ Runs  = (*Mongo)(nil)
)

// Mongo implements Users, Farms and Runs on one database.
type Mongo struct {
	client *mongo.Client
	db     *mongo.Database
	users  *mongo.Collection
	farms  *mongo.Collection
	runs   *mongo.Collection
}

// Connect opens the client, selects dbName and ensures indexes.
func Connect(ctx context.Context, uri, dbName string) (*Mongo, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, apperr.DatabaseError("mongo connect", err)
	}
	db := client.Database(dbName)
	m := &Mongo{
		client: client,
		db:     db,
		users:  db.Collection("users"),
		farms:  db.Collection("farms"),
		runs:   db.Collection("predictions"),
	}
	if err := m.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return m, nil
}

func (m *Mongo) ensureIndexes(ctx context.Context) error {
	if _, err := m.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return apperr.DatabaseError("users index", err)
	}
	if _, err := m.farms.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "ownerId", Value: 1}, {Key: "createdAt", Value: -1}},
	}); err != nil {
		return apperr.DatabaseError("farms index", err)
	}
	if _, err := m.runs.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "farmId", Value: 1}, {Key: "createdAt", Value: -1}},
	}); err != nil {
		return apperr.DatabaseError("predictions index", err)
	}
	return nil
}

// Ping checks the primary is reachable.
func (m *Mongo) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client.
func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

func (m *Mongo) CreateUser(ctx context.Context, u *models.User) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	res, err := m.users.InsertOne(ctx, u)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperr.Conflict("email already registered")
		}
		return apperr.DatabaseError("insert user", err)
	}
	u.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (m *Mongo) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := m.users.FindOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))}).Decode(&u)
	if err != nil {
		return nil, notFoundOr(err, "user", "find user")
	}
	return &u, nil
}

func (m *Mongo) UserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := m.users.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, notFoundOr(err, "user", "find user")
	}
	return &u, nil
}

func (m *Mongo) CreateFarm(ctx context.Context, f *models.Farm) error {
	now := time.Now().UTC()
	f.CreatedAt, f.UpdatedAt = now, now
	res, err := m.farms.InsertOne(ctx, f)
	if err != nil {
		return apperr.DatabaseError("insert farm", err)
	}
	f.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

func (m *Mongo) ListFarms(ctx context.Context, owner primitive.ObjectID) ([]models.Farm, error) {
	cur, err := m.farms.Find(ctx, bson.M{"ownerId": owner},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, apperr.DatabaseError("list farms", err)
	}
	defer cur.Close(ctx)

	out := []models.Farm{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, apperr.DatabaseError("decode farms", err)
	}
	return out, nil
}

func (m *Mongo) GetFarm(ctx context.Context, id, owner primitive.ObjectID) (*models.Farm, error) {
	var f models.Farm
	if err := m.farms.FindOne(ctx, bson.M{"_id": id, "ownerId": owner}).Decode(&f); err != nil {
		return nil, notFoundOr(err, "farm", "find farm")
	}
	return &f, nil
}

// UpdateFarm replaces the editable fields of f, matched by f.ID and f.OwnerID.
func (m *Mongo) UpdateFarm(ctx context.Context, f *models.Farm) (*models.Farm, error) {
	set := bson.M{
		"nombre":              f.Name,
		"ubicacion":           f.Location,
		"ph_suelo":            f.PH,
		"tipo_suelo":          f.SoilType,
		"textura_suelo":       f.SoilTexture,
		"temperatura":         f.Temperature,
		"precipitacion":       f.Precipitation,
		"humedad":             f.Humidity,
		"practicas_agricolas": f.Practices,
		"updatedAt":           time.Now().UTC(),
	}
	res := m.farms.FindOneAndUpdate(ctx,
		bson.M{"_id": f.ID, "ownerId": f.OwnerID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	var out models.Farm
	if err := res.Decode(&out); err != nil {
		return nil, notFoundOr(err, "farm", "update farm")
	}
	return &out, nil
}

// DeleteFarm removes the farm and its prediction history.
func (m *Mongo) DeleteFarm(ctx context.Context, id, owner primitive.ObjectID) error {
	res, err := m.farms.DeleteOne(ctx, bson.M{"_id": id, "ownerId": owner})
	if err != nil {
		return apperr.DatabaseError("delete farm", err)
	}
	if res.DeletedCount == 0 {
		return apperr.NotFound("farm")
	}
	if _, err := m.runs.DeleteMany(ctx, bson.M{"farmId": id, "ownerId": owner}); err != nil {
		return apperr.DatabaseError("delete farm predictions", err)
	}
	return nil
}

func (m *Mongo) CreateRun(ctx context.Context, run *models.PredictionRun) error {
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	res, err := m.runs.InsertOne(ctx, run)
	if err != nil {
		return apperr.DatabaseError("insert prediction", err)
	}
	run.ID = res.InsertedID.(primitive.ObjectID)
	return nil
}

// ListRuns returns a farm's predictions, newest first. limit <= 0 means all.
func (m *Mongo) ListRuns(ctx context.Context, farmID, owner primitive.ObjectID, limit int64) ([]models.PredictionRun, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := m.runs.Find(ctx, bson.M{"farmId": farmID, "ownerId": owner}, opts)
	if err != nil {
		return nil, apperr.DatabaseError("list predictions", err)
	}
	defer cur.Close(ctx)

	out := []models.PredictionRun{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, apperr.DatabaseError("decode predictions", err)
	}
	return out, nil
}

func notFoundOr(err error, resource, op string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return apperr.NotFound(resource)
	}
	return apperr.DatabaseError(op, err)
}
