// Package store persists users, farms and prediction runs in MongoDB.
package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"cultivos/models"
)

// Users is the account repository.
type Users interface {
	CreateUser(ctx context.Context, u *models.User) error
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	UserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// Farms is the owner-scoped farm repository.
type Farms interface {
	CreateFarm(ctx context.Context, f *models.Farm) error
	ListFarms(ctx context.Context, owner primitive.ObjectID) ([]models.Farm, error)
	GetFarm(ctx context.Context, id, owner primitive.ObjectID) (*models.Farm, error)
	UpdateFarm(ctx context.Context, f *models.Farm) (*models.Farm, error)
	DeleteFarm(ctx context.Context, id, owner primitive.ObjectID) error
}

// Runs stores prediction history per farm.
type Runs interface {
	CreateRun(ctx context.Context, run *models.PredictionRun) error
	ListRuns(ctx context.Context, farmID, owner primitive.ObjectID, limit int64) ([]models.PredictionRun, error)
}
