package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"cultivos/agronomy"
)

// PredictionRun is a stored prediction made for a farm.
type PredictionRun struct {
	ID          primitive.ObjectID        `bson:"_id,omitempty" json:"id"`
	FarmID      primitive.ObjectID        `bson:"farmId"        json:"farm_id"`
	OwnerID     primitive.ObjectID        `bson:"ownerId"       json:"owner_id"`
	RequestID   string                    `bson:"requestId"     json:"request_id"`
	Source      string                    `bson:"source"        json:"source"` // remote_model | local_simulation
	Predictions []agronomy.CropPrediction `bson:"predictions"   json:"predictions"`
	CreatedAt   time.Time                 `bson:"createdAt"     json:"created_at"`
}
