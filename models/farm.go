package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"cultivos/agronomy"
)

// Farm ("finca") is a user's plot with the conditions predictions are made from.
// Field names follow the farm registration form.
type Farm struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OwnerID   primitive.ObjectID `bson:"ownerId"       json:"owner_id"`
	Name      string             `bson:"nombre"        json:"nombre"`
	Location  string             `bson:"ubicacion"     json:"ubicacion"`
	CreatedAt time.Time          `bson:"createdAt"     json:"created_at"`
	UpdatedAt time.Time          `bson:"updatedAt"     json:"updated_at"`

	PH            float64  `bson:"ph_suelo"            json:"ph_suelo"`
	SoilType      string   `bson:"tipo_suelo"          json:"tipo_suelo"`
	SoilTexture   string   `bson:"textura_suelo"       json:"textura_suelo"`
	Temperature   float64  `bson:"temperatura"         json:"temperatura"`
	Precipitation float64  `bson:"precipitacion"       json:"precipitacion"`
	Humidity      float64  `bson:"humedad"             json:"humedad"`
	Practices     []string `bson:"practicas_agricolas" json:"practicas_agricolas"`
}

// Environment returns the farm's conditions as estimator input.
func (f Farm) Environment() agronomy.Environment {
	return agronomy.Environment{
		PH:            f.PH,
		SoilType:      f.SoilType,
		SoilTexture:   f.SoilTexture,
		Temperature:   f.Temperature,
		Precipitation: f.Precipitation,
		Humidity:      f.Humidity,
		Practices:     f.Practices,
	}
}

// SetEnvironment copies validated conditions onto the farm.
func (f *Farm) SetEnvironment(env agronomy.Environment) {
	f.PH = env.PH
	f.SoilType = env.SoilType
	f.SoilTexture = env.SoilTexture
	f.Temperature = env.Temperature
	f.Precipitation = env.Precipitation
	f.Humidity = env.Humidity
	f.Practices = env.Practices
	if f.Practices == nil {
		f.Practices = []string{}
	}
}
