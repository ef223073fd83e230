package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Food struct {
	ID       primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name     string             `json:"name" bson:"name"`
	Recipe   string             `json:"recipe" bson:"recipe"`
	Image    string             `json:"image" bson:"image"`
	Category string             `json:"category" bson:"category"`
	Price    float64            `json:"price" bson:"price"`
}

type Rating struct {
	ID      primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Name    string             `json:"name" bson:"name"`
	Details string             `json:"details" bson:"details"`
	Rating  float64            `json:"rating" bson:"rating"`
}

type Cart struct {
	ID    primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Email string             `json:"email" bson:"email"`
	Food  string             `json:"food" bson:"food"`
	Name  string             `json:"name" bson:"name"`
	Image string             `json:"image" bson:"image"`
	Price float64            `json:"price" bson:"price"`
}

type Payment struct {
	ID            primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Email         string             `json:"email" bson:"email"`
	Price         float64            `json:"price" bson:"price"`
	Currency      string             `json:"currency" bson:"currency"`
	TransactionID string             `json:"transactionId" bson:"transactionId"`
	CartIDs       []string           `json:"cartId" bson:"cartId"`
	FoodIDs       []string           `json:"foodId" bson:"foodId"`
	Status        string             `json:"status" bson:"status"`
	Date          time.Time          `json:"date" bson:"date"`
}
