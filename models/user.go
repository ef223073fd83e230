package models

import "time"

//User represents a user in the system

type User struct {
	ID        interface{} `json:"id" bson:"_id,omitempty"`
	Name      string      `json:"name" bson:"name"`
	Email     string      `json:"email" bson:"email"`
	Photo     string      `json:"photo,omitempty" bson:"photo,omitempty"`
	CreatedAt time.Time   `json:"createdAt" bson:"createdAt"`
}
