package utils

import (
	"context"
	"fmt"
	"os"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoURI builds the connection string from the environment. MONGO_URI wins
// when set; otherwise DB_USER/DB_PASS/DB_HOST form an Atlas SRV URI, falling
// back to a local instance when no credentials are configured.
func MongoURI() string {
	if uri := os.Getenv("MONGO_URI"); uri != "" {
		return uri
	}
	user := os.Getenv("DB_USER")
	pass := os.Getenv("DB_PASS")
	host := os.Getenv("DB_HOST")
	if user == "" || pass == "" || host == "" {
		return "mongodb://localhost:27017"
	}
	return fmt.Sprintf("mongodb+srv://%s:%s@%s/?retryWrites=true&w=majority", user, pass, host)
}

// InitMongoClient initializes the MongoDB client and returns a reference to it.
func InitMongoClient() (*mongo.Client, error) {
	clientOptions := options.Client().ApplyURI(MongoURI()).
		SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1))
	client, err := mongo.Connect(context.TODO(), clientOptions)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// GetCollection returns a collection reference for the specified database and collection names.
func GetCollection(client *mongo.Client, dbName, collectionName string) *mongo.Collection {
	return client.Database(dbName).Collection(collectionName)
}
