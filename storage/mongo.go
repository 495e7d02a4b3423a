package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoCatalogState implements CatalogState backed by a MongoDB collection
// of ingredient documents. Documents are returned in the same envelope the
// file and S3 states produce so the decoder does not care about the source.
type MongoCatalogState struct {
	client     *mongo.Client
	database   string
	collection string
}

func NewMongoCatalogState(client *mongo.Client, database, collection string) *MongoCatalogState {
	return &MongoCatalogState{
		client:     client,
		database:   database,
		collection: collection,
	}
}

func (m *MongoCatalogState) Load(ctx context.Context) ([]byte, error) {
	coll := m.client.Database(m.database).Collection(m.collection)

	cursor, err := coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to query catalog collection: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode catalog documents: %w", err)
	}

	return marshalCatalogEnvelope(docs)
}

// marshalCatalogEnvelope strips Mongo's _id from each document and wraps
// the rest in the {"ingredients": [...]} envelope the other states produce.
func marshalCatalogEnvelope(docs []bson.M) ([]byte, error) {
	if docs == nil {
		docs = []bson.M{}
	}
	for _, doc := range docs {
		delete(doc, "_id")
	}
	return json.Marshal(map[string]any{"ingredients": docs})
}
