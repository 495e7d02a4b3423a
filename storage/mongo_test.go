package storage

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestMarshalCatalogEnvelope(t *testing.T) {
	t.Run("strips object ids and wraps documents", func(t *testing.T) {
		docs := []bson.M{
			{"_id": primitive.NewObjectID(), "id": "v1", "name": "Spinach", "weightInGrams": 100.0},
			{"_id": primitive.NewObjectID(), "id": "g1", "name": "Brown Rice", "weightInGrams": 50.0},
		}

		data, err := marshalCatalogEnvelope(docs)
		require.NoError(t, err)

		var envelope struct {
			Ingredients []map[string]any `json:"ingredients"`
		}
		require.NoError(t, json.Unmarshal(data, &envelope))
		require.Len(t, envelope.Ingredients, 2)
		assert.Equal(t, "Spinach", envelope.Ingredients[0]["name"])
		assert.NotContains(t, envelope.Ingredients[0], "_id")
		assert.NotContains(t, envelope.Ingredients[1], "_id")
	})

	t.Run("empty collection yields empty list", func(t *testing.T) {
		data, err := marshalCatalogEnvelope(nil)
		require.NoError(t, err)
		assert.JSONEq(t, `{"ingredients": []}`, string(data))
	})
}
