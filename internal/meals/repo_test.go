package meals

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestBuildListFilterEmpty(t *testing.T) {
	filter := buildListFilter(ListQuery{})
	assert.Equal(t, bson.M{}, filter)
}

func TestBuildListFilterKeyword(t *testing.T) {
	filter := buildListFilter(ListQuery{Q: " biryani "})

	or, ok := filter["$or"].(bson.A)
	assert.True(t, ok)
	assert.Len(t, or, 2)
	assert.Equal(t, bson.M{"title": bson.M{"$regex": "biryani", "$options": "i"}}, or[0])
}

func TestBuildListFilterCategory(t *testing.T) {
	filter := buildListFilter(ListQuery{Category: "Dinner"})
	assert.Equal(t, bson.M{"$regex": "^Dinner$", "$options": "i"}, filter["category"])
}
