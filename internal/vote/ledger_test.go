package vote

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestDecideEmptySet(t *testing.T) {
	liked, count := Decide(nil, "u1")
	assert.True(t, liked)
	assert.Equal(t, 1, count)
}

func TestDecideInvolution(t *testing.T) {
	likes := []string{}
	voter := "u1"

	liked, count := Decide(likes, voter)
	assert.True(t, liked)
	assert.Equal(t, 1, count)

	// apply, toggle again
	likes = append(likes, voter)
	liked, count = Decide(likes, voter)
	assert.False(t, liked)
	assert.Equal(t, 0, count)
}

func TestDecideDistinctVoters(t *testing.T) {
	likes := []string{"u1", "u2", "u3"}

	liked, count := Decide(likes, "u4")
	assert.True(t, liked)
	assert.Equal(t, 4, count)

	liked, count = Decide(likes, "u2")
	assert.False(t, liked)
	assert.Equal(t, 2, count)
}

func TestUpdateDocAddVsPull(t *testing.T) {
	add := UpdateDoc(true, "u1")
	assert.Equal(t, bson.M{"$addToSet": bson.M{"likes": "u1"}}, add)

	pull := UpdateDoc(false, "u1")
	assert.Equal(t, bson.M{"$pull": bson.M{"likes": "u1"}}, pull)
}
