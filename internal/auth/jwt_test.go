package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"mealhub/pkg/models"
)

func testTokenService() TokenService {
	return TokenService{
		Secret:   []byte("test-secret"),
		Issuer:   "mealhub-test",
		Duration: time.Hour,
	}
}

func TestSignParseRoundTrip(t *testing.T) {
	ts := testTokenService()

	u := &models.User{
		ID:           bson.NewObjectID(),
		Name:         "Asha",
		Email:        "asha@example.com",
		Role:         models.RoleAdmin,
		TokenVersion: 3,
	}

	token, exp, err := ts.Sign(u)
	require.NoError(t, err)
	assert.True(t, exp.After(time.Now()))

	claims, err := ts.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, u.ID.Hex(), claims.UserID)
	assert.Equal(t, u.Email, claims.Email)
	assert.Equal(t, models.RoleAdmin, claims.Role)
	assert.Equal(t, 3, claims.TokenVersion)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	ts := testTokenService()

	token, _, err := ts.Sign(&models.User{ID: bson.NewObjectID(), Email: "a@b.c"})
	require.NoError(t, err)

	other := testTokenService()
	other.Secret = []byte("different-secret")

	_, err = other.Parse(token)
	assert.Error(t, err)
}

func TestParseRejectsExpired(t *testing.T) {
	ts := testTokenService()
	ts.Duration = -time.Minute

	token, _, err := ts.Sign(&models.User{ID: bson.NewObjectID(), Email: "a@b.c"})
	require.NoError(t, err)

	_, err = ts.Parse(token)
	assert.Error(t, err)
}
