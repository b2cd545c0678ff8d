package requests

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"mealhub/pkg/apperr"
	"mealhub/pkg/models"
)

func TestTerminalFieldDelivered(t *testing.T) {
	field, err := terminalField(models.RequestDelivered)
	require.NoError(t, err)
	assert.Equal(t, "approved_at", field)
}

func TestTerminalFieldCancelled(t *testing.T) {
	field, err := terminalField(models.RequestCancelled)
	require.NoError(t, err)
	assert.Equal(t, "cancelled_at", field)
}

func TestTerminalFieldRejectsOtherStatuses(t *testing.T) {
	for _, status := range []string{models.RequestPending, "done", "approved", "", "DELIVERED "} {
		_, err := terminalField(status)
		assert.ErrorIs(t, err, apperr.ErrInvalidArgument, "status %q", status)
	}
}

func TestClassifyTransitionAbsentRequest(t *testing.T) {
	err := classifyTransition(0, bson.NewObjectID())
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestClassifyTransitionFinalizedRequest(t *testing.T) {
	err := classifyTransition(1, bson.NewObjectID())
	assert.ErrorIs(t, err, apperr.ErrConflict)
	assert.Contains(t, err.Error(), "already finalized")
}

func TestInsertConflictMapsDuplicateKey(t *testing.T) {
	dup := mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000}}}
	assert.ErrorIs(t, insertConflict(dup), apperr.ErrConflict)
}

func TestInsertConflictPassesOtherErrorsThrough(t *testing.T) {
	err := insertConflict(errors.New("connection reset"))
	assert.NotErrorIs(t, err, apperr.ErrConflict)
	assert.Contains(t, err.Error(), "create request")
}
