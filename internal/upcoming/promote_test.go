package upcoming

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"mealhub/pkg/apperr"
	"mealhub/pkg/models"
)

func TestShouldPromote(t *testing.T) {
	cases := []struct {
		name  string
		liked bool
		count int
		want  bool
	}{
		{"liked at threshold", true, PromoteThreshold, true},
		{"liked above threshold", true, PromoteThreshold + 5, true},
		{"liked below threshold", true, PromoteThreshold - 1, false},
		{"unlike at threshold count", false, PromoteThreshold, false},
		{"unlike above threshold", false, PromoteThreshold + 5, false},
		{"first like", true, 1, false},
		{"unlike to zero", false, 0, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ShouldPromote(tc.liked, tc.count))
		})
	}
}

// fakeStore records the store calls runPromote makes so the move's ordering
// and failure handling can be checked without a running server.
type fakeStore struct {
	promoted    int64
	upcoming    *models.Meal
	insertErr   error
	deleteUpErr error

	inserted         []*models.Meal
	deletedUpcoming  []bson.ObjectID
	deletedPublished []bson.ObjectID
}

func (f *fakeStore) promotedCount(_ context.Context, _ bson.ObjectID) (int64, error) {
	return f.promoted, nil
}

func (f *fakeStore) loadUpcoming(_ context.Context, id bson.ObjectID) (*models.Meal, error) {
	if f.upcoming == nil {
		return nil, fmt.Errorf("%w: upcoming meal %s", apperr.ErrNotFound, id.Hex())
	}
	cp := *f.upcoming
	return &cp, nil
}

func (f *fakeStore) insertPublished(_ context.Context, m *models.Meal) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, m)
	return nil
}

func (f *fakeStore) deleteUpcoming(_ context.Context, id bson.ObjectID) error {
	if f.deleteUpErr != nil {
		return f.deleteUpErr
	}
	f.deletedUpcoming = append(f.deletedUpcoming, id)
	return nil
}

func (f *fakeStore) deletePublished(_ context.Context, id bson.ObjectID) error {
	f.deletedPublished = append(f.deletedPublished, id)
	return nil
}

func TestRunPromoteMovesDocument(t *testing.T) {
	src := bson.NewObjectID()
	f := &fakeStore{upcoming: &models.Meal{ID: src, Title: "Fish Curry"}}

	err := runPromote(context.Background(), f, src, true)
	require.NoError(t, err)

	require.Len(t, f.inserted, 1)
	got := f.inserted[0]
	assert.Equal(t, src, got.SourceID)
	assert.NotEqual(t, src, got.ID)
	assert.False(t, got.CreatedAt.IsZero())
	assert.Equal(t, []bson.ObjectID{src}, f.deletedUpcoming)
	assert.Empty(t, f.deletedPublished)
}

func TestRunPromoteManualPublishKeepsTimestamp(t *testing.T) {
	src := bson.NewObjectID()
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f := &fakeStore{upcoming: &models.Meal{ID: src, CreatedAt: created}}

	err := runPromote(context.Background(), f, src, false)
	require.NoError(t, err)

	require.Len(t, f.inserted, 1)
	assert.Equal(t, created, f.inserted[0].CreatedAt)
}

func TestRunPromoteRetryFinishesDeleteOnly(t *testing.T) {
	src := bson.NewObjectID()
	f := &fakeStore{promoted: 1, upcoming: &models.Meal{ID: src}}

	err := runPromote(context.Background(), f, src, false)
	require.NoError(t, err)

	assert.Empty(t, f.inserted)
	assert.Equal(t, []bson.ObjectID{src}, f.deletedUpcoming)
}

func TestRunPromoteDuplicateInsertStillDeletesSource(t *testing.T) {
	src := bson.NewObjectID()
	f := &fakeStore{
		upcoming:  &models.Meal{ID: src},
		insertErr: mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000}}},
	}

	err := runPromote(context.Background(), f, src, false)
	require.NoError(t, err)
	assert.Equal(t, []bson.ObjectID{src}, f.deletedUpcoming)
}

func TestRunPromoteCompensatesFailedDelete(t *testing.T) {
	src := bson.NewObjectID()
	f := &fakeStore{
		upcoming:    &models.Meal{ID: src},
		deleteUpErr: errors.New("connection reset"),
	}

	err := runPromote(context.Background(), f, src, false)
	require.Error(t, err)

	require.Len(t, f.inserted, 1)
	assert.Equal(t, []bson.ObjectID{f.inserted[0].ID}, f.deletedPublished)
}

func TestRunPromoteMissingSource(t *testing.T) {
	f := &fakeStore{}
	err := runPromote(context.Background(), f, bson.NewObjectID(), false)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
