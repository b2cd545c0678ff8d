package meals

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"mealhub/internal/vote"
	"mealhub/pkg/apperr"
	"mealhub/pkg/keymutex"
	"mealhub/pkg/models"
)

// Repo owns the published-meal pool. Review and vote writes on a meal are
// serialized through Locks keyed by the meal id.
type Repo struct {
	Coll  *mongo.Collection
	Locks *keymutex.Map
}

type ListQuery struct {
	Q        string // keyword search in title/description
	Category string
	Limit    int
	Offset   int
}

func NewRepo(coll *mongo.Collection, locks *keymutex.Map) *Repo {
	return &Repo{Coll: coll, Locks: locks}
}

func (r *Repo) Get(ctx context.Context, id bson.ObjectID) (*models.Meal, error) {
	var m models.Meal
	err := r.Coll.FindOne(ctx, bson.M{"_id": id}).Decode(&m)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: meal %s", apperr.ErrNotFound, id.Hex())
		}
		return nil, fmt.Errorf("get meal: %w", err)
	}
	return &m, nil
}

func (r *Repo) List(ctx context.Context, q ListQuery) ([]models.Meal, int, error) {
	limit := q.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	filter := buildListFilter(q)

	total, err := r.Coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count meals: %w", err)
	}

	cur, err := r.Coll.Find(ctx, filter, options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit)))
	if err != nil {
		return nil, 0, fmt.Errorf("list meals: %w", err)
	}
	defer cur.Close(ctx)

	out := make([]models.Meal, 0, limit)
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, fmt.Errorf("decode meals: %w", err)
	}
	return out, int(total), nil
}

func buildListFilter(q ListQuery) bson.M {
	filter := bson.M{}

	if kw := strings.TrimSpace(q.Q); kw != "" {
		filter["$or"] = bson.A{
			bson.M{"title": bson.M{"$regex": kw, "$options": "i"}},
			bson.M{"description": bson.M{"$regex": kw, "$options": "i"}},
		}
	}
	if cat := strings.TrimSpace(q.Category); cat != "" {
		filter["category"] = bson.M{"$regex": "^" + cat + "$", "$options": "i"}
	}

	return filter
}

func (r *Repo) Create(ctx context.Context, m *models.Meal) error {
	m.ID = bson.NewObjectID()
	m.CreatedAt = time.Now().UTC()
	if m.Likes == nil {
		m.Likes = []string{}
	}
	if m.Reviews == nil {
		m.Reviews = []models.Review{}
	}
	m.Rating, m.ReviewCount = Recompute(m.Reviews)

	if _, err := r.Coll.InsertOne(ctx, m); err != nil {
		return fmt.Errorf("create meal: %w", err)
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, id bson.ObjectID) error {
	res, err := r.Coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete meal: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%w: meal %s", apperr.ErrNotFound, id.Hex())
	}
	return nil
}

// ToggleVote flips the caller's membership in the meal's likes set.
func (r *Repo) ToggleVote(ctx context.Context, id bson.ObjectID, voter string) (int, bool, error) {
	return vote.Toggle(ctx, r.Coll, r.Locks, id, voter)
}

// AddReview validates, appends the review with a generated stable id, and
// writes the review plus the recomputed aggregates in one targeted update.
func (r *Repo) AddReview(ctx context.Context, id bson.ObjectID, rv models.Review, likeContext []string) (*models.Meal, error) {
	if err := validateReview(rv, likeContext); err != nil {
		return nil, err
	}

	unlock := r.Locks.Lock(id.Hex())
	defer unlock()

	m, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	rv.ID = uuid.NewString()
	rv.CreatedAt = time.Now().UTC()

	m.Reviews = append(m.Reviews, rv)
	m.Rating, m.ReviewCount = Recompute(m.Reviews)

	res, err := r.Coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$push": bson.M{"reviews": rv},
		"$set":  bson.M{"rating": m.Rating, "review_count": m.ReviewCount},
	})
	if err != nil {
		return nil, fmt.Errorf("add review: %w", err)
	}
	if res.MatchedCount == 0 {
		return nil, fmt.Errorf("%w: meal %s", apperr.ErrNotFound, id.Hex())
	}

	return m, nil
}

// UpdateReview edits the caller's review in place and recomputes the
// aggregates. callerID empty means a staff edit with no ownership check.
func (r *Repo) UpdateReview(ctx context.Context, mealID bson.ObjectID, reviewID, callerID string, rating float64, comment string) (*models.Meal, error) {
	if rating < minRating || rating > maxRating {
		return nil, fmt.Errorf("%w: rating must be between %d and %d", apperr.ErrInvalidArgument, minRating, maxRating)
	}
	if strings.TrimSpace(comment) == "" {
		return nil, fmt.Errorf("%w: comment required", apperr.ErrInvalidArgument)
	}

	unlock := r.Locks.Lock(mealID.Hex())
	defer unlock()

	m, err := r.Get(ctx, mealID)
	if err != nil {
		return nil, err
	}

	i := findReview(m.Reviews, reviewID)
	if i < 0 || (callerID != "" && m.Reviews[i].UserID != callerID) {
		return nil, fmt.Errorf("%w: review %s", apperr.ErrNotFound, reviewID)
	}

	m.Reviews[i].Rating = rating
	m.Reviews[i].Comment = comment
	m.Rating, m.ReviewCount = Recompute(m.Reviews)

	res, err := r.Coll.UpdateOne(ctx, bson.M{"_id": mealID, "reviews.id": reviewID}, bson.M{
		"$set": bson.M{
			"reviews.$.rating":  rating,
			"reviews.$.comment": comment,
			"rating":            m.Rating,
			"review_count":      m.ReviewCount,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("update review: %w", err)
	}
	if res.MatchedCount == 0 {
		return nil, fmt.Errorf("%w: review %s", apperr.ErrNotFound, reviewID)
	}

	return m, nil
}

// RemoveReview drops a review by its stable id and recomputes the
// aggregates. callerID empty means a staff removal with no ownership check.
func (r *Repo) RemoveReview(ctx context.Context, mealID bson.ObjectID, reviewID, callerID string) (*models.Meal, error) {
	unlock := r.Locks.Lock(mealID.Hex())
	defer unlock()

	m, err := r.Get(ctx, mealID)
	if err != nil {
		return nil, err
	}

	i := findReview(m.Reviews, reviewID)
	if i < 0 || (callerID != "" && m.Reviews[i].UserID != callerID) {
		return nil, fmt.Errorf("%w: review %s", apperr.ErrNotFound, reviewID)
	}

	m.Reviews = append(m.Reviews[:i], m.Reviews[i+1:]...)
	m.Rating, m.ReviewCount = Recompute(m.Reviews)

	res, err := r.Coll.UpdateOne(ctx, bson.M{"_id": mealID}, bson.M{
		"$pull": bson.M{"reviews": bson.M{"id": reviewID}},
		"$set":  bson.M{"rating": m.Rating, "review_count": m.ReviewCount},
	})
	if err != nil {
		return nil, fmt.Errorf("remove review: %w", err)
	}
	if res.MatchedCount == 0 {
		return nil, fmt.Errorf("%w: meal %s", apperr.ErrNotFound, mealID.Hex())
	}

	return m, nil
}
