package upcoming

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"mealhub/internal/meals"
	"mealhub/internal/vote"
	"mealhub/pkg/apperr"
	"mealhub/pkg/keymutex"
	"mealhub/pkg/models"
)

// PromoteThreshold is the like count at which an upcoming meal moves to the
// published pool automatically.
const PromoteThreshold = 10

// ShouldPromote reports whether a just-completed toggle triggers automatic
// promotion: only a toggle that ends liked, at or above the threshold.
// An unlike never promotes and never reverses a promotion.
func ShouldPromote(liked bool, likesCount int) bool {
	return liked && likesCount >= PromoteThreshold
}

// Repo owns the upcoming-meal pool and the one-directional move into the
// published pool.
type Repo struct {
	Upcoming  *mongo.Collection
	Published *mongo.Collection
	Locks     *keymutex.Map
}

func NewRepo(upcoming, published *mongo.Collection, locks *keymutex.Map) *Repo {
	return &Repo{Upcoming: upcoming, Published: published, Locks: locks}
}

func (r *Repo) Get(ctx context.Context, id bson.ObjectID) (*models.Meal, error) {
	return r.loadUpcoming(ctx, id)
}

func (r *Repo) List(ctx context.Context, q meals.ListQuery) ([]models.Meal, int, error) {
	limit := q.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	filter := bson.M{}
	if cat := strings.TrimSpace(q.Category); cat != "" {
		filter["category"] = bson.M{"$regex": "^" + cat + "$", "$options": "i"}
	}

	total, err := r.Upcoming.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count upcoming meals: %w", err)
	}

	cur, err := r.Upcoming.Find(ctx, filter, options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit)))
	if err != nil {
		return nil, 0, fmt.Errorf("list upcoming meals: %w", err)
	}
	defer cur.Close(ctx)

	out := make([]models.Meal, 0, limit)
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, fmt.Errorf("decode upcoming meals: %w", err)
	}
	return out, int(total), nil
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
	m.Rating, m.ReviewCount = meals.Recompute(m.Reviews)

	if _, err := r.Upcoming.InsertOne(ctx, m); err != nil {
		return fmt.Errorf("create upcoming meal: %w", err)
	}
	return nil
}

func (r *Repo) Delete(ctx context.Context, id bson.ObjectID) error {
	res, err := r.Upcoming.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete upcoming meal: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%w: upcoming meal %s", apperr.ErrNotFound, id.Hex())
	}
	return nil
}

// ToggleVote flips the voter's membership and, when the toggle ends liked at
// or above the threshold, promotes the meal within the same call. The
// threshold check is a post-condition of voting, not a background sweep.
func (r *Repo) ToggleVote(ctx context.Context, id bson.ObjectID, voter string) (likesCount int, liked, promoted bool, err error) {
	likesCount, liked, err = vote.Toggle(ctx, r.Upcoming, r.Locks, id, voter)
	if err != nil {
		return 0, false, false, err
	}

	if !ShouldPromote(liked, likesCount) {
		return likesCount, liked, false, nil
	}

	if err := r.promote(ctx, id, true); err != nil {
		return likesCount, liked, false, err
	}
	return likesCount, liked, true, nil
}

// Publish is the operator-initiated move, unconditional on vote count.
// Fields are preserved as-is.
func (r *Repo) Publish(ctx context.Context, id bson.ObjectID) error {
	return r.promote(ctx, id, false)
}

// promoteStore is the slice of the two pools the promotion move touches.
type promoteStore interface {
	promotedCount(ctx context.Context, sourceID bson.ObjectID) (int64, error)
	loadUpcoming(ctx context.Context, id bson.ObjectID) (*models.Meal, error)
	insertPublished(ctx context.Context, m *models.Meal) error
	deleteUpcoming(ctx context.Context, id bson.ObjectID) error
	deletePublished(ctx context.Context, id bson.ObjectID) error
}

func (r *Repo) promotedCount(ctx context.Context, sourceID bson.ObjectID) (int64, error) {
	return r.Published.CountDocuments(ctx, bson.M{"source_id": sourceID})
}

func (r *Repo) loadUpcoming(ctx context.Context, id bson.ObjectID) (*models.Meal, error) {
	var m models.Meal
	err := r.Upcoming.FindOne(ctx, bson.M{"_id": id}).Decode(&m)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: upcoming meal %s", apperr.ErrNotFound, id.Hex())
		}
		return nil, fmt.Errorf("get upcoming meal: %w", err)
	}
	return &m, nil
}

func (r *Repo) insertPublished(ctx context.Context, m *models.Meal) error {
	_, err := r.Published.InsertOne(ctx, m)
	return err
}

func (r *Repo) deleteUpcoming(ctx context.Context, id bson.ObjectID) error {
	_, err := r.Upcoming.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (r *Repo) deletePublished(ctx context.Context, id bson.ObjectID) error {
	_, err := r.Published.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (r *Repo) promote(ctx context.Context, id bson.ObjectID, freshTimestamp bool) error {
	unlock := r.Locks.Lock("promote:" + id.Hex())
	defer unlock()
	return runPromote(ctx, r, id, freshTimestamp)
}

// runPromote moves one upcoming meal into the published pool. The published
// copy records the upcoming id as source_id; a retry after a partial
// failure finds that key, skips re-insertion, and only completes the
// delete, so the move is idempotent per source document. If the delete
// cannot complete after the insert, the insert is compensated away and the
// error surfaces to the caller.
func runPromote(ctx context.Context, s promoteStore, id bson.ObjectID, freshTimestamp bool) error {
	n, err := s.promotedCount(ctx, id)
	if err != nil {
		return fmt.Errorf("check promoted: %w", err)
	}
	if n > 0 {
		if err := s.deleteUpcoming(ctx, id); err != nil {
			return fmt.Errorf("finish interrupted promotion: %w", err)
		}
		return nil
	}

	m, err := s.loadUpcoming(ctx, id)
	if err != nil {
		return err
	}

	m.SourceID = m.ID
	m.ID = bson.NewObjectID()
	if freshTimestamp {
		m.CreatedAt = time.Now().UTC()
	}

	if err := s.insertPublished(ctx, m); err != nil {
		// a concurrent promotion of the same source won the unique index
		if !mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("insert published meal: %w", err)
		}
	}

	if err := s.deleteUpcoming(ctx, id); err != nil {
		_ = s.deletePublished(ctx, m.ID)
		return fmt.Errorf("remove upcoming meal: %w", err)
	}
	return nil
}
