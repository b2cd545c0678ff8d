package requests

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"mealhub/pkg/apperr"
	"mealhub/pkg/models"
)

// terminalField maps a terminal status to the timestamp field stamped on
// transition. Any other status is rejected.
func terminalField(status string) (string, error) {
	switch status {
	case models.RequestDelivered:
		return "approved_at", nil
	case models.RequestCancelled:
		return "cancelled_at", nil
	}
	return "", fmt.Errorf("%w: status must be %q or %q", apperr.ErrInvalidArgument, models.RequestDelivered, models.RequestCancelled)
}

type Repo struct {
	Coll *mongo.Collection
}

func NewRepo(coll *mongo.Collection) *Repo {
	return &Repo{Coll: coll}
}

// Create inserts a pending request. At most one request may ever exist per
// (meal, requester, email) triple, regardless of the status of the prior
// one.
func (r *Repo) Create(ctx context.Context, req *models.MealRequest) error {
	switch {
	case strings.TrimSpace(req.UserID) == "":
		return fmt.Errorf("%w: userId required", apperr.ErrInvalidArgument)
	case strings.TrimSpace(req.Email) == "":
		return fmt.Errorf("%w: email required", apperr.ErrInvalidArgument)
	case strings.TrimSpace(req.Name) == "":
		return fmt.Errorf("%w: name required", apperr.ErrInvalidArgument)
	}

	n, err := r.Coll.CountDocuments(ctx, bson.M{
		"meal_id": req.MealID,
		"user_id": req.UserID,
		"email":   req.Email,
	})
	if err != nil {
		return fmt.Errorf("check existing request: %w", err)
	}
	if n > 0 {
		return fmt.Errorf("%w: meal already requested", apperr.ErrConflict)
	}

	now := time.Now().UTC()
	req.ID = bson.NewObjectID()
	req.Status = models.RequestPending
	req.RequestedAt = now
	req.UpdatedAt = now
	req.ApprovedAt = nil
	req.CancelledAt = nil

	if _, err := r.Coll.InsertOne(ctx, req); err != nil {
		return insertConflict(err)
	}
	return nil
}

// insertConflict maps a unique-index violation on the (meal, requester,
// email) triple to a conflict. The index catches creates that race past the
// pre-insert check.
func insertConflict(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: meal already requested", apperr.ErrConflict)
	}
	return fmt.Errorf("create request: %w", err)
}

// SetStatus transitions a pending request to delivered or cancelled. The
// update filter requires the pending state, so a request already in a
// terminal state can never have its timestamps overwritten; that case is
// reported as a conflict, distinct from an absent request.
func (r *Repo) SetStatus(ctx context.Context, id bson.ObjectID, status string) (*models.MealRequest, error) {
	field, err := terminalField(status)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	res, err := r.Coll.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.RequestPending},
		bson.M{"$set": bson.M{
			"status":     status,
			"updated_at": now,
			field:        now,
		}},
	)
	if err != nil {
		return nil, fmt.Errorf("set request status: %w", err)
	}

	if res.MatchedCount == 0 {
		n, err := r.Coll.CountDocuments(ctx, bson.M{"_id": id})
		if err != nil {
			return nil, fmt.Errorf("check request: %w", err)
		}
		return nil, classifyTransition(n, id)
	}

	return r.Get(ctx, id)
}

// classifyTransition explains a transition that matched nothing: the request
// is either absent or already in a terminal state.
func classifyTransition(existing int64, id bson.ObjectID) error {
	if existing == 0 {
		return fmt.Errorf("%w: request %s", apperr.ErrNotFound, id.Hex())
	}
	return fmt.Errorf("%w: request already finalized", apperr.ErrConflict)
}

func (r *Repo) Get(ctx context.Context, id bson.ObjectID) (*models.MealRequest, error) {
	var req models.MealRequest
	err := r.Coll.FindOne(ctx, bson.M{"_id": id}).Decode(&req)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: request %s", apperr.ErrNotFound, id.Hex())
		}
		return nil, fmt.Errorf("get request: %w", err)
	}
	return &req, nil
}

// List returns requests newest first, optionally filtered by requester
// and/or status.
func (r *Repo) List(ctx context.Context, userID, status string, limit, offset int) ([]models.MealRequest, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	filter := bson.M{}
	if userID != "" {
		filter["user_id"] = userID
	}
	if status != "" {
		filter["status"] = status
	}

	total, err := r.Coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count requests: %w", err)
	}

	cur, err := r.Coll.Find(ctx, filter, options.Find().
		SetSort(bson.D{{Key: "requested_at", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit)))
	if err != nil {
		return nil, 0, fmt.Errorf("list requests: %w", err)
	}
	defer cur.Close(ctx)

	out := make([]models.MealRequest, 0, limit)
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, fmt.Errorf("decode requests: %w", err)
	}
	return out, int(total), nil
}
