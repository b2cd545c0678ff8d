package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"mealhub/pkg/models"
)

type Repo struct {
	Users *mongo.Collection
}

func NewRepo(users *mongo.Collection) *Repo {
	return &Repo{Users: users}
}

func (r *Repo) CreateUser(ctx context.Context, u *models.User) error {
	u.ID = bson.NewObjectID()
	u.CreatedAt = time.Now().UTC()
	if u.Role == "" {
		u.Role = models.RoleMember
	}

	if _, err := r.Users.InsertOne(ctx, u); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (r *Repo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	var u models.User
	err := r.Users.FindOne(ctx, bson.M{"email": email}).Decode(&u)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("get by email: %w", err)
	}
	return &u, nil
}

func (r *Repo) GetByID(ctx context.Context, id string) (*models.User, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}

	var u models.User
	err = r.Users.FindOne(ctx, bson.M{"_id": oid}).Decode(&u)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("get by id: %w", err)
	}
	return &u, nil
}

func (r *Repo) GetTokenVersion(ctx context.Context, id string) (int, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return 0, nil
	}

	var doc struct {
		TokenVersion int `bson:"token_version"`
	}
	err = r.Users.FindOne(ctx, bson.M{"_id": oid},
		options.FindOne().SetProjection(bson.M{"token_version": 1})).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, nil
		}
		return 0, fmt.Errorf("get token version: %w", err)
	}
	return doc.TokenVersion, nil
}

func (r *Repo) UpdatePasswordAndBumpTokenVersion(ctx context.Context, id string, passwordHash string) error {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("update password: bad id")
	}

	res, err := r.Users.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{
		"$set": bson.M{"password_hash": passwordHash},
		"$inc": bson.M{"token_version": 1},
	})
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("update password: user not found")
	}
	return nil
}

func (r *Repo) BumpTokenVersion(ctx context.Context, id string) error {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("bump token version: bad id")
	}

	res, err := r.Users.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{
		"$inc": bson.M{"token_version": 1},
	})
	if err != nil {
		return fmt.Errorf("bump token version: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("bump token version: user not found")
	}
	return nil
}

// List returns users matching an optional case-insensitive name/email
// keyword, newest first.
func (r *Repo) List(ctx context.Context, q string, limit, offset int) ([]models.User, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	filter := bson.M{}
	if kw := strings.TrimSpace(q); kw != "" {
		filter = bson.M{"$or": bson.A{
			bson.M{"name": bson.M{"$regex": kw, "$options": "i"}},
			bson.M{"email": bson.M{"$regex": kw, "$options": "i"}},
		}}
	}

	total, err := r.Users.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	cur, err := r.Users.Find(ctx, filter, options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit)))
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer cur.Close(ctx)

	out := make([]models.User, 0, limit)
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, fmt.Errorf("decode users: %w", err)
	}
	return out, int(total), nil
}

// SetRole promotes or demotes a user and bumps the token version so stale
// tokens lose the old role immediately.
func (r *Repo) SetRole(ctx context.Context, id string, role string) error {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("set role: bad id")
	}

	res, err := r.Users.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{
		"$set": bson.M{"role": role},
		"$inc": bson.M{"token_version": 1},
	})
	if err != nil {
		return fmt.Errorf("set role: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("set role: user not found")
	}
	return nil
}
