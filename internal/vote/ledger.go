// Package vote maintains the per-meal set of voter identities. Both the
// published and upcoming pools share the same toggle semantics.
package vote

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"mealhub/pkg/apperr"
	"mealhub/pkg/keymutex"
)

// Decide computes the post-toggle membership and count for a voter against
// the current likes set. A missing likes field on a legacy document decodes
// as a nil slice and behaves as an empty set.
func Decide(likes []string, voter string) (liked bool, count int) {
	liked = !slices.Contains(likes, voter)
	count = len(likes)
	if liked {
		count++
	} else {
		count--
	}
	return liked, count
}

// UpdateDoc builds the targeted array set-operation for the decided toggle:
// $addToSet when the voter joins, $pull when they leave. Never overwrites
// the whole document.
func UpdateDoc(liked bool, voter string) bson.M {
	if liked {
		return bson.M{"$addToSet": bson.M{"likes": voter}}
	}
	return bson.M{"$pull": bson.M{"likes": voter}}
}

// Toggle flips the voter's membership in the meal's likes set and returns
// the post-toggle count and membership flag. The read and write run under
// the per-meal lock so concurrent toggles on the same meal serialize.
func Toggle(ctx context.Context, coll *mongo.Collection, locks *keymutex.Map, id bson.ObjectID, voter string) (int, bool, error) {
	voter = strings.TrimSpace(voter)
	if voter == "" {
		return 0, false, fmt.Errorf("%w: voter id required", apperr.ErrInvalidArgument)
	}

	unlock := locks.Lock(id.Hex())
	defer unlock()

	var doc struct {
		Likes []string `bson:"likes"`
	}
	err := coll.FindOne(ctx, bson.M{"_id": id},
		options.FindOne().SetProjection(bson.M{"likes": 1})).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, false, fmt.Errorf("%w: meal %s", apperr.ErrNotFound, id.Hex())
		}
		return 0, false, fmt.Errorf("read likes: %w", err)
	}

	liked, count := Decide(doc.Likes, voter)

	res, err := coll.UpdateOne(ctx, bson.M{"_id": id}, UpdateDoc(liked, voter))
	if err != nil {
		return 0, false, fmt.Errorf("toggle vote: %w", err)
	}
	if res.MatchedCount == 0 {
		return 0, false, fmt.Errorf("%w: meal %s", apperr.ErrNotFound, id.Hex())
	}

	return count, liked, nil
}
