package meals

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"mealhub/pkg/apperr"
	"mealhub/pkg/models"
)

func reviewsWithRatings(ratings ...float64) []models.Review {
	out := make([]models.Review, 0, len(ratings))
	for i, r := range ratings {
		out = append(out, models.Review{ID: string(rune('a' + i)), Rating: r})
	}
	return out
}

func TestRecomputeEmpty(t *testing.T) {
	rating, count := Recompute(nil)
	assert.Equal(t, 0.0, rating)
	assert.Equal(t, 0, count)
}

func TestRecomputeMeanRoundedToOneDecimal(t *testing.T) {
	rating, count := Recompute(reviewsWithRatings(4, 5))
	assert.Equal(t, 4.5, rating)
	assert.Equal(t, 2, count)

	// 4+4+5 = 13/3 = 4.333... -> 4.3
	rating, count = Recompute(reviewsWithRatings(4, 4, 5))
	assert.Equal(t, 4.3, rating)
	assert.Equal(t, 3, count)

	// 4+5+5 = 14/3 = 4.666... -> 4.7
	rating, _ = Recompute(reviewsWithRatings(4, 5, 5))
	assert.Equal(t, 4.7, rating)
}

func TestRecomputeAfterRemoval(t *testing.T) {
	reviews := reviewsWithRatings(4, 5)

	// drop the first review
	reviews = reviews[1:]
	rating, count := Recompute(reviews)
	assert.Equal(t, 5.0, rating)
	assert.Equal(t, 1, count)
}

func TestFindReview(t *testing.T) {
	reviews := reviewsWithRatings(3, 4, 5)

	assert.Equal(t, 1, findReview(reviews, "b"))
	assert.Equal(t, -1, findReview(reviews, "missing"))
	assert.Equal(t, -1, findReview(nil, "a"))
}

func TestValidateReview(t *testing.T) {
	valid := models.Review{
		UserID:   "u1",
		Name:     "Asha",
		Email:    "asha@example.com",
		Rating:   4,
		Comment:  "great",
		MealName: "Dal Bhat",
	}
	likeContext := []string{"u1"}

	assert.NoError(t, validateReview(valid, likeContext))

	cases := []struct {
		name   string
		mutate func(*models.Review)
	}{
		{"missing user", func(r *models.Review) { r.UserID = "" }},
		{"missing name", func(r *models.Review) { r.Name = " " }},
		{"missing email", func(r *models.Review) { r.Email = "" }},
		{"missing comment", func(r *models.Review) { r.Comment = "" }},
		{"missing meal name", func(r *models.Review) { r.MealName = "" }},
		{"rating too low", func(r *models.Review) { r.Rating = 0 }},
		{"rating too high", func(r *models.Review) { r.Rating = 6 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rv := valid
			tc.mutate(&rv)
			err := validateReview(rv, likeContext)
			assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
		})
	}

	assert.ErrorIs(t, validateReview(valid, nil), apperr.ErrInvalidArgument)
}

func TestAggregateInvariantOverSequence(t *testing.T) {
	var reviews []models.Review

	reviews = append(reviews, models.Review{ID: "r1", Rating: 4})
	rating, count := Recompute(reviews)
	assert.Equal(t, 4.0, rating)
	assert.Equal(t, len(reviews), count)

	reviews = append(reviews, models.Review{ID: "r2", Rating: 5})
	rating, count = Recompute(reviews)
	assert.Equal(t, 4.5, rating)
	assert.Equal(t, len(reviews), count)

	// update r1 in place
	reviews[0].Rating = 2
	rating, count = Recompute(reviews)
	assert.Equal(t, 3.5, rating)
	assert.Equal(t, len(reviews), count)

	// remove r1
	reviews = reviews[1:]
	rating, count = Recompute(reviews)
	assert.Equal(t, 5.0, rating)
	assert.Equal(t, len(reviews), count)
}
