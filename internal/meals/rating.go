package meals

import (
	"fmt"
	"math"
	"strings"

	"mealhub/pkg/apperr"
	"mealhub/pkg/models"
)

const (
	minRating = 1
	maxRating = 5
)

// Recompute derives (rating, reviewCount) from the full review list.
// Always a whole-collection re-sum, never an incremental shortcut, so the
// aggregate cannot drift from its source. Mean of zero reviews is 0; the
// mean is rounded to one decimal place.
func Recompute(reviews []models.Review) (float64, int) {
	if len(reviews) == 0 {
		return 0, 0
	}

	var sum float64
	for _, rv := range reviews {
		sum += rv.Rating
	}

	mean := sum / float64(len(reviews))
	return math.Round(mean*10) / 10, len(reviews)
}

func findReview(reviews []models.Review, reviewID string) int {
	for i := range reviews {
		if reviews[i].ID == reviewID {
			return i
		}
	}
	return -1
}

func validateReview(rv models.Review, likeContext []string) error {
	switch {
	case strings.TrimSpace(rv.UserID) == "":
		return fmt.Errorf("%w: userId required", apperr.ErrInvalidArgument)
	case strings.TrimSpace(rv.Name) == "":
		return fmt.Errorf("%w: name required", apperr.ErrInvalidArgument)
	case strings.TrimSpace(rv.Email) == "":
		return fmt.Errorf("%w: email required", apperr.ErrInvalidArgument)
	case strings.TrimSpace(rv.Comment) == "":
		return fmt.Errorf("%w: comment required", apperr.ErrInvalidArgument)
	case strings.TrimSpace(rv.MealName) == "":
		return fmt.Errorf("%w: mealName required", apperr.ErrInvalidArgument)
	case len(likeContext) == 0:
		return fmt.Errorf("%w: likes context required", apperr.ErrInvalidArgument)
	}

	if rv.Rating < minRating || rv.Rating > maxRating {
		return fmt.Errorf("%w: rating must be between %d and %d", apperr.ErrInvalidArgument, minRating, maxRating)
	}
	return nil
}
