package live

import "time"

const (
	MealLikedEvent      = "meal.liked"
	MealPromotedEvent   = "meal.promoted"
	MealReviewedEvent   = "meal.reviewed"
	RequestCreatedEvent = "request.created"
	RequestUpdatedEvent = "request.updated"
)

// Event is the wire form pushed to connected dashboard clients after a
// successful engagement write.
type Event struct {
	Type       string    `json:"type"`
	MealID     string    `json:"mealId,omitempty"`
	RequestID  string    `json:"requestId,omitempty"`
	UserID     string    `json:"userId,omitempty"`
	LikesCount int       `json:"likesCount"`
	Liked      bool      `json:"liked"`
	Status     string    `json:"status,omitempty"`
	At         time.Time `json:"at"`
}
