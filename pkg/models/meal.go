package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Meal is a meal document in either the upcoming or the published pool.
// Likes carries set semantics (no duplicates); Rating and ReviewCount are
// derived from Reviews and recomputed on every review write.
type Meal struct {
	ID          bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string        `bson:"title" json:"title"`
	Category    string        `bson:"category" json:"category"`
	Description string        `bson:"description" json:"description"`
	Price       float64       `bson:"price" json:"price"`
	Image       string        `bson:"image,omitempty" json:"image,omitempty"`
	Likes       []string      `bson:"likes" json:"likes"`
	Reviews     []Review      `bson:"reviews" json:"reviews"`
	Rating      float64       `bson:"rating" json:"rating"`
	ReviewCount int           `bson:"review_count" json:"reviewCount"`

	// SourceID is the upcoming-pool identity of a promoted meal. It doubles
	// as the promotion idempotency key (unique sparse index).
	SourceID bson.ObjectID `bson:"source_id,omitempty" json:"sourceId,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
}

// Review is owned by its parent meal and addressed by its generated ID,
// never by position in the array.
type Review struct {
	ID        string    `bson:"id" json:"id"`
	UserID    string    `bson:"user_id" json:"userId"`
	Name      string    `bson:"name" json:"name"`
	Email     string    `bson:"email" json:"email"`
	Rating    float64   `bson:"rating" json:"rating"`
	Comment   string    `bson:"comment" json:"comment"`
	MealName  string    `bson:"meal_name" json:"mealName"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
}
