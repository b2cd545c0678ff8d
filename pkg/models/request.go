package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

const (
	RequestPending   = "pending"
	RequestDelivered = "delivered"
	RequestCancelled = "cancelled"
)

// MealRequest tracks a delivery request from creation to a terminal status.
// Only the status transition mutates it after creation.
type MealRequest struct {
	ID           bson.ObjectID `bson:"_id,omitempty" json:"id"`
	MealID       bson.ObjectID `bson:"meal_id" json:"mealId"`
	MealName     string        `bson:"meal_name" json:"mealName"`
	UserID       string        `bson:"user_id" json:"userId"`
	Name         string        `bson:"name" json:"name"`
	Email        string        `bson:"email" json:"email"`
	IsSubscribed bool          `bson:"is_subscribed" json:"isSubscribed"`
	Status       string        `bson:"status" json:"status"`
	RequestedAt  time.Time     `bson:"requested_at" json:"requestedAt"`
	UpdatedAt    time.Time     `bson:"updated_at" json:"updatedAt"`
	ApprovedAt   *time.Time    `bson:"approved_at,omitempty" json:"approvedAt,omitempty"`
	CancelledAt  *time.Time    `bson:"cancelled_at,omitempty" json:"cancelledAt,omitempty"`
}
