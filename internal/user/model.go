package user

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is the persisted user document. ClerkID is the immutable identity
// assigned by Clerk and is the join key for every webhook-driven update and
// delete; ID is the Mongo-assigned internal id. Events and Orders hold the ids
// of documents in the sibling collections that reference this user.
type User struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	ClerkID   string               `bson:"clerkId" json:"clerkId"`
	Email     string               `bson:"email" json:"email"`
	Username  string               `bson:"username" json:"username"`
	FirstName string               `bson:"firstName" json:"firstName"`
	LastName  string               `bson:"lastName" json:"lastName"`
	Photo     string               `bson:"photo" json:"photo"`
	Events    []primitive.ObjectID `bson:"events,omitempty" json:"events,omitempty"`
	Orders    []primitive.ObjectID `bson:"orders,omitempty" json:"orders,omitempty"`
	CreatedAt time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// CreateInput carries the identity fields required to create a user. All six
// are mandatory; the json tags double as the field names reported in
// validation errors.
type CreateInput struct {
	ClerkID   string `json:"clerkId" validate:"required"`
	Email     string `json:"email" validate:"required"`
	Username  string `json:"username" validate:"required"`
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Photo     string `json:"photo" validate:"required"`
}

// UpdateInput carries the mutable profile fields replaced on update.
type UpdateInput struct {
	Username  string `json:"username"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Photo     string `json:"photo"`
}

// Repository defines the interface for user data access.
type Repository interface {
	Create(ctx context.Context, u User) (User, error)
	GetByID(ctx context.Context, id string) (User, error)
	GetByClerkID(ctx context.Context, clerkID string) (User, error)
	Update(ctx context.Context, clerkID string, upd UpdateInput) (User, error)
	Delete(ctx context.Context, clerkID string) (User, error)
}

// Service defines the user service interface.
type Service interface {
	Create(ctx context.Context, in CreateInput) (User, error)
	Sync(ctx context.Context, in CreateInput) (User, bool, error)
	GetByID(ctx context.Context, id string) (User, error)
	Update(ctx context.Context, clerkID string, upd UpdateInput) (User, error)
	Delete(ctx context.Context, clerkID string) (User, error)
}
