package user

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type memEvent struct {
	Organizers []primitive.ObjectID
}

type memOrder struct {
	Buyer *primitive.ObjectID
}

// MemoryRepository is an in-memory Repository intended for local development
// and tests. It enforces the same clerkId/email uniqueness as the Mongo
// indexes and mirrors the cascading delete across seeded events and orders.
type MemoryRepository struct {
	mu     sync.RWMutex
	users  map[string]User // internal id (hex) -> user
	events map[string]*memEvent
	orders map[string]*memOrder
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		users:  make(map[string]User),
		events: make(map[string]*memEvent),
		orders: make(map[string]*memOrder),
	}
}

func (r *MemoryRepository) Create(_ context.Context, u User) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.ClerkID == u.ClerkID {
			return User{}, &DuplicateKeyError{Field: "clerkId"}
		}
		if existing.Email == u.Email {
			return User{}, &DuplicateKeyError{Field: "email"}
		}
	}

	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	r.users[u.ID.Hex()] = u
	return u, nil
}

func (r *MemoryRepository) GetByID(_ context.Context, id string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (r *MemoryRepository) GetByClerkID(_ context.Context, clerkID string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.lookupByClerkID(clerkID)
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (r *MemoryRepository) Update(_ context.Context, clerkID string, upd UpdateInput) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.lookupByClerkID(clerkID)
	if !ok {
		return User{}, ErrNotFound
	}

	u.Username = upd.Username
	u.FirstName = upd.FirstName
	u.LastName = upd.LastName
	u.Photo = upd.Photo
	u.UpdatedAt = time.Now().UTC()
	r.users[u.ID.Hex()] = u
	return u, nil
}

func (r *MemoryRepository) Delete(_ context.Context, clerkID string) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.lookupByClerkID(clerkID)
	if !ok {
		return User{}, ErrNotFound
	}

	for _, eventID := range u.Events {
		event, ok := r.events[eventID.Hex()]
		if !ok {
			continue
		}
		kept := event.Organizers[:0]
		for _, organizer := range event.Organizers {
			if organizer != u.ID {
				kept = append(kept, organizer)
			}
		}
		event.Organizers = kept
	}

	for _, orderID := range u.Orders {
		order, ok := r.orders[orderID.Hex()]
		if !ok {
			continue
		}
		if order.Buyer != nil && *order.Buyer == u.ID {
			order.Buyer = nil
		}
	}

	delete(r.users, u.ID.Hex())
	return u, nil
}

func (r *MemoryRepository) lookupByClerkID(clerkID string) (User, bool) {
	for _, u := range r.users {
		if u.ClerkID == clerkID {
			return u, true
		}
	}
	return User{}, false
}

// SeedEvent registers an event document with the given organizer set.
func (r *MemoryRepository) SeedEvent(id primitive.ObjectID, organizers ...primitive.ObjectID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[id.Hex()] = &memEvent{Organizers: organizers}
}

// SeedOrder registers an order document with the given buyer.
func (r *MemoryRepository) SeedOrder(id, buyer primitive.ObjectID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b := buyer
	r.orders[id.Hex()] = &memOrder{Buyer: &b}
}

// EventOrganizers returns the organizer set of a seeded event.
func (r *MemoryRepository) EventOrganizers(id primitive.ObjectID) []primitive.ObjectID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	event, ok := r.events[id.Hex()]
	if !ok {
		return nil
	}
	out := make([]primitive.ObjectID, len(event.Organizers))
	copy(out, event.Organizers)
	return out
}

// OrderBuyer returns the buyer of a seeded order, if still set.
func (r *MemoryRepository) OrderBuyer(id primitive.ObjectID) (primitive.ObjectID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	order, ok := r.orders[id.Hex()]
	if !ok || order.Buyer == nil {
		return primitive.ObjectID{}, false
	}
	return *order.Buyer, true
}
