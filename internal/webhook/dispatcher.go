package webhook

import (
	"context"
	"log/slog"

	"github.com/Shrot8546/EventVgo/internal/user"
)

// MetadataWriter pushes the internal user id back into the identity provider
// after a create. The write is best-effort: the database row is already
// committed when it runs, and a failure is logged, never propagated.
type MetadataWriter interface {
	WriteUserID(ctx context.Context, clerkID, userID string) error
}

// Dispatcher routes a verified event to the matching user operation.
type Dispatcher struct {
	users    user.Service
	metadata MetadataWriter
	logger   *slog.Logger
}

func NewDispatcher(users user.Service, metadata MetadataWriter, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{users: users, metadata: metadata, logger: logger}
}

// Dispatch executes the operation for the event type. The bool result reports
// whether the event type was handled at all; unhandled types must still be
// acknowledged upstream, since Clerk retries anything that isn't a 2xx.
func (d *Dispatcher) Dispatch(ctx context.Context, evt Event) (*user.User, bool, error) {
	switch evt.Type {
	case TypeUserCreated:
		u, err := d.handleCreated(ctx, evt)
		return u, true, err
	case TypeUserUpdated:
		u, err := d.handleUpdated(ctx, evt)
		return u, true, err
	case TypeUserDeleted:
		u, err := d.handleDeleted(ctx, evt)
		return u, true, err
	default:
		return nil, false, nil
	}
}

func (d *Dispatcher) handleCreated(ctx context.Context, evt Event) (*user.User, error) {
	data, err := evt.UserData()
	if err != nil {
		return nil, err
	}

	username := data.Username
	if username == "" {
		username = data.FirstName
	}

	created, err := d.users.Create(ctx, user.CreateInput{
		ClerkID:   data.ID,
		Email:     data.PrimaryEmail(),
		Username:  username,
		FirstName: data.FirstName,
		LastName:  data.LastName,
		Photo:     data.ImageURL,
	})
	if err != nil {
		return nil, err
	}

	if d.metadata != nil {
		if err := d.metadata.WriteUserID(ctx, created.ClerkID, created.ID.Hex()); err != nil {
			// The row is committed; a stale Clerk metadata entry self-heals on
			// the next successful sync.
			d.logger.Error("clerk metadata write-back failed",
				slog.String("clerkId", created.ClerkID), slog.Any("error", err))
		}
	}

	return &created, nil
}

func (d *Dispatcher) handleUpdated(ctx context.Context, evt Event) (*user.User, error) {
	data, err := evt.UserData()
	if err != nil {
		return nil, err
	}

	updated, err := d.users.Update(ctx, data.ID, user.UpdateInput{
		Username:  data.Username,
		FirstName: data.FirstName,
		LastName:  data.LastName,
		Photo:     data.ImageURL,
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (d *Dispatcher) handleDeleted(ctx context.Context, evt Event) (*user.User, error) {
	data, err := evt.UserData()
	if err != nil {
		return nil, err
	}

	deleted, err := d.users.Delete(ctx, data.ID)
	if err != nil {
		return nil, err
	}
	return &deleted, nil
}
