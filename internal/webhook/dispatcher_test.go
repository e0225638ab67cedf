package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Shrot8546/EventVgo/internal/user"
)

type fakeUserService struct {
	createFn func(context.Context, user.CreateInput) (user.User, error)
	updateFn func(context.Context, string, user.UpdateInput) (user.User, error)
	deleteFn func(context.Context, string) (user.User, error)
	calls    int
}

func (f *fakeUserService) Create(ctx context.Context, in user.CreateInput) (user.User, error) {
	f.calls++
	if f.createFn != nil {
		return f.createFn(ctx, in)
	}
	return user.User{}, errors.New("createFn not provided")
}

func (f *fakeUserService) Sync(context.Context, user.CreateInput) (user.User, bool, error) {
	f.calls++
	return user.User{}, false, errors.New("sync not expected from dispatcher")
}

func (f *fakeUserService) GetByID(context.Context, string) (user.User, error) {
	f.calls++
	return user.User{}, errors.New("getByID not expected from dispatcher")
}

func (f *fakeUserService) Update(ctx context.Context, clerkID string, upd user.UpdateInput) (user.User, error) {
	f.calls++
	if f.updateFn != nil {
		return f.updateFn(ctx, clerkID, upd)
	}
	return user.User{}, errors.New("updateFn not provided")
}

func (f *fakeUserService) Delete(ctx context.Context, clerkID string) (user.User, error) {
	f.calls++
	if f.deleteFn != nil {
		return f.deleteFn(ctx, clerkID)
	}
	return user.User{}, errors.New("deleteFn not provided")
}

type fakeMetadataWriter struct {
	clerkID string
	userID  string
	calls   int
	err     error
}

func (f *fakeMetadataWriter) WriteUserID(_ context.Context, clerkID, userID string) error {
	f.calls++
	f.clerkID = clerkID
	f.userID = userID
	return f.err
}

func event(t *testing.T, typ Type, data any) Event {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	return Event{Type: typ, Data: raw}
}

func TestDispatchCreated_MapsFieldsAndWritesMetadata(t *testing.T) {
	internalID := primitive.NewObjectID()
	var got user.CreateInput
	svc := &fakeUserService{
		createFn: func(_ context.Context, in user.CreateInput) (user.User, error) {
			got = in
			return user.User{ID: internalID, ClerkID: in.ClerkID}, nil
		},
	}
	metadata := &fakeMetadataWriter{}
	d := NewDispatcher(svc, metadata, slog.Default())

	evt := event(t, TypeUserCreated, UserData{
		ID:             "user_2abc",
		Username:       "jdoe",
		FirstName:      "Jane",
		LastName:       "Doe",
		ImageURL:       "https://img.clerk.com/jane.png",
		EmailAddresses: []EmailAddress{{EmailAddress: "jane@example.com"}, {EmailAddress: "alt@example.com"}},
	})

	processed, handled, err := d.Dispatch(context.Background(), evt)
	require.NoError(t, err)
	assert.True(t, handled)
	require.NotNil(t, processed)

	assert.Equal(t, user.CreateInput{
		ClerkID:   "user_2abc",
		Email:     "jane@example.com",
		Username:  "jdoe",
		FirstName: "Jane",
		LastName:  "Doe",
		Photo:     "https://img.clerk.com/jane.png",
	}, got)

	assert.Equal(t, 1, metadata.calls)
	assert.Equal(t, "user_2abc", metadata.clerkID)
	assert.Equal(t, internalID.Hex(), metadata.userID)
}

func TestDispatchCreated_UsernameFallsBackToFirstName(t *testing.T) {
	var got user.CreateInput
	svc := &fakeUserService{
		createFn: func(_ context.Context, in user.CreateInput) (user.User, error) {
			got = in
			return user.User{ID: primitive.NewObjectID()}, nil
		},
	}
	d := NewDispatcher(svc, nil, slog.Default())

	evt := event(t, TypeUserCreated, UserData{
		ID:             "user_2abc",
		FirstName:      "Jane",
		LastName:       "Doe",
		ImageURL:       "https://img.clerk.com/jane.png",
		EmailAddresses: []EmailAddress{{EmailAddress: "jane@example.com"}},
	})

	_, _, err := d.Dispatch(context.Background(), evt)
	require.NoError(t, err)
	assert.Equal(t, "Jane", got.Username)
}

func TestDispatchCreated_MetadataFailureIsNotFatal(t *testing.T) {
	svc := &fakeUserService{
		createFn: func(_ context.Context, in user.CreateInput) (user.User, error) {
			return user.User{ID: primitive.NewObjectID(), ClerkID: in.ClerkID}, nil
		},
	}
	metadata := &fakeMetadataWriter{err: errors.New("clerk api status 503")}
	d := NewDispatcher(svc, metadata, slog.Default())

	evt := event(t, TypeUserCreated, UserData{
		ID:             "user_2abc",
		Username:       "jdoe",
		FirstName:      "Jane",
		LastName:       "Doe",
		ImageURL:       "https://img.clerk.com/jane.png",
		EmailAddresses: []EmailAddress{{EmailAddress: "jane@example.com"}},
	})

	processed, handled, err := d.Dispatch(context.Background(), evt)
	require.NoError(t, err)
	assert.True(t, handled)
	assert.NotNil(t, processed)
	assert.Equal(t, 1, metadata.calls)
}

func TestDispatchUpdated_KeyedByClerkID(t *testing.T) {
	var gotClerkID string
	var gotUpd user.UpdateInput
	svc := &fakeUserService{
		updateFn: func(_ context.Context, clerkID string, upd user.UpdateInput) (user.User, error) {
			gotClerkID = clerkID
			gotUpd = upd
			return user.User{ClerkID: clerkID}, nil
		},
	}
	d := NewDispatcher(svc, &fakeMetadataWriter{}, slog.Default())

	evt := event(t, TypeUserUpdated, UserData{
		ID:        "user_2abc",
		Username:  "janedoe",
		FirstName: "Janet",
		LastName:  "Doe",
		ImageURL:  "https://img.clerk.com/janet.png",
	})

	_, handled, err := d.Dispatch(context.Background(), evt)
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Equal(t, "user_2abc", gotClerkID)
	assert.Equal(t, user.UpdateInput{
		Username:  "janedoe",
		FirstName: "Janet",
		LastName:  "Doe",
		Photo:     "https://img.clerk.com/janet.png",
	}, gotUpd)
}

func TestDispatchDeleted_KeyedByClerkID(t *testing.T) {
	var gotClerkID string
	svc := &fakeUserService{
		deleteFn: func(_ context.Context, clerkID string) (user.User, error) {
			gotClerkID = clerkID
			return user.User{ClerkID: clerkID}, nil
		},
	}
	d := NewDispatcher(svc, &fakeMetadataWriter{}, slog.Default())

	evt := event(t, TypeUserDeleted, UserData{ID: "user_2abc"})

	_, handled, err := d.Dispatch(context.Background(), evt)
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Equal(t, "user_2abc", gotClerkID)
}

func TestDispatchUnknownType_AcknowledgedWithoutRepositoryCall(t *testing.T) {
	svc := &fakeUserService{}
	metadata := &fakeMetadataWriter{}
	d := NewDispatcher(svc, metadata, slog.Default())

	evt := event(t, Type("session.created"), map[string]string{"id": "sess_1"})

	processed, handled, err := d.Dispatch(context.Background(), evt)
	require.NoError(t, err)
	assert.False(t, handled)
	assert.Nil(t, processed)
	assert.Equal(t, 0, svc.calls)
	assert.Equal(t, 0, metadata.calls)
}

func TestDispatchCreated_RepositoryErrorPropagates(t *testing.T) {
	svc := &fakeUserService{
		createFn: func(context.Context, user.CreateInput) (user.User, error) {
			return user.User{}, &user.DuplicateKeyError{Field: "clerkId"}
		},
	}
	metadata := &fakeMetadataWriter{}
	d := NewDispatcher(svc, metadata, slog.Default())

	evt := event(t, TypeUserCreated, UserData{
		ID:             "user_2abc",
		Username:       "jdoe",
		FirstName:      "Jane",
		LastName:       "Doe",
		ImageURL:       "https://img.clerk.com/jane.png",
		EmailAddresses: []EmailAddress{{EmailAddress: "jane@example.com"}},
	})

	_, handled, err := d.Dispatch(context.Background(), evt)
	assert.True(t, handled)
	assert.True(t, user.IsDuplicateKey(err))
	assert.Equal(t, 0, metadata.calls, "metadata must not be written when create fails")
}
