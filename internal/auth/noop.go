package auth

import (
	"context"
	"errors"
)

type noopVerifier struct{}

func (noopVerifier) Verify(_ context.Context, token string) (Session, error) {
	if token == "" {
		return Session{}, errors.New("token must not be empty")
	}
	return Session{ClerkID: token}, nil
}
