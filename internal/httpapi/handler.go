package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Shrot8546/EventVgo/internal/auth"
	"github.com/Shrot8546/EventVgo/internal/user"
	"github.com/Shrot8546/EventVgo/internal/webhook"
)

const (
	serviceTimeout      = 8 * time.Second
	maxWebhookBodyBytes = 1 << 20 // Clerk user payloads are a few KB; 1MB is generous
)

// RegisterWebhookRoutes mounts the Clerk webhook endpoint. It must stay
// outside the session auth group: deliveries authenticate with the svix
// signature, not a bearer token.
func RegisterWebhookRoutes(r chi.Router, verifier *webhook.Verifier, dispatcher *webhook.Dispatcher, logger *slog.Logger) {
	r.Post("/api/webhooks/clerk", handleClerkWebhook(verifier, dispatcher, logger))
}

// RegisterUserRoutes mounts the authenticated user endpoints.
func RegisterUserRoutes(r chi.Router, service user.Service, logger *slog.Logger) {
	r.Route("/v1/users", func(r chi.Router) {
		r.Post("/sync", syncUser(service, logger))
		r.Get("/{id}", getUser(service, logger))
	})
}

type webhookResponse struct {
	Message string     `json:"message"`
	User    *user.User `json:"user"`
}

func handleClerkWebhook(verifier *webhook.Verifier, dispatcher *webhook.Dispatcher, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBodyBytes))
		if err != nil {
			http.Error(w, "unable to read request body", http.StatusBadRequest)
			return
		}

		evt, err := verifier.Verify(body, r.Header)
		if err != nil {
			if errors.Is(err, webhook.ErrMissingHeaders) {
				http.Error(w, "missing svix headers", http.StatusBadRequest)
				return
			}
			http.Error(w, "webhook verification failed", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
		defer cancel()

		processed, handled, err := dispatcher.Dispatch(ctx, evt)
		if err != nil {
			// Non-2xx makes Clerk redeliver, which is the only retry path for
			// out-of-order or failed events.
			logRequestError(r.Context(), logger, "failed to process webhook event", err, string(evt.Type))
			http.Error(w, "error processing webhook event", http.StatusInternalServerError)
			return
		}
		if !handled {
			w.WriteHeader(http.StatusOK)
			return
		}

		writeJSON(w, http.StatusOK, webhookResponse{Message: "OK", User: processed})
	}
}

type syncRequest struct {
	Email     string `json:"email"`
	Username  string `json:"username"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Photo     string `json:"photo"`
}

type syncResponse struct {
	User    user.User `json:"user"`
	Created bool      `json:"created"`
}

func syncUser(service user.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := auth.SessionFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "missing session")
			return
		}

		var body syncRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
		defer cancel()

		synced, created, err := service.Sync(ctx, user.CreateInput{
			ClerkID:   session.ClerkID,
			Email:     body.Email,
			Username:  body.Username,
			FirstName: body.FirstName,
			LastName:  body.LastName,
			Photo:     body.Photo,
		})
		if err != nil {
			var invalid *user.ValidationError
			if errors.As(err, &invalid) {
				writeError(w, http.StatusBadRequest, invalid.Error())
				return
			}
			logRequestError(r.Context(), logger, "failed to sync user", err, session.ClerkID)
			writeError(w, http.StatusInternalServerError, "failed to sync user")
			return
		}

		writeJSON(w, http.StatusOK, syncResponse{User: synced, Created: created})
	}
}

func getUser(service user.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
		defer cancel()

		found, err := service.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, user.ErrNotFound) {
				writeError(w, http.StatusNotFound, "user not found")
				return
			}
			logRequestError(r.Context(), logger, "failed to load user", err, id)
			writeError(w, http.StatusInternalServerError, "failed to load user")
			return
		}

		writeJSON(w, http.StatusOK, found)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func logRequestError(ctx context.Context, logger *slog.Logger, message string, err error, subject string) {
	if logger == nil || err == nil {
		return
	}
	attrs := []any{
		slog.String("subject", subject),
		slog.Any("error", err),
	}
	if reqID := middleware.GetReqID(ctx); reqID != "" {
		attrs = append(attrs, slog.String("requestId", reqID))
	}
	logger.Error(message, attrs...)
}
