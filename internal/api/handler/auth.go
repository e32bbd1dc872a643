// internal/api/handler/auth.go
package handler

import (
	"log/slog"
	"net/http"

	"wager-market/internal/api/types"
	"wager-market/internal/auth"
	"wager-market/internal/service"
	"wager-market/internal/util"
)

// AuthHandler exchanges identity tokens for provisioned users and guards
// mutation routes.
type AuthHandler struct {
	responder
	verifier auth.Verifier
	users    service.UserService
}

// NewAuthHandler creates a new AuthHandler. A nil verifier disables
// token checks.
func NewAuthHandler(verifier auth.Verifier, users service.UserService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		responder: newResponder(logger),
		verifier:  verifier,
		users:     users,
	}
}

// Session verifies the bearer token and provisions the user on first sight.
// POST /auth/session
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	if h.verifier == nil {
		h.respondWithError(w, util.Errorf(util.ErrUnauthorized, "identity verification is not configured"))
		return
	}
	id, err := h.verifier.Verify(r.Context(), auth.BearerToken(r.Header.Get("Authorization")))
	if err != nil {
		h.logger.Warn("Identity token rejected", "error", err)
		h.respondWithError(w, util.Errorf(util.ErrUnauthorized, "invalid identity token"))
		return
	}

	user, created, err := h.users.EnsureUser(r.Context(), id.Subject, id.Email, id.Name)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	code, message := http.StatusOK, "Signed in"
	if created {
		code, message = http.StatusCreated, "User created"
		h.logger.Info("User provisioned", "user_id", user.ID)
	}
	h.respondWithJSON(w, code, types.OK(message, user))
}

// RequireIdentity rejects requests without a valid bearer token and stores
// the verified identity on the request context. With no verifier configured
// it passes requests through untouched.
func (h *AuthHandler) RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.verifier == nil {
			next.ServeHTTP(w, r)
			return
		}
		id, err := h.verifier.Verify(r.Context(), auth.BearerToken(r.Header.Get("Authorization")))
		if err != nil {
			h.respondWithError(w, util.Errorf(util.ErrUnauthorized, "a valid bearer token is required"))
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
	})
}
