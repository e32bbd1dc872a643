// internal/api/handler/response.go
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"wager-market/internal/api/types"
	"wager-market/internal/auth"
	"wager-market/internal/util"
)

const maxBodyBytes = 1 << 20

// responder holds the JSON helpers shared by every handler.
type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

// Helper function to send JSON responses.
func (h responder) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

// Helper function to send error responses. Domain errors surface their own
// message; anything unmapped becomes an opaque 500.
func (h responder) respondWithError(w http.ResponseWriter, err error) {
	statusCode := statusFor(err)
	message := err.Error()
	if statusCode == http.StatusInternalServerError {
		h.logger.Error("Unhandled service error", "error", err)
		message = "internal server error"
	}
	h.respondWithJSON(w, statusCode, types.Fail(message))
}

func statusFor(err error) int {
	switch {
	case util.IsError(err, util.ErrInvalidInput), util.IsError(err, util.ErrInsufficientFunds):
		return http.StatusBadRequest
	case util.IsError(err, util.ErrUnauthorized):
		return http.StatusUnauthorized
	case util.IsError(err, util.ErrForbidden):
		return http.StatusForbidden
	case util.IsNotFound(err):
		return http.StatusNotFound
	case util.IsError(err, util.ErrConflict), util.IsError(err, util.ErrDuplicateEntry):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads a bounded JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return util.Errorf(util.ErrInvalidInput, "request body is required")
		}
		return util.Errorf(util.ErrInvalidInput, "invalid request body: %v", err)
	}
	return nil
}

// resolveActor decides who is acting. With a verified identity on the request
// the identity wins and a conflicting body id is rejected; without one the
// body id is trusted.
func resolveActor(r *http.Request, claimed, field string) (string, error) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		if claimed == "" {
			return "", util.Errorf(util.ErrInvalidInput, "%s is required", field)
		}
		return claimed, nil
	}
	if claimed != "" && claimed != id.Subject {
		return "", util.Errorf(util.ErrForbidden, "%s does not match the authenticated user", field)
	}
	return id.Subject, nil
}

// queryInt parses an optional integer query parameter.
func queryInt(r *http.Request, key string, fallback int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, util.Errorf(util.ErrInvalidInput, "%s must be an integer", key)
	}
	return n, nil
}

func errMissing(field string) error {
	return util.Errorf(util.ErrInvalidInput, "missing %s", field)
}
