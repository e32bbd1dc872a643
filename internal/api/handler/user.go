// internal/api/handler/user.go
package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"wager-market/internal/api/types"
	"wager-market/internal/domain"
	"wager-market/internal/service"
)

// UserHandler handles profile reads and updates and contract creation.
type UserHandler struct {
	responder
	users      service.UserService
	settlement service.SettlementService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users service.UserService, settlement service.SettlementService, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		responder:  newResponder(logger),
		users:      users,
		settlement: settlement,
	}
}

// GetUser handles GET /user/{userID}
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetUser(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, types.OK("", user))
}

// GetUserByEmail handles GET /user/by-email?email=
func (h *UserHandler) GetUserByEmail(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		h.respondWithError(w, errMissing("email"))
		return
	}
	user, err := h.users.GetUserByEmail(r.Context(), email)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, types.OK("", user))
}

// UpdateUserRequest carries the optional profile fields.
type UpdateUserRequest struct {
	Username *string          `json:"username"`
	Balance  *decimal.Decimal `json:"balance"`
}

// UpdateUser handles PATCH /user/{userID}
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req UpdateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.respondWithError(w, err)
		return
	}
	userID, err := resolveActor(r, chi.URLParam(r, "userID"), "userId")
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	user, err := h.users.UpdateProfile(r.Context(), userID, service.ProfileUpdate{
		Username: req.Username,
		Balance:  req.Balance,
	})
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, types.OK("Profile updated", user))
}

// NewContractRequest represents the request body for posting a contract.
type NewContractRequest struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Amount      *decimal.Decimal `json:"amount"`
}

// CreateContract posts a new open contract and escrows the maker's stake.
// POST /user/{userID}/newcontract
func (h *UserHandler) CreateContract(w http.ResponseWriter, r *http.Request) {
	var req NewContractRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.respondWithError(w, err)
		return
	}
	if req.Amount == nil {
		h.respondWithError(w, errMissing("amount"))
		return
	}
	makerID, err := resolveActor(r, chi.URLParam(r, "userID"), "userId")
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	out, err := h.settlement.CreateContract(r.Context(), makerID, req.Title, req.Description, *req.Amount)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusCreated, types.OK("Contract created", out))
}

// GetLedger handles GET /user/{userID}/ledger?limit=&offset=
func (h *UserHandler) GetLedger(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", service.DefaultFeedLimit)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	entries, total, err := h.users.GetLedger(r.Context(), chi.URLParam(r, "userID"), limit, offset)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, types.PaginatedResponse[domain.LedgerEntry]{
		Success: true,
		Data:    entries,
		Total:   total,
		Limit:   limit,
		Offset:  &offset,
	})
}
