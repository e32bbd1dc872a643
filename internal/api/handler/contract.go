// internal/api/handler/contract.go
package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"wager-market/internal/api/types"
	"wager-market/internal/domain"
	"wager-market/internal/service"
)

// ContractHandler serves the public feed and the contract lifecycle actions.
type ContractHandler struct {
	responder
	settlement service.SettlementService
	queries    service.QueryService
}

// NewContractHandler creates a new ContractHandler.
func NewContractHandler(settlement service.SettlementService, queries service.QueryService, logger *slog.Logger) *ContractHandler {
	return &ContractHandler{
		responder:  newResponder(logger),
		settlement: settlement,
		queries:    queries,
	}
}

// ListContracts handles the public feed.
// GET /contracts?page=&limit=&search=&username=
func (h *ContractHandler) ListContracts(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page", 1)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	limit, err := queryInt(r, "limit", service.DefaultFeedLimit)
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	result, err := h.queries.ListPublicContracts(r.Context(), service.FeedParams{
		Page:     page,
		Limit:    limit,
		Search:   r.URL.Query().Get("search"),
		Username: r.URL.Query().Get("username"),
	})
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, types.PaginatedResponse[domain.Contract]{
		Success: true,
		Data:    result.Contracts,
		Total:   result.Total,
		Page:    &result.Page,
		Limit:   result.Limit,
	})
}

// GetContract handles GET /contracts/{contractID}
func (h *ContractHandler) GetContract(w http.ResponseWriter, r *http.Request) {
	contract, err := h.queries.GetContract(r.Context(), chi.URLParam(r, "contractID"))
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, types.OK("", contract))
}

// ListUserContracts handles GET /contracts/user/{userID}
func (h *ContractHandler) ListUserContracts(w http.ResponseWriter, r *http.Request) {
	contracts, err := h.queries.ListContractsByUser(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, types.Envelope{Success: true, Data: contracts})
}

// ClaimRequest represents the request body for a direct claim.
type ClaimRequest struct {
	ClaimingUserID string `json:"claimingUserId"`
}

// ClaimContract seats the caller as taker at the posted stake.
// PATCH /contracts/{contractID}/claim
func (h *ContractHandler) ClaimContract(w http.ResponseWriter, r *http.Request) {
	var req ClaimRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.respondWithError(w, err)
		return
	}
	actor, err := resolveActor(r, req.ClaimingUserID, "claimingUserId")
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	out, err := h.settlement.ClaimContract(r.Context(), chi.URLParam(r, "contractID"), actor)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, types.OK("Contract claimed", out))
}

// CancelRequest represents the request body for a cancellation.
type CancelRequest struct {
	UserID string `json:"userId"`
}

// CancelContract handles PATCH /contracts/{contractID}/cancel
func (h *ContractHandler) CancelContract(w http.ResponseWriter, r *http.Request) {
	var req CancelRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.respondWithError(w, err)
		return
	}
	actor, err := resolveActor(r, req.UserID, "userId")
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	out, err := h.settlement.CancelContract(r.Context(), chi.URLParam(r, "contractID"), actor)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, types.OK("Contract cancelled", out))
}

// ResolveRequest represents a party's win/loss self-claim.
type ResolveRequest struct {
	UserID string `json:"userId"`
	Claim  *bool  `json:"claim"`
}

// ResolveContract handles PATCH /contracts/{contractID}/resolve
func (h *ContractHandler) ResolveContract(w http.ResponseWriter, r *http.Request) {
	var req ResolveRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.respondWithError(w, err)
		return
	}
	if req.Claim == nil {
		h.respondWithError(w, errMissing("claim"))
		return
	}
	actor, err := resolveActor(r, req.UserID, "userId")
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	out, err := h.settlement.SubmitResolution(r.Context(), chi.URLParam(r, "contractID"), actor, *req.Claim)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	message := "Claim recorded"
	switch {
	case out.Contract.Status == domain.ContractStatusResolved:
		message = "Contract resolved"
	case out.Contract.Disputed:
		message = "Claims disagree; contract is disputed"
	}
	h.respondWithJSON(w, http.StatusOK, types.OK(message, out))
}
