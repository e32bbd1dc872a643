// internal/api/handler/notification.go
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

// NotificationHandler serves stake proposals ("notifications").
type NotificationHandler struct {
	responder
	settlement service.SettlementService
	queries    service.QueryService
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(settlement service.SettlementService, queries service.QueryService, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{
		responder:  newResponder(logger),
		settlement: settlement,
		queries:    queries,
	}
}

// ListNotifications handles GET /notifications?to_uid=&from_uid=&contract_id=&status=&limit=
func (h *NotificationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	q := r.URL.Query()
	negotiations, err := h.queries.ListNegotiations(r.Context(), service.NegotiationQuery{
		ToUID:      q.Get("to_uid"),
		FromUID:    q.Get("from_uid"),
		ContractID: q.Get("contract_id"),
		Status:     q.Get("status"),
		Limit:      limit,
	})
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, types.Envelope{Success: true, Data: negotiations})
}

// GetNotification handles GET /notifications/{notificationID}
func (h *NotificationHandler) GetNotification(w http.ResponseWriter, r *http.Request) {
	n, err := h.queries.GetNegotiation(r.Context(), chi.URLParam(r, "notificationID"))
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, types.OK("", n))
}

// ProposeRequest represents a new stake proposal.
type ProposeRequest struct {
	FromUID    string           `json:"from_uid"`
	ToUID      string           `json:"to_uid"`
	ContractID string           `json:"contract_id"`
	Amount     *decimal.Decimal `json:"amount"`
}

// ProposeRaise handles PUT /notifications
func (h *NotificationHandler) ProposeRaise(w http.ResponseWriter, r *http.Request) {
	var req ProposeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.respondWithError(w, err)
		return
	}
	if req.Amount == nil {
		h.respondWithError(w, errMissing("amount"))
		return
	}
	from, err := resolveActor(r, req.FromUID, "from_uid")
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	n, err := h.settlement.ProposeRaise(r.Context(), from, req.ToUID, req.ContractID, *req.Amount)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusCreated, types.OK("Proposal sent", n))
}

// RespondRequest accepts or declines a proposal.
type RespondRequest struct {
	Status string `json:"status"`
	UserID string `json:"userId"`
}

// RespondToRaise handles PATCH /notifications/{notificationID}
func (h *NotificationHandler) RespondToRaise(w http.ResponseWriter, r *http.Request) {
	var req RespondRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.respondWithError(w, err)
		return
	}
	status, err := domain.ParseNegotiationStatus(req.Status)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	actor, err := resolveActor(r, req.UserID, "userId")
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	out, err := h.settlement.RespondToRaise(r.Context(), chi.URLParam(r, "notificationID"), actor, status)
	if err != nil {
		h.respondWithError(w, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, types.OK("Proposal "+string(status), out))
}
