package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"nftmarket/internal/middleware"
	"nftmarket/internal/models"
	"nftmarket/internal/money"

	"github.com/go-chi/chi/v5"
)

type buyRequest struct {
	NFTID string `json:"nft_id"`
}

func (h *Handler) BuyNFT(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req buyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.NFTID == "" {
		respondError(w, http.StatusBadRequest, "nft_id is required")
		return
	}
	transactionID, err := h.market.Buy(r.Context(), userID, req.NFTID)
	if err != nil {
		respondMarketError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"transaction_id": transactionID})
}

func (h *Handler) CreatePurchaseSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req buyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.NFTID == "" {
		respondError(w, http.StatusBadRequest, "nft_id is required")
		return
	}
	session, err := h.market.CreateSession(r.Context(), userID, req.NFTID)
	if err != nil {
		respondMarketError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, sessionPayload(session))
}

func (h *Handler) GetPurchaseSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	session, err := h.market.GetSession(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		respondMarketError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, sessionPayload(session))
}

func (h *Handler) ConfirmPurchaseSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	transactionID, err := h.market.ConfirmSession(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		respondMarketError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"transaction_id": transactionID})
}

// sessionPayload reports expiry lazily: nothing flips the row when the clock
// runs out, the status is derived on read.
func sessionPayload(session models.PurchaseSession) map[string]any {
	status := "active"
	if session.ConsumedAt != nil {
		status = "completed"
	} else if session.Expired(time.Now()) {
		status = "expired"
	}
	return map[string]any{
		"id":         session.ID,
		"nft_id":     session.NFTID,
		"price":      money.FormatMinor(session.Price),
		"status":     status,
		"expires_at": session.ExpiresAt,
		"created_at": session.CreatedAt,
	}
}

func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	limit, offset := paginationParams(r)
	txType := models.TransactionType(r.URL.Query().Get("type"))
	transactions, err := h.transactions.ListByUser(r.Context(), userID, txType, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list transactions")
		return
	}
	respondJSON(w, http.StatusOK, transactions)
}
