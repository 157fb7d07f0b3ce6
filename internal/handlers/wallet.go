package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"nftmarket/internal/middleware"
	"nftmarket/internal/money"
	"nftmarket/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

func (h *Handler) GetWallet(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load wallet")
		return
	}
	// The address assigned on the most recent deposit request, empty until the
	// user has requested one.
	address := ""
	if deposits, err := h.deposits.ListByUser(r.Context(), userID, 1, 0); err == nil && len(deposits) > 0 {
		address = deposits[0].DepositAddress
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"balance":         money.FormatMinor(user.WalletBalance),
		"balance_minor":   user.WalletBalance,
		"deposit_address": address,
	})
}

type depositRequest struct {
	Amount string  `json:"amount"`
	TxHash *string `json:"tx_hash"`
}

func (h *Handler) RequestDeposit(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req depositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	amount, err := parseAmountMinor(req.Amount)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid amount")
		return
	}
	deposit, err := h.wallet.RequestDeposit(r.Context(), services.DepositRequestInput{
		UserID: userID,
		Amount: amount,
		TxHash: req.TxHash,
	})
	if err != nil {
		respondWalletError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, deposit)
}

func (h *Handler) ListDeposits(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	limit, offset := paginationParams(r)
	deposits, err := h.deposits.ListByUser(r.Context(), userID, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list deposits")
		return
	}
	respondJSON(w, http.StatusOK, deposits)
}

type withdrawalRequest struct {
	Amount  string `json:"amount"`
	Address string `json:"address"`
	Network string `json:"network"`
}

func (h *Handler) RequestWithdrawal(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req withdrawalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	amount, err := parseAmountMinor(req.Amount)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid amount")
		return
	}
	if req.Address == "" || req.Network == "" {
		respondError(w, http.StatusBadRequest, "address and network are required")
		return
	}
	withdrawalID, err := h.wallet.RequestWithdrawal(r.Context(), services.WithdrawalRequestInput{
		UserID:  userID,
		Amount:  amount,
		Address: req.Address,
		Network: req.Network,
	})
	if err != nil {
		respondWalletError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"id": withdrawalID})
}

func (h *Handler) ListWithdrawals(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	limit, offset := paginationParams(r)
	withdrawals, err := h.withdrawals.ListByUser(r.Context(), userID, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list withdrawals")
		return
	}
	respondJSON(w, http.StatusOK, withdrawals)
}

type whitelistRequest struct {
	Address string `json:"address"`
	Network string `json:"network"`
	Label   string `json:"label"`
}

func (h *Handler) AddWhitelistAddress(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req whitelistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.Address == "" || req.Network == "" {
		respondError(w, http.StatusBadRequest, "address and network are required")
		return
	}
	id := uuid.NewString()
	if err := h.whitelist.Add(r.Context(), id, userID, req.Address, req.Network, req.Label); err != nil {
		if pgErr, ok := err.(*pq.Error); ok && pgErr.Code == "23505" {
			respondError(w, http.StatusConflict, "address already whitelisted")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to whitelist address")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (h *Handler) RemoveWhitelistAddress(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	rows, err := h.whitelist.Remove(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to remove address")
		return
	}
	if rows == 0 {
		respondError(w, http.StatusNotFound, "address not found")
		return
	}
	respondMessage(w, http.StatusOK, "address removed")
}

func (h *Handler) ListWhitelist(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	addresses, err := h.whitelist.ListByUser(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list addresses")
		return
	}
	respondJSON(w, http.StatusOK, addresses)
}

func respondWalletError(w http.ResponseWriter, err error) {
	switch err {
	case sql.ErrNoRows:
		respondError(w, http.StatusNotFound, "not found")
	case services.ErrInvalidAmount:
		respondError(w, http.StatusBadRequest, err.Error())
	case services.ErrAddressNotWhitelisted:
		respondError(w, http.StatusForbidden, err.Error())
	case services.ErrInsufficientFunds:
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	case services.ErrAlreadyReviewed:
		respondError(w, http.StatusConflict, err.Error())
	case services.ErrNoDepositWallets, services.ErrMasterKeyNotConfigured:
		respondError(w, http.StatusServiceUnavailable, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "operation failed")
	}
}
