package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"nftmarket/internal/middleware"
	"nftmarket/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
)

func (h *Handler) AdminListUsers(w http.ResponseWriter, r *http.Request) {
	limit, offset := paginationParams(r)
	users, err := h.users.List(r.Context(), limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list users")
		return
	}
	respondJSON(w, http.StatusOK, users)
}

func (h *Handler) AdminListTransactions(w http.ResponseWriter, r *http.Request) {
	limit, offset := paginationParams(r)
	transactions, err := h.transactions.ListAll(r.Context(), limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list transactions")
		return
	}
	respondJSON(w, http.StatusOK, transactions)
}

func (h *Handler) AdminListDeposits(w http.ResponseWriter, r *http.Request) {
	limit, offset := paginationParams(r)
	status := models.RequestStatus(r.URL.Query().Get("status"))
	if status == "" {
		status = models.RequestPending
	}
	deposits, err := h.deposits.ListByStatus(r.Context(), status, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list deposits")
		return
	}
	respondJSON(w, http.StatusOK, deposits)
}

type reviewRequest struct {
	Approve bool    `json:"approve"`
	TxHash  *string `json:"tx_hash"`
}

func (h *Handler) AdminReviewDeposit(w http.ResponseWriter, r *http.Request) {
	adminID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := h.wallet.ReviewDeposit(r.Context(), adminID, chi.URLParam(r, "id"), req.Approve); err != nil {
		respondWalletError(w, err)
		return
	}
	respondMessage(w, http.StatusOK, "deposit reviewed")
}

func (h *Handler) AdminListWithdrawals(w http.ResponseWriter, r *http.Request) {
	limit, offset := paginationParams(r)
	status := models.RequestStatus(r.URL.Query().Get("status"))
	if status == "" {
		status = models.RequestPending
	}
	withdrawals, err := h.withdrawals.ListByStatus(r.Context(), status, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list withdrawals")
		return
	}
	respondJSON(w, http.StatusOK, withdrawals)
}

func (h *Handler) AdminReviewWithdrawal(w http.ResponseWriter, r *http.Request) {
	adminID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := h.wallet.ReviewWithdrawal(r.Context(), adminID, chi.URLParam(r, "id"), req.Approve, req.TxHash); err != nil {
		respondWalletError(w, err)
		return
	}
	respondMessage(w, http.StatusOK, "withdrawal reviewed")
}

func (h *Handler) AdminCompleteAuction(w http.ResponseWriter, r *http.Request) {
	adminID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	result, err := h.market.CompleteAuctionAsAdmin(r.Context(), adminID, chi.URLParam(r, "id"))
	if err != nil {
		respondMarketError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

type updateRoleRequest struct {
	Role string `json:"role"`
}

func (h *Handler) UpdateUserRole(w http.ResponseWriter, r *http.Request) {
	adminID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req updateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	role := models.Role(req.Role)
	switch role {
	case models.RoleUser, models.RoleAdmin, models.RoleSuperAdmin:
	default:
		respondError(w, http.StatusBadRequest, "unknown role")
		return
	}
	targetID := chi.URLParam(r, "id")
	err := h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		rows, err := h.users.UpdateRole(r.Context(), tx, targetID, role)
		if err != nil {
			return err
		}
		if rows == 0 {
			return sql.ErrNoRows
		}
		data, _ := json.Marshal(map[string]string{"role": string(role)})
		return h.audit.Log(r.Context(), tx, adminID, "role_update", "user", targetID, string(data))
	})
	if err != nil {
		if err == sql.ErrNoRows {
			respondError(w, http.StatusNotFound, "user not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to update role")
		return
	}
	respondMessage(w, http.StatusOK, "role updated")
}

func (h *Handler) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	limit, offset := paginationParams(r)
	logs, err := h.audit.List(r.Context(), limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list audit logs")
		return
	}
	respondJSON(w, http.StatusOK, logs)
}
