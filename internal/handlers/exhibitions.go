package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"nftmarket/internal/middleware"
	"nftmarket/internal/store"
	"nftmarket/internal/validator"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type exhibitionRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
}

func (h *Handler) CreateExhibition(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req exhibitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := validator.ValidateName(req.Title); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	startDate, err := parseTime(req.StartDate)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid start date")
		return
	}
	endDate, err := parseTime(req.EndDate)
	if err != nil || !endDate.After(startDate) {
		respondError(w, http.StatusBadRequest, "invalid end date")
		return
	}
	exhibitionID := uuid.NewString()
	if err := h.exhibitions.Create(r.Context(), store.ExhibitionInput{
		ID:          exhibitionID,
		Title:       req.Title,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		StartDate:   startDate,
		EndDate:     endDate,
		CreatedBy:   userID,
	}); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to create exhibition")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"id": exhibitionID})
}

func (h *Handler) UpdateExhibition(w http.ResponseWriter, r *http.Request) {
	var req exhibitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := validator.ValidateName(req.Title); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	startDate, err := parseTime(req.StartDate)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid start date")
		return
	}
	endDate, err := parseTime(req.EndDate)
	if err != nil || !endDate.After(startDate) {
		respondError(w, http.StatusBadRequest, "invalid end date")
		return
	}
	rows, err := h.exhibitions.Update(r.Context(), chi.URLParam(r, "id"), req.Title, req.Description, req.ImageURL, startDate, endDate)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to update exhibition")
		return
	}
	if rows == 0 {
		respondError(w, http.StatusNotFound, "exhibition not found")
		return
	}
	respondMessage(w, http.StatusOK, "exhibition updated")
}

func (h *Handler) DeleteExhibition(w http.ResponseWriter, r *http.Request) {
	rows, err := h.exhibitions.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to delete exhibition")
		return
	}
	if rows == 0 {
		respondError(w, http.StatusNotFound, "exhibition not found")
		return
	}
	respondMessage(w, http.StatusOK, "exhibition deleted")
}

func (h *Handler) GetExhibition(w http.ResponseWriter, r *http.Request) {
	exhibitionID := chi.URLParam(r, "id")
	exhibition, err := h.exhibitions.GetByID(r.Context(), exhibitionID)
	if err != nil {
		if err == sql.ErrNoRows {
			respondError(w, http.StatusNotFound, "exhibition not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to load exhibition")
		return
	}
	items, err := h.exhibitions.ListItems(r.Context(), exhibitionID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load exhibition items")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"exhibition": exhibition,
		"items":      items,
	})
}

func (h *Handler) ListExhibitions(w http.ResponseWriter, r *http.Request) {
	limit, offset := paginationParams(r)
	exhibitions, err := h.exhibitions.List(r.Context(), limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list exhibitions")
		return
	}
	respondJSON(w, http.StatusOK, exhibitions)
}

type exhibitionItemRequest struct {
	NFTID string `json:"nft_id"`
}

func (h *Handler) AddExhibitionItem(w http.ResponseWriter, r *http.Request) {
	var req exhibitionItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if _, err := h.nfts.GetByID(r.Context(), req.NFTID); err != nil {
		respondError(w, http.StatusNotFound, "token not found")
		return
	}
	if err := h.exhibitions.AddItem(r.Context(), chi.URLParam(r, "id"), req.NFTID); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to add item")
		return
	}
	respondMessage(w, http.StatusOK, "item added")
}

func (h *Handler) RemoveExhibitionItem(w http.ResponseWriter, r *http.Request) {
	rows, err := h.exhibitions.RemoveItem(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "nftID"))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to remove item")
		return
	}
	if rows == 0 {
		respondError(w, http.StatusNotFound, "item not found")
		return
	}
	respondMessage(w, http.StatusOK, "item removed")
}
