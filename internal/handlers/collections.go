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
	"github.com/jmoiron/sqlx"
)

type createCollectionRequest struct {
	Name              string  `json:"name"`
	Description       string  `json:"description"`
	ImageURL          string  `json:"image_url"`
	RoyaltyPercentage float64 `json:"royalty_percentage"`
}

func (h *Handler) CreateCollection(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req createCollectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := validator.ValidateName(req.Name); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validator.ValidateRoyalty(req.RoyaltyPercentage); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	collectionID := uuid.NewString()
	err := h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		if err := h.collections.Create(r.Context(), tx, store.CollectionInput{
			ID:                collectionID,
			CreatorID:         userID,
			Name:              req.Name,
			Description:       req.Description,
			ImageURL:          req.ImageURL,
			RoyaltyPercentage: req.RoyaltyPercentage,
		}); err != nil {
			return err
		}
		return h.audit.Log(r.Context(), tx, userID, "collection_create", "collection", collectionID, "{}")
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to create collection")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"id": collectionID})
}

type updateCollectionRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
}

func (h *Handler) UpdateCollection(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	collectionID := chi.URLParam(r, "id")
	collection, err := h.collections.GetByID(r.Context(), collectionID)
	if err != nil {
		if err == sql.ErrNoRows {
			respondError(w, http.StatusNotFound, "collection not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to load collection")
		return
	}
	if collection.CreatorID != userID {
		respondError(w, http.StatusForbidden, "only the creator can update the collection")
		return
	}
	var req updateCollectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := validator.ValidateName(req.Name); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	err = h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		if _, err := h.collections.Update(r.Context(), tx, collectionID, req.Name, req.Description, req.ImageURL); err != nil {
			return err
		}
		return h.audit.Log(r.Context(), tx, userID, "collection_update", "collection", collectionID, "{}")
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to update collection")
		return
	}
	respondMessage(w, http.StatusOK, "collection updated")
}

func (h *Handler) GetCollection(w http.ResponseWriter, r *http.Request) {
	collection, err := h.collections.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if err == sql.ErrNoRows {
			respondError(w, http.StatusNotFound, "collection not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to load collection")
		return
	}
	respondJSON(w, http.StatusOK, collection)
}

func (h *Handler) ListCollections(w http.ResponseWriter, r *http.Request) {
	limit, offset := paginationParams(r)
	collections, err := h.collections.List(r.Context(), r.URL.Query().Get("creator_id"), limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list collections")
		return
	}
	respondJSON(w, http.StatusOK, collections)
}

func (h *Handler) ListCollectionNFTs(w http.ResponseWriter, r *http.Request) {
	limit, offset := paginationParams(r)
	nfts, err := h.nfts.List(r.Context(), store.NFTFilter{
		CollectionID: chi.URLParam(r, "id"),
		ListedOnly:   r.URL.Query().Get("listed") == "true",
		Limit:        limit,
		Offset:       offset,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list tokens")
		return
	}
	respondJSON(w, http.StatusOK, nfts)
}
