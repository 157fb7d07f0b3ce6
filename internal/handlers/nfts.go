package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"nftmarket/internal/middleware"
	"nftmarket/internal/services"
	"nftmarket/internal/store"
	"nftmarket/internal/validator"

	"github.com/go-chi/chi/v5"
)

type mintRequest struct {
	CollectionID string `json:"collection_id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	ImageURL     string `json:"image_url"`
	TokenURI     string `json:"token_uri"`
}

func (h *Handler) MintNFT(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req mintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := validator.ValidateName(req.Name); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	nftID, err := h.market.Mint(r.Context(), services.MintRequest{
		OwnerID:      userID,
		CollectionID: req.CollectionID,
		Name:         req.Name,
		Description:  req.Description,
		ImageURL:     req.ImageURL,
		TokenURI:     req.TokenURI,
	})
	if err != nil {
		if err == sql.ErrNoRows {
			respondError(w, http.StatusNotFound, "collection not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "mint failed")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"id": nftID})
}

func (h *Handler) GetNFT(w http.ResponseWriter, r *http.Request) {
	nft, err := h.nfts.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if err == sql.ErrNoRows {
			respondError(w, http.StatusNotFound, "token not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to load token")
		return
	}
	respondJSON(w, http.StatusOK, nft)
}

func (h *Handler) ListNFTs(w http.ResponseWriter, r *http.Request) {
	limit, offset := paginationParams(r)
	nfts, err := h.nfts.List(r.Context(), store.NFTFilter{
		CollectionID: r.URL.Query().Get("collection_id"),
		OwnerID:      r.URL.Query().Get("owner_id"),
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

type listForSaleRequest struct {
	Price string `json:"price"`
}

func (h *Handler) ListNFTForSale(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req listForSaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	price, err := parseAmountMinor(req.Price)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid price")
		return
	}
	if err := h.market.ListForSale(r.Context(), userID, chi.URLParam(r, "id"), price); err != nil {
		respondMarketError(w, err)
		return
	}
	respondMessage(w, http.StatusOK, "token listed")
}

func (h *Handler) UnlistNFT(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := h.market.Unlist(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		respondMarketError(w, err)
		return
	}
	respondMessage(w, http.StatusOK, "token unlisted")
}

func respondMarketError(w http.ResponseWriter, err error) {
	switch err {
	case sql.ErrNoRows:
		respondError(w, http.StatusNotFound, "not found")
	case services.ErrInvalidAmount:
		respondError(w, http.StatusBadRequest, err.Error())
	case services.ErrInvalidAuctionTime, services.ErrMissingReserve, services.ErrMissingBuyNow:
		respondError(w, http.StatusBadRequest, err.Error())
	case services.ErrNotOwner, services.ErrNotSeller, services.ErrSessionForbidden:
		respondError(w, http.StatusForbidden, err.Error())
	case services.ErrInsufficientFunds:
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	case services.ErrNotListed, services.ErrAlreadyListed, services.ErrOwnToken, services.ErrSellerBid,
		services.ErrTokenReserved, services.ErrTokenOnAuction, services.ErrAuctionNotLive,
		services.ErrAuctionNotEnded, services.ErrAuctionCompleted, services.ErrAuctionHasBids,
		services.ErrBidTooLow, services.ErrSessionExpired, services.ErrSessionConsumed:
		respondError(w, http.StatusConflict, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "operation failed")
	}
}
