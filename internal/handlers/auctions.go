package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"nftmarket/internal/middleware"
	"nftmarket/internal/models"
	"nftmarket/internal/services"

	"github.com/go-chi/chi/v5"
)

type createAuctionRequest struct {
	NFTID        string `json:"nft_id"`
	Type         string `json:"type"`
	StartPrice   string `json:"start_price"`
	ReservePrice string `json:"reserve_price"`
	BuyNowPrice  string `json:"buy_now_price"`
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
}

func (h *Handler) CreateAuction(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req createAuctionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	auctionType, ok := parseAuctionType(req.Type)
	if !ok {
		respondError(w, http.StatusBadRequest, "unknown auction type")
		return
	}
	startPrice, err := parseAmountMinor(req.StartPrice)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid start price")
		return
	}
	reservePrice, err := parseOptionalAmountMinor(req.ReservePrice)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid reserve price")
		return
	}
	buyNowPrice, err := parseOptionalAmountMinor(req.BuyNowPrice)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid buy now price")
		return
	}
	startTime, err := parseTime(req.StartTime)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid start time")
		return
	}
	endTime, err := parseTime(req.EndTime)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid end time")
		return
	}
	auctionID, err := h.market.CreateAuction(r.Context(), services.CreateAuctionRequest{
		SellerID:     userID,
		NFTID:        req.NFTID,
		Type:         auctionType,
		StartPrice:   startPrice,
		ReservePrice: reservePrice,
		BuyNowPrice:  buyNowPrice,
		StartTime:    startTime,
		EndTime:      endTime,
	})
	if err != nil {
		respondMarketError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"id": auctionID})
}

type updateAuctionRequest struct {
	StartPrice   string `json:"start_price"`
	ReservePrice string `json:"reserve_price"`
	BuyNowPrice  string `json:"buy_now_price"`
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
}

func (h *Handler) UpdateAuction(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req updateAuctionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	startPrice, err := parseAmountMinor(req.StartPrice)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid start price")
		return
	}
	reservePrice, err := parseOptionalAmountMinor(req.ReservePrice)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid reserve price")
		return
	}
	buyNowPrice, err := parseOptionalAmountMinor(req.BuyNowPrice)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid buy now price")
		return
	}
	startTime, err := parseTime(req.StartTime)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid start time")
		return
	}
	endTime, err := parseTime(req.EndTime)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid end time")
		return
	}
	err = h.market.UpdateAuction(r.Context(), services.UpdateAuctionRequest{
		SellerID:     userID,
		AuctionID:    chi.URLParam(r, "id"),
		StartPrice:   startPrice,
		ReservePrice: reservePrice,
		BuyNowPrice:  buyNowPrice,
		StartTime:    startTime,
		EndTime:      endTime,
	})
	if err != nil {
		respondMarketError(w, err)
		return
	}
	respondMessage(w, http.StatusOK, "auction updated")
}

func (h *Handler) DeleteAuction(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := h.market.DeleteAuction(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		respondMarketError(w, err)
		return
	}
	respondMessage(w, http.StatusOK, "auction deleted")
}

func (h *Handler) GetAuction(w http.ResponseWriter, r *http.Request) {
	auction, err := h.auctions.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if err == sql.ErrNoRows {
			respondError(w, http.StatusNotFound, "auction not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to load auction")
		return
	}
	respondJSON(w, http.StatusOK, auctionPayload(auction))
}

func (h *Handler) ListAuctions(w http.ResponseWriter, r *http.Request) {
	limit, offset := paginationParams(r)
	status := models.AuctionStatus(r.URL.Query().Get("status"))
	auctions, err := h.auctions.List(r.Context(), status, r.URL.Query().Get("seller_id"), limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list auctions")
		return
	}
	payloads := make([]map[string]any, 0, len(auctions))
	for _, auction := range auctions {
		payloads = append(payloads, auctionPayload(auction))
	}
	respondJSON(w, http.StatusOK, payloads)
}

func (h *Handler) ListAuctionBids(w http.ResponseWriter, r *http.Request) {
	bids, err := h.auctions.ListBids(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to list bids")
		return
	}
	respondJSON(w, http.StatusOK, bids)
}

type placeBidRequest struct {
	Amount string `json:"amount"`
}

func (h *Handler) PlaceBid(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req placeBidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	amount, err := parseAmountMinor(req.Amount)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid amount")
		return
	}
	bidID, err := h.market.PlaceBid(r.Context(), services.PlaceBidRequest{
		AuctionID: chi.URLParam(r, "id"),
		BidderID:  userID,
		Amount:    amount,
	})
	if err != nil {
		respondMarketError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"id": bidID})
}

func (h *Handler) CompleteAuction(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	result, err := h.market.CompleteAuction(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		respondMarketError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func auctionPayload(auction models.Auction) map[string]any {
	return map[string]any{
		"id":               auction.ID,
		"nft_id":           auction.NFTID,
		"seller_id":        auction.SellerID,
		"type":             auction.Type,
		"status":           auction.Status,
		"effective_status": auction.EffectiveStatus(time.Now()),
		"start_price":      auction.StartPrice,
		"reserve_price":    auction.ReservePrice,
		"buy_now_price":    auction.BuyNowPrice,
		"start_time":       auction.StartTime,
		"end_time":         auction.EndTime,
		"bidders":          auction.Bidders,
		"winner_id":        auction.WinnerID,
		"created_at":       auction.CreatedAt,
	}
}

func parseAuctionType(raw string) (models.AuctionType, bool) {
	switch models.AuctionType(raw) {
	case models.AuctionStandard, models.AuctionReserve, models.AuctionTimed, models.AuctionLottery, models.AuctionBuyNow:
		return models.AuctionType(raw), true
	default:
		return "", false
	}
}
