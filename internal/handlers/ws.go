package handlers

import (
	"net/http"

	"nftmarket/internal/auth"
	"nftmarket/internal/websocket"
)

// WS subscribes the connection to the caller's balance topic and any auction
// feeds named in the auction query parameter. Browsers cannot set headers on
// websocket requests, so the token rides in the query string.
func (h *Handler) WS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	claims, err := auth.ParseToken(h.cfg.JWTSecret, token)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "invalid token")
		return
	}
	topics := []string{websocket.UserTopic(claims.UserID)}
	for _, auctionID := range r.URL.Query()["auction"] {
		if auctionID != "" {
			topics = append(topics, websocket.AuctionTopic(auctionID))
		}
	}
	websocket.ServeWS(w, r, h.hub, topics)
}
