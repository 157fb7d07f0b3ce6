package websocket

import (
	"encoding/json"
	"sync"
)

type BalanceUpdate struct {
	UserID  string `json:"user_id"`
	Balance string `json:"balance"`
}

type BidUpdate struct {
	AuctionID string `json:"auction_id"`
	BidderID  string `json:"bidder_id"`
	Amount    string `json:"amount"`
	Bidders   int    `json:"bidders"`
}

type event struct {
	Topic string `json:"topic"`
	Type  string `json:"type"`
	Data  any    `json:"data"`
}

// Hub fans events out to clients subscribed to a topic. Topics are
// "user:<id>" for balance pushes and "auction:<id>" for live bid feeds.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
	}
}

func UserTopic(userID string) string       { return "user:" + userID }
func AuctionTopic(auctionID string) string { return "auction:" + auctionID }

func (h *Hub) Subscribe(topic string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[topic] == nil {
		h.clients[topic] = make(map[*Client]struct{})
	}
	h.clients[topic][client] = struct{}{}
}

func (h *Hub) Unsubscribe(topic string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[topic] == nil {
		return
	}
	delete(h.clients[topic], client)
	if len(h.clients[topic]) == 0 {
		delete(h.clients, topic)
	}
}

func (h *Hub) BroadcastBalance(userID string, update BalanceUpdate) {
	h.broadcast(UserTopic(userID), "balance", update)
}

func (h *Hub) BroadcastBid(auctionID string, update BidUpdate) {
	h.broadcast(AuctionTopic(auctionID), "bid", update)
}

func (h *Hub) broadcast(topic, eventType string, data any) {
	payload, _ := json.Marshal(event{Topic: topic, Type: eventType, Data: data})
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients[topic] {
		select {
		case client.send <- payload:
		default:
		}
	}
}
