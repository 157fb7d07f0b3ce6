package websocket

import (
	"encoding/json"
	"testing"
)

func newTestClient() *Client {
	return &Client{send: make(chan []byte, 10)}
}

func TestHubBroadcastToTopic(t *testing.T) {
	hub := NewHub()
	subscribed := newTestClient()
	other := newTestClient()
	hub.Subscribe(AuctionTopic("auc-1"), subscribed)
	hub.Subscribe(AuctionTopic("auc-2"), other)

	hub.BroadcastBid("auc-1", BidUpdate{AuctionID: "auc-1", BidderID: "alice", Amount: "2", Bidders: 1})

	select {
	case payload := <-subscribed.send:
		var got event
		if err := json.Unmarshal(payload, &got); err != nil {
			t.Fatalf("unexpected payload: %v", err)
		}
		if got.Topic != "auction:auc-1" || got.Type != "bid" {
			t.Fatalf("unexpected event: %+v", got)
		}
	default:
		t.Fatalf("expected delivery to subscribed client")
	}

	select {
	case <-other.send:
		t.Fatalf("client on another topic must not receive the event")
	default:
	}
}

func TestHubUnsubscribe(t *testing.T) {
	hub := NewHub()
	client := newTestClient()
	hub.Subscribe(UserTopic("u1"), client)
	hub.Unsubscribe(UserTopic("u1"), client)

	hub.BroadcastBalance("u1", BalanceUpdate{UserID: "u1", Balance: "1"})

	select {
	case <-client.send:
		t.Fatalf("unsubscribed client must not receive events")
	default:
	}
}

func TestHubSkipsSlowClients(t *testing.T) {
	hub := NewHub()
	slow := &Client{send: make(chan []byte)}
	hub.Subscribe(UserTopic("u1"), slow)

	// Unbuffered channel with no reader: broadcast must not block.
	hub.BroadcastBalance("u1", BalanceUpdate{UserID: "u1", Balance: "1"})
}
