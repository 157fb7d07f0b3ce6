package models

import (
	"testing"
	"time"
)

func TestAuctionEffectiveStatus(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	auction := Auction{
		Status:    AuctionUpcoming,
		StartTime: now.Add(-time.Hour),
		EndTime:   now.Add(time.Hour),
	}
	if got := auction.EffectiveStatus(now.Add(-2 * time.Hour)); got != AuctionUpcoming {
		t.Fatalf("before start: got %s", got)
	}
	if got := auction.EffectiveStatus(now); got != AuctionLive {
		t.Fatalf("inside window: got %s", got)
	}
	if got := auction.EffectiveStatus(now.Add(2 * time.Hour)); got != AuctionEnded {
		t.Fatalf("after end: got %s", got)
	}

	auction.Status = AuctionEnded
	if got := auction.EffectiveStatus(now); got != AuctionEnded {
		t.Fatalf("settled auction must stay ended, got %s", got)
	}
}

func TestPurchaseSessionExpired(t *testing.T) {
	now := time.Now()
	session := PurchaseSession{ExpiresAt: now.Add(time.Minute)}
	if session.Expired(now) {
		t.Fatalf("session should still be active")
	}
	if !session.Expired(now.Add(2 * time.Minute)) {
		t.Fatalf("session should be expired")
	}
}
