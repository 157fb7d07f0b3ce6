package store

import (
	"context"
	"time"

	"nftmarket/internal/models"
)

type PurchaseSessionStore struct {
	db DB
}

func NewPurchaseSessionStore(db DB) *PurchaseSessionStore {
	return &PurchaseSessionStore{db: db}
}

type PurchaseSessionInput struct {
	ID        string
	NFTID     string
	BuyerID   string
	Price     int64
	ExpiresAt time.Time
}

func (s *PurchaseSessionStore) Create(ctx context.Context, input PurchaseSessionInput) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO purchase_sessions (id, nft_id, buyer_id, price, expires_at)
		VALUES ($1, $2, $3, $4, $5)
	`, input.ID, input.NFTID, input.BuyerID, input.Price, input.ExpiresAt)
	return err
}

func (s *PurchaseSessionStore) GetByID(ctx context.Context, id string) (models.PurchaseSession, error) {
	var row models.PurchaseSession
	err := s.db.GetContext(ctx, &row, `
		SELECT id, nft_id, buyer_id, price, expires_at, consumed_at, created_at
		FROM purchase_sessions
		WHERE id = $1
	`, id)
	return row, err
}

// HasActiveForNFT reports whether an unexpired, unconsumed session already
// reserves the NFT.
func (s *PurchaseSessionStore) HasActiveForNFT(ctx context.Context, nftID string) (bool, error) {
	var count int
	err := s.db.GetContext(ctx, &count, `
		SELECT COUNT(1)
		FROM purchase_sessions
		WHERE nft_id = $1 AND consumed_at IS NULL AND expires_at > NOW()
	`, nftID)
	return count > 0, err
}

func (s *PurchaseSessionStore) Consume(ctx context.Context, tx Execer, id string) (int64, error) {
	result, err := tx.ExecContext(ctx, `
		UPDATE purchase_sessions
		SET consumed_at = NOW()
		WHERE id = $1 AND consumed_at IS NULL AND expires_at > NOW()
	`, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
