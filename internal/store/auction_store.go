package store

import (
	"context"
	"time"

	"nftmarket/internal/models"
)

type AuctionStore struct {
	db DB
}

func NewAuctionStore(db DB) *AuctionStore {
	return &AuctionStore{db: db}
}

const auctionColumns = `id, nft_id, seller_id, type, status, start_price, reserve_price, buy_now_price, start_time, end_time, bidders, winner_id, created_at`

type AuctionInput struct {
	ID           string
	NFTID        string
	SellerID     string
	Type         models.AuctionType
	Status       models.AuctionStatus
	StartPrice   int64
	ReservePrice *int64
	BuyNowPrice  *int64
	StartTime    time.Time
	EndTime      time.Time
}

func (s *AuctionStore) Create(ctx context.Context, tx Execer, input AuctionInput) error {
	query := `
		INSERT INTO auctions (id, nft_id, seller_id, type, status, start_price, reserve_price, buy_now_price, start_time, end_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := tx.ExecContext(ctx, query,
		input.ID, input.NFTID, input.SellerID, input.Type, input.Status,
		input.StartPrice, input.ReservePrice, input.BuyNowPrice, input.StartTime, input.EndTime,
	)
	return err
}

func (s *AuctionStore) GetByID(ctx context.Context, id string) (models.Auction, error) {
	var row models.Auction
	err := s.db.GetContext(ctx, &row, `SELECT `+auctionColumns+` FROM auctions WHERE id = $1`, id)
	return row, err
}

func (s *AuctionStore) GetForUpdate(ctx context.Context, tx Getter, id string) (models.Auction, error) {
	var row models.Auction
	err := tx.GetContext(ctx, &row, `
		SELECT `+auctionColumns+`
		FROM auctions
		WHERE id = $1
		FOR UPDATE
	`, id)
	return row, err
}

func (s *AuctionStore) List(ctx context.Context, status models.AuctionStatus, sellerID string, limit, offset int) ([]models.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions WHERE 1=1`
	args := []any{}
	if status != "" {
		args = append(args, status)
		query += ` AND status = $` + itoa(len(args))
	}
	if sellerID != "" {
		args = append(args, sellerID)
		query += ` AND seller_id = $` + itoa(len(args))
	}
	args = append(args, limit)
	query += ` ORDER BY end_time ASC LIMIT $` + itoa(len(args))
	args = append(args, offset)
	query += ` OFFSET $` + itoa(len(args))

	var rows []models.Auction
	err := s.db.SelectContext(ctx, &rows, query, args...)
	return rows, err
}

func (s *AuctionStore) Update(ctx context.Context, tx Execer, id string, startPrice int64, reservePrice, buyNowPrice *int64, startTime, endTime time.Time) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE auctions
		SET start_price = $1, reserve_price = $2, buy_now_price = $3, start_time = $4, end_time = $5, updated_at = NOW()
		WHERE id = $6 AND status <> 'ended'
	`, startPrice, reservePrice, buyNowPrice, startTime, endTime, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *AuctionStore) Delete(ctx context.Context, tx Execer, id string) (int64, error) {
	res, err := tx.ExecContext(ctx, `DELETE FROM auctions WHERE id = $1`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// MarkEnded flips the auction to ended. The guard makes a second completion
// call a no-op, reported through the row count.
func (s *AuctionStore) MarkEnded(ctx context.Context, tx Execer, id string, winnerID *string) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE auctions
		SET status = 'ended', winner_id = $1, updated_at = NOW()
		WHERE id = $2 AND status <> 'ended'
	`, winnerID, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *AuctionStore) InsertBid(ctx context.Context, tx Execer, id, auctionID, bidderID string, amount int64) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO bids (id, auction_id, bidder_id, amount)
		VALUES ($1, $2, $3, $4)
	`, id, auctionID, bidderID, amount)
	return err
}

// IncrementBidders bumps the distinct-bidder counter only when the bidder has
// no earlier bid on the auction. Called before InsertBid inside the same
// transaction so concurrent first bids cannot double count.
func (s *AuctionStore) IncrementBidders(ctx context.Context, tx Execer, auctionID, bidderID string) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE auctions
		SET bidders = bidders + 1
		WHERE id = $1
		  AND NOT EXISTS (SELECT 1 FROM bids WHERE auction_id = $1 AND bidder_id = $2)
	`, auctionID, bidderID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *AuctionStore) ListBids(ctx context.Context, auctionID string) ([]models.Bid, error) {
	var rows []models.Bid
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, auction_id, bidder_id, amount, created_at
		FROM bids
		WHERE auction_id = $1
		ORDER BY created_at ASC, id ASC
	`, auctionID)
	return rows, err
}

func (s *AuctionStore) ListBidsForUpdate(ctx context.Context, tx Selecter, auctionID string) ([]models.Bid, error) {
	var rows []models.Bid
	err := tx.SelectContext(ctx, &rows, `
		SELECT id, auction_id, bidder_id, amount, created_at
		FROM bids
		WHERE auction_id = $1
		ORDER BY created_at ASC, id ASC
		FOR UPDATE
	`, auctionID)
	return rows, err
}

func (s *AuctionStore) CountBids(ctx context.Context, auctionID string) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, `SELECT COUNT(1) FROM bids WHERE auction_id = $1`, auctionID)
	return count, err
}

func (s *AuctionStore) GetActiveByNFT(ctx context.Context, nftID string) (models.Auction, error) {
	var row models.Auction
	err := s.db.GetContext(ctx, &row, `
		SELECT `+auctionColumns+`
		FROM auctions
		WHERE nft_id = $1 AND status <> 'ended'
	`, nftID)
	return row, err
}
