package services

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"sort"
	"time"

	"nftmarket/internal/db"
	"nftmarket/internal/models"
	"nftmarket/internal/money"
	"nftmarket/internal/store"
	"nftmarket/internal/websocket"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrNotOwner           = errors.New("caller does not own the token")
	ErrOwnToken           = errors.New("cannot buy your own token")
	ErrNotListed          = errors.New("token is not listed for sale")
	ErrAlreadyListed      = errors.New("token is already listed")
	ErrTokenReserved      = errors.New("token is reserved by an active purchase session")
	ErrTokenOnAuction     = errors.New("token has an active auction")
	ErrAuctionNotLive     = errors.New("auction is not accepting bids")
	ErrAuctionNotEnded    = errors.New("auction has not ended yet")
	ErrAuctionCompleted   = errors.New("auction already completed")
	ErrAuctionHasBids     = errors.New("auction already has bids")
	ErrBidTooLow          = errors.New("bid too low")
	ErrNotSeller          = errors.New("caller is not the seller")
	ErrSellerBid          = errors.New("seller cannot bid on own auction")
	ErrSessionExpired     = errors.New("purchase session expired")
	ErrSessionConsumed    = errors.New("purchase session already used")
	ErrSessionForbidden   = errors.New("purchase session belongs to another buyer")
	ErrInvalidAuctionTime = errors.New("invalid auction time window")
	ErrMissingReserve     = errors.New("reserve auction requires a reserve price")
	ErrMissingBuyNow      = errors.New("buy now auction requires a buy now price")
)

// platformFeeRate is the marketplace cut taken from every sale.
var platformFeeRate = decimal.RequireFromString("0.025")

const sessionTTL = 30 * time.Minute

type MarketService struct {
	txRunner        db.TxRunner
	userStore       UserStore
	nftStore        NFTStore
	collectionStore CollectionStore
	auctionStore    AuctionStore
	txStore         TransactionStore
	sessionStore    PurchaseSessionStore
	auditStore      AuditStore
	hub             MarketHub

	now         func() time.Time
	lotteryPick func(n int) int
}

type UserStore interface {
	GetByID(ctx context.Context, userID string) (models.User, error)
	GetForUpdate(ctx context.Context, tx store.Getter, userID string) (models.User, error)
	UpdateBalance(ctx context.Context, tx store.Execer, userID string, balance int64) error
}

type NFTStore interface {
	Create(ctx context.Context, tx store.Execer, input store.NFTInput) error
	GetByID(ctx context.Context, id string) (models.NFT, error)
	GetForUpdate(ctx context.Context, tx store.Getter, id string) (models.NFT, error)
	SetListing(ctx context.Context, tx store.Execer, id string, listed bool, price *int64) error
	TransferOwner(ctx context.Context, tx store.Execer, id, newOwnerID string) error
}

type CollectionStore interface {
	GetByID(ctx context.Context, id string) (models.Collection, error)
	AdjustListedCount(ctx context.Context, tx store.Execer, id string, delta int) error
	AddVolume(ctx context.Context, tx store.Execer, id string, amount int64) error
}

type AuctionStore interface {
	Create(ctx context.Context, tx store.Execer, input store.AuctionInput) error
	GetByID(ctx context.Context, id string) (models.Auction, error)
	GetForUpdate(ctx context.Context, tx store.Getter, id string) (models.Auction, error)
	GetActiveByNFT(ctx context.Context, nftID string) (models.Auction, error)
	Update(ctx context.Context, tx store.Execer, id string, startPrice int64, reservePrice, buyNowPrice *int64, startTime, endTime time.Time) (int64, error)
	Delete(ctx context.Context, tx store.Execer, id string) (int64, error)
	MarkEnded(ctx context.Context, tx store.Execer, id string, winnerID *string) (int64, error)
	InsertBid(ctx context.Context, tx store.Execer, id, auctionID, bidderID string, amount int64) error
	IncrementBidders(ctx context.Context, tx store.Execer, auctionID, bidderID string) (int64, error)
	ListBidsForUpdate(ctx context.Context, tx store.Selecter, auctionID string) ([]models.Bid, error)
	CountBids(ctx context.Context, auctionID string) (int, error)
}

type TransactionStore interface {
	Create(ctx context.Context, tx store.Execer, input store.TransactionInput) error
}

type PurchaseSessionStore interface {
	Create(ctx context.Context, input store.PurchaseSessionInput) error
	GetByID(ctx context.Context, id string) (models.PurchaseSession, error)
	HasActiveForNFT(ctx context.Context, nftID string) (bool, error)
	Consume(ctx context.Context, tx store.Execer, id string) (int64, error)
}

type AuditStore interface {
	Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error
}

type MarketHub interface {
	BroadcastBalance(userID string, update websocket.BalanceUpdate)
	BroadcastBid(auctionID string, update websocket.BidUpdate)
}

func NewMarketService(txRunner db.TxRunner, userStore UserStore, nftStore NFTStore, collectionStore CollectionStore, auctionStore AuctionStore, txStore TransactionStore, sessionStore PurchaseSessionStore, auditStore AuditStore, hub MarketHub) *MarketService {
	return &MarketService{
		txRunner:        txRunner,
		userStore:       userStore,
		nftStore:        nftStore,
		collectionStore: collectionStore,
		auctionStore:    auctionStore,
		txStore:         txStore,
		sessionStore:    sessionStore,
		auditStore:      auditStore,
		hub:             hub,
		now:             time.Now,
		lotteryPick:     rand.Intn,
	}
}

type MintRequest struct {
	OwnerID      string
	CollectionID string
	Name         string
	Description  string
	ImageURL     string
	TokenURI     string
}

func (s *MarketService) Mint(ctx context.Context, req MintRequest) (string, error) {
	if _, err := s.collectionStore.GetByID(ctx, req.CollectionID); err != nil {
		return "", err
	}
	nftID := uuid.NewString()
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.nftStore.Create(ctx, tx, store.NFTInput{
			ID:           nftID,
			CollectionID: req.CollectionID,
			OwnerID:      req.OwnerID,
			Name:         req.Name,
			Description:  req.Description,
			ImageURL:     req.ImageURL,
			TokenURI:     req.TokenURI,
		}); err != nil {
			return err
		}
		if err := s.txStore.Create(ctx, tx, store.TransactionInput{
			ID:       uuid.NewString(),
			UserID:   req.OwnerID,
			Type:     models.TxMint,
			Status:   "completed",
			Amount:   0,
			NFTID:    &nftID,
			Metadata: "{}",
		}); err != nil {
			return err
		}
		return s.auditStore.Log(ctx, tx, req.OwnerID, "mint", "nft", nftID, "{}")
	})
	if err != nil {
		return "", err
	}
	return nftID, nil
}

func (s *MarketService) ListForSale(ctx context.Context, userID, nftID string, price int64) error {
	if price <= 0 {
		return ErrInvalidAmount
	}
	return s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		nft, err := s.nftStore.GetForUpdate(ctx, tx, nftID)
		if err != nil {
			return err
		}
		if nft.OwnerID != userID {
			return ErrNotOwner
		}
		if nft.IsListed {
			return ErrAlreadyListed
		}
		if _, err := s.auctionStore.GetActiveByNFT(ctx, nftID); err == nil {
			return ErrTokenOnAuction
		}
		if err := s.nftStore.SetListing(ctx, tx, nftID, true, &price); err != nil {
			return err
		}
		if err := s.collectionStore.AdjustListedCount(ctx, tx, nft.CollectionID, 1); err != nil {
			return err
		}
		if err := s.txStore.Create(ctx, tx, store.TransactionInput{
			ID:       uuid.NewString(),
			UserID:   userID,
			Type:     models.TxList,
			Status:   "completed",
			Amount:   price,
			NFTID:    &nftID,
			Metadata: "{}",
		}); err != nil {
			return err
		}
		return s.auditStore.Log(ctx, tx, userID, "list", "nft", nftID, "{}")
	})
}

func (s *MarketService) Unlist(ctx context.Context, userID, nftID string) error {
	reserved, err := s.sessionStore.HasActiveForNFT(ctx, nftID)
	if err != nil {
		return err
	}
	if reserved {
		return ErrTokenReserved
	}
	return s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		nft, err := s.nftStore.GetForUpdate(ctx, tx, nftID)
		if err != nil {
			return err
		}
		if nft.OwnerID != userID {
			return ErrNotOwner
		}
		if !nft.IsListed {
			return ErrNotListed
		}
		if err := s.nftStore.SetListing(ctx, tx, nftID, false, nil); err != nil {
			return err
		}
		if err := s.collectionStore.AdjustListedCount(ctx, tx, nft.CollectionID, -1); err != nil {
			return err
		}
		return s.auditStore.Log(ctx, tx, userID, "unlist", "nft", nftID, "{}")
	})
}

// Buy executes a fixed price sale in a single transaction: the buyer is
// debited the full price, the platform fee and creator royalty are carved out
// and the seller receives the remainder.
func (s *MarketService) Buy(ctx context.Context, buyerID, nftID string) (string, error) {
	var transactionID string
	balances := map[string]int64{}
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		nft, err := s.nftStore.GetForUpdate(ctx, tx, nftID)
		if err != nil {
			return err
		}
		if !nft.IsListed || nft.ListPrice == nil {
			return ErrNotListed
		}
		if nft.OwnerID == buyerID {
			return ErrOwnToken
		}
		reserved, err := s.sessionStore.HasActiveForNFT(ctx, nftID)
		if err != nil {
			return err
		}
		if reserved {
			return ErrTokenReserved
		}
		transactionID, balances, err = s.executeSale(ctx, tx, nft, buyerID, *nft.ListPrice, "buy")
		return err
	})
	if err != nil {
		return "", err
	}
	s.broadcastBalances(balances)
	return transactionID, nil
}

// CreateSession reserves a listed token for the buyer at its current price.
func (s *MarketService) CreateSession(ctx context.Context, buyerID, nftID string) (models.PurchaseSession, error) {
	nft, err := s.nftStore.GetByID(ctx, nftID)
	if err != nil {
		return models.PurchaseSession{}, err
	}
	if !nft.IsListed || nft.ListPrice == nil {
		return models.PurchaseSession{}, ErrNotListed
	}
	if nft.OwnerID == buyerID {
		return models.PurchaseSession{}, ErrOwnToken
	}
	reserved, err := s.sessionStore.HasActiveForNFT(ctx, nft.ID)
	if err != nil {
		return models.PurchaseSession{}, err
	}
	if reserved {
		return models.PurchaseSession{}, ErrTokenReserved
	}
	session := models.PurchaseSession{
		ID:        uuid.NewString(),
		NFTID:     nft.ID,
		BuyerID:   buyerID,
		Price:     *nft.ListPrice,
		ExpiresAt: s.now().Add(sessionTTL).UTC(),
	}
	if err := s.sessionStore.Create(ctx, store.PurchaseSessionInput{
		ID:        session.ID,
		NFTID:     session.NFTID,
		BuyerID:   session.BuyerID,
		Price:     session.Price,
		ExpiresAt: session.ExpiresAt,
	}); err != nil {
		return models.PurchaseSession{}, err
	}
	return session, nil
}

func (s *MarketService) GetSession(ctx context.Context, buyerID, sessionID string) (models.PurchaseSession, error) {
	session, err := s.sessionStore.GetByID(ctx, sessionID)
	if err != nil {
		return models.PurchaseSession{}, err
	}
	if session.BuyerID != buyerID {
		return models.PurchaseSession{}, ErrSessionForbidden
	}
	return session, nil
}

// ConfirmSession completes the reserved purchase at the price captured when
// the session was opened. The consume guard decides winner under concurrency.
func (s *MarketService) ConfirmSession(ctx context.Context, buyerID, sessionID string) (string, error) {
	session, err := s.sessionStore.GetByID(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if session.BuyerID != buyerID {
		return "", ErrSessionForbidden
	}
	if session.ConsumedAt != nil {
		return "", ErrSessionConsumed
	}
	if session.Expired(s.now()) {
		return "", ErrSessionExpired
	}
	var transactionID string
	balances := map[string]int64{}
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		consumed, err := s.sessionStore.Consume(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		if consumed == 0 {
			return ErrSessionConsumed
		}
		nft, err := s.nftStore.GetForUpdate(ctx, tx, session.NFTID)
		if err != nil {
			return err
		}
		if !nft.IsListed {
			return ErrNotListed
		}
		if nft.OwnerID == buyerID {
			return ErrOwnToken
		}
		transactionID, balances, err = s.executeSale(ctx, tx, nft, buyerID, session.Price, "session")
		return err
	})
	if err != nil {
		return "", err
	}
	s.broadcastBalances(balances)
	return transactionID, nil
}

type CreateAuctionRequest struct {
	SellerID     string
	NFTID        string
	Type         models.AuctionType
	StartPrice   int64
	ReservePrice *int64
	BuyNowPrice  *int64
	StartTime    time.Time
	EndTime      time.Time
}

func (s *MarketService) CreateAuction(ctx context.Context, req CreateAuctionRequest) (string, error) {
	if req.StartPrice <= 0 {
		return "", ErrInvalidAmount
	}
	if !req.EndTime.After(req.StartTime) {
		return "", ErrInvalidAuctionTime
	}
	switch req.Type {
	case models.AuctionReserve:
		if req.ReservePrice == nil || *req.ReservePrice < req.StartPrice {
			return "", ErrMissingReserve
		}
	case models.AuctionBuyNow:
		if req.BuyNowPrice == nil || *req.BuyNowPrice < req.StartPrice {
			return "", ErrMissingBuyNow
		}
	}
	auctionID := uuid.NewString()
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		nft, err := s.nftStore.GetForUpdate(ctx, tx, req.NFTID)
		if err != nil {
			return err
		}
		if nft.OwnerID != req.SellerID {
			return ErrNotOwner
		}
		if nft.IsListed {
			return ErrAlreadyListed
		}
		if _, err := s.auctionStore.GetActiveByNFT(ctx, req.NFTID); err == nil {
			return ErrTokenOnAuction
		}
		status := models.AuctionUpcoming
		if !s.now().Before(req.StartTime) {
			status = models.AuctionLive
		}
		if err := s.auctionStore.Create(ctx, tx, store.AuctionInput{
			ID:           auctionID,
			NFTID:        req.NFTID,
			SellerID:     req.SellerID,
			Type:         req.Type,
			Status:       status,
			StartPrice:   req.StartPrice,
			ReservePrice: req.ReservePrice,
			BuyNowPrice:  req.BuyNowPrice,
			StartTime:    req.StartTime.UTC(),
			EndTime:      req.EndTime.UTC(),
		}); err != nil {
			return err
		}
		return s.auditStore.Log(ctx, tx, req.SellerID, "auction_create", "auction", auctionID, "{}")
	})
	if err != nil {
		return "", err
	}
	return auctionID, nil
}

type UpdateAuctionRequest struct {
	SellerID     string
	AuctionID    string
	StartPrice   int64
	ReservePrice *int64
	BuyNowPrice  *int64
	StartTime    time.Time
	EndTime      time.Time
}

func (s *MarketService) UpdateAuction(ctx context.Context, req UpdateAuctionRequest) error {
	if req.StartPrice <= 0 {
		return ErrInvalidAmount
	}
	if !req.EndTime.After(req.StartTime) {
		return ErrInvalidAuctionTime
	}
	return s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		auction, err := s.auctionStore.GetForUpdate(ctx, tx, req.AuctionID)
		if err != nil {
			return err
		}
		if auction.SellerID != req.SellerID {
			return ErrNotSeller
		}
		count, err := s.auctionStore.CountBids(ctx, req.AuctionID)
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrAuctionHasBids
		}
		rows, err := s.auctionStore.Update(ctx, tx, req.AuctionID, req.StartPrice, req.ReservePrice, req.BuyNowPrice, req.StartTime.UTC(), req.EndTime.UTC())
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrAuctionCompleted
		}
		return s.auditStore.Log(ctx, tx, req.SellerID, "auction_update", "auction", req.AuctionID, "{}")
	})
}

func (s *MarketService) DeleteAuction(ctx context.Context, sellerID, auctionID string) error {
	return s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		auction, err := s.auctionStore.GetForUpdate(ctx, tx, auctionID)
		if err != nil {
			return err
		}
		if auction.SellerID != sellerID {
			return ErrNotSeller
		}
		count, err := s.auctionStore.CountBids(ctx, auctionID)
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrAuctionHasBids
		}
		if _, err := s.auctionStore.Delete(ctx, tx, auctionID); err != nil {
			return err
		}
		return s.auditStore.Log(ctx, tx, sellerID, "auction_delete", "auction", auctionID, "{}")
	})
}

type PlaceBidRequest struct {
	AuctionID string
	BidderID  string
	Amount    int64
}

func (s *MarketService) PlaceBid(ctx context.Context, req PlaceBidRequest) (string, error) {
	if req.Amount <= 0 {
		return "", ErrInvalidAmount
	}
	bidID := uuid.NewString()
	var bidders int
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		auction, err := s.auctionStore.GetForUpdate(ctx, tx, req.AuctionID)
		if err != nil {
			return err
		}
		if auction.SellerID == req.BidderID {
			return ErrSellerBid
		}
		if auction.EffectiveStatus(s.now()) != models.AuctionLive {
			return ErrAuctionNotLive
		}
		if req.Amount < auction.StartPrice {
			return ErrBidTooLow
		}
		bids, err := s.auctionStore.ListBidsForUpdate(ctx, tx, req.AuctionID)
		if err != nil {
			return err
		}
		if auction.Type != models.AuctionLottery {
			if highest := highestBid(bids); highest != nil && req.Amount <= highest.Amount {
				return ErrBidTooLow
			}
		}
		added, err := s.auctionStore.IncrementBidders(ctx, tx, req.AuctionID, req.BidderID)
		if err != nil {
			return err
		}
		bidders = auction.Bidders + int(added)
		return s.auctionStore.InsertBid(ctx, tx, bidID, req.AuctionID, req.BidderID, req.Amount)
	})
	if err != nil {
		return "", err
	}
	s.hub.BroadcastBid(req.AuctionID, websocket.BidUpdate{
		AuctionID: req.AuctionID,
		BidderID:  req.BidderID,
		Amount:    money.FormatMinor(req.Amount),
		Bidders:   bidders,
	})
	return bidID, nil
}

type SettlementResult struct {
	AuctionID     string  `json:"auction_id"`
	WinnerID      *string `json:"winner_id,omitempty"`
	Price         int64   `json:"price"`
	TransactionID string  `json:"transaction_id,omitempty"`
}

// CompleteAuction settles an ended auction: the winner is picked per auction
// type, charged, and the token transferred, all in one transaction. With no
// qualifying winner the auction just closes.
func (s *MarketService) CompleteAuction(ctx context.Context, actorID, auctionID string) (SettlementResult, error) {
	return s.complete(ctx, actorID, auctionID, true)
}

// CompleteAuctionAsAdmin settles on behalf of the seller.
func (s *MarketService) CompleteAuctionAsAdmin(ctx context.Context, actorID, auctionID string) (SettlementResult, error) {
	return s.complete(ctx, actorID, auctionID, false)
}

func (s *MarketService) complete(ctx context.Context, actorID, auctionID string, requireSeller bool) (SettlementResult, error) {
	result := SettlementResult{AuctionID: auctionID}
	balances := map[string]int64{}
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		auction, err := s.auctionStore.GetForUpdate(ctx, tx, auctionID)
		if err != nil {
			return err
		}
		if requireSeller && auction.SellerID != actorID {
			return ErrNotSeller
		}
		if auction.Status == models.AuctionEnded {
			return ErrAuctionCompleted
		}
		bids, err := s.auctionStore.ListBidsForUpdate(ctx, tx, auctionID)
		if err != nil {
			return err
		}
		now := s.now()
		if now.Before(auction.EndTime) && !buyNowReached(auction, bids) {
			return ErrAuctionNotEnded
		}

		winner := pickWinner(auction, bids, s.lotteryPick)
		if winner == nil {
			rows, err := s.auctionStore.MarkEnded(ctx, tx, auctionID, nil)
			if err != nil {
				return err
			}
			if rows == 0 {
				return ErrAuctionCompleted
			}
			return s.auditStore.Log(ctx, tx, actorID, "auction_complete", "auction", auctionID, "{}")
		}

		nft, err := s.nftStore.GetForUpdate(ctx, tx, auction.NFTID)
		if err != nil {
			return err
		}
		result.WinnerID = &winner.BidderID
		result.Price = winner.Amount
		result.TransactionID, balances, err = s.executeSale(ctx, tx, nft, winner.BidderID, winner.Amount, "auction")
		if err != nil {
			return err
		}
		rows, err := s.auctionStore.MarkEnded(ctx, tx, auctionID, &winner.BidderID)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrAuctionCompleted
		}
		data, _ := json.Marshal(map[string]any{
			"winner_id": winner.BidderID,
			"price":     winner.Amount,
		})
		return s.auditStore.Log(ctx, tx, actorID, "auction_complete", "auction", auctionID, string(data))
	})
	if err != nil {
		return SettlementResult{}, err
	}
	s.broadcastBalances(balances)
	return result, nil
}

// highestBid returns the winning candidate among bids ordered oldest first.
// Strict comparison keeps the earliest bid on ties.
func highestBid(bids []models.Bid) *models.Bid {
	var best *models.Bid
	for i := range bids {
		if best == nil || bids[i].Amount > best.Amount {
			best = &bids[i]
		}
	}
	return best
}

func buyNowReached(auction models.Auction, bids []models.Bid) bool {
	if auction.Type != models.AuctionBuyNow || auction.BuyNowPrice == nil {
		return false
	}
	for _, bid := range bids {
		if bid.Amount >= *auction.BuyNowPrice {
			return true
		}
	}
	return false
}

func pickWinner(auction models.Auction, bids []models.Bid, lotteryPick func(n int) int) *models.Bid {
	if len(bids) == 0 {
		return nil
	}
	switch auction.Type {
	case models.AuctionReserve:
		best := highestBid(bids)
		if auction.ReservePrice != nil && best.Amount < *auction.ReservePrice {
			return nil
		}
		return best
	case models.AuctionBuyNow:
		if auction.BuyNowPrice == nil {
			return nil
		}
		for i := range bids {
			if bids[i].Amount >= *auction.BuyNowPrice {
				return &bids[i]
			}
		}
		return nil
	case models.AuctionLottery:
		entries := firstBidPerBidder(bids)
		return entries[lotteryPick(len(entries))]
	default:
		return highestBid(bids)
	}
}

// firstBidPerBidder keeps each bidder's earliest bid, in first-seen order.
func firstBidPerBidder(bids []models.Bid) []*models.Bid {
	seen := map[string]bool{}
	var entries []*models.Bid
	for i := range bids {
		if seen[bids[i].BidderID] {
			continue
		}
		seen[bids[i].BidderID] = true
		entries = append(entries, &bids[i])
	}
	return entries
}

// executeSale moves money and ownership for a sale of nft to buyerID at
// price. Callers hold the NFT row lock. Returned balances are post-sale, keyed
// by user, for websocket pushes after commit.
func (s *MarketService) executeSale(ctx context.Context, tx *sqlx.Tx, nft models.NFT, buyerID string, price int64, kind string) (string, map[string]int64, error) {
	collection, err := s.collectionStore.GetByID(ctx, nft.CollectionID)
	if err != nil {
		return "", nil, err
	}
	fee := applyRate(price, platformFeeRate)
	royalty := applyRate(price, decimal.NewFromFloat(collection.RoyaltyPercentage).Div(decimal.NewFromInt(100)))
	proceeds := price - fee - royalty

	deltas := map[string]int64{}
	deltas[buyerID] -= price
	deltas[nft.OwnerID] += proceeds
	deltas[collection.CreatorID] += royalty

	users, err := lockUsers(ctx, tx, s.userStore, buyerID, nft.OwnerID, collection.CreatorID)
	if err != nil {
		return "", nil, err
	}
	if users[buyerID].WalletBalance < price {
		return "", nil, ErrInsufficientFunds
	}
	balances := map[string]int64{}
	for _, id := range sortedKeys(deltas) {
		next := users[id].WalletBalance + deltas[id]
		if next < 0 {
			return "", nil, ErrInsufficientFunds
		}
		if err := s.userStore.UpdateBalance(ctx, tx, id, next); err != nil {
			return "", nil, err
		}
		balances[id] = next
	}

	if err := s.nftStore.TransferOwner(ctx, tx, nft.ID, buyerID); err != nil {
		return "", nil, err
	}
	if nft.IsListed {
		if err := s.collectionStore.AdjustListedCount(ctx, tx, nft.CollectionID, -1); err != nil {
			return "", nil, err
		}
	}
	if err := s.collectionStore.AddVolume(ctx, tx, nft.CollectionID, price); err != nil {
		return "", nil, err
	}

	transactionID := uuid.NewString()
	metadata, _ := json.Marshal(map[string]any{
		"kind":         kind,
		"platform_fee": fee,
		"royalty":      royalty,
	})
	sellerID := nft.OwnerID
	if err := s.txStore.Create(ctx, tx, store.TransactionInput{
		ID:             transactionID,
		UserID:         buyerID,
		Type:           models.TxSale,
		Status:         "completed",
		Amount:         price,
		NFTID:          &nft.ID,
		CounterpartyID: &sellerID,
		Metadata:       string(metadata),
	}); err != nil {
		return "", nil, err
	}
	if err := s.auditStore.Log(ctx, tx, buyerID, "sale", "nft", nft.ID, string(metadata)); err != nil {
		return "", nil, err
	}
	return transactionID, balances, nil
}

func (s *MarketService) broadcastBalances(balances map[string]int64) {
	for userID, balance := range balances {
		s.hub.BroadcastBalance(userID, websocket.BalanceUpdate{
			UserID:  userID,
			Balance: money.FormatMinor(balance),
		})
	}
}

func applyRate(amount int64, rate decimal.Decimal) int64 {
	return decimal.NewFromInt(amount).Mul(rate).RoundBank(0).IntPart()
}

// lockUsers locks the distinct user rows in sorted id order so concurrent
// sales touching the same users cannot deadlock.
func lockUsers(ctx context.Context, tx store.Getter, userStore UserStore, ids ...string) (map[string]models.User, error) {
	seen := map[string]bool{}
	var ordered []string
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			ordered = append(ordered, id)
		}
	}
	sort.Strings(ordered)
	users := make(map[string]models.User, len(ordered))
	for _, id := range ordered {
		user, err := userStore.GetForUpdate(ctx, tx, id)
		if err != nil {
			return nil, err
		}
		users[id] = user
	}
	return users, nil
}

func sortedKeys(deltas map[string]int64) []string {
	keys := make([]string, 0, len(deltas))
	for key := range deltas {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
