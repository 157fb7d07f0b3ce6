package models

import "time"

type Role string

const (
	RoleUser       Role = "USER"
	RoleAdmin      Role = "ADMIN"
	RoleSuperAdmin Role = "SUPERADMIN"
)

type AuctionType string

const (
	AuctionStandard AuctionType = "STANDARD"
	AuctionReserve  AuctionType = "RESERVE"
	AuctionTimed    AuctionType = "TIMED"
	AuctionLottery  AuctionType = "LOTTERY"
	AuctionBuyNow   AuctionType = "BUY_NOW"
)

type AuctionStatus string

const (
	AuctionUpcoming AuctionStatus = "upcoming"
	AuctionLive     AuctionStatus = "live"
	AuctionEnded    AuctionStatus = "ended"
)

type TransactionType string

const (
	TxMint       TransactionType = "mint"
	TxList       TransactionType = "list"
	TxSale       TransactionType = "sale"
	TxDeposit    TransactionType = "deposit"
	TxWithdrawal TransactionType = "withdrawal"
)

type RequestStatus string

const (
	RequestPending   RequestStatus = "pending"
	RequestApproved  RequestStatus = "approved"
	RequestCompleted RequestStatus = "completed"
	RequestRejected  RequestStatus = "rejected"
)

type User struct {
	ID            string    `db:"id" json:"id"`
	Username      string    `db:"username" json:"username"`
	Email         string    `db:"email" json:"email"`
	PasswordHash  string    `db:"password_hash" json:"-"`
	Role          Role      `db:"role" json:"role"`
	WalletBalance int64     `db:"wallet_balance" json:"wallet_balance"`
	EmailVerified bool      `db:"email_verified" json:"email_verified"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

type Collection struct {
	ID                string    `db:"id" json:"id"`
	CreatorID         string    `db:"creator_id" json:"creator_id"`
	Name              string    `db:"name" json:"name"`
	Description       string    `db:"description" json:"description"`
	ImageURL          string    `db:"image_url" json:"image_url"`
	RoyaltyPercentage float64   `db:"royalty_percentage" json:"royalty_percentage"`
	ListedCount       int       `db:"listed_count" json:"listed_count"`
	Volume            int64     `db:"volume" json:"volume"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
}

type NFT struct {
	ID           string    `db:"id" json:"id"`
	CollectionID string    `db:"collection_id" json:"collection_id"`
	OwnerID      string    `db:"owner_id" json:"owner_id"`
	Name         string    `db:"name" json:"name"`
	Description  string    `db:"description" json:"description"`
	ImageURL     string    `db:"image_url" json:"image_url"`
	TokenURI     string    `db:"token_uri" json:"token_uri"`
	IsListed     bool      `db:"is_listed" json:"is_listed"`
	ListPrice    *int64    `db:"list_price" json:"list_price,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

type Auction struct {
	ID           string        `db:"id" json:"id"`
	NFTID        string        `db:"nft_id" json:"nft_id"`
	SellerID     string        `db:"seller_id" json:"seller_id"`
	Type         AuctionType   `db:"type" json:"type"`
	Status       AuctionStatus `db:"status" json:"status"`
	StartPrice   int64         `db:"start_price" json:"start_price"`
	ReservePrice *int64        `db:"reserve_price" json:"reserve_price,omitempty"`
	BuyNowPrice  *int64        `db:"buy_now_price" json:"buy_now_price,omitempty"`
	StartTime    time.Time     `db:"start_time" json:"start_time"`
	EndTime      time.Time     `db:"end_time" json:"end_time"`
	Bidders      int           `db:"bidders" json:"bidders"`
	WinnerID     *string       `db:"winner_id" json:"winner_id,omitempty"`
	CreatedAt    time.Time     `db:"created_at" json:"created_at"`
}

// EffectiveStatus derives the wall-clock status. The stored status only moves
// on explicit writes, so reads report both.
func (a Auction) EffectiveStatus(now time.Time) AuctionStatus {
	if a.Status == AuctionEnded {
		return AuctionEnded
	}
	if now.Before(a.StartTime) {
		return AuctionUpcoming
	}
	if now.Before(a.EndTime) {
		return AuctionLive
	}
	return AuctionEnded
}

type Bid struct {
	ID        string    `db:"id" json:"id"`
	AuctionID string    `db:"auction_id" json:"auction_id"`
	BidderID  string    `db:"bidder_id" json:"bidder_id"`
	Amount    int64     `db:"amount" json:"amount"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type Transaction struct {
	ID             string          `db:"id" json:"id"`
	UserID         string          `db:"user_id" json:"user_id"`
	Type           TransactionType `db:"type" json:"type"`
	Status         string          `db:"status" json:"status"`
	Amount         int64           `db:"amount" json:"amount"`
	NFTID          *string         `db:"nft_id" json:"nft_id,omitempty"`
	CounterpartyID *string         `db:"counterparty_id" json:"counterparty_id,omitempty"`
	TxHash         *string         `db:"tx_hash" json:"tx_hash,omitempty"`
	Network        *string         `db:"network" json:"network,omitempty"`
	Metadata       string          `db:"metadata" json:"metadata"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
}

type DepositRequest struct {
	ID             string        `db:"id" json:"id"`
	UserID         string        `db:"user_id" json:"user_id"`
	Amount         int64         `db:"amount" json:"amount"`
	Network        string        `db:"network" json:"network"`
	TxHash         *string       `db:"tx_hash" json:"tx_hash,omitempty"`
	DepositAddress string        `db:"deposit_address" json:"deposit_address"`
	Status         RequestStatus `db:"status" json:"status"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
	ReviewedAt     *time.Time    `db:"reviewed_at" json:"reviewed_at,omitempty"`
	ReviewedBy     *string       `db:"reviewed_by" json:"reviewed_by,omitempty"`
}

type WithdrawalRequest struct {
	ID         string        `db:"id" json:"id"`
	UserID     string        `db:"user_id" json:"user_id"`
	Amount     int64         `db:"amount" json:"amount"`
	Address    string        `db:"address" json:"address"`
	Network    string        `db:"network" json:"network"`
	Status     RequestStatus `db:"status" json:"status"`
	CreatedAt  time.Time     `db:"created_at" json:"created_at"`
	ReviewedAt *time.Time    `db:"reviewed_at" json:"reviewed_at,omitempty"`
	ReviewedBy *string       `db:"reviewed_by" json:"reviewed_by,omitempty"`
}

type PurchaseSession struct {
	ID         string     `db:"id" json:"id"`
	NFTID      string     `db:"nft_id" json:"nft_id"`
	BuyerID    string     `db:"buyer_id" json:"buyer_id"`
	Price      int64      `db:"price" json:"price"`
	ExpiresAt  time.Time  `db:"expires_at" json:"expires_at"`
	ConsumedAt *time.Time `db:"consumed_at" json:"consumed_at,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
}

func (s PurchaseSession) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

type WhitelistedAddress struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Address   string    `db:"address" json:"address"`
	Network   string    `db:"network" json:"network"`
	Label     string    `db:"label" json:"label"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

type PlatformWallet struct {
	ID              string    `db:"id" json:"id"`
	DerivationIndex int       `db:"derivation_index" json:"derivation_index"`
	Address         string    `db:"address" json:"address"`
	AssignedCount   int64     `db:"assigned_count" json:"assigned_count"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

type AuditLog struct {
	ID          string    `db:"id" json:"id"`
	ActorUserID *string   `db:"actor_user_id" json:"actor_user_id,omitempty"`
	Action      string    `db:"action" json:"action"`
	EntityType  string    `db:"entity_type" json:"entity_type"`
	EntityID    string    `db:"entity_id" json:"entity_id"`
	Data        string    `db:"data" json:"data"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

type Exhibition struct {
	ID          string    `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	ImageURL    string    `db:"image_url" json:"image_url"`
	StartDate   time.Time `db:"start_date" json:"start_date"`
	EndDate     time.Time `db:"end_date" json:"end_date"`
	CreatedBy   string    `db:"created_by" json:"created_by"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
