package handlers

import (
	"context"
	"time"

	"nftmarket/internal/models"
	"nftmarket/internal/services"
	"nftmarket/internal/store"
)

type UserStore interface {
	Create(ctx context.Context, tx store.Execer, id, username, email, passwordHash string, role models.Role) error
	GetByEmail(ctx context.Context, email string) (models.User, error)
	GetByID(ctx context.Context, userID string) (models.User, error)
	GetRole(ctx context.Context, userID string) (models.Role, error)
	UpdateRole(ctx context.Context, tx store.Execer, userID string, role models.Role) (int64, error)
	SetEmailVerified(ctx context.Context, userID string) error
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	List(ctx context.Context, limit, offset int) ([]models.User, error)
	Search(ctx context.Context, term string, limit int) ([]models.User, error)
}

type NFTStore interface {
	GetByID(ctx context.Context, id string) (models.NFT, error)
	List(ctx context.Context, filter store.NFTFilter) ([]models.NFT, error)
	Search(ctx context.Context, term string, limit int) ([]models.NFT, error)
}

type CollectionStore interface {
	Create(ctx context.Context, tx store.Execer, input store.CollectionInput) error
	Update(ctx context.Context, tx store.Execer, id, name, description, imageURL string) (int64, error)
	GetByID(ctx context.Context, id string) (models.Collection, error)
	List(ctx context.Context, creatorID string, limit, offset int) ([]models.Collection, error)
	Search(ctx context.Context, term string, limit int) ([]models.Collection, error)
}

type AuctionStore interface {
	GetByID(ctx context.Context, id string) (models.Auction, error)
	List(ctx context.Context, status models.AuctionStatus, sellerID string, limit, offset int) ([]models.Auction, error)
	ListBids(ctx context.Context, auctionID string) ([]models.Bid, error)
}

type TransactionStore interface {
	ListByUser(ctx context.Context, userID string, txType models.TransactionType, limit, offset int) ([]models.Transaction, error)
	ListAll(ctx context.Context, limit, offset int) ([]models.Transaction, error)
}

type DepositStore interface {
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.DepositRequest, error)
	ListByStatus(ctx context.Context, status models.RequestStatus, limit, offset int) ([]models.DepositRequest, error)
}

type WithdrawalStore interface {
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.WithdrawalRequest, error)
	ListByStatus(ctx context.Context, status models.RequestStatus, limit, offset int) ([]models.WithdrawalRequest, error)
}

type WhitelistStore interface {
	Add(ctx context.Context, id, userID, address, network, label string) error
	Remove(ctx context.Context, id, userID string) (int64, error)
	ListByUser(ctx context.Context, userID string) ([]models.WhitelistedAddress, error)
}

type ExhibitionStore interface {
	Create(ctx context.Context, input store.ExhibitionInput) error
	Update(ctx context.Context, id, title, description, imageURL string, startDate, endDate time.Time) (int64, error)
	Delete(ctx context.Context, id string) (int64, error)
	GetByID(ctx context.Context, id string) (models.Exhibition, error)
	List(ctx context.Context, limit, offset int) ([]models.Exhibition, error)
	AddItem(ctx context.Context, exhibitionID, nftID string) error
	RemoveItem(ctx context.Context, exhibitionID, nftID string) (int64, error)
	ListItems(ctx context.Context, exhibitionID string) ([]models.NFT, error)
}

type AuditStore interface {
	Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error
	List(ctx context.Context, limit, offset int) ([]models.AuditLog, error)
}

type MarketService interface {
	Mint(ctx context.Context, req services.MintRequest) (string, error)
	ListForSale(ctx context.Context, userID, nftID string, price int64) error
	Unlist(ctx context.Context, userID, nftID string) error
	Buy(ctx context.Context, buyerID, nftID string) (string, error)
	CreateSession(ctx context.Context, buyerID, nftID string) (models.PurchaseSession, error)
	GetSession(ctx context.Context, buyerID, sessionID string) (models.PurchaseSession, error)
	ConfirmSession(ctx context.Context, buyerID, sessionID string) (string, error)
	CreateAuction(ctx context.Context, req services.CreateAuctionRequest) (string, error)
	UpdateAuction(ctx context.Context, req services.UpdateAuctionRequest) error
	DeleteAuction(ctx context.Context, sellerID, auctionID string) error
	PlaceBid(ctx context.Context, req services.PlaceBidRequest) (string, error)
	CompleteAuction(ctx context.Context, actorID, auctionID string) (services.SettlementResult, error)
	CompleteAuctionAsAdmin(ctx context.Context, actorID, auctionID string) (services.SettlementResult, error)
}

type WalletService interface {
	RequestDeposit(ctx context.Context, req services.DepositRequestInput) (models.DepositRequest, error)
	ReviewDeposit(ctx context.Context, adminID, depositID string, approve bool) error
	RequestWithdrawal(ctx context.Context, req services.WithdrawalRequestInput) (string, error)
	ReviewWithdrawal(ctx context.Context, adminID, withdrawalID string, complete bool, txHash *string) error
}

type EmailService interface {
	SendVerificationCode(ctx context.Context, email string) error
	CheckVerificationCode(ctx context.Context, email, code string) error
	SendPasswordResetCode(ctx context.Context, email string) error
	CheckPasswordResetCode(ctx context.Context, email, code string) error
}
