package services

import (
	"context"
	"encoding/json"
	"errors"

	"nftmarket/internal/db"
	"nftmarket/internal/models"
	"nftmarket/internal/money"
	"nftmarket/internal/store"
	"nftmarket/internal/websocket"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

var (
	ErrAlreadyReviewed        = errors.New("request already reviewed")
	ErrAddressNotWhitelisted  = errors.New("address is not whitelisted")
	ErrNoDepositWallets       = errors.New("no deposit wallets provisioned")
	ErrMasterKeyNotConfigured = errors.New("wallet master key not configured")
)

const depositWalletCount = 16

type WalletService struct {
	txRunner        db.TxRunner
	userStore       UserStore
	depositStore    DepositStore
	withdrawalStore WithdrawalStore
	whitelistStore  WhitelistStore
	walletStore     PlatformWalletStore
	txStore         TransactionStore
	auditStore      AuditStore
	mailer          Mailer
	hub             BalanceHub

	masterKey string
	network   string
}

type DepositStore interface {
	Create(ctx context.Context, tx store.Execer, input store.DepositInput) error
	GetByID(ctx context.Context, id string) (models.DepositRequest, error)
	Review(ctx context.Context, tx store.Execer, id string, status models.RequestStatus, reviewerID string) (int64, error)
}

type WithdrawalStore interface {
	Create(ctx context.Context, tx store.Execer, input store.WithdrawalInput) error
	GetForUpdate(ctx context.Context, tx store.Getter, id string) (models.WithdrawalRequest, error)
	Review(ctx context.Context, tx store.Execer, id string, status models.RequestStatus, reviewerID string) (int64, error)
}

type WhitelistStore interface {
	Exists(ctx context.Context, userID, address, network string) (bool, error)
}

type PlatformWalletStore interface {
	Create(ctx context.Context, id string, derivationIndex int, address string) error
	NextForDeposit(ctx context.Context, tx store.Tx) (models.PlatformWallet, error)
	Count(ctx context.Context) (int, error)
}

type Mailer interface {
	SendWithdrawalRequested(to, amount string) error
	SendWithdrawalReviewed(to, amount string, completed bool) error
	SendDepositReviewed(to, amount string, approved bool) error
}

type BalanceHub interface {
	BroadcastBalance(userID string, update websocket.BalanceUpdate)
}

func NewWalletService(txRunner db.TxRunner, userStore UserStore, depositStore DepositStore, withdrawalStore WithdrawalStore, whitelistStore WhitelistStore, walletStore PlatformWalletStore, txStore TransactionStore, auditStore AuditStore, mailer Mailer, hub BalanceHub, masterKey, network string) *WalletService {
	return &WalletService{
		txRunner:        txRunner,
		userStore:       userStore,
		depositStore:    depositStore,
		withdrawalStore: withdrawalStore,
		whitelistStore:  whitelistStore,
		walletStore:     walletStore,
		txStore:         txStore,
		auditStore:      auditStore,
		mailer:          mailer,
		hub:             hub,
		masterKey:       masterKey,
		network:         network,
	}
}

// EnsureDepositWallets derives the deposit address pool from the master key
// and provisions any missing rows. Safe to call on every startup.
func (s *WalletService) EnsureDepositWallets(ctx context.Context) error {
	count, err := s.walletStore.Count(ctx)
	if err != nil {
		return err
	}
	for index := count; index < depositWalletCount; index++ {
		address, err := DeriveDepositAddress(s.masterKey, uint32(index), s.network)
		if err != nil {
			return err
		}
		if err := s.walletStore.Create(ctx, uuid.NewString(), index, address); err != nil {
			return err
		}
	}
	return nil
}

// DeriveDepositAddress derives the child address at index from the extended
// master key.
func DeriveDepositAddress(masterKey string, index uint32, network string) (string, error) {
	if masterKey == "" {
		return "", ErrMasterKeyNotConfigured
	}
	key, err := hdkeychain.NewKeyFromString(masterKey)
	if err != nil {
		return "", err
	}
	child, err := key.Derive(index)
	if err != nil {
		return "", err
	}
	address, err := child.Address(netParams(network))
	if err != nil {
		return "", err
	}
	return address.EncodeAddress(), nil
}

func netParams(network string) *chaincfg.Params {
	if network == "mainnet" {
		return &chaincfg.MainNetParams
	}
	return &chaincfg.TestNet3Params
}

type DepositRequestInput struct {
	UserID string
	Amount int64
	TxHash *string
}

// RequestDeposit assigns the least-loaded deposit address to the user and
// records a pending request for admin review.
func (s *WalletService) RequestDeposit(ctx context.Context, req DepositRequestInput) (models.DepositRequest, error) {
	if req.Amount <= 0 {
		return models.DepositRequest{}, ErrInvalidAmount
	}
	depositID := uuid.NewString()
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		wallet, err := s.walletStore.NextForDeposit(ctx, tx)
		if err != nil {
			return ErrNoDepositWallets
		}
		if err := s.depositStore.Create(ctx, tx, store.DepositInput{
			ID:             depositID,
			UserID:         req.UserID,
			Amount:         req.Amount,
			Network:        s.network,
			TxHash:         req.TxHash,
			DepositAddress: wallet.Address,
		}); err != nil {
			return err
		}
		return s.auditStore.Log(ctx, tx, req.UserID, "deposit_request", "deposit", depositID, "{}")
	})
	if err != nil {
		return models.DepositRequest{}, err
	}
	return s.depositStore.GetByID(ctx, depositID)
}

// ReviewDeposit approves or rejects a pending deposit. Approval credits the
// user inside the same transaction; the pending guard makes repeats no-ops.
func (s *WalletService) ReviewDeposit(ctx context.Context, adminID, depositID string, approve bool) error {
	deposit, err := s.depositStore.GetByID(ctx, depositID)
	if err != nil {
		return err
	}
	status := models.RequestRejected
	if approve {
		status = models.RequestApproved
	}
	var balance int64
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		rows, err := s.depositStore.Review(ctx, tx, depositID, status, adminID)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrAlreadyReviewed
		}
		if approve {
			user, err := s.userStore.GetForUpdate(ctx, tx, deposit.UserID)
			if err != nil {
				return err
			}
			balance = user.WalletBalance + deposit.Amount
			if err := s.userStore.UpdateBalance(ctx, tx, deposit.UserID, balance); err != nil {
				return err
			}
			network := deposit.Network
			if err := s.txStore.Create(ctx, tx, store.TransactionInput{
				ID:       uuid.NewString(),
				UserID:   deposit.UserID,
				Type:     models.TxDeposit,
				Status:   "completed",
				Amount:   deposit.Amount,
				TxHash:   deposit.TxHash,
				Network:  &network,
				Metadata: "{}",
			}); err != nil {
				return err
			}
		}
		data, _ := json.Marshal(map[string]any{"status": status})
		return s.auditStore.Log(ctx, tx, adminID, "deposit_review", "deposit", depositID, string(data))
	})
	if err != nil {
		return err
	}
	if approve {
		s.hub.BroadcastBalance(deposit.UserID, websocket.BalanceUpdate{
			UserID:  deposit.UserID,
			Balance: money.FormatMinor(balance),
		})
	}
	s.notifyDeposit(ctx, deposit, approve)
	return nil
}

type WithdrawalRequestInput struct {
	UserID  string
	Amount  int64
	Address string
	Network string
}

// RequestWithdrawal debits the balance up front so the funds cannot be spent
// while the request waits for review. Rejection refunds.
func (s *WalletService) RequestWithdrawal(ctx context.Context, req WithdrawalRequestInput) (string, error) {
	if req.Amount <= 0 {
		return "", ErrInvalidAmount
	}
	whitelisted, err := s.whitelistStore.Exists(ctx, req.UserID, req.Address, req.Network)
	if err != nil {
		return "", err
	}
	if !whitelisted {
		return "", ErrAddressNotWhitelisted
	}
	withdrawalID := uuid.NewString()
	var balance int64
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		user, err := s.userStore.GetForUpdate(ctx, tx, req.UserID)
		if err != nil {
			return err
		}
		if user.WalletBalance < req.Amount {
			return ErrInsufficientFunds
		}
		balance = user.WalletBalance - req.Amount
		if err := s.userStore.UpdateBalance(ctx, tx, req.UserID, balance); err != nil {
			return err
		}
		if err := s.withdrawalStore.Create(ctx, tx, store.WithdrawalInput{
			ID:      withdrawalID,
			UserID:  req.UserID,
			Amount:  req.Amount,
			Address: req.Address,
			Network: req.Network,
		}); err != nil {
			return err
		}
		return s.auditStore.Log(ctx, tx, req.UserID, "withdrawal_request", "withdrawal", withdrawalID, "{}")
	})
	if err != nil {
		return "", err
	}
	s.hub.BroadcastBalance(req.UserID, websocket.BalanceUpdate{
		UserID:  req.UserID,
		Balance: money.FormatMinor(balance),
	})
	if user, err := s.userStore.GetByID(ctx, req.UserID); err == nil {
		if err := s.mailer.SendWithdrawalRequested(user.Email, money.FormatMinor(req.Amount)); err != nil {
			logrus.WithError(err).Warn("withdrawal request email failed")
		}
	}
	return withdrawalID, nil
}

// ReviewWithdrawal completes or rejects a pending withdrawal. The balance was
// already debited at request time, so completion only records the payout and
// rejection puts the money back.
func (s *WalletService) ReviewWithdrawal(ctx context.Context, adminID, withdrawalID string, complete bool, txHash *string) error {
	var withdrawal models.WithdrawalRequest
	var balance int64
	status := models.RequestRejected
	if complete {
		status = models.RequestCompleted
	}
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		withdrawal, err = s.withdrawalStore.GetForUpdate(ctx, tx, withdrawalID)
		if err != nil {
			return err
		}
		rows, err := s.withdrawalStore.Review(ctx, tx, withdrawalID, status, adminID)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrAlreadyReviewed
		}
		if complete {
			network := withdrawal.Network
			if err := s.txStore.Create(ctx, tx, store.TransactionInput{
				ID:       uuid.NewString(),
				UserID:   withdrawal.UserID,
				Type:     models.TxWithdrawal,
				Status:   "completed",
				Amount:   withdrawal.Amount,
				TxHash:   txHash,
				Network:  &network,
				Metadata: "{}",
			}); err != nil {
				return err
			}
		} else {
			user, err := s.userStore.GetForUpdate(ctx, tx, withdrawal.UserID)
			if err != nil {
				return err
			}
			balance = user.WalletBalance + withdrawal.Amount
			if err := s.userStore.UpdateBalance(ctx, tx, withdrawal.UserID, balance); err != nil {
				return err
			}
		}
		data, _ := json.Marshal(map[string]any{"status": status})
		return s.auditStore.Log(ctx, tx, adminID, "withdrawal_review", "withdrawal", withdrawalID, string(data))
	})
	if err != nil {
		return err
	}
	if !complete {
		s.hub.BroadcastBalance(withdrawal.UserID, websocket.BalanceUpdate{
			UserID:  withdrawal.UserID,
			Balance: money.FormatMinor(balance),
		})
	}
	if user, err := s.userStore.GetByID(ctx, withdrawal.UserID); err == nil {
		if err := s.mailer.SendWithdrawalReviewed(user.Email, money.FormatMinor(withdrawal.Amount), complete); err != nil {
			logrus.WithError(err).Warn("withdrawal review email failed")
		}
	}
	return nil
}

func (s *WalletService) notifyDeposit(ctx context.Context, deposit models.DepositRequest, approved bool) {
	user, err := s.userStore.GetByID(ctx, deposit.UserID)
	if err != nil {
		return
	}
	if err := s.mailer.SendDepositReviewed(user.Email, money.FormatMinor(deposit.Amount), approved); err != nil {
		logrus.WithError(err).Warn("deposit review email failed")
	}
}
