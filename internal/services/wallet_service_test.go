package services

import (
	"context"
	"errors"
	"testing"

	"nftmarket/internal/models"
	"nftmarket/internal/store"
)

type stubDepositStore struct {
	createFn  func(ctx context.Context, tx store.Execer, input store.DepositInput) error
	getByIDFn func(ctx context.Context, id string) (models.DepositRequest, error)
	reviewFn  func(ctx context.Context, tx store.Execer, id string, status models.RequestStatus, reviewerID string) (int64, error)
}

func (s stubDepositStore) Create(ctx context.Context, tx store.Execer, input store.DepositInput) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, input)
}

func (s stubDepositStore) GetByID(ctx context.Context, id string) (models.DepositRequest, error) {
	if s.getByIDFn == nil {
		return models.DepositRequest{ID: id, UserID: "user", Amount: eth}, nil
	}
	return s.getByIDFn(ctx, id)
}

func (s stubDepositStore) Review(ctx context.Context, tx store.Execer, id string, status models.RequestStatus, reviewerID string) (int64, error) {
	if s.reviewFn == nil {
		return 1, nil
	}
	return s.reviewFn(ctx, tx, id, status, reviewerID)
}

type stubWithdrawalStore struct {
	createFn       func(ctx context.Context, tx store.Execer, input store.WithdrawalInput) error
	getForUpdateFn func(ctx context.Context, tx store.Getter, id string) (models.WithdrawalRequest, error)
	reviewFn       func(ctx context.Context, tx store.Execer, id string, status models.RequestStatus, reviewerID string) (int64, error)
}

func (s stubWithdrawalStore) Create(ctx context.Context, tx store.Execer, input store.WithdrawalInput) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, input)
}

func (s stubWithdrawalStore) GetForUpdate(ctx context.Context, tx store.Getter, id string) (models.WithdrawalRequest, error) {
	if s.getForUpdateFn == nil {
		return models.WithdrawalRequest{ID: id, UserID: "user", Amount: eth}, nil
	}
	return s.getForUpdateFn(ctx, tx, id)
}

func (s stubWithdrawalStore) Review(ctx context.Context, tx store.Execer, id string, status models.RequestStatus, reviewerID string) (int64, error) {
	if s.reviewFn == nil {
		return 1, nil
	}
	return s.reviewFn(ctx, tx, id, status, reviewerID)
}

type stubWhitelistStore struct {
	existsFn func(ctx context.Context, userID, address, network string) (bool, error)
}

func (s stubWhitelistStore) Exists(ctx context.Context, userID, address, network string) (bool, error) {
	if s.existsFn == nil {
		return true, nil
	}
	return s.existsFn(ctx, userID, address, network)
}

type stubPlatformWalletStore struct {
	createFn         func(ctx context.Context, id string, derivationIndex int, address string) error
	nextForDepositFn func(ctx context.Context, tx store.Tx) (models.PlatformWallet, error)
	countFn          func(ctx context.Context) (int, error)
}

func (s stubPlatformWalletStore) Create(ctx context.Context, id string, derivationIndex int, address string) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, id, derivationIndex, address)
}

func (s stubPlatformWalletStore) NextForDeposit(ctx context.Context, tx store.Tx) (models.PlatformWallet, error) {
	if s.nextForDepositFn == nil {
		return models.PlatformWallet{Address: "addr-0"}, nil
	}
	return s.nextForDepositFn(ctx, tx)
}

func (s stubPlatformWalletStore) Count(ctx context.Context) (int, error) {
	if s.countFn == nil {
		return 0, nil
	}
	return s.countFn(ctx)
}

type stubMailer struct {
	requested []string
	reviewed  []bool
	deposits  []bool
}

func (s *stubMailer) SendWithdrawalRequested(_, amount string) error {
	s.requested = append(s.requested, amount)
	return nil
}

func (s *stubMailer) SendWithdrawalReviewed(_, _ string, completed bool) error {
	s.reviewed = append(s.reviewed, completed)
	return nil
}

func (s *stubMailer) SendDepositReviewed(_, _ string, approved bool) error {
	s.deposits = append(s.deposits, approved)
	return nil
}

func newWalletService(users UserStore, deposits DepositStore, withdrawals WithdrawalStore, whitelist WhitelistStore, wallets PlatformWalletStore, mailer Mailer, hub BalanceHub) *WalletService {
	return NewWalletService(fakeTxRunner{}, users, deposits, withdrawals, whitelist, wallets, stubTransactionStore{}, stubAuditStore{}, mailer, hub, "", "testnet")
}

func TestReviewDepositApproveCredits(t *testing.T) {
	var credited int64
	hub := &stubHub{}
	mailer := &stubMailer{}
	service := newWalletService(
		stubUserStore{
			getForUpdateFn: func(_ context.Context, _ store.Getter, userID string) (models.User, error) {
				return models.User{ID: userID, WalletBalance: 2 * eth}, nil
			},
			updateBalanceFn: func(_ context.Context, _ store.Execer, _ string, balance int64) error {
				credited = balance
				return nil
			},
		},
		stubDepositStore{
			getByIDFn: func(_ context.Context, id string) (models.DepositRequest, error) {
				return models.DepositRequest{ID: id, UserID: "user", Amount: 3 * eth}, nil
			},
		},
		stubWithdrawalStore{}, stubWhitelistStore{}, stubPlatformWalletStore{}, mailer, hub,
	)

	if err := service.ReviewDeposit(context.Background(), "admin", "dep-1", true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if credited != 5*eth {
		t.Fatalf("expected balance %d after credit, got %d", 5*eth, credited)
	}
	if len(hub.balances) != 1 {
		t.Fatalf("expected 1 balance broadcast, got %d", len(hub.balances))
	}
	if len(mailer.deposits) != 1 || !mailer.deposits[0] {
		t.Fatalf("expected approval email, got %#v", mailer.deposits)
	}
}

func TestReviewDepositTwiceRejected(t *testing.T) {
	service := newWalletService(
		stubUserStore{},
		stubDepositStore{
			reviewFn: func(context.Context, store.Execer, string, models.RequestStatus, string) (int64, error) {
				return 0, nil
			},
		},
		stubWithdrawalStore{}, stubWhitelistStore{}, stubPlatformWalletStore{}, &stubMailer{}, &stubHub{},
	)
	err := service.ReviewDeposit(context.Background(), "admin", "dep-1", true)
	if err != ErrAlreadyReviewed {
		t.Fatalf("expected ErrAlreadyReviewed, got %v", err)
	}
}

func TestReviewDepositRejectLeavesBalance(t *testing.T) {
	mailer := &stubMailer{}
	service := newWalletService(
		stubUserStore{
			updateBalanceFn: func(context.Context, store.Execer, string, int64) error {
				t.Fatalf("balance must not change on rejection")
				return nil
			},
		},
		stubDepositStore{}, stubWithdrawalStore{}, stubWhitelistStore{}, stubPlatformWalletStore{}, mailer, &stubHub{},
	)
	if err := service.ReviewDeposit(context.Background(), "admin", "dep-1", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mailer.deposits) != 1 || mailer.deposits[0] {
		t.Fatalf("expected rejection email, got %#v", mailer.deposits)
	}
}

func TestRequestWithdrawalDebitsUpFront(t *testing.T) {
	var debited int64
	hub := &stubHub{}
	mailer := &stubMailer{}
	service := newWalletService(
		stubUserStore{
			getForUpdateFn: func(_ context.Context, _ store.Getter, userID string) (models.User, error) {
				return models.User{ID: userID, WalletBalance: 5 * eth}, nil
			},
			updateBalanceFn: func(_ context.Context, _ store.Execer, _ string, balance int64) error {
				debited = balance
				return nil
			},
		},
		stubDepositStore{}, stubWithdrawalStore{}, stubWhitelistStore{}, stubPlatformWalletStore{}, mailer, hub,
	)

	id, err := service.RequestWithdrawal(context.Background(), WithdrawalRequestInput{
		UserID: "user", Amount: 2 * eth, Address: "tb1qexample", Network: "testnet",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id == "" {
		t.Fatalf("expected withdrawal id")
	}
	if debited != 3*eth {
		t.Fatalf("expected balance %d after debit, got %d", 3*eth, debited)
	}
	if len(hub.balances) != 1 {
		t.Fatalf("expected balance broadcast, got %d", len(hub.balances))
	}
	if len(mailer.requested) != 1 {
		t.Fatalf("expected request email, got %d", len(mailer.requested))
	}
}

func TestRequestWithdrawalNotWhitelisted(t *testing.T) {
	service := newWalletService(
		stubUserStore{}, stubDepositStore{}, stubWithdrawalStore{},
		stubWhitelistStore{
			existsFn: func(context.Context, string, string, string) (bool, error) { return false, nil },
		},
		stubPlatformWalletStore{}, &stubMailer{}, &stubHub{},
	)
	_, err := service.RequestWithdrawal(context.Background(), WithdrawalRequestInput{
		UserID: "user", Amount: eth, Address: "tb1qother", Network: "testnet",
	})
	if err != ErrAddressNotWhitelisted {
		t.Fatalf("expected ErrAddressNotWhitelisted, got %v", err)
	}
}

func TestRequestWithdrawalInsufficientFunds(t *testing.T) {
	service := newWalletService(
		stubUserStore{
			getForUpdateFn: func(_ context.Context, _ store.Getter, userID string) (models.User, error) {
				return models.User{ID: userID, WalletBalance: eth}, nil
			},
		},
		stubDepositStore{}, stubWithdrawalStore{}, stubWhitelistStore{}, stubPlatformWalletStore{}, &stubMailer{}, &stubHub{},
	)
	_, err := service.RequestWithdrawal(context.Background(), WithdrawalRequestInput{
		UserID: "user", Amount: 2 * eth, Address: "tb1qexample", Network: "testnet",
	})
	if err != ErrInsufficientFunds {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
}

func TestReviewWithdrawalRejectRefunds(t *testing.T) {
	var refunded int64
	hub := &stubHub{}
	service := newWalletService(
		stubUserStore{
			getForUpdateFn: func(_ context.Context, _ store.Getter, userID string) (models.User, error) {
				return models.User{ID: userID, WalletBalance: 3 * eth}, nil
			},
			updateBalanceFn: func(_ context.Context, _ store.Execer, _ string, balance int64) error {
				refunded = balance
				return nil
			},
		},
		stubDepositStore{},
		stubWithdrawalStore{
			getForUpdateFn: func(_ context.Context, _ store.Getter, id string) (models.WithdrawalRequest, error) {
				return models.WithdrawalRequest{ID: id, UserID: "user", Amount: 2 * eth}, nil
			},
		},
		stubWhitelistStore{}, stubPlatformWalletStore{}, &stubMailer{}, hub,
	)

	if err := service.ReviewWithdrawal(context.Background(), "admin", "wd-1", false, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if refunded != 5*eth {
		t.Fatalf("expected balance %d after refund, got %d", 5*eth, refunded)
	}
	if len(hub.balances) != 1 {
		t.Fatalf("expected refund broadcast, got %d", len(hub.balances))
	}
}

func TestReviewWithdrawalCompleteRecordsPayout(t *testing.T) {
	var payout store.TransactionInput
	service := NewWalletService(fakeTxRunner{},
		stubUserStore{
			updateBalanceFn: func(context.Context, store.Execer, string, int64) error {
				t.Fatalf("completion must not touch the balance, it was debited at request time")
				return nil
			},
		},
		stubDepositStore{},
		stubWithdrawalStore{},
		stubWhitelistStore{}, stubPlatformWalletStore{},
		stubTransactionStore{
			createFn: func(_ context.Context, _ store.Execer, input store.TransactionInput) error {
				payout = input
				return nil
			},
		},
		stubAuditStore{}, &stubMailer{}, &stubHub{}, "", "testnet",
	)

	hash := "0xabc"
	if err := service.ReviewWithdrawal(context.Background(), "admin", "wd-1", true, &hash); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payout.Type != models.TxWithdrawal || payout.Amount != eth {
		t.Fatalf("unexpected payout transaction: %#v", payout)
	}
	if payout.TxHash == nil || *payout.TxHash != hash {
		t.Fatalf("expected payout tx hash %q", hash)
	}
}

func TestReviewWithdrawalTwiceRejected(t *testing.T) {
	service := newWalletService(
		stubUserStore{}, stubDepositStore{},
		stubWithdrawalStore{
			reviewFn: func(context.Context, store.Execer, string, models.RequestStatus, string) (int64, error) {
				return 0, nil
			},
		},
		stubWhitelistStore{}, stubPlatformWalletStore{}, &stubMailer{}, &stubHub{},
	)
	err := service.ReviewWithdrawal(context.Background(), "admin", "wd-1", true, nil)
	if err != ErrAlreadyReviewed {
		t.Fatalf("expected ErrAlreadyReviewed, got %v", err)
	}
}

func TestRequestDepositAssignsAddress(t *testing.T) {
	var created store.DepositInput
	service := newWalletService(
		stubUserStore{},
		stubDepositStore{
			createFn: func(_ context.Context, _ store.Execer, input store.DepositInput) error {
				created = input
				return nil
			},
			getByIDFn: func(_ context.Context, id string) (models.DepositRequest, error) {
				return models.DepositRequest{ID: id, UserID: "user", Amount: eth, DepositAddress: "addr-0"}, nil
			},
		},
		stubWithdrawalStore{}, stubWhitelistStore{},
		stubPlatformWalletStore{
			nextForDepositFn: func(context.Context, store.Tx) (models.PlatformWallet, error) {
				return models.PlatformWallet{Address: "addr-0"}, nil
			},
		},
		&stubMailer{}, &stubHub{},
	)
	deposit, err := service.RequestDeposit(context.Background(), DepositRequestInput{UserID: "user", Amount: eth})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.DepositAddress != "addr-0" {
		t.Fatalf("expected the assigned address on the stored request, got %q", created.DepositAddress)
	}
	if deposit.DepositAddress != "addr-0" {
		t.Fatalf("expected assigned address, got %q", deposit.DepositAddress)
	}
}

func TestRequestDepositCreateFailureAborts(t *testing.T) {
	insertErr := errors.New("insert failed")
	service := newWalletService(
		stubUserStore{},
		stubDepositStore{
			createFn: func(context.Context, store.Execer, store.DepositInput) error {
				return insertErr
			},
			getByIDFn: func(context.Context, string) (models.DepositRequest, error) {
				t.Fatalf("no deposit should be read back when the insert fails")
				return models.DepositRequest{}, nil
			},
		},
		stubWithdrawalStore{}, stubWhitelistStore{}, stubPlatformWalletStore{}, &stubMailer{}, &stubHub{},
	)
	_, err := service.RequestDeposit(context.Background(), DepositRequestInput{UserID: "user", Amount: eth})
	if err != insertErr {
		t.Fatalf("expected insert error to surface, got %v", err)
	}
}

func TestDeriveDepositAddressRequiresMasterKey(t *testing.T) {
	_, err := DeriveDepositAddress("", 0, "testnet")
	if err != ErrMasterKeyNotConfigured {
		t.Fatalf("expected ErrMasterKeyNotConfigured, got %v", err)
	}
}

func TestDeriveDepositAddressDeterministic(t *testing.T) {
	// BIP32 test vector 1 master key.
	const xprv = "xprv9s21ZrQH143K3QTDL4LXw2F7HEK3wJUD2nW2nRk4stbPy6cq3jPPqjiChkVvvNKmPGJxWUtg6LnF5kejMRNNU3TGtRBeJgk33yuGBxrMPHi"
	first, err := DeriveDepositAddress(xprv, 0, "mainnet")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := DeriveDepositAddress(xprv, 0, "mainnet")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != second {
		t.Fatalf("derivation must be deterministic: %q vs %q", first, second)
	}
	other, err := DeriveDepositAddress(xprv, 1, "mainnet")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if other == first {
		t.Fatalf("different indexes must derive different addresses")
	}
}

func TestEnsureDepositWalletsProvisionsPool(t *testing.T) {
	const xprv = "xprv9s21ZrQH143K3QTDL4LXw2F7HEK3wJUD2nW2nRk4stbPy6cq3jPPqjiChkVvvNKmPGJxWUtg6LnF5kejMRNNU3TGtRBeJgk33yuGBxrMPHi"
	var created []int
	service := NewWalletService(fakeTxRunner{}, stubUserStore{}, stubDepositStore{}, stubWithdrawalStore{}, stubWhitelistStore{},
		stubPlatformWalletStore{
			countFn: func(context.Context) (int, error) { return 14, nil },
			createFn: func(_ context.Context, _ string, derivationIndex int, address string) error {
				if address == "" {
					t.Fatalf("expected derived address")
				}
				created = append(created, derivationIndex)
				return nil
			},
		},
		stubTransactionStore{}, stubAuditStore{}, &stubMailer{}, &stubHub{}, xprv, "mainnet",
	)
	if err := service.EnsureDepositWallets(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(created) != 2 || created[0] != 14 || created[1] != 15 {
		t.Fatalf("expected indexes 14 and 15 provisioned, got %v", created)
	}
}
