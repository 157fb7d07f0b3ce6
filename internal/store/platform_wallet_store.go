package store

import (
	"context"

	"nftmarket/internal/models"
)

type PlatformWalletStore struct {
	db DB
}

func NewPlatformWalletStore(db DB) *PlatformWalletStore {
	return &PlatformWalletStore{db: db}
}

func (s *PlatformWalletStore) Create(ctx context.Context, id string, derivationIndex int, address string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO platform_wallets (id, derivation_index, address)
		VALUES ($1, $2, $3)
	`, id, derivationIndex, address)
	return err
}

// NextForDeposit hands out the least-assigned wallet and bumps its counter in
// one statement, which is what keeps the rotation round-robin under
// concurrent deposit requests.
func (s *PlatformWalletStore) NextForDeposit(ctx context.Context, tx Tx) (models.PlatformWallet, error) {
	var row models.PlatformWallet
	err := tx.GetContext(ctx, &row, `
		UPDATE platform_wallets
		SET assigned_count = assigned_count + 1
		WHERE id = (
			SELECT id FROM platform_wallets
			ORDER BY assigned_count ASC, derivation_index ASC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, derivation_index, address, assigned_count, created_at
	`)
	return row, err
}

func (s *PlatformWalletStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, `SELECT COUNT(1) FROM platform_wallets`)
	return count, err
}
