package store

import (
	"context"
	"fmt"

	"nftmarket/internal/models"
)

type TransactionStore struct {
	db DB
}

func NewTransactionStore(db DB) *TransactionStore {
	return &TransactionStore{db: db}
}

type TransactionInput struct {
	ID             string
	UserID         string
	Type           models.TransactionType
	Status         string
	Amount         int64
	NFTID          *string
	CounterpartyID *string
	TxHash         *string
	Network        *string
	Metadata       string
}

func (s *TransactionStore) Create(ctx context.Context, tx Execer, input TransactionInput) error {
	query := `
		INSERT INTO transactions (id, user_id, type, status, amount, nft_id, counterparty_id, tx_hash, network, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := tx.ExecContext(ctx, query,
		input.ID, input.UserID, input.Type, input.Status, input.Amount,
		input.NFTID, input.CounterpartyID, input.TxHash, input.Network, input.Metadata,
	)
	return err
}

func (s *TransactionStore) ListByUser(ctx context.Context, userID string, txType models.TransactionType, limit, offset int) ([]models.Transaction, error) {
	query := `
		SELECT id, user_id, type, status, amount, nft_id, counterparty_id, tx_hash, network, metadata, created_at
		FROM transactions
		WHERE (user_id = $1 OR counterparty_id = $1)
	`
	args := []any{userID}
	if txType != "" {
		args = append(args, txType)
		query += ` AND type = $` + itoa(len(args))
	}
	args = append(args, limit)
	query += ` ORDER BY created_at DESC LIMIT $` + itoa(len(args))
	args = append(args, offset)
	query += ` OFFSET $` + itoa(len(args))

	var rows []models.Transaction
	err := s.db.SelectContext(ctx, &rows, query, args...)
	return rows, err
}

func (s *TransactionStore) ListAll(ctx context.Context, limit, offset int) ([]models.Transaction, error) {
	var rows []models.Transaction
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, user_id, type, status, amount, nft_id, counterparty_id, tx_hash, network, metadata, created_at
		FROM transactions
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	return rows, err
}

func itoa(value int) string {
	return fmt.Sprintf("%d", value)
}
