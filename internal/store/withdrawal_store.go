package store

import (
	"context"

	"nftmarket/internal/models"
)

type WithdrawalStore struct {
	db DB
}

func NewWithdrawalStore(db DB) *WithdrawalStore {
	return &WithdrawalStore{db: db}
}

const withdrawalColumns = `id, user_id, amount, address, network, status, created_at, reviewed_at, reviewed_by`

type WithdrawalInput struct {
	ID      string
	UserID  string
	Amount  int64
	Address string
	Network string
}

func (s *WithdrawalStore) Create(ctx context.Context, tx Execer, input WithdrawalInput) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO withdrawal_requests (id, user_id, amount, address, network)
		VALUES ($1, $2, $3, $4, $5)
	`, input.ID, input.UserID, input.Amount, input.Address, input.Network)
	return err
}

func (s *WithdrawalStore) GetForUpdate(ctx context.Context, tx Getter, id string) (models.WithdrawalRequest, error) {
	var row models.WithdrawalRequest
	err := tx.GetContext(ctx, &row, `
		SELECT `+withdrawalColumns+`
		FROM withdrawal_requests
		WHERE id = $1
		FOR UPDATE
	`, id)
	return row, err
}

func (s *WithdrawalStore) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.WithdrawalRequest, error) {
	var rows []models.WithdrawalRequest
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+withdrawalColumns+`
		FROM withdrawal_requests
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	return rows, err
}

func (s *WithdrawalStore) ListByStatus(ctx context.Context, status models.RequestStatus, limit, offset int) ([]models.WithdrawalRequest, error) {
	var rows []models.WithdrawalRequest
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+withdrawalColumns+`
		FROM withdrawal_requests
		WHERE status = $1
		ORDER BY created_at ASC
		LIMIT $2 OFFSET $3
	`, status, limit, offset)
	return rows, err
}

func (s *WithdrawalStore) Review(ctx context.Context, tx Execer, id string, status models.RequestStatus, reviewerID string) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE withdrawal_requests
		SET status = $1, reviewed_at = NOW(), reviewed_by = $2
		WHERE id = $3 AND status = 'pending'
	`, status, reviewerID, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
