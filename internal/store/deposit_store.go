package store

import (
	"context"

	"nftmarket/internal/models"
)

type DepositStore struct {
	db DB
}

func NewDepositStore(db DB) *DepositStore {
	return &DepositStore{db: db}
}

const depositColumns = `id, user_id, amount, network, tx_hash, deposit_address, status, created_at, reviewed_at, reviewed_by`

type DepositInput struct {
	ID             string
	UserID         string
	Amount         int64
	Network        string
	TxHash         *string
	DepositAddress string
}

func (s *DepositStore) Create(ctx context.Context, tx Execer, input DepositInput) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO deposit_requests (id, user_id, amount, network, tx_hash, deposit_address)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, input.ID, input.UserID, input.Amount, input.Network, input.TxHash, input.DepositAddress)
	return err
}

func (s *DepositStore) GetByID(ctx context.Context, id string) (models.DepositRequest, error) {
	var row models.DepositRequest
	err := s.db.GetContext(ctx, &row, `SELECT `+depositColumns+` FROM deposit_requests WHERE id = $1`, id)
	return row, err
}

func (s *DepositStore) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.DepositRequest, error) {
	var rows []models.DepositRequest
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+depositColumns+`
		FROM deposit_requests
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	return rows, err
}

func (s *DepositStore) ListByStatus(ctx context.Context, status models.RequestStatus, limit, offset int) ([]models.DepositRequest, error) {
	var rows []models.DepositRequest
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+depositColumns+`
		FROM deposit_requests
		WHERE status = $1
		ORDER BY created_at ASC
		LIMIT $2 OFFSET $3
	`, status, limit, offset)
	return rows, err
}

// Review flips pending to a terminal status. The status guard makes a repeat
// review report zero rows instead of re-applying effects.
func (s *DepositStore) Review(ctx context.Context, tx Execer, id string, status models.RequestStatus, reviewerID string) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE deposit_requests
		SET status = $1, reviewed_at = NOW(), reviewed_by = $2
		WHERE id = $3 AND status = 'pending'
	`, status, reviewerID, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
