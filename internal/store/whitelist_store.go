package store

import (
	"context"

	"nftmarket/internal/models"
)

type WhitelistStore struct {
	db DB
}

func NewWhitelistStore(db DB) *WhitelistStore {
	return &WhitelistStore{db: db}
}

func (s *WhitelistStore) Add(ctx context.Context, id, userID, address, network, label string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO whitelisted_addresses (id, user_id, address, network, label)
		VALUES ($1, $2, $3, $4, $5)
	`, id, userID, address, network, label)
	return err
}

func (s *WhitelistStore) Remove(ctx context.Context, id, userID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM whitelisted_addresses WHERE id = $1 AND user_id = $2
	`, id, userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *WhitelistStore) ListByUser(ctx context.Context, userID string) ([]models.WhitelistedAddress, error) {
	var rows []models.WhitelistedAddress
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, user_id, address, network, label, created_at
		FROM whitelisted_addresses
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	return rows, err
}

func (s *WhitelistStore) Exists(ctx context.Context, userID, address, network string) (bool, error) {
	var count int
	err := s.db.GetContext(ctx, &count, `
		SELECT COUNT(1)
		FROM whitelisted_addresses
		WHERE user_id = $1 AND address = $2 AND network = $3
	`, userID, address, network)
	return count > 0, err
}
