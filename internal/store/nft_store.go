package store

import (
	"context"

	"nftmarket/internal/models"
)

type NFTStore struct {
	db DB
}

func NewNFTStore(db DB) *NFTStore {
	return &NFTStore{db: db}
}

const nftColumns = `id, collection_id, owner_id, name, description, image_url, token_uri, is_listed, list_price, created_at`

type NFTInput struct {
	ID           string
	CollectionID string
	OwnerID      string
	Name         string
	Description  string
	ImageURL     string
	TokenURI     string
}

type NFTFilter struct {
	CollectionID string
	OwnerID      string
	ListedOnly   bool
	Limit        int
	Offset       int
}

func (s *NFTStore) Create(ctx context.Context, tx Execer, input NFTInput) error {
	query := `
		INSERT INTO nfts (id, collection_id, owner_id, name, description, image_url, token_uri)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := tx.ExecContext(ctx, query,
		input.ID, input.CollectionID, input.OwnerID, input.Name, input.Description, input.ImageURL, input.TokenURI,
	)
	return err
}

func (s *NFTStore) GetByID(ctx context.Context, id string) (models.NFT, error) {
	var row models.NFT
	err := s.db.GetContext(ctx, &row, `SELECT `+nftColumns+` FROM nfts WHERE id = $1`, id)
	return row, err
}

func (s *NFTStore) GetForUpdate(ctx context.Context, tx Getter, id string) (models.NFT, error) {
	var row models.NFT
	err := tx.GetContext(ctx, &row, `
		SELECT `+nftColumns+`
		FROM nfts
		WHERE id = $1
		FOR UPDATE
	`, id)
	return row, err
}

func (s *NFTStore) List(ctx context.Context, filter NFTFilter) ([]models.NFT, error) {
	query := `SELECT ` + nftColumns + ` FROM nfts WHERE 1=1`
	args := []any{}
	if filter.CollectionID != "" {
		args = append(args, filter.CollectionID)
		query += ` AND collection_id = $` + itoa(len(args))
	}
	if filter.OwnerID != "" {
		args = append(args, filter.OwnerID)
		query += ` AND owner_id = $` + itoa(len(args))
	}
	if filter.ListedOnly {
		query += ` AND is_listed = TRUE`
	}
	args = append(args, filter.Limit)
	query += ` ORDER BY created_at DESC LIMIT $` + itoa(len(args))
	args = append(args, filter.Offset)
	query += ` OFFSET $` + itoa(len(args))

	var rows []models.NFT
	err := s.db.SelectContext(ctx, &rows, query, args...)
	return rows, err
}

func (s *NFTStore) SetListing(ctx context.Context, tx Execer, id string, listed bool, price *int64) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE nfts
		SET is_listed = $1, list_price = $2, updated_at = NOW()
		WHERE id = $3
	`, listed, price, id)
	return err
}

func (s *NFTStore) TransferOwner(ctx context.Context, tx Execer, id, newOwnerID string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE nfts
		SET owner_id = $1, is_listed = FALSE, list_price = NULL, updated_at = NOW()
		WHERE id = $2
	`, newOwnerID, id)
	return err
}

func (s *NFTStore) Search(ctx context.Context, term string, limit int) ([]models.NFT, error) {
	var rows []models.NFT
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+nftColumns+`
		FROM nfts
		WHERE name ILIKE '%' || $1 || '%' OR description ILIKE '%' || $1 || '%'
		ORDER BY created_at DESC
		LIMIT $2
	`, term, limit)
	return rows, err
}
