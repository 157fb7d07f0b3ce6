package store

import (
	"context"

	"nftmarket/internal/models"
)

type CollectionStore struct {
	db DB
}

func NewCollectionStore(db DB) *CollectionStore {
	return &CollectionStore{db: db}
}

const collectionColumns = `id, creator_id, name, description, image_url, royalty_percentage, listed_count, volume, created_at`

type CollectionInput struct {
	ID                string
	CreatorID         string
	Name              string
	Description       string
	ImageURL          string
	RoyaltyPercentage float64
}

func (s *CollectionStore) Create(ctx context.Context, tx Execer, input CollectionInput) error {
	query := `
		INSERT INTO collections (id, creator_id, name, description, image_url, royalty_percentage)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := tx.ExecContext(ctx, query,
		input.ID, input.CreatorID, input.Name, input.Description, input.ImageURL, input.RoyaltyPercentage,
	)
	return err
}

func (s *CollectionStore) Update(ctx context.Context, tx Execer, id, name, description, imageURL string) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE collections
		SET name = $1, description = $2, image_url = $3
		WHERE id = $4
	`, name, description, imageURL, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *CollectionStore) GetByID(ctx context.Context, id string) (models.Collection, error) {
	var row models.Collection
	err := s.db.GetContext(ctx, &row, `SELECT `+collectionColumns+` FROM collections WHERE id = $1`, id)
	return row, err
}

func (s *CollectionStore) List(ctx context.Context, creatorID string, limit, offset int) ([]models.Collection, error) {
	var rows []models.Collection
	if creatorID != "" {
		err := s.db.SelectContext(ctx, &rows, `
			SELECT `+collectionColumns+`
			FROM collections
			WHERE creator_id = $1
			ORDER BY created_at DESC
			LIMIT $2 OFFSET $3
		`, creatorID, limit, offset)
		return rows, err
	}
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+collectionColumns+`
		FROM collections
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	return rows, err
}

func (s *CollectionStore) AdjustListedCount(ctx context.Context, tx Execer, id string, delta int) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE collections
		SET listed_count = GREATEST(listed_count + $1, 0)
		WHERE id = $2
	`, delta, id)
	return err
}

func (s *CollectionStore) AddVolume(ctx context.Context, tx Execer, id string, amount int64) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE collections
		SET volume = volume + $1
		WHERE id = $2
	`, amount, id)
	return err
}

func (s *CollectionStore) Search(ctx context.Context, term string, limit int) ([]models.Collection, error) {
	var rows []models.Collection
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+collectionColumns+`
		FROM collections
		WHERE name ILIKE '%' || $1 || '%'
		ORDER BY volume DESC
		LIMIT $2
	`, term, limit)
	return rows, err
}
