package store

import (
	"context"
	"time"

	"nftmarket/internal/models"
)

type ExhibitionStore struct {
	db DB
}

func NewExhibitionStore(db DB) *ExhibitionStore {
	return &ExhibitionStore{db: db}
}

const exhibitionColumns = `id, title, description, image_url, start_date, end_date, created_by, created_at`

type ExhibitionInput struct {
	ID          string
	Title       string
	Description string
	ImageURL    string
	StartDate   time.Time
	EndDate     time.Time
	CreatedBy   string
}

func (s *ExhibitionStore) Create(ctx context.Context, input ExhibitionInput) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO exhibitions (id, title, description, image_url, start_date, end_date, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, input.ID, input.Title, input.Description, input.ImageURL, input.StartDate, input.EndDate, input.CreatedBy)
	return err
}

func (s *ExhibitionStore) Update(ctx context.Context, id, title, description, imageURL string, startDate, endDate time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE exhibitions
		SET title = $1, description = $2, image_url = $3, start_date = $4, end_date = $5
		WHERE id = $6
	`, title, description, imageURL, startDate, endDate, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *ExhibitionStore) Delete(ctx context.Context, id string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM exhibitions WHERE id = $1`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *ExhibitionStore) GetByID(ctx context.Context, id string) (models.Exhibition, error) {
	var row models.Exhibition
	err := s.db.GetContext(ctx, &row, `SELECT `+exhibitionColumns+` FROM exhibitions WHERE id = $1`, id)
	return row, err
}

func (s *ExhibitionStore) List(ctx context.Context, limit, offset int) ([]models.Exhibition, error) {
	var rows []models.Exhibition
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+exhibitionColumns+`
		FROM exhibitions
		ORDER BY start_date DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	return rows, err
}

func (s *ExhibitionStore) AddItem(ctx context.Context, exhibitionID, nftID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO exhibition_items (exhibition_id, nft_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, exhibitionID, nftID)
	return err
}

func (s *ExhibitionStore) RemoveItem(ctx context.Context, exhibitionID, nftID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM exhibition_items WHERE exhibition_id = $1 AND nft_id = $2
	`, exhibitionID, nftID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *ExhibitionStore) ListItems(ctx context.Context, exhibitionID string) ([]models.NFT, error) {
	var rows []models.NFT
	err := s.db.SelectContext(ctx, &rows, `
		SELECT n.id, n.collection_id, n.owner_id, n.name, n.description, n.image_url, n.token_uri, n.is_listed, n.list_price, n.created_at
		FROM exhibition_items e
		JOIN nfts n ON n.id = e.nft_id
		WHERE e.exhibition_id = $1
		ORDER BY e.added_at
	`, exhibitionID)
	return rows, err
}
