package db

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/chepyr/go-kanban/internal/models"
	"github.com/chepyr/go-kanban/internal/position"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type CardRepository struct {
	q sqlx.ExtContext
}

func (r *CardRepository) Create(ctx context.Context, card *models.Card) error {
	query := `INSERT INTO cards (id, column_id, title, description, position)
	 VALUES ($1, $2, $3, $4, $5)`
	_, err := r.q.ExecContext(ctx, query, card.ID, card.ColumnID, card.Title, card.Description, card.Order)
	return err
}

func (r *CardRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Card, error) {
	card := &models.Card{}
	query := `SELECT id, column_id, title, description, position FROM cards WHERE id = $1`
	if err := sqlx.GetContext(ctx, r.q, card, query, id); err != nil {
		return nil, notFound(err)
	}
	return card, nil
}

func (r *CardRepository) ListByColumn(ctx context.Context, columnID uuid.UUID) ([]models.Card, error) {
	cards := []models.Card{}
	query := `SELECT id, column_id, title, description, position
	 FROM cards WHERE column_id = $1 ORDER BY position, id`
	if err := sqlx.SelectContext(ctx, r.q, &cards, query, columnID); err != nil {
		return nil, err
	}
	return cards, nil
}

// Update stores the card's title and description.
func (r *CardRepository) Update(ctx context.Context, card *models.Card) error {
	n, err := execBuilder(ctx, r.q, psql.Update("cards").
		SetMap(map[string]any{
			"title":       card.Title,
			"description": card.Description,
		}).
		Where(sq.Eq{"id": card.ID}))
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a card from columnID. A card that is no longer in that
// column is reported as ErrNotFound. Callers compact the column afterwards.
func (r *CardRepository) Delete(ctx context.Context, id, columnID uuid.UUID) error {
	return expectRow(r.q.ExecContext(ctx, `DELETE FROM cards WHERE id = $1 AND column_id = $2`, id, columnID))
}

// Group exposes the cards of each column as a position group.
func (r *CardRepository) Group() position.Group {
	return &siblings{q: r.q, table: "cards", parentKey: "column_id", parentTable: "columns"}
}
