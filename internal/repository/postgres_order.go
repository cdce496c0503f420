package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Lixing-Zhang/storefront-api/internal/models"
)

type orderRow struct {
	ID        string                        `db:"id"`
	SessionID string                        `db:"session_id"`
	UserID    sql.NullString                `db:"user_id"`
	Items     jsonColumn[[]models.CartItem] `db:"items"`
	Total     float64                       `db:"total"`
	CreatedAt time.Time                     `db:"created_at"`
}

// PGOrderRepository implements OrderRepository on PostgreSQL.
type PGOrderRepository struct {
	DB *sqlx.DB
}

func NewPGOrderRepository(db *sqlx.DB) *PGOrderRepository {
	return &PGOrderRepository{DB: db}
}

func (r *PGOrderRepository) Create(ctx context.Context, o *models.Order) error {
	query := `
		INSERT INTO orders (id, session_id, user_id, items, total, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.DB.ExecContext(ctx, query,
		o.ID, o.SessionID, nullString(&o.UserID),
		jsonColumn[[]models.CartItem]{V: nonNil(o.Items)}, o.Total, o.CreatedAt,
	)
	return mapError(err)
}

func (r *PGOrderRepository) GetByID(ctx context.Context, id string) (*models.Order, error) {
	var row orderRow
	query := `SELECT id, session_id, user_id, items, total, created_at FROM orders WHERE id = $1`
	if err := r.DB.GetContext(ctx, &row, query, id); err != nil {
		return nil, mapError(err)
	}
	return &models.Order{
		ID:        row.ID,
		SessionID: row.SessionID,
		UserID:    row.UserID.String,
		Items:     nonNil(row.Items.V),
		Total:     row.Total,
		CreatedAt: row.CreatedAt,
	}, nil
}
