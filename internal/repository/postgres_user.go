package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/Lixing-Zhang/storefront-api/internal/models"
)

// PGUserRepository implements UserRepository on PostgreSQL.
type PGUserRepository struct {
	DB *sqlx.DB
}

func NewPGUserRepository(db *sqlx.DB) *PGUserRepository {
	return &PGUserRepository{DB: db}
}

func (r *PGUserRepository) Create(ctx context.Context, u *models.User) error {
	query := `
		INSERT INTO users (id, name, email, role, password_hash, created_at)
		VALUES (:id, :name, :email, :role, :password_hash, :created_at)
	`
	_, err := r.DB.NamedExecContext(ctx, query, u)
	return mapError(err)
}

func (r *PGUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	query := `SELECT id, name, email, role, password_hash, created_at FROM users WHERE id = $1 LIMIT 1`
	if err := r.DB.GetContext(ctx, &u, query, id); err != nil {
		return nil, mapError(err)
	}
	return &u, nil
}

func (r *PGUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	query := `SELECT id, name, email, role, password_hash, created_at FROM users WHERE LOWER(email) = LOWER($1) LIMIT 1`
	if err := r.DB.GetContext(ctx, &u, query, email); err != nil {
		return nil, mapError(err)
	}
	return &u, nil
}
