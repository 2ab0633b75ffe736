package feedback

import (
	"context"

	"github.com/dmitrijs2005/studioportal/internal/dbx"
	"github.com/dmitrijs2005/studioportal/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, f *models.Feedback) (*models.Feedback, error) {
	query :=
		`INSERT INTO feedback (user_id, rating, message)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`

	if err := r.db.QueryRowContext(ctx, query, f.UserID, f.Rating, f.Message).Scan(&f.ID, &f.CreatedAt); err != nil {
		return nil, dbx.MapError(err)
	}
	return f, nil
}

func (r *PostgresRepository) List(ctx context.Context, limit int) ([]models.Feedback, error) {
	query :=
		`SELECT id, user_id, rating, message, created_at
		 FROM feedback
		 ORDER BY created_at DESC
		 LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, dbx.MapError(err)
	}
	defer rows.Close()

	out := []models.Feedback{}
	for rows.Next() {
		var f models.Feedback
		if err := rows.Scan(&f.ID, &f.UserID, &f.Rating, &f.Message, &f.CreatedAt); err != nil {
			return nil, dbx.MapError(err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, dbx.MapError(err)
	}
	return out, nil
}
