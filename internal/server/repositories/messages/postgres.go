package messages

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

func (r *PostgresRepository) Create(ctx context.Context, m *models.Message) (*models.Message, error) {
	query :=
		`INSERT INTO team_messages (team_id, user_id, body)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`

	if err := r.db.QueryRowContext(ctx, query, m.TeamID, m.UserID, m.Body).Scan(&m.ID, &m.CreatedAt); err != nil {
		return nil, dbx.MapError(err)
	}
	return m, nil
}

func (r *PostgresRepository) ListRecent(ctx context.Context, teamID string, limit int) ([]models.Message, error) {
	query :=
		`SELECT id, team_id, user_id, body, created_at FROM (
		     SELECT id, team_id, user_id, body, created_at
		     FROM team_messages
		     WHERE team_id = $1
		     ORDER BY created_at DESC
		     LIMIT $2
		 ) recent
		 ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, teamID, limit)
	if err != nil {
		return nil, dbx.MapError(err)
	}
	defer rows.Close()

	out := []models.Message{}
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.TeamID, &m.UserID, &m.Body, &m.CreatedAt); err != nil {
			return nil, dbx.MapError(err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, dbx.MapError(err)
	}
	return out, nil
}
