package skills

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/studioportal/internal/dbx"
	"github.com/dmitrijs2005/studioportal/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(ctx context.Context) ([]models.Skill, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, category FROM skills ORDER BY category, name`)
	if err != nil {
		return nil, dbx.MapError(err)
	}
	return scanAll(rows)
}

func (r *PostgresRepository) Create(ctx context.Context, s *models.Skill) (*models.Skill, error) {
	query :=
		`INSERT INTO skills (name, category)
		 VALUES ($1, $2)
		 RETURNING id`

	if err := r.db.QueryRowContext(ctx, query, s.Name, s.Category).Scan(&s.ID); err != nil {
		return nil, dbx.MapError(err)
	}
	return s, nil
}

func (r *PostgresRepository) ListForUser(ctx context.Context, userID string) ([]models.Skill, error) {
	query :=
		`SELECT s.id, s.name, s.category
		 FROM skills s
		 JOIN user_skills us ON us.skill_id = s.id
		 WHERE us.user_id = $1
		 ORDER BY s.category, s.name`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, dbx.MapError(err)
	}
	return scanAll(rows)
}

func (r *PostgresRepository) Add(ctx context.Context, userID, skillID string) error {
	query :=
		`INSERT INTO user_skills (user_id, skill_id)
		 VALUES ($1, $2)
		 ON CONFLICT DO NOTHING`

	if _, err := r.db.ExecContext(ctx, query, userID, skillID); err != nil {
		return dbx.MapError(err)
	}
	return nil
}

func (r *PostgresRepository) Remove(ctx context.Context, userID, skillID string) error {
	query := `DELETE FROM user_skills WHERE user_id = $1 AND skill_id = $2`

	if _, err := r.db.ExecContext(ctx, query, userID, skillID); err != nil {
		return dbx.MapError(err)
	}
	return nil
}

func scanAll(rows *sql.Rows) ([]models.Skill, error) {
	defer rows.Close()

	out := []models.Skill{}
	for rows.Next() {
		var s models.Skill
		if err := rows.Scan(&s.ID, &s.Name, &s.Category); err != nil {
			return nil, dbx.MapError(err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, dbx.MapError(err)
	}
	return out, nil
}
