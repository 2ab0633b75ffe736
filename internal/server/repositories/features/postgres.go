package features

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/studioportal/internal/common"
	"github.com/dmitrijs2005/studioportal/internal/dbx"
	"github.com/dmitrijs2005/studioportal/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const columns = `id, project_id, requested_by, title, description, status, decided_by, decided_at, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scan(row scanner) (*models.Feature, error) {
	var (
		f         models.Feature
		decidedBy sql.NullString
		decidedAt sql.NullTime
	)
	err := row.Scan(&f.ID, &f.ProjectID, &f.RequestedBy, &f.Title, &f.Description, &f.Status,
		&decidedBy, &decidedAt, &f.CreatedAt)
	if err != nil {
		return nil, err
	}
	f.DecidedBy = decidedBy.String
	if decidedAt.Valid {
		f.DecidedAt = &decidedAt.Time
	}
	return &f, nil
}

func (r *PostgresRepository) Create(ctx context.Context, f *models.Feature) (*models.Feature, error) {
	query :=
		`INSERT INTO project_features (project_id, requested_by, title, description)
		 VALUES ($1, $2, $3, $4)
		 RETURNING ` + columns

	out, err := scan(r.db.QueryRowContext(ctx, query, f.ProjectID, f.RequestedBy, f.Title, f.Description))
	if err != nil {
		return nil, dbx.MapError(err)
	}
	return out, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Feature, error) {
	out, err := scan(r.db.QueryRowContext(ctx, `SELECT `+columns+` FROM project_features WHERE id = $1`, id))
	if err != nil {
		return nil, dbx.MapError(err)
	}
	return out, nil
}

func (r *PostgresRepository) ListByProject(ctx context.Context, projectID string) ([]models.Feature, error) {
	query := `SELECT ` + columns + ` FROM project_features WHERE project_id = $1 ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, dbx.MapError(err)
	}
	defer rows.Close()

	out := []models.Feature{}
	for rows.Next() {
		f, err := scan(rows)
		if err != nil {
			return nil, dbx.MapError(err)
		}
		out = append(out, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, dbx.MapError(err)
	}
	return out, nil
}

func (r *PostgresRepository) Transition(ctx context.Context, id, from, to, decidedBy string) (*models.Feature, error) {
	query :=
		`UPDATE project_features
		 SET status = $3, decided_by = $4, decided_at = now()
		 WHERE id = $1 AND status = $2
		 RETURNING ` + columns

	out, err := scan(r.db.QueryRowContext(ctx, query, id, from, to, dbx.NullString(decidedBy)))
	if err == nil {
		return out, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, dbx.MapError(err)
	}

	// nothing updated: either missing or not in from
	if _, err := r.Get(ctx, id); err != nil {
		return nil, err
	}
	return nil, common.ErrInvalidTransition
}
