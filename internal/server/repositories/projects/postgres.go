package projects

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/studioportal/internal/dbx"
	"github.com/dmitrijs2005/studioportal/internal/portal/branding"
	"github.com/dmitrijs2005/studioportal/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const columns = `id, name, description, client_name, client_email, client_user_id, team_id, logo_url, color_scheme, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scan(row scanner) (*models.Project, error) {
	var (
		p            models.Project
		clientUserID sql.NullString
		teamID       sql.NullString
		scheme       []byte
	)
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.ClientName, &p.ClientEmail,
		&clientUserID, &teamID, &p.LogoURL, &scheme, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, dbx.MapError(err)
	}
	p.ClientUserID = clientUserID.String
	p.TeamID = teamID.String

	if len(scheme) > 0 {
		cs, err := branding.Decode(scheme)
		if err != nil {
			return nil, fmt.Errorf("project %s: %w", p.ID, err)
		}
		p.ColorScheme = &cs
	}
	return &p, nil
}

func encodeScheme(cs *branding.ColorScheme) (any, error) {
	if cs == nil {
		return nil, nil
	}
	raw, err := cs.Encode()
	if err != nil {
		return nil, err
	}
	return json.RawMessage(raw), nil
}

func (r *PostgresRepository) Create(ctx context.Context, p *models.Project) (*models.Project, error) {
	scheme, err := encodeScheme(p.ColorScheme)
	if err != nil {
		return nil, err
	}

	query :=
		`INSERT INTO projects (name, description, client_name, client_email, client_user_id, team_id, logo_url, color_scheme)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING ` + columns

	return scan(r.db.QueryRowContext(ctx, query, p.Name, p.Description, p.ClientName, p.ClientEmail,
		dbx.NullString(p.ClientUserID), dbx.NullString(p.TeamID), p.LogoURL, scheme))
}

func (r *PostgresRepository) Update(ctx context.Context, p *models.Project) (*models.Project, error) {
	scheme, err := encodeScheme(p.ColorScheme)
	if err != nil {
		return nil, err
	}

	query :=
		`UPDATE projects
		 SET name = $2, description = $3, client_name = $4, client_email = $5,
		     client_user_id = $6, team_id = $7, logo_url = $8, color_scheme = $9, updated_at = now()
		 WHERE id = $1
		 RETURNING ` + columns

	return scan(r.db.QueryRowContext(ctx, query, p.ID, p.Name, p.Description, p.ClientName, p.ClientEmail,
		dbx.NullString(p.ClientUserID), dbx.NullString(p.TeamID), p.LogoURL, scheme))
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Project, error) {
	return scan(r.db.QueryRowContext(ctx, `SELECT `+columns+` FROM projects WHERE id = $1`, id))
}

func (r *PostgresRepository) ListAll(ctx context.Context) ([]models.Project, error) {
	return r.list(ctx, `SELECT `+columns+` FROM projects ORDER BY created_at DESC`)
}

func (r *PostgresRepository) ListForUser(ctx context.Context, userID string) ([]models.Project, error) {
	query := `SELECT ` + columns + ` FROM projects
		 WHERE client_user_id = $1
		    OR team_id IN (SELECT team_id FROM team_members WHERE user_id = $1)
		 ORDER BY created_at DESC`

	return r.list(ctx, query, userID)
}

func (r *PostgresRepository) HasAccess(ctx context.Context, projectID, userID string) (bool, error) {
	query :=
		`SELECT EXISTS (
		     SELECT 1 FROM projects
		     WHERE id = $1
		       AND (client_user_id = $2
		            OR team_id IN (SELECT team_id FROM team_members WHERE user_id = $2))
		 )`

	var ok bool
	if err := r.db.QueryRowContext(ctx, query, projectID, userID).Scan(&ok); err != nil {
		return false, dbx.MapError(err)
	}
	return ok, nil
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]models.Project, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, dbx.MapError(err)
	}
	defer rows.Close()

	out := []models.Project{}
	for rows.Next() {
		p, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, dbx.MapError(err)
	}
	return out, nil
}
