package teams

import (
	"context"
	"database/sql"

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

func (r *PostgresRepository) Create(ctx context.Context, t *models.Team) (*models.Team, error) {
	query :=
		`INSERT INTO teams (name, description)
		 VALUES ($1, $2)
		 RETURNING id, created_at`

	if err := r.db.QueryRowContext(ctx, query, t.Name, t.Description).Scan(&t.ID, &t.CreatedAt); err != nil {
		return nil, dbx.MapError(err)
	}
	return t, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Team, error) {
	t := &models.Team{}
	err := r.db.QueryRowContext(ctx, `SELECT id, name, description, created_at FROM teams WHERE id = $1`, id).
		Scan(&t.ID, &t.Name, &t.Description, &t.CreatedAt)
	if err != nil {
		return nil, dbx.MapError(err)
	}
	return t, nil
}

func (r *PostgresRepository) ListAll(ctx context.Context) ([]models.Team, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, description, created_at FROM teams ORDER BY name`)
	if err != nil {
		return nil, dbx.MapError(err)
	}
	return scanTeams(rows)
}

func (r *PostgresRepository) ListForUser(ctx context.Context, userID string) ([]models.Team, error) {
	query :=
		`SELECT t.id, t.name, t.description, t.created_at
		 FROM teams t
		 JOIN team_members m ON m.team_id = t.id
		 WHERE m.user_id = $1
		 ORDER BY t.name`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, dbx.MapError(err)
	}
	return scanTeams(rows)
}

func (r *PostgresRepository) AddMember(ctx context.Context, m *models.TeamMember) error {
	query :=
		`INSERT INTO team_members (team_id, user_id, role)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (team_id, user_id) DO UPDATE SET role = EXCLUDED.role`

	if _, err := r.db.ExecContext(ctx, query, m.TeamID, m.UserID, m.Role); err != nil {
		return dbx.MapError(err)
	}
	return nil
}

func (r *PostgresRepository) RemoveMember(ctx context.Context, teamID, userID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM team_members WHERE team_id = $1 AND user_id = $2`, teamID, userID)
	if err != nil {
		return dbx.MapError(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) Members(ctx context.Context, teamID string) ([]models.TeamMember, error) {
	query :=
		`SELECT team_id, user_id, role, joined_at
		 FROM team_members
		 WHERE team_id = $1
		 ORDER BY joined_at`

	rows, err := r.db.QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, dbx.MapError(err)
	}
	defer rows.Close()

	out := []models.TeamMember{}
	for rows.Next() {
		var m models.TeamMember
		if err := rows.Scan(&m.TeamID, &m.UserID, &m.Role, &m.JoinedAt); err != nil {
			return nil, dbx.MapError(err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, dbx.MapError(err)
	}
	return out, nil
}

func (r *PostgresRepository) IsMember(ctx context.Context, teamID, userID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM team_members WHERE team_id = $1 AND user_id = $2)`

	var ok bool
	if err := r.db.QueryRowContext(ctx, query, teamID, userID).Scan(&ok); err != nil {
		return false, dbx.MapError(err)
	}
	return ok, nil
}

func scanTeams(rows *sql.Rows) ([]models.Team, error) {
	defer rows.Close()

	out := []models.Team{}
	for rows.Next() {
		var t models.Team
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &t.CreatedAt); err != nil {
			return nil, dbx.MapError(err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, dbx.MapError(err)
	}
	return out, nil
}
