package profiles

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

const columns = `id, username, display_name, avatar_url, bio, has_seen_welcome_card, updated_at`

func scan(row *sql.Row) (*models.Profile, error) {
	p := &models.Profile{}
	err := row.Scan(&p.ID, &p.Username, &p.DisplayName, &p.AvatarURL, &p.Bio, &p.HasSeenWelcomeCard, &p.UpdatedAt)
	if err != nil {
		return nil, dbx.MapError(err)
	}
	return p, nil
}

func (r *PostgresRepository) Create(ctx context.Context, p *models.Profile) error {
	query :=
		`INSERT INTO profiles (id, username, display_name)
		 VALUES ($1, $2, $3)`

	if _, err := r.db.ExecContext(ctx, query, p.ID, p.Username, p.DisplayName); err != nil {
		return dbx.MapError(err)
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Profile, error) {
	query := `SELECT ` + columns + ` FROM profiles WHERE id = $1`
	return scan(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) Update(ctx context.Context, p *models.Profile) (*models.Profile, error) {
	query :=
		`UPDATE profiles
		 SET username = $2, display_name = $3, bio = $4, updated_at = now()
		 WHERE id = $1
		 RETURNING ` + columns

	return scan(r.db.QueryRowContext(ctx, query, p.ID, p.Username, p.DisplayName, p.Bio))
}

func (r *PostgresRepository) SetAvatar(ctx context.Context, id, url string) error {
	return r.exec(ctx, `UPDATE profiles SET avatar_url = $2, updated_at = now() WHERE id = $1`, id, url)
}

func (r *PostgresRepository) MarkWelcomeSeen(ctx context.Context, id string) error {
	return r.exec(ctx, `UPDATE profiles SET has_seen_welcome_card = TRUE, updated_at = now() WHERE id = $1`, id)
}

func (r *PostgresRepository) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return dbx.MapError(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
