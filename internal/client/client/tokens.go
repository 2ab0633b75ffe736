package client

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dmitrijs2005/studioportal/internal/client/models"
	"github.com/dmitrijs2005/studioportal/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/studioportal/internal/common"
	"github.com/dmitrijs2005/studioportal/internal/dbx"
)

const (
	keyAccessToken  = "access_token"
	keyRefreshToken = "refresh_token"
	keyExpiresAt    = "access_expires_at"
)

// MetadataTokens keeps the token pair in the metadata table of the state file.
type MetadataTokens struct {
	db *sql.DB
}

func NewMetadataTokens(db *sql.DB) *MetadataTokens {
	return &MetadataTokens{db: db}
}

func (s *MetadataTokens) Load(ctx context.Context) (models.TokenPair, error) {
	var pair models.TokenPair
	repo := metadata.NewSQLiteRepository(s.db)

	for key, dst := range map[string]*string{
		keyAccessToken:  &pair.AccessToken,
		keyRefreshToken: &pair.RefreshToken,
	} {
		v, err := repo.Get(ctx, key)
		switch {
		case errors.Is(err, common.ErrorNotFound):
		case err != nil:
			return models.TokenPair{}, err
		default:
			*dst = string(v)
		}
	}

	v, err := repo.Get(ctx, keyExpiresAt)
	switch {
	case errors.Is(err, common.ErrorNotFound):
	case err != nil:
		return models.TokenPair{}, err
	default:
		// A corrupt timestamp only loses the hint; the server stays the authority.
		pair.ExpiresAt, _ = time.Parse(time.RFC3339Nano, string(v))
	}
	return pair, nil
}

func (s *MetadataTokens) Save(ctx context.Context, pair models.TokenPair) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		if err := repo.Set(ctx, keyAccessToken, []byte(pair.AccessToken)); err != nil {
			return err
		}
		if err := repo.Set(ctx, keyRefreshToken, []byte(pair.RefreshToken)); err != nil {
			return err
		}
		return repo.Set(ctx, keyExpiresAt, []byte(pair.ExpiresAt.UTC().Format(time.RFC3339Nano)))
	})
}

func (s *MetadataTokens) Clear(ctx context.Context) error {
	return metadata.NewSQLiteRepository(s.db).Delete(ctx, keyAccessToken, keyRefreshToken, keyExpiresAt)
}
