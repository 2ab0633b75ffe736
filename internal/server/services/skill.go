package services

import (
	"context"
	"database/sql"
	"strings"

	"github.com/dmitrijs2005/studioportal/internal/common"
	"github.com/dmitrijs2005/studioportal/internal/dbx"
	"github.com/dmitrijs2005/studioportal/internal/portal"
	"github.com/dmitrijs2005/studioportal/internal/server/models"
	"github.com/dmitrijs2005/studioportal/internal/server/repositories/repomanager"
)

type SkillService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewSkillService(db *sql.DB, m repomanager.RepositoryManager) *SkillService {
	return &SkillService{db: db, repomanager: m}
}

func (s *SkillService) Catalog(ctx context.Context) ([]models.Skill, error) {
	return s.repomanager.Skills(s.db).List(ctx)
}

func (s *SkillService) Create(ctx context.Context, actor *portal.Session, name, category string) (*models.Skill, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, common.ErrorValidation
	}
	return s.repomanager.Skills(s.db).Create(ctx, &models.Skill{Name: name, Category: strings.TrimSpace(category)})
}

func (s *SkillService) Mine(ctx context.Context, actor *portal.Session) ([]models.Skill, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	return s.repomanager.Skills(s.db).ListForUser(ctx, actor.UserID)
}

// Set adds or removes skillID for the actor and returns the resulting skill
// list, read in the same transaction. Both directions are idempotent.
func (s *SkillService) Set(ctx context.Context, actor *portal.Session, skillID string, on bool) ([]models.Skill, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}

	var out []models.Skill
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Skills(tx)

		var err error
		if on {
			err = repo.Add(ctx, actor.UserID, skillID)
		} else {
			err = repo.Remove(ctx, actor.UserID, skillID)
		}
		if err != nil {
			return err
		}

		out, err = repo.ListForUser(ctx, actor.UserID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
