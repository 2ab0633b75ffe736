package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/studioportal/internal/common"
	"github.com/dmitrijs2005/studioportal/internal/portal"
	"github.com/dmitrijs2005/studioportal/internal/server/models"
	"github.com/dmitrijs2005/studioportal/internal/server/repositories/repomanager"
)

const feedbackListLimit = 200

type FeedbackService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewFeedbackService(db *sql.DB, m repomanager.RepositoryManager) *FeedbackService {
	return &FeedbackService{db: db, repomanager: m}
}

func (s *FeedbackService) Submit(ctx context.Context, actor *portal.Session, rating int, message string) (*models.Feedback, error) {
	if err := requireUser(actor); err != nil {
		return nil, err
	}
	if rating < 1 || rating > 5 {
		return nil, fmt.Errorf("%w: rating must be between 1 and 5", common.ErrorValidation)
	}
	return s.repomanager.Feedback(s.db).Create(ctx, &models.Feedback{
		UserID:  actor.UserID,
		Rating:  rating,
		Message: strings.TrimSpace(message),
	})
}

func (s *FeedbackService) List(ctx context.Context, actor *portal.Session) ([]models.Feedback, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.repomanager.Feedback(s.db).List(ctx, feedbackListLimit)
}
