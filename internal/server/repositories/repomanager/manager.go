package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/studioportal/internal/dbx"
	"github.com/dmitrijs2005/studioportal/internal/server/repositories/features"
	"github.com/dmitrijs2005/studioportal/internal/server/repositories/feedback"
	"github.com/dmitrijs2005/studioportal/internal/server/repositories/messages"
	"github.com/dmitrijs2005/studioportal/internal/server/repositories/profiles"
	"github.com/dmitrijs2005/studioportal/internal/server/repositories/projects"
	"github.com/dmitrijs2005/studioportal/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/studioportal/internal/server/repositories/skills"
	"github.com/dmitrijs2005/studioportal/internal/server/repositories/teams"
	"github.com/dmitrijs2005/studioportal/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so services can run
// the same repository against the pool or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Profiles(db dbx.DBTX) profiles.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Skills(db dbx.DBTX) skills.Repository
	Teams(db dbx.DBTX) teams.Repository
	Messages(db dbx.DBTX) messages.Repository
	Projects(db dbx.DBTX) projects.Repository
	Features(db dbx.DBTX) features.Repository
	Feedback(db dbx.DBTX) feedback.Repository
}
